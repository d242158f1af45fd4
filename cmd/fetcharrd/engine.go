package main

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/vmunix/fetcharr/internal/catalog"
	"github.com/vmunix/fetcharr/internal/config"
	"github.com/vmunix/fetcharr/internal/delivery"
	"github.com/vmunix/fetcharr/internal/downloads"
	"github.com/vmunix/fetcharr/internal/indexer"
	"github.com/vmunix/fetcharr/internal/media"
	"github.com/vmunix/fetcharr/internal/orchestrator"
	"github.com/vmunix/fetcharr/internal/scout"
	"github.com/vmunix/fetcharr/internal/store"
	"github.com/vmunix/fetcharr/pkg/newznab"
)

// Collaborators are the external service adapters the engine drives: the
// watchlist catalog, the torrent engine and the post-download delivery
// service. Adapter packages register a constructor here; the core build
// ships without one bundled.
type Collaborators struct {
	Source   catalog.Source
	Engine   downloads.TransferEngine
	Delivery delivery.Service
}

// newCollaborators is replaced by adapter packages. The default returns
// an empty set, which buildEngine rejects with a clear error.
var newCollaborators = func(cfg *config.Config, log *slog.Logger) (Collaborators, error) {
	return Collaborators{}, nil
}

func (c Collaborators) missing() []string {
	var m []string
	if c.Source == nil {
		m = append(m, "catalog source")
	}
	if c.Engine == nil {
		m = append(m, "transfer engine")
	}
	if c.Delivery == nil {
		m = append(m, "delivery service")
	}
	return m
}

// buildEngine wires the full acquisition engine from config. The returned
// store must be closed by the caller.
func buildEngine(cfg *config.Config, logger *slog.Logger) (*orchestrator.Orchestrator, *store.Store, error) {
	collab, err := newCollaborators(cfg, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("collaborators: %w", err)
	}
	if missing := collab.missing(); len(missing) > 0 {
		return nil, nil, fmt.Errorf("no adapter configured for: %s", strings.Join(missing, ", "))
	}

	st, err := store.Open(cfg.Database.Path, logger.With("component", "store"))
	if err != nil {
		return nil, nil, fmt.Errorf("store: %w", err)
	}

	lib := media.NewLibrary()
	syncer := catalog.NewSyncer(lib, collab.Source, logger.With("component", "catalog"))

	reqs, err := buildRequirements(cfg.Scout.Requirements)
	if err != nil {
		_ = st.Close()
		return nil, nil, fmt.Errorf("scout requirements: %w", err)
	}
	redirects, err := scout.NewRedirects(buildRedirects(cfg.Scout.Redirects))
	if err != nil {
		_ = st.Close()
		return nil, nil, fmt.Errorf("scout redirects: %w", err)
	}

	registry := buildRegistry(cfg.Indexers, logger)
	scouter := scout.NewScouter(registry, reqs, redirects, logger.With("component", "scout"))
	sched := downloads.NewScheduler(collab.Engine, cfg.Downloads.MaxConcurrent, logger.With("component", "downloads"))

	ocfg := orchestrator.Config{
		ScoutFrequency:   cfg.Scout.Frequency.Std(),
		IntegrityEnabled: cfg.Downloads.IntegrityEnabled,
		CleanupEnabled:   cfg.Cleanup.Enabled,
		Retention:        buildRetention(cfg.Cleanup),
	}
	if cfg.Downloads.IntegrityPatience != nil {
		ocfg.IntegrityPatience = cfg.Downloads.IntegrityPatience.Std()
	}

	orch := orchestrator.New(lib, syncer, scouter, sched, collab.Delivery, st, ocfg, logger.With("component", "orchestrator"))
	return orch, st, nil
}

func buildRegistry(indexers map[string]config.IndexerConfig, logger *slog.Logger) *indexer.Registry {
	var list []indexer.Indexer
	for name, ic := range indexers {
		if !ic.Enabled {
			continue
		}
		client := newznab.NewClient(name, ic.URL, ic.APIKey, logger.With("indexer", name))
		list = append(list, indexer.NewTorznab(client, ic.Priority, ic.Genres))
	}
	return indexer.NewRegistry(list...)
}

func buildRequirements(rc map[string]config.RequirementConfig) (map[media.Kind]scout.Requirements, error) {
	reqs := make(map[media.Kind]scout.Requirements, len(rc))
	for kind, c := range rc {
		switch media.Kind(kind) {
		case media.KindMovie, media.KindEpisode:
		default:
			return nil, fmt.Errorf("unknown media type %q", kind)
		}
		r := scout.Requirements{
			Delay:              c.Delay.Ptr(),
			Timeout:            c.Timeout.Ptr(),
			NoResultThrottle:   c.NoResultThrottle.Ptr(),
			ReleaseDayDeadline: c.ReleaseDayDeadline.Ptr(),
		}
		for _, p := range c.Parameters {
			r.Parameters = append(r.Parameters, scout.Parameter{
				Category:    scout.Category(p.Category),
				Comparison:  scout.Comparison(p.Comparison),
				Definitions: p.Definitions,
				Patience:    p.Patience.Ptr(),
				Weight:      p.Weight,
			})
		}
		reqs[media.Kind(kind)] = r
	}
	return reqs, nil
}

func buildRedirects(rc map[string][]config.RedirectRule) map[string][]scout.RuleSpec {
	if len(rc) == 0 {
		return nil
	}
	specs := make(map[string][]scout.RuleSpec, len(rc))
	for show, rules := range rc {
		for _, r := range rules {
			spec := scout.RuleSpec{
				SeasonExpr:  r.SeasonExpr,
				EpisodeExpr: r.EpisodeExpr,
			}
			if r.SeasonFrom != nil {
				spec.SeasonFrom = *r.SeasonFrom
			}
			if r.SeasonTo != nil {
				spec.SeasonTo = *r.SeasonTo
			}
			if r.EpisodeFrom != nil {
				spec.EpisodeFrom = *r.EpisodeFrom
			}
			if r.EpisodeTo != nil {
				spec.EpisodeTo = *r.EpisodeTo
			}
			specs[show] = append(specs[show], spec)
		}
	}
	return specs
}

func buildRetention(c config.CleanupConfig) map[media.Kind]time.Duration {
	if !c.Enabled {
		return nil
	}
	retention := make(map[media.Kind]time.Duration, 2)
	if c.Movies != nil {
		retention[media.KindMovie] = c.Movies.Std()
	}
	if c.Episodes != nil {
		retention[media.KindEpisode] = c.Episodes.Std()
	}
	return retention
}

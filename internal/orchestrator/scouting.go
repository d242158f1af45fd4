package orchestrator

import (
	"context"

	"github.com/vmunix/fetcharr/internal/media"
	"github.com/vmunix/fetcharr/internal/scout"
)

// runScouting runs the full sweep when the scout frequency has elapsed,
// otherwise only media whose release-day deadline has been reached.
func (o *Orchestrator) runScouting(ctx context.Context) {
	now := o.now()
	if o.cfg.ScoutFrequency == 0 || now.Sub(o.lastSweep) >= o.cfg.ScoutFrequency {
		o.fullSweep(ctx)
		o.lastSweep = now
		return
	}

	for _, m := range o.lib.InState(media.StateAvailable) {
		if m.Magnet() == "" && o.scouter.ScoutDeadlineReached(m) {
			o.scoutOne(ctx, m, false)
		}
	}
}

type seasonKey struct {
	show   string
	season int
}

// fullSweep scouts every Available media lacking a magnet. Episodes are
// grouped per (show, season) so one season pack can serve the whole group.
func (o *Orchestrator) fullSweep(ctx context.Context) {
	groups := make(map[seasonKey][]*media.Media)

	for _, m := range o.lib.InState(media.StateAvailable) {
		if m.Magnet() != "" {
			continue
		}
		if m.Kind == media.KindEpisode {
			key := seasonKey{show: m.ShowID.Key(), season: m.Season}
			groups[key] = append(groups[key], m)
			continue
		}
		o.scoutOne(ctx, m, false)
	}

	for key, eps := range groups {
		o.scoutSeason(ctx, key, eps)
	}
}

// scoutOne runs one scout and applies its outcome: Found selects a
// candidate and starts the transfer, Timeout abandons the media.
func (o *Orchestrator) scoutOne(ctx context.Context, m *media.Media, force bool) scout.Result {
	res := o.scouter.Scout(ctx, m, force)
	switch res.Status {
	case scout.StatusFound:
		if err := m.AddCandidates(res.Candidates, force); err != nil {
			o.log.Warn("candidate selection failed", "media", m.String(), "error", err)
			break
		}
		o.startTransfer(m)
	case scout.StatusTimeout:
		if err := o.lib.Transition(m, media.StateAbandoned, true); err != nil {
			o.log.Error("abandon failed", "media", m.String(), "error", err)
		} else {
			o.log.Info("media abandoned", "media", m.String())
		}
	}
	return res
}

// scoutSeason scouts each magnet-less episode of one (show, season) group.
// When a full-season candidate turns up, a search comes back empty, or
// every episode of the season holds a magnet, the best full-season magnet
// is propagated to the episodes still lacking one. One pack instead of N
// single-episode transfers.
func (o *Orchestrator) scoutSeason(ctx context.Context, key seasonKey, eps []*media.Media) {
	best := o.heldSeasonCandidate(key)
	propagate := false

	for _, ep := range eps {
		res := o.scoutOne(ctx, ep, false)
		if res.Status == scout.StatusNotFound {
			propagate = true
		}
		for _, c := range res.Candidates {
			if !c.FullSeason {
				continue
			}
			propagate = true
			if best == nil || c.Score > best.Score {
				pick := c
				best = &pick
			}
		}
	}

	if o.seasonFullyAssigned(key) {
		propagate = true
	}
	if !propagate || best == nil {
		return
	}

	for _, ep := range eps {
		if ep.Magnet() != "" {
			continue
		}
		if err := ep.AddCandidates([]media.Candidate{*best}, false); err != nil {
			o.log.Warn("season pack propagation failed", "media", ep.String(), "error", err)
			continue
		}
		o.log.Info("season pack propagated", "media", ep.String(), "link", best.Link)
		o.startTransfer(ep)
	}
}

// heldSeasonCandidate returns the best full-season candidate already
// selected by any episode of the season.
func (o *Orchestrator) heldSeasonCandidate(key seasonKey) *media.Candidate {
	var best *media.Candidate
	for _, ep := range o.seasonEpisodes(key) {
		uri := ep.Magnet()
		if uri == "" {
			continue
		}
		for _, c := range ep.Candidates {
			if c.Link != uri || !c.FullSeason {
				continue
			}
			if best == nil || c.Score > best.Score {
				pick := c
				best = &pick
			}
		}
	}
	return best
}

// seasonFullyAssigned reports whether every tracked episode of the season
// holds a magnet.
func (o *Orchestrator) seasonFullyAssigned(key seasonKey) bool {
	eps := o.seasonEpisodes(key)
	if len(eps) == 0 {
		return false
	}
	for _, ep := range eps {
		if ep.Magnet() == "" && !ep.State().IsTerminal() {
			return false
		}
	}
	return true
}

func (o *Orchestrator) seasonEpisodes(key seasonKey) []*media.Media {
	return o.lib.Filter(func(m *media.Media) bool {
		return m.Kind == media.KindEpisode && m.Season == key.season && m.ShowID.Key() == key.show
	})
}

// Package scout evaluates indexer candidates against configured
// requirements and selects ranked magnet candidates.
package scout

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/vmunix/fetcharr/internal/indexer"
	"github.com/vmunix/fetcharr/internal/media"
	"github.com/vmunix/fetcharr/pkg/release"
)

// Status is the outcome of one scout run.
type Status string

const (
	// StatusFound means at least one candidate passed all mandatory
	// requirements.
	StatusFound Status = "found"
	// StatusBelowReqs means candidates exist but none passed.
	StatusBelowReqs Status = "below_requirements"
	// StatusNotFound means no indexer returned a relevant candidate.
	StatusNotFound Status = "not_found"
	// StatusDelayed means the configured post-release delay has not elapsed.
	StatusDelayed Status = "delayed"
	// StatusTimeout means the search window has expired; the media should
	// be abandoned.
	StatusTimeout Status = "timeout"
	// StatusThrottle means the no-result backoff is still in effect.
	StatusThrottle Status = "throttle"
)

// Scored is one candidate with its requirement evaluation attached.
type Scored struct {
	indexer.Result
	Score  int
	Passed bool
}

// Result is the outcome of Scout: a status plus candidates ranked best
// first (passing candidates always ahead of failing ones).
type Result struct {
	Status     Status
	Scored     []Scored
	Candidates []media.Candidate
}

// titleMatchThreshold is the minimum similarity between the media title and
// a result's parsed title for the result to be considered relevant.
const titleMatchThreshold = 0.9

// Scouter searches indexers and ranks candidates per the configured
// requirements.
type Scouter struct {
	registry  *indexer.Registry
	reqs      map[media.Kind]Requirements
	redirects *Redirects
	log       *slog.Logger

	observers []func(*media.Media, Result)

	now func() time.Time
}

func NewScouter(reg *indexer.Registry, reqs map[media.Kind]Requirements, redirects *Redirects, log *slog.Logger) *Scouter {
	if log == nil {
		log = slog.Default()
	}
	if reqs == nil {
		reqs = make(map[media.Kind]Requirements)
	}
	return &Scouter{
		registry:  reg,
		reqs:      reqs,
		redirects: redirects,
		log:       log,
		now:       time.Now,
	}
}

// OnScouted registers an observer invoked after every scout run.
func (s *Scouter) OnScouted(fn func(*media.Media, Result)) {
	s.observers = append(s.observers, fn)
}

// Scout searches every applicable indexer for the media and returns ranked
// candidates. Gating (timeout, delay, throttle) runs before any network
// call and is bypassed by force.
func (s *Scouter) Scout(ctx context.Context, m *media.Media, force bool) Result {
	req := s.reqs[m.Kind]
	now := s.now()

	if !force {
		if st, gated := s.gate(m, req, now); gated {
			if st != StatusThrottle {
				m.LastScoutedAt = &now
			}
			res := Result{Status: st}
			s.notify(m, res)
			return res
		}
	}

	results := s.search(ctx, m)

	var scored []Scored
	for _, r := range results {
		score, passed := s.evaluate(m, r, req, now)
		scored = append(scored, Scored{Result: r, Score: score, Passed: passed})
	}
	rank(scored)

	res := Result{Status: StatusNotFound, Scored: scored}
	if len(scored) > 0 {
		res.Status = StatusBelowReqs
		if scored[0].Passed {
			res.Status = StatusFound
		}
		if m.FirstSpottedAt == nil {
			m.FirstSpottedAt = &now
		}
		for _, sc := range scored {
			res.Candidates = append(res.Candidates, media.Candidate{
				Title:      sc.Title,
				Link:       sc.Link,
				Score:      sc.Score,
				Indexer:    sc.Indexer,
				FullSeason: sc.FullSeason(),
			})
		}
	}
	m.LastScoutedAt = &now

	s.log.Debug("scouted", "media", m.String(), "status", string(res.Status), "candidates", len(res.Candidates))
	s.notify(m, res)
	return res
}

func (s *Scouter) notify(m *media.Media, res Result) {
	for _, fn := range s.observers {
		fn(m, res)
	}
}

// gate applies the pre-search checks in order: timeout, delay, throttle.
func (s *Scouter) gate(m *media.Media, req Requirements, now time.Time) (Status, bool) {
	if m.LastScoutedAt != nil && req.Timeout != nil {
		ref := m.StateChangedAt
		if m.Release != nil && m.Release.After(ref) {
			ref = *m.Release
		}
		if ref.Add(*req.Timeout).Before(now) {
			return StatusTimeout, true
		}
	}
	if req.Delay != nil && m.Release != nil && m.Release.Add(*req.Delay).After(now) {
		return StatusDelayed, true
	}
	if req.NoResultThrottle != nil && m.LastScoutedAt != nil && m.FirstSpottedAt == nil &&
		m.LastScoutedAt.Add(*req.NoResultThrottle).After(now) {
		return StatusThrottle, true
	}
	return "", false
}

// search queries every applicable indexer in parallel. Per-indexer failures
// are logged and contribute zero results.
func (s *Scouter) search(ctx context.Context, m *media.Media) []indexer.Result {
	proxy, err := s.redirects.Apply(m)
	if err != nil {
		s.log.Warn("redirect failed, searching original numbering", "media", m.String(), "error", err)
		proxy = m
	}

	indexers := s.registry.ForMedia(m)
	out := make(chan []indexer.Result, len(indexers))
	var wg sync.WaitGroup

	for _, ix := range indexers {
		wg.Add(1)
		go func(ix indexer.Indexer) {
			defer wg.Done()
			results, err := ix.Search(ctx, proxy)
			if err != nil {
				s.log.Warn("indexer failed", "indexer", ix.Name(), "media", m.String(), "error", err)
				return
			}
			out <- results
		}(ix)
	}

	go func() {
		wg.Wait()
		close(out)
	}()

	var all []indexer.Result
	for batch := range out {
		for _, r := range batch {
			if s.relevant(m, proxy, r) {
				all = append(all, r)
			}
		}
	}
	return all
}

// relevant filters out results for other content: title mismatch, wrong
// year, wrong episode numbering.
func (s *Scouter) relevant(m, proxy *media.Media, r indexer.Result) bool {
	title := m.Title
	if m.Kind == media.KindEpisode {
		title = m.ShowTitle
	}
	if release.TitleSimilarity(title, r.Info.Title) < titleMatchThreshold {
		return false
	}
	if m.Kind == media.KindMovie {
		if m.Year != 0 && r.Info.Year != 0 && abs(m.Year-r.Info.Year) > 1 {
			return false
		}
		return true
	}
	return r.Info.Covers(proxy.Season, proxy.Number)
}

// evaluate scores one candidate: each matching parameter contributes its
// weight; a failing parameter disqualifies only while it is mandatory.
func (s *Scouter) evaluate(m *media.Media, r indexer.Result, req Requirements, now time.Time) (int, bool) {
	forced := deadlineForced(m, req, now)
	ref := patienceRef(m, now)

	total, passed := 0, true
	for _, p := range req.Parameters {
		if p.matches(r) {
			total += p.weight()
			continue
		}
		if p.Patience == nil || forced || !ref.Add(*p.Patience).After(now) {
			passed = false
		}
	}
	return total, passed
}

// patienceRef is the instant patience windows count from. Movies released
// within the last six months count from release; older or undated movies
// count from first spotting (or now); episodes count from release, falling
// back to the state-change timestamp.
func patienceRef(m *media.Media, now time.Time) time.Time {
	const sixMonths = 6 * 30 * 24 * time.Hour
	if m.Kind == media.KindMovie {
		if m.Release != nil && now.Sub(*m.Release) <= sixMonths {
			return *m.Release
		}
		if m.FirstSpottedAt != nil {
			return *m.FirstSpottedAt
		}
		return now
	}
	if m.Release != nil {
		return *m.Release
	}
	return m.StateChangedAt
}

// deadlineForced reports whether the release-day deadline has passed, which
// makes every parameter mandatory regardless of patience.
func deadlineForced(m *media.Media, req Requirements, now time.Time) bool {
	if req.ReleaseDayDeadline == nil || m.Release == nil {
		return false
	}
	rel := *m.Release
	if now.Year() != rel.Year() || now.YearDay() != rel.YearDay() {
		return false
	}
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	return !now.Before(midnight.Add(*req.ReleaseDayDeadline))
}

// ScoutDeadlineReached reports whether the media's release-day deadline has
// passed without a scout since that instant. The orchestrator uses it to
// pick up individual media between full sweeps.
func (s *Scouter) ScoutDeadlineReached(m *media.Media) bool {
	req := s.reqs[m.Kind]
	now := s.now()
	if !deadlineForced(m, req, now) {
		return false
	}
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	deadline := midnight.Add(*req.ReleaseDayDeadline)
	return m.LastScoutedAt == nil || m.LastScoutedAt.Before(deadline)
}

// GetIndexersForMedia returns the indexers a scout run would query, ranked
// by genre specialization then priority.
func (s *Scouter) GetIndexersForMedia(m *media.Media) []indexer.Indexer {
	return s.registry.ForMedia(m)
}

// RemoveBannedLinks filters previously failed magnets out of a result. The
// stall-recovery path uses it to reselect the next-best untried candidate.
func RemoveBannedLinks(res Result, isBanned func(string) bool) Result {
	out := Result{Status: res.Status}
	for _, sc := range res.Scored {
		if !isBanned(sc.Link) {
			out.Scored = append(out.Scored, sc)
		}
	}
	for _, c := range res.Candidates {
		if !isBanned(c.Link) {
			out.Candidates = append(out.Candidates, c)
		}
	}
	if res.Status == StatusFound || res.Status == StatusBelowReqs {
		switch {
		case len(out.Scored) == 0 && len(out.Candidates) == 0:
			out.Status = StatusNotFound
		case len(out.Scored) > 0 && !out.Scored[0].Passed:
			out.Status = StatusBelowReqs
		}
	}
	return out
}

// rank orders candidates: passing first, then score, then indexer
// priority, then swarm health.
func rank(scored []Scored) {
	sort.SliceStable(scored, func(i, j int) bool {
		a, b := scored[i], scored[j]
		if a.Passed != b.Passed {
			return a.Passed
		}
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		if a.Priority != b.Priority {
			return a.Priority > b.Priority
		}
		return a.Seeds*10+a.Peers > b.Seeds*10+b.Peers
	})
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

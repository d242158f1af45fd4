package catalog

import (
	"context"
	"log/slog"
	"time"

	"github.com/vmunix/fetcharr/internal/media"
)

// defaultCalendarDays is how far ahead the calendar sync looks.
const defaultCalendarDays = 30

var kinds = []media.Kind{media.KindMovie, media.KindEpisode}

// Syncer reconciles remote catalog state into the library: collection,
// watchlist, calendar and watched-history batches, followed by metadata
// enrichment and release-date state progression.
type Syncer struct {
	lib *media.Library
	src Source
	log *slog.Logger

	calendarDays int
	last         Activity
	synced       bool

	now func() time.Time
}

func NewSyncer(lib *media.Library, src Source, log *slog.Logger) *Syncer {
	if log == nil {
		log = slog.Default()
	}
	return &Syncer{
		lib:          lib,
		src:          src,
		log:          log,
		calendarDays: defaultCalendarDays,
		now:          time.Now,
	}
}

// Update pulls catalog deltas into the library and advances media states.
// Domains whose remote activity timestamp has not moved since the last run
// are skipped; the calendar is always refreshed since release dates change
// without an activity signal.
func (s *Syncer) Update(ctx context.Context) ([]media.Change, Status) {
	activity, st := s.src.FetchActivity(ctx)
	if !st.OK() {
		return nil, st
	}

	var changes []media.Change

	if !s.synced || activity.CollectedAt.After(s.last.CollectedAt) {
		for _, kind := range kinds {
			items, st := s.src.FetchCollection(ctx, kind)
			if !st.OK() {
				return changes, st
			}
			changes = append(changes, s.syncCollected(items)...)
		}
	}

	if !s.synced || activity.WatchlistedAt.After(s.last.WatchlistedAt) {
		items, st := s.src.FetchWatchlist(ctx)
		if !st.OK() {
			return changes, st
		}
		changes = append(changes, s.syncWatchlist(items)...)
	}

	for _, kind := range kinds {
		items, st := s.src.FetchCalendar(ctx, kind, s.now().AddDate(0, 0, -1), s.calendarDays)
		if !st.OK() {
			return changes, st
		}
		changes = append(changes, s.syncCalendar(items)...)
	}

	if !s.synced || activity.WatchedAt.After(s.last.WatchedAt) {
		for _, kind := range kinds {
			items, st := s.src.FetchWatched(ctx, kind)
			if !st.OK() {
				return changes, st
			}
			changes = append(changes, s.syncWatched(items)...)
		}
	}

	progressed, st := s.progress(ctx)
	changes = append(changes, progressed...)
	if !st.OK() {
		return changes, st
	}

	s.last = activity
	s.synced = true
	return changes, StatusOK()
}

// syncCollected merges the remote collection: matched items are forced to
// Collected with the catalog's collected timestamp, new ones enter tracked
// as already collected so retention cleanup sees them.
func (s *Syncer) syncCollected(items []*media.Media) []media.Change {
	now := s.now()
	for _, in := range items {
		if in.CollectedAt == nil {
			in.CollectedAt = &now
		}
		in.ForceState(media.StateCollected)
	}
	return s.lib.Synchronize(items, media.SyncOptions{
		Merge: func(existing, in *media.Media) {
			existing.CollectedAt = in.CollectedAt
			existing.ForceState(media.StateCollected)
		},
	})
}

// syncWatchlist merges the remote watchlist. Items that were watchlisted,
// are no longer listed and were never collected stop being tracked.
func (s *Syncer) syncWatchlist(items []*media.Media) []media.Change {
	now := s.now()
	for _, in := range items {
		if in.WatchlistedAt == nil {
			in.WatchlistedAt = &now
		}
	}
	return s.lib.Synchronize(items, media.SyncOptions{
		Remove: func(m *media.Media) bool {
			return m.WatchlistedAt != nil && m.State() != media.StateCollected
		},
		Merge: func(existing, in *media.Media) {
			existing.WatchlistedAt = in.WatchlistedAt
			if in.Title != "" {
				existing.Title = in.Title
			}
			if in.Year != 0 {
				existing.Year = in.Year
			}
		},
	})
}

// syncCalendar merges upcoming releases: refreshes release dates, titles and
// season sizing without touching state.
func (s *Syncer) syncCalendar(items []*media.Media) []media.Change {
	return s.lib.Synchronize(items, media.SyncOptions{
		Merge: func(existing, in *media.Media) {
			if in.Release != nil {
				existing.Release = in.Release
			}
			if in.Title != "" {
				existing.Title = in.Title
			}
			if in.ShowTitle != "" {
				existing.ShowTitle = in.ShowTitle
			}
			if in.TotalEpisodes != 0 {
				existing.TotalEpisodes = in.TotalEpisodes
			}
			if in.Year != 0 {
				existing.Year = in.Year
			}
		},
	})
}

// syncWatched stamps watched timestamps onto tracked items. History entries
// for media we do not track are ignored.
func (s *Syncer) syncWatched(items []*media.Media) []media.Change {
	return s.lib.Synchronize(items, media.SyncOptions{
		Add: func(*media.Media) bool { return false },
		Merge: func(existing, in *media.Media) {
			if in.WatchedAt != nil {
				existing.WatchedAt = in.WatchedAt
			}
		},
	})
}

// progress advances states: Registered items are enriched and move to
// Awaiting; Awaiting items whose release has passed move to Available.
func (s *Syncer) progress(ctx context.Context) ([]media.Change, Status) {
	var changes []media.Change
	now := s.now()

	for _, m := range s.lib.All() {
		if m.State() == media.StateRegistered {
			if st := s.src.EnrichMetadata(ctx, m); !st.OK() {
				if st.AuthRequired() {
					return changes, st
				}
				s.log.Warn("metadata enrichment failed", "media", m.String(), "error", st.Err())
				continue
			}
			old := m.State()
			if err := s.lib.Transition(m, media.StateAwaiting, false); err != nil {
				s.log.Warn("state progression failed", "media", m.String(), "error", err)
				continue
			}
			changes = append(changes, media.Change{Media: m, Kind: media.ChangeState, OldState: old})
		}

		if m.State() == media.StateAwaiting && m.Release != nil && !m.Release.After(now) {
			old := m.State()
			if err := s.lib.Transition(m, media.StateAvailable, false); err != nil {
				s.log.Warn("state progression failed", "media", m.String(), "error", err)
				continue
			}
			changes = append(changes, media.Change{Media: m, Kind: media.ChangeState, OldState: old})
		}
	}
	return changes, StatusOK()
}

// MarkCollected records a successful delivery: stamps CollectedAt, forces
// the Collected state and pushes the collection entry upstream.
func (s *Syncer) MarkCollected(ctx context.Context, items []*media.Media, resolution, audio string) Status {
	now := s.now()
	for _, m := range items {
		m.CollectedAt = &now
		s.lib.ForceState(m, media.StateCollected, true)
	}

	notFound, st := s.src.PushCollected(ctx, items, resolution, audio)
	if !st.OK() {
		s.log.Error("collection push failed", "count", len(items), "error", st.Err())
		return st
	}
	for _, m := range notFound {
		s.log.Warn("collection push: unknown to catalog", "media", m.String())
	}
	return st
}

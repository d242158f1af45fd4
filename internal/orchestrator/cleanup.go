package orchestrator

import (
	"time"

	"github.com/vmunix/fetcharr/internal/delivery"
	"github.com/vmunix/fetcharr/internal/media"
)

// cleanup removes local files for watched media older than the configured
// retention window. Movies go one by one; a season's episodes go only once
// the whole season is confirmed watched.
func (o *Orchestrator) cleanup() {
	now := o.now()

	if window, ok := o.cfg.Retention[media.KindMovie]; ok {
		for _, m := range o.lib.InState(media.StateCollected) {
			if m.Kind != media.KindMovie {
				continue
			}
			if watchedPast(m, window, now) {
				o.remove(m)
			}
		}
	}

	window, ok := o.cfg.Retention[media.KindEpisode]
	if !ok {
		return
	}
	seasons := make(map[seasonKey][]*media.Media)
	for _, m := range o.lib.InState(media.StateCollected) {
		if m.Kind != media.KindEpisode {
			continue
		}
		key := seasonKey{show: m.ShowID.Key(), season: m.Season}
		seasons[key] = append(seasons[key], m)
	}
	for key, eps := range seasons {
		if !o.seasonWatched(key, window, now) {
			continue
		}
		for _, ep := range eps {
			o.remove(ep)
		}
	}
}

// seasonWatched reports whether every tracked episode of the season has
// been watched past the retention window.
func (o *Orchestrator) seasonWatched(key seasonKey, window time.Duration, now time.Time) bool {
	eps := o.seasonEpisodes(key)
	if len(eps) == 0 {
		return false
	}
	for _, ep := range eps {
		if !watchedPast(ep, window, now) {
			return false
		}
	}
	return true
}

func watchedPast(m *media.Media, window time.Duration, now time.Time) bool {
	return m.WatchedAt != nil && m.WatchedAt.Add(window).Before(now)
}

// remove deletes the media's local files and drops it from the library.
func (o *Orchestrator) remove(m *media.Media) {
	if res := o.deliver.Delete(m); !res.OK() && res.Status != delivery.StatusNotFound {
		o.log.Error("retention delete failed", "media", m.String(), "error", res.Err)
		return
	}
	o.lib.Remove(m)
	o.log.Info("retention cleanup", "media", m.String())
}

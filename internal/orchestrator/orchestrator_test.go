package orchestrator

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vmunix/fetcharr/internal/delivery"
	"github.com/vmunix/fetcharr/internal/downloads"
	"github.com/vmunix/fetcharr/internal/indexer"
	"github.com/vmunix/fetcharr/internal/media"
	"github.com/vmunix/fetcharr/internal/scout"
)

func TestUpdateRequiresInitialize(t *testing.T) {
	f := newFixture(Config{}, nil, nil)
	f.orch.initialized = false

	if got := f.orch.Update(context.Background()); got != StatusNotInitialized {
		t.Fatalf("Update = %q, want %q", got, StatusNotInitialized)
	}
}

func TestUpdateNonReentrant(t *testing.T) {
	f := newFixture(Config{}, nil, nil)

	f.orch.tickMu.Lock()
	defer f.orch.tickMu.Unlock()

	if got := f.orch.Update(context.Background()); got != StatusUpdateRunning {
		t.Fatalf("overlapping Update = %q, want %q", got, StatusUpdateRunning)
	}
}

func TestUpdateAfterStop(t *testing.T) {
	f := newFixture(Config{}, nil, nil)
	f.orch.Stop()

	if got := f.orch.Update(context.Background()); got != StatusStopped {
		t.Fatalf("Update after Stop = %q, want %q", got, StatusStopped)
	}
}

func TestUpdatePropagatesAuthRequired(t *testing.T) {
	f := newFixture(Config{}, nil, nil)
	f.source.auth = true

	if got := f.orch.Update(context.Background()); got != StatusAuthRequired {
		t.Fatalf("Update = %q, want %q", got, StatusAuthRequired)
	}
}

func TestUpdateStartsHeldMagnets(t *testing.T) {
	f := newFixture(Config{}, nil, nil)

	m := availableMovie(1, "Heat")
	require.NoError(t, m.SetMagnet("magnet:heat", false))
	f.lib.Add(m)

	got := f.orch.Update(context.Background())

	assert.Equal(t, StatusUpdated, got)
	assert.True(t, f.engine.started("magnet:heat"))
	assert.GreaterOrEqual(t, f.store.saves, 1, "tick must persist the library")
}

func TestUpdateDoesNotRestartKnownTransfers(t *testing.T) {
	f := newFixture(Config{}, nil, nil)

	m := availableMovie(1, "Heat")
	require.NoError(t, m.SetMagnet("magnet:heat", false))
	f.lib.Add(m)
	f.engine.add(downloads.EngineStatus{URI: "magnet:heat", State: downloads.EngineDownloading, Peers: 3, Started: time.Now()})

	f.orch.Update(context.Background())

	assert.False(t, f.engine.started("magnet:heat"))
}

func TestUpdateScoutsAndStartsTransfer(t *testing.T) {
	ix := &stubIndexer{results: []indexer.Result{
		indexer.NewResult("Heat.1995.1080p.BluRay.x264-GRP", "magnet:heat", 40, 5, 8<<30, "stub", 1),
	}}
	f := newFixture(Config{}, ix, nil)

	m := availableMovie(1, "Heat")
	m.Year = 1995
	f.lib.Add(m)

	got := f.orch.Update(context.Background())

	assert.Equal(t, StatusUpdated, got)
	assert.Equal(t, "magnet:heat", m.Magnet())
	assert.True(t, f.engine.started("magnet:heat"))
}

func TestUpdateAbandonsTimedOutMedia(t *testing.T) {
	timeout := 7 * 24 * time.Hour
	reqs := map[media.Kind]scout.Requirements{
		media.KindMovie: {Timeout: &timeout},
	}
	f := newFixture(Config{}, &stubIndexer{}, reqs)

	m := availableMovie(1, "Heat")
	m.Release = timePtr(time.Now().Add(-10 * 24 * time.Hour))
	m.StateChangedAt = time.Now().Add(-10 * 24 * time.Hour)
	m.LastScoutedAt = timePtr(time.Now().Add(-time.Hour))
	f.lib.Add(m)

	f.orch.Update(context.Background())

	assert.Equal(t, media.StateAbandoned, m.State())
}

func TestSeasonPackPropagation(t *testing.T) {
	// The indexer has nothing for the last episode, but two siblings
	// already hold a season pack. The orphan inherits the pack.
	f := newFixture(Config{}, &stubIndexer{}, nil)

	pack := media.Candidate{
		Title:      "Slow.Horses.S02.1080p.WEB.H264-GRP",
		Link:       "magnet:slowhorses-s02",
		Score:      40,
		Indexer:    "stub",
		FullSeason: true,
	}
	var eps []*media.Media
	for n := 1; n <= 3; n++ {
		ep := availableEpisode(77, 2, n, "Slow Horses")
		f.lib.Add(ep)
		eps = append(eps, ep)
	}
	require.NoError(t, eps[0].AddCandidates([]media.Candidate{pack}, false))
	require.NoError(t, eps[1].AddCandidates([]media.Candidate{pack}, false))

	f.orch.Update(context.Background())

	assert.Equal(t, pack.Link, eps[2].Magnet(), "orphan episode should inherit the season pack")
	assert.True(t, f.engine.started(pack.Link))
}

func TestSeasonPackNotPropagatedWithoutSignal(t *testing.T) {
	// One episode holds a single-episode magnet; no pack exists and the
	// indexer stays silent only because there is no pack candidate at
	// all. NotFound alone must not conjure a magnet out of nothing.
	f := newFixture(Config{}, &stubIndexer{}, nil)

	single := media.Candidate{Title: "Slow.Horses.S02E01.1080p.WEB.H264-GRP", Link: "magnet:e01", Score: 30}
	ep1 := availableEpisode(77, 2, 1, "Slow Horses")
	ep2 := availableEpisode(77, 2, 2, "Slow Horses")
	f.lib.Add(ep1)
	f.lib.Add(ep2)
	require.NoError(t, ep1.AddCandidates([]media.Candidate{single}, false))

	f.orch.Update(context.Background())

	assert.Empty(t, ep2.Magnet())
}

func completedInfo(uri, name string, files ...string) downloads.Info {
	return downloads.Info{URI: uri, Name: name, State: downloads.StateCompleted, Progress: 100, Files: files}
}

func TestDeliveryCollectsRelatedMedia(t *testing.T) {
	f := newFixture(Config{}, nil, nil)
	f.deliver.results = []delivery.Result{{Status: delivery.StatusOK, Files: []string{"/media/movies/Heat (1995)/heat.mkv"}}}

	m := availableMovie(1, "Heat")
	require.NoError(t, m.SetMagnet("magnet:heat", false))
	f.lib.Add(m)
	f.engine.add(downloads.EngineStatus{URI: "magnet:heat", State: downloads.EngineStopped, Progress: 100})

	f.orch.deliverTransfer(completedInfo("magnet:heat", "Heat.1995.1080p.BluRay.DTS.x264-GRP", "/media/movies/Heat (1995)/heat.mkv"))

	assert.Equal(t, media.StateCollected, m.State())
	assert.Equal(t, []string{"/media/movies/Heat (1995)/heat.mkv"}, m.Paths)
	assert.NotNil(t, m.CollectedAt)
	assert.Contains(t, f.engine.stopCalls, "magnet:heat")
	assert.GreaterOrEqual(t, f.store.saves, 1)
}

func TestDeliveryExactlyOnce(t *testing.T) {
	f := newFixture(Config{}, nil, nil)
	f.deliver.results = []delivery.Result{{Status: delivery.StatusOK, Files: []string{"/media/movies/heat.mkv"}}}

	m := availableMovie(1, "Heat")
	require.NoError(t, m.SetMagnet("magnet:heat", false))
	f.lib.Add(m)

	in := completedInfo("magnet:heat", "Heat.1995.1080p.BluRay.x264-GRP")
	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			f.orch.deliverTransfer(in)
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, f.deliver.callCount(), "racing completion events must deliver once")
	assert.Equal(t, media.StateCollected, m.State())
}

func TestDeliveryRetriesTransientErrors(t *testing.T) {
	f := newFixture(Config{}, nil, nil)
	f.orch.retryDelay = func(int) time.Duration { return time.Millisecond }
	f.deliver.results = []delivery.Result{
		{Status: delivery.StatusTransientError},
		{Status: delivery.StatusTransientError},
		{Status: delivery.StatusOK, Files: []string{"/media/movies/heat.mkv"}},
	}

	m := availableMovie(1, "Heat")
	require.NoError(t, m.SetMagnet("magnet:heat", false))
	f.lib.Add(m)
	f.engine.add(downloads.EngineStatus{URI: "magnet:heat", State: downloads.EngineStopped, Progress: 100, Name: "Heat.1995.1080p.BluRay.x264-GRP"})

	f.orch.deliverTransfer(completedInfo("magnet:heat", "Heat.1995.1080p.BluRay.x264-GRP"))

	assert.Eventually(t, func() bool {
		return m.State() == media.StateCollected
	}, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, 3, f.deliver.callCount())
}

func TestDeliveryGivesUpAfterMaxRetries(t *testing.T) {
	f := newFixture(Config{}, nil, nil)
	f.orch.retryDelay = func(int) time.Duration { return time.Millisecond }
	f.deliver.results = []delivery.Result{{Status: delivery.StatusTransientError}}

	m := availableMovie(1, "Heat")
	require.NoError(t, m.SetMagnet("magnet:heat", false))
	f.lib.Add(m)
	f.engine.add(downloads.EngineStatus{URI: "magnet:heat", State: downloads.EngineStopped, Progress: 100})

	f.orch.deliverTransfer(completedInfo("magnet:heat", "Heat.1995.1080p.BluRay.x264-GRP"))

	// Initial attempt plus maxDeliveryRetries scheduled retries, then stop.
	assert.Eventually(t, func() bool {
		return f.deliver.callCount() == maxDeliveryRetries+1
	}, 2*time.Second, 10*time.Millisecond)
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, maxDeliveryRetries+1, f.deliver.callCount())
	assert.NotEqual(t, media.StateCollected, m.State())
}

func TestDeliveryPermanentErrorStopsTransfer(t *testing.T) {
	f := newFixture(Config{}, nil, nil)
	f.deliver.results = []delivery.Result{{Status: delivery.StatusError}}

	m := availableMovie(1, "Heat")
	require.NoError(t, m.SetMagnet("magnet:heat", false))
	f.lib.Add(m)
	f.engine.add(downloads.EngineStatus{URI: "magnet:heat", State: downloads.EngineStopped, Progress: 100})

	f.orch.deliverTransfer(completedInfo("magnet:heat", "Heat.1995.1080p.BluRay.x264-GRP"))

	assert.Equal(t, 1, f.deliver.callCount())
	assert.NotEqual(t, media.StateCollected, m.State())
	assert.Contains(t, f.engine.stopCalls, "magnet:heat")
}

func TestCompletionEventReachesDelivery(t *testing.T) {
	f := newFixture(Config{}, nil, nil)
	f.deliver.results = []delivery.Result{{Status: delivery.StatusOK, Files: []string{"/media/movies/heat.mkv"}}}

	m := availableMovie(1, "Heat")
	require.NoError(t, m.SetMagnet("magnet:heat", false))
	f.lib.Add(m)

	f.engine.fire(downloads.EngineStatus{URI: "magnet:heat", State: downloads.EngineSeeding, Progress: 100, Name: "Heat.1995.1080p.BluRay.x264-GRP"})

	assert.Equal(t, media.StateCollected, m.State())
	assert.Equal(t, 1, f.deliver.callCount())
}

func TestIntegrityRestartsThenReplacesBrokenTransfer(t *testing.T) {
	replacement := indexer.NewResult("Heat.1995.1080p.WEB.x264-ALT", "magnet:heat-alt", 30, 4, 8<<30, "stub", 1)
	doomed := indexer.NewResult("Heat.1995.1080p.BluRay.x264-GRP", "magnet:heat", 50, 10, 8<<30, "stub", 1)
	ix := &stubIndexer{results: []indexer.Result{doomed, replacement}}

	f := newFixture(Config{IntegrityEnabled: true, IntegrityPatience: time.Hour}, ix, nil)

	m := availableMovie(1, "Heat")
	m.Year = 1995
	require.NoError(t, m.AddCandidates([]media.Candidate{
		{Title: doomed.Title, Link: doomed.Link, Score: 50},
	}, false))
	f.lib.Add(m)
	f.engine.add(downloads.EngineStatus{
		URI: "magnet:heat", State: downloads.EngineDownloading,
		Peers: 5, Progress: 12, Downloaded: 1 << 28, Started: time.Now(),
	})

	base := time.Now()
	at := func(d time.Duration) { f.orch.now = func() time.Time { return base.Add(d) } }
	ctx := context.Background()

	at(0)
	f.orch.integritySweep(ctx) // establishes the track

	at(2 * time.Hour)
	f.orch.integritySweep(ctx) // first offense: restart in place
	assert.Contains(t, f.engine.restartCalls, "magnet:heat")
	assert.Equal(t, "magnet:heat", m.Magnet())

	at(4 * time.Hour)
	f.orch.integritySweep(ctx) // second offense: ban and rescout

	assert.True(t, m.IsBanned("magnet:heat"))
	assert.Equal(t, "magnet:heat-alt", m.Magnet())
	assert.Contains(t, f.engine.stopCalls, "magnet:heat")
	assert.True(t, f.engine.started("magnet:heat-alt"))
}

func TestIntegrityIgnoresProgressingTransfers(t *testing.T) {
	f := newFixture(Config{IntegrityEnabled: true, IntegrityPatience: time.Hour}, nil, nil)

	f.engine.add(downloads.EngineStatus{
		URI: "magnet:heat", State: downloads.EngineDownloading,
		Peers: 5, Progress: 10, Downloaded: 100, Started: time.Now(),
	})

	base := time.Now()
	f.orch.now = func() time.Time { return base }
	f.orch.integritySweep(context.Background())

	// Bytes moved between sweeps, so the clock resets.
	f.engine.add(downloads.EngineStatus{
		URI: "magnet:heat", State: downloads.EngineDownloading,
		Peers: 5, Progress: 20, Downloaded: 200, Started: time.Now(),
	})
	f.orch.now = func() time.Time { return base.Add(3 * time.Hour) }
	f.orch.integritySweep(context.Background())

	assert.Empty(t, f.engine.restartCalls)
}

func TestCleanupRemovesWatchedMovies(t *testing.T) {
	f := newFixture(Config{
		CleanupEnabled: true,
		Retention:      map[media.Kind]time.Duration{media.KindMovie: 7 * 24 * time.Hour},
	}, nil, nil)

	old := availableMovie(1, "Heat")
	old.ForceState(media.StateCollected)
	old.WatchedAt = timePtr(time.Now().Add(-10 * 24 * time.Hour))
	f.lib.Add(old)

	fresh := availableMovie(2, "Ronin")
	fresh.ForceState(media.StateCollected)
	fresh.WatchedAt = timePtr(time.Now().Add(-24 * time.Hour))
	f.lib.Add(fresh)

	unwatched := availableMovie(3, "Thief")
	unwatched.ForceState(media.StateCollected)
	f.lib.Add(unwatched)

	f.orch.cleanup()

	_, ok := f.lib.Get(old.Key())
	assert.False(t, ok)
	_, ok = f.lib.Get(fresh.Key())
	assert.True(t, ok)
	_, ok = f.lib.Get(unwatched.Key())
	assert.True(t, ok)
	assert.Equal(t, []string{old.Key()}, f.deliver.deleted)
}

func TestCleanupRemovesOnlyFullyWatchedSeasons(t *testing.T) {
	f := newFixture(Config{
		CleanupEnabled: true,
		Retention:      map[media.Kind]time.Duration{media.KindEpisode: 7 * 24 * time.Hour},
	}, nil, nil)

	watched := timePtr(time.Now().Add(-10 * 24 * time.Hour))

	// Season 1: both episodes watched past the window.
	for n := 1; n <= 2; n++ {
		ep := availableEpisode(77, 1, n, "Slow Horses")
		ep.ForceState(media.StateCollected)
		ep.WatchedAt = watched
		f.lib.Add(ep)
	}
	// Season 2: one episode still unwatched holds the whole season.
	half := availableEpisode(77, 2, 1, "Slow Horses")
	half.ForceState(media.StateCollected)
	half.WatchedAt = watched
	f.lib.Add(half)
	pending := availableEpisode(77, 2, 2, "Slow Horses")
	pending.ForceState(media.StateCollected)
	f.lib.Add(pending)

	f.orch.cleanup()

	assert.Len(t, f.deliver.deleted, 2)
	_, ok := f.lib.Get(half.Key())
	assert.True(t, ok, "partially watched season must be kept")
	_, ok = f.lib.Get(pending.Key())
	assert.True(t, ok)
}

func TestInitializeRestoresAndSyncs(t *testing.T) {
	f := newFixture(Config{}, nil, nil)
	f.orch.initialized = false

	m := availableMovie(1, "Heat")
	require.NoError(t, f.store.Save([]*media.Media{m}))

	got := f.orch.Initialize(context.Background())

	assert.Equal(t, StatusStarted, got)
	_, ok := f.lib.Get(m.Key())
	assert.True(t, ok)
	assert.Equal(t, StatusUpdated, f.orch.Update(context.Background()))
}

func TestInitializePropagatesAuthRequired(t *testing.T) {
	f := newFixture(Config{}, nil, nil)
	f.orch.initialized = false
	f.source.auth = true

	assert.Equal(t, StatusAuthRequired, f.orch.Initialize(context.Background()))
	assert.Equal(t, StatusNotInitialized, f.orch.Update(context.Background()))
}

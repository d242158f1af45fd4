package orchestrator

import (
	"context"
	"sync"
	"time"

	"github.com/vmunix/fetcharr/internal/catalog"
	"github.com/vmunix/fetcharr/internal/delivery"
	"github.com/vmunix/fetcharr/internal/downloads"
	"github.com/vmunix/fetcharr/internal/indexer"
	"github.com/vmunix/fetcharr/internal/media"
	"github.com/vmunix/fetcharr/internal/scout"
)

func timePtr(t time.Time) *time.Time { return &t }

// stubSource is an empty, always-authenticated catalog.
type stubSource struct {
	auth bool
}

func (s *stubSource) status() catalog.Status {
	if s.auth {
		return catalog.StatusAuthRequired()
	}
	return catalog.StatusOK()
}

func (s *stubSource) FetchActivity(context.Context) (catalog.Activity, catalog.Status) {
	return catalog.Activity{}, s.status()
}
func (s *stubSource) FetchCollection(context.Context, media.Kind) ([]*media.Media, catalog.Status) {
	return nil, s.status()
}
func (s *stubSource) FetchWatchlist(context.Context) ([]*media.Media, catalog.Status) {
	return nil, s.status()
}
func (s *stubSource) FetchCalendar(context.Context, media.Kind, time.Time, int) ([]*media.Media, catalog.Status) {
	return nil, s.status()
}
func (s *stubSource) FetchWatched(context.Context, media.Kind) ([]*media.Media, catalog.Status) {
	return nil, s.status()
}
func (s *stubSource) EnrichMetadata(context.Context, *media.Media) catalog.Status {
	return s.status()
}
func (s *stubSource) PushCollected(_ context.Context, items []*media.Media, _, _ string) ([]*media.Media, catalog.Status) {
	return nil, s.status()
}

// fakeEngine is an in-memory TransferEngine.
type fakeEngine struct {
	mu        sync.Mutex
	transfers map[string]*downloads.EngineStatus
	onChange  []func(downloads.EngineStatus)

	startCalls   []string
	stopCalls    []string
	restartCalls []string
}

func newFakeEngine() *fakeEngine {
	return &fakeEngine{transfers: make(map[string]*downloads.EngineStatus)}
}

func (f *fakeEngine) add(st downloads.EngineStatus) {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := st
	f.transfers[st.URI] = &cp
}

func (f *fakeEngine) Start(uri string, priority int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.startCalls = append(f.startCalls, uri)
	t, ok := f.transfers[uri]
	if !ok {
		t = &downloads.EngineStatus{URI: uri, Started: time.Now()}
		f.transfers[uri] = t
	}
	t.State = downloads.EngineDownloading
	return nil
}

func (f *fakeEngine) Stop(uri string, deleteFiles, remove bool) (*downloads.EngineStatus, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stopCalls = append(f.stopCalls, uri)
	t, ok := f.transfers[uri]
	if !ok {
		return nil, nil
	}
	t.State = downloads.EngineStopped
	cp := *t
	if remove {
		delete(f.transfers, uri)
	}
	return &cp, nil
}

func (f *fakeEngine) Restart(uri string, deleteTorrentFile bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.restartCalls = append(f.restartCalls, uri)
	return nil
}

func (f *fakeEngine) HashCheck(string) error { return nil }

func (f *fakeEngine) Status(uri string) (*downloads.EngineStatus, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.transfers[uri]
	if !ok {
		return nil, nil
	}
	cp := *t
	return &cp, nil
}

func (f *fakeEngine) All() ([]downloads.EngineStatus, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]downloads.EngineStatus, 0, len(f.transfers))
	for _, t := range f.transfers {
		out = append(out, *t)
	}
	return out, nil
}

func (f *fakeEngine) OnChange(fn func(downloads.EngineStatus)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.onChange = append(f.onChange, fn)
}

func (f *fakeEngine) fire(st downloads.EngineStatus) {
	f.mu.Lock()
	fns := append([]func(downloads.EngineStatus){}, f.onChange...)
	f.mu.Unlock()
	for _, fn := range fns {
		fn(st)
	}
}

func (f *fakeEngine) started(uri string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.startCalls {
		if u == uri {
			return true
		}
	}
	return false
}

// fakeDelivery returns scripted results; the last one repeats.
type fakeDelivery struct {
	mu      sync.Mutex
	results []delivery.Result
	calls   int
	deleted []string
}

func (f *fakeDelivery) Deliver(downloads.Info, []*media.Media) delivery.Result {
	f.mu.Lock()
	defer f.mu.Unlock()
	idx := f.calls
	f.calls++
	if idx >= len(f.results) {
		idx = len(f.results) - 1
	}
	if idx < 0 {
		return delivery.Result{Status: delivery.StatusOK}
	}
	return f.results[idx]
}

func (f *fakeDelivery) Delete(m *media.Media) delivery.Result {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, m.Key())
	return delivery.Result{Status: delivery.StatusOK}
}

func (f *fakeDelivery) Rename(*media.Media, string) delivery.Result {
	return delivery.Result{Status: delivery.StatusOK}
}

func (f *fakeDelivery) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// memStore is an in-memory Persistence.
type memStore struct {
	mu    sync.Mutex
	items []*media.Media
	saves int
}

func (s *memStore) Save(items []*media.Media) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = items
	s.saves++
	return nil
}

func (s *memStore) Load() ([]*media.Media, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.items, nil
}

// stubIndexer serves canned results.
type stubIndexer struct {
	results []indexer.Result
}

func (s *stubIndexer) Name() string { return "stub" }
func (s *stubIndexer) Kinds() []media.Kind {
	return []media.Kind{media.KindMovie, media.KindEpisode}
}
func (s *stubIndexer) SpecializedGenres() []string { return nil }
func (s *stubIndexer) Priority() int               { return 1 }
func (s *stubIndexer) Search(context.Context, *media.Media) ([]indexer.Result, error) {
	return s.results, nil
}

type fixture struct {
	orch    *Orchestrator
	lib     *media.Library
	engine  *fakeEngine
	deliver *fakeDelivery
	store   *memStore
	source  *stubSource
}

func newFixture(cfg Config, ix indexer.Indexer, reqs map[media.Kind]scout.Requirements) *fixture {
	lib := media.NewLibrary()
	source := &stubSource{}
	engine := newFakeEngine()
	sched := downloads.NewScheduler(engine, 0, nil)
	var indexers []indexer.Indexer
	if ix != nil {
		indexers = append(indexers, ix)
	}
	scouter := scout.NewScouter(indexer.NewRegistry(indexers...), reqs, nil, nil)
	deliver := &fakeDelivery{}
	st := &memStore{}

	orch := New(lib, catalog.NewSyncer(lib, source, nil), scouter, sched, deliver, st, cfg, nil)
	orch.initialized = true
	orch.sched.OnChange(orch.handleTransferChange)

	return &fixture{orch: orch, lib: lib, engine: engine, deliver: deliver, store: st, source: source}
}

func availableMovie(trakt int, title string) *media.Media {
	m := media.NewMovie(media.ID{Trakt: trakt})
	m.Title = title
	m.Release = timePtr(time.Now().Add(-48 * time.Hour))
	m.ForceState(media.StateAvailable)
	return m
}

func availableEpisode(tvdb, season, number int, show string) *media.Media {
	m := media.NewEpisode(media.ID{TVDB: tvdb}, season, number)
	m.ShowTitle = show
	m.Release = timePtr(time.Now().Add(-48 * time.Hour))
	m.ForceState(media.StateAvailable)
	return m
}

package downloads

import (
	"sync"
	"time"
)

// fakeEngine is an in-memory TransferEngine for scheduler tests.
type fakeEngine struct {
	mu        sync.Mutex
	transfers map[string]*EngineStatus
	onChange  []func(EngineStatus)

	startCalls   []string
	stopCalls    []string
	restartCalls []string
	hashCalls    []string
}

func newFakeEngine() *fakeEngine {
	return &fakeEngine{transfers: make(map[string]*EngineStatus)}
}

func (f *fakeEngine) add(st EngineStatus) {
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
		t = &EngineStatus{URI: uri, Started: time.Now()}
		f.transfers[uri] = t
	}
	t.State = EngineDownloading
	return nil
}

func (f *fakeEngine) Stop(uri string, deleteFiles, remove bool) (*EngineStatus, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stopCalls = append(f.stopCalls, uri)
	t, ok := f.transfers[uri]
	if !ok {
		return nil, nil
	}
	t.State = EngineStopped
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

func (f *fakeEngine) HashCheck(uri string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.hashCalls = append(f.hashCalls, uri)
	return nil
}

func (f *fakeEngine) Status(uri string) (*EngineStatus, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.transfers[uri]
	if !ok {
		return nil, nil
	}
	cp := *t
	return &cp, nil
}

func (f *fakeEngine) All() ([]EngineStatus, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]EngineStatus, 0, len(f.transfers))
	for _, t := range f.transfers {
		out = append(out, *t)
	}
	return out, nil
}

func (f *fakeEngine) OnChange(fn func(EngineStatus)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.onChange = append(f.onChange, fn)
}

func (f *fakeEngine) fire(st EngineStatus) {
	f.mu.Lock()
	fns := make([]func(EngineStatus), len(f.onChange))
	copy(fns, f.onChange)
	f.mu.Unlock()
	for _, fn := range fns {
		fn(st)
	}
}

func (f *fakeEngine) state(uri string) EngineState {
	f.mu.Lock()
	defer f.mu.Unlock()
	if t, ok := f.transfers[uri]; ok {
		return t.State
	}
	return ""
}

package downloads

import (
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"
)

// deadAfter is how long a downloading transfer may run with no peers and no
// open connections before it stops counting against the concurrency window.
const deadAfter = 10 * time.Minute

// Scheduler enforces the concurrency budget over the transfer engine.
// Recomputation runs on every engine state-change callback, serialized by
// one mutex.
type Scheduler struct {
	engine TransferEngine
	log    *slog.Logger

	maxConcurrent int

	mu         sync.Mutex
	priorities map[string]int

	observers []func(Info)

	now func() time.Time
}

// NewScheduler wires the scheduler to the engine's change events.
// maxConcurrent 0 means unlimited.
func NewScheduler(engine TransferEngine, maxConcurrent int, log *slog.Logger) *Scheduler {
	if log == nil {
		log = slog.Default()
	}
	s := &Scheduler{
		engine:        engine,
		log:           log,
		maxConcurrent: maxConcurrent,
		priorities:    make(map[string]int),
		now:           time.Now,
	}
	engine.OnChange(s.handleChange)
	return s
}

// OnChange registers an observer for derived transfer state changes.
// Callbacks arrive on engine goroutines.
func (s *Scheduler) OnChange(fn func(Info)) {
	s.mu.Lock()
	s.observers = append(s.observers, fn)
	s.mu.Unlock()
}

func (s *Scheduler) handleChange(st EngineStatus) {
	s.mu.Lock()
	in := info(st, s.priorities[st.URI], s.now())
	obs := make([]func(Info), len(s.observers))
	copy(obs, s.observers)
	s.mu.Unlock()

	for _, fn := range obs {
		fn(in)
	}
	if err := s.Recompute(); err != nil {
		s.log.Error("admission recompute failed", "error", err)
	}
}

// Download admits a new transfer at the given priority.
func (s *Scheduler) Download(uri string, priority int) error {
	s.mu.Lock()
	s.priorities[uri] = priority
	s.mu.Unlock()

	if err := s.engine.Start(uri, priority); err != nil {
		return fmt.Errorf("start transfer: %w", err)
	}
	s.log.Info("transfer admitted", "uri", uri, "priority", priority)
	return s.Recompute()
}

// Stop halts a transfer; remove also forgets it entirely.
func (s *Scheduler) Stop(uri string, deleteFiles, remove bool) (*Info, error) {
	st, err := s.engine.Stop(uri, deleteFiles, remove)
	if err != nil {
		return nil, fmt.Errorf("stop transfer: %w", err)
	}

	s.mu.Lock()
	priority := s.priorities[uri]
	if remove {
		delete(s.priorities, uri)
	}
	s.mu.Unlock()

	if st == nil {
		return nil, nil
	}
	in := info(*st, priority, s.now())
	return &in, nil
}

// Restart soft-restarts a transfer in place.
func (s *Scheduler) Restart(uri string, deleteTorrentFile bool) error {
	if err := s.engine.Restart(uri, deleteTorrentFile); err != nil {
		return fmt.Errorf("restart transfer: %w", err)
	}
	return nil
}

// HashCheck asks the engine to re-verify a transfer's data.
func (s *Scheduler) HashCheck(uri string) error {
	return s.engine.HashCheck(uri)
}

// Status returns the derived state for one transfer, nil when the engine
// does not know the link.
func (s *Scheduler) Status(uri string) (*Info, error) {
	st, err := s.engine.Status(uri)
	if err != nil {
		return nil, fmt.Errorf("transfer status: %w", err)
	}
	if st == nil {
		return nil, nil
	}

	s.mu.Lock()
	priority := s.priorities[st.URI]
	s.mu.Unlock()

	in := info(*st, priority, s.now())
	return &in, nil
}

// All returns the derived state of every transfer the engine tracks.
func (s *Scheduler) All() ([]Info, error) {
	statuses, err := s.engine.All()
	if err != nil {
		return nil, fmt.Errorf("list transfers: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	out := make([]Info, 0, len(statuses))
	for _, st := range statuses {
		out = append(out, info(st, s.priorities[st.URI], now))
	}
	return out, nil
}

// Recompute applies admission control: incomplete transfers are ranked by
// priority then progress; the top maxConcurrent run, the rest wait. A
// transfer downloading dead (no peers, no connections, past the grace
// period) does not consume a slot, so one dead transfer cannot starve the
// queue.
func (s *Scheduler) Recompute() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	statuses, err := s.engine.All()
	if err != nil {
		return fmt.Errorf("list transfers: %w", err)
	}
	now := s.now()

	var incomplete []Info
	for _, st := range statuses {
		in := info(st, s.priorities[st.URI], now)
		if in.Complete() {
			continue
		}
		incomplete = append(incomplete, in)
	}

	sort.SliceStable(incomplete, func(i, j int) bool {
		if incomplete[i].Priority != incomplete[j].Priority {
			return incomplete[i].Priority > incomplete[j].Priority
		}
		return incomplete[i].Progress > incomplete[j].Progress
	})

	running := 0
	for _, in := range incomplete {
		admitted := s.maxConcurrent == 0 || running < s.maxConcurrent
		if admitted {
			if stopped(in.State) {
				if err := s.engine.Start(in.URI, in.Priority); err != nil {
					s.log.Error("admission start failed", "uri", in.URI, "error", err)
				}
			}
			if !s.dead(in, now) {
				running++
			}
			continue
		}
		if active(in.State) {
			if _, err := s.engine.Stop(in.URI, false, false); err != nil {
				s.log.Error("admission stop failed", "uri", in.URI, "error", err)
			}
		}
	}
	return nil
}

// BudgetFree reports whether the concurrency window has room for another
// running transfer.
func (s *Scheduler) BudgetFree() (bool, error) {
	if s.maxConcurrent == 0 {
		return true, nil
	}
	all, err := s.All()
	if err != nil {
		return false, err
	}
	running := 0
	for _, in := range all {
		if active(in.State) {
			running++
		}
	}
	return running < s.maxConcurrent, nil
}

// dead reports a transfer that holds a slot but cannot make progress.
func (s *Scheduler) dead(in Info, now time.Time) bool {
	return (in.State == StateDownloading || in.State == StateStalled) &&
		in.Peers == 0 && in.OpenConnections == 0 &&
		!in.Started.IsZero() && now.Sub(in.Started) > deadAfter
}

func stopped(st State) bool {
	return st == StateWaiting
}

func active(st State) bool {
	return st == StateDownloading || st == StateInitializing || st == StateStalled
}

// Package orchestrator drives the acquisition engine: one non-reentrant
// tick pulls catalog deltas, starts and supervises transfers, scouts for
// candidates, delivers completed downloads and persists the library.
package orchestrator

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/vmunix/fetcharr/internal/catalog"
	"github.com/vmunix/fetcharr/internal/delivery"
	"github.com/vmunix/fetcharr/internal/downloads"
	"github.com/vmunix/fetcharr/internal/media"
	"github.com/vmunix/fetcharr/internal/scout"
)

// Status is the outcome of an orchestrator operation.
type Status string

const (
	StatusNotInitialized Status = "not_initialized"
	StatusStarted        Status = "started"
	StatusUpdated        Status = "updated"
	StatusUpdateRunning  Status = "update_running"
	StatusAuthRequired   Status = "auth_required"
	StatusError          Status = "error"
	StatusStopped        Status = "stopped"
)

// Persistence stores and restores library snapshots.
type Persistence interface {
	Save(items []*media.Media) error
	Load() ([]*media.Media, error)
}

// Config is the orchestrator's tick policy.
type Config struct {
	// ScoutFrequency is how often the full scouting sweep runs; between
	// sweeps only deadline-triggered media are scouted.
	ScoutFrequency time.Duration
	// IntegrityEnabled turns the transfer integrity sweep on.
	IntegrityEnabled bool
	// IntegrityPatience is the base window a transfer may sit unchanged
	// before it counts as broken.
	IntegrityPatience time.Duration
	// CleanupEnabled turns retention cleanup on.
	CleanupEnabled bool
	// Retention is the per-kind window after watching before local files
	// are removed.
	Retention map[media.Kind]time.Duration
}

const defaultIntegrityPatience = time.Hour

// Orchestrator owns the cross-cutting locks: the tick try-lock, the
// per-magnet delivery locks and the transfer bookkeeping for the
// integrity sweep.
type Orchestrator struct {
	lib     *media.Library
	syncer  *catalog.Syncer
	scouter *scout.Scouter
	sched   *downloads.Scheduler
	deliver delivery.Service
	store   Persistence
	cfg     Config
	log     *slog.Logger

	tickMu        sync.Mutex
	deliveryLocks sync.Map // magnet URI -> *sync.Mutex
	retries       sync.Map // magnet URI -> retry count

	trackMu sync.Mutex
	tracks  map[string]*transferTrack

	initialized bool
	stopped     bool
	lastSweep   time.Time

	now        func() time.Time
	retryDelay func(attempt int) time.Duration
}

func New(lib *media.Library, syncer *catalog.Syncer, scouter *scout.Scouter,
	sched *downloads.Scheduler, deliver delivery.Service, store Persistence,
	cfg Config, log *slog.Logger) *Orchestrator {

	if log == nil {
		log = slog.Default()
	}
	if cfg.IntegrityPatience == 0 {
		cfg.IntegrityPatience = defaultIntegrityPatience
	}
	o := &Orchestrator{
		lib:        lib,
		syncer:     syncer,
		scouter:    scouter,
		sched:      sched,
		deliver:    deliver,
		store:      store,
		cfg:        cfg,
		log:        log,
		tracks:     make(map[string]*transferTrack),
		now:        time.Now,
		retryDelay: func(attempt int) time.Duration { return time.Duration(attempt) * 5 * time.Minute },
	}
	return o
}

// Initialize restores the persisted library, wires transfer callbacks and
// runs the first catalog sync. An unauthenticated catalog propagates as
// StatusAuthRequired so the caller can run a re-auth flow and retry.
func (o *Orchestrator) Initialize(ctx context.Context) Status {
	items, err := o.store.Load()
	if err != nil {
		o.log.Error("snapshot load failed", "error", err)
		return StatusError
	}
	o.lib.Restore(items)
	o.log.Info("library restored", "items", len(items))

	o.sched.OnChange(o.handleTransferChange)

	if _, st := o.syncer.Update(ctx); !st.OK() {
		if st.AuthRequired() {
			return StatusAuthRequired
		}
		o.log.Error("initial catalog sync failed", "error", st.Err())
		return StatusError
	}

	o.initialized = true
	return StatusStarted
}

// Stop marks the engine stopped; further ticks are no-ops.
func (o *Orchestrator) Stop() {
	o.stopped = true
}

// Update runs one tick. Non-reentrant: when a tick is already running the
// call returns StatusUpdateRunning immediately instead of queueing.
func (o *Orchestrator) Update(ctx context.Context) Status {
	if !o.initialized {
		return StatusNotInitialized
	}
	if o.stopped {
		return StatusStopped
	}
	if !o.tickMu.TryLock() {
		o.log.Warn("tick overlap, skipping")
		return StatusUpdateRunning
	}
	defer o.tickMu.Unlock()

	// 1. Catalog deltas.
	if _, st := o.syncer.Update(ctx); !st.OK() {
		if st.AuthRequired() {
			return StatusAuthRequired
		}
		o.log.Error("catalog sync failed", "error", st.Err())
		return StatusError
	}

	// 2. Start transfers for media already holding a magnet.
	o.startHolding()

	// 3. Scout.
	o.runScouting(ctx)

	// 4. Integrity sweep.
	if o.cfg.IntegrityEnabled {
		o.integritySweep(ctx)
	}

	// 5. Retention cleanup.
	if o.cfg.CleanupEnabled {
		o.cleanup()
	}

	// 6. Persist.
	if err := o.store.Save(o.lib.All()); err != nil {
		o.log.Error("snapshot save failed", "error", err)
		return StatusError
	}

	return StatusUpdated
}

// startHolding starts a transfer for every Available media that holds a
// magnet with no transfer behind it.
func (o *Orchestrator) startHolding() {
	for _, m := range o.lib.InState(media.StateAvailable) {
		if m.Magnet() == "" {
			continue
		}
		o.startTransfer(m)
	}
}

func (o *Orchestrator) startTransfer(m *media.Media) {
	uri := m.Magnet()
	if uri == "" {
		return
	}
	in, err := o.sched.Status(uri)
	if err != nil {
		o.log.Error("transfer status failed", "media", m.String(), "error", err)
		return
	}
	if in != nil {
		return
	}
	if err := o.sched.Download(uri, m.Priority()); err != nil {
		o.log.Error("transfer start failed", "media", m.String(), "error", err)
	}
}

// related returns every library item whose selected magnet is the URI. A
// season pack magnet is shared by several episodes.
func (o *Orchestrator) related(uri string) []*media.Media {
	return o.lib.Filter(func(m *media.Media) bool { return m.Magnet() == uri })
}

// Package server runs the acquisition engine on a fixed tick.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/vmunix/fetcharr/internal/orchestrator"
)

// ErrAuthRequired means the catalog rejected our credentials; the process
// should exit so the operator can re-authenticate.
var ErrAuthRequired = errors.New("catalog authentication required")

// Engine is the orchestrator surface the runner drives.
type Engine interface {
	Initialize(ctx context.Context) orchestrator.Status
	Update(ctx context.Context) orchestrator.Status
	Stop()
}

// Config for the tick loop.
type Config struct {
	TickInterval time.Duration
}

const defaultTickInterval = time.Minute

// Runner initializes the engine and ticks it until the context ends.
type Runner struct {
	engine Engine
	config Config
	logger *slog.Logger
}

func NewRunner(engine Engine, cfg Config, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.TickInterval == 0 {
		cfg.TickInterval = defaultTickInterval
	}
	return &Runner{
		engine: engine,
		config: cfg,
		logger: logger,
	}
}

// Run blocks until the context is canceled or the engine hits a fatal
// condition. A skipped tick (previous one still running) is logged, not
// fatal; an unauthenticated catalog is fatal.
func (r *Runner) Run(ctx context.Context) error {
	switch st := r.engine.Initialize(ctx); st {
	case orchestrator.StatusStarted:
	case orchestrator.StatusAuthRequired:
		return ErrAuthRequired
	default:
		return fmt.Errorf("engine initialization failed: %s", st)
	}
	defer r.engine.Stop()

	r.logger.Info("engine started", "tick_interval", r.config.TickInterval)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		ticker := time.NewTicker(r.config.TickInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-ticker.C:
				if err := r.tick(ctx); err != nil {
					return err
				}
			}
		}
	})
	return g.Wait()
}

func (r *Runner) tick(ctx context.Context) error {
	switch st := r.engine.Update(ctx); st {
	case orchestrator.StatusUpdated:
	case orchestrator.StatusUpdateRunning:
		r.logger.Warn("previous tick still running, skipped")
	case orchestrator.StatusAuthRequired:
		return ErrAuthRequired
	case orchestrator.StatusError:
		r.logger.Error("tick failed")
	case orchestrator.StatusStopped:
		return nil
	default:
		r.logger.Warn("unexpected tick status", "status", string(st))
	}
	return nil
}

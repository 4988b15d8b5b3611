package daemon

import (
	"context"
	"log/slog"
	"time"

	"github.com/1broseidon/dockwatch/internal/tracker"
)

// ReconcilerConfig holds configuration for the reconciler.
type ReconcilerConfig struct {
	Interval time.Duration
	Logger   *slog.Logger
}

// Reconciler periodically drops tracked windows the window manager no
// longer knows, in case their removal event was lost.
type Reconciler struct {
	interval time.Duration
	engine   *tracker.Engine
	logger   *slog.Logger
	reset    chan time.Duration
}

// NewReconciler creates a new reconciler with the given configuration.
func NewReconciler(cfg ReconcilerConfig, engine *tracker.Engine) *Reconciler {
	interval := cfg.Interval
	if interval <= 0 {
		interval = 10 * time.Second
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	return &Reconciler{
		interval: interval,
		engine:   engine,
		logger:   logger,
		reset:    make(chan time.Duration, 1),
	}
}

// Run starts the reconciliation loop. Blocks until context is cancelled.
func (r *Reconciler) Run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	r.logger.Info("reconciler started", "interval", r.interval)

	for {
		select {
		case <-ctx.Done():
			r.logger.Info("reconciler stopped")
			return
		case d := <-r.reset:
			r.interval = d
			ticker.Reset(d)
			r.logger.Info("reconciler interval changed", "interval", d)
		case <-ticker.C:
			r.reconcile()
		}
	}
}

// SetInterval changes the sweep period of a running reconciler.
func (r *Reconciler) SetInterval(d time.Duration) {
	if d <= 0 {
		return
	}
	select {
	case r.reset <- d:
	default:
		// A pending change is replaced.
		select {
		case <-r.reset:
		default:
		}
		r.reset <- d
	}
}

// reconcile posts a single sweep to the engine goroutine.
func (r *Reconciler) reconcile() {
	err := r.engine.Post(r.sweep)
	if err != nil {
		r.logger.Debug("reconciler: engine not running", "error", err)
	}
}

func (r *Reconciler) sweep() {
	// Recover from panics to prevent crashing the daemon
	defer func() {
		if err := recover(); err != nil {
			r.logger.Error("reconciler panic recovered", "error", err)
		}
	}()

	if removed := r.engine.CleanupFaultyWindows(); removed > 0 {
		r.logger.Info("reconciler: removed faulty windows", "count", removed)
	}
}

// ReconcileNow runs a sweep immediately and returns the number of windows
// removed.
func (r *Reconciler) ReconcileNow(ctx context.Context) (int, error) {
	var removed int
	err := r.engine.Call(ctx, func() {
		removed = r.engine.CleanupFaultyWindows()
	})
	if err != nil {
		return 0, err
	}
	if removed > 0 {
		r.logger.Info("reconciler: removed faulty windows", "count", removed)
	}
	return removed, nil
}

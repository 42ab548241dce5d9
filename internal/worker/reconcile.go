package worker

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/gamehub-ledger/internal/config"
)

// TotalsReconciler repairs cached totals from the ledger
type TotalsReconciler interface {
	ReconcileTotals(ctx context.Context) (int64, error)
}

// ReconcileWorker periodically rewrites drifted cached totals from the
// ledger sum. The ledger write path keeps the cache in step transactionally;
// this loop is the backstop for anything that slipped past it.
type ReconcileWorker struct {
	reconciler TotalsReconciler
	config     *config.ReconcileConfig
	logger     *slog.Logger
	stopCh     chan struct{}
	doneCh     chan struct{}
	mu         sync.Mutex
	running    bool
}

// NewReconcileWorker creates a new reconcile worker
func NewReconcileWorker(reconciler TotalsReconciler, cfg *config.ReconcileConfig, logger *slog.Logger) *ReconcileWorker {
	return &ReconcileWorker{
		reconciler: reconciler,
		config:     cfg,
		logger:     logger,
		stopCh:     make(chan struct{}),
		doneCh:     make(chan struct{}),
	}
}

// Start begins the background reconcile loop
func (w *ReconcileWorker) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = true
	w.mu.Unlock()

	w.logger.Info("reconcile worker started", "interval", w.config.Interval)

	go w.run(ctx)
	return nil
}

// Stop stops the background reconcile loop
func (w *ReconcileWorker) Stop() error {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return nil
	}
	w.mu.Unlock()

	close(w.stopCh)
	<-w.doneCh

	w.mu.Lock()
	w.running = false
	w.mu.Unlock()

	w.logger.Info("reconcile worker stopped")
	return nil
}

// run is the main worker loop
func (w *ReconcileWorker) run(ctx context.Context) {
	defer close(w.doneCh)

	ticker := time.NewTicker(w.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopCh:
			return
		case <-ticker.C:
			w.reconcile(ctx)
		}
	}
}

func (w *ReconcileWorker) reconcile(ctx context.Context) {
	startTime := time.Now()

	repaired, err := w.reconciler.ReconcileTotals(ctx)
	if err != nil {
		w.logger.Error("reconcile cycle failed", "error", err)
		return
	}

	w.logger.Info("reconcile cycle completed",
		"duration", time.Since(startTime),
		"repaired", repaired,
	)
}

// IsRunning returns whether the worker is currently running
func (w *ReconcileWorker) IsRunning() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.running
}

// RunOnce runs a single reconcile cycle (useful for manual triggers)
func (w *ReconcileWorker) RunOnce(ctx context.Context) {
	w.reconcile(ctx)
}

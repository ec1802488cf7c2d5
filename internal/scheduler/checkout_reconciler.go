package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/ikkim/storefront-backend/internal/app/service"
	"github.com/ikkim/storefront-backend/pkg/logger"
	"github.com/robfig/cron/v3"
)

const (
	DefaultReconcileSchedule = "@every 1m"
	reconcileStaleAfter      = time.Minute
	reconcileBatchSize       = 50
)

// Reconciler is the part of the checkout service the job drives.
type Reconciler interface {
	ReconcileStale(ctx context.Context, olderThan time.Duration, limit int) (service.ReconcileSummary, error)
}

// CheckoutReconciler settles checkout sessions whose webhook never arrived.
type CheckoutReconciler struct {
	cron       *cron.Cron
	reconciler Reconciler
	schedule   string

	mu     sync.Mutex
	ctx    context.Context
	cancel context.CancelFunc
}

func NewCheckoutReconciler(reconciler Reconciler, schedule string) *CheckoutReconciler {
	if schedule == "" {
		schedule = DefaultReconcileSchedule
	}
	return &CheckoutReconciler{
		cron:       cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
		reconciler: reconciler,
		schedule:   schedule,
	}
}

func (s *CheckoutReconciler) Start() error {
	s.mu.Lock()
	s.ctx, s.cancel = context.WithCancel(context.Background())
	s.mu.Unlock()

	if _, err := s.cron.AddFunc(s.schedule, func() { s.RunOnce(s.ctx) }); err != nil {
		logger.Error("Failed to add cron job for checkout reconciliation", err, map[string]interface{}{
			"schedule": s.schedule,
		})
		return err
	}

	s.cron.Start()
	logger.Info("Checkout reconciler started", map[string]interface{}{
		"schedule": s.schedule,
	})
	return nil
}

// RunOnce performs a single reconciliation pass.
func (s *CheckoutReconciler) RunOnce(ctx context.Context) {
	summary, err := s.reconciler.ReconcileStale(ctx, reconcileStaleAfter, reconcileBatchSize)
	if err != nil {
		logger.Error("Checkout reconciliation failed", err)
		return
	}
	if summary.Checked > 0 {
		logger.Debug("Checkout reconciliation pass", map[string]interface{}{
			"checked": summary.Checked,
		})
	}
}

// Stop cancels an in-flight pass and waits for it to return.
func (s *CheckoutReconciler) Stop() {
	logger.Info("Stopping checkout reconciler...")
	s.mu.Lock()
	if s.cancel != nil {
		s.cancel()
	}
	s.mu.Unlock()
	<-s.cron.Stop().Done()
	logger.Info("Checkout reconciler stopped")
}

package jobs

import (
	"context"
	"time"

	"github.com/Jyothika2406/cricket-app/internal/services"

	"go.uber.org/zap"
)

// Reconciler finishes settlements that left bets pending
type Reconciler interface {
	ReconcilePending(ctx context.Context) ([]services.SettlementReport, error)
}

// SettlementReconciler periodically resumes settled questions that still
// have pending bets, e.g. after a crash in the middle of a settlement
type SettlementReconciler struct {
	reconciler Reconciler
	interval   time.Duration
	log        *zap.Logger
	stopChan   chan struct{}
}

// NewSettlementReconciler creates a new reconciler job
func NewSettlementReconciler(reconciler Reconciler, interval time.Duration, log *zap.Logger) *SettlementReconciler {
	return &SettlementReconciler{
		reconciler: reconciler,
		interval:   interval,
		log:        log.Named("settlement_reconciler"),
		stopChan:   make(chan struct{}),
	}
}

// Start runs the reconciliation loop; it blocks until Stop is called
func (r *SettlementReconciler) Start() {
	r.log.Info("starting settlement reconciler", zap.Duration("interval", r.interval))

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			r.RunOnce()
		case <-r.stopChan:
			r.log.Info("stopping settlement reconciler")
			return
		}
	}
}

// Stop stops the reconciliation loop
func (r *SettlementReconciler) Stop() {
	close(r.stopChan)
}

// RunOnce resumes every unfinished settlement and returns how many bets it resolved
func (r *SettlementReconciler) RunOnce() int {
	ctx, cancel := context.WithTimeout(context.Background(), r.interval)
	defer cancel()

	reports, err := r.reconciler.ReconcilePending(ctx)
	if err != nil {
		r.log.Error("reconcile failed", zap.Error(err))
	}

	resolved := 0
	for _, report := range reports {
		resolved += report.Winners + report.Losers
		r.log.Info("settlement resumed",
			zap.Uint("question_id", report.QuestionID),
			zap.Int("winners", report.Winners),
			zap.Int("losers", report.Losers),
			zap.Int("unresolved", report.Unresolved),
		)
	}
	return resolved
}

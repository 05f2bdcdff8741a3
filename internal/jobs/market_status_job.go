package jobs

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// StatusSweeper persists upcoming -> live transitions
type StatusSweeper interface {
	SweepStatuses(ctx context.Context) (int64, error)
}

// MarketStatusJob moves started matches to live in the background so the
// stored status catches up even when nobody is reading or betting
type MarketStatusJob struct {
	sweeper  StatusSweeper
	interval time.Duration
	log      *zap.Logger
	stopChan chan struct{}
}

func NewMarketStatusJob(sweeper StatusSweeper, interval time.Duration, log *zap.Logger) *MarketStatusJob {
	return &MarketStatusJob{
		sweeper:  sweeper,
		interval: interval,
		log:      log.Named("market_status_job"),
		stopChan: make(chan struct{}),
	}
}

// Start sweeps once, then on every tick; it blocks until Stop is called
func (j *MarketStatusJob) Start() {
	j.log.Info("starting market status job", zap.Duration("interval", j.interval))
	j.RunOnce()

	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			j.RunOnce()
		case <-j.stopChan:
			j.log.Info("stopping market status job")
			return
		}
	}
}

// Stop stops the sweep loop
func (j *MarketStatusJob) Stop() {
	close(j.stopChan)
}

func (j *MarketStatusJob) RunOnce() int64 {
	ctx, cancel := context.WithTimeout(context.Background(), j.interval)
	defer cancel()

	n, err := j.sweeper.SweepStatuses(ctx)
	if err != nil {
		j.log.Error("status sweep failed", zap.Error(err))
		return 0
	}
	return n
}

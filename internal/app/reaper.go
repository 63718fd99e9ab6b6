package app

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Sweeper transitions lapsed holds to expired. Implemented by the
// reservation service.
type Sweeper interface {
	Sweep(ctx context.Context, now time.Time) (int, error)
}

const defaultSweepInterval = 30 * time.Second

// Reaper periodically sweeps stale unconfirmed holds in the background.
// Sweeps are fire-and-forget from the client's perspective and
// idempotent, so overlapping runs are harmless.
type Reaper struct {
	sweeper  Sweeper
	interval time.Duration
	logger   *zap.Logger
	stopChan chan struct{}
}

func NewReaper(sweeper Sweeper, interval time.Duration, logger *zap.Logger) *Reaper {
	if interval <= 0 {
		interval = defaultSweepInterval
	}
	return &Reaper{
		sweeper:  sweeper,
		interval: interval,
		logger:   logger,
		stopChan: make(chan struct{}),
	}
}

// Start launches the sweep loop.
func (r *Reaper) Start(ctx context.Context) {
	r.logger.Info("Starting expiry reaper", zap.Duration("interval", r.interval))
	go r.run(ctx)
}

// Stop terminates the sweep loop.
func (r *Reaper) Stop() {
	r.logger.Info("Stopping expiry reaper")
	close(r.stopChan)
}

func (r *Reaper) run(ctx context.Context) {
	// First sweep right at startup to clear holds left over from a
	// previous run.
	r.sweep(ctx)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			r.sweep(ctx)
		case <-r.stopChan:
			r.logger.Info("Expiry reaper stopped")
			return
		case <-ctx.Done():
			r.logger.Info("Expiry reaper cancelled")
			return
		}
	}
}

func (r *Reaper) sweep(ctx context.Context) {
	swept, err := r.sweeper.Sweep(ctx, time.Now().UTC())
	if err != nil {
		r.logger.Error("Hold sweep failed", zap.Error(err))
		return
	}
	if swept > 0 {
		r.logger.Info("Swept expired holds", zap.Int("count", swept))
	}
}

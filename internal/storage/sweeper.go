package storage

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Sweeper periodically purges files older than the retention window. It runs
// independently of request handling; conversion handlers may also trigger an
// extra pass via SweepNow.
type Sweeper struct {
	store    Store
	window   time.Duration
	interval time.Duration
	log      *zap.SugaredLogger
}

func NewSweeper(store Store, window, interval time.Duration, log *zap.SugaredLogger) *Sweeper {
	return &Sweeper{store: store, window: window, interval: interval, log: log}
}

// Run blocks until the context is cancelled, sweeping on every tick.
func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	s.log.Infow("retention sweeper started", "window", s.window, "interval", s.interval)
	for {
		select {
		case <-ctx.Done():
			s.log.Info("retention sweeper stopped")
			return
		case <-ticker.C:
			s.SweepNow()
		}
	}
}

// SweepNow performs one sweep pass.
func (s *Sweeper) SweepNow() {
	if _, err := s.store.Sweep(time.Now().Add(-s.window)); err != nil {
		s.log.Errorw("sweep failed", "error", err)
	}
}

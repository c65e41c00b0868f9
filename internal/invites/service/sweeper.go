package service

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/aussiebroadwan/muster/internal/invites/metrics"
	"github.com/aussiebroadwan/muster/internal/invites/store"
)

// Sweeper periodically moves pending invitations past their expiry to
// expired. It is bookkeeping only: the Granter refuses expired invitations
// whether or not a sweep has run.
type Sweeper struct {
	Store    store.Store
	Logger   *slog.Logger
	Interval time.Duration
	Metrics  metrics.Recorder
	Now      func() time.Time

	stopOnce sync.Once
	stopCh   chan struct{}
	doneCh   chan struct{}
}

// NewSweeper creates a sweeper. If interval is 0 or negative it defaults to
// 15 minutes.
func NewSweeper(s store.Store, logger *slog.Logger, interval time.Duration, rec metrics.Recorder) *Sweeper {
	if interval <= 0 {
		interval = 15 * time.Minute
	}

	return &Sweeper{
		Store:    s,
		Logger:   logger,
		Interval: interval,
		Metrics:  rec,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
}

// Start runs the background loop. Call Stop to shut it down.
func (s *Sweeper) Start() {
	go s.run()
	s.Logger.Info("invitation sweeper started", "interval", s.Interval)
}

// Stop signals the loop and waits for an in-progress sweep to finish.
func (s *Sweeper) Stop() {
	s.stopOnce.Do(func() { close(s.stopCh) })
	<-s.doneCh
	s.Logger.Info("invitation sweeper stopped")
}

// SweepExpired expires every pending invitation whose expires_at has passed
// and returns how many changed.
func (s *Sweeper) SweepExpired(ctx context.Context) (int64, error) {
	n, err := s.Store.Invitations().ExpirePendingInvitations(ctx, clock(s.Now))
	recorder(s.Metrics).RecordSweep(n, err)
	if err != nil {
		s.Logger.Error("failed to expire invitations", "error", err)
		return 0, err
	}

	if n > 0 {
		s.Logger.Info("expired pending invitations", "count", n)
	} else {
		s.Logger.Debug("no invitations to expire")
	}
	return n, nil
}

func (s *Sweeper) run() {
	defer close(s.doneCh)

	ticker := time.NewTicker(s.Interval)
	defer ticker.Stop()

	s.sweepOnce()
	for {
		select {
		case <-ticker.C:
			s.sweepOnce()
		case <-s.stopCh:
			return
		}
	}
}

func (s *Sweeper) sweepOnce() {
	ctx, cancel := context.WithTimeout(context.Background(), s.Interval)
	defer cancel()
	_, _ = s.SweepExpired(ctx)
}

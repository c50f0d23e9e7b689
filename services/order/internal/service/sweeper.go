package service

import (
	"context"
	"time"

	"github.com/sakashimaa/eventhub/pkg/mylogger"
	"go.uber.org/zap"
)

const defaultSweepInterval = time.Minute

// Sweeper expires stale reservations on a fixed interval.
type Sweeper struct {
	reservations ReservationService
	interval     time.Duration
	logger       *zap.Logger
}

func NewSweeper(reservations ReservationService, interval time.Duration, logger *zap.Logger) *Sweeper {
	if interval <= 0 {
		interval = defaultSweepInterval
	}

	return &Sweeper{
		reservations: reservations,
		interval:     interval,
		logger:       logger,
	}
}

func (s *Sweeper) Start(ctx context.Context) {
	mylogger.Info(ctx, s.logger, "Starting reservation sweeper", zap.Duration("interval", s.interval))

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			mylogger.Info(ctx, s.logger, "Reservation sweeper stopping")
			return
		case <-ticker.C:
			if _, err := s.reservations.SweepExpired(ctx); err != nil {
				mylogger.Error(ctx, s.logger, "Error sweeping reservations", zap.Error(err))
			}
		}
	}
}

package matching

import (
	"context"
	"time"

	"github.com/freightops/freightops-backend/internal/common/logger"
)

// Scheduler drives the periodic batch refresh of all active trips. Matching
// stays batch/on-demand; there is no event-driven re-scoring on load changes.
type Scheduler struct {
	service  Service
	interval time.Duration
	log      logger.Logger
}

func NewScheduler(service Service, interval time.Duration, log logger.Logger) *Scheduler {
	if interval <= 0 {
		interval = 6 * time.Hour
	}
	return &Scheduler{service: service, interval: interval, log: log}
}

func (s *Scheduler) Start(ctx context.Context) {
	go s.run(ctx)
}

func (s *Scheduler) run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := s.service.RefreshAllActiveTrips(ctx); err != nil {
				s.log.Errorf("batch suggestion refresh failed: %v", err)
			}
		case <-ctx.Done():
			return
		}
	}
}

package usecase

import (
	"context"
	"time"

	"contentops/internal/ports"
)

// Scheduler wires a ticking driver with the collection orchestrator so the
// pipeline runs periodically.
type Scheduler struct {
	driver    ports.Scheduler
	collector *Collector
}

// NewScheduler returns a helper to start/stop recurring collection runs.
func NewScheduler(driver ports.Scheduler, collector *Collector) *Scheduler {
	return &Scheduler{driver: driver, collector: collector}
}

// Start registers the full collection run with the driver.
func (s *Scheduler) Start(ctx context.Context) error {
	if s.driver == nil || s.collector == nil {
		return nil
	}

	job := func(time.Time) {
		if _, err := s.collector.CollectAll(ctx); err != nil {
			s.collector.warn("scheduled collection failed", "error", err)
		}
	}

	return s.driver.Start(ctx, job)
}

// Stop gracefully tears down the underlying driver.
func (s *Scheduler) Stop(ctx context.Context) error {
	if s.driver == nil {
		return nil
	}

	return s.driver.Stop(ctx)
}

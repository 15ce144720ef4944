package scheduler

import (
	"context"
	"sync"
	"time"

	"contentops/internal/ports"
)

// TickerScheduler runs a job at a fixed interval using time.Ticker.
type TickerScheduler struct {
	interval time.Duration

	mu   sync.Mutex
	stop chan struct{}
}

var _ ports.Scheduler = (*TickerScheduler)(nil)

// NewTickerScheduler builds a scheduler with the given interval. Intervals
// below one minute are clamped to one minute.
func NewTickerScheduler(interval time.Duration) *TickerScheduler {
	if interval < time.Minute {
		interval = time.Minute
	}
	return &TickerScheduler{interval: interval}
}

// Start runs the job once immediately, then on every tick. Calling Start on a
// running scheduler is a no-op.
func (s *TickerScheduler) Start(ctx context.Context, job func(time.Time)) error {
	if job == nil {
		return nil
	}

	s.mu.Lock()
	if s.stop != nil {
		s.mu.Unlock()
		return nil
	}
	stop := make(chan struct{})
	s.stop = stop
	s.mu.Unlock()

	// The goroutine only sees its own stop channel, never the field.
	go func() {
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()
		job(time.Now())
		for {
			select {
			case t := <-ticker.C:
				job(t)
			case <-ctx.Done():
				return
			case <-stop:
				return
			}
		}
	}()

	return nil
}

// Stop halts the ticker goroutine. Safe to call concurrently and repeatedly.
func (s *TickerScheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stop == nil {
		return nil
	}
	close(s.stop)
	s.stop = nil
	return nil
}

// Package scheduler periodically prefetches station history for configured
// cities so forecasts for them are served from the local store.
package scheduler

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/go-co-op/gocron"
)

// Warmer fetches recent history for a city and reports how many hourly rows
// it received.
type Warmer interface {
	WarmCity(ctx context.Context, city string) (int, error)
}

// Scheduler runs a warm-up job for every configured city on a fixed interval.
type Scheduler struct {
	scheduler *gocron.Scheduler
	warmer    Warmer
	cities    []string
	interval  time.Duration
	timeout   time.Duration
	logger    *slog.Logger
}

// New creates a Scheduler. timeout bounds each city's fetch.
func New(warmer Warmer, cities []string, interval, timeout time.Duration, logger *slog.Logger) *Scheduler {
	s := gocron.NewScheduler(time.UTC)
	s.SingletonModeAll()
	return &Scheduler{
		scheduler: s,
		warmer:    warmer,
		cities:    cities,
		interval:  interval,
		timeout:   timeout,
		logger:    logger,
	}
}

// Start schedules the job and runs it once immediately.
func (s *Scheduler) Start() error {
	if len(s.cities) == 0 {
		s.logger.Info("history warmer: no cities configured")
		return nil
	}
	if _, err := s.scheduler.Every(s.interval).Do(s.run); err != nil {
		return err
	}
	s.scheduler.StartAsync()
	s.logger.Info("history warmer started", "cities", len(s.cities), "interval", s.interval)
	return nil
}

// Stop cancels future runs.
func (s *Scheduler) Stop() {
	s.scheduler.Stop()
}

func (s *Scheduler) run() {
	start := time.Now()
	var wg sync.WaitGroup
	for _, city := range s.cities {
		wg.Add(1)
		go func() {
			defer wg.Done()

			ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
			defer cancel()

			rows, err := s.warmer.WarmCity(ctx, city)
			if err != nil {
				s.logger.Warn("history warm failed", "city", city, "error", err)
				return
			}
			s.logger.Debug("history warmed", "city", city, "rows", rows)
		}()
	}
	wg.Wait()
	s.logger.Info("history warm run complete", "cities", len(s.cities), "duration", time.Since(start))
}

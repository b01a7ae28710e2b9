package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/go-co-op/gocron"
	"go.uber.org/zap"

	"github.com/i474232898/city-explorer/internal/logger"
)

// jobTimeout bounds one warm run for a single location.
const jobTimeout = 30 * time.Second

// Warmer fills the cache for one search query.
type Warmer interface {
	WarmLocation(ctx context.Context, query string) error
}

// Scheduler periodically warms the cache for configured search queries.
type Scheduler struct {
	scheduler *gocron.Scheduler
	warmer    Warmer
	locations []string
	interval  time.Duration
	log       *zap.SugaredLogger
}

// New creates a new Scheduler.
func New(locations []string, interval time.Duration, warmer Warmer) *Scheduler {
	s := gocron.NewScheduler(time.UTC)
	return &Scheduler{
		scheduler: s,
		warmer:    warmer,
		locations: locations,
		interval:  interval,
		log:       logger.GetLogger("scheduler"),
	}
}

// Start schedules the warm job and starts the underlying scheduler. The first run
// happens immediately.
func (s *Scheduler) Start() error {
	if len(s.locations) == 0 {
		s.log.Info("no warm locations configured; nothing to schedule")
		return nil
	}

	interval := s.interval
	if interval < time.Minute {
		interval = time.Hour
	}

	_, err := s.scheduler.Every(interval).Do(s.RunOnce)
	if err != nil {
		return err
	}

	s.scheduler.StartAsync()
	s.log.Infof("warming %d locations every %s", len(s.locations), interval)
	return nil
}

// RunOnce warms every configured location concurrently and waits for all of them.
func (s *Scheduler) RunOnce() {
	s.log.Debug("running cache warm job")

	var wg sync.WaitGroup
	for _, query := range s.locations {
		wg.Add(1)
		go func() {
			defer wg.Done()

			ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
			defer cancel()

			if err := s.warmer.WarmLocation(ctx, query); err != nil {
				s.log.Warnf("warm failed for %q: %v", query, err)
			}
		}()
	}
	wg.Wait()
	s.log.Debug("completed cache warm job")
}

// Stop stops the scheduler and cancels any future jobs.
func (s *Scheduler) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}

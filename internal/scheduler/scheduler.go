package scheduler

import (
	"log/slog"
	"time"

	"github.com/go-co-op/gocron"

	"github.com/i474232898/mcp-weather-server/internal/session"
)

// DefaultInterval is used when no positive sweep interval is configured.
const DefaultInterval = 30 * time.Second

// Sweeper is implemented by session.Registry.
type Sweeper interface {
	Sweep(now time.Time) session.SweepStats
}

// Scheduler periodically sweeps the session registry, independently of
// request handling.
type Scheduler struct {
	scheduler *gocron.Scheduler
	sweeper   Sweeper
	interval  time.Duration
}

// New creates a new Scheduler.
func New(sweeper Sweeper, interval time.Duration) *Scheduler {
	s := gocron.NewScheduler(time.UTC)
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Scheduler{
		scheduler: s,
		sweeper:   sweeper,
		interval:  interval,
	}
}

// Start schedules the sweep job and starts the underlying scheduler.
func (s *Scheduler) Start() error {
	_, err := s.scheduler.Every(s.interval).SingletonMode().Do(s.sweep)
	if err != nil {
		return err
	}

	s.scheduler.StartAsync()
	slog.Info("scheduler: session sweep started", "interval", s.interval)
	return nil
}

func (s *Scheduler) sweep() {
	stats := s.sweeper.Sweep(time.Now())
	if stats.Expired > 0 || stats.Removed > 0 {
		slog.Info("scheduler: swept sessions", "expired", stats.Expired, "removed", stats.Removed)
	}
}

// Stop stops the scheduler and cancels any future sweeps.
func (s *Scheduler) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}

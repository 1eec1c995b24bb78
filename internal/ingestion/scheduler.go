package ingestion

import (
	"context"
	"fmt"
	"log"
	"sync"

	"github.com/robfig/cron/v3"
)

// Scheduler re-runs a Loader on a cron schedule.
// Overlapping runs are skipped.
type Scheduler struct {
	cron   *cron.Cron
	loader *Loader
	logger *log.Logger

	mu      sync.Mutex
	running bool
	runs    int
}

// NewScheduler creates a Scheduler. spec uses the standard 5-field cron syntax
// and also accepts descriptors such as "@every 1h".
func NewScheduler(ctx context.Context, spec string, loader *Loader, logger *log.Logger) (*Scheduler, error) {
	if logger == nil {
		logger = log.Default()
	}
	s := &Scheduler{
		cron:   cron.New(),
		loader: loader,
		logger: logger,
	}

	if _, err := s.cron.AddFunc(spec, func() { s.reload(ctx) }); err != nil {
		return nil, fmt.Errorf("register reload task %q: %w", spec, err)
	}
	return s, nil
}

// ValidateSpec reports whether spec is a valid reload schedule.
func ValidateSpec(spec string) error {
	if _, err := cron.ParseStandard(spec); err != nil {
		return fmt.Errorf("invalid cron spec %q: %w", spec, err)
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.cron.Start()
	s.logger.Println("Reload scheduler started")
}

// Stop stops the scheduler and waits for a running reload to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	s.logger.Println("Reload scheduler stopped")
}

// Runs returns the number of completed reloads.
func (s *Scheduler) Runs() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.runs
}

// reload runs the loader unless a previous run is still active.
func (s *Scheduler) reload(ctx context.Context) {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		s.logger.Println("Reload skipped: previous run still active")
		return
	}
	s.running = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.running = false
		s.runs++
		s.mu.Unlock()
	}()

	if ctx.Err() != nil {
		return
	}
	if _, err := s.loader.Run(ctx); err != nil {
		s.logger.Printf("Reload failed: %v", err)
	}
}

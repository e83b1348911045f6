package jobs

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Job is a unit of periodic maintenance work.
type Job func(ctx context.Context) error

// SchedulerConfig configures the maintenance scheduler.
type SchedulerConfig struct {
	Location *time.Location
	// Timeout bounds a single run. Zero means one minute.
	Timeout time.Duration
	Logger  *zap.Logger
}

type registration struct {
	spec    string
	job     Job
	entryID cron.EntryID
}

// Scheduler runs named jobs on cron schedules. Overlapping runs of the same job are skipped.
type Scheduler struct {
	cron    *cron.Cron
	parser  cron.Parser
	timeout time.Duration
	logger  *zap.Logger

	mu      sync.Mutex
	jobs    map[string]*registration
	ctx     context.Context
	cancel  context.CancelFunc
	started bool
}

// NewScheduler builds a stopped scheduler.
func NewScheduler(cfg SchedulerConfig) *Scheduler {
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = time.Minute
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	parser := cron.NewParser(cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
	return &Scheduler{
		cron: cron.New(
			cron.WithParser(parser),
			cron.WithLocation(cfg.Location),
			cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)),
		),
		parser:  parser,
		timeout: cfg.Timeout,
		logger:  cfg.Logger,
		jobs:    make(map[string]*registration),
	}
}

// Register adds a job under a unique name. spec accepts five or six field cron
// expressions and descriptors such as "@every 5m".
func (s *Scheduler) Register(name, spec string, job Job) error {
	if name == "" || job == nil {
		return fmt.Errorf("jobs: name and job are required")
	}
	if _, err := s.parser.Parse(spec); err != nil {
		return fmt.Errorf("jobs: invalid schedule %q for %s: %w", spec, name, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.jobs[name]; exists {
		return fmt.Errorf("jobs: %s already registered", name)
	}
	reg := &registration{spec: spec, job: job}
	id, err := s.cron.AddFunc(spec, func() { _ = s.run(s.dispatchContext(), name, job) })
	if err != nil {
		return fmt.Errorf("jobs: schedule %s: %w", name, err)
	}
	reg.entryID = id
	s.jobs[name] = reg
	return nil
}

// Start begins dispatching. Calling it twice is a no-op; a stopped scheduler can be
// started again.
func (s *Scheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return
	}
	s.ctx, s.cancel = context.WithCancel(context.Background())
	s.cron.Start()
	s.started = true
	s.logger.Info("job scheduler started", zap.Strings("jobs", s.namesLocked()))
}

// Stop halts dispatching, cancels running jobs and waits for them to return or for ctx to end.
func (s *Scheduler) Stop(ctx context.Context) {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return
	}
	s.started = false
	cancel := s.cancel
	s.mu.Unlock()

	done := s.cron.Stop()
	cancel()
	select {
	case <-done.Done():
	case <-ctx.Done():
		s.logger.Warn("job scheduler stop timed out", zap.Error(ctx.Err()))
	}
	s.logger.Info("job scheduler stopped")
}

// dispatchContext is the parent context of scheduled runs for the current Start.
func (s *Scheduler) dispatchContext() context.Context {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ctx == nil {
		return context.Background()
	}
	return s.ctx
}

// RunNow executes a registered job immediately on the calling goroutine.
func (s *Scheduler) RunNow(ctx context.Context, name string) error {
	s.mu.Lock()
	reg, ok := s.jobs[name]
	s.mu.Unlock()
	if !ok {
		return fmt.Errorf("jobs: %s not registered", name)
	}
	return s.run(ctx, name, reg.job)
}

// Next returns the next scheduled run of a job, zero when unknown or not started.
func (s *Scheduler) Next(name string) time.Time {
	s.mu.Lock()
	reg, ok := s.jobs[name]
	s.mu.Unlock()
	if !ok {
		return time.Time{}
	}
	return s.cron.Entry(reg.entryID).Next
}

// Names lists registered jobs in lexical order.
func (s *Scheduler) Names() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.namesLocked()
}

func (s *Scheduler) namesLocked() []string {
	names := make([]string, 0, len(s.jobs))
	for name := range s.jobs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (s *Scheduler) run(parent context.Context, name string, job Job) (err error) {
	ctx, cancel := context.WithTimeout(parent, s.timeout)
	defer cancel()
	started := time.Now()
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("jobs: %s panicked: %v", name, r)
		}
		if err != nil {
			s.logger.Error("job failed", zap.String("job", name), zap.Duration("elapsed", time.Since(started)), zap.Error(err))
			return
		}
		s.logger.Debug("job finished", zap.String("job", name), zap.Duration("elapsed", time.Since(started)))
	}()
	return job(ctx)
}

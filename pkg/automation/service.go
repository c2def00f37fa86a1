// Package automation runs named jobs on interval, cron or one-shot schedules.
package automation

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/mklimuk/focus-pilot/pkg/db"
)

// ErrUnknownJob is returned for a job name without a registered action.
var ErrUnknownJob = errors.New("unknown job")

// ActionFunc executes one job and returns a short report.
type ActionFunc func(ctx context.Context) (string, error)

// RunLog records finished job runs.
type RunLog interface {
	LogJobRun(run db.JobRun) error
}

// JobInfo describes a scheduled job.
type JobInfo struct {
	Name    string     `json:"name"`
	NextRun *time.Time `json:"nextRun,omitempty"`
}

type scheduledJob struct {
	name     string
	schedule *Schedule
	next     time.Time
	done     bool
}

// Service runs registered actions when their schedules come due.
type Service struct {
	runs         RunLog
	logger       *zap.Logger
	pollInterval time.Duration
	now          func() time.Time

	mu      sync.Mutex
	actions map[string]ActionFunc
	jobs    []*scheduledJob

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewService creates a scheduler. runs may be nil.
func NewService(runs RunLog, logger *zap.Logger, pollInterval time.Duration) *Service {
	if pollInterval <= 0 {
		pollInterval = 15 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		runs:         runs,
		logger:       logger,
		pollInterval: pollInterval,
		now:          time.Now,
		actions:      make(map[string]ActionFunc),
	}
}

// RegisterAction registers a runnable job.
func (s *Service) RegisterAction(name string, fn ActionFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.actions[name] = fn
}

// Schedule attaches a schedule to a registered action.
func (s *Service) Schedule(name, kind, expr, tz string) error {
	sched, err := ParseSchedule(kind, expr, tz)
	if err != nil {
		return fmt.Errorf("job %s: %w", name, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.actions[name]; !ok {
		return fmt.Errorf("job %s: %w", name, ErrUnknownJob)
	}
	job := &scheduledJob{name: name, schedule: sched}
	job.next, job.done = nextOrDone(sched, s.now())
	s.jobs = append(s.jobs, job)
	return nil
}

func nextOrDone(sched *Schedule, from time.Time) (time.Time, bool) {
	next, ok := sched.Next(from)
	return next, !ok
}

// Jobs lists scheduled jobs ordered by name.
func (s *Service) Jobs() []JobInfo {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]JobInfo, 0, len(s.jobs))
	for _, j := range s.jobs {
		info := JobInfo{Name: j.name}
		if !j.done {
			next := j.next
			info.NextRun = &next
		}
		out = append(out, info)
	}
	sort.Slice(out, func(i, k int) bool { return out[i].Name < out[k].Name })
	return out
}

// Start begins the polling loop.
func (s *Service) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.wg.Add(1)
	go s.loop(ctx)
}

// Stop cancels running jobs and waits for the loop to exit.
func (s *Service) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
	s.wg.Wait()
}

func (s *Service) loop(ctx context.Context) {
	defer s.wg.Done()
	ticker := time.NewTicker(s.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.runDue(ctx)
		case <-ctx.Done():
			return
		}
	}
}

func (s *Service) runDue(ctx context.Context) {
	now := s.now()

	s.mu.Lock()
	var due []string
	for _, j := range s.jobs {
		if j.done || j.next.After(now) {
			continue
		}
		due = append(due, j.name)
		j.next, j.done = nextOrDone(j.schedule, now)
		if j.schedule.OneShot() {
			j.done = true
		}
	}
	s.mu.Unlock()

	for _, name := range due {
		if _, err := s.RunNow(ctx, name); err != nil {
			s.logger.Warn("scheduled job failed", zap.String("job", name), zap.Error(err))
		}
	}
}

// RunNow executes a job immediately and records the run.
func (s *Service) RunNow(ctx context.Context, name string) (string, error) {
	s.mu.Lock()
	action := s.actions[name]
	s.mu.Unlock()
	if action == nil {
		return "", fmt.Errorf("job %s: %w", name, ErrUnknownJob)
	}

	started := s.now()
	output, err := action(ctx)
	run := db.JobRun{
		Job:        name,
		Status:     "success",
		Output:     output,
		StartedAt:  started,
		FinishedAt: s.now(),
	}
	if err != nil {
		run.Status = "failed"
		run.Error = err.Error()
	}
	s.logger.Info("job finished",
		zap.String("job", name),
		zap.String("status", run.Status),
		zap.Duration("duration", run.FinishedAt.Sub(started)),
	)

	if s.runs != nil {
		if logErr := s.runs.LogJobRun(run); logErr != nil {
			s.logger.Warn("failed to record job run", zap.String("job", name), zap.Error(logErr))
		}
	}
	return output, err
}

// Package scheduler runs named background jobs on cron schedules.
package scheduler

import (
	"context"
	"fmt"
	"time"

	applogger "SymDir/pkg/logger"

	"github.com/robfig/cron/v3"
)

// Job is a unit of scheduled work. Run receives a context cancelled when the
// scheduler stops.
type Job interface {
	Name() string
	Run(ctx context.Context) error
}

// JobFunc adapts a function to Job.
type JobFunc struct {
	JobName string
	Fn      func(ctx context.Context) error
}

func (j JobFunc) Name() string                  { return j.JobName }
func (j JobFunc) Run(ctx context.Context) error { return j.Fn(ctx) }

// Scheduler runs named jobs on cron specs.
type Scheduler struct {
	cron   *cron.Cron
	log    *applogger.Logger
	ctx    context.Context
	cancel context.CancelFunc
}

// New creates a scheduler using standard five-field specs plus descriptors
// such as "@every 30s". Overlapping runs of one job are skipped.
func New(l *applogger.Logger) *Scheduler {
	if l == nil {
		l = applogger.Nop()
	}
	l = l.With("scheduler")
	ctx, cancel := context.WithCancel(context.Background())
	cl := cronLogger{l}
	return &Scheduler{
		cron:   cron.New(cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl))),
		log:    l,
		ctx:    ctx,
		cancel: cancel,
	}
}

// AddJob registers job under schedule.
//   - "0 8 * * 1-5"  08:00 on weekdays
//   - "@every 30s"   every 30 seconds
func (s *Scheduler) AddJob(schedule string, job Job) error {
	_, err := s.cron.AddFunc(schedule, func() { s.run(job) })
	if err != nil {
		return fmt.Errorf("schedule %s: %w", job.Name(), err)
	}
	s.log.Info("job registered", applogger.String("job", job.Name()), applogger.String("schedule", schedule))
	return nil
}

// RunNow executes a job immediately, outside its schedule.
func (s *Scheduler) RunNow(job Job) error {
	s.log.Info("running job now", applogger.String("job", job.Name()))
	return job.Run(s.ctx)
}

func (s *Scheduler) run(job Job) {
	start := time.Now()
	if err := job.Run(s.ctx); err != nil {
		s.log.Error("job failed", applogger.String("job", job.Name()), applogger.Error(err))
		return
	}
	s.log.Debug("job completed", applogger.String("job", job.Name()), applogger.Duration("duration_ms", time.Since(start)))
}

// Start begins firing scheduled jobs.
func (s *Scheduler) Start() {
	s.cron.Start()
	s.log.Info("scheduler started", applogger.Int("jobs", len(s.cron.Entries())))
}

// Stop cancels running jobs and waits for them until ctx expires.
func (s *Scheduler) Stop(ctx context.Context) error {
	s.cancel()
	done := s.cron.Stop()
	select {
	case <-done.Done():
		s.log.Info("scheduler stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// cronLogger routes cron's own messages through the app logger.
type cronLogger struct{ l *applogger.Logger }

func (c cronLogger) Info(msg string, kv ...interface{}) {
	c.l.Debug(msg, applogger.Any("kv", kv))
}

func (c cronLogger) Error(err error, msg string, kv ...interface{}) {
	c.l.Error(msg, applogger.Error(err), applogger.Any("kv", kv))
}

package job

import (
	"context"
	"time"

	"github.com/aprilhs/copyforge/internal/logger"
	"github.com/robfig/cron/v3"
)

// Job is one scheduled maintenance task.
type Job interface {
	Name() string
	Run(ctx context.Context) error
}

// Scheduler runs the cache janitor jobs on a cron schedule.
type Scheduler struct {
	cron *cron.Cron
	jobs []Job
}

// NewScheduler creates an empty scheduler.
func NewScheduler() *Scheduler {
	return &Scheduler{cron: cron.New()}
}

// Register adds a job under the given cron expression.
func (s *Scheduler) Register(schedule string, job Job) error {
	s.jobs = append(s.jobs, job)
	_, err := s.cron.AddFunc(schedule, func() {
		s.runJob(job)
	})
	return err
}

func (s *Scheduler) runJob(job Job) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()
	ctx = logger.WithField(ctx, logger.FieldComponent, job.Name())

	start := time.Now()
	if err := job.Run(ctx); err != nil {
		logger.CtxError(ctx, "Scheduled job failed: error=%v", err)
		return
	}
	logger.CtxDebug(ctx, "Scheduled job finished: duration_ms=%d", time.Since(start).Milliseconds())
}

// Start begins running registered jobs in the background.
func (s *Scheduler) Start() {
	s.cron.Start()
	logger.GetDefault().Infof("Scheduler started with %d jobs", len(s.jobs))
}

// Stop stops the scheduler and waits for running jobs to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
}

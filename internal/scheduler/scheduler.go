package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/autonotions/autonotions/internal/services"
	"go.uber.org/zap"
)

const (
	CardRemindersJob         = "card-reminders"
	NotificationRetentionJob = "notification-retention"
)

// JobFunc runs one tick of a job. now is the tick time.
type JobFunc func(ctx context.Context, now time.Time) error

type Job struct {
	Name     string
	Interval time.Duration
	Run      JobFunc
}

type runningJob struct {
	job    Job
	cancel context.CancelFunc
	done   chan struct{}
}

type Scheduler struct {
	jobs   map[string]*runningJob
	mu     sync.RWMutex
	ctx    context.Context
	cancel context.CancelFunc
	now    func() time.Time
}

func NewScheduler() *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		jobs:   make(map[string]*runningJob),
		ctx:    ctx,
		cancel: cancel,
		now:    time.Now,
	}
}

// AddJob starts job, replacing a running job with the same name. The first
// run happens immediately.
func (s *Scheduler) AddJob(job Job) error {
	if job.Name == "" || job.Run == nil {
		return fmt.Errorf("job needs a name and a run func")
	}
	if job.Interval <= 0 {
		return fmt.Errorf("job %s: interval must be positive", job.Name)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.ctx.Err() != nil {
		return fmt.Errorf("scheduler stopped")
	}

	if existing, ok := s.jobs[job.Name]; ok {
		existing.cancel()
	}

	jobCtx, jobCancel := context.WithCancel(s.ctx)
	running := &runningJob{job: job, cancel: jobCancel, done: make(chan struct{})}
	s.jobs[job.Name] = running

	go s.run(jobCtx, running)

	zap.L().Info("scheduled job", zap.String("job", job.Name), zap.Duration("interval", job.Interval))
	return nil
}

// RemoveJob stops the named job and waits for its current run to finish.
func (s *Scheduler) RemoveJob(name string) {
	s.mu.Lock()
	running, ok := s.jobs[name]
	if ok {
		delete(s.jobs, name)
	}
	s.mu.Unlock()

	if ok {
		running.cancel()
		<-running.done
		zap.L().Info("removed job", zap.String("job", name))
	}
}

func (s *Scheduler) run(ctx context.Context, running *runningJob) {
	defer close(running.done)

	ticker := time.NewTicker(running.job.Interval)
	defer ticker.Stop()

	s.execute(ctx, running.job)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.execute(ctx, running.job)
		}
	}
}

func (s *Scheduler) execute(ctx context.Context, job Job) {
	start := time.Now()

	if err := job.Run(ctx, s.now()); err != nil {
		if ctx.Err() == nil {
			zap.L().Error("job failed", zap.String("job", job.Name), zap.Error(err))
		}
		return
	}

	zap.L().Debug("job finished", zap.String("job", job.Name), zap.Duration("took", time.Since(start)))
}

// Stop cancels every job and waits for them to return.
func (s *Scheduler) Stop() {
	zap.L().Info("stopping scheduler")
	s.cancel()

	s.mu.Lock()
	jobs := s.jobs
	s.jobs = make(map[string]*runningJob)
	s.mu.Unlock()

	for _, running := range jobs {
		<-running.done
	}

	zap.L().Info("scheduler stopped")
}

// Jobs lists the names of the running jobs.
func (s *Scheduler) Jobs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, 0, len(s.jobs))
	for name := range s.jobs {
		names = append(names, name)
	}
	return names
}

// CardReminders notifies assignees of cards that fall due soon.
func CardReminders(interval time.Duration) Job {
	return Job{
		Name:     CardRemindersJob,
		Interval: interval,
		Run: func(ctx context.Context, now time.Time) error {
			sent, err := services.SendDueCardReminders(ctx, now)
			if err != nil {
				return err
			}
			if sent > 0 {
				zap.L().Info("sent card reminders", zap.Int("count", sent))
			}
			return nil
		},
	}
}

// NotificationRetention deletes read notifications older than retention.
func NotificationRetention(interval, retention time.Duration) Job {
	return Job{
		Name:     NotificationRetentionJob,
		Interval: interval,
		Run: func(ctx context.Context, now time.Time) error {
			deleted, err := services.DeleteReadNotificationsBefore(ctx, now.Add(-retention))
			if err != nil {
				return err
			}
			if deleted > 0 {
				zap.L().Info("deleted old notifications", zap.Int64("count", deleted))
			}
			return nil
		},
	}
}

var globalScheduler *Scheduler

// Initialize creates the global scheduler and starts the given jobs.
func Initialize(jobs ...Job) error {
	globalScheduler = NewScheduler()

	for _, job := range jobs {
		if err := globalScheduler.AddJob(job); err != nil {
			globalScheduler.Stop()
			globalScheduler = nil
			return err
		}
	}

	return nil
}

func Shutdown() {
	if globalScheduler != nil {
		globalScheduler.Stop()
		globalScheduler = nil
	}
}

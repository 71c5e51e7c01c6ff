package scheduler

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/semmidev/mongobak/internal/infrastructure/logger"
)

type Scheduler struct {
	cron   *cron.Cron
	logger *logger.Logger
}

// New returns a scheduler whose specs carry a leading seconds field. A job
// still running when its next tick arrives is skipped, not overlapped.
func New(log *logger.Logger) *Scheduler {
	return &Scheduler{
		cron: cron.New(
			cron.WithSeconds(),
			cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)),
		),
		logger: log,
	}
}

func (s *Scheduler) AddJob(name, spec string, job func(context.Context) error) error {
	_, err := s.cron.AddFunc(spec, func() {
		start := time.Now()
		s.logger.Infow("Scheduled job started", "job", name)

		if err := job(context.Background()); err != nil {
			s.logger.Errorw("Scheduled job failed", "job", name, "error", err, "duration", time.Since(start))
			return
		}
		s.logger.Infow("Scheduled job finished", "job", name, "duration", time.Since(start))
	})
	return err
}

// Next reports the earliest upcoming run of any job. It is zero until Start.
func (s *Scheduler) Next() time.Time {
	var next time.Time
	for _, e := range s.cron.Entries() {
		if next.IsZero() || (!e.Next.IsZero() && e.Next.Before(next)) {
			next = e.Next
		}
	}
	return next
}

func (s *Scheduler) Start() {
	s.cron.Start()
}

func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
}

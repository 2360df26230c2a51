// Package scheduler runs the nightly meal rollover on a cron schedule.
package scheduler

import (
	"fmt"
	"sync"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/robfig/cron/v3"

	"homesteer/internal/logger"
)

// Roller backfills meal placeholders for every active room.
type Roller interface {
	RolloverAll() (int64, error)
}

// Scheduler wraps the cron runner for ledger maintenance jobs.
type Scheduler struct {
	cron   *cron.Cron
	roller Roller
	mu     sync.Mutex
}

// New creates a Scheduler whose specs are read in loc. Specs carry a seconds field.
func New(roller Roller, loc *time.Location) *Scheduler {
	if loc == nil {
		loc = time.UTC
	}
	return &Scheduler{
		cron: cron.New(
			cron.WithLocation(loc),
			cron.WithSeconds(),
			cron.WithChain(cron.Recover(cron.DefaultLogger)),
		),
		roller: roller,
	}
}

// ScheduleRollover registers the rollover job at spec, e.g. "0 0 0 * * *".
func (s *Scheduler) ScheduleRollover(spec string) (cron.EntryID, error) {
	id, err := s.cron.AddFunc(spec, func() {
		_, _ = s.RunNow()
	})
	if err != nil {
		return 0, fmt.Errorf("invalid rollover schedule %q: %w", spec, err)
	}
	return id, nil
}

// RunNow runs the rollover immediately. Concurrent calls are serialized.
func (s *Scheduler) RunNow() (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	start := time.Now()
	created, err := s.roller.RolloverAll()
	if err != nil {
		logger.Get().Errorw("meal rollover failed",
			"error", err,
			"rows_created", created,
		)
		sentry.CaptureException(err)
		return created, err
	}

	logger.Get().Infow("meal rollover completed",
		"rows_created", created,
		"duration", time.Since(start).String(),
	)
	return created, nil
}

// Start begins running scheduled jobs in the background.
func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop halts the scheduler and waits for a running job to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
}

// Entries reports how many jobs are registered.
func (s *Scheduler) Entries() int {
	return len(s.cron.Entries())
}

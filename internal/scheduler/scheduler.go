// Package scheduler runs background jobs on cron schedules.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"esarbank/internal/logger"
	"esarbank/internal/services"
)

// Scheduler wraps a cron runner. Every job is single-flight: a trigger that
// fires while the previous run is still going is skipped.
type Scheduler struct {
	cron   *cron.Cron
	ctx    context.Context
	cancel context.CancelFunc
	log    *zap.SugaredLogger
}

// New creates a stopped Scheduler evaluating schedules in loc.
func New(loc *time.Location) *Scheduler {
	log := logger.Named("scheduler")
	cl := cronLogger{log: log}
	ctx, cancel := context.WithCancel(context.Background())

	return &Scheduler{
		cron: cron.New(
			cron.WithLocation(loc),
			cron.WithLogger(cl),
			cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
		),
		ctx:    ctx,
		cancel: cancel,
		log:    log,
	}
}

// Register adds run under the standard five-field cron spec.
func (s *Scheduler) Register(name, spec string, run func(ctx context.Context) error) (cron.EntryID, error) {
	id, err := s.cron.AddFunc(spec, func() {
		start := time.Now()
		s.log.Infow("job started", "job", name)
		if err := run(s.ctx); err != nil {
			s.log.Errorw("job failed", "job", name, "error", err, "duration", time.Since(start))
			return
		}
		s.log.Infow("job finished", "job", name, "duration", time.Since(start))
	})
	if err != nil {
		return 0, fmt.Errorf("register %s with spec %q: %w", name, spec, err)
	}
	return id, nil
}

// Start begins firing jobs in the background.
func (s *Scheduler) Start() {
	s.cron.Start()
	for _, e := range s.cron.Entries() {
		s.log.Infow("job scheduled", "entry", e.ID, "next", e.Next)
	}
}

// Stop prevents new runs and waits for running jobs until ctx is done, at
// which point their context is cancelled.
func (s *Scheduler) Stop(ctx context.Context) error {
	done := s.cron.Stop()
	defer s.cancel()

	select {
	case <-done.Done():
		return nil
	case <-ctx.Done():
		s.cancel()
		<-done.Done()
		return ctx.Err()
	}
}

// MonthlyInterest adapts the interest service to a scheduler job.
func MonthlyInterest(svc services.InterestServicer) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		result, err := svc.ApplyMonthlyInterest(ctx)
		if err != nil {
			return err
		}
		if result.Failed > 0 {
			return fmt.Errorf("%d of %d accounts failed for %s", result.Failed, result.Scanned, result.Period)
		}
		return nil
	}
}

// cronLogger routes cron's own logging through zap.
type cronLogger struct {
	log *zap.SugaredLogger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Debugw(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.Errorw(msg, append(keysAndValues, "error", err)...)
}

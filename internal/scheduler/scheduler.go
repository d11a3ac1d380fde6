// Package scheduler triggers the reminder pipeline on a daily cron
// and serialises runs so a manual trigger never overlaps the
// scheduled one.
package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/lantenhq/reminderd/internal/pipeline"
)

// runTimeout bounds one pipeline run. Resolution and dispatch are
// I/O bound; anything past this is stuck, and the next scheduled run
// will pick the day up again.
const runTimeout = 10 * time.Minute

// Alerter receives run-fatal failures. Implemented by alert.Publisher.
type Alerter interface {
	RunFailed(ctx context.Context, err error)
}

// Scheduler owns the cron engine and the single-run lock.
type Scheduler struct {
	cronEngine *cron.Cron
	runner     *pipeline.Runner
	alerter    Alerter
	logger     *zap.Logger

	mu   sync.Mutex
	last *pipeline.Report
}

// New creates a scheduler firing the pipeline at the given cron spec.
// alerter may be nil.
func New(runner *pipeline.Runner, alerter Alerter, spec string, logger *zap.Logger) (*Scheduler, error) {
	s := &Scheduler{
		cronEngine: cron.New(cron.WithLocation(time.UTC)),
		runner:     runner,
		alerter:    alerter,
		logger:     logger,
	}

	_, err := s.cronEngine.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), runTimeout)
		defer cancel()
		if _, err := s.RunNow(ctx); err != nil {
			s.logger.Error("scheduled reminder run failed", zap.Error(err))
		}
	})
	if err != nil {
		return nil, err
	}

	return s, nil
}

// Start begins cron scheduling.
func (s *Scheduler) Start() {
	s.cronEngine.Start()
	s.logger.Info("reminder scheduler started")
}

// Stop halts scheduling and waits for a running job to finish.
func (s *Scheduler) Stop() {
	<-s.cronEngine.Stop().Done()
	s.logger.Info("reminder scheduler stopped")
}

// RunNow executes one pipeline run, serialised against concurrent
// triggers. Run-fatal errors are forwarded to the alerter.
func (s *Scheduler) RunNow(ctx context.Context) (*pipeline.Report, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	report, err := s.runner.Run(ctx)
	if err != nil {
		if s.alerter != nil {
			s.alerter.RunFailed(ctx, err)
		}
		return nil, err
	}
	s.last = report
	return report, nil
}

// LastReport returns the most recent successful run's report, or nil.
func (s *Scheduler) LastReport() *pipeline.Report {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last
}

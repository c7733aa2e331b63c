package scheduler

import (
	"context"
	"time"

	"github.com/flexprice/posbilling/internal/config"
	"github.com/flexprice/posbilling/internal/logger"
	"github.com/flexprice/posbilling/internal/service"
	"github.com/robfig/cron/v3"
)

// jobTimeout bounds a single scheduled run
const jobTimeout = time.Minute

// Scheduler runs the fiscal year rollover in the business timezone
type Scheduler struct {
	cron     *cron.Cron
	cfg      *config.Configuration
	logger   *logger.Logger
	sequence service.SequenceService
	entryID  cron.EntryID
}

func NewScheduler(cfg *config.Configuration, logger *logger.Logger, sequence service.SequenceService) (*Scheduler, error) {
	loc, err := cfg.Billing.Location()
	if err != nil {
		return nil, err
	}

	return &Scheduler{
		cron:     cron.New(cron.WithLocation(loc)),
		cfg:      cfg,
		logger:   logger,
		sequence: sequence,
	}, nil
}

// Start registers the rollover job and starts the cron loop. It does
// nothing when rollover is disabled.
func (s *Scheduler) Start() error {
	if !s.cfg.Sequence.RolloverEnabled {
		s.logger.Info("fiscal year rollover is disabled")
		return nil
	}

	id, err := s.cron.AddFunc(s.cfg.Sequence.RolloverSchedule, s.runRollover)
	if err != nil {
		return err
	}
	s.entryID = id
	s.cron.Start()

	s.logger.Infow("scheduled fiscal year rollover",
		"schedule", s.cfg.Sequence.RolloverSchedule,
		"next_run", s.cron.Entry(id).Next,
	)
	return nil
}

// Stop waits for a running job to finish or ctx to expire
func (s *Scheduler) Stop(ctx context.Context) error {
	done := s.cron.Stop().Done()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// NextRun returns when the rollover fires next, or zero if not scheduled
func (s *Scheduler) NextRun() time.Time {
	if s.entryID == 0 {
		return time.Time{}
	}
	return s.cron.Entry(s.entryID).Next
}

func (s *Scheduler) runRollover() {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	s.logger.Info("running fiscal year rollover")
	if err := s.sequence.Rollover(ctx); err != nil {
		s.logger.Errorw("scheduled rollover failed", "error", err)
	}
}

package service

import (
	"context"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/flexprice/posbilling/internal/api/dto"
	ierr "github.com/flexprice/posbilling/internal/errors"
)

// SequenceService exposes the administrative side of invoice numbering
type SequenceService interface {
	GetState(ctx context.Context) (*dto.SequenceStateResponse, error)
	SetOverrideFiscalYear(ctx context.Context, req dto.SetOverrideFiscalYearRequest) (*dto.SequenceStateResponse, error)
	SetNextSerial(ctx context.Context, req dto.SetNextSerialRequest) (*dto.SequenceStateResponse, error)
	Reset(ctx context.Context) (*dto.SequenceStateResponse, error)

	// Warmup replays the ledger and syncs the counter at startup, retrying
	// while the ledger is unreachable
	Warmup(ctx context.Context) error

	// Rollover resets the counter at the start of a fiscal year. It leaves
	// a pinned override alone.
	Rollover(ctx context.Context) error
}

type sequenceService struct {
	ServiceParams
	ledgerSync LedgerSyncService
}

func NewSequenceService(params ServiceParams, ledgerSync LedgerSyncService) SequenceService {
	return &sequenceService{
		ServiceParams: params,
		ledgerSync:    ledgerSync,
	}
}

func (s *sequenceService) GetState(ctx context.Context) (*dto.SequenceStateResponse, error) {
	resp := &dto.SequenceStateResponse{
		State:    s.Allocator.State(),
		Timezone: s.Allocator.Location().String(),
	}

	next, err := s.Allocator.PeekNext(ctx, time.Time{})
	if err != nil {
		s.Logger.Warnw("could not preview next invoice number", "error", err)
		return resp, nil
	}
	resp.NextInvoiceNumber = next.String()
	return resp, nil
}

func (s *sequenceService) SetOverrideFiscalYear(ctx context.Context, req dto.SetOverrideFiscalYearRequest) (*dto.SequenceStateResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	if err := s.Allocator.SetOverrideFiscalYear(ctx, req.ToFiscalYear()); err != nil {
		return nil, err
	}
	return s.GetState(ctx)
}

func (s *sequenceService) SetNextSerial(ctx context.Context, req dto.SetNextSerialRequest) (*dto.SequenceStateResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	if err := s.Allocator.SetNextSerial(ctx, req.NextSerial); err != nil {
		return nil, err
	}
	return s.GetState(ctx)
}

func (s *sequenceService) Reset(ctx context.Context) (*dto.SequenceStateResponse, error) {
	if err := s.Allocator.Reset(ctx); err != nil {
		return nil, err
	}
	return s.GetState(ctx)
}

func (s *sequenceService) Warmup(ctx context.Context) error {
	fy := s.Allocator.WallClockFiscalYear()

	retry := s.Config.LedgerSync
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = retry.InitialInterval
	policy.MaxInterval = retry.MaxInterval
	policy.MaxElapsedTime = retry.MaxElapsedTime
	if retry.Multiplier > 0 {
		policy.Multiplier = retry.Multiplier
	}

	operation := func() error {
		if s.ledgerSync != nil {
			if _, err := s.ledgerSync.Replay(ctx, fy); err != nil {
				return retryable(err)
			}
		}
		return retryable(s.Allocator.Reset(ctx))
	}

	notify := func(err error, wait time.Duration) {
		s.Logger.Warnw("sequence warmup failed, retrying",
			"fiscal_year", fy,
			"retry_in", wait,
			"error", err,
		)
	}

	b := backoff.WithContext(backoff.WithMaxRetries(policy, uint64(retry.MaxRetries)), ctx)
	if err := backoff.RetryNotify(operation, b, notify); err != nil {
		return err
	}

	state := s.Allocator.State()
	s.Logger.Infow("invoice sequence ready",
		"fiscal_year", fy,
		"last_issued_serial", state.LastIssuedSerial,
	)
	return nil
}

func (s *sequenceService) Rollover(ctx context.Context) error {
	if override := s.Allocator.State().OverrideFiscalYear; override != nil {
		s.Logger.Infow("skipping fiscal year rollover, override pinned",
			"override_fiscal_year", *override,
		)
		return nil
	}

	if err := s.Allocator.Reset(ctx); err != nil {
		s.Logger.Errorw("fiscal year rollover failed", "error", err)
		return err
	}

	state := s.Allocator.State()
	s.Logger.Infow("fiscal year rolled over",
		"fiscal_year", *state.CurrentFiscalYear,
		"last_issued_serial", state.LastIssuedSerial,
	)
	return nil
}

// retryable keeps retrying only on ledger and database outages
func retryable(err error) error {
	if err == nil {
		return nil
	}
	if ierr.IsLedgerUnavailable(err) || ierr.HTTPStatusFromErr(err) == http.StatusInternalServerError {
		return err
	}
	return backoff.Permanent(err)
}

package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/flexprice/posbilling/internal/api/dto"
	"github.com/flexprice/posbilling/internal/config"
	"github.com/flexprice/posbilling/internal/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSequence struct {
	rollovers int
}

func (f *fakeSequence) GetState(context.Context) (*dto.SequenceStateResponse, error) {
	return &dto.SequenceStateResponse{}, nil
}

func (f *fakeSequence) SetOverrideFiscalYear(context.Context, dto.SetOverrideFiscalYearRequest) (*dto.SequenceStateResponse, error) {
	return &dto.SequenceStateResponse{}, nil
}

func (f *fakeSequence) SetNextSerial(context.Context, dto.SetNextSerialRequest) (*dto.SequenceStateResponse, error) {
	return &dto.SequenceStateResponse{}, nil
}

func (f *fakeSequence) Reset(context.Context) (*dto.SequenceStateResponse, error) {
	return &dto.SequenceStateResponse{}, nil
}

func (f *fakeSequence) Warmup(context.Context) error { return nil }

func (f *fakeSequence) Rollover(context.Context) error {
	f.rollovers++
	return nil
}

func TestSchedulerRunsOnFiscalYearStart(t *testing.T) {
	cfg := config.GetDefaultConfig()
	cfg.Sequence.RolloverEnabled = true

	s, err := NewScheduler(cfg, logger.NewNoopLogger(), &fakeSequence{})
	require.NoError(t, err)
	require.NoError(t, s.Start())
	defer func() {
		require.NoError(t, s.Stop(context.Background()))
	}()

	next := s.NextRun()
	loc, err := cfg.Billing.Location()
	require.NoError(t, err)
	next = next.In(loc)

	assert.Equal(t, time.April, next.Month())
	assert.Equal(t, 1, next.Day())
	assert.Zero(t, next.Hour())
	assert.Zero(t, next.Minute())
	assert.True(t, next.After(time.Now()))
}

func TestSchedulerDisabled(t *testing.T) {
	cfg := config.GetDefaultConfig()
	cfg.Sequence.RolloverEnabled = false

	s, err := NewScheduler(cfg, logger.NewNoopLogger(), &fakeSequence{})
	require.NoError(t, err)
	require.NoError(t, s.Start())
	assert.True(t, s.NextRun().IsZero())
}

func TestSchedulerRejectsBadSchedule(t *testing.T) {
	cfg := config.GetDefaultConfig()
	cfg.Sequence.RolloverEnabled = true
	cfg.Sequence.RolloverSchedule = "every april"

	s, err := NewScheduler(cfg, logger.NewNoopLogger(), &fakeSequence{})
	require.NoError(t, err)
	assert.Error(t, s.Start())
}

func TestRunRolloverCallsService(t *testing.T) {
	seq := &fakeSequence{}
	s, err := NewScheduler(config.GetDefaultConfig(), logger.NewNoopLogger(), seq)
	require.NoError(t, err)

	s.runRollover()
	assert.Equal(t, 1, seq.rollovers)
}

package sequence

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	ierr "github.com/flexprice/posbilling/internal/errors"
	"github.com/flexprice/posbilling/internal/logger"
	"github.com/flexprice/posbilling/internal/testutil"
	"github.com/flexprice/posbilling/internal/types"
	"github.com/sourcegraph/conc"
	"github.com/stretchr/testify/suite"
)

var kolkata = time.FixedZone("IST", 5*60*60+30*60)

type AllocatorSuite struct {
	suite.Suite
	ctx    context.Context
	ledger *testutil.InMemoryLedgerStore
	now    time.Time
	alloc  *Allocator
}

func TestAllocator(t *testing.T) {
	suite.Run(t, new(AllocatorSuite))
}

func (s *AllocatorSuite) SetupTest() {
	s.ctx = testutil.SetupContext()
	s.ledger = testutil.NewInMemoryLedgerStore()
	s.now = time.Date(2025, time.June, 15, 10, 0, 0, 0, kolkata)
	s.alloc = s.newAllocator()
}

func (s *AllocatorSuite) newAllocator(opts ...Option) *Allocator {
	base := []Option{
		WithClock(func() time.Time { return s.now }),
		WithLocation(kolkata),
	}
	return NewAllocator(s.ledger, logger.NewNoopLogger(), append(base, opts...)...)
}

func (s *AllocatorSuite) next(date time.Time) types.InvoiceSerial {
	serial, err := s.alloc.Next(s.ctx, date)
	s.Require().NoError(err)
	return serial
}

func (s *AllocatorSuite) TestNextOnEmptyLedger() {
	serial := s.next(s.now)
	s.Equal("2025-26/000001", serial.String())

	state := s.alloc.State()
	s.Require().NotNil(state.CurrentFiscalYear)
	s.Equal(types.FiscalYear("2025-26"), *state.CurrentFiscalYear)
	s.Equal(int64(1), state.LastIssuedSerial)
	s.Nil(state.OverrideFiscalYear)
}

func (s *AllocatorSuite) TestNextContinuesFromLedgerAfterRestart() {
	s.ledger.InsertExternal("2025-26", 41)

	s.Equal("2025-26/000042", s.next(s.now).String())
	s.Equal("2025-26/000043", s.next(s.now).String())
}

func (s *AllocatorSuite) TestZeroDateUsesClock() {
	s.now = time.Date(2024, time.December, 1, 9, 0, 0, 0, kolkata)
	s.Equal("2024-25/000001", s.next(time.Time{}).String())
}

func (s *AllocatorSuite) TestConcurrentNextIssuesContiguousSerials() {
	const callers = 50
	s.ledger.InsertExternal("2025-26", 100)
	s.ledger.SetLatency(time.Millisecond)

	var (
		mu      sync.Mutex
		serials []int64
		wg      conc.WaitGroup
	)
	for i := 0; i < callers; i++ {
		wg.Go(func() {
			serial, err := s.alloc.Next(s.ctx, s.now)
			s.NoError(err)
			mu.Lock()
			serials = append(serials, serial.Serial)
			mu.Unlock()
		})
	}
	wg.Wait()

	s.Require().Len(serials, callers)
	sort.Slice(serials, func(i, j int) bool { return serials[i] < serials[j] })
	for i, serial := range serials {
		s.Equal(int64(101+i), serial)
	}
	s.Equal(int64(100+callers), s.alloc.State().LastIssuedSerial)
}

func (s *AllocatorSuite) TestLedgerAheadRaisesCounter() {
	s.Equal(int64(1), s.next(s.now).Serial)

	s.ledger.InsertExternal("2025-26", 10)
	s.Equal(int64(11), s.next(s.now).Serial)
}

func (s *AllocatorSuite) TestLedgerBehindNeverLowersCounter() {
	s.next(s.now)
	s.next(s.now)
	s.Equal(int64(3), s.next(s.now).Serial)

	// nothing was appended, the ledger still reports zero
	s.Equal(int64(4), s.next(s.now).Serial)
}

func (s *AllocatorSuite) TestOutOfBandDeletionIsNotReflected() {
	s.ledger.InsertExternal("2025-26", 10)
	s.Equal(int64(11), s.next(s.now).Serial)

	s.ledger.DeleteExternal("2025-26")
	s.Equal(int64(12), s.next(s.now).Serial)
}

func (s *AllocatorSuite) TestFiscalYearSwitchResyncsFromLedger() {
	lastDay := time.Date(2026, time.March, 31, 23, 59, 0, 0, kolkata)
	firstDay := time.Date(2026, time.April, 1, 0, 0, 0, 0, kolkata)

	s.Equal("2025-26/000001", s.next(lastDay).String())
	s.Equal("2025-26/000002", s.next(lastDay).String())

	s.Equal("2026-27/000001", s.next(firstDay).String())

	// going back discards the cached counter and trusts only the ledger
	s.ledger.InsertExternal("2025-26", 7)
	s.Equal("2025-26/000008", s.next(lastDay).String())
}

func (s *AllocatorSuite) TestFiscalYearDerivedInBusinessTimezone() {
	// 20:00 UTC on Mar 31 is already Apr 1 in India
	date := time.Date(2026, time.March, 31, 20, 0, 0, 0, time.UTC)
	s.Equal(types.FiscalYear("2026-27"), s.next(date).FiscalYear)
}

func (s *AllocatorSuite) TestLedgerFailureFailsClosed() {
	s.Equal(int64(1), s.next(s.now).Serial)
	before := s.alloc.State()

	s.ledger.SetReadError(errors.New("sheet read timed out"))
	_, err := s.alloc.Next(s.ctx, s.now)
	s.Require().Error(err)
	s.True(ierr.IsLedgerUnavailable(err))
	s.Equal(before, s.alloc.State())

	s.ledger.SetReadError(nil)
	s.Equal(int64(2), s.next(s.now).Serial)
}

func (s *AllocatorSuite) TestLedgerFailureOnFirstCallLeavesStateEmpty() {
	s.ledger.SetReadError(errors.New("connection refused"))

	_, err := s.alloc.Next(s.ctx, s.now)
	s.True(ierr.IsLedgerUnavailable(err))

	state := s.alloc.State()
	s.Nil(state.CurrentFiscalYear)
	s.Zero(state.LastIssuedSerial)
}

func (s *AllocatorSuite) TestLedgerTimeoutLeavesStateUnchanged() {
	s.alloc = s.newAllocator(WithLedgerTimeout(5 * time.Millisecond))
	s.Equal(int64(1), s.next(s.now).Serial)
	before := s.alloc.State()

	s.ledger.SetLatency(200 * time.Millisecond)
	_, err := s.alloc.Next(s.ctx, s.now)
	s.True(ierr.IsLedgerUnavailable(err))
	s.Equal(before, s.alloc.State())
}

func (s *AllocatorSuite) TestOverrideFiscalYearPinsAllocation() {
	s.ledger.InsertExternal("2023-24", 99)

	s.Require().NoError(s.alloc.SetOverrideFiscalYear(s.ctx, "2023-24"))

	state := s.alloc.State()
	s.Require().NotNil(state.OverrideFiscalYear)
	s.Equal(types.FiscalYear("2023-24"), *state.OverrideFiscalYear)
	s.Equal(int64(99), state.LastIssuedSerial)

	s.Equal("2023-24/000100", s.next(s.now).String())
	s.Equal("2023-24/000101", s.next(time.Date(2030, time.January, 1, 0, 0, 0, 0, kolkata)).String())
}

func (s *AllocatorSuite) TestOverrideRejectsMalformedFiscalYear() {
	err := s.alloc.SetOverrideFiscalYear(s.ctx, "2023-25")
	s.True(ierr.IsValidation(err))
	s.Nil(s.alloc.State().OverrideFiscalYear)
}

func (s *AllocatorSuite) TestOverrideLedgerFailureKeepsState() {
	s.ledger.SetReadError(errors.New("unavailable"))

	err := s.alloc.SetOverrideFiscalYear(s.ctx, "2023-24")
	s.True(ierr.IsLedgerUnavailable(err))
	s.Nil(s.alloc.State().OverrideFiscalYear)
}

func (s *AllocatorSuite) TestSetNextSerial() {
	s.ledger.InsertExternal("2025-26", 10)

	s.Require().NoError(s.alloc.SetNextSerial(s.ctx, 11))
	s.Equal(int64(11), s.next(s.now).Serial)

	s.Require().NoError(s.alloc.SetNextSerial(s.ctx, 100))
	s.Equal(int64(100), s.next(s.now).Serial)
}

func (s *AllocatorSuite) TestSetNextSerialRejectsRegression() {
	s.ledger.InsertExternal("2025-26", 10)

	err := s.alloc.SetNextSerial(s.ctx, 5)
	s.Require().Error(err)
	s.True(ierr.IsSequenceRegression(err))

	s.Equal(int64(11), s.next(s.now).Serial)
}

func (s *AllocatorSuite) TestSetNextSerialRejectsBelowLocallyIssued() {
	s.next(s.now)
	s.next(s.now)
	s.next(s.now)

	err := s.alloc.SetNextSerial(s.ctx, 2)
	s.True(ierr.IsSequenceRegression(err))
	s.Equal(int64(3), s.alloc.State().LastIssuedSerial)
}

func (s *AllocatorSuite) TestSetNextSerialValidatesInput() {
	for _, n := range []int64{0, -4} {
		err := s.alloc.SetNextSerial(s.ctx, n)
		s.True(ierr.IsValidation(err), "n=%d", n)
	}
	s.Zero(s.ledger.MaxSerialCalls())
}

func (s *AllocatorSuite) TestResetClearsOverride() {
	s.Require().NoError(s.alloc.SetOverrideFiscalYear(s.ctx, "2023-24"))
	s.next(s.now)

	s.ledger.InsertExternal("2025-26", 3)
	s.Require().NoError(s.alloc.Reset(s.ctx))

	state := s.alloc.State()
	s.Nil(state.OverrideFiscalYear)
	s.Require().NotNil(state.CurrentFiscalYear)
	s.Equal(types.FiscalYear("2025-26"), *state.CurrentFiscalYear)
	s.Equal(int64(3), state.LastIssuedSerial)

	s.Equal("2025-26/000004", s.next(s.now).String())
}

func (s *AllocatorSuite) TestResetLedgerFailureKeepsOverride() {
	s.Require().NoError(s.alloc.SetOverrideFiscalYear(s.ctx, "2023-24"))
	s.ledger.SetReadError(errors.New("unavailable"))

	s.True(ierr.IsLedgerUnavailable(s.alloc.Reset(s.ctx)))
	s.NotNil(s.alloc.State().OverrideFiscalYear)
}

func (s *AllocatorSuite) TestPeekNextDoesNotConsume() {
	s.ledger.InsertExternal("2025-26", 4)

	peek, err := s.alloc.PeekNext(s.ctx, s.now)
	s.Require().NoError(err)
	s.Equal("2025-26/000005", peek.String())

	peek, err = s.alloc.PeekNext(s.ctx, s.now)
	s.Require().NoError(err)
	s.Equal(int64(5), peek.Serial)
	s.Nil(s.alloc.State().CurrentFiscalYear)

	s.Equal(int64(5), s.next(s.now).Serial)
}

func (s *AllocatorSuite) TestPeekNextSeesLocalIssuance() {
	s.next(s.now)
	s.next(s.now)

	peek, err := s.alloc.PeekNext(s.ctx, s.now)
	s.Require().NoError(err)
	s.Equal(int64(3), peek.Serial)
}

func (s *AllocatorSuite) TestPeekNextFailsWhenLedgerDown() {
	s.ledger.SetReadError(errors.New("unavailable"))
	_, err := s.alloc.PeekNext(s.ctx, s.now)
	s.True(ierr.IsLedgerUnavailable(err))
}

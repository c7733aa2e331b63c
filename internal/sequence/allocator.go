// Package sequence issues fiscal-year scoped invoice serials.
//
// The ledger is the system of record; the allocator keeps an in-memory
// counter as an optimistic cache that is reconciled against the issued
// serials (see IssuedSerials) on every allocation. Reconciliation and increment happen under one mutex so
// that no two callers can observe the same counter value. The mutex is held
// across the ledger query, which serializes finalization throughput.
//
// A failed reconciliation leaves the state exactly as it was: the counter
// only moves after the ledger answered, and it only moves when a serial is
// returned to the caller (or an administrative operation succeeded).
package sequence

import (
	"context"
	"sync"
	"time"

	"github.com/flexprice/posbilling/internal/domain/ledger"
	ierr "github.com/flexprice/posbilling/internal/errors"
	"github.com/flexprice/posbilling/internal/logger"
	"github.com/flexprice/posbilling/internal/types"
)

// State is a snapshot of the allocator's counter
type State struct {
	CurrentFiscalYear  *types.FiscalYear `json:"current_fiscal_year"`
	LastIssuedSerial   int64             `json:"last_issued_serial"`
	OverrideFiscalYear *types.FiscalYear `json:"override_fiscal_year"`
}

func (s State) copy() State {
	out := State{LastIssuedSerial: s.LastIssuedSerial}
	if s.CurrentFiscalYear != nil {
		fy := *s.CurrentFiscalYear
		out.CurrentFiscalYear = &fy
	}
	if s.OverrideFiscalYear != nil {
		fy := *s.OverrideFiscalYear
		out.OverrideFiscalYear = &fy
	}
	return out
}

// Allocator hands out invoice serials. Construct one per process and share
// it by pointer.
type Allocator struct {
	mu      sync.Mutex
	ledger  ledger.SerialReader
	logger  *logger.Logger
	now     func() time.Time
	loc     *time.Location
	timeout time.Duration
	state   State
}

// Option configures an Allocator
type Option func(*Allocator)

// WithClock replaces the wall clock
func WithClock(now func() time.Time) Option {
	return func(a *Allocator) {
		a.now = now
	}
}

// WithLocation sets the business timezone fiscal years are derived in
func WithLocation(loc *time.Location) Option {
	return func(a *Allocator) {
		if loc != nil {
			a.loc = loc
		}
	}
}

// WithLedgerTimeout bounds each reconciliation query
func WithLedgerTimeout(d time.Duration) Option {
	return func(a *Allocator) {
		a.timeout = d
	}
}

// NewAllocator creates an allocator with an empty cache. The first call
// syncs from the ledger.
func NewAllocator(reader ledger.SerialReader, log *logger.Logger, opts ...Option) *Allocator {
	a := &Allocator{
		ledger: reader,
		logger: log,
		now:    time.Now,
		loc:    time.UTC,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Next issues the next serial for the fiscal year of date, or for the
// override year when one is pinned. A zero date means now.
func (a *Allocator) Next(ctx context.Context, date time.Time) (types.InvoiceSerial, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	fy := a.targetFiscalYear(date)
	last, err := a.reconcile(ctx, fy)
	if err != nil {
		return types.InvoiceSerial{}, err
	}

	next := last + 1
	a.state.CurrentFiscalYear = &fy
	a.state.LastIssuedSerial = next

	a.logger.Debugw("issued invoice serial",
		"fiscal_year", fy,
		"serial", next,
	)
	return types.NewInvoiceSerial(fy, next), nil
}

// PeekNext previews what Next would return for date without changing any
// state. The result is not reserved; a concurrent Next may take it.
func (a *Allocator) PeekNext(ctx context.Context, date time.Time) (types.InvoiceSerial, error) {
	a.mu.Lock()
	fy := a.targetFiscalYear(date)
	snapshot := a.state.copy()
	a.mu.Unlock()

	max, err := a.ledgerMax(ctx, fy)
	if err != nil {
		return types.InvoiceSerial{}, err
	}

	last := max
	if snapshot.CurrentFiscalYear != nil && *snapshot.CurrentFiscalYear == fy && snapshot.LastIssuedSerial > max {
		last = snapshot.LastIssuedSerial
	}
	return types.NewInvoiceSerial(fy, last+1), nil
}

// SetOverrideFiscalYear pins every allocation to fy regardless of the date
// and resyncs the counter for that year.
func (a *Allocator) SetOverrideFiscalYear(ctx context.Context, fy types.FiscalYear) error {
	if err := fy.Validate(); err != nil {
		return err
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	last, err := a.reconcile(ctx, fy)
	if err != nil {
		return err
	}

	a.state.OverrideFiscalYear = &fy
	a.state.CurrentFiscalYear = &fy
	a.state.LastIssuedSerial = last

	a.logger.Infow("pinned fiscal year override",
		"fiscal_year", fy,
		"last_issued_serial", last,
	)
	return nil
}

// SetNextSerial forces the next issued serial to be n. The counter is
// resynced first and n may not go below a serial that was already issued.
func (a *Allocator) SetNextSerial(ctx context.Context, n int64) error {
	if n < 1 {
		return ierr.NewError("next serial must be at least 1").
			WithHint("Next serial must be a positive number").
			WithReportableDetails(map[string]any{
				"next_serial": n,
			}).
			Mark(ierr.ErrValidation)
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	fy := a.targetFiscalYear(time.Time{})
	last, err := a.reconcile(ctx, fy)
	if err != nil {
		return err
	}

	if n-1 < last {
		return ierr.NewErrorf("next serial %d is below issued serial %d", n, last).
			WithHintf("Next serial for %s must be at least %d", fy, last+1).
			WithReportableDetails(map[string]any{
				"fiscal_year":        fy,
				"requested_serial":   n,
				"minimum_serial":     last + 1,
				"last_issued_serial": last,
			}).
			Mark(ierr.ErrSequenceRegression)
	}

	a.state.CurrentFiscalYear = &fy
	a.state.LastIssuedSerial = n - 1

	a.logger.Infow("next invoice serial set",
		"fiscal_year", fy,
		"next_serial", n,
		"previous_last_issued", last,
	)
	return nil
}

// Reset clears the override, derives the fiscal year from the wall clock
// and resyncs the counter from the ledger.
func (a *Allocator) Reset(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	fy := a.WallClockFiscalYear()
	last, err := a.reconcile(ctx, fy)
	if err != nil {
		return err
	}

	a.state.OverrideFiscalYear = nil
	a.state.CurrentFiscalYear = &fy
	a.state.LastIssuedSerial = last

	a.logger.Infow("invoice sequence reset",
		"fiscal_year", fy,
		"last_issued_serial", last,
	)
	return nil
}

// State returns a snapshot of the counter
func (a *Allocator) State() State {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state.copy()
}

// WallClockFiscalYear returns the fiscal year the clock is in, ignoring any
// override
func (a *Allocator) WallClockFiscalYear() types.FiscalYear {
	return types.FiscalYearOf(a.now().In(a.loc))
}

// Location returns the timezone fiscal years are derived in
func (a *Allocator) Location() *time.Location {
	return a.loc
}

// targetFiscalYear must be called with mu held
func (a *Allocator) targetFiscalYear(date time.Time) types.FiscalYear {
	if a.state.OverrideFiscalYear != nil {
		return *a.state.OverrideFiscalYear
	}
	if date.IsZero() {
		date = a.now()
	}
	return types.FiscalYearOf(date.In(a.loc))
}

// reconcile returns the counter value for fy after consulting the ledger.
// It does not mutate state; callers commit the result. Must be called with
// mu held.
//
// On a fiscal year switch the cached counter is discarded and replaced by
// the ledger's maximum. Within the same year the counter is only ever
// raised: serials issued locally but not yet visible in the ledger must
// not be handed out twice.
func (a *Allocator) reconcile(ctx context.Context, fy types.FiscalYear) (int64, error) {
	max, err := a.ledgerMax(ctx, fy)
	if err != nil {
		return 0, err
	}

	if a.state.CurrentFiscalYear == nil || *a.state.CurrentFiscalYear != fy {
		if a.state.CurrentFiscalYear != nil {
			a.logger.Infow("fiscal year switched, counter resynced from ledger",
				"from_fiscal_year", *a.state.CurrentFiscalYear,
				"to_fiscal_year", fy,
				"ledger_max_serial", max,
			)
		}
		return max, nil
	}

	if max > a.state.LastIssuedSerial {
		a.logger.Infow("ledger ahead of local counter, raising",
			"fiscal_year", fy,
			"local_last_issued", a.state.LastIssuedSerial,
			"ledger_max_serial", max,
		)
		return max, nil
	}
	return a.state.LastIssuedSerial, nil
}

func (a *Allocator) ledgerMax(ctx context.Context, fy types.FiscalYear) (int64, error) {
	if a.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.timeout)
		defer cancel()
	}

	max, err := a.ledger.MaxSerial(ctx, fy)
	if err != nil {
		a.logger.Errorw("ledger reconciliation failed",
			"fiscal_year", fy,
			"error", err,
		)
		return 0, ierr.WithError(err).
			WithHint("The ledger could not be reached to reserve an invoice number, please retry").
			WithReportableDetails(map[string]any{
				"fiscal_year": fy,
			}).
			Mark(ierr.ErrLedgerUnavailable)
	}
	if max < 0 {
		return 0, ierr.NewErrorf("ledger reported negative max serial %d", max).
			WithHint("The ledger returned an invalid invoice serial").
			Mark(ierr.ErrSystem)
	}
	return max, nil
}

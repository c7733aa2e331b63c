package testutil

import (
	"context"
	"sync"
	"time"

	"github.com/flexprice/posbilling/internal/domain/ledger"
	ierr "github.com/flexprice/posbilling/internal/errors"
	"github.com/flexprice/posbilling/internal/types"
)

// InMemoryLedgerStore implements ledger.Repository. Failures and latency can
// be injected to exercise callers against an unreliable ledger.
type InMemoryLedgerStore struct {
	mu      sync.RWMutex
	entries map[string]*ledger.Entry
	// serials inserted out of band, keyed by fiscal year
	external map[types.FiscalYear]int64

	readErr    error
	appendErr  error
	latency    time.Duration
	maxCalls   int
	appendCall int
}

var _ ledger.Repository = (*InMemoryLedgerStore)(nil)

func NewInMemoryLedgerStore() *InMemoryLedgerStore {
	return &InMemoryLedgerStore{
		entries:  make(map[string]*ledger.Entry),
		external: make(map[types.FiscalYear]int64),
	}
}

func (s *InMemoryLedgerStore) MaxSerial(ctx context.Context, fy types.FiscalYear) (int64, error) {
	s.mu.Lock()
	s.maxCalls++
	latency := s.latency
	readErr := s.readErr
	s.mu.Unlock()

	if latency > 0 {
		select {
		case <-time.After(latency):
		case <-ctx.Done():
			return 0, ctx.Err()
		}
	}
	if readErr != nil {
		return 0, readErr
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	max := s.external[fy]
	for _, e := range s.entries {
		if e.FiscalYear == fy && e.Serial > max {
			max = e.Serial
		}
	}
	return max, nil
}

func (s *InMemoryLedgerStore) AppendFinalizedInvoice(ctx context.Context, entry *ledger.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.appendCall++
	if s.appendErr != nil {
		return s.appendErr
	}

	if _, ok := s.entries[entry.IdempotencyKey]; ok {
		return nil
	}
	for _, e := range s.entries {
		if e.FiscalYear == entry.FiscalYear && e.Serial == entry.Serial {
			return ierr.NewErrorf("invoice number %s already in ledger", entry.InvoiceNumber).
				WithHint("Invoice number already exists in the ledger").
				Mark(ierr.ErrAlreadyExists)
		}
	}

	c := *entry
	s.entries[entry.IdempotencyKey] = &c
	return nil
}

// SetReadError makes MaxSerial fail with err until cleared with nil
func (s *InMemoryLedgerStore) SetReadError(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.readErr = err
}

// SetAppendError makes appends fail with err until cleared with nil
func (s *InMemoryLedgerStore) SetAppendError(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.appendErr = err
}

// SetLatency delays every MaxSerial call
func (s *InMemoryLedgerStore) SetLatency(d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.latency = d
}

// InsertExternal simulates a row written by another process
func (s *InMemoryLedgerStore) InsertExternal(fy types.FiscalYear, serial int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if serial > s.external[fy] {
		s.external[fy] = serial
	}
}

// DeleteExternal simulates rows removed out of band
func (s *InMemoryLedgerStore) DeleteExternal(fy types.FiscalYear) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.external, fy)
	for k, e := range s.entries {
		if e.FiscalYear == fy {
			delete(s.entries, k)
		}
	}
}

// Entries returns a copy of every appended entry
func (s *InMemoryLedgerStore) Entries() []*ledger.Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*ledger.Entry, 0, len(s.entries))
	for _, e := range s.entries {
		c := *e
		out = append(out, &c)
	}
	return out
}

// EntryForBill returns the entry appended for a bill, if any
func (s *InMemoryLedgerStore) EntryForBill(billID string) (*ledger.Entry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, e := range s.entries {
		if e.BillID == billID {
			c := *e
			return &c, true
		}
	}
	return nil, false
}

// MaxSerialCalls returns how many reconciliation queries were made
func (s *InMemoryLedgerStore) MaxSerialCalls() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.maxCalls
}

// AppendCalls returns how many appends were attempted
func (s *InMemoryLedgerStore) AppendCalls() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.appendCall
}

func (s *InMemoryLedgerStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = make(map[string]*ledger.Entry)
	s.external = make(map[types.FiscalYear]int64)
	s.readErr = nil
	s.appendErr = nil
	s.latency = 0
	s.maxCalls = 0
	s.appendCall = 0
}

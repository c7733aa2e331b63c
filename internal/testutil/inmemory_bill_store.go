package testutil

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/flexprice/posbilling/internal/domain/bill"
	ierr "github.com/flexprice/posbilling/internal/errors"
	"github.com/flexprice/posbilling/internal/types"
	"github.com/samber/lo"
)

// InMemoryBillStore implements bill.Repository
type InMemoryBillStore struct {
	*InMemoryStore[*bill.Bill]
	// serializes the read-compare-write of optimistic updates
	writeMu sync.Mutex
}

var _ bill.Repository = (*InMemoryBillStore)(nil)

func NewInMemoryBillStore() *InMemoryBillStore {
	return &InMemoryBillStore{
		InMemoryStore: NewInMemoryStore[*bill.Bill](),
	}
}

func billFilterFn(ctx context.Context, b *bill.Bill, filter any) bool {
	f, ok := filter.(*types.BillFilter)
	if !ok || f == nil {
		return true
	}
	if len(f.Status) > 0 && !lo.Contains(f.Status, b.Status) {
		return false
	}
	if f.FiscalYear != "" {
		if b.InvoiceSerial == nil || b.InvoiceSerial.FiscalYear != f.FiscalYear {
			return false
		}
	}
	return true
}

func billSortFn(i, j *bill.Bill) bool {
	if i.CreatedAt.Equal(j.CreatedAt) {
		return i.ID > j.ID
	}
	return i.CreatedAt.After(j.CreatedAt)
}

func (s *InMemoryBillStore) Create(ctx context.Context, b *bill.Bill) error {
	if b == nil {
		return ierr.NewError("bill cannot be nil").Mark(ierr.ErrValidation)
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if err := s.checkSerialUnique(ctx, b); err != nil {
		return err
	}
	return s.InMemoryStore.Create(ctx, b.ID, b.Copy())
}

func (s *InMemoryBillStore) Get(ctx context.Context, id string) (*bill.Bill, error) {
	b, err := s.InMemoryStore.Get(ctx, id)
	if err != nil {
		return nil, ierr.WithError(err).
			WithHintf("Bill %s not found", id).
			Mark(ierr.ErrNotFound)
	}
	return b.Copy(), nil
}

func (s *InMemoryBillStore) Update(ctx context.Context, b *bill.Bill) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	current, err := s.InMemoryStore.Get(ctx, b.ID)
	if err != nil {
		return ierr.WithError(err).
			WithHintf("Bill %s not found", b.ID).
			Mark(ierr.ErrNotFound)
	}
	if current.Version != b.Version {
		return ierr.NewErrorf("bill %s version %d is stale, current is %d", b.ID, b.Version, current.Version).
			WithHint("Bill was changed by another request, reload and retry").
			Mark(ierr.ErrVersionConflict)
	}

	if err := s.checkSerialUnique(ctx, b); err != nil {
		return err
	}

	b.Version++
	b.UpdatedAt = time.Now().UTC()
	b.UpdatedBy = types.GetUserID(ctx)
	return s.InMemoryStore.Update(ctx, b.ID, b.Copy())
}

func (s *InMemoryBillStore) List(ctx context.Context, filter *types.BillFilter) ([]*bill.Bill, error) {
	items, err := s.InMemoryStore.List(ctx, filter, billFilterFn, billSortFn)
	if err != nil {
		return nil, err
	}
	return lo.Map(items, func(b *bill.Bill, _ int) *bill.Bill {
		return b.Copy()
	}), nil
}

func (s *InMemoryBillStore) Count(ctx context.Context, filter *types.BillFilter) (int, error) {
	return s.InMemoryStore.Count(ctx, filter, billFilterFn)
}

func (s *InMemoryBillStore) MaxSerial(ctx context.Context, fy types.FiscalYear) (int64, error) {
	items, err := s.issued(ctx, fy)
	if err != nil {
		return 0, err
	}
	var max int64
	for _, b := range items {
		if b.InvoiceSerial.Serial > max {
			max = b.InvoiceSerial.Serial
		}
	}
	return max, nil
}

func (s *InMemoryBillStore) ListIssued(ctx context.Context, fy types.FiscalYear, afterSerial int64, limit int) ([]*bill.Bill, error) {
	items, err := s.issued(ctx, fy)
	if err != nil {
		return nil, err
	}

	items = lo.Filter(items, func(b *bill.Bill, _ int) bool {
		return b.InvoiceSerial.Serial > afterSerial
	})
	sort.Slice(items, func(i, j int) bool {
		return items[i].InvoiceSerial.Serial < items[j].InvoiceSerial.Serial
	})
	if len(items) > limit {
		items = items[:limit]
	}
	return lo.Map(items, func(b *bill.Bill, _ int) *bill.Bill {
		return b.Copy()
	}), nil
}

func (s *InMemoryBillStore) issued(ctx context.Context, fy types.FiscalYear) ([]*bill.Bill, error) {
	return s.InMemoryStore.List(ctx, nil, func(_ context.Context, b *bill.Bill, _ any) bool {
		return b.InvoiceSerial != nil && b.InvoiceSerial.FiscalYear == fy
	}, nil)
}

// checkSerialUnique mirrors the UNIQUE (fiscal_year, serial) constraint of
// the bills table. Must be called with writeMu held.
func (s *InMemoryBillStore) checkSerialUnique(ctx context.Context, b *bill.Bill) error {
	if b.InvoiceSerial == nil {
		return nil
	}
	items, err := s.issued(ctx, b.InvoiceSerial.FiscalYear)
	if err != nil {
		return err
	}
	for _, other := range items {
		if other.ID != b.ID && other.InvoiceSerial.Serial == b.InvoiceSerial.Serial {
			return ierr.NewErrorf("invoice number %s already assigned to bill %s", b.InvoiceNumber(), other.ID).
				WithHintf("Invoice number %s is already assigned to another bill", b.InvoiceNumber()).
				WithReportableDetails(map[string]any{
					"bill_id":        b.ID,
					"invoice_number": b.InvoiceNumber(),
				}).
				Mark(ierr.ErrAlreadyExists)
		}
	}
	return nil
}

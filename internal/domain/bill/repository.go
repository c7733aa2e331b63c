package bill

import (
	"context"

	"github.com/flexprice/posbilling/internal/types"
)

// Repository defines the interface for bill persistence operations
type Repository interface {
	// Create stores a new bill
	Create(ctx context.Context, b *Bill) error

	// Get retrieves a bill by ID
	Get(ctx context.Context, id string) (*Bill, error)

	// Update stores b if the persisted version equals b.Version and bumps
	// the version on success
	Update(ctx context.Context, b *Bill) error

	// List retrieves bills matching the filter, newest first
	List(ctx context.Context, filter *types.BillFilter) ([]*Bill, error)

	// Count returns the number of bills matching the filter
	Count(ctx context.Context, filter *types.BillFilter) (int, error)

	// MaxSerial returns the highest invoice serial assigned to a bill in
	// the fiscal year, or 0 when none was assigned
	MaxSerial(ctx context.Context, fy types.FiscalYear) (int64, error)

	// ListIssued returns up to limit bills of the fiscal year holding a
	// serial greater than afterSerial, in serial order
	ListIssued(ctx context.Context, fy types.FiscalYear, afterSerial int64, limit int) ([]*Bill, error)
}

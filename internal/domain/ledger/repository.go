package ledger

import (
	"context"

	"github.com/flexprice/posbilling/internal/types"
)

// SerialReader is the part of the ledger the sequence allocator depends on
type SerialReader interface {
	// MaxSerial returns the highest serial persisted for the fiscal year,
	// or 0 when the year has no invoices yet
	MaxSerial(ctx context.Context, fy types.FiscalYear) (int64, error)
}

// Writer appends finalized invoices to the ledger
type Writer interface {
	// AppendFinalizedInvoice durably appends an entry. Appends are
	// at-least-once: repeating an entry with the same idempotency key is
	// a no-op.
	AppendFinalizedInvoice(ctx context.Context, entry *Entry) error
}

// Repository is the ledger, the system of record for finalized invoices
type Repository interface {
	SerialReader
	Writer
}

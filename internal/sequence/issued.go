package sequence

import (
	"context"

	"github.com/flexprice/posbilling/internal/domain/ledger"
	"github.com/flexprice/posbilling/internal/types"
)

// IssuedSerials reports the highest serial issued for a fiscal year. Bills
// carry their serial before the asynchronous ledger append lands, so the
// bills table is read next to the ledger and the larger value wins.
type IssuedSerials struct {
	ledger ledger.SerialReader
	bills  ledger.SerialReader
}

var _ ledger.SerialReader = (*IssuedSerials)(nil)

func NewIssuedSerials(ledgerReader, billReader ledger.SerialReader) *IssuedSerials {
	return &IssuedSerials{
		ledger: ledgerReader,
		bills:  billReader,
	}
}

// MaxSerial fails when either source fails
func (r *IssuedSerials) MaxSerial(ctx context.Context, fy types.FiscalYear) (int64, error) {
	ledgerMax, err := r.ledger.MaxSerial(ctx, fy)
	if err != nil {
		return 0, err
	}
	billMax, err := r.bills.MaxSerial(ctx, fy)
	if err != nil {
		return 0, err
	}
	return max(ledgerMax, billMax), nil
}

package ledger

import (
	"time"

	"github.com/flexprice/posbilling/internal/domain/bill"
	ierr "github.com/flexprice/posbilling/internal/errors"
	"github.com/flexprice/posbilling/internal/types"
	"github.com/shopspring/decimal"
)

// Entry is one finalized invoice row in the ledger
type Entry struct {
	ID             string             `db:"id" json:"id"`
	IdempotencyKey string             `db:"idempotency_key" json:"idempotency_key"`
	BillID         string             `db:"bill_id" json:"bill_id"`
	InvoiceNumber  string             `db:"invoice_number" json:"invoice_number"`
	FiscalYear     types.FiscalYear   `db:"fiscal_year" json:"fiscal_year"`
	Serial         int64              `db:"serial" json:"serial"`
	TaxKind        types.TaxSplitKind `db:"tax_kind" json:"tax_kind"`
	Subtotal       decimal.Decimal    `db:"subtotal" json:"subtotal"`
	Discount       decimal.Decimal    `db:"discount" json:"discount"`
	TaxableBase    decimal.Decimal    `db:"taxable_base" json:"taxable_base"`
	TaxRate        decimal.Decimal    `db:"tax_rate" json:"tax_rate"`
	CGST           decimal.Decimal    `db:"cgst" json:"cgst"`
	SGST           decimal.Decimal    `db:"sgst" json:"sgst"`
	IGST           decimal.Decimal    `db:"igst" json:"igst"`
	RoundOff       decimal.Decimal    `db:"round_off" json:"round_off"`
	GrandTotal     decimal.Decimal    `db:"grand_total" json:"grand_total"`
	FinalizedAt    time.Time          `db:"finalized_at" json:"finalized_at"`
	CreatedAt      time.Time          `db:"created_at" json:"created_at"`
}

// NewEntry builds the ledger row of a finalized bill
func NewEntry(b *bill.Bill, idempotencyKey string) (*Entry, error) {
	if b.InvoiceSerial == nil || b.FinalizedAt == nil {
		return nil, ierr.NewError("bill has not been finalized").
			WithHint("Only finalized bills can be written to the ledger").
			WithReportableDetails(map[string]any{
				"bill_id": b.ID,
				"status":  b.Status,
			}).
			Mark(ierr.ErrInvalidTransition)
	}

	return &Entry{
		ID:             types.GenerateUUIDWithPrefix(types.UUID_PREFIX_LEDGER_ENTRY),
		IdempotencyKey: idempotencyKey,
		BillID:         b.ID,
		InvoiceNumber:  b.InvoiceSerial.String(),
		FiscalYear:     b.InvoiceSerial.FiscalYear,
		Serial:         b.InvoiceSerial.Serial,
		TaxKind:        b.Totals.TaxKind(),
		Subtotal:       b.Totals.Subtotal,
		Discount:       b.Totals.Discount,
		TaxableBase:    b.Totals.TaxableBase,
		TaxRate:        b.Totals.TaxRate,
		CGST:           b.Totals.CGST(),
		SGST:           b.Totals.SGST(),
		IGST:           b.Totals.IGST(),
		RoundOff:       b.Totals.RoundOff,
		GrandTotal:     b.Totals.GrandTotal,
		FinalizedAt:    b.FinalizedAt.UTC(),
		CreatedAt:      time.Now().UTC(),
	}, nil
}

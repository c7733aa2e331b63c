package bill

import (
	"strings"
	"time"

	ierr "github.com/flexprice/posbilling/internal/errors"
	"github.com/flexprice/posbilling/internal/types"
	"github.com/shopspring/decimal"
)

// LineItem is one row of a bill. UnitRate is the price of a single unit.
type LineItem struct {
	Name     string          `json:"name"`
	Variant  *string         `json:"variant,omitempty"`
	Quantity int64           `json:"quantity"`
	UnitRate decimal.Decimal `json:"unit_rate"`
}

// Amount returns quantity × unit rate
func (l LineItem) Amount() decimal.Decimal {
	return l.UnitRate.Mul(decimal.NewFromInt(l.Quantity))
}

func (l LineItem) Validate() error {
	if strings.TrimSpace(l.Name) == "" {
		return ierr.NewError("line item name is required").
			WithHint("Every line item needs a name").
			Mark(ierr.ErrValidation)
	}
	if l.Quantity <= 0 {
		return ierr.NewError("line item quantity must be positive").
			WithHint("Quantity must be at least 1").
			WithReportableDetails(map[string]any{
				"name":     l.Name,
				"quantity": l.Quantity,
			}).
			Mark(ierr.ErrValidation)
	}
	if l.UnitRate.IsNegative() {
		return ierr.NewError("line item rate must be non negative").
			WithHint("Rate cannot be negative").
			WithReportableDetails(map[string]any{
				"name":      l.Name,
				"unit_rate": l.UnitRate.String(),
			}).
			Mark(ierr.ErrValidation)
	}
	return nil
}

// Discount combines a flat amount and a percentage of the subtotal
type Discount struct {
	Flat    decimal.Decimal `json:"flat"`
	Percent decimal.Decimal `json:"percent"`
}

func (d Discount) Validate() error {
	if d.Flat.IsNegative() {
		return ierr.NewError("flat discount must be non negative").
			WithHint("Discount amount cannot be negative").
			Mark(ierr.ErrValidation)
	}
	if d.Percent.IsNegative() || d.Percent.GreaterThan(hundred) {
		return ierr.NewError("discount percent out of range").
			WithHint("Discount percent must be between 0 and 100").
			WithReportableDetails(map[string]any{
				"percent": d.Percent.String(),
			}).
			Mark(ierr.ErrValidation)
	}
	return nil
}

// Details are the descriptive fields of a bill; they stay editable until
// the bill is printed.
type Details struct {
	CustomerName  string            `json:"customer_name,omitempty"`
	CustomerPhone string            `json:"customer_phone,omitempty"`
	PaymentMode   types.PaymentMode `json:"payment_mode,omitempty"`
	Notes         string            `json:"notes,omitempty"`
}

func (d Details) Validate() error {
	return d.PaymentMode.Validate()
}

// Bill is a point of sale bill. It is created as a draft, finalized once
// (consuming exactly one invoice serial) and may be voided from either state.
type Bill struct {
	ID            string               `json:"id"`
	ReceiptCode   string               `json:"receipt_code"`
	Status        types.BillStatus     `json:"status"`
	Lines         []LineItem           `json:"lines"`
	Discount      Discount             `json:"discount"`
	InterState    bool                 `json:"inter_state"`
	TaxRate       decimal.Decimal      `json:"tax_rate"`
	Totals        Totals               `json:"totals"`
	InvoiceSerial *types.InvoiceSerial `json:"invoice_serial,omitempty"`
	Details
	FinalizedAt *time.Time `json:"finalized_at,omitempty"`
	PrintedAt   *time.Time `json:"printed_at,omitempty"`
	VoidedAt    *time.Time `json:"voided_at,omitempty"`
	VoidReason  string     `json:"void_reason,omitempty"`
	Version     int        `json:"version"`
	types.BaseModel
}

// IsPrinted reports whether the bill has been handed out on paper
func (b *Bill) IsPrinted() bool {
	return b.PrintedAt != nil
}

// InvoiceNumber returns the rendered invoice number, or empty for drafts
func (b *Bill) InvoiceNumber() string {
	if b.InvoiceSerial == nil {
		return ""
	}
	return b.InvoiceSerial.String()
}

// TotalsInput returns the inputs the totals engine needs for this bill
func (b *Bill) TotalsInput() TotalsInput {
	return TotalsInput{
		Lines:      b.Lines,
		Discount:   b.Discount,
		TaxRate:    b.TaxRate,
		InterState: b.InterState,
	}
}

// Copy returns a deep copy of the bill
func (b *Bill) Copy() *Bill {
	if b == nil {
		return nil
	}
	c := *b
	c.Lines = make([]LineItem, len(b.Lines))
	for i, l := range b.Lines {
		c.Lines[i] = l
		if l.Variant != nil {
			v := *l.Variant
			c.Lines[i].Variant = &v
		}
	}
	if b.InvoiceSerial != nil {
		s := *b.InvoiceSerial
		c.InvoiceSerial = &s
	}
	c.FinalizedAt = copyTime(b.FinalizedAt)
	c.PrintedAt = copyTime(b.PrintedAt)
	c.VoidedAt = copyTime(b.VoidedAt)
	return &c
}

func copyTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}

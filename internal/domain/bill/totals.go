package bill

import (
	"encoding/json"

	ierr "github.com/flexprice/posbilling/internal/errors"
	"github.com/flexprice/posbilling/internal/types"
	"github.com/shopspring/decimal"
)

// MoneyPlaces is the number of minor unit digits kept on every amount
const MoneyPlaces = 2

var (
	hundred = decimal.NewFromInt(100)
	two     = decimal.NewFromInt(2)
)

// TaxSplit is how the tax of a bill is apportioned between levies. It is
// either an IntraStateTax or an InterStateTax.
type TaxSplit interface {
	Kind() types.TaxSplitKind
	Total() decimal.Decimal
	isTaxSplit()
}

// IntraStateTax splits tax evenly between central and state levies
type IntraStateTax struct {
	CGST decimal.Decimal
	SGST decimal.Decimal
}

func (IntraStateTax) Kind() types.TaxSplitKind { return types.TaxSplitIntraState }
func (t IntraStateTax) Total() decimal.Decimal { return t.CGST.Add(t.SGST) }
func (IntraStateTax) isTaxSplit()              {}

// InterStateTax assigns the whole tax to the integrated levy
type InterStateTax struct {
	IGST decimal.Decimal
}

func (InterStateTax) Kind() types.TaxSplitKind { return types.TaxSplitInterState }
func (t InterStateTax) Total() decimal.Decimal { return t.IGST }
func (InterStateTax) isTaxSplit()              {}

// SplitTax apportions tax for the place of supply. For intra-state bills
// SGST is half the tax truncated to minor units and CGST takes the rest, so
// an odd minor unit is never dropped.
func SplitTax(tax decimal.Decimal, interState bool) TaxSplit {
	if interState {
		return InterStateTax{IGST: tax}
	}
	sgst := tax.Div(two).Truncate(MoneyPlaces)
	return IntraStateTax{CGST: tax.Sub(sgst), SGST: sgst}
}

// NewTaxSplit rebuilds a split from persisted columns
func NewTaxSplit(kind types.TaxSplitKind, cgst, sgst, igst decimal.Decimal) TaxSplit {
	if kind == types.TaxSplitInterState {
		return InterStateTax{IGST: igst}
	}
	return IntraStateTax{CGST: cgst, SGST: sgst}
}

// Totals are the computed figures of a bill
type Totals struct {
	Subtotal    decimal.Decimal
	Discount    decimal.Decimal
	TaxableBase decimal.Decimal
	TaxRate     decimal.Decimal
	Tax         TaxSplit
	RoundOff    decimal.Decimal
	GrandTotal  decimal.Decimal
}

// TaxTotal returns the whole tax regardless of split
func (t Totals) TaxTotal() decimal.Decimal {
	if t.Tax == nil {
		return decimal.Zero
	}
	return t.Tax.Total()
}

// CGST returns the central levy, zero for inter-state bills
func (t Totals) CGST() decimal.Decimal {
	if s, ok := t.Tax.(IntraStateTax); ok {
		return s.CGST
	}
	return decimal.Zero
}

// SGST returns the state levy, zero for inter-state bills
func (t Totals) SGST() decimal.Decimal {
	if s, ok := t.Tax.(IntraStateTax); ok {
		return s.SGST
	}
	return decimal.Zero
}

// IGST returns the integrated levy, zero for intra-state bills
func (t Totals) IGST() decimal.Decimal {
	if s, ok := t.Tax.(InterStateTax); ok {
		return s.IGST
	}
	return decimal.Zero
}

// TaxKind returns the split kind, defaulting to intra-state
func (t Totals) TaxKind() types.TaxSplitKind {
	if t.Tax == nil {
		return types.TaxSplitIntraState
	}
	return t.Tax.Kind()
}

type totalsJSON struct {
	Subtotal    decimal.Decimal    `json:"subtotal"`
	Discount    decimal.Decimal    `json:"discount"`
	TaxableBase decimal.Decimal    `json:"taxable_base"`
	TaxRate     decimal.Decimal    `json:"tax_rate"`
	TaxKind     types.TaxSplitKind `json:"tax_kind"`
	Tax         decimal.Decimal    `json:"tax"`
	CGST        *decimal.Decimal   `json:"cgst,omitempty"`
	SGST        *decimal.Decimal   `json:"sgst,omitempty"`
	IGST        *decimal.Decimal   `json:"igst,omitempty"`
	RoundOff    decimal.Decimal    `json:"round_off"`
	GrandTotal  decimal.Decimal    `json:"grand_total"`
}

// MarshalJSON renders only the levies that apply to the split
func (t Totals) MarshalJSON() ([]byte, error) {
	out := totalsJSON{
		Subtotal:    t.Subtotal,
		Discount:    t.Discount,
		TaxableBase: t.TaxableBase,
		TaxRate:     t.TaxRate,
		TaxKind:     t.TaxKind(),
		Tax:         t.TaxTotal(),
		RoundOff:    t.RoundOff,
		GrandTotal:  t.GrandTotal,
	}
	switch s := t.Tax.(type) {
	case IntraStateTax:
		out.CGST, out.SGST = &s.CGST, &s.SGST
	case InterStateTax:
		out.IGST = &s.IGST
	}
	return json.Marshal(out)
}

// UnmarshalJSON restores the tagged split from its rendered form
func (t *Totals) UnmarshalJSON(data []byte) error {
	var in totalsJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	deref := func(d *decimal.Decimal) decimal.Decimal {
		if d == nil {
			return decimal.Zero
		}
		return *d
	}
	*t = Totals{
		Subtotal:    in.Subtotal,
		Discount:    in.Discount,
		TaxableBase: in.TaxableBase,
		TaxRate:     in.TaxRate,
		Tax:         NewTaxSplit(in.TaxKind, deref(in.CGST), deref(in.SGST), deref(in.IGST)),
		RoundOff:    in.RoundOff,
		GrandTotal:  in.GrandTotal,
	}
	return nil
}

// TotalsInput is everything the totals engine needs. TaxRate is a resolved
// percentage in [0, 100].
type TotalsInput struct {
	Lines      []LineItem
	Discount   Discount
	TaxRate    decimal.Decimal
	InterState bool
}

func (in TotalsInput) Validate() error {
	for _, l := range in.Lines {
		if err := l.Validate(); err != nil {
			return err
		}
	}
	if err := in.Discount.Validate(); err != nil {
		return err
	}
	if in.TaxRate.IsNegative() || in.TaxRate.GreaterThan(hundred) {
		return ierr.NewError("tax rate out of range").
			WithHint("Tax rate must be between 0 and 100").
			WithReportableDetails(map[string]any{
				"tax_rate": in.TaxRate.String(),
			}).
			Mark(ierr.ErrValidation)
	}
	return nil
}

// ComputeTotals derives the figures of a bill from its lines. It is a pure
// function: identical inputs always produce identical totals.
//
//	subtotal     = Σ quantity × rate
//	discount     = min(subtotal, flat + subtotal × percent / 100)
//	taxable base = subtotal − discount
//	tax          = taxable base × rate / 100
//	grand total  = taxable base + tax rounded to a whole currency unit
//	round off    = grand total − (taxable base + tax), in (−0.5, 0.5]
func ComputeTotals(in TotalsInput) (*Totals, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	subtotal := decimal.Zero
	for _, l := range in.Lines {
		subtotal = subtotal.Add(l.Amount())
	}
	subtotal = subtotal.Round(MoneyPlaces)

	discount := in.Discount.Flat.
		Add(subtotal.Mul(in.Discount.Percent).Div(hundred)).
		Round(MoneyPlaces)
	if discount.GreaterThan(subtotal) {
		discount = subtotal
	}

	taxableBase := subtotal.Sub(discount)
	tax := taxableBase.Mul(in.TaxRate).Div(hundred).Round(MoneyPlaces)
	grandTotal, roundOff := RoundToCurrencyUnit(taxableBase.Add(tax))

	return &Totals{
		Subtotal:    subtotal,
		Discount:    discount,
		TaxableBase: taxableBase,
		TaxRate:     in.TaxRate,
		Tax:         SplitTax(tax, in.InterState),
		RoundOff:    roundOff,
		GrandTotal:  grandTotal,
	}, nil
}

// RoundToCurrencyUnit rounds an exact amount to a whole currency unit
// (half away from zero) and returns the rounded total and the signed
// adjustment that was applied.
func RoundToCurrencyUnit(exact decimal.Decimal) (decimal.Decimal, decimal.Decimal) {
	rounded := exact.Round(0)
	return rounded, rounded.Sub(exact)
}

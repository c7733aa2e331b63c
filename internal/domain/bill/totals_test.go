package bill

import (
	"encoding/json"
	"testing"

	ierr "github.com/flexprice/posbilling/internal/errors"
	"github.com/flexprice/posbilling/internal/types"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func line(name string, qty int64, rate string) LineItem {
	return LineItem{Name: name, Quantity: qty, UnitRate: dec(rate)}
}

func TestComputeTotals(t *testing.T) {
	tests := []struct {
		name        string
		input       TotalsInput
		subtotal    string
		discount    string
		taxableBase string
		cgst        string
		sgst        string
		igst        string
		roundOff    string
		grandTotal  string
	}{
		{
			name: "intra state splits tax evenly",
			input: TotalsInput{
				Lines:   []LineItem{line("Silk saree", 1, "1000")},
				TaxRate: dec("18"),
			},
			subtotal: "1000.00", discount: "0.00", taxableBase: "1000.00",
			cgst: "90.00", sgst: "90.00", igst: "0.00",
			roundOff: "0.00", grandTotal: "1180.00",
		},
		{
			name: "inter state assigns everything to igst",
			input: TotalsInput{
				Lines:      []LineItem{line("Silk saree", 1, "1000")},
				TaxRate:    dec("18"),
				InterState: true,
			},
			subtotal: "1000.00", discount: "0.00", taxableBase: "1000.00",
			cgst: "0.00", sgst: "0.00", igst: "180.00",
			roundOff: "0.00", grandTotal: "1180.00",
		},
		{
			name: "discount is capped at subtotal",
			input: TotalsInput{
				Lines:    []LineItem{line("Dupatta", 1, "100")},
				Discount: Discount{Flat: dec("150")},
				TaxRate:  dec("18"),
			},
			subtotal: "100.00", discount: "100.00", taxableBase: "0.00",
			cgst: "0.00", sgst: "0.00", igst: "0.00",
			roundOff: "0.00", grandTotal: "0.00",
		},
		{
			name: "flat and percent discounts combine",
			input: TotalsInput{
				Lines:    []LineItem{line("Kurta", 2, "250")},
				Discount: Discount{Flat: dec("20"), Percent: dec("10")},
				TaxRate:  dec("18"),
			},
			subtotal: "500.00", discount: "70.00", taxableBase: "430.00",
			cgst: "38.70", sgst: "38.70", igst: "0.00",
			roundOff: "-0.40", grandTotal: "507.00",
		},
		{
			name: "exact whole total needs no round off",
			input: TotalsInput{
				Lines:   []LineItem{line("Lehenga", 1, "847.46")},
				TaxRate: dec("18"),
			},
			subtotal: "847.46", discount: "0.00", taxableBase: "847.46",
			cgst: "76.27", sgst: "76.27", igst: "0.00",
			roundOff: "0.00", grandTotal: "1000.00",
		},
		{
			name: "fractional total rounds up",
			input: TotalsInput{
				Lines:   []LineItem{line("Lehenga", 1, "847")},
				TaxRate: dec("18.032"),
			},
			subtotal: "847.00", discount: "0.00", taxableBase: "847.00",
			cgst: "76.37", sgst: "76.36", igst: "0.00",
			roundOff: "0.27", grandTotal: "1000.00",
		},
		{
			name: "odd paisa goes to cgst",
			input: TotalsInput{
				Lines:   []LineItem{line("Blouse piece", 1, "100.05")},
				TaxRate: dec("18"),
			},
			subtotal: "100.05", discount: "0.00", taxableBase: "100.05",
			cgst: "9.01", sgst: "9.00", igst: "0.00",
			roundOff: "-0.06", grandTotal: "118.00",
		},
		{
			name: "half rounds away from zero",
			input: TotalsInput{
				Lines:   []LineItem{line("Stole", 1, "100.50")},
				TaxRate: decimal.Zero,
			},
			subtotal: "100.50", discount: "0.00", taxableBase: "100.50",
			cgst: "0.00", sgst: "0.00", igst: "0.00",
			roundOff: "0.50", grandTotal: "101.00",
		},
		{
			name:     "empty bill",
			input:    TotalsInput{TaxRate: dec("18")},
			subtotal: "0.00", discount: "0.00", taxableBase: "0.00",
			cgst: "0.00", sgst: "0.00", igst: "0.00",
			roundOff: "0.00", grandTotal: "0.00",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ComputeTotals(tt.input)
			require.NoError(t, err)

			assert.Equal(t, tt.subtotal, got.Subtotal.StringFixed(2), "subtotal")
			assert.Equal(t, tt.discount, got.Discount.StringFixed(2), "discount")
			assert.Equal(t, tt.taxableBase, got.TaxableBase.StringFixed(2), "taxable base")
			assert.Equal(t, tt.cgst, got.CGST().StringFixed(2), "cgst")
			assert.Equal(t, tt.sgst, got.SGST().StringFixed(2), "sgst")
			assert.Equal(t, tt.igst, got.IGST().StringFixed(2), "igst")
			assert.Equal(t, tt.roundOff, got.RoundOff.StringFixed(2), "round off")
			assert.Equal(t, tt.grandTotal, got.GrandTotal.StringFixed(2), "grand total")
			assert.Equal(t, types.TaxSplitKindFor(tt.input.InterState), got.TaxKind())
		})
	}
}

func TestComputeTotalsInvariants(t *testing.T) {
	inputs := []TotalsInput{
		{Lines: []LineItem{line("A", 3, "33.33")}, TaxRate: dec("5")},
		{Lines: []LineItem{line("A", 7, "19.99"), line("B", 1, "0.01")}, TaxRate: dec("12"), Discount: Discount{Percent: dec("7.5")}},
		{Lines: []LineItem{line("A", 1, "999.99")}, TaxRate: dec("28"), InterState: true},
		{Lines: []LineItem{line("A", 11, "1.11")}, TaxRate: dec("18"), Discount: Discount{Flat: dec("0.37")}},
	}

	half := dec("0.5")
	for _, in := range inputs {
		got, err := ComputeTotals(in)
		require.NoError(t, err)

		assert.True(t, got.Discount.LessThanOrEqual(got.Subtotal))
		assert.True(t, got.TaxableBase.Equal(got.Subtotal.Sub(got.Discount)))
		assert.True(t, got.CGST().Add(got.SGST()).Add(got.IGST()).Equal(got.TaxTotal()))
		assert.True(t, got.RoundOff.GreaterThan(half.Neg()))
		assert.True(t, got.RoundOff.LessThanOrEqual(half))
		assert.True(t, got.GrandTotal.Equal(got.GrandTotal.Round(0)))
		assert.True(t, got.GrandTotal.Equal(got.TaxableBase.Add(got.TaxTotal()).Add(got.RoundOff)))

		again, err := ComputeTotals(in)
		require.NoError(t, err)
		assert.Equal(t, got, again)
	}
}

func TestComputeTotalsValidation(t *testing.T) {
	tests := []struct {
		name  string
		input TotalsInput
	}{
		{"zero quantity", TotalsInput{Lines: []LineItem{line("A", 0, "10")}}},
		{"negative quantity", TotalsInput{Lines: []LineItem{line("A", -1, "10")}}},
		{"negative rate", TotalsInput{Lines: []LineItem{line("A", 1, "-10")}}},
		{"blank name", TotalsInput{Lines: []LineItem{line("  ", 1, "10")}}},
		{"negative flat discount", TotalsInput{Discount: Discount{Flat: dec("-1")}}},
		{"percent above hundred", TotalsInput{Discount: Discount{Percent: dec("100.01")}}},
		{"negative percent", TotalsInput{Discount: Discount{Percent: dec("-5")}}},
		{"tax rate above hundred", TotalsInput{TaxRate: dec("101")}},
		{"negative tax rate", TotalsInput{TaxRate: dec("-18")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ComputeTotals(tt.input)
			assert.Nil(t, got)
			assert.True(t, ierr.IsValidation(err))
		})
	}
}

func TestSplitTax(t *testing.T) {
	intra := SplitTax(dec("0.01"), false)
	require.IsType(t, IntraStateTax{}, intra)
	assert.Equal(t, "0.01", intra.(IntraStateTax).CGST.StringFixed(2))
	assert.Equal(t, "0.00", intra.(IntraStateTax).SGST.StringFixed(2))

	inter := SplitTax(dec("180"), true)
	require.IsType(t, InterStateTax{}, inter)
	assert.Equal(t, types.TaxSplitInterState, inter.Kind())
	assert.True(t, inter.Total().Equal(dec("180")))
}

func TestRoundToCurrencyUnit(t *testing.T) {
	tests := []struct {
		exact, total, adjustment string
	}{
		{"999.73", "1000", "0.27"},
		{"1000.00", "1000", "0"},
		{"507.40", "507", "-0.4"},
		{"100.50", "101", "0.5"},
		{"100.49", "100", "-0.49"},
	}
	for _, tt := range tests {
		total, adjustment := RoundToCurrencyUnit(dec(tt.exact))
		assert.True(t, total.Equal(dec(tt.total)), tt.exact)
		assert.True(t, adjustment.Equal(dec(tt.adjustment)), tt.exact)
	}
}

func TestTotalsJSONRendersApplicableLevies(t *testing.T) {
	intra, err := ComputeTotals(TotalsInput{Lines: []LineItem{line("A", 1, "1000")}, TaxRate: dec("18")})
	require.NoError(t, err)

	raw, err := json.Marshal(intra)
	require.NoError(t, err)

	var fields map[string]any
	require.NoError(t, json.Unmarshal(raw, &fields))
	assert.Contains(t, fields, "cgst")
	assert.Contains(t, fields, "sgst")
	assert.NotContains(t, fields, "igst")
	assert.Equal(t, string(types.TaxSplitIntraState), fields["tax_kind"])

	var decoded Totals
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.IsType(t, IntraStateTax{}, decoded.Tax)
	assert.True(t, decoded.CGST().Equal(dec("90")))
	assert.True(t, decoded.GrandTotal.Equal(dec("1180")))
}

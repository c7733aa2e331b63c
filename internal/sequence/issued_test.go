package sequence

import (
	"errors"
	"testing"

	"github.com/flexprice/posbilling/internal/domain/bill"
	"github.com/flexprice/posbilling/internal/testutil"
	"github.com/flexprice/posbilling/internal/types"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func storeIssuedBill(t *testing.T, bills *testutil.InMemoryBillStore, fy types.FiscalYear, serial int64) {
	ctx := testutil.SetupContext()
	b, err := bill.NewDraft(ctx, bill.DraftParams{
		Lines:   []bill.LineItem{{Name: "Kurta", Quantity: 1, UnitRate: decimal.NewFromInt(800)}},
		TaxRate: decimal.NewFromInt(12),
	})
	require.NoError(t, err)
	totals, err := bill.ComputeTotals(b.TotalsInput())
	require.NoError(t, err)
	require.NoError(t, b.Finalize(types.NewInvoiceSerial(fy, serial), *totals, b.CreatedAt))
	require.NoError(t, bills.Create(ctx, b))
}

func TestIssuedSerialsTakesTheLargerSource(t *testing.T) {
	ctx := testutil.SetupContext()
	ledgerStore := testutil.NewInMemoryLedgerStore()
	bills := testutil.NewInMemoryBillStore()
	reader := NewIssuedSerials(ledgerStore, bills)

	max, err := reader.MaxSerial(ctx, "2025-26")
	require.NoError(t, err)
	require.Zero(t, max)

	ledgerStore.InsertExternal("2025-26", 7)
	storeIssuedBill(t, bills, "2025-26", 3)
	max, err = reader.MaxSerial(ctx, "2025-26")
	require.NoError(t, err)
	require.Equal(t, int64(7), max)

	// finalized but not yet in the ledger
	storeIssuedBill(t, bills, "2025-26", 9)
	storeIssuedBill(t, bills, "2026-27", 40)
	max, err = reader.MaxSerial(ctx, "2025-26")
	require.NoError(t, err)
	require.Equal(t, int64(9), max)
}

func TestIssuedSerialsFailsWithTheLedger(t *testing.T) {
	ctx := testutil.SetupContext()
	ledgerStore := testutil.NewInMemoryLedgerStore()
	bills := testutil.NewInMemoryBillStore()
	storeIssuedBill(t, bills, "2025-26", 3)

	ledgerStore.SetReadError(errors.New("connection refused"))
	_, err := NewIssuedSerials(ledgerStore, bills).MaxSerial(ctx, "2025-26")
	require.Error(t, err)
}

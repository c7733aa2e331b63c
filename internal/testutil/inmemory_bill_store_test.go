package testutil

import (
	"testing"
	"time"

	"github.com/flexprice/posbilling/internal/domain/bill"
	ierr "github.com/flexprice/posbilling/internal/errors"
	"github.com/flexprice/posbilling/internal/types"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestInMemoryBillStoreRejectsDuplicateSerial(t *testing.T) {
	ctx := SetupContext()
	store := NewInMemoryBillStore()

	finalize := func(fy types.FiscalYear, serial int64) error {
		b, err := bill.NewDraft(ctx, bill.DraftParams{
			Lines:   []bill.LineItem{{Name: "Stole", Quantity: 1, UnitRate: decimal.NewFromInt(250)}},
			TaxRate: decimal.NewFromInt(5),
		})
		require.NoError(t, err)
		require.NoError(t, store.Create(ctx, b))

		totals, err := bill.ComputeTotals(b.TotalsInput())
		require.NoError(t, err)
		require.NoError(t, b.Finalize(types.NewInvoiceSerial(fy, serial), *totals, time.Now().UTC()))
		return store.Update(ctx, b)
	}

	require.NoError(t, finalize("2025-26", 1))
	require.NoError(t, finalize("2026-27", 1))

	err := finalize("2025-26", 1)
	require.True(t, ierr.IsAlreadyExists(err))

	max, err := store.MaxSerial(ctx, "2025-26")
	require.NoError(t, err)
	require.Equal(t, int64(1), max)
}

package sqldb

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/flexprice/posbilling/internal/config"
	"github.com/flexprice/posbilling/internal/database"
	"github.com/flexprice/posbilling/internal/domain/bill"
	"github.com/flexprice/posbilling/internal/domain/ledger"
	ierr "github.com/flexprice/posbilling/internal/errors"
	"github.com/flexprice/posbilling/internal/logger"
	"github.com/flexprice/posbilling/internal/testutil"
	"github.com/flexprice/posbilling/internal/types"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
)

type RepositorySuite struct {
	suite.Suite
	ctx     context.Context
	db      *database.DB
	bills   bill.Repository
	ledger  ledger.Repository
	now     time.Time
	taxRate decimal.Decimal
}

func TestRepositories(t *testing.T) {
	suite.Run(t, new(RepositorySuite))
}

func (s *RepositorySuite) SetupTest() {
	s.ctx = testutil.SetupContext()
	s.now = time.Date(2025, time.May, 5, 10, 30, 0, 0, time.UTC)
	s.taxRate = decimal.NewFromInt(18)

	cfg := config.GetDefaultConfig()
	cfg.Database.Path = filepath.Join(s.T().TempDir(), "repo.db")

	log := logger.NewNoopLogger()
	db, err := database.NewDB(cfg, log)
	s.Require().NoError(err)
	s.Require().NoError(db.Migrate(s.ctx))

	s.db = db
	s.bills = NewBillRepository(db, log)
	s.ledger = NewLedgerRepository(db, log)
}

func (s *RepositorySuite) TearDownTest() {
	s.NoError(s.db.Close())
}

func (s *RepositorySuite) newDraft(lines ...bill.LineItem) *bill.Bill {
	b, err := bill.NewDraft(s.ctx, bill.DraftParams{
		Lines:   lines,
		TaxRate: s.taxRate,
		Details: bill.Details{CustomerName: "Ravi", PaymentMode: types.PaymentModeCard},
	})
	s.Require().NoError(err)
	s.Require().NoError(s.bills.Create(s.ctx, b))
	return b
}

func (s *RepositorySuite) finalize(b *bill.Bill, fy types.FiscalYear, serial int64) {
	totals, err := bill.ComputeTotals(b.TotalsInput())
	s.Require().NoError(err)
	s.Require().NoError(b.Finalize(types.NewInvoiceSerial(fy, serial), *totals, s.now))
	s.Require().NoError(s.bills.Update(s.ctx, b))
}

func saree() bill.LineItem {
	return bill.LineItem{
		Name:     "Silk saree",
		Variant:  lo.ToPtr("maroon"),
		Quantity: 2,
		UnitRate: decimal.RequireFromString("1499.50"),
	}
}

func (s *RepositorySuite) TestBillCreateAndGet() {
	created := s.newDraft(saree())

	got, err := s.bills.Get(s.ctx, created.ID)
	s.Require().NoError(err)

	s.Equal(created.ID, got.ID)
	s.Equal(created.ReceiptCode, got.ReceiptCode)
	s.Equal(types.BillStatusDraft, got.Status)
	s.Require().Len(got.Lines, 1)
	s.Equal("maroon", *got.Lines[0].Variant)
	s.True(got.Lines[0].UnitRate.Equal(decimal.RequireFromString("1499.50")))
	s.True(got.TaxRate.Equal(s.taxRate))
	s.True(got.Totals.GrandTotal.Equal(created.Totals.GrandTotal))
	s.True(got.Totals.CGST().Equal(created.Totals.CGST()))
	s.Equal("Ravi", got.CustomerName)
	s.Equal(types.PaymentModeCard, got.PaymentMode)
	s.Nil(got.InvoiceSerial)
	s.Nil(got.FinalizedAt)
	s.Equal(1, got.Version)
}

func (s *RepositorySuite) TestBillGetMissing() {
	_, err := s.bills.Get(s.ctx, "bill_missing")
	s.True(ierr.IsNotFound(err))
}

func (s *RepositorySuite) TestBillUpdateBumpsVersion() {
	b := s.newDraft(saree())
	s.finalize(b, "2025-26", 1)
	s.Equal(2, b.Version)

	got, err := s.bills.Get(s.ctx, b.ID)
	s.Require().NoError(err)
	s.Equal(types.BillStatusFinal, got.Status)
	s.Equal(2, got.Version)
	s.Require().NotNil(got.InvoiceSerial)
	s.Equal("2025-26/000001", got.InvoiceNumber())
	s.Require().NotNil(got.FinalizedAt)
	s.True(got.FinalizedAt.Equal(s.now))
}

func (s *RepositorySuite) TestBillStaleUpdateConflicts() {
	b := s.newDraft(saree())

	stale, err := s.bills.Get(s.ctx, b.ID)
	s.Require().NoError(err)

	s.Require().NoError(b.UpdateDetails(bill.Details{CustomerName: "First"}))
	s.Require().NoError(s.bills.Update(s.ctx, b))

	s.Require().NoError(stale.UpdateDetails(bill.Details{CustomerName: "Second"}))
	err = s.bills.Update(s.ctx, stale)
	s.True(ierr.IsVersionConflict(err))
	s.Equal(1, stale.Version)

	got, err := s.bills.Get(s.ctx, b.ID)
	s.Require().NoError(err)
	s.Equal("First", got.CustomerName)
}

func (s *RepositorySuite) TestBillUpdateMissing() {
	b, err := bill.NewDraft(s.ctx, bill.DraftParams{TaxRate: s.taxRate})
	s.Require().NoError(err)
	s.True(ierr.IsNotFound(s.bills.Update(s.ctx, b)))
}

func (s *RepositorySuite) TestBillDuplicateInvoiceNumberRejected() {
	first := s.newDraft(saree())
	s.finalize(first, "2025-26", 9)

	second := s.newDraft(saree())
	totals, err := bill.ComputeTotals(second.TotalsInput())
	s.Require().NoError(err)
	s.Require().NoError(second.Finalize(types.NewInvoiceSerial("2025-26", 9), *totals, s.now))

	err = s.bills.Update(s.ctx, second)
	s.True(ierr.IsAlreadyExists(err))
}

func (s *RepositorySuite) TestBillListAndCount() {
	d1 := s.newDraft(saree())
	f1 := s.newDraft(saree())
	s.finalize(f1, "2025-26", 1)
	f2 := s.newDraft(saree())
	s.finalize(f2, "2024-25", 3)

	all, err := s.bills.List(s.ctx, types.NewDefaultBillFilter())
	s.Require().NoError(err)
	s.Len(all, 3)

	finals := &types.BillFilter{Status: []types.BillStatus{types.BillStatusFinal}}
	got, err := s.bills.List(s.ctx, finals)
	s.Require().NoError(err)
	s.ElementsMatch([]string{f1.ID, f2.ID}, lo.Map(got, func(b *bill.Bill, _ int) string { return b.ID }))

	count, err := s.bills.Count(s.ctx, finals)
	s.Require().NoError(err)
	s.Equal(2, count)

	byYear := &types.BillFilter{FiscalYear: "2024-25"}
	got, err = s.bills.List(s.ctx, byYear)
	s.Require().NoError(err)
	s.Require().Len(got, 1)
	s.Equal(f2.ID, got[0].ID)

	drafts := &types.BillFilter{Status: []types.BillStatus{types.BillStatusDraft}, Limit: 1}
	got, err = s.bills.List(s.ctx, drafts)
	s.Require().NoError(err)
	s.Require().Len(got, 1)
	s.Equal(d1.ID, got[0].ID)

	count, err = s.bills.Count(s.ctx, nil)
	s.Require().NoError(err)
	s.Equal(3, count)
}

func (s *RepositorySuite) TestBillMaxSerialAndListIssued() {
	max, err := s.bills.MaxSerial(s.ctx, "2025-26")
	s.Require().NoError(err)
	s.Zero(max)

	s.newDraft(saree())
	for _, serial := range []int64{3, 1, 2} {
		s.finalize(s.newDraft(saree()), "2025-26", serial)
	}
	s.finalize(s.newDraft(saree()), "2026-27", 9)

	max, err = s.bills.MaxSerial(s.ctx, "2025-26")
	s.Require().NoError(err)
	s.Equal(int64(3), max)

	page, err := s.bills.ListIssued(s.ctx, "2025-26", 0, 2)
	s.Require().NoError(err)
	s.Equal([]string{"2025-26/000001", "2025-26/000002"}, lo.Map(page, func(b *bill.Bill, _ int) string {
		return b.InvoiceNumber()
	}))

	page, err = s.bills.ListIssued(s.ctx, "2025-26", 2, 2)
	s.Require().NoError(err)
	s.Require().Len(page, 1)
	s.Equal("2025-26/000003", page[0].InvoiceNumber())
}

func (s *RepositorySuite) entryFor(fy types.FiscalYear, serial int64) *ledger.Entry {
	b := s.newDraft(saree())
	s.finalize(b, fy, serial)
	entry, err := ledger.NewEntry(b, "key-"+b.ID)
	s.Require().NoError(err)
	return entry
}

func (s *RepositorySuite) TestLedgerMaxSerial() {
	max, err := s.ledger.MaxSerial(s.ctx, "2025-26")
	s.Require().NoError(err)
	s.Zero(max)

	for _, serial := range []int64{1, 2, 5} {
		s.Require().NoError(s.ledger.AppendFinalizedInvoice(s.ctx, s.entryFor("2025-26", serial)))
	}
	s.Require().NoError(s.ledger.AppendFinalizedInvoice(s.ctx, s.entryFor("2026-27", 40)))

	max, err = s.ledger.MaxSerial(s.ctx, "2025-26")
	s.Require().NoError(err)
	s.Equal(int64(5), max)

	max, err = s.ledger.MaxSerial(s.ctx, "2026-27")
	s.Require().NoError(err)
	s.Equal(int64(40), max)
}

func (s *RepositorySuite) TestLedgerAppendIsIdempotent() {
	entry := s.entryFor("2025-26", 1)
	s.Require().NoError(s.ledger.AppendFinalizedInvoice(s.ctx, entry))

	again := *entry
	again.ID = types.GenerateUUIDWithPrefix(types.UUID_PREFIX_LEDGER_ENTRY)
	s.Require().NoError(s.ledger.AppendFinalizedInvoice(s.ctx, &again))

	var n int
	s.Require().NoError(s.db.GetQuerier(s.ctx).GetContext(s.ctx, &n, `SELECT COUNT(*) FROM ledger_entries`))
	s.Equal(1, n)
}

func (s *RepositorySuite) TestLedgerRejectsDuplicateInvoiceNumber() {
	entry := s.entryFor("2025-26", 1)
	s.Require().NoError(s.ledger.AppendFinalizedInvoice(s.ctx, entry))

	clash := *entry
	clash.ID = types.GenerateUUIDWithPrefix(types.UUID_PREFIX_LEDGER_ENTRY)
	clash.IdempotencyKey = "another-key"
	clash.BillID = "bill_other"

	err := s.ledger.AppendFinalizedInvoice(s.ctx, &clash)
	s.True(ierr.IsAlreadyExists(err))
}

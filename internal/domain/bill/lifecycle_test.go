package bill

import (
	"context"
	"strings"
	"testing"
	"time"

	ierr "github.com/flexprice/posbilling/internal/errors"
	"github.com/flexprice/posbilling/internal/types"
	"github.com/samber/lo"
	"github.com/stretchr/testify/suite"
)

type LifecycleSuite struct {
	suite.Suite
	ctx    context.Context
	now    time.Time
	serial types.InvoiceSerial
}

func TestLifecycle(t *testing.T) {
	suite.Run(t, new(LifecycleSuite))
}

func (s *LifecycleSuite) SetupTest() {
	s.ctx = context.WithValue(context.Background(), types.CtxUserID, "cashier_1")
	s.now = time.Date(2025, time.August, 1, 12, 0, 0, 0, time.UTC)
	s.serial = types.NewInvoiceSerial("2025-26", 7)
}

func (s *LifecycleSuite) draft() *Bill {
	b, err := NewDraft(s.ctx, DraftParams{
		Lines:   []LineItem{line("Silk saree", 1, "1000")},
		TaxRate: dec("18"),
		Details: Details{CustomerName: "Meera", PaymentMode: types.PaymentModeUPI},
	})
	s.Require().NoError(err)
	return b
}

func (s *LifecycleSuite) finalized() *Bill {
	b := s.draft()
	totals, err := ComputeTotals(b.TotalsInput())
	s.Require().NoError(err)
	s.Require().NoError(b.Finalize(s.serial, *totals, s.now))
	return b
}

func (s *LifecycleSuite) assertTransitionRejected(err error, status types.BillStatus) {
	s.Require().Error(err)
	s.True(ierr.IsInvalidTransition(err), "expected invalid transition, got %v", err)
	s.Contains(err.Error(), string(status))
}

func (s *LifecycleSuite) TestNewDraft() {
	b := s.draft()

	s.True(strings.HasPrefix(b.ID, types.UUID_PREFIX_BILL+"_"))
	s.True(strings.HasPrefix(b.ReceiptCode, types.SHORT_ID_PREFIX_RECEIPT))
	s.Equal(types.BillStatusDraft, b.Status)
	s.Nil(b.InvoiceSerial)
	s.Empty(b.InvoiceNumber())
	s.Equal(1, b.Version)
	s.Equal("cashier_1", b.CreatedBy)
	s.Equal("1180.00", b.Totals.GrandTotal.StringFixed(2))
}

func (s *LifecycleSuite) TestNewDraftWithoutLines() {
	b, err := NewDraft(s.ctx, DraftParams{TaxRate: dec("18")})
	s.Require().NoError(err)
	s.NotNil(b.Lines)
	s.Empty(b.Lines)
	s.True(b.Totals.GrandTotal.IsZero())
}

func (s *LifecycleSuite) TestNewDraftRejectsInvalidInput() {
	_, err := NewDraft(s.ctx, DraftParams{
		Lines: []LineItem{line("Silk saree", 0, "1000")},
	})
	s.True(ierr.IsValidation(err))

	_, err = NewDraft(s.ctx, DraftParams{
		Details: Details{PaymentMode: "CHEQUE"},
	})
	s.True(ierr.IsValidation(err))
}

func (s *LifecycleSuite) TestReviseDraft() {
	b := s.draft()

	err := b.Revise(DraftParams{
		Lines:      []LineItem{line("Silk saree", 2, "1000")},
		TaxRate:    dec("18"),
		InterState: true,
	})
	s.Require().NoError(err)
	s.Len(b.Lines, 1)
	s.Equal(int64(2), b.Lines[0].Quantity)
	s.Equal("360.00", b.Totals.IGST().StringFixed(2))
	s.Equal("2360.00", b.Totals.GrandTotal.StringFixed(2))
}

func (s *LifecycleSuite) TestReviseIsAllOrNothing() {
	b := s.draft()
	before := b.Copy()

	err := b.Revise(DraftParams{
		Lines: []LineItem{
			line("Silk saree", 3, "1000"),
			line("Broken", -1, "10"),
		},
		TaxRate: dec("18"),
	})
	s.True(ierr.IsValidation(err))
	s.Equal(before, b)
}

func (s *LifecycleSuite) TestReviseRejectedAfterFinalize() {
	b := s.finalized()
	err := b.Revise(DraftParams{Lines: []LineItem{line("Other", 1, "1")}})
	s.assertTransitionRejected(err, types.BillStatusFinal)
	s.Equal("Silk saree", b.Lines[0].Name)
}

func (s *LifecycleSuite) TestFinalize() {
	b := s.finalized()

	s.Equal(types.BillStatusFinal, b.Status)
	s.Equal("2025-26/000007", b.InvoiceNumber())
	s.Require().NotNil(b.FinalizedAt)
	s.True(b.FinalizedAt.Equal(s.now))
	s.False(b.IsPrinted())
}

func (s *LifecycleSuite) TestFinalizeEmptyBill() {
	b, err := NewDraft(s.ctx, DraftParams{TaxRate: dec("18")})
	s.Require().NoError(err)

	err = b.CanFinalize()
	s.True(ierr.IsValidation(err))

	err = b.Finalize(s.serial, b.Totals, s.now)
	s.True(ierr.IsValidation(err))
	s.Equal(types.BillStatusDraft, b.Status)
	s.Nil(b.InvoiceSerial)
}

func (s *LifecycleSuite) TestFinalizeTwice() {
	b := s.finalized()
	err := b.Finalize(types.NewInvoiceSerial("2025-26", 8), b.Totals, s.now)
	s.assertTransitionRejected(err, types.BillStatusFinal)
	s.Equal(int64(7), b.InvoiceSerial.Serial)
}

func (s *LifecycleSuite) TestFinalizeVoided() {
	b := s.draft()
	s.Require().NoError(b.Void("customer left", s.now))

	err := b.CanFinalize()
	s.assertTransitionRejected(err, types.BillStatusVoid)
}

func (s *LifecycleSuite) TestMarkPrinted() {
	b := s.finalized()

	changed, err := b.MarkPrinted(s.now)
	s.Require().NoError(err)
	s.True(changed)
	s.True(b.IsPrinted())

	later := s.now.Add(time.Hour)
	changed, err = b.MarkPrinted(later)
	s.Require().NoError(err)
	s.False(changed)
	s.True(b.PrintedAt.Equal(s.now))
}

func (s *LifecycleSuite) TestMarkPrintedDraft() {
	b := s.draft()
	_, err := b.MarkPrinted(s.now)
	s.assertTransitionRejected(err, types.BillStatusDraft)
	s.False(b.IsPrinted())
}

func (s *LifecycleSuite) TestUpdateDetails() {
	b := s.draft()
	s.Require().NoError(b.UpdateDetails(Details{CustomerName: "Anita"}))
	s.Equal("Anita", b.CustomerName)

	b = s.finalized()
	s.Require().NoError(b.UpdateDetails(Details{CustomerName: "Anita", PaymentMode: types.PaymentModeCash}))
	s.Equal(types.PaymentModeCash, b.PaymentMode)

	_, err := b.MarkPrinted(s.now)
	s.Require().NoError(err)

	err = b.UpdateDetails(Details{CustomerName: "Someone else"})
	s.assertTransitionRejected(err, types.BillStatusFinal)
	s.Equal("Anita", b.CustomerName)
}

func (s *LifecycleSuite) TestUpdateDetailsValidates() {
	b := s.draft()
	err := b.UpdateDetails(Details{PaymentMode: "BARTER"})
	s.True(ierr.IsValidation(err))
	s.Equal(types.PaymentModeUPI, b.PaymentMode)
}

func (s *LifecycleSuite) TestVoid() {
	tests := []struct {
		name string
		bill func() *Bill
	}{
		{"draft", s.draft},
		{"final", s.finalized},
		{"printed", func() *Bill {
			b := s.finalized()
			_, err := b.MarkPrinted(s.now)
			s.Require().NoError(err)
			return b
		}},
	}

	for _, tt := range tests {
		s.Run(tt.name, func() {
			b := tt.bill()
			serial := b.InvoiceSerial

			s.Require().NoError(b.Void("wrong item", s.now))
			s.Equal(types.BillStatusVoid, b.Status)
			s.Equal("wrong item", b.VoidReason)
			s.NotNil(b.VoidedAt)
			s.Equal(serial, b.InvoiceSerial)
		})
	}
}

func (s *LifecycleSuite) TestVoidIsTerminal() {
	b := s.finalized()
	s.Require().NoError(b.Void("", s.now))

	s.assertTransitionRejected(b.Void("again", s.now), types.BillStatusVoid)
	_, err := b.MarkPrinted(s.now)
	s.assertTransitionRejected(err, types.BillStatusVoid)
	s.assertTransitionRejected(b.UpdateDetails(Details{}), types.BillStatusVoid)
	s.Equal("2025-26/000007", b.InvoiceNumber())
}

func (s *LifecycleSuite) TestUnknownStatus() {
	b := s.draft()
	b.Status = "ARCHIVED"

	err := b.Void("", s.now)
	s.Require().Error(err)
	s.False(ierr.IsInvalidTransition(err))
	s.Equal(500, ierr.HTTPStatusFromErr(err))
}

func (s *LifecycleSuite) TestCopyIsDeep() {
	b := s.finalized()
	b.Lines[0].Variant = lo.ToPtr("red")

	c := b.Copy()
	c.Lines[0].Name = "Changed"
	*c.Lines[0].Variant = "blue"
	c.InvoiceSerial.Serial = 99

	s.Equal("Silk saree", b.Lines[0].Name)
	s.Equal("red", *b.Lines[0].Variant)
	s.Equal(int64(7), b.InvoiceSerial.Serial)
}

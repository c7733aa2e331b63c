package types

import (
	ierr "github.com/flexprice/posbilling/internal/errors"
	"github.com/samber/lo"
)

// BillStatus represents the current state of a bill in its lifecycle
type BillStatus string

const (
	// BillStatusDraft indicates the bill is being built and can be modified freely
	BillStatusDraft BillStatus = "DRAFT"
	// BillStatusFinal indicates the bill carries an invoice number and its lines are frozen
	BillStatusFinal BillStatus = "FINAL"
	// BillStatusVoid indicates the bill has been cancelled; terminal
	BillStatusVoid BillStatus = "VOID"
)

func (s BillStatus) String() string {
	return string(s)
}

func (s BillStatus) Validate() error {
	allowed := []BillStatus{
		BillStatusDraft,
		BillStatusFinal,
		BillStatusVoid,
	}
	if !lo.Contains(allowed, s) {
		return ierr.NewError("invalid bill status").
			WithHint("Please provide a valid bill status").
			WithReportableDetails(map[string]any{
				"allowed": allowed,
			}).
			Mark(ierr.ErrValidation)
	}
	return nil
}

// TaxSplitKind tells how the tax of a bill is apportioned between levies
type TaxSplitKind string

const (
	// TaxSplitIntraState splits tax evenly into CGST and SGST
	TaxSplitIntraState TaxSplitKind = "INTRA_STATE"
	// TaxSplitInterState assigns the whole tax to IGST
	TaxSplitInterState TaxSplitKind = "INTER_STATE"
)

func (k TaxSplitKind) String() string {
	return string(k)
}

// TaxSplitKindFor returns the split used for a bill's place of supply
func TaxSplitKindFor(interState bool) TaxSplitKind {
	if interState {
		return TaxSplitInterState
	}
	return TaxSplitIntraState
}

// PaymentMode is how the customer settled a bill
type PaymentMode string

const (
	PaymentModeCash PaymentMode = "CASH"
	PaymentModeCard PaymentMode = "CARD"
	PaymentModeUPI  PaymentMode = "UPI"
)

func (m PaymentMode) String() string {
	return string(m)
}

func (m PaymentMode) Validate() error {
	if m == "" {
		return nil
	}
	allowed := []PaymentMode{
		PaymentModeCash,
		PaymentModeCard,
		PaymentModeUPI,
	}
	if !lo.Contains(allowed, m) {
		return ierr.NewError("invalid payment mode").
			WithHint("Please provide a valid payment mode").
			WithReportableDetails(map[string]any{
				"allowed": allowed,
			}).
			Mark(ierr.ErrValidation)
	}
	return nil
}

// BillEventType names the events emitted on bill transitions
type BillEventType string

const (
	BillEventCreated   BillEventType = "bill.created"
	BillEventFinalized BillEventType = "bill.finalized"
	BillEventPrinted   BillEventType = "bill.printed"
	BillEventVoided    BillEventType = "bill.voided"
)

// TopicBillEvents is the bus topic all bill events are published on
const TopicBillEvents = "bill_events"

// BillFilter narrows bill listings
type BillFilter struct {
	Limit      int          `json:"limit,omitempty" form:"limit"`
	Offset     int          `json:"offset,omitempty" form:"offset"`
	Status     []BillStatus `json:"status,omitempty" form:"status"`
	FiscalYear FiscalYear   `json:"fiscal_year,omitempty" form:"fiscal_year"`
}

const (
	FILTER_DEFAULT_LIMIT = 50
	FILTER_MAX_LIMIT     = 500
)

// NewDefaultBillFilter returns a filter with default pagination
func NewDefaultBillFilter() *BillFilter {
	return &BillFilter{Limit: FILTER_DEFAULT_LIMIT}
}

func (f *BillFilter) GetLimit() int {
	if f == nil || f.Limit <= 0 {
		return FILTER_DEFAULT_LIMIT
	}
	return f.Limit
}

func (f *BillFilter) GetOffset() int {
	if f == nil || f.Offset < 0 {
		return 0
	}
	return f.Offset
}

func (f *BillFilter) Validate() error {
	if f == nil {
		return nil
	}
	if f.Limit < 0 || f.Limit > FILTER_MAX_LIMIT {
		return ierr.NewError("invalid limit").
			WithHintf("Limit must be between 0 and %d", FILTER_MAX_LIMIT).
			Mark(ierr.ErrValidation)
	}
	if f.Offset < 0 {
		return ierr.NewError("invalid offset").
			WithHint("Offset must be non negative").
			Mark(ierr.ErrValidation)
	}
	for _, s := range f.Status {
		if err := s.Validate(); err != nil {
			return err
		}
	}
	if f.FiscalYear != "" {
		if err := f.FiscalYear.Validate(); err != nil {
			return err
		}
	}
	return nil
}

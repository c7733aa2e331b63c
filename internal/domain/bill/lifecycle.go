package bill

import (
	"context"
	"fmt"
	"time"

	ierr "github.com/flexprice/posbilling/internal/errors"
	"github.com/flexprice/posbilling/internal/types"
	"github.com/shopspring/decimal"
)

// Operation names a lifecycle operation, used in rejected transition errors
type Operation string

const (
	OperationRevise    Operation = "revise"
	OperationEdit      Operation = "edit details of"
	OperationFinalize  Operation = "finalize"
	OperationMarkPrint Operation = "print"
	OperationVoid      Operation = "void"
)

// DraftParams are the inputs of a new draft
type DraftParams struct {
	Lines      []LineItem
	Discount   Discount
	InterState bool
	TaxRate    decimal.Decimal
	Details    Details
}

// NewDraft creates a draft bill with live totals. No serial is consumed.
func NewDraft(ctx context.Context, params DraftParams) (*Bill, error) {
	if err := params.Details.Validate(); err != nil {
		return nil, err
	}

	b := &Bill{
		ID:          types.GenerateUUIDWithPrefix(types.UUID_PREFIX_BILL),
		ReceiptCode: types.GenerateShortIDWithPrefix(types.SHORT_ID_PREFIX_RECEIPT),
		Status:      types.BillStatusDraft,
		Lines:       params.Lines,
		Discount:    params.Discount,
		InterState:  params.InterState,
		TaxRate:     params.TaxRate,
		Details:     params.Details,
		Version:     1,
		BaseModel:   types.GetDefaultBaseModel(ctx),
	}
	if b.Lines == nil {
		b.Lines = []LineItem{}
	}

	totals, err := ComputeTotals(b.TotalsInput())
	if err != nil {
		return nil, err
	}
	b.Totals = *totals
	return b, nil
}

// Revise replaces the billable content of a draft and recomputes totals.
// Nothing is applied when validation fails.
func (b *Bill) Revise(params DraftParams) error {
	switch b.Status {
	case types.BillStatusDraft:
	case types.BillStatusFinal, types.BillStatusVoid:
		return b.invalidTransition(OperationRevise)
	default:
		return b.unknownStatus()
	}

	if err := params.Details.Validate(); err != nil {
		return err
	}

	revised := TotalsInput{
		Lines:      params.Lines,
		Discount:   params.Discount,
		TaxRate:    params.TaxRate,
		InterState: params.InterState,
	}
	totals, err := ComputeTotals(revised)
	if err != nil {
		return err
	}

	b.Lines = params.Lines
	if b.Lines == nil {
		b.Lines = []LineItem{}
	}
	b.Discount = params.Discount
	b.TaxRate = params.TaxRate
	b.InterState = params.InterState
	b.Details = params.Details
	b.Totals = *totals
	return nil
}

// UpdateDetails edits the descriptive fields. Allowed on drafts and on
// final bills that have not been printed.
func (b *Bill) UpdateDetails(details Details) error {
	switch b.Status {
	case types.BillStatusDraft:
	case types.BillStatusFinal:
		if b.IsPrinted() {
			return b.invalidTransition(OperationEdit)
		}
	case types.BillStatusVoid:
		return b.invalidTransition(OperationEdit)
	default:
		return b.unknownStatus()
	}

	if err := details.Validate(); err != nil {
		return err
	}
	b.Details = details
	return nil
}

// CanFinalize checks that the bill is a non-empty draft
func (b *Bill) CanFinalize() error {
	switch b.Status {
	case types.BillStatusDraft:
	case types.BillStatusFinal, types.BillStatusVoid:
		return b.invalidTransition(OperationFinalize)
	default:
		return b.unknownStatus()
	}

	if len(b.Lines) == 0 {
		return ierr.NewError("cannot finalize a bill without line items").
			WithHint("Add at least one item before finalizing the bill").
			WithReportableDetails(map[string]any{
				"bill_id": b.ID,
			}).
			Mark(ierr.ErrValidation)
	}
	return nil
}

// Finalize stamps the invoice serial and the recomputed totals on a draft.
// The caller obtains the serial only after CanFinalize succeeded.
func (b *Bill) Finalize(serial types.InvoiceSerial, totals Totals, at time.Time) error {
	if err := b.CanFinalize(); err != nil {
		return err
	}
	b.InvoiceSerial = &serial
	b.Totals = totals
	b.FinalizedAt = &at
	b.Status = types.BillStatusFinal
	return nil
}

// MarkPrinted freezes a final bill. Printing an already printed bill is a
// no-op and reports changed=false.
func (b *Bill) MarkPrinted(at time.Time) (bool, error) {
	switch b.Status {
	case types.BillStatusFinal:
		if b.IsPrinted() {
			return false, nil
		}
		b.PrintedAt = &at
		return true, nil
	case types.BillStatusDraft, types.BillStatusVoid:
		return false, b.invalidTransition(OperationMarkPrint)
	default:
		return false, b.unknownStatus()
	}
}

// Void cancels a draft or final bill. The invoice serial, if any, stays on
// the bill and is never handed out again.
func (b *Bill) Void(reason string, at time.Time) error {
	switch b.Status {
	case types.BillStatusDraft, types.BillStatusFinal:
		b.Status = types.BillStatusVoid
		b.VoidedAt = &at
		b.VoidReason = reason
		return nil
	case types.BillStatusVoid:
		return b.invalidTransition(OperationVoid)
	default:
		return b.unknownStatus()
	}
}

func (b *Bill) invalidTransition(op Operation) error {
	details := map[string]any{
		"bill_id":   b.ID,
		"status":    b.Status,
		"operation": op,
	}
	if b.IsPrinted() {
		details["printed"] = true
	}
	return ierr.NewErrorf("cannot %s a %s bill", op, b.Status).
		WithHintf("Bill is %s and cannot be changed this way", b.Status).
		WithReportableDetails(details).
		Mark(ierr.ErrInvalidTransition)
}

func (b *Bill) unknownStatus() error {
	return ierr.NewError(fmt.Sprintf("unknown bill status %q", b.Status)).
		WithHint("Bill is in an unknown state").
		Mark(ierr.ErrSystem)
}

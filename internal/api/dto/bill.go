package dto

import (
	"time"

	"github.com/flexprice/posbilling/internal/domain/bill"
	"github.com/flexprice/posbilling/internal/types"
	"github.com/flexprice/posbilling/internal/validator"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
)

// LineItemRequest is one billed item
type LineItemRequest struct {
	// name of the product as printed on the bill
	Name string `json:"name" validate:"required,max=255"`

	// variant such as size or colour
	Variant *string `json:"variant,omitempty" validate:"omitempty,max=255"`

	// quantity sold, at least 1
	Quantity int64 `json:"quantity" validate:"required,gt=0"`

	// unit_rate is the price of one unit before tax
	UnitRate decimal.Decimal `json:"unit_rate" swaggertype:"string"`
}

func (r LineItemRequest) ToLineItem() bill.LineItem {
	return bill.LineItem{
		Name:     r.Name,
		Variant:  r.Variant,
		Quantity: r.Quantity,
		UnitRate: r.UnitRate,
	}
}

// DiscountRequest combines a flat amount and a percentage
type DiscountRequest struct {
	Flat    decimal.Decimal `json:"flat" swaggertype:"string"`
	Percent decimal.Decimal `json:"percent" swaggertype:"string"`
}

// BillDetailsRequest carries the descriptive fields of a bill
type BillDetailsRequest struct {
	CustomerName  string            `json:"customer_name,omitempty" validate:"omitempty,max=255"`
	CustomerPhone string            `json:"customer_phone,omitempty" validate:"omitempty,max=20"`
	PaymentMode   types.PaymentMode `json:"payment_mode,omitempty"`
	Notes         string            `json:"notes,omitempty" validate:"omitempty,max=1000"`
}

func (r *BillDetailsRequest) Validate() error {
	if err := validator.ValidateRequest(r); err != nil {
		return err
	}
	return r.PaymentMode.Validate()
}

func (r BillDetailsRequest) ToDetails() bill.Details {
	return bill.Details{
		CustomerName:  r.CustomerName,
		CustomerPhone: r.CustomerPhone,
		PaymentMode:   r.PaymentMode,
		Notes:         r.Notes,
	}
}

// CreateBillRequest opens a draft bill
type CreateBillRequest struct {
	Lines    []LineItemRequest `json:"lines" validate:"omitempty,dive"`
	Discount DiscountRequest   `json:"discount"`

	// inter_state bills carry IGST instead of CGST and SGST
	InterState bool `json:"inter_state"`

	// tax_rate in percent, defaults to the configured rate
	TaxRate *decimal.Decimal `json:"tax_rate,omitempty" swaggertype:"string"`

	BillDetailsRequest
}

func (r *CreateBillRequest) Validate() error {
	if err := validator.ValidateRequest(r); err != nil {
		return err
	}
	return r.PaymentMode.Validate()
}

// ToDraftParams converts the request, using defaultTaxRate when the
// request does not name one
func (r *CreateBillRequest) ToDraftParams(defaultTaxRate decimal.Decimal) bill.DraftParams {
	lines := make([]bill.LineItem, 0, len(r.Lines))
	for _, l := range r.Lines {
		lines = append(lines, l.ToLineItem())
	}

	return bill.DraftParams{
		Lines: lines,
		Discount: bill.Discount{
			Flat:    r.Discount.Flat,
			Percent: r.Discount.Percent,
		},
		InterState: r.InterState,
		TaxRate:    lo.FromPtrOr(r.TaxRate, defaultTaxRate),
		Details:    r.ToDetails(),
	}
}

// UpdateBillRequest replaces the content of a draft
type UpdateBillRequest struct {
	CreateBillRequest
}

// FinalizeBillRequest assigns an invoice number to a draft
type FinalizeBillRequest struct {
	// date decides the fiscal year of the invoice, defaults to now
	Date *time.Time `json:"date,omitempty"`
}

// VoidBillRequest cancels a bill
type VoidBillRequest struct {
	Reason string `json:"reason" validate:"omitempty,max=500"`
}

func (r *VoidBillRequest) Validate() error {
	return validator.ValidateRequest(r)
}

// BillResponse is a bill as returned by the API
type BillResponse struct {
	*bill.Bill
	InvoiceNumber string `json:"invoice_number,omitempty"`
	Printed       bool   `json:"printed"`
}

func NewBillResponse(b *bill.Bill) *BillResponse {
	return &BillResponse{
		Bill:          b,
		InvoiceNumber: b.InvoiceNumber(),
		Printed:       b.IsPrinted(),
	}
}

// ListBillsResponse is a page of bills
type ListBillsResponse = types.ListResponse[*BillResponse]

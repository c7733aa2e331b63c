package dto

import (
	"github.com/flexprice/posbilling/internal/sequence"
	"github.com/flexprice/posbilling/internal/types"
	"github.com/flexprice/posbilling/internal/validator"
)

// SequenceStateResponse shows the allocator counter and the number the
// next finalization would receive
type SequenceStateResponse struct {
	sequence.State
	NextInvoiceNumber string `json:"next_invoice_number,omitempty"`
	Timezone          string `json:"timezone"`
}

// SetOverrideFiscalYearRequest pins numbering to a fiscal year
type SetOverrideFiscalYearRequest struct {
	FiscalYear string `json:"fiscal_year" validate:"required,fiscal_year"`
}

func (r *SetOverrideFiscalYearRequest) Validate() error {
	return validator.ValidateRequest(r)
}

func (r *SetOverrideFiscalYearRequest) ToFiscalYear() types.FiscalYear {
	return types.FiscalYear(r.FiscalYear)
}

// SetNextSerialRequest forces the next issued serial
type SetNextSerialRequest struct {
	NextSerial int64 `json:"next_serial" validate:"required,gte=1"`
}

func (r *SetNextSerialRequest) Validate() error {
	return validator.ValidateRequest(r)
}

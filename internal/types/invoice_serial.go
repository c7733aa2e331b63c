package types

import (
	"fmt"
	"strconv"
	"strings"

	ierr "github.com/flexprice/posbilling/internal/errors"
)

// InvoiceSerialWidth is the zero padded width of the serial part
const InvoiceSerialWidth = 6

// InvoiceSerial is a legally unique invoice number inside a fiscal year
type InvoiceSerial struct {
	FiscalYear FiscalYear `json:"fiscal_year"`
	Serial     int64      `json:"serial"`
}

// NewInvoiceSerial builds an invoice serial
func NewInvoiceSerial(fy FiscalYear, serial int64) InvoiceSerial {
	return InvoiceSerial{FiscalYear: fy, Serial: serial}
}

// String renders the persisted invoice number, e.g. 2025-26/000042
func (s InvoiceSerial) String() string {
	return fmt.Sprintf("%s/%0*d", s.FiscalYear, InvoiceSerialWidth, s.Serial)
}

// IsZero reports whether no serial has been assigned
func (s InvoiceSerial) IsZero() bool {
	return s.FiscalYear == "" && s.Serial == 0
}

// ParseInvoiceSerial parses an invoice number rendered by String
func ParseInvoiceSerial(s string) (InvoiceSerial, error) {
	fyPart, serialPart, ok := strings.Cut(s, "/")
	if !ok {
		return InvoiceSerial{}, ierr.NewError("invalid invoice number").
			WithHint("Invoice number must look like 2025-26/000001").
			WithReportableDetails(map[string]any{
				"invoice_number": s,
			}).
			Mark(ierr.ErrValidation)
	}

	fy, err := ParseFiscalYear(fyPart)
	if err != nil {
		return InvoiceSerial{}, err
	}

	serial, err := strconv.ParseInt(serialPart, 10, 64)
	if err != nil || serial < 1 || len(serialPart) < InvoiceSerialWidth {
		return InvoiceSerial{}, ierr.NewError("invalid invoice serial").
			WithHint("Invoice serial must be a positive, zero padded number").
			WithReportableDetails(map[string]any{
				"invoice_number": s,
			}).
			Mark(ierr.ErrValidation)
	}

	return InvoiceSerial{FiscalYear: fy, Serial: serial}, nil
}

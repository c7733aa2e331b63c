package sqldb

import (
	"context"

	"github.com/flexprice/posbilling/internal/database"
	"github.com/flexprice/posbilling/internal/domain/ledger"
	ierr "github.com/flexprice/posbilling/internal/errors"
	"github.com/flexprice/posbilling/internal/logger"
	"github.com/flexprice/posbilling/internal/types"
)

type ledgerRepository struct {
	db     database.IClient
	logger *logger.Logger
}

func NewLedgerRepository(db database.IClient, log *logger.Logger) ledger.Repository {
	return &ledgerRepository{
		db:     db,
		logger: log,
	}
}

func (r *ledgerRepository) MaxSerial(ctx context.Context, fy types.FiscalYear) (int64, error) {
	span := StartRepositorySpan(ctx, "ledger", "max_serial", map[string]any{
		"fiscal_year": fy,
	})
	defer FinishSpan(span)

	q := r.db.GetQuerier(ctx)
	query := q.Rebind(`SELECT COALESCE(MAX(serial), 0) FROM ledger_entries WHERE fiscal_year = ?`)

	var max int64
	if err := q.GetContext(ctx, &max, query, string(fy)); err != nil {
		SetSpanError(span, err)
		return 0, ierr.WithError(err).
			WithHint("Failed to read the ledger").
			WithReportableDetails(map[string]any{
				"fiscal_year": fy,
			}).
			Mark(ierr.ErrDatabase)
	}

	SetSpanSuccess(span)
	return max, nil
}

func (r *ledgerRepository) AppendFinalizedInvoice(ctx context.Context, entry *ledger.Entry) error {
	span := StartRepositorySpan(ctx, "ledger", "append", map[string]any{
		"bill_id":        entry.BillID,
		"invoice_number": entry.InvoiceNumber,
	})
	defer FinishSpan(span)

	query := `
		INSERT INTO ledger_entries (
			id, idempotency_key, bill_id, invoice_number, fiscal_year, serial,
			tax_kind, subtotal, discount, taxable_base, tax_rate,
			cgst, sgst, igst, round_off, grand_total, finalized_at, created_at
		) VALUES (
			:id, :idempotency_key, :bill_id, :invoice_number, :fiscal_year, :serial,
			:tax_kind, :subtotal, :discount, :taxable_base, :tax_rate,
			:cgst, :sgst, :igst, :round_off, :grand_total, :finalized_at, :created_at
		)
		ON CONFLICT (idempotency_key) DO NOTHING`

	result, err := r.db.GetQuerier(ctx).NamedExecContext(ctx, query, entry)
	if err != nil {
		SetSpanError(span, err)
		if database.IsUniqueViolation(err) {
			return ierr.WithError(err).
				WithHintf("Invoice number %s is already in the ledger for another bill", entry.InvoiceNumber).
				WithReportableDetails(map[string]any{
					"bill_id":        entry.BillID,
					"invoice_number": entry.InvoiceNumber,
				}).
				Mark(ierr.ErrAlreadyExists)
		}
		return ierr.WithError(err).
			WithHint("Failed to append invoice to the ledger").
			WithReportableDetails(map[string]any{
				"bill_id":        entry.BillID,
				"invoice_number": entry.InvoiceNumber,
			}).
			Mark(ierr.ErrDatabase)
	}

	if rows, err := result.RowsAffected(); err == nil && rows == 0 {
		r.logger.Debugw("ledger entry already present, skipping",
			"bill_id", entry.BillID,
			"invoice_number", entry.InvoiceNumber,
			"idempotency_key", entry.IdempotencyKey,
		)
	}

	SetSpanSuccess(span)
	return nil
}

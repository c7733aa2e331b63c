package sqldb

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"
	"time"

	"github.com/flexprice/posbilling/internal/database"
	"github.com/flexprice/posbilling/internal/domain/bill"
	ierr "github.com/flexprice/posbilling/internal/errors"
	"github.com/flexprice/posbilling/internal/logger"
	"github.com/flexprice/posbilling/internal/types"
	"github.com/jmoiron/sqlx"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
)

const billColumns = `id, receipt_code, status, lines, discount_flat, discount_percent,
	inter_state, tax_rate, totals, fiscal_year, serial, customer_name,
	customer_phone, payment_mode, notes, finalized_at, printed_at, voided_at,
	void_reason, version, created_at, updated_at, created_by, updated_by`

// billRow is the persisted shape of a bill
type billRow struct {
	ID              string          `db:"id"`
	ReceiptCode     string          `db:"receipt_code"`
	Status          string          `db:"status"`
	Lines           string          `db:"lines"`
	DiscountFlat    decimal.Decimal `db:"discount_flat"`
	DiscountPercent decimal.Decimal `db:"discount_percent"`
	InterState      bool            `db:"inter_state"`
	TaxRate         decimal.Decimal `db:"tax_rate"`
	Totals          string          `db:"totals"`
	FiscalYear      sql.NullString  `db:"fiscal_year"`
	Serial          sql.NullInt64   `db:"serial"`
	CustomerName    string          `db:"customer_name"`
	CustomerPhone   string          `db:"customer_phone"`
	PaymentMode     string          `db:"payment_mode"`
	Notes           string          `db:"notes"`
	FinalizedAt     sql.NullTime    `db:"finalized_at"`
	PrintedAt       sql.NullTime    `db:"printed_at"`
	VoidedAt        sql.NullTime    `db:"voided_at"`
	VoidReason      string          `db:"void_reason"`
	Version         int             `db:"version"`
	types.BaseModel
}

func toBillRow(b *bill.Bill) (*billRow, error) {
	lines, err := json.Marshal(b.Lines)
	if err != nil {
		return nil, err
	}
	totals, err := json.Marshal(b.Totals)
	if err != nil {
		return nil, err
	}

	row := &billRow{
		ID:              b.ID,
		ReceiptCode:     b.ReceiptCode,
		Status:          string(b.Status),
		Lines:           string(lines),
		DiscountFlat:    b.Discount.Flat,
		DiscountPercent: b.Discount.Percent,
		InterState:      b.InterState,
		TaxRate:         b.TaxRate,
		Totals:          string(totals),
		CustomerName:    b.CustomerName,
		CustomerPhone:   b.CustomerPhone,
		PaymentMode:     string(b.PaymentMode),
		Notes:           b.Notes,
		FinalizedAt:     nullTime(b.FinalizedAt),
		PrintedAt:       nullTime(b.PrintedAt),
		VoidedAt:        nullTime(b.VoidedAt),
		VoidReason:      b.VoidReason,
		Version:         b.Version,
		BaseModel:       b.BaseModel,
	}
	if b.InvoiceSerial != nil {
		row.FiscalYear = sql.NullString{String: string(b.InvoiceSerial.FiscalYear), Valid: true}
		row.Serial = sql.NullInt64{Int64: b.InvoiceSerial.Serial, Valid: true}
	}
	return row, nil
}

func (row *billRow) toDomain() (*bill.Bill, error) {
	b := &bill.Bill{
		ID:          row.ID,
		ReceiptCode: row.ReceiptCode,
		Status:      types.BillStatus(row.Status),
		Discount: bill.Discount{
			Flat:    row.DiscountFlat,
			Percent: row.DiscountPercent,
		},
		InterState: row.InterState,
		TaxRate:    row.TaxRate,
		Details: bill.Details{
			CustomerName:  row.CustomerName,
			CustomerPhone: row.CustomerPhone,
			PaymentMode:   types.PaymentMode(row.PaymentMode),
			Notes:         row.Notes,
		},
		FinalizedAt: timePtr(row.FinalizedAt),
		PrintedAt:   timePtr(row.PrintedAt),
		VoidedAt:    timePtr(row.VoidedAt),
		VoidReason:  row.VoidReason,
		Version:     row.Version,
		BaseModel:   row.BaseModel,
	}
	if err := json.Unmarshal([]byte(row.Lines), &b.Lines); err != nil {
		return nil, err
	}
	if b.Lines == nil {
		b.Lines = []bill.LineItem{}
	}
	if err := json.Unmarshal([]byte(row.Totals), &b.Totals); err != nil {
		return nil, err
	}
	if row.FiscalYear.Valid && row.Serial.Valid {
		serial := types.NewInvoiceSerial(types.FiscalYear(row.FiscalYear.String), row.Serial.Int64)
		b.InvoiceSerial = &serial
	}
	return b, nil
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t.UTC(), Valid: true}
}

func timePtr(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time.UTC()
	return &v
}

type billRepository struct {
	db     database.IClient
	logger *logger.Logger
}

func NewBillRepository(db database.IClient, log *logger.Logger) bill.Repository {
	return &billRepository{
		db:     db,
		logger: log,
	}
}

func (r *billRepository) Create(ctx context.Context, b *bill.Bill) error {
	span := StartRepositorySpan(ctx, "bill", "create", map[string]any{
		"bill_id": b.ID,
	})
	defer FinishSpan(span)

	row, err := toBillRow(b)
	if err != nil {
		SetSpanError(span, err)
		return ierr.WithError(err).
			WithHint("Failed to encode bill").
			Mark(ierr.ErrSystem)
	}

	query := `INSERT INTO bills (` + billColumns + `) VALUES (
		:id, :receipt_code, :status, :lines, :discount_flat, :discount_percent,
		:inter_state, :tax_rate, :totals, :fiscal_year, :serial, :customer_name,
		:customer_phone, :payment_mode, :notes, :finalized_at, :printed_at, :voided_at,
		:void_reason, :version, :created_at, :updated_at, :created_by, :updated_by
	)`

	r.logger.Debugw("creating bill",
		"bill_id", b.ID,
		"status", b.Status,
	)

	if _, err := r.db.GetQuerier(ctx).NamedExecContext(ctx, query, row); err != nil {
		SetSpanError(span, err)
		if database.IsUniqueViolation(err) {
			return ierr.WithError(err).
				WithHint("A bill with this id already exists").
				WithReportableDetails(map[string]any{
					"bill_id": b.ID,
				}).
				Mark(ierr.ErrAlreadyExists)
		}
		return ierr.WithError(err).
			WithHint("Failed to create bill").
			WithReportableDetails(map[string]any{
				"bill_id": b.ID,
			}).
			Mark(ierr.ErrDatabase)
	}

	SetSpanSuccess(span)
	return nil
}

func (r *billRepository) Get(ctx context.Context, id string) (*bill.Bill, error) {
	span := StartRepositorySpan(ctx, "bill", "get", map[string]any{
		"bill_id": id,
	})
	defer FinishSpan(span)

	q := r.db.GetQuerier(ctx)
	query := q.Rebind(`SELECT ` + billColumns + ` FROM bills WHERE id = ?`)

	var row billRow
	if err := q.GetContext(ctx, &row, query, id); err != nil {
		SetSpanError(span, err)
		if database.IsNoRows(err) {
			return nil, ierr.WithError(err).
				WithHintf("Bill %s not found", id).
				WithReportableDetails(map[string]any{
					"bill_id": id,
				}).
				Mark(ierr.ErrNotFound)
		}
		return nil, ierr.WithError(err).
			WithHint("Failed to get bill").
			Mark(ierr.ErrDatabase)
	}

	b, err := row.toDomain()
	if err != nil {
		SetSpanError(span, err)
		return nil, ierr.WithError(err).
			WithHint("Stored bill could not be decoded").
			WithReportableDetails(map[string]any{
				"bill_id": id,
			}).
			Mark(ierr.ErrSystem)
	}

	SetSpanSuccess(span)
	return b, nil
}

// Update writes b if nobody changed it since it was read. On success the
// version on b is advanced.
func (r *billRepository) Update(ctx context.Context, b *bill.Bill) error {
	span := StartRepositorySpan(ctx, "bill", "update", map[string]any{
		"bill_id": b.ID,
		"version": b.Version,
	})
	defer FinishSpan(span)

	updated := *b
	updated.UpdatedAt = time.Now().UTC()
	updated.UpdatedBy = types.GetUserID(ctx)

	row, err := toBillRow(&updated)
	if err != nil {
		SetSpanError(span, err)
		return ierr.WithError(err).
			WithHint("Failed to encode bill").
			Mark(ierr.ErrSystem)
	}

	query := `UPDATE bills SET
		status = :status,
		lines = :lines,
		discount_flat = :discount_flat,
		discount_percent = :discount_percent,
		inter_state = :inter_state,
		tax_rate = :tax_rate,
		totals = :totals,
		fiscal_year = :fiscal_year,
		serial = :serial,
		customer_name = :customer_name,
		customer_phone = :customer_phone,
		payment_mode = :payment_mode,
		notes = :notes,
		finalized_at = :finalized_at,
		printed_at = :printed_at,
		voided_at = :voided_at,
		void_reason = :void_reason,
		version = version + 1,
		updated_at = :updated_at,
		updated_by = :updated_by
	WHERE id = :id AND version = :version`

	q := r.db.GetQuerier(ctx)
	result, err := q.NamedExecContext(ctx, query, row)
	if err != nil {
		SetSpanError(span, err)
		if database.IsUniqueViolation(err) {
			return ierr.WithError(err).
				WithHintf("Invoice number %s is already assigned to another bill", b.InvoiceNumber()).
				WithReportableDetails(map[string]any{
					"bill_id":        b.ID,
					"invoice_number": b.InvoiceNumber(),
				}).
				Mark(ierr.ErrAlreadyExists)
		}
		return ierr.WithError(err).
			WithHint("Failed to update bill").
			Mark(ierr.ErrDatabase)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		SetSpanError(span, err)
		return ierr.WithError(err).
			WithHint("Failed to update bill").
			Mark(ierr.ErrDatabase)
	}
	if rows == 0 {
		var count int
		if err := q.GetContext(ctx, &count, q.Rebind(`SELECT COUNT(*) FROM bills WHERE id = ?`), b.ID); err != nil {
			return ierr.WithError(err).
				WithHint("Failed to update bill").
				Mark(ierr.ErrDatabase)
		}
		if count == 0 {
			return ierr.NewErrorf("bill %s not found", b.ID).
				WithHintf("Bill %s not found", b.ID).
				Mark(ierr.ErrNotFound)
		}
		return ierr.NewErrorf("bill %s version %d is stale", b.ID, b.Version).
			WithHint("Bill was changed by another request, reload and retry").
			WithReportableDetails(map[string]any{
				"bill_id": b.ID,
				"version": b.Version,
			}).
			Mark(ierr.ErrVersionConflict)
	}

	b.Version++
	b.UpdatedAt = updated.UpdatedAt
	b.UpdatedBy = updated.UpdatedBy

	SetSpanSuccess(span)
	return nil
}

func (r *billRepository) List(ctx context.Context, filter *types.BillFilter) ([]*bill.Bill, error) {
	span := StartRepositorySpan(ctx, "bill", "list", map[string]any{
		"filter": filter,
	})
	defer FinishSpan(span)

	where, args := billWhere(filter)
	query := `SELECT ` + billColumns + ` FROM bills` + where +
		` ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?`
	args = append(args, filter.GetLimit(), filter.GetOffset())

	q := r.db.GetQuerier(ctx)
	query, args, err := sqlx.In(query, args...)
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to build bill query").
			Mark(ierr.ErrSystem)
	}

	var rows []billRow
	if err := q.SelectContext(ctx, &rows, q.Rebind(query), args...); err != nil {
		SetSpanError(span, err)
		return nil, ierr.WithError(err).
			WithHint("Failed to list bills").
			Mark(ierr.ErrDatabase)
	}

	bills := make([]*bill.Bill, 0, len(rows))
	for i := range rows {
		b, err := rows[i].toDomain()
		if err != nil {
			SetSpanError(span, err)
			return nil, ierr.WithError(err).
				WithHint("Stored bill could not be decoded").
				WithReportableDetails(map[string]any{
					"bill_id": rows[i].ID,
				}).
				Mark(ierr.ErrSystem)
		}
		bills = append(bills, b)
	}

	SetSpanSuccess(span)
	return bills, nil
}

func (r *billRepository) Count(ctx context.Context, filter *types.BillFilter) (int, error) {
	where, args := billWhere(filter)

	q := r.db.GetQuerier(ctx)
	query, args, err := sqlx.In(`SELECT COUNT(*) FROM bills`+where, args...)
	if err != nil {
		return 0, ierr.WithError(err).
			WithHint("Failed to build bill query").
			Mark(ierr.ErrSystem)
	}

	var count int
	if err := q.GetContext(ctx, &count, q.Rebind(query), args...); err != nil {
		return 0, ierr.WithError(err).
			WithHint("Failed to count bills").
			Mark(ierr.ErrDatabase)
	}
	return count, nil
}

func (r *billRepository) MaxSerial(ctx context.Context, fy types.FiscalYear) (int64, error) {
	span := StartRepositorySpan(ctx, "bill", "max_serial", map[string]any{
		"fiscal_year": fy,
	})
	defer FinishSpan(span)

	q := r.db.GetQuerier(ctx)
	query := q.Rebind(`SELECT COALESCE(MAX(serial), 0) FROM bills WHERE fiscal_year = ?`)

	var max int64
	if err := q.GetContext(ctx, &max, query, string(fy)); err != nil {
		SetSpanError(span, err)
		return 0, ierr.WithError(err).
			WithHint("Failed to read issued invoice serials").
			WithReportableDetails(map[string]any{
				"fiscal_year": fy,
			}).
			Mark(ierr.ErrDatabase)
	}

	SetSpanSuccess(span)
	return max, nil
}

func (r *billRepository) ListIssued(ctx context.Context, fy types.FiscalYear, afterSerial int64, limit int) ([]*bill.Bill, error) {
	span := StartRepositorySpan(ctx, "bill", "list_issued", map[string]any{
		"fiscal_year":  fy,
		"after_serial": afterSerial,
	})
	defer FinishSpan(span)

	q := r.db.GetQuerier(ctx)
	query := q.Rebind(`SELECT ` + billColumns + ` FROM bills
		WHERE fiscal_year = ? AND serial > ?
		ORDER BY serial ASC LIMIT ?`)

	var rows []billRow
	if err := q.SelectContext(ctx, &rows, query, string(fy), afterSerial, limit); err != nil {
		SetSpanError(span, err)
		return nil, ierr.WithError(err).
			WithHint("Failed to list issued bills").
			Mark(ierr.ErrDatabase)
	}

	bills := make([]*bill.Bill, 0, len(rows))
	for i := range rows {
		b, err := rows[i].toDomain()
		if err != nil {
			SetSpanError(span, err)
			return nil, ierr.WithError(err).
				WithHint("Stored bill could not be decoded").
				WithReportableDetails(map[string]any{
					"bill_id": rows[i].ID,
				}).
				Mark(ierr.ErrSystem)
		}
		bills = append(bills, b)
	}

	SetSpanSuccess(span)
	return bills, nil
}

func billWhere(filter *types.BillFilter) (string, []any) {
	if filter == nil {
		return "", nil
	}

	var (
		conds []string
		args  []any
	)
	if len(filter.Status) > 0 {
		conds = append(conds, "status IN (?)")
		args = append(args, lo.Map(filter.Status, func(s types.BillStatus, _ int) string {
			return string(s)
		}))
	}
	if filter.FiscalYear != "" {
		conds = append(conds, "fiscal_year = ?")
		args = append(args, string(filter.FiscalYear))
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

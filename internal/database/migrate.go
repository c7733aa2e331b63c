package database

import (
	"context"

	ierr "github.com/flexprice/posbilling/internal/errors"
	"github.com/flexprice/posbilling/internal/types"
)

// Amounts are stored as text on sqlite so that no value passes through a
// float on the way in or out.
var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS bills (
		id               TEXT PRIMARY KEY,
		receipt_code     TEXT NOT NULL,
		status           TEXT NOT NULL,
		lines            TEXT NOT NULL,
		discount_flat    TEXT NOT NULL,
		discount_percent TEXT NOT NULL,
		inter_state      BOOLEAN NOT NULL DEFAULT 0,
		tax_rate         TEXT NOT NULL,
		totals           TEXT NOT NULL,
		fiscal_year      TEXT,
		serial           INTEGER,
		customer_name    TEXT NOT NULL DEFAULT '',
		customer_phone   TEXT NOT NULL DEFAULT '',
		payment_mode     TEXT NOT NULL DEFAULT '',
		notes            TEXT NOT NULL DEFAULT '',
		finalized_at     TIMESTAMP,
		printed_at       TIMESTAMP,
		voided_at        TIMESTAMP,
		void_reason      TEXT NOT NULL DEFAULT '',
		version          INTEGER NOT NULL DEFAULT 1,
		created_at       TIMESTAMP NOT NULL,
		updated_at       TIMESTAMP NOT NULL,
		created_by       TEXT NOT NULL DEFAULT '',
		updated_by       TEXT NOT NULL DEFAULT '',
		UNIQUE (fiscal_year, serial)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_bills_status_created ON bills (status, created_at)`,
	`CREATE TABLE IF NOT EXISTS ledger_entries (
		id              TEXT PRIMARY KEY,
		idempotency_key TEXT NOT NULL UNIQUE,
		bill_id         TEXT NOT NULL,
		invoice_number  TEXT NOT NULL,
		fiscal_year     TEXT NOT NULL,
		serial          INTEGER NOT NULL,
		tax_kind        TEXT NOT NULL,
		subtotal        TEXT NOT NULL,
		discount        TEXT NOT NULL,
		taxable_base    TEXT NOT NULL,
		tax_rate        TEXT NOT NULL,
		cgst            TEXT NOT NULL,
		sgst            TEXT NOT NULL,
		igst            TEXT NOT NULL,
		round_off       TEXT NOT NULL,
		grand_total     TEXT NOT NULL,
		finalized_at    TIMESTAMP NOT NULL,
		created_at      TIMESTAMP NOT NULL,
		UNIQUE (fiscal_year, serial)
	)`,
}

var postgresSchema = []string{
	`CREATE TABLE IF NOT EXISTS bills (
		id               VARCHAR(50) PRIMARY KEY,
		receipt_code     VARCHAR(20) NOT NULL,
		status           VARCHAR(10) NOT NULL,
		lines            JSONB NOT NULL,
		discount_flat    NUMERIC(14, 2) NOT NULL,
		discount_percent NUMERIC(7, 4) NOT NULL,
		inter_state      BOOLEAN NOT NULL DEFAULT FALSE,
		tax_rate         NUMERIC(7, 4) NOT NULL,
		totals           JSONB NOT NULL,
		fiscal_year      VARCHAR(7),
		serial           BIGINT,
		customer_name    TEXT NOT NULL DEFAULT '',
		customer_phone   TEXT NOT NULL DEFAULT '',
		payment_mode     VARCHAR(10) NOT NULL DEFAULT '',
		notes            TEXT NOT NULL DEFAULT '',
		finalized_at     TIMESTAMPTZ,
		printed_at       TIMESTAMPTZ,
		voided_at        TIMESTAMPTZ,
		void_reason      TEXT NOT NULL DEFAULT '',
		version          INTEGER NOT NULL DEFAULT 1,
		created_at       TIMESTAMPTZ NOT NULL,
		updated_at       TIMESTAMPTZ NOT NULL,
		created_by       VARCHAR(50) NOT NULL DEFAULT '',
		updated_by       VARCHAR(50) NOT NULL DEFAULT '',
		UNIQUE (fiscal_year, serial)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_bills_status_created ON bills (status, created_at)`,
	`CREATE TABLE IF NOT EXISTS ledger_entries (
		id              VARCHAR(50) PRIMARY KEY,
		idempotency_key VARCHAR(100) NOT NULL UNIQUE,
		bill_id         VARCHAR(50) NOT NULL,
		invoice_number  VARCHAR(20) NOT NULL,
		fiscal_year     VARCHAR(7) NOT NULL,
		serial          BIGINT NOT NULL,
		tax_kind        VARCHAR(20) NOT NULL,
		subtotal        NUMERIC(14, 2) NOT NULL,
		discount        NUMERIC(14, 2) NOT NULL,
		taxable_base    NUMERIC(14, 2) NOT NULL,
		tax_rate        NUMERIC(7, 4) NOT NULL,
		cgst            NUMERIC(14, 2) NOT NULL,
		sgst            NUMERIC(14, 2) NOT NULL,
		igst            NUMERIC(14, 2) NOT NULL,
		round_off       NUMERIC(4, 2) NOT NULL,
		grand_total     NUMERIC(14, 2) NOT NULL,
		finalized_at    TIMESTAMPTZ NOT NULL,
		created_at      TIMESTAMPTZ NOT NULL,
		UNIQUE (fiscal_year, serial)
	)`,
}

// Schema returns the DDL applied by Migrate for a driver
func Schema(driver types.DatabaseDriver) []string {
	if driver == types.DatabaseDriverSQLite {
		return sqliteSchema
	}
	return postgresSchema
}

// Migrate creates the tables if they do not exist yet
func (db *DB) Migrate(ctx context.Context) error {
	statements := Schema(db.driver)

	err := db.WithTx(ctx, func(ctx context.Context) error {
		q := db.GetQuerier(ctx)
		for _, stmt := range statements {
			if _, err := q.ExecContext(ctx, stmt); err != nil {
				return ierr.WithError(err).
					WithHint("Failed to apply database schema").
					Mark(ierr.ErrDatabase)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	db.logger.Infow("database schema up to date",
		"driver", db.driver,
		"statements", len(statements),
	)
	return nil
}

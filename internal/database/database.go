// Package database wraps sqlx with transaction propagation through the
// context and query tracing. Both postgres and sqlite are supported; the
// driver is chosen by configuration.
package database

import (
	"context"
	"database/sql"

	"github.com/flexprice/posbilling/internal/config"
	ierr "github.com/flexprice/posbilling/internal/errors"
	"github.com/flexprice/posbilling/internal/logger"
	"github.com/flexprice/posbilling/internal/types"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

// IClient is what repositories and services need from the database
type IClient interface {
	GetQuerier(ctx context.Context) Querier
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
	Driver() types.DatabaseDriver
}

// DB wraps sqlx.DB to provide transaction management
type DB struct {
	*sqlx.DB
	logger *logger.Logger
	driver types.DatabaseDriver
}

var _ IClient = (*DB)(nil)

// Querier defines the operations available to repositories.
// Both *sqlx.DB and *sqlx.Tx implement these methods.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowxContext(ctx context.Context, query string, args ...any) *sqlx.Row
	GetContext(ctx context.Context, dest any, query string, args ...any) error
	SelectContext(ctx context.Context, dest any, query string, args ...any) error
	NamedExecContext(ctx context.Context, query string, arg any) (sql.Result, error)
	Rebind(query string) string
}

// NewDB opens a connection pool for the configured driver
func NewDB(cfg *config.Configuration, log *logger.Logger) (*DB, error) {
	driver := cfg.Database.Driver
	db, err := sqlx.Connect(string(driver), cfg.Database.GetDSN())
	if err != nil {
		return nil, ierr.WithError(err).
			WithHintf("Could not connect to the %s database", driver).
			Mark(ierr.ErrDatabase)
	}

	switch driver {
	case types.DatabaseDriverSQLite:
		// sqlite allows a single writer
		db.SetMaxOpenConns(1)
	default:
		if cfg.Database.MaxOpenConns > 0 {
			db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
		}
	}

	log.Infow("connected to database",
		"driver", driver,
	)
	return &DB{DB: db, logger: log, driver: driver}, nil
}

// Close closes the database connection
func (db *DB) Close() error {
	if err := db.DB.Close(); err != nil {
		db.logger.Errorw("error closing database", "error", err)
		return err
	}
	return nil
}

// Driver returns the configured driver
func (db *DB) Driver() types.DatabaseDriver {
	return db.driver
}

// GetQuerier returns the transaction from context, or the pool
func (db *DB) GetQuerier(ctx context.Context) Querier {
	if tx, ok := GetTx(ctx); ok {
		return NewTracedQuerier(tx.Tx, db.logger, tx.ID)
	}
	return NewTracedQuerier(db.DB, db.logger, "")
}

// Ping checks that the database is reachable
func (db *DB) Ping(ctx context.Context) error {
	if err := db.PingContext(ctx); err != nil {
		return ierr.WithError(err).
			WithHint("Database is not reachable").
			Mark(ierr.ErrDatabase)
	}
	return nil
}

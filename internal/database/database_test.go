package database

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/flexprice/posbilling/internal/config"
	"github.com/flexprice/posbilling/internal/logger"
	"github.com/flexprice/posbilling/internal/types"
	"github.com/stretchr/testify/suite"
)

type DatabaseSuite struct {
	suite.Suite
	ctx context.Context
	db  *DB
}

func TestDatabase(t *testing.T) {
	suite.Run(t, new(DatabaseSuite))
}

func (s *DatabaseSuite) SetupTest() {
	s.ctx = context.Background()

	cfg := config.GetDefaultConfig()
	cfg.Database.Driver = types.DatabaseDriverSQLite
	cfg.Database.Path = filepath.Join(s.T().TempDir(), "posbilling.db")

	db, err := NewDB(cfg, logger.NewNoopLogger())
	s.Require().NoError(err)
	s.db = db
	s.Require().NoError(s.db.Migrate(s.ctx))
}

func (s *DatabaseSuite) TearDownTest() {
	s.NoError(s.db.Close())
}

func (s *DatabaseSuite) countBills(ctx context.Context) int {
	var n int
	s.Require().NoError(s.db.GetQuerier(ctx).GetContext(ctx, &n, `SELECT COUNT(*) FROM bills`))
	return n
}

func (s *DatabaseSuite) insertBill(ctx context.Context, id string) error {
	_, err := s.db.GetQuerier(ctx).ExecContext(ctx, s.db.Rebind(`
		INSERT INTO bills (id, receipt_code, status, lines, discount_flat, discount_percent,
			tax_rate, totals, created_at, updated_at)
		VALUES (?, 'RCP1', 'DRAFT', '[]', '0', '0', '18', '{}', CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)`), id)
	return err
}

func (s *DatabaseSuite) TestMigrateIsIdempotent() {
	s.NoError(s.db.Migrate(s.ctx))
	s.Equal(types.DatabaseDriverSQLite, s.db.Driver())
	s.NoError(s.db.Ping(s.ctx))
}

func (s *DatabaseSuite) TestWithTxCommits() {
	err := s.db.WithTx(s.ctx, func(ctx context.Context) error {
		_, ok := GetTx(ctx)
		s.True(ok)
		return s.insertBill(ctx, "bill_commit")
	})
	s.Require().NoError(err)
	s.Equal(1, s.countBills(s.ctx))
}

func (s *DatabaseSuite) TestWithTxRollsBackOnError() {
	boom := errors.New("boom")
	err := s.db.WithTx(s.ctx, func(ctx context.Context) error {
		s.Require().NoError(s.insertBill(ctx, "bill_rollback"))
		return boom
	})
	s.ErrorIs(err, boom)
	s.Equal(0, s.countBills(s.ctx))
}

func (s *DatabaseSuite) TestNestedTxUsesSavepoints() {
	err := s.db.WithTx(s.ctx, func(ctx context.Context) error {
		s.Require().NoError(s.insertBill(ctx, "bill_outer"))

		inner := s.db.WithTx(ctx, func(ctx context.Context) error {
			s.Require().NoError(s.insertBill(ctx, "bill_inner"))
			return errors.New("inner failed")
		})
		s.Error(inner)
		return nil
	})
	s.Require().NoError(err)
	s.Equal(1, s.countBills(s.ctx))
}

func (s *DatabaseSuite) TestUniqueViolationIsDetected() {
	s.Require().NoError(s.insertBill(s.ctx, "bill_dup"))
	err := s.insertBill(s.ctx, "bill_dup")
	s.Require().Error(err)
	s.True(IsUniqueViolation(err))
	s.False(IsUniqueViolation(errors.New("other")))
}

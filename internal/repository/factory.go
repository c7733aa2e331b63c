package repository

import (
	"github.com/flexprice/posbilling/internal/database"
	"github.com/flexprice/posbilling/internal/domain/bill"
	"github.com/flexprice/posbilling/internal/domain/ledger"
	"github.com/flexprice/posbilling/internal/logger"
	"github.com/flexprice/posbilling/internal/repository/sqldb"
)

func NewBillRepository(db *database.DB, logger *logger.Logger) bill.Repository {
	return sqldb.NewBillRepository(db, logger)
}

func NewLedgerRepository(db *database.DB, logger *logger.Logger) ledger.Repository {
	return sqldb.NewLedgerRepository(db, logger)
}

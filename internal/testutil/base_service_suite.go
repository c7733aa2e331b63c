package testutil

import (
	"context"
	"time"

	"github.com/flexprice/posbilling/internal/cache"
	"github.com/flexprice/posbilling/internal/config"
	"github.com/flexprice/posbilling/internal/domain/bill"
	"github.com/flexprice/posbilling/internal/domain/ledger"
	"github.com/flexprice/posbilling/internal/logger"
	"github.com/flexprice/posbilling/internal/types"
	"github.com/flexprice/posbilling/internal/validator"
	"github.com/stretchr/testify/suite"
)

// Stores holds all the repository interfaces for testing
type Stores struct {
	BillRepo   bill.Repository
	LedgerRepo ledger.Repository
}

// BaseServiceTestSuite provides common functionality for all service test suites
type BaseServiceTestSuite struct {
	suite.Suite
	ctx    context.Context
	stores Stores
	pubsub *InMemoryPubSub
	cache  cache.Cache
	logger *logger.Logger
	config *config.Configuration
	now    time.Time
}

// SetupSuite is called once before running the tests in the suite
func (s *BaseServiceTestSuite) SetupSuite() {
	validator.NewValidator()

	cfg := config.GetDefaultConfig()
	cfg.Logging.Level = types.LogLevelInfo
	s.config = cfg

	var err error
	s.logger, err = logger.NewLogger(cfg)
	if err != nil {
		s.T().Fatalf("failed to create logger: %v", err)
	}
}

// SetupTest is called before each test
func (s *BaseServiceTestSuite) SetupTest() {
	s.ctx = SetupContext()
	s.stores = Stores{
		BillRepo:   NewInMemoryBillStore(),
		LedgerRepo: NewInMemoryLedgerStore(),
	}
	s.pubsub = NewInMemoryPubSub()
	s.cache = cache.NewInMemoryCache(s.config, s.logger)
	s.now = time.Now().UTC()
}

// TearDownTest is called after each test
func (s *BaseServiceTestSuite) TearDownTest() {
	s.ClearStores()
}

func (s *BaseServiceTestSuite) ClearStores() {
	s.stores.BillRepo.(*InMemoryBillStore).Clear()
	s.stores.LedgerRepo.(*InMemoryLedgerStore).Clear()
	s.pubsub.ClearMessages()
	s.cache.Flush(s.ctx)
}

// GetContext returns the test context
func (s *BaseServiceTestSuite) GetContext() context.Context {
	return s.ctx
}

// GetConfig returns the test configuration
func (s *BaseServiceTestSuite) GetConfig() *config.Configuration {
	return s.config
}

// GetStores returns all test repositories
func (s *BaseServiceTestSuite) GetStores() Stores {
	return s.stores
}

// GetLedgerStore returns the in-memory ledger for failure injection
func (s *BaseServiceTestSuite) GetLedgerStore() *InMemoryLedgerStore {
	return s.stores.LedgerRepo.(*InMemoryLedgerStore)
}

// GetBillStore returns the in-memory bill store
func (s *BaseServiceTestSuite) GetBillStore() *InMemoryBillStore {
	return s.stores.BillRepo.(*InMemoryBillStore)
}

// GetPubSub returns the in-memory event bus
func (s *BaseServiceTestSuite) GetPubSub() *InMemoryPubSub {
	return s.pubsub
}

// GetCache returns the test cache
func (s *BaseServiceTestSuite) GetCache() cache.Cache {
	return s.cache
}

// GetLogger returns the test logger
func (s *BaseServiceTestSuite) GetLogger() *logger.Logger {
	return s.logger
}

// GetNow returns the current test time
func (s *BaseServiceTestSuite) GetNow() time.Time {
	return s.now.UTC()
}

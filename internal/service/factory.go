package service

import (
	"github.com/flexprice/posbilling/internal/cache"
	"github.com/flexprice/posbilling/internal/config"
	"github.com/flexprice/posbilling/internal/domain/bill"
	"github.com/flexprice/posbilling/internal/domain/ledger"
	"github.com/flexprice/posbilling/internal/logger"
	"github.com/flexprice/posbilling/internal/publisher"
	"github.com/flexprice/posbilling/internal/pubsub"
	"github.com/flexprice/posbilling/internal/sequence"
)

// ServiceParams holds common dependencies for services
type ServiceParams struct {
	Logger *logger.Logger
	Config *config.Configuration
	Cache  cache.Cache

	// Repositories
	BillRepo   bill.Repository
	LedgerRepo ledger.Repository

	// Numbering
	Allocator *sequence.Allocator

	// Events
	PubSub         pubsub.PubSub
	EventPublisher publisher.BillEventPublisher
}

// Common service params
func NewServiceParams(
	logger *logger.Logger,
	config *config.Configuration,
	cache cache.Cache,
	billRepo bill.Repository,
	ledgerRepo ledger.Repository,
	allocator *sequence.Allocator,
	pubSub pubsub.PubSub,
	eventPublisher publisher.BillEventPublisher,
) ServiceParams {
	return ServiceParams{
		Logger:         logger,
		Config:         config,
		Cache:          cache,
		BillRepo:       billRepo,
		LedgerRepo:     ledgerRepo,
		Allocator:      allocator,
		PubSub:         pubSub,
		EventPublisher: eventPublisher,
	}
}

// NewSequenceAllocator builds the process wide allocator in the business
// timezone. It reconciles against the ledger and the serials already held
// by bills whose ledger append is still in flight.
func NewSequenceAllocator(
	cfg *config.Configuration,
	ledgerRepo ledger.Repository,
	billRepo bill.Repository,
	logger *logger.Logger,
) (*sequence.Allocator, error) {
	loc, err := cfg.Billing.Location()
	if err != nil {
		return nil, err
	}
	return sequence.NewAllocator(sequence.NewIssuedSerials(ledgerRepo, billRepo), logger,
		sequence.WithLocation(loc),
		sequence.WithLedgerTimeout(cfg.Sequence.LedgerTimeout),
	), nil
}

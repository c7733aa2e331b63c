package service

import (
	"context"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/flexprice/posbilling/internal/domain/bill"
	"github.com/flexprice/posbilling/internal/domain/ledger"
	ierr "github.com/flexprice/posbilling/internal/errors"
	"github.com/flexprice/posbilling/internal/idempotency"
	"github.com/flexprice/posbilling/internal/publisher"
	"github.com/flexprice/posbilling/internal/pubsub/router"
	"github.com/flexprice/posbilling/internal/types"
	"golang.org/x/time/rate"
)

// LedgerSyncService writes finalized bills to the ledger
type LedgerSyncService interface {
	// RegisterHandler subscribes the ledger writer to bill events
	RegisterHandler(r *router.Router)

	// HandleBillEvent appends the bill of a finalized event and ignores
	// every other event
	HandleBillEvent(msg *message.Message) error

	// AppendBill appends a finalized bill. Repeating it is a no-op.
	AppendBill(ctx context.Context, b *bill.Bill) error

	// Replay appends every bill that received a serial in fy. It recovers
	// appends whose event was lost, e.g. across a restart.
	Replay(ctx context.Context, fy types.FiscalYear) (int, error)
}

type ledgerSyncService struct {
	ServiceParams
	idempGen *idempotency.Generator
	limiter  *rate.Limiter
	pageSize int
}

func NewLedgerSyncService(params ServiceParams) LedgerSyncService {
	limit := rate.Inf
	if r := params.Config.LedgerSync.ReplayRate; r > 0 {
		limit = rate.Limit(r)
	}

	return &ledgerSyncService{
		ServiceParams: params,
		idempGen:      idempotency.NewGenerator(),
		limiter:       rate.NewLimiter(limit, 1),
		pageSize:      types.FILTER_MAX_LIMIT,
	}
}

func (s *ledgerSyncService) RegisterHandler(r *router.Router) {
	r.AddNoPublishHandler(
		"ledger_sync_handler",
		types.TopicBillEvents,
		s.PubSub,
		s.HandleBillEvent,
	)
	s.Logger.Infow("registered ledger sync handler", "topic", types.TopicBillEvents)
}

func (s *ledgerSyncService) HandleBillEvent(msg *message.Message) error {
	if msg.Metadata.Get(publisher.MetadataEventType) != string(types.BillEventFinalized) {
		return nil
	}

	event, err := publisher.ParseBillEvent(msg)
	if err != nil {
		// a payload that cannot be decoded will not get better on retry
		s.Logger.Errorw("dropping malformed bill event",
			"message_uuid", msg.UUID,
			"error", err,
		)
		return nil
	}

	return s.AppendBill(msg.Context(), event.Bill)
}

func (s *ledgerSyncService) AppendBill(ctx context.Context, b *bill.Bill) error {
	if b.InvoiceSerial == nil {
		return ierr.NewError("bill has no invoice serial").
			WithHint("Only finalized bills can be written to the ledger").
			WithReportableDetails(map[string]any{
				"bill_id": b.ID,
				"status":  b.Status,
			}).
			Mark(ierr.ErrInvalidTransition)
	}

	key := s.idempGen.GenerateKey(idempotency.ScopeLedgerAppend, map[string]any{
		"bill_id":     b.ID,
		"fiscal_year": b.InvoiceSerial.FiscalYear,
		"serial":      b.InvoiceSerial.Serial,
	})

	entry, err := ledger.NewEntry(b, key)
	if err != nil {
		return err
	}

	if err := s.LedgerRepo.AppendFinalizedInvoice(ctx, entry); err != nil {
		if ierr.IsAlreadyExists(err) {
			s.Logger.Errorw("invoice number already held by another ledger row",
				"bill_id", b.ID,
				"invoice_number", entry.InvoiceNumber,
				"error", err,
			)
		} else {
			s.Logger.Warnw("ledger append failed",
				"bill_id", b.ID,
				"invoice_number", entry.InvoiceNumber,
				"error", err,
			)
		}
		return err
	}

	s.Logger.Infow("appended invoice to ledger",
		"bill_id", b.ID,
		"invoice_number", entry.InvoiceNumber,
		"idempotency_key", key,
	)
	return nil
}

func (s *ledgerSyncService) Replay(ctx context.Context, fy types.FiscalYear) (int, error) {
	if err := fy.Validate(); err != nil {
		return 0, err
	}

	// serials never change once assigned, so paging by serial does not
	// skip bills finalized while the replay runs
	var (
		after    int64
		appended int
	)
	for {
		bills, err := s.BillRepo.ListIssued(ctx, fy, after, s.pageSize)
		if err != nil {
			return appended, err
		}

		for _, b := range bills {
			// the ledger is an external store with request quotas
			if err := s.limiter.Wait(ctx); err != nil {
				return appended, err
			}
			if err := s.AppendBill(ctx, b); err != nil {
				return appended, err
			}
			appended++
			after = b.InvoiceSerial.Serial
		}

		if len(bills) < s.pageSize {
			break
		}
	}

	s.Logger.Infow("replayed finalized bills into ledger",
		"fiscal_year", fy,
		"bills", appended,
	)
	return appended, nil
}

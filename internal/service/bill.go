package service

import (
	"context"
	"time"

	"github.com/flexprice/posbilling/internal/api/dto"
	"github.com/flexprice/posbilling/internal/cache"
	"github.com/flexprice/posbilling/internal/domain/bill"
	ierr "github.com/flexprice/posbilling/internal/errors"
	"github.com/flexprice/posbilling/internal/publisher"
	"github.com/flexprice/posbilling/internal/types"
	"github.com/samber/lo"
	"golang.org/x/sync/singleflight"
)

type BillService interface {
	CreateDraft(ctx context.Context, req dto.CreateBillRequest) (*dto.BillResponse, error)
	GetBill(ctx context.Context, id string) (*dto.BillResponse, error)
	ListBills(ctx context.Context, filter *types.BillFilter) (*dto.ListBillsResponse, error)
	UpdateDraft(ctx context.Context, id string, req dto.UpdateBillRequest) (*dto.BillResponse, error)
	UpdateDetails(ctx context.Context, id string, req dto.BillDetailsRequest) (*dto.BillResponse, error)
	FinalizeBill(ctx context.Context, id string, req dto.FinalizeBillRequest) (*dto.BillResponse, error)
	MarkPrinted(ctx context.Context, id string) (*dto.BillResponse, error)
	VoidBill(ctx context.Context, id string, req dto.VoidBillRequest) (*dto.BillResponse, error)
}

type billService struct {
	ServiceParams
	locks *keyedMutex
	group singleflight.Group
	now   func() time.Time
}

func NewBillService(params ServiceParams) BillService {
	return &billService{
		ServiceParams: params,
		locks:         newKeyedMutex(),
		now:           time.Now,
	}
}

func (s *billService) CreateDraft(ctx context.Context, req dto.CreateBillRequest) (*dto.BillResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	taxRate, err := s.Config.Billing.TaxRate()
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("Default tax rate is misconfigured").
			Mark(ierr.ErrSystem)
	}

	b, err := bill.NewDraft(ctx, req.ToDraftParams(taxRate))
	if err != nil {
		return nil, err
	}

	if err := s.BillRepo.Create(ctx, b); err != nil {
		return nil, err
	}

	s.Logger.Infow("created draft bill",
		"bill_id", b.ID,
		"receipt_code", b.ReceiptCode,
		"lines", len(b.Lines),
		"grand_total", b.Totals.GrandTotal.String(),
	)

	s.publish(ctx, types.BillEventCreated, b)
	return dto.NewBillResponse(b), nil
}

func (s *billService) GetBill(ctx context.Context, id string) (*dto.BillResponse, error) {
	if id == "" {
		return nil, ierr.NewError("bill_id is required").
			WithHint("Bill ID is required").
			Mark(ierr.ErrValidation)
	}

	key := cache.GenerateKey(cache.PrefixBill, id)
	if cached, found := s.Cache.Get(ctx, key); found {
		if b, ok := cached.(*bill.Bill); ok {
			return dto.NewBillResponse(b.Copy()), nil
		}
	}

	v, err, _ := s.group.Do(key, func() (any, error) {
		// a writer deletes the key under this lock, so a copy loaded here
		// can never land in the cache after a newer write
		unlock := s.locks.Lock(id)
		defer unlock()

		b, err := s.BillRepo.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		s.Cache.Set(ctx, key, b.Copy(), 0)
		return b, nil
	})
	if err != nil {
		return nil, err
	}
	return dto.NewBillResponse(v.(*bill.Bill).Copy()), nil
}

func (s *billService) ListBills(ctx context.Context, filter *types.BillFilter) (*dto.ListBillsResponse, error) {
	if filter == nil {
		filter = types.NewDefaultBillFilter()
	}
	if err := filter.Validate(); err != nil {
		return nil, err
	}

	bills, err := s.BillRepo.List(ctx, filter)
	if err != nil {
		return nil, err
	}

	total, err := s.BillRepo.Count(ctx, filter)
	if err != nil {
		return nil, err
	}

	items := lo.Map(bills, func(b *bill.Bill, _ int) *dto.BillResponse {
		return dto.NewBillResponse(b)
	})
	resp := types.NewListResponse(items, total, filter.GetLimit(), filter.GetOffset())
	return &resp, nil
}

func (s *billService) UpdateDraft(ctx context.Context, id string, req dto.UpdateBillRequest) (*dto.BillResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	taxRate, err := s.Config.Billing.TaxRate()
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("Default tax rate is misconfigured").
			Mark(ierr.ErrSystem)
	}

	return s.mutate(ctx, id, "", func(b *bill.Bill) (bool, error) {
		return true, b.Revise(req.ToDraftParams(taxRate))
	})
}

func (s *billService) UpdateDetails(ctx context.Context, id string, req dto.BillDetailsRequest) (*dto.BillResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	return s.mutate(ctx, id, "", func(b *bill.Bill) (bool, error) {
		return true, b.UpdateDetails(req.ToDetails())
	})
}

// FinalizeBill assigns the next invoice serial to a draft. The per-bill
// lock is held from load to persist so one draft never consumes two
// serials. The serial is only requested once the draft passed its checks.
func (s *billService) FinalizeBill(ctx context.Context, id string, req dto.FinalizeBillRequest) (*dto.BillResponse, error) {
	unlock := s.locks.Lock(id)
	defer unlock()

	b, err := s.BillRepo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := b.CanFinalize(); err != nil {
		return nil, err
	}

	totals, err := bill.ComputeTotals(b.TotalsInput())
	if err != nil {
		return nil, err
	}

	serial, err := s.Allocator.Next(ctx, lo.FromPtr(req.Date))
	if err != nil {
		s.Logger.Warnw("could not allocate invoice serial, bill stays draft",
			"bill_id", b.ID,
			"error", err,
		)
		return nil, err
	}

	if err := b.Finalize(serial, *totals, s.now().UTC()); err != nil {
		return nil, err
	}

	if err := s.BillRepo.Update(ctx, b); err != nil {
		// the serial is spent; it will show up as a gap in the ledger
		s.Logger.Errorw("invoice serial issued but bill could not be saved",
			"bill_id", b.ID,
			"invoice_number", serial.String(),
			"error", err,
		)
		return nil, err
	}
	s.Cache.Delete(ctx, cache.GenerateKey(cache.PrefixBill, id))

	s.Logger.Infow("finalized bill",
		"bill_id", b.ID,
		"invoice_number", b.InvoiceNumber(),
		"fiscal_year", serial.FiscalYear,
		"serial", serial.Serial,
		"grand_total", b.Totals.GrandTotal.String(),
	)

	s.publish(ctx, types.BillEventFinalized, b)
	return dto.NewBillResponse(b), nil
}

func (s *billService) MarkPrinted(ctx context.Context, id string) (*dto.BillResponse, error) {
	return s.mutate(ctx, id, types.BillEventPrinted, func(b *bill.Bill) (bool, error) {
		return b.MarkPrinted(s.now().UTC())
	})
}

func (s *billService) VoidBill(ctx context.Context, id string, req dto.VoidBillRequest) (*dto.BillResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	return s.mutate(ctx, id, types.BillEventVoided, func(b *bill.Bill) (bool, error) {
		return true, b.Void(req.Reason, s.now().UTC())
	})
}

// mutate loads the bill under its lock, applies fn and persists the result
// when fn reports a change. An event is published when eventType is set.
func (s *billService) mutate(
	ctx context.Context,
	id string,
	eventType types.BillEventType,
	fn func(b *bill.Bill) (bool, error),
) (*dto.BillResponse, error) {
	unlock := s.locks.Lock(id)
	defer unlock()

	b, err := s.BillRepo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	changed, err := fn(b)
	if err != nil {
		return nil, err
	}
	if !changed {
		return dto.NewBillResponse(b), nil
	}

	if err := s.BillRepo.Update(ctx, b); err != nil {
		return nil, err
	}
	s.Cache.Delete(ctx, cache.GenerateKey(cache.PrefixBill, id))

	s.Logger.Infow("updated bill",
		"bill_id", b.ID,
		"status", b.Status,
		"version", b.Version,
	)

	if eventType != "" {
		s.publish(ctx, eventType, b)
	}
	return dto.NewBillResponse(b), nil
}

// publish is best effort: the transition is already persisted and the
// ledger replay picks up finalized bills whose event was lost
func (s *billService) publish(ctx context.Context, eventType types.BillEventType, b *bill.Bill) {
	if s.EventPublisher == nil {
		return
	}
	if err := s.EventPublisher.Publish(ctx, publisher.NewBillEvent(ctx, eventType, b)); err != nil {
		s.Logger.Errorw("failed to publish bill event",
			"bill_id", b.ID,
			"event_type", eventType,
			"error", err,
		)
	}
}

package publisher

import (
	"context"
	"encoding/json"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/flexprice/posbilling/internal/domain/bill"
	ierr "github.com/flexprice/posbilling/internal/errors"
	"github.com/flexprice/posbilling/internal/idempotency"
	"github.com/flexprice/posbilling/internal/types"
)

// Message metadata keys
const (
	MetadataEventType = "event_type"
	MetadataBillID    = "bill_id"
	MetadataRequestID = "request_id"
)

// BillEvent is published after a bill transition has been persisted. It
// carries the bill as it was stored so consumers never read it back.
type BillEvent struct {
	ID            string              `json:"id"`
	Type          types.BillEventType `json:"type"`
	BillID        string              `json:"bill_id"`
	InvoiceNumber string              `json:"invoice_number,omitempty"`
	RequestID     string              `json:"request_id,omitempty"`
	Timestamp     time.Time           `json:"timestamp"`
	Bill          *bill.Bill          `json:"bill"`
}

// NewBillEvent builds the event of a transition. The ID is derived from the
// bill version, so publishing the same transition twice yields the same ID.
func NewBillEvent(ctx context.Context, eventType types.BillEventType, b *bill.Bill) *BillEvent {
	id := idempotency.NewGenerator().GenerateKey(idempotency.ScopeBillEvent, map[string]any{
		"bill_id": b.ID,
		"type":    eventType,
		"version": b.Version,
	})

	return &BillEvent{
		ID:            id,
		Type:          eventType,
		BillID:        b.ID,
		InvoiceNumber: b.InvoiceNumber(),
		RequestID:     types.GetRequestID(ctx),
		Timestamp:     time.Now().UTC(),
		Bill:          b.Copy(),
	}
}

// ToMessage encodes the event as a watermill message
func (e *BillEvent) ToMessage() (*message.Message, error) {
	payload, err := json.Marshal(e)
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to encode bill event").
			Mark(ierr.ErrSystem)
	}

	msg := message.NewMessage(e.ID, payload)
	msg.Metadata.Set(MetadataEventType, string(e.Type))
	msg.Metadata.Set(MetadataBillID, e.BillID)
	if e.RequestID != "" {
		msg.Metadata.Set(MetadataRequestID, e.RequestID)
	}
	return msg, nil
}

// ParseBillEvent decodes a message produced by ToMessage
func ParseBillEvent(msg *message.Message) (*BillEvent, error) {
	var event BillEvent
	if err := json.Unmarshal(msg.Payload, &event); err != nil {
		return nil, ierr.WithError(err).
			WithHint("Bill event payload is malformed").
			WithReportableDetails(map[string]any{
				"message_uuid": msg.UUID,
			}).
			Mark(ierr.ErrValidation)
	}
	if event.Bill == nil || event.BillID == "" {
		return nil, ierr.NewError("bill event without bill").
			WithHint("Bill event payload is incomplete").
			WithReportableDetails(map[string]any{
				"message_uuid": msg.UUID,
			}).
			Mark(ierr.ErrValidation)
	}
	return &event, nil
}

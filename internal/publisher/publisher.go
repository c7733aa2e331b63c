package publisher

import (
	"context"

	"github.com/flexprice/posbilling/internal/logger"
	"github.com/flexprice/posbilling/internal/pubsub"
	"github.com/flexprice/posbilling/internal/types"
)

// BillEventPublisher emits bill transitions on the event bus
type BillEventPublisher interface {
	Publish(ctx context.Context, event *BillEvent) error
}

type billEventPublisher struct {
	pubSub pubsub.Publisher
	topic  string
	logger *logger.Logger
}

// NewBillEventPublisher creates a publisher writing to the bill events topic
func NewBillEventPublisher(pubSub pubsub.PubSub, logger *logger.Logger) BillEventPublisher {
	return &billEventPublisher{
		pubSub: pubSub,
		topic:  types.TopicBillEvents,
		logger: logger,
	}
}

func (p *billEventPublisher) Publish(ctx context.Context, event *BillEvent) error {
	msg, err := event.ToMessage()
	if err != nil {
		return err
	}

	p.logger.Debugw("publishing bill event",
		"event_id", event.ID,
		"event_type", event.Type,
		"bill_id", event.BillID,
		"topic", p.topic,
	)

	if err := p.pubSub.Publish(ctx, p.topic, msg); err != nil {
		p.logger.Errorw("failed to publish bill event",
			"error", err,
			"event_id", event.ID,
			"event_type", event.Type,
			"bill_id", event.BillID,
		)
		return err
	}

	p.logger.Infow("published bill event",
		"event_id", event.ID,
		"event_type", event.Type,
		"bill_id", event.BillID,
		"invoice_number", event.InvoiceNumber,
	)
	return nil
}

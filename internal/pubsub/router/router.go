package router

import (
	"context"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/flexprice/posbilling/internal/config"
	"github.com/flexprice/posbilling/internal/logger"
	"github.com/flexprice/posbilling/internal/sentry"
	"github.com/flexprice/posbilling/internal/types"
)

// DeadLetterTopic receives messages whose handler kept failing
const DeadLetterTopic = types.TopicBillEvents + "_dlq"

// MetadataPoisonedHandler names the handler that gave up on a message
const MetadataPoisonedHandler = "handler_poisoned"

// Router dispatches bus messages to handlers with retries and a dead
// letter queue
type Router struct {
	router *message.Router
	logger *logger.Logger
	sentry *sentry.Service
	dlq    *gochannel.GoChannel
}

// NewRouter creates a message router. Handler failures are retried with
// the ledger sync policy before the message is parked on the dead letter
// topic.
func NewRouter(cfg *config.Configuration, log *logger.Logger, sentry *sentry.Service) (*Router, error) {
	wmLogger := watermill.NewStdLogger(cfg.Logging.Level == types.LogLevelDebug, false)

	router, err := message.NewRouter(message.RouterConfig{}, wmLogger)
	if err != nil {
		return nil, err
	}

	dlq := gochannel.NewGoChannel(gochannel.Config{Persistent: true}, wmLogger)
	poisonQueue, err := middleware.PoisonQueue(dlq, DeadLetterTopic)
	if err != nil {
		return nil, err
	}

	retry := cfg.LedgerSync
	router.AddMiddleware(
		poisonQueue,
		middleware.Recoverer,
		middleware.CorrelationID,
		middleware.Retry{
			MaxRetries:          retry.MaxRetries,
			InitialInterval:     retry.InitialInterval,
			MaxInterval:         retry.MaxInterval,
			Multiplier:          retry.Multiplier,
			MaxElapsedTime:      retry.MaxElapsedTime,
			RandomizationFactor: 0.5,
			Logger:              wmLogger,
			OnRetryHook: func(retryNum int, delay time.Duration) {
				log.Infow("retrying message",
					"retry_number", retryNum,
					"max_retries", retry.MaxRetries,
					"delay", delay,
				)
			},
		}.Middleware,
	)

	return &Router{
		router: router,
		logger: log,
		sentry: sentry,
		dlq:    dlq,
	}, nil
}

// AddNoPublishHandler registers a handler that consumes without producing
func (r *Router) AddNoPublishHandler(
	handlerName string,
	topicName string,
	subscriber message.Subscriber,
	handlerFunc func(msg *message.Message) error,
	middlewares ...message.HandlerMiddleware,
) {
	handler := r.router.AddNoPublisherHandler(
		handlerName,
		topicName,
		subscriber,
		func(msg *message.Message) error {
			err := handlerFunc(msg)
			if err == nil {
				return nil
			}

			r.sentry.CaptureException(err)
			r.logger.Errorw("handler failed",
				"handler", handlerName,
				"error", err,
				"correlation_id", middleware.MessageCorrelationID(msg),
				"message_uuid", msg.UUID,
			)

			if shouldRetry(r.logger, err) {
				return err
			}
			// retrying cannot help, park it right away
			return r.poison(msg, handlerName, err)
		},
	)

	for _, m := range middlewares {
		handler.AddMiddleware(m)
	}
}

func (r *Router) poison(msg *message.Message, handlerName string, cause error) error {
	r.sentry.AddBreadcrumb("pubsub", "message parked without retry", map[string]any{
		"handler":      handlerName,
		"message_uuid": msg.UUID,
	})

	dead := msg.Copy()
	dead.Metadata.Set(middleware.ReasonForPoisonedKey, cause.Error())
	dead.Metadata.Set(MetadataPoisonedHandler, handlerName)
	return r.dlq.Publish(DeadLetterTopic, dead)
}

// DeadLetters subscribes to messages that exhausted their retries
func (r *Router) DeadLetters(ctx context.Context) (<-chan *message.Message, error) {
	return r.dlq.Subscribe(ctx, DeadLetterTopic)
}

// Running is closed once all handlers are subscribed
func (r *Router) Running() chan struct{} {
	return r.router.Running()
}

// Run blocks until the router is closed
func (r *Router) Run(ctx context.Context) error {
	r.logger.Info("starting message router")
	return r.router.Run(ctx)
}

// Close gracefully shuts down the router
func (r *Router) Close() error {
	r.logger.Info("closing message router")
	return r.router.Close()
}

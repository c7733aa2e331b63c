package router

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"
	"github.com/flexprice/posbilling/internal/config"
	ierr "github.com/flexprice/posbilling/internal/errors"
	"github.com/flexprice/posbilling/internal/logger"
	"github.com/flexprice/posbilling/internal/pubsub"
	"github.com/flexprice/posbilling/internal/pubsub/memory"
	"github.com/flexprice/posbilling/internal/sentry"
	"github.com/flexprice/posbilling/internal/types"
	"github.com/stretchr/testify/require"
)

type harness struct {
	router *Router
	bus    pubsub.PubSub
	calls  atomic.Int32
}

func newHarness(t *testing.T, handler func(calls int32) error) *harness {
	t.Helper()

	cfg := config.GetDefaultConfig()
	log := logger.NewNoopLogger()

	h := &harness{bus: memory.NewPubSub(cfg, log)}
	r, err := NewRouter(cfg, log, sentry.NewSentryService(cfg, log))
	require.NoError(t, err)
	h.router = r

	r.AddNoPublishHandler("test_handler", types.TopicBillEvents, h.bus, func(msg *message.Message) error {
		return handler(h.calls.Add(1))
	})

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		_ = r.Run(ctx)
	}()
	<-r.Running()

	t.Cleanup(func() {
		cancel()
		_ = r.Close()
		_ = h.bus.Close()
	})
	return h
}

func (h *harness) publish(t *testing.T) string {
	t.Helper()
	msg := message.NewMessage(watermill.NewUUID(), []byte(`{}`))
	require.NoError(t, h.bus.Publish(context.Background(), types.TopicBillEvents, msg))
	return msg.UUID
}

func (h *harness) nextDeadLetter(t *testing.T) *message.Message {
	t.Helper()
	ch, err := h.router.DeadLetters(context.Background())
	require.NoError(t, err)

	select {
	case msg := <-ch:
		msg.Ack()
		return msg
	case <-time.After(3 * time.Second):
		t.Fatal("no message reached the dead letter topic")
		return nil
	}
}

func TestTransientErrorsAreRetried(t *testing.T) {
	h := newHarness(t, func(calls int32) error {
		if calls < 3 {
			return ierr.NewError("ledger down").Mark(ierr.ErrLedgerUnavailable)
		}
		return nil
	})

	h.publish(t)

	require.Eventually(t, func() bool {
		return h.calls.Load() == 3
	}, 3*time.Second, 10*time.Millisecond)
}

func TestPermanentErrorsSkipRetries(t *testing.T) {
	h := newHarness(t, func(int32) error {
		return ierr.NewError("serial taken").Mark(ierr.ErrAlreadyExists)
	})

	id := h.publish(t)

	dead := h.nextDeadLetter(t)
	require.Equal(t, id, dead.UUID)
	require.Equal(t, "test_handler", dead.Metadata.Get(MetadataPoisonedHandler))
	require.NotEmpty(t, dead.Metadata.Get(middleware.ReasonForPoisonedKey))
	require.Equal(t, int32(1), h.calls.Load())
}

func TestExhaustedRetriesArePoisoned(t *testing.T) {
	h := newHarness(t, func(int32) error {
		return errors.New("connection reset")
	})

	id := h.publish(t)

	dead := h.nextDeadLetter(t)
	require.Equal(t, id, dead.UUID)
	// first attempt plus the configured retries
	require.Equal(t, int32(config.GetDefaultConfig().LedgerSync.MaxRetries+1), h.calls.Load())
}

func TestShouldRetry(t *testing.T) {
	log := logger.NewNoopLogger()

	require.True(t, shouldRetry(log, errors.New("boom")))
	require.True(t, shouldRetry(log, ierr.NewError("down").Mark(ierr.ErrLedgerUnavailable)))
	require.False(t, shouldRetry(log, ierr.NewError("bad").Mark(ierr.ErrValidation)))
	require.False(t, shouldRetry(log, ierr.NewError("gone").Mark(ierr.ErrNotFound)))
	require.False(t, shouldRetry(log, ierr.NewError("draft").Mark(ierr.ErrInvalidTransition)))
}

package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/spec-kit/maintenance-service/internal/events"
)

// TxRunner runs a function inside one database transaction. Satisfied by
// persistence.TxManager.
type TxRunner interface {
	InTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// nopTxRunner executes the function directly. Used when no transactional
// backend is wired, e.g. in tests against in-memory repositories.
type nopTxRunner struct{}

func (nopTxRunner) InTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func publish(ctx context.Context, dispatcher events.Dispatcher, event events.Event) {
	if dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	_ = dispatcher.Publish(ctx, event)
}

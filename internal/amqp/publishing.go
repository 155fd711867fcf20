package amqp

import (
	"context"

	"tracker/internal/core"
	"tracker/internal/log"
	"tracker/internal/store"
)

type Publisher interface {
	PublishTransactionCreated(ctx context.Context, rec store.Record) error
}

// PublishingBackend announces every successful create. A failed publish is
// logged and the create still succeeds.
type PublishingBackend struct {
	store.Backend
	publisher Publisher
	logger    *log.Logger
}

func NewPublishingBackend(backend store.Backend, p Publisher, logger *log.Logger) *PublishingBackend {
	if logger == nil {
		logger = log.Discard()
	}
	return &PublishingBackend{
		Backend:   backend,
		publisher: p,
		logger:    logger.WithComponent(log.ComponentAMQP),
	}
}

func (b *PublishingBackend) Create(ctx context.Context, t core.Transaction) (store.Record, error) {
	rec, err := b.Backend.Create(ctx, t)
	if err != nil {
		return rec, err
	}
	if err := b.publisher.PublishTransactionCreated(ctx, rec); err != nil {
		b.logger.ErrorContext(ctx, "Failed to publish transaction created message",
			log.FieldOperation, log.OpPublish,
			log.FieldID, rec.ID,
			log.FieldError, err)
	}
	return rec, nil
}

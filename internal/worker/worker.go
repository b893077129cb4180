package worker

import (
	"context"
	"encoding/json"
	"fmt"

	"ielts-payments/internal/broker"
	"ielts-payments/internal/models"
	"ielts-payments/internal/util"

	"go.uber.org/zap"
)

// EventStore persists audited payment events
type EventStore interface {
	IsEventProcessed(ctx context.Context, eventID string) (bool, error)
	RecordEvent(ctx context.Context, event *models.ProcessedEvent) error
}

// AuditWorker consumes payment events and writes each one once to the
// payment_events audit table.
type AuditWorker struct {
	consumer     *broker.Consumer
	eventHandler *broker.EventHandler
	store        EventStore
	logger       *zap.Logger
}

// NewAuditWorker creates a new audit worker
func NewAuditWorker(consumer *broker.Consumer, store EventStore) *AuditWorker {
	w := &AuditWorker{
		consumer:     consumer,
		eventHandler: broker.NewEventHandler(),
		store:        store,
		logger:       util.GetLogger(),
	}

	w.eventHandler.OnTransactionCreated(func(ctx context.Context, e *models.TransactionCreatedEvent) error {
		return w.record(ctx, e.BaseEvent, e.OrderID, e)
	})
	w.eventHandler.OnOrderPaid(func(ctx context.Context, e *models.OrderPaidEvent) error {
		return w.record(ctx, e.BaseEvent, e.OrderID, e)
	})
	w.eventHandler.OnOrderCancelled(func(ctx context.Context, e *models.OrderCancelledEvent) error {
		return w.record(ctx, e.BaseEvent, e.OrderID, e)
	})

	return w
}

// Handler exposes the message router, for consumers other than the worker's own
func (w *AuditWorker) Handler() broker.MessageHandler {
	return w.eventHandler.HandleMessage
}

// Start starts the worker
func (w *AuditWorker) Start(ctx context.Context) error {
	w.logger.Info("Starting audit worker")
	return w.consumer.StartConsuming(ctx, w.eventHandler.HandleMessage)
}

// Stop stops the worker
func (w *AuditWorker) Stop() error {
	w.logger.Info("Stopping audit worker")
	return w.consumer.Close()
}

func (w *AuditWorker) record(ctx context.Context, base models.BaseEvent, orderID string, event interface{}) error {
	ctx, span := util.StartSpan(ctx, "AuditWorker.record")
	defer span.End()

	processed, err := w.store.IsEventProcessed(ctx, base.EventID)
	if err != nil {
		util.RecordError(span, err)
		return fmt.Errorf("failed to check event %s: %w", base.EventID, err)
	}
	if processed {
		w.logger.Debug("Event already audited", zap.String("event_id", base.EventID))
		return nil
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event %s: %w", base.EventID, err)
	}

	if err := w.store.RecordEvent(ctx, &models.ProcessedEvent{
		EventID:   base.EventID,
		EventType: base.EventType,
		OrderID:   orderID,
		Payload:   payload,
	}); err != nil {
		util.RecordError(span, err)
		return fmt.Errorf("failed to record event %s: %w", base.EventID, err)
	}

	w.logger.Info("Event audited",
		zap.String("event_id", base.EventID),
		zap.String("event_type", base.EventType),
		zap.String("order_id", orderID))
	return nil
}

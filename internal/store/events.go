package store

import (
	"context"

	"ielts-payments/internal/models"
)

// IsEventProcessed checks if an event has been processed
func (s *Store) IsEventProcessed(ctx context.Context, eventID string) (bool, error) {
	var exists bool
	err := s.db.GetContext(ctx, &exists,
		"SELECT EXISTS(SELECT 1 FROM payment_events WHERE event_id = $1)", eventID)
	return exists, err
}

// RecordEvent stores an audited event; replays of the same event id are ignored
func (s *Store) RecordEvent(ctx context.Context, event *models.ProcessedEvent) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO payment_events (event_id, event_type, order_id, payload)
		VALUES ($1, $2, $3, $4) ON CONFLICT (event_id) DO NOTHING`,
		event.EventID, event.EventType, event.OrderID, event.Payload)
	return err
}

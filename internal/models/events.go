package models

import "time"

// Event types
const (
	EventTypeTransactionCreated = "PAYME_TRANSACTION_CREATED"
	EventTypeOrderPaid          = "ORDER_PAID"
	EventTypeOrderCancelled     = "ORDER_CANCELLED"
)

// BaseEvent contains common fields for all events
type BaseEvent struct {
	EventID   string    `json:"event_id"`
	EventType string    `json:"event_type"`
	Timestamp time.Time `json:"timestamp"`
}

// TransactionCreatedEvent published when Payme opens a transaction for an order
type TransactionCreatedEvent struct {
	BaseEvent
	OrderID    string `json:"order_id"`
	PaymeID    string `json:"payme_id"`
	Amount     int64  `json:"amount"`
	CreateTime int64  `json:"create_time"`
}

// OrderPaidEvent published when a transaction is performed and the order fulfilled
type OrderPaidEvent struct {
	BaseEvent
	OrderID     string `json:"order_id"`
	UserID      int64  `json:"user_id"`
	Kind        string `json:"kind"`
	PaymeID     string `json:"payme_id"`
	Amount      int64  `json:"amount"`
	PerformTime int64  `json:"perform_time"`
}

// OrderCancelledEvent published when Payme cancels a transaction
type OrderCancelledEvent struct {
	BaseEvent
	OrderID    string           `json:"order_id"`
	PaymeID    string           `json:"payme_id"`
	State      TransactionState `json:"state"`
	Reason     *int             `json:"reason,omitempty"`
	CancelTime int64            `json:"cancel_time"`
}

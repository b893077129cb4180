package models

import "time"

// TransactionState is the Payme state of a merchant transaction.
type TransactionState int

const (
	StateCreated                   TransactionState = 1
	StateCompleted                 TransactionState = 2
	StateCancelledBeforeCompletion TransactionState = -1
	StateCancelledAfterCompletion  TransactionState = -2
)

// IsCancelled reports whether the state is one of the two cancelled states.
func (s TransactionState) IsCancelled() bool {
	return s == StateCancelledBeforeCompletion || s == StateCancelledAfterCompletion
}

// Cancel reasons sent by Payme in CancelTransaction.
const (
	ReasonReceiverNotFound = 1
	ReasonProcessingError  = 2
	ReasonExecutionError   = 3
	ReasonTimeout          = 4
	ReasonRefund           = 5
	ReasonUnknown          = 10
)

// PaymeTransaction is one gateway attempt to pay an Order.
// Timestamps are milliseconds since epoch; zero means "not happened".
type PaymeTransaction struct {
	ID          int64            `db:"id" json:"id"`
	PaymeID     string           `db:"payme_id" json:"payme_id"`
	OrderRef    int64            `db:"order_ref" json:"-"`
	OrderID     string           `db:"order_id" json:"order_id"`
	State       TransactionState `db:"state" json:"state"`
	Amount      int64            `db:"amount" json:"amount"`
	PaymeTime   int64            `db:"payme_time" json:"payme_time"`
	CreateTime  int64            `db:"create_time" json:"create_time"`
	PerformTime int64            `db:"perform_time" json:"perform_time"`
	CancelTime  int64            `db:"cancel_time" json:"cancel_time"`
	Reason      *int             `db:"reason" json:"reason,omitempty"`
	CreatedAt   time.Time        `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time        `db:"updated_at" json:"updated_at"`
}

// TimedOut reports whether a created transaction has outlived timeout at nowMS.
func (t *PaymeTransaction) TimedOut(nowMS int64, timeout time.Duration) bool {
	return t.State == StateCreated && nowMS-t.CreateTime > timeout.Milliseconds()
}

// Millis converts a time to Payme milliseconds.
func Millis(t time.Time) int64 {
	return t.UnixMilli()
}

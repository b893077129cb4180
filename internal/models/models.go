package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Order kinds
const (
	OrderKindSubscription   = "subscription"
	OrderKindAttemptPackage = "attempt_package"
)

// Order statuses
const (
	OrderStatusPending   = "pending"
	OrderStatusPaid      = "paid"
	OrderStatusCancelled = "cancelled"
	OrderStatusExpired   = "expired"
)

// Order is a purchase intent created before the user is sent to Payme.
type Order struct {
	ID             int64           `db:"id" json:"-"`
	OrderID        string          `db:"order_id" json:"order_id"`
	UserID         int64           `db:"user_id" json:"user_id"`
	Kind           string          `db:"kind" json:"kind"`
	PlanID         *int64          `db:"plan_id" json:"plan_id,omitempty"`
	PackageID      *int64          `db:"package_id" json:"package_id,omitempty"`
	Amount         decimal.Decimal `db:"amount" json:"amount"`
	Status         string          `db:"status" json:"status"`
	IdempotencyKey *string         `db:"idempotency_key" json:"-"`
	CreatedAt      time.Time       `db:"created_at" json:"created_at"`
	ExpiresAt      time.Time       `db:"expires_at" json:"expires_at"`
	PaidAt         *time.Time      `db:"paid_at" json:"paid_at,omitempty"`
}

// IsExpired reports whether a pending order has outlived its expiry at now.
func (o *Order) IsExpired(now time.Time) bool {
	return o.Status == OrderStatusPending && !now.Before(o.ExpiresAt)
}

// AmountMinor returns the order amount in minor currency units.
func (o *Order) AmountMinor() int64 {
	return ToMinor(o.Amount)
}

// Plan periods
const (
	PeriodMonthly = "monthly"
	PeriodYearly  = "yearly"
)

// Unlimited marks an allowance that is checked dynamically, never materialized as balance.
const Unlimited = -1

// Plan is a subscription catalog item.
type Plan struct {
	ID                int64           `db:"id" json:"id"`
	Name              string          `db:"name" json:"name"`
	Period            string          `db:"period" json:"period"`
	Price             decimal.Decimal `db:"price" json:"price"`
	WritingAttempts   int             `db:"writing_attempts" json:"writing_attempts"`
	SpeakingAttempts  int             `db:"speaking_attempts" json:"speaking_attempts"`
	ReadingAttempts   int             `db:"reading_attempts" json:"reading_attempts"`
	ListeningAttempts int             `db:"listening_attempts" json:"listening_attempts"`
	IsActive          bool            `db:"is_active" json:"is_active"`
}

// PeriodDays returns the subscription length granted by one purchase.
func (p *Plan) PeriodDays() int {
	if p.Period == PeriodYearly {
		return 365
	}
	return 30
}

// Attempt package types
const (
	PackageTypeMixed     = "mixed"
	PackageTypeWriting   = "writing"
	PackageTypeSpeaking  = "speaking"
	PackageTypeReading   = "reading"
	PackageTypeListening = "listening"
)

// AttemptPackage is a one-off bundle of attempt credits.
type AttemptPackage struct {
	ID                int64           `db:"id" json:"id"`
	Name              string          `db:"name" json:"name"`
	Type              string          `db:"type" json:"type"`
	Attempts          int             `db:"attempts" json:"attempts"`
	WritingAttempts   int             `db:"writing_attempts" json:"writing_attempts"`
	SpeakingAttempts  int             `db:"speaking_attempts" json:"speaking_attempts"`
	ReadingAttempts   int             `db:"reading_attempts" json:"reading_attempts"`
	ListeningAttempts int             `db:"listening_attempts" json:"listening_attempts"`
	Price             decimal.Decimal `db:"price" json:"price"`
	IsActive          bool            `db:"is_active" json:"is_active"`
}

// Subscription statuses
const (
	SubscriptionStatusActive   = "active"
	SubscriptionStatusExpired  = "expired"
	SubscriptionStatusCanceled = "canceled"
)

// Subscription is the single subscription record a user owns.
type Subscription struct {
	ID        int64     `db:"id" json:"id"`
	UserID    int64     `db:"user_id" json:"user_id"`
	PlanID    *int64    `db:"plan_id" json:"plan_id,omitempty"`
	Status    string    `db:"status" json:"status"`
	StartsAt  time.Time `db:"starts_at" json:"starts_at"`
	ExpiresAt time.Time `db:"expires_at" json:"expires_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// IsValid reports whether the subscription is active and unexpired at now.
func (s *Subscription) IsValid(now time.Time) bool {
	return s.Status == SubscriptionStatusActive && now.Before(s.ExpiresAt)
}

// AttemptBalance holds the remaining attempt credits of a user.
type AttemptBalance struct {
	UserID    int64     `db:"user_id" json:"user_id"`
	Writing   int       `db:"writing" json:"writing"`
	Speaking  int       `db:"speaking" json:"speaking"`
	Reading   int       `db:"reading" json:"reading"`
	Listening int       `db:"listening" json:"listening"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// AttemptCredit is an additive change to an AttemptBalance.
type AttemptCredit struct {
	Writing   int
	Speaking  int
	Reading   int
	Listening int
}

// IsZero reports whether the credit changes nothing.
func (c AttemptCredit) IsZero() bool {
	return c.Writing == 0 && c.Speaking == 0 && c.Reading == 0 && c.Listening == 0
}

// ProcessedEvent is an audited payment event, keyed by event id for idempotency.
type ProcessedEvent struct {
	EventID     string    `db:"event_id"`
	EventType   string    `db:"event_type"`
	OrderID     string    `db:"order_id"`
	Payload     []byte    `db:"payload"`
	ProcessedAt time.Time `db:"processed_at"`
}

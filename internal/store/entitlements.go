package store

import (
	"context"
	"fmt"

	"ielts-payments/internal/models"
)

// subscriptionLockSpace namespaces the per-user advisory locks taken by
// LockSubscription.
const subscriptionLockSpace int32 = 0x5355

// userLockKey folds a user id into the int4 key of the two-key advisory lock.
func userLockKey(userID int64) int32 {
	return int32(userID ^ (userID >> 32))
}

// GetAttemptBalance retrieves the attempt balance of a user
func (s *Store) GetAttemptBalance(ctx context.Context, userID int64) (*models.AttemptBalance, error) {
	var bal models.AttemptBalance
	err := s.db.GetContext(ctx, &bal,
		"SELECT user_id, writing, speaking, reading, listening, updated_at FROM attempt_balances WHERE user_id = $1",
		userID)
	if err != nil {
		return nil, notFound(err, "attempt balance for user %d", userID)
	}
	return &bal, nil
}

// GetSubscription retrieves the subscription of a user
func (s *Store) GetSubscription(ctx context.Context, userID int64) (*models.Subscription, error) {
	var sub models.Subscription
	err := s.db.GetContext(ctx, &sub,
		"SELECT id, user_id, plan_id, status, starts_at, expires_at, updated_at FROM subscriptions WHERE user_id = $1",
		userID)
	if err != nil {
		return nil, notFound(err, "subscription for user %d", userID)
	}
	return &sub, nil
}

// LockSubscription serializes subscription writers of one user until the
// transaction ends. The advisory lock covers users without a row yet, where
// FOR UPDATE has nothing to hold.
func (t *pgTx) LockSubscription(ctx context.Context, userID int64) (*models.Subscription, error) {
	if _, err := t.tx.ExecContext(ctx, "SELECT pg_advisory_xact_lock($1, $2)", subscriptionLockSpace, userLockKey(userID)); err != nil {
		return nil, fmt.Errorf("failed to lock subscription of user %d: %w", userID, err)
	}

	var sub models.Subscription
	err := t.tx.GetContext(ctx, &sub,
		"SELECT id, user_id, plan_id, status, starts_at, expires_at, updated_at FROM subscriptions WHERE user_id = $1 FOR UPDATE",
		userID)
	if err != nil {
		return nil, notFound(err, "subscription for user %d", userID)
	}
	return &sub, nil
}

// SaveSubscription inserts or replaces the single subscription row of the user.
func (t *pgTx) SaveSubscription(ctx context.Context, sub *models.Subscription) error {
	query := `
		INSERT INTO subscriptions (user_id, plan_id, status, starts_at, expires_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (user_id) DO UPDATE
		SET plan_id = EXCLUDED.plan_id, status = EXCLUDED.status,
			starts_at = EXCLUDED.starts_at, expires_at = EXCLUDED.expires_at, updated_at = NOW()
		RETURNING id, updated_at`

	return t.tx.QueryRowxContext(ctx, query,
		sub.UserID, sub.PlanID, sub.Status, sub.StartsAt, sub.ExpiresAt,
	).Scan(&sub.ID, &sub.UpdatedAt)
}

// CreditAttempts adds credit to the user's balance, creating the row if needed.
func (t *pgTx) CreditAttempts(ctx context.Context, userID int64, credit models.AttemptCredit) error {
	_, err := t.tx.ExecContext(ctx, `
		INSERT INTO attempt_balances (user_id, writing, speaking, reading, listening)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (user_id) DO UPDATE
		SET writing = attempt_balances.writing + EXCLUDED.writing,
			speaking = attempt_balances.speaking + EXCLUDED.speaking,
			reading = attempt_balances.reading + EXCLUDED.reading,
			listening = attempt_balances.listening + EXCLUDED.listening,
			updated_at = NOW()`,
		userID, credit.Writing, credit.Speaking, credit.Reading, credit.Listening)
	return err
}

package store

import (
	"context"
	"fmt"

	"ielts-payments/internal/models"

	"github.com/jmoiron/sqlx"
)

const transactionSelect = `
	SELECT t.id, t.payme_id, t.order_ref, o.order_id, t.state, t.amount, t.payme_time,
		t.create_time, t.perform_time, t.cancel_time, t.reason, t.created_at, t.updated_at
	FROM payme_transactions t
	JOIN orders o ON o.id = t.order_ref`

// GetTransaction retrieves a transaction by its Payme id
func (s *Store) GetTransaction(ctx context.Context, paymeID string) (*models.PaymeTransaction, error) {
	return getTransaction(ctx, s.db, transactionSelect+" WHERE t.payme_id = $1", paymeID)
}

// ListTransactions returns transactions whose Payme time lies in [from, to], oldest first
func (s *Store) ListTransactions(ctx context.Context, from, to int64) ([]models.PaymeTransaction, error) {
	var txs []models.PaymeTransaction
	err := s.db.SelectContext(ctx, &txs,
		transactionSelect+" WHERE t.payme_time BETWEEN $1 AND $2 ORDER BY t.payme_time ASC, t.id ASC",
		from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	return txs, nil
}

func (t *pgTx) LockTransaction(ctx context.Context, paymeID string) (*models.PaymeTransaction, error) {
	return getTransaction(ctx, t.tx, transactionSelect+" WHERE t.payme_id = $1 FOR UPDATE OF t", paymeID)
}

func (t *pgTx) GetActiveTransaction(ctx context.Context, orderRef int64) (*models.PaymeTransaction, error) {
	return getTransaction(ctx, t.tx,
		transactionSelect+" WHERE t.order_ref = $1 AND t.state IN (1, 2) LIMIT 1", orderRef)
}

func (t *pgTx) InsertTransaction(ctx context.Context, txn *models.PaymeTransaction) error {
	query := `
		INSERT INTO payme_transactions (payme_id, order_ref, state, amount, payme_time, create_time)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at`

	err := t.tx.QueryRowxContext(ctx, query,
		txn.PaymeID, txn.OrderRef, txn.State, txn.Amount, txn.PaymeTime, txn.CreateTime,
	).Scan(&txn.ID, &txn.CreatedAt, &txn.UpdatedAt)
	if isUniqueViolation(err) {
		return fmt.Errorf("transaction %s: %w", txn.PaymeID, ErrDuplicate)
	}
	return err
}

func (t *pgTx) UpdateTransaction(ctx context.Context, txn *models.PaymeTransaction) error {
	_, err := t.tx.ExecContext(ctx, `
		UPDATE payme_transactions
		SET state = $1, perform_time = $2, cancel_time = $3, reason = $4, updated_at = NOW()
		WHERE id = $5`,
		txn.State, txn.PerformTime, txn.CancelTime, txn.Reason, txn.ID)
	return err
}

func getTransaction(ctx context.Context, q sqlx.QueryerContext, query string, arg interface{}) (*models.PaymeTransaction, error) {
	var txn models.PaymeTransaction
	if err := sqlx.GetContext(ctx, q, &txn, query, arg); err != nil {
		return nil, notFound(err, "transaction %v", arg)
	}
	return &txn, nil
}

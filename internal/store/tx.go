package store

import (
	"context"
	"time"

	"ielts-payments/internal/models"

	"github.com/jmoiron/sqlx"
)

// Tx is the set of reads and writes available inside InTx. Lock* methods take
// a row lock held until the transaction ends; callers lock a Payme transaction
// before its order.
type Tx interface {
	LockOrder(ctx context.Context, id int64) (*models.Order, error)
	LockOrderByOrderID(ctx context.Context, orderID string) (*models.Order, error)
	MarkOrderPaid(ctx context.Context, id int64, paidAt time.Time) error
	UpdateOrderStatus(ctx context.Context, id int64, status string) error

	LockTransaction(ctx context.Context, paymeID string) (*models.PaymeTransaction, error)
	GetActiveTransaction(ctx context.Context, orderRef int64) (*models.PaymeTransaction, error)
	InsertTransaction(ctx context.Context, t *models.PaymeTransaction) error
	UpdateTransaction(ctx context.Context, t *models.PaymeTransaction) error

	GetPlan(ctx context.Context, id int64) (*models.Plan, error)
	GetPackage(ctx context.Context, id int64) (*models.AttemptPackage, error)
	LockSubscription(ctx context.Context, userID int64) (*models.Subscription, error)
	SaveSubscription(ctx context.Context, sub *models.Subscription) error
	CreditAttempts(ctx context.Context, userID int64, credit models.AttemptCredit) error
}

type pgTx struct {
	tx *sqlx.Tx
}

var _ Tx = (*pgTx)(nil)

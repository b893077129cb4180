package payme

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"ielts-payments/internal/fulfillment"
	"ielts-payments/internal/models"
	"ielts-payments/internal/store"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type pgFixture struct {
	t     *testing.T
	db    *store.Store
	h     *Handler
	api   *fixture
	user  int64
	plan  int64
	pkg   int64
	start time.Time
}

func newPGFixture(t *testing.T) *pgFixture {
	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("Integration test - requires database")
	}

	db, err := store.NewStore(url)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, db.Migrate())

	f := &pgFixture{t: t, db: db, user: int64(uuid.New().ID()), start: time.Now()}
	ctx := context.Background()
	require.NoError(t, db.GetDB().GetContext(ctx, &f.plan, `
		INSERT INTO plans (name, period, price, writing_attempts, speaking_attempts, reading_attempts, listening_attempts)
		VALUES ('Monthly', 'monthly', 49000, 4, 2, -1, -1) RETURNING id`))
	require.NoError(t, db.GetDB().GetContext(ctx, &f.pkg, `
		INSERT INTO attempt_packages (name, type, attempts, price) VALUES ('Writing 5', 'writing', 5, 10000) RETURNING id`))

	f.h = NewHandler(Config{Login: "Paycom", Key: testKey, TransactionTimeout: 12 * time.Hour},
		db, fulfillment.NewEngine(), nil)
	f.api = &fixture{t: t, h: f.h}
	return f
}

func (f *pgFixture) order(kind string, amount int64) *models.Order {
	order := &models.Order{
		OrderID:   uuid.New().String(),
		UserID:    f.user,
		Kind:      kind,
		Amount:    decimal.NewFromInt(amount),
		Status:    models.OrderStatusPending,
		ExpiresAt: time.Now().Add(time.Hour),
	}
	if kind == models.OrderKindSubscription {
		order.PlanID = &f.plan
	} else {
		order.PackageID = &f.pkg
	}
	require.NoError(f.t, f.db.CreateOrder(context.Background(), order))
	return order
}

func (f *pgFixture) call(method string, params interface{}) *Response {
	return f.api.call(method, params)
}

// parallel runs fn n times at once and returns the responses in call order.
func parallel(n int, fn func(i int) *Response) []*Response {
	var wg sync.WaitGroup
	responses := make([]*Response, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			responses[i] = fn(i)
		}(i)
	}
	wg.Wait()
	return responses
}

func TestPostgresConcurrentCallsOnSameTransaction(t *testing.T) {
	f := newPGFixture(t)
	ctx := context.Background()
	order := f.order(models.OrderKindAttemptPackage, 10000)
	paymeID := uuid.New().String()

	created := parallel(8, func(int) *Response {
		return f.call("CreateTransaction", map[string]interface{}{
			"id":      paymeID,
			"time":    models.Millis(time.Now()),
			"amount":  1000000,
			"account": map[string]string{"order_id": order.OrderID},
		})
	})
	for _, resp := range created {
		require.Nil(t, resp.Error)
	}

	var rows int
	require.NoError(t, f.db.GetDB().GetContext(ctx, &rows,
		"SELECT COUNT(*) FROM payme_transactions WHERE order_ref = $1", order.ID))
	assert.Equal(t, 1, rows)

	performed := parallel(8, func(int) *Response {
		return f.call("PerformTransaction", map[string]string{"id": paymeID})
	})
	for _, resp := range performed {
		require.Nil(t, resp.Error)
		assert.Equal(t, models.StateCompleted, resp.Result.(*PerformResult).State)
	}

	bal, err := f.db.GetAttemptBalance(ctx, f.user)
	require.NoError(t, err)
	assert.Equal(t, 5, bal.Writing)

	stored, err := f.db.GetOrderByOrderID(ctx, order.OrderID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusPaid, stored.Status)
}

func TestPostgresConcurrentSubscriptionsStack(t *testing.T) {
	f := newPGFixture(t)
	ctx := context.Background()

	orders := []*models.Order{
		f.order(models.OrderKindSubscription, 49000),
		f.order(models.OrderKindSubscription, 49000),
	}
	ids := []string{uuid.New().String(), uuid.New().String()}
	for i, order := range orders {
		resp := f.call("CreateTransaction", map[string]interface{}{
			"id":      ids[i],
			"time":    models.Millis(time.Now()),
			"amount":  4900000,
			"account": map[string]string{"order_id": order.OrderID},
		})
		require.Nil(t, resp.Error)
	}

	performed := parallel(len(ids), func(i int) *Response {
		return f.call("PerformTransaction", map[string]string{"id": ids[i]})
	})
	for _, resp := range performed {
		require.Nil(t, resp.Error)
	}

	sub, err := f.db.GetSubscription(ctx, f.user)
	require.NoError(t, err)
	assert.Equal(t, models.SubscriptionStatusActive, sub.Status)
	assert.True(t, sub.ExpiresAt.After(f.start.Add(60*24*time.Hour)),
		"expected two stacked months, got expiry %s", sub.ExpiresAt)

	bal, err := f.db.GetAttemptBalance(ctx, f.user)
	require.NoError(t, err)
	assert.Equal(t, 8, bal.Writing)
	assert.Equal(t, 4, bal.Speaking)
}

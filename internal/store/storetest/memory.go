// Package storetest provides an in-memory store with the same transactional
// contract as the Postgres store, for use in tests.
package storetest

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"ielts-payments/internal/models"
	"ielts-payments/internal/store"
)

type state struct {
	orders    map[int64]models.Order
	txs       map[string]models.PaymeTransaction
	subs      map[int64]models.Subscription
	balances  map[int64]models.AttemptBalance
	events    map[string]models.ProcessedEvent
	nextOrder int64
	nextTx    int64
	nextSub   int64
}

func (s *state) clone() *state {
	c := &state{
		orders:    make(map[int64]models.Order, len(s.orders)),
		txs:       make(map[string]models.PaymeTransaction, len(s.txs)),
		subs:      make(map[int64]models.Subscription, len(s.subs)),
		balances:  make(map[int64]models.AttemptBalance, len(s.balances)),
		events:    make(map[string]models.ProcessedEvent, len(s.events)),
		nextOrder: s.nextOrder,
		nextTx:    s.nextTx,
		nextSub:   s.nextSub,
	}
	for k, v := range s.orders {
		c.orders[k] = v
	}
	for k, v := range s.txs {
		c.txs[k] = v
	}
	for k, v := range s.subs {
		c.subs[k] = v
	}
	for k, v := range s.balances {
		c.balances[k] = v
	}
	for k, v := range s.events {
		c.events[k] = v
	}
	return c
}

// Memory is an in-memory store. InTx serializes all transactions and restores
// the previous state when the callback fails.
type Memory struct {
	mu       sync.Mutex
	st       *state
	plans    map[int64]models.Plan
	packages map[int64]models.AttemptPackage

	// CreditErr, when set, is returned by Tx.CreditAttempts.
	CreditErr error
}

// NewMemory creates an empty in-memory store
func NewMemory() *Memory {
	return &Memory{
		st: &state{
			orders:   map[int64]models.Order{},
			txs:      map[string]models.PaymeTransaction{},
			subs:     map[int64]models.Subscription{},
			balances: map[int64]models.AttemptBalance{},
			events:   map[string]models.ProcessedEvent{},
		},
		plans:    map[int64]models.Plan{},
		packages: map[int64]models.AttemptPackage{},
	}
}

// AddPlan seeds a catalog plan
func (m *Memory) AddPlan(p models.Plan) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.plans[p.ID] = p
}

// AddPackage seeds a catalog attempt package
func (m *Memory) AddPackage(p models.AttemptPackage) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.packages[p.ID] = p
}

// TransactionCount returns the number of stored Payme transactions
func (m *Memory) TransactionCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.st.txs)
}

func (m *Memory) InTx(ctx context.Context, fn func(ctx context.Context, tx store.Tx) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	snapshot := m.st.clone()
	if err := fn(ctx, &memTx{m: m}); err != nil {
		m.st = snapshot
		return err
	}
	return nil
}

func (m *Memory) CreateOrder(ctx context.Context, order *models.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, o := range m.st.orders {
		if o.OrderID == order.OrderID {
			return fmt.Errorf("order %s: %w", order.OrderID, store.ErrDuplicate)
		}
		if order.IdempotencyKey != nil && o.IdempotencyKey != nil && *o.IdempotencyKey == *order.IdempotencyKey {
			return fmt.Errorf("order %s: %w", order.OrderID, store.ErrDuplicate)
		}
	}
	m.st.nextOrder++
	order.ID = m.st.nextOrder
	if order.CreatedAt.IsZero() {
		order.CreatedAt = time.Now()
	}
	m.st.orders[order.ID] = *order
	return nil
}

func (m *Memory) GetOrderByOrderID(ctx context.Context, orderID string) (*models.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.orderByOrderID(orderID)
}

func (m *Memory) GetOrderByIdempotencyKey(ctx context.Context, key string) (*models.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, o := range m.st.orders {
		if o.IdempotencyKey != nil && *o.IdempotencyKey == key {
			order := o
			return &order, nil
		}
	}
	return nil, nil
}

func (m *Memory) ExpireOrder(ctx context.Context, id int64, now time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.st.orders[id]
	if !ok || !o.IsExpired(now) {
		return false, nil
	}
	for _, txn := range m.st.txs {
		if txn.OrderRef == id && (txn.State == models.StateCreated || txn.State == models.StateCompleted) {
			return false, nil
		}
	}
	o.Status = models.OrderStatusExpired
	m.st.orders[id] = o
	return true, nil
}

func (m *Memory) GetOrdersByUserID(ctx context.Context, userID int64) ([]models.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var orders []models.Order
	for _, o := range m.st.orders {
		if o.UserID == userID {
			orders = append(orders, o)
		}
	}
	sort.Slice(orders, func(i, j int) bool {
		if orders[i].CreatedAt.Equal(orders[j].CreatedAt) {
			return orders[i].ID > orders[j].ID
		}
		return orders[i].CreatedAt.After(orders[j].CreatedAt)
	})
	return orders, nil
}

// SetOrderExpiry overrides an order's expiry
func (m *Memory) SetOrderExpiry(orderID string, expiresAt time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, o := range m.st.orders {
		if o.OrderID == orderID {
			o.ExpiresAt = expiresAt
			m.st.orders[id] = o
		}
	}
}

func (m *Memory) GetTransaction(ctx context.Context, paymeID string) (*models.PaymeTransaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.transaction(paymeID)
}

func (m *Memory) ListTransactions(ctx context.Context, from, to int64) ([]models.PaymeTransaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var txs []models.PaymeTransaction
	for _, t := range m.st.txs {
		if t.PaymeTime >= from && t.PaymeTime <= to {
			txs = append(txs, t)
		}
	}
	sort.Slice(txs, func(i, j int) bool {
		if txs[i].PaymeTime == txs[j].PaymeTime {
			return txs[i].ID < txs[j].ID
		}
		return txs[i].PaymeTime < txs[j].PaymeTime
	})
	return txs, nil
}

func (m *Memory) GetPlan(ctx context.Context, id int64) (*models.Plan, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.plan(id)
}

func (m *Memory) GetPackage(ctx context.Context, id int64) (*models.AttemptPackage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.pkg(id)
}

func (m *Memory) GetSubscription(ctx context.Context, userID int64) (*models.Subscription, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sub, ok := m.st.subs[userID]
	if !ok {
		return nil, fmt.Errorf("subscription for user %d: %w", userID, store.ErrNotFound)
	}
	return &sub, nil
}

func (m *Memory) GetAttemptBalance(ctx context.Context, userID int64) (*models.AttemptBalance, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	bal, ok := m.st.balances[userID]
	if !ok {
		return nil, fmt.Errorf("attempt balance for user %d: %w", userID, store.ErrNotFound)
	}
	return &bal, nil
}

func (m *Memory) IsEventProcessed(ctx context.Context, eventID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.st.events[eventID]
	return ok, nil
}

func (m *Memory) RecordEvent(ctx context.Context, event *models.ProcessedEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.st.events[event.EventID]; !ok {
		e := *event
		e.ProcessedAt = time.Now()
		m.st.events[event.EventID] = e
	}
	return nil
}

func (m *Memory) orderByOrderID(orderID string) (*models.Order, error) {
	for _, o := range m.st.orders {
		if o.OrderID == orderID {
			order := o
			return &order, nil
		}
	}
	return nil, fmt.Errorf("order %s: %w", orderID, store.ErrNotFound)
}

func (m *Memory) transaction(paymeID string) (*models.PaymeTransaction, error) {
	t, ok := m.st.txs[paymeID]
	if !ok {
		return nil, fmt.Errorf("transaction %s: %w", paymeID, store.ErrNotFound)
	}
	return &t, nil
}

func (m *Memory) plan(id int64) (*models.Plan, error) {
	p, ok := m.plans[id]
	if !ok {
		return nil, fmt.Errorf("plan %d: %w", id, store.ErrNotFound)
	}
	return &p, nil
}

func (m *Memory) pkg(id int64) (*models.AttemptPackage, error) {
	p, ok := m.packages[id]
	if !ok {
		return nil, fmt.Errorf("attempt package %d: %w", id, store.ErrNotFound)
	}
	return &p, nil
}

// memTx runs with Memory.mu already held by InTx.
type memTx struct {
	m *Memory
}

var _ store.Tx = (*memTx)(nil)

func (t *memTx) LockOrder(ctx context.Context, id int64) (*models.Order, error) {
	o, ok := t.m.st.orders[id]
	if !ok {
		return nil, fmt.Errorf("order %d: %w", id, store.ErrNotFound)
	}
	return &o, nil
}

func (t *memTx) LockOrderByOrderID(ctx context.Context, orderID string) (*models.Order, error) {
	return t.m.orderByOrderID(orderID)
}

func (t *memTx) MarkOrderPaid(ctx context.Context, id int64, paidAt time.Time) error {
	o, ok := t.m.st.orders[id]
	if !ok || o.Status != models.OrderStatusPending {
		return fmt.Errorf("order %d is not pending", id)
	}
	o.Status = models.OrderStatusPaid
	o.PaidAt = &paidAt
	t.m.st.orders[id] = o
	return nil
}

func (t *memTx) UpdateOrderStatus(ctx context.Context, id int64, status string) error {
	o, ok := t.m.st.orders[id]
	if !ok {
		return fmt.Errorf("order %d: %w", id, store.ErrNotFound)
	}
	o.Status = status
	t.m.st.orders[id] = o
	return nil
}

func (t *memTx) LockTransaction(ctx context.Context, paymeID string) (*models.PaymeTransaction, error) {
	return t.m.transaction(paymeID)
}

func (t *memTx) GetActiveTransaction(ctx context.Context, orderRef int64) (*models.PaymeTransaction, error) {
	for _, txn := range t.m.st.txs {
		if txn.OrderRef == orderRef && (txn.State == models.StateCreated || txn.State == models.StateCompleted) {
			found := txn
			return &found, nil
		}
	}
	return nil, fmt.Errorf("active transaction for order %d: %w", orderRef, store.ErrNotFound)
}

func (t *memTx) InsertTransaction(ctx context.Context, txn *models.PaymeTransaction) error {
	if _, ok := t.m.st.txs[txn.PaymeID]; ok {
		return fmt.Errorf("transaction %s: %w", txn.PaymeID, store.ErrDuplicate)
	}
	o, ok := t.m.st.orders[txn.OrderRef]
	if !ok {
		return fmt.Errorf("order %d: %w", txn.OrderRef, store.ErrNotFound)
	}
	t.m.st.nextTx++
	txn.ID = t.m.st.nextTx
	txn.OrderID = o.OrderID
	txn.CreatedAt = time.Now()
	txn.UpdatedAt = txn.CreatedAt
	t.m.st.txs[txn.PaymeID] = *txn
	return nil
}

func (t *memTx) UpdateTransaction(ctx context.Context, txn *models.PaymeTransaction) error {
	stored, ok := t.m.st.txs[txn.PaymeID]
	if !ok {
		return fmt.Errorf("transaction %s: %w", txn.PaymeID, store.ErrNotFound)
	}
	stored.State = txn.State
	stored.PerformTime = txn.PerformTime
	stored.CancelTime = txn.CancelTime
	stored.Reason = txn.Reason
	stored.UpdatedAt = time.Now()
	t.m.st.txs[txn.PaymeID] = stored
	return nil
}

func (t *memTx) GetPlan(ctx context.Context, id int64) (*models.Plan, error) {
	return t.m.plan(id)
}

func (t *memTx) GetPackage(ctx context.Context, id int64) (*models.AttemptPackage, error) {
	return t.m.pkg(id)
}

func (t *memTx) LockSubscription(ctx context.Context, userID int64) (*models.Subscription, error) {
	sub, ok := t.m.st.subs[userID]
	if !ok {
		return nil, fmt.Errorf("subscription for user %d: %w", userID, store.ErrNotFound)
	}
	return &sub, nil
}

func (t *memTx) SaveSubscription(ctx context.Context, sub *models.Subscription) error {
	if existing, ok := t.m.st.subs[sub.UserID]; ok {
		sub.ID = existing.ID
	} else {
		t.m.st.nextSub++
		sub.ID = t.m.st.nextSub
	}
	sub.UpdatedAt = time.Now()
	t.m.st.subs[sub.UserID] = *sub
	return nil
}

func (t *memTx) CreditAttempts(ctx context.Context, userID int64, credit models.AttemptCredit) error {
	if t.m.CreditErr != nil {
		return t.m.CreditErr
	}
	bal := t.m.st.balances[userID]
	bal.UserID = userID
	bal.Writing += credit.Writing
	bal.Speaking += credit.Speaking
	bal.Reading += credit.Reading
	bal.Listening += credit.Listening
	bal.UpdatedAt = time.Now()
	t.m.st.balances[userID] = bal
	return nil
}

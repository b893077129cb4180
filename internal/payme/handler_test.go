package payme

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"ielts-payments/internal/fulfillment"
	"ielts-payments/internal/models"
	"ielts-payments/internal/store"
	"ielts-payments/internal/store/storetest"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testKey    = "test-key"
	userID     = int64(42)
	monthlyID  = int64(1)
	mixedID    = int64(2)
	writingID  = int64(3)
	orderPrice = 49000
)

type recordingPublisher struct {
	mu        sync.Mutex
	created   []*models.TransactionCreatedEvent
	paid      []*models.OrderPaidEvent
	cancelled []*models.OrderCancelledEvent
}

func (p *recordingPublisher) PublishTransactionCreated(ctx context.Context, e *models.TransactionCreatedEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.created = append(p.created, e)
	return nil
}

func (p *recordingPublisher) PublishOrderPaid(ctx context.Context, e *models.OrderPaidEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.paid = append(p.paid, e)
	return nil
}

func (p *recordingPublisher) PublishOrderCancelled(ctx context.Context, e *models.OrderCancelledEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.cancelled = append(p.cancelled, e)
	return nil
}

type fixture struct {
	t   *testing.T
	h   *Handler
	mem *storetest.Memory
	pub *recordingPublisher
	now time.Time
}

func newFixture(t *testing.T) *fixture {
	mem := storetest.NewMemory()
	mem.AddPlan(models.Plan{
		ID: monthlyID, Name: "Monthly", Period: models.PeriodMonthly, Price: decimal.NewFromInt(orderPrice),
		WritingAttempts: 4, SpeakingAttempts: 2, ReadingAttempts: models.Unlimited, ListeningAttempts: models.Unlimited,
		IsActive: true,
	})
	mem.AddPackage(models.AttemptPackage{
		ID: mixedID, Name: "Mixed 3", Type: models.PackageTypeMixed, Price: decimal.NewFromInt(20000),
		WritingAttempts: 3, SpeakingAttempts: 3, ReadingAttempts: 3, ListeningAttempts: 3, IsActive: true,
	})
	mem.AddPackage(models.AttemptPackage{
		ID: writingID, Name: "Writing 5", Type: models.PackageTypeWriting, Attempts: 5,
		Price: decimal.NewFromInt(10000), IsActive: true,
	})

	f := &fixture{
		t:   t,
		mem: mem,
		pub: &recordingPublisher{},
		now: time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC),
	}
	cfg := Config{
		MerchantID:         "merchant",
		Login:              "Paycom",
		Key:                testKey,
		TransactionTimeout: 12 * time.Hour,
	}
	f.h = NewHandler(cfg, mem, fulfillment.NewEngine(), f.pub, WithClock(func() time.Time { return f.now }))
	return f
}

func (f *fixture) subscriptionOrder() *models.Order {
	return f.order(models.OrderKindSubscription, monthlyID, decimal.NewFromInt(orderPrice))
}

func (f *fixture) writingOrder() *models.Order {
	return f.order(models.OrderKindAttemptPackage, writingID, decimal.NewFromInt(10000))
}

func (f *fixture) order(kind string, itemID int64, amount decimal.Decimal) *models.Order {
	order := &models.Order{
		OrderID:   uuid.New().String(),
		UserID:    userID,
		Kind:      kind,
		Amount:    amount,
		Status:    models.OrderStatusPending,
		CreatedAt: f.now,
		ExpiresAt: f.now.Add(12 * time.Hour),
	}
	if kind == models.OrderKindSubscription {
		order.PlanID = &itemID
	} else {
		order.PackageID = &itemID
	}
	require.NoError(f.t, f.mem.CreateOrder(context.Background(), order))
	return order
}

func (f *fixture) callAuth(auth, method string, params interface{}) *Response {
	raw, err := json.Marshal(params)
	require.NoError(f.t, err)
	body, err := json.Marshal(Request{Method: method, Params: raw, ID: json.RawMessage(`7`)})
	require.NoError(f.t, err)
	return f.h.Handle(context.Background(), auth, body)
}

func (f *fixture) call(method string, params interface{}) *Response {
	return f.callAuth(basicAuth("Paycom", testKey), method, params)
}

func (f *fixture) orderStatus(orderID string) string {
	order, err := f.mem.GetOrderByOrderID(context.Background(), orderID)
	require.NoError(f.t, err)
	return order.Status
}

func (f *fixture) create(paymeID string, order *models.Order, amount int64) *Response {
	return f.call("CreateTransaction", map[string]interface{}{
		"id":      paymeID,
		"time":    models.Millis(f.now),
		"amount":  amount,
		"account": map[string]string{"order_id": order.OrderID},
	})
}

func basicAuth(login, key string) string {
	return "Basic " + base64.StdEncoding.EncodeToString([]byte(login+":"+key))
}

func errorCode(t *testing.T, resp *Response) int {
	require.NotNil(t, resp.Error, "expected error response, got result %#v", resp.Result)
	assert.Nil(t, resp.Result)
	return resp.Error.Code
}

func TestHandleRejectsBadCredentials(t *testing.T) {
	f := newFixture(t)
	order := f.subscriptionOrder()
	params := map[string]interface{}{
		"id": "tx1", "time": 1, "amount": 4900000, "account": map[string]string{"order_id": order.OrderID},
	}

	for name, auth := range map[string]string{
		"missing":     "",
		"wrong key":   basicAuth("Paycom", "nope"),
		"wrong login": basicAuth("Other", testKey),
		"not basic":   "Bearer " + testKey,
		"garbage":     "Basic !!!",
	} {
		t.Run(name, func(t *testing.T) {
			resp := f.callAuth(auth, "CreateTransaction", params)
			assert.Equal(t, CodeInsufficientPrivilege, errorCode(t, resp))
			assert.Equal(t, json.RawMessage(`7`), resp.ID)
		})
	}
	assert.Equal(t, 0, f.mem.TransactionCount())
}

func TestHandleRejectsEverythingWithoutConfiguredKey(t *testing.T) {
	h := NewHandler(Config{Login: "Paycom"}, storetest.NewMemory(), fulfillment.NewEngine(), nil)
	resp := h.Handle(context.Background(), basicAuth("Paycom", ""), []byte(`{"method":"CheckTransaction","params":{"id":"x"}}`))
	assert.Equal(t, CodeInsufficientPrivilege, errorCode(t, resp))
}

func TestHandleMalformedRequests(t *testing.T) {
	f := newFixture(t)
	auth := basicAuth("Paycom", testKey)

	resp := f.h.Handle(context.Background(), auth, []byte(`{"method":`))
	assert.Equal(t, CodeParseError, errorCode(t, resp))

	resp = f.call("ChangePassword", map[string]string{"password": "x"})
	assert.Equal(t, CodeMethodNotFound, errorCode(t, resp))

	resp = f.call("CreateTransaction", map[string]interface{}{"amount": 1})
	assert.Equal(t, CodeInvalidRequest, errorCode(t, resp))

	resp = f.h.Handle(context.Background(), auth, []byte(`{"method":"PerformTransaction","params":{"id":5}}`))
	assert.Equal(t, CodeInvalidRequest, errorCode(t, resp))
}

func TestCheckPerformTransaction(t *testing.T) {
	f := newFixture(t)
	order := f.subscriptionOrder()

	check := func(orderID string, amount int64) *Response {
		return f.call("CheckPerformTransaction", map[string]interface{}{
			"amount":  amount,
			"account": map[string]string{"order_id": orderID},
		})
	}

	resp := check(order.OrderID, 4900000)
	require.Nil(t, resp.Error)
	assert.Equal(t, &CheckPerformResult{Allow: true}, resp.Result)
	assert.Equal(t, json.RawMessage(`7`), resp.ID)

	assert.Equal(t, CodeInvalidAmount, errorCode(t, check(order.OrderID, 4800000)))
	assert.Equal(t, CodeInvalidAmount, errorCode(t, check(order.OrderID, 49000)))
	assert.Equal(t, CodeInvalidAccount, errorCode(t, check("missing", 4900000)))
	assert.Equal(t, CodeInvalidAccount, errorCode(t, check("", 4900000)))

	f.now = f.now.Add(12 * time.Hour)
	assert.Equal(t, CodeOperationNotAllowed, errorCode(t, check(order.OrderID, 4900000)))
	assert.Equal(t, CodeOperationNotAllowed, errorCode(t, check(order.OrderID, 4800000)), "order state wins over amount")
	assert.Equal(t, models.OrderStatusPending, f.orderStatus(order.OrderID), "check is read-only")
}

func TestCheckPerformTransactionRejectsPaidOrder(t *testing.T) {
	f := newFixture(t)
	order := f.subscriptionOrder()

	require.Nil(t, f.create("tx1", order, 4900000).Error)
	require.Nil(t, f.call("PerformTransaction", map[string]string{"id": "tx1"}).Error)

	resp := f.call("CheckPerformTransaction", map[string]interface{}{
		"amount":  4900000,
		"account": map[string]string{"order_id": order.OrderID},
	})
	assert.Equal(t, CodeOperationNotAllowed, errorCode(t, resp))
}

func TestSubscriptionPurchaseEndToEnd(t *testing.T) {
	f := newFixture(t)
	order := f.subscriptionOrder()
	start := f.now

	check := f.call("CheckPerformTransaction", map[string]interface{}{
		"amount":  4900000,
		"account": map[string]string{"order_id": order.OrderID},
	})
	require.Nil(t, check.Error)

	created := f.create("tx1", order, 4900000)
	require.Nil(t, created.Error)
	createResult := created.Result.(*CreateResult)
	assert.Equal(t, models.StateCreated, createResult.State)
	assert.Equal(t, models.Millis(start), createResult.CreateTime)
	assert.NotEmpty(t, createResult.Transaction)

	f.now = f.now.Add(time.Minute)
	performed := f.call("PerformTransaction", map[string]string{"id": "tx1"})
	require.Nil(t, performed.Error)
	performResult := performed.Result.(*PerformResult)
	assert.Equal(t, models.StateCompleted, performResult.State)
	assert.Equal(t, models.Millis(f.now), performResult.PerformTime)
	assert.Equal(t, createResult.Transaction, performResult.Transaction)

	stored, err := f.mem.GetOrderByOrderID(context.Background(), order.OrderID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusPaid, stored.Status)
	require.NotNil(t, stored.PaidAt)
	assert.True(t, stored.PaidAt.Equal(f.now))

	sub, err := f.mem.GetSubscription(context.Background(), userID)
	require.NoError(t, err)
	assert.Equal(t, models.SubscriptionStatusActive, sub.Status)
	assert.True(t, sub.ExpiresAt.Equal(f.now.Add(30*24*time.Hour)))
	require.NotNil(t, sub.PlanID)
	assert.Equal(t, monthlyID, *sub.PlanID)

	bal, err := f.mem.GetAttemptBalance(context.Background(), userID)
	require.NoError(t, err)
	assert.Equal(t, 4, bal.Writing)
	assert.Equal(t, 2, bal.Speaking)
	assert.Equal(t, 0, bal.Reading, "unlimited allowances are not materialized")
	assert.Equal(t, 0, bal.Listening)

	assert.Len(t, f.pub.created, 1)
	require.Len(t, f.pub.paid, 1)
	assert.Equal(t, order.OrderID, f.pub.paid[0].OrderID)
}

func TestCreateTransactionIsIdempotent(t *testing.T) {
	f := newFixture(t)
	order := f.subscriptionOrder()

	first := f.create("tx1", order, 4900000)
	require.Nil(t, first.Error)

	f.now = f.now.Add(time.Second)
	second := f.create("tx1", order, 4900000)
	require.Nil(t, second.Error)

	assert.Equal(t, first.Result, second.Result)
	assert.Equal(t, 1, f.mem.TransactionCount())
	assert.Len(t, f.pub.created, 1)
}

func TestCreateTransactionAmountMismatch(t *testing.T) {
	f := newFixture(t)
	order := f.subscriptionOrder()

	resp := f.create("tx1", order, 4800000)
	assert.Equal(t, CodeInvalidAmount, errorCode(t, resp))
	assert.Equal(t, 0, f.mem.TransactionCount())
	assert.Equal(t, models.OrderStatusPending, f.orderStatus(order.OrderID))
}

func TestCreateTransactionValidatesOrder(t *testing.T) {
	f := newFixture(t)

	resp := f.call("CreateTransaction", map[string]interface{}{
		"id": "tx1", "time": 1, "amount": 100, "account": map[string]string{"order_id": "missing"},
	})
	assert.Equal(t, CodeInvalidAccount, errorCode(t, resp))

	order := f.subscriptionOrder()
	f.now = f.now.Add(13 * time.Hour)
	assert.Equal(t, CodeOperationNotAllowed, errorCode(t, f.create("tx2", order, 4900000)))
	assert.Equal(t, 0, f.mem.TransactionCount())
}

func TestCreateTransactionRejectsSecondGatewayID(t *testing.T) {
	f := newFixture(t)
	order := f.subscriptionOrder()

	require.Nil(t, f.create("tx1", order, 4900000).Error)
	assert.Equal(t, CodeOperationNotAllowed, errorCode(t, f.create("tx2", order, 4900000)))
	assert.Equal(t, 1, f.mem.TransactionCount())
}

func TestCreateTransactionReplayAfterTimeout(t *testing.T) {
	f := newFixture(t)
	order := f.subscriptionOrder()

	require.Nil(t, f.create("tx1", order, 4900000).Error)

	f.now = f.now.Add(12*time.Hour + time.Millisecond)
	assert.Equal(t, CodeOperationNotAllowed, errorCode(t, f.create("tx1", order, 4900000)))

	check := f.call("CheckTransaction", map[string]string{"id": "tx1"})
	require.Nil(t, check.Error)
	result := check.Result.(*CheckResult)
	assert.Equal(t, models.StateCancelledBeforeCompletion, result.State)
	require.NotNil(t, result.Reason)
	assert.Equal(t, models.ReasonTimeout, *result.Reason)
	assert.Equal(t, models.Millis(f.now), result.CancelTime)
}

func TestPerformTransactionIsIdempotent(t *testing.T) {
	f := newFixture(t)
	order := f.writingOrder()

	require.Nil(t, f.create("tx1", order, 1000000).Error)

	first := f.call("PerformTransaction", map[string]string{"id": "tx1"})
	require.Nil(t, first.Error)

	f.now = f.now.Add(time.Minute)
	second := f.call("PerformTransaction", map[string]string{"id": "tx1"})
	require.Nil(t, second.Error)

	assert.Equal(t, first.Result.(*PerformResult).PerformTime, second.Result.(*PerformResult).PerformTime)

	bal, err := f.mem.GetAttemptBalance(context.Background(), userID)
	require.NoError(t, err)
	assert.Equal(t, 5, bal.Writing, "fulfillment ran exactly once")
	assert.Equal(t, 0, bal.Speaking)
	assert.Len(t, f.pub.paid, 1)
}

func TestPerformTransactionTimeout(t *testing.T) {
	f := newFixture(t)
	order := f.writingOrder()

	require.Nil(t, f.create("tx1", order, 1000000).Error)

	f.now = f.now.Add(12*time.Hour + time.Millisecond)
	resp := f.call("PerformTransaction", map[string]string{"id": "tx1"})
	assert.Equal(t, CodeOperationNotAllowed, errorCode(t, resp))

	txn, err := f.mem.GetTransaction(context.Background(), "tx1")
	require.NoError(t, err)
	assert.Equal(t, models.StateCancelledBeforeCompletion, txn.State)
	require.NotNil(t, txn.Reason)
	assert.Equal(t, models.ReasonTimeout, *txn.Reason)

	_, err = f.mem.GetAttemptBalance(context.Background(), userID)
	assert.True(t, errors.Is(err, store.ErrNotFound))

	// the timed out transaction can no longer be performed
	resp = f.call("PerformTransaction", map[string]string{"id": "tx1"})
	assert.Equal(t, CodeOperationNotAllowed, errorCode(t, resp))
}

func TestPerformTransactionAtTimeoutBoundary(t *testing.T) {
	f := newFixture(t)
	order := f.writingOrder()

	require.Nil(t, f.create("tx1", order, 1000000).Error)

	f.now = f.now.Add(12 * time.Hour)
	resp := f.call("PerformTransaction", map[string]string{"id": "tx1"})
	require.Nil(t, resp.Error)
	assert.Equal(t, models.StateCompleted, resp.Result.(*PerformResult).State)
}

func TestPerformTransactionRollsBackWhenFulfillmentFails(t *testing.T) {
	f := newFixture(t)
	order := f.writingOrder()
	require.Nil(t, f.create("tx1", order, 1000000).Error)

	f.mem.CreditErr = errors.New("balance table unavailable")
	resp := f.call("PerformTransaction", map[string]string{"id": "tx1"})
	assert.Equal(t, CodeInternal, errorCode(t, resp))

	assert.Equal(t, models.OrderStatusPending, f.orderStatus(order.OrderID))
	txn, err := f.mem.GetTransaction(context.Background(), "tx1")
	require.NoError(t, err)
	assert.Equal(t, models.StateCreated, txn.State)
	assert.Zero(t, txn.PerformTime)
	assert.Empty(t, f.pub.paid)

	f.mem.CreditErr = nil
	resp = f.call("PerformTransaction", map[string]string{"id": "tx1"})
	require.Nil(t, resp.Error)
	assert.Equal(t, models.OrderStatusPaid, f.orderStatus(order.OrderID))
}

func TestCancelBeforeCompletion(t *testing.T) {
	f := newFixture(t)
	order := f.writingOrder()
	require.Nil(t, f.create("tx1", order, 1000000).Error)

	f.now = f.now.Add(time.Minute)
	resp := f.call("CancelTransaction", map[string]interface{}{"id": "tx1", "reason": models.ReasonProcessingError})
	require.Nil(t, resp.Error)
	result := resp.Result.(*CancelResult)
	assert.Equal(t, models.StateCancelledBeforeCompletion, result.State)
	assert.Equal(t, models.Millis(f.now), result.CancelTime)

	assert.Equal(t, models.OrderStatusCancelled, f.orderStatus(order.OrderID))
	_, err := f.mem.GetAttemptBalance(context.Background(), userID)
	assert.True(t, errors.Is(err, store.ErrNotFound), "no entitlement granted")

	f.now = f.now.Add(time.Minute)
	replay := f.call("CancelTransaction", map[string]interface{}{"id": "tx1", "reason": models.ReasonProcessingError})
	require.Nil(t, replay.Error)
	assert.Equal(t, result, replay.Result)
	assert.Len(t, f.pub.cancelled, 1)

	resp = f.call("PerformTransaction", map[string]string{"id": "tx1"})
	assert.Equal(t, CodeOperationNotAllowed, errorCode(t, resp))
}

func TestCancelAfterCompletionKeepsEntitlements(t *testing.T) {
	f := newFixture(t)
	order := f.writingOrder()
	require.Nil(t, f.create("tx1", order, 1000000).Error)
	require.Nil(t, f.call("PerformTransaction", map[string]string{"id": "tx1"}).Error)

	resp := f.call("CancelTransaction", map[string]interface{}{"id": "tx1", "reason": models.ReasonRefund})
	require.Nil(t, resp.Error)
	assert.Equal(t, models.StateCancelledAfterCompletion, resp.Result.(*CancelResult).State)
	assert.Equal(t, models.OrderStatusCancelled, f.orderStatus(order.OrderID))

	bal, err := f.mem.GetAttemptBalance(context.Background(), userID)
	require.NoError(t, err)
	assert.Equal(t, 5, bal.Writing)

	check := f.call("CheckTransaction", map[string]string{"id": "tx1"})
	require.Nil(t, check.Error)
	result := check.Result.(*CheckResult)
	assert.Equal(t, models.StateCancelledAfterCompletion, result.State)
	assert.NotZero(t, result.PerformTime)
	require.NotNil(t, result.Reason)
	assert.Equal(t, models.ReasonRefund, *result.Reason)
}

func TestUnknownTransaction(t *testing.T) {
	f := newFixture(t)

	for _, method := range []string{"PerformTransaction", "CancelTransaction", "CheckTransaction"} {
		resp := f.call(method, map[string]interface{}{"id": "nope", "reason": 1})
		assert.Equal(t, CodeTransactionNotFound, errorCode(t, resp), method)
	}
}

func TestGetStatement(t *testing.T) {
	f := newFixture(t)

	for i, at := range []int64{300, 100, 200, 400} {
		order := f.writingOrder()
		resp := f.call("CreateTransaction", map[string]interface{}{
			"id":      "tx" + string(rune('a'+i)),
			"time":    at,
			"amount":  1000000,
			"account": map[string]string{"order_id": order.OrderID},
		})
		require.Nil(t, resp.Error)
	}

	resp := f.call("GetStatement", map[string]int64{"from": 100, "to": 300})
	require.Nil(t, resp.Error)
	entries := resp.Result.(*StatementResult).Transactions
	require.Len(t, entries, 3)
	assert.Equal(t, int64(100), entries[0].Time)
	assert.Equal(t, int64(200), entries[1].Time)
	assert.Equal(t, int64(300), entries[2].Time)
	assert.Equal(t, "txb", entries[0].ID)
	assert.NotEmpty(t, entries[0].Account.OrderID)
	assert.Equal(t, int64(1000000), entries[0].Amount)

	resp = f.call("GetStatement", map[string]int64{"from": 500, "to": 600})
	require.Nil(t, resp.Error)
	assert.Empty(t, resp.Result.(*StatementResult).Transactions)

	resp = f.call("GetStatement", map[string]int64{"from": 300, "to": 100})
	require.Nil(t, resp.Error)
	assert.Empty(t, resp.Result.(*StatementResult).Transactions)
}

func TestResponseWireFormat(t *testing.T) {
	f := newFixture(t)

	out, err := json.Marshal(f.call("CheckTransaction", map[string]string{"id": "nope"}))
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"error": {"code": -31003, "message": {"ru": "Транзакция не найдена", "uz": "Tranzaksiya topilmadi", "en": "Transaction not found"}},
		"id": 7
	}`, string(out))

	order := f.subscriptionOrder()
	out, err = json.Marshal(f.call("CheckPerformTransaction", map[string]interface{}{
		"amount": 4900000, "account": map[string]string{"order_id": order.OrderID},
	}))
	require.NoError(t, err)
	assert.JSONEq(t, `{"result": {"allow": true}, "id": 7}`, string(out))
}

func TestCheckoutURL(t *testing.T) {
	url := CheckoutURL("https://checkout.paycom.uz/", "merchant", "ord-1", 4900000)
	encoded := url[len("https://checkout.paycom.uz/"):]

	decoded, err := base64.StdEncoding.DecodeString(encoded)
	require.NoError(t, err)
	assert.Equal(t, "m=merchant;ac.order_id=ord-1;a=4900000", string(decoded))
}

func TestParseMethodRoundTrip(t *testing.T) {
	for _, m := range []Method{
		CheckPerformTransaction, CreateTransaction, PerformTransaction,
		CancelTransaction, CheckTransaction, GetStatement,
	} {
		parsed, ok := ParseMethod(m.String())
		assert.True(t, ok)
		assert.Equal(t, m, parsed)
	}
	_, ok := ParseMethod("SetFiscalData")
	assert.False(t, ok)
}

func TestConcurrentCallsOnSameTransaction(t *testing.T) {
	f := newFixture(t)
	order := f.writingOrder()

	var wg sync.WaitGroup
	responses := make([]*Response, 16)
	for i := range responses {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			responses[i] = f.create("tx1", order, 1000000)
		}(i)
	}
	wg.Wait()
	for _, resp := range responses {
		require.Nil(t, resp.Error)
	}
	assert.Equal(t, 1, f.mem.TransactionCount())

	for i := range responses {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			responses[i] = f.call("PerformTransaction", map[string]string{"id": "tx1"})
		}(i)
	}
	wg.Wait()
	for _, resp := range responses {
		require.Nil(t, resp.Error)
		assert.Equal(t, models.StateCompleted, resp.Result.(*PerformResult).State)
	}

	bal, err := f.mem.GetAttemptBalance(context.Background(), userID)
	require.NoError(t, err)
	assert.Equal(t, 5, bal.Writing)
	assert.Len(t, f.pub.paid, 1)
}

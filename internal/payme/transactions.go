package payme

import (
	"context"
	"errors"
	"time"

	"ielts-payments/internal/models"
	"ielts-payments/internal/store"
	"ielts-payments/internal/util"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// validateOrder applies the payability checks shared by CheckPerformTransaction
// and CreateTransaction.
func validateOrder(order *models.Order, amount int64, now time.Time) error {
	if order.Status != models.OrderStatusPending || order.IsExpired(now) {
		return ErrOperationNotAllowed
	}
	if amount != order.AmountMinor() {
		return ErrInvalidAmount
	}
	return nil
}

func (h *Handler) checkPerformTransaction(ctx context.Context, p checkPerformParams) (interface{}, error) {
	if p.Account.OrderID == "" {
		return nil, ErrInvalidAccount
	}

	order, err := h.store.GetOrderByOrderID(ctx, p.Account.OrderID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrInvalidAccount
	}
	if err != nil {
		return nil, err
	}

	if err := validateOrder(order, p.Amount, h.now()); err != nil {
		return nil, err
	}
	return &CheckPerformResult{Allow: true}, nil
}

func (h *Handler) createTransaction(ctx context.Context, p createParams) (interface{}, error) {
	result, created, err := h.tryCreateTransaction(ctx, p)
	if errors.Is(err, store.ErrDuplicate) {
		// a concurrent call inserted first; replay against its row
		result, created, err = h.tryCreateTransaction(ctx, p)
	}
	if errors.Is(err, store.ErrDuplicate) {
		return nil, ErrOperationNotAllowed
	}
	if err != nil {
		return nil, err
	}

	if created != nil {
		util.TransactionsCreatedTotal.Inc()
		h.logger.Info("Payme transaction created",
			zap.String("payme_id", created.PaymeID),
			zap.String("order_id", created.OrderID),
			zap.Int64("amount", created.Amount))

		h.publish(models.EventTypeTransactionCreated, func() error {
			return h.publisher.PublishTransactionCreated(ctx, &models.TransactionCreatedEvent{
				BaseEvent:  newBaseEvent(models.EventTypeTransactionCreated),
				OrderID:    created.OrderID,
				PaymeID:    created.PaymeID,
				Amount:     created.Amount,
				CreateTime: created.CreateTime,
			})
		})
	}
	return result, nil
}

// tryCreateTransaction returns the result and, when a new row was written, the
// new transaction.
func (h *Handler) tryCreateTransaction(ctx context.Context, p createParams) (*CreateResult, *models.PaymeTransaction, error) {
	var (
		result   *CreateResult
		created  *models.PaymeTransaction
		timedOut bool
	)

	err := h.store.InTx(ctx, func(ctx context.Context, tx store.Tx) error {
		now, nowMS := h.nowMillis()

		existing, err := tx.LockTransaction(ctx, p.ID)
		if err == nil {
			if existing.TimedOut(nowMS, h.cfg.TransactionTimeout) {
				timedOut = true
				return h.cancelTimedOut(ctx, tx, existing, nowMS)
			}
			result = newCreateResult(existing)
			return nil
		}
		if !errors.Is(err, store.ErrNotFound) {
			return err
		}

		if p.Account.OrderID == "" {
			return ErrInvalidAccount
		}
		order, err := tx.LockOrderByOrderID(ctx, p.Account.OrderID)
		if errors.Is(err, store.ErrNotFound) {
			return ErrInvalidAccount
		}
		if err != nil {
			return err
		}

		if err := validateOrder(order, p.Amount, now); err != nil {
			return err
		}

		active, err := tx.GetActiveTransaction(ctx, order.ID)
		if err == nil && active.PaymeID == p.ID {
			// same call raced us to the order lock and committed first
			result = newCreateResult(active)
			return nil
		}
		if err == nil {
			h.logger.Warn("Order already has an active transaction",
				zap.String("order_id", order.OrderID),
				zap.String("active_payme_id", active.PaymeID),
				zap.String("payme_id", p.ID))
			return ErrOperationNotAllowed
		}
		if !errors.Is(err, store.ErrNotFound) {
			return err
		}

		txn := &models.PaymeTransaction{
			PaymeID:    p.ID,
			OrderRef:   order.ID,
			OrderID:    order.OrderID,
			State:      models.StateCreated,
			Amount:     p.Amount,
			PaymeTime:  p.Time,
			CreateTime: nowMS,
		}
		if err := tx.InsertTransaction(ctx, txn); err != nil {
			return err
		}

		created = txn
		result = newCreateResult(txn)
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	if timedOut {
		return nil, nil, ErrOperationNotAllowed
	}
	return result, created, nil
}

func (h *Handler) performTransaction(ctx context.Context, p performParams) (interface{}, error) {
	var (
		result   *PerformResult
		paid     *models.Order
		paidTx   *models.PaymeTransaction
		timedOut bool
	)

	err := h.store.InTx(ctx, func(ctx context.Context, tx store.Tx) error {
		now, nowMS := h.nowMillis()

		txn, err := tx.LockTransaction(ctx, p.ID)
		if errors.Is(err, store.ErrNotFound) {
			return ErrTransactionNotFound
		}
		if err != nil {
			return err
		}

		if txn.State == models.StateCompleted {
			result = &PerformResult{Transaction: localID(txn), PerformTime: txn.PerformTime, State: txn.State}
			return nil
		}
		if txn.State != models.StateCreated {
			return ErrOperationNotAllowed
		}
		if txn.TimedOut(nowMS, h.cfg.TransactionTimeout) {
			timedOut = true
			return h.cancelTimedOut(ctx, tx, txn, nowMS)
		}

		order, err := tx.LockOrder(ctx, txn.OrderRef)
		if err != nil {
			return err
		}
		if order.Status != models.OrderStatusPending {
			return ErrOperationNotAllowed
		}

		txn.State = models.StateCompleted
		txn.PerformTime = nowMS
		if err := tx.UpdateTransaction(ctx, txn); err != nil {
			return err
		}
		if err := tx.MarkOrderPaid(ctx, order.ID, now); err != nil {
			return err
		}
		order.Status = models.OrderStatusPaid
		order.PaidAt = &now

		if err := h.fulfiller.Fulfill(ctx, tx, order, now); err != nil {
			return err
		}

		paid, paidTx = order, txn
		result = &PerformResult{Transaction: localID(txn), PerformTime: txn.PerformTime, State: txn.State}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if timedOut {
		return nil, ErrOperationNotAllowed
	}

	if paid != nil {
		util.TransactionsPerformedTotal.Inc()
		util.OrdersPaidTotal.WithLabelValues(paid.Kind).Inc()
		h.logger.Info("Payme transaction performed",
			zap.String("payme_id", paidTx.PaymeID),
			zap.String("order_id", paid.OrderID),
			zap.Int64("user_id", paid.UserID))

		h.publish(models.EventTypeOrderPaid, func() error {
			return h.publisher.PublishOrderPaid(ctx, &models.OrderPaidEvent{
				BaseEvent:   newBaseEvent(models.EventTypeOrderPaid),
				OrderID:     paid.OrderID,
				UserID:      paid.UserID,
				Kind:        paid.Kind,
				PaymeID:     paidTx.PaymeID,
				Amount:      paidTx.Amount,
				PerformTime: paidTx.PerformTime,
			})
		})
	}
	return result, nil
}

// cancelTransaction never revokes entitlements already granted by a perform.
func (h *Handler) cancelTransaction(ctx context.Context, p cancelParams) (interface{}, error) {
	var (
		result    *CancelResult
		cancelled *models.PaymeTransaction
	)

	err := h.store.InTx(ctx, func(ctx context.Context, tx store.Tx) error {
		_, nowMS := h.nowMillis()

		txn, err := tx.LockTransaction(ctx, p.ID)
		if errors.Is(err, store.ErrNotFound) {
			return ErrTransactionNotFound
		}
		if err != nil {
			return err
		}

		if txn.State.IsCancelled() {
			result = &CancelResult{Transaction: localID(txn), CancelTime: txn.CancelTime, State: txn.State}
			return nil
		}

		order, err := tx.LockOrder(ctx, txn.OrderRef)
		if err != nil {
			return err
		}

		switch txn.State {
		case models.StateCreated:
			txn.State = models.StateCancelledBeforeCompletion
		case models.StateCompleted:
			txn.State = models.StateCancelledAfterCompletion
		default:
			return ErrOperationNotAllowed
		}
		txn.Reason = p.Reason
		txn.CancelTime = nowMS

		if err := tx.UpdateTransaction(ctx, txn); err != nil {
			return err
		}
		if err := tx.UpdateOrderStatus(ctx, order.ID, models.OrderStatusCancelled); err != nil {
			return err
		}

		cancelled = txn
		result = &CancelResult{Transaction: localID(txn), CancelTime: txn.CancelTime, State: txn.State}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if cancelled != nil {
		util.TransactionsCancelledTotal.WithLabelValues(stateLabel(cancelled.State)).Inc()
		util.OrdersCancelledTotal.Inc()
		h.logger.Info("Payme transaction cancelled",
			zap.String("payme_id", cancelled.PaymeID),
			zap.String("order_id", cancelled.OrderID),
			zap.Int("state", int(cancelled.State)))

		h.publish(models.EventTypeOrderCancelled, func() error {
			return h.publisher.PublishOrderCancelled(ctx, &models.OrderCancelledEvent{
				BaseEvent:  newBaseEvent(models.EventTypeOrderCancelled),
				OrderID:    cancelled.OrderID,
				PaymeID:    cancelled.PaymeID,
				State:      cancelled.State,
				Reason:     cancelled.Reason,
				CancelTime: cancelled.CancelTime,
			})
		})
	}
	return result, nil
}

func (h *Handler) checkTransaction(ctx context.Context, p checkParams) (interface{}, error) {
	txn, err := h.store.GetTransaction(ctx, p.ID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrTransactionNotFound
	}
	if err != nil {
		return nil, err
	}
	return newCheckResult(txn), nil
}

func (h *Handler) getStatement(ctx context.Context, p statementParams) (interface{}, error) {
	result := &StatementResult{Transactions: []StatementEntry{}}
	if p.From > p.To {
		return result, nil
	}

	txs, err := h.store.ListTransactions(ctx, p.From, p.To)
	if err != nil {
		return nil, err
	}
	for i := range txs {
		result.Transactions = append(result.Transactions, newStatementEntry(&txs[i]))
	}
	return result, nil
}

// cancelTimedOut moves a stale created transaction to cancelled-before-completion.
// The caller commits and then answers OPERATION_NOT_ALLOWED.
func (h *Handler) cancelTimedOut(ctx context.Context, tx store.Tx, txn *models.PaymeTransaction, nowMS int64) error {
	reason := models.ReasonTimeout
	txn.State = models.StateCancelledBeforeCompletion
	txn.Reason = &reason
	txn.CancelTime = nowMS
	if err := tx.UpdateTransaction(ctx, txn); err != nil {
		return err
	}

	util.TransactionsTimedOutTotal.Inc()
	h.logger.Warn("Payme transaction timed out",
		zap.String("payme_id", txn.PaymeID),
		zap.String("order_id", txn.OrderID),
		zap.Int64("create_time", txn.CreateTime))
	return nil
}

func (h *Handler) publish(eventType string, fn func() error) {
	if h.publisher == nil {
		return
	}
	if err := fn(); err != nil {
		util.EventsPublishFailedTotal.WithLabelValues(eventType).Inc()
		h.logger.Error("Failed to publish event",
			zap.String("event_type", eventType),
			zap.Error(err))
	}
}

func newBaseEvent(eventType string) models.BaseEvent {
	return models.BaseEvent{
		EventID:   uuid.New().String(),
		EventType: eventType,
		Timestamp: time.Now(),
	}
}

func stateLabel(s models.TransactionState) string {
	if s == models.StateCancelledAfterCompletion {
		return "after_completion"
	}
	return "before_completion"
}

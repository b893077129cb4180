package fulfillment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"ielts-payments/internal/models"
	"ielts-payments/internal/store"
	"ielts-payments/internal/util"

	"go.uber.org/zap"
)

// Ledger is the slice of a store transaction the engine writes through.
type Ledger interface {
	GetPlan(ctx context.Context, id int64) (*models.Plan, error)
	GetPackage(ctx context.Context, id int64) (*models.AttemptPackage, error)
	LockSubscription(ctx context.Context, userID int64) (*models.Subscription, error)
	SaveSubscription(ctx context.Context, sub *models.Subscription) error
	CreditAttempts(ctx context.Context, userID int64, credit models.AttemptCredit) error
}

// Engine grants the entitlement bought by a paid order. It must run inside the
// same database transaction that marks the order paid.
type Engine struct {
	logger *zap.Logger
}

// NewEngine creates a new fulfillment engine
func NewEngine() *Engine {
	return &Engine{logger: util.GetLogger()}
}

// Fulfill grants the order's line item to its owner as of now.
func (e *Engine) Fulfill(ctx context.Context, ledger Ledger, order *models.Order, now time.Time) error {
	ctx, span := util.StartSpan(ctx, "Engine.Fulfill")
	defer span.End()

	start := time.Now()
	defer func() {
		util.FulfillmentLatency.Observe(time.Since(start).Seconds())
	}()

	var err error
	switch order.Kind {
	case models.OrderKindSubscription:
		err = e.fulfillSubscription(ctx, ledger, order, now)
	case models.OrderKindAttemptPackage:
		err = e.fulfillPackage(ctx, ledger, order)
	default:
		err = fmt.Errorf("unknown order kind %q", order.Kind)
	}
	if err != nil {
		util.FulfillmentFailedTotal.WithLabelValues(order.Kind).Inc()
		return fmt.Errorf("failed to fulfill order %s: %w", order.OrderID, err)
	}

	e.logger.Info("Order fulfilled",
		zap.String("order_id", order.OrderID),
		zap.Int64("user_id", order.UserID),
		zap.String("kind", order.Kind))
	return nil
}

func (e *Engine) fulfillSubscription(ctx context.Context, ledger Ledger, order *models.Order, now time.Time) error {
	if order.PlanID == nil {
		return errors.New("subscription order without plan")
	}

	plan, err := ledger.GetPlan(ctx, *order.PlanID)
	if err != nil {
		return err
	}

	sub, err := ledger.LockSubscription(ctx, order.UserID)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return err
	}

	period := time.Duration(plan.PeriodDays()) * 24 * time.Hour
	switch {
	case sub == nil:
		sub = &models.Subscription{
			UserID:    order.UserID,
			StartsAt:  now,
			ExpiresAt: now.Add(period),
		}
	case sub.IsValid(now):
		sub.ExpiresAt = sub.ExpiresAt.Add(period)
	default:
		sub.StartsAt = now
		sub.ExpiresAt = now.Add(period)
	}
	sub.PlanID = &plan.ID
	sub.Status = models.SubscriptionStatusActive

	if err := ledger.SaveSubscription(ctx, sub); err != nil {
		return fmt.Errorf("failed to save subscription: %w", err)
	}

	credit := PlanCredit(plan)
	if credit.IsZero() {
		return nil
	}
	if err := ledger.CreditAttempts(ctx, order.UserID, credit); err != nil {
		return fmt.Errorf("failed to credit plan attempts: %w", err)
	}
	return nil
}

func (e *Engine) fulfillPackage(ctx context.Context, ledger Ledger, order *models.Order) error {
	if order.PackageID == nil {
		return errors.New("attempt package order without package")
	}

	pkg, err := ledger.GetPackage(ctx, *order.PackageID)
	if err != nil {
		return err
	}

	credit, err := PackageCredit(pkg)
	if err != nil {
		return err
	}
	if err := ledger.CreditAttempts(ctx, order.UserID, credit); err != nil {
		return fmt.Errorf("failed to credit package attempts: %w", err)
	}
	return nil
}

// PlanCredit returns the per-period allowances of a plan as a balance credit.
// Unlimited allowances are left out.
func PlanCredit(plan *models.Plan) models.AttemptCredit {
	return models.AttemptCredit{
		Writing:   finite(plan.WritingAttempts),
		Speaking:  finite(plan.SpeakingAttempts),
		Reading:   finite(plan.ReadingAttempts),
		Listening: finite(plan.ListeningAttempts),
	}
}

// PackageCredit returns the balance credit of an attempt package.
func PackageCredit(pkg *models.AttemptPackage) (models.AttemptCredit, error) {
	var credit models.AttemptCredit
	switch pkg.Type {
	case models.PackageTypeMixed:
		credit.Writing = pkg.WritingAttempts
		credit.Speaking = pkg.SpeakingAttempts
		credit.Reading = pkg.ReadingAttempts
		credit.Listening = pkg.ListeningAttempts
	case models.PackageTypeWriting:
		credit.Writing = pkg.Attempts
	case models.PackageTypeSpeaking:
		credit.Speaking = pkg.Attempts
	case models.PackageTypeReading:
		credit.Reading = pkg.Attempts
	case models.PackageTypeListening:
		credit.Listening = pkg.Attempts
	default:
		return credit, fmt.Errorf("unknown package type %q", pkg.Type)
	}
	return credit, nil
}

func finite(n int) int {
	if n < 0 {
		return 0
	}
	return n
}

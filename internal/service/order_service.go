package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"ielts-payments/internal/models"
	"ielts-payments/internal/payme"
	"ielts-payments/internal/redisclient"
	"ielts-payments/internal/store"
	"ielts-payments/internal/util"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

var (
	// ErrCatalogItemUnavailable is returned when the plan or package is missing or inactive.
	ErrCatalogItemUnavailable = errors.New("catalog item unavailable")
	// ErrOrderNotFound is returned when no order has the given id.
	ErrOrderNotFound = errors.New("order not found")
	// ErrInvalidOrderKind is returned when the kind and line item do not match.
	ErrInvalidOrderKind = errors.New("invalid order kind")
	// ErrOrderNotPayable is returned for checkout of an order that is no longer pending.
	ErrOrderNotPayable = errors.New("order is not payable")
	// ErrRequestInProgress is returned while another request holds the same idempotency key.
	ErrRequestInProgress = errors.New("request with this idempotency key is in progress")
)

const idempotencyLockTTL = 10 * time.Second

// OrderStore is the persistence OrderService needs
type OrderStore interface {
	CreateOrder(ctx context.Context, order *models.Order) error
	GetOrderByOrderID(ctx context.Context, orderID string) (*models.Order, error)
	GetOrderByIdempotencyKey(ctx context.Context, key string) (*models.Order, error)
	GetOrdersByUserID(ctx context.Context, userID int64) ([]models.Order, error)
	ExpireOrder(ctx context.Context, id int64, now time.Time) (bool, error)
	GetPlan(ctx context.Context, id int64) (*models.Plan, error)
	GetPackage(ctx context.Context, id int64) (*models.AttemptPackage, error)
}

// IdempotencyCache fronts idempotency key lookups and serializes requests
// sharing a key. *redisclient.Client implements it.
type IdempotencyCache interface {
	GetIdempotencyKey(ctx context.Context, key string) (string, bool, error)
	SetIdempotencyKey(ctx context.Context, key, orderID string, ttl time.Duration) error
	AcquireLock(ctx context.Context, lockKey string, ttl time.Duration) (*redisclient.Lock, error)
	ReleaseLock(ctx context.Context, lock *redisclient.Lock) error
}

// Config holds order lifecycle and checkout settings
type Config struct {
	OrderExpiry    time.Duration
	IdempotencyTTL time.Duration
	MerchantID     string
	CheckoutURL    string
}

// OrderService handles order business logic
type OrderService struct {
	store  OrderStore
	cache  IdempotencyCache
	cfg    Config
	logger *zap.Logger
	now    func() time.Time
}

// NewOrderService creates a new order service. cache may be nil, in which
// case idempotency relies on the database alone.
func NewOrderService(store OrderStore, cache IdempotencyCache, cfg Config) *OrderService {
	return &OrderService{
		store:  store,
		cache:  cache,
		cfg:    cfg,
		logger: util.GetLogger(),
		now:    time.Now,
	}
}

// CreateOrderRequest represents a request to create an order
type CreateOrderRequest struct {
	UserID         int64  `json:"user_id" binding:"required,min=1"`
	Kind           string `json:"kind" binding:"required"`
	PlanID         *int64 `json:"plan_id,omitempty"`
	PackageID      *int64 `json:"package_id,omitempty"`
	IdempotencyKey string `json:"-"`
}

// CreateOrder creates a pending order priced from the catalog. The second
// return value is false when an earlier order with the same idempotency key
// is returned instead.
func (s *OrderService) CreateOrder(ctx context.Context, req *CreateOrderRequest) (*models.Order, bool, error) {
	ctx, span := util.StartSpan(ctx, "OrderService.CreateOrder",
		attribute.Int64("user.id", req.UserID),
		attribute.String("order.kind", req.Kind))
	defer span.End()

	if err := validateKind(req); err != nil {
		return nil, false, err
	}

	if req.IdempotencyKey != "" {
		existing, err := s.replay(ctx, req.IdempotencyKey)
		if err != nil || existing != nil {
			return existing, false, err
		}

		if s.cache != nil {
			lock, err := s.cache.AcquireLock(ctx, "order:"+req.IdempotencyKey, idempotencyLockTTL)
			if err != nil {
				s.logger.Warn("Idempotency lock unavailable, continuing without it", zap.Error(err))
			} else if lock == nil {
				return nil, false, ErrRequestInProgress
			} else {
				defer func() {
					if err := s.cache.ReleaseLock(context.Background(), lock); err != nil {
						s.logger.Warn("Failed to release idempotency lock", zap.Error(err))
					}
				}()
			}
		}

		existing, err = s.store.GetOrderByIdempotencyKey(ctx, req.IdempotencyKey)
		if err != nil {
			return nil, false, fmt.Errorf("failed to check idempotency: %w", err)
		}
		if existing != nil {
			return existing, false, nil
		}
	}

	price, err := s.price(ctx, req)
	if err != nil {
		util.RecordError(span, err)
		return nil, false, err
	}

	now := s.now()
	order := &models.Order{
		OrderID:   uuid.New().String(),
		UserID:    req.UserID,
		Kind:      req.Kind,
		PlanID:    req.PlanID,
		PackageID: req.PackageID,
		Amount:    price,
		Status:    models.OrderStatusPending,
		CreatedAt: now,
		ExpiresAt: now.Add(s.cfg.OrderExpiry),
	}
	if req.IdempotencyKey != "" {
		key := req.IdempotencyKey
		order.IdempotencyKey = &key
	}

	if err := s.store.CreateOrder(ctx, order); err != nil {
		if errors.Is(err, store.ErrDuplicate) && order.IdempotencyKey != nil {
			existing, lookupErr := s.store.GetOrderByIdempotencyKey(ctx, req.IdempotencyKey)
			if lookupErr == nil && existing != nil {
				return existing, false, nil
			}
		}
		util.RecordError(span, err)
		return nil, false, fmt.Errorf("failed to create order: %w", err)
	}

	if order.IdempotencyKey != nil && s.cache != nil {
		if err := s.cache.SetIdempotencyKey(ctx, req.IdempotencyKey, order.OrderID, s.cfg.IdempotencyTTL); err != nil {
			s.logger.Warn("Failed to cache idempotency key", zap.Error(err))
		}
	}

	util.OrdersCreatedTotal.WithLabelValues(order.Kind).Inc()
	s.logger.Info("Order created",
		zap.String("order_id", order.OrderID),
		zap.Int64("user_id", order.UserID),
		zap.String("kind", order.Kind),
		zap.String("amount", order.Amount.String()))

	return order, true, nil
}

// replay returns the order an idempotency key already produced, per the cache.
func (s *OrderService) replay(ctx context.Context, key string) (*models.Order, error) {
	if s.cache == nil {
		return nil, nil
	}

	orderID, found, err := s.cache.GetIdempotencyKey(ctx, key)
	if err != nil {
		s.logger.Warn("Idempotency cache lookup failed", zap.Error(err))
		return nil, nil
	}
	if !found {
		return nil, nil
	}

	order, err := s.store.GetOrderByOrderID(ctx, orderID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	s.logger.Info("Duplicate order request detected",
		zap.String("idempotency_key", key),
		zap.String("order_id", order.OrderID))
	return order, nil
}

func validateKind(req *CreateOrderRequest) error {
	switch req.Kind {
	case models.OrderKindSubscription:
		if req.PlanID == nil || req.PackageID != nil {
			return ErrInvalidOrderKind
		}
	case models.OrderKindAttemptPackage:
		if req.PackageID == nil || req.PlanID != nil {
			return ErrInvalidOrderKind
		}
	default:
		return ErrInvalidOrderKind
	}
	return nil
}

// price returns the current price of the requested catalog item
func (s *OrderService) price(ctx context.Context, req *CreateOrderRequest) (decimal.Decimal, error) {
	if req.Kind == models.OrderKindSubscription {
		plan, err := s.store.GetPlan(ctx, *req.PlanID)
		if err != nil {
			return catalogErr(err)
		}
		if !plan.IsActive {
			return decimal.Decimal{}, ErrCatalogItemUnavailable
		}
		return plan.Price, nil
	}

	pkg, err := s.store.GetPackage(ctx, *req.PackageID)
	if err != nil {
		return catalogErr(err)
	}
	if !pkg.IsActive {
		return decimal.Decimal{}, ErrCatalogItemUnavailable
	}
	return pkg.Price, nil
}

func catalogErr(err error) (decimal.Decimal, error) {
	if errors.Is(err, store.ErrNotFound) {
		return decimal.Decimal{}, ErrCatalogItemUnavailable
	}
	return decimal.Decimal{}, err
}

// GetOrder retrieves an order by its public id, expiring it first if due
func (s *OrderService) GetOrder(ctx context.Context, orderID string) (*models.Order, error) {
	ctx, span := util.StartSpan(ctx, "OrderService.GetOrder", attribute.String("order.id", orderID))
	defer span.End()

	order, err := s.store.GetOrderByOrderID(ctx, orderID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, err
	}

	if err := s.expireIfDue(ctx, order); err != nil {
		return nil, err
	}
	return order, nil
}

// ListUserOrders returns a user's orders, newest first
func (s *OrderService) ListUserOrders(ctx context.Context, userID int64) ([]models.Order, error) {
	orders, err := s.store.GetOrdersByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	for i := range orders {
		if err := s.expireIfDue(ctx, &orders[i]); err != nil {
			return nil, err
		}
	}
	return orders, nil
}

// CheckoutURL returns the Payme hosted checkout link for a pending order
func (s *OrderService) CheckoutURL(ctx context.Context, orderID string) (string, error) {
	order, err := s.GetOrder(ctx, orderID)
	if err != nil {
		return "", err
	}
	if order.Status != models.OrderStatusPending || order.IsExpired(s.now()) {
		return "", ErrOrderNotPayable
	}
	return payme.CheckoutURL(s.cfg.CheckoutURL, s.cfg.MerchantID, order.OrderID, order.AmountMinor()), nil
}

func (s *OrderService) expireIfDue(ctx context.Context, order *models.Order) error {
	now := s.now()
	if !order.IsExpired(now) {
		return nil
	}

	expired, err := s.store.ExpireOrder(ctx, order.ID, now)
	if err != nil {
		return fmt.Errorf("failed to expire order %s: %w", order.OrderID, err)
	}
	if expired {
		util.OrdersExpiredTotal.Inc()
		s.logger.Info("Order expired", zap.String("order_id", order.OrderID))
		order.Status = models.OrderStatusExpired
		return nil
	}

	// lost a race with a payment or cancellation; reread the winner's status
	fresh, err := s.store.GetOrderByOrderID(ctx, order.OrderID)
	if err != nil {
		return err
	}
	*order = *fresh
	return nil
}

package payme

import (
	"context"
	"crypto/subtle"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"ielts-payments/internal/fulfillment"
	"ielts-payments/internal/models"
	"ielts-payments/internal/store"
	"ielts-payments/internal/util"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// Config holds the merchant credentials and protocol constants.
type Config struct {
	MerchantID         string
	Login              string
	Key                string
	TransactionTimeout time.Duration
}

// Store is the persistence the handler needs.
type Store interface {
	GetTransaction(ctx context.Context, paymeID string) (*models.PaymeTransaction, error)
	ListTransactions(ctx context.Context, from, to int64) ([]models.PaymeTransaction, error)
	GetOrderByOrderID(ctx context.Context, orderID string) (*models.Order, error)
	InTx(ctx context.Context, fn func(ctx context.Context, tx store.Tx) error) error
}

// Fulfiller grants the entitlement of a paid order inside the paying transaction.
type Fulfiller interface {
	Fulfill(ctx context.Context, ledger fulfillment.Ledger, order *models.Order, now time.Time) error
}

// Publisher emits domain events after a state change commits.
type Publisher interface {
	PublishTransactionCreated(ctx context.Context, event *models.TransactionCreatedEvent) error
	PublishOrderPaid(ctx context.Context, event *models.OrderPaidEvent) error
	PublishOrderCancelled(ctx context.Context, event *models.OrderCancelledEvent) error
}

// Handler implements the Payme merchant API.
type Handler struct {
	cfg       Config
	store     Store
	fulfiller Fulfiller
	publisher Publisher
	logger    *zap.Logger
	now       func() time.Time
}

// Option customizes a Handler
type Option func(*Handler)

// WithClock overrides the wall clock used for timestamps, timeouts and expiry.
func WithClock(now func() time.Time) Option {
	return func(h *Handler) {
		h.now = now
	}
}

// NewHandler creates a new Payme protocol handler
func NewHandler(cfg Config, store Store, fulfiller Fulfiller, publisher Publisher, opts ...Option) *Handler {
	h := &Handler{
		cfg:       cfg,
		store:     store,
		fulfiller: fulfiller,
		publisher: publisher,
		logger:    util.GetLogger(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Handle authenticates and executes one merchant API call. It always returns a
// well-formed response.
func (h *Handler) Handle(ctx context.Context, authorization string, body []byte) *Response {
	var req Request
	parseErr := json.Unmarshal(body, &req)

	resp := &Response{ID: req.ID}
	if !h.authorized(authorization) {
		util.PaymeRequestsTotal.WithLabelValues(methodLabel(req.Method), outcome(ErrInsufficientPrivilege)).Inc()
		h.logger.Warn("Payme request rejected: bad credentials", zap.String("method", req.Method))
		resp.Error = ErrInsufficientPrivilege
		return resp
	}
	if parseErr != nil {
		util.PaymeRequestsTotal.WithLabelValues(methodLabel(""), outcome(ErrParse)).Inc()
		resp.Error = ErrParse
		return resp
	}

	method, ok := ParseMethod(req.Method)
	if !ok {
		util.PaymeRequestsTotal.WithLabelValues(methodLabel(req.Method), outcome(ErrMethodNotFound)).Inc()
		resp.Error = ErrMethodNotFound
		return resp
	}

	ctx, span := util.StartSpan(ctx, "Payme."+method.String(), attribute.String("payme.method", method.String()))
	defer span.End()

	start := time.Now()
	defer func() {
		util.PaymeRequestDuration.WithLabelValues(method.String()).Observe(time.Since(start).Seconds())
	}()

	result, err := h.call(ctx, method, req.Params)
	if err != nil {
		var perr *Error
		if !errors.As(err, &perr) {
			util.RecordError(span, err)
			h.logger.Error("Payme method failed",
				zap.String("method", method.String()),
				zap.String("transaction_id", paramTransactionID(req.Params)),
				zap.ByteString("params", req.Params),
				zap.Error(err))
			perr = ErrInternal
		}
		util.PaymeRequestsTotal.WithLabelValues(method.String(), outcome(perr)).Inc()
		resp.Error = perr
		return resp
	}

	util.PaymeRequestsTotal.WithLabelValues(method.String(), "ok").Inc()
	resp.Result = result
	return resp
}

// call runs the method and converts panics into errors.
func (h *Handler) call(ctx context.Context, method Method, params json.RawMessage) (result interface{}, err error) {
	defer func() {
		if r := recover(); r != nil {
			result, err = nil, fmt.Errorf("panic: %v", r)
		}
	}()
	return h.dispatch(ctx, method, params)
}

func (h *Handler) dispatch(ctx context.Context, method Method, raw json.RawMessage) (interface{}, error) {
	switch method {
	case CheckPerformTransaction:
		var p checkPerformParams
		if err := decodeParams(raw, &p); err != nil {
			return nil, err
		}
		return h.checkPerformTransaction(ctx, p)

	case CreateTransaction:
		var p createParams
		if err := decodeParams(raw, &p); err != nil {
			return nil, err
		}
		if p.ID == "" {
			return nil, ErrInvalidRequest
		}
		return h.createTransaction(ctx, p)

	case PerformTransaction:
		var p performParams
		if err := decodeParams(raw, &p); err != nil {
			return nil, err
		}
		if p.ID == "" {
			return nil, ErrInvalidRequest
		}
		return h.performTransaction(ctx, p)

	case CancelTransaction:
		var p cancelParams
		if err := decodeParams(raw, &p); err != nil {
			return nil, err
		}
		if p.ID == "" {
			return nil, ErrInvalidRequest
		}
		return h.cancelTransaction(ctx, p)

	case CheckTransaction:
		var p checkParams
		if err := decodeParams(raw, &p); err != nil {
			return nil, err
		}
		if p.ID == "" {
			return nil, ErrInvalidRequest
		}
		return h.checkTransaction(ctx, p)

	case GetStatement:
		var p statementParams
		if err := decodeParams(raw, &p); err != nil {
			return nil, err
		}
		return h.getStatement(ctx, p)
	}
	return nil, ErrMethodNotFound
}

func (h *Handler) authorized(header string) bool {
	if h.cfg.Key == "" {
		return false
	}

	const prefix = "Basic "
	if len(header) < len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return false
	}

	decoded, err := base64.StdEncoding.DecodeString(strings.TrimSpace(header[len(prefix):]))
	if err != nil {
		return false
	}

	login, key, ok := strings.Cut(string(decoded), ":")
	if !ok {
		return false
	}

	loginOK := subtle.ConstantTimeCompare([]byte(login), []byte(h.cfg.Login)) == 1
	keyOK := subtle.ConstantTimeCompare([]byte(key), []byte(h.cfg.Key)) == 1
	return loginOK && keyOK
}

func decodeParams(raw json.RawMessage, dst interface{}) error {
	if len(raw) == 0 {
		return ErrInvalidRequest
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return ErrInvalidRequest
	}
	return nil
}

func paramTransactionID(raw json.RawMessage) string {
	var p struct {
		ID string `json:"id"`
	}
	_ = json.Unmarshal(raw, &p)
	return p.ID
}

func methodLabel(name string) string {
	if m, ok := ParseMethod(name); ok {
		return m.String()
	}
	return "unknown"
}

func outcome(err *Error) string {
	return strconv.Itoa(err.Code)
}

func (h *Handler) nowMillis() (time.Time, int64) {
	now := h.now()
	return now, models.Millis(now)
}

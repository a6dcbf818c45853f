package payment

import (
	"context"
	"errors"
	"time"

	"github.com/example/storefront/internal/infrastructure/kafka"
	"github.com/example/storefront/internal/money"
	"github.com/example/storefront/internal/paypal"
	"go.uber.org/zap"
)

const (
	CurrencyUSD     = "USD"
	StatusCompleted = "COMPLETED"
)

var (
	ErrInvalidAmount  = errors.New("amount must be greater than zero")
	ErrMissingOrderID = errors.New("order id is required")
)

// Gateway is the payment provider. *paypal.Client satisfies it.
type Gateway interface {
	CreateOrder(ctx context.Context, cents int64, currency string) (*paypal.Order, error)
	CaptureOrder(ctx context.Context, orderID string) (*paypal.Capture, error)
}

type Publisher interface {
	Publish(ctx context.Context, event kafka.Event) error
}

type Service struct {
	gateway   Gateway
	publisher Publisher
	logger    *zap.Logger
	now       func() time.Time
}

// NewService creates a payment service. publisher may be nil, in which case
// no events are emitted.
func NewService(gateway Gateway, publisher Publisher, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		gateway:   gateway,
		publisher: publisher,
		logger:    logger.Named("payment"),
		now:       time.Now,
	}
}

// CreateOrder opens a gateway order for the given total.
func (s *Service) CreateOrder(ctx context.Context, cents int64) (*paypal.Order, error) {
	if cents <= 0 {
		return nil, ErrInvalidAmount
	}

	order, err := s.gateway.CreateOrder(ctx, cents, CurrencyUSD)
	if err != nil {
		s.logger.Error("create order failed", zap.Int64("amount_cents", cents), zap.Error(err))
		return nil, err
	}
	s.logger.Info("payment order created",
		zap.String("order_id", order.ID),
		zap.String("status", order.Status),
		zap.String("amount", money.Format(cents)))

	s.publish(ctx, EventPaymentOrderCreated, order.ID, PaymentOrderCreated{
		OrderID:   order.ID,
		Status:    order.Status,
		Amount:    money.Format(cents),
		Currency:  CurrencyUSD,
		CreatedAt: s.now(),
	})
	return order, nil
}

// Capture captures an approved order. A capture whose status is not
// COMPLETED is returned as-is without an error; only completed captures are
// announced.
func (s *Service) Capture(ctx context.Context, orderID string) (*paypal.Capture, error) {
	if orderID == "" {
		return nil, ErrMissingOrderID
	}

	capture, err := s.gateway.CaptureOrder(ctx, orderID)
	if err != nil {
		s.logger.Error("capture failed", zap.String("order_id", orderID), zap.Error(err))
		return nil, err
	}
	s.logger.Info("payment captured", zap.String("order_id", orderID), zap.String("status", capture.Status))

	if capture.Status != StatusCompleted {
		return capture, nil
	}

	captureID, value, currency := capture.CaptureDetails()
	payer := capture.PayerDetails()
	s.publish(ctx, EventPaymentCaptured, orderID, PaymentCaptured{
		OrderID:    orderID,
		CaptureID:  captureID,
		Status:     capture.Status,
		Amount:     value,
		Currency:   currency,
		PayerEmail: payer.Email,
		PayerName:  payer.Name,
		CapturedAt: s.now(),
	})
	return capture, nil
}

// publish is best effort. Failures are logged and never reach the caller.
func (s *Service) publish(ctx context.Context, eventType, key string, payload any) {
	if s.publisher == nil {
		return
	}
	event, err := kafka.NewEvent(eventType, key, payload)
	if err != nil {
		s.logger.Error("failed to build event", zap.String("type", eventType), zap.Error(err))
		return
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.Error("failed to publish event",
			zap.String("type", eventType),
			zap.String("key", key),
			zap.Error(err))
	}
}

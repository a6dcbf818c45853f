package notification

import (
	"context"

	"github.com/example/storefront/internal/domain/payment"
	"github.com/example/storefront/internal/email"
	"github.com/example/storefront/internal/infrastructure/kafka"
	"go.uber.org/zap"
)

const purchaseItemName = "E-commerce Purchase"

// Mailer sends order confirmations. *email.Service satisfies it.
type Mailer interface {
	SendOrderConfirmation(to string, c email.Confirmation) error
}

// Handler processes payment events for sending notifications
type Handler struct {
	mailer Mailer
	logger *zap.Logger
}

// NewHandler creates a new notification handler
func NewHandler(mailer Mailer, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		mailer: mailer,
		logger: logger.Named("notifier"),
	}
}

// HandleEvent processes an event from Kafka
func (h *Handler) HandleEvent(ctx context.Context, event kafka.Event) error {
	// Only process PaymentCaptured events
	if event.Type != payment.EventPaymentCaptured {
		return nil
	}

	var e payment.PaymentCaptured
	if err := event.Decode(&e); err != nil {
		h.logger.Error("failed to decode PaymentCaptured event", zap.String("event_id", event.ID), zap.Error(err))
		return err
	}

	if e.PayerEmail == "" {
		h.logger.Warn("no payer email on capture, skipping confirmation", zap.String("order_id", e.OrderID))
		return nil
	}

	h.logger.Info("processing PaymentCaptured event", zap.String("order_id", e.OrderID))

	confirmation := email.Confirmation{
		OrderID:   e.OrderID,
		CaptureID: e.CaptureID,
		PayerName: e.PayerName,
		Currency:  e.Currency,
		Total:     e.Amount,
		Items:     []email.OrderItem{{Name: purchaseItemName, Quantity: 1, Amount: e.Amount}},
	}
	if err := h.mailer.SendOrderConfirmation(e.PayerEmail, confirmation); err != nil {
		h.logger.Error("failed to send order confirmation",
			zap.String("order_id", e.OrderID),
			zap.String("to", e.PayerEmail),
			zap.Error(err))
		return err
	}

	h.logger.Info("order confirmation sent", zap.String("order_id", e.OrderID), zap.String("to", e.PayerEmail))
	return nil
}

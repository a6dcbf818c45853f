package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/example/storefront/internal/api/middleware"
	"github.com/example/storefront/internal/domain/payment"
	"github.com/example/storefront/internal/money"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

var (
	errAmountRequired = errors.New("amount is required")
	errInvalidAmount  = errors.New("invalid amount")
)

// PaymentHandlers proxies checkout payments to the gateway
type PaymentHandlers struct {
	payments *payment.Service
	logger   *zap.Logger
}

// NewPaymentHandlers creates a new PaymentHandlers instance
func NewPaymentHandlers(payments *payment.Service, logger *zap.Logger) *PaymentHandlers {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PaymentHandlers{
		payments: payments,
		logger:   logger.Named("payment"),
	}
}

// CreateOrderRequest is the order-creation body. Amount may be a JSON number
// or a decimal string; buyer fields are accepted and ignored.
type CreateOrderRequest struct {
	Amount json.RawMessage `json:"amount"`
}

// CaptureResponse is returned after a capture
type CaptureResponse struct {
	Success       bool            `json:"success"`
	OrderID       string          `json:"orderID"`
	Status        string          `json:"status"`
	Payer         json.RawMessage `json:"payer,omitempty"`
	PurchaseUnits json.RawMessage `json:"purchase_units,omitempty"`
}

// CreateOrder handles POST /api/payment/orders
func (h *PaymentHandlers) CreateOrder(w http.ResponseWriter, r *http.Request) {
	var req CreateOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	cents, err := parseAmount(req.Amount)
	if errors.Is(err, errAmountRequired) {
		respondJSONError(w, "Amount is required", http.StatusBadRequest)
		return
	}
	if err != nil {
		respondJSONError(w, "Invalid amount", http.StatusBadRequest)
		return
	}

	h.logger.Debug("creating payment order",
		zap.String("amount", money.Format(cents)),
		zap.String("user_id", middleware.GetUserID(r.Context())))

	order, err := h.payments.CreateOrder(r.Context(), cents)
	if err != nil {
		respondJSONDetails(w, "Failed to create PayPal order", err.Error(), http.StatusInternalServerError)
		return
	}

	respondJSON(w, http.StatusOK, order)
}

// Capture handles POST /api/payment/capture/{orderID}
func (h *PaymentHandlers) Capture(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "orderID")

	capture, err := h.payments.Capture(r.Context(), orderID)
	if err != nil {
		respondJSONDetails(w, "Failed to capture payment", err.Error(), http.StatusInternalServerError)
		return
	}

	respondJSON(w, http.StatusOK, CaptureResponse{
		Success:       true,
		OrderID:       orderID,
		Status:        capture.Status,
		Payer:         capture.Payer,
		PurchaseUnits: capture.PurchaseUnits,
	})
}

// parseAmount accepts 25, 25.5, "25.00". Zero counts as missing.
func parseAmount(raw json.RawMessage) (int64, error) {
	text := strings.TrimSpace(string(raw))
	if text == "" || text == "null" {
		return 0, errAmountRequired
	}
	if strings.HasPrefix(text, `"`) {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return 0, errInvalidAmount
		}
		text = strings.TrimSpace(s)
		if text == "" {
			return 0, errAmountRequired
		}
	}

	cents, err := money.Parse(text)
	if err != nil {
		return 0, errInvalidAmount
	}
	switch {
	case cents == 0:
		return 0, errAmountRequired
	case cents < 0:
		return 0, errInvalidAmount
	}
	return cents, nil
}

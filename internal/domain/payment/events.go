package payment

import "time"

const (
	EventPaymentOrderCreated = "PaymentOrderCreated"
	EventPaymentCaptured     = "PaymentCaptured"
)

type PaymentOrderCreated struct {
	OrderID   string    `json:"order_id"`
	Status    string    `json:"status"`
	Amount    string    `json:"amount"`
	Currency  string    `json:"currency"`
	CreatedAt time.Time `json:"created_at"`
}

type PaymentCaptured struct {
	OrderID    string    `json:"order_id"`
	CaptureID  string    `json:"capture_id"`
	Status     string    `json:"status"`
	Amount     string    `json:"amount"`
	Currency   string    `json:"currency"`
	PayerEmail string    `json:"payer_email"`
	PayerName  string    `json:"payer_name"`
	CapturedAt time.Time `json:"captured_at"`
}

package checkout

import (
	"context"
	"encoding/json"
)

const (
	CurrencyUSD     = "USD"
	StatusCompleted = "COMPLETED"
)

// PaymentClient is the two-phase payment collaborator.
type PaymentClient interface {
	CreateOrder(ctx context.Context, req CreateOrderRequest) (*PaymentOrder, error)
	Capture(ctx context.Context, orderID string) (*CaptureResult, error)
}

type CreateOrderRequest struct {
	Amount   int64
	Currency string
	Customer Form
}

type Link struct {
	Href   string `json:"href"`
	Rel    string `json:"rel"`
	Method string `json:"method"`
}

// PaymentOrder is a created, not yet approved, payment order.
type PaymentOrder struct {
	ID     string `json:"id"`
	Status string `json:"status"`
	Links  []Link `json:"links"`
}

// ApprovalURL returns the link the buyer follows to approve the order.
func (p *PaymentOrder) ApprovalURL() string {
	if p == nil {
		return ""
	}
	for _, l := range p.Links {
		if l.Rel == "approve" || l.Rel == "payer-action" {
			return l.Href
		}
	}
	return ""
}

// CaptureResult is the capture response. Payer and PurchaseUnits are kept
// as the gateway sent them.
type CaptureResult struct {
	Success       bool            `json:"success"`
	OrderID       string          `json:"orderID"`
	Status        string          `json:"status"`
	Payer         json.RawMessage `json:"payer,omitempty"`
	PurchaseUnits json.RawMessage `json:"purchase_units,omitempty"`
}

// TransactionID is the id of the first capture, or "" when absent.
func (c *CaptureResult) TransactionID() string {
	if c == nil || len(c.PurchaseUnits) == 0 {
		return ""
	}
	var units []struct {
		Payments struct {
			Captures []struct {
				ID string `json:"id"`
			} `json:"captures"`
		} `json:"payments"`
	}
	if err := json.Unmarshal(c.PurchaseUnits, &units); err != nil {
		return ""
	}
	if len(units) == 0 || len(units[0].Payments.Captures) == 0 {
		return ""
	}
	return units[0].Payments.Captures[0].ID
}

package checkout

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/example/storefront/internal/money"
)

// APIError is a non-2xx response from the payment routes.
type APIError struct {
	StatusCode int
	Message    string
	Details    string
}

func (e *APIError) Error() string {
	msg := fmt.Sprintf("payment server returned status %d", e.StatusCode)
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Details != "" {
		msg += " (" + e.Details + ")"
	}
	return msg
}

// Authorizer decorates outgoing requests, typically with a bearer token.
type Authorizer func(*http.Request)

// HTTPPaymentClient talks to the storefront API's /payment routes.
type HTTPPaymentClient struct {
	baseURL   string
	client    *http.Client
	authorize Authorizer
}

// NewHTTPPaymentClient expects the API base URL. authorize may be nil.
func NewHTTPPaymentClient(baseURL string, timeout time.Duration, authorize Authorizer) *HTTPPaymentClient {
	return &HTTPPaymentClient{
		baseURL:   strings.TrimSuffix(baseURL, "/"),
		client:    &http.Client{Timeout: timeout},
		authorize: authorize,
	}
}

type createOrderPayload struct {
	Amount   string `json:"amount"`
	Currency string `json:"currency"`
	Form
}

func (c *HTTPPaymentClient) CreateOrder(ctx context.Context, req CreateOrderRequest) (*PaymentOrder, error) {
	payload, err := json.Marshal(createOrderPayload{
		Amount:   money.Format(req.Amount),
		Currency: req.Currency,
		Form:     req.Customer,
	})
	if err != nil {
		return nil, err
	}

	var order PaymentOrder
	if err := c.post(ctx, "/payment/orders", payload, &order); err != nil {
		return nil, err
	}
	return &order, nil
}

func (c *HTTPPaymentClient) Capture(ctx context.Context, orderID string) (*CaptureResult, error) {
	var result CaptureResult
	if err := c.post(ctx, "/payment/capture/"+url.PathEscape(orderID), nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *HTTPPaymentClient) post(ctx context.Context, path string, payload []byte, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.authorize != nil {
		c.authorize(req)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var body struct {
			Error   string          `json:"error"`
			Details json.RawMessage `json:"details"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&body)
		return &APIError{StatusCode: resp.StatusCode, Message: body.Error, Details: detailsText(body.Details)}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func detailsText(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(raw)
}

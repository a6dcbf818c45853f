package paypal

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/example/storefront/internal/money"
	"github.com/sony/gobreaker/v2"
	"go.uber.org/zap"
)

const (
	SandboxBaseURL = "https://api-m.sandbox.paypal.com"
	LiveBaseURL    = "https://api-m.paypal.com"

	itemName        = "E-commerce Purchase"
	itemDescription = "Payment for items in cart"

	// tokens are refreshed this long before PayPal expires them
	tokenExpirySlack = time.Minute
)

var (
	ErrUnavailable   = errors.New("payment gateway unavailable")
	ErrNotConfigured = errors.New("payment gateway credentials not configured")
)

// APIError is an error response from the PayPal REST API.
type APIError struct {
	StatusCode int
	Name       string `json:"name"`
	Message    string `json:"message"`
	DebugID    string `json:"debug_id"`
}

func (e *APIError) Error() string {
	if e.Name == "" && e.Message == "" {
		return fmt.Sprintf("paypal returned status %d", e.StatusCode)
	}
	return fmt.Sprintf("paypal returned status %d: %s: %s", e.StatusCode, e.Name, e.Message)
}

type Config struct {
	ClientID     string
	ClientSecret string
	BaseURL      string
	Timeout      time.Duration
}

// Client is a PayPal Orders v2 client. All calls share one circuit breaker.
type Client struct {
	cfg     Config
	http    *http.Client
	breaker *gobreaker.CircuitBreaker[[]byte]
	logger  *zap.Logger

	mu          sync.Mutex
	token       string
	tokenExpiry time.Time
}

func NewClient(cfg Config, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = SandboxBaseURL
	}
	cfg.BaseURL = strings.TrimSuffix(cfg.BaseURL, "/")
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	logger = logger.Named("paypal")

	breaker := gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
		Name:        "paypal",
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		IsSuccessful: isSuccessful,
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()))
		},
	})

	return &Client{
		cfg:     cfg,
		http:    &http.Client{Timeout: cfg.Timeout},
		breaker: breaker,
		logger:  logger,
	}
}

// BaseURLFor picks the live API in production and the sandbox otherwise.
func BaseURLFor(env string) string {
	if env == "production" {
		return LiveBaseURL
	}
	return SandboxBaseURL
}

type Link struct {
	Href   string `json:"href"`
	Rel    string `json:"rel"`
	Method string `json:"method"`
}

// Order is a created PayPal order.
type Order struct {
	ID     string `json:"id"`
	Status string `json:"status"`
	Links  []Link `json:"links"`
}

// Capture is a captured PayPal order. Payer and PurchaseUnits are kept raw
// so they can be relayed unchanged.
type Capture struct {
	ID            string          `json:"id"`
	Status        string          `json:"status"`
	Payer         json.RawMessage `json:"payer,omitempty"`
	PurchaseUnits json.RawMessage `json:"purchase_units,omitempty"`
}

type Payer struct {
	Email string
	Name  string
}

// PayerDetails extracts the payer's email and full name.
func (c *Capture) PayerDetails() Payer {
	var p struct {
		Email string `json:"email_address"`
		Name  struct {
			GivenName string `json:"given_name"`
			Surname   string `json:"surname"`
		} `json:"name"`
	}
	if len(c.Payer) == 0 || json.Unmarshal(c.Payer, &p) != nil {
		return Payer{}
	}
	return Payer{
		Email: p.Email,
		Name:  strings.TrimSpace(p.Name.GivenName + " " + p.Name.Surname),
	}
}

// CaptureDetails returns the first capture's id and amount.
func (c *Capture) CaptureDetails() (id, value, currency string) {
	var units []struct {
		Payments struct {
			Captures []struct {
				ID     string `json:"id"`
				Amount struct {
					CurrencyCode string `json:"currency_code"`
					Value        string `json:"value"`
				} `json:"amount"`
			} `json:"captures"`
		} `json:"payments"`
	}
	if len(c.PurchaseUnits) == 0 || json.Unmarshal(c.PurchaseUnits, &units) != nil {
		return "", "", ""
	}
	if len(units) == 0 || len(units[0].Payments.Captures) == 0 {
		return "", "", ""
	}
	first := units[0].Payments.Captures[0]
	return first.ID, first.Amount.Value, first.Amount.CurrencyCode
}

type amount struct {
	CurrencyCode string     `json:"currency_code"`
	Value        string     `json:"value"`
	Breakdown    *breakdown `json:"breakdown,omitempty"`
}

type breakdown struct {
	ItemTotal amount `json:"item_total"`
}

type item struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Quantity    string `json:"quantity"`
	UnitAmount  amount `json:"unit_amount"`
}

type purchaseUnit struct {
	Amount amount `json:"amount"`
	Items  []item `json:"items"`
}

type createOrderRequest struct {
	Intent        string         `json:"intent"`
	PurchaseUnits []purchaseUnit `json:"purchase_units"`
}

// CreateOrder creates a CAPTURE-intent order for a single line covering the
// whole cart.
func (c *Client) CreateOrder(ctx context.Context, cents int64, currency string) (*Order, error) {
	value := money.Format(cents)
	req := createOrderRequest{
		Intent: "CAPTURE",
		PurchaseUnits: []purchaseUnit{{
			Amount: amount{
				CurrencyCode: currency,
				Value:        value,
				Breakdown: &breakdown{
					ItemTotal: amount{CurrencyCode: currency, Value: value},
				},
			},
			Items: []item{{
				Name:        itemName,
				Description: itemDescription,
				Quantity:    "1",
				UnitAmount:  amount{CurrencyCode: currency, Value: value},
			}},
		}},
	}

	body, err := c.call(ctx, http.MethodPost, "/v2/checkout/orders", req)
	if err != nil {
		return nil, err
	}

	var order Order
	if err := json.Unmarshal(body, &order); err != nil {
		return nil, fmt.Errorf("decode order: %w", err)
	}
	return &order, nil
}

// CaptureOrder captures the payment of an approved order.
func (c *Client) CaptureOrder(ctx context.Context, orderID string) (*Capture, error) {
	path := "/v2/checkout/orders/" + url.PathEscape(orderID) + "/capture"
	body, err := c.call(ctx, http.MethodPost, path, struct{}{})
	if err != nil {
		return nil, err
	}

	var capture Capture
	if err := json.Unmarshal(body, &capture); err != nil {
		return nil, fmt.Errorf("decode capture: %w", err)
	}
	return &capture, nil
}

func (c *Client) call(ctx context.Context, method, path string, payload any) ([]byte, error) {
	if c.cfg.ClientID == "" || c.cfg.ClientSecret == "" {
		return nil, ErrNotConfigured
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	body, err := c.breaker.Execute(func() ([]byte, error) {
		return c.do(ctx, method, path, data)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return body, err
}

func (c *Client) do(ctx context.Context, method, path string, data []byte) ([]byte, error) {
	token, err := c.accessToken(ctx)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, method, c.cfg.BaseURL+path, bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Prefer", "return=representation")

	body, err := c.send(req)
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusUnauthorized {
		c.invalidateToken()
	}
	return body, err
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int64  `json:"expires_in"`
}

func (c *Client) accessToken(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.token != "" && time.Now().Before(c.tokenExpiry) {
		return c.token, nil
	}

	form := url.Values{"grant_type": {"client_credentials"}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/v1/oauth2/token", strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	req.SetBasicAuth(c.cfg.ClientID, c.cfg.ClientSecret)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	body, err := c.send(req)
	if err != nil {
		return "", fmt.Errorf("fetch access token: %w", err)
	}

	var tr tokenResponse
	if err := json.Unmarshal(body, &tr); err != nil || tr.AccessToken == "" {
		return "", fmt.Errorf("fetch access token: malformed response")
	}
	c.token = tr.AccessToken
	c.tokenExpiry = time.Now().Add(time.Duration(tr.ExpiresIn)*time.Second - tokenExpirySlack)
	c.logger.Debug("access token refreshed", zap.Int64("expires_in", tr.ExpiresIn))
	return c.token, nil
}

func (c *Client) invalidateToken() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = ""
	c.tokenExpiry = time.Time{}
}

func (c *Client) send(req *http.Request) ([]byte, error) {
	req.Header.Set("Accept", "application/json")
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		_ = json.Unmarshal(body, apiErr)
		if apiErr.Name == "" {
			// the OAuth endpoint reports errors as {"error", "error_description"}
			var oauthErr struct {
				Error       string `json:"error"`
				Description string `json:"error_description"`
			}
			if json.Unmarshal(body, &oauthErr) == nil {
				apiErr.Name, apiErr.Message = oauthErr.Error, oauthErr.Description
			}
		}
		return nil, apiErr
	}
	return body, nil
}

// isSuccessful keeps client errors such as a declined capture from opening
// the breaker; only transport failures and 5xx responses count.
func isSuccessful(err error) bool {
	if err == nil {
		return true
	}
	if errors.Is(err, ErrNotConfigured) || errors.Is(err, context.Canceled) {
		return true
	}
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode >= 400 && apiErr.StatusCode < 500
}

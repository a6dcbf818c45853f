package checkout

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPPaymentClient_CreateOrder(t *testing.T) {
	var got map[string]any
	var auth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/payment/orders", r.URL.Path)
		auth = r.Header.Get("Authorization")
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"PAY-1","status":"CREATED","links":[{"href":"https://paypal.example/approve","rel":"approve","method":"GET"}]}`))
	}))
	defer srv.Close()

	c := NewHTTPPaymentClient(srv.URL+"/api", time.Second, func(r *http.Request) {
		r.Header.Set("Authorization", "Bearer tok-1")
	})

	order, err := c.CreateOrder(context.Background(), CreateOrderRequest{
		Amount:   25_00,
		Currency: CurrencyUSD,
		Customer: validForm(),
	})

	require.NoError(t, err)
	assert.Equal(t, "PAY-1", order.ID)
	assert.Equal(t, "https://paypal.example/approve", order.ApprovalURL())
	assert.Equal(t, "Bearer tok-1", auth)
	assert.Equal(t, "25.00", got["amount"])
	assert.Equal(t, "USD", got["currency"])
	assert.Equal(t, "Ada", got["firstName"])
	assert.Equal(t, "N1", got["zipCode"])
	assert.NotContains(t, got, "apartment")
}

func TestHTTPPaymentClient_CreateOrder_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"Failed to create PayPal order","details":"UNPROCESSABLE_ENTITY"}`))
	}))
	defer srv.Close()

	c := NewHTTPPaymentClient(srv.URL+"/api", time.Second, nil)
	_, err := c.CreateOrder(context.Background(), CreateOrderRequest{Amount: 1_00, Currency: CurrencyUSD})

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusInternalServerError, apiErr.StatusCode)
	assert.Equal(t, "Failed to create PayPal order", apiErr.Message)
	assert.Equal(t, "UNPROCESSABLE_ENTITY", apiErr.Details)
}

func TestHTTPPaymentClient_Capture(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/payment/capture/PAY-1", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"success": true,
			"orderID": "PAY-1",
			"status": "COMPLETED",
			"payer": {"email_address": "ada@example.com"},
			"purchase_units": [{"payments": {"captures": [{"id": "CAP-9"}]}}]
		}`))
	}))
	defer srv.Close()

	c := NewHTTPPaymentClient(srv.URL+"/api/", time.Second, nil)
	result, err := c.Capture(context.Background(), "PAY-1")

	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, StatusCompleted, result.Status)
	assert.Equal(t, "CAP-9", result.TransactionID())
	assert.JSONEq(t, `{"email_address": "ada@example.com"}`, string(result.Payer))
}

func TestHTTPPaymentClient_DrivesOrchestrator(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/api/payment/orders":
			_, _ = w.Write([]byte(`{"id":"PAY-2","status":"CREATED","links":[]}`))
		case "/api/payment/capture/PAY-2":
			_, _ = w.Write([]byte(`{"success":false,"orderID":"PAY-2","status":"DENIED"}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	c := newTestCart()
	o := New(c, NewHTTPPaymentClient(srv.URL+"/api", time.Second, nil))

	require.NoError(t, o.Submit(context.Background(), validForm()))
	_, err := o.Approve(context.Background())

	assert.ErrorIs(t, err, ErrPaymentNotCompleted)
	assert.Equal(t, 3, c.TotalQuantity())
}

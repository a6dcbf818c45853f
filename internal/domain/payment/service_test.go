package payment

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/example/storefront/internal/infrastructure/kafka/mocks"
	"github.com/example/storefront/internal/paypal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type fakeGateway struct {
	order      *paypal.Order
	capture    *paypal.Capture
	err        error
	created    []int64
	currencies []string
	captured   []string
}

func (g *fakeGateway) CreateOrder(ctx context.Context, cents int64, currency string) (*paypal.Order, error) {
	g.created = append(g.created, cents)
	g.currencies = append(g.currencies, currency)
	if g.err != nil {
		return nil, g.err
	}
	return g.order, nil
}

func (g *fakeGateway) CaptureOrder(ctx context.Context, orderID string) (*paypal.Capture, error) {
	g.captured = append(g.captured, orderID)
	if g.err != nil {
		return nil, g.err
	}
	return g.capture, nil
}

var fixedNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func newTestService(gw *fakeGateway) (*Service, *mocks.MockPublisher) {
	pub := mocks.NewMockPublisher()
	svc := NewService(gw, pub, nil)
	svc.now = func() time.Time { return fixedNow }
	return svc, pub
}

func completedCapture() *paypal.Capture {
	return &paypal.Capture{
		ID:            "PAY-1",
		Status:        StatusCompleted,
		Payer:         json.RawMessage(`{"email_address":"ada@example.com","name":{"given_name":"Ada","surname":"Lovelace"}}`),
		PurchaseUnits: json.RawMessage(`[{"payments":{"captures":[{"id":"CAP-1","amount":{"currency_code":"USD","value":"25.00"}}]}}]`),
	}
}

// ============================================
// Create Order Tests
// ============================================

func TestService_CreateOrder(t *testing.T) {
	gw := &fakeGateway{order: &paypal.Order{ID: "PAY-1", Status: "CREATED"}}
	svc, pub := newTestService(gw)

	order, err := svc.CreateOrder(context.Background(), 25_00)

	require.NoError(t, err)
	assert.Equal(t, "PAY-1", order.ID)
	assert.Equal(t, []int64{25_00}, gw.created)
	assert.Equal(t, []string{CurrencyUSD}, gw.currencies)

	events := pub.EventsOfType(EventPaymentOrderCreated)
	require.Len(t, events, 1)
	assert.Equal(t, "PAY-1", events[0].Key)
	var payload PaymentOrderCreated
	require.NoError(t, events[0].Decode(&payload))
	assert.Equal(t, PaymentOrderCreated{
		OrderID:   "PAY-1",
		Status:    "CREATED",
		Amount:    "25.00",
		Currency:  CurrencyUSD,
		CreatedAt: fixedNow,
	}, payload)
}

func TestService_CreateOrder_InvalidAmount(t *testing.T) {
	gw := &fakeGateway{}
	svc, pub := newTestService(gw)

	for _, cents := range []int64{0, -100} {
		_, err := svc.CreateOrder(context.Background(), cents)
		assert.ErrorIs(t, err, ErrInvalidAmount)
	}
	assert.Empty(t, gw.created)
	assert.Empty(t, pub.Events())
}

func TestService_CreateOrder_GatewayError(t *testing.T) {
	gw := &fakeGateway{err: paypal.ErrUnavailable}
	svc, pub := newTestService(gw)

	_, err := svc.CreateOrder(context.Background(), 10_00)

	assert.ErrorIs(t, err, paypal.ErrUnavailable)
	assert.Empty(t, pub.Events())
}

func TestService_PublishFailureDoesNotFailPayment(t *testing.T) {
	core, logs := observer.New(zap.ErrorLevel)
	gw := &fakeGateway{order: &paypal.Order{ID: "PAY-1", Status: "CREATED"}}
	pub := mocks.NewMockPublisher()
	pub.PublishErr = errors.New("broker down")
	svc := NewService(gw, pub, zap.New(core))

	order, err := svc.CreateOrder(context.Background(), 10_00)

	require.NoError(t, err)
	assert.Equal(t, "PAY-1", order.ID)
	assert.Equal(t, 1, logs.FilterMessage("failed to publish event").Len())
}

func TestService_NilPublisher(t *testing.T) {
	gw := &fakeGateway{order: &paypal.Order{ID: "PAY-1"}, capture: completedCapture()}
	svc := NewService(gw, nil, nil)

	_, err := svc.CreateOrder(context.Background(), 10_00)
	require.NoError(t, err)
	_, err = svc.Capture(context.Background(), "PAY-1")
	require.NoError(t, err)
}

// ============================================
// Capture Tests
// ============================================

func TestService_Capture_Completed(t *testing.T) {
	gw := &fakeGateway{capture: completedCapture()}
	svc, pub := newTestService(gw)

	capture, err := svc.Capture(context.Background(), "PAY-1")

	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, capture.Status)
	assert.Equal(t, []string{"PAY-1"}, gw.captured)

	events := pub.EventsOfType(EventPaymentCaptured)
	require.Len(t, events, 1)
	var payload PaymentCaptured
	require.NoError(t, events[0].Decode(&payload))
	assert.Equal(t, PaymentCaptured{
		OrderID:    "PAY-1",
		CaptureID:  "CAP-1",
		Status:     StatusCompleted,
		Amount:     "25.00",
		Currency:   "USD",
		PayerEmail: "ada@example.com",
		PayerName:  "Ada Lovelace",
		CapturedAt: fixedNow,
	}, payload)
}

func TestService_Capture_NotCompleted(t *testing.T) {
	gw := &fakeGateway{capture: &paypal.Capture{ID: "PAY-1", Status: "DECLINED"}}
	svc, pub := newTestService(gw)

	capture, err := svc.Capture(context.Background(), "PAY-1")

	require.NoError(t, err)
	assert.Equal(t, "DECLINED", capture.Status)
	assert.Empty(t, pub.Events())
}

func TestService_Capture_MissingOrderID(t *testing.T) {
	gw := &fakeGateway{}
	svc, _ := newTestService(gw)

	_, err := svc.Capture(context.Background(), "")

	assert.ErrorIs(t, err, ErrMissingOrderID)
	assert.Empty(t, gw.captured)
}

func TestService_Capture_GatewayError(t *testing.T) {
	apiErr := &paypal.APIError{StatusCode: 422, Name: "UNPROCESSABLE_ENTITY", Message: "ORDER_NOT_APPROVED"}
	gw := &fakeGateway{err: apiErr}
	svc, pub := newTestService(gw)

	_, err := svc.Capture(context.Background(), "PAY-1")

	var got *paypal.APIError
	require.ErrorAs(t, err, &got)
	assert.Equal(t, "UNPROCESSABLE_ENTITY", got.Name)
	assert.Empty(t, pub.Events())
}

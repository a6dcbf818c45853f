package checkout

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/example/storefront/internal/cart"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	ErrEmptyCart           = errors.New("cart is empty")
	ErrInFlight            = errors.New("checkout step already in progress")
	ErrInvalidTransition   = errors.New("invalid checkout transition")
	ErrPaymentNotCompleted = errors.New("payment not completed")

	errEmptyPaymentOrder = errors.New("payment order has no id")
	errEmptyCapture      = errors.New("empty capture response")
)

type State string

const (
	StateIdle             State = "idle"
	StateFormValidating   State = "form_validating"
	StateOrderCreating    State = "order_creating"
	StateAwaitingApproval State = "awaiting_approval"
	StateCapturing        State = "capturing"
	StateCompleted        State = "completed"
	StateFailed           State = "failed"
)

const (
	ReasonMissingFields    = "missing fields"
	ReasonCreateFailed     = "could not create payment order"
	ReasonCaptureFailed    = "could not capture payment"
	ReasonNotCompleted     = "payment not completed"
	ReasonCancelled        = "payment cancelled"
	ReasonTimedOut         = "payment request timed out"
	ReasonCartInconsistent = "cart totals inconsistent"

	DefaultTimeout = 30 * time.Second
)

// Option configures an Orchestrator.
type Option func(*Orchestrator)

func WithTimeouts(create, capture time.Duration) Option {
	return func(o *Orchestrator) {
		o.createTimeout = create
		o.captureTimeout = capture
	}
}

func WithNumberGenerator(g NumberGenerator) Option {
	return func(o *Orchestrator) { o.numbers = g }
}

func WithLogger(logger *zap.Logger) Option {
	return func(o *Orchestrator) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// OnComplete registers a listener for completed orders.
func OnComplete(fn func(Order)) Option {
	return func(o *Orchestrator) { o.listeners = append(o.listeners, fn) }
}

// Orchestrator drives one checkout at a time: validate the form, create a
// payment order, wait for external approval, capture, then clear the cart.
type Orchestrator struct {
	mu             sync.Mutex
	cart           *cart.Store
	payments       PaymentClient
	numbers        NumberGenerator
	logger         *zap.Logger
	listeners      []func(Order)
	createTimeout  time.Duration
	captureTimeout time.Duration

	state        State
	reason       string
	validation   ValidationErrors
	paymentOrder *PaymentOrder
	order        *Order
	inFlight     bool
}

func New(c *cart.Store, payments PaymentClient, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		cart:           c,
		payments:       payments,
		numbers:        NewSequenceGenerator(),
		logger:         zap.NewNop(),
		createTimeout:  DefaultTimeout,
		captureTimeout: DefaultTimeout,
		state:          StateIdle,
	}
	for _, opt := range opts {
		opt(o)
	}
	o.logger = o.logger.Named("checkout")
	return o
}

// Submit validates the form and creates a payment order for the cart total.
// Validation failures return ValidationErrors and leave the orchestrator Idle.
func (o *Orchestrator) Submit(ctx context.Context, form Form) error {
	o.mu.Lock()
	if o.inFlight {
		o.mu.Unlock()
		return ErrInFlight
	}
	if o.state != StateIdle && o.state != StateFailed {
		o.mu.Unlock()
		return fmt.Errorf("%w: submit from %s", ErrInvalidTransition, o.state)
	}
	if o.cart.IsEmpty() {
		o.mu.Unlock()
		return ErrEmptyCart
	}

	o.state = StateFormValidating
	o.paymentOrder = nil
	o.order = nil
	o.validation = nil
	if errs := form.Validate(); errs != nil {
		o.fail(ReasonMissingFields)
		o.validation = errs
		o.state = StateIdle
		o.mu.Unlock()
		return errs
	}

	snapshot := o.cart.Snapshot()
	if err := snapshot.Verify(); err != nil {
		o.fail(ReasonCartInconsistent)
		o.mu.Unlock()
		return err
	}

	o.state = StateOrderCreating
	o.reason = ""
	o.inFlight = true
	o.mu.Unlock()

	callCtx, cancel := context.WithTimeout(ctx, o.createTimeout)
	defer cancel()
	paymentOrder, err := o.payments.CreateOrder(callCtx, CreateOrderRequest{
		Amount:   snapshot.TotalAmount,
		Currency: CurrencyUSD,
		Customer: form,
	})

	o.mu.Lock()
	defer o.mu.Unlock()
	o.inFlight = false
	if err == nil && (paymentOrder == nil || paymentOrder.ID == "") {
		err = errEmptyPaymentOrder
	}
	if err != nil {
		o.fail(failureReason(callCtx, err, ReasonCreateFailed))
		o.logger.Warn("create order failed", zap.Error(err))
		return fmt.Errorf("create payment order: %w", err)
	}

	o.paymentOrder = paymentOrder
	o.order = &Order{
		ID:        uuid.New().String(),
		PaymentID: paymentOrder.ID,
		Customer:  form,
		Lines:     snapshot.Lines,
		Total:     snapshot.TotalAmount,
		Status:    OrderPending,
		CreatedAt: time.Now(),
	}
	o.state = StateAwaitingApproval
	o.logger.Info("payment order created",
		zap.String("order_id", o.order.ID),
		zap.String("payment_id", paymentOrder.ID),
		zap.Int64("amount_cents", snapshot.TotalAmount))
	return nil
}

// Approve captures the approved payment. Only a COMPLETED capture removes the
// paid lines from the cart and notifies listeners.
func (o *Orchestrator) Approve(ctx context.Context) (*Order, error) {
	o.mu.Lock()
	if o.inFlight {
		o.mu.Unlock()
		return nil, ErrInFlight
	}
	if o.state != StateAwaitingApproval {
		o.mu.Unlock()
		return nil, fmt.Errorf("%w: approve from %s", ErrInvalidTransition, o.state)
	}
	o.state = StateCapturing
	o.inFlight = true
	paymentID := o.paymentOrder.ID
	o.mu.Unlock()

	callCtx, cancel := context.WithTimeout(ctx, o.captureTimeout)
	defer cancel()
	result, err := o.payments.Capture(callCtx, paymentID)

	if err == nil && result == nil {
		err = errEmptyCapture
	}

	o.mu.Lock()
	o.inFlight = false
	if err != nil {
		o.fail(failureReason(callCtx, err, ReasonCaptureFailed))
		o.mu.Unlock()
		o.logger.Warn("capture failed", zap.String("payment_id", paymentID), zap.Error(err))
		return nil, fmt.Errorf("capture payment: %w", err)
	}
	if result.Status != StatusCompleted {
		o.fail(ReasonNotCompleted)
		o.mu.Unlock()
		o.logger.Warn("capture not completed",
			zap.String("payment_id", paymentID),
			zap.String("status", result.Status))
		return nil, fmt.Errorf("%w: status %s", ErrPaymentNotCompleted, result.Status)
	}

	o.order.Number = o.numbers.Next()
	o.order.CaptureID = result.TransactionID()
	o.order.Status = OrderCompleted
	o.order.CompletedAt = time.Now()
	o.state = StateCompleted
	// lines added after Submit were not paid for and stay in the cart
	o.cart.RemoveLines(o.order.Lines)
	confirmed := o.order.clone()
	listeners := o.listeners
	o.mu.Unlock()

	o.logger.Info("order completed",
		zap.String("order_number", confirmed.Number),
		zap.String("capture_id", confirmed.CaptureID))
	for _, fn := range listeners {
		fn(*confirmed.clone())
	}
	return confirmed, nil
}

// Cancel abandons an order the buyer declined to approve.
func (o *Orchestrator) Cancel() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.state != StateAwaitingApproval {
		return fmt.Errorf("%w: cancel from %s", ErrInvalidTransition, o.state)
	}
	o.fail(ReasonCancelled)
	return nil
}

// Reset returns a finished checkout to Idle.
func (o *Orchestrator) Reset() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.state != StateFailed && o.state != StateCompleted {
		return fmt.Errorf("%w: reset from %s", ErrInvalidTransition, o.state)
	}
	o.state = StateIdle
	o.reason = ""
	o.validation = nil
	o.paymentOrder = nil
	o.order = nil
	return nil
}

func (o *Orchestrator) State() State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

func (o *Orchestrator) FailureReason() string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.reason
}

// ValidationErrors returns the field problems from the last Submit.
func (o *Orchestrator) ValidationErrors() ValidationErrors {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.validation == nil {
		return nil
	}
	out := make(ValidationErrors, len(o.validation))
	for k, v := range o.validation {
		out[k] = v
	}
	return out
}

func (o *Orchestrator) ApprovalURL() string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.paymentOrder.ApprovalURL()
}

func (o *Orchestrator) Order() *Order {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.order.clone()
}

// fail must be called with mu held.
func (o *Orchestrator) fail(reason string) {
	o.state = StateFailed
	o.reason = reason
	if o.order != nil {
		o.order.Status = OrderFailed
	}
}

func failureReason(ctx context.Context, err error, fallback string) string {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return ReasonTimedOut
	}
	return fallback
}

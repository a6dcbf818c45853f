package checkout

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/example/storefront/internal/cart"
)

type OrderStatus string

const (
	OrderPending   OrderStatus = "pending"
	OrderCompleted OrderStatus = "completed"
	OrderFailed    OrderStatus = "failed"
)

// Order is the confirmation record for one checkout attempt.
type Order struct {
	ID          string
	Number      string
	PaymentID   string
	CaptureID   string
	Customer    Form
	Lines       []cart.Line
	Total       int64
	Status      OrderStatus
	CreatedAt   time.Time
	CompletedAt time.Time
}

func (o *Order) clone() *Order {
	if o == nil {
		return nil
	}
	c := *o
	c.Lines = append([]cart.Line(nil), o.Lines...)
	return &c
}

// NumberGenerator issues human-readable order numbers.
type NumberGenerator interface {
	Next() string
}

const firstOrderNumber = 100001

// SequenceGenerator yields ORD-100001, ORD-100002, ... for the life of the
// process. Numbers are unique within one generator only.
type SequenceGenerator struct {
	n atomic.Int64
}

func NewSequenceGenerator() *SequenceGenerator {
	g := &SequenceGenerator{}
	g.n.Store(firstOrderNumber - 1)
	return g
}

func (g *SequenceGenerator) Next() string {
	return fmt.Sprintf("ORD-%06d", g.n.Add(1))
}

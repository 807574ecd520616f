// Package order keeps durable records of completed checkouts.
package order

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var ErrNotFound = errors.New("order not found")

type Order struct {
	ID         uuid.UUID       `json:"id"`
	CustomerID string          `json:"customerId,omitempty"` // empty for guest checkouts
	Total      decimal.Decimal `json:"total"`
	CreatedAt  time.Time       `json:"createdAt"`
	Lines      []Line          `json:"lines"`
}

// Line freezes the product name and unit price charged at checkout.
type Line struct {
	ProductID   int64           `json:"productId"`
	ProductName string          `json:"productName"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unitPrice"`
}

func (l Line) Subtotal() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

type Repository interface {
	Create(ctx context.Context, o Order) error
	Get(ctx context.Context, id uuid.UUID) (Order, error)
	// ListByCustomer returns newest orders first.
	ListByCustomer(ctx context.Context, customerID string) ([]Order, error)
}

// Package checkout turns a session's cart into a committed stock decrement.
//
// A checkout re-reads every product, validates the whole cart against live
// stock, then decrements line by line with the catalog's conditional write.
// If a decrement loses a race with a concurrent checkout, the lines already
// decremented are restored so the catalog never keeps a partial commit.
package checkout

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"storefront/internal/apperr"
	"storefront/internal/cart"
	"storefront/internal/catalog"
	"storefront/internal/logger"
	"storefront/internal/order"
)

// ValidationMode decides how many shortages a failed checkout reports.
type ValidationMode int

const (
	// FailFast stops at the first understocked product.
	FailFast ValidationMode = iota
	// CollectAll validates every line and names every short product.
	CollectAll
)

func ParseValidationMode(s string) (ValidationMode, error) {
	switch s {
	case "", "fail_fast":
		return FailFast, nil
	case "collect_all":
		return CollectAll, nil
	default:
		return FailFast, fmt.Errorf("checkout: unknown validation mode %q", s)
	}
}

// Catalog is what checkout needs from the product store.
type Catalog interface {
	FindByID(ctx context.Context, id int64) (catalog.Product, error)
	catalog.StockKeeper
}

// Carts is what checkout needs from the cart engine.
type Carts interface {
	Items(ctx context.Context, sessionID string) (map[int64]int, error)
	Clear(ctx context.Context, sessionID string) error
}

type Result struct {
	Success bool            `json:"success"`
	Total   decimal.Decimal `json:"total"`
	Lines   []order.Line    `json:"lines"`
	OrderID *uuid.UUID      `json:"orderId,omitempty"`
}

type Service struct {
	catalog Catalog
	carts   Carts
	orders  order.Repository
	mode    ValidationMode
	now     func() time.Time
	tracer  trace.Tracer
}

type Option func(*Service)

// WithOrders records a durable order for every successful checkout.
func WithOrders(repo order.Repository) Option {
	return func(s *Service) { s.orders = repo }
}

func WithValidation(mode ValidationMode) Option {
	return func(s *Service) { s.mode = mode }
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func NewService(c Catalog, carts Carts, opts ...Option) *Service {
	s := &Service{
		catalog: c,
		carts:   carts,
		mode:    FailFast,
		now:     time.Now,
		tracer:  otel.Tracer("storefront/checkout"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Checkout commits the cart held by sessionID. customerID may be empty for
// guest checkouts.
func (s *Service) Checkout(ctx context.Context, sessionID, customerID string) (res Result, err error) {
	const op = "checkout.Checkout"

	ctx, span := s.tracer.Start(ctx, op)
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, string(apperr.KindOf(err)))
		}
		span.End()
	}()

	items, err := s.carts.Items(ctx, sessionID)
	if err != nil {
		return Result{}, err
	}
	if len(items) == 0 {
		return Result{}, apperr.EmptyCart(op)
	}
	span.SetAttributes(attribute.Int("checkout.lines", len(items)))

	lines, err := s.validate(ctx, op, items)
	if err != nil {
		return Result{}, err
	}

	if err := s.commit(ctx, op, lines); err != nil {
		return Result{}, err
	}

	if err := s.carts.Clear(ctx, sessionID); err != nil {
		// The cart would still show the purchased items; give the stock back
		// rather than report success the client cannot see.
		s.restore(ctx, lines)
		return Result{}, apperr.StoreFailure(op, err)
	}

	res = Result{Success: true, Total: decimal.Zero, Lines: lines}
	for _, l := range lines {
		res.Total = res.Total.Add(l.Subtotal())
	}

	if s.orders != nil {
		o := order.Order{
			ID:         uuid.New(),
			CustomerID: customerID,
			Total:      res.Total,
			CreatedAt:  s.now().UTC(),
			Lines:      lines,
		}
		if err := s.orders.Create(ctx, o); err != nil {
			logger.Error("order record failed after stock commit", map[string]any{
				"order_id": o.ID.String(),
				"error":    err.Error(),
			})
		} else {
			res.OrderID = &o.ID
		}
	}

	span.SetAttributes(attribute.String("checkout.total", res.Total.StringFixed(2)))
	logger.Info("checkout committed", map[string]any{
		"lines":    len(lines),
		"total":    res.Total.StringFixed(2),
		"customer": customerID != "",
	})

	return res, nil
}

// validate re-reads each product and checks stock without writing anything.
func (s *Service) validate(ctx context.Context, op string, items map[int64]int) ([]order.Line, error) {
	lines := make([]order.Line, 0, len(items))
	var short []string

	for _, id := range cart.SortedIDs(items) {
		qty := items[id]
		p, err := s.catalog.FindByID(ctx, id)
		if err != nil {
			return nil, apperr.StoreFailure(op, err)
		}
		if qty > p.Stock {
			if s.mode == FailFast {
				return nil, apperr.InsufficientStock(op, p.Name)
			}
			short = append(short, p.Name)
			continue
		}
		lines = append(lines, order.Line{
			ProductID:   p.ID,
			ProductName: p.Name,
			Quantity:    qty,
			UnitPrice:   p.SalePrice,
		})
	}

	if len(short) > 0 {
		return nil, apperr.InsufficientStock(op, short...)
	}
	return lines, nil
}

// commit decrements every line, undoing earlier lines if a later one fails.
func (s *Service) commit(ctx context.Context, op string, lines []order.Line) error {
	for i, l := range lines {
		if err := s.catalog.DecrementStock(ctx, l.ProductID, l.Quantity); err != nil {
			logger.Warn("stock decrement failed, rolling back checkout", map[string]any{
				"product_id": l.ProductID,
				"quantity":   l.Quantity,
				"error":      err.Error(),
			})
			s.restore(ctx, lines[:i])
			return apperr.StoreFailure(op, err)
		}
	}
	return nil
}

func (s *Service) restore(ctx context.Context, lines []order.Line) {
	// Compensation must run even if the request context is already done.
	ctx = context.WithoutCancel(ctx)
	for _, l := range lines {
		if err := s.catalog.RestoreStock(ctx, l.ProductID, l.Quantity); err != nil {
			logger.Error("stock restore failed", map[string]any{
				"product_id": l.ProductID,
				"quantity":   l.Quantity,
				"error":      err.Error(),
			})
		}
	}
}

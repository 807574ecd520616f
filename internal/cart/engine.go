// Package cart implements the session-scoped shopping cart. A cart maps
// product IDs to requested quantities and lives inside the session record;
// prices are never cached in it and are read from the catalog on demand.
package cart

import (
	"context"
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"storefront/internal/apperr"
	"storefront/internal/catalog"
	"storefront/internal/session"
)

// MaxLineQuantity caps the quantity of a single cart line.
const MaxLineQuantity = 10000

// ProductFinder is the slice of the catalog the cart needs.
type ProductFinder interface {
	FindByID(ctx context.Context, id int64) (catalog.Product, error)
}

type Line struct {
	Product  catalog.Product `json:"product"`
	Quantity int             `json:"quantity"`
	Subtotal decimal.Decimal `json:"subtotal"`
}

// Snapshot is the priced view of a cart at one instant.
type Snapshot struct {
	Lines []Line          `json:"lines"`
	Total decimal.Decimal `json:"total"`
	Count int             `json:"count"`
	// Missing lists cart entries whose product no longer exists.
	Missing []int64 `json:"missing,omitempty"`
}

// Line returns the line for productID, if present.
func (s Snapshot) Line(productID int64) (Line, bool) {
	for _, l := range s.Lines {
		if l.Product.ID == productID {
			return l, true
		}
	}
	return Line{}, false
}

type Engine struct {
	products ProductFinder
	sessions session.Store
}

func NewEngine(products ProductFinder, sessions session.Store) *Engine {
	return &Engine{products: products, sessions: sessions}
}

// AddItem adds qty units of productID, accumulating onto an existing line.
// Stock is not checked here; checkout does that. Returns the new item count.
func (e *Engine) AddItem(ctx context.Context, sessionID string, productID int64, qty int) (int, error) {
	const op = "cart.AddItem"
	if productID < 1 {
		return 0, apperr.InvalidInput(op, "product id is required")
	}
	if err := validateQuantity(op, qty); err != nil {
		return 0, err
	}

	sess, err := e.load(ctx, op, sessionID)
	if err != nil {
		return 0, err
	}
	if _, err := e.products.FindByID(ctx, productID); err != nil {
		return 0, apperr.StoreFailure(op, err)
	}

	if sess.Cart == nil {
		sess.Cart = make(map[int64]int)
	}
	if qty > MaxLineQuantity-sess.Cart[productID] {
		return 0, quantityTooLarge(op)
	}
	sess.Cart[productID] += qty

	if err := e.save(ctx, op, sess); err != nil {
		return 0, err
	}
	return count(sess.Cart), nil
}

// SetQuantity replaces the quantity of a line already in the cart. A product
// that is not in the cart is reported as NotFound rather than inserted.
func (e *Engine) SetQuantity(ctx context.Context, sessionID string, productID int64, qty int) (Snapshot, error) {
	const op = "cart.SetQuantity"
	if err := validateQuantity(op, qty); err != nil {
		return Snapshot{}, err
	}

	sess, err := e.load(ctx, op, sessionID)
	if err != nil {
		return Snapshot{}, err
	}
	if _, ok := sess.Cart[productID]; !ok {
		return Snapshot{}, lineNotFound(op, productID)
	}

	sess.Cart[productID] = qty
	if err := e.save(ctx, op, sess); err != nil {
		return Snapshot{}, err
	}
	return e.price(ctx, op, sess.Cart)
}

// RemoveItem drops a line. The cart may become empty but stays present.
func (e *Engine) RemoveItem(ctx context.Context, sessionID string, productID int64) (Snapshot, error) {
	const op = "cart.RemoveItem"

	sess, err := e.load(ctx, op, sessionID)
	if err != nil {
		return Snapshot{}, err
	}
	if _, ok := sess.Cart[productID]; !ok {
		return Snapshot{}, lineNotFound(op, productID)
	}

	delete(sess.Cart, productID)
	if err := e.save(ctx, op, sess); err != nil {
		return Snapshot{}, err
	}
	return e.price(ctx, op, sess.Cart)
}

// Snapshot prices the cart with current catalog prices.
func (e *Engine) Snapshot(ctx context.Context, sessionID string) (Snapshot, error) {
	const op = "cart.Snapshot"

	sess, err := e.load(ctx, op, sessionID)
	if err != nil {
		return Snapshot{}, err
	}
	return e.price(ctx, op, sess.Cart)
}

// Count is the sum of all quantities, without touching the catalog.
func (e *Engine) Count(ctx context.Context, sessionID string) (int, error) {
	sess, err := e.load(ctx, "cart.Count", sessionID)
	if err != nil {
		return 0, err
	}
	return count(sess.Cart), nil
}

// Items returns a copy of the raw cart entries.
func (e *Engine) Items(ctx context.Context, sessionID string) (map[int64]int, error) {
	sess, err := e.load(ctx, "cart.Items", sessionID)
	if err != nil {
		return nil, err
	}
	out := make(map[int64]int, len(sess.Cart))
	for id, q := range sess.Cart {
		out[id] = q
	}
	return out, nil
}

// Clear removes the cart from the session entirely.
func (e *Engine) Clear(ctx context.Context, sessionID string) error {
	const op = "cart.Clear"

	sess, err := e.load(ctx, op, sessionID)
	if err != nil {
		return err
	}
	if sess.Cart == nil {
		return nil
	}
	sess.Cart = nil
	return e.save(ctx, op, sess)
}

func (e *Engine) price(ctx context.Context, op string, items map[int64]int) (Snapshot, error) {
	snap := Snapshot{Lines: []Line{}, Total: decimal.Zero}
	for _, id := range SortedIDs(items) {
		qty := items[id]
		p, err := e.products.FindByID(ctx, id)
		if apperr.Is(err, apperr.KindNotFound) {
			snap.Missing = append(snap.Missing, id)
			continue
		}
		if err != nil {
			return Snapshot{}, apperr.StoreFailure(op, err)
		}
		sub := p.SalePrice.Mul(decimal.NewFromInt(int64(qty)))
		snap.Lines = append(snap.Lines, Line{Product: p, Quantity: qty, Subtotal: sub})
		snap.Total = snap.Total.Add(sub)
	}
	snap.Count = count(items)
	return snap, nil
}

func (e *Engine) load(ctx context.Context, op, sessionID string) (*session.Session, error) {
	if sessionID == "" {
		return nil, apperr.InvalidInput(op, "missing session")
	}
	sess, err := e.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, apperr.StoreFailure(op, err)
	}
	if sess == nil {
		return nil, apperr.NotFound(op, "session not found")
	}
	return sess, nil
}

func (e *Engine) save(ctx context.Context, op string, sess *session.Session) error {
	if err := e.sessions.Update(ctx, *sess); err != nil {
		return apperr.StoreFailure(op, err)
	}
	return nil
}

// SortedIDs returns the cart's product IDs in ascending order.
func SortedIDs(items map[int64]int) []int64 {
	ids := make([]int64, 0, len(items))
	for id := range items {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func count(items map[int64]int) int {
	n := 0
	for _, q := range items {
		n += q
	}
	return n
}

func validateQuantity(op string, qty int) error {
	if qty < 1 {
		return apperr.InvalidInput(op, "quantity must be at least 1")
	}
	if qty > MaxLineQuantity {
		return quantityTooLarge(op)
	}
	return nil
}

func quantityTooLarge(op string) error {
	return apperr.InvalidInput(op, fmt.Sprintf("quantity per product must not exceed %d", MaxLineQuantity))
}

func lineNotFound(op string, productID int64) error {
	return apperr.NotFound(op, fmt.Sprintf("product %d is not in the cart", productID))
}

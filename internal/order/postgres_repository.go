package order

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"storefront/internal/db"
)

type PostgresRepository struct {
	db *db.DB
}

func NewPostgresRepository(db *db.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create writes the order header and its lines in one transaction.
func (r *PostgresRepository) Create(ctx context.Context, o Order) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	var customerID sql.NullString
	if o.CustomerID != "" {
		customerID = sql.NullString{String: o.CustomerID, Valid: true}
	}

	if _, err := tx.ExecContext(ctx, `
INSERT INTO orders (id, customer_id, total, created_at)
VALUES ($1, $2, $3, $4)`, o.ID, customerID, o.Total, o.CreatedAt); err != nil {
		return fmt.Errorf("order: insert header: %w", err)
	}

	for i, l := range o.Lines {
		if _, err := tx.ExecContext(ctx, `
INSERT INTO order_lines (order_id, line_no, product_id, product_name, quantity, unit_price)
VALUES ($1, $2, $3, $4, $5, $6)`,
			o.ID, i+1, l.ProductID, l.ProductName, l.Quantity, l.UnitPrice,
		); err != nil {
			return fmt.Errorf("order: insert line %d: %w", i+1, err)
		}
	}

	return tx.Commit()
}

func (r *PostgresRepository) Get(ctx context.Context, id uuid.UUID) (Order, error) {
	var (
		o          Order
		customerID sql.NullString
	)
	err := r.db.QueryRowContext(ctx, `
SELECT id, customer_id, total, created_at
FROM orders
WHERE id = $1`, id).Scan(&o.ID, &customerID, &o.Total, &o.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Order{}, ErrNotFound
	}
	if err != nil {
		return Order{}, err
	}
	o.CustomerID = customerID.String

	lines, err := r.lines(ctx, o.ID)
	if err != nil {
		return Order{}, err
	}
	o.Lines = lines
	return o, nil
}

func (r *PostgresRepository) ListByCustomer(ctx context.Context, customerID string) ([]Order, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT id, total, created_at
FROM orders
WHERE customer_id = $1
ORDER BY created_at DESC`, customerID)
	if err != nil {
		return nil, err
	}

	out := []Order{}
	for rows.Next() {
		o := Order{CustomerID: customerID}
		if err := rows.Scan(&o.ID, &o.Total, &o.CreatedAt); err != nil {
			rows.Close()
			return nil, err
		}
		out = append(out, o)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range out {
		lines, err := r.lines(ctx, out[i].ID)
		if err != nil {
			return nil, err
		}
		out[i].Lines = lines
	}
	return out, nil
}

func (r *PostgresRepository) lines(ctx context.Context, orderID uuid.UUID) ([]Line, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT product_id, product_name, quantity, unit_price
FROM order_lines
WHERE order_id = $1
ORDER BY line_no`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Line{}
	for rows.Next() {
		var l Line
		if err := rows.Scan(&l.ProductID, &l.ProductName, &l.Quantity, &l.UnitPrice); err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

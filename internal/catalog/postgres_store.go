package catalog

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"storefront/internal/db"
)

// PostgresStore implements Store on the products/departments tables.
type PostgresStore struct {
	db *db.DB
}

func NewPostgresStore(db *db.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const productColumns = `
  id, name, description, purchase_price, sale_price,
  stock, purchase_unit, sale_unit, department_id`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProduct(row rowScanner) (Product, error) {
	var p Product
	err := row.Scan(
		&p.ID, &p.Name, &p.Description, &p.PurchasePrice, &p.SalePrice,
		&p.Stock, &p.PurchaseUnit, &p.SaleUnit, &p.DepartmentID,
	)
	return p, err
}

func (s *PostgresStore) FindByID(ctx context.Context, id int64) (Product, error) {
	row := s.db.QueryRowContext(ctx, `SELECT`+productColumns+` FROM products WHERE id = $1`, id)
	p, err := scanProduct(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Product{}, productNotFound("catalog.FindByID", id)
		}
		return Product{}, err
	}
	return p, nil
}

func (s *PostgresStore) Search(ctx context.Context, query string) ([]Product, error) {
	q := strings.TrimSpace(query)

	rows, err := s.db.QueryContext(ctx, `
SELECT`+productColumns+`
FROM products
WHERE $1 = ''
   OR name ILIKE '%' || $1 || '%' ESCAPE '\'
   OR description ILIKE '%' || $1 || '%' ESCAPE '\'
ORDER BY id`, escapeLike(q))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Product{}
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// DecrementStock is a single conditional UPDATE, so two concurrent callers
// cannot both take the last unit.
func (s *PostgresStore) DecrementStock(ctx context.Context, id int64, amount int) error {
	const op = "catalog.DecrementStock"
	if err := validateAmount(op, amount); err != nil {
		return err
	}

	var remaining int
	err := s.db.QueryRowContext(ctx, `
UPDATE products
SET stock = stock - $2
WHERE id = $1 AND stock >= $2
RETURNING stock`, id, amount).Scan(&remaining)
	if err == nil {
		return nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return err
	}

	// No row updated: either the product is gone or stock is short.
	var name string
	err = s.db.QueryRowContext(ctx, `SELECT name FROM products WHERE id = $1`, id).Scan(&name)
	if errors.Is(err, sql.ErrNoRows) {
		return productNotFound(op, id)
	}
	if err != nil {
		return err
	}
	return insufficientStock(op, name)
}

func (s *PostgresStore) RestoreStock(ctx context.Context, id int64, amount int) error {
	const op = "catalog.RestoreStock"
	if err := validateAmount(op, amount); err != nil {
		return err
	}

	res, err := s.db.ExecContext(ctx, `UPDATE products SET stock = stock + $2 WHERE id = $1`, id, amount)
	if err != nil {
		return err
	}
	return requireRow(res, func() error { return productNotFound(op, id) })
}

func (s *PostgresStore) CreateProduct(ctx context.Context, in NewProduct) (Product, error) {
	const op = "catalog.CreateProduct"
	if err := in.Validate(); err != nil {
		return Product{}, err
	}

	row := s.db.QueryRowContext(ctx, `
INSERT INTO products (
  name, description, purchase_price, sale_price,
  stock, purchase_unit, sale_unit, department_id
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
RETURNING`+productColumns,
		strings.TrimSpace(in.Name), in.Description, in.PurchasePrice, in.SalePrice,
		in.Stock, in.PurchaseUnit, in.SaleUnit, in.DepartmentID,
	)
	p, err := scanProduct(row)
	if err != nil {
		if db.IsForeignKeyViolation(err) {
			return Product{}, departmentNotFound(op, in.DepartmentID)
		}
		return Product{}, err
	}
	return p, nil
}

// UpdateProduct writes only the fields set in u.
func (s *PostgresStore) UpdateProduct(ctx context.Context, id int64, u ProductUpdate) (Product, error) {
	const op = "catalog.UpdateProduct"
	if err := u.Validate(); err != nil {
		return Product{}, err
	}

	var name *string
	if u.Name != nil {
		trimmed := strings.TrimSpace(*u.Name)
		name = &trimmed
	}

	row := s.db.QueryRowContext(ctx, `
UPDATE products SET
  name           = COALESCE($2, name),
  description    = COALESCE($3, description),
  purchase_price = COALESCE($4, purchase_price),
  sale_price     = COALESCE($5, sale_price),
  stock          = COALESCE($6, stock),
  department_id  = COALESCE($7, department_id)
WHERE id = $1
RETURNING`+productColumns,
		id, name, u.Description, u.PurchasePrice, u.SalePrice, u.Stock, u.DepartmentID,
	)
	p, err := scanProduct(row)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return Product{}, productNotFound(op, id)
	case db.IsForeignKeyViolation(err):
		return Product{}, departmentNotFound(op, *u.DepartmentID)
	case err != nil:
		return Product{}, err
	}
	return p, nil
}

func (s *PostgresStore) DeleteProduct(ctx context.Context, id int64) error {
	const op = "catalog.DeleteProduct"

	res, err := s.db.ExecContext(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		if db.IsForeignKeyViolation(err) {
			return conflict(op, ErrProductReferenced)
		}
		return err
	}
	return requireRow(res, func() error { return productNotFound(op, id) })
}

func (s *PostgresStore) ListDepartments(ctx context.Context) ([]Department, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name FROM departments ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Department{}
	for rows.Next() {
		var d Department
		if err := rows.Scan(&d.ID, &d.Name); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func (s *PostgresStore) CreateDepartment(ctx context.Context, name string) (Department, error) {
	const op = "catalog.CreateDepartment"
	if err := validateName(op, name); err != nil {
		return Department{}, err
	}

	d := Department{Name: strings.TrimSpace(name)}
	err := s.db.QueryRowContext(ctx,
		`INSERT INTO departments (name) VALUES ($1) RETURNING id`, d.Name,
	).Scan(&d.ID)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return Department{}, conflict(op, ErrDuplicateName)
		}
		return Department{}, err
	}
	return d, nil
}

func (s *PostgresStore) UpdateDepartment(ctx context.Context, id int64, u DepartmentUpdate) (Department, error) {
	const op = "catalog.UpdateDepartment"

	var name *string
	if u.Name != nil {
		if err := validateName(op, *u.Name); err != nil {
			return Department{}, err
		}
		trimmed := strings.TrimSpace(*u.Name)
		name = &trimmed
	}

	var d Department
	err := s.db.QueryRowContext(ctx, `
UPDATE departments SET name = COALESCE($2, name)
WHERE id = $1
RETURNING id, name`, id, name).Scan(&d.ID, &d.Name)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return Department{}, departmentNotFound(op, id)
	case db.IsUniqueViolation(err):
		return Department{}, conflict(op, ErrDuplicateName)
	case err != nil:
		return Department{}, err
	}
	return d, nil
}

func (s *PostgresStore) DeleteDepartment(ctx context.Context, id int64) error {
	const op = "catalog.DeleteDepartment"

	var inUse bool
	err := s.db.QueryRowContext(ctx, `
SELECT EXISTS (
  SELECT 1 FROM products WHERE department_id = $1
)`, id).Scan(&inUse)
	if err != nil {
		return err
	}
	if inUse {
		return conflict(op, ErrDepartmentInUse)
	}

	res, err := s.db.ExecContext(ctx, `DELETE FROM departments WHERE id = $1`, id)
	if err != nil {
		if db.IsForeignKeyViolation(err) {
			return conflict(op, ErrDepartmentInUse)
		}
		return err
	}
	return requireRow(res, func() error { return departmentNotFound(op, id) })
}

func requireRow(res sql.Result, notFound func() error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return notFound()
	}
	return nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

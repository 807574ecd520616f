package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"storefront/internal/apperr"
)

var (
	ErrProductNotFound    = errors.New("product not found")
	ErrDepartmentNotFound = errors.New("department not found")
	ErrInsufficientStock  = errors.New("insufficient stock")
	ErrDepartmentInUse    = errors.New("department still has products")
	ErrProductReferenced  = errors.New("product is referenced by orders")
	ErrDuplicateName      = errors.New("name already exists")
)

const (
	maxNameLen        = 50
	maxDescriptionLen = 200
	priceScale        = 2
)

type Product struct {
	ID            int64           `json:"id"`
	Name          string          `json:"name"`
	Description   string          `json:"description,omitempty"`
	PurchasePrice decimal.Decimal `json:"purchasePrice"`
	SalePrice     decimal.Decimal `json:"salePrice"`
	Stock         int             `json:"stock"`
	PurchaseUnit  int             `json:"purchaseUnit"`
	SaleUnit      int             `json:"saleUnit"`
	DepartmentID  int64           `json:"departmentId"`
}

type Department struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// NewProduct is the input for CreateProduct.
type NewProduct struct {
	Name          string
	Description   string
	PurchasePrice decimal.Decimal
	SalePrice     decimal.Decimal
	Stock         int
	PurchaseUnit  int
	SaleUnit      int
	DepartmentID  int64
}

// ProductUpdate lists every externally mutable product field. Nil fields are
// left untouched. Stock is adjusted through DecrementStock/RestoreStock or set
// here by administrators.
type ProductUpdate struct {
	Name          *string
	Description   *string
	PurchasePrice *decimal.Decimal
	SalePrice     *decimal.Decimal
	Stock         *int
	DepartmentID  *int64
}

type DepartmentUpdate struct {
	Name *string
}

// Reader is the read side of the catalog.
type Reader interface {
	FindByID(ctx context.Context, id int64) (Product, error)
	// Search matches name or description case-insensitively. An empty query
	// returns every product. Results are ordered by ascending ID.
	Search(ctx context.Context, query string) ([]Product, error)
}

// StockKeeper adjusts stock levels. DecrementStock is a conditional write: it
// never lets stock go negative.
type StockKeeper interface {
	DecrementStock(ctx context.Context, id int64, amount int) error
	RestoreStock(ctx context.Context, id int64, amount int) error
}

type Store interface {
	Reader
	StockKeeper

	CreateProduct(ctx context.Context, p NewProduct) (Product, error)
	UpdateProduct(ctx context.Context, id int64, u ProductUpdate) (Product, error)
	// DeleteProduct fails with a conflict while durable orders reference it.
	DeleteProduct(ctx context.Context, id int64) error

	ListDepartments(ctx context.Context) ([]Department, error)
	CreateDepartment(ctx context.Context, name string) (Department, error)
	UpdateDepartment(ctx context.Context, id int64, u DepartmentUpdate) (Department, error)
	// DeleteDepartment never cascades: it fails while products reference it.
	DeleteDepartment(ctx context.Context, id int64) error
}

func (p NewProduct) Validate() error {
	const op = "catalog.CreateProduct"
	if err := validateName(op, p.Name); err != nil {
		return err
	}
	if len(p.Description) > maxDescriptionLen {
		return apperr.InvalidInput(op, "description too long")
	}
	if err := validatePrice(op, p.PurchasePrice); err != nil {
		return err
	}
	if err := validatePrice(op, p.SalePrice); err != nil {
		return err
	}
	if p.Stock < 0 {
		return apperr.InvalidInput(op, "stock must not be negative")
	}
	if p.PurchaseUnit < 1 || p.SaleUnit < 1 {
		return apperr.InvalidInput(op, "units must be positive")
	}
	if p.DepartmentID <= 0 {
		return apperr.InvalidInput(op, "department is required")
	}
	return nil
}

func (u ProductUpdate) Validate() error {
	const op = "catalog.UpdateProduct"
	if u.Name != nil {
		if err := validateName(op, *u.Name); err != nil {
			return err
		}
	}
	if u.Description != nil && len(*u.Description) > maxDescriptionLen {
		return apperr.InvalidInput(op, "description too long")
	}
	for _, price := range []*decimal.Decimal{u.PurchasePrice, u.SalePrice} {
		if price == nil {
			continue
		}
		if err := validatePrice(op, *price); err != nil {
			return err
		}
	}
	if u.Stock != nil && *u.Stock < 0 {
		return apperr.InvalidInput(op, "stock must not be negative")
	}
	if u.DepartmentID != nil && *u.DepartmentID <= 0 {
		return apperr.InvalidInput(op, "department is required")
	}
	return nil
}

func (u ProductUpdate) apply(p *Product) {
	if u.Name != nil {
		p.Name = strings.TrimSpace(*u.Name)
	}
	if u.Description != nil {
		p.Description = *u.Description
	}
	if u.PurchasePrice != nil {
		p.PurchasePrice = *u.PurchasePrice
	}
	if u.SalePrice != nil {
		p.SalePrice = *u.SalePrice
	}
	if u.Stock != nil {
		p.Stock = *u.Stock
	}
	if u.DepartmentID != nil {
		p.DepartmentID = *u.DepartmentID
	}
}

func validateName(op, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return apperr.InvalidInput(op, "name is required")
	}
	if len(name) > maxNameLen {
		return apperr.InvalidInput(op, "name too long")
	}
	return nil
}

// validatePrice accepts non-negative amounts with at most two decimal
// places, the precision prices are stored with.
func validatePrice(op string, price decimal.Decimal) error {
	if price.IsNegative() {
		return apperr.InvalidInput(op, "prices must not be negative")
	}
	if !price.Equal(price.Truncate(priceScale)) {
		return apperr.InvalidInput(op, "prices must have at most two decimal places")
	}
	return nil
}

func validateAmount(op string, amount int) error {
	if amount < 1 {
		return apperr.InvalidInput(op, "amount must be positive")
	}
	return nil
}

func productNotFound(op string, id int64) error {
	return &apperr.Error{
		Op:      op,
		Kind:    apperr.KindNotFound,
		Message: fmt.Sprintf("product %d not found", id),
		Err:     ErrProductNotFound,
	}
}

func departmentNotFound(op string, id int64) error {
	return &apperr.Error{
		Op:      op,
		Kind:    apperr.KindNotFound,
		Message: fmt.Sprintf("department %d not found", id),
		Err:     ErrDepartmentNotFound,
	}
}

func insufficientStock(op, name string) error {
	e := apperr.InsufficientStock(op, name)
	e.Err = ErrInsufficientStock
	return e
}

func conflict(op string, err error) error {
	return &apperr.Error{Op: op, Kind: apperr.KindConflict, Message: err.Error(), Err: err}
}

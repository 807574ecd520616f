package catalog

import (
	"context"
	"sort"
	"strings"
	"sync"
)

// MemoryStore is an in-process catalog guarded by a single RWMutex. Stock
// writes are check-and-set under the write lock, so concurrent checkouts
// cannot oversell.
type MemoryStore struct {
	mu          sync.RWMutex
	products    map[int64]Product
	departments map[int64]Department
	nextProduct int64
	nextDept    int64
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		products:    make(map[int64]Product),
		departments: make(map[int64]Department),
	}
}

func (s *MemoryStore) FindByID(ctx context.Context, id int64) (Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.products[id]
	if !ok {
		return Product{}, productNotFound("catalog.FindByID", id)
	}
	return p, nil
}

func (s *MemoryStore) Search(ctx context.Context, query string) ([]Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	q := strings.ToLower(strings.TrimSpace(query))
	result := make([]Product, 0, len(s.products))
	for _, p := range s.products {
		if q != "" &&
			!strings.Contains(strings.ToLower(p.Name), q) &&
			!strings.Contains(strings.ToLower(p.Description), q) {
			continue
		}
		result = append(result, p)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (s *MemoryStore) DecrementStock(ctx context.Context, id int64, amount int) error {
	const op = "catalog.DecrementStock"
	if err := validateAmount(op, amount); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.products[id]
	if !ok {
		return productNotFound(op, id)
	}
	if amount > p.Stock {
		return insufficientStock(op, p.Name)
	}
	p.Stock -= amount
	s.products[id] = p
	return nil
}

func (s *MemoryStore) RestoreStock(ctx context.Context, id int64, amount int) error {
	const op = "catalog.RestoreStock"
	if err := validateAmount(op, amount); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.products[id]
	if !ok {
		return productNotFound(op, id)
	}
	p.Stock += amount
	s.products[id] = p
	return nil
}

func (s *MemoryStore) CreateProduct(ctx context.Context, in NewProduct) (Product, error) {
	if err := in.Validate(); err != nil {
		return Product{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.departments[in.DepartmentID]; !ok {
		return Product{}, departmentNotFound("catalog.CreateProduct", in.DepartmentID)
	}

	s.nextProduct++
	p := Product{
		ID:            s.nextProduct,
		Name:          strings.TrimSpace(in.Name),
		Description:   in.Description,
		PurchasePrice: in.PurchasePrice,
		SalePrice:     in.SalePrice,
		Stock:         in.Stock,
		PurchaseUnit:  in.PurchaseUnit,
		SaleUnit:      in.SaleUnit,
		DepartmentID:  in.DepartmentID,
	}
	s.products[p.ID] = p
	return p, nil
}

func (s *MemoryStore) UpdateProduct(ctx context.Context, id int64, u ProductUpdate) (Product, error) {
	const op = "catalog.UpdateProduct"
	if err := u.Validate(); err != nil {
		return Product{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.products[id]
	if !ok {
		return Product{}, productNotFound(op, id)
	}
	if u.DepartmentID != nil {
		if _, ok := s.departments[*u.DepartmentID]; !ok {
			return Product{}, departmentNotFound(op, *u.DepartmentID)
		}
	}
	u.apply(&p)
	s.products[id] = p
	return p, nil
}

// DeleteProduct removes the product. The memory catalog keeps no order lines,
// so there is nothing to check; carts still holding the ID fail at checkout.
func (s *MemoryStore) DeleteProduct(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.products[id]; !ok {
		return productNotFound("catalog.DeleteProduct", id)
	}
	delete(s.products, id)
	return nil
}

func (s *MemoryStore) ListDepartments(ctx context.Context) ([]Department, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Department, 0, len(s.departments))
	for _, d := range s.departments {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *MemoryStore) CreateDepartment(ctx context.Context, name string) (Department, error) {
	const op = "catalog.CreateDepartment"
	if err := validateName(op, name); err != nil {
		return Department{}, err
	}
	name = strings.TrimSpace(name)

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.departmentNameTaken(name, 0) {
		return Department{}, conflict(op, ErrDuplicateName)
	}
	s.nextDept++
	d := Department{ID: s.nextDept, Name: name}
	s.departments[d.ID] = d
	return d, nil
}

func (s *MemoryStore) UpdateDepartment(ctx context.Context, id int64, u DepartmentUpdate) (Department, error) {
	const op = "catalog.UpdateDepartment"
	if u.Name != nil {
		if err := validateName(op, *u.Name); err != nil {
			return Department{}, err
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	d, ok := s.departments[id]
	if !ok {
		return Department{}, departmentNotFound(op, id)
	}
	if u.Name != nil {
		name := strings.TrimSpace(*u.Name)
		if s.departmentNameTaken(name, id) {
			return Department{}, conflict(op, ErrDuplicateName)
		}
		d.Name = name
	}
	s.departments[id] = d
	return d, nil
}

func (s *MemoryStore) DeleteDepartment(ctx context.Context, id int64) error {
	const op = "catalog.DeleteDepartment"

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.departments[id]; !ok {
		return departmentNotFound(op, id)
	}
	for _, p := range s.products {
		if p.DepartmentID == id {
			return conflict(op, ErrDepartmentInUse)
		}
	}
	delete(s.departments, id)
	return nil
}

// departmentNameTaken must be called with mu held.
func (s *MemoryStore) departmentNameTaken(name string, except int64) bool {
	for _, d := range s.departments {
		if d.ID != except && strings.EqualFold(d.Name, name) {
			return true
		}
	}
	return false
}

package order

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"
)

type MemoryRepository struct {
	mu     sync.RWMutex
	orders map[uuid.UUID]Order
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{orders: make(map[uuid.UUID]Order)}
}

func (r *MemoryRepository) Create(ctx context.Context, o Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.orders[o.ID]; exists {
		return fmt.Errorf("order %s already exists", o.ID)
	}
	o.Lines = append([]Line(nil), o.Lines...)
	r.orders[o.ID] = o
	return nil
}

func (r *MemoryRepository) Get(ctx context.Context, id uuid.UUID) (Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	o, ok := r.orders[id]
	if !ok {
		return Order{}, ErrNotFound
	}
	return o, nil
}

func (r *MemoryRepository) ListByCustomer(ctx context.Context, customerID string) ([]Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := []Order{}
	for _, o := range r.orders {
		if o.CustomerID == customerID {
			out = append(out, o)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

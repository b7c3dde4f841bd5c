package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"lending-engine/internal/domain/customer"
	"lending-engine/internal/pkg/apperrors"
)

type CustomerRepository struct {
	mu        sync.RWMutex
	customers map[string]customer.Customer
}

var _ customer.Repository = (*CustomerRepository)(nil)

func NewCustomerRepository() *CustomerRepository {
	return &CustomerRepository{customers: make(map[string]customer.Customer)}
}

func (r *CustomerRepository) Create(_ context.Context, c *customer.Customer) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.customers[c.ID]; exists {
		return fmt.Errorf("%w: customer %s already exists", apperrors.ErrConflict, c.ID)
	}
	r.customers[c.ID] = *c
	return nil
}

func (r *CustomerRepository) GetByID(_ context.Context, id string) (*customer.Customer, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if c, ok := r.customers[id]; ok {
		return &c, nil
	}
	return nil, apperrors.ErrNotFound
}

func (r *CustomerRepository) Update(_ context.Context, c *customer.Customer) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.customers[c.ID]; !ok {
		return apperrors.ErrNotFound
	}
	r.customers[c.ID] = *c
	return nil
}

func (r *CustomerRepository) List(_ context.Context) ([]*customer.Customer, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*customer.Customer, 0, len(r.customers))
	for _, c := range r.customers {
		cc := c
		out = append(out, &cc)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].JoinedAt.Equal(out[j].JoinedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].JoinedAt.Before(out[j].JoinedAt)
	})
	return out, nil
}

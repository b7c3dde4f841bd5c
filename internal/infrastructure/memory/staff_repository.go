package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"lending-engine/internal/domain/staff"
	"lending-engine/internal/pkg/apperrors"
)

type StaffRepository struct {
	mu       sync.RWMutex
	accounts map[string]staff.Account
}

var _ staff.Repository = (*StaffRepository)(nil)

func NewStaffRepository() *StaffRepository {
	return &StaffRepository{accounts: make(map[string]staff.Account)}
}

func (r *StaffRepository) Create(_ context.Context, a *staff.Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.accounts[a.ID]; exists {
		return fmt.Errorf("%w: staff account %s already exists", apperrors.ErrConflict, a.ID)
	}
	for _, existing := range r.accounts {
		if strings.EqualFold(existing.Email, a.Email) {
			return fmt.Errorf("%w: email %s already exists", apperrors.ErrConflict, a.Email)
		}
	}
	r.accounts[a.ID] = *a
	return nil
}

func (r *StaffRepository) GetByID(_ context.Context, id string) (*staff.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if a, ok := r.accounts[id]; ok {
		return &a, nil
	}
	return nil, apperrors.ErrNotFound
}

func (r *StaffRepository) GetByEmail(_ context.Context, email string) (*staff.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, a := range r.accounts {
		if strings.EqualFold(a.Email, email) {
			aa := a
			return &aa, nil
		}
	}
	return nil, apperrors.ErrNotFound
}

func (r *StaffRepository) Update(_ context.Context, a *staff.Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.accounts[a.ID]; !ok {
		return apperrors.ErrNotFound
	}
	r.accounts[a.ID] = *a
	return nil
}

func (r *StaffRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.accounts[id]; !ok {
		return apperrors.ErrNotFound
	}
	delete(r.accounts, id)
	return nil
}

func (r *StaffRepository) List(_ context.Context) ([]*staff.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*staff.Account, 0, len(r.accounts))
	for _, a := range r.accounts {
		aa := a
		out = append(out, &aa)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (r *StaffRepository) Count(_ context.Context) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.accounts), nil
}

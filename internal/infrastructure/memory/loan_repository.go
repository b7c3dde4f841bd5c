package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"lending-engine/internal/domain/loan"
	"lending-engine/internal/pkg/apperrors"
)

// LoanRepository is a mutex-guarded map store. Values are copied on the way
// in and out so callers can never alias stored state.
type LoanRepository struct {
	mu    sync.RWMutex
	loans map[string]loan.Loan
}

var _ loan.Repository = (*LoanRepository)(nil)

func NewLoanRepository() *LoanRepository {
	return &LoanRepository{loans: make(map[string]loan.Loan)}
}

func (r *LoanRepository) Create(_ context.Context, l *loan.Loan) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.loans[l.ID]; exists {
		return fmt.Errorf("%w: loan %s already exists", apperrors.ErrConflict, l.ID)
	}
	r.loans[l.ID] = *l
	return nil
}

func (r *LoanRepository) GetByID(_ context.Context, loanID string) (*loan.Loan, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if l, ok := r.loans[loanID]; ok {
		return &l, nil
	}
	return nil, apperrors.ErrNotFound
}

func (r *LoanRepository) Update(_ context.Context, l *loan.Loan) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.loans[l.ID]; !ok {
		return apperrors.ErrNotFound
	}
	r.loans[l.ID] = *l
	return nil
}

func (r *LoanRepository) List(_ context.Context) ([]*loan.Loan, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*loan.Loan, 0, len(r.loans))
	for _, l := range r.loans {
		c := l
		out = append(out, &c)
	}
	sortLoans(out)
	return out, nil
}

func (r *LoanRepository) ListByCustomer(_ context.Context, customerID string) ([]*loan.Loan, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*loan.Loan
	for _, l := range r.loans {
		if l.CustomerID == customerID {
			c := l
			out = append(out, &c)
		}
	}
	sortLoans(out)
	return out, nil
}

func (r *LoanRepository) ListByStatus(_ context.Context, status loan.Status) ([]*loan.Loan, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*loan.Loan
	for _, l := range r.loans {
		if l.Status == status {
			c := l
			out = append(out, &c)
		}
	}
	sortLoans(out)
	return out, nil
}

func sortLoans(loans []*loan.Loan) {
	sort.Slice(loans, func(i, j int) bool {
		if loans[i].CreatedAt.Equal(loans[j].CreatedAt) {
			return loans[i].ID < loans[j].ID
		}
		return loans[i].CreatedAt.Before(loans[j].CreatedAt)
	})
}

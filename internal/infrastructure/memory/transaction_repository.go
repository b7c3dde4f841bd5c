package memory

import (
	"context"
	"fmt"
	"sync"

	"lending-engine/internal/domain/ledger"
	"lending-engine/internal/pkg/apperrors"
)

// TransactionRepository is an append-only store: transactions are never
// updated or deleted once written.
type TransactionRepository struct {
	mu     sync.RWMutex
	byLoan map[string][]ledger.Transaction
}

var _ ledger.Repository = (*TransactionRepository)(nil)

func NewTransactionRepository() *TransactionRepository {
	return &TransactionRepository{byLoan: make(map[string][]ledger.Transaction)}
}

func (r *TransactionRepository) Append(_ context.Context, txn *ledger.Transaction) error {
	if txn == nil {
		return fmt.Errorf("%w: transaction cannot be nil", apperrors.ErrInvalidArgument)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byLoan[txn.LoanID] = append(r.byLoan[txn.LoanID], *txn)
	return nil
}

func (r *TransactionRepository) ListByLoan(_ context.Context, loanID string) ([]*ledger.Transaction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	stored := r.byLoan[loanID]
	out := make([]*ledger.Transaction, 0, len(stored))
	// Stored in append order; returned most-recent-first.
	for i := len(stored) - 1; i >= 0; i-- {
		t := stored[i]
		out = append(out, &t)
	}
	return out, nil
}

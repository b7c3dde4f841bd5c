package ledger

import "context"

type Repository interface {
	// Append stores a transaction. The store is append-only: there is no
	// update or delete.
	Append(ctx context.Context, txn *Transaction) error

	// ListByLoan returns a loan's transactions most-recent-first.
	ListByLoan(ctx context.Context, loanID string) ([]*Transaction, error)
}

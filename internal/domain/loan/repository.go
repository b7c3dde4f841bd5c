package loan

import "context"

type Repository interface {
	Create(ctx context.Context, loan *Loan) error

	GetByID(ctx context.Context, loanID string) (*Loan, error)

	Update(ctx context.Context, loan *Loan) error

	List(ctx context.Context) ([]*Loan, error)

	ListByCustomer(ctx context.Context, customerID string) ([]*Loan, error)

	ListByStatus(ctx context.Context, status Status) ([]*Loan, error)
}

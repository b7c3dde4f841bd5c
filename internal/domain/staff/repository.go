package staff

import "context"

type Repository interface {
	Create(ctx context.Context, account *Account) error

	GetByID(ctx context.Context, id string) (*Account, error)

	GetByEmail(ctx context.Context, email string) (*Account, error)

	Update(ctx context.Context, account *Account) error

	Delete(ctx context.Context, id string) error

	List(ctx context.Context) ([]*Account, error)

	Count(ctx context.Context) (int, error)
}

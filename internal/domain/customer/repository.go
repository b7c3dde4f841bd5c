package customer

import "context"

type Repository interface {
	Create(ctx context.Context, customer *Customer) error

	GetByID(ctx context.Context, id string) (*Customer, error)

	Update(ctx context.Context, customer *Customer) error

	List(ctx context.Context) ([]*Customer, error)
}

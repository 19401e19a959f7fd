package person

import "context"

type Repository interface {
	Create(ctx context.Context, p *Person) error
	GetByID(ctx context.Context, id int64) (*Person, error)
	List(ctx context.Context, limit, offset int) ([]*Person, int, error)
	ListByRole(ctx context.Context, role string, limit, offset int) ([]*Person, int, error)
	Delete(ctx context.Context, id int64) error
}

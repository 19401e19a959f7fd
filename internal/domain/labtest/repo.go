package labtest

import "context"

type Repository interface {
	Create(ctx context.Context, t *LabTest) error
	GetByID(ctx context.Context, id int64) (*LabTest, error)
	List(ctx context.Context, limit, offset int) ([]*LabTest, int, error)
	ListByClient(ctx context.Context, clientID int64, limit, offset int) ([]*LabTest, int, error)
	GetResults(ctx context.Context, testID int64) ([]*Result, error)
}

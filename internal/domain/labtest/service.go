package labtest

import (
	"context"
	"fmt"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) CreateTest(ctx context.Context, t *LabTest) error {
	if t.Name == "" {
		return fmt.Errorf("name is required")
	}
	if t.RequestedDate.IsZero() {
		return fmt.Errorf("requested_date is required")
	}
	if !t.DeliveryDate.IsZero() && t.DeliveryDate.Before(t.RequestedDate) {
		return fmt.Errorf("delivery_date before requested_date")
	}
	if t.CategoryID == 0 {
		return fmt.Errorf("category_id is required")
	}
	if t.ClientID == 0 || t.StaffID == 0 {
		return fmt.Errorf("client_id and staff_id are required")
	}
	return s.repo.Create(ctx, t)
}

func (s *Service) GetTest(ctx context.Context, id int64) (*LabTest, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) ListTests(ctx context.Context, clientID int64, limit, offset int) ([]*LabTest, int, error) {
	if clientID != 0 {
		return s.repo.ListByClient(ctx, clientID, limit, offset)
	}
	return s.repo.List(ctx, limit, offset)
}

func (s *Service) GetResults(ctx context.Context, testID int64) ([]*Result, error) {
	return s.repo.GetResults(ctx, testID)
}

package person

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

func (s *Service) CreatePerson(ctx context.Context, p *Person) error {
	if p.Name == "" {
		return fmt.Errorf("name is required")
	}
	if p.Sex == "" {
		p.Sex = SexMasculine
	}
	if !ValidSex(p.Sex) {
		return fmt.Errorf("invalid sex: %s", p.Sex)
	}
	if p.Role == "" {
		p.Role = RoleClient
	}
	if !ValidRole(p.Role) {
		return fmt.Errorf("invalid role: %s", p.Role)
	}
	if p.BirthDate == nil || p.BirthDate.IsZero() {
		return fmt.Errorf("birth_date is required")
	}
	p.Phone = NormalizePhone(p.Phone)
	return s.repo.Create(ctx, p)
}

func (s *Service) GetPerson(ctx context.Context, id int64) (*Person, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) ListPersons(ctx context.Context, role string, limit, offset int) ([]*Person, int, error) {
	if role != "" {
		if !ValidRole(role) {
			return nil, 0, fmt.Errorf("invalid role: %s", role)
		}
		return s.repo.ListByRole(ctx, role, limit, offset)
	}
	return s.repo.List(ctx, limit, offset)
}

func (s *Service) DeletePerson(ctx context.Context, id int64) error {
	return s.repo.Delete(ctx, id)
}

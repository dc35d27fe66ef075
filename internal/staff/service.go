package staff

import (
	"context"

	"github.com/google/uuid"
)

//go:generate mockgen -source=service.go -destination=repository_mock.go -package=staff
type Repository interface {
	GetStaff(ctx context.Context, id uuid.UUID) (*Staff, error)
}

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// ResolveActive returns the staff member behind an identifier and rejects
// deactivated accounts.
func (s *Service) ResolveActive(ctx context.Context, id uuid.UUID) (*Staff, error) {
	st, err := s.repo.GetStaff(ctx, id)
	if err != nil {
		return nil, err
	}

	if !st.Active {
		return nil, ErrInactive
	}

	return st, nil
}

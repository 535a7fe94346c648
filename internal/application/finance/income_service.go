package finance

import (
	"context"
	"time"

	"github.com/expensetracker/backend/internal/domain/finance"
	"github.com/expensetracker/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// IncomeService provides application-level income operations
type IncomeService struct {
	repo finance.IncomeRepository
}

// NewIncomeService creates a new IncomeService
func NewIncomeService(repo finance.IncomeRepository) *IncomeService {
	return &IncomeService{repo: repo}
}

// Create records an income for the caller
func (s *IncomeService) Create(ctx context.Context, req IncomeRequest) (*IncomeResponse, error) {
	i, err := finance.NewIncome(req.Name, req.Value, req.IncomeDate)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Save(ctx, i); err != nil {
		return nil, err
	}
	resp := ToIncomeResponse(*i)
	return &resp, nil
}

// Update replaces the fields of the caller's income
func (s *IncomeService) Update(ctx context.Context, id uuid.UUID, req IncomeRequest) (*IncomeResponse, error) {
	i, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := i.Update(req.Name, req.Value, req.IncomeDate); err != nil {
		return nil, err
	}
	if err := s.repo.Save(ctx, i); err != nil {
		return nil, err
	}
	resp := ToIncomeResponse(*i)
	return &resp, nil
}

// Get returns the caller's income
func (s *IncomeService) Get(ctx context.Context, id uuid.UUID) (*IncomeResponse, error) {
	i, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := ToIncomeResponse(*i)
	return &resp, nil
}

// Delete removes the caller's income
func (s *IncomeService) Delete(ctx context.Context, id uuid.UUID) error {
	return s.repo.DeleteByID(ctx, id)
}

// List returns one page of the caller's incomes
func (s *IncomeService) List(ctx context.Context, page PageRequest) (shared.Paginated[IncomeResponse], error) {
	p, err := s.repo.List(ctx, page.toDomain())
	if err != nil {
		return shared.Paginated[IncomeResponse]{}, err
	}
	return shared.MapPaginated(p, ToIncomeResponse), nil
}

// ListMonth returns the caller's incomes dated in the month of month
func (s *IncomeService) ListMonth(ctx context.Context, month time.Time) ([]IncomeResponse, error) {
	start, end := MonthRange(month)
	incomes, err := s.repo.FindByIncomeDate(ctx, start, end)
	if err != nil {
		return nil, err
	}
	out := make([]IncomeResponse, len(incomes))
	for i, inc := range incomes {
		out[i] = ToIncomeResponse(inc)
	}
	return out, nil
}

package finance

import (
	"context"

	"github.com/expensetracker/backend/internal/domain/finance"
	"github.com/expensetracker/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// CategoryService provides application-level category operations
type CategoryService struct {
	repo finance.CategoryRepository
}

// NewCategoryService creates a new CategoryService
func NewCategoryService(repo finance.CategoryRepository) *CategoryService {
	return &CategoryService{repo: repo}
}

// Create creates a category for the caller
func (s *CategoryService) Create(ctx context.Context, req CategoryRequest) (*CategoryResponse, error) {
	c, err := finance.NewCategory(req.Name, req.Color, req.FixedExpense)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Save(ctx, c); err != nil {
		return nil, err
	}
	resp := ToCategoryResponse(*c)
	return &resp, nil
}

// Update replaces the fields of the caller's category
func (s *CategoryService) Update(ctx context.Context, id uuid.UUID, req CategoryRequest) (*CategoryResponse, error) {
	c, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := c.Update(req.Name, req.Color, req.FixedExpense); err != nil {
		return nil, err
	}
	if err := s.repo.Save(ctx, c); err != nil {
		return nil, err
	}
	resp := ToCategoryResponse(*c)
	return &resp, nil
}

// Get returns the caller's category
func (s *CategoryService) Get(ctx context.Context, id uuid.UUID) (*CategoryResponse, error) {
	c, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := ToCategoryResponse(*c)
	return &resp, nil
}

// Delete removes the caller's category
func (s *CategoryService) Delete(ctx context.Context, id uuid.UUID) error {
	return s.repo.DeleteByID(ctx, id)
}

// List returns one page of the caller's categories
func (s *CategoryService) List(ctx context.Context, page PageRequest) (shared.Paginated[CategoryResponse], error) {
	p, err := s.repo.List(ctx, page.toDomain())
	if err != nil {
		return shared.Paginated[CategoryResponse]{}, err
	}
	return shared.MapPaginated(p, ToCategoryResponse), nil
}

// Search returns the caller's categories whose name contains term
func (s *CategoryService) Search(ctx context.Context, term string) ([]CategoryResponse, error) {
	found, err := s.repo.SearchByName(ctx, term)
	if err != nil {
		return nil, err
	}
	out := make([]CategoryResponse, len(found))
	for i, c := range found {
		out[i] = ToCategoryResponse(c)
	}
	return out, nil
}

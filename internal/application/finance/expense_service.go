package finance

import (
	"context"
	"time"

	"github.com/expensetracker/backend/internal/domain/finance"
	"github.com/expensetracker/backend/internal/domain/shared"
	"github.com/expensetracker/backend/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// ExpenseService provides application-level expense operations
type ExpenseService struct {
	expenses   finance.ExpenseRepository
	cards      finance.CardRepository
	categories finance.CategoryRepository
	logger     *zap.Logger
}

// NewExpenseService creates a new ExpenseService
func NewExpenseService(
	expenses finance.ExpenseRepository,
	cards finance.CardRepository,
	categories finance.CategoryRepository,
	logger *zap.Logger,
) *ExpenseService {
	return &ExpenseService{
		expenses:   expenses,
		cards:      cards,
		categories: categories,
		logger:     logger,
	}
}

// Create records an expense for the caller and plans its installments
func (s *ExpenseService) Create(ctx context.Context, req ExpenseRequest) (resp *ExpenseResponse, err error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "expense", "create",
		attribute.Int("expense.installments", req.Installments))
	defer func() {
		telemetry.RecordError(span, err)
		span.End()
	}()

	if err := s.checkReferences(ctx, req); err != nil {
		return nil, err
	}
	e, err := finance.NewExpense(req.toDomain())
	if err != nil {
		return nil, err
	}
	return s.schedule(ctx, e)
}

// Update replaces the fields of the caller's expense and re-plans its installments
func (s *ExpenseService) Update(ctx context.Context, id uuid.UUID, req ExpenseRequest) (resp *ExpenseResponse, err error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "expense", "update")
	defer func() {
		telemetry.RecordError(span, err)
		span.End()
	}()

	e, err := s.expenses.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.checkReferences(ctx, req); err != nil {
		return nil, err
	}
	if err := e.Update(req.toDomain()); err != nil {
		return nil, err
	}
	return s.schedule(ctx, e)
}

// schedule stores e together with a fresh installment plan
func (s *ExpenseService) schedule(ctx context.Context, e *finance.Expense) (*ExpenseResponse, error) {
	parts := e.PlanInstallments()
	if err := s.expenses.SaveWithInstallments(ctx, e, parts); err != nil {
		s.logger.Error("Failed to store expense",
			zap.String("expense_id", e.ID.String()),
			zap.Error(err))
		return nil, err
	}
	resp := ToExpenseResponse(*e, parts)
	return &resp, nil
}

// Get returns the caller's expense with its installments
func (s *ExpenseService) Get(ctx context.Context, id uuid.UUID) (*ExpenseResponse, error) {
	e, err := s.expenses.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	parts, err := s.expenses.FindInstallments(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := ToExpenseResponse(*e, parts)
	return &resp, nil
}

// Delete removes the caller's expense and its installments
func (s *ExpenseService) Delete(ctx context.Context, id uuid.UUID) error {
	return s.expenses.DeleteByID(ctx, id)
}

// List returns one page of the caller's expenses
func (s *ExpenseService) List(ctx context.Context, page PageRequest) (shared.Paginated[ExpenseResponse], error) {
	p, err := s.expenses.List(ctx, page.toDomain())
	if err != nil {
		return shared.Paginated[ExpenseResponse]{}, err
	}
	return shared.MapPaginated(p, func(e finance.Expense) ExpenseResponse {
		return ToExpenseResponse(e, nil)
	}), nil
}

// ListMonth returns the caller's expenses of the month containing month.
// With cardID it returns the card's purchases and installments due that
// month, otherwise the expenses paid without a card.
func (s *ExpenseService) ListMonth(ctx context.Context, month time.Time, cardID *uuid.UUID) ([]ExpenseResponse, error) {
	start, end := MonthRange(month)

	var (
		found []finance.Expense
		err   error
	)
	if cardID != nil {
		found, err = s.expenses.FindByCardExpense(ctx, start, end, *cardID)
	} else {
		found, err = s.expenses.FindByExpenseDate(ctx, start, end)
	}
	if err != nil {
		return nil, err
	}

	out := make([]ExpenseResponse, len(found))
	for i, e := range found {
		out[i] = ToExpenseResponse(e, nil)
	}
	return out, nil
}

// checkReferences maps a foreign or missing card or category to a validation error
func (s *ExpenseService) checkReferences(ctx context.Context, req ExpenseRequest) error {
	if req.CardID != nil {
		ok, err := s.cards.ExistsByID(ctx, *req.CardID)
		if err != nil {
			return err
		}
		if !ok {
			return shared.NewDomainError("INVALID_CARD", "Card not found")
		}
	}
	if req.CategoryID != nil {
		ok, err := s.categories.ExistsByID(ctx, *req.CategoryID)
		if err != nil {
			return err
		}
		if !ok {
			return shared.NewDomainError("INVALID_CATEGORY", "Category not found")
		}
	}
	return nil
}

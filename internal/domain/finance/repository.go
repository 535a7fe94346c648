package finance

import (
	"context"
	"time"

	"github.com/expensetracker/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Page selects a 1-based page of results
type Page struct {
	Number int
	Size   int
}

// CRUDRepository is the generic contract every owned record repository offers.
// Every method only reaches records of the caller bound to ctx; a record of
// another owner behaves exactly like a missing one.
type CRUDRepository[T any] interface {
	Save(ctx context.Context, entity *T) error
	FindByID(ctx context.Context, id uuid.UUID) (*T, error)
	ExistsByID(ctx context.Context, id uuid.UUID) (bool, error)
	DeleteByID(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, page Page) (shared.Paginated[T], error)
}

// CategoryRepository stores categories
type CategoryRepository interface {
	CRUDRepository[Category]
	SearchByName(ctx context.Context, term string) ([]Category, error)
}

// BankRepository stores banks
type BankRepository interface {
	CRUDRepository[Bank]
}

// CardRepository stores cards
type CardRepository interface {
	CRUDRepository[Card]
	// FindAll returns every card of the caller ordered by name.
	FindAll(ctx context.Context) ([]Card, error)
	FindByBank(ctx context.Context, bankID uuid.UUID) ([]Card, error)
}

// IncomeRepository stores incomes
type IncomeRepository interface {
	CRUDRepository[Income]
	FindByIncomeDate(ctx context.Context, start, end time.Time) ([]Income, error)
	SumMonthIncomes(ctx context.Context, start, end time.Time) (decimal.Decimal, error)
}

// ExpenseRepository stores expenses and their installments
type ExpenseRepository interface {
	CRUDRepository[Expense]
	// FindByExpenseDate returns non-card expenses dated in [start, end], newest first.
	FindByExpenseDate(ctx context.Context, start, end time.Time) ([]Expense, error)
	// FindByCardExpense returns expenses on card whose own date or any installment date lies in [start, end].
	FindByCardExpense(ctx context.Context, start, end time.Time, cardID uuid.UUID) ([]Expense, error)
	// SumMonthExpenses adds up non-card expenses dated in [start, end].
	SumMonthExpenses(ctx context.Context, start, end time.Time) (decimal.Decimal, error)
	// SumCardMonthExpenses adds up single-payment card expenses dated in [start, end].
	SumCardMonthExpenses(ctx context.Context, start, end time.Time, cardID uuid.UUID) (decimal.Decimal, error)
	// SaveWithInstallments stores e and swaps its installments for parts in one transaction.
	SaveWithInstallments(ctx context.Context, e *Expense, parts []Installment) error
	// ReplaceInstallments swaps the stored installments of an expense for parts.
	ReplaceInstallments(ctx context.Context, expenseID uuid.UUID, parts []Installment) error
	FindInstallments(ctx context.Context, expenseID uuid.UUID) ([]Installment, error)
	// SumCardInstallments adds up installments of card dated in [start, end].
	SumCardInstallments(ctx context.Context, start, end time.Time, cardID uuid.UUID) (decimal.Decimal, error)
}

// SettingsRepository stores the single settings record of each owner
type SettingsRepository interface {
	// Get returns the caller's settings, or shared.ErrNotFound when never saved.
	Get(ctx context.Context) (*Settings, error)
	Save(ctx context.Context, settings *Settings) error
}

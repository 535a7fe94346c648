package persistence

import (
	"context"
	"time"

	"github.com/expensetracker/backend/internal/domain/finance"
	"github.com/expensetracker/backend/internal/domain/shared"
	"github.com/expensetracker/backend/internal/infrastructure/persistence/models"
	"github.com/expensetracker/backend/internal/infrastructure/persistence/query"
	"github.com/expensetracker/backend/internal/infrastructure/persistence/scoped"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// GormCategoryRepository implements finance.CategoryRepository
type GormCategoryRepository struct {
	*ownedRepository[finance.Category, models.CategoryModel]
}

// NewGormCategoryRepository creates a category repository bound to strategy
func NewGormCategoryRepository(db *gorm.DB, strategy scoped.Strategy) (*GormCategoryRepository, error) {
	base, err := newOwnedRepository(db, strategy, (*models.CategoryModel).ToDomain, models.CategoryModelFromDomain)
	if err != nil {
		return nil, err
	}
	return &GormCategoryRepository{base}, nil
}

// SearchByName returns the caller's categories whose name contains term, ignoring case
func (r *GormCategoryRepository) SearchByName(ctx context.Context, term string) ([]finance.Category, error) {
	var filter query.Expr
	if term != "" {
		filter = query.Contains{Field: "name", Value: term}
	}
	return r.findAll(ctx, filter, query.Asc("name"))
}

// GormBankRepository implements finance.BankRepository
type GormBankRepository struct {
	*ownedRepository[finance.Bank, models.BankModel]
}

// NewGormBankRepository creates a bank repository bound to strategy
func NewGormBankRepository(db *gorm.DB, strategy scoped.Strategy) (*GormBankRepository, error) {
	base, err := newOwnedRepository(db, strategy, (*models.BankModel).ToDomain, models.BankModelFromDomain)
	if err != nil {
		return nil, err
	}
	return &GormBankRepository{base}, nil
}

// GormCardRepository implements finance.CardRepository
type GormCardRepository struct {
	*ownedRepository[finance.Card, models.CardModel]
}

// NewGormCardRepository creates a card repository bound to strategy
func NewGormCardRepository(db *gorm.DB, strategy scoped.Strategy) (*GormCardRepository, error) {
	base, err := newOwnedRepository(db, strategy, (*models.CardModel).ToDomain, models.CardModelFromDomain)
	if err != nil {
		return nil, err
	}
	return &GormCardRepository{base}, nil
}

// FindAll returns every card of the caller ordered by name
func (r *GormCardRepository) FindAll(ctx context.Context) ([]finance.Card, error) {
	return r.findAll(ctx, nil, query.Asc("name"))
}

// FindByBank returns the caller's cards issued by bankID
func (r *GormCardRepository) FindByBank(ctx context.Context, bankID uuid.UUID) ([]finance.Card, error) {
	return r.findAll(ctx, query.Eq{Field: "bank_id", Value: bankID}, query.Asc("name"))
}

// GormIncomeRepository implements finance.IncomeRepository
type GormIncomeRepository struct {
	*ownedRepository[finance.Income, models.IncomeModel]
}

// NewGormIncomeRepository creates an income repository bound to strategy
func NewGormIncomeRepository(db *gorm.DB, strategy scoped.Strategy) (*GormIncomeRepository, error) {
	base, err := newOwnedRepository(db, strategy, (*models.IncomeModel).ToDomain, models.IncomeModelFromDomain)
	if err != nil {
		return nil, err
	}
	return &GormIncomeRepository{base}, nil
}

// FindByIncomeDate returns incomes dated in [start, end], newest first
func (r *GormIncomeRepository) FindByIncomeDate(ctx context.Context, start, end time.Time) ([]finance.Income, error) {
	return r.findAll(ctx,
		query.Between{Field: "income_date", From: start, To: end},
		query.Desc("income_date"),
	)
}

// SumMonthIncomes adds up incomes dated in [start, end]
func (r *GormIncomeRepository) SumMonthIncomes(ctx context.Context, start, end time.Time) (decimal.Decimal, error) {
	return r.sum(ctx, "value", query.Between{Field: "income_date", From: start, To: end})
}

// GormExpenseRepository implements finance.ExpenseRepository
type GormExpenseRepository struct {
	*ownedRepository[finance.Expense, models.ExpenseModel]
	installments *ownedRepository[finance.Installment, models.InstallmentModel]
}

// NewGormExpenseRepository creates an expense repository bound to strategy
func NewGormExpenseRepository(db *gorm.DB, strategy scoped.Strategy) (*GormExpenseRepository, error) {
	base, err := newOwnedRepository(db, strategy, (*models.ExpenseModel).ToDomain, models.ExpenseModelFromDomain)
	if err != nil {
		return nil, err
	}
	installments, err := newOwnedRepository(db, strategy, (*models.InstallmentModel).ToDomain, models.InstallmentModelFromDomain)
	if err != nil {
		return nil, err
	}
	return &GormExpenseRepository{ownedRepository: base, installments: installments}, nil
}

// FindByExpenseDate implements finance.ExpenseRepository
func (r *GormExpenseRepository) FindByExpenseDate(ctx context.Context, start, end time.Time) ([]finance.Expense, error) {
	return r.findAll(ctx,
		query.And{
			query.IsNull{Field: "card_id"},
			query.Between{Field: "expense_date", From: start, To: end},
		},
		query.Desc("expense_date"),
	)
}

// FindByCardExpense implements finance.ExpenseRepository
func (r *GormExpenseRepository) FindByCardExpense(ctx context.Context, start, end time.Time, cardID uuid.UUID) ([]finance.Expense, error) {
	return r.findAll(ctx,
		query.And{
			query.Eq{Field: "card_id", Value: cardID},
			query.Or{
				query.Between{Field: "expense_date", From: start, To: end},
				query.Join{
					Association: "Schedule",
					Where:       query.Between{Field: "installment_date", From: start, To: end},
				},
			},
		},
		query.Desc("expense_date"),
	)
}

// SumMonthExpenses implements finance.ExpenseRepository
func (r *GormExpenseRepository) SumMonthExpenses(ctx context.Context, start, end time.Time) (decimal.Decimal, error) {
	return r.sum(ctx, "value", query.And{
		query.IsNull{Field: "card_id"},
		query.Between{Field: "expense_date", From: start, To: end},
	})
}

// SumCardMonthExpenses implements finance.ExpenseRepository
func (r *GormExpenseRepository) SumCardMonthExpenses(ctx context.Context, start, end time.Time, cardID uuid.UUID) (decimal.Decimal, error) {
	return r.sum(ctx, "value", query.And{
		query.Eq{Field: "card_id", Value: cardID},
		query.Eq{Field: "installments", Value: 1},
		query.Between{Field: "expense_date", From: start, To: end},
	})
}

// SumCardInstallments implements finance.ExpenseRepository
func (r *GormExpenseRepository) SumCardInstallments(ctx context.Context, start, end time.Time, cardID uuid.UUID) (decimal.Decimal, error) {
	return r.installments.sum(ctx, "value", query.And{
		query.Eq{Field: "card_id", Value: cardID},
		query.Between{Field: "installment_date", From: start, To: end},
	})
}

// FindInstallments returns the installments of the caller's expense in order
func (r *GormExpenseRepository) FindInstallments(ctx context.Context, expenseID uuid.UUID) ([]finance.Installment, error) {
	return r.installments.findAll(ctx,
		query.Eq{Field: "expense_id", Value: expenseID},
		query.Asc("installment_number"),
	)
}

// SaveWithInstallments implements finance.ExpenseRepository
func (r *GormExpenseRepository) SaveWithInstallments(ctx context.Context, e *finance.Expense, parts []finance.Installment) error {
	return r.engine().Tx(ctx, func(ctx context.Context) error {
		if err := r.Save(ctx, e); err != nil {
			return err
		}
		return r.replaceInstallments(ctx, e.ID, parts)
	})
}

// ReplaceInstallments implements finance.ExpenseRepository
func (r *GormExpenseRepository) ReplaceInstallments(ctx context.Context, expenseID uuid.UUID, parts []finance.Installment) error {
	return r.engine().Tx(ctx, func(ctx context.Context) error {
		exists, err := r.ExistsByID(ctx, expenseID)
		if err != nil {
			return err
		}
		if !exists {
			return shared.ErrNotFound
		}
		return r.replaceInstallments(ctx, expenseID, parts)
	})
}

// replaceInstallments must run inside a transaction
func (r *GormExpenseRepository) replaceInstallments(ctx context.Context, expenseID uuid.UUID, parts []finance.Installment) error {
	if _, err := r.installments.engine().Delete(ctx, query.Eq{Field: "expense_id", Value: expenseID}); err != nil {
		return err
	}
	for i := range parts {
		parts[i].ExpenseID = expenseID
		if err := r.installments.Save(ctx, &parts[i]); err != nil {
			return err
		}
	}
	return nil
}

// DeleteByID removes the caller's expense together with its installments
func (r *GormExpenseRepository) DeleteByID(ctx context.Context, id uuid.UUID) error {
	return r.engine().Tx(ctx, func(ctx context.Context) error {
		exists, err := r.ExistsByID(ctx, id)
		if err != nil {
			return err
		}
		if !exists {
			return shared.ErrNotFound
		}
		if _, err := r.installments.engine().Delete(ctx, query.Eq{Field: "expense_id", Value: id}); err != nil {
			return err
		}
		return r.ownedRepository.DeleteByID(ctx, id)
	})
}

// GormSettingsRepository implements finance.SettingsRepository
type GormSettingsRepository struct {
	base *ownedRepository[finance.Settings, models.SettingsModel]
}

// NewGormSettingsRepository creates a settings repository bound to strategy
func NewGormSettingsRepository(db *gorm.DB, strategy scoped.Strategy) (*GormSettingsRepository, error) {
	base, err := newOwnedRepository(db, strategy, (*models.SettingsModel).ToDomain, models.SettingsModelFromDomain)
	if err != nil {
		return nil, err
	}
	return &GormSettingsRepository{base: base}, nil
}

// Get implements finance.SettingsRepository
func (r *GormSettingsRepository) Get(ctx context.Context) (*finance.Settings, error) {
	return r.base.findOne(ctx, nil)
}

// Save implements finance.SettingsRepository
func (r *GormSettingsRepository) Save(ctx context.Context, settings *finance.Settings) error {
	return r.base.Save(ctx, settings)
}

// FinanceRepositories bundles every finance repository of one deployment
type FinanceRepositories struct {
	Categories *GormCategoryRepository
	Banks      *GormBankRepository
	Cards      *GormCardRepository
	Incomes    *GormIncomeRepository
	Expenses   *GormExpenseRepository
	Settings   *GormSettingsRepository
}

// NewFinanceRepositories builds every finance repository on strategy
func NewFinanceRepositories(db *gorm.DB, strategy scoped.Strategy) (*FinanceRepositories, error) {
	var (
		repos FinanceRepositories
		err   error
	)
	if repos.Categories, err = NewGormCategoryRepository(db, strategy); err != nil {
		return nil, err
	}
	if repos.Banks, err = NewGormBankRepository(db, strategy); err != nil {
		return nil, err
	}
	if repos.Cards, err = NewGormCardRepository(db, strategy); err != nil {
		return nil, err
	}
	if repos.Incomes, err = NewGormIncomeRepository(db, strategy); err != nil {
		return nil, err
	}
	if repos.Expenses, err = NewGormExpenseRepository(db, strategy); err != nil {
		return nil, err
	}
	if repos.Settings, err = NewGormSettingsRepository(db, strategy); err != nil {
		return nil, err
	}
	return &repos, nil
}

// Compile-time interface checks
var (
	_ finance.CategoryRepository = (*GormCategoryRepository)(nil)
	_ finance.BankRepository     = (*GormBankRepository)(nil)
	_ finance.CardRepository     = (*GormCardRepository)(nil)
	_ finance.IncomeRepository   = (*GormIncomeRepository)(nil)
	_ finance.ExpenseRepository  = (*GormExpenseRepository)(nil)
	_ finance.SettingsRepository = (*GormSettingsRepository)(nil)
)

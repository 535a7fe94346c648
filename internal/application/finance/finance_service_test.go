package finance

import (
	"context"
	"testing"
	"time"

	"github.com/expensetracker/backend/internal/domain/shared"
	"github.com/expensetracker/backend/internal/infrastructure/persistence"
	"github.com/expensetracker/backend/internal/infrastructure/persistence/models"
	"github.com/expensetracker/backend/internal/infrastructure/persistence/scoped"
	"github.com/expensetracker/backend/internal/infrastructure/reqctx"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

type services struct {
	categories *CategoryService
	banks      *BankService
	incomes    *IncomeService
	expenses   *ExpenseService
	settings   *SettingsService
	summary    *SummaryService
}

func newServices(t *testing.T) *services {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: gormlogger.Discard, TranslateError: true})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(models.FinanceModels()...))
	require.NoError(t, scoped.RegisterGuard(db))

	repos, err := persistence.NewFinanceRepositories(db, scoped.NewOwnerStrategy(db))
	require.NoError(t, err)

	return &services{
		categories: NewCategoryService(repos.Categories),
		banks:      NewBankService(repos.Banks, repos.Cards),
		incomes:    NewIncomeService(repos.Incomes),
		expenses:   NewExpenseService(repos.Expenses, repos.Cards, repos.Categories, zap.NewNop()),
		settings:   NewSettingsService(repos.Settings),
		summary:    NewSummaryService(repos.Incomes, repos.Expenses, repos.Cards),
	}
}

func principal() context.Context {
	return reqctx.WithPrincipal(context.Background(), uuid.New())
}

func date(month time.Month, day int) time.Time {
	return time.Date(2024, month, day, 0, 0, 0, 0, time.UTC)
}

func TestParseMonth(t *testing.T) {
	m, err := ParseMonth("2024-02")
	require.NoError(t, err)
	start, end := MonthRange(m)
	assert.Equal(t, date(time.February, 1), start)
	assert.Equal(t, 29, end.Day())

	_, err = ParseMonth("02/2024")
	de, ok := shared.AsDomainError(err)
	require.True(t, ok)
	assert.Equal(t, "INVALID_MONTH", de.Code)
}

func TestCategoryService_IsolatedCRUD(t *testing.T) {
	svc := newServices(t)
	alice, bob := principal(), principal()

	created, err := svc.categories.Create(alice, CategoryRequest{Name: "Food", Color: "#aabbcc"})
	require.NoError(t, err)

	page, err := svc.categories.List(bob, PageRequest{})
	require.NoError(t, err)
	assert.Zero(t, page.Total)

	page, err = svc.categories.List(alice, PageRequest{})
	require.NoError(t, err)
	assert.EqualValues(t, 1, page.Total)

	_, err = svc.categories.Update(bob, created.ID, CategoryRequest{Name: "Stolen"})
	assert.ErrorIs(t, err, shared.ErrNotFound)

	updated, err := svc.categories.Update(alice, created.ID, CategoryRequest{Name: "Groceries", FixedExpense: true})
	require.NoError(t, err)
	assert.Equal(t, "Groceries", updated.Name)
	assert.True(t, updated.FixedExpense)

	found, err := svc.categories.Search(alice, "gro")
	require.NoError(t, err)
	assert.Len(t, found, 1)

	assert.ErrorIs(t, svc.categories.Delete(bob, created.ID), shared.ErrNotFound)
	require.NoError(t, svc.categories.Delete(alice, created.ID))
	_, err = svc.categories.Get(alice, created.ID)
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestBankService_Cards(t *testing.T) {
	svc := newServices(t)
	alice, bob := principal(), principal()

	bank, err := svc.banks.CreateBank(alice, BankRequest{Name: "Itau", Balance: decimal.NewFromInt(10)})
	require.NoError(t, err)

	_, err = svc.banks.CreateCard(bob, CardRequest{BankID: bank.ID, Name: "Sneaky"})
	de, ok := shared.AsDomainError(err)
	require.True(t, ok)
	assert.Equal(t, "INVALID_BANK", de.Code)

	card, err := svc.banks.CreateCard(alice, CardRequest{BankID: bank.ID, Name: "Black", Limit: decimal.NewFromInt(900)})
	require.NoError(t, err)
	assert.Equal(t, 2, card.ClosingDay)

	cards, err := svc.banks.ListCards(alice, &bank.ID, PageRequest{})
	require.NoError(t, err)
	assert.Len(t, cards.Items, 1)

	err = svc.banks.DeleteBank(alice, bank.ID)
	de, ok = shared.AsDomainError(err)
	require.True(t, ok)
	assert.Equal(t, "BANK_HAS_CARDS", de.Code)

	require.NoError(t, svc.banks.DeleteCard(alice, card.ID))
	require.NoError(t, svc.banks.DeleteBank(alice, bank.ID))
}

func TestExpenseService_Installments(t *testing.T) {
	svc := newServices(t)
	alice, bob := principal(), principal()

	bank, err := svc.banks.CreateBank(alice, BankRequest{Name: "Itau"})
	require.NoError(t, err)
	card, err := svc.banks.CreateCard(alice, CardRequest{BankID: bank.ID, Name: "Black"})
	require.NoError(t, err)

	created, err := svc.expenses.Create(alice, ExpenseRequest{
		Name: "TV", Value: decimal.NewFromInt(1000), ExpenseDate: date(time.January, 20),
		Installments: 4, CardID: &card.ID,
	})
	require.NoError(t, err)
	require.Len(t, created.Schedule, 4)
	assert.Equal(t, date(time.April, 20), created.Schedule[3].Date)

	got, err := svc.expenses.Get(alice, created.ID)
	require.NoError(t, err)
	assert.Len(t, got.Schedule, 4)

	updated, err := svc.expenses.Update(alice, created.ID, ExpenseRequest{
		Name: "TV", Value: decimal.NewFromInt(1000), ExpenseDate: date(time.January, 20), CardID: &card.ID,
	})
	require.NoError(t, err)
	assert.Empty(t, updated.Schedule)

	got, err = svc.expenses.Get(alice, created.ID)
	require.NoError(t, err)
	assert.Empty(t, got.Schedule)

	_, err = svc.expenses.Create(bob, ExpenseRequest{
		Name: "Theft", Value: decimal.NewFromInt(5), ExpenseDate: date(time.January, 1), CardID: &card.ID,
	})
	de, ok := shared.AsDomainError(err)
	require.True(t, ok)
	assert.Equal(t, "INVALID_CARD", de.Code)

	_, err = svc.expenses.Get(bob, created.ID)
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestSettingsService_Defaults(t *testing.T) {
	svc := newServices(t)
	alice := principal()

	got, err := svc.settings.Get(alice)
	require.NoError(t, err)
	assert.Equal(t, 5, got.PaymentDay)

	_, err = svc.settings.Update(alice, SettingsRequest{PaymentDay: 15})
	require.NoError(t, err)
	_, err = svc.settings.Update(alice, SettingsRequest{PaymentDay: 20})
	require.NoError(t, err)

	got, err = svc.settings.Get(alice)
	require.NoError(t, err)
	assert.Equal(t, 20, got.PaymentDay)

	got, err = svc.settings.Get(principal())
	require.NoError(t, err)
	assert.Equal(t, 5, got.PaymentDay)
}

func TestSummaryService_Monthly(t *testing.T) {
	svc := newServices(t)
	alice, bob := principal(), principal()

	_, err := svc.incomes.Create(alice, IncomeRequest{Name: "Salary", Value: decimal.NewFromInt(5000), IncomeDate: date(time.March, 5)})
	require.NoError(t, err)
	_, err = svc.expenses.Create(alice, ExpenseRequest{Name: "Rent", Value: decimal.NewFromInt(1500), ExpenseDate: date(time.March, 10)})
	require.NoError(t, err)

	bank, err := svc.banks.CreateBank(alice, BankRequest{Name: "Itau"})
	require.NoError(t, err)
	card, err := svc.banks.CreateCard(alice, CardRequest{BankID: bank.ID, Name: "Black"})
	require.NoError(t, err)
	_, err = svc.expenses.Create(alice, ExpenseRequest{Name: "Dinner", Value: decimal.NewFromInt(200), ExpenseDate: date(time.March, 15), CardID: &card.ID})
	require.NoError(t, err)
	_, err = svc.expenses.Create(alice, ExpenseRequest{
		Name: "Phone", Value: decimal.NewFromInt(900), ExpenseDate: date(time.February, 15),
		Installments: 3, CardID: &card.ID,
	})
	require.NoError(t, err)

	_, err = svc.incomes.Create(bob, IncomeRequest{Name: "Bonus", Value: decimal.NewFromInt(99999), IncomeDate: date(time.March, 5)})
	require.NoError(t, err)

	summary, err := svc.summary.Monthly(alice, date(time.March, 31))
	require.NoError(t, err)
	assert.Equal(t, "2024-03", summary.Month)
	assert.True(t, decimal.NewFromInt(5000).Equal(summary.Incomes), summary.Incomes.String())
	assert.True(t, decimal.NewFromInt(1500).Equal(summary.Expenses), summary.Expenses.String())
	require.Len(t, summary.Cards, 1)
	assert.True(t, decimal.NewFromInt(200).Equal(summary.Cards[0].Purchases))
	assert.True(t, decimal.NewFromInt(300).Equal(summary.Cards[0].Installments))
	assert.True(t, decimal.NewFromInt(3000).Equal(summary.Balance), summary.Balance.String())

	empty, err := svc.summary.Monthly(principal(), date(time.March, 1))
	require.NoError(t, err)
	assert.True(t, empty.Balance.IsZero())
	assert.Empty(t, empty.Cards)

	_, err = svc.summary.Monthly(context.Background(), date(time.March, 1))
	assert.ErrorIs(t, err, scoped.ErrOwnerRequired)
}

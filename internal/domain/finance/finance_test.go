package finance

import (
	"testing"
	"time"

	"github.com/expensetracker/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestNewCategory(t *testing.T) {
	c, err := NewCategory("  Groceries ", "#a1b2c3", true)
	require.NoError(t, err)
	assert.Equal(t, "Groceries", c.Name)
	assert.Equal(t, "#A1B2C3", c.Color)
	assert.True(t, c.IsNew())

	_, err = NewCategory("", "", false)
	assert.Error(t, err)

	_, err = NewCategory("x", "red", false)
	de, ok := shared.AsDomainError(err)
	require.True(t, ok)
	assert.Equal(t, "INVALID_COLOR", de.Code)
}

func TestNewCard(t *testing.T) {
	c, err := NewCard(uuid.New(), "Gold", dec("1000.555"), 0)
	require.NoError(t, err)
	assert.Equal(t, DefaultClosingDay, c.ClosingDay)
	assert.True(t, dec("1000.56").Equal(c.Limit))

	_, err = NewCard(uuid.Nil, "Gold", dec("1"), 5)
	assert.Error(t, err)

	_, err = NewCard(uuid.New(), "Gold", dec("-1"), 5)
	assert.Error(t, err)

	_, err = NewCard(uuid.New(), "Gold", dec("1"), 31)
	assert.Error(t, err)
}

func TestCard_BillingMonth(t *testing.T) {
	c := &Card{ClosingDay: 10}
	assert.Equal(t, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), c.BillingMonth(time.Date(2024, 3, 9, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC), c.BillingMonth(time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), c.BillingMonth(time.Date(2024, 12, 20, 0, 0, 0, 0, time.UTC)))
}

func TestNewExpense(t *testing.T) {
	card := uuid.New()
	date := time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC)

	e, err := NewExpense(ExpenseInput{Name: "TV", Value: dec("100"), ExpenseDate: date, Installments: 3, CardID: &card})
	require.NoError(t, err)
	assert.True(t, e.OnCard())

	e, err = NewExpense(ExpenseInput{Name: "Lunch", Value: dec("10"), ExpenseDate: date})
	require.NoError(t, err)
	assert.Equal(t, 1, e.Installments)

	_, err = NewExpense(ExpenseInput{Name: "Lunch", Value: dec("10"), ExpenseDate: date, Installments: 2})
	assert.Error(t, err, "installments require a card")

	_, err = NewExpense(ExpenseInput{Name: "Lunch", Value: dec("0"), ExpenseDate: date})
	assert.Error(t, err)

	_, err = NewExpense(ExpenseInput{Name: "Lunch", Value: dec("1")})
	assert.Error(t, err)
}

func TestExpense_PlanInstallments(t *testing.T) {
	card := uuid.New()
	e, err := NewExpense(ExpenseInput{
		Name:         "TV",
		Value:        dec("100"),
		ExpenseDate:  time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC),
		Installments: 3,
		CardID:       &card,
	})
	require.NoError(t, err)
	assert.Nil(t, e.PlanInstallments(), "unsaved expense has no installments")

	e.ID = uuid.New()
	parts := e.PlanInstallments()
	require.Len(t, parts, 3)

	assert.True(t, dec("33.34").Equal(parts[0].Value))
	assert.True(t, dec("33.33").Equal(parts[1].Value))
	assert.True(t, dec("33.33").Equal(parts[2].Value))

	total := decimal.Zero
	for i, p := range parts {
		total = total.Add(p.Value)
		assert.Equal(t, i+1, p.InstallmentNumber)
		assert.Equal(t, e.ID, p.ExpenseID)
		assert.Equal(t, &card, p.CardID)
	}
	assert.True(t, total.Equal(e.Value))
	assert.Equal(t, time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC), parts[2].InstallmentDate)
}

func TestNewIncome(t *testing.T) {
	i, err := NewIncome("Salary", dec("5000"), time.Now())
	require.NoError(t, err)
	assert.Equal(t, "Salary", i.Name)

	_, err = NewIncome("Salary", dec("-1"), time.Now())
	assert.Error(t, err)
}

func TestSettings(t *testing.T) {
	s := NewSettings()
	assert.Equal(t, DefaultPaymentDay, s.PaymentDay)
	require.NoError(t, s.SetPaymentDay(10))
	assert.Equal(t, 10, s.PaymentDay)
	assert.Error(t, s.SetPaymentDay(0))
}

func TestNewBank(t *testing.T) {
	b, err := NewBank("Nubank", dec("12.345"))
	require.NoError(t, err)
	assert.True(t, dec("12.35").Equal(b.Balance))

	_, err = NewBank(" ", decimal.Zero)
	assert.Error(t, err)
}

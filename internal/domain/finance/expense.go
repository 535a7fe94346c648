package finance

import (
	"strings"
	"time"

	"github.com/expensetracker/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// MaxInstallments bounds how many monthly parts an expense can be split into
const MaxInstallments = 48

// Expense is money spent on a date, optionally on a card and in installments
type Expense struct {
	shared.OwnedEntity
	Name         string
	Value        decimal.Decimal
	ExpenseDate  time.Time
	Installments int
	CategoryID   *uuid.UUID
	CardID       *uuid.UUID
}

// ExpenseInput carries the mutable fields of an expense
type ExpenseInput struct {
	Name         string
	Value        decimal.Decimal
	ExpenseDate  time.Time
	Installments int
	CategoryID   *uuid.UUID
	CardID       *uuid.UUID
}

// NewExpense validates and creates an expense
func NewExpense(in ExpenseInput) (*Expense, error) {
	e := &Expense{}
	if err := e.Update(in); err != nil {
		return nil, err
	}
	return e, nil
}

// Update replaces the mutable fields of the expense
func (e *Expense) Update(in ExpenseInput) error {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return shared.NewDomainError("INVALID_NAME", "Expense name cannot be empty")
	}
	if !in.Value.IsPositive() {
		return shared.NewDomainError("INVALID_AMOUNT", "Amount must be positive")
	}
	if in.ExpenseDate.IsZero() {
		return shared.NewDomainError("INVALID_DATE", "Expense date is required")
	}
	installments := in.Installments
	if installments == 0 {
		installments = 1
	}
	if installments < 1 || installments > MaxInstallments {
		return shared.NewDomainError("INVALID_INSTALLMENTS", "Installments must be between 1 and 48")
	}
	if installments > 1 && in.CardID == nil {
		return shared.NewDomainError("INVALID_INSTALLMENTS", "Only card expenses can be split into installments")
	}

	e.Name = name
	e.Value = in.Value.Round(2)
	e.ExpenseDate = in.ExpenseDate
	e.Installments = installments
	e.CategoryID = in.CategoryID
	e.CardID = in.CardID
	return nil
}

// OnCard reports whether the expense was charged to a card
func (e *Expense) OnCard() bool {
	return e.CardID != nil
}

// Installment is one monthly part of a card expense
type Installment struct {
	shared.OwnedEntity
	ExpenseID         uuid.UUID
	CardID            *uuid.UUID
	InstallmentNumber int
	InstallmentDate   time.Time
	Value             decimal.Decimal
}

// PlanInstallments splits a persisted multi-installment expense into monthly
// parts. Cents that do not divide evenly go to the first installment so the
// parts always add up to the expense value. Single-payment expenses yield none.
func (e *Expense) PlanInstallments() []Installment {
	if e.Installments <= 1 || e.IsNew() {
		return nil
	}

	n := decimal.NewFromInt(int64(e.Installments))
	part := e.Value.Div(n).RoundDown(2)
	first := e.Value.Sub(part.Mul(n.Sub(decimal.NewFromInt(1))))

	out := make([]Installment, e.Installments)
	for i := range out {
		value := part
		if i == 0 {
			value = first
		}
		out[i] = Installment{
			ExpenseID:         e.ID,
			CardID:            e.CardID,
			InstallmentNumber: i + 1,
			InstallmentDate:   e.ExpenseDate.AddDate(0, i, 0),
			Value:             value,
		}
	}
	return out
}

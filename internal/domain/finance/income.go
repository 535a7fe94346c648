package finance

import (
	"strings"
	"time"

	"github.com/expensetracker/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Income is money received on a date
type Income struct {
	shared.OwnedEntity
	Name       string
	Value      decimal.Decimal
	IncomeDate time.Time
}

// NewIncome validates and creates an income
func NewIncome(name string, value decimal.Decimal, date time.Time) (*Income, error) {
	i := &Income{}
	if err := i.Update(name, value, date); err != nil {
		return nil, err
	}
	return i, nil
}

// Update replaces the mutable fields of the income
func (i *Income) Update(name string, value decimal.Decimal, date time.Time) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return shared.NewDomainError("INVALID_NAME", "Income name cannot be empty")
	}
	if !value.IsPositive() {
		return shared.NewDomainError("INVALID_AMOUNT", "Amount must be positive")
	}
	if date.IsZero() {
		return shared.NewDomainError("INVALID_DATE", "Income date is required")
	}
	i.Name = name
	i.Value = value.Round(2)
	i.IncomeDate = date
	return nil
}

package finance

import (
	"strings"

	"github.com/expensetracker/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Bank is an account holding a balance
type Bank struct {
	shared.OwnedEntity
	Name    string
	Balance decimal.Decimal
}

// NewBank validates and creates a bank
func NewBank(name string, balance decimal.Decimal) (*Bank, error) {
	b := &Bank{}
	if err := b.Update(name, balance); err != nil {
		return nil, err
	}
	return b, nil
}

// Update replaces the mutable fields of the bank
func (b *Bank) Update(name string, balance decimal.Decimal) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return shared.NewDomainError("INVALID_NAME", "Bank name cannot be empty")
	}
	b.Name = name
	b.Balance = balance.Round(2)
	return nil
}

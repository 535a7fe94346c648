package finance

import (
	"strings"
	"time"

	"github.com/expensetracker/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DefaultClosingDay is used when a card is created without a closing day
const DefaultClosingDay = 2

// Card is a credit card issued by a bank
type Card struct {
	shared.OwnedEntity
	BankID     uuid.UUID
	Name       string
	Limit      decimal.Decimal
	ClosingDay int
}

// NewCard validates and creates a card
func NewCard(bankID uuid.UUID, name string, limit decimal.Decimal, closingDay int) (*Card, error) {
	c := &Card{}
	if err := c.Update(bankID, name, limit, closingDay); err != nil {
		return nil, err
	}
	return c, nil
}

// Update replaces the mutable fields of the card
func (c *Card) Update(bankID uuid.UUID, name string, limit decimal.Decimal, closingDay int) error {
	if bankID == uuid.Nil {
		return shared.NewDomainError("INVALID_BANK", "Card must belong to a bank")
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return shared.NewDomainError("INVALID_NAME", "Card name cannot be empty")
	}
	if limit.IsNegative() {
		return shared.NewDomainError("INVALID_LIMIT", "Card limit cannot be negative")
	}
	if closingDay == 0 {
		closingDay = DefaultClosingDay
	}
	if closingDay < 1 || closingDay > 28 {
		return shared.NewDomainError("INVALID_CLOSING_DAY", "Closing day must be between 1 and 28")
	}
	c.BankID = bankID
	c.Name = name
	c.Limit = limit.Round(2)
	c.ClosingDay = closingDay
	return nil
}

// BillingMonth returns the first day of the month whose statement includes a
// purchase made on date. Purchases on or after the closing day roll over.
func (c *Card) BillingMonth(date time.Time) time.Time {
	month := time.Date(date.Year(), date.Month(), 1, 0, 0, 0, 0, date.Location())
	if date.Day() >= c.ClosingDay {
		month = month.AddDate(0, 1, 0)
	}
	return month
}

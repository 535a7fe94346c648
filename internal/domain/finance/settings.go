package finance

import "github.com/expensetracker/backend/internal/domain/shared"

// DefaultPaymentDay is the payment day reported before the owner sets one
const DefaultPaymentDay = 5

// Settings holds per-owner preferences. There is at most one per owner.
type Settings struct {
	shared.OwnedEntity
	PaymentDay int
}

// NewSettings returns settings with defaults applied
func NewSettings() *Settings {
	return &Settings{PaymentDay: DefaultPaymentDay}
}

// SetPaymentDay validates and sets the monthly payment day
func (s *Settings) SetPaymentDay(day int) error {
	if day < 1 || day > 31 {
		return shared.NewDomainError("INVALID_PAYMENT_DAY", "Payment day must be between 1 and 31")
	}
	s.PaymentDay = day
	return nil
}

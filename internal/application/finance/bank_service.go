package finance

import (
	"context"

	"github.com/expensetracker/backend/internal/domain/finance"
	"github.com/expensetracker/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// BankService provides application-level bank and card operations
type BankService struct {
	banks finance.BankRepository
	cards finance.CardRepository
}

// NewBankService creates a new BankService
func NewBankService(banks finance.BankRepository, cards finance.CardRepository) *BankService {
	return &BankService{banks: banks, cards: cards}
}

// CreateBank creates a bank for the caller
func (s *BankService) CreateBank(ctx context.Context, req BankRequest) (*BankResponse, error) {
	b, err := finance.NewBank(req.Name, req.Balance)
	if err != nil {
		return nil, err
	}
	if err := s.banks.Save(ctx, b); err != nil {
		return nil, err
	}
	resp := ToBankResponse(*b)
	return &resp, nil
}

// UpdateBank replaces the fields of the caller's bank
func (s *BankService) UpdateBank(ctx context.Context, id uuid.UUID, req BankRequest) (*BankResponse, error) {
	b, err := s.banks.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := b.Update(req.Name, req.Balance); err != nil {
		return nil, err
	}
	if err := s.banks.Save(ctx, b); err != nil {
		return nil, err
	}
	resp := ToBankResponse(*b)
	return &resp, nil
}

// GetBank returns the caller's bank
func (s *BankService) GetBank(ctx context.Context, id uuid.UUID) (*BankResponse, error) {
	b, err := s.banks.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := ToBankResponse(*b)
	return &resp, nil
}

// DeleteBank removes the caller's bank. Banks that still issue cards are kept.
func (s *BankService) DeleteBank(ctx context.Context, id uuid.UUID) error {
	cards, err := s.cards.FindByBank(ctx, id)
	if err != nil {
		return err
	}
	if len(cards) > 0 {
		return shared.NewDomainError("BANK_HAS_CARDS", "Bank still has cards")
	}
	return s.banks.DeleteByID(ctx, id)
}

// ListBanks returns one page of the caller's banks
func (s *BankService) ListBanks(ctx context.Context, page PageRequest) (shared.Paginated[BankResponse], error) {
	p, err := s.banks.List(ctx, page.toDomain())
	if err != nil {
		return shared.Paginated[BankResponse]{}, err
	}
	return shared.MapPaginated(p, ToBankResponse), nil
}

// CreateCard creates a card on one of the caller's banks
func (s *BankService) CreateCard(ctx context.Context, req CardRequest) (*CardResponse, error) {
	if err := s.requireBank(ctx, req.BankID); err != nil {
		return nil, err
	}
	c, err := finance.NewCard(req.BankID, req.Name, req.Limit, req.ClosingDay)
	if err != nil {
		return nil, err
	}
	if err := s.cards.Save(ctx, c); err != nil {
		return nil, err
	}
	resp := ToCardResponse(*c)
	return &resp, nil
}

// UpdateCard replaces the fields of the caller's card
func (s *BankService) UpdateCard(ctx context.Context, id uuid.UUID, req CardRequest) (*CardResponse, error) {
	c, err := s.cards.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.requireBank(ctx, req.BankID); err != nil {
		return nil, err
	}
	if err := c.Update(req.BankID, req.Name, req.Limit, req.ClosingDay); err != nil {
		return nil, err
	}
	if err := s.cards.Save(ctx, c); err != nil {
		return nil, err
	}
	resp := ToCardResponse(*c)
	return &resp, nil
}

// GetCard returns the caller's card
func (s *BankService) GetCard(ctx context.Context, id uuid.UUID) (*CardResponse, error) {
	c, err := s.cards.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := ToCardResponse(*c)
	return &resp, nil
}

// DeleteCard removes the caller's card
func (s *BankService) DeleteCard(ctx context.Context, id uuid.UUID) error {
	return s.cards.DeleteByID(ctx, id)
}

// ListCards returns one page of the caller's cards, or every card of bankID when set
func (s *BankService) ListCards(ctx context.Context, bankID *uuid.UUID, page PageRequest) (shared.Paginated[CardResponse], error) {
	if bankID != nil {
		cards, err := s.cards.FindByBank(ctx, *bankID)
		if err != nil {
			return shared.Paginated[CardResponse]{}, err
		}
		out := make([]CardResponse, len(cards))
		for i, c := range cards {
			out[i] = ToCardResponse(c)
		}
		return shared.NewPaginated(out, int64(len(out)), 1, len(out)), nil
	}
	p, err := s.cards.List(ctx, page.toDomain())
	if err != nil {
		return shared.Paginated[CardResponse]{}, err
	}
	return shared.MapPaginated(p, ToCardResponse), nil
}

// requireBank maps a foreign or missing bank to a validation error
func (s *BankService) requireBank(ctx context.Context, bankID uuid.UUID) error {
	ok, err := s.banks.ExistsByID(ctx, bankID)
	if err != nil {
		return err
	}
	if !ok {
		return shared.NewDomainError("INVALID_BANK", "Bank not found")
	}
	return nil
}

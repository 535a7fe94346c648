package finance

import (
	"context"
	"errors"

	"github.com/expensetracker/backend/internal/domain/finance"
	"github.com/expensetracker/backend/internal/domain/shared"
)

// SettingsService reads and writes the caller's settings
type SettingsService struct {
	repo finance.SettingsRepository
}

// NewSettingsService creates a new SettingsService
func NewSettingsService(repo finance.SettingsRepository) *SettingsService {
	return &SettingsService{repo: repo}
}

// Get returns the caller's settings, or the defaults when none were saved
func (s *SettingsService) Get(ctx context.Context) (*SettingsResponse, error) {
	settings, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	return &SettingsResponse{PaymentDay: settings.PaymentDay}, nil
}

// Update stores the caller's settings
func (s *SettingsService) Update(ctx context.Context, req SettingsRequest) (*SettingsResponse, error) {
	settings, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	if err := settings.SetPaymentDay(req.PaymentDay); err != nil {
		return nil, err
	}
	if err := s.repo.Save(ctx, settings); err != nil {
		return nil, err
	}
	return &SettingsResponse{PaymentDay: settings.PaymentDay}, nil
}

func (s *SettingsService) load(ctx context.Context) (*finance.Settings, error) {
	settings, err := s.repo.Get(ctx)
	if errors.Is(err, shared.ErrNotFound) {
		return finance.NewSettings(), nil
	}
	return settings, err
}

package finance

import (
	"context"
	"time"

	"github.com/expensetracker/backend/internal/domain/finance"
	"github.com/expensetracker/backend/internal/infrastructure/telemetry"
	"go.opentelemetry.io/otel/attribute"
)

// SummaryService aggregates already isolated data into monthly totals
type SummaryService struct {
	incomes  finance.IncomeRepository
	expenses finance.ExpenseRepository
	cards    finance.CardRepository
}

// NewSummaryService creates a new SummaryService
func NewSummaryService(
	incomes finance.IncomeRepository,
	expenses finance.ExpenseRepository,
	cards finance.CardRepository,
) *SummaryService {
	return &SummaryService{incomes: incomes, expenses: expenses, cards: cards}
}

// Monthly returns the caller's totals for the month containing month.
// A card's total is its single-payment purchases plus installments due.
func (s *SummaryService) Monthly(ctx context.Context, month time.Time) (summary *MonthlySummary, err error) {
	start, end := MonthRange(month)
	ctx, span := telemetry.StartServiceSpan(ctx, "summary", "monthly",
		attribute.String("summary.month", start.Format(MonthLayout)))
	defer func() {
		telemetry.RecordError(span, err)
		span.End()
	}()

	summary = &MonthlySummary{Month: start.Format(MonthLayout), Cards: []CardSummary{}}

	if summary.Incomes, err = s.incomes.SumMonthIncomes(ctx, start, end); err != nil {
		return nil, err
	}
	if summary.Expenses, err = s.expenses.SumMonthExpenses(ctx, start, end); err != nil {
		return nil, err
	}

	cards, err := s.cards.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	summary.Balance = summary.Incomes.Sub(summary.Expenses)
	for _, card := range cards {
		purchases, err := s.expenses.SumCardMonthExpenses(ctx, start, end, card.ID)
		if err != nil {
			return nil, err
		}
		installments, err := s.expenses.SumCardInstallments(ctx, start, end, card.ID)
		if err != nil {
			return nil, err
		}
		total := purchases.Add(installments)
		summary.Cards = append(summary.Cards, CardSummary{
			CardID:       card.ID,
			Name:         card.Name,
			Purchases:    purchases,
			Installments: installments,
			Total:        total,
		})
		summary.Balance = summary.Balance.Sub(total)
	}
	return summary, nil
}

package finance

import (
	"time"

	"github.com/expensetracker/backend/internal/domain/finance"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PageRequest selects one page of a list
type PageRequest struct {
	Page     int `form:"page"`
	PageSize int `form:"page_size"`
}

func (p PageRequest) toDomain() finance.Page {
	return finance.Page{Number: p.Page, Size: p.PageSize}
}

// ===================== Category =====================

// CategoryRequest creates or updates a category
type CategoryRequest struct {
	Name         string `json:"name" binding:"required,max=100"`
	Color        string `json:"color" binding:"omitempty,hexcolor"`
	FixedExpense bool   `json:"fixed_expense"`
}

// CategoryResponse represents a category in API responses
type CategoryResponse struct {
	ID           uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	Color        string    `json:"color,omitempty"`
	FixedExpense bool      `json:"fixed_expense"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// ToCategoryResponse converts a domain category
func ToCategoryResponse(c finance.Category) CategoryResponse {
	return CategoryResponse{
		ID:           c.ID,
		Name:         c.Name,
		Color:        c.Color,
		FixedExpense: c.FixedExpense,
		CreatedAt:    c.CreatedAt,
		UpdatedAt:    c.UpdatedAt,
	}
}

// ===================== Bank =====================

// BankRequest creates or updates a bank
type BankRequest struct {
	Name    string          `json:"name" binding:"required,max=100"`
	Balance decimal.Decimal `json:"balance"`
}

// BankResponse represents a bank in API responses
type BankResponse struct {
	ID        uuid.UUID       `json:"id"`
	Name      string          `json:"name"`
	Balance   decimal.Decimal `json:"balance"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// ToBankResponse converts a domain bank
func ToBankResponse(b finance.Bank) BankResponse {
	return BankResponse{
		ID:        b.ID,
		Name:      b.Name,
		Balance:   b.Balance,
		CreatedAt: b.CreatedAt,
		UpdatedAt: b.UpdatedAt,
	}
}

// ===================== Card =====================

// CardRequest creates or updates a card
type CardRequest struct {
	BankID     uuid.UUID       `json:"bank_id" binding:"required"`
	Name       string          `json:"name" binding:"required,max=100"`
	Limit      decimal.Decimal `json:"card_limit"`
	ClosingDay int             `json:"closing_day" binding:"omitempty,min=1,max=28"`
}

// CardResponse represents a card in API responses
type CardResponse struct {
	ID         uuid.UUID       `json:"id"`
	BankID     uuid.UUID       `json:"bank_id"`
	Name       string          `json:"name"`
	Limit      decimal.Decimal `json:"card_limit"`
	ClosingDay int             `json:"closing_day"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

// ToCardResponse converts a domain card
func ToCardResponse(c finance.Card) CardResponse {
	return CardResponse{
		ID:         c.ID,
		BankID:     c.BankID,
		Name:       c.Name,
		Limit:      c.Limit,
		ClosingDay: c.ClosingDay,
		CreatedAt:  c.CreatedAt,
		UpdatedAt:  c.UpdatedAt,
	}
}

// ===================== Income =====================

// IncomeRequest creates or updates an income
type IncomeRequest struct {
	Name       string          `json:"name" binding:"required,max=200"`
	Value      decimal.Decimal `json:"value" binding:"required"`
	IncomeDate time.Time       `json:"income_date" binding:"required"`
}

// IncomeResponse represents an income in API responses
type IncomeResponse struct {
	ID         uuid.UUID       `json:"id"`
	Name       string          `json:"name"`
	Value      decimal.Decimal `json:"value"`
	IncomeDate time.Time       `json:"income_date"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

// ToIncomeResponse converts a domain income
func ToIncomeResponse(i finance.Income) IncomeResponse {
	return IncomeResponse{
		ID:         i.ID,
		Name:       i.Name,
		Value:      i.Value,
		IncomeDate: i.IncomeDate,
		CreatedAt:  i.CreatedAt,
		UpdatedAt:  i.UpdatedAt,
	}
}

// ===================== Expense =====================

// ExpenseRequest creates or updates an expense
type ExpenseRequest struct {
	Name         string          `json:"name" binding:"required,max=200"`
	Value        decimal.Decimal `json:"value" binding:"required"`
	ExpenseDate  time.Time       `json:"expense_date" binding:"required"`
	Installments int             `json:"installments" binding:"omitempty,min=1,max=48"`
	CategoryID   *uuid.UUID      `json:"category_id"`
	CardID       *uuid.UUID      `json:"card_id"`
}

func (r ExpenseRequest) toDomain() finance.ExpenseInput {
	return finance.ExpenseInput{
		Name:         r.Name,
		Value:        r.Value,
		ExpenseDate:  r.ExpenseDate,
		Installments: r.Installments,
		CategoryID:   r.CategoryID,
		CardID:       r.CardID,
	}
}

// InstallmentResponse represents one installment in API responses
type InstallmentResponse struct {
	Number int             `json:"installment_number"`
	Date   time.Time       `json:"installment_date"`
	Value  decimal.Decimal `json:"value"`
}

// ExpenseResponse represents an expense in API responses
type ExpenseResponse struct {
	ID           uuid.UUID             `json:"id"`
	Name         string                `json:"name"`
	Value        decimal.Decimal       `json:"value"`
	ExpenseDate  time.Time             `json:"expense_date"`
	Installments int                   `json:"installments"`
	CategoryID   *uuid.UUID            `json:"category_id,omitempty"`
	CardID       *uuid.UUID            `json:"card_id,omitempty"`
	Schedule     []InstallmentResponse `json:"schedule,omitempty"`
	CreatedAt    time.Time             `json:"created_at"`
	UpdatedAt    time.Time             `json:"updated_at"`
}

// ToExpenseResponse converts a domain expense and its installments
func ToExpenseResponse(e finance.Expense, schedule []finance.Installment) ExpenseResponse {
	resp := ExpenseResponse{
		ID:           e.ID,
		Name:         e.Name,
		Value:        e.Value,
		ExpenseDate:  e.ExpenseDate,
		Installments: e.Installments,
		CategoryID:   e.CategoryID,
		CardID:       e.CardID,
		CreatedAt:    e.CreatedAt,
		UpdatedAt:    e.UpdatedAt,
	}
	for _, part := range schedule {
		resp.Schedule = append(resp.Schedule, InstallmentResponse{
			Number: part.InstallmentNumber,
			Date:   part.InstallmentDate,
			Value:  part.Value,
		})
	}
	return resp
}

// ===================== Settings =====================

// SettingsRequest updates the caller's settings
type SettingsRequest struct {
	PaymentDay int `json:"payment_day" binding:"required,min=1,max=31"`
}

// SettingsResponse represents settings in API responses
type SettingsResponse struct {
	PaymentDay int `json:"payment_day"`
}

// ===================== Summary =====================

// CardSummary is the statement total of one card in a month
type CardSummary struct {
	CardID       uuid.UUID       `json:"card_id"`
	Name         string          `json:"name"`
	Purchases    decimal.Decimal `json:"purchases"`
	Installments decimal.Decimal `json:"installments"`
	Total        decimal.Decimal `json:"total"`
}

// MonthlySummary aggregates the caller's money flow in one month
type MonthlySummary struct {
	Month    string          `json:"month"`
	Incomes  decimal.Decimal `json:"incomes"`
	Expenses decimal.Decimal `json:"expenses"`
	Cards    []CardSummary   `json:"cards"`
	Balance  decimal.Decimal `json:"balance"`
}

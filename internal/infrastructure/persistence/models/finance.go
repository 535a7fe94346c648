package models

import (
	"time"

	"github.com/expensetracker/backend/internal/domain/finance"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CategoryModel is the persistence model for categories
type CategoryModel struct {
	OwnedModel
	Name         string `gorm:"type:varchar(100);not null"`
	Color        string `gorm:"type:varchar(7)"`
	FixedExpense bool   `gorm:"not null;default:false"`
}

// TableName returns the table name for GORM
func (CategoryModel) TableName() string { return "categories" }

// ToDomain converts the model to a domain entity
func (m *CategoryModel) ToDomain() finance.Category {
	return finance.Category{
		OwnedEntity:  m.OwnedModel.ToDomain(),
		Name:         m.Name,
		Color:        m.Color,
		FixedExpense: m.FixedExpense,
	}
}

// CategoryModelFromDomain converts a domain entity to the model
func CategoryModelFromDomain(c *finance.Category) *CategoryModel {
	m := &CategoryModel{Name: c.Name, Color: c.Color, FixedExpense: c.FixedExpense}
	m.FromDomainOwnedEntity(c.OwnedEntity)
	return m
}

// BankModel is the persistence model for banks
type BankModel struct {
	OwnedModel
	Name    string          `gorm:"type:varchar(100);not null"`
	Balance decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0"`
}

// TableName returns the table name for GORM
func (BankModel) TableName() string { return "banks" }

// ToDomain converts the model to a domain entity
func (m *BankModel) ToDomain() finance.Bank {
	return finance.Bank{OwnedEntity: m.OwnedModel.ToDomain(), Name: m.Name, Balance: m.Balance}
}

// BankModelFromDomain converts a domain entity to the model
func BankModelFromDomain(b *finance.Bank) *BankModel {
	m := &BankModel{Name: b.Name, Balance: b.Balance}
	m.FromDomainOwnedEntity(b.OwnedEntity)
	return m
}

// CardModel is the persistence model for cards
type CardModel struct {
	OwnedModel
	BankID     uuid.UUID       `gorm:"type:uuid;not null;index"`
	Name       string          `gorm:"type:varchar(100);not null"`
	CardLimit  decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0"`
	ClosingDay int             `gorm:"not null;default:2"`
	Bank       *BankModel      `gorm:"foreignKey:BankID"`
}

// TableName returns the table name for GORM
func (CardModel) TableName() string { return "cards" }

// ToDomain converts the model to a domain entity
func (m *CardModel) ToDomain() finance.Card {
	return finance.Card{
		OwnedEntity: m.OwnedModel.ToDomain(),
		BankID:      m.BankID,
		Name:        m.Name,
		Limit:       m.CardLimit,
		ClosingDay:  m.ClosingDay,
	}
}

// CardModelFromDomain converts a domain entity to the model
func CardModelFromDomain(c *finance.Card) *CardModel {
	m := &CardModel{BankID: c.BankID, Name: c.Name, CardLimit: c.Limit, ClosingDay: c.ClosingDay}
	m.FromDomainOwnedEntity(c.OwnedEntity)
	return m
}

// IncomeModel is the persistence model for incomes
type IncomeModel struct {
	OwnedModel
	Name       string          `gorm:"type:varchar(200);not null"`
	Value      decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	IncomeDate time.Time       `gorm:"not null;index"`
}

// TableName returns the table name for GORM
func (IncomeModel) TableName() string { return "incomes" }

// ToDomain converts the model to a domain entity
func (m *IncomeModel) ToDomain() finance.Income {
	return finance.Income{
		OwnedEntity: m.OwnedModel.ToDomain(),
		Name:        m.Name,
		Value:       m.Value,
		IncomeDate:  m.IncomeDate,
	}
}

// IncomeModelFromDomain converts a domain entity to the model
func IncomeModelFromDomain(i *finance.Income) *IncomeModel {
	m := &IncomeModel{Name: i.Name, Value: i.Value, IncomeDate: i.IncomeDate}
	m.FromDomainOwnedEntity(i.OwnedEntity)
	return m
}

// ExpenseModel is the persistence model for expenses.
// Schedule holds the installments of a card expense split over several months.
type ExpenseModel struct {
	OwnedModel
	Name         string             `gorm:"type:varchar(200);not null"`
	Value        decimal.Decimal    `gorm:"type:decimal(18,2);not null"`
	ExpenseDate  time.Time          `gorm:"not null;index"`
	Installments int                `gorm:"not null;default:1"`
	CategoryID   *uuid.UUID         `gorm:"type:uuid;index"`
	CardID       *uuid.UUID         `gorm:"type:uuid;index"`
	Card         *CardModel         `gorm:"foreignKey:CardID"`
	Schedule     []InstallmentModel `gorm:"foreignKey:ExpenseID;constraint:OnDelete:CASCADE"`
}

// TableName returns the table name for GORM
func (ExpenseModel) TableName() string { return "expenses" }

// ToDomain converts the model to a domain entity
func (m *ExpenseModel) ToDomain() finance.Expense {
	return finance.Expense{
		OwnedEntity:  m.OwnedModel.ToDomain(),
		Name:         m.Name,
		Value:        m.Value,
		ExpenseDate:  m.ExpenseDate,
		Installments: m.Installments,
		CategoryID:   m.CategoryID,
		CardID:       m.CardID,
	}
}

// ExpenseModelFromDomain converts a domain entity to the model
func ExpenseModelFromDomain(e *finance.Expense) *ExpenseModel {
	m := &ExpenseModel{
		Name:         e.Name,
		Value:        e.Value,
		ExpenseDate:  e.ExpenseDate,
		Installments: e.Installments,
		CategoryID:   e.CategoryID,
		CardID:       e.CardID,
	}
	m.FromDomainOwnedEntity(e.OwnedEntity)
	return m
}

// InstallmentModel is the persistence model for installments
type InstallmentModel struct {
	OwnedModel
	ExpenseID         uuid.UUID       `gorm:"type:uuid;not null;index"`
	CardID            *uuid.UUID      `gorm:"type:uuid;index"`
	InstallmentNumber int             `gorm:"not null"`
	InstallmentDate   time.Time       `gorm:"not null;index"`
	Value             decimal.Decimal `gorm:"type:decimal(18,2);not null"`
}

// TableName returns the table name for GORM
func (InstallmentModel) TableName() string { return "installments" }

// ToDomain converts the model to a domain entity
func (m *InstallmentModel) ToDomain() finance.Installment {
	return finance.Installment{
		OwnedEntity:       m.OwnedModel.ToDomain(),
		ExpenseID:         m.ExpenseID,
		CardID:            m.CardID,
		InstallmentNumber: m.InstallmentNumber,
		InstallmentDate:   m.InstallmentDate,
		Value:             m.Value,
	}
}

// InstallmentModelFromDomain converts a domain entity to the model
func InstallmentModelFromDomain(i *finance.Installment) *InstallmentModel {
	m := &InstallmentModel{
		ExpenseID:         i.ExpenseID,
		CardID:            i.CardID,
		InstallmentNumber: i.InstallmentNumber,
		InstallmentDate:   i.InstallmentDate,
		Value:             i.Value,
	}
	m.FromDomainOwnedEntity(i.OwnedEntity)
	return m
}

// SettingsModel is the persistence model for per-owner settings
type SettingsModel struct {
	OwnedModel
	PaymentDay int `gorm:"not null;default:5"`
}

// TableName returns the table name for GORM
func (SettingsModel) TableName() string { return "settings" }

// ToDomain converts the model to a domain entity
func (m *SettingsModel) ToDomain() finance.Settings {
	return finance.Settings{OwnedEntity: m.OwnedModel.ToDomain(), PaymentDay: m.PaymentDay}
}

// SettingsModelFromDomain converts a domain entity to the model
func SettingsModelFromDomain(s *finance.Settings) *SettingsModel {
	m := &SettingsModel{PaymentDay: s.PaymentDay}
	m.FromDomainOwnedEntity(s.OwnedEntity)
	return m
}

// FinanceModels lists every owned finance model, in dependency order
func FinanceModels() []any {
	return []any{
		&CategoryModel{},
		&BankModel{},
		&CardModel{},
		&IncomeModel{},
		&ExpenseModel{},
		&InstallmentModel{},
		&SettingsModel{},
	}
}

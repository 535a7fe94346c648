// Package models contains GORM persistence models that map to database tables.
// Domain entities stay free of GORM tags; each model converts to and from its
// entity with ToDomain and FromDomain.
//
//   - base.go: OwnedModel, the id/owner/timestamps every owned record carries
//   - finance.go: expenses, installments, incomes, banks, cards, categories, settings
//   - identity.go: control-plane principals and tenants
package models

package scoped

import (
	"gorm.io/gorm"
)

const scopedKey = "scoped:applied"

// RegisterGuard rejects query, row, update and delete statements on tables
// carrying an owner column unless they were issued through an Engine.
// Create is not guarded; the Engine stamps ownership explicitly.
func RegisterGuard(db *gorm.DB) error {
	cb := db.Callback()
	if err := cb.Query().Before("gorm:query").Register("scoped:guard_query", guard); err != nil {
		return err
	}
	if err := cb.Row().Before("gorm:row").Register("scoped:guard_row", guard); err != nil {
		return err
	}
	if err := cb.Update().Before("gorm:update").Register("scoped:guard_update", guard); err != nil {
		return err
	}
	return cb.Delete().Before("gorm:delete").Register("scoped:guard_delete", guard)
}

// Bypass marks tx as deliberately unscoped. Reserved for maintenance code
// such as migrations and fixtures.
func Bypass(tx *gorm.DB) *gorm.DB {
	return mark(tx)
}

func mark(tx *gorm.DB) *gorm.DB {
	return tx.Set(scopedKey, true).Session(&gorm.Session{})
}

func guard(db *gorm.DB) {
	if db.Error != nil || db.Statement.Schema == nil {
		return
	}
	if _, owned := db.Statement.Schema.FieldsByDBName[OwnerColumn]; !owned {
		return
	}
	if v, ok := db.Get(scopedKey); ok {
		if applied, _ := v.(bool); applied {
			return
		}
	}
	_ = db.AddError(ErrUnscopedStatement)
}

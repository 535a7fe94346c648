package finance

import (
	"regexp"
	"strings"

	"github.com/expensetracker/backend/internal/domain/shared"
)

var colorPattern = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)

// Category groups expenses. Fixed categories recur every month.
type Category struct {
	shared.OwnedEntity
	Name         string
	Color        string
	FixedExpense bool
}

// NewCategory validates and creates a category
func NewCategory(name, color string, fixed bool) (*Category, error) {
	c := &Category{}
	if err := c.Update(name, color, fixed); err != nil {
		return nil, err
	}
	return c, nil
}

// Update replaces the mutable fields of the category
func (c *Category) Update(name, color string, fixed bool) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return shared.NewDomainError("INVALID_NAME", "Category name cannot be empty")
	}
	if len(name) > 100 {
		return shared.NewDomainError("INVALID_NAME", "Category name cannot exceed 100 characters")
	}
	if color != "" && !colorPattern.MatchString(color) {
		return shared.NewDomainError("INVALID_COLOR", "Color must be a hex value like #1A2B3C")
	}
	c.Name = name
	c.Color = strings.ToUpper(color)
	c.FixedExpense = fixed
	return nil
}

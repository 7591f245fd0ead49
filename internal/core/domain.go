package core

import (
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	CategoryFood           Category = "food"
	CategoryTransportation Category = "transportation"
	CategoryEntertainment  Category = "entertainment"
	CategoryUtilities      Category = "utilities"
	CategoryShopping       Category = "shopping"
	CategoryHealth         Category = "health"
	CategoryEducation      Category = "education"
	CategoryOther          Category = "other"
)

type (
	// Category is the closed set of expense categories. Values are the
	// canonical strings used for persistence and API payloads.
	Category string

	// IncomeEntry records monthly income for a user. Month is always
	// normalized to the first day of the month; there is at most one
	// entry per (user, month).
	IncomeEntry struct {
		ID          int64
		UserID      int64
		Amount      decimal.Decimal
		Month       Date
		Description string
		CreatedAt   time.Time
	}

	// Expense is a single categorized expense. Every add creates a new
	// row; expenses are never merged by date.
	Expense struct {
		ID          int64
		UserID      int64
		Amount      decimal.Decimal
		Description string
		Category    Category
		Date        Date
		CreatedAt   time.Time
	}

	// SavingsGoal is the monthly savings target for a user. Same
	// one-per-(user, month) rule as IncomeEntry.
	SavingsGoal struct {
		ID           int64
		UserID       int64
		TargetAmount decimal.Decimal
		Month        Date
		Description  string
		CreatedAt    time.Time
	}

	// ExpenseFilter narrows an expense query. Zero dates mean no bound,
	// empty category means all categories, zero limit means no limit.
	ExpenseFilter struct {
		Start    Date
		End      Date
		Category Category
		Limit    int
	}

	// ExpensePatch carries optional field updates for an expense.
	ExpensePatch struct {
		Amount      *decimal.Decimal
		Description *string
		Category    *Category
		Date        *Date
	}

	// IncomePatch carries optional field updates for an income entry.
	IncomePatch struct {
		Amount      *decimal.Decimal
		Description *string
	}
)

var (
	ErrInvalidAmount    = errors.New("invalid amount")
	ErrEmptyDescription = errors.New("empty description")
	ErrInvalidCategory  = errors.New("invalid category")
	ErrInvalidDate      = errors.New("invalid date")
)

// Categories returns all valid categories in declaration order.
func Categories() []Category {
	return []Category{
		CategoryFood,
		CategoryTransportation,
		CategoryEntertainment,
		CategoryUtilities,
		CategoryShopping,
		CategoryHealth,
		CategoryEducation,
		CategoryOther,
	}
}

// ParseCategory maps a string to a Category, rejecting anything outside
// the fixed set.
func ParseCategory(s string) (Category, error) {
	c := Category(strings.ToLower(strings.TrimSpace(s)))
	if !c.Valid() {
		return "", ErrInvalidCategory
	}
	return c, nil
}

func (c Category) Valid() bool {
	switch c {
	case CategoryFood, CategoryTransportation, CategoryEntertainment,
		CategoryUtilities, CategoryShopping, CategoryHealth,
		CategoryEducation, CategoryOther:
		return true
	}
	return false
}

func (c Category) String() string { return string(c) }

// ValidateAmount rejects non-positive amounts.
func ValidateAmount(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return ErrInvalidAmount
	}
	return nil
}

func (e IncomeEntry) Validate() error {
	if err := ValidateAmount(e.Amount); err != nil {
		return err
	}
	if e.Month.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

func (e Expense) Validate() error {
	if err := ValidateAmount(e.Amount); err != nil {
		return err
	}
	if len(strings.TrimSpace(e.Description)) == 0 {
		return ErrEmptyDescription
	}
	if len(e.Description) > 255 {
		return errors.New("description too long (max 255 characters)")
	}
	if !e.Category.Valid() {
		return ErrInvalidCategory
	}
	if e.Date.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

func (g SavingsGoal) Validate() error {
	if err := ValidateAmount(g.TargetAmount); err != nil {
		return err
	}
	if g.Month.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

package core

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func TestParseCategory(t *testing.T) {
	cases := []struct {
		in   string
		want Category
		ok   bool
	}{
		{"food", CategoryFood, true},
		{"FOOD", CategoryFood, true},
		{" transportation ", CategoryTransportation, true},
		{"other", CategoryOther, true},
		{"rent", "", false},
		{"", "", false},
	}
	for _, tc := range cases {
		got, err := ParseCategory(tc.in)
		if tc.ok {
			if err != nil || got != tc.want {
				t.Fatalf("%q expected %q, got %q (err=%v)", tc.in, tc.want, got, err)
			}
		} else if !errors.Is(err, ErrInvalidCategory) {
			t.Fatalf("%q expected ErrInvalidCategory, got %v", tc.in, err)
		}
	}
}

func TestCategoriesAllValid(t *testing.T) {
	cats := Categories()
	if len(cats) != 8 {
		t.Fatalf("expected 8 categories, got %d", len(cats))
	}
	for _, c := range cats {
		if !c.Valid() {
			t.Errorf("category %q should be valid", c)
		}
	}
}

func TestExpenseValidate(t *testing.T) {
	valid := Expense{
		Amount:      decimal.RequireFromString("12.50"),
		Description: "lunch",
		Category:    CategoryFood,
		Date:        NewDate(2025, 3, 14),
	}
	if err := valid.Validate(); err != nil {
		t.Fatalf("valid expense rejected: %v", err)
	}

	cases := []struct {
		name   string
		mutate func(*Expense)
		want   error
	}{
		{"zero amount", func(e *Expense) { e.Amount = decimal.Zero }, ErrInvalidAmount},
		{"negative amount", func(e *Expense) { e.Amount = decimal.NewFromInt(-5) }, ErrInvalidAmount},
		{"blank description", func(e *Expense) { e.Description = "   " }, ErrEmptyDescription},
		{"bad category", func(e *Expense) { e.Category = "rent" }, ErrInvalidCategory},
		{"zero date", func(e *Expense) { e.Date = Date{} }, ErrInvalidDate},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			e := valid
			tc.mutate(&e)
			if err := e.Validate(); !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
}

func TestIncomeAndGoalValidate(t *testing.T) {
	income := IncomeEntry{
		Amount: decimal.NewFromInt(5000),
		Month:  NewDate(2025, 3, 1),
	}
	if err := income.Validate(); err != nil {
		t.Fatalf("valid income rejected: %v", err)
	}
	income.Amount = decimal.Zero
	if err := income.Validate(); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount, got %v", err)
	}

	goal := SavingsGoal{
		TargetAmount: decimal.NewFromInt(1000),
		Month:        NewDate(2025, 3, 1),
	}
	if err := goal.Validate(); err != nil {
		t.Fatalf("valid goal rejected: %v", err)
	}
	goal.TargetAmount = decimal.NewFromInt(-1)
	if err := goal.Validate(); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount, got %v", err)
	}
}

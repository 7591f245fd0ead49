// Package services orchestrates the budget calculator against a user's
// ledger and layers decision rules on top.
package services

import (
	"context"

	"budget/internal/core"
)

// BudgetStore persists income entries and savings goals. Both upserts
// overwrite on conflict for the (user, month) key; the implementation
// must make that atomic, not a read-then-write pair.
type BudgetStore interface {
	UpsertIncome(ctx context.Context, entry core.IncomeEntry) (core.IncomeEntry, error)
	IncomeEntries(ctx context.Context, userID int64, startMonth, endMonth core.Date) ([]core.IncomeEntry, error)
	UpdateIncome(ctx context.Context, userID, id int64, patch core.IncomePatch) (*core.IncomeEntry, error)
	DeleteIncome(ctx context.Context, userID, id int64) (bool, error)

	UpsertGoal(ctx context.Context, goal core.SavingsGoal) (core.SavingsGoal, error)
	GoalByMonth(ctx context.Context, userID int64, month core.Date) (*core.SavingsGoal, error)
	Goals(ctx context.Context, userID int64) ([]core.SavingsGoal, error)
}

// ExpenseStore persists expenses. Queries return newest-first; all
// operations are scoped by user, and cross-user access is impossible by
// contract.
type ExpenseStore interface {
	AddExpense(ctx context.Context, e core.Expense) (core.Expense, error)
	ExpenseByID(ctx context.Context, userID, id int64) (*core.Expense, error)
	Expenses(ctx context.Context, userID int64, f core.ExpenseFilter) ([]core.Expense, error)
	UpdateExpense(ctx context.Context, userID, id int64, patch core.ExpensePatch) (*core.Expense, error)
	DeleteExpense(ctx context.Context, userID, id int64) (bool, error)
}

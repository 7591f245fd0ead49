package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"budget/internal/amqp"
	"budget/internal/core"
	"budget/internal/log"
)

// ExpenseService manages daily expenses. Every mutation is saved to the
// store first, then published as a ledger event; publish failures never
// fail the request.
type ExpenseService struct {
	store      ExpenseStore
	amqpClient *amqp.Client
	now        func() time.Time
}

func NewExpenseService(store ExpenseStore, amqpClient *amqp.Client) *ExpenseService {
	return &ExpenseService{
		store:      store,
		amqpClient: amqpClient,
		now:        time.Now,
	}
}

// AddExpense records a new expense. Independent records: every add
// creates a new row, there is no merge-by-date rule. A zero date
// defaults to today.
func (s *ExpenseService) AddExpense(ctx context.Context, userID int64, amount decimal.Decimal, description string, category core.Category, date core.Date) (core.Expense, error) {
	if date.IsZero() {
		date = core.DateOf(s.now())
	}
	e := core.Expense{
		UserID:      userID,
		Amount:      amount,
		Description: strings.TrimSpace(description),
		Category:    category,
		Date:        date,
	}
	if err := e.Validate(); err != nil {
		return core.Expense{}, err
	}

	saved, err := s.store.AddExpense(ctx, e)
	if err != nil {
		return core.Expense{}, fmt.Errorf("add expense: %w", err)
	}

	slog.InfoContext(ctx, "Expense recorded",
		"id", saved.ID,
		log.FieldUserID, saved.UserID,
		log.FieldAmount, saved.Amount.String(),
		log.FieldCategory, saved.Category.String(),
		"date", saved.Date.String())

	s.publishEvent(ctx, amqp.ActionCreated, userID, saved.ID, saved.Date.MonthStart())
	return saved, nil
}

// Expenses returns a user's expenses, newest first, with optional date,
// category and limit filters.
func (s *ExpenseService) Expenses(ctx context.Context, userID int64, f core.ExpenseFilter) ([]core.Expense, error) {
	expenses, err := s.store.Expenses(ctx, userID, f)
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	return expenses, nil
}

// MonthlyExpenses returns all expenses in the month containing the
// given date.
func (s *ExpenseService) MonthlyExpenses(ctx context.Context, userID int64, month core.Date) ([]core.Expense, error) {
	start := month.MonthStart()
	end := start.NextMonthStart().AddDays(-1)
	return s.Expenses(ctx, userID, core.ExpenseFilter{Start: start, End: end})
}

// TodayExpenses returns the user's expenses dated today.
func (s *ExpenseService) TodayExpenses(ctx context.Context, userID int64) ([]core.Expense, error) {
	today := core.DateOf(s.now())
	return s.Expenses(ctx, userID, core.ExpenseFilter{Start: today, End: today})
}

// ExpenseByID returns one expense scoped to the user, nil if absent.
func (s *ExpenseService) ExpenseByID(ctx context.Context, userID, id int64) (*core.Expense, error) {
	e, err := s.store.ExpenseByID(ctx, userID, id)
	if err != nil {
		return nil, fmt.Errorf("get expense: %w", err)
	}
	return e, nil
}

// UpdateExpense applies a partial update. Returns nil when the expense
// does not exist for this user.
func (s *ExpenseService) UpdateExpense(ctx context.Context, userID, id int64, patch core.ExpensePatch) (*core.Expense, error) {
	if patch.Amount != nil {
		if err := core.ValidateAmount(*patch.Amount); err != nil {
			return nil, err
		}
	}
	if patch.Description != nil {
		trimmed := strings.TrimSpace(*patch.Description)
		if trimmed == "" {
			return nil, core.ErrEmptyDescription
		}
		patch.Description = &trimmed
	}
	if patch.Category != nil && !patch.Category.Valid() {
		return nil, core.ErrInvalidCategory
	}

	e, err := s.store.UpdateExpense(ctx, userID, id, patch)
	if err != nil {
		return nil, fmt.Errorf("update expense: %w", err)
	}
	if e != nil {
		s.publishEvent(ctx, amqp.ActionUpdated, userID, e.ID, e.Date.MonthStart())
	}
	return e, nil
}

// DeleteExpense removes an expense scoped to the user.
func (s *ExpenseService) DeleteExpense(ctx context.Context, userID, id int64) (bool, error) {
	deleted, err := s.store.DeleteExpense(ctx, userID, id)
	if err != nil {
		return false, fmt.Errorf("delete expense: %w", err)
	}
	if deleted {
		s.publishEvent(ctx, amqp.ActionDeleted, userID, id, core.Date{})
	}
	return deleted, nil
}

// TotalExpenses sums a user's expenses over an optional date range and
// category.
func (s *ExpenseService) TotalExpenses(ctx context.Context, userID int64, f core.ExpenseFilter) (decimal.Decimal, error) {
	expenses, err := s.Expenses(ctx, userID, f)
	if err != nil {
		return decimal.Zero, err
	}
	total := decimal.Zero
	for _, e := range expenses {
		total = total.Add(e.Amount)
	}
	return total, nil
}

// CategoryBreakdown groups a user's spending by category over an
// optional date range. Categories without expenses are absent.
func (s *ExpenseService) CategoryBreakdown(ctx context.Context, userID int64, start, end core.Date) (map[core.Category]decimal.Decimal, error) {
	expenses, err := s.Expenses(ctx, userID, core.ExpenseFilter{Start: start, End: end})
	if err != nil {
		return nil, err
	}
	breakdown := make(map[core.Category]decimal.Decimal)
	for _, e := range expenses {
		breakdown[e.Category] = breakdown[e.Category].Add(e.Amount)
	}
	return breakdown, nil
}

func (s *ExpenseService) publishEvent(ctx context.Context, action string, userID, id int64, month core.Date) {
	if s.amqpClient == nil {
		return
	}
	ev := amqp.NewLedgerEvent(amqp.EntityExpense, action, userID, id, month.String())
	if err := s.amqpClient.PublishLedgerEvent(ctx, ev); err != nil {
		slog.ErrorContext(ctx, "Failed to publish ledger event",
			"entity", amqp.EntityExpense, "action", action,
			log.FieldUserID, userID,
			log.FieldError, err.Error(),
			log.FieldComponent, log.ComponentExpense)
	}
}

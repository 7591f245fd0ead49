package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"budget/internal/amqp"
	"budget/internal/core"
	"budget/internal/log"
)

// BudgetService manages income entries and savings goals. Mutations are
// validated here, at the data-entry boundary; the calculator trusts its
// inputs.
type BudgetService struct {
	store      BudgetStore
	amqpClient *amqp.Client
	now        func() time.Time
}

func NewBudgetService(store BudgetStore, amqpClient *amqp.Client) *BudgetService {
	return &BudgetService{
		store:      store,
		amqpClient: amqpClient,
		now:        time.Now,
	}
}

// SetIncome records monthly income for a user. Setting income for a
// month that already has an entry overwrites amount and description.
func (s *BudgetService) SetIncome(ctx context.Context, userID int64, amount decimal.Decimal, month core.Date, description string) (core.IncomeEntry, error) {
	entry := core.IncomeEntry{
		UserID:      userID,
		Amount:      amount,
		Month:       month.MonthStart(),
		Description: description,
	}
	if err := entry.Validate(); err != nil {
		return core.IncomeEntry{}, err
	}

	saved, err := s.store.UpsertIncome(ctx, entry)
	if err != nil {
		return core.IncomeEntry{}, fmt.Errorf("upsert income: %w", err)
	}

	s.publishEvent(ctx, amqp.EntityIncome, amqp.ActionSet, userID, saved.ID, saved.Month)
	return saved, nil
}

// MonthlyIncome returns the total income for a user's month, zero when
// nothing is recorded.
func (s *BudgetService) MonthlyIncome(ctx context.Context, userID int64, month core.Date) (decimal.Decimal, error) {
	month = month.MonthStart()
	entries, err := s.store.IncomeEntries(ctx, userID, month, month)
	if err != nil {
		return decimal.Zero, fmt.Errorf("income entries: %w", err)
	}
	total := decimal.Zero
	for _, e := range entries {
		total = total.Add(e.Amount)
	}
	return total, nil
}

// IncomeEntries returns a user's income entries within an inclusive
// month range. Zero bounds are unbounded.
func (s *BudgetService) IncomeEntries(ctx context.Context, userID int64, startMonth, endMonth core.Date) ([]core.IncomeEntry, error) {
	if !startMonth.IsZero() {
		startMonth = startMonth.MonthStart()
	}
	if !endMonth.IsZero() {
		endMonth = endMonth.MonthStart()
	}
	entries, err := s.store.IncomeEntries(ctx, userID, startMonth, endMonth)
	if err != nil {
		return nil, fmt.Errorf("income entries: %w", err)
	}
	return entries, nil
}

// UpdateIncome applies a partial update to an existing entry. Returns
// nil when the entry does not exist for this user.
func (s *BudgetService) UpdateIncome(ctx context.Context, userID, id int64, patch core.IncomePatch) (*core.IncomeEntry, error) {
	if patch.Amount != nil {
		if err := core.ValidateAmount(*patch.Amount); err != nil {
			return nil, err
		}
	}
	entry, err := s.store.UpdateIncome(ctx, userID, id, patch)
	if err != nil {
		return nil, fmt.Errorf("update income: %w", err)
	}
	if entry != nil {
		s.publishEvent(ctx, amqp.EntityIncome, amqp.ActionUpdated, userID, entry.ID, entry.Month)
	}
	return entry, nil
}

// DeleteIncome removes an income entry scoped to the user.
func (s *BudgetService) DeleteIncome(ctx context.Context, userID, id int64) (bool, error) {
	deleted, err := s.store.DeleteIncome(ctx, userID, id)
	if err != nil {
		return false, fmt.Errorf("delete income: %w", err)
	}
	if deleted {
		s.publishEvent(ctx, amqp.EntityIncome, amqp.ActionDeleted, userID, id, core.Date{})
	}
	return deleted, nil
}

// SetSavingsGoal records the savings target for a user's month,
// overwriting any existing goal for that month.
func (s *BudgetService) SetSavingsGoal(ctx context.Context, userID int64, targetAmount decimal.Decimal, month core.Date, description string) (core.SavingsGoal, error) {
	goal := core.SavingsGoal{
		UserID:       userID,
		TargetAmount: targetAmount,
		Month:        month.MonthStart(),
		Description:  description,
	}
	if err := goal.Validate(); err != nil {
		return core.SavingsGoal{}, err
	}

	saved, err := s.store.UpsertGoal(ctx, goal)
	if err != nil {
		return core.SavingsGoal{}, fmt.Errorf("upsert goal: %w", err)
	}

	s.publishEvent(ctx, amqp.EntityGoal, amqp.ActionSet, userID, saved.ID, saved.Month)
	return saved, nil
}

// SavingsGoal returns the goal for a user's month, nil when none is set.
// No default goal is invented.
func (s *BudgetService) SavingsGoal(ctx context.Context, userID int64, month core.Date) (*core.SavingsGoal, error) {
	goal, err := s.store.GoalByMonth(ctx, userID, month.MonthStart())
	if err != nil {
		return nil, fmt.Errorf("goal by month: %w", err)
	}
	return goal, nil
}

// AllSavingsGoals returns every goal recorded for the user.
func (s *BudgetService) AllSavingsGoals(ctx context.Context, userID int64) ([]core.SavingsGoal, error) {
	goals, err := s.store.Goals(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("goals: %w", err)
	}
	return goals, nil
}

func (s *BudgetService) publishEvent(ctx context.Context, entity, action string, userID, id int64, month core.Date) {
	if s.amqpClient == nil {
		return
	}
	ev := amqp.NewLedgerEvent(entity, action, userID, id, month.String())
	if err := s.amqpClient.PublishLedgerEvent(ctx, ev); err != nil {
		// Mutation already committed; the event is best-effort.
		slog.ErrorContext(ctx, "Failed to publish ledger event",
			"entity", entity, "action", action,
			log.FieldUserID, userID,
			log.FieldError, err.Error(),
			log.FieldComponent, log.ComponentBudget)
	}
}

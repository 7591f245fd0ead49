// Package memory provides an in-memory ledger store. It backs the
// default data backend and the service tests; the SQLite repository is
// the durable alternative.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"budget/internal/core"
)

// Store keeps all records in memory behind one mutex. Safe for
// concurrent use; every read returns copies so callers can't mutate
// shared state.
type Store struct {
	mu       sync.Mutex
	nextID   int64
	incomes  []core.IncomeEntry
	goals    []core.SavingsGoal
	expenses []core.Expense
}

func New() *Store {
	return &Store{nextID: 1}
}

func (s *Store) nextSequence() int64 {
	id := s.nextID
	s.nextID++
	return id
}

// UpsertIncome inserts or overwrites the entry for (user, month).
func (s *Store) UpsertIncome(_ context.Context, entry core.IncomeEntry) (core.IncomeEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, existing := range s.incomes {
		if existing.UserID == entry.UserID && existing.Month.Equal(entry.Month) {
			s.incomes[i].Amount = entry.Amount
			s.incomes[i].Description = entry.Description
			return s.incomes[i], nil
		}
	}

	entry.ID = s.nextSequence()
	entry.CreatedAt = time.Now().UTC()
	s.incomes = append(s.incomes, entry)
	return entry, nil
}

func (s *Store) IncomeEntries(_ context.Context, userID int64, startMonth, endMonth core.Date) ([]core.IncomeEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []core.IncomeEntry
	for _, e := range s.incomes {
		if e.UserID != userID {
			continue
		}
		if !startMonth.IsZero() && e.Month.Before(startMonth) {
			continue
		}
		if !endMonth.IsZero() && e.Month.After(endMonth) {
			continue
		}
		out = append(out, e)
	}
	return out, nil
}

func (s *Store) UpdateIncome(_ context.Context, userID, id int64, patch core.IncomePatch) (*core.IncomeEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.incomes {
		if s.incomes[i].ID != id || s.incomes[i].UserID != userID {
			continue
		}
		if patch.Amount != nil {
			s.incomes[i].Amount = *patch.Amount
		}
		if patch.Description != nil {
			s.incomes[i].Description = *patch.Description
		}
		entry := s.incomes[i]
		return &entry, nil
	}
	return nil, nil
}

func (s *Store) DeleteIncome(_ context.Context, userID, id int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.incomes {
		if s.incomes[i].ID == id && s.incomes[i].UserID == userID {
			s.incomes = append(s.incomes[:i], s.incomes[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

// UpsertGoal inserts or overwrites the goal for (user, month).
func (s *Store) UpsertGoal(_ context.Context, goal core.SavingsGoal) (core.SavingsGoal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, existing := range s.goals {
		if existing.UserID == goal.UserID && existing.Month.Equal(goal.Month) {
			s.goals[i].TargetAmount = goal.TargetAmount
			s.goals[i].Description = goal.Description
			return s.goals[i], nil
		}
	}

	goal.ID = s.nextSequence()
	goal.CreatedAt = time.Now().UTC()
	s.goals = append(s.goals, goal)
	return goal, nil
}

func (s *Store) GoalByMonth(_ context.Context, userID int64, month core.Date) (*core.SavingsGoal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, g := range s.goals {
		if g.UserID == userID && g.Month.Equal(month) {
			goal := g
			return &goal, nil
		}
	}
	return nil, nil
}

func (s *Store) Goals(_ context.Context, userID int64) ([]core.SavingsGoal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []core.SavingsGoal
	for _, g := range s.goals {
		if g.UserID == userID {
			out = append(out, g)
		}
	}
	return out, nil
}

func (s *Store) AddExpense(_ context.Context, e core.Expense) (core.Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e.ID = s.nextSequence()
	e.CreatedAt = time.Now().UTC()
	s.expenses = append(s.expenses, e)
	return e, nil
}

func (s *Store) ExpenseByID(_ context.Context, userID, id int64) (*core.Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, e := range s.expenses {
		if e.ID == id && e.UserID == userID {
			expense := e
			return &expense, nil
		}
	}
	return nil, nil
}

// Expenses returns matching expenses newest-first.
func (s *Store) Expenses(_ context.Context, userID int64, f core.ExpenseFilter) ([]core.Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []core.Expense
	for _, e := range s.expenses {
		if e.UserID != userID {
			continue
		}
		if !f.Start.IsZero() && e.Date.Before(f.Start) {
			continue
		}
		if !f.End.IsZero() && e.Date.After(f.End) {
			continue
		}
		if f.Category != "" && e.Category != f.Category {
			continue
		}
		out = append(out, e)
	}

	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.After(out[j].Date)
		}
		return out[i].ID > out[j].ID
	})

	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

func (s *Store) UpdateExpense(_ context.Context, userID, id int64, patch core.ExpensePatch) (*core.Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.expenses {
		if s.expenses[i].ID != id || s.expenses[i].UserID != userID {
			continue
		}
		if patch.Amount != nil {
			s.expenses[i].Amount = *patch.Amount
		}
		if patch.Description != nil {
			s.expenses[i].Description = *patch.Description
		}
		if patch.Category != nil {
			s.expenses[i].Category = *patch.Category
		}
		if patch.Date != nil {
			s.expenses[i].Date = *patch.Date
		}
		expense := s.expenses[i]
		return &expense, nil
	}
	return nil, nil
}

func (s *Store) DeleteExpense(_ context.Context, userID, id int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.expenses {
		if s.expenses[i].ID == id && s.expenses[i].UserID == userID {
			s.expenses = append(s.expenses[:i], s.expenses[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

// Package storage provides the SQLite persistence layer. Monetary
// amounts are stored as decimal strings and dates in ISO form, so no
// precision is lost between the domain types and the database.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/shopspring/decimal"

	"budget/internal/core"
	"budget/internal/log"

	_ "modernc.org/sqlite"
)

type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// UpsertIncome overwrites the month's entry in a single statement, so
// concurrent setters cannot race into duplicate rows.
func (r *SQLiteRepository) UpsertIncome(ctx context.Context, entry core.IncomeEntry) (core.IncomeEntry, error) {
	row := r.db.QueryRowContext(ctx, `
		INSERT INTO income_entries (user_id, amount, month, description, created_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (user_id, month) DO UPDATE SET
			amount = excluded.amount,
			description = excluded.description
		RETURNING id, created_at`,
		entry.UserID, entry.Amount.String(), entry.Month.String(), entry.Description, time.Now().UTC())
	if err := row.Scan(&entry.ID, &entry.CreatedAt); err != nil {
		return core.IncomeEntry{}, fmt.Errorf("upsert income: %w", err)
	}

	slog.InfoContext(ctx, "Income saved",
		"id", entry.ID,
		log.FieldUserID, entry.UserID,
		log.FieldMonth, entry.Month.String(),
		log.FieldAmount, entry.Amount.String(),
		log.FieldComponent, log.ComponentStorage)

	return entry, nil
}

func (r *SQLiteRepository) IncomeEntries(ctx context.Context, userID int64, startMonth, endMonth core.Date) ([]core.IncomeEntry, error) {
	query := `SELECT id, user_id, amount, month, description, created_at
		FROM income_entries WHERE user_id = ?`
	args := []any{userID}
	if !startMonth.IsZero() {
		query += ` AND month >= ?`
		args = append(args, startMonth.String())
	}
	if !endMonth.IsZero() {
		query += ` AND month <= ?`
		args = append(args, endMonth.String())
	}
	query += ` ORDER BY month DESC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list income entries: %w", err)
	}
	defer rows.Close()

	var entries []core.IncomeEntry
	for rows.Next() {
		entry, err := scanIncome(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

func (r *SQLiteRepository) UpdateIncome(ctx context.Context, userID, id int64, patch core.IncomePatch) (*core.IncomeEntry, error) {
	set := ""
	var args []any
	if patch.Amount != nil {
		set += "amount = ?"
		args = append(args, patch.Amount.String())
	}
	if patch.Description != nil {
		if set != "" {
			set += ", "
		}
		set += "description = ?"
		args = append(args, *patch.Description)
	}
	if set == "" {
		return r.incomeByID(ctx, userID, id)
	}

	args = append(args, id, userID)
	res, err := r.db.ExecContext(ctx, `UPDATE income_entries SET `+set+` WHERE id = ? AND user_id = ?`, args...)
	if err != nil {
		return nil, fmt.Errorf("update income: %w", err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return nil, fmt.Errorf("update income rows affected: %w", err)
	} else if n == 0 {
		return nil, nil
	}
	return r.incomeByID(ctx, userID, id)
}

func (r *SQLiteRepository) DeleteIncome(ctx context.Context, userID, id int64) (bool, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM income_entries WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return false, fmt.Errorf("delete income: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete income rows affected: %w", err)
	}
	return n > 0, nil
}

func (r *SQLiteRepository) UpsertGoal(ctx context.Context, goal core.SavingsGoal) (core.SavingsGoal, error) {
	row := r.db.QueryRowContext(ctx, `
		INSERT INTO savings_goals (user_id, target_amount, month, description, created_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (user_id, month) DO UPDATE SET
			target_amount = excluded.target_amount,
			description = excluded.description
		RETURNING id, created_at`,
		goal.UserID, goal.TargetAmount.String(), goal.Month.String(), goal.Description, time.Now().UTC())
	if err := row.Scan(&goal.ID, &goal.CreatedAt); err != nil {
		return core.SavingsGoal{}, fmt.Errorf("upsert goal: %w", err)
	}

	slog.InfoContext(ctx, "Savings goal saved",
		"id", goal.ID,
		log.FieldUserID, goal.UserID,
		log.FieldMonth, goal.Month.String(),
		"target_amount", goal.TargetAmount.String(),
		log.FieldComponent, log.ComponentStorage)

	return goal, nil
}

func (r *SQLiteRepository) GoalByMonth(ctx context.Context, userID int64, month core.Date) (*core.SavingsGoal, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, user_id, target_amount, month, description, created_at
		FROM savings_goals WHERE user_id = ? AND month = ?`,
		userID, month.String())
	goal, err := scanGoal(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &goal, nil
}

func (r *SQLiteRepository) Goals(ctx context.Context, userID int64) ([]core.SavingsGoal, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, user_id, target_amount, month, description, created_at
		FROM savings_goals WHERE user_id = ? ORDER BY month DESC`,
		userID)
	if err != nil {
		return nil, fmt.Errorf("list goals: %w", err)
	}
	defer rows.Close()

	var goals []core.SavingsGoal
	for rows.Next() {
		goal, err := scanGoal(rows)
		if err != nil {
			return nil, err
		}
		goals = append(goals, goal)
	}
	return goals, rows.Err()
}

func (r *SQLiteRepository) AddExpense(ctx context.Context, e core.Expense) (core.Expense, error) {
	row := r.db.QueryRowContext(ctx, `
		INSERT INTO expenses (user_id, amount, description, category, date, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		RETURNING id, created_at`,
		e.UserID, e.Amount.String(), e.Description, e.Category.String(), e.Date.String(), time.Now().UTC())
	if err := row.Scan(&e.ID, &e.CreatedAt); err != nil {
		return core.Expense{}, fmt.Errorf("create expense: %w", err)
	}

	slog.InfoContext(ctx, "Expense saved",
		"id", e.ID,
		log.FieldUserID, e.UserID,
		"description", e.Description,
		log.FieldAmount, e.Amount.String(),
		log.FieldCategory, e.Category.String(),
		"date", e.Date.String(),
		log.FieldComponent, log.ComponentStorage)

	return e, nil
}

func (r *SQLiteRepository) ExpenseByID(ctx context.Context, userID, id int64) (*core.Expense, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, user_id, amount, description, category, date, created_at
		FROM expenses WHERE id = ? AND user_id = ?`,
		id, userID)
	e, err := scanExpense(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func (r *SQLiteRepository) Expenses(ctx context.Context, userID int64, f core.ExpenseFilter) ([]core.Expense, error) {
	query := `SELECT id, user_id, amount, description, category, date, created_at
		FROM expenses WHERE user_id = ?`
	args := []any{userID}
	if !f.Start.IsZero() {
		query += ` AND date >= ?`
		args = append(args, f.Start.String())
	}
	if !f.End.IsZero() {
		query += ` AND date <= ?`
		args = append(args, f.End.String())
	}
	if f.Category != "" {
		query += ` AND category = ?`
		args = append(args, f.Category.String())
	}
	query += ` ORDER BY date DESC, id DESC`
	if f.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, f.Limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	defer rows.Close()

	var expenses []core.Expense
	for rows.Next() {
		e, err := scanExpense(rows)
		if err != nil {
			return nil, err
		}
		expenses = append(expenses, e)
	}
	return expenses, rows.Err()
}

func (r *SQLiteRepository) UpdateExpense(ctx context.Context, userID, id int64, patch core.ExpensePatch) (*core.Expense, error) {
	set := ""
	var args []any
	appendSet := func(col string, val any) {
		if set != "" {
			set += ", "
		}
		set += col + " = ?"
		args = append(args, val)
	}
	if patch.Amount != nil {
		appendSet("amount", patch.Amount.String())
	}
	if patch.Description != nil {
		appendSet("description", *patch.Description)
	}
	if patch.Category != nil {
		appendSet("category", patch.Category.String())
	}
	if patch.Date != nil {
		appendSet("date", patch.Date.String())
	}
	if set == "" {
		return r.ExpenseByID(ctx, userID, id)
	}

	args = append(args, id, userID)
	res, err := r.db.ExecContext(ctx, `UPDATE expenses SET `+set+` WHERE id = ? AND user_id = ?`, args...)
	if err != nil {
		return nil, fmt.Errorf("update expense: %w", err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return nil, fmt.Errorf("update expense rows affected: %w", err)
	} else if n == 0 {
		return nil, nil
	}
	return r.ExpenseByID(ctx, userID, id)
}

func (r *SQLiteRepository) DeleteExpense(ctx context.Context, userID, id int64) (bool, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM expenses WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return false, fmt.Errorf("delete expense: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete expense rows affected: %w", err)
	}
	return n > 0, nil
}

func (r *SQLiteRepository) incomeByID(ctx context.Context, userID, id int64) (*core.IncomeEntry, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, user_id, amount, month, description, created_at
		FROM income_entries WHERE id = ? AND user_id = ?`,
		id, userID)
	entry, err := scanIncome(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanIncome(row rowScanner) (core.IncomeEntry, error) {
	var (
		entry         core.IncomeEntry
		amount, month string
	)
	if err := row.Scan(&entry.ID, &entry.UserID, &amount, &month, &entry.Description, &entry.CreatedAt); err != nil {
		return core.IncomeEntry{}, fmt.Errorf("scan income: %w", err)
	}
	var err error
	if entry.Amount, err = decimal.NewFromString(amount); err != nil {
		return core.IncomeEntry{}, fmt.Errorf("parse income amount %q: %w", amount, err)
	}
	if entry.Month, err = core.ParseDate(month); err != nil {
		return core.IncomeEntry{}, fmt.Errorf("parse income month %q: %w", month, err)
	}
	return entry, nil
}

func scanGoal(row rowScanner) (core.SavingsGoal, error) {
	var (
		goal          core.SavingsGoal
		target, month string
	)
	if err := row.Scan(&goal.ID, &goal.UserID, &target, &month, &goal.Description, &goal.CreatedAt); err != nil {
		return core.SavingsGoal{}, fmt.Errorf("scan goal: %w", err)
	}
	var err error
	if goal.TargetAmount, err = decimal.NewFromString(target); err != nil {
		return core.SavingsGoal{}, fmt.Errorf("parse goal amount %q: %w", target, err)
	}
	if goal.Month, err = core.ParseDate(month); err != nil {
		return core.SavingsGoal{}, fmt.Errorf("parse goal month %q: %w", month, err)
	}
	return goal, nil
}

func scanExpense(row rowScanner) (core.Expense, error) {
	var (
		e                      core.Expense
		amount, category, date string
	)
	if err := row.Scan(&e.ID, &e.UserID, &amount, &e.Description, &category, &date, &e.CreatedAt); err != nil {
		return core.Expense{}, fmt.Errorf("scan expense: %w", err)
	}
	var err error
	if e.Amount, err = decimal.NewFromString(amount); err != nil {
		return core.Expense{}, fmt.Errorf("parse expense amount %q: %w", amount, err)
	}
	if e.Date, err = core.ParseDate(date); err != nil {
		return core.Expense{}, fmt.Errorf("parse expense date %q: %w", date, err)
	}
	e.Category = core.Category(category)
	return e, nil
}

package worker

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"budget/internal/amqp"
	"budget/internal/core"
	"budget/internal/services"
	"budget/internal/storage/memory"
)

func newTestWorker(t *testing.T) (*AlertWorker, *services.BudgetService) {
	t.Helper()
	store := memory.New()
	budgets := services.NewBudgetService(store, nil)
	expenses := services.NewExpenseService(store, nil)
	recommendations := services.NewRecommendationService(budgets, expenses)
	return NewAlertWorker(recommendations), budgets
}

func TestHandleLedgerEvent(t *testing.T) {
	ctx := context.Background()
	w, budgets := newTestWorker(t)

	month := core.DateOf(time.Now()).MonthStart()
	if _, err := budgets.SetIncome(ctx, 1, decimal.NewFromInt(5000), month, ""); err != nil {
		t.Fatal(err)
	}

	ev := amqp.NewLedgerEvent(amqp.EntityIncome, amqp.ActionSet, 1, 1, month.String())
	if err := w.HandleLedgerEvent(ctx, ev); err != nil {
		t.Fatalf("handle event: %v", err)
	}

	// The (user, month) pair is tracked for later sweeps.
	w.mu.Lock()
	_, tracked := w.seen[watchKey{userID: 1, month: month.String()}]
	w.mu.Unlock()
	if !tracked {
		t.Error("expected event month to be tracked")
	}

	if err := w.Sweep(ctx); err != nil {
		t.Fatalf("sweep: %v", err)
	}
}

func TestHandleLedgerEventInvalidMonth(t *testing.T) {
	w, _ := newTestWorker(t)

	ev := amqp.NewLedgerEvent(amqp.EntityExpense, amqp.ActionCreated, 1, 1, "03/2025")
	if err := w.HandleLedgerEvent(context.Background(), ev); err == nil {
		t.Fatal("expected error for malformed month")
	}
}

func TestHandleDeletionReevaluatesKnownMonths(t *testing.T) {
	ctx := context.Background()
	w, _ := newTestWorker(t)

	month := core.DateOf(time.Now()).MonthStart()
	w.remember(1, month)

	// Deletion events have no month; the worker falls back to every
	// month it knows about for the user.
	ev := amqp.NewLedgerEvent(amqp.EntityExpense, amqp.ActionDeleted, 1, 9, "")
	if err := w.HandleLedgerEvent(ctx, ev); err != nil {
		t.Fatalf("handle deletion: %v", err)
	}
}

func TestSweepEmpty(t *testing.T) {
	w, _ := newTestWorker(t)
	if err := w.Sweep(context.Background()); err != nil {
		t.Fatalf("empty sweep: %v", err)
	}
}

package services

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"budget/internal/core"
	"budget/internal/storage/memory"
)

// newTestServices wires the three services onto one in-memory store
// with a shared deterministic clock.
func newTestServices(clock func() time.Time) (*BudgetService, *ExpenseService, *RecommendationService) {
	store := memory.New()
	budgets := NewBudgetService(store, nil)
	budgets.now = clock
	expenses := NewExpenseService(store, nil)
	expenses.now = clock
	recs := NewRecommendationService(budgets, expenses)
	recs.now = clock
	recs.calc = core.NewCalculatorAt(clock)
	return budgets, expenses, recs
}

func TestDailyRecommendationRequiresSetup(t *testing.T) {
	ctx := context.Background()
	budgets, _, recs := newTestServices(clockAt(2025, 3, 10))

	// No income at all.
	rec, err := recs.DailyRecommendation(ctx, 1, core.Date{}, core.Date{})
	if err != nil {
		t.Fatal(err)
	}
	if rec != nil {
		t.Fatal("expected no recommendation without income")
	}

	// Income but no goal.
	if _, err := budgets.SetIncome(ctx, 1, decimal.NewFromInt(5000), core.NewDate(2025, 3, 1), ""); err != nil {
		t.Fatal(err)
	}
	rec, err = recs.DailyRecommendation(ctx, 1, core.Date{}, core.Date{})
	if err != nil {
		t.Fatal(err)
	}
	if rec != nil {
		t.Fatal("expected no recommendation without a goal")
	}
}

func TestDailyRecommendationScenario(t *testing.T) {
	// 2025-03-10; default target 2025-04-03 is 24 days out.
	ctx := context.Background()
	budgets, expenses, recs := newTestServices(clockAt(2025, 3, 10))

	if _, err := budgets.SetIncome(ctx, 1, decimal.NewFromInt(5000), core.NewDate(2025, 3, 1), ""); err != nil {
		t.Fatal(err)
	}
	if _, err := budgets.SetSavingsGoal(ctx, 1, decimal.NewFromInt(1000), core.NewDate(2025, 3, 1), ""); err != nil {
		t.Fatal(err)
	}
	today := core.NewDate(2025, 3, 10)
	if _, err := expenses.AddExpense(ctx, 1, decimal.RequireFromString("25.50"), "groceries", core.CategoryFood, today); err != nil {
		t.Fatal(err)
	}
	if _, err := expenses.AddExpense(ctx, 1, decimal.RequireFromString("50.00"), "fuel", core.CategoryTransportation, today); err != nil {
		t.Fatal(err)
	}

	rec, err := recs.DailyRecommendation(ctx, 1, core.Date{}, core.Date{})
	if err != nil {
		t.Fatal(err)
	}
	if rec == nil {
		t.Fatal("expected a recommendation")
	}
	if !rec.CurrentMonthSpent.Equal(decimal.RequireFromString("75.50")) {
		t.Errorf("expected spent 75.50, got %s", rec.CurrentMonthSpent)
	}
	want := decimal.RequireFromString("3924.50").Div(decimal.NewFromInt(24))
	if !rec.RecommendedDailyLimit.Equal(want) {
		t.Errorf("expected limit %s, got %s", want, rec.RecommendedDailyLimit)
	}
	if rec.RecommendedDailyLimit.IsNegative() {
		t.Error("limit must never be negative")
	}
}

func TestMonthlySummaryAlwaysReturned(t *testing.T) {
	ctx := context.Background()
	_, _, recs := newTestServices(clockAt(2025, 3, 10))

	// Nothing configured: still a summary, with zero totals.
	summary, err := recs.MonthlySummary(ctx, 1, core.Date{})
	if err != nil {
		t.Fatal(err)
	}
	if summary == nil {
		t.Fatal("expected a summary")
	}
	if !summary.TotalIncome.IsZero() || !summary.TotalExpenses.IsZero() {
		t.Errorf("expected zero totals, got %s / %s", summary.TotalIncome, summary.TotalExpenses)
	}
	if summary.DaysInMonth != 31 || summary.DaysPassed != 10 {
		t.Errorf("expected 31/10 days, got %d/%d", summary.DaysInMonth, summary.DaysPassed)
	}
}

func TestPredictMonthlyOutcomeRequiresIncome(t *testing.T) {
	ctx := context.Background()
	_, _, recs := newTestServices(clockAt(2025, 3, 10))

	pred, err := recs.PredictMonthlyOutcome(ctx, 1, core.Date{})
	if err != nil {
		t.Fatal(err)
	}
	if pred != nil {
		t.Fatal("expected no prediction without income")
	}
}

func TestAnalyzeSpendingPatternsDefaultWindow(t *testing.T) {
	ctx := context.Background()
	_, expenses, recs := newTestServices(clockAt(2025, 3, 10))

	// Previous month and current month both fall inside the default
	// lookback; older expenses do not.
	if _, err := expenses.AddExpense(ctx, 1, decimal.NewFromInt(40), "old", core.CategoryFood, core.NewDate(2025, 1, 10)); err != nil {
		t.Fatal(err)
	}
	if _, err := expenses.AddExpense(ctx, 1, decimal.NewFromInt(60), "recent", core.CategoryFood, core.NewDate(2025, 2, 10)); err != nil {
		t.Fatal(err)
	}
	if _, err := expenses.AddExpense(ctx, 1, decimal.NewFromInt(40), "current", core.CategoryHealth, core.NewDate(2025, 3, 5)); err != nil {
		t.Fatal(err)
	}

	analysis, err := recs.AnalyzeSpendingPatterns(ctx, 1, core.Date{}, core.Date{})
	if err != nil {
		t.Fatal(err)
	}
	if len(analysis) != 2 {
		t.Fatalf("expected 2 categories, got %d", len(analysis))
	}
	if !analysis[core.CategoryFood].Total.Equal(decimal.NewFromInt(60)) {
		t.Errorf("food total: got %s", analysis[core.CategoryFood].Total)
	}
	if analysis[core.CategoryFood].Percentage.Equal(analysis[core.CategoryHealth].Percentage) {
		// 60 vs 40 of 100
		t.Errorf("expected distinct shares, got %s", analysis[core.CategoryFood].Percentage)
	}
}

func TestSmartAlertsWithoutSetup(t *testing.T) {
	ctx := context.Background()
	_, _, recs := newTestServices(clockAt(2025, 3, 10))

	alerts, err := recs.SmartAlerts(ctx, 1, core.Date{})
	if err != nil {
		t.Fatal(err)
	}
	if len(alerts) != 1 {
		t.Fatalf("expected exactly one alert, got %d", len(alerts))
	}
	if alerts[0].Type != AlertTypeSetup || alerts[0].Severity != SeverityWarning {
		t.Errorf("expected setup/warning, got %s/%s", alerts[0].Type, alerts[0].Severity)
	}
}

func TestSmartAlertsShortfall(t *testing.T) {
	ctx := context.Background()
	budgets, expenses, recs := newTestServices(clockAt(2025, 3, 10))

	// Spending 60/day against a goal that leaves almost nothing to
	// spend: predicted savings land far below the target.
	if _, err := budgets.SetIncome(ctx, 1, decimal.NewFromInt(3000), core.NewDate(2025, 3, 1), ""); err != nil {
		t.Fatal(err)
	}
	if _, err := budgets.SetSavingsGoal(ctx, 1, decimal.NewFromInt(2500), core.NewDate(2025, 3, 1), ""); err != nil {
		t.Fatal(err)
	}
	if _, err := expenses.AddExpense(ctx, 1, decimal.NewFromInt(600), "rent share", core.CategoryUtilities, core.NewDate(2025, 3, 8)); err != nil {
		t.Fatal(err)
	}

	alerts, err := recs.SmartAlerts(ctx, 1, core.Date{})
	if err != nil {
		t.Fatal(err)
	}

	var shortfall, surplus bool
	for _, a := range alerts {
		if a.Type == AlertTypeSavings {
			if a.Severity == SeverityError {
				shortfall = true
			}
			if a.Severity == SeveritySuccess {
				surplus = true
			}
		}
	}
	if !shortfall {
		t.Errorf("expected a shortfall alert, got %+v", alerts)
	}
	if surplus {
		t.Error("shortfall and surplus are mutually exclusive")
	}
}

func TestSmartAlertsSurplus(t *testing.T) {
	ctx := context.Background()
	budgets, expenses, recs := newTestServices(clockAt(2025, 3, 10))

	// Modest spending against a small goal: predicted savings exceed
	// 1.2x the target.
	if _, err := budgets.SetIncome(ctx, 1, decimal.NewFromInt(3000), core.NewDate(2025, 3, 1), ""); err != nil {
		t.Fatal(err)
	}
	if _, err := budgets.SetSavingsGoal(ctx, 1, decimal.NewFromInt(1000), core.NewDate(2025, 3, 1), ""); err != nil {
		t.Fatal(err)
	}
	if _, err := expenses.AddExpense(ctx, 1, decimal.NewFromInt(150), "groceries", core.CategoryFood, core.NewDate(2025, 3, 5)); err != nil {
		t.Fatal(err)
	}

	alerts, err := recs.SmartAlerts(ctx, 1, core.Date{})
	if err != nil {
		t.Fatal(err)
	}

	var surplus bool
	for _, a := range alerts {
		if a.Type == AlertTypeSavings && a.Severity == SeveritySuccess {
			surplus = true
		}
	}
	if !surplus {
		t.Errorf("expected a surplus alert, got %+v", alerts)
	}
}

func TestSmartAlertsCategoryConcentration(t *testing.T) {
	ctx := context.Background()
	budgets, expenses, recs := newTestServices(clockAt(2025, 3, 10))

	if _, err := budgets.SetIncome(ctx, 1, decimal.NewFromInt(5000), core.NewDate(2025, 3, 1), ""); err != nil {
		t.Fatal(err)
	}
	if _, err := budgets.SetSavingsGoal(ctx, 1, decimal.NewFromInt(1000), core.NewDate(2025, 3, 1), ""); err != nil {
		t.Fatal(err)
	}

	// Food is 45% of a 100-unit month-to-date spend.
	add := func(cat core.Category, amount string) {
		t.Helper()
		if _, err := expenses.AddExpense(ctx, 1, decimal.RequireFromString(amount), "x", cat, core.NewDate(2025, 3, 5)); err != nil {
			t.Fatal(err)
		}
	}
	add(core.CategoryFood, "45")
	add(core.CategoryHealth, "30")
	add(core.CategoryShopping, "25")

	alerts, err := recs.SmartAlerts(ctx, 1, core.Date{})
	if err != nil {
		t.Fatal(err)
	}

	var concentration bool
	for _, a := range alerts {
		if a.Type == AlertTypeCategory && a.Severity == SeverityInfo && strings.Contains(a.Message, "Food") {
			concentration = true
		}
	}
	if !concentration {
		t.Errorf("expected a food concentration alert, got %+v", alerts)
	}
}

func TestSmartAlertsTimelinePressure(t *testing.T) {
	// 2025-03-28: 6 days to the default 2025-04-03 target.
	ctx := context.Background()
	budgets, _, recs := newTestServices(clockAt(2025, 3, 28))

	if _, err := budgets.SetIncome(ctx, 1, decimal.NewFromInt(1000), core.NewDate(2025, 3, 1), ""); err != nil {
		t.Fatal(err)
	}
	if _, err := budgets.SetSavingsGoal(ctx, 1, decimal.NewFromInt(990), core.NewDate(2025, 3, 1), ""); err != nil {
		t.Fatal(err)
	}

	alerts, err := recs.SmartAlerts(ctx, 1, core.Date{})
	if err != nil {
		t.Fatal(err)
	}

	var timeline bool
	for _, a := range alerts {
		if a.Type == AlertTypeTimeline && a.Severity == SeverityWarning {
			timeline = true
		}
	}
	if !timeline {
		t.Errorf("expected a timeline alert, got %+v", alerts)
	}
}

func TestSavingsProgress(t *testing.T) {
	ctx := context.Background()
	budgets, expenses, recs := newTestServices(clockAt(2025, 3, 10))

	if _, err := budgets.SetIncome(ctx, 1, decimal.NewFromInt(5000), core.NewDate(2025, 3, 1), ""); err != nil {
		t.Fatal(err)
	}
	if _, err := budgets.SetSavingsGoal(ctx, 1, decimal.NewFromInt(1000), core.NewDate(2025, 3, 1), ""); err != nil {
		t.Fatal(err)
	}
	if _, err := expenses.AddExpense(ctx, 1, decimal.NewFromInt(4200), "furniture", core.CategoryShopping, core.NewDate(2025, 3, 5)); err != nil {
		t.Fatal(err)
	}

	progress, err := recs.SavingsProgress(ctx, 1, core.Date{})
	if err != nil {
		t.Fatal(err)
	}
	if progress == nil {
		t.Fatal("expected progress")
	}
	if !progress.CurrentSavings.Equal(decimal.NewFromInt(800)) {
		t.Errorf("expected savings 800, got %s", progress.CurrentSavings)
	}
	if !progress.ProgressPercentage.Equal(decimal.NewFromInt(80)) {
		t.Errorf("expected 80%%, got %s", progress.ProgressPercentage)
	}
	if progress.DaysPassed != 10 || progress.DaysRemaining != 21 {
		t.Errorf("expected 10/21 days, got %d/%d", progress.DaysPassed, progress.DaysRemaining)
	}
	// Pace on day 10 of 31 is ~322.58; 800 clears it.
	if !progress.OnTrack {
		t.Error("expected on track")
	}
}

func TestSavingsProgressCappedAt100(t *testing.T) {
	ctx := context.Background()
	budgets, _, recs := newTestServices(clockAt(2025, 3, 10))

	if _, err := budgets.SetIncome(ctx, 1, decimal.NewFromInt(5000), core.NewDate(2025, 3, 1), ""); err != nil {
		t.Fatal(err)
	}
	if _, err := budgets.SetSavingsGoal(ctx, 1, decimal.NewFromInt(100), core.NewDate(2025, 3, 1), ""); err != nil {
		t.Fatal(err)
	}

	progress, err := recs.SavingsProgress(ctx, 1, core.Date{})
	if err != nil {
		t.Fatal(err)
	}
	// 5000 saved against a 100 goal reads as exactly 100, not 5000.
	if !progress.ProgressPercentage.Equal(decimal.NewFromInt(100)) {
		t.Errorf("expected capped 100, got %s", progress.ProgressPercentage)
	}
}

func TestSavingsProgressZeroTarget(t *testing.T) {
	ctx := context.Background()
	budgets, _, recs := newTestServices(clockAt(2025, 3, 10))

	if _, err := budgets.SetIncome(ctx, 1, decimal.NewFromInt(5000), core.NewDate(2025, 3, 1), ""); err != nil {
		t.Fatal(err)
	}

	progress, err := recs.SavingsProgress(ctx, 1, core.Date{})
	if err != nil {
		t.Fatal(err)
	}
	if !progress.ProgressPercentage.IsZero() {
		t.Errorf("expected 0%% with no target, got %s", progress.ProgressPercentage)
	}
	// Zero target paces at zero, so any non-negative savings is on track.
	if !progress.OnTrack {
		t.Error("expected on track with zero target")
	}
}

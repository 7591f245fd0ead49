package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"budget/internal/core"
)

const (
	AlertTypeSetup    = "setup"
	AlertTypeBudget   = "budget"
	AlertTypeSavings  = "savings"
	AlertTypeCategory = "category"
	AlertTypeTimeline = "timeline"

	SeverityInfo    = "info"
	SeverityWarning = "warning"
	SeverityError   = "error"
	SeveritySuccess = "success"
)

// Alert is one rule-based finding about a user's budget status.
type Alert struct {
	Type     string `json:"type"`
	Message  string `json:"message"`
	Severity string `json:"severity"`
}

// Fixed policy thresholds for the alert rules. Not configurable.
var (
	lowDailyLimit      = decimal.NewFromInt(10)
	surplusFactor      = decimal.RequireFromString("1.2")
	concentrationShare = decimal.NewFromInt(40)
	crunchDailyLimit   = decimal.NewFromInt(5)
)

const crunchDaysLeft = 7

// RecommendationService orchestrates the calculator against a user's
// ledger and layers smart alerts and progress tracking on top. It holds
// no state between calls; every result is derived fresh from the
// stores.
type RecommendationService struct {
	calc     *core.Calculator
	budgets  *BudgetService
	expenses *ExpenseService
	now      func() time.Time
}

func NewRecommendationService(budgets *BudgetService, expenses *ExpenseService) *RecommendationService {
	return &RecommendationService{
		calc:     core.NewCalculator(),
		budgets:  budgets,
		expenses: expenses,
		now:      time.Now,
	}
}

func (s *RecommendationService) today() core.Date {
	return core.DateOf(s.now())
}

// DailyRecommendation computes the daily spending limit for a user. A
// nil result (with nil error) means the user has not configured income
// or a savings goal yet; callers distinguish "can't compute" from
// "computed to zero" by presence.
func (s *RecommendationService) DailyRecommendation(ctx context.Context, userID int64, targetDate, month core.Date) (*core.DailyRecommendation, error) {
	if month.IsZero() {
		month = s.today()
	}

	income, err := s.budgets.MonthlyIncome(ctx, userID, month)
	if err != nil {
		return nil, fmt.Errorf("monthly income: %w", err)
	}
	if !income.IsPositive() {
		return nil, nil // no income data available
	}

	goal, err := s.budgets.SavingsGoal(ctx, userID, month)
	if err != nil {
		return nil, fmt.Errorf("savings goal: %w", err)
	}
	if goal == nil {
		return nil, nil // no savings goal set
	}

	expenses, err := s.expenses.MonthlyExpenses(ctx, userID, month)
	if err != nil {
		return nil, fmt.Errorf("monthly expenses: %w", err)
	}

	rec := s.calc.DailyRecommendation(income, goal.TargetAmount, expenses, targetDate, month)
	return &rec, nil
}

// MonthlySummary aggregates income, expenses and goal for a user's
// month. Unlike the recommendation, a summary is always produced: even
// all-zero data describes "what happened".
func (s *RecommendationService) MonthlySummary(ctx context.Context, userID int64, month core.Date) (*core.BudgetSummary, error) {
	if month.IsZero() {
		month = s.today()
	}

	incomes, err := s.budgets.IncomeEntries(ctx, userID, month, month)
	if err != nil {
		return nil, fmt.Errorf("income entries: %w", err)
	}
	expenses, err := s.expenses.MonthlyExpenses(ctx, userID, month)
	if err != nil {
		return nil, fmt.Errorf("monthly expenses: %w", err)
	}
	goal, err := s.budgets.SavingsGoal(ctx, userID, month)
	if err != nil {
		return nil, fmt.Errorf("savings goal: %w", err)
	}

	summary := s.calc.MonthlySummary(month, incomes, expenses, goal)
	return &summary, nil
}

// AnalyzeSpendingPatterns runs the category analysis over a rolling
// window: endDate defaults to today and startDate to the first day of
// the previous calendar month.
func (s *RecommendationService) AnalyzeSpendingPatterns(ctx context.Context, userID int64, startDate, endDate core.Date) (map[core.Category]core.CategoryStats, error) {
	if endDate.IsZero() {
		endDate = s.today()
	}
	if startDate.IsZero() {
		startDate = core.DateOf(endDate.MonthStart().AddDate(0, -1, 0))
	}

	expenses, err := s.expenses.Expenses(ctx, userID, core.ExpenseFilter{Start: startDate, End: endDate})
	if err != nil {
		return nil, fmt.Errorf("expenses in range: %w", err)
	}

	return s.calc.CategorySpendingAnalysis(expenses, startDate, endDate), nil
}

// PredictMonthlyOutcome projects the user's month-end totals. Nil when
// no income is configured, same contract as DailyRecommendation.
func (s *RecommendationService) PredictMonthlyOutcome(ctx context.Context, userID int64, month core.Date) (*core.OutcomePrediction, error) {
	if month.IsZero() {
		month = s.today()
	}

	income, err := s.budgets.MonthlyIncome(ctx, userID, month)
	if err != nil {
		return nil, fmt.Errorf("monthly income: %w", err)
	}
	if !income.IsPositive() {
		return nil, nil // no income data available
	}

	expenses, err := s.expenses.MonthlyExpenses(ctx, userID, month)
	if err != nil {
		return nil, fmt.Errorf("monthly expenses: %w", err)
	}

	pred := s.calc.PredictMonthlyOutcome(income, expenses, nil)
	return &pred, nil
}

// SmartAlerts evaluates the alert rules for a user's month and returns
// the findings in rule order. Rules fire independently, except that a
// missing setup short-circuits everything else and shortfall/surplus
// are mutually exclusive by construction.
func (s *RecommendationService) SmartAlerts(ctx context.Context, userID int64, month core.Date) ([]Alert, error) {
	if month.IsZero() {
		month = s.today()
	}

	var alerts []Alert

	rec, err := s.DailyRecommendation(ctx, userID, core.Date{}, month)
	if err != nil {
		return nil, err
	}
	summary, err := s.MonthlySummary(ctx, userID, month)
	if err != nil {
		return nil, err
	}
	pred, err := s.PredictMonthlyOutcome(ctx, userID, month)
	if err != nil {
		return nil, err
	}

	if rec == nil || summary == nil {
		alerts = append(alerts, Alert{
			Type:     AlertTypeSetup,
			Message:  "Please set up your monthly income and savings goal to get recommendations.",
			Severity: SeverityWarning,
		})
		return alerts, nil
	}

	if rec.RecommendedDailyLimit.LessThan(lowDailyLimit) {
		alerts = append(alerts, Alert{
			Type: AlertTypeBudget,
			Message: fmt.Sprintf("Your recommended daily limit is very low (%s). Consider adjusting your savings goal.",
				rec.RecommendedDailyLimit.StringFixed(2)),
			Severity: SeverityWarning,
		})
	}

	if pred != nil {
		if pred.PredictedSavings.LessThan(summary.SavingsTarget) {
			shortage := summary.SavingsTarget.Sub(pred.PredictedSavings)
			alerts = append(alerts, Alert{
				Type: AlertTypeSavings,
				Message: fmt.Sprintf("You may fall short of your savings goal by %s. Consider reducing daily spending.",
					shortage.StringFixed(2)),
				Severity: SeverityError,
			})
		} else if pred.PredictedSavings.GreaterThan(summary.SavingsTarget.Mul(surplusFactor)) {
			excess := pred.PredictedSavings.Sub(summary.SavingsTarget)
			alerts = append(alerts, Alert{
				Type: AlertTypeSavings,
				Message: fmt.Sprintf("Great job! You're on track to save %s more than your target.",
					excess.StringFixed(2)),
				Severity: SeveritySuccess,
			})
		}
	}

	// Category concentration only makes sense for month-to-date data.
	today := s.today()
	if month.SameMonth(today) {
		breakdown, err := s.expenses.CategoryBreakdown(ctx, userID, month.MonthStart(), today)
		if err != nil {
			return nil, fmt.Errorf("category breakdown: %w", err)
		}

		totalSpent := decimal.Zero
		for _, amount := range breakdown {
			totalSpent = totalSpent.Add(amount)
		}
		if totalSpent.IsPositive() {
			for _, category := range core.Categories() {
				amount, ok := breakdown[category]
				if !ok {
					continue
				}
				share := amount.Div(totalSpent).Mul(decimal.NewFromInt(100))
				if share.GreaterThan(concentrationShare) {
					alerts = append(alerts, Alert{
						Type: AlertTypeCategory,
						Message: fmt.Sprintf("%s spending is %s%% of your budget. Consider diversifying expenses.",
							titleCase(category.String()), share.StringFixed(1)),
						Severity: SeverityInfo,
					})
				}
			}
		}
	}

	if rec.DaysRemaining <= crunchDaysLeft && rec.RecommendedDailyLimit.LessThan(crunchDailyLimit) {
		alerts = append(alerts, Alert{
			Type: AlertTypeTimeline,
			Message: fmt.Sprintf("Only %d days left with %s daily limit. Stay focused!",
				rec.DaysRemaining, rec.RecommendedDailyLimit.StringFixed(2)),
			Severity: SeverityWarning,
		})
	}

	return alerts, nil
}

// SavingsProgress reports progress toward the month's savings goal.
// ProgressPercentage is capped at 100; OnTrack compares savings-to-date
// against a linear share of the goal proportional to elapsed days.
func (s *RecommendationService) SavingsProgress(ctx context.Context, userID int64, month core.Date) (*core.SavingsProgress, error) {
	summary, err := s.MonthlySummary(ctx, userID, month)
	if err != nil {
		return nil, err
	}
	if summary == nil {
		return nil, nil
	}

	progress := decimal.Zero
	if summary.SavingsTarget.IsPositive() {
		progress = summary.ActualSavings.Div(summary.SavingsTarget).Mul(decimal.NewFromInt(100))
		if progress.GreaterThan(decimal.NewFromInt(100)) {
			progress = decimal.NewFromInt(100)
		}
	}

	// daysInMonth is always positive for a real calendar month.
	pace := summary.SavingsTarget.
		Mul(decimal.NewFromInt(int64(summary.DaysPassed))).
		Div(decimal.NewFromInt(int64(summary.DaysInMonth)))

	return &core.SavingsProgress{
		TargetAmount:       summary.SavingsTarget,
		CurrentSavings:     summary.ActualSavings,
		ProgressPercentage: progress,
		DaysPassed:         summary.DaysPassed,
		DaysRemaining:      summary.DaysInMonth - summary.DaysPassed,
		OnTrack:            summary.ActualSavings.GreaterThanOrEqual(pace),
	}, nil
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

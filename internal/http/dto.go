package http

import (
	"time"

	"github.com/shopspring/decimal"

	"budget/internal/core"
	"budget/internal/services"
)

// JSON representations of the domain types. Monetary values marshal as
// decimal strings and dates as YYYY-MM-DD.
type (
	incomeJSON struct {
		ID          int64           `json:"id"`
		UserID      int64           `json:"user_id"`
		Amount      decimal.Decimal `json:"amount"`
		Month       string          `json:"month"`
		Description string          `json:"description,omitempty"`
		CreatedAt   time.Time       `json:"created_at"`
	}

	goalJSON struct {
		ID           int64           `json:"id"`
		UserID       int64           `json:"user_id"`
		TargetAmount decimal.Decimal `json:"target_amount"`
		Month        string          `json:"month"`
		Description  string          `json:"description,omitempty"`
		CreatedAt    time.Time       `json:"created_at"`
	}

	expenseJSON struct {
		ID          int64           `json:"id"`
		UserID      int64           `json:"user_id"`
		Amount      decimal.Decimal `json:"amount"`
		Description string          `json:"description"`
		Category    string          `json:"category"`
		Date        string          `json:"date"`
		CreatedAt   time.Time       `json:"created_at"`
	}

	recommendationJSON struct {
		RecommendedDailyLimit decimal.Decimal `json:"recommended_daily_limit"`
		DaysRemaining         int             `json:"days_remaining"`
		CurrentMonthSpent     decimal.Decimal `json:"current_month_spent"`
		SavingsTarget         decimal.Decimal `json:"savings_target"`
		MonthlyIncome         decimal.Decimal `json:"monthly_income"`
		ProjectedSavings      decimal.Decimal `json:"projected_savings"`
	}

	summaryJSON struct {
		Month             string                     `json:"month"`
		TotalIncome       decimal.Decimal            `json:"total_income"`
		TotalExpenses     decimal.Decimal            `json:"total_expenses"`
		SavingsTarget     decimal.Decimal            `json:"savings_target"`
		ActualSavings     decimal.Decimal            `json:"actual_savings"`
		ExpenseByCategory map[string]decimal.Decimal `json:"expense_by_category"`
		DaysInMonth       int                        `json:"days_in_month"`
		DaysPassed        int                        `json:"days_passed"`
	}

	categoryStatsJSON struct {
		Total      decimal.Decimal `json:"total"`
		Count      int             `json:"count"`
		Average    decimal.Decimal `json:"average"`
		Percentage decimal.Decimal `json:"percentage"`
	}

	predictionJSON struct {
		CurrentExpenses        decimal.Decimal `json:"current_expenses"`
		PredictedRemaining     decimal.Decimal `json:"predicted_remaining"`
		PredictedTotalExpenses decimal.Decimal `json:"predicted_total_expenses"`
		PredictedSavings       decimal.Decimal `json:"predicted_savings"`
		DailySpendingRate      decimal.Decimal `json:"daily_spending_rate"`
	}

	progressJSON struct {
		TargetAmount       decimal.Decimal `json:"target_amount"`
		CurrentSavings     decimal.Decimal `json:"current_savings"`
		ProgressPercentage decimal.Decimal `json:"progress_percentage"`
		DaysPassed         int             `json:"days_passed"`
		DaysRemaining      int             `json:"days_remaining"`
		OnTrack            bool            `json:"on_track"`
	}
)

func toIncomeJSON(e core.IncomeEntry) incomeJSON {
	return incomeJSON{
		ID:          e.ID,
		UserID:      e.UserID,
		Amount:      e.Amount,
		Month:       e.Month.String(),
		Description: e.Description,
		CreatedAt:   e.CreatedAt,
	}
}

func toGoalJSON(g core.SavingsGoal) goalJSON {
	return goalJSON{
		ID:           g.ID,
		UserID:       g.UserID,
		TargetAmount: g.TargetAmount,
		Month:        g.Month.String(),
		Description:  g.Description,
		CreatedAt:    g.CreatedAt,
	}
}

func toExpenseJSON(e core.Expense) expenseJSON {
	return expenseJSON{
		ID:          e.ID,
		UserID:      e.UserID,
		Amount:      e.Amount,
		Description: e.Description,
		Category:    e.Category.String(),
		Date:        e.Date.String(),
		CreatedAt:   e.CreatedAt,
	}
}

func toExpenseListJSON(expenses []core.Expense) []expenseJSON {
	out := make([]expenseJSON, len(expenses))
	for i, e := range expenses {
		out[i] = toExpenseJSON(e)
	}
	return out
}

func toRecommendationJSON(r core.DailyRecommendation) recommendationJSON {
	return recommendationJSON{
		RecommendedDailyLimit: r.RecommendedDailyLimit,
		DaysRemaining:         r.DaysRemaining,
		CurrentMonthSpent:     r.CurrentMonthSpent,
		SavingsTarget:         r.SavingsTarget,
		MonthlyIncome:         r.MonthlyIncome,
		ProjectedSavings:      r.ProjectedSavings,
	}
}

func toSummaryJSON(s core.BudgetSummary) summaryJSON {
	byCategory := make(map[string]decimal.Decimal, len(s.ExpenseByCategory))
	for c, amount := range s.ExpenseByCategory {
		byCategory[c.String()] = amount
	}
	return summaryJSON{
		Month:             s.Month.String(),
		TotalIncome:       s.TotalIncome,
		TotalExpenses:     s.TotalExpenses,
		SavingsTarget:     s.SavingsTarget,
		ActualSavings:     s.ActualSavings,
		ExpenseByCategory: byCategory,
		DaysInMonth:       s.DaysInMonth,
		DaysPassed:        s.DaysPassed,
	}
}

func toAnalysisJSON(stats map[core.Category]core.CategoryStats) map[string]categoryStatsJSON {
	out := make(map[string]categoryStatsJSON, len(stats))
	for c, s := range stats {
		out[c.String()] = categoryStatsJSON{
			Total:      s.Total,
			Count:      s.Count,
			Average:    s.Average,
			Percentage: s.Percentage,
		}
	}
	return out
}

func toPredictionJSON(p core.OutcomePrediction) predictionJSON {
	return predictionJSON{
		CurrentExpenses:        p.CurrentExpenses,
		PredictedRemaining:     p.PredictedRemaining,
		PredictedTotalExpenses: p.PredictedTotalExpenses,
		PredictedSavings:       p.PredictedSavings,
		DailySpendingRate:      p.DailySpendingRate,
	}
}

func toProgressJSON(p core.SavingsProgress) progressJSON {
	return progressJSON{
		TargetAmount:       p.TargetAmount,
		CurrentSavings:     p.CurrentSavings,
		ProgressPercentage: p.ProgressPercentage,
		DaysPassed:         p.DaysPassed,
		DaysRemaining:      p.DaysRemaining,
		OnTrack:            p.OnTrack,
	}
}

func toAlertsJSON(alerts []services.Alert) []services.Alert {
	if alerts == nil {
		return []services.Alert{}
	}
	return alerts
}

package core

import "github.com/shopspring/decimal"

// DailyRecommendation is the computed spending ceiling for "today" that
// keeps the user on pace for their savings goal by the target date.
// Computed fresh per request, never persisted.
type DailyRecommendation struct {
	RecommendedDailyLimit decimal.Decimal
	DaysRemaining         int
	CurrentMonthSpent     decimal.Decimal
	SavingsTarget         decimal.Decimal
	MonthlyIncome         decimal.Decimal
	ProjectedSavings      decimal.Decimal
}

// BudgetSummary is a backward-looking aggregate for one calendar month.
// ActualSavings may be negative (overspending). Categories with no
// expenses are absent from ExpenseByCategory.
type BudgetSummary struct {
	Month             Date
	TotalIncome       decimal.Decimal
	TotalExpenses     decimal.Decimal
	SavingsTarget     decimal.Decimal
	ActualSavings     decimal.Decimal
	ExpenseByCategory map[Category]decimal.Decimal
	DaysInMonth       int
	DaysPassed        int
}

// CategoryStats aggregates one category's share of a filtered expense
// set. Percentage is the category's share of the filtered total, 0-100.
type CategoryStats struct {
	Total      decimal.Decimal
	Count      int
	Average    decimal.Decimal
	Percentage decimal.Decimal
}

// OutcomePrediction extrapolates the observed (or supplied) daily
// spending rate across the remaining days of the current month.
type OutcomePrediction struct {
	CurrentExpenses        decimal.Decimal
	PredictedRemaining     decimal.Decimal
	PredictedTotalExpenses decimal.Decimal
	PredictedSavings       decimal.Decimal
	DailySpendingRate      decimal.Decimal
}

// SavingsProgress is a snapshot of progress toward the month's goal.
// ProgressPercentage is capped at 100; OnTrack is a linear pacing test
// against elapsed days.
type SavingsProgress struct {
	TargetAmount       decimal.Decimal
	CurrentSavings     decimal.Decimal
	ProgressPercentage decimal.Decimal
	DaysPassed         int
	DaysRemaining      int
	OnTrack            bool
}

package core

import (
	"time"

	"github.com/shopspring/decimal"
)

var oneHundred = decimal.NewFromInt(100)

// Calculator derives spending recommendations, summaries, analytics and
// predictions from in-memory ledger records. It is stateless apart from
// the clock; every call recomputes from its inputs, so concurrent use
// needs no coordination.
//
// The calculation functions trust well-formed input; validation belongs
// to the data-entry boundary, not here.
type Calculator struct {
	now func() time.Time
}

// NewCalculator returns a Calculator on the real clock.
func NewCalculator() *Calculator {
	return &Calculator{now: time.Now}
}

// NewCalculatorAt returns a Calculator with an explicit clock. Used by
// services and tests that need a deterministic "today".
func NewCalculatorAt(now func() time.Time) *Calculator {
	if now == nil {
		now = time.Now
	}
	return &Calculator{now: now}
}

func (c *Calculator) today() Date {
	return DateOf(c.now())
}

// DailyRecommendation computes the daily spending ceiling that, if
// followed for all remaining days, leaves monthlyIncome - savingsTarget
// unspent by targetDate.
//
// A zero targetDate defaults to the 3rd of the month following month
// (or today's month when month is zero): savings should be settled
// shortly after month-end, before the big bills post. Spending so far
// is recomputed here by filtering expenses to the current calendar
// month; the caller's slice is not trusted to be pre-filtered.
func (c *Calculator) DailyRecommendation(
	monthlyIncome, savingsTarget decimal.Decimal,
	currentMonthExpenses []Expense,
	targetDate, month Date,
) DailyRecommendation {
	today := c.today()

	if month.IsZero() {
		month = today
	}
	if targetDate.IsZero() {
		next := month.NextMonthStart()
		targetDate = NewDate(next.Year(), int(next.Month()), 3)
	}

	// Never zero or negative: a passed target date still yields a
	// finite, positive divisor.
	daysRemaining := today.DaysUntil(targetDate)
	if daysRemaining <= 0 {
		daysRemaining = 1
	}

	currentMonthSpent := decimal.Zero
	for _, e := range currentMonthExpenses {
		if e.Date.SameMonth(today) {
			currentMonthSpent = currentMonthSpent.Add(e.Amount)
		}
	}

	availableForSpending := monthlyIncome.Sub(savingsTarget)
	remainingBudget := availableForSpending.Sub(currentMonthSpent)

	days := decimal.NewFromInt(int64(daysRemaining))
	recommendedDailyLimit := remainingBudget.Div(days)
	if recommendedDailyLimit.IsNegative() {
		// Overspent users are told to spend nothing more, never
		// given a negative limit.
		recommendedDailyLimit = decimal.Zero
	}

	projectedTotalExpenses := currentMonthSpent.Add(recommendedDailyLimit.Mul(days))
	projectedSavings := monthlyIncome.Sub(projectedTotalExpenses)

	return DailyRecommendation{
		RecommendedDailyLimit: recommendedDailyLimit,
		DaysRemaining:         daysRemaining,
		CurrentMonthSpent:     currentMonthSpent,
		SavingsTarget:         savingsTarget,
		MonthlyIncome:         monthlyIncome,
		ProjectedSavings:      projectedSavings,
	}
}

// MonthlySummary aggregates a snapshot for exactly one calendar month.
// The day component of month is ignored. Income entries and expenses
// are filtered to the matching year/month; multiple income entries sum.
func (c *Calculator) MonthlySummary(
	month Date,
	incomeEntries []IncomeEntry,
	expenses []Expense,
	goal *SavingsGoal,
) BudgetSummary {
	totalIncome := decimal.Zero
	for _, e := range incomeEntries {
		if e.Month.SameMonth(month) {
			totalIncome = totalIncome.Add(e.Amount)
		}
	}

	totalExpenses := decimal.Zero
	byCategory := make(map[Category]decimal.Decimal)
	for _, e := range expenses {
		if !e.Date.SameMonth(month) {
			continue
		}
		totalExpenses = totalExpenses.Add(e.Amount)
		byCategory[e.Category] = byCategory[e.Category].Add(e.Amount)
	}

	savingsTarget := decimal.Zero
	if goal != nil {
		savingsTarget = goal.TargetAmount
	}

	// daysPassed is binary for non-current months: the full month when
	// it is strictly past, zero when it is in the future.
	today := c.today()
	daysInMonth := month.DaysInMonth()
	var daysPassed int
	switch {
	case month.SameMonth(today):
		daysPassed = today.Day()
	case month.MonthStart().Before(today.MonthStart()):
		daysPassed = daysInMonth
	default:
		daysPassed = 0
	}

	return BudgetSummary{
		Month:             month.MonthStart(),
		TotalIncome:       totalIncome,
		TotalExpenses:     totalExpenses,
		SavingsTarget:     savingsTarget,
		ActualSavings:     totalIncome.Sub(totalExpenses),
		ExpenseByCategory: byCategory,
		DaysInMonth:       daysInMonth,
		DaysPassed:        daysPassed,
	}
}

// CategorySpendingAnalysis produces per-category totals, counts,
// averages and percentage shares over an optionally date-filtered
// expense set. Zero start/end dates mean no bound. An empty filtered
// set yields an empty map, not an error.
func (c *Calculator) CategorySpendingAnalysis(
	expenses []Expense,
	start, end Date,
) map[Category]CategoryStats {
	var filtered []Expense
	for _, e := range expenses {
		if !start.IsZero() && e.Date.Before(start) {
			continue
		}
		if !end.IsZero() && e.Date.After(end) {
			continue
		}
		filtered = append(filtered, e)
	}
	if len(filtered) == 0 {
		return map[Category]CategoryStats{}
	}

	totalSpending := decimal.Zero
	totals := make(map[Category]decimal.Decimal)
	counts := make(map[Category]int)
	for _, e := range filtered {
		totalSpending = totalSpending.Add(e.Amount)
		totals[e.Category] = totals[e.Category].Add(e.Amount)
		counts[e.Category]++
	}

	analysis := make(map[Category]CategoryStats, len(totals))
	for cat, total := range totals {
		count := counts[cat]
		percentage := decimal.Zero
		if totalSpending.IsPositive() {
			percentage = total.Div(totalSpending).Mul(oneHundred)
		}
		analysis[cat] = CategoryStats{
			Total:      total,
			Count:      count,
			Average:    total.Div(decimal.NewFromInt(int64(count))),
			Percentage: percentage,
		}
	}
	return analysis
}

// PredictMonthlyOutcome projects month-end totals by extrapolating a
// daily spending rate across the remaining days of the current calendar
// month. This is a plain linear extrapolation, not goal-aware.
//
// When rate is nil it is derived as spent / daysPassed; on day "zero"
// of available history the rate is zero rather than dividing by zero.
func (c *Calculator) PredictMonthlyOutcome(
	monthlyIncome decimal.Decimal,
	currentExpenses []Expense,
	rate *decimal.Decimal,
) OutcomePrediction {
	today := c.today()
	daysPassed := today.Day()
	daysRemaining := today.DaysInMonth() - daysPassed

	currentTotal := decimal.Zero
	for _, e := range currentExpenses {
		if e.Date.SameMonth(today) {
			currentTotal = currentTotal.Add(e.Amount)
		}
	}

	var dailyRate decimal.Decimal
	switch {
	case rate != nil:
		dailyRate = *rate
	case daysPassed > 0:
		dailyRate = currentTotal.Div(decimal.NewFromInt(int64(daysPassed)))
	default:
		dailyRate = decimal.Zero
	}

	predictedRemaining := dailyRate.Mul(decimal.NewFromInt(int64(daysRemaining)))
	predictedTotal := currentTotal.Add(predictedRemaining)

	return OutcomePrediction{
		CurrentExpenses:        currentTotal,
		PredictedRemaining:     predictedRemaining,
		PredictedTotalExpenses: predictedTotal,
		PredictedSavings:       monthlyIncome.Sub(predictedTotal),
		DailySpendingRate:      dailyRate,
	}
}

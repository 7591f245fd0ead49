package http

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"budget/internal/core"
	"budget/internal/services"
	"budget/internal/storage/memory"
)

func newTestServer() *Server {
	store := memory.New()
	budgets := services.NewBudgetService(store, nil)
	expenses := services.NewExpenseService(store, nil)
	recommendations := services.NewRecommendationService(budgets, expenses)
	return NewServer(":0", budgets, expenses, recommendations)
}

func doRequest(t *testing.T, s *Server, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	rec := httptest.NewRecorder()
	s.Server.Handler.ServeHTTP(rec, req)
	return rec
}

func thisMonth() string {
	return core.DateOf(time.Now()).MonthStart().String()
}

func TestHealthEndpoints(t *testing.T) {
	s := newTestServer()
	defer s.rateLimiter.stop()

	for _, path := range []string{"/healthz", "/readyz"} {
		rec := doRequest(t, s, http.MethodGet, path, "")
		if rec.Code != http.StatusOK {
			t.Errorf("%s: got %d, want 200", path, rec.Code)
		}
	}
}

func TestCreateExpense(t *testing.T) {
	s := newTestServer()
	defer s.rateLimiter.stop()

	body := `{"user_id":1,"amount":"25.50","description":"groceries","category":"food","date":"2025-03-10"}`
	rec := doRequest(t, s, http.MethodPost, "/api/expenses", body)
	if rec.Code != http.StatusCreated {
		t.Fatalf("got %d, want 201: %s", rec.Code, rec.Body.String())
	}

	var got expenseJSON
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatal(err)
	}
	if got.ID == 0 {
		t.Error("expected assigned id")
	}
	if got.Amount.String() != "25.5" {
		t.Errorf("amount: got %s", got.Amount)
	}
	if got.Category != "food" || got.Date != "2025-03-10" {
		t.Errorf("got %s/%s", got.Category, got.Date)
	}
}

func TestCreateExpenseValidation(t *testing.T) {
	s := newTestServer()
	defer s.rateLimiter.stop()

	tests := []struct {
		name string
		body string
		want int
	}{
		{"malformed json", `{`, http.StatusBadRequest},
		{"missing user", `{"amount":"10","description":"x","category":"food"}`, http.StatusBadRequest},
		{"bad amount", `{"user_id":1,"amount":"abc","description":"x","category":"food"}`, http.StatusUnprocessableEntity},
		{"negative amount", `{"user_id":1,"amount":"-5","description":"x","category":"food"}`, http.StatusUnprocessableEntity},
		{"bad category", `{"user_id":1,"amount":"10","description":"x","category":"gambling"}`, http.StatusUnprocessableEntity},
		{"empty description", `{"user_id":1,"amount":"10","description":"  ","category":"food"}`, http.StatusUnprocessableEntity},
		{"bad date", `{"user_id":1,"amount":"10","description":"x","category":"food","date":"10/03/2025"}`, http.StatusUnprocessableEntity},
		{"unknown field", `{"user_id":1,"amount":"10","description":"x","category":"food","extra":true}`, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doRequest(t, s, http.MethodPost, "/api/expenses", tt.body)
			if rec.Code != tt.want {
				t.Errorf("got %d, want %d: %s", rec.Code, tt.want, rec.Body.String())
			}
		})
	}
}

func TestExpenseLifecycle(t *testing.T) {
	s := newTestServer()
	defer s.rateLimiter.stop()

	body := `{"user_id":1,"amount":"10.00","description":"bus ticket","category":"transportation","date":"2025-03-10"}`
	rec := doRequest(t, s, http.MethodPost, "/api/expenses", body)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create: got %d", rec.Code)
	}
	var created expenseJSON
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatal(err)
	}

	// Fetch it back.
	rec = doRequest(t, s, http.MethodGet, fmt.Sprintf("/api/expenses/%d?user_id=1", created.ID), "")
	if rec.Code != http.StatusOK {
		t.Fatalf("get: got %d", rec.Code)
	}

	// Another user cannot see it.
	rec = doRequest(t, s, http.MethodGet, fmt.Sprintf("/api/expenses/%d?user_id=2", created.ID), "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("cross-user get: got %d, want 404", rec.Code)
	}

	// Patch the amount.
	rec = doRequest(t, s, http.MethodPatch, fmt.Sprintf("/api/expenses/%d", created.ID),
		`{"user_id":1,"amount":"12.50"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("patch: got %d: %s", rec.Code, rec.Body.String())
	}
	var updated expenseJSON
	if err := json.Unmarshal(rec.Body.Bytes(), &updated); err != nil {
		t.Fatal(err)
	}
	if updated.Amount.String() != "12.5" {
		t.Errorf("patched amount: got %s", updated.Amount)
	}

	// Delete, then confirm gone.
	rec = doRequest(t, s, http.MethodDelete, fmt.Sprintf("/api/expenses/%d?user_id=1", created.ID), "")
	if rec.Code != http.StatusNoContent {
		t.Fatalf("delete: got %d", rec.Code)
	}
	rec = doRequest(t, s, http.MethodDelete, fmt.Sprintf("/api/expenses/%d?user_id=1", created.ID), "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("second delete: got %d, want 404", rec.Code)
	}
}

func TestListExpensesFilters(t *testing.T) {
	s := newTestServer()
	defer s.rateLimiter.stop()

	payloads := []string{
		`{"user_id":1,"amount":"10","description":"a","category":"food","date":"2025-03-01"}`,
		`{"user_id":1,"amount":"20","description":"b","category":"health","date":"2025-03-02"}`,
		`{"user_id":1,"amount":"30","description":"c","category":"food","date":"2025-04-01"}`,
	}
	for _, p := range payloads {
		if rec := doRequest(t, s, http.MethodPost, "/api/expenses", p); rec.Code != http.StatusCreated {
			t.Fatalf("seed: got %d", rec.Code)
		}
	}

	rec := doRequest(t, s, http.MethodGet, "/api/expenses?user_id=1&category=food&start=2025-03-01&end=2025-03-31", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("list: got %d", rec.Code)
	}
	var list []expenseJSON
	if err := json.Unmarshal(rec.Body.Bytes(), &list); err != nil {
		t.Fatal(err)
	}
	if len(list) != 1 || list[0].Description != "a" {
		t.Errorf("expected only the March food expense, got %+v", list)
	}

	rec = doRequest(t, s, http.MethodGet, "/api/expenses?user_id=1&category=bogus", "")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("bad category filter: got %d, want 400", rec.Code)
	}
}

func TestIncomeAndGoalEndpoints(t *testing.T) {
	s := newTestServer()
	defer s.rateLimiter.stop()

	month := thisMonth()

	rec := doRequest(t, s, http.MethodPost, "/api/income",
		fmt.Sprintf(`{"user_id":1,"amount":"5000","month":"%s","description":"salary"}`, month))
	if rec.Code != http.StatusOK {
		t.Fatalf("set income: got %d: %s", rec.Code, rec.Body.String())
	}
	var income incomeJSON
	if err := json.Unmarshal(rec.Body.Bytes(), &income); err != nil {
		t.Fatal(err)
	}

	// Same month again overwrites instead of duplicating.
	rec = doRequest(t, s, http.MethodPost, "/api/income",
		fmt.Sprintf(`{"user_id":1,"amount":"5500","month":"%s"}`, month))
	if rec.Code != http.StatusOK {
		t.Fatalf("overwrite income: got %d", rec.Code)
	}
	rec = doRequest(t, s, http.MethodGet, "/api/income?user_id=1", "")
	var entries []incomeJSON
	if err := json.Unmarshal(rec.Body.Bytes(), &entries); err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 || entries[0].Amount.String() != "5500" {
		t.Errorf("expected one entry of 5500, got %+v", entries)
	}

	// Missing month is rejected.
	rec = doRequest(t, s, http.MethodPost, "/api/income", `{"user_id":1,"amount":"5000"}`)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("missing month: got %d, want 422", rec.Code)
	}

	// Goal round trip.
	rec = doRequest(t, s, http.MethodPost, "/api/goals",
		fmt.Sprintf(`{"user_id":1,"target_amount":"1000","month":"%s"}`, month))
	if rec.Code != http.StatusOK {
		t.Fatalf("set goal: got %d: %s", rec.Code, rec.Body.String())
	}
	rec = doRequest(t, s, http.MethodGet, "/api/goals?user_id=1&month="+month, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("get goal: got %d", rec.Code)
	}
	rec = doRequest(t, s, http.MethodGet, "/api/goals?user_id=2&month="+month, "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("other user's goal: got %d, want 404", rec.Code)
	}

	// Delete the income entry.
	rec = doRequest(t, s, http.MethodDelete, fmt.Sprintf("/api/income/%d?user_id=1", income.ID), "")
	if rec.Code != http.StatusNoContent {
		t.Errorf("delete income: got %d", rec.Code)
	}
}

func TestInsightsRequireSetup(t *testing.T) {
	s := newTestServer()
	defer s.rateLimiter.stop()

	rec := doRequest(t, s, http.MethodGet, "/api/insights/recommendation?user_id=1", "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("recommendation without setup: got %d, want 404", rec.Code)
	}
	rec = doRequest(t, s, http.MethodGet, "/api/insights/prediction?user_id=1", "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("prediction without setup: got %d, want 404", rec.Code)
	}

	// The summary is always available, even with no data.
	rec = doRequest(t, s, http.MethodGet, "/api/insights/summary?user_id=1", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("summary: got %d", rec.Code)
	}
	var summary summaryJSON
	if err := json.Unmarshal(rec.Body.Bytes(), &summary); err != nil {
		t.Fatal(err)
	}
	if !summary.TotalIncome.IsZero() {
		t.Errorf("expected zero income, got %s", summary.TotalIncome)
	}

	// Alerts report the missing setup.
	rec = doRequest(t, s, http.MethodGet, "/api/insights/alerts?user_id=1", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("alerts: got %d", rec.Code)
	}
	var alerts []services.Alert
	if err := json.Unmarshal(rec.Body.Bytes(), &alerts); err != nil {
		t.Fatal(err)
	}
	if len(alerts) != 1 || alerts[0].Type != services.AlertTypeSetup {
		t.Errorf("expected one setup alert, got %+v", alerts)
	}
}

func TestInsightsWithSetup(t *testing.T) {
	s := newTestServer()
	defer s.rateLimiter.stop()

	month := thisMonth()
	seed := []struct{ path, body string }{
		{"/api/income", fmt.Sprintf(`{"user_id":1,"amount":"5000","month":"%s"}`, month)},
		{"/api/goals", fmt.Sprintf(`{"user_id":1,"target_amount":"1000","month":"%s"}`, month)},
		{"/api/expenses", fmt.Sprintf(`{"user_id":1,"amount":"75.50","description":"groceries","category":"food","date":"%s"}`, month)},
	}
	for _, sd := range seed {
		if rec := doRequest(t, s, http.MethodPost, sd.path, sd.body); rec.Code >= 400 {
			t.Fatalf("seed %s: got %d: %s", sd.path, rec.Code, rec.Body.String())
		}
	}

	rec := doRequest(t, s, http.MethodGet, "/api/insights/recommendation?user_id=1", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("recommendation: got %d: %s", rec.Code, rec.Body.String())
	}
	var recommendation recommendationJSON
	if err := json.Unmarshal(rec.Body.Bytes(), &recommendation); err != nil {
		t.Fatal(err)
	}
	if recommendation.CurrentMonthSpent.String() != "75.5" {
		t.Errorf("spent: got %s", recommendation.CurrentMonthSpent)
	}
	if recommendation.DaysRemaining < 1 {
		t.Errorf("days remaining: got %d", recommendation.DaysRemaining)
	}

	rec = doRequest(t, s, http.MethodGet, "/api/insights/progress?user_id=1", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("progress: got %d", rec.Code)
	}
	var progress progressJSON
	if err := json.Unmarshal(rec.Body.Bytes(), &progress); err != nil {
		t.Fatal(err)
	}
	if progress.TargetAmount.String() != "1000" {
		t.Errorf("target: got %s", progress.TargetAmount)
	}

	rec = doRequest(t, s, http.MethodGet, "/api/insights/analysis?user_id=1", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("analysis: got %d", rec.Code)
	}
	var analysis map[string]categoryStatsJSON
	if err := json.Unmarshal(rec.Body.Bytes(), &analysis); err != nil {
		t.Fatal(err)
	}
	if stats, ok := analysis["food"]; !ok || stats.Count != 1 {
		t.Errorf("expected one food expense in analysis, got %+v", analysis)
	}
}

func TestCategoriesEndpoint(t *testing.T) {
	s := newTestServer()
	defer s.rateLimiter.stop()

	rec := doRequest(t, s, http.MethodGet, "/api/categories", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("got %d", rec.Code)
	}
	var categories []string
	if err := json.Unmarshal(rec.Body.Bytes(), &categories); err != nil {
		t.Fatal(err)
	}
	if len(categories) != 8 || categories[0] != "food" {
		t.Errorf("unexpected categories: %v", categories)
	}
}

func TestRateLimiter(t *testing.T) {
	rl := newRateLimiter()
	defer rl.stop()

	for i := 0; i < 60; i++ {
		if !rl.allow("10.0.0.1") {
			t.Fatalf("request %d should be allowed", i+1)
		}
	}
	if rl.allow("10.0.0.1") {
		t.Error("request 61 should be rejected")
	}
	// Other clients are unaffected.
	if !rl.allow("10.0.0.2") {
		t.Error("different client should be allowed")
	}
}

func TestSecurityHeaders(t *testing.T) {
	s := newTestServer()
	defer s.rateLimiter.stop()

	rec := doRequest(t, s, http.MethodGet, "/api/categories", "")
	if got := rec.Header().Get("X-Content-Type-Options"); got != "nosniff" {
		t.Errorf("X-Content-Type-Options: got %q", got)
	}
	if got := rec.Header().Get("X-Frame-Options"); got != "DENY" {
		t.Errorf("X-Frame-Options: got %q", got)
	}
}

func TestSummaryCache(t *testing.T) {
	s := newTestServer()
	defer s.rateLimiter.stop()

	rec := doRequest(t, s, http.MethodGet, "/api/insights/summary?user_id=1", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("summary: got %d", rec.Code)
	}
	if s.summaryCache.Size() != 1 {
		t.Fatalf("cache size after read: got %d, want 1", s.summaryCache.Size())
	}

	// A write for the same user drops the cached summary.
	body := fmt.Sprintf(`{"user_id":1,"amount":"10.00","description":"coffee","category":"food","date":"%s"}`, thisMonth())
	if rec := doRequest(t, s, http.MethodPost, "/api/expenses", body); rec.Code != http.StatusCreated {
		t.Fatalf("create expense: got %d", rec.Code)
	}
	if s.summaryCache.Size() != 0 {
		t.Fatalf("cache size after write: got %d, want 0", s.summaryCache.Size())
	}

	rec = doRequest(t, s, http.MethodGet, "/api/insights/summary?user_id=1", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("summary after write: got %d", rec.Code)
	}
	var summary summaryJSON
	if err := json.Unmarshal(rec.Body.Bytes(), &summary); err != nil {
		t.Fatal(err)
	}
	if summary.TotalExpenses.String() != "10" {
		t.Errorf("total expenses after write: got %s, want 10", summary.TotalExpenses.String())
	}
}

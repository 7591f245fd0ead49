package http

import (
	"net/http"
	"strings"

	"budget/internal/core"
)

type createExpenseRequest struct {
	UserID      int64  `json:"user_id"`
	Amount      string `json:"amount"`
	Description string `json:"description"`
	Category    string `json:"category"`
	Date        string `json:"date"`
}

func (s *Server) handleCreateExpense(w http.ResponseWriter, r *http.Request) {
	var req createExpenseRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.UserID <= 0 {
		writeError(w, http.StatusBadRequest, errMissingUser.Error())
		return
	}

	amount, err := core.ParseAmount(req.Amount)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, "invalid amount")
		return
	}
	category, err := core.ParseCategory(req.Category)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, "invalid category")
		return
	}
	date, err := parseBodyDate("date", req.Date)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	expense, err := s.expenses.AddExpense(r.Context(), req.UserID, amount, req.Description, category, date)
	if err != nil {
		s.writeServiceError(w, r, "create expense", err)
		return
	}
	s.invalidateUser(req.UserID)
	writeJSON(w, http.StatusCreated, toExpenseJSON(expense))
}

func (s *Server) handleListExpenses(w http.ResponseWriter, r *http.Request) {
	userID, err := queryUserID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var f core.ExpenseFilter
	if f.Start, err = queryDate(r, "start"); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if f.End, err = queryDate(r, "end"); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if f.Limit, err = queryInt(r, "limit"); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if v := strings.TrimSpace(r.URL.Query().Get("category")); v != "" {
		category, err := core.ParseCategory(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid category")
			return
		}
		f.Category = category
	}

	expenses, err := s.expenses.Expenses(r.Context(), userID, f)
	if err != nil {
		s.writeServiceError(w, r, "list expenses", err)
		return
	}
	writeJSON(w, http.StatusOK, toExpenseListJSON(expenses))
}

func (s *Server) handleGetExpense(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	userID, err := queryUserID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	expense, err := s.expenses.ExpenseByID(r.Context(), userID, id)
	if err != nil {
		s.writeServiceError(w, r, "get expense", err)
		return
	}
	if expense == nil {
		writeError(w, http.StatusNotFound, "expense not found")
		return
	}
	writeJSON(w, http.StatusOK, toExpenseJSON(*expense))
}

type updateExpenseRequest struct {
	UserID      int64   `json:"user_id"`
	Amount      *string `json:"amount"`
	Description *string `json:"description"`
	Category    *string `json:"category"`
	Date        *string `json:"date"`
}

func (s *Server) handleUpdateExpense(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	var req updateExpenseRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.UserID <= 0 {
		writeError(w, http.StatusBadRequest, errMissingUser.Error())
		return
	}

	var patch core.ExpensePatch
	if req.Amount != nil {
		amount, err := core.ParseAmount(*req.Amount)
		if err != nil {
			writeError(w, http.StatusUnprocessableEntity, "invalid amount")
			return
		}
		patch.Amount = &amount
	}
	patch.Description = req.Description
	if req.Category != nil {
		category, err := core.ParseCategory(*req.Category)
		if err != nil {
			writeError(w, http.StatusUnprocessableEntity, "invalid category")
			return
		}
		patch.Category = &category
	}
	if req.Date != nil {
		date, err := parseBodyDate("date", *req.Date)
		if err != nil || date.IsZero() {
			writeError(w, http.StatusUnprocessableEntity, "invalid date")
			return
		}
		patch.Date = &date
	}

	expense, err := s.expenses.UpdateExpense(r.Context(), req.UserID, id, patch)
	if err != nil {
		s.writeServiceError(w, r, "update expense", err)
		return
	}
	if expense == nil {
		writeError(w, http.StatusNotFound, "expense not found")
		return
	}
	s.invalidateUser(req.UserID)
	writeJSON(w, http.StatusOK, toExpenseJSON(*expense))
}

func (s *Server) handleDeleteExpense(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	userID, err := queryUserID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	deleted, err := s.expenses.DeleteExpense(r.Context(), userID, id)
	if err != nil {
		s.writeServiceError(w, r, "delete expense", err)
		return
	}
	if !deleted {
		writeError(w, http.StatusNotFound, "expense not found")
		return
	}
	s.invalidateUser(userID)
	writeJSON(w, http.StatusNoContent, nil)
}

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	categories := core.Categories()
	out := make([]string, len(categories))
	for i, c := range categories {
		out[i] = c.String()
	}
	writeJSON(w, http.StatusOK, out)
}

package http

import (
	"errors"
	"log/slog"
	"net/http"

	"budget/internal/core"
	"budget/internal/log"
)

type setIncomeRequest struct {
	UserID      int64  `json:"user_id"`
	Amount      string `json:"amount"`
	Month       string `json:"month"`
	Description string `json:"description"`
}

func (s *Server) handleSetIncome(w http.ResponseWriter, r *http.Request) {
	var req setIncomeRequest
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
	month, err := parseBodyDate("month", req.Month)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	if month.IsZero() {
		writeError(w, http.StatusUnprocessableEntity, "month is required")
		return
	}

	entry, err := s.budgets.SetIncome(r.Context(), req.UserID, amount, month, req.Description)
	if err != nil {
		s.writeServiceError(w, r, "set income", err)
		return
	}
	s.invalidateUser(req.UserID)
	writeJSON(w, http.StatusOK, toIncomeJSON(entry))
}

func (s *Server) handleListIncome(w http.ResponseWriter, r *http.Request) {
	userID, err := queryUserID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	start, err := queryDate(r, "start_month")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	end, err := queryDate(r, "end_month")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	entries, err := s.budgets.IncomeEntries(r.Context(), userID, start, end)
	if err != nil {
		s.writeServiceError(w, r, "list income", err)
		return
	}

	out := make([]incomeJSON, len(entries))
	for i, e := range entries {
		out[i] = toIncomeJSON(e)
	}
	writeJSON(w, http.StatusOK, out)
}

type updateIncomeRequest struct {
	UserID      int64   `json:"user_id"`
	Amount      *string `json:"amount"`
	Description *string `json:"description"`
}

func (s *Server) handleUpdateIncome(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	var req updateIncomeRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.UserID <= 0 {
		writeError(w, http.StatusBadRequest, errMissingUser.Error())
		return
	}

	var patch core.IncomePatch
	if req.Amount != nil {
		amount, err := core.ParseAmount(*req.Amount)
		if err != nil {
			writeError(w, http.StatusUnprocessableEntity, "invalid amount")
			return
		}
		patch.Amount = &amount
	}
	patch.Description = req.Description

	entry, err := s.budgets.UpdateIncome(r.Context(), req.UserID, id, patch)
	if err != nil {
		s.writeServiceError(w, r, "update income", err)
		return
	}
	if entry == nil {
		writeError(w, http.StatusNotFound, "income entry not found")
		return
	}
	s.invalidateUser(req.UserID)
	writeJSON(w, http.StatusOK, toIncomeJSON(*entry))
}

func (s *Server) handleDeleteIncome(w http.ResponseWriter, r *http.Request) {
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

	deleted, err := s.budgets.DeleteIncome(r.Context(), userID, id)
	if err != nil {
		s.writeServiceError(w, r, "delete income", err)
		return
	}
	if !deleted {
		writeError(w, http.StatusNotFound, "income entry not found")
		return
	}
	s.invalidateUser(userID)
	writeJSON(w, http.StatusNoContent, nil)
}

type setGoalRequest struct {
	UserID       int64  `json:"user_id"`
	TargetAmount string `json:"target_amount"`
	Month        string `json:"month"`
	Description  string `json:"description"`
}

func (s *Server) handleSetGoal(w http.ResponseWriter, r *http.Request) {
	var req setGoalRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.UserID <= 0 {
		writeError(w, http.StatusBadRequest, errMissingUser.Error())
		return
	}

	target, err := core.ParseAmount(req.TargetAmount)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, "invalid target_amount")
		return
	}
	month, err := parseBodyDate("month", req.Month)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	if month.IsZero() {
		writeError(w, http.StatusUnprocessableEntity, "month is required")
		return
	}

	goal, err := s.budgets.SetSavingsGoal(r.Context(), req.UserID, target, month, req.Description)
	if err != nil {
		s.writeServiceError(w, r, "set goal", err)
		return
	}
	s.invalidateUser(req.UserID)
	writeJSON(w, http.StatusOK, toGoalJSON(goal))
}

// handleListGoals returns either the goal for one month (404 when
// absent) or every goal the user has recorded.
func (s *Server) handleListGoals(w http.ResponseWriter, r *http.Request) {
	userID, err := queryUserID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	month, err := queryDate(r, "month")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if !month.IsZero() {
		goal, err := s.budgets.SavingsGoal(r.Context(), userID, month)
		if err != nil {
			s.writeServiceError(w, r, "get goal", err)
			return
		}
		if goal == nil {
			writeError(w, http.StatusNotFound, "no savings goal for month")
			return
		}
		writeJSON(w, http.StatusOK, toGoalJSON(*goal))
		return
	}

	goals, err := s.budgets.AllSavingsGoals(r.Context(), userID)
	if err != nil {
		s.writeServiceError(w, r, "list goals", err)
		return
	}
	out := make([]goalJSON, len(goals))
	for i, g := range goals {
		out[i] = toGoalJSON(g)
	}
	writeJSON(w, http.StatusOK, out)
}

// writeServiceError maps service errors onto HTTP statuses. Validation
// sentinels become 422, everything else is a 500.
func (s *Server) writeServiceError(w http.ResponseWriter, r *http.Request, op string, err error) {
	if errors.Is(err, core.ErrInvalidAmount) ||
		errors.Is(err, core.ErrEmptyDescription) ||
		errors.Is(err, core.ErrInvalidCategory) ||
		errors.Is(err, core.ErrInvalidDate) {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	slog.ErrorContext(r.Context(), "Request failed",
		log.FieldOperation, op,
		log.FieldError, err.Error(),
		log.FieldComponent, log.ComponentHTTP)
	writeError(w, http.StatusInternalServerError, "internal error")
}

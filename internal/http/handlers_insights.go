package http

import (
	"net/http"
)

// handleRecommendation returns the daily spending recommendation. A 404
// means the user has not set up income and a savings goal yet.
func (s *Server) handleRecommendation(w http.ResponseWriter, r *http.Request) {
	userID, err := queryUserID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	targetDate, err := queryDate(r, "target_date")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	month, err := queryDate(r, "month")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	rec, err := s.recommendations.DailyRecommendation(r.Context(), userID, targetDate, month)
	if err != nil {
		s.writeServiceError(w, r, "recommendation", err)
		return
	}
	if rec == nil {
		writeError(w, http.StatusNotFound, "set up monthly income and a savings goal first")
		return
	}
	writeJSON(w, http.StatusOK, toRecommendationJSON(*rec))
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
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

	// A zero month resolves to today inside the service; the short TTL
	// covers the day rollover.
	key := summaryCacheKey(userID, month.MonthStart().String())
	if cached, ok := s.summaryCache.Get(key); ok {
		writeJSON(w, http.StatusOK, cached)
		return
	}

	summary, err := s.recommendations.MonthlySummary(r.Context(), userID, month)
	if err != nil {
		s.writeServiceError(w, r, "summary", err)
		return
	}
	out := toSummaryJSON(*summary)
	s.summaryCache.Set(key, out)
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleAnalysis(w http.ResponseWriter, r *http.Request) {
	userID, err := queryUserID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	start, err := queryDate(r, "start")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	end, err := queryDate(r, "end")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	analysis, err := s.recommendations.AnalyzeSpendingPatterns(r.Context(), userID, start, end)
	if err != nil {
		s.writeServiceError(w, r, "analysis", err)
		return
	}
	writeJSON(w, http.StatusOK, toAnalysisJSON(analysis))
}

func (s *Server) handlePrediction(w http.ResponseWriter, r *http.Request) {
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

	pred, err := s.recommendations.PredictMonthlyOutcome(r.Context(), userID, month)
	if err != nil {
		s.writeServiceError(w, r, "prediction", err)
		return
	}
	if pred == nil {
		writeError(w, http.StatusNotFound, "set up monthly income first")
		return
	}
	writeJSON(w, http.StatusOK, toPredictionJSON(*pred))
}

func (s *Server) handleAlerts(w http.ResponseWriter, r *http.Request) {
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

	alerts, err := s.recommendations.SmartAlerts(r.Context(), userID, month)
	if err != nil {
		s.writeServiceError(w, r, "alerts", err)
		return
	}
	writeJSON(w, http.StatusOK, toAlertsJSON(alerts))
}

func (s *Server) handleProgress(w http.ResponseWriter, r *http.Request) {
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

	progress, err := s.recommendations.SavingsProgress(r.Context(), userID, month)
	if err != nil {
		s.writeServiceError(w, r, "progress", err)
		return
	}
	writeJSON(w, http.StatusOK, toProgressJSON(*progress))
}

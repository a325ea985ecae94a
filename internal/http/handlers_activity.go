package http

import (
	"net/http"
	"strings"

	"fincontrol/internal/core"
)

func (s *Server) handleCreateActivity(w http.ResponseWriter, r *http.Request) {
	var req activityRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	input, err := req.toInput()
	if err != nil {
		writeError(w, r, err)
		return
	}

	activity, err := s.activities.CreateActivity(r.Context(), userIDFrom(r), input)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, toActivityResponse(activity))
}

func (s *Server) handleGetActivity(w http.ResponseWriter, r *http.Request) {
	activity, err := s.activities.GetActivity(r.Context(), userIDFrom(r), r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, toActivityResponse(activity))
}

func (s *Server) handleUpdateActivity(w http.ResponseWriter, r *http.Request) {
	var req activityRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	input, err := req.toInput()
	if err != nil {
		writeError(w, r, err)
		return
	}

	activity, err := s.activities.UpdateActivity(r.Context(), userIDFrom(r), r.PathValue("id"), input)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, toActivityResponse(activity))
}

func (s *Server) handleDeleteActivity(w http.ResponseWriter, r *http.Request) {
	if err := s.activities.DeleteActivity(r.Context(), userIDFrom(r), r.PathValue("id")); err != nil {
		writeError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// handleListActivities lists the user's activities, optionally narrowed with
// ?category= and ?kind=.
func (s *Server) handleListActivities(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	var category *core.Category
	if raw := strings.ToUpper(strings.TrimSpace(q.Get("category"))); raw != "" {
		c := core.Category(raw)
		category = &c
	}

	var kindFilter *core.Kind
	if kind, ok, err := parseKindParam(q.Get("kind")); err != nil {
		writeError(w, r, err)
		return
	} else if ok {
		kindFilter = &kind
	}

	activities, err := s.activities.ListActivities(r.Context(), userIDFrom(r), category, kindFilter)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, toActivityResponses(activities))
}

func (s *Server) handleBalance(w http.ResponseWriter, r *http.Request) {
	balance, err := s.activities.Balance(r.Context(), userIDFrom(r))
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, balanceResponse{Balance: balance})
}

func (s *Server) handleBalanceByCategory(w http.ResponseWriter, r *http.Request) {
	balances, err := s.activities.BalanceByCategory(r.Context(), userIDFrom(r))
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, toCategoryBalanceResponses(balances))
}

package http

import (
	"net/http"
	"strings"

	"fincontrol/internal/core"
)

// handleDashboard builds the aggregated report for the resolved period.
func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	filter, err := parseFilter(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	report, err := s.dashboard.GetReport(r.Context(), userIDFrom(r), filter)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, toReportResponse(report))
}

// handleCategorySummary deep-dives one category over the resolved period.
func (s *Server) handleCategorySummary(w http.ResponseWriter, r *http.Request) {
	category := core.Category(strings.ToUpper(strings.TrimSpace(r.PathValue("category"))))
	if !s.catalog.Contains(category) {
		writeErrorMessage(w, http.StatusNotFound, "unknown category "+string(category))
		return
	}

	filter, err := parseFilter(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	summary, err := s.dashboard.GetCategorySummary(r.Context(), userIDFrom(r), category, filter)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, toCategorySummaryResponse(summary))
}

package http

import (
	"fmt"
	"net/http"
	"time"
)

// handleExportCSV streams the filtered activities as a CSV download.
func (s *Server) handleExportCSV(w http.ResponseWriter, r *http.Request) {
	filter, err := parseFilter(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	data, err := s.export.ExportCSV(r.Context(), userIDFrom(r), filter)
	if err != nil {
		writeError(w, r, err)
		return
	}

	filename := fmt.Sprintf("activities_%s.csv", time.Now().Format("20060102"))
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(data); err != nil {
		// Client likely disconnected mid-download
		return
	}
}

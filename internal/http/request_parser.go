package http

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"fincontrol/internal/core"
	"fincontrol/internal/services"
)

// dateLayout is the wire format for dates in JSON bodies and query strings.
const dateLayout = "2006-01-02"

// maxBodyBytes caps JSON request bodies at 1 MiB.
const maxBodyBytes = 1 << 20

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// activityRequest is the mutable part of an activity as sent by clients.
// Value accepts both a JSON number and a quoted decimal string.
type activityRequest struct {
	Date        string          `json:"date"`
	Description string          `json:"description"`
	Value       decimal.Decimal `json:"value"`
	Kind        string          `json:"kind"`
	Category    string          `json:"category"`
}

// decodeJSON reads a size-capped JSON body into dst.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(dst); err != nil {
		return badRequestf("invalid JSON body: %v", err)
	}
	return nil
}

// toInput converts the wire representation into a service input.
func (req activityRequest) toInput() (services.ActivityInput, error) {
	date, err := parseDate(req.Date)
	if err != nil {
		return services.ActivityInput{}, badRequestf("invalid date %q, expected %s", req.Date, dateLayout)
	}
	return services.ActivityInput{
		Date:        date,
		Description: req.Description,
		Value:       req.Value,
		Kind:        core.Kind(strings.ToUpper(strings.TrimSpace(req.Kind))),
		Category:    core.Category(strings.ToUpper(strings.TrimSpace(req.Category))),
	}, nil
}

// parseDate parses a date string in YYYY-MM-DD format.
func parseDate(dateStr string) (time.Time, error) {
	return time.Parse(dateLayout, strings.TrimSpace(dateStr))
}

// parseFilter reads the report filter from query parameters: period,
// start_date, end_date, categories (comma separated codes) and kind.
func parseFilter(r *http.Request) (core.Filter, error) {
	q := r.URL.Query()
	filter := core.Filter{
		Period: strings.ToUpper(strings.TrimSpace(q.Get("period"))),
	}

	startStr := strings.TrimSpace(q.Get("start_date"))
	endStr := strings.TrimSpace(q.Get("end_date"))
	if (startStr == "") != (endStr == "") {
		return core.Filter{}, badRequestf("start_date and end_date must be provided together")
	}
	if startStr != "" {
		start, err := parseDate(startStr)
		if err != nil {
			return core.Filter{}, badRequestf("invalid start_date %q, expected %s", startStr, dateLayout)
		}
		end, err := parseDate(endStr)
		if err != nil {
			return core.Filter{}, badRequestf("invalid end_date %q, expected %s", endStr, dateLayout)
		}
		if end.Before(start) {
			return core.Filter{}, badRequestf("end_date precedes start_date")
		}
		filter.StartDate = &start
		filter.EndDate = &end
	}

	if raw := strings.TrimSpace(q.Get("categories")); raw != "" {
		for _, part := range strings.Split(raw, ",") {
			code := strings.ToUpper(strings.TrimSpace(part))
			if code != "" {
				filter.Categories = append(filter.Categories, core.Category(code))
			}
		}
	}

	if kind, ok, err := parseKindParam(q.Get("kind")); err != nil {
		return core.Filter{}, err
	} else if ok {
		filter.Kind = &kind
	}

	return filter, nil
}

// parseKindParam parses an optional kind query parameter.
func parseKindParam(raw string) (core.Kind, bool, error) {
	raw = strings.ToUpper(strings.TrimSpace(raw))
	if raw == "" {
		return "", false, nil
	}
	kind := core.Kind(raw)
	if !kind.Valid() {
		return "", false, badRequestf("unknown kind %q, expected %s or %s", raw, core.KindRevenue, core.KindExpense)
	}
	return kind, true, nil
}

// badRequestError marks client errors detected before the service layer.
type badRequestError struct {
	message string
}

func (e *badRequestError) Error() string {
	return e.message
}

func badRequestf(format string, args ...any) error {
	return &badRequestError{message: fmt.Sprintf(format, args...)}
}

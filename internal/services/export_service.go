package services

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"log/slog"

	"fincontrol/internal/core"
	"fincontrol/internal/storage"
)

// ExportService renders a user's activities as a CSV document.
type ExportService struct {
	users   UserRepository
	storage ActivityRepository
}

func NewExportService(users UserRepository, storage ActivityRepository) *ExportService {
	return &ExportService{users: users, storage: storage}
}

// Column layout of the exported document. Semicolons keep the file friendly
// to spreadsheet tools configured for pt-BR locales.
var csvHeader = []string{"Descrição", "Tipo", "Quantia", "Data e Hora"}

// ExportCSV writes the activities selected by the filter, newest first.
func (s *ExportService) ExportCSV(ctx context.Context, userID string, filter core.Filter) ([]byte, error) {
	if _, err := s.users.GetUserByID(ctx, userID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, &NotFoundError{Resource: "user", ID: userID}
		}
		return nil, fmt.Errorf("get user: %w", err)
	}

	period := core.ResolvePeriod(filter)

	activities, err := s.storage.ListActivitiesByDateRange(ctx, userID, period.Start, period.End)
	if err != nil {
		return nil, fmt.Errorf("list activities: %w", err)
	}
	activities = core.FilterByCategories(activities, filter.Categories)
	if filter.Kind != nil {
		activities = core.FilterByKind(activities, *filter.Kind)
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	w.Comma = ';'

	if err := w.Write(csvHeader); err != nil {
		return nil, fmt.Errorf("write header: %w", err)
	}
	for _, a := range activities {
		record := []string{
			a.Description,
			string(a.Kind),
			a.Value.StringFixed(2),
			a.Date.Format("02/01/2006"),
		}
		if err := w.Write(record); err != nil {
			return nil, fmt.Errorf("write record: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("flush csv: %w", err)
	}

	slog.InfoContext(ctx, "Exported activities to CSV",
		"user_id", userID,
		"count", len(activities))

	return buf.Bytes(), nil
}

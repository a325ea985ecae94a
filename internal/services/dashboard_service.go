package services

import (
	"context"
	"errors"
	"fmt"

	"fincontrol/internal/core"
	"fincontrol/internal/storage"
)

// DashboardService builds financial reports and category summaries.
type DashboardService struct {
	catalog core.Catalog
	users   UserRepository
	storage ActivityRepository
}

func NewDashboardService(catalog core.Catalog, users UserRepository, storage ActivityRepository) *DashboardService {
	return &DashboardService{
		catalog: catalog,
		users:   users,
		storage: storage,
	}
}

// GetReport resolves the filter's period and aggregates the user's
// activities into a report.
func (s *DashboardService) GetReport(ctx context.Context, userID string, filter core.Filter) (*core.Report, error) {
	if err := s.requireUser(ctx, userID); err != nil {
		return nil, err
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

	return core.BuildReport(s.catalog, activities, period)
}

// GetCategorySummary summarizes one category over the filter's period.
func (s *DashboardService) GetCategorySummary(ctx context.Context, userID string, category core.Category, filter core.Filter) (core.CategorySummary, error) {
	if err := s.requireUser(ctx, userID); err != nil {
		return core.CategorySummary{}, err
	}

	period := core.ResolvePeriod(filter)

	activities, err := s.storage.ListActivitiesByCategoryAndDateRange(ctx, userID, category, period.Start, period.End)
	if err != nil {
		return core.CategorySummary{}, fmt.Errorf("list activities: %w", err)
	}

	return core.BuildCategorySummary(s.catalog, activities, category), nil
}

func (s *DashboardService) requireUser(ctx context.Context, userID string) error {
	if _, err := s.users.GetUserByID(ctx, userID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return &NotFoundError{Resource: "user", ID: userID}
		}
		return fmt.Errorf("get user: %w", err)
	}
	return nil
}

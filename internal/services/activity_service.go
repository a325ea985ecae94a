package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"fincontrol/internal/amqp"
	"fincontrol/internal/core"
	"fincontrol/internal/storage"
)

// ActivityService orchestrates activity operations across SQLite and AMQP.
type ActivityService struct {
	catalog    core.Catalog
	storage    ActivityRepository
	amqpClient MirrorPublisher
	now        func() time.Time
}

func NewActivityService(catalog core.Catalog, storage ActivityRepository, amqpClient MirrorPublisher) *ActivityService {
	return &ActivityService{
		catalog:    catalog,
		storage:    storage,
		amqpClient: amqpClient,
		now:        time.Now,
	}
}

// ActivityInput carries the user-supplied fields of an activity.
type ActivityInput struct {
	Date        time.Time
	Description string
	Value       decimal.Decimal
	Kind        core.Kind
	Category    core.Category
}

// CreateActivity validates, saves and queues the activity for mirroring.
func (s *ActivityService) CreateActivity(ctx context.Context, userID string, in ActivityInput) (core.Activity, error) {
	a, err := core.NewActivity(s.catalog, s.now(), in.Date, in.Description, in.Value, in.Kind, in.Category, userID)
	if err != nil {
		return core.Activity{}, err
	}

	if err := s.storage.CreateActivity(ctx, a); err != nil {
		return core.Activity{}, fmt.Errorf("save activity: %w", err)
	}

	s.publishMirror(ctx, a.ID, amqp.OpUpsert)
	return a, nil
}

// GetActivity returns the activity when it exists and belongs to the user.
func (s *ActivityService) GetActivity(ctx context.Context, userID, id string) (core.Activity, error) {
	a, err := s.storage.GetActivity(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return core.Activity{}, &NotFoundError{Resource: "activity", ID: id}
		}
		return core.Activity{}, fmt.Errorf("get activity: %w", err)
	}
	// Foreign activities look like missing ones to the caller
	if a.OwnerID != userID {
		return core.Activity{}, &NotFoundError{Resource: "activity", ID: id}
	}
	return a, nil
}

// UpdateActivity replaces the mutable fields after full re-validation.
func (s *ActivityService) UpdateActivity(ctx context.Context, userID, id string, in ActivityInput) (core.Activity, error) {
	existing, err := s.GetActivity(ctx, userID, id)
	if err != nil {
		return core.Activity{}, err
	}

	updated, err := existing.Replace(s.catalog, s.now(), in.Date, in.Description, in.Value, in.Kind, in.Category)
	if err != nil {
		return core.Activity{}, err
	}

	if err := s.storage.UpdateActivity(ctx, updated); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return core.Activity{}, &NotFoundError{Resource: "activity", ID: id}
		}
		return core.Activity{}, fmt.Errorf("update activity: %w", err)
	}

	s.publishMirror(ctx, updated.ID, amqp.OpUpsert)
	return updated, nil
}

// DeleteActivity removes the activity and queues the mirror delete.
func (s *ActivityService) DeleteActivity(ctx context.Context, userID, id string) error {
	if _, err := s.GetActivity(ctx, userID, id); err != nil {
		return err
	}

	if err := s.storage.DeleteActivity(ctx, id); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return &NotFoundError{Resource: "activity", ID: id}
		}
		return fmt.Errorf("delete activity: %w", err)
	}

	s.publishMirror(ctx, id, amqp.OpDelete)
	return nil
}

// ListActivities returns the user's activities, optionally narrowed by
// category and kind.
func (s *ActivityService) ListActivities(ctx context.Context, userID string, category *core.Category, kind *core.Kind) ([]core.Activity, error) {
	switch {
	case category != nil && kind != nil:
		return s.storage.ListActivitiesByCategoryAndKind(ctx, userID, *category, *kind)
	case category != nil:
		return s.storage.ListActivitiesByCategory(ctx, userID, *category)
	case kind != nil:
		return s.storage.ListActivitiesByKind(ctx, userID, *kind)
	default:
		return s.storage.ListActivities(ctx, userID)
	}
}

// Balance returns the user's all-time balance.
func (s *ActivityService) Balance(ctx context.Context, userID string) (decimal.Decimal, error) {
	activities, err := s.storage.ListActivities(ctx, userID)
	if err != nil {
		return decimal.Zero, fmt.Errorf("list activities: %w", err)
	}
	return core.Balance(activities), nil
}

// BalanceByCategory returns per-category balances over all of the user's
// activities.
func (s *ActivityService) BalanceByCategory(ctx context.Context, userID string) ([]core.CategoryBalance, error) {
	activities, err := s.storage.ListActivities(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list activities: %w", err)
	}
	return core.BalanceByCategory(activities), nil
}

func (s *ActivityService) publishMirror(ctx context.Context, activityID, op string) {
	if s.amqpClient == nil {
		slog.WarnContext(ctx, "AMQP client not available, skipping mirror message")
		return
	}
	if err := s.amqpClient.PublishActivityMirror(ctx, activityID, op); err != nil {
		// The activity is saved locally; the periodic reconcile catches up
		slog.ErrorContext(ctx, "Failed to publish mirror message",
			"activity_id", activityID, "op", op, "error", err)
	}
}

// Package services orchestrates domain operations across storage, AMQP and
// the report engine.
package services

import (
	"context"
	"fmt"
	"time"

	"fincontrol/internal/core"
	"fincontrol/internal/storage"
)

// NotFoundError reports a missing resource by name and identifier.
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Resource, e.ID)
}

// UserRepository is the subset of storage used for accounts.
type UserRepository interface {
	CreateUser(ctx context.Context, u storage.User) error
	GetUserByEmail(ctx context.Context, email string) (storage.User, error)
	GetUserByID(ctx context.Context, id string) (storage.User, error)
}

// ActivityRepository is the subset of storage used for activities.
type ActivityRepository interface {
	CreateActivity(ctx context.Context, a core.Activity) error
	GetActivity(ctx context.Context, id string) (core.Activity, error)
	UpdateActivity(ctx context.Context, a core.Activity) error
	DeleteActivity(ctx context.Context, id string) error

	ListActivities(ctx context.Context, userID string) ([]core.Activity, error)
	ListActivitiesByKind(ctx context.Context, userID string, kind core.Kind) ([]core.Activity, error)
	ListActivitiesByCategory(ctx context.Context, userID string, category core.Category) ([]core.Activity, error)
	ListActivitiesByCategoryAndKind(ctx context.Context, userID string, category core.Category, kind core.Kind) ([]core.Activity, error)
	ListActivitiesByDateRange(ctx context.Context, userID string, start, end time.Time) ([]core.Activity, error)
	ListActivitiesByCategoryAndDateRange(ctx context.Context, userID string, category core.Category, start, end time.Time) ([]core.Activity, error)
}

// MirrorPublisher queues spreadsheet mirror operations.
type MirrorPublisher interface {
	PublishActivityMirror(ctx context.Context, activityID, op string) error
}

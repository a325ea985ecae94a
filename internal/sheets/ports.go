package sheets

import (
	"context"

	"fincontrol/internal/core"
)

// Ports for outbound adapters.
type (
	// ActivityMirror keeps an external spreadsheet in step with stored
	// activities. Upserts are keyed by activity ID.
	ActivityMirror interface {
		UpsertActivity(ctx context.Context, a core.Activity) (rowRef string, err error)
		DeleteActivity(ctx context.Context, activityID string) error
	}
)

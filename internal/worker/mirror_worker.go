// Package worker mirrors stored activities to the spreadsheet in the
// background.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"fincontrol/internal/amqp"
	"fincontrol/internal/core"
	"fincontrol/internal/sheets"
	"fincontrol/internal/storage"
)

// MirrorStore is the subset of storage the worker needs.
type MirrorStore interface {
	GetActivity(ctx context.Context, id string) (core.Activity, error)
	GetPendingMirrorActivities(ctx context.Context, limit int) ([]core.Activity, error)
	MarkMirrored(ctx context.Context, id string) error
	MarkMirrorError(ctx context.Context, id string) error
}

// MirrorWorker applies mirror messages and reconciles missed rows.
type MirrorWorker struct {
	storage   MirrorStore
	mirror    sheets.ActivityMirror
	batchSize int
}

func NewMirrorWorker(storage MirrorStore, mirror sheets.ActivityMirror, batchSize int) *MirrorWorker {
	return &MirrorWorker{
		storage:   storage,
		mirror:    mirror,
		batchSize: batchSize,
	}
}

// HandleMirrorMessage processes a single mirror message from AMQP.
func (w *MirrorWorker) HandleMirrorMessage(ctx context.Context, msg *amqp.ActivityMirrorMessage) error {
	slog.InfoContext(ctx, "Processing mirror message",
		"activity_id", msg.ActivityID,
		"op", msg.Op)

	switch msg.Op {
	case amqp.OpDelete:
		if err := w.mirror.DeleteActivity(ctx, msg.ActivityID); err != nil {
			return fmt.Errorf("delete activity from mirror: %w", err)
		}
		return nil
	case amqp.OpUpsert:
		activity, err := w.storage.GetActivity(ctx, msg.ActivityID)
		if err != nil {
			// Deleted between publish and consume; the delete message follows
			if errors.Is(err, storage.ErrNotFound) {
				slog.WarnContext(ctx, "Activity gone before mirror, skipping",
					"activity_id", msg.ActivityID)
				return nil
			}
			return fmt.Errorf("get activity from storage: %w", err)
		}
		return w.mirrorActivity(ctx, activity)
	default:
		return fmt.Errorf("%w: %q", amqp.ErrUnknownOp, msg.Op)
	}
}

// ProcessPendingActivities mirrors any rows still marked pending. This is the
// backup path for lost AMQP messages.
func (w *MirrorWorker) ProcessPendingActivities(ctx context.Context) error {
	pending, err := w.storage.GetPendingMirrorActivities(ctx, w.batchSize)
	if err != nil {
		return fmt.Errorf("get pending activities: %w", err)
	}
	if len(pending) == 0 {
		return nil
	}

	slog.InfoContext(ctx, "Processing pending activities", "count", len(pending))

	for _, activity := range pending {
		if err := w.mirrorActivity(ctx, activity); err != nil {
			slog.ErrorContext(ctx, "Failed to mirror activity",
				"activity_id", activity.ID, "error", err)
		}
	}

	return nil
}

// StartupMirrorCheck drains a larger pending batch once at worker startup to
// recover from downtime.
func (w *MirrorWorker) StartupMirrorCheck(ctx context.Context) error {
	pending, err := w.storage.GetPendingMirrorActivities(ctx, w.batchSize*5)
	if err != nil {
		return fmt.Errorf("get pending activities for startup check: %w", err)
	}
	if len(pending) == 0 {
		slog.InfoContext(ctx, "No pending activities found on startup")
		return nil
	}

	slog.InfoContext(ctx, "Found pending activities on startup, processing...",
		"count", len(pending))

	mirrored := 0
	failed := 0
	for _, activity := range pending {
		if err := w.mirrorActivity(ctx, activity); err != nil {
			slog.ErrorContext(ctx, "Failed to mirror activity during startup",
				"activity_id", activity.ID, "error", err)
			failed++
			continue
		}
		mirrored++
	}

	slog.InfoContext(ctx, "Startup mirror check completed",
		"total", len(pending),
		"mirrored", mirrored,
		"errors", failed)

	return nil
}

func (w *MirrorWorker) mirrorActivity(ctx context.Context, activity core.Activity) error {
	ref, err := w.mirror.UpsertActivity(ctx, activity)
	if err != nil {
		if markErr := w.storage.MarkMirrorError(ctx, activity.ID); markErr != nil {
			slog.ErrorContext(ctx, "Failed to mark mirror error",
				"activity_id", activity.ID, "error", markErr)
		}
		return fmt.Errorf("upsert to mirror: %w", err)
	}

	if err := w.storage.MarkMirrored(ctx, activity.ID); err != nil {
		// The mirror write itself succeeded
		slog.ErrorContext(ctx, "Failed to mark as mirrored",
			"activity_id", activity.ID, "error", err)
	}

	slog.InfoContext(ctx, "Successfully mirrored activity",
		"activity_id", activity.ID,
		"sheets_ref", ref,
		"description", activity.Description)

	return nil
}

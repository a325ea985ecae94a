// Package storage persists users and activities in SQLite.
//
// Money is stored as integer cents. Validation upstream guarantees values
// carry at most two fractional digits, so the conversion is exact both ways.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"fincontrol/internal/core"

	_ "modernc.org/sqlite"
)

var (
	ErrNotFound   = errors.New("not found")
	ErrEmailTaken = errors.New("email already registered")
)

const dateLayout = "2006-01-02"

// User is a stored account.
type User struct {
	ID           string
	Email        string
	Name         string
	PasswordHash string
	CreatedAt    time.Time
}

// Mirror statuses for the spreadsheet sync queue.
const (
	MirrorPending = "pending"
	MirrorSynced  = "synced"
	MirrorError   = "error"
)

type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// CreateUser stores a new account.
func (r *SQLiteRepository) CreateUser(ctx context.Context, u User) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO users (id, email, name, password_hash) VALUES (?, ?, ?, ?)`,
		u.ID, u.Email, u.Name, u.PasswordHash)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE") {
			return ErrEmailTaken
		}
		return fmt.Errorf("create user: %w", err)
	}

	slog.InfoContext(ctx, "User saved to SQLite", "id", u.ID, "email", u.Email)
	return nil
}

func (r *SQLiteRepository) GetUserByEmail(ctx context.Context, email string) (User, error) {
	return r.scanUser(r.db.QueryRowContext(ctx,
		`SELECT id, email, name, password_hash, created_at FROM users WHERE email = ?`, email))
}

func (r *SQLiteRepository) GetUserByID(ctx context.Context, id string) (User, error) {
	return r.scanUser(r.db.QueryRowContext(ctx,
		`SELECT id, email, name, password_hash, created_at FROM users WHERE id = ?`, id))
}

func (r *SQLiteRepository) scanUser(row *sql.Row) (User, error) {
	var u User
	err := row.Scan(&u.ID, &u.Email, &u.Name, &u.PasswordHash, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return User{}, ErrNotFound
	}
	if err != nil {
		return User{}, fmt.Errorf("scan user: %w", err)
	}
	return u, nil
}

// CreateActivity stores an activity and queues it for the spreadsheet mirror.
func (r *SQLiteRepository) CreateActivity(ctx context.Context, a core.Activity) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO activities (id, user_id, activity_date, description, value_cents, kind, category, mirror_status)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID, a.OwnerID, a.Date.Format(dateLayout), a.Description,
		toCents(a.Value), string(a.Kind), string(a.Category), MirrorPending)
	if err != nil {
		return fmt.Errorf("create activity: %w", err)
	}

	slog.InfoContext(ctx, "Activity saved to SQLite",
		"id", a.ID,
		"description", a.Description,
		"value_cents", toCents(a.Value),
		"kind", a.Kind,
		"category", a.Category)

	return nil
}

func (r *SQLiteRepository) GetActivity(ctx context.Context, id string) (core.Activity, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, user_id, activity_date, description, value_cents, kind, category
		 FROM activities WHERE id = ?`, id)

	a, err := scanActivity(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Activity{}, ErrNotFound
	}
	if err != nil {
		return core.Activity{}, fmt.Errorf("get activity: %w", err)
	}
	return a, nil
}

// UpdateActivity overwrites the mutable fields and requeues the row for the
// spreadsheet mirror.
func (r *SQLiteRepository) UpdateActivity(ctx context.Context, a core.Activity) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE activities
		 SET activity_date = ?, description = ?, value_cents = ?, kind = ?, category = ?,
		     mirror_status = ?, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ?`,
		a.Date.Format(dateLayout), a.Description, toCents(a.Value),
		string(a.Kind), string(a.Category), MirrorPending, a.ID)
	if err != nil {
		return fmt.Errorf("update activity: %w", err)
	}
	return requireRow(res)
}

func (r *SQLiteRepository) DeleteActivity(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM activities WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete activity: %w", err)
	}
	return requireRow(res)
}

const activityColumns = `id, user_id, activity_date, description, value_cents, kind, category`

// ListActivities returns every activity owned by the user, newest first.
func (r *SQLiteRepository) ListActivities(ctx context.Context, userID string) ([]core.Activity, error) {
	return r.queryActivities(ctx,
		`SELECT `+activityColumns+` FROM activities
		 WHERE user_id = ? ORDER BY activity_date DESC, created_at DESC`, userID)
}

func (r *SQLiteRepository) ListActivitiesByKind(ctx context.Context, userID string, kind core.Kind) ([]core.Activity, error) {
	return r.queryActivities(ctx,
		`SELECT `+activityColumns+` FROM activities
		 WHERE user_id = ? AND kind = ? ORDER BY activity_date DESC, created_at DESC`,
		userID, string(kind))
}

func (r *SQLiteRepository) ListActivitiesByCategory(ctx context.Context, userID string, category core.Category) ([]core.Activity, error) {
	return r.queryActivities(ctx,
		`SELECT `+activityColumns+` FROM activities
		 WHERE user_id = ? AND category = ? ORDER BY activity_date DESC, created_at DESC`,
		userID, string(category))
}

func (r *SQLiteRepository) ListActivitiesByCategoryAndKind(ctx context.Context, userID string, category core.Category, kind core.Kind) ([]core.Activity, error) {
	return r.queryActivities(ctx,
		`SELECT `+activityColumns+` FROM activities
		 WHERE user_id = ? AND category = ? AND kind = ? ORDER BY activity_date DESC, created_at DESC`,
		userID, string(category), string(kind))
}

// ListActivitiesByDateRange returns activities dated within [start, end],
// bounds inclusive.
func (r *SQLiteRepository) ListActivitiesByDateRange(ctx context.Context, userID string, start, end time.Time) ([]core.Activity, error) {
	return r.queryActivities(ctx,
		`SELECT `+activityColumns+` FROM activities
		 WHERE user_id = ? AND activity_date >= ? AND activity_date <= ?
		 ORDER BY activity_date DESC, created_at DESC`,
		userID, start.Format(dateLayout), end.Format(dateLayout))
}

func (r *SQLiteRepository) ListActivitiesByCategoryAndDateRange(ctx context.Context, userID string, category core.Category, start, end time.Time) ([]core.Activity, error) {
	return r.queryActivities(ctx,
		`SELECT `+activityColumns+` FROM activities
		 WHERE user_id = ? AND category = ? AND activity_date >= ? AND activity_date <= ?
		 ORDER BY activity_date DESC, created_at DESC`,
		userID, string(category), start.Format(dateLayout), end.Format(dateLayout))
}

// GetPendingMirrorActivities returns activities waiting for the spreadsheet
// mirror, oldest first.
func (r *SQLiteRepository) GetPendingMirrorActivities(ctx context.Context, limit int) ([]core.Activity, error) {
	return r.queryActivities(ctx,
		`SELECT `+activityColumns+` FROM activities
		 WHERE mirror_status = ? ORDER BY created_at ASC LIMIT ?`,
		MirrorPending, int64(limit))
}

// MarkMirrored marks an activity as successfully mirrored.
func (r *SQLiteRepository) MarkMirrored(ctx context.Context, id string) error {
	if err := r.setMirrorStatus(ctx, id, MirrorSynced); err != nil {
		return err
	}
	slog.InfoContext(ctx, "Activity marked as mirrored", "id", id)
	return nil
}

// MarkMirrorError marks an activity as having failed to mirror.
func (r *SQLiteRepository) MarkMirrorError(ctx context.Context, id string) error {
	if err := r.setMirrorStatus(ctx, id, MirrorError); err != nil {
		return err
	}
	slog.WarnContext(ctx, "Activity marked with mirror error", "id", id)
	return nil
}

func (r *SQLiteRepository) setMirrorStatus(ctx context.Context, id, status string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE activities SET mirror_status = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		status, id)
	if err != nil {
		return fmt.Errorf("set mirror status: %w", err)
	}
	return requireRow(res)
}

func (r *SQLiteRepository) queryActivities(ctx context.Context, query string, args ...any) ([]core.Activity, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query activities: %w", err)
	}
	defer rows.Close()

	var activities []core.Activity
	for rows.Next() {
		a, err := scanActivity(rows)
		if err != nil {
			return nil, fmt.Errorf("scan activity: %w", err)
		}
		activities = append(activities, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate activities: %w", err)
	}
	return activities, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanActivity(row rowScanner) (core.Activity, error) {
	var (
		a       core.Activity
		rawDate string
		cents   int64
		kind    string
		cat     string
	)
	if err := row.Scan(&a.ID, &a.OwnerID, &rawDate, &a.Description, &cents, &kind, &cat); err != nil {
		return core.Activity{}, err
	}

	date, err := time.Parse(dateLayout, rawDate)
	if err != nil {
		return core.Activity{}, fmt.Errorf("parse activity date %q: %w", rawDate, err)
	}

	a.Date = date
	a.Value = fromCents(cents)
	a.Kind = core.Kind(kind)
	a.Category = core.Category(cat)
	return a, nil
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func toCents(v decimal.Decimal) int64 {
	return v.Mul(decimal.NewFromInt(100)).IntPart()
}

func fromCents(cents int64) decimal.Decimal {
	return decimal.New(cents, -2)
}

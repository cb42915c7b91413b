package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/T44VI/raittiusseuranhakubot/internal/domain"
	"github.com/T44VI/raittiusseuranhakubot/internal/shared"
	_ "modernc.org/sqlite"
)

// SQLiteStore implements Repository using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite creates a new SQLite-backed repository.
func NewSQLite(dbPath string) (Repository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}

	// Open database with WAL mode for better concurrency.
	dsn := dbPath + "?_journal=WAL&_sync=NORMAL&_busy_timeout=5000"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	store := &SQLiteStore{db: db}
	if err := store.initSchema(); err != nil {
		return nil, fmt.Errorf("initialize schema: %w", err)
	}

	return store, nil
}

func (s *SQLiteStore) initSchema() error {
	query := `
	PRAGMA busy_timeout = 5000;
	CREATE TABLE IF NOT EXISTS activities (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		description TEXT NOT NULL,
		host_id TEXT NOT NULL,
		host_handle TEXT NOT NULL,
		category TEXT NOT NULL,
		ends_at INTEGER NOT NULL,
		announce_ref TEXT,
		created_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_activities_ends ON activities(ends_at);
	CREATE INDEX IF NOT EXISTS idx_activities_category ON activities(category);
	CREATE INDEX IF NOT EXISTS idx_activities_host ON activities(host_id);

	CREATE TABLE IF NOT EXISTS admins (
		user_id TEXT PRIMARY KEY,
		handle TEXT NOT NULL
	);
	CREATE TABLE IF NOT EXISTS blocks (
		user_id TEXT PRIMARY KEY,
		handle TEXT NOT NULL
	);
	`
	if _, err := s.db.Exec(query); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// Ping verifies database connectivity.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("close database: %w", err)
	}
	return nil
}

const activityColumns = `id, name, description, host_id, host_handle, category, ends_at, announce_ref, created_at`

func scanActivity(row interface{ Scan(...any) error }) (*domain.Activity, error) {
	var act domain.Activity
	var announceRef sql.NullString
	var endsAt, createdAt int64

	err := row.Scan(
		&act.ID, &act.Name, &act.Description, &act.HostID, &act.HostHandle,
		&act.Category, &endsAt, &announceRef, &createdAt,
	)
	if err != nil {
		return nil, err
	}

	act.AnnounceRef = announceRef.String
	act.EndsAt = time.Unix(endsAt, 0)
	act.CreatedAt = time.Unix(createdAt, 0)
	return &act, nil
}

func (s *SQLiteStore) queryActivities(ctx context.Context, query string, args ...any) ([]*domain.Activity, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query activities: %w", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			slog.Warn("failed to close activity rows", "error", closeErr)
		}
	}()

	var acts []*domain.Activity
	for rows.Next() {
		act, err := scanActivity(rows)
		if err != nil {
			return nil, fmt.Errorf("scan activity row: %w", err)
		}
		acts = append(acts, act)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate activities: %w", err)
	}
	return acts, nil
}

// ListActivities retrieves every stored activity.
func (s *SQLiteStore) ListActivities(ctx context.Context) ([]*domain.Activity, error) {
	return s.queryActivities(ctx, `SELECT `+activityColumns+` FROM activities ORDER BY created_at`)
}

// ListByCategory retrieves activities in the given category.
func (s *SQLiteStore) ListByCategory(ctx context.Context, category domain.Category) ([]*domain.Activity, error) {
	return s.queryActivities(ctx,
		`SELECT `+activityColumns+` FROM activities WHERE category = ? ORDER BY created_at`,
		string(category))
}

// ListByHost retrieves activities hosted by the given user.
func (s *SQLiteStore) ListByHost(ctx context.Context, hostID string) ([]*domain.Activity, error) {
	return s.queryActivities(ctx,
		`SELECT `+activityColumns+` FROM activities WHERE host_id = ? ORDER BY created_at`,
		hostID)
}

// ListExpired retrieves activities whose end time is before the cutoff.
func (s *SQLiteStore) ListExpired(ctx context.Context, before time.Time) ([]*domain.Activity, error) {
	return s.queryActivities(ctx,
		`SELECT `+activityColumns+` FROM activities WHERE ends_at < ? ORDER BY ends_at`,
		before.Unix())
}

// GetActivity retrieves a single activity by ID.
func (s *SQLiteStore) GetActivity(ctx context.Context, id string) (*domain.Activity, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+activityColumns+` FROM activities WHERE id = ?`, id)

	act, err := scanActivity(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan activity row: %w", err)
	}
	return act, nil
}

// InsertActivity stores a new activity.
func (s *SQLiteStore) InsertActivity(ctx context.Context, act *domain.Activity) error {
	query := `
	INSERT INTO activities (id, name, description, host_id, host_handle, category, ends_at, announce_ref, created_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`

	var announceRef interface{}
	if act.AnnounceRef != "" {
		announceRef = act.AnnounceRef
	}

	_, err := s.db.ExecContext(ctx, query,
		act.ID, act.Name, act.Description, act.HostID, act.HostHandle,
		string(act.Category), act.EndsAt.Unix(), announceRef, act.CreatedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("insert activity: %w", err)
	}
	return nil
}

// DeleteActivity removes an activity.
// Retries with exponential backoff to handle SQLITE_BUSY errors.
func (s *SQLiteStore) DeleteActivity(ctx context.Context, id string) error {
	maxRetries := 3
	baseDelay := 100 * time.Millisecond

	for i := 0; i < maxRetries; i++ {
		err := s.deleteActivityOnce(ctx, id)
		if err == nil {
			return nil
		}

		if shared.IsSQLiteConflictError(err) && i < maxRetries-1 {
			delay := baseDelay * time.Duration(1<<i) // exponential backoff: 100ms, 200ms, 400ms
			slog.Debug("DeleteActivity failed with SQLITE_BUSY, retrying",
				"activity_id", id,
				"attempt", i+1,
				"delay", delay)
			time.Sleep(delay)
			continue
		}

		return fmt.Errorf("failed to delete activity %s after %d attempts: %w", id, i+1, err)
	}

	return nil
}

func (s *SQLiteStore) deleteActivityOnce(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM activities WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete activity: %w", err)
	}
	return nil
}

// SetAnnounceRef records the broadcast message reference for an activity.
func (s *SQLiteStore) SetAnnounceRef(ctx context.Context, id, ref string) error {
	result, err := s.db.ExecContext(ctx,
		`UPDATE activities SET announce_ref = ? WHERE id = ?`, ref, id)
	if err != nil {
		return fmt.Errorf("set announce ref: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if rows == 0 {
		slog.Warn("SetAnnounceRef affected 0 rows", "activity_id", id)
	}
	return nil
}

func (s *SQLiteStore) inSet(ctx context.Context, table, userID string) (bool, error) {
	// Table names come from the fixed call sites below, never from input.
	row := s.db.QueryRowContext(ctx, `SELECT 1 FROM `+table+` WHERE user_id = ?`, userID)

	var one int
	err := row.Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("scan %s row: %w", table, err)
	}
	return true, nil
}

func (s *SQLiteStore) addToSet(ctx context.Context, table, userID, handle string) error {
	query := `INSERT INTO ` + table + ` (user_id, handle) VALUES (?, ?)
		ON CONFLICT(user_id) DO UPDATE SET handle = excluded.handle`
	if _, err := s.db.ExecContext(ctx, query, userID, handle); err != nil {
		return fmt.Errorf("insert into %s: %w", table, err)
	}
	return nil
}

func (s *SQLiteStore) removeFromSet(ctx context.Context, table, userID string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM `+table+` WHERE user_id = ?`, userID); err != nil {
		return fmt.Errorf("delete from %s: %w", table, err)
	}
	return nil
}

// IsAdmin reports whether the user is on the admin allow-list.
func (s *SQLiteStore) IsAdmin(ctx context.Context, userID string) (bool, error) {
	return s.inSet(ctx, "admins", userID)
}

// AddAdmin adds a user to the admin allow-list.
func (s *SQLiteStore) AddAdmin(ctx context.Context, userID, handle string) error {
	return s.addToSet(ctx, "admins", userID, handle)
}

// RemoveAdmin removes a user from the admin allow-list.
func (s *SQLiteStore) RemoveAdmin(ctx context.Context, userID string) error {
	return s.removeFromSet(ctx, "admins", userID)
}

// IsBlocked reports whether the user is on the block deny-list.
func (s *SQLiteStore) IsBlocked(ctx context.Context, userID string) (bool, error) {
	return s.inSet(ctx, "blocks", userID)
}

// AddBlock adds a user to the block deny-list.
func (s *SQLiteStore) AddBlock(ctx context.Context, userID, handle string) error {
	return s.addToSet(ctx, "blocks", userID, handle)
}

// RemoveBlock removes a user from the block deny-list.
func (s *SQLiteStore) RemoveBlock(ctx context.Context, userID string) error {
	return s.removeFromSet(ctx, "blocks", userID)
}

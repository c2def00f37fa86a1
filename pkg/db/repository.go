package db

import (
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// Repository handles data access
type Repository struct {
	db *DB
}

// NewRepository creates a new Repository
func NewRepository(db *DB) *Repository {
	return &Repository{db: db}
}

// PutValue stores a blob under key, replacing any previous value.
func (r *Repository) PutValue(key string, value []byte) error {
	query := `INSERT INTO kv (key, value, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`
	if _, err := r.db.Exec(query, key, string(value)); err != nil {
		return fmt.Errorf("failed to put value %q: %w", key, err)
	}
	return nil
}

// GetValue returns the blob stored under key, or nil if the key is absent.
func (r *Repository) GetValue(key string) ([]byte, error) {
	var value string
	err := r.db.QueryRow(`SELECT value FROM kv WHERE key = ?`, key).Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get value %q: %w", key, err)
	}
	return []byte(value), nil
}

// ReviewLog represents a row in the reviews table
type ReviewLog struct {
	ID        int64
	WeekOf    string
	Summary   string
	CreatedAt time.Time
}

// LogReview creates a new review log entry
func (r *Repository) LogReview(weekOf, summary string) error {
	query := `INSERT INTO reviews (week_of, summary) VALUES (?, ?)`
	_, err := r.db.Exec(query, weekOf, summary)
	if err != nil {
		return fmt.Errorf("failed to log review: %w", err)
	}
	return nil
}

// GetLatestReview returns the most recent review log
func (r *Repository) GetLatestReview() (*ReviewLog, error) {
	query := `SELECT id, week_of, summary, created_at FROM reviews ORDER BY id DESC LIMIT 1`
	row := r.db.QueryRow(query)

	var log ReviewLog
	err := row.Scan(&log.ID, &log.WeekOf, &log.Summary, &log.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get latest review: %w", err)
	}
	return &log, nil
}

// SyncLog is one remote push or pull attempt.
type SyncLog struct {
	ID        int64
	Direction string // push, pull
	Source    string // debounce, manual, boot, job
	Status    string
	Message   string
	CreatedAt time.Time
}

// LogSync records a sync attempt.
func (r *Repository) LogSync(entry SyncLog) error {
	query := `INSERT INTO sync_log (direction, source, status, message, created_at) VALUES (?, ?, ?, ?, ?)`
	_, err := r.db.Exec(query, entry.Direction, entry.Source, entry.Status, entry.Message, entry.CreatedAt.UTC())
	if err != nil {
		return fmt.Errorf("failed to log sync: %w", err)
	}
	return nil
}

// GetLatestSync returns the latest sync attempt in a direction with the given
// status, or any status when status is empty.
func (r *Repository) GetLatestSync(direction, status string) (*SyncLog, error) {
	query := `SELECT id, direction, source, status, message, created_at FROM sync_log
		WHERE direction = ? AND (? = '' OR status = ?) ORDER BY id DESC LIMIT 1`
	var e SyncLog
	err := r.db.QueryRow(query, direction, status, status).
		Scan(&e.ID, &e.Direction, &e.Source, &e.Status, &e.Message, &e.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get latest sync: %w", err)
	}
	return &e, nil
}

// CalendarSync maps a goal to the calendar event carrying its deadline.
type CalendarSync struct {
	GoalID    string
	EventID   string
	SyncKey   string
	UpdatedAt time.Time
}

// InsertCalendarSync records a newly created calendar event for a goal.
func (r *Repository) InsertCalendarSync(goalID, eventID, syncKey string) error {
	query := `INSERT INTO calendar_sync (goal_id, event_id, sync_key) VALUES (?, ?, ?)`
	if _, err := r.db.Exec(query, goalID, eventID, syncKey); err != nil {
		return fmt.Errorf("failed to insert calendar sync: %w", err)
	}
	return nil
}

// UpdateCalendarSync stores the new sync key after an event update.
func (r *Repository) UpdateCalendarSync(goalID, syncKey string) error {
	query := `UPDATE calendar_sync SET sync_key = ?, updated_at = CURRENT_TIMESTAMP WHERE goal_id = ?`
	if _, err := r.db.Exec(query, syncKey, goalID); err != nil {
		return fmt.Errorf("failed to update calendar sync: %w", err)
	}
	return nil
}

// GetCalendarSyncByGoalID returns the mapping for a goal, or nil.
func (r *Repository) GetCalendarSyncByGoalID(goalID string) (*CalendarSync, error) {
	query := `SELECT goal_id, event_id, sync_key, updated_at FROM calendar_sync WHERE goal_id = ?`
	var rec CalendarSync
	err := r.db.QueryRow(query, goalID).Scan(&rec.GoalID, &rec.EventID, &rec.SyncKey, &rec.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get calendar sync: %w", err)
	}
	return &rec, nil
}

// ListCalendarSyncs returns every goal to event mapping.
func (r *Repository) ListCalendarSyncs() ([]CalendarSync, error) {
	rows, err := r.db.Query(`SELECT goal_id, event_id, sync_key, updated_at FROM calendar_sync ORDER BY goal_id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list calendar syncs: %w", err)
	}
	defer rows.Close()

	var out []CalendarSync
	for rows.Next() {
		var rec CalendarSync
		if err := rows.Scan(&rec.GoalID, &rec.EventID, &rec.SyncKey, &rec.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan calendar sync: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// DeleteCalendarSync forgets the mapping of a goal.
func (r *Repository) DeleteCalendarSync(goalID string) error {
	if _, err := r.db.Exec(`DELETE FROM calendar_sync WHERE goal_id = ?`, goalID); err != nil {
		return fmt.Errorf("failed to delete calendar sync: %w", err)
	}
	return nil
}

// DriveSync maps a backup object name to its Drive file.
type DriveSync struct {
	Name         string
	DriveFileID  string
	Checksum     string
	LastSyncedAt time.Time
}

// InsertDriveSync records a newly uploaded backup file.
func (r *Repository) InsertDriveSync(name, fileID, checksum string, syncedAt time.Time) error {
	query := `INSERT INTO drive_sync (name, drive_file_id, checksum, last_synced_at) VALUES (?, ?, ?, ?)`
	if _, err := r.db.Exec(query, name, fileID, checksum, syncedAt.UTC()); err != nil {
		return fmt.Errorf("failed to insert drive sync: %w", err)
	}
	return nil
}

// UpdateDriveSync stores the checksum of the latest upload.
func (r *Repository) UpdateDriveSync(name, checksum string, syncedAt time.Time) error {
	query := `UPDATE drive_sync SET checksum = ?, last_synced_at = ? WHERE name = ?`
	if _, err := r.db.Exec(query, checksum, syncedAt.UTC(), name); err != nil {
		return fmt.Errorf("failed to update drive sync: %w", err)
	}
	return nil
}

// GetDriveSyncByName returns the mapping for a backup object, or nil.
func (r *Repository) GetDriveSyncByName(name string) (*DriveSync, error) {
	query := `SELECT name, drive_file_id, checksum, last_synced_at FROM drive_sync WHERE name = ?`
	var rec DriveSync
	err := r.db.QueryRow(query, name).Scan(&rec.Name, &rec.DriveFileID, &rec.Checksum, &rec.LastSyncedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get drive sync: %w", err)
	}
	return &rec, nil
}

// JobRun is one execution of a scheduled job.
type JobRun struct {
	ID         int64
	Job        string
	Status     string
	Error      string
	Output     string
	StartedAt  time.Time
	FinishedAt time.Time
}

// LogJobRun records a finished job execution.
func (r *Repository) LogJobRun(run JobRun) error {
	query := `INSERT INTO job_runs (job, status, error, output, started_at, finished_at) VALUES (?, ?, ?, ?, ?, ?)`
	_, err := r.db.Exec(query, run.Job, run.Status, run.Error, run.Output, run.StartedAt.UTC(), run.FinishedAt.UTC())
	if err != nil {
		return fmt.Errorf("failed to log job run: %w", err)
	}
	return nil
}

// ListJobRuns returns the most recent runs, newest first.
func (r *Repository) ListJobRuns(limit int) ([]JobRun, error) {
	rows, err := r.db.Query(`SELECT id, job, status, error, output, started_at, finished_at
		FROM job_runs ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list job runs: %w", err)
	}
	defer rows.Close()

	var runs []JobRun
	for rows.Next() {
		var run JobRun
		if err := rows.Scan(&run.ID, &run.Job, &run.Status, &run.Error, &run.Output, &run.StartedAt, &run.FinishedAt); err != nil {
			return nil, fmt.Errorf("failed to scan job run: %w", err)
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

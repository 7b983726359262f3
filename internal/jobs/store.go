package jobs

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"playlet/internal/config"
)

// ErrNotFound indicates no job matched the lookup.
var ErrNotFound = errors.New("job not found")

// Store manages job persistence backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// Open initializes or connects to the job database.
func Open(cfg *config.Config) (*Store, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}
	return OpenPath(filepath.Join(cfg.Paths.DataDir, "jobs.db"))
}

// OpenPath opens the job database at an explicit location.
func OpenPath(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: dbPath}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the database file location.
func (s *Store) Path() string {
	return s.path
}

// NewJob inserts a pending job for a source video.
func (s *Store) NewJob(ctx context.Context, sourcePath, subtitlePath, style string) (*Item, error) {
	timestamp := time.Now().UTC().Format(time.RFC3339Nano)
	jobID := uuid.NewString()

	_, err := s.db.ExecContext(
		ctx,
		`INSERT INTO jobs (
            job_id, source_path, subtitle_path, style, status, created_at, updated_at,
            progress_stage, progress_percent, progress_message
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		jobID,
		sourcePath,
		nullableString(subtitlePath),
		style,
		StatusPending,
		timestamp,
		timestamp,
		nil,
		0.0,
		nil,
	)
	if err != nil {
		return nil, fmt.Errorf("insert job: %w", err)
	}

	return s.GetByJobID(ctx, jobID)
}

// GetByJobID fetches a job by its public identifier.
func (s *Store) GetByJobID(ctx context.Context, jobID string) (*Item, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+itemColumns+" FROM jobs WHERE job_id = ?", jobID)
	item, err := scanItem(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, jobID)
	}
	if err != nil {
		return nil, fmt.Errorf("get job: %w", err)
	}
	return item, nil
}

// FindBySource returns the most recent job for a source path, if any.
func (s *Store) FindBySource(ctx context.Context, sourcePath string) (*Item, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+itemColumns+" FROM jobs WHERE source_path = ? ORDER BY id DESC LIMIT 1", sourcePath)
	item, err := scanItem(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find job by source: %w", err)
	}
	return item, nil
}

// List returns jobs filtered by status; with no statuses it returns everything,
// newest first.
func (s *Store) List(ctx context.Context, statuses ...Status) ([]*Item, error) {
	query := "SELECT " + itemColumns + " FROM jobs"
	args := make([]any, 0, len(statuses))
	if len(statuses) > 0 {
		query += " WHERE status IN (" + makePlaceholders(len(statuses)) + ")"
		for _, status := range statuses {
			args = append(args, string(status))
		}
	}
	query += " ORDER BY id DESC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}
	defer rows.Close()

	var items []*Item
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scan job: %w", err)
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// Update persists the mutable fields of a job.
func (s *Store) Update(ctx context.Context, item *Item) error {
	if item == nil {
		return errors.New("nil item")
	}
	item.UpdatedAt = time.Now().UTC()

	res, err := s.db.ExecContext(
		ctx,
		`UPDATE jobs SET
            status = ?, error_message = ?, review_reason = ?, updated_at = ?,
            progress_stage = ?, progress_percent = ?, progress_message = ?,
            total_segments = ?, narrated_segments = ?, degraded_segments = ?,
            coverage_ratio = ?, drift_millis = ?, plan_path = ?, narration_path = ?
        WHERE job_id = ?`,
		string(item.Status),
		nullableString(item.ErrorMessage),
		nullableString(item.ReviewReason),
		item.UpdatedAt.Format(time.RFC3339Nano),
		nullableString(item.ProgressStage),
		item.ProgressPercent,
		nullableString(item.ProgressMessage),
		item.TotalSegments,
		item.NarratedSegments,
		item.DegradedSegments,
		item.CoverageRatio,
		item.DriftMillis,
		nullableString(item.PlanPath),
		nullableString(item.NarrationPath),
		item.JobID,
	)
	if err != nil {
		return fmt.Errorf("update job: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, item.JobID)
	}
	return nil
}

// Clear removes jobs in the given statuses; with no statuses it removes
// completed jobs only. Returns the number of jobs removed.
func (s *Store) Clear(ctx context.Context, statuses ...Status) (int64, error) {
	if len(statuses) == 0 {
		statuses = []Status{StatusCompleted}
	}
	args := make([]any, 0, len(statuses))
	for _, status := range statuses {
		args = append(args, string(status))
	}
	res, err := s.db.ExecContext(ctx,
		"DELETE FROM jobs WHERE status IN ("+makePlaceholders(len(statuses))+")", args...)
	if err != nil {
		return 0, fmt.Errorf("clear jobs: %w", err)
	}
	return res.RowsAffected()
}

// ResetStalled moves jobs stuck in a processing status back to pending so a
// later run can pick them up.
func (s *Store) ResetStalled(ctx context.Context) (int64, error) {
	stale := make([]string, 0, len(processingStatuses))
	args := make([]any, 0, len(processingStatuses)+1)
	args = append(args, string(StatusPending))
	for status := range processingStatuses {
		stale = append(stale, "?")
		args = append(args, string(status))
	}
	res, err := s.db.ExecContext(ctx,
		"UPDATE jobs SET status = ? WHERE status IN ("+strings.Join(stale, ",")+")", args...)
	if err != nil {
		return 0, fmt.Errorf("reset stalled jobs: %w", err)
	}
	return res.RowsAffected()
}

// SaveSegmentResult upserts the terminal narration result for one segment.
func (s *Store) SaveSegmentResult(ctx context.Context, result SegmentResult) error {
	timestamp := time.Now().UTC().Format(time.RFC3339Nano)
	_, err := s.db.ExecContext(
		ctx,
		`INSERT INTO job_segments (
            job_id, segment_id, script, audio_handle, audio_duration_millis,
            degraded, degraded_stage, updated_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
        ON CONFLICT (job_id, segment_id) DO UPDATE SET
            script = excluded.script,
            audio_handle = excluded.audio_handle,
            audio_duration_millis = excluded.audio_duration_millis,
            degraded = excluded.degraded,
            degraded_stage = excluded.degraded_stage,
            updated_at = excluded.updated_at`,
		result.JobID,
		result.SegmentID,
		result.Script,
		nullableString(result.AudioHandle),
		result.AudioDuration,
		boolToInt(result.Degraded),
		nullableString(result.DegradedStage),
		timestamp,
	)
	if err != nil {
		return fmt.Errorf("save segment result: %w", err)
	}
	return nil
}

// LoadSegmentResults returns the saved narration results for a job keyed by
// segment identifier.
func (s *Store) LoadSegmentResults(ctx context.Context, jobID string) (map[int]SegmentResult, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT job_id, segment_id, script, audio_handle, audio_duration_millis,
                degraded, degraded_stage, updated_at
         FROM job_segments WHERE job_id = ? ORDER BY segment_id`, jobID)
	if err != nil {
		return nil, fmt.Errorf("load segment results: %w", err)
	}
	defer rows.Close()

	results := make(map[int]SegmentResult)
	for rows.Next() {
		var (
			result     SegmentResult
			handle     sql.NullString
			stage      sql.NullString
			degraded   int
			updatedRaw string
		)
		if err := rows.Scan(
			&result.JobID,
			&result.SegmentID,
			&result.Script,
			&handle,
			&result.AudioDuration,
			&degraded,
			&stage,
			&updatedRaw,
		); err != nil {
			return nil, fmt.Errorf("scan segment result: %w", err)
		}
		result.AudioHandle = handle.String
		result.DegradedStage = stage.String
		result.Degraded = degraded != 0
		if updated, err := parseTimeString(updatedRaw); err == nil {
			result.UpdatedAt = updated
		}
		results[result.SegmentID] = result
	}
	return results, rows.Err()
}

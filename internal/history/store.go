package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// Status is the outcome of a recorded job.
type Status string

const (
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
)

// Entry is one journaled conversion.
type Entry struct {
	ID              string
	SourcePath      string
	DestinationPath string
	QualityClass    string
	Renditions      []string
	Status          Status
	ExitCode        int
	ErrorMessage    string
	FailedStage     string
	SealedSegments  int
	MergedSegments  int
	PublishedBytes  int64
	MirroredObjects int
	StartedAt       time.Time
	FinishedAt      time.Time
}

// Duration is the wall time of the job.
func (e Entry) Duration() time.Duration {
	if e.StartedAt.IsZero() || e.FinishedAt.IsZero() {
		return 0
	}
	return e.FinishedAt.Sub(e.StartedAt)
}

// Store manages job history persistence backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

const (
	sqliteBusyCode          = 5
	busyRetryAttempts       = 5
	busyRetryInitialBackoff = 10 * time.Millisecond
	busyRetryMaxBackoff     = 200 * time.Millisecond

	// timeLayout is fixed width so finished_at sorts lexically.
	timeLayout = "2006-01-02T15:04:05.000000000Z07:00"
)

// Open initializes or connects to the history database at path.
func Open(path string) (*Store, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("history path is empty")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("ensure history directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: path}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Path returns the database file path.
func (s *Store) Path() string {
	if s == nil {
		return ""
	}
	return s.path
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Record appends an entry.
func (s *Store) Record(ctx context.Context, e Entry) error {
	if s == nil || s.db == nil {
		return errors.New("history store is closed")
	}
	if strings.TrimSpace(e.ID) == "" {
		return errors.New("history entry id is empty")
	}
	if e.Status == "" {
		e.Status = StatusFailed
	}
	if e.FinishedAt.IsZero() {
		e.FinishedAt = time.Now()
	}
	if e.StartedAt.IsZero() {
		e.StartedAt = e.FinishedAt
	}
	ctx = ensureContext(ctx)
	return retryOnBusy(ctx, func() error {
		_, err := s.db.ExecContext(ctx,
			`INSERT INTO jobs (
                id, source_path, destination_path, quality_class, renditions,
                status, exit_code, error_message, failed_stage,
                sealed_segments, merged_segments, published_bytes, mirrored_objects,
                started_at, finished_at
            ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			e.ID,
			e.SourcePath,
			e.DestinationPath,
			nullableString(e.QualityClass),
			nullableString(strings.Join(e.Renditions, ",")),
			string(e.Status),
			e.ExitCode,
			nullableString(e.ErrorMessage),
			nullableString(e.FailedStage),
			e.SealedSegments,
			e.MergedSegments,
			e.PublishedBytes,
			e.MirroredObjects,
			e.StartedAt.UTC().Format(timeLayout),
			e.FinishedAt.UTC().Format(timeLayout),
		)
		if err != nil {
			return fmt.Errorf("insert job: %w", err)
		}
		return nil
	})
}

// Recent returns up to limit entries, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if s == nil || s.db == nil {
		return nil, errors.New("history store is closed")
	}
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ensureContext(ctx),
		`SELECT id, source_path, destination_path, quality_class, renditions,
                status, exit_code, error_message, failed_stage,
                sealed_segments, merged_segments, published_bytes, mirrored_objects,
                started_at, finished_at
         FROM jobs ORDER BY finished_at DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query jobs: %w", err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var (
			e                    Entry
			class, renditions    sql.NullString
			errMsg, failedStage  sql.NullString
			status               string
			startedAt, finishedAt string
		)
		if err := rows.Scan(
			&e.ID, &e.SourcePath, &e.DestinationPath, &class, &renditions,
			&status, &e.ExitCode, &errMsg, &failedStage,
			&e.SealedSegments, &e.MergedSegments, &e.PublishedBytes, &e.MirroredObjects,
			&startedAt, &finishedAt,
		); err != nil {
			return nil, fmt.Errorf("scan job: %w", err)
		}
		e.Status = Status(status)
		e.QualityClass = class.String
		if renditions.Valid && renditions.String != "" {
			e.Renditions = strings.Split(renditions.String, ",")
		}
		e.ErrorMessage = errMsg.String
		e.FailedStage = failedStage.String
		e.StartedAt = parseTime(startedAt)
		e.FinishedAt = parseTime(finishedAt)
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate jobs: %w", err)
	}
	return out, nil
}

func ensureContext(ctx context.Context) context.Context {
	if ctx != nil {
		return ctx
	}
	return context.Background()
}

func nullableString(value string) any {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	return value
}

func parseTime(value string) time.Time {
	ts, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		return time.Time{}
	}
	return ts
}

func isSQLiteBusy(err error) bool {
	if err == nil {
		return false
	}
	var coder interface{ Code() int }
	if errors.As(err, &coder) && coder.Code() == sqliteBusyCode {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") || strings.Contains(msg, "database is locked")
}

func retryOnBusy(ctx context.Context, op func() error) error {
	delay := busyRetryInitialBackoff
	var lastErr error
	for attempt := 0; attempt < busyRetryAttempts; attempt++ {
		lastErr = op()
		if lastErr == nil {
			return nil
		}
		if !isSQLiteBusy(lastErr) || attempt == busyRetryAttempts-1 {
			break
		}
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
		if next := delay * 2; next <= busyRetryMaxBackoff {
			delay = next
		}
	}
	return lastErr
}

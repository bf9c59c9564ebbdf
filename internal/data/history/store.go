package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	domainerrors "scriptlint/internal/core/errors"
	"scriptlint/internal/shared/observability"
)

const (
	driverName         = "sqlite"
	maxAttempts        = 5
	defaultBusyTimeout = 2 * time.Second
)

type Store struct {
	path string
	db   *sql.DB
	mu   sync.Mutex
}

// Open opens (or creates) the sqlite history database at path. A
// non-positive busyTimeout uses a 2s default.
func Open(path string, busyTimeout time.Duration) (*Store, error) {
	cleanPath := strings.TrimSpace(path)
	if cleanPath == "" {
		return nil, fmt.Errorf("history path must not be empty")
	}
	if info, err := os.Stat(cleanPath); err == nil && info.IsDir() {
		return nil, fmt.Errorf("history path %q is a directory, expected file", cleanPath)
	}

	dir := filepath.Dir(cleanPath)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create history directory %q: %w", dir, err)
		}
	}
	if busyTimeout <= 0 {
		busyTimeout = defaultBusyTimeout
	}

	// busy_timeout + WAL reduce lock conflicts during watch-mode churn.
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(%d)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(ON)",
		cleanPath, busyTimeout.Milliseconds())
	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite history %q: %w", cleanPath, err)
	}
	db.SetMaxOpenConns(1)
	db.SetConnMaxLifetime(0)
	db.SetConnMaxIdleTime(0)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite history %q: %w", cleanPath, err)
	}
	if err := EnsureSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize sqlite schema %q: %w", cleanPath, err)
	}

	return &Store{path: cleanPath, db: db}, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// SaveRun persists run under projectKey. Saving the same run id twice
// replaces the earlier row and its rule counts.
func (s *Store) SaveRun(ctx context.Context, projectKey string, run Run) (err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	defer func() {
		outcome := "ok"
		if err != nil {
			outcome = "error"
		}
		observability.HistoryWritesTotal.WithLabelValues(outcome).Inc()
	}()

	projectKey = normalizeProjectKey(projectKey)
	if strings.TrimSpace(run.RunID) == "" {
		return fmt.Errorf("run id must not be empty")
	}
	if run.Timestamp.IsZero() {
		run.Timestamp = time.Now().UTC()
	}
	if run.SchemaVersion == 0 {
		run.SchemaVersion = SchemaVersion
	}
	if run.SchemaVersion != SchemaVersion {
		return fmt.Errorf("unsupported run schema version %d", run.SchemaVersion)
	}

	commitTS := ""
	if !run.CommitTimestamp.IsZero() {
		commitTS = run.CommitTimestamp.UTC().Format(time.RFC3339Nano)
	}

	query := `
INSERT INTO runs (
  run_id, project_key, schema_version, ts_utc, commit_hash, commit_ts_utc, file_count,
  fragment_count, finding_count, error_count, warning_count, parse_failure_count,
  detector_failure_count, duration_ms
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(run_id) DO UPDATE SET
  project_key=excluded.project_key,
  schema_version=excluded.schema_version,
  ts_utc=excluded.ts_utc,
  commit_hash=excluded.commit_hash,
  commit_ts_utc=excluded.commit_ts_utc,
  file_count=excluded.file_count,
  fragment_count=excluded.fragment_count,
  finding_count=excluded.finding_count,
  error_count=excluded.error_count,
  warning_count=excluded.warning_count,
  parse_failure_count=excluded.parse_failure_count,
  detector_failure_count=excluded.detector_failure_count,
  duration_ms=excluded.duration_ms
`
	return s.withRetry("save run", func() error {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return err
		}
		defer func() { _ = tx.Rollback() }()

		if _, err := tx.ExecContext(ctx,
			query,
			run.RunID,
			projectKey,
			run.SchemaVersion,
			run.Timestamp.UTC().Format(time.RFC3339Nano),
			run.CommitHash,
			commitTS,
			run.Files,
			run.Fragments,
			run.Findings,
			run.Errors,
			run.Warnings,
			run.ParseFailures,
			run.DetectorFailures,
			run.Duration.Milliseconds(),
		); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM run_rule_counts WHERE run_id = ?`, run.RunID); err != nil {
			return err
		}
		for _, rule := range slices.Sorted(maps.Keys(run.RuleCounts)) {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO run_rule_counts(run_id, rule_id, finding_count) VALUES (?, ?, ?)`,
				run.RunID, rule, run.RuleCounts[rule],
			); err != nil {
				return err
			}
		}
		return tx.Commit()
	})
}

// LoadRuns returns the runs of projectKey recorded at or after since,
// oldest first. A zero since returns every run.
func (s *Store) LoadRuns(ctx context.Context, projectKey string, since time.Time) ([]Run, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	base := `
SELECT
  run_id, schema_version, ts_utc, commit_hash, commit_ts_utc, file_count, fragment_count,
  finding_count, error_count, warning_count, parse_failure_count, detector_failure_count,
  duration_ms
FROM runs
WHERE project_key = ?`
	args := []any{normalizeProjectKey(projectKey)}
	if !since.IsZero() {
		base += " AND ts_utc >= ?"
		args = append(args, since.UTC().Format(time.RFC3339Nano))
	}
	base += " ORDER BY ts_utc ASC, run_id ASC"

	var rows *sql.Rows
	err := s.withRetry("load runs", func() error {
		var qErr error
		rows, qErr = s.db.QueryContext(ctx, base, args...)
		return qErr
	})
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	runs := make([]Run, 0)
	for rows.Next() {
		var (
			tsRaw       string
			commitTSRaw string
			durationMS  int64
			run         Run
		)
		if err := rows.Scan(
			&run.RunID,
			&run.SchemaVersion,
			&tsRaw,
			&run.CommitHash,
			&commitTSRaw,
			&run.Files,
			&run.Fragments,
			&run.Findings,
			&run.Errors,
			&run.Warnings,
			&run.ParseFailures,
			&run.DetectorFailures,
			&durationMS,
		); err != nil {
			return nil, fmt.Errorf("scan run row: %w", err)
		}

		ts, err := time.Parse(time.RFC3339Nano, tsRaw)
		if err != nil {
			return nil, fmt.Errorf("parse run timestamp %q: %w", tsRaw, err)
		}
		run.Timestamp = ts.UTC()
		run.Duration = time.Duration(durationMS) * time.Millisecond

		if commitTSRaw != "" {
			commitTS, err := time.Parse(time.RFC3339Nano, commitTSRaw)
			if err != nil {
				return nil, fmt.Errorf("parse commit timestamp %q: %w", commitTSRaw, err)
			}
			run.CommitTimestamp = commitTS.UTC()
		}

		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate run rows: %w", err)
	}
	rows.Close()

	for i := range runs {
		counts, err := s.ruleCounts(ctx, runs[i].RunID)
		if err != nil {
			return nil, err
		}
		runs[i].RuleCounts = counts
	}
	return runs, nil
}

func (s *Store) ruleCounts(ctx context.Context, runID string) (map[string]int, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT rule_id, finding_count FROM run_rule_counts WHERE run_id = ?`, runID)
	if err != nil {
		return nil, fmt.Errorf("load rule counts for %s: %w", runID, err)
	}
	defer rows.Close()

	var counts map[string]int
	for rows.Next() {
		var (
			rule  string
			count int
		)
		if err := rows.Scan(&rule, &count); err != nil {
			return nil, fmt.Errorf("scan rule count row: %w", err)
		}
		if counts == nil {
			counts = make(map[string]int)
		}
		counts[rule] = count
	}
	return counts, rows.Err()
}

func normalizeProjectKey(projectKey string) string {
	projectKey = strings.TrimSpace(projectKey)
	if projectKey == "" {
		return "default"
	}
	return projectKey
}

func (s *Store) withRetry(op string, fn func() error) error {
	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		err := fn()
		if err == nil {
			return nil
		}
		lastErr = err
		if !isLockError(err) || attempt == maxAttempts {
			break
		}
		time.Sleep(time.Duration(attempt*25) * time.Millisecond)
	}
	return domainerrors.Wrap(lastErr, domainerrors.CodeStorageError, op)
}

func isLockError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "database is locked") || strings.Contains(msg, "busy")
}

func (s *Store) Path() string {
	if s == nil {
		return ""
	}
	return s.path
}

func IsCorruptError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "malformed") || strings.Contains(msg, "not a database") || errors.Is(err, os.ErrInvalid)
}

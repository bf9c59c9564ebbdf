package history

import (
	"context"
	"database/sql"
	"path/filepath"
	"strings"
	"testing"
	"time"

	domainerrors "scriptlint/internal/core/errors"
)

func openStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "history.db"), time.Second)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestStore_SaveLoadRoundTrip(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	base := time.Date(2026, 2, 13, 10, 0, 0, 0, time.UTC)
	first := Run{
		RunID:      "run-1",
		Timestamp:  base,
		Files:      4,
		Fragments:  9,
		Findings:   6,
		Errors:     1,
		Warnings:   5,
		Duration:   1500 * time.Millisecond,
		RuleCounts: map[string]int{"no-var": 4, "complexity": 1, "console-statement": 1},
	}
	second := Run{
		RunID:           "run-2",
		Timestamp:       base.Add(2 * time.Hour),
		CommitHash:      "abc123",
		CommitTimestamp: base.Add(time.Hour),
		Files:           4,
		Fragments:       9,
		Findings:        2,
		Warnings:        2,
		ParseFailures:   1,
	}

	if err := store.SaveRun(ctx, "project-a", second); err != nil {
		t.Fatalf("save second run: %v", err)
	}
	if err := store.SaveRun(ctx, "project-a", first); err != nil {
		t.Fatalf("save first run: %v", err)
	}
	if err := store.SaveRun(ctx, "project-b", Run{RunID: "other", Timestamp: base}); err != nil {
		t.Fatalf("save other project: %v", err)
	}

	runs, err := store.LoadRuns(ctx, "project-a", time.Time{})
	if err != nil {
		t.Fatalf("load runs: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("expected 2 runs, got %d", len(runs))
	}
	if runs[0].RunID != "run-1" || runs[1].RunID != "run-2" {
		t.Fatalf("expected runs ordered by timestamp, got %s, %s", runs[0].RunID, runs[1].RunID)
	}
	if runs[0].SchemaVersion != SchemaVersion {
		t.Fatalf("expected schema version %d, got %d", SchemaVersion, runs[0].SchemaVersion)
	}
	if runs[0].Duration != 1500*time.Millisecond {
		t.Fatalf("expected duration 1.5s, got %s", runs[0].Duration)
	}
	if runs[0].RuleCounts["no-var"] != 4 || len(runs[0].RuleCounts) != 3 {
		t.Fatalf("unexpected rule counts: %+v", runs[0].RuleCounts)
	}
	if runs[1].RuleCounts != nil {
		t.Fatalf("expected nil rule counts, got %+v", runs[1].RuleCounts)
	}
	if runs[1].CommitHash != "abc123" || !runs[1].CommitTimestamp.Equal(base.Add(time.Hour)) {
		t.Fatalf("commit metadata not preserved: %+v", runs[1])
	}

	since, err := store.LoadRuns(ctx, "project-a", base.Add(time.Hour))
	if err != nil {
		t.Fatalf("load runs since: %v", err)
	}
	if len(since) != 1 || since[0].RunID != "run-2" {
		t.Fatalf("expected only run-2 after cutoff, got %+v", since)
	}
}

func TestStore_SaveRunReplacesExistingRun(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()
	ts := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)

	if err := store.SaveRun(ctx, "p", Run{RunID: "r", Timestamp: ts, Findings: 3, RuleCounts: map[string]int{"no-var": 3}}); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := store.SaveRun(ctx, "p", Run{RunID: "r", Timestamp: ts, Findings: 1, RuleCounts: map[string]int{"magic-number": 1}}); err != nil {
		t.Fatalf("save again: %v", err)
	}

	runs, err := store.LoadRuns(ctx, "p", time.Time{})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(runs) != 1 || runs[0].Findings != 1 {
		t.Fatalf("expected replaced run, got %+v", runs)
	}
	if _, ok := runs[0].RuleCounts["no-var"]; ok {
		t.Fatalf("stale rule counts survived: %+v", runs[0].RuleCounts)
	}
}

func TestStore_SaveRunDefaultsAndValidation(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	if err := store.SaveRun(ctx, "p", Run{}); err == nil {
		t.Fatal("expected error for missing run id")
	}
	if err := store.SaveRun(ctx, "p", Run{RunID: "x", SchemaVersion: 99}); err == nil {
		t.Fatal("expected error for unsupported schema version")
	}
	if err := store.SaveRun(ctx, "", Run{RunID: "defaulted"}); err != nil {
		t.Fatalf("save with defaults: %v", err)
	}
	runs, err := store.LoadRuns(ctx, "default", time.Time{})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(runs) != 1 || runs[0].Timestamp.IsZero() {
		t.Fatalf("expected defaulted timestamp under default project key, got %+v", runs)
	}
}

func TestOpen_RejectsBadPaths(t *testing.T) {
	if _, err := Open("  ", 0); err == nil {
		t.Fatal("expected error for empty path")
	}
	if _, err := Open(t.TempDir(), 0); err == nil || !strings.Contains(err.Error(), "directory") {
		t.Fatalf("expected directory error, got %v", err)
	}
}

func TestEnsureSchema_RejectsNewerVersion(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")
	store, err := Open(path, 0)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if _, err := store.db.Exec(`INSERT INTO schema_migrations(version) VALUES (?)`, latestMigration+1); err != nil {
		t.Fatalf("bump version: %v", err)
	}
	_ = store.Close()

	db, err := sql.Open(driverName, path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer db.Close()
	if err := EnsureSchema(db); err == nil || !strings.Contains(err.Error(), "newer than supported") {
		t.Fatalf("expected newer-version error, got %v", err)
	}
}

func TestWithRetry_WrapsStorageErrors(t *testing.T) {
	store := openStore(t)
	calls := 0
	err := store.withRetry("probe", func() error {
		calls++
		return sql.ErrConnDone
	})
	if calls != 1 {
		t.Fatalf("expected non-lock errors not to retry, got %d calls", calls)
	}
	if !domainerrors.IsCode(err, domainerrors.CodeStorageError) {
		t.Fatalf("expected storage error code, got %v", err)
	}

	calls = 0
	_ = store.withRetry("locked", func() error {
		calls++
		return errLocked{}
	})
	if calls != maxAttempts {
		t.Fatalf("expected %d attempts on lock errors, got %d", maxAttempts, calls)
	}
}

type errLocked struct{}

func (errLocked) Error() string { return "database is locked" }

func TestBuildTrendReport(t *testing.T) {
	base := time.Date(2026, 2, 13, 10, 0, 0, 0, time.UTC)
	runs := []Run{
		{RunID: "a", Timestamp: base, Files: 4, Findings: 8, Errors: 2},
		{RunID: "b", Timestamp: base.Add(time.Hour), Files: 4, Findings: 4, Errors: 0, ParseFailures: 1},
		{RunID: "c", Timestamp: base.Add(5 * time.Hour), Files: 0, Findings: 3, Errors: 1},
	}

	report, err := BuildTrendReport(runs, 2*time.Hour)
	if err != nil {
		t.Fatalf("build report: %v", err)
	}
	if report.RunCount != 3 || !report.Since.Equal(base) || !report.Until.Equal(base.Add(5*time.Hour)) {
		t.Fatalf("unexpected report header: %+v", report)
	}

	b := report.Points[1]
	if b.DeltaFindings != -4 || b.DeltaErrors != -2 || b.DeltaParseFailures != 1 {
		t.Fatalf("unexpected deltas: %+v", b)
	}
	if b.AvgFindings != 6 || b.AvgErrors != 1 {
		t.Fatalf("expected averages over a and b, got %+v", b)
	}
	if b.FindingsPerFile != 1 {
		t.Fatalf("expected 1 finding per file, got %v", b.FindingsPerFile)
	}

	c := report.Points[2]
	if c.AvgFindings != 3 || c.FindingsPerFile != 0 {
		t.Fatalf("expected window to exclude older runs: %+v", c)
	}

	if _, err := BuildTrendReport(nil, time.Hour); err == nil {
		t.Fatal("expected error for empty runs")
	}
}

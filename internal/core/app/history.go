package app

import (
	"context"
	"time"

	"scriptlint/internal/data/history"
)

// HistoryRun converts report into a persisted run summary.
func (r *Report) HistoryRun() history.Run {
	return history.Run{
		SchemaVersion:    history.SchemaVersion,
		RunID:            r.RunID,
		Timestamp:        r.StartedAt,
		Files:            r.Stats.Files,
		Fragments:        r.Stats.Fragments,
		Findings:         r.Stats.Findings,
		Errors:           r.Stats.Errors,
		Warnings:         r.Stats.Warnings,
		ParseFailures:    r.Stats.ParseFailures,
		DetectorFailures: r.Stats.DetectorFailures,
		Duration:         r.Stats.Duration,
		RuleCounts:       r.RuleCounts(),
	}
}

// RecordRun saves report to the history store, when one is configured.
// Partial reports are not recorded.
func (a *Analyzer) RecordRun(ctx context.Context, report *Report) error {
	if a.history == nil || report == nil || report.Partial {
		return nil
	}
	run := report.HistoryRun()
	if a.projectRoot != "" {
		run.CommitHash, run.CommitTimestamp = history.ResolveGitMetadata(a.projectRoot)
	}
	if err := a.history.SaveRun(ctx, run); err != nil {
		a.logger.Warn("failed to save run history", "run_id", run.RunID, "error", err)
		return err
	}
	return nil
}

// Trend builds a trend report over the runs recorded since the given time.
func (a *Analyzer) Trend(ctx context.Context, since time.Time, window time.Duration) (*history.TrendReport, error) {
	if a.history == nil {
		return nil, nil
	}
	runs, err := a.history.LoadRuns(ctx, since)
	if err != nil {
		return nil, err
	}
	if len(runs) == 0 {
		return nil, nil
	}
	report, err := history.BuildTrendReport(runs, window)
	if err != nil {
		return nil, err
	}
	return &report, nil
}

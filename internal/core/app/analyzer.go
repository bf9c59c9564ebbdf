package app

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/sync/errgroup"

	"scriptlint/internal/engine/rules"
	"scriptlint/internal/engine/script/parser"
	"scriptlint/internal/shared/observability"
)

// AnalyzeFragments analyses frags with at most the configured number of
// workers. Findings are ordered by file, line, column and rule.
//
// The context is checked between fragments only. When it is cancelled the
// returned report holds the fragments analysed so far, Partial is set and
// the error is the context's error.
func (a *Analyzer) AnalyzeFragments(ctx context.Context, frags []parser.Fragment) (*Report, error) {
	report := &Report{RunID: uuid.NewString(), StartedAt: time.Now().UTC()}
	err := a.analyzeInto(ctx, report, frags)

	files := make(map[string]struct{})
	for _, f := range frags {
		files[f.HostFilePath] = struct{}{}
	}
	report.Stats.Files = len(files)
	a.finish(report)
	return report, err
}

func (a *Analyzer) analyzeInto(ctx context.Context, report *Report, frags []parser.Fragment) error {
	ctx, span := observability.Tracer.Start(ctx, "app.AnalyzeFragments")
	defer span.End()
	span.SetAttributes(attribute.String("run_id", report.RunID), attribute.Int("fragments", len(frags)))

	start := time.Now()
	defer func() {
		observability.AnalysisDuration.WithLabelValues("run").Observe(time.Since(start).Seconds())
	}()

	outcomes := make([]rules.Outcome, len(frags))
	done := make([]bool, len(frags))

	var g errgroup.Group
	g.SetLimit(a.workers)
	for i := range frags {
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			res := a.cache.GetOrParse(frags[i])
			outcomes[i] = a.engine.Analyze(ctx, frags[i], res)
			done[i] = true
			return nil
		})
	}
	_ = g.Wait()

	analysed := 0
	for i, ok := range done {
		if !ok {
			continue
		}
		analysed++
		out := outcomes[i]
		report.Findings = append(report.Findings, out.Findings...)
		if out.Failure != nil {
			report.ParseFailures = append(report.ParseFailures, *out.Failure)
		}
		report.DetectorFailures = append(report.DetectorFailures, out.DetectorErrors...)
	}
	report.Stats.Fragments = analysed
	rules.SortFindings(report.Findings)

	if analysed < len(frags) {
		report.Partial = true
		err := ctx.Err()
		if err == nil {
			err = context.Canceled
		}
		span.SetStatus(codes.Error, "cancelled")
		a.logger.Warn("analysis cancelled", "run_id", report.RunID, "analysed", analysed, "total", len(frags))
		return err
	}
	return nil
}

// AnalyzeFiles extracts and analyses the given host files. Files that
// cannot be read or decoded are logged, listed in ExtractErrors and skipped.
func (a *Analyzer) AnalyzeFiles(ctx context.Context, files []string) (*Report, error) {
	report := &Report{RunID: uuid.NewString(), StartedAt: time.Now().UTC()}
	report.Stats.Files = len(files)

	var frags []parser.Fragment
	for _, path := range files {
		if ctx.Err() != nil {
			break
		}
		fs, err := a.extractor.ExtractFile(path)
		if err != nil {
			observability.ExtractErrorsTotal.Inc()
			a.logger.Warn("failed to extract fragments", "path", path, "error", err)
			report.ExtractErrors = append(report.ExtractErrors, FileError{Path: path, Error: err.Error()})
			continue
		}
		frags = append(frags, fs...)
	}

	err := a.analyzeInto(ctx, report, frags)
	if err == nil && ctx.Err() != nil {
		report.Partial = true
		err = ctx.Err()
	}
	a.finish(report)
	return report, err
}

// AnalyzePaths scans paths for host files and analyses them.
func (a *Analyzer) AnalyzePaths(ctx context.Context, paths []string) (*Report, error) {
	files, err := a.ScanPaths(paths)
	if err != nil {
		return nil, err
	}
	return a.AnalyzeFiles(ctx, files)
}

func (a *Analyzer) finish(report *Report) {
	report.Stats.Duration = time.Since(report.StartedAt)
	report.tally()
	a.lastReport.Store(report)
	a.logger.Debug("analysis finished",
		"run_id", report.RunID,
		"files", report.Stats.Files,
		"fragments", report.Stats.Fragments,
		"findings", report.Stats.Findings,
		"duration", report.Stats.Duration)
}

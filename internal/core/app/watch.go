package app

import (
	"context"
	"slices"

	"scriptlint/internal/core/watcher"
	"scriptlint/internal/shared/util"
)

// Watch runs an initial analysis of the configured paths and re-runs it
// whenever a descriptor or script file below them changes, passing every
// report to onReport. Re-runs are spaced at least one debounce interval
// apart. Watch returns when ctx is cancelled.
func (a *Analyzer) Watch(ctx context.Context, onReport func(*Report)) error {
	runOnce := func() {
		report, err := a.AnalyzePaths(ctx, a.cfg.Paths)
		if err != nil {
			if ctx.Err() == nil {
				a.logger.Error("analysis failed", "error", err)
			}
			return
		}
		_ = a.RecordRun(ctx, report)
		onReport(report)
	}
	runOnce()
	if ctx.Err() != nil {
		return nil
	}

	changes := make(chan []string, 16)
	w, err := watcher.NewWatcher(
		a.cfg.Watch.Debounce,
		a.watchExtensions(),
		a.cfg.Exclude.Dirs,
		a.cfg.Exclude.Files,
		func(paths []string) {
			select {
			case changes <- paths:
			case <-ctx.Done():
			}
		},
	)
	if err != nil {
		return err
	}
	w.SetLogger(a.logger)
	defer w.Close()

	if err := w.Watch(util.UniqueRoots(a.cfg.Paths)); err != nil {
		return err
	}
	a.logger.Info("watching for changes", "paths", a.cfg.Paths)

	limiter := util.NewLimiter(a.cfg.Watch.Debounce, 1)
	for {
		select {
		case <-ctx.Done():
			return nil
		case paths := <-changes:
			if err := limiter.Wait(ctx); err != nil {
				return nil
			}
			a.logger.Info("files changed", "count", len(paths), "paths", paths)
			runOnce()
		}
	}
}

func (a *Analyzer) watchExtensions() []string {
	exts := slices.Concat(a.cfg.Extract.DescriptorExtensions, a.cfg.Extract.ScriptExtensions)
	slices.Sort(exts)
	return slices.Compact(exts)
}

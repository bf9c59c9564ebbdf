package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"scriptlint/internal/core/app"
	"scriptlint/internal/core/config"
	"scriptlint/internal/data/history"
	"scriptlint/internal/shared/observability"
)

const VERSION = "0.3.0"

const (
	exitOK       = 0
	exitFindings = 1
	exitFailure  = 2
)

type options struct {
	configPath string
	once       bool
	watch      bool
	verbose    bool
	version    bool
	listRules  bool
	paths      []string
}

func parseFlags(args []string, stderr io.Writer) (options, error) {
	fs := flag.NewFlagSet("scriptlint", flag.ContinueOnError)
	fs.SetOutput(stderr)

	var opts options
	fs.StringVar(&opts.configPath, "config", "", "Path to config file (default: scriptlint.toml when present)")
	fs.BoolVar(&opts.once, "once", true, "Run a single analysis and exit")
	fs.BoolVar(&opts.watch, "watch", false, "Re-run the analysis when descriptor or script files change")
	fs.BoolVar(&opts.verbose, "verbose", false, "Enable verbose logging")
	fs.BoolVar(&opts.version, "version", false, "Print version and exit")
	fs.BoolVar(&opts.listRules, "list-rules", false, "List the available rules and exit")
	if err := fs.Parse(args); err != nil {
		return opts, err
	}
	opts.paths = fs.Args()
	if opts.watch {
		opts.once = false
	}
	return opts, nil
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	opts, err := parseFlags(args, stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return exitOK
		}
		return exitFailure
	}

	if opts.version {
		fmt.Fprintf(stdout, "scriptlint v%s\n", VERSION)
		return exitOK
	}

	logLevel := slog.LevelInfo
	if opts.verbose {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: logLevel}))
	slog.SetDefault(logger)

	cfgPath, cfg, err := loadConfig(opts.configPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		return exitFailure
	}
	if len(opts.paths) > 0 {
		cfg.Paths = opts.paths
	}

	if opts.listRules {
		printRules(stdout, cfg)
		return exitOK
	}

	shutdownTracing, err := observability.SetupTracing(ctx, cfg.Observability.OTLPEndpoint)
	if err != nil {
		logger.Error("failed to set up tracing", "error", err)
		return exitFailure
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(flushCtx); err != nil {
			logger.Warn("failed to flush traces", "error", err)
		}
	}()

	root, err := config.DetectProjectRoot(append([]string{cfgPath}, cfg.Paths...))
	if err != nil {
		logger.Error("failed to detect project root", "error", err)
		return exitFailure
	}

	deps := app.Dependencies{Logger: logger, ProjectRoot: root}
	if cfg.History.Enabled {
		store, err := history.Open(cfg.HistoryPath(root), cfg.History.BusyTimeout)
		if err != nil {
			logger.Error("failed to open history store", "error", err)
			return exitFailure
		}
		defer store.Close()
		deps.History = history.NewAdapter(store, root)
	}

	analyzer, err := app.NewWithDependencies(cfg, deps)
	if err != nil {
		logger.Error("failed to initialize analyzer", "error", err)
		return exitFailure
	}

	if cfg.Observability.MetricsAddress != "" {
		server := observability.NewServer(cfg.Observability.MetricsAddress, analyzer.Health, logger)
		if err := server.Start(); err != nil {
			logger.Error("failed to start observability server", "error", err)
			return exitFailure
		}
		defer func() {
			stopCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = server.Stop(stopCtx)
		}()
	}

	if opts.once {
		return runOnce(ctx, analyzer, cfg, stdout, logger)
	}
	return runWatch(ctx, analyzer, cfg, cfgPath, deps, stdout, logger)
}

func runOnce(ctx context.Context, analyzer *app.Analyzer, cfg *config.Config, stdout io.Writer, logger *slog.Logger) int {
	report, err := analyzer.AnalyzePaths(ctx, cfg.Paths)
	if err != nil && report == nil {
		logger.Error("analysis failed", "error", err)
		return exitFailure
	}
	printSummary(stdout, report)
	if err != nil {
		logger.Error("analysis interrupted", "error", err)
		return exitFailure
	}
	_ = analyzer.RecordRun(ctx, report)
	logger.Debug("memory", "heap_alloc_mb", observability.HeapAllocMB())

	if report.HasErrors() {
		return exitFindings
	}
	return exitOK
}

// runWatch keeps analysing until ctx is cancelled. A config file change
// rebuilds the analyzer and restarts the watch loop.
func runWatch(ctx context.Context, analyzer *app.Analyzer, cfg *config.Config, cfgPath string, deps app.Dependencies, stdout io.Writer, logger *slog.Logger) int {
	reloads := make(chan *config.Config, 1)
	if cfgPath != "" {
		cw := config.NewWatcher(cfgPath, func(next *config.Config) {
			select {
			case reloads <- next:
			default:
			}
		})
		if err := cw.Start(ctx); err != nil {
			logger.Warn("config reload disabled", "path", cfgPath, "error", err)
		} else {
			defer cw.Stop()
		}
	}

	for {
		genCtx, cancel := context.WithCancel(ctx)
		done := make(chan error, 1)
		go func() {
			done <- analyzer.Watch(genCtx, func(r *app.Report) { printSummary(stdout, r) })
		}()

		select {
		case <-ctx.Done():
			cancel()
			<-done
			return exitOK
		case err := <-done:
			cancel()
			if err != nil {
				logger.Error("watch failed", "error", err)
				return exitFailure
			}
			return exitOK
		case next := <-reloads:
			cancel()
			<-done
			next.Paths = cfg.Paths
			rebuilt, err := app.NewWithDependencies(next, deps)
			if err != nil {
				logger.Error("reloaded config rejected; keeping previous", "error", err)
				continue
			}
			logger.Info("config reloaded", "path", cfgPath)
			analyzer, cfg = rebuilt, next
		}
	}
}

// loadConfig loads path, or scriptlint.toml from the working directory when
// path is empty and that file exists, or the defaults.
func loadConfig(path string) (string, *config.Config, error) {
	if strings.TrimSpace(path) == "" {
		if _, err := os.Stat("scriptlint.toml"); err != nil {
			return "", config.DefaultConfig(), nil
		}
		path = "scriptlint.toml"
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", nil, err
	}
	cfg, err := config.Load(abs)
	if err != nil {
		return "", nil, err
	}
	return abs, cfg, nil
}

// Package app drives an analysis run: it discovers host files, extracts
// their fragments, fans them out to the rule engine and assembles a Report.
package app

import (
	"errors"
	"log/slog"
	"sync/atomic"

	"github.com/gobwas/glob"

	"scriptlint/internal/core/config"
	"scriptlint/internal/core/ports"
	"scriptlint/internal/engine/cache"
	"scriptlint/internal/engine/extract"
	"scriptlint/internal/engine/rules"
	"scriptlint/internal/shared/util"
)

// Dependencies are the adapters an Analyzer runs on. Nil fields are built
// from the configuration.
type Dependencies struct {
	Extractor ports.FragmentExtractor
	Cache     ports.ParseCache
	Engine    ports.RuleEngine
	History   ports.HistoryStore
	Logger    *slog.Logger
	// ProjectRoot is used to stamp history runs with git metadata.
	ProjectRoot string
}

// Analyzer runs analyses over fragments and host files. It is safe for
// concurrent use; the parse cache is shared across runs.
type Analyzer struct {
	cfg          *config.Config
	extractor    ports.FragmentExtractor
	cache        ports.ParseCache
	engine       ports.RuleEngine
	history      ports.HistoryStore
	logger       *slog.Logger
	workers      int
	projectRoot  string
	excludeDirs  []glob.Glob
	excludeFiles []glob.Glob

	lastReport atomic.Pointer[Report]
}

// New builds an Analyzer with the default extractor, cache and rule engine
// for cfg.
func New(cfg *config.Config, logger *slog.Logger) (*Analyzer, error) {
	return NewWithDependencies(cfg, Dependencies{Logger: logger})
}

func NewWithDependencies(cfg *config.Config, deps Dependencies) (*Analyzer, error) {
	if cfg == nil {
		return nil, errors.New("config is required")
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	a := &Analyzer{
		cfg:         cfg,
		extractor:   deps.Extractor,
		cache:       deps.Cache,
		engine:      deps.Engine,
		history:     deps.History,
		logger:      logger,
		workers:     cfg.WorkerCount(),
		projectRoot: deps.ProjectRoot,
	}

	if a.extractor == nil {
		ex, err := extract.New(cfg.ExtractOptions())
		if err != nil {
			return nil, err
		}
		a.extractor = ex
	}
	if a.cache == nil {
		a.cache = cache.New(cfg.Cache.MaxEntries)
	}
	if a.engine == nil {
		engine, err := rules.NewEngine(rules.DefaultRegistry(), cfg.Rules, logger)
		if err != nil {
			return nil, err
		}
		a.engine = engine
	}

	var err error
	if a.excludeDirs, err = util.CompileGlobs(cfg.Exclude.Dirs, "exclude dir"); err != nil {
		return nil, err
	}
	if a.excludeFiles, err = util.CompileGlobs(cfg.Exclude.Files, "exclude file"); err != nil {
		return nil, err
	}
	return a, nil
}

// LastReport returns the most recent completed or partial report, or nil.
func (a *Analyzer) LastReport() *Report {
	return a.lastReport.Load()
}

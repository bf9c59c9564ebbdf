// Package ports declares the interfaces between the analysis pipeline and
// its adapters.
package ports

import (
	"context"
	"time"

	"scriptlint/internal/data/history"
	"scriptlint/internal/engine/rules"
	"scriptlint/internal/engine/script/parser"
)

// FragmentExtractor turns host files into script fragments.
type FragmentExtractor interface {
	Supports(path string) bool
	ExtractFile(path string) ([]parser.Fragment, error)
}

// ParseCache memoizes parse results by fragment text.
type ParseCache interface {
	GetOrParse(f parser.Fragment) *parser.Result
	Len() int
}

// RuleEngine runs the enabled detectors over one parsed fragment.
type RuleEngine interface {
	Analyze(ctx context.Context, frag parser.Fragment, res *parser.Result) rules.Outcome
	Enabled() []string
}

// HistoryStore abstracts run-summary persistence for trend reporting.
type HistoryStore interface {
	SaveRun(ctx context.Context, run history.Run) error
	LoadRuns(ctx context.Context, since time.Time) ([]history.Run, error)
}

package rules

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainerrors "scriptlint/internal/core/errors"
	"scriptlint/internal/engine/detectors"
	"scriptlint/internal/engine/script/parser"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newEngine(t *testing.T, cfg Config) *Engine {
	t.Helper()
	e, err := NewEngine(DefaultRegistry(), cfg, quietLogger())
	require.NoError(t, err)
	return e
}

func analyze(e *Engine, frag parser.Fragment) Outcome {
	return e.Analyze(context.Background(), frag, parser.ParseFragment(frag))
}

func ruleIDs(fs []Finding) []string {
	out := make([]string, 0, len(fs))
	for _, f := range fs {
		out = append(out, f.RuleID)
	}
	return out
}

func enabled(v bool) *bool { return &v }

func TestScenarioVarAndConsoleWithBaseLine(t *testing.T) {
	frag := parser.Fragment{
		Text:          `var count = 0; const msg = "n=" + count; console.info(msg);`,
		BaseLine:      10,
		HostFilePath:  "apps/orders.json",
		HostFieldPath: "pages[0].onLoad",
	}
	out := analyze(newEngine(t, nil), frag)
	require.Nil(t, out.Failure)
	require.Equal(t, []string{"no-var", "console-statement"}, ruleIDs(out.Findings))

	noVar := out.Findings[0]
	assert.Equal(t, 10, noVar.Line)
	assert.Equal(t, 1, noVar.Column)
	assert.Equal(t, SeverityWarning, noVar.Severity)
	assert.Equal(t, "count", noVar.Metadata["name"])
	assert.Equal(t, "apps/orders.json", noVar.FilePath)
	assert.Equal(t, "pages[0].onLoad", noVar.FieldPath)

	console := out.Findings[1]
	assert.Equal(t, 10, console.Line)
	assert.Equal(t, 42, console.Column)
}

func TestAbsoluteLinesAcrossFragmentLines(t *testing.T) {
	frag := parser.Fragment{Text: "let a = 1\n\nconsole.log(a)", BaseLine: 5, HostFilePath: "x.json"}
	out := analyze(newEngine(t, nil), frag)
	require.Len(t, out.Findings, 1)
	assert.Equal(t, 7, out.Findings[0].Line)
}

const fiveWay = `function route(a, b, c, d) {
  if (a) { x() }
  if (b && c) { y() }
  if (d) { z() }
}
route(1, 2, 3, 4)`

func TestThresholdAndSeverityOverrides(t *testing.T) {
	frag := parser.Fragment{Text: fiveWay, BaseLine: 1, HostFilePath: "route.js", Standalone: true}

	out := analyze(newEngine(t, nil), frag)
	assert.NotContains(t, ruleIDs(out.Findings), "complexity")

	out = analyze(newEngine(t, Config{
		"complexity":   {Thresholds: map[string]int{"max_complexity": 4}},
		"magic-number": {Enabled: enabled(false)},
	}), frag)
	require.Equal(t, []string{"complexity"}, ruleIDs(out.Findings))
	assert.Equal(t, SeverityError, out.Findings[0].Severity)

	out = analyze(newEngine(t, Config{
		"complexity":   {Severity: "warning", Thresholds: map[string]int{"max_complexity": 4}},
		"magic-number": {Enabled: enabled(false)},
	}), frag)
	require.Len(t, out.Findings, 1)
	assert.Equal(t, SeverityWarning, out.Findings[0].Severity)
}

func TestDisabledRulesDoNotRun(t *testing.T) {
	e := newEngine(t, Config{"console-statement": {Enabled: enabled(false)}})
	assert.NotContains(t, e.Enabled(), "console-statement")
	out := analyze(e, parser.Fragment{Text: "console.log(1)", BaseLine: 1})
	assert.Empty(t, out.Findings)
}

func TestParseErrorsBecomeFindings(t *testing.T) {
	frag := parser.Fragment{Text: "let ok = 1\nlet = 5\nlet shown = ok\nconsole.log(shown)", BaseLine: 20, HostFilePath: "bad.json", HostFieldPath: "script"}
	out := analyze(newEngine(t, nil), frag)

	require.NotNil(t, out.Failure)
	require.NotEmpty(t, out.Failure.Errors)
	assert.Equal(t, "bad.json", out.Failure.FilePath)
	assert.Equal(t, 21, out.Failure.Errors[0].Line)
	assert.Equal(t, "syntax", out.Failure.Errors[0].Kind)
	assert.Equal(t, string(domainerrors.CodeParseError), out.Failure.Errors[0].Code)

	ids := ruleIDs(out.Findings)
	assert.Contains(t, ids, ParseErrorID)
	assert.Contains(t, ids, "console-statement", "detectors still run on the partial tree")

	out = analyze(newEngine(t, Config{ParseErrorID: {Enabled: enabled(false)}}), frag)
	assert.NotContains(t, ruleIDs(out.Findings), ParseErrorID)
	assert.NotNil(t, out.Failure)
}

func TestLexErrorsCarryLexCode(t *testing.T) {
	out := analyze(newEngine(t, nil), parser.Fragment{Text: "let s = \"open", BaseLine: 1, HostFilePath: "lex.json"})
	require.NotNil(t, out.Failure)
	var codes []string
	for _, d := range out.Failure.Errors {
		codes = append(codes, d.Code)
	}
	assert.Contains(t, codes, string(domainerrors.CodeLexError))
	for _, f := range out.Findings {
		if f.RuleID == ParseErrorID {
			assert.NotEmpty(t, f.Metadata["code"])
		}
	}
}

func TestDetectorPanicIsRecovered(t *testing.T) {
	var logs bytes.Buffer
	rules := append(DefaultRules(), Rule{
		ID:       "exploding",
		Severity: SeverityWarning,
		Detect: func(*detectors.Input) []detectors.Violation {
			panic("index out of range")
		},
	})
	registry, err := NewRegistry(rules...)
	require.NoError(t, err)
	e, err := NewEngine(registry, nil, slog.New(slog.NewTextHandler(&logs, nil)))
	require.NoError(t, err)

	out := e.Analyze(context.Background(),
		parser.Fragment{Text: "console.log(1)", BaseLine: 3, HostFilePath: "a.json", HostFieldPath: "f"},
		parser.Parse("console.log(1)"))

	assert.Equal(t, []string{"console-statement"}, ruleIDs(out.Findings))
	require.Len(t, out.DetectorErrors, 1)
	derr := out.DetectorErrors[0]
	assert.Equal(t, "exploding", derr.RuleID)
	assert.True(t, domainerrors.IsCode(derr, domainerrors.CodeDetectorError))
	var de *domainerrors.DomainError
	require.ErrorAs(t, derr, &de)
	assert.Equal(t, "exploding", de.Context[domainerrors.CtxRule])
	assert.Equal(t, "f", de.Context[domainerrors.CtxField])
	assert.Contains(t, logs.String(), "rule=exploding")
	assert.Contains(t, logs.String(), "file=a.json")
}

func TestNewEngineRejectsInvalidConfig(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
		want string
	}{
		{"unknown rule", Config{"no-such-rule": {}}, "unknown rule"},
		{"bad severity", Config{"no-var": {Severity: "fatal"}}, "unknown severity"},
		{"unknown threshold", Config{"nesting": {Thresholds: map[string]int{"max_complexity": 3}}}, "unknown threshold"},
		{"threshold on rule without thresholds", Config{"no-var": {Thresholds: map[string]int{"max": 1}}}, "unknown threshold"},
		{"zero threshold", Config{"nesting": {Thresholds: map[string]int{"max_nesting": 0}}}, "must be > 0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewEngine(DefaultRegistry(), tt.cfg, quietLogger())
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
			assert.True(t, domainerrors.IsCode(err, domainerrors.CodeValidationError))
		})
	}
}

func TestSortFindings(t *testing.T) {
	fs := []Finding{
		{FilePath: "b.json", Line: 1, Column: 1, RuleID: "no-var"},
		{FilePath: "a.json", Line: 9, Column: 1, RuleID: "no-var"},
		{FilePath: "a.json", Line: 2, Column: 5, RuleID: "no-var"},
		{FilePath: "a.json", Line: 2, Column: 5, RuleID: "magic-number"},
		{FilePath: "a.json", Line: 2, Column: 1, RuleID: "unused-variable"},
	}
	SortFindings(fs)
	assert.Equal(t, []Finding{
		{FilePath: "a.json", Line: 2, Column: 1, RuleID: "unused-variable"},
		{FilePath: "a.json", Line: 2, Column: 5, RuleID: "magic-number"},
		{FilePath: "a.json", Line: 2, Column: 5, RuleID: "no-var"},
		{FilePath: "a.json", Line: 9, Column: 1, RuleID: "no-var"},
		{FilePath: "b.json", Line: 1, Column: 1, RuleID: "no-var"},
	}, fs)
}

func TestNilResult(t *testing.T) {
	out := newEngine(t, nil).Analyze(context.Background(), parser.Fragment{}, nil)
	assert.Empty(t, out.Findings)
	assert.Nil(t, out.Failure)
}

package rules

import (
	"cmp"
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"slices"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	domainerrors "scriptlint/internal/core/errors"
	"scriptlint/internal/engine/detectors"
	"scriptlint/internal/engine/script/parser"
	"scriptlint/internal/shared/observability"
)

// Finding is a violation lifted into host-file coordinates and tagged with
// rule metadata.
type Finding struct {
	RuleID    string            `json:"rule_id"`
	Severity  Severity          `json:"severity"`
	Message   string            `json:"message"`
	FilePath  string            `json:"file_path"`
	FieldPath string            `json:"field_path,omitempty"`
	Line      int               `json:"line"`
	Column    int               `json:"column"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

// Diagnostic is one parse error at an absolute host-file position.
type Diagnostic struct {
	Kind     string `json:"kind"`
	Code     string `json:"code"`
	Line     int    `json:"line"`
	Column   int    `json:"column"`
	Message  string `json:"message"`
	Expected string `json:"expected,omitempty"`
	Found    string `json:"found,omitempty"`
}

// ParseFailure lists the parse errors of one fragment.
type ParseFailure struct {
	FilePath  string       `json:"file_path"`
	FieldPath string       `json:"field_path,omitempty"`
	Errors    []Diagnostic `json:"errors"`
}

// Outcome is the result of analysing one fragment.
type Outcome struct {
	Findings []Finding
	// Failure is set when the fragment had parse errors.
	Failure *ParseFailure
	// DetectorErrors lists detector faults that were recovered and skipped.
	DetectorErrors []*DetectorError
}

// DetectorError is a detector implementation fault, recovered per
// (fragment, rule).
type DetectorError struct {
	RuleID    string
	FilePath  string
	FieldPath string
	Cause     any
	Stack     []byte
}

func (e *DetectorError) Error() string {
	return fmt.Sprintf("detector %s failed on %s %s: %v", e.RuleID, e.FilePath, e.FieldPath, e.Cause)
}

// Unwrap exposes the domain error code.
func (e *DetectorError) Unwrap() error {
	de := &domainerrors.DomainError{Code: domainerrors.CodeDetectorError, Message: fmt.Sprint(e.Cause)}
	return de.WithContext(domainerrors.CtxRule, e.RuleID).
		WithContext(domainerrors.CtxPath, e.FilePath).
		WithContext(domainerrors.CtxField, e.FieldPath)
}

// Engine runs the enabled rules of a registry over parsed fragments. It is
// safe for concurrent use.
type Engine struct {
	rules     []resolved
	parseRule *resolved
	logger    *slog.Logger
}

// NewEngine resolves cfg against registry. A nil logger falls back to
// slog.Default().
func NewEngine(registry *Registry, cfg Config, logger *slog.Logger) (*Engine, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := registry.Validate(cfg); err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeValidationError, "invalid rule configuration")
	}
	e := &Engine{logger: logger}
	for _, rule := range registry.rules {
		r, enabled, err := resolve(rule, cfg[rule.ID])
		if err != nil {
			return nil, err
		}
		if !enabled {
			continue
		}
		if rule.ID == ParseErrorID {
			e.parseRule = &r
			continue
		}
		e.rules = append(e.rules, r)
	}
	return e, nil
}

// Enabled returns the ids of the rules the engine will run.
func (e *Engine) Enabled() []string {
	ids := make([]string, 0, len(e.rules)+1)
	for _, r := range e.rules {
		ids = append(ids, r.ID)
	}
	if e.parseRule != nil {
		ids = append(ids, ParseErrorID)
	}
	return ids
}

// Analyze runs every enabled detector over res, the parse result of frag.
// Detectors run on partial trees too; parse errors become parse-error
// findings and are listed in Outcome.Failure.
func (e *Engine) Analyze(ctx context.Context, frag parser.Fragment, res *parser.Result) Outcome {
	_, span := observability.Tracer.Start(ctx, "rules.Analyze", trace.WithAttributes(
		attribute.String("file", frag.HostFilePath),
		attribute.String("field", frag.HostFieldPath),
	))
	defer span.End()
	start := time.Now()
	defer func() {
		observability.AnalysisDuration.WithLabelValues("detect").Observe(time.Since(start).Seconds())
	}()
	observability.FragmentsAnalyzedTotal.Inc()

	var out Outcome
	if res == nil {
		return out
	}
	if len(res.Errors) > 0 {
		observability.ParseFailuresTotal.Inc()
		out.Failure = e.parseFailure(frag, res.Errors)
		if e.parseRule != nil {
			for _, d := range out.Failure.Errors {
				out.Findings = append(out.Findings, Finding{
					RuleID:    ParseErrorID,
					Severity:  e.parseRule.Severity,
					Message:   d.Message,
					FilePath:  frag.HostFilePath,
					FieldPath: frag.HostFieldPath,
					Line:      d.Line,
					Column:    d.Column,
					Metadata:  map[string]string{"kind": d.Kind, "code": d.Code},
				})
			}
		}
	}

	if res.Program != nil && len(e.rules) > 0 {
		in := detectors.NewInput(res.Program, frag.Standalone)
		for _, rule := range e.rules {
			vs, derr := e.run(rule, in, frag)
			if derr != nil {
				out.DetectorErrors = append(out.DetectorErrors, derr)
				continue
			}
			for _, v := range vs {
				out.Findings = append(out.Findings, Finding{
					RuleID:    rule.ID,
					Severity:  rule.Severity,
					Message:   v.Message,
					FilePath:  frag.HostFilePath,
					FieldPath: frag.HostFieldPath,
					Line:      frag.AbsoluteLine(v.Line),
					Column:    v.Column,
					Metadata:  v.Metadata,
				})
			}
		}
	}

	for _, f := range out.Findings {
		observability.FindingsTotal.WithLabelValues(f.RuleID, string(f.Severity)).Inc()
	}
	SortFindings(out.Findings)
	span.SetAttributes(attribute.Int("findings", len(out.Findings)))
	return out
}

// run invokes one detector, converting a panic into a DetectorError.
func (e *Engine) run(rule resolved, in *detectors.Input, frag parser.Fragment) (vs []detectors.Violation, derr *DetectorError) {
	defer func() {
		if r := recover(); r != nil {
			derr = &DetectorError{
				RuleID:    rule.ID,
				FilePath:  frag.HostFilePath,
				FieldPath: frag.HostFieldPath,
				Cause:     r,
				Stack:     debug.Stack(),
			}
			vs = nil
			observability.DetectorFailuresTotal.WithLabelValues(rule.ID).Inc()
			e.logger.Error("detector failed",
				"rule", rule.ID,
				"file", frag.HostFilePath,
				"field", frag.HostFieldPath,
				"error", r)
		}
	}()
	return rule.Detect(in.WithThresholds(rule.thresholds)), nil
}

func (e *Engine) parseFailure(frag parser.Fragment, errs []*parser.Error) *ParseFailure {
	pf := &ParseFailure{FilePath: frag.HostFilePath, FieldPath: frag.HostFieldPath}
	for _, pe := range errs {
		code, _ := domainerrors.CodeOf(pe)
		pf.Errors = append(pf.Errors, Diagnostic{
			Kind:     pe.Kind.String(),
			Code:     string(code),
			Line:     frag.AbsoluteLine(pe.Pos.Line),
			Column:   pe.Pos.Column,
			Message:  pe.Msg,
			Expected: pe.Expected,
			Found:    pe.Found,
		})
	}
	return pf
}

// SortFindings orders findings by file, line, column and rule id.
func SortFindings(fs []Finding) {
	slices.SortStableFunc(fs, func(a, b Finding) int {
		return cmp.Or(
			cmp.Compare(a.FilePath, b.FilePath),
			cmp.Compare(a.Line, b.Line),
			cmp.Compare(a.Column, b.Column),
			cmp.Compare(a.RuleID, b.RuleID),
		)
	})
}

// Package detectors holds one pure function per rule family. A detector reads
// the AST and the analyzer outputs and returns fragment-relative violations;
// it never mutates its input.
package detectors

import (
	"strconv"

	"scriptlint/internal/engine/flow"
	"scriptlint/internal/engine/metrics"
	"scriptlint/internal/engine/scope"
	"scriptlint/internal/engine/script/ast"
)

// Violation is a rule hit at a fragment-relative position.
type Violation struct {
	Message  string
	Line     int
	Column   int
	Metadata map[string]string
}

// Thresholds are the resolved numeric limits of one rule.
type Thresholds map[string]int

// Get returns the threshold for key, or def when unset.
func (t Thresholds) Get(key string, def int) int {
	if v, ok := t[key]; ok {
		return v
	}
	return def
}

// Input is everything a detector may read for one fragment.
type Input struct {
	Program    *ast.Program
	Scope      *scope.Info
	Flow       *flow.Info
	Metrics    *metrics.Info
	Thresholds Thresholds
}

// NewInput runs the analyzers over prog. standalone enables export
// detection.
func NewInput(prog *ast.Program, standalone bool) *Input {
	return &Input{
		Program: prog,
		Scope:   scope.Analyze(prog, standalone),
		Flow:    flow.Analyze(prog),
		Metrics: metrics.Analyze(prog),
	}
}

// WithThresholds returns a shallow copy of in carrying t.
func (in *Input) WithThresholds(t Thresholds) *Input {
	cp := *in
	cp.Thresholds = t
	return &cp
}

// Func is the detector signature.
type Func func(in *Input) []Violation

func at(span ast.Span, msg string, meta map[string]string) Violation {
	return Violation{Message: msg, Line: span.Line, Column: span.Column, Metadata: meta}
}

func itoa(n int) string { return strconv.Itoa(n) }

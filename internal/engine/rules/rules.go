// Package rules maps detectors to rule identities and runs them over parsed
// fragments, lifting violations into host-file findings.
package rules

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"scriptlint/internal/engine/detectors"
)

// Severity is the level attached to a finding.
type Severity string

const (
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// ParseSeverity accepts "warning" or "error", case-insensitively.
func ParseSeverity(s string) (Severity, error) {
	switch Severity(strings.ToLower(strings.TrimSpace(s))) {
	case SeverityWarning:
		return SeverityWarning, nil
	case SeverityError:
		return SeverityError, nil
	}
	return "", fmt.Errorf("unknown severity %q (want warning or error)", s)
}

// ParseErrorID is the rule emitted by the engine itself for fragments that
// could not be fully parsed. It has no detector.
const ParseErrorID = "parse-error"

// Rule is a detector plus its identity, default severity and thresholds.
type Rule struct {
	ID          string
	Description string
	Severity    Severity
	// Defaults lists every threshold the rule understands.
	Defaults detectors.Thresholds
	Detect   detectors.Func
}

// DefaultRules returns the built-in rule table.
func DefaultRules() []Rule {
	return []Rule{
		{ID: "unused-variable", Description: "declared variables never read and not exported", Severity: SeverityWarning, Detect: detectors.UnusedVariables},
		{ID: "unused-parameter", Description: "parameters never referenced in their function", Severity: SeverityWarning, Detect: detectors.UnusedParameters},
		{ID: "unused-function", Description: "function declarations never referenced or exported", Severity: SeverityWarning, Detect: detectors.UnusedFunctions},
		{
			ID: "complexity", Description: "cyclomatic complexity above the limit", Severity: SeverityError,
			Defaults: detectors.Thresholds{"max_complexity": detectors.DefaultMaxComplexity},
			Detect:   detectors.Complexity,
		},
		{
			ID: "nesting", Description: "constructs nested deeper than the limit", Severity: SeverityWarning,
			Defaults: detectors.Thresholds{"max_nesting": detectors.DefaultMaxNesting},
			Detect:   detectors.Nesting,
		},
		{
			ID: "max-params", Description: "functions declaring too many parameters", Severity: SeverityWarning,
			Defaults: detectors.Thresholds{"max_params": detectors.DefaultMaxParams},
			Detect:   detectors.MaxParams,
		},
		{
			ID: "function-length", Description: "functions spanning too many lines", Severity: SeverityWarning,
			Defaults: detectors.Thresholds{"max_lines": detectors.DefaultMaxLines},
			Detect:   detectors.FunctionLength,
		},
		{ID: "return-consistency", Description: "functions mixing value returns with fallthrough or bare returns", Severity: SeverityError, Detect: detectors.ReturnConsistency},
		{ID: "unreachable-code", Description: "statements after return, break or continue", Severity: SeverityWarning, Detect: detectors.UnreachableCode},
		{
			ID: "null-safety", Description: "long member chains without optional chaining", Severity: SeverityWarning,
			Defaults: detectors.Thresholds{"max_chain_depth": detectors.DefaultMaxChainDepth},
			Detect:   detectors.NullSafety,
		},
		{ID: "naming-convention", Description: "names that are not camelCase", Severity: SeverityWarning, Detect: detectors.NamingConvention},
		{ID: "magic-number", Description: "numeric literals outside constant initialisers", Severity: SeverityWarning, Detect: detectors.MagicNumber},
		{ID: "verbose-boolean", Description: "comparisons against boolean literals", Severity: SeverityWarning, Detect: detectors.VerboseBoolean},
		{ID: "console-statement", Description: "console.* calls", Severity: SeverityWarning, Detect: detectors.ConsoleStatement},
		{ID: "no-var", Description: "var declarations", Severity: SeverityWarning, Detect: detectors.NoVar},
		{ID: "shadowed-variable", Description: "declarations shadowing an enclosing binding", Severity: SeverityWarning, Detect: detectors.ShadowedVariable},
		{ID: ParseErrorID, Description: "fragments that could not be fully parsed", Severity: SeverityError},
	}
}

// Registry is an ordered, id-indexed set of rules.
type Registry struct {
	rules []Rule
	byID  map[string]int
}

// NewRegistry builds a registry, rejecting empty and duplicate ids.
func NewRegistry(rules ...Rule) (*Registry, error) {
	r := &Registry{byID: make(map[string]int, len(rules))}
	for _, rule := range rules {
		if err := r.Register(rule); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// DefaultRegistry returns a registry holding DefaultRules.
func DefaultRegistry() *Registry {
	r, err := NewRegistry(DefaultRules()...)
	if err != nil {
		panic(err)
	}
	return r
}

// Register adds rule to the registry.
func (r *Registry) Register(rule Rule) error {
	if strings.TrimSpace(rule.ID) == "" {
		return fmt.Errorf("rule id is required")
	}
	if _, exists := r.byID[rule.ID]; exists {
		return fmt.Errorf("duplicate rule id %q", rule.ID)
	}
	if rule.Detect == nil && rule.ID != ParseErrorID {
		return fmt.Errorf("rule %q has no detector", rule.ID)
	}
	r.byID[rule.ID] = len(r.rules)
	r.rules = append(r.rules, rule)
	return nil
}

// Rules returns the rules in registration order.
func (r *Registry) Rules() []Rule {
	return slices.Clone(r.rules)
}

// Get returns the rule registered as id.
func (r *Registry) Get(id string) (Rule, bool) {
	i, ok := r.byID[id]
	if !ok {
		return Rule{}, false
	}
	return r.rules[i], true
}

// IDs returns the registered rule ids, sorted.
func (r *Registry) IDs() []string {
	return slices.Sorted(maps.Keys(r.byID))
}

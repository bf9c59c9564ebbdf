package detectors

import (
	"fmt"

	"scriptlint/internal/engine/metrics"
)

// Default thresholds.
const (
	DefaultMaxComplexity = 10
	DefaultMaxNesting    = 4
	DefaultMaxParams     = 4
	DefaultMaxLines      = 50
	DefaultMaxChainDepth = 3
)

func unitLabel(f *metrics.Function) string {
	if f.TopLevel {
		return "top-level code"
	}
	return fmt.Sprintf("function '%s'", f.Name)
}

// Complexity reports units whose cyclomatic complexity exceeds
// max_complexity.
func Complexity(in *Input) []Violation {
	limit := in.Thresholds.Get("max_complexity", DefaultMaxComplexity)
	var out []Violation
	for _, f := range in.Metrics.Functions {
		if f.Complexity <= limit {
			continue
		}
		out = append(out, at(f.Span,
			fmt.Sprintf("%s has a cyclomatic complexity of %d (max %d)", unitLabel(f), f.Complexity, limit),
			map[string]string{"function": f.Name, "complexity": itoa(f.Complexity), "max": itoa(limit)}))
	}
	return out
}

// Nesting reports, once per unit, the first construct nested deeper than
// max_nesting.
func Nesting(in *Input) []Violation {
	limit := in.Thresholds.Get("max_nesting", DefaultMaxNesting)
	var out []Violation
	for _, f := range in.Metrics.Functions {
		site, over := f.DeepestSite(limit)
		if !over {
			continue
		}
		out = append(out, at(site.Node.NodeSpan(),
			fmt.Sprintf("%s nests %d levels deep (max %d)", unitLabel(f), f.MaxNesting, limit),
			map[string]string{"function": f.Name, "depth": itoa(f.MaxNesting), "max": itoa(limit), "construct": string(site.Kind)}))
	}
	return out
}

// MaxParams reports functions declaring more than max_params parameters.
func MaxParams(in *Input) []Violation {
	limit := in.Thresholds.Get("max_params", DefaultMaxParams)
	var out []Violation
	for _, f := range in.Metrics.Functions {
		if f.TopLevel || f.Params <= limit {
			continue
		}
		out = append(out, at(f.Span,
			fmt.Sprintf("function '%s' has %d parameters (max %d)", f.Name, f.Params, limit),
			map[string]string{"function": f.Name, "params": itoa(f.Params), "max": itoa(limit)}))
	}
	return out
}

// FunctionLength reports functions spanning more than max_lines lines.
func FunctionLength(in *Input) []Violation {
	limit := in.Thresholds.Get("max_lines", DefaultMaxLines)
	var out []Violation
	for _, f := range in.Metrics.Functions {
		if f.TopLevel || f.Lines <= limit {
			continue
		}
		out = append(out, at(f.Span,
			fmt.Sprintf("function '%s' is %d lines long (max %d)", f.Name, f.Lines, limit),
			map[string]string{"function": f.Name, "lines": itoa(f.Lines), "max": itoa(limit)}))
	}
	return out
}

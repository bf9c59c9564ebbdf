package detectors

import (
	"fmt"
	"strings"

	"scriptlint/internal/engine/scope"
)

// UnusedVariables reports variables that are never read and not exported.
func UnusedVariables(in *Input) []Violation {
	var out []Violation
	for _, sym := range in.Scope.Unused(scope.Variable) {
		out = append(out, at(sym.Span,
			fmt.Sprintf("%s '%s' is declared but never used", declWord(sym), sym.Name),
			map[string]string{"name": sym.Name, "scope": sym.Scope.Kind.String()}))
	}
	return out
}

// UnusedParameters reports parameters never referenced in their function.
// Names starting with "_" mark intentionally ignored parameters.
func UnusedParameters(in *Input) []Violation {
	var out []Violation
	for _, sym := range in.Scope.Unused(scope.Parameter) {
		if strings.HasPrefix(sym.Name, "_") {
			continue
		}
		out = append(out, at(sym.Span,
			fmt.Sprintf("parameter '%s' is never used", sym.Name),
			map[string]string{"name": sym.Name}))
	}
	return out
}

// UnusedFunctions reports function declarations that are never referenced
// or exported.
func UnusedFunctions(in *Input) []Violation {
	var out []Violation
	for _, sym := range in.Scope.Unused(scope.Function) {
		out = append(out, at(sym.Span,
			fmt.Sprintf("function '%s' is declared but never called", sym.Name),
			map[string]string{"name": sym.Name}))
	}
	return out
}

func declWord(sym *scope.Symbol) string {
	if sym.Decl == "" {
		return "variable"
	}
	return string(sym.Decl)
}

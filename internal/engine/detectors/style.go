package detectors

import (
	"fmt"
	"regexp"
	"strconv"

	"scriptlint/internal/engine/scope"
	"scriptlint/internal/engine/script/ast"
)

var (
	camelCase  = regexp.MustCompile(`^[_$]?[a-z][a-zA-Z0-9]*$`)
	pascalCase = regexp.MustCompile(`^[A-Z][a-zA-Z0-9]*$`)
	upperSnake = regexp.MustCompile(`^[A-Z][A-Z0-9]*(_[A-Z0-9]+)*$`)
)

// allowedNumbers are literals common enough to never be "magic".
var allowedNumbers = map[float64]bool{-1: true, 0: true, 1: true, 2: true}

// NamingConvention reports declarations that are not camelCase. Constants
// may use UPPER_SNAKE_CASE and functions may use PascalCase.
func NamingConvention(in *Input) []Violation {
	var out []Violation
	for _, sym := range in.Scope.Symbols {
		if camelCase.MatchString(sym.Name) {
			continue
		}
		switch {
		case sym.Kind == scope.Variable && sym.Decl == ast.DeclConst && upperSnake.MatchString(sym.Name):
			continue
		case sym.Kind == scope.Function && pascalCase.MatchString(sym.Name):
			continue
		}
		out = append(out, at(sym.Span,
			fmt.Sprintf("%s name '%s' should be camelCase", sym.Kind, sym.Name),
			map[string]string{"name": sym.Name, "kind": sym.Kind.String()}))
	}
	return out
}

// MagicNumber reports numeric literals other than -1, 0, 1 and 2 that are
// not the direct initialiser of a const.
func MagicNumber(in *Input) []Violation {
	exempt := map[ast.Node]bool{}
	var out []Violation
	report := func(lit *ast.Literal, span ast.Span, value float64) {
		if allowedNumbers[value] {
			return
		}
		text := strconv.FormatFloat(value, 'g', -1, 64)
		out = append(out, at(span,
			fmt.Sprintf("magic number %s; extract it to a named constant", text),
			map[string]string{"value": text, "raw": lit.Raw}))
	}

	ast.Inspect(in.Program, func(n ast.Node) bool {
		switch n := n.(type) {
		case *ast.VarDecl:
			if n.Decl != ast.DeclConst {
				return true
			}
			if lit := numberLiteral(n.Init); lit != nil {
				exempt[lit] = true
			}
			if u, ok := n.Init.(*ast.UnaryExpr); ok && u.Op == "-" {
				if lit := numberLiteral(u.Operand); lit != nil {
					exempt[lit] = true
				}
			}
		case *ast.UnaryExpr:
			lit := numberLiteral(n.Operand)
			if n.Op != "-" || lit == nil {
				return true
			}
			if !exempt[lit] {
				report(lit, n.Span, -lit.Num)
			}
			exempt[lit] = true
		case *ast.Literal:
			if n.Lit == ast.NumberLit && !exempt[n] {
				report(n, n.Span, n.Num)
			}
		}
		return true
	})
	return out
}

func numberLiteral(x ast.Node) *ast.Literal {
	lit, ok := x.(*ast.Literal)
	if !ok || lit.Lit != ast.NumberLit {
		return nil
	}
	return lit
}

func boolLiteral(x ast.Expr) (value, ok bool) {
	lit, isLit := x.(*ast.Literal)
	if !isLit || lit.Lit != ast.BoolLit {
		return false, false
	}
	return lit.Bool, true
}

// VerboseBoolean reports comparisons against boolean literals and
// conditionals that only yield true or false.
func VerboseBoolean(in *Input) []Violation {
	var out []Violation
	ast.Inspect(in.Program, func(n ast.Node) bool {
		switch n := n.(type) {
		case *ast.BinaryExpr:
			switch n.Op {
			case "==", "!=", "===", "!==":
			default:
				return true
			}
			lv, lok := boolLiteral(n.Left)
			rv, rok := boolLiteral(n.Right)
			if !lok && !rok {
				return true
			}
			v := lv
			if rok {
				v = rv
			}
			out = append(out, at(n.Span,
				fmt.Sprintf("comparison with '%t' is redundant; use the condition directly", v),
				map[string]string{"operator": n.Op}))
		case *ast.Ternary:
			tv, tok := boolLiteral(n.Then)
			ev, eok := boolLiteral(n.Else)
			if !tok || !eok || tv == ev {
				return true
			}
			hint := "the condition"
			if !tv {
				hint = "the negated condition"
			}
			out = append(out, at(n.Span,
				fmt.Sprintf("conditional yields booleans only; use %s directly", hint),
				map[string]string{"then": strconv.FormatBool(tv)}))
		}
		return true
	})
	return out
}

// ConsoleStatement reports console.* calls.
func ConsoleStatement(in *Input) []Violation {
	var out []Violation
	ast.Inspect(in.Program, func(n ast.Node) bool {
		call, ok := n.(*ast.Call)
		if !ok {
			return true
		}
		m, ok := call.Callee.(*ast.Member)
		if !ok || m.Property == nil {
			return true
		}
		if obj, ok := m.Object.(*ast.Identifier); ok && obj.Name == "console" {
			out = append(out, at(call.Span,
				fmt.Sprintf("unexpected console.%s call", m.Property.Name),
				map[string]string{"method": m.Property.Name}))
		}
		return true
	})
	return out
}

// NoVar reports var declarations.
func NoVar(in *Input) []Violation {
	var out []Violation
	ast.Inspect(in.Program, func(n ast.Node) bool {
		switch n := n.(type) {
		case *ast.VarDecl:
			if n.Decl == ast.DeclVar && n.Name != nil {
				out = append(out, noVar(n.Span, n.Name.Name))
			}
		case *ast.ForIn:
			if n.Decl == ast.DeclVar && n.Binding != nil {
				out = append(out, noVar(n.Span, n.Binding.Name))
			}
		}
		return true
	})
	return out
}

func noVar(span ast.Span, name string) Violation {
	return at(span,
		fmt.Sprintf("'%s' is declared with var; use let or const", name),
		map[string]string{"name": name})
}

// ShadowedVariable reports declarations hiding a binding of an enclosing
// scope.
func ShadowedVariable(in *Input) []Violation {
	var out []Violation
	for _, sh := range in.Scope.Shadows {
		out = append(out, at(sh.Symbol.Span,
			fmt.Sprintf("%s '%s' shadows a %s declared on line %d", sh.Symbol.Kind, sh.Symbol.Name, sh.Shadowed.Kind, sh.Shadowed.Span.Line),
			map[string]string{"name": sh.Symbol.Name}))
	}
	return out
}

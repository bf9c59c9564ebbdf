package detectors

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"scriptlint/internal/engine/script/parser"
)

func input(t *testing.T, src string, standalone bool) *Input {
	t.Helper()
	res := parser.Parse(src)
	require.Empty(t, res.Errors)
	return NewInput(res.Program, standalone)
}

func metadata(vs []Violation, key string) []string {
	out := make([]string, 0, len(vs))
	for _, v := range vs {
		out = append(out, v.Metadata[key])
	}
	return out
}

func TestUnusedVariableExportScenario(t *testing.T) {
	vs := UnusedVariables(input(t, "let y = 2\nconst x = 1;\nlog(y)", false))
	require.Len(t, vs, 1)
	assert.Equal(t, "x", vs[0].Metadata["name"])
	assert.Equal(t, 2, vs[0].Line)
	assert.Equal(t, 7, vs[0].Column)
	assert.Contains(t, vs[0].Message, "const 'x'")

	vs = UnusedVariables(input(t, "const x = 1;\n{ value: x }", true))
	assert.Empty(t, vs)
}

func TestUnusedVariablesSeeLaterDeclarations(t *testing.T) {
	for _, src := range []string{
		"function total() { return rate * 2 }\nconst rate = 3\ntotal()",
		"const run = () => helper()\nconst helper = () => 1\nrun()",
	} {
		assert.Empty(t, UnusedVariables(input(t, src, false)), src)
	}
}

func TestUnusedParametersSkipUnderscore(t *testing.T) {
	vs := UnusedParameters(input(t, "function f(a, _b) { return 1 }\nf()", false))
	assert.Equal(t, []string{"a"}, metadata(vs, "name"))
}

func TestUnusedFunctions(t *testing.T) {
	vs := UnusedFunctions(input(t, "function used() {}\nfunction dead() {}\nused()", false))
	assert.Equal(t, []string{"dead"}, metadata(vs, "name"))
}

const fiveWay = `function route(a, b, c, d) {
  if (a) { x() }
  if (b && c) { y() }
  if (d) { z() }
}`

func TestComplexityThreshold(t *testing.T) {
	in := input(t, fiveWay, false)

	vs := Complexity(in.WithThresholds(Thresholds{"max_complexity": 4}))
	require.Len(t, vs, 1)
	assert.Equal(t, "route", vs[0].Metadata["function"])
	assert.Equal(t, "5", vs[0].Metadata["complexity"])
	assert.Equal(t, 1, vs[0].Line)

	assert.Empty(t, Complexity(in.WithThresholds(Thresholds{"max_complexity": 10})))
	assert.Empty(t, Complexity(in), "default threshold is 10")
}

const threeDeep = `function walk(a, b, c) {
  if (a) {
    if (b) {
      if (c) {
        go()
      }
    }
  }
}`

func TestNestingThreshold(t *testing.T) {
	in := input(t, threeDeep, false)
	assert.Empty(t, Nesting(in.WithThresholds(Thresholds{"max_nesting": 4})))

	vs := Nesting(in.WithThresholds(Thresholds{"max_nesting": 2}))
	require.Len(t, vs, 1)
	assert.Equal(t, 4, vs[0].Line)
	assert.Equal(t, 7, vs[0].Column)
	assert.Equal(t, "3", vs[0].Metadata["depth"])
	assert.Equal(t, "if", vs[0].Metadata["construct"])
}

func TestMaxParamsAndLength(t *testing.T) {
	in := input(t, "function wide(a, b, c, d, e) {\n  return a\n}\nwide()", false)
	vs := MaxParams(in)
	require.Len(t, vs, 1)
	assert.Equal(t, "5", vs[0].Metadata["params"])

	vs = FunctionLength(in.WithThresholds(Thresholds{"max_lines": 2}))
	require.Len(t, vs, 1)
	assert.Equal(t, "3", vs[0].Metadata["lines"])
	assert.Empty(t, FunctionLength(in))
}

func TestReturnConsistency(t *testing.T) {
	vs := ReturnConsistency(input(t, "function pick(x) {\n  if (x) { return 1 }\n}", false))
	require.Len(t, vs, 1)
	assert.Equal(t, "pick", vs[0].Metadata["function"])
	assert.Contains(t, vs[0].Message, "falls through")

	vs = ReturnConsistency(input(t, "const pick = function (x) { if (x) { return }\n return 1 }", false))
	require.Len(t, vs, 1)
	assert.Equal(t, "pick", vs[0].Metadata["function"])
	assert.Contains(t, vs[0].Message, "without a value")

	assert.Empty(t, ReturnConsistency(input(t, "function pick(x) {\n  if (x) { return 1 }\n  return 0\n}", false)))
	assert.Empty(t, ReturnConsistency(input(t, "function pick(x) {\n  if (x) { return 1 } else { return 2 }\n}", false)))
}

func TestUnreachableCode(t *testing.T) {
	vs := UnreachableCode(input(t, "function f() {\n  return 1\n  log(2)\n  log(3)\n}", false))
	require.Len(t, vs, 1)
	assert.Equal(t, 3, vs[0].Line)
	assert.Equal(t, "ExprStmt", vs[0].Metadata["statement"])
}

func TestNullSafety(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want int
	}{
		{"four links", "use(a.b.c.d.e)", 1},
		{"optional root", "use(a?.b.c.d.e)", 0},
		{"optional midway", "use(a.b.c?.d.e)", 0},
		{"three links with call", "a.b.c.d()", 0},
		{"call inside chain", "a.b().c.d.e", 1},
		{"optional call guards", "a.b?.().c.d.e", 0},
		{"reported once per chain", "x = a.b.c.d.e.f", 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Len(t, NullSafety(input(t, tt.src, false)), tt.want)
		})
	}

	vs := NullSafety(input(t, "a.b.c", false).WithThresholds(Thresholds{"max_chain_depth": 1}))
	require.Len(t, vs, 1)
	assert.Equal(t, "2", vs[0].Metadata["depth"])
}

func TestNamingConvention(t *testing.T) {
	src := "const MAX_SIZE = 10\nconst bad_name = MAX_SIZE\nfunction Widget() {}\nlet Thing = bad_name\nlet okName = Thing"
	vs := NamingConvention(input(t, src, false))
	assert.Equal(t, []string{"bad_name", "Thing"}, metadata(vs, "name"))
}

func TestMagicNumber(t *testing.T) {
	src := "const LIMIT = 42\nlet x = 7\nlet y = -3\nlet z = -1\nlet w = 2 * 100\nconst NEG = -5"
	vs := MagicNumber(input(t, src, false))
	assert.Equal(t, []string{"7", "-3", "100"}, metadata(vs, "value"))
	assert.Equal(t, 2, vs[0].Line)
}

func TestVerboseBoolean(t *testing.T) {
	src := "if (done == true) {}\nlet v = ok ? true : false\nlet n = ok ? false : true\nlet same = ok ? true : true\nlet fine = a === b"
	vs := VerboseBoolean(input(t, src, false))
	require.Len(t, vs, 3)
	assert.Equal(t, []int{1, 2, 3}, []int{vs[0].Line, vs[1].Line, vs[2].Line})
	assert.Contains(t, vs[2].Message, "negated")
}

func TestConsoleStatement(t *testing.T) {
	vs := ConsoleStatement(input(t, "console.log(1)\nconsole.info(x)\nlogger.console(1)", false))
	assert.Equal(t, []string{"log", "info"}, metadata(vs, "method"))
}

func TestNoVar(t *testing.T) {
	vs := NoVar(input(t, "var a = 1\nlet b = 2\nfor (var x : xs) {}", false))
	assert.Equal(t, []string{"a", "x"}, metadata(vs, "name"))
}

func TestShadowedVariable(t *testing.T) {
	vs := ShadowedVariable(input(t, "let item = 1\nfunction f(item) { return item }\nf(item)", false))
	require.Len(t, vs, 1)
	assert.Equal(t, 2, vs[0].Line)
	assert.Contains(t, vs[0].Message, "parameter 'item' shadows a variable declared on line 1")
}

func TestDetectorsDoNotMutateInput(t *testing.T) {
	in := input(t, fiveWay+"\nroute(1, 2, 3, 4)", false)
	before := len(in.Scope.Symbols)
	for _, fn := range []Func{UnusedVariables, Complexity, Nesting, NullSafety, MagicNumber, ShadowedVariable} {
		fn(in)
		fn(in)
	}
	assert.Len(t, in.Scope.Symbols, before)
	assert.Nil(t, in.Thresholds)
}

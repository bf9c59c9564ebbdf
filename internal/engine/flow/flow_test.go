package flow

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"scriptlint/internal/engine/script/ast"
	"scriptlint/internal/engine/script/parser"
)

func summarize(t *testing.T, src string) (*Info, *Summary) {
	t.Helper()
	res := parser.Parse(src)
	require.Empty(t, res.Errors)
	info := Analyze(res.Program)
	require.NotEmpty(t, info.Functions)
	return info, info.Functions[0]
}

func TestReturnConsistency(t *testing.T) {
	tests := []struct {
		name         string
		src          string
		allReturn    bool
		inconsistent bool
	}{
		{"if without else then fallthrough", "function f(x) { if (x) { return 1 } }", false, true},
		{"if else both return", "function f(x) { if (x) { return 1 } else { return 2 } }", true, false},
		{"trailing return after if", "function f(x) { if (x) { return 1 }\n return 2 }", true, false},
		{"no returns at all", "function f(x) { log(x) }", false, false},
		{"bare and value returns", "function f(x) { if (x) { return }\n return 1 }", true, true},
		{"only bare returns", "function f(x) { if (x) { return }\n log(x) }", false, false},
		{"loop never guarantees", "function f(xs) { for (let x : xs) { return x } }", false, true},
		{"loop followed by return", "function f(xs) { while (more()) { return 1 }\n return 0 }", true, false},
		{"else if chain with final else", "function f(x) { if (x > 1) { return 1 } else if (x) { return 2 } else { return 3 } }", true, false},
		{"else if chain without else", "function f(x) { if (x > 1) { return 1 } else if (x) { return 2 } }", false, true},
		{"arrow expression body", "const f = (x) => x * 2", true, false},
		{"arrow block body", "const f = (x) => { if (x) { return x } }", false, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, s := summarize(t, tt.src)
			assert.Equal(t, tt.allReturn, s.AllPathsReturn, "AllPathsReturn")
			assert.Equal(t, !tt.allReturn, s.FallsThrough, "FallsThrough")
			assert.Equal(t, tt.inconsistent, s.Inconsistent(), "Inconsistent")
		})
	}
}

func TestSwitchReturns(t *testing.T) {
	tests := []struct {
		name      string
		body      string
		allReturn bool
	}{
		{"all clauses with default", "switch (x) { case 1: return 1\n default: return 0 }", true},
		{"missing default", "switch (x) { case 1: return 1\n case 2: return 2 }", false},
		{"empty clause falls into next", "switch (x) { case 1:\n case 2: return 2\n default: return 0 }", true},
		{"break clause", "switch (x) { case 1: log(x)\n break\n default: return 0 }", false},
		{"empty last clause", "switch (x) { case 1: return 1\n default: }", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, s := summarize(t, "function f(x) { "+tt.body+" }")
			assert.Equal(t, tt.allReturn, s.AllPathsReturn)
		})
	}
}

func TestUnreachable(t *testing.T) {
	src := `function f(x) {
  return x
  log(1)
  log(2)
}
for (let i : xs) {
  if (i) { continue }
  break
  log(i)
}`
	info, _ := summarize(t, src)
	require.Len(t, info.Unreachable, 2)
	assert.Equal(t, 3, info.Unreachable[0].NodeSpan().Line)
	assert.Equal(t, 9, info.Unreachable[1].NodeSpan().Line)
}

func TestUnreachableAfterIfElseReturn(t *testing.T) {
	info, _ := summarize(t, "function f(x) {\n if (x) { return 1 } else { return 2 }\n cleanup()\n}")
	require.Len(t, info.Unreachable, 1)
	assert.Equal(t, 3, info.Unreachable[0].NodeSpan().Line)
}

func TestNestedFunctionsAreSeparate(t *testing.T) {
	src := "function outer() {\n  const inner = () => { return 1 }\n  log(inner)\n}"
	info, outer := summarize(t, src)
	require.Len(t, info.Functions, 2)
	assert.False(t, outer.HasValueReturn, "inner returns must not leak into outer")
	inner := info.Functions[1]
	assert.IsType(t, &ast.ArrowFunction{}, inner.Function)
	assert.True(t, inner.AllPathsReturn)
	assert.Same(t, inner, info.Lookup(inner.Function))
}

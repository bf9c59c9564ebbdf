package lexer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func kindsAndTexts(toks []Token) ([]Kind, []string) {
	kinds := make([]Kind, 0, len(toks))
	texts := make([]string, 0, len(toks))
	for _, t := range toks {
		kinds = append(kinds, t.Kind)
		texts = append(texts, t.Text)
	}
	return kinds, texts
}

func TestTokenizeBasics(t *testing.T) {
	toks, errs := Tokenize(`let total = price * 2; // tail`)
	require.Empty(t, errs)

	kinds, texts := kindsAndTexts(toks)
	assert.Equal(t, []Kind{Keyword, Ident, Operator, Ident, Operator, Number, Punct, EOF}, kinds)
	assert.Equal(t, []string{"let", "total", "=", "price", "*", "2", ";", ""}, texts)
	assert.Equal(t, 2.0, toks[5].Num)
}

func TestTokenizePositions(t *testing.T) {
	toks, errs := Tokenize("a\n  b")
	require.Empty(t, errs)
	require.Len(t, toks, 3)

	assert.Equal(t, Pos{Offset: 0, Line: 1, Column: 1}, toks[0].Pos())
	assert.Equal(t, Pos{Offset: 4, Line: 2, Column: 3}, toks[1].Pos())
	assert.True(t, toks[1].NewlineBefore)
	assert.True(t, toks[1].SpaceBefore)
	assert.False(t, toks[0].SpaceBefore)
}

func TestTokenizeNewAtOffsetsPositions(t *testing.T) {
	l := NewAt("x + 1", Pos{Offset: 10, Line: 3, Column: 7})
	toks := l.All()
	require.Empty(t, l.Errors())
	assert.Equal(t, Pos{Offset: 10, Line: 3, Column: 7}, toks[0].Pos())
	assert.Equal(t, Pos{Offset: 14, Line: 3, Column: 11}, toks[2].Pos())
}

func TestTokenizeOperatorsLongestMatch(t *testing.T) {
	toks, errs := Tokenize(`a === b ?? c?.d ??= e => f`)
	require.Empty(t, errs)
	_, texts := kindsAndTexts(toks)
	assert.Equal(t, []string{"a", "===", "b", "??", "c", "?.", "d", "??=", "e", "=>", "f", ""}, texts)
}

func TestTokenizeQuestionDotDigitIsTernary(t *testing.T) {
	toks, errs := Tokenize(`a?.5:b`)
	require.Empty(t, errs)
	_, texts := kindsAndTexts(toks)
	assert.Equal(t, []string{"a", "?", ".5", ":", "b", ""}, texts)
}

func TestTokenizeNamespaceColonAdjacency(t *testing.T) {
	toks, errs := Tokenize(`util:format(x)`)
	require.Empty(t, errs)
	assert.Equal(t, ":", toks[1].Text)
	assert.False(t, toks[1].SpaceBefore)
	assert.False(t, toks[2].SpaceBefore)
}

func TestTokenizeStrings(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{"double", `"hi"`, "hi"},
		{"single", `'hi'`, "hi"},
		{"escapes", `"a\tb\nc\\"`, "a\tb\nc\\"},
		{"quote", `'it\'s'`, "it's"},
		{"hex", `"\x41"`, "A"},
		{"unicode", `"\u0041"`, "A"},
		{"unicode braces", `"\u{1F600}"`, "\U0001F600"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			toks, errs := Tokenize(tt.src)
			require.Empty(t, errs)
			require.Equal(t, String, toks[0].Kind)
			assert.Equal(t, tt.want, toks[0].Str)
			assert.Equal(t, tt.src, toks[0].Text)
		})
	}
}

func TestTokenizeNumbers(t *testing.T) {
	tests := map[string]float64{
		"42":     42,
		"3.25":   3.25,
		".5":     0.5,
		"1e3":    1000,
		"2.5E-1": 0.25,
		"0xff":   255,
	}
	for src, want := range tests {
		toks, errs := Tokenize(src)
		require.Empty(t, errs, src)
		require.Equal(t, Number, toks[0].Kind, src)
		assert.Equal(t, want, toks[0].Num, src)
	}
}

func TestTokenizeTemplate(t *testing.T) {
	toks, errs := Tokenize("`Hello {{ user.name }}!`")
	require.Empty(t, errs)
	require.Equal(t, Template, toks[0].Kind)

	parts := toks[0].Parts
	require.Len(t, parts, 3)
	assert.Equal(t, TemplatePart{Text: "Hello "}, parts[0])
	assert.True(t, parts[1].IsExpr)
	assert.Equal(t, " user.name ", parts[1].Expr)
	assert.Equal(t, Pos{Offset: 9, Line: 1, Column: 10}, parts[1].Pos)
	assert.Equal(t, "!", parts[2].Text)
}

func TestTokenizeTemplateBracesInsideStrings(t *testing.T) {
	toks, errs := Tokenize("`{{ fmt(\"}}\") }}`")
	require.Empty(t, errs)
	require.Len(t, toks[0].Parts, 1)
	assert.Equal(t, ` fmt("}}") `, toks[0].Parts[0].Expr)
}

func TestTokenizeNestedTemplateInInterpolation(t *testing.T) {
	toks, errs := Tokenize("`a {{ `inner {{ x }}` }} b`")
	require.Empty(t, errs)
	require.Len(t, toks, 2)
	require.Equal(t, Template, toks[0].Kind)
	parts := toks[0].Parts
	require.Len(t, parts, 3)
	assert.Equal(t, " `inner {{ x }}` ", parts[1].Expr)
	assert.Equal(t, " b", parts[2].Text)
}

func TestTokenizeColumnsCountRunes(t *testing.T) {
	toks, errs := Tokenize("let s = \"héllo\"; ok")
	require.Empty(t, errs)
	last := toks[len(toks)-2]
	assert.Equal(t, "ok", last.Text)
	assert.Equal(t, 18, last.Pos().Column)
	assert.Equal(t, 18, last.Pos().Offset)
}

func TestTokenizeNeverAborts(t *testing.T) {
	tests := []struct {
		name string
		src  string
		msg  string
	}{
		{"unknown char", "a # b", "unexpected character"},
		{"unterminated string", `"abc`, "unterminated string literal"},
		{"unterminated template", "`abc", "unterminated template literal"},
		{"unterminated interpolation", "`a {{ b`", "unterminated template interpolation"},
		{"unterminated comment", "a /* b", "unterminated block comment"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			toks, errs := Tokenize(tt.src)
			require.NotEmpty(t, errs)
			assert.Contains(t, errs[0].Msg, tt.msg)
			assert.Equal(t, EOF, toks[len(toks)-1].Kind)
		})
	}
}

func TestTokenizeUnknownCharacterContinues(t *testing.T) {
	toks, errs := Tokenize("a @ b")
	require.Len(t, errs, 1)
	assert.Equal(t, Pos{Offset: 2, Line: 1, Column: 3}, errs[0].Pos)

	kinds, _ := kindsAndTexts(toks)
	assert.Equal(t, []Kind{Ident, Illegal, Ident, EOF}, kinds)
}

func TestTokenizeEmpty(t *testing.T) {
	toks, errs := Tokenize("   \n ")
	assert.Empty(t, errs)
	require.Len(t, toks, 1)
	assert.Equal(t, EOF, toks[0].Kind)
}

func TestKeywordsAreReserved(t *testing.T) {
	for _, kw := range []string{"var", "let", "const", "function", "return", "null"} {
		assert.True(t, IsKeyword(kw), kw)
	}
	assert.False(t, IsKeyword("to"), "to is contextual")
}

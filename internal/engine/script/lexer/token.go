package lexer

import "fmt"

// Kind classifies a token.
type Kind int

const (
	EOF Kind = iota
	Illegal
	Ident
	Keyword
	Number
	String
	Template
	Operator
	Punct
)

var kindNames = [...]string{
	EOF:      "end of input",
	Illegal:  "illegal token",
	Ident:    "identifier",
	Keyword:  "keyword",
	Number:   "number",
	String:   "string",
	Template: "template literal",
	Operator: "operator",
	Punct:    "punctuation",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Pos is a position inside a fragment. Offset is a byte index, Line and
// Column are 1-based.
type Pos struct {
	Offset int
	Line   int
	Column int
}

// Token is one lexical unit. Text is always the verbatim source slice.
type Token struct {
	Kind   Kind
	Text   string
	Offset int
	Line   int
	Column int

	// Literal payloads.
	Num float64
	Str string

	// Template segments, only for Kind == Template.
	Parts []TemplatePart

	// Whitespace (or a comment) separates this token from the previous one.
	SpaceBefore bool
	// At least one newline separates this token from the previous one.
	NewlineBefore bool
}

// Pos returns the start position of the token.
func (t Token) Pos() Pos {
	return Pos{Offset: t.Offset, Line: t.Line, Column: t.Column}
}

// End returns the byte offset just past the token.
func (t Token) End() int {
	return t.Offset + len(t.Text)
}

// Is reports whether the token is an operator, punctuation or keyword with the given text.
func (t Token) Is(text string) bool {
	switch t.Kind {
	case Operator, Punct, Keyword:
		return t.Text == text
	}
	return false
}

// IsIdent reports whether the token is the identifier name.
func (t Token) IsIdent(name string) bool {
	return t.Kind == Ident && t.Text == name
}

// Describe renders the token for "expected X, found Y" diagnostics.
func (t Token) Describe() string {
	switch t.Kind {
	case EOF:
		return "end of input"
	case Ident:
		return fmt.Sprintf("identifier %q", t.Text)
	case Number, String, Template:
		return t.Kind.String()
	default:
		return fmt.Sprintf("%q", t.Text)
	}
}

// TemplatePart is one segment of a template literal: either verbatim text or
// the source of an embedded {{ expression }} together with its start position.
type TemplatePart struct {
	IsExpr bool
	Text   string
	Expr   string
	Pos    Pos
}

var keywords = map[string]bool{
	"var":      true,
	"let":      true,
	"const":    true,
	"function": true,
	"if":       true,
	"else":     true,
	"for":      true,
	"while":    true,
	"switch":   true,
	"case":     true,
	"default":  true,
	"return":   true,
	"break":    true,
	"continue": true,
	"true":     true,
	"false":    true,
	"null":     true,
}

// IsKeyword reports whether name is reserved by the grammar.
func IsKeyword(name string) bool {
	return keywords[name]
}

// Error is a lexical error at a specific position.
type Error struct {
	Pos Pos
	Msg string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%d:%d: %s", e.Pos.Line, e.Pos.Column, e.Msg)
}

// Package lexer turns script text into tokens. It never aborts: unknown
// characters and unterminated literals become Illegal tokens and the scan
// continues, with the problem recorded in Errors.
package lexer

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Ordered longest first so the scan is a simple prefix match.
var operators = []string{
	"===", "!==", "??=",
	"==", "!=", "<=", ">=", "&&", "||", "??", "?.", "=>", "++", "--", "+=", "-=", "*=", "/=", "%=",
	"+", "-", "*", "/", "%", "<", ">", "=", "!", "?",
}

const punctuation = "()[]{},;:."

type Lexer struct {
	src  string
	base int
	pos  int
	line int
	col  int

	space   bool
	newline bool
	errs    []*Error
}

// New creates a lexer for a whole fragment.
func New(src string) *Lexer {
	return NewAt(src, Pos{Line: 1, Column: 1})
}

// NewAt creates a lexer for a slice of a fragment that starts at start.
// Token positions are reported relative to the enclosing fragment.
func NewAt(src string, start Pos) *Lexer {
	if start.Line < 1 {
		start.Line = 1
	}
	if start.Column < 1 {
		start.Column = 1
	}
	return &Lexer{src: src, base: start.Offset, line: start.Line, col: start.Column}
}

// Tokenize scans src completely. The returned slice always ends with EOF.
func Tokenize(src string) ([]Token, []*Error) {
	l := New(src)
	return l.All(), l.Errors()
}

// All scans the remaining input, including the final EOF token.
func (l *Lexer) All() []Token {
	toks := make([]Token, 0, len(l.src)/3+1)
	for {
		tok := l.Next()
		toks = append(toks, tok)
		if tok.Kind == EOF {
			return toks
		}
	}
}

// Errors returns the lexical errors seen so far.
func (l *Lexer) Errors() []*Error {
	return l.errs
}

// Next returns the next token.
func (l *Lexer) Next() Token {
	l.skipTrivia()
	start := l.here()
	tok := Token{
		Offset:        start.Offset,
		Line:          start.Line,
		Column:        start.Column,
		SpaceBefore:   l.space,
		NewlineBefore: l.newline,
	}
	l.space, l.newline = false, false

	if l.pos >= len(l.src) {
		tok.Kind = EOF
		return tok
	}

	from := l.pos
	c := l.src[l.pos]
	switch {
	case isIdentStart(l.peekRune()):
		l.scanIdent()
		tok.Text = l.src[from:l.pos]
		tok.Kind = Ident
		if keywords[tok.Text] {
			tok.Kind = Keyword
		}
	case isDigit(c) || (c == '.' && isDigit(l.peekAt(1))):
		l.scanNumber(&tok, from)
	case c == '"' || c == '\'':
		l.scanString(&tok, from, c)
	case c == '`':
		l.scanTemplate(&tok, from)
	default:
		l.scanOperator(&tok, from)
	}
	return tok
}

func (l *Lexer) here() Pos {
	return Pos{Offset: l.base + l.pos, Line: l.line, Column: l.col}
}

func (l *Lexer) errorf(at Pos, format string, args ...any) {
	l.errs = append(l.errs, &Error{Pos: at, Msg: fmt.Sprintf(format, args...)})
}

func (l *Lexer) peekAt(n int) byte {
	if l.pos+n < len(l.src) {
		return l.src[l.pos+n]
	}
	return 0
}

func (l *Lexer) peekRune() rune {
	if l.pos >= len(l.src) {
		return utf8.RuneError
	}
	r, _ := utf8.DecodeRuneInString(l.src[l.pos:])
	return r
}

// advance consumes one rune and keeps line and column in sync. Columns
// count runes.
func (l *Lexer) advance() rune {
	r, size := utf8.DecodeRuneInString(l.src[l.pos:])
	l.pos += size
	if r == '\n' {
		l.line++
		l.col = 1
	} else {
		l.col++
	}
	return r
}

func (l *Lexer) skipTrivia() {
	for l.pos < len(l.src) {
		c := l.src[l.pos]
		switch {
		case c == '\n':
			l.space, l.newline = true, true
			l.advance()
		case c == ' ' || c == '\t' || c == '\r' || c == '\f' || c == '\v':
			l.space = true
			l.advance()
		case c == '/' && l.peekAt(1) == '/':
			l.space = true
			for l.pos < len(l.src) && l.src[l.pos] != '\n' {
				l.advance()
			}
		case c == '/' && l.peekAt(1) == '*':
			l.space = true
			start := l.here()
			l.advance()
			l.advance()
			closed := false
			for l.pos < len(l.src) {
				if l.src[l.pos] == '*' && l.peekAt(1) == '/' {
					l.advance()
					l.advance()
					closed = true
					break
				}
				if l.advance() == '\n' {
					l.newline = true
				}
			}
			if !closed {
				l.errorf(start, "unterminated block comment")
			}
		default:
			return
		}
	}
}

func (l *Lexer) scanIdent() {
	for l.pos < len(l.src) && isIdentPart(l.peekRune()) {
		l.advance()
	}
}

func (l *Lexer) scanNumber(tok *Token, from int) {
	if l.src[l.pos] == '0' && (l.peekAt(1) == 'x' || l.peekAt(1) == 'X') {
		l.advance()
		l.advance()
		for l.pos < len(l.src) && isHex(l.src[l.pos]) {
			l.advance()
		}
		tok.Text = l.src[from:l.pos]
		v, err := strconv.ParseUint(tok.Text[2:], 16, 64)
		if err != nil {
			tok.Kind = Illegal
			l.errorf(tok.Pos(), "malformed hex literal %q", tok.Text)
			return
		}
		tok.Kind = Number
		tok.Num = float64(v)
		return
	}

	for l.pos < len(l.src) && isDigit(l.src[l.pos]) {
		l.advance()
	}
	if l.pos < len(l.src) && l.src[l.pos] == '.' && isDigit(l.peekAt(1)) {
		l.advance()
		for l.pos < len(l.src) && isDigit(l.src[l.pos]) {
			l.advance()
		}
	}
	if l.pos < len(l.src) && (l.src[l.pos] == 'e' || l.src[l.pos] == 'E') {
		next := l.peekAt(1)
		if isDigit(next) || ((next == '+' || next == '-') && isDigit(l.peekAt(2))) {
			l.advance()
			if next == '+' || next == '-' {
				l.advance()
			}
			for l.pos < len(l.src) && isDigit(l.src[l.pos]) {
				l.advance()
			}
		}
	}

	tok.Text = l.src[from:l.pos]
	v, err := strconv.ParseFloat(tok.Text, 64)
	if err != nil {
		tok.Kind = Illegal
		l.errorf(tok.Pos(), "malformed number %q", tok.Text)
		return
	}
	tok.Kind = Number
	tok.Num = v
}

func (l *Lexer) scanString(tok *Token, from int, quote byte) {
	l.advance()
	var b strings.Builder
	for {
		if l.pos >= len(l.src) || l.src[l.pos] == '\n' {
			tok.Kind = Illegal
			tok.Text = l.src[from:l.pos]
			l.errorf(tok.Pos(), "unterminated string literal")
			return
		}
		c := l.src[l.pos]
		if c == quote {
			l.advance()
			break
		}
		if c == '\\' {
			l.scanEscape(&b)
			continue
		}
		b.WriteRune(l.advance())
	}
	tok.Kind = String
	tok.Text = l.src[from:l.pos]
	tok.Str = b.String()
}

// scanEscape decodes one backslash escape into b. Unknown escapes stand for
// the escaped character itself.
func (l *Lexer) scanEscape(b *strings.Builder) {
	at := l.here()
	l.advance()
	if l.pos >= len(l.src) {
		l.errorf(at, "unterminated escape sequence")
		return
	}
	c := l.advance()
	switch c {
	case 'n':
		b.WriteByte('\n')
	case 't':
		b.WriteByte('\t')
	case 'r':
		b.WriteByte('\r')
	case 'b':
		b.WriteByte('\b')
	case 'f':
		b.WriteByte('\f')
	case 'v':
		b.WriteByte('\v')
	case '0':
		b.WriteByte(0)
	case '\n':
		// line continuation
	case 'x':
		l.scanHexEscape(b, at, 2)
	case 'u':
		if l.pos < len(l.src) && l.src[l.pos] == '{' {
			l.advance()
			start := l.pos
			for l.pos < len(l.src) && isHex(l.src[l.pos]) {
				l.advance()
			}
			digits := l.src[start:l.pos]
			if l.pos >= len(l.src) || l.src[l.pos] != '}' || digits == "" {
				l.errorf(at, "malformed unicode escape")
				return
			}
			l.advance()
			v, err := strconv.ParseUint(digits, 16, 32)
			if err != nil || v > unicode.MaxRune {
				l.errorf(at, "malformed unicode escape")
				return
			}
			b.WriteRune(rune(v))
			return
		}
		l.scanHexEscape(b, at, 4)
	default:
		b.WriteRune(c)
	}
}

func (l *Lexer) scanHexEscape(b *strings.Builder, at Pos, n int) {
	if l.pos+n > len(l.src) {
		l.errorf(at, "malformed escape sequence")
		l.col += utf8.RuneCountInString(l.src[l.pos:])
		l.pos = len(l.src)
		return
	}
	digits := l.src[l.pos : l.pos+n]
	v, err := strconv.ParseUint(digits, 16, 32)
	if err != nil {
		l.errorf(at, "malformed escape sequence")
		return
	}
	for i := 0; i < n; i++ {
		l.advance()
	}
	b.WriteRune(rune(v))
}

func (l *Lexer) scanTemplate(tok *Token, from int) {
	l.advance()
	var parts []TemplatePart
	var text strings.Builder
	flush := func() {
		if text.Len() > 0 {
			parts = append(parts, TemplatePart{Text: text.String()})
			text.Reset()
		}
	}

	for {
		if l.pos >= len(l.src) {
			tok.Kind = Illegal
			tok.Text = l.src[from:l.pos]
			l.errorf(tok.Pos(), "unterminated template literal")
			return
		}
		c := l.src[l.pos]
		switch {
		case c == '`':
			l.advance()
			flush()
			tok.Kind = Template
			tok.Text = l.src[from:l.pos]
			tok.Parts = parts
			return
		case c == '\\':
			l.scanEscape(&text)
		case c == '{' && l.peekAt(1) == '{':
			flush()
			open := l.here()
			l.advance()
			l.advance()
			exprPos := l.here()
			start := l.pos
			end, ok := l.scanInterpolation()
			if !ok {
				tok.Kind = Illegal
				tok.Text = l.src[from:l.pos]
				l.errorf(open, "unterminated template interpolation")
				return
			}
			parts = append(parts, TemplatePart{IsExpr: true, Expr: l.src[start:end], Pos: exprPos})
		default:
			text.WriteRune(l.advance())
		}
	}
}

// scanInterpolation consumes an interpolation body up to and including the
// closing "}}" and returns the end offset of the expression source. String
// literals and nested templates inside the expression may contain braces.
func (l *Lexer) scanInterpolation() (int, bool) {
	for l.pos < len(l.src) {
		c := l.src[l.pos]
		switch {
		case c == '}' && l.peekAt(1) == '}':
			end := l.pos
			l.advance()
			l.advance()
			return end, true
		case c == '"' || c == '\'':
			l.advance()
			for l.pos < len(l.src) && l.src[l.pos] != c && l.src[l.pos] != '\n' {
				if l.src[l.pos] == '\\' && l.pos+1 < len(l.src) {
					l.advance()
				}
				l.advance()
			}
			if l.pos < len(l.src) && l.src[l.pos] == c {
				l.advance()
			}
		case c == '`':
			if !l.skipNestedTemplate() {
				return 0, false
			}
		default:
			l.advance()
		}
	}
	return 0, false
}

// skipNestedTemplate consumes a template literal inside an interpolation,
// including its own interpolations. It reports false when the literal is
// not closed.
func (l *Lexer) skipNestedTemplate() bool {
	l.advance()
	for l.pos < len(l.src) {
		c := l.src[l.pos]
		switch {
		case c == '`':
			l.advance()
			return true
		case c == '\\':
			l.advance()
			if l.pos < len(l.src) {
				l.advance()
			}
		case c == '{' && l.peekAt(1) == '{':
			l.advance()
			l.advance()
			if _, ok := l.scanInterpolation(); !ok {
				return false
			}
		default:
			l.advance()
		}
	}
	return false
}

func (l *Lexer) scanOperator(tok *Token, from int) {
	rest := l.src[l.pos:]
	for _, op := range operators {
		if !strings.HasPrefix(rest, op) {
			continue
		}
		// "a?.5:b" is a ternary, not optional chaining.
		if op == "?." && len(rest) > 2 && isDigit(rest[2]) {
			continue
		}
		for range op {
			l.advance()
		}
		tok.Kind = Operator
		tok.Text = op
		return
	}

	if strings.IndexByte(punctuation, rest[0]) >= 0 {
		l.advance()
		tok.Kind = Punct
		tok.Text = l.src[from:l.pos]
		return
	}

	r := l.advance()
	tok.Kind = Illegal
	tok.Text = l.src[from:l.pos]
	l.errorf(tok.Pos(), "unexpected character %q", r)
}

func isIdentStart(r rune) bool {
	return r == '_' || r == '$' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') ||
		(r >= utf8.RuneSelf && unicode.IsLetter(r))
}

func isIdentPart(r rune) bool {
	return isIdentStart(r) || (r >= '0' && r <= '9') || (r >= utf8.RuneSelf && unicode.IsDigit(r))
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

func isHex(c byte) bool {
	return isDigit(c) || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}

// Package parser is the recursive-descent front end for the script dialect.
//
// Parsing never aborts: lexical and grammar errors are collected into the
// Result and the parser resynchronises at the next statement boundary, so a
// fragment always yields a (possibly partial) Program.
package parser

import (
	"fmt"
	"strings"

	domainerrors "scriptlint/internal/core/errors"
	"scriptlint/internal/engine/script/ast"
	"scriptlint/internal/engine/script/lexer"
)

const maxErrors = 50

// Fragment is one embedded script payload together with where it came from.
// BaseLine is the 1-based host-file line on which Text begins.
type Fragment struct {
	Text          string
	BaseLine      int
	HostFilePath  string
	HostFieldPath string
	// Standalone marks fragments that are whole script files. Only those
	// can export names through a trailing mapping literal.
	Standalone bool
	// LineMap holds the host line of each fragment line when they do not
	// advance together, as with escaped line breaks in a JSON string.
	LineMap []int
}

// AbsoluteLine translates a fragment-relative line to a host-file line.
func (f Fragment) AbsoluteLine(local int) int {
	if n := len(f.LineMap); n > 0 && local >= 1 {
		if local <= n {
			return f.LineMap[local-1]
		}
		return f.LineMap[n-1] + local - n
	}
	base := f.BaseLine
	if base < 1 {
		base = 1
	}
	return base + local - 1
}

// ErrorKind separates lexical errors from grammar violations.
type ErrorKind int

const (
	SyntaxError ErrorKind = iota
	LexicalError
)

func (k ErrorKind) String() string {
	if k == LexicalError {
		return "lex"
	}
	return "syntax"
}

// Error is a ParseError: a problem at a fragment-relative position.
type Error struct {
	Kind     ErrorKind
	Pos      lexer.Pos
	Msg      string
	Expected string
	Found    string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%d:%d: %s", e.Pos.Line, e.Pos.Column, e.Msg)
}

// Unwrap exposes the domain error code: LEX_ERROR or PARSE_ERROR.
func (e *Error) Unwrap() error {
	code := domainerrors.CodeParseError
	if e.Kind == LexicalError {
		code = domainerrors.CodeLexError
	}
	de := &domainerrors.DomainError{Code: code, Message: e.Msg}
	return de.WithContext(domainerrors.CtxLine, e.Pos.Line)
}

// Result is the outcome of parsing one fragment. Program is never nil.
type Result struct {
	Program *ast.Program
	Errors  []*Error
}

// OK reports whether the fragment parsed without errors.
func (r *Result) OK() bool {
	return r != nil && len(r.Errors) == 0
}

// Parse parses a complete fragment text.
func Parse(src string) *Result {
	p := newParser(src, lexer.Pos{Line: 1, Column: 1})
	prog := p.parseProgram(src)
	return &Result{Program: prog, Errors: p.errs}
}

// ParseFragment parses the text of f.
func ParseFragment(f Fragment) *Result {
	return Parse(f.Text)
}

type parser struct {
	toks []lexer.Token
	pos  int
	errs []*Error

	lastEnd  int
	lastLine int

	// >0 while parsing a case test, where "a:b(...)" is not a namespace call.
	noNamespace int
}

type mark struct {
	offset int
	line   int
	col    int
}

func newParser(src string, start lexer.Pos) *parser {
	lx := lexer.NewAt(src, start)
	all := lx.All()
	p := &parser{
		toks:     make([]lexer.Token, 0, len(all)),
		lastEnd:  start.Offset,
		lastLine: start.Line,
	}
	for _, le := range lx.Errors() {
		p.errs = append(p.errs, &Error{Kind: LexicalError, Pos: le.Pos, Msg: le.Msg})
	}
	for _, t := range all {
		if t.Kind == lexer.Illegal {
			continue
		}
		p.toks = append(p.toks, t)
	}
	return p
}

func (p *parser) parseProgram(src string) *ast.Program {
	body := p.parseStatements(func() bool { return false })
	return &ast.Program{
		Span: ast.Span{
			Offset:  0,
			Length:  len(src),
			Line:    1,
			Column:  1,
			EndLine: 1 + strings.Count(src, "\n"),
		},
		Body: body,
	}
}

// --- token stream ---

func (p *parser) peek() lexer.Token {
	return p.toks[p.pos]
}

func (p *parser) peekN(n int) lexer.Token {
	if p.pos+n < len(p.toks) {
		return p.toks[p.pos+n]
	}
	return p.toks[len(p.toks)-1]
}

func (p *parser) next() lexer.Token {
	t := p.toks[p.pos]
	if t.Kind != lexer.EOF {
		p.pos++
		p.lastEnd = t.End()
		p.lastLine = t.Line + strings.Count(t.Text, "\n")
	}
	return t
}

func (p *parser) atEOF() bool {
	return p.peek().Kind == lexer.EOF
}

func (p *parser) at(text string) bool {
	return p.peek().Is(text)
}

func (p *parser) accept(text string) bool {
	if p.at(text) {
		p.next()
		return true
	}
	return false
}

func (p *parser) expect(text string) bool {
	if p.accept(text) {
		return true
	}
	p.errorExpected(fmt.Sprintf("%q", text))
	return false
}

// --- spans ---

func (p *parser) mark() mark {
	t := p.peek()
	return mark{offset: t.Offset, line: t.Line, col: t.Column}
}

func markOf(s ast.Span) mark {
	return mark{offset: s.Offset, line: s.Line, col: s.Column}
}

func (p *parser) span(m mark) ast.Span {
	end, endLine := p.lastEnd, p.lastLine
	if end < m.offset {
		end, endLine = m.offset, m.line
	}
	return ast.Span{Offset: m.offset, Length: end - m.offset, Line: m.line, Column: m.col, EndLine: endLine}
}

// --- errors ---

func (p *parser) record(e *Error) {
	if len(p.errs) >= maxErrors {
		return
	}
	// One report per position; follow-up errors at the same spot are noise.
	if n := len(p.errs); n > 0 && p.errs[n-1].Pos.Offset == e.Pos.Offset {
		return
	}
	p.errs = append(p.errs, e)
}

func (p *parser) errorExpected(expected string) {
	t := p.peek()
	p.record(&Error{
		Kind:     SyntaxError,
		Pos:      t.Pos(),
		Msg:      fmt.Sprintf("expected %s, found %s", expected, t.Describe()),
		Expected: expected,
		Found:    t.Describe(),
	})
}

func (p *parser) errorf(t lexer.Token, format string, args ...any) {
	p.record(&Error{Kind: SyntaxError, Pos: t.Pos(), Msg: fmt.Sprintf(format, args...), Found: t.Describe()})
}

func (p *parser) tooManyErrors() bool {
	return len(p.errs) >= maxErrors
}

// synchronize skips to a plausible statement boundary after an error.
func (p *parser) synchronize(startPos int) {
	for {
		t := p.peek()
		switch {
		case t.Kind == lexer.EOF, t.Is("}"):
			return
		case t.Is(";"):
			p.next()
			return
		case p.pos != startPos && t.NewlineBefore && startsStatement(t):
			return
		}
		p.next()
	}
}

func startsStatement(t lexer.Token) bool {
	if t.Kind != lexer.Keyword {
		return false
	}
	switch t.Text {
	case "var", "let", "const", "function", "if", "for", "while", "switch", "return", "break", "continue":
		return true
	}
	return false
}

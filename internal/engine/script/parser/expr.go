package parser

import (
	"scriptlint/internal/engine/script/ast"
	"scriptlint/internal/engine/script/lexer"
)

var assignOps = map[string]bool{
	"=": true, "+=": true, "-=": true, "*=": true, "/=": true, "%=": true, "??=": true,
}

func binaryPrec(t lexer.Token) int {
	if t.Kind != lexer.Operator {
		return 0
	}
	switch t.Text {
	case "??":
		return 1
	case "||":
		return 2
	case "&&":
		return 3
	case "==", "!=", "===", "!==":
		return 4
	case "<", ">", "<=", ">=":
		return 5
	case "+", "-":
		return 6
	case "*", "/", "%":
		return 7
	}
	return 0
}

func (p *parser) parseExpression() ast.Expr {
	return p.parseAssign()
}

func (p *parser) parseAssign() ast.Expr {
	if arrow := p.tryArrow(); arrow != nil {
		return arrow
	}
	m := p.mark()
	x := p.parseTernary()
	t := p.peek()
	if t.Kind != lexer.Operator || !assignOps[t.Text] {
		return x
	}
	switch x.(type) {
	case *ast.Identifier, *ast.Member:
	default:
		p.errorf(t, "invalid assignment target")
	}
	p.next()
	value := p.parseAssign()
	return &ast.Assign{Span: p.span(m), Op: t.Text, Target: x, Value: value}
}

// tryArrow parses an arrow function when the upcoming tokens are "ident =>"
// or a parenthesised list whose matching ")" is followed by "=>".
func (p *parser) tryArrow() ast.Expr {
	t := p.peek()
	switch {
	case t.Kind == lexer.Ident && p.peekN(1).Is("=>"):
		m := p.mark()
		name := p.parseBindingName()
		param := &ast.Param{Span: name.Span, Name: name}
		p.expect("=>")
		return p.finishArrow(m, []*ast.Param{param})
	case t.Is("("):
		end := p.matchingParen(p.pos)
		if end < 0 || !p.toks[end+1].Is("=>") {
			return nil
		}
		m := p.mark()
		params := p.parseParams()
		p.expect("=>")
		return p.finishArrow(m, params)
	}
	return nil
}

func (p *parser) finishArrow(m mark, params []*ast.Param) ast.Expr {
	fn := &ast.ArrowFunction{Params: params}
	if p.at("{") {
		fn.Body = p.parseBlock()
	} else {
		fn.Body = p.parseAssign()
	}
	fn.Span = p.span(m)
	return fn
}

// matchingParen returns the index of the ")" closing the "(" at i, or -1.
func (p *parser) matchingParen(i int) int {
	depth := 0
	for j := i; j < len(p.toks); j++ {
		t := p.toks[j]
		switch {
		case t.Kind == lexer.EOF:
			return -1
		case t.Is("("), t.Is("["), t.Is("{"):
			depth++
		case t.Is(")"), t.Is("]"), t.Is("}"):
			depth--
			if depth == 0 {
				if !t.Is(")") {
					return -1
				}
				return j
			}
		}
	}
	return -1
}

func (p *parser) parseTernary() ast.Expr {
	m := p.mark()
	cond := p.parseBinary(1)
	if !p.at("?") {
		return cond
	}
	p.next()
	then := p.parseAssign()
	p.expect(":")
	els := p.parseAssign()
	return &ast.Ternary{Span: p.span(m), Cond: cond, Then: then, Else: els}
}

func (p *parser) parseBinary(minPrec int) ast.Expr {
	m := p.mark()
	left := p.parseUnary()
	for {
		t := p.peek()
		prec := binaryPrec(t)
		if prec == 0 || prec < minPrec {
			return left
		}
		p.next()
		right := p.parseBinary(prec + 1)
		left = &ast.BinaryExpr{Span: p.span(m), Op: t.Text, Left: left, Right: right}
	}
}

func (p *parser) parseUnary() ast.Expr {
	t := p.peek()
	if t.Kind == lexer.Operator {
		switch t.Text {
		case "!", "-", "+", "++", "--":
			m := p.mark()
			p.next()
			operand := p.parseUnary()
			return &ast.UnaryExpr{Span: p.span(m), Op: t.Text, Operand: operand}
		}
	}
	return p.parsePostfix()
}

func (p *parser) parsePostfix() ast.Expr {
	m := p.mark()
	x := p.parseCallMember()
	t := p.peek()
	if (t.Is("++") || t.Is("--")) && !t.NewlineBefore {
		p.next()
		return &ast.UnaryExpr{Span: p.span(m), Op: t.Text, Operand: x, Postfix: true}
	}
	return x
}

func (p *parser) parseCallMember() ast.Expr {
	m := p.mark()
	x := p.parsePrimary()
	for {
		switch {
		case p.at("."):
			p.next()
			prop := p.parsePropertyName()
			x = &ast.Member{Span: p.span(m), Object: x, Property: prop}
		case p.at("?."):
			p.next()
			switch {
			case p.at("("):
				args := p.parseArgs()
				x = &ast.Call{Span: p.span(m), Callee: x, Args: args, Optional: true}
			case p.at("["):
				p.next()
				idx := p.parseExpression()
				p.expect("]")
				x = &ast.Member{Span: p.span(m), Object: x, Index: idx, Optional: true}
			default:
				prop := p.parsePropertyName()
				x = &ast.Member{Span: p.span(m), Object: x, Property: prop, Optional: true}
			}
		case p.at("["):
			p.next()
			idx := p.parseExpression()
			p.expect("]")
			x = &ast.Member{Span: p.span(m), Object: x, Index: idx}
		case p.at("("):
			args := p.parseArgs()
			x = &ast.Call{Span: p.span(m), Callee: x, Args: args}
		default:
			return x
		}
	}
}

// parsePropertyName accepts identifiers and keywords after "." or "?.".
func (p *parser) parsePropertyName() *ast.Identifier {
	t := p.peek()
	if t.Kind != lexer.Ident && t.Kind != lexer.Keyword {
		p.errorExpected("property name")
		return &ast.Identifier{Span: p.span(p.mark())}
	}
	p.next()
	return &ast.Identifier{Span: p.span(mark{t.Offset, t.Line, t.Column}), Name: t.Text}
}

func (p *parser) parseArgs() []ast.Expr {
	p.expect("(")
	var args []ast.Expr
	for !p.at(")") && !p.atEOF() {
		args = append(args, p.parseAssign())
		if !p.accept(",") {
			break
		}
	}
	p.expect(")")
	return args
}

func (p *parser) parsePrimary() ast.Expr {
	t := p.peek()
	m := p.mark()
	switch t.Kind {
	case lexer.Number:
		p.next()
		return &ast.Literal{Span: p.span(m), Lit: ast.NumberLit, Raw: t.Text, Num: t.Num}
	case lexer.String:
		p.next()
		return &ast.Literal{Span: p.span(m), Lit: ast.StringLit, Raw: t.Text, Str: t.Str}
	case lexer.Template:
		p.next()
		return p.parseTemplate(t)
	case lexer.Ident:
		if p.atNamespaceCall() {
			return p.parseNamespaceCall()
		}
		p.next()
		return &ast.Identifier{Span: p.span(m), Name: t.Text}
	case lexer.Keyword:
		switch t.Text {
		case "true", "false":
			p.next()
			return &ast.Literal{Span: p.span(m), Lit: ast.BoolLit, Raw: t.Text, Bool: t.Text == "true"}
		case "null":
			p.next()
			return &ast.Literal{Span: p.span(m), Lit: ast.NullLit, Raw: t.Text}
		case "function":
			return p.parseFunction(true)
		}
	case lexer.Punct:
		switch t.Text {
		case "(":
			return p.parseParenOrRange()
		case "[":
			return p.parseArray()
		case "{":
			return p.parseObject()
		}
	}

	p.errorExpected("expression")
	switch {
	case t.Kind == lexer.EOF, t.Is(";"), t.Is("}"), t.Is(")"), t.Is("]"), startsStatement(t):
	default:
		p.next()
	}
	return &ast.BadExpr{Span: p.span(m)}
}

// atNamespaceCall reports whether the tokens read "ns:fn(" with no
// whitespace around the colon.
func (p *parser) atNamespaceCall() bool {
	if p.noNamespace > 0 {
		return false
	}
	colon, fn, open := p.peekN(1), p.peekN(2), p.peekN(3)
	return colon.Is(":") && !colon.SpaceBefore &&
		fn.Kind == lexer.Ident && !fn.SpaceBefore &&
		open.Is("(")
}

func (p *parser) parseNamespaceCall() ast.Expr {
	m := p.mark()
	ns := p.parseBindingName()
	p.expect(":")
	fn := p.parseBindingName()
	// Arguments may legitimately contain colons again, e.g. nested calls.
	saved := p.noNamespace
	p.noNamespace = 0
	args := p.parseArgs()
	p.noNamespace = saved
	return &ast.NamespaceCall{Span: p.span(m), Namespace: ns, Function: fn, Args: args}
}

// parseParenOrRange parses "(expr)" or the range form "(from to to)".
func (p *parser) parseParenOrRange() ast.Expr {
	m := p.mark()
	p.expect("(")
	saved := p.noNamespace
	p.noNamespace = 0
	x := p.parseExpression()
	if p.peek().IsIdent("to") {
		p.next()
		to := p.parseExpression()
		p.expect(")")
		p.noNamespace = saved
		return &ast.Range{Span: p.span(m), From: x, To: to}
	}
	p.expect(")")
	p.noNamespace = saved
	return x
}

func (p *parser) parseArray() ast.Expr {
	m := p.mark()
	p.expect("[")
	var elems []ast.Expr
	for !p.at("]") && !p.atEOF() {
		elems = append(elems, p.parseAssign())
		if !p.accept(",") {
			break
		}
	}
	p.expect("]")
	return &ast.ArrayLit{Span: p.span(m), Elements: elems}
}

func (p *parser) parseObject() ast.Expr {
	m := p.mark()
	p.expect("{")
	saved := p.noNamespace
	p.noNamespace = 0
	defer func() { p.noNamespace = saved }()

	obj := &ast.ObjectLit{}
	for !p.at("}") && !p.atEOF() {
		pm := p.mark()
		prop := &ast.Property{}
		t := p.peek()
		switch t.Kind {
		case lexer.Ident, lexer.Keyword:
			p.next()
			prop.Key = t.Text
		case lexer.String:
			p.next()
			prop.Key = t.Str
		case lexer.Number:
			p.next()
			prop.Key = t.Text
		default:
			if p.accept("[") {
				prop.Computed = p.parseAssign()
				p.expect("]")
				break
			}
			p.errorExpected("property key")
			obj.Span = p.span(m)
			p.skipTo("}")
			return obj
		}

		if p.accept(":") {
			prop.Value = p.parseAssign()
		} else if t.Kind == lexer.Ident && prop.Computed == nil {
			prop.Shorthand = true
			prop.Value = &ast.Identifier{Span: p.span(pm), Name: t.Text}
		} else {
			p.errorExpected(`":"`)
		}
		prop.Span = p.span(pm)
		obj.Entries = append(obj.Entries, prop)
		if !p.accept(",") {
			break
		}
	}
	p.expect("}")
	obj.Span = p.span(m)
	return obj
}

// skipTo advances to the next token with the given text at the current
// nesting level and consumes it.
func (p *parser) skipTo(text string) {
	depth := 0
	for !p.atEOF() {
		t := p.peek()
		if depth == 0 && t.Is(text) {
			p.next()
			return
		}
		switch {
		case t.Is("("), t.Is("["), t.Is("{"):
			depth++
		case t.Is(")"), t.Is("]"), t.Is("}"):
			depth--
		}
		p.next()
	}
}

// parseTemplate builds a TemplateLiteral from a template token, parsing each
// {{ }} segment with a sub-parser anchored at the segment's position.
func (p *parser) parseTemplate(t lexer.Token) ast.Expr {
	lit := &ast.TemplateLiteral{Span: p.span(mark{t.Offset, t.Line, t.Column})}
	for _, part := range t.Parts {
		if !part.IsExpr {
			lit.Segments = append(lit.Segments, ast.TemplateSegment{Text: part.Text})
			continue
		}
		sub := newParser(part.Expr, part.Pos)
		var x ast.Expr
		if sub.atEOF() {
			sub.errorExpected("expression in template interpolation")
			x = &ast.BadExpr{Span: sub.span(sub.mark())}
		} else {
			x = sub.parseExpression()
			if !sub.atEOF() {
				sub.errorExpected(`"}}"`)
			}
		}
		for _, e := range sub.errs {
			p.record(e)
		}
		lit.Segments = append(lit.Segments, ast.TemplateSegment{Expr: x})
	}
	return lit
}

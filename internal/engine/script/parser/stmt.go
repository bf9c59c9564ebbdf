package parser

import (
	"scriptlint/internal/engine/script/ast"
	"scriptlint/internal/engine/script/lexer"
)

// parseStatements parses until stop reports true or EOF.
func (p *parser) parseStatements(stop func() bool) []ast.Stmt {
	var list []ast.Stmt
	for !p.atEOF() && !stop() {
		if p.tooManyErrors() {
			for !p.atEOF() {
				p.next()
			}
			break
		}
		if p.at("}") {
			// stop did not claim it, so nothing is open.
			p.errorf(p.peek(), "unexpected %s", p.peek().Describe())
			p.next()
			continue
		}

		startPos, startErrs := p.pos, len(p.errs)
		list = append(list, p.parseStatement()...)
		if len(p.errs) > startErrs {
			p.synchronize(startPos)
		}
		if p.pos == startPos {
			p.next()
		}
	}
	return list
}

func (p *parser) parseStatement() []ast.Stmt {
	t := p.peek()
	switch {
	case t.Is("{"):
		if p.looksLikeObjectLiteral() {
			return []ast.Stmt{p.parseExprStatement()}
		}
		return []ast.Stmt{p.parseBlock()}
	case t.Is("var"), t.Is("let"), t.Is("const"):
		decls := p.parseVarDecls()
		p.endStatement()
		return decls
	case t.Is("function") && p.peekN(1).Kind == lexer.Ident:
		return []ast.Stmt{p.parseFunction(false)}
	case t.Is("if"):
		return []ast.Stmt{p.parseIf()}
	case t.Is("for"):
		return []ast.Stmt{p.parseFor()}
	case t.Is("while"):
		return []ast.Stmt{p.parseWhile()}
	case t.Is("switch"):
		return []ast.Stmt{p.parseSwitch()}
	case t.Is("return"):
		return []ast.Stmt{p.parseReturn()}
	case t.Is("break"):
		m := p.mark()
		p.next()
		p.endStatement()
		return []ast.Stmt{&ast.Break{Span: p.span(m)}}
	case t.Is("continue"):
		m := p.mark()
		p.next()
		p.endStatement()
		return []ast.Stmt{&ast.Continue{Span: p.span(m)}}
	case t.Is(";"):
		m := p.mark()
		p.next()
		return []ast.Stmt{&ast.Empty{Span: p.span(m)}}
	}
	return []ast.Stmt{p.parseExprStatement()}
}

// parseBody parses the single statement governed by if/else/loops.
func (p *parser) parseBody() ast.Stmt {
	m := p.mark()
	stmts := p.parseStatement()
	switch len(stmts) {
	case 0:
		return &ast.Empty{Span: p.span(m)}
	case 1:
		return stmts[0]
	}
	return &ast.Block{Span: p.span(m), Body: stmts}
}

// endStatement accepts ";" or an implicit terminator: newline, "}" or EOF.
func (p *parser) endStatement() {
	if p.accept(";") {
		return
	}
	t := p.peek()
	if t.Kind == lexer.EOF || t.Is("}") || t.NewlineBefore {
		return
	}
	p.errorExpected(`";"`)
}

func (p *parser) parseExprStatement() ast.Stmt {
	m := p.mark()
	x := p.parseExpression()
	p.endStatement()
	return &ast.ExprStmt{Span: p.span(m), X: x}
}

func (p *parser) parseBlock() *ast.Block {
	m := p.mark()
	p.expect("{")
	body := p.parseStatements(func() bool { return p.at("}") })
	p.expect("}")
	return &ast.Block{Span: p.span(m), Body: body}
}

// looksLikeObjectLiteral decides whether "{" at statement start opens a
// mapping literal rather than a block.
func (p *parser) looksLikeObjectLiteral() bool {
	key, sep := p.peekN(1), p.peekN(2)
	keyish := key.Kind == lexer.Ident || key.Kind == lexer.String || key.Kind == lexer.Number || key.Kind == lexer.Keyword
	if !keyish {
		return false
	}
	switch {
	case sep.Is(":"):
		// "{ ns:fn() }" is a block holding a namespace call.
		if key.Kind == lexer.Ident && !sep.SpaceBefore && p.peekN(3).Kind == lexer.Ident &&
			!p.peekN(3).SpaceBefore && p.peekN(4).Is("(") {
			return false
		}
		return true
	case sep.Is(","):
		return key.Kind == lexer.Ident
	case sep.Is("}"):
		// "{ name }" is only a shorthand mapping when it ends the fragment.
		after := p.peekN(3)
		if after.Is(";") {
			after = p.peekN(4)
		}
		return key.Kind == lexer.Ident && after.Kind == lexer.EOF
	}
	return false
}

func (p *parser) parseVarDecls() []ast.Stmt {
	kw := p.next()
	kind := ast.DeclKind(kw.Text)
	var out []ast.Stmt
	first := true
	for {
		var m mark
		if first {
			m = markOf(ast.Span{Offset: kw.Offset, Line: kw.Line, Column: kw.Column})
		} else {
			m = p.mark()
		}
		first = false

		name := p.parseBindingName()
		if name == nil {
			return out
		}
		var init ast.Expr
		if p.accept("=") {
			init = p.parseAssign()
		} else if kind == ast.DeclConst {
			p.errorExpected(`"=" in const declaration`)
		}
		out = append(out, &ast.VarDecl{Span: p.span(m), Decl: kind, Name: name, Init: init})
		if !p.accept(",") {
			return out
		}
	}
}

func (p *parser) parseBindingName() *ast.Identifier {
	t := p.peek()
	if t.Kind != lexer.Ident {
		p.errorExpected("identifier")
		return nil
	}
	p.next()
	return &ast.Identifier{Span: p.span(mark{t.Offset, t.Line, t.Column}), Name: t.Text}
}

func (p *parser) parseFunction(isExpr bool) *ast.FunctionDecl {
	m := p.mark()
	p.expect("function")
	fn := &ast.FunctionDecl{IsExpr: isExpr}
	if p.peek().Kind == lexer.Ident {
		fn.Name = p.parseBindingName()
	} else if !isExpr {
		p.errorExpected("function name")
	}
	fn.Params = p.parseParams()
	if p.at("{") {
		fn.Body = p.parseBlock()
	} else {
		p.errorExpected(`"{"`)
		fn.Body = &ast.Block{Span: p.span(p.mark())}
	}
	fn.Span = p.span(m)
	return fn
}

func (p *parser) parseParams() []*ast.Param {
	if !p.expect("(") {
		return nil
	}
	var params []*ast.Param
	for !p.at(")") && !p.atEOF() {
		m := p.mark()
		name := p.parseBindingName()
		if name == nil {
			break
		}
		param := &ast.Param{Name: name}
		if p.accept("=") {
			param.Default = p.parseAssign()
		}
		param.Span = p.span(m)
		params = append(params, param)
		if !p.accept(",") {
			break
		}
	}
	p.expect(")")
	return params
}

func (p *parser) parseIf() ast.Stmt {
	m := p.mark()
	p.next()
	p.expect("(")
	cond := p.parseExpression()
	p.expect(")")
	n := &ast.If{Cond: cond, Then: p.parseBody()}
	if p.accept("else") {
		n.Else = p.parseBody()
	}
	n.Span = p.span(m)
	return n
}

func (p *parser) parseWhile() ast.Stmt {
	m := p.mark()
	p.next()
	p.expect("(")
	cond := p.parseExpression()
	p.expect(")")
	body := p.parseBody()
	return &ast.While{Span: p.span(m), Cond: cond, Body: body}
}

// parseFor handles both the classic three-clause loop and the colon form
// "for (let x : items)". The colon is recognised here by position, never as
// a namespace separator.
func (p *parser) parseFor() ast.Stmt {
	m := p.mark()
	p.next()
	p.expect("(")

	decl := ast.DeclNone
	t0, t1, t2 := p.peek(), p.peekN(1), p.peekN(2)
	isDecl := t0.Is("var") || t0.Is("let") || t0.Is("const")
	bare := t0.Kind == lexer.Ident && t1.Is(":") &&
		!(!t1.SpaceBefore && t2.Kind == lexer.Ident && !t2.SpaceBefore && p.peekN(3).Is("("))
	if (isDecl && t1.Kind == lexer.Ident && t2.Is(":")) || bare {
		if isDecl {
			decl = ast.DeclKind(p.next().Text)
		}
		binding := p.parseBindingName()
		p.expect(":")
		iterable := p.parseExpression()
		p.expect(")")
		body := p.parseBody()
		return &ast.ForIn{Span: p.span(m), Decl: decl, Binding: binding, Iterable: iterable, Body: body}
	}

	n := &ast.For{}
	switch {
	case p.at(";"):
	case isDecl:
		n.Init = p.parseVarDecls()
	default:
		im := p.mark()
		x := p.parseExpression()
		n.Init = []ast.Stmt{&ast.ExprStmt{Span: p.span(im), X: x}}
	}
	p.expect(";")
	if !p.at(";") {
		n.Cond = p.parseExpression()
	}
	p.expect(";")
	if !p.at(")") {
		n.Update = p.parseExpression()
	}
	p.expect(")")
	n.Body = p.parseBody()
	n.Span = p.span(m)
	return n
}

func (p *parser) parseSwitch() ast.Stmt {
	m := p.mark()
	p.next()
	p.expect("(")
	disc := p.parseExpression()
	p.expect(")")
	n := &ast.Switch{Discriminant: disc}
	if !p.expect("{") {
		n.Span = p.span(m)
		return n
	}
	endOfClause := func() bool { return p.at("case") || p.at("default") || p.at("}") }
	for !p.at("}") && !p.atEOF() && !p.tooManyErrors() {
		cm := p.mark()
		c := &ast.Case{}
		switch {
		case p.accept("case"):
			p.noNamespace++
			c.Test = p.parseExpression()
			p.noNamespace--
		case p.accept("default"):
		default:
			p.errorExpected(`"case" or "default"`)
			p.next()
			continue
		}
		p.expect(":")
		c.Body = p.parseStatements(endOfClause)
		c.Span = p.span(cm)
		n.Cases = append(n.Cases, c)
	}
	p.expect("}")
	n.Span = p.span(m)
	return n
}

func (p *parser) parseReturn() ast.Stmt {
	m := p.mark()
	p.next()
	n := &ast.Return{}
	t := p.peek()
	if !t.Is(";") && !t.Is("}") && t.Kind != lexer.EOF && !t.NewlineBefore {
		n.Value = p.parseExpression()
	}
	p.endStatement()
	n.Span = p.span(m)
	return n
}

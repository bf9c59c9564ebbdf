package scope

import (
	"cmp"
	"slices"

	"scriptlint/internal/engine/script/ast"
)

// Analyze builds the scope tree of prog. When standalone is true the names
// referenced by a trailing mapping literal are marked exported.
func Analyze(prog *ast.Program, standalone bool) *Info {
	a := &analyzer{info: &Info{}}
	a.info.Root = newScope(ProgramScope, prog, nil)
	a.cur = a.info.Root
	if prog == nil {
		return a.info
	}

	a.hoistVars(prog.Body)
	a.statements(prog.Body)
	if standalone {
		a.markExports(prog)
	}
	slices.SortStableFunc(a.info.Symbols, func(x, y *Symbol) int {
		return cmp.Compare(x.Span.Offset, y.Span.Offset)
	})
	slices.SortStableFunc(a.info.Shadows, func(x, y Shadow) int {
		return cmp.Compare(x.Symbol.Span.Offset, y.Symbol.Span.Offset)
	})
	return a.info
}

type analyzer struct {
	info *Info
	cur  *Scope
	// self holds the symbols whose own bodies are being walked; references
	// to them from inside do not count as uses.
	self []*Symbol
}

func (a *analyzer) push(kind Kind, node ast.Node) {
	a.cur = newScope(kind, node, a.cur)
}

func (a *analyzer) pop() {
	a.cur = a.cur.Parent
}

func (a *analyzer) declare(in *Scope, id *ast.Identifier, kind SymbolKind, decl ast.DeclKind, node ast.Node) *Symbol {
	if id == nil || id.Name == "" {
		return nil
	}
	if existing := in.LookupLocal(id.Name); existing != nil {
		return existing
	}
	sym := &Symbol{Name: id.Name, Kind: kind, Decl: decl, Span: id.Span, Node: node}
	if in.Parent != nil {
		if outer := in.Parent.Lookup(id.Name); outer != nil {
			a.info.Shadows = append(a.info.Shadows, Shadow{Symbol: sym, Shadowed: outer})
		}
	}
	in.add(sym)
	a.info.Symbols = append(a.info.Symbols, sym)
	return sym
}

// hoistVars pre-declares every var in body (outside nested functions) in
// the current function scope.
func (a *analyzer) hoistVars(body []ast.Stmt) {
	target := a.cur.FunctionScope()
	for _, st := range body {
		ast.Inspect(st, func(n ast.Node) bool {
			switch n := n.(type) {
			case *ast.FunctionDecl, *ast.ArrowFunction:
				return false
			case *ast.VarDecl:
				if n.Decl == ast.DeclVar {
					a.declare(target, n.Name, Variable, ast.DeclVar, n)
				}
			case *ast.ForIn:
				if n.Decl == ast.DeclVar {
					a.declare(target, n.Binding, Variable, ast.DeclVar, n)
				}
			}
			return true
		})
	}
}

// hoistFunctions pre-declares the function statements of a statement list.
func (a *analyzer) hoistFunctions(body []ast.Stmt) {
	for _, st := range body {
		if fn, ok := st.(*ast.FunctionDecl); ok && !fn.IsExpr {
			a.declare(a.cur, fn.Name, Function, ast.DeclNone, fn)
		}
	}
}

// hoistLexical pre-declares the let and const bindings of a statement list
// so function bodies walked earlier in the list can resolve them.
func (a *analyzer) hoistLexical(body []ast.Stmt) {
	for _, st := range body {
		if n, ok := st.(*ast.VarDecl); ok && n.Decl != ast.DeclVar {
			a.declare(a.cur, n.Name, Variable, n.Decl, n)
		}
	}
}

func (a *analyzer) statements(body []ast.Stmt) {
	a.hoistFunctions(body)
	a.hoistLexical(body)
	for _, st := range body {
		a.stmt(st)
	}
}

func (a *analyzer) stmt(st ast.Stmt) {
	switch n := st.(type) {
	case nil:
	case *ast.Block:
		a.push(BlockScope, n)
		a.statements(n.Body)
		a.pop()
	case *ast.VarDecl:
		a.varDecl(n)
	case *ast.FunctionDecl:
		if n.IsExpr {
			a.expr(n)
			return
		}
		var sym *Symbol
		if n.Name != nil {
			sym = a.cur.Lookup(n.Name.Name)
		}
		a.function(n, n.Params, n.Body, nil, sym)
	case *ast.If:
		a.expr(n.Cond)
		a.stmt(n.Then)
		a.stmt(n.Else)
	case *ast.For:
		a.push(LoopScope, n)
		for _, init := range n.Init {
			a.stmt(init)
		}
		a.expr(n.Cond)
		a.expr(n.Update)
		a.stmt(n.Body)
		a.pop()
	case *ast.ForIn:
		a.expr(n.Iterable)
		a.push(LoopScope, n)
		switch n.Decl {
		case ast.DeclNone:
			a.write(n.Binding)
		case ast.DeclVar:
			// hoisted
		default:
			a.declare(a.cur, n.Binding, Variable, n.Decl, n)
		}
		a.stmt(n.Body)
		a.pop()
	case *ast.While:
		a.expr(n.Cond)
		a.stmt(n.Body)
	case *ast.Switch:
		a.expr(n.Discriminant)
		a.push(BlockScope, n)
		var all []ast.Stmt
		for _, c := range n.Cases {
			all = append(all, c.Body...)
		}
		a.hoistFunctions(all)
		a.hoistLexical(all)
		for _, c := range n.Cases {
			a.expr(c.Test)
			for _, s := range c.Body {
				a.stmt(s)
			}
		}
		a.pop()
	case *ast.Return:
		a.expr(n.Value)
	case *ast.ExprStmt:
		a.expr(n.X)
	case *ast.Program:
		a.statements(n.Body)
	}
}

func (a *analyzer) varDecl(n *ast.VarDecl) {
	var sym *Symbol
	if n.Decl == ast.DeclVar {
		if n.Name != nil {
			sym = a.cur.FunctionScope().LookupLocal(n.Name.Name)
		}
	} else {
		sym = a.declare(a.cur, n.Name, Variable, n.Decl, n)
	}
	if n.Init == nil {
		return
	}
	if sym != nil && ast.IsFunction(n.Init) {
		a.self = append(a.self, sym)
		a.expr(n.Init)
		a.self = a.self[:len(a.self)-1]
		return
	}
	a.expr(n.Init)
}

// function walks a function-like node in a fresh function scope. sym is the
// function's own binding, if any.
func (a *analyzer) function(node ast.Node, params []*ast.Param, body *ast.Block, exprBody ast.Expr, sym *Symbol) {
	a.push(FunctionScope, node)
	defer a.pop()
	if sym != nil {
		a.self = append(a.self, sym)
		defer func() { a.self = a.self[:len(a.self)-1] }()
	}

	// A named function expression binds its name inside itself only.
	if fn, ok := node.(*ast.FunctionDecl); ok && fn.IsExpr && fn.Name != nil {
		inner := a.declare(a.cur, fn.Name, Function, ast.DeclNone, fn)
		if inner != nil {
			// Only reachable from its own body, so never reported.
			inner.Exported = true
			a.self = append(a.self, inner)
			defer func() { a.self = a.self[:len(a.self)-1] }()
		}
	}

	for _, p := range params {
		if p == nil {
			continue
		}
		a.expr(p.Default)
		a.declare(a.cur, p.Name, Parameter, ast.DeclNone, p)
	}
	if body != nil {
		a.hoistVars(body.Body)
		a.statements(body.Body)
	}
	a.expr(exprBody)
}

func (a *analyzer) expr(x ast.Expr) {
	switch n := x.(type) {
	case nil:
	case *ast.Identifier:
		a.use(n)
	case *ast.FunctionDecl:
		a.function(n, n.Params, n.Body, nil, nil)
	case *ast.ArrowFunction:
		params, body, exprBody := ast.FunctionParts(n)
		a.function(n, params, body, exprBody, nil)
	case *ast.BinaryExpr:
		a.expr(n.Left)
		a.expr(n.Right)
	case *ast.UnaryExpr:
		a.expr(n.Operand)
	case *ast.Assign:
		if id, ok := n.Target.(*ast.Identifier); ok && n.Op == "=" {
			a.write(id)
		} else {
			a.expr(n.Target)
		}
		a.expr(n.Value)
	case *ast.Ternary:
		a.expr(n.Cond)
		a.expr(n.Then)
		a.expr(n.Else)
	case *ast.Call:
		a.expr(n.Callee)
		for _, arg := range n.Args {
			a.expr(arg)
		}
	case *ast.NamespaceCall:
		for _, arg := range n.Args {
			a.expr(arg)
		}
	case *ast.Member:
		a.expr(n.Object)
		a.expr(n.Index)
	case *ast.Range:
		a.expr(n.From)
		a.expr(n.To)
	case *ast.TemplateLiteral:
		for _, seg := range n.Segments {
			a.expr(seg.Expr)
		}
	case *ast.ArrayLit:
		for _, el := range n.Elements {
			a.expr(el)
		}
	case *ast.ObjectLit:
		for _, p := range n.Entries {
			a.expr(p.Computed)
			a.expr(p.Value)
		}
	}
}

func (a *analyzer) isSelf(sym *Symbol) bool {
	for _, s := range a.self {
		if s == sym {
			return true
		}
	}
	return false
}

func (a *analyzer) use(id *ast.Identifier) {
	sym := a.cur.Lookup(id.Name)
	if sym == nil {
		a.info.Unresolved = append(a.info.Unresolved, id)
		return
	}
	if a.isSelf(sym) {
		return
	}
	sym.Used = true
	sym.Refs++
}

// write resolves an assignment target without marking it used.
func (a *analyzer) write(id *ast.Identifier) {
	if id == nil {
		return
	}
	if a.cur.Lookup(id.Name) == nil {
		a.info.Unresolved = append(a.info.Unresolved, id)
	}
}

// markExports flags the top-level names referenced by the values of a
// trailing mapping literal.
func (a *analyzer) markExports(prog *ast.Program) {
	obj := TrailingExport(prog)
	if obj == nil {
		return
	}
	for _, p := range obj.Entries {
		for _, name := range referencedNames(p.Value) {
			if sym := a.info.Root.LookupLocal(name); sym != nil {
				sym.Exported = true
				a.info.Exports = append(a.info.Exports, name)
			}
		}
	}
}

// TrailingExport returns the mapping literal that ends prog, either as an
// expression statement or as "return {...}", or nil.
func TrailingExport(prog *ast.Program) *ast.ObjectLit {
	for i := len(prog.Body) - 1; i >= 0; i-- {
		switch st := prog.Body[i].(type) {
		case *ast.Empty:
			continue
		case *ast.ExprStmt:
			obj, _ := st.X.(*ast.ObjectLit)
			return obj
		case *ast.Return:
			obj, _ := st.Value.(*ast.ObjectLit)
			return obj
		}
		return nil
	}
	return nil
}

// referencedNames collects identifier references in x, skipping property
// names and namespace call targets.
func referencedNames(x ast.Expr) []string {
	var names []string
	ast.Inspect(x, func(n ast.Node) bool {
		switch n := n.(type) {
		case *ast.Identifier:
			names = append(names, n.Name)
		case *ast.Member:
			names = append(names, referencedNames(n.Object)...)
			names = append(names, referencedNames(n.Index)...)
			return false
		case *ast.NamespaceCall:
			for _, arg := range n.Args {
				names = append(names, referencedNames(arg)...)
			}
			return false
		}
		return true
	})
	return names
}

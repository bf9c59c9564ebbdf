// Package metrics computes per-function cyclomatic complexity, nesting depth,
// parameter count and length.
package metrics

import "scriptlint/internal/engine/script/ast"

// SiteKind names a construct that opens a nesting level.
type SiteKind string

const (
	SiteIf       SiteKind = "if"
	SiteFor      SiteKind = "for"
	SiteForIn    SiteKind = "for-in"
	SiteWhile    SiteKind = "while"
	SiteFunction SiteKind = "function"
)

// Site is one nesting construct and the depth it sits at, 1 being the
// outermost level of its unit.
type Site struct {
	Kind  SiteKind
	Node  ast.Node
	Depth int
}

// Function holds the metrics of one unit: a function-like node or the
// fragment top level.
type Function struct {
	Node       ast.Node
	Name       string
	Span       ast.Span
	TopLevel   bool
	Complexity int
	MaxNesting int
	Params     int
	Lines      int
	Sites      []Site
}

// DeepestSite returns the first site exceeding limit, or false.
func (f *Function) DeepestSite(limit int) (Site, bool) {
	for _, s := range f.Sites {
		if s.Depth > limit {
			return s, true
		}
	}
	return Site{}, false
}

// Info lists the measured units in source order, top level first.
type Info struct {
	Functions []*Function
}

// Lookup returns the metrics for node, or nil.
func (i *Info) Lookup(node ast.Node) *Function {
	for _, f := range i.Functions {
		if f.Node == node {
			return f
		}
	}
	return nil
}

// Analyze measures the top level of prog and every function inside it.
func Analyze(prog *ast.Program) *Info {
	info := &Info{}
	if prog == nil {
		return info
	}
	names := DisplayNames(prog)

	top := measure(prog, names)
	top.TopLevel = true
	info.Functions = append(info.Functions, top)

	ast.Inspect(prog, func(n ast.Node) bool {
		if ast.IsFunction(n) {
			info.Functions = append(info.Functions, measure(n, names))
		}
		return true
	})
	return info
}

// DisplayNames maps anonymous function expressions to the name they are
// bound to (const handler = () => ..., { run: function () {} }).
func DisplayNames(prog *ast.Program) map[ast.Node]string {
	names := map[ast.Node]string{}
	ast.Inspect(prog, func(n ast.Node) bool {
		switch n := n.(type) {
		case *ast.VarDecl:
			if n.Name != nil && ast.IsFunction(n.Init) {
				names[n.Init] = n.Name.Name
			}
		case *ast.Property:
			if n.Key != "" && ast.IsFunction(n.Value) {
				names[n.Value] = n.Key
			}
		case *ast.Assign:
			if id, ok := n.Target.(*ast.Identifier); ok && ast.IsFunction(n.Value) {
				names[n.Value] = id.Name
			}
		}
		return true
	})
	return names
}

func nameOf(n ast.Node, names map[ast.Node]string) string {
	if fn, ok := n.(*ast.FunctionDecl); ok && fn.Name != nil {
		return fn.Name.Name
	}
	if name, ok := names[n]; ok {
		return name
	}
	return ast.FunctionName(n)
}

type measurer struct {
	fn *Function
}

func measure(unit ast.Node, names map[ast.Node]string) *Function {
	span := unit.NodeSpan()
	f := &Function{
		Node:       unit,
		Name:       nameOf(unit, names),
		Span:       span,
		Complexity: 1,
		Lines:      span.EndLine - span.Line + 1,
	}
	m := &measurer{fn: f}

	if prog, ok := unit.(*ast.Program); ok {
		for _, st := range prog.Body {
			m.visit(st, 0)
		}
		return f
	}

	params, body, exprBody := ast.FunctionParts(unit)
	f.Params = len(params)
	for _, p := range params {
		if p != nil {
			m.visit(p.Default, 0)
		}
	}
	if body != nil {
		for _, st := range body.Body {
			m.visit(st, 0)
		}
	}
	m.visit(exprBody, 0)
	return f
}

func (m *measurer) site(kind SiteKind, n ast.Node, depth int) {
	m.fn.Sites = append(m.fn.Sites, Site{Kind: kind, Node: n, Depth: depth})
	if depth > m.fn.MaxNesting {
		m.fn.MaxNesting = depth
	}
}

// visit adds the decision points of n to the unit. Nested functions count
// as one nesting site but are measured as units of their own.
func (m *measurer) visit(n ast.Node, depth int) {
	switch n := n.(type) {
	case nil:
		return
	case *ast.FunctionDecl, *ast.ArrowFunction:
		m.site(SiteFunction, n, depth+1)
		return
	case *ast.If:
		m.fn.Complexity++
		m.site(SiteIf, n, depth+1)
		m.visit(n.Cond, depth)
		m.visit(n.Then, depth+1)
		if elif, ok := n.Else.(*ast.If); ok {
			// else-if continues the chain at the same depth
			m.visit(elif, depth)
		} else {
			m.visit(n.Else, depth+1)
		}
		return
	case *ast.For:
		m.fn.Complexity++
		m.site(SiteFor, n, depth+1)
		for _, st := range n.Init {
			m.visit(st, depth)
		}
		m.visit(n.Cond, depth)
		m.visit(n.Update, depth)
		m.visit(n.Body, depth+1)
		return
	case *ast.ForIn:
		m.fn.Complexity++
		m.site(SiteForIn, n, depth+1)
		m.visit(n.Iterable, depth)
		m.visit(n.Body, depth+1)
		return
	case *ast.While:
		m.fn.Complexity++
		m.site(SiteWhile, n, depth+1)
		m.visit(n.Cond, depth)
		m.visit(n.Body, depth+1)
		return
	case *ast.Ternary:
		m.fn.Complexity++
	case *ast.BinaryExpr:
		if n.Op == "&&" || n.Op == "||" {
			m.fn.Complexity++
		}
	case *ast.Case:
		if n.Test != nil {
			m.fn.Complexity++
		}
	}
	for _, c := range ast.Children(n) {
		m.visit(c, depth)
	}
}

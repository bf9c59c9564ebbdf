package ast

// Children returns the direct child nodes of n in source order.
func Children(n Node) []Node {
	var out []Node
	addStmt := func(s Stmt) {
		if s != nil {
			out = append(out, s)
		}
	}
	addExpr := func(e Expr) {
		if e != nil {
			out = append(out, e)
		}
	}
	addIdent := func(id *Identifier) {
		if id != nil {
			out = append(out, id)
		}
	}
	addParams := func(params []*Param) {
		for _, p := range params {
			if p != nil {
				out = append(out, p)
			}
		}
	}

	switch n := n.(type) {
	case *Program:
		for _, s := range n.Body {
			addStmt(s)
		}
	case *Block:
		for _, s := range n.Body {
			addStmt(s)
		}
	case *VarDecl:
		addIdent(n.Name)
		addExpr(n.Init)
	case *FunctionDecl:
		addIdent(n.Name)
		addParams(n.Params)
		if n.Body != nil {
			out = append(out, n.Body)
		}
	case *Param:
		addIdent(n.Name)
		addExpr(n.Default)
	case *ArrowFunction:
		addParams(n.Params)
		if n.Body != nil {
			out = append(out, n.Body)
		}
	case *If:
		addExpr(n.Cond)
		addStmt(n.Then)
		addStmt(n.Else)
	case *For:
		for _, s := range n.Init {
			addStmt(s)
		}
		addExpr(n.Cond)
		addExpr(n.Update)
		addStmt(n.Body)
	case *ForIn:
		addIdent(n.Binding)
		addExpr(n.Iterable)
		addStmt(n.Body)
	case *While:
		addExpr(n.Cond)
		addStmt(n.Body)
	case *Switch:
		addExpr(n.Discriminant)
		for _, c := range n.Cases {
			if c != nil {
				out = append(out, c)
			}
		}
	case *Case:
		addExpr(n.Test)
		for _, s := range n.Body {
			addStmt(s)
		}
	case *Return:
		addExpr(n.Value)
	case *ExprStmt:
		addExpr(n.X)
	case *BinaryExpr:
		addExpr(n.Left)
		addExpr(n.Right)
	case *UnaryExpr:
		addExpr(n.Operand)
	case *Assign:
		addExpr(n.Target)
		addExpr(n.Value)
	case *Ternary:
		addExpr(n.Cond)
		addExpr(n.Then)
		addExpr(n.Else)
	case *Call:
		addExpr(n.Callee)
		for _, a := range n.Args {
			addExpr(a)
		}
	case *NamespaceCall:
		addIdent(n.Namespace)
		addIdent(n.Function)
		for _, a := range n.Args {
			addExpr(a)
		}
	case *Member:
		addExpr(n.Object)
		addIdent(n.Property)
		addExpr(n.Index)
	case *Range:
		addExpr(n.From)
		addExpr(n.To)
	case *TemplateLiteral:
		for _, seg := range n.Segments {
			addExpr(seg.Expr)
		}
	case *ArrayLit:
		for _, e := range n.Elements {
			addExpr(e)
		}
	case *ObjectLit:
		for _, p := range n.Entries {
			if p != nil {
				out = append(out, p)
			}
		}
	case *Property:
		addExpr(n.Computed)
		addExpr(n.Value)
	}
	return out
}

// Inspect traverses the tree rooted at n in depth-first order. If f returns
// false the children of that node are skipped.
func Inspect(n Node, f func(Node) bool) {
	if n == nil || !f(n) {
		return
	}
	for _, c := range Children(n) {
		Inspect(c, f)
	}
}

// FunctionName returns a display name for a function-like node.
func FunctionName(n Node) string {
	switch fn := n.(type) {
	case *FunctionDecl:
		if fn.Name != nil {
			return fn.Name.Name
		}
		return "<anonymous>"
	case *ArrowFunction:
		return "<arrow>"
	case *Program:
		return "<top level>"
	}
	return ""
}

// FunctionParts returns the parameters and body of a function-like node.
// An arrow function with an expression body returns a nil block and the
// expression.
func FunctionParts(n Node) (params []*Param, body *Block, expr Expr) {
	switch fn := n.(type) {
	case *FunctionDecl:
		return fn.Params, fn.Body, nil
	case *ArrowFunction:
		switch b := fn.Body.(type) {
		case *Block:
			return fn.Params, b, nil
		case Expr:
			return fn.Params, nil, b
		}
		return fn.Params, nil, nil
	}
	return nil, nil, nil
}

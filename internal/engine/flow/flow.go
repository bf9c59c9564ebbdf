// Package flow performs the structural reachability walk used for return
// consistency and unreachable-code checks.
package flow

import (
	"cmp"
	"slices"

	"scriptlint/internal/engine/script/ast"
)

// exit describes how control leaves a statement.
type exit int

const (
	fallsThrough exit = iota
	returns
	// jumps covers break and continue: control leaves the block but no
	// value is returned.
	jumps
)

// Summary is the control-flow summary of one function-like node.
type Summary struct {
	Function ast.Node
	Name     string
	// AllPathsReturn is true when every path through the body ends in a
	// return statement.
	AllPathsReturn bool
	// FallsThrough is true when some reachable path reaches the end of the
	// body without returning.
	FallsThrough   bool
	HasValueReturn bool
	HasBareReturn  bool
	ValueReturns   []*ast.Return
	BareReturns    []*ast.Return
}

// Inconsistent reports mixed return presence: a value is returned on some
// path while another path falls through or returns nothing.
func (s *Summary) Inconsistent() bool {
	return s.HasValueReturn && (s.FallsThrough || s.HasBareReturn)
}

// Info holds the summaries of every function in a program plus the first
// unreachable statement of each statement list.
type Info struct {
	Functions   []*Summary
	Unreachable []ast.Stmt
}

// Analyze walks every function-like node of prog, and the top level.
func Analyze(prog *ast.Program) *Info {
	info := &Info{}
	if prog == nil {
		return info
	}
	w := &walker{info: info}
	w.list(prog.Body)

	ast.Inspect(prog, func(n ast.Node) bool {
		if ast.IsFunction(n) {
			info.Functions = append(info.Functions, w.function(n))
		}
		return true
	})
	slices.SortFunc(info.Unreachable, func(a, b ast.Stmt) int {
		return cmp.Compare(a.NodeSpan().Offset, b.NodeSpan().Offset)
	})
	return info
}

// Lookup returns the summary for fn, or nil.
func (i *Info) Lookup(fn ast.Node) *Summary {
	for _, s := range i.Functions {
		if s.Function == fn {
			return s
		}
	}
	return nil
}

type walker struct {
	info *Info
}

func (w *walker) function(fn ast.Node) *Summary {
	s := &Summary{Function: fn, Name: ast.FunctionName(fn)}
	_, body, exprBody := ast.FunctionParts(fn)
	if body == nil {
		// Expression-bodied arrows always yield their expression.
		s.AllPathsReturn = exprBody != nil
		s.HasValueReturn = exprBody != nil
		s.FallsThrough = exprBody == nil
		return s
	}

	s.AllPathsReturn = w.list(body.Body) == returns
	s.FallsThrough = !s.AllPathsReturn

	ast.Inspect(body, func(n ast.Node) bool {
		if ast.IsFunction(n) {
			return false
		}
		if r, ok := n.(*ast.Return); ok {
			if r.Value != nil {
				s.HasValueReturn = true
				s.ValueReturns = append(s.ValueReturns, r)
			} else {
				s.HasBareReturn = true
				s.BareReturns = append(s.BareReturns, r)
			}
		}
		return true
	})
	return s
}

// list evaluates a statement list. Statements after one that cannot fall
// through are unreachable; the first of them is recorded.
func (w *walker) list(stmts []ast.Stmt) exit {
	state := fallsThrough
	recorded := false
	for _, st := range stmts {
		if state != fallsThrough && !recorded {
			if _, empty := st.(*ast.Empty); !empty {
				w.info.Unreachable = append(w.info.Unreachable, st)
				recorded = true
			}
		}
		r := w.stmt(st)
		if state == fallsThrough {
			state = r
		}
	}
	return state
}

func (w *walker) stmt(st ast.Stmt) exit {
	switch n := st.(type) {
	case *ast.Return:
		return returns
	case *ast.Break, *ast.Continue:
		return jumps
	case *ast.Block:
		return w.list(n.Body)
	case *ast.If:
		then := w.stmt(n.Then)
		if n.Else == nil {
			return fallsThrough
		}
		els := w.stmt(n.Else)
		switch {
		case then == returns && els == returns:
			return returns
		case then != fallsThrough && els != fallsThrough:
			return jumps
		}
		return fallsThrough
	case *ast.For:
		w.stmt(n.Body)
		return fallsThrough
	case *ast.ForIn:
		w.stmt(n.Body)
		return fallsThrough
	case *ast.While:
		w.stmt(n.Body)
		return fallsThrough
	case *ast.Switch:
		return w.switchStmt(n)
	}
	return fallsThrough
}

// switchStmt returns on all paths only with a default clause and every
// clause returning. Empty clauses fall into the next one.
func (w *walker) switchStmt(n *ast.Switch) exit {
	results := make([]exit, len(n.Cases))
	hasDefault := false
	for i, c := range n.Cases {
		if c.Test == nil {
			hasDefault = true
		}
		results[i] = w.list(c.Body)
	}
	if !hasDefault {
		return fallsThrough
	}
	for i := range n.Cases {
		effective := results[i]
		for j := i; j < len(n.Cases) && len(n.Cases[j].Body) == 0; j++ {
			if j+1 < len(n.Cases) {
				effective = results[j+1]
			} else {
				effective = fallsThrough
			}
		}
		if effective != returns {
			return fallsThrough
		}
	}
	return returns
}

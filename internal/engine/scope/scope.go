// Package scope builds the symbol table for a parsed fragment: nested scopes,
// declarations, resolved uses, shadowing and export status.
package scope

import "scriptlint/internal/engine/script/ast"

// Kind is the construct that opened a scope.
type Kind int

const (
	ProgramScope Kind = iota
	FunctionScope
	BlockScope
	LoopScope
)

func (k Kind) String() string {
	switch k {
	case ProgramScope:
		return "program"
	case FunctionScope:
		return "function"
	case LoopScope:
		return "loop"
	default:
		return "block"
	}
}

// SymbolKind classifies a declared name.
type SymbolKind int

const (
	Variable SymbolKind = iota
	Parameter
	Function
)

func (k SymbolKind) String() string {
	switch k {
	case Parameter:
		return "parameter"
	case Function:
		return "function"
	default:
		return "variable"
	}
}

// Symbol is one declared name.
type Symbol struct {
	Name string
	Kind SymbolKind
	// Decl is the declaring keyword for variables; DeclNone otherwise.
	Decl ast.DeclKind
	// Span is the span of the declared identifier.
	Span ast.Span
	// Node is the declaring node: *ast.VarDecl, *ast.Param, *ast.ForIn or
	// *ast.FunctionDecl.
	Node  ast.Node
	Scope *Scope

	Used     bool
	Exported bool
	// Refs counts references that marked the symbol used.
	Refs int
}

// Scope is one level of the scope tree. Parent is a back-reference for
// lookups; the parent owns its Children.
type Scope struct {
	Kind     Kind
	Node     ast.Node
	Parent   *Scope
	Children []*Scope

	symbols map[string]*Symbol
	order   []*Symbol
}

func newScope(kind Kind, node ast.Node, parent *Scope) *Scope {
	s := &Scope{Kind: kind, Node: node, Parent: parent, symbols: map[string]*Symbol{}}
	if parent != nil {
		parent.Children = append(parent.Children, s)
	}
	return s
}

// LookupLocal returns the symbol declared directly in s.
func (s *Scope) LookupLocal(name string) *Symbol {
	return s.symbols[name]
}

// Lookup walks from s outward and returns the first symbol named name.
func (s *Scope) Lookup(name string) *Symbol {
	for cur := s; cur != nil; cur = cur.Parent {
		if sym, ok := cur.symbols[name]; ok {
			return sym
		}
	}
	return nil
}

// Symbols returns the symbols declared in s in declaration order.
func (s *Scope) Symbols() []*Symbol {
	return s.order
}

// FunctionScope returns the nearest enclosing function or program scope.
func (s *Scope) FunctionScope() *Scope {
	cur := s
	for cur.Parent != nil && cur.Kind != FunctionScope {
		cur = cur.Parent
	}
	return cur
}

func (s *Scope) add(sym *Symbol) {
	sym.Scope = s
	s.symbols[sym.Name] = sym
	s.order = append(s.order, sym)
}

// Shadow records a declaration that hides a binding of an enclosing scope.
type Shadow struct {
	Symbol   *Symbol
	Shadowed *Symbol
}

// Info is the result of analysing one program.
type Info struct {
	Root *Scope
	// Symbols lists every declaration in source order.
	Symbols []*Symbol
	Shadows []Shadow
	// Unresolved holds references to names with no declaration, usually
	// host-provided globals.
	Unresolved []*ast.Identifier
	// Exports lists the names of the trailing mapping literal of a standalone
	// fragment.
	Exports []string
}

// Unused returns the symbols of kind that are neither used nor exported.
func (i *Info) Unused(kind SymbolKind) []*Symbol {
	var out []*Symbol
	for _, sym := range i.Symbols {
		if sym.Kind == kind && !sym.Used && !sym.Exported {
			out = append(out, sym)
		}
	}
	return out
}

// Lookup finds a top-level symbol by name.
func (i *Info) Lookup(name string) *Symbol {
	if i == nil || i.Root == nil {
		return nil
	}
	return i.Root.LookupLocal(name)
}

// Package ast defines the typed syntax tree produced by the script parser.
//
// Every node owns a Span relative to the fragment it was parsed from. Base
// line offsets of the host file are never applied here.
package ast

// Span locates a node inside its fragment. Offset and Length are byte
// positions; Line, Column and EndLine are 1-based.
type Span struct {
	Offset  int
	Length  int
	Line    int
	Column  int
	EndLine int
}

// End returns the byte offset just past the node.
func (s Span) End() int { return s.Offset + s.Length }

// Node is implemented by every syntax tree node.
type Node interface {
	Kind() string
	NodeSpan() Span
}

// Stmt is implemented by statement nodes.
type Stmt interface {
	Node
	stmtNode()
}

// Expr is implemented by expression nodes.
type Expr interface {
	Node
	exprNode()
}

// DeclKind is the keyword that introduced a declaration.
type DeclKind string

const (
	DeclNone  DeclKind = ""
	DeclVar   DeclKind = "var"
	DeclLet   DeclKind = "let"
	DeclConst DeclKind = "const"
)

// LitKind discriminates Literal values.
type LitKind int

const (
	NumberLit LitKind = iota
	StringLit
	BoolLit
	NullLit
)

// --- statements ---

type Program struct {
	Span
	Body []Stmt
}

type Block struct {
	Span
	Body []Stmt
}

type VarDecl struct {
	Span
	Decl DeclKind
	Name *Identifier
	Init Expr
}

// FunctionDecl is a named function statement or a function expression
// (IsExpr, Name may be nil).
type FunctionDecl struct {
	Span
	Name   *Identifier
	Params []*Param
	Body   *Block
	IsExpr bool
}

type Param struct {
	Span
	Name    *Identifier
	Default Expr
}

type If struct {
	Span
	Cond Expr
	Then Stmt
	Else Stmt
}

type For struct {
	Span
	Init   []Stmt
	Cond   Expr
	Update Expr
	Body   Stmt
}

// ForIn is the colon form: for (let item : items) body.
type ForIn struct {
	Span
	Decl     DeclKind
	Binding  *Identifier
	Iterable Expr
	Body     Stmt
}

type While struct {
	Span
	Cond Expr
	Body Stmt
}

type Switch struct {
	Span
	Discriminant Expr
	Cases        []*Case
}

// Case is one switch clause; Test is nil for default.
type Case struct {
	Span
	Test Expr
	Body []Stmt
}

type Return struct {
	Span
	Value Expr
}

type Break struct{ Span }

type Continue struct{ Span }

type ExprStmt struct {
	Span
	X Expr
}

type Empty struct{ Span }

// --- expressions ---

type ArrowFunction struct {
	Span
	Params []*Param
	// Body is either an Expr or a *Block.
	Body Node
}

type BinaryExpr struct {
	Span
	Op    string
	Left  Expr
	Right Expr
}

type UnaryExpr struct {
	Span
	Op      string
	Operand Expr
	Postfix bool
}

type Assign struct {
	Span
	Op     string
	Target Expr
	Value  Expr
}

type Ternary struct {
	Span
	Cond Expr
	Then Expr
	Else Expr
}

type Call struct {
	Span
	Callee   Expr
	Args     []Expr
	Optional bool
}

// NamespaceCall is ns:fn(args).
type NamespaceCall struct {
	Span
	Namespace *Identifier
	Function  *Identifier
	Args      []Expr
}

// Member is a property access. Property is set for dotted access, Index for
// computed access.
type Member struct {
	Span
	Object   Expr
	Property *Identifier
	Index    Expr
	Optional bool
}

// Range is the parenthesised (from to to) expression.
type Range struct {
	Span
	From Expr
	To   Expr
}

type TemplateLiteral struct {
	Span
	Segments []TemplateSegment
}

// TemplateSegment is verbatim text when Expr is nil.
type TemplateSegment struct {
	Text string
	Expr Expr
}

type ArrayLit struct {
	Span
	Elements []Expr
}

type ObjectLit struct {
	Span
	Entries []*Property
}

// Property is one object literal entry. Computed holds the key expression of
// [expr]: value entries.
type Property struct {
	Span
	Key       string
	Computed  Expr
	Value     Expr
	Shorthand bool
}

type Identifier struct {
	Span
	Name string
}

type Literal struct {
	Span
	Lit  LitKind
	Raw  string
	Num  float64
	Str  string
	Bool bool
}

// BadExpr stands in for an expression that failed to parse.
type BadExpr struct{ Span }

func (n *Program) Kind() string         { return "Program" }
func (n *Block) Kind() string           { return "Block" }
func (n *VarDecl) Kind() string         { return "VarDecl" }
func (n *FunctionDecl) Kind() string    { return "FunctionDecl" }
func (n *Param) Kind() string           { return "Param" }
func (n *If) Kind() string              { return "If" }
func (n *For) Kind() string             { return "For" }
func (n *ForIn) Kind() string           { return "ForIn" }
func (n *While) Kind() string           { return "While" }
func (n *Switch) Kind() string          { return "Switch" }
func (n *Case) Kind() string            { return "Case" }
func (n *Return) Kind() string          { return "Return" }
func (n *Break) Kind() string           { return "Break" }
func (n *Continue) Kind() string        { return "Continue" }
func (n *ExprStmt) Kind() string        { return "ExprStmt" }
func (n *Empty) Kind() string           { return "Empty" }
func (n *ArrowFunction) Kind() string   { return "ArrowFunction" }
func (n *BinaryExpr) Kind() string      { return "BinaryExpr" }
func (n *UnaryExpr) Kind() string       { return "UnaryExpr" }
func (n *Assign) Kind() string          { return "Assign" }
func (n *Ternary) Kind() string         { return "Ternary" }
func (n *Call) Kind() string            { return "Call" }
func (n *NamespaceCall) Kind() string   { return "NamespaceCall" }
func (n *Member) Kind() string          { return "Member" }
func (n *Range) Kind() string           { return "Range" }
func (n *TemplateLiteral) Kind() string { return "TemplateLiteral" }
func (n *ArrayLit) Kind() string        { return "ArrayLit" }
func (n *ObjectLit) Kind() string       { return "ObjectLit" }
func (n *Property) Kind() string        { return "Property" }
func (n *Identifier) Kind() string      { return "Identifier" }
func (n *Literal) Kind() string         { return "Literal" }
func (n *BadExpr) Kind() string         { return "BadExpr" }

func (s Span) NodeSpan() Span { return s }

func (*Program) stmtNode()      {}
func (*Block) stmtNode()        {}
func (*VarDecl) stmtNode()      {}
func (*FunctionDecl) stmtNode() {}
func (*If) stmtNode()           {}
func (*For) stmtNode()          {}
func (*ForIn) stmtNode()        {}
func (*While) stmtNode()        {}
func (*Switch) stmtNode()       {}
func (*Return) stmtNode()       {}
func (*Break) stmtNode()        {}
func (*Continue) stmtNode()     {}
func (*ExprStmt) stmtNode()     {}
func (*Empty) stmtNode()        {}

func (*FunctionDecl) exprNode()    {}
func (*ArrowFunction) exprNode()   {}
func (*BinaryExpr) exprNode()      {}
func (*UnaryExpr) exprNode()       {}
func (*Assign) exprNode()          {}
func (*Ternary) exprNode()         {}
func (*Call) exprNode()            {}
func (*NamespaceCall) exprNode()   {}
func (*Member) exprNode()          {}
func (*Range) exprNode()           {}
func (*TemplateLiteral) exprNode() {}
func (*ArrayLit) exprNode()        {}
func (*ObjectLit) exprNode()       {}
func (*Identifier) exprNode()      {}
func (*Literal) exprNode()         {}
func (*BadExpr) exprNode()         {}

// IsFunction reports whether n opens a new function body.
func IsFunction(n Node) bool {
	switch n.(type) {
	case *FunctionDecl, *ArrowFunction:
		return true
	}
	return false
}

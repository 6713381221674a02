// Package ast defines the CFPL AST node types.
package ast

import (
	"github.com/thomasrohde/cfpl/pkg/token"
	"github.com/thomasrohde/cfpl/pkg/value"
)

// Node is the interface implemented by all AST nodes.
type Node interface {
	Kind() string
	NodeSpan() token.Span
}

// --- Expr is the interface for all expression nodes ---

type Expr interface {
	Node
	exprNode() // sealed marker
}

// --- Stmt is the interface for all statement nodes ---

type Stmt interface {
	Node
	stmtNode() // sealed marker
}

// --- Expressions ---

// Literal carries a value decoded by the scanner, or a boolean keyword.
type Literal struct {
	Span  token.Span
	Value value.Value
}

func (n *Literal) Kind() string { return "Literal" }
func (n *Literal) NodeSpan() token.Span { return n.Span }
func (n *Literal) exprNode() {}

type Grouping struct {
	Span  token.Span
	Inner Expr
}

func (n *Grouping) Kind() string { return "Grouping" }
func (n *Grouping) NodeSpan() token.Span { return n.Span }
func (n *Grouping) exprNode() {}

// Unary operators are Minus, Not and Bang.
type Unary struct {
	Span     token.Span
	Operator token.Token
	Operand  Expr
}

func (n *Unary) Kind() string { return "Unary" }
func (n *Unary) NodeSpan() token.Span { return n.Span }
func (n *Unary) exprNode() {}

// Binary covers arithmetic, comparison, equality and the & concatenation.
type Binary struct {
	Span     token.Span
	Left     Expr
	Operator token.Token
	Right    Expr
}

func (n *Binary) Kind() string { return "Binary" }
func (n *Binary) NodeSpan() token.Span { return n.Span }
func (n *Binary) exprNode() {}

// Logical is AND / OR; evaluation short-circuits.
type Logical struct {
	Span     token.Span
	Left     Expr
	Operator token.Token
	Right    Expr
}

func (n *Logical) Kind() string { return "Logical" }
func (n *Logical) NodeSpan() token.Span { return n.Span }
func (n *Logical) exprNode() {}

type Variable struct {
	Name token.Token
}

func (n *Variable) Kind() string { return "Variable" }
func (n *Variable) NodeSpan() token.Span { return n.Name.Span }
func (n *Variable) exprNode() {}

type Assign struct {
	Span  token.Span
	Name  token.Token
	Value Expr
}

func (n *Assign) Kind() string { return "Assign" }
func (n *Assign) NodeSpan() token.Span { return n.Span }
func (n *Assign) exprNode() {}

// --- Statements ---

type ExprStmt struct {
	Span token.Span
	Expr Expr
}

func (n *ExprStmt) Kind() string { return "ExprStmt" }
func (n *ExprStmt) NodeSpan() token.Span { return n.Span }
func (n *ExprStmt) stmtNode() {}

// Print is the OUTPUT: statement.
type Print struct {
	Span token.Span
	Expr Expr
}

func (n *Print) Kind() string { return "Print" }
func (n *Print) NodeSpan() token.Span { return n.Span }
func (n *Print) stmtNode() {}

// Var declares one name. Initializer may be nil. Type is the data-type token
// of the AS clause; several Var nodes from one declaration share it.
type Var struct {
	Span        token.Span
	Name        token.Token
	Initializer Expr
	Type        token.Token
}

func (n *Var) Kind() string { return "Var" }
func (n *Var) NodeSpan() token.Span { return n.Span }
func (n *Var) stmtNode() {}

// SetType stamps the declared type once the AS clause has been parsed.
func (n *Var) SetType(t token.Token) {
	n.Type = t
}

// Block runs its statements in a fresh child scope. Both START/STOP blocks
// and desugared for-loops produce it.
type Block struct {
	Span       token.Span
	Statements []Stmt
}

func (n *Block) Kind() string { return "Block" }
func (n *Block) NodeSpan() token.Span { return n.Span }
func (n *Block) stmtNode() {}

// Input is the INPUT: statement.
type Input struct {
	Span  token.Span
	Names []token.Token
}

func (n *Input) Kind() string { return "Input" }
func (n *Input) NodeSpan() token.Span { return n.Span }
func (n *Input) stmtNode() {}

type If struct {
	Span      token.Span
	Condition Expr
	Then      Stmt
	Else      Stmt // nil when absent
}

func (n *If) Kind() string { return "If" }
func (n *If) NodeSpan() token.Span { return n.Span }
func (n *If) stmtNode() {}

type While struct {
	Span      token.Span
	Condition Expr
	Body      Stmt
}

func (n *While) Kind() string { return "While" }
func (n *While) NodeSpan() token.Span { return n.Span }
func (n *While) stmtNode() {}

// --- Program ---

type Program struct {
	Span       token.Span
	Statements []Stmt
}

func (n *Program) Kind() string { return "Program" }
func (n *Program) NodeSpan() token.Span { return n.Span }

// Join returns a span that starts at a and ends at b.
func Join(a, b token.Span) token.Span {
	return token.Span{
		File:      a.File,
		StartLine: a.StartLine,
		StartCol:  a.StartCol,
		EndLine:   b.EndLine,
		EndCol:    b.EndCol,
	}
}

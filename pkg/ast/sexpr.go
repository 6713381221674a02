package ast

import (
	"strconv"
	"strings"

	"github.com/thomasrohde/cfpl/pkg/value"
)

// Sexpr renders a node as a parenthesized prefix form. The CLI prints it for
// `tokens --tree` and tests compare parse results through it.
//
//	VAR x = 5 AS INT  =>  (var x 5 INT)
func Sexpr(n Node) string {
	var b strings.Builder
	writeSexpr(&b, n)
	return b.String()
}

func writeSexpr(b *strings.Builder, n Node) {
	switch n := n.(type) {
	case nil:
		b.WriteString("nil")
	case *Literal:
		writeLiteral(b, n.Value)
	case *Grouping:
		b.WriteString("(group ")
		writeSexpr(b, n.Inner)
		b.WriteByte(')')
	case *Unary:
		b.WriteString("(" + n.Operator.Lexeme + " ")
		writeSexpr(b, n.Operand)
		b.WriteByte(')')
	case *Binary:
		writeInfix(b, n.Operator.Lexeme, n.Left, n.Right)
	case *Logical:
		writeInfix(b, n.Operator.Lexeme, n.Left, n.Right)
	case *Variable:
		b.WriteString(n.Name.Lexeme)
	case *Assign:
		b.WriteString("(= " + n.Name.Lexeme + " ")
		writeSexpr(b, n.Value)
		b.WriteByte(')')
	case *ExprStmt:
		b.WriteString("(expr ")
		writeSexpr(b, n.Expr)
		b.WriteByte(')')
	case *Print:
		b.WriteString("(print ")
		writeSexpr(b, n.Expr)
		b.WriteByte(')')
	case *Var:
		b.WriteString("(var " + n.Name.Lexeme + " ")
		writeSexpr(b, n.Initializer)
		b.WriteString(" " + n.Type.Lexeme + ")")
	case *Block:
		b.WriteString("(block")
		for _, s := range n.Statements {
			b.WriteByte(' ')
			writeSexpr(b, s)
		}
		b.WriteByte(')')
	case *Input:
		b.WriteString("(input")
		for _, name := range n.Names {
			b.WriteString(" " + name.Lexeme)
		}
		b.WriteByte(')')
	case *If:
		b.WriteString("(if ")
		writeSexpr(b, n.Condition)
		b.WriteByte(' ')
		writeSexpr(b, n.Then)
		if n.Else != nil {
			b.WriteByte(' ')
			writeSexpr(b, n.Else)
		}
		b.WriteByte(')')
	case *While:
		b.WriteString("(while ")
		writeSexpr(b, n.Condition)
		b.WriteByte(' ')
		writeSexpr(b, n.Body)
		b.WriteByte(')')
	case *Program:
		for i, s := range n.Statements {
			if i > 0 {
				b.WriteByte(' ')
			}
			writeSexpr(b, s)
		}
	default:
		b.WriteString("(" + n.Kind() + ")")
	}
}

func writeInfix(b *strings.Builder, op string, left, right Expr) {
	b.WriteString("(" + op + " ")
	writeSexpr(b, left)
	b.WriteByte(' ')
	writeSexpr(b, right)
	b.WriteByte(')')
}

func writeLiteral(b *strings.Builder, v value.Value) {
	switch v := v.(type) {
	case value.String:
		b.WriteString(strconv.Quote(v.Value))
	case value.Character:
		b.WriteString("'" + string(v.Value) + "'")
	case nil:
		b.WriteString("nil")
	default:
		b.WriteString(v.String())
	}
}

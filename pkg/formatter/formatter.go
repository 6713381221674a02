// Package formatter prints CFPL syntax trees back as canonical source.
package formatter

import (
	"strconv"
	"strings"

	"github.com/thomasrohde/cfpl/pkg/ast"
	"github.com/thomasrohde/cfpl/pkg/lexer"
	"github.com/thomasrohde/cfpl/pkg/token"
	"github.com/thomasrohde/cfpl/pkg/value"
)

const indent = "  "

// Binding strength of each expression form (higher = tighter binding).
const (
	precAssign = iota
	precOr
	precAnd
	precEquality
	precComparison
	precTerm
	precFactor
	precUnary
	precPrimary
)

var binaryPrecedence = map[token.Type]int{
	token.EqualEqual: precEquality, token.BangEqual: precEquality,
	token.Greater: precComparison, token.GreaterEqual: precComparison,
	token.Less: precComparison, token.LessEqual: precComparison,
	token.Ampersand: precComparison,
	token.Plus: precTerm, token.Minus: precTerm,
	token.Star: precFactor, token.Slash: precFactor, token.Modulo: precFactor,
}

func precedence(e ast.Expr) int {
	switch x := e.(type) {
	case *ast.Assign:
		return precAssign
	case *ast.Logical:
		if x.Operator.Type == token.Or {
			return precOr
		}
		return precAnd
	case *ast.Binary:
		return binaryPrecedence[x.Operator.Type]
	case *ast.Unary:
		return precUnary
	}
	return precPrimary
}

// Format pretty-prints a program. Statements are written one per line with
// blocks indented; desugared loops are written back as FOR and adjacent
// declarations sharing a type clause are merged.
func Format(program *ast.Program) string {
	var b strings.Builder
	formatStatements(&b, program.Statements, 0)
	return b.String()
}

// HasComments reports whether source contains comments, which Format cannot
// preserve.
func HasComments(source string) bool {
	return lexer.CountComments(source) > 0
}

func line(b *strings.Builder, depth int, text string) {
	b.WriteString(strings.Repeat(indent, depth))
	b.WriteString(text)
	b.WriteByte('\n')
}

func formatStatements(b *strings.Builder, stmts []ast.Stmt, depth int) {
	for i := 0; i < len(stmts); i++ {
		if v, ok := stmts[i].(*ast.Var); ok {
			group := []*ast.Var{v}
			for i+1 < len(stmts) {
				next, ok := stmts[i+1].(*ast.Var)
				if !ok || next.Type.Span != v.Type.Span {
					break
				}
				group = append(group, next)
				i++
			}
			line(b, depth, formatVars(group))
			continue
		}
		formatStmt(b, stmts[i], depth)
	}
}

func formatVars(group []*ast.Var) string {
	names := make([]string, len(group))
	for i, v := range group {
		names[i] = v.Name.Lexeme
		if v.Initializer != nil {
			names[i] += " = " + formatExpr(v.Initializer)
		}
	}
	return "VAR " + strings.Join(names, ", ") + " AS " + group[0].Type.Lexeme
}

func formatStmt(b *strings.Builder, s ast.Stmt, depth int) {
	switch stmt := s.(type) {
	case *ast.Var:
		line(b, depth, formatVars([]*ast.Var{stmt}))
	case *ast.ExprStmt:
		line(b, depth, formatExpr(stmt.Expr))
	case *ast.Print:
		line(b, depth, "OUTPUT: "+formatExpr(stmt.Expr))
	case *ast.Input:
		names := make([]string, len(stmt.Names))
		for i, n := range stmt.Names {
			names[i] = n.Lexeme
		}
		line(b, depth, "INPUT: "+strings.Join(names, ", "))
	case *ast.Block:
		if loop, ok := asFor(stmt); ok {
			formatFor(b, loop, depth)
			return
		}
		line(b, depth, "START")
		formatStatements(b, stmt.Statements, depth+1)
		line(b, depth, "STOP")
	case *ast.If:
		line(b, depth, "IF ("+formatExpr(stmt.Condition)+")")
		formatBody(b, stmt.Then, depth)
		if stmt.Else != nil {
			line(b, depth, "ELSE")
			formatBody(b, stmt.Else, depth)
		}
	case *ast.While:
		if loop, ok := forClauses(stmt); ok {
			formatFor(b, loop, depth)
			return
		}
		line(b, depth, "WHILE ("+formatExpr(stmt.Condition)+")")
		formatBody(b, stmt.Body, depth)
	}
}

// formatBody writes the statement controlled by IF, ELSE, WHILE or FOR.
// A START block lines up with its keyword; anything else is indented.
func formatBody(b *strings.Builder, s ast.Stmt, depth int) {
	if blk, ok := s.(*ast.Block); ok {
		if _, isFor := asFor(blk); !isFor {
			formatStmt(b, s, depth)
			return
		}
	}
	formatStmt(b, s, depth+1)
}

type forLoop struct {
	init      []ast.Stmt
	cond      ast.Expr
	increment ast.Expr
	body      ast.Stmt
}

// asFor recognizes the block a FOR statement with an initializer desugars
// into. The block and its loop both carry the span of the whole FOR
// statement, which a START block never shares with its last statement.
func asFor(blk *ast.Block) (forLoop, bool) {
	n := len(blk.Statements)
	if n == 0 {
		return forLoop{}, false
	}
	w, ok := blk.Statements[n-1].(*ast.While)
	if !ok || w.Span != blk.Span {
		return forLoop{}, false
	}
	for _, s := range blk.Statements[:n-1] {
		if _, isVar := s.(*ast.Var); !isVar && n > 2 {
			return forLoop{}, false
		}
	}
	loop, _ := forClauses(w)
	loop.init = blk.Statements[:n-1]
	return loop, true
}

// forClauses splits a loop into FOR clauses. It reports whether the loop
// shows a trace of FOR: a condition synthesized at the FOR keyword, or an
// increment block spanning the whole statement. A FOR with only a
// condition leaves no trace and prints as the equivalent WHILE.
func forClauses(w *ast.While) (forLoop, bool) {
	loop := forLoop{cond: w.Condition, body: w.Body}
	fromFor := false
	if lit, ok := w.Condition.(*ast.Literal); ok && lit.Span.StartLine == w.Span.StartLine &&
		lit.Span.StartCol == w.Span.StartCol {
		loop.cond = nil
		fromFor = true
	}
	if body, ok := w.Body.(*ast.Block); ok && body.Span == w.Span && len(body.Statements) == 2 {
		if incr, ok := body.Statements[1].(*ast.ExprStmt); ok {
			loop.body = body.Statements[0]
			loop.increment = incr.Expr
			fromFor = true
		}
	}
	return loop, fromFor
}

func formatFor(b *strings.Builder, loop forLoop, depth int) {
	var clauses [3]string
	switch {
	case len(loop.init) == 0:
	case isVar(loop.init[0]):
		vars := make([]*ast.Var, len(loop.init))
		for i, s := range loop.init {
			vars[i] = s.(*ast.Var)
		}
		clauses[0] = formatVars(vars)
	default:
		clauses[0] = formatExpr(loop.init[0].(*ast.ExprStmt).Expr)
	}
	if loop.cond != nil {
		clauses[1] = formatExpr(loop.cond)
	}
	if loop.increment != nil {
		clauses[2] = formatExpr(loop.increment)
	}
	head := "FOR (" + clauses[0] + ";"
	for _, c := range clauses[1:] {
		if c != "" {
			head += " " + c
		}
		head += ";"
	}
	line(b, depth, strings.TrimSuffix(head, ";")+")")
	formatBody(b, loop.body, depth)
}

func isVar(s ast.Stmt) bool {
	_, ok := s.(*ast.Var)
	return ok
}

func formatExpr(e ast.Expr) string {
	switch x := e.(type) {
	case *ast.Literal:
		return formatLiteral(x.Value)
	case *ast.Grouping:
		return "(" + formatExpr(x.Inner) + ")"
	case *ast.Variable:
		return x.Name.Lexeme
	case *ast.Assign:
		return x.Name.Lexeme + " = " + formatExpr(x.Value)
	case *ast.Unary:
		operand := formatOperand(x.Operand, precUnary, false)
		if x.Operator.Type == token.Minus {
			if strings.HasPrefix(operand, "-") {
				return "- " + operand
			}
			return "-" + operand
		}
		return "NOT " + operand
	case *ast.Binary:
		p := precedence(x)
		return formatOperand(x.Left, p, false) + " " + x.Operator.Lexeme + " " + formatOperand(x.Right, p, true)
	case *ast.Logical:
		p := precedence(x)
		return formatOperand(x.Left, p, false) + " " + x.Operator.Lexeme + " " + formatOperand(x.Right, p, true)
	}
	return ""
}

// formatOperand parenthesizes child when it binds looser than its parent.
// Binary operators associate to the left, so an equal-strength right
// operand needs parentheses too.
func formatOperand(child ast.Expr, parent int, isRight bool) string {
	text := formatExpr(child)
	p := precedence(child)
	if p < parent || (p == parent && isRight && p != precPrimary) {
		return "(" + text + ")"
	}
	return text
}

func formatLiteral(v value.Value) string {
	switch x := v.(type) {
	case value.Integer:
		return strconv.FormatInt(x.Value, 10)
	case value.Float:
		text := value.FormatFloat(x.Value)
		if !strings.ContainsAny(text, ".IN") {
			text += ".0"
		}
		return text
	case value.Boolean:
		if x.Value {
			return `"TRUE"`
		}
		return `"FALSE"`
	case value.Character:
		if x.Value == '\n' {
			return "#"
		}
		return "'" + string(x.Value) + "'"
	case value.String:
		return formatString(x.Value)
	}
	return `""`
}

// formatString quotes s so that it scans back as the same String. Quotes
// cannot appear inside a plain literal and some texts scan as other tokens,
// so those parts are written in the bracket form and joined with '&'.
func formatString(s string) string {
	var parts []string
	for _, run := range strings.SplitAfter(s, `"`) {
		if run == "" {
			continue
		}
		quote := strings.HasSuffix(run, `"`)
		if quote {
			run = strings.TrimSuffix(run, `"`)
		}
		if run != "" {
			parts = append(parts, plainParts(run)...)
		}
		if quote {
			parts = append(parts, `"["]"`)
		}
	}
	switch len(parts) {
	case 0:
		return `""`
	case 1:
		return parts[0]
	}
	return "(" + strings.Join(parts, " & ") + ")"
}

func plainParts(run string) []string {
	if strings.HasPrefix(run, "[") || run == "TRUE" || run == "FALSE" || run == "#" {
		first, rest := run[:1], run[1:]
		parts := []string{`"[` + first + `]"`}
		if rest != "" {
			parts = append(parts, plainParts(rest)...)
		}
		return parts
	}
	return []string{`"` + run + `"`}
}

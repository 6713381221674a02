// Package parser implements the CFPL recursive-descent parser.
package parser

import (
	"fmt"
	"strings"

	"github.com/thomasrohde/cfpl/pkg/ast"
	"github.com/thomasrohde/cfpl/pkg/diagnostics"
	"github.com/thomasrohde/cfpl/pkg/lexer"
	"github.com/thomasrohde/cfpl/pkg/token"
	"github.com/thomasrohde/cfpl/pkg/value"
)

// HintIncomplete marks diagnostics raised because input ended mid-statement.
const HintIncomplete = "input ended before the statement was complete"

type parser struct {
	tokens []token.Token
	pos    int
	diags  []diagnostics.Diagnostic
}

// Parse tokenizes source and parses it into a program. The program is never
// nil; lexical and syntax diagnostics are returned together, in source order
// per stage, and a program with diagnostics must not be executed.
func Parse(source, filename string) (*ast.Program, []diagnostics.Diagnostic) {
	tokens, lexDiags := lexer.Tokenize(source, filename)
	prog, parseDiags := ParseTokens(tokens)
	return prog, append(lexDiags, parseDiags...)
}

// ParseTokens parses an already scanned token stream ending in EOF.
func ParseTokens(tokens []token.Token) (*ast.Program, []diagnostics.Diagnostic) {
	if len(tokens) == 0 || tokens[len(tokens)-1].Type != token.EOF {
		var span token.Span
		if len(tokens) > 0 {
			span = tokens[len(tokens)-1].Span
		}
		tokens = append(tokens, token.Token{Type: token.EOF, Span: span})
	}
	p := &parser{tokens: tokens}
	prog := p.parseProgram()
	return prog, p.diags
}

// Incomplete reports whether diags describe input that stopped short, such as
// an unterminated string or a missing STOP, rather than input that is wrong.
func Incomplete(diags []diagnostics.Diagnostic) bool {
	if len(diags) == 0 {
		return false
	}
	for _, d := range diags {
		switch {
		case d.Hint == HintIncomplete:
		case d.Code == diagnostics.ELex && strings.HasPrefix(d.Message, "Unterminated"):
		default:
			return false
		}
	}
	return true
}

func (p *parser) current() token.Token {
	return p.tokens[p.pos]
}

func (p *parser) previous() token.Token {
	if p.pos == 0 {
		return p.tokens[0]
	}
	return p.tokens[p.pos-1]
}

func (p *parser) peek() token.Type {
	return p.current().Type
}

func (p *parser) atEnd() bool {
	return p.peek() == token.EOF
}

func (p *parser) check(typ token.Type) bool {
	return p.peek() == typ
}

func (p *parser) advance() token.Token {
	tok := p.current()
	if !p.atEnd() {
		p.pos++
	}
	return tok
}

func (p *parser) match(types ...token.Type) bool {
	for _, typ := range types {
		if p.check(typ) {
			p.advance()
			return true
		}
	}
	return false
}

func (p *parser) consume(typ token.Type, msg string) (token.Token, bool) {
	if p.check(typ) {
		return p.advance(), true
	}
	p.errorAt(p.current(), msg)
	return p.current(), false
}

// terminator accepts a statement-ending newline. End of input also ends a
// statement so the last line of a file needs no trailing newline.
func (p *parser) terminator(msg string) bool {
	if p.match(token.Newline) || p.atEnd() {
		return true
	}
	p.errorAt(p.current(), msg)
	return false
}

func (p *parser) errorAt(tok token.Token, msg string) {
	var where, hint string
	switch tok.Type {
	case token.EOF:
		where, hint = "end", HintIncomplete
	case token.Newline:
		where = "line break"
	default:
		where = "'" + tok.Lexeme + "'"
	}
	span := tok.Span
	p.diags = append(p.diags, diagnostics.MakeDiag(diagnostics.EParse,
		fmt.Sprintf("%s at %s.", msg, where), &span, hint))
}

func (p *parser) spanFrom(start token.Span) token.Span {
	return ast.Join(start, p.previous().Span)
}

// synchronize discards tokens until just past a line break or just before a
// token that starts a statement.
func (p *parser) synchronize() {
	p.advance()
	for !p.atEnd() {
		if p.previous().Type == token.Newline {
			return
		}
		switch p.peek() {
		case token.Var, token.Start, token.Stop, token.Print, token.Input,
			token.If, token.While, token.For:
			return
		}
		p.advance()
	}
}

// --- Program ---

func (p *parser) parseProgram() *ast.Program {
	start := p.current().Span
	prog := &ast.Program{}
	for !p.atEnd() {
		if p.match(token.Newline) {
			continue
		}
		stmts := p.declaration()
		if stmts == nil {
			p.synchronize()
			continue
		}
		prog.Statements = append(prog.Statements, stmts...)
	}
	prog.Span = ast.Join(start, p.current().Span)
	return prog
}

// declaration returns nil after recording a diagnostic. A VAR line yields one
// statement per declared name.
func (p *parser) declaration() []ast.Stmt {
	if p.check(token.Var) {
		vars := p.varDeclaration(false)
		if vars == nil {
			return nil
		}
		stmts := make([]ast.Stmt, len(vars))
		for i, v := range vars {
			stmts[i] = v
		}
		return stmts
	}
	stmt := p.statement()
	if stmt == nil {
		return nil
	}
	return []ast.Stmt{stmt}
}

// varDeclaration parses VAR a [= e] {, b [= e]} AS TYPE. Inside a for-loop
// header the declaration ends with ';' instead of a newline.
func (p *parser) varDeclaration(inFor bool) []*ast.Var {
	start := p.advance().Span // VAR
	var vars []*ast.Var
	for {
		name, ok := p.consume(token.Identifier, "Expect variable name")
		if !ok {
			return nil
		}
		v := &ast.Var{Name: name}
		if p.match(token.Equal) {
			v.Initializer = p.expression()
			if v.Initializer == nil {
				return nil
			}
		}
		v.Span = p.spanFrom(name.Span)
		vars = append(vars, v)
		if !p.match(token.Comma) {
			break
		}
	}

	if _, ok := p.consume(token.As, "Expect 'AS' after variable declaration"); !ok {
		return nil
	}
	if !token.IsDataType(p.peek()) {
		p.errorAt(p.current(), "Expect data type after 'AS'")
		return nil
	}
	typ := p.advance()
	for _, v := range vars {
		v.SetType(typ)
	}
	if len(vars) == 1 {
		vars[0].Span = p.spanFrom(start)
	}

	if inFor {
		if _, ok := p.consume(token.Semicolon, "Expect ';' after loop initializer"); !ok {
			return nil
		}
	} else if !p.terminator("Expect new line after variable declaration") {
		return nil
	}
	return vars
}

// --- Statements ---

func (p *parser) statement() ast.Stmt {
	switch p.peek() {
	case token.Print:
		return p.printStatement()
	case token.Input:
		return p.inputStatement()
	case token.If:
		return p.ifStatement()
	case token.While:
		return p.whileStatement()
	case token.For:
		return p.forStatement()
	case token.Start:
		return p.block()
	case token.Stop:
		p.errorAt(p.current(), "Unexpected 'STOP' without matching 'START'")
		return nil
	case token.Var:
		p.errorAt(p.current(), "Declaration not allowed here")
		return nil
	}
	return p.expressionStatement()
}

func (p *parser) printStatement() ast.Stmt {
	start := p.advance().Span // OUTPUT:
	expr := p.expression()
	if expr == nil {
		return nil
	}
	stmt := &ast.Print{Span: p.spanFrom(start), Expr: expr}
	if !p.terminator("Expect new line after value") {
		return nil
	}
	return stmt
}

func (p *parser) inputStatement() ast.Stmt {
	start := p.advance().Span // INPUT:
	var names []token.Token
	for {
		name, ok := p.consume(token.Identifier, "Expect variable name")
		if !ok {
			return nil
		}
		names = append(names, name)
		if !p.match(token.Comma) {
			break
		}
	}
	stmt := &ast.Input{Span: p.spanFrom(start), Names: names}
	if !p.terminator("Expect new line after input variables") {
		return nil
	}
	return stmt
}

func (p *parser) condition(keyword string) ast.Expr {
	if _, ok := p.consume(token.LeftParen, "Expect '(' after '"+keyword+"'"); !ok {
		return nil
	}
	cond := p.expression()
	if cond == nil {
		return nil
	}
	if _, ok := p.consume(token.RightParen, "Expect ')' after condition"); !ok {
		return nil
	}
	return cond
}

func (p *parser) ifStatement() ast.Stmt {
	start := p.advance().Span // IF
	cond := p.condition("IF")
	if cond == nil {
		return nil
	}
	if _, ok := p.consume(token.Newline, "Expect new line after if condition"); !ok {
		return nil
	}
	then := p.statement()
	if then == nil {
		return nil
	}
	stmt := &ast.If{Condition: cond, Then: then}
	if p.match(token.Else) {
		if _, ok := p.consume(token.Newline, "Expect new line after 'ELSE'"); !ok {
			return nil
		}
		stmt.Else = p.statement()
		if stmt.Else == nil {
			return nil
		}
	}
	stmt.Span = p.spanFrom(start)
	return stmt
}

func (p *parser) whileStatement() ast.Stmt {
	start := p.advance().Span // WHILE
	cond := p.condition("WHILE")
	if cond == nil {
		return nil
	}
	if _, ok := p.consume(token.Newline, "Expect new line after while condition"); !ok {
		return nil
	}
	body := p.statement()
	if body == nil {
		return nil
	}
	return &ast.While{Span: p.spanFrom(start), Condition: cond, Body: body}
}

// forStatement parses FOR (init; condition; increment) and desugars it into
//
//	Block[init..., While(condition, Block[body, increment])]
//
// The outer Block is left out when there is no init. A missing condition
// loops forever. The increment may carry a trailing ';'.
func (p *parser) forStatement() ast.Stmt {
	forTok := p.advance() // FOR
	if _, ok := p.consume(token.LeftParen, "Expect '(' after 'FOR'"); !ok {
		return nil
	}

	var init []ast.Stmt
	switch {
	case p.match(token.Semicolon):
	case p.check(token.Var):
		vars := p.varDeclaration(true)
		if vars == nil {
			return nil
		}
		for _, v := range vars {
			init = append(init, v)
		}
	default:
		start := p.current().Span
		expr := p.expression()
		if expr == nil {
			return nil
		}
		init = append(init, &ast.ExprStmt{Span: p.spanFrom(start), Expr: expr})
		if _, ok := p.consume(token.Semicolon, "Expect ';' after loop initializer"); !ok {
			return nil
		}
	}

	var cond ast.Expr
	if !p.check(token.Semicolon) {
		cond = p.expression()
		if cond == nil {
			return nil
		}
	}
	if _, ok := p.consume(token.Semicolon, "Expect ';' after loop condition"); !ok {
		return nil
	}

	var increment ast.Expr
	if !p.check(token.RightParen) {
		increment = p.expression()
		if increment == nil {
			return nil
		}
		p.match(token.Semicolon)
	}
	if _, ok := p.consume(token.RightParen, "Expect ')' after for clauses"); !ok {
		return nil
	}
	if _, ok := p.consume(token.Newline, "Expect new line after for clauses"); !ok {
		return nil
	}

	body := p.statement()
	if body == nil {
		return nil
	}
	span := p.spanFrom(forTok.Span)

	if increment != nil {
		body = &ast.Block{
			Span: span,
			Statements: []ast.Stmt{
				body,
				&ast.ExprStmt{Span: increment.NodeSpan(), Expr: increment},
			},
		}
	}
	if cond == nil {
		cond = &ast.Literal{Span: forTok.Span, Value: value.NewBoolean(true)}
	}
	loop := &ast.While{Span: span, Condition: cond, Body: body}
	if len(init) == 0 {
		return loop
	}
	return &ast.Block{Span: span, Statements: append(init, loop)}
}

// block parses START NEWLINE declarations... STOP NEWLINE.
func (p *parser) block() ast.Stmt {
	start := p.advance().Span // START
	if _, ok := p.consume(token.Newline, "Expect new line after 'START'"); !ok {
		return nil
	}
	var stmts []ast.Stmt
	for !p.check(token.Stop) && !p.atEnd() {
		if p.match(token.Newline) {
			continue
		}
		decl := p.declaration()
		if decl == nil {
			p.synchronize()
			continue
		}
		stmts = append(stmts, decl...)
	}
	if _, ok := p.consume(token.Stop, "Expect 'STOP' after block"); !ok {
		return nil
	}
	span := p.spanFrom(start)
	if !p.terminator("Expect new line after 'STOP'") {
		return nil
	}
	return &ast.Block{Span: span, Statements: stmts}
}

func (p *parser) expressionStatement() ast.Stmt {
	start := p.current().Span
	expr := p.expression()
	if expr == nil {
		return nil
	}
	stmt := &ast.ExprStmt{Span: p.spanFrom(start), Expr: expr}
	if !p.terminator("Expect new line after expression") {
		return nil
	}
	return stmt
}

// --- Expressions ---

func (p *parser) expression() ast.Expr {
	return p.assignment()
}

// assignment is right-associative. A non-variable target is reported and the
// left expression is kept so parsing can continue.
func (p *parser) assignment() ast.Expr {
	expr := p.or()
	if expr == nil {
		return nil
	}
	if p.match(token.Equal) {
		equals := p.previous()
		val := p.assignment()
		if val == nil {
			return nil
		}
		if v, ok := expr.(*ast.Variable); ok {
			return &ast.Assign{Span: ast.Join(v.Name.Span, val.NodeSpan()), Name: v.Name, Value: val}
		}
		p.errorAt(equals, "Invalid assignment target")
	}
	return expr
}

func (p *parser) or() ast.Expr {
	expr := p.and()
	for expr != nil && p.match(token.Or) {
		op := p.previous()
		right := p.and()
		if right == nil {
			return nil
		}
		expr = &ast.Logical{Span: ast.Join(expr.NodeSpan(), right.NodeSpan()), Left: expr, Operator: op, Right: right}
	}
	return expr
}

func (p *parser) and() ast.Expr {
	expr := p.equality()
	for expr != nil && p.match(token.And) {
		op := p.previous()
		right := p.equality()
		if right == nil {
			return nil
		}
		expr = &ast.Logical{Span: ast.Join(expr.NodeSpan(), right.NodeSpan()), Left: expr, Operator: op, Right: right}
	}
	return expr
}

// binaryLevel parses one left-associative precedence level.
func (p *parser) binaryLevel(next func() ast.Expr, ops ...token.Type) ast.Expr {
	expr := next()
	for expr != nil && p.match(ops...) {
		op := p.previous()
		right := next()
		if right == nil {
			return nil
		}
		expr = &ast.Binary{Span: ast.Join(expr.NodeSpan(), right.NodeSpan()), Left: expr, Operator: op, Right: right}
	}
	return expr
}

func (p *parser) equality() ast.Expr {
	return p.binaryLevel(p.comparison, token.BangEqual, token.EqualEqual)
}

// comparison also holds '&', which joins the text of both operands.
func (p *parser) comparison() ast.Expr {
	return p.binaryLevel(p.term,
		token.Greater, token.GreaterEqual, token.Less, token.LessEqual, token.Ampersand)
}

func (p *parser) term() ast.Expr {
	return p.binaryLevel(p.factor, token.Minus, token.Plus)
}

func (p *parser) factor() ast.Expr {
	return p.binaryLevel(p.unary, token.Slash, token.Star, token.Modulo)
}

func (p *parser) unary() ast.Expr {
	if p.match(token.Not, token.Bang, token.Minus) {
		op := p.previous()
		operand := p.unary()
		if operand == nil {
			return nil
		}
		return &ast.Unary{Span: ast.Join(op.Span, operand.NodeSpan()), Operator: op, Operand: operand}
	}
	if p.match(token.Increment, token.Decrement) {
		return p.prefixStep(p.previous())
	}
	return p.primary()
}

// prefixStep rewrites ++x as x = x + 1 and --x as x = x - 1.
func (p *parser) prefixStep(op token.Token) ast.Expr {
	operand := p.unary()
	if operand == nil {
		return nil
	}
	v, ok := operand.(*ast.Variable)
	if !ok {
		p.errorAt(op, "Invalid increment target")
		return operand
	}
	arith := token.Token{Type: token.Plus, Lexeme: "+", Span: op.Span}
	if op.Type == token.Decrement {
		arith = token.Token{Type: token.Minus, Lexeme: "-", Span: op.Span}
	}
	span := ast.Join(op.Span, v.Name.Span)
	return &ast.Assign{
		Span: span,
		Name: v.Name,
		Value: &ast.Binary{
			Span:     span,
			Left:     &ast.Variable{Name: v.Name},
			Operator: arith,
			Right:    &ast.Literal{Span: op.Span, Value: value.NewInteger(1)},
		},
	}
}

func (p *parser) primary() ast.Expr {
	tok := p.current()
	switch tok.Type {
	case token.True:
		p.advance()
		return &ast.Literal{Span: tok.Span, Value: value.NewBoolean(true)}
	case token.False:
		p.advance()
		return &ast.Literal{Span: tok.Span, Value: value.NewBoolean(false)}
	case token.Number, token.String, token.Char, token.NextLine:
		p.advance()
		lit := tok.Literal
		if lit == nil {
			lit = value.NewAbsent()
		}
		return &ast.Literal{Span: tok.Span, Value: lit}
	case token.Identifier:
		p.advance()
		return &ast.Variable{Name: tok}
	case token.LeftParen:
		p.advance()
		inner := p.expression()
		if inner == nil {
			return nil
		}
		if _, ok := p.consume(token.RightParen, "Expect ')' after expression"); !ok {
			return nil
		}
		return &ast.Grouping{Span: p.spanFrom(tok.Span), Inner: inner}
	}
	p.errorAt(tok, "Expect expression")
	return nil
}

// Package validator implements static checks of CFPL programs.
package validator

import (
	"fmt"

	"github.com/thomasrohde/cfpl/pkg/ast"
	"github.com/thomasrohde/cfpl/pkg/diagnostics"
	"github.com/thomasrohde/cfpl/pkg/token"
	"github.com/thomasrohde/cfpl/pkg/value"
)

type scope struct {
	bindings map[string]value.Kind
	parent   *scope
}

func newScope(parent *scope) *scope {
	return &scope{bindings: make(map[string]value.Kind), parent: parent}
}

func (s *scope) lookup(name string) (value.Kind, bool) {
	if k, ok := s.bindings[name]; ok {
		return k, true
	}
	if s.parent != nil {
		return s.parent.lookup(name)
	}
	return value.KindAbsent, false
}

func (s *scope) add(name string, kind value.Kind) {
	s.bindings[name] = kind
}

type validator struct {
	diags []diagnostics.Diagnostic
}

// Validate checks a program without running it and returns diagnostics for
// undeclared names and for literals whose kind contradicts a declaration.
func Validate(program *ast.Program) []diagnostics.Diagnostic {
	v := &validator{}
	v.validateStatements(program.Statements, newScope(nil))
	return v.diags
}

func (v *validator) addDiag(code string, tok token.Token, msg string) {
	v.diags = append(v.diags, diagnostics.AtToken(code, tok, msg))
}

func (v *validator) validateStatements(stmts []ast.Stmt, sc *scope) {
	for _, stmt := range stmts {
		v.validateStmt(stmt, sc)
	}
}

func (v *validator) validateStmt(stmt ast.Stmt, sc *scope) {
	switch s := stmt.(type) {
	case *ast.ExprStmt:
		v.validateExpr(s.Expr, sc)
	case *ast.Print:
		v.validateExpr(s.Expr, sc)
	case *ast.Var:
		v.validateVar(s, sc)
	case *ast.Block:
		v.validateStatements(s.Statements, newScope(sc))
	case *ast.Input:
		for _, name := range s.Names {
			v.checkDeclared(name, sc)
		}
	case *ast.If:
		v.validateExpr(s.Condition, sc)
		v.validateStmt(s.Then, sc)
		if s.Else != nil {
			v.validateStmt(s.Else, sc)
		}
	case *ast.While:
		v.validateExpr(s.Condition, sc)
		v.validateStmt(s.Body, sc)
	}
}

func (v *validator) validateVar(s *ast.Var, sc *scope) {
	kind, ok := token.KindFor(s.Type.Type)
	if !ok {
		v.addDiag(diagnostics.EDatatype, s.Type, fmt.Sprintf("Unknown data type '%s'.", s.Type.Lexeme))
	}
	if s.Initializer != nil {
		v.validateExpr(s.Initializer, sc)
		if lit, isLit := s.Initializer.(*ast.Literal); isLit && ok && value.KindOf(lit.Value) != kind {
			v.addDiag(diagnostics.EDatatype, s.Name, fmt.Sprintf(
				"Incorrect datatype: '%s' is declared %s but was given %s.", s.Name.Lexeme, kind, value.KindOf(lit.Value)))
		}
	} else if kind == value.KindString {
		v.addDiag(diagnostics.EDatatype, s.Name, fmt.Sprintf(
			"Variable '%s' of type %s requires an initial value.", s.Name.Lexeme, s.Type.Lexeme))
	}
	sc.add(s.Name.Lexeme, kind)
}

func (v *validator) checkDeclared(name token.Token, sc *scope) (value.Kind, bool) {
	kind, ok := sc.lookup(name.Lexeme)
	if !ok {
		v.addDiag(diagnostics.EUndefined, name, fmt.Sprintf("Undefined variable '%s'.", name.Lexeme))
	}
	return kind, ok
}

func (v *validator) validateExpr(expr ast.Expr, sc *scope) {
	switch e := expr.(type) {
	case *ast.Grouping:
		v.validateExpr(e.Inner, sc)
	case *ast.Unary:
		v.validateExpr(e.Operand, sc)
	case *ast.Binary:
		v.validateExpr(e.Left, sc)
		v.validateExpr(e.Right, sc)
	case *ast.Logical:
		v.validateExpr(e.Left, sc)
		v.validateExpr(e.Right, sc)
	case *ast.Variable:
		v.checkDeclared(e.Name, sc)
	case *ast.Assign:
		v.validateExpr(e.Value, sc)
		kind, ok := v.checkDeclared(e.Name, sc)
		if lit, isLit := e.Value.(*ast.Literal); ok && isLit && value.KindOf(lit.Value) != kind {
			v.addDiag(diagnostics.ETypeMismatch, e.Name, fmt.Sprintf(
				"%s expects %s but received %s instead.", e.Name.Lexeme, kind, value.KindOf(lit.Value)))
		}
	}
}

package evaluator

import (
	"fmt"

	"github.com/thomasrohde/cfpl/pkg/ast"
	"github.com/thomasrohde/cfpl/pkg/diagnostics"
	"github.com/thomasrohde/cfpl/pkg/token"
	"github.com/thomasrohde/cfpl/pkg/value"
)

func (ev *evaluator) eval(expr ast.Expr, env *Env) (value.Value, error) {
	switch e := expr.(type) {
	case *ast.Literal:
		if e.Value == nil {
			return value.NewAbsent(), nil
		}
		return e.Value, nil

	case *ast.Grouping:
		return ev.eval(e.Inner, env)

	case *ast.Unary:
		return ev.evalUnary(e, env)

	case *ast.Binary:
		return ev.evalBinary(e, env)

	case *ast.Logical:
		left, err := ev.eval(e.Left, env)
		if err != nil {
			return nil, err
		}
		if e.Operator.Type == token.Or {
			if value.Truthy(left) {
				return left, nil
			}
		} else if !value.Truthy(left) {
			return left, nil
		}
		return ev.eval(e.Right, env)

	case *ast.Variable:
		return env.Get(e.Name)

	case *ast.Assign:
		val, err := ev.eval(e.Value, env)
		if err != nil {
			return nil, err
		}
		if err := env.Assign(e.Name, val); err != nil {
			return nil, err
		}
		span := e.Span
		ev.emit(TraceAssign, &span, map[string]any{"name": e.Name.Lexeme, "value": value.Describe(val)})
		return val, nil

	default:
		return nil, &RuntimeError{
			Code:    diagnostics.EOperand,
			Message: fmt.Sprintf("unsupported expression type: %T", expr),
		}
	}
}

func (ev *evaluator) evalUnary(e *ast.Unary, env *Env) (value.Value, error) {
	operand, err := ev.eval(e.Operand, env)
	if err != nil {
		return nil, err
	}
	switch e.Operator.Type {
	case token.Not, token.Bang:
		return value.NewBoolean(!value.Truthy(operand)), nil
	case token.Minus:
		switch n := operand.(type) {
		case value.Integer:
			return value.NewInteger(-n.Value), nil
		case value.Float:
			return value.NewFloat(-n.Value), nil
		}
		return nil, errorAt(diagnostics.EOperand, e.Operator, "Operand must be a number.")
	}
	return nil, errorAt(diagnostics.EOperand, e.Operator, "Unknown unary operator '%s'.", e.Operator.Lexeme)
}

func (ev *evaluator) evalBinary(e *ast.Binary, env *Env) (value.Value, error) {
	left, err := ev.eval(e.Left, env)
	if err != nil {
		return nil, err
	}
	right, err := ev.eval(e.Right, env)
	if err != nil {
		return nil, err
	}
	op := e.Operator

	switch op.Type {
	case token.Ampersand:
		return value.NewString(ev.display(left) + ev.display(right)), nil

	case token.EqualEqual:
		return value.NewBoolean(value.Equal(left, right)), nil
	case token.BangEqual:
		return value.NewBoolean(!value.Equal(left, right)), nil

	case token.Greater, token.GreaterEqual, token.Less, token.LessEqual:
		l, lok := value.AsFloat(left)
		r, rok := value.AsFloat(right)
		if !lok || !rok {
			return nil, errorAt(diagnostics.EOperand, op, "Operand must be a number.")
		}
		return value.NewBoolean(compare(op.Type, l, r)), nil

	case token.Plus:
		if ls, ok := left.(value.String); ok {
			if rs, ok := right.(value.String); ok {
				return value.NewString(ls.Value + rs.Value), nil
			}
		}
		if !value.IsNumeric(left) || !value.IsNumeric(right) {
			return nil, errorAt(diagnostics.EOperand, op, "Operands must be a number or a string.")
		}
		return arithmetic(op, left, right)

	case token.Minus, token.Star, token.Slash:
		if !value.IsNumeric(left) || !value.IsNumeric(right) {
			return nil, errorAt(diagnostics.EOperand, op, "Operand must be a number.")
		}
		return arithmetic(op, left, right)

	case token.Modulo:
		l, lok := left.(value.Integer)
		r, rok := right.(value.Integer)
		if !lok || !rok {
			return nil, errorAt(diagnostics.EOperand, op, "Modulo only accepts two integers.")
		}
		if r.Value == 0 {
			return nil, errorAt(diagnostics.EDivZero, op, "Modulo by zero.")
		}
		return value.NewInteger(l.Value % r.Value), nil
	}
	return nil, errorAt(diagnostics.EOperand, op, "Unknown operator '%s'.", op.Lexeme)
}

func compare(op token.Type, l, r float64) bool {
	switch op {
	case token.Greater:
		return l > r
	case token.GreaterEqual:
		return l >= r
	case token.Less:
		return l < r
	default:
		return l <= r
	}
}

// arithmetic applies + - * / to two numeric operands. Two integers stay in
// integer arithmetic with truncating division; any float widens both sides.
func arithmetic(op token.Token, left, right value.Value) (value.Value, error) {
	li, lInt := left.(value.Integer)
	ri, rInt := right.(value.Integer)
	if lInt && rInt {
		a, b := li.Value, ri.Value
		switch op.Type {
		case token.Plus:
			return value.NewInteger(a + b), nil
		case token.Minus:
			return value.NewInteger(a - b), nil
		case token.Star:
			return value.NewInteger(a * b), nil
		default:
			if b == 0 {
				return nil, errorAt(diagnostics.EDivZero, op, "Division by zero.")
			}
			return value.NewInteger(a / b), nil
		}
	}

	a, _ := value.AsFloat(left)
	b, _ := value.AsFloat(right)
	switch op.Type {
	case token.Plus:
		return value.NewFloat(a + b), nil
	case token.Minus:
		return value.NewFloat(a - b), nil
	case token.Star:
		return value.NewFloat(a * b), nil
	default:
		return value.NewFloat(a / b), nil
	}
}

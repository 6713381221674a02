package evaluator

import (
	"fmt"

	"github.com/thomasrohde/cfpl/pkg/diagnostics"
	"github.com/thomasrohde/cfpl/pkg/token"
	"github.com/thomasrohde/cfpl/pkg/value"
)

// Env is one scope of variable bindings.
// Lookups that miss fall through to the enclosing scope.
type Env struct {
	values map[string]value.Value
	parent *Env
}

// NewEnv creates a new environment with an optional parent scope.
func NewEnv(parent *Env) *Env {
	return &Env{
		values: make(map[string]value.Value),
		parent: parent,
	}
}

// Child creates a new child scope whose parent is this environment.
func (e *Env) Child() *Env {
	return NewEnv(e)
}

// Parent returns the enclosing scope, or nil for the outermost one.
func (e *Env) Parent() *Env {
	return e.parent
}

// Define binds name in this scope, replacing any earlier binding here.
func (e *Env) Define(name string, val value.Value) {
	e.values[name] = val
}

// Lookup finds name in this scope or any enclosing scope.
func (e *Env) Lookup(name string) (value.Value, bool) {
	for env := e; env != nil; env = env.parent {
		if val, ok := env.values[name]; ok {
			return val, true
		}
	}
	return nil, false
}

// Has checks whether a variable is defined in this scope or any parent.
func (e *Env) Has(name string) bool {
	_, ok := e.Lookup(name)
	return ok
}

// Get returns the value bound to the name token, or an E_UNDEFINED error.
func (e *Env) Get(name token.Token) (value.Value, error) {
	if val, ok := e.Lookup(name.Lexeme); ok {
		return val, nil
	}
	return nil, undefined(name)
}

// Assign rebinds name in the nearest scope that defines it. The new value
// must have the same kind as the stored one unless the stored value is Absent.
func (e *Env) Assign(name token.Token, val value.Value) error {
	for env := e; env != nil; env = env.parent {
		old, ok := env.values[name.Lexeme]
		if !ok {
			continue
		}
		oldKind, newKind := value.KindOf(old), value.KindOf(val)
		if oldKind != value.KindAbsent && oldKind != newKind {
			span := name.Span
			return &RuntimeError{
				Code:    diagnostics.ETypeMismatch,
				Message: fmt.Sprintf("%s expects %s but received %s instead.", name.Lexeme, oldKind, newKind),
				Span:    &span,
			}
		}
		env.values[name.Lexeme] = val
		return nil
	}
	return undefined(name)
}

// Names returns the names bound directly in this scope.
func (e *Env) Names() []string {
	names := make([]string, 0, len(e.values))
	for name := range e.values {
		names = append(names, name)
	}
	return names
}

func undefined(name token.Token) error {
	span := name.Span
	return &RuntimeError{
		Code:    diagnostics.EUndefined,
		Message: fmt.Sprintf("Undefined variable '%s'.", name.Lexeme),
		Span:    &span,
	}
}

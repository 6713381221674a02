// Package evaluator walks a parsed CFPL program and carries out its effects.
package evaluator

import (
	"fmt"
	"io"
	"time"

	"github.com/thomasrohde/cfpl/pkg/ast"
	"github.com/thomasrohde/cfpl/pkg/diagnostics"
	"github.com/thomasrohde/cfpl/pkg/token"
	"github.com/thomasrohde/cfpl/pkg/value"
)

// TraceEventType identifies the type of a trace event.
type TraceEventType string

const (
	TraceRunStart   TraceEventType = "run_start"
	TraceRunEnd     TraceEventType = "run_end"
	TraceStmtStart  TraceEventType = "stmt_start"
	TraceStmtEnd    TraceEventType = "stmt_end"
	TraceBlockEnter TraceEventType = "block_enter"
	TraceBlockExit  TraceEventType = "block_exit"
	TraceDefine     TraceEventType = "define"
	TraceAssign     TraceEventType = "assign"
	TraceInput      TraceEventType = "input"
	TraceOutput     TraceEventType = "output"
	TraceHalt       TraceEventType = "halt"
)

// TraceEvent represents a single trace event emitted during execution.
type TraceEvent struct {
	Timestamp string         `json:"ts"`
	RunID     string         `json:"runId"`
	Event     TraceEventType `json:"event"`
	Span      *token.Span    `json:"span,omitempty"`
	Data      map[string]any `json:"data,omitempty"`
}

// LineReader supplies one line of input per call to INPUT:. It returns
// io.EOF once input is exhausted.
type LineReader interface {
	ReadLine() (string, error)
}

// ExecOptions configures program execution.
type ExecOptions struct {
	Stdout io.Writer
	Input  LineReader
	// InputPrompt is written as its own line before each INPUT: read.
	InputPrompt string
	// NullMarker is the display text of Absent; "nil" when empty.
	NullMarker string
	// Report receives non-fatal diagnostics as they occur.
	Report func(d diagnostics.Diagnostic)
	Trace  func(event TraceEvent)
	RunID  string
}

// ExecResult holds the result of a program execution.
type ExecResult struct {
	Diagnostics []diagnostics.Diagnostic
}

// RuntimeError halts evaluation. It carries the offending token's location.
type RuntimeError struct {
	Code    string
	Message string
	Span    *token.Span
}

func (e *RuntimeError) Error() string {
	return e.Message
}

// Diagnostic converts the error into a reportable diagnostic.
func (e *RuntimeError) Diagnostic() diagnostics.Diagnostic {
	return diagnostics.MakeDiag(e.Code, e.Message, e.Span, "")
}

func errorAt(code string, tok token.Token, format string, args ...any) *RuntimeError {
	span := tok.Span
	return &RuntimeError{Code: code, Message: fmt.Sprintf(format, args...), Span: &span}
}

// Session keeps one outer scope alive across several runs, as the REPL needs.
type Session struct {
	opts ExecOptions
	env  *Env
}

// NewSession creates a session with an empty outer scope.
func NewSession(opts ExecOptions) *Session {
	return &Session{opts: opts, env: NewEnv(nil)}
}

// Env returns the session's outer scope.
func (s *Session) Env() *Env {
	return s.env
}

// Run executes program against the session's outer scope. A runtime error
// stops the remaining statements and is returned; variables defined before
// the failure stay in the session.
func (s *Session) Run(program *ast.Program) (*ExecResult, error) {
	ev := &evaluator{opts: s.opts, out: s.opts.Stdout}
	if ev.out == nil {
		ev.out = io.Discard
	}

	span := program.Span
	ev.emit(TraceRunStart, &span, nil)

	var err error
	for _, stmt := range program.Statements {
		if err = ev.exec(stmt, s.env); err != nil {
			break
		}
	}

	if err != nil {
		data := map[string]any{"message": err.Error()}
		var errSpan *token.Span
		if re, ok := err.(*RuntimeError); ok {
			data["code"] = re.Code
			errSpan = re.Span
		}
		ev.emit(TraceHalt, errSpan, data)
	}
	ev.emit(TraceRunEnd, &span, map[string]any{"ok": err == nil})

	return &ExecResult{Diagnostics: ev.diags}, err
}

// Execute runs a program once in a fresh outer scope.
func Execute(program *ast.Program, opts ExecOptions) (*ExecResult, error) {
	return NewSession(opts).Run(program)
}

type evaluator struct {
	opts  ExecOptions
	out   io.Writer
	diags []diagnostics.Diagnostic
}

func (ev *evaluator) emit(event TraceEventType, span *token.Span, data map[string]any) {
	if ev.opts.Trace != nil {
		ev.opts.Trace(TraceEvent{
			Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
			RunID:     ev.opts.RunID,
			Event:     event,
			Span:      span,
			Data:      data,
		})
	}
}

// report records a non-fatal diagnostic; evaluation continues.
func (ev *evaluator) report(d diagnostics.Diagnostic) {
	ev.diags = append(ev.diags, d)
	if ev.opts.Report != nil {
		ev.opts.Report(d)
	}
}

func (ev *evaluator) reportAt(code string, tok token.Token, format string, args ...any) {
	ev.report(diagnostics.AtToken(code, tok, fmt.Sprintf(format, args...)))
}

// display converts a value to the text OUTPUT: prints.
func (ev *evaluator) display(v value.Value) string {
	if value.KindOf(v) == value.KindAbsent {
		if ev.opts.NullMarker == "" {
			return "nil"
		}
		return ev.opts.NullMarker
	}
	return v.String()
}

func (ev *evaluator) exec(stmt ast.Stmt, env *Env) error {
	span := stmt.NodeSpan()
	ev.emit(TraceStmtStart, &span, map[string]any{"kind": stmt.Kind()})

	var err error
	switch s := stmt.(type) {
	case *ast.ExprStmt:
		_, err = ev.eval(s.Expr, env)

	case *ast.Print:
		err = ev.execPrint(s, env)

	case *ast.Var:
		err = ev.execVar(s, env)

	case *ast.Block:
		err = ev.execBlock(s, env)

	case *ast.Input:
		err = ev.execInput(s, env)

	case *ast.If:
		var cond value.Value
		if cond, err = ev.eval(s.Condition, env); err != nil {
			break
		}
		if value.Truthy(cond) {
			err = ev.exec(s.Then, env)
		} else if s.Else != nil {
			err = ev.exec(s.Else, env)
		}

	case *ast.While:
		for {
			var cond value.Value
			if cond, err = ev.eval(s.Condition, env); err != nil || !value.Truthy(cond) {
				break
			}
			if err = ev.exec(s.Body, env); err != nil {
				break
			}
		}

	default:
		err = &RuntimeError{
			Code:    diagnostics.EOperand,
			Message: fmt.Sprintf("unsupported statement type: %T", stmt),
			Span:    &span,
		}
	}
	if err != nil {
		return err
	}

	ev.emit(TraceStmtEnd, &span, nil)
	return nil
}

func (ev *evaluator) execPrint(s *ast.Print, env *Env) error {
	val, err := ev.eval(s.Expr, env)
	if err != nil {
		return err
	}
	text := ev.display(val)
	if _, err := fmt.Fprintln(ev.out, text); err != nil {
		span := s.Span
		return &RuntimeError{Code: diagnostics.EIO, Message: fmt.Sprintf("cannot write output: %v", err), Span: &span}
	}
	span := s.Span
	ev.emit(TraceOutput, &span, map[string]any{"text": text})
	return nil
}

// execVar defines one declared name. An initializer of the wrong kind, or a
// STRING declared without one, is reported and the name is bound to the
// declared type's zero value so the run can go on.
func (ev *evaluator) execVar(s *ast.Var, env *Env) error {
	kind, ok := token.KindFor(s.Type.Type)
	if !ok {
		return errorAt(diagnostics.EDatatype, s.Type, "Unknown data type '%s'.", s.Type.Lexeme)
	}
	zero, hasZero := value.Zero(kind)

	val := zero
	if s.Initializer != nil {
		init, err := ev.eval(s.Initializer, env)
		if err != nil {
			return err
		}
		if value.KindOf(init) == kind {
			val = init
		} else {
			ev.reportAt(diagnostics.EDatatype, s.Name,
				"Incorrect datatype: '%s' is declared %s but was given %s.", s.Name.Lexeme, kind, value.KindOf(init))
		}
	} else if !hasZero {
		ev.reportAt(diagnostics.EDatatype, s.Name,
			"Variable '%s' of type %s requires an initial value.", s.Name.Lexeme, s.Type.Lexeme)
	}

	env.Define(s.Name.Lexeme, val)
	span := s.Span
	ev.emit(TraceDefine, &span, map[string]any{"name": s.Name.Lexeme, "value": value.Describe(val)})
	return nil
}

// execBlock runs the statements in a child scope. The scope is dropped on
// every return path because it is only ever referenced from this call.
func (ev *evaluator) execBlock(s *ast.Block, env *Env) error {
	span := s.Span
	ev.emit(TraceBlockEnter, &span, nil)
	scope := env.Child()
	var err error
	for _, stmt := range s.Statements {
		if err = ev.exec(stmt, scope); err != nil {
			break
		}
	}
	ev.emit(TraceBlockExit, &span, nil)
	return err
}

// Package runtime provides the top-level CFPL orchestrator.
package runtime

import (
	"fmt"
	"io"
	"strings"

	"github.com/thomasrohde/cfpl/pkg/config"
	"github.com/thomasrohde/cfpl/pkg/diagnostics"
	"github.com/thomasrohde/cfpl/pkg/evaluator"
	"github.com/thomasrohde/cfpl/pkg/formatter"
	"github.com/thomasrohde/cfpl/pkg/lexer"
	"github.com/thomasrohde/cfpl/pkg/parser"
	"github.com/thomasrohde/cfpl/pkg/token"
	"github.com/thomasrohde/cfpl/pkg/validator"
)

// Result holds the outcome of a program execution.
type Result struct {
	// Diagnostics are the non-fatal problems reported while running.
	Diagnostics []diagnostics.Diagnostic
}

// Runtime wires together all CFPL components for program execution.
type Runtime struct {
	cfg    *config.Config
	stdout io.Writer
	input  evaluator.LineReader
	report func(d diagnostics.Diagnostic)
	runID  string
	trace  func(event evaluator.TraceEvent)
}

// Option is a functional option for configuring the Runtime.
type Option func(*Runtime)

// WithConfig sets the configuration that supplies the input prompt and the
// display text of unset values.
func WithConfig(cfg *config.Config) Option {
	return func(rt *Runtime) {
		rt.cfg = cfg
	}
}

// WithStdout sets where OUTPUT: writes.
func WithStdout(w io.Writer) Option {
	return func(rt *Runtime) {
		rt.stdout = w
	}
}

// WithInput sets the line source INPUT: reads from.
func WithInput(r evaluator.LineReader) Option {
	return func(rt *Runtime) {
		rt.input = r
	}
}

// WithReporter forwards non-fatal diagnostics to r as they occur.
func WithReporter(r diagnostics.Reporter) Option {
	return func(rt *Runtime) {
		rt.report = r.Report
	}
}

// WithRunID sets the run ID for trace events.
func WithRunID(id string) Option {
	return func(rt *Runtime) {
		rt.runID = id
	}
}

// WithTrace sets the trace callback.
func WithTrace(fn func(event evaluator.TraceEvent)) Option {
	return func(rt *Runtime) {
		rt.trace = fn
	}
}

// New creates a new Runtime with the given options.
// By default the built-in configuration is used, output is discarded and
// no input is available.
func New(opts ...Option) *Runtime {
	rt := &Runtime{
		cfg:    config.Default(),
		stdout: io.Discard,
		runID:  "cli",
	}
	for _, opt := range opts {
		opt(rt)
	}
	return rt
}

// Run parses and executes a CFPL program. Lexical and syntax errors stop it
// before anything runs and are returned as a *DiagnosticError; a runtime
// fault is returned as an *evaluator.RuntimeError alongside the result so
// far.
func (rt *Runtime) Run(source, filename string) (*Result, error) {
	program, diags := parser.Parse(source, filename)
	if len(diags) > 0 {
		return nil, &DiagnosticError{Diagnostics: diags}
	}

	result, err := evaluator.Execute(program, rt.ExecOptions())
	if result == nil {
		return nil, err
	}
	return &Result{Diagnostics: result.Diagnostics}, err
}

// Check parses and validates a CFPL program without executing it.
func (rt *Runtime) Check(source, filename string) []diagnostics.Diagnostic {
	program, diags := parser.Parse(source, filename)
	if len(diags) > 0 {
		return diags
	}
	return validator.Validate(program)
}

// Format parses and formats a CFPL program.
func (rt *Runtime) Format(source, filename string) (string, error) {
	program, diags := parser.Parse(source, filename)
	if len(diags) > 0 {
		return "", &DiagnosticError{Diagnostics: diags}
	}
	return formatter.Format(program), nil
}

// Tokens scans source without parsing it.
func (rt *Runtime) Tokens(source, filename string) ([]token.Token, []diagnostics.Diagnostic) {
	return lexer.Tokenize(source, filename)
}

// NewSession starts a session whose variables persist across runs.
func (rt *Runtime) NewSession() *evaluator.Session {
	return evaluator.NewSession(rt.ExecOptions())
}

// ExecOptions builds evaluator options from the runtime's configuration.
func (rt *Runtime) ExecOptions() evaluator.ExecOptions {
	return evaluator.ExecOptions{
		Stdout:      rt.stdout,
		Input:       rt.input,
		InputPrompt: rt.cfg.InputPrompt,
		NullMarker:  rt.cfg.NullMarker,
		Report:      rt.report,
		Trace:       rt.trace,
		RunID:       rt.runID,
	}
}

// DiagnosticError wraps diagnostics as an error.
type DiagnosticError struct {
	Diagnostics []diagnostics.Diagnostic
}

func (e *DiagnosticError) Error() string {
	msgs := make([]string, len(e.Diagnostics))
	for i, d := range e.Diagnostics {
		msgs[i] = fmt.Sprintf("%s: %s", d.Code, d.Message)
	}
	return strings.Join(msgs, "; ")
}

// Package diagnostics defines CFPL diagnostic types for lexical, syntax and runtime errors.
package diagnostics

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/thomasrohde/cfpl/pkg/token"
)

// Diagnostic code constants.
const (
	ELex          = "E_LEX"
	EParse        = "E_PARSE"
	EUndefined    = "E_UNDEFINED"
	ETypeMismatch = "E_TYPE_MISMATCH"
	EOperand      = "E_OPERAND"
	EDivZero      = "E_DIV_ZERO"
	EDatatype     = "E_DATATYPE"
	EInput        = "E_INPUT"
	EIO           = "E_IO"
	EConfig       = "E_CONFIG"
)

// Diagnostic represents a lexical, syntax, or runtime diagnostic.
type Diagnostic struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Span    *token.Span `json:"span,omitempty"`
	Hint    string      `json:"hint,omitempty"`
}

// MakeDiag creates a new Diagnostic.
func MakeDiag(code, message string, span *token.Span, hint string) Diagnostic {
	return Diagnostic{
		Code:    code,
		Message: message,
		Span:    span,
		Hint:    hint,
	}
}

// AtToken creates a Diagnostic located at tok.
func AtToken(code string, tok token.Token, message string) Diagnostic {
	span := tok.Span
	return MakeDiag(code, message, &span, "")
}

// AtLine creates a Diagnostic located at the start of a source line.
func AtLine(code, file string, line int, message string) Diagnostic {
	span := &token.Span{File: file, StartLine: line, StartCol: 1, EndLine: line, EndCol: 1}
	return MakeDiag(code, message, span, "")
}

// FormatDiagnostic formats a single diagnostic for display.
func FormatDiagnostic(d Diagnostic, pretty bool) string {
	if !pretty {
		b, _ := json.Marshal(d)
		return string(b)
	}
	loc := "<unknown>"
	if d.Span != nil {
		loc = fmt.Sprintf("%s:%d:%d", d.Span.File, d.Span.StartLine, d.Span.StartCol)
	}
	out := fmt.Sprintf("error[%s]: %s\n  --> %s", d.Code, d.Message, loc)
	if d.Hint != "" {
		out += fmt.Sprintf("\n  hint: %s", d.Hint)
	}
	return out
}

// FormatDiagnostics formats a slice of diagnostics for display.
func FormatDiagnostics(diags []Diagnostic, pretty bool) string {
	if !pretty {
		b, _ := json.Marshal(diags)
		return string(b)
	}
	parts := make([]string, len(diags))
	for i, d := range diags {
		parts[i] = FormatDiagnostic(d, true)
	}
	return strings.Join(parts, "\n\n")
}

// Reporter receives diagnostics as they are produced.
type Reporter interface {
	Report(d Diagnostic)
}

// Collector is a Reporter that records diagnostics in order.
type Collector struct {
	Diags []Diagnostic
}

// Report appends d.
func (c *Collector) Report(d Diagnostic) {
	c.Diags = append(c.Diags, d)
}

// HasErrors reports whether anything was collected.
func (c *Collector) HasErrors() bool {
	return len(c.Diags) > 0
}

// WriterReporter prints each diagnostic to W as soon as it is reported.
// Pretty output is separated by blank lines; JSON output is one object per line.
type WriterReporter struct {
	W      io.Writer
	Pretty bool
	count  int
}

// Report writes d.
func (r *WriterReporter) Report(d Diagnostic) {
	if r.Pretty && r.count > 0 {
		fmt.Fprintln(r.W)
	}
	fmt.Fprintln(r.W, FormatDiagnostic(d, r.Pretty))
	r.count++
}

// Count returns how many diagnostics were written.
func (r *WriterReporter) Count() int {
	return r.count
}

// ReportAll forwards every diagnostic to r.
func ReportAll(r Reporter, diags []Diagnostic) {
	for _, d := range diags {
		r.Report(d)
	}
}

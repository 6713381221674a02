package evaluator

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/thomasrohde/cfpl/pkg/ast"
	"github.com/thomasrohde/cfpl/pkg/diagnostics"
	"github.com/thomasrohde/cfpl/pkg/value"
)

// execInput reads one line and assigns its comma-separated fields to the
// named variables in order. Shape problems are reported without halting:
// a field count mismatch assigns nothing, and a field that does not parse
// as its variable's kind is reclassified from its text before assignment.
func (ev *evaluator) execInput(s *ast.Input, env *Env) error {
	current := make([]value.Value, len(s.Names))
	for i, name := range s.Names {
		val, err := env.Get(name)
		if err != nil {
			return err
		}
		current[i] = val
	}

	if ev.opts.InputPrompt != "" {
		fmt.Fprintln(ev.out, ev.opts.InputPrompt)
	}

	first := s.Names[0]
	if ev.opts.Input == nil {
		ev.reportAt(diagnostics.EInput, first, "No input available.")
		return nil
	}
	line, err := ev.opts.Input.ReadLine()
	if err != nil {
		if errors.Is(err, io.EOF) {
			ev.reportAt(diagnostics.EInput, first, "No input available.")
			return nil
		}
		return errorAt(diagnostics.EIO, first, "cannot read input: %v", err)
	}
	line = strings.TrimRight(line, "\r\n")

	span := s.Span
	ev.emit(TraceInput, &span, map[string]any{"line": line})

	fields := SplitFields(line)
	if len(fields) != len(s.Names) {
		ev.reportAt(diagnostics.EInput, first,
			"Missing values: expected %d but received %d.", len(s.Names), len(fields))
		return nil
	}

	for i, name := range s.Names {
		kind := value.KindOf(current[i])
		val, ok := ParseField(fields[i], kind)
		if !ok {
			ev.reportAt(diagnostics.EInput, name, "'%s' expects %s but received %q.", name.Lexeme, kind, fields[i])
			if val, ok = Reclassify(fields[i]); !ok {
				continue
			}
		}
		if err := env.Assign(name, val); err != nil {
			ev.reportAt(diagnostics.EInput, name, "%s", err.Error())
			continue
		}
		ev.emit(TraceAssign, &span, map[string]any{"name": name.Lexeme, "value": value.Describe(val)})
	}
	return nil
}

// SplitFields splits an input line on commas. Empty trailing fields are
// dropped, except that an empty line is one empty field.
func SplitFields(line string) []string {
	if line == "" {
		return []string{""}
	}
	fields := strings.Split(line, ",")
	for len(fields) > 0 && fields[len(fields)-1] == "" {
		fields = fields[:len(fields)-1]
	}
	return fields
}

// ParseField reads text as a value of kind. Booleans match on the substrings
// TRUE and FALSE; strings and unset variables take the text unchanged.
func ParseField(text string, kind value.Kind) (value.Value, bool) {
	switch kind {
	case value.KindInteger:
		n, err := strconv.ParseInt(text, 10, 64)
		if err != nil {
			return nil, false
		}
		return value.NewInteger(n), true
	case value.KindFloat:
		f, err := strconv.ParseFloat(strings.TrimSpace(text), 64)
		if err != nil {
			return nil, false
		}
		return value.NewFloat(f), true
	case value.KindCharacter:
		if utf8.RuneCountInString(text) != 1 {
			return nil, false
		}
		r, _ := utf8.DecodeRuneInString(text)
		return value.NewCharacter(r), true
	case value.KindBoolean:
		switch {
		case strings.Contains(text, "TRUE"):
			return value.NewBoolean(true), true
		case strings.Contains(text, "FALSE"):
			return value.NewBoolean(false), true
		}
		return nil, false
	}
	return value.NewString(text), true
}

// Reclassify guesses a kind for text that failed to parse as its target's
// kind: a single character, then text containing true or false in any case,
// then an integer, then a float.
func Reclassify(text string) (value.Value, bool) {
	if utf8.RuneCountInString(text) == 1 {
		r, _ := utf8.DecodeRuneInString(text)
		return value.NewCharacter(r), true
	}
	lower := strings.ToLower(text)
	switch {
	case strings.Contains(lower, "true"):
		return value.NewBoolean(true), true
	case strings.Contains(lower, "false"):
		return value.NewBoolean(false), true
	}
	trimmed := strings.TrimSpace(text)
	if n, err := strconv.ParseInt(trimmed, 10, 64); err == nil {
		return value.NewInteger(n), true
	}
	if f, err := strconv.ParseFloat(trimmed, 64); err == nil {
		return value.NewFloat(f), true
	}
	return nil, false
}

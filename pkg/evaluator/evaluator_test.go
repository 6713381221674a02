package evaluator_test

import (
	"bytes"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/thomasrohde/cfpl/pkg/diagnostics"
	"github.com/thomasrohde/cfpl/pkg/evaluator"
	"github.com/thomasrohde/cfpl/pkg/parser"
	"github.com/thomasrohde/cfpl/pkg/value"
)

// --- helpers ---

// lines is a LineReader over a fixed set of input lines.
type lines []string

func (l *lines) ReadLine() (string, error) {
	if len(*l) == 0 {
		return "", io.EOF
	}
	line := (*l)[0]
	*l = (*l)[1:]
	return line, nil
}

type result struct {
	out   string
	diags []diagnostics.Diagnostic
	err   error
}

// runWith parses and executes source with custom ExecOptions, capturing stdout.
func runWith(t *testing.T, src string, opts evaluator.ExecOptions) result {
	t.Helper()
	prog, diags := parser.Parse(src, "test.cfpl")
	if len(diags) > 0 {
		t.Fatalf("parse errors: %s", diagnostics.FormatDiagnostics(diags, true))
	}
	var out bytes.Buffer
	opts.Stdout = &out
	res, err := evaluator.Execute(prog, opts)
	if res == nil {
		t.Fatal("Execute returned a nil result")
	}
	return result{out: out.String(), diags: res.Diagnostics, err: err}
}

// run parses and executes source with the given input lines.
func run(t *testing.T, src string, input ...string) result {
	t.Helper()
	in := lines(input)
	return runWith(t, src, evaluator.ExecOptions{Input: &in})
}

// mustRun is like run but also fails on runtime errors and diagnostics.
func mustRun(t *testing.T, src string, input ...string) string {
	t.Helper()
	r := run(t, src, input...)
	if r.err != nil {
		t.Fatalf("unexpected runtime error: %v", r.err)
	}
	if len(r.diags) > 0 {
		t.Fatalf("unexpected diagnostics: %s", diagnostics.FormatDiagnostics(r.diags, true))
	}
	return r.out
}

// expectRuntimeError asserts that execution halted with the given code.
func expectRuntimeError(t *testing.T, r result, code string) *evaluator.RuntimeError {
	t.Helper()
	var re *evaluator.RuntimeError
	if !errors.As(r.err, &re) {
		t.Fatalf("expected RuntimeError %s, got %v", code, r.err)
	}
	if re.Code != code {
		t.Fatalf("expected code %s, got %s (%s)", code, re.Code, re.Message)
	}
	return re
}

func outLines(s string) []string {
	return strings.Split(strings.TrimSuffix(s, "\n"), "\n")
}

// ---- 1. Output and declarations ----

func TestDeclareAndPrint(t *testing.T) {
	out := mustRun(t, "VAR x = 5 AS INT\nOUTPUT: x + 3\n")
	if out != "8\n" {
		t.Errorf("output = %q, want %q", out, "8\n")
	}
}

func TestZeroValues(t *testing.T) {
	src := "VAR i AS INT\nVAR f AS FLOAT\nVAR c AS CHAR\nVAR b AS BOOL\n" +
		"OUTPUT: i\nOUTPUT: f\nOUTPUT: \"<\" & c & \">\"\nOUTPUT: b\n"
	out := mustRun(t, src)
	want := []string{"0", "0", "< >", "false"}
	if diff := cmp.Diff(want, outLines(out)); diff != "" {
		t.Errorf("output mismatch (-want +got):\n%s", diff)
	}
}

func TestDisplay(t *testing.T) {
	tests := []struct {
		expr string
		want string
	}{
		{"10.0", "10"},
		{"2.5", "2.5"},
		{"1.5 + 1.5", "3"},
		{"7 / 2", "3"},
		{"7.0 / 2", "3.5"},
		{"'Q'", "Q"},
		{"\"TRUE\"", "true"},
		{"\"hi\"", "hi"},
		{"1.0 / 0", "Infinity"},
		{"-1.0 / 0", "-Infinity"},
	}
	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			out := mustRun(t, "OUTPUT: "+tt.expr+"\n")
			if out != tt.want+"\n" {
				t.Errorf("OUTPUT: %s = %q, want %q", tt.expr, out, tt.want)
			}
		})
	}
}

func TestMultiNameDeclaration(t *testing.T) {
	out := mustRun(t, "VAR a, b = 3, c = 4 AS INT\nOUTPUT: a & \",\" & b & \",\" & c\n")
	if out != "0,3,4\n" {
		t.Errorf("output = %q", out)
	}
}

func TestDeclarationDatatypeMismatchContinues(t *testing.T) {
	r := run(t, "VAR x = \"hello\" AS INT\nOUTPUT: x\nOUTPUT: \"after\"\n")
	if r.err != nil {
		t.Fatalf("unexpected halt: %v", r.err)
	}
	if len(r.diags) != 1 || r.diags[0].Code != diagnostics.EDatatype {
		t.Fatalf("expected one E_DATATYPE diagnostic, got %+v", r.diags)
	}
	if !strings.Contains(r.diags[0].Message, "Incorrect datatype") {
		t.Errorf("message = %q", r.diags[0].Message)
	}
	if diff := cmp.Diff([]string{"0", "after"}, outLines(r.out)); diff != "" {
		t.Errorf("output mismatch (-want +got):\n%s", diff)
	}
}

func TestIntegerInitializerForFloatIsMismatch(t *testing.T) {
	r := run(t, "VAR f = 1 AS FLOAT\nOUTPUT: f\n")
	if len(r.diags) != 1 || r.diags[0].Code != diagnostics.EDatatype {
		t.Fatalf("expected E_DATATYPE, got %+v", r.diags)
	}
	if r.out != "0\n" {
		t.Errorf("output = %q", r.out)
	}
}

func TestStringRequiresInitializer(t *testing.T) {
	r := run(t, "VAR s AS STRING\nOUTPUT: \"<\" & s & \">\"\n")
	if len(r.diags) != 1 || r.diags[0].Code != diagnostics.EDatatype {
		t.Fatalf("expected E_DATATYPE, got %+v", r.diags)
	}
	if r.out != "<>\n" {
		t.Errorf("output = %q", r.out)
	}
}

func TestInitializerErrorHalts(t *testing.T) {
	r := run(t, "VAR x = y AS INT\nOUTPUT: 1\n")
	expectRuntimeError(t, r, diagnostics.EUndefined)
	if r.out != "" {
		t.Errorf("output = %q, want none", r.out)
	}
}

func TestRedefinitionReplaces(t *testing.T) {
	out := mustRun(t, "VAR x = 1 AS INT\nVAR x = \"s\" AS STRING\nOUTPUT: x\n")
	if out != "s\n" {
		t.Errorf("output = %q", out)
	}
}

// ---- 2. Assignment ----

func TestAssignmentTypeMismatchHalts(t *testing.T) {
	r := run(t, "VAR x = 5 AS INT\nx = \"hello\"\nOUTPUT: x\n")
	re := expectRuntimeError(t, r, diagnostics.ETypeMismatch)
	if re.Message != "x expects Integer but received String instead." {
		t.Errorf("message = %q", re.Message)
	}
	if re.Span == nil || re.Span.StartLine != 2 {
		t.Errorf("span = %+v", re.Span)
	}
	if r.out != "" {
		t.Errorf("output = %q, want none", r.out)
	}
}

func TestAssignmentYieldsValue(t *testing.T) {
	out := mustRun(t, "VAR a, b AS INT\na = b = 4\nOUTPUT: a + b\nOUTPUT: (a = 9) * 2\n")
	if diff := cmp.Diff([]string{"8", "18"}, outLines(out)); diff != "" {
		t.Errorf("output mismatch (-want +got):\n%s", diff)
	}
}

func TestAssignUndefinedHalts(t *testing.T) {
	r := run(t, "OUTPUT: 1\ny = 2\nOUTPUT: 3\n")
	re := expectRuntimeError(t, r, diagnostics.EUndefined)
	if re.Message != "Undefined variable 'y'." {
		t.Errorf("message = %q", re.Message)
	}
	if r.out != "1\n" {
		t.Errorf("output = %q", r.out)
	}
}

func TestPrefixIncrementAssigns(t *testing.T) {
	out := mustRun(t, "VAR i = 1 AS INT\nVAR f = 0.5 AS FLOAT\n++i\n--f\nOUTPUT: i & \" \" & f\n")
	if out != "2 -0.5\n" {
		t.Errorf("output = %q", out)
	}
}

// ---- 3. Operators ----

func TestArithmetic(t *testing.T) {
	tests := []struct {
		expr string
		want value.Value
	}{
		{"1 + 2", value.NewInteger(3)},
		{"7 - 10", value.NewInteger(-3)},
		{"6 * 7", value.NewInteger(42)},
		{"7 / 2", value.NewInteger(3)},
		{"-7 / 2", value.NewInteger(-3)},
		{"7 % 3", value.NewInteger(1)},
		{"-7 % 3", value.NewInteger(-1)},
		{"7 % -3", value.NewInteger(1)},
		{"1 + 0.5", value.NewFloat(1.5)},
		{"0.5 * 4", value.NewFloat(2)},
		{"3 / 2.0", value.NewFloat(1.5)},
		{"2.5 - 1", value.NewFloat(1.5)},
		{"\"ab\" + \"cd\"", value.NewString("abcd")},
		{"-(3)", value.NewInteger(-3)},
		{"-2.5", value.NewFloat(-2.5)},
	}
	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			got := evalExpr(t, tt.expr)
			if got != tt.want {
				t.Errorf("%s = %#v, want %#v", tt.expr, got, tt.want)
			}
		})
	}
}

// evalExpr assigns expr to an unset variable r in a fresh session and reads
// r back, so the result keeps whatever kind the expression produced.
func evalExpr(t *testing.T, expr string) value.Value {
	t.Helper()
	prog, diags := parser.Parse("r = "+expr+"\n", "expr.cfpl")
	if len(diags) > 0 {
		t.Fatalf("parse errors: %s", diagnostics.FormatDiagnostics(diags, true))
	}
	s := evaluator.NewSession(evaluator.ExecOptions{})
	s.Env().Define("r", value.NewAbsent())
	if _, err := s.Run(prog); err != nil {
		t.Fatalf("runtime error: %v", err)
	}
	v, _ := s.Env().Lookup("r")
	return v
}

func TestMixedArithmeticIsFloat(t *testing.T) {
	for _, op := range []string{"+", "-", "*", "/"} {
		for _, expr := range []string{"3 " + op + " 1.5", "1.5 " + op + " 3"} {
			if k := value.KindOf(evalExpr(t, expr)); k != value.KindFloat {
				t.Errorf("%s has kind %s, want Float", expr, k)
			}
		}
	}
}

func TestIntegerDivisionTruncatesTowardZero(t *testing.T) {
	pairs := [][2]int64{{7, 2}, {-7, 2}, {7, -2}, {-7, -2}, {1, 3}, {0, 5}, {100, 7}}
	for _, p := range pairs {
		a, b := p[0], p[1]
		q := evalExpr(t, itoa(a)+" / "+itoa(b))
		m := evalExpr(t, itoa(a)+" % "+itoa(b))
		qi := q.(value.Integer).Value
		mi := m.(value.Integer).Value
		if qi != a/b || mi != a%b {
			t.Errorf("%d / %d = %d r %d, want %d r %d", a, b, qi, mi, a/b, a%b)
		}
		if qi*b+mi != a {
			t.Errorf("%d != %d*%d + %d", a, qi, b, mi)
		}
	}
}

// itoa writes negative numbers as grouped negations so they parse as unary minus.
func itoa(n int64) string {
	if n < 0 {
		return "(-" + value.NewInteger(-n).String() + ")"
	}
	return value.NewInteger(n).String()
}

func TestConcatenationStringifiesAnything(t *testing.T) {
	out := mustRun(t, "VAR c = 'x' AS CHAR\nOUTPUT: 1 & c & 2.0 & \"TRUE\" & # & \"end\"\n")
	if out != "1x2true\nend\n" {
		t.Errorf("output = %q", out)
	}
}

func TestComparisonAndEquality(t *testing.T) {
	tests := []struct {
		expr string
		want bool
	}{
		{"1 < 2", true},
		{"2 <= 2", true},
		{"3 > 2.5", true},
		{"2.0 >= 3", false},
		{"1 == 1", true},
		{"1 == 1.0", false},
		{"'a' == 'a'", true},
		{"\"a\" <> \"b\"", true},
		{"\"TRUE\" == \"TRUE\"", true},
		{"1 != 1", false},
	}
	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			got := evalExpr(t, tt.expr)
			if got != value.NewBoolean(tt.want) {
				t.Errorf("%s = %#v, want %v", tt.expr, got, tt.want)
			}
		})
	}
}

func TestAbsentIsNeverEqual(t *testing.T) {
	s := evaluator.NewSession(evaluator.ExecOptions{})
	s.Env().Define("n", value.NewAbsent())
	s.Env().Define("r", value.NewAbsent())
	prog, _ := parser.Parse("r = n == n\n", "t")
	if _, err := s.Run(prog); err != nil {
		t.Fatal(err)
	}
	if v, _ := s.Env().Lookup("r"); v != value.NewBoolean(false) {
		t.Errorf("n == n = %#v, want false", v)
	}
}

func TestLogicalReturnsOperand(t *testing.T) {
	tests := []struct {
		expr string
		want value.Value
	}{
		{"1 OR 2", value.NewInteger(1)},
		{"\"FALSE\" OR 'z'", value.NewCharacter('z')},
		{"\"FALSE\" AND 3", value.NewBoolean(false)},
		{"\"TRUE\" AND 3", value.NewInteger(3)},
		{"NOT 0", value.NewBoolean(false)},
		{"!\"FALSE\"", value.NewBoolean(true)},
	}
	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			if got := evalExpr(t, tt.expr); got != tt.want {
				t.Errorf("%s = %#v, want %#v", tt.expr, got, tt.want)
			}
		})
	}
}

func TestLogicalShortCircuits(t *testing.T) {
	out := mustRun(t, "VAR n = 0 AS INT\nOUTPUT: \"TRUE\" OR (n = 1)\nOUTPUT: \"FALSE\" AND (n = 2)\nOUTPUT: n\n")
	if diff := cmp.Diff([]string{"true", "false", "0"}, outLines(out)); diff != "" {
		t.Errorf("output mismatch (-want +got):\n%s", diff)
	}
}

func TestOperandErrors(t *testing.T) {
	tests := []struct {
		src  string
		code string
		msg  string
	}{
		{"OUTPUT: 1 + 'a'\n", diagnostics.EOperand, "Operands must be a number or a string."},
		{"OUTPUT: \"a\" + 1\n", diagnostics.EOperand, "Operands must be a number or a string."},
		{"OUTPUT: \"a\" - \"b\"\n", diagnostics.EOperand, "Operand must be a number."},
		{"OUTPUT: 'a' < 'b'\n", diagnostics.EOperand, "Operand must be a number."},
		{"OUTPUT: -\"a\"\n", diagnostics.EOperand, "Operand must be a number."},
		{"OUTPUT: 5.0 % 2\n", diagnostics.EOperand, "Modulo only accepts two integers."},
		{"OUTPUT: 5 / 0\n", diagnostics.EDivZero, "Division by zero."},
		{"OUTPUT: 5 % 0\n", diagnostics.EDivZero, "Modulo by zero."},
		{"OUTPUT: nope\n", diagnostics.EUndefined, "Undefined variable 'nope'."},
	}
	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			re := expectRuntimeError(t, run(t, tt.src), tt.code)
			if re.Message != tt.msg {
				t.Errorf("message = %q, want %q", re.Message, tt.msg)
			}
		})
	}
}

// ---- 4. Control flow ----

func TestIfElse(t *testing.T) {
	src := "VAR x = 3 AS INT\n" +
		"IF (x > 2)\nOUTPUT: \"big\"\nELSE\nOUTPUT: \"small\"\n" +
		"IF (x < 2)\nOUTPUT: \"no\"\n" +
		"IF (0)\nOUTPUT: \"zero is true\"\n"
	out := mustRun(t, src)
	if diff := cmp.Diff([]string{"big", "zero is true"}, outLines(out)); diff != "" {
		t.Errorf("output mismatch (-want +got):\n%s", diff)
	}
}

func TestWhile(t *testing.T) {
	src := "VAR i = 0 AS INT\nWHILE (i < 3)\nSTART\nOUTPUT: i\ni = i + 1\nSTOP\nOUTPUT: \"done\"\n"
	out := mustRun(t, src)
	if diff := cmp.Diff([]string{"0", "1", "2", "done"}, outLines(out)); diff != "" {
		t.Errorf("output mismatch (-want +got):\n%s", diff)
	}
}

func TestForLoop(t *testing.T) {
	out := mustRun(t, "FOR (VAR i = 0 AS INT; i < 3; i = i + 1;)\nOUTPUT: i\n")
	if diff := cmp.Diff([]string{"0", "1", "2"}, outLines(out)); diff != "" {
		t.Errorf("output mismatch (-want +got):\n%s", diff)
	}
}

func TestForLoopVariableIsScoped(t *testing.T) {
	r := run(t, "FOR (VAR i = 0 AS INT; i < 1; ++i)\nOUTPUT: i\nOUTPUT: i\n")
	expectRuntimeError(t, r, diagnostics.EUndefined)
	if r.out != "0\n" {
		t.Errorf("output = %q", r.out)
	}
}

func TestConcatUsesDisplayText(t *testing.T) {
	prog, diags := parser.Parse("OUTPUT: 1.0 & \"|\" & s\n", "test.cfpl")
	if len(diags) > 0 {
		t.Fatalf("parse errors: %s", diagnostics.FormatDiagnostics(diags, true))
	}
	var out bytes.Buffer
	s := evaluator.NewSession(evaluator.ExecOptions{Stdout: &out, NullMarker: "null"})
	s.Env().Define("s", value.NewAbsent())
	if _, err := s.Run(prog); err != nil {
		t.Fatal(err)
	}
	if out.String() != "1|null\n" {
		t.Errorf("output = %q, want %q", out.String(), "1|null\n")
	}
}

func TestForWithoutInitializerOpensNoScope(t *testing.T) {
	var blocks int
	r := runWith(t, "VAR n = 0 AS INT\nFOR (; n < 2;)\nn = n + 1\nOUTPUT: n\n", evaluator.ExecOptions{
		Trace: func(ev evaluator.TraceEvent) {
			if ev.Event == evaluator.TraceBlockEnter {
				blocks++
			}
		},
	})
	if r.err != nil {
		t.Fatal(r.err)
	}
	if r.out != "2\n" {
		t.Errorf("output = %q", r.out)
	}
	if blocks != 0 {
		t.Errorf("block_enter events = %d, want 0", blocks)
	}
}

func TestNestedForLoops(t *testing.T) {
	src := "FOR (VAR i = 1 AS INT; i <= 2; ++i)\n" +
		"FOR (VAR j = 1 AS INT; j <= 2; ++j)\n" +
		"OUTPUT: i & \"x\" & j & \"=\" & i * j\n"
	out := mustRun(t, src)
	want := []string{"1x1=1", "1x2=2", "2x1=2", "2x2=4"}
	if diff := cmp.Diff(want, outLines(out)); diff != "" {
		t.Errorf("output mismatch (-want +got):\n%s", diff)
	}
}

// ---- 5. Scopes ----

func TestBlockScopeShadowsAndRestores(t *testing.T) {
	src := "VAR x = 1 AS INT\n" +
		"START\nVAR x = 2 AS INT\nOUTPUT: x\nSTOP\n" +
		"OUTPUT: x\n"
	out := mustRun(t, src)
	if diff := cmp.Diff([]string{"2", "1"}, outLines(out)); diff != "" {
		t.Errorf("output mismatch (-want +got):\n%s", diff)
	}
}

func TestBlockAssignsOuterVariable(t *testing.T) {
	out := mustRun(t, "VAR x = 1 AS INT\nSTART\nx = 5\nSTOP\nOUTPUT: x\n")
	if out != "5\n" {
		t.Errorf("output = %q", out)
	}
}

func TestFailedBlockRestoresScope(t *testing.T) {
	s := evaluator.NewSession(evaluator.ExecOptions{})
	prog, _ := parser.Parse("VAR x = 1 AS INT\nSTART\nVAR inner = 9 AS INT\nx = 2\nx = \"boom\"\nSTOP\n", "t")
	if _, err := s.Run(prog); err == nil {
		t.Fatal("expected the block to fail")
	}
	if s.Env().Has("inner") {
		t.Error("block-local variable leaked into the outer scope")
	}
	if v, _ := s.Env().Lookup("x"); v != value.NewInteger(2) {
		t.Errorf("x = %#v, want Integer 2", v)
	}

	// The session keeps working in the outer scope afterwards.
	var out bytes.Buffer
	s2 := evaluator.NewSession(evaluator.ExecOptions{Stdout: &out})
	prog2, _ := parser.Parse("VAR y = 1 AS INT\nSTART\ny = 'c'\nSTOP\n", "t")
	_, _ = s2.Run(prog2)
	prog3, _ := parser.Parse("OUTPUT: y\n", "t")
	if _, err := s2.Run(prog3); err != nil {
		t.Fatalf("session unusable after failure: %v", err)
	}
	if out.String() != "1\n" {
		t.Errorf("output = %q", out.String())
	}
}

func TestMismatchLeavesValueUnchanged(t *testing.T) {
	s := evaluator.NewSession(evaluator.ExecOptions{})
	prog, _ := parser.Parse("VAR c = 'a' AS CHAR\nc = 1\n", "t")
	if _, err := s.Run(prog); err == nil {
		t.Fatal("expected type mismatch")
	}
	if v, _ := s.Env().Lookup("c"); v != value.NewCharacter('a') {
		t.Errorf("c = %#v, want 'a'", v)
	}
}

// ---- 6. Options ----

func TestNullMarker(t *testing.T) {
	prog, _ := parser.Parse("OUTPUT: n\nOUTPUT: n & \"!\"\n", "t")
	for _, tt := range []struct{ marker, want string }{{"", "nil\nnil!\n"}, {"null", "null\nnull!\n"}} {
		var out bytes.Buffer
		s := evaluator.NewSession(evaluator.ExecOptions{Stdout: &out, NullMarker: tt.marker})
		s.Env().Define("n", value.NewAbsent())
		if _, err := s.Run(prog); err != nil {
			t.Fatal(err)
		}
		if out.String() != tt.want {
			t.Errorf("marker %q: output = %q, want %q", tt.marker, out.String(), tt.want)
		}
	}
}

func TestReportCallback(t *testing.T) {
	var reported []string
	opts := evaluator.ExecOptions{Report: func(d diagnostics.Diagnostic) { reported = append(reported, d.Code) }}
	r := runWith(t, "VAR a = 1.5 AS INT\nVAR s AS STRING\n", opts)
	if diff := cmp.Diff([]string{diagnostics.EDatatype, diagnostics.EDatatype}, reported); diff != "" {
		t.Errorf("reported mismatch (-want +got):\n%s", diff)
	}
	if len(r.diags) != 2 {
		t.Errorf("result diagnostics = %d, want 2", len(r.diags))
	}
}

func TestNilStdoutDiscards(t *testing.T) {
	prog, _ := parser.Parse("OUTPUT: 1\n", "t")
	if _, err := evaluator.Execute(prog, evaluator.ExecOptions{}); err != nil {
		t.Fatal(err)
	}
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("disk full") }

func TestOutputWriteFailureHalts(t *testing.T) {
	prog, _ := parser.Parse("OUTPUT: 1\n", "t")
	_, err := evaluator.Execute(prog, evaluator.ExecOptions{Stdout: failingWriter{}})
	var re *evaluator.RuntimeError
	if !errors.As(err, &re) || re.Code != diagnostics.EIO {
		t.Fatalf("expected E_IO runtime error, got %v", err)
	}
}

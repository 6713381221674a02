package cli

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/thomasrohde/cfpl/pkg/ast"
	"github.com/thomasrohde/cfpl/pkg/config"
	"github.com/thomasrohde/cfpl/pkg/console"
	"github.com/thomasrohde/cfpl/pkg/diagnostics"
	"github.com/thomasrohde/cfpl/pkg/evaluator"
	"github.com/thomasrohde/cfpl/pkg/formatter"
	"github.com/thomasrohde/cfpl/pkg/help"
	"github.com/thomasrohde/cfpl/pkg/parser"
	"github.com/thomasrohde/cfpl/pkg/runtime"
	"github.com/thomasrohde/cfpl/pkg/token"
)

func isFlag(arg string) bool {
	return strings.HasPrefix(arg, "-") && arg != "-"
}

func (a *App) cmdRun(args []string) int {
	var file, tracePath string
	jsonOutput := false
	noPrompt := false

	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "--json":
			jsonOutput = true
		case "--no-prompt":
			noPrompt = true
		case "--trace":
			if i+1 >= len(args) {
				fmt.Fprintln(a.Stderr, "error: --trace requires a path")
				return exitUsage
			}
			i++
			tracePath = args[i]
		default:
			if !isFlag(args[i]) {
				file = args[i]
			}
		}
	}

	if file == "" {
		fmt.Fprintln(a.Stderr, "usage: cfpl run <file|-> [--json] [--trace <path>] [--no-prompt]")
		return exitUsage
	}

	cfg, ok := a.config()
	if !ok {
		return exitUsage
	}
	pretty := cfg.Pretty && !jsonOutput
	if noPrompt {
		cfg.InputPrompt = ""
	}
	if tracePath == "" {
		tracePath = cfg.Trace
	}

	source, filename, ok := a.readSource(file, pretty)
	if !ok {
		return exitUsage
	}

	reporter := &diagnostics.WriterReporter{W: a.Stderr, Pretty: pretty}
	opts := []runtime.Option{
		runtime.WithConfig(cfg),
		runtime.WithStdout(a.Stdout),
		runtime.WithReporter(reporter),
	}

	// A program read from stdin leaves nothing there for INPUT:.
	if file != "-" {
		if a.stdinTerminal() {
			term := console.NewTerminal("")
			defer term.Close()
			opts = append(opts, runtime.WithInput(term))
		} else {
			opts = append(opts, runtime.WithInput(console.NewReader(a.Stdin)))
		}
	}

	if tracePath != "" {
		tf, err := createTrace(tracePath)
		if err != nil {
			fmt.Fprintf(a.Stderr, "error opening trace file: %s\n", err)
			return exitUsage
		}
		defer func() {
			if err := tf.Close(); err != nil {
				fmt.Fprintf(a.Stderr, "error writing trace file: %s\n", err)
			}
		}()
		opts = append(opts, runtime.WithTrace(tf.Write), runtime.WithRunID(newRunID()))
	}

	result, execErr := runtime.New(opts...).Run(source, filename)

	var diagErr *runtime.DiagnosticError
	var rtErr *evaluator.RuntimeError
	switch {
	case errors.As(execErr, &diagErr):
		diagnostics.ReportAll(reporter, diagErr.Diagnostics)
		return exitSyntax
	case errors.As(execErr, &rtErr):
		reporter.Report(rtErr.Diagnostic())
		return exitHalt
	case execErr != nil:
		fmt.Fprintln(a.Stderr, execErr.Error())
		return exitHalt
	}

	if len(result.Diagnostics) > 0 {
		return exitDiagnostics
	}
	return exitOK
}

func (a *App) cmdCheck(args []string) int {
	var file string
	jsonOutput := false

	for _, arg := range args {
		switch arg {
		case "--json":
			jsonOutput = true
		default:
			if !isFlag(arg) {
				file = arg
			}
		}
	}

	if file == "" {
		fmt.Fprintln(a.Stderr, "usage: cfpl check <file> [--json]")
		return exitUsage
	}

	cfg, ok := a.config()
	if !ok {
		return exitUsage
	}
	pretty := cfg.Pretty && !jsonOutput

	source, filename, ok := a.readSource(file, pretty)
	if !ok {
		return exitUsage
	}

	diags := runtime.New(runtime.WithConfig(cfg)).Check(source, filename)
	if len(diags) > 0 {
		fmt.Fprintln(a.Stderr, diagnostics.FormatDiagnostics(diags, pretty))
		for _, d := range diags {
			if d.Code == diagnostics.ELex || d.Code == diagnostics.EParse {
				return exitSyntax
			}
		}
		return exitDiagnostics
	}

	if pretty {
		fmt.Fprintln(a.Stdout, "No errors found.")
	} else {
		fmt.Fprintln(a.Stdout, "[]")
	}
	return exitOK
}

func (a *App) cmdFmt(args []string) int {
	var file string
	write := false

	for _, arg := range args {
		switch arg {
		case "--write":
			write = true
		default:
			if !isFlag(arg) {
				file = arg
			}
		}
	}

	if file == "" || (write && file == "-") {
		fmt.Fprintln(a.Stderr, "usage: cfpl fmt <file> [--write]")
		return exitUsage
	}

	source, filename, ok := a.readSource(file, true)
	if !ok {
		return exitUsage
	}

	formatted, fmtErr := runtime.New().Format(source, filename)
	if fmtErr != nil {
		var diagErr *runtime.DiagnosticError
		if errors.As(fmtErr, &diagErr) {
			fmt.Fprintln(a.Stderr, diagnostics.FormatDiagnostics(diagErr.Diagnostics, true))
			return exitSyntax
		}
		fmt.Fprintln(a.Stderr, fmtErr.Error())
		return exitSyntax
	}

	if formatter.HasComments(source) {
		fmt.Fprintln(a.Stderr, "warning: comments are not preserved by the formatter")
	}

	if write {
		if err := os.WriteFile(file, []byte(formatted), 0644); err != nil {
			fmt.Fprintf(a.Stderr, "error writing file: %s\n", err)
			return exitUsage
		}
		return exitOK
	}
	fmt.Fprint(a.Stdout, formatted)
	return exitOK
}

func (a *App) cmdTokens(args []string) int {
	var file string
	tree := false

	for _, arg := range args {
		switch arg {
		case "--tree":
			tree = true
		default:
			if !isFlag(arg) {
				file = arg
			}
		}
	}

	if file == "" {
		fmt.Fprintln(a.Stderr, "usage: cfpl tokens <file> [--tree]")
		return exitUsage
	}

	source, filename, ok := a.readSource(file, true)
	if !ok {
		return exitUsage
	}

	var diags []diagnostics.Diagnostic
	if tree {
		var program *ast.Program
		program, diags = parser.Parse(source, filename)
		for _, stmt := range program.Statements {
			fmt.Fprintln(a.Stdout, ast.Sexpr(stmt))
		}
	} else {
		var toks []token.Token
		toks, diags = runtime.New().Tokens(source, filename)
		for _, tok := range toks {
			fmt.Fprintf(a.Stdout, "%d:%d\t%s\n", tok.Span.StartLine, tok.Span.StartCol, tok)
		}
	}

	if len(diags) > 0 {
		fmt.Fprintln(a.Stderr, diagnostics.FormatDiagnostics(diags, true))
		return exitSyntax
	}
	return exitOK
}

func (a *App) cmdHelp(args []string) int {
	keywords := false
	topic := ""
	for _, arg := range args {
		if arg == "--keywords" {
			keywords = true
		} else if !isFlag(arg) {
			topic = arg
		}
	}

	if keywords {
		fmt.Fprint(a.Stdout, help.KeywordIndex())
		return exitOK
	}

	if topic == "" {
		fmt.Fprint(a.Stdout, help.QUICKREF)
		return exitOK
	}

	_, content, err := help.MatchTopic(topic)
	if err != nil {
		fmt.Fprintf(a.Stderr, "%s\nAvailable topics: %s\n", err, strings.Join(help.TopicList, ", "))
		return exitUsage
	}
	fmt.Fprint(a.Stdout, content)
	return exitOK
}

func (a *App) cmdConfig(args []string) int {
	cfg, ok := a.config()
	if !ok {
		return exitUsage
	}
	if cfg.Source != "" {
		fmt.Fprintf(a.Stdout, "# %s\n", cfg.Source)
	} else {
		fmt.Fprintln(a.Stdout, "# built-in defaults")
	}
	if err := config.Write(a.Stdout, cfg); err != nil {
		fmt.Fprintf(a.Stderr, "error writing configuration: %s\n", err)
		return exitUsage
	}
	return exitOK
}

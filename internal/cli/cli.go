// Package cli implements the cfpl command line.
package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/thomasrohde/cfpl/pkg/config"
	"github.com/thomasrohde/cfpl/pkg/console"
	"github.com/thomasrohde/cfpl/pkg/diagnostics"
)

// Exit codes.
const (
	exitOK          = 0
	exitUsage       = 1 // bad arguments, unreadable files or configuration
	exitSyntax      = 2 // lexical or syntax errors; nothing ran
	exitDiagnostics = 3 // finished, but problems were reported
	exitHalt        = 4 // stopped by a runtime error
)

const usage = `usage: cfpl <command> [options]

commands:
  run <file|-> [--json] [--trace <path>] [--no-prompt]
  check <file> [--json]
  fmt <file> [--write]
  tokens <file> [--tree]
  repl
  trace <file.jsonl> [--json|--text]
  help [topic] [--keywords]
  config
`

// App is one invocation of the command line with its streams.
type App struct {
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer

	// LoadConfig returns the effective configuration.
	LoadConfig func() (*config.Config, error)
}

// New returns an App bound to the process streams and the configuration
// found from the working directory.
func New() *App {
	return &App{
		Stdin:      os.Stdin,
		Stdout:     os.Stdout,
		Stderr:     os.Stderr,
		LoadConfig: loadWorkingConfig,
	}
}

func loadWorkingConfig() (*config.Config, error) {
	cwd, err := os.Getwd()
	if err != nil {
		cwd = "."
	}
	return config.Load(cwd)
}

// Run executes the command named by args[0] and returns the exit code.
func (a *App) Run(args []string) int {
	if len(args) < 1 {
		fmt.Fprint(a.Stderr, usage)
		return exitUsage
	}

	cmd, rest := args[0], args[1:]
	switch cmd {
	case "run":
		return a.cmdRun(rest)
	case "check":
		return a.cmdCheck(rest)
	case "fmt":
		return a.cmdFmt(rest)
	case "tokens":
		return a.cmdTokens(rest)
	case "repl":
		return a.cmdRepl(rest)
	case "trace":
		return a.cmdTrace(rest)
	case "help", "--help", "-h":
		return a.cmdHelp(rest)
	case "config":
		return a.cmdConfig(rest)
	default:
		fmt.Fprintf(a.Stderr, "Unknown command: %s\n", cmd)
		fmt.Fprint(a.Stderr, usage)
		return exitUsage
	}
}

// config loads the configuration, reporting a broken file as E_CONFIG.
func (a *App) config() (*config.Config, bool) {
	cfg, err := a.LoadConfig()
	if err != nil {
		d := diagnostics.MakeDiag(diagnostics.EConfig, err.Error(), nil, "")
		fmt.Fprintln(a.Stderr, diagnostics.FormatDiagnostic(d, true))
		return nil, false
	}
	return cfg, true
}

// readSource reads a program from file, or from stdin when file is "-".
func (a *App) readSource(file string, pretty bool) (source, filename string, ok bool) {
	if file == "-" {
		data, err := io.ReadAll(a.Stdin)
		if err != nil {
			fmt.Fprintf(a.Stderr, "error reading stdin: %s\n", err)
			return "", "", false
		}
		return string(data), "<stdin>", true
	}

	data, err := os.ReadFile(file)
	if err != nil {
		diag := diagnostics.MakeDiag(diagnostics.EIO, fmt.Sprintf("cannot read file: %s", file), nil, "")
		fmt.Fprintln(a.Stderr, diagnostics.FormatDiagnostics([]diagnostics.Diagnostic{diag}, pretty))
		return "", "", false
	}
	return string(data), file, true
}

// stdinTerminal returns stdin as a file when it is an interactive terminal.
func (a *App) stdinTerminal() bool {
	f, ok := a.Stdin.(*os.File)
	return ok && console.IsTerminal(f)
}

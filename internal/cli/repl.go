package cli

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/thomasrohde/cfpl/pkg/config"
	"github.com/thomasrohde/cfpl/pkg/console"
	"github.com/thomasrohde/cfpl/pkg/diagnostics"
	"github.com/thomasrohde/cfpl/pkg/evaluator"
	"github.com/thomasrohde/cfpl/pkg/help"
	"github.com/thomasrohde/cfpl/pkg/parser"
	"github.com/thomasrohde/cfpl/pkg/runtime"
	"github.com/thomasrohde/cfpl/pkg/value"
)

const (
	replPrompt   = "cfpl> "
	replContinue = "...   "
	replFile     = "<repl>"
)

const replHelp = `:vars   list variables
:help   show the language quick reference
:quit   leave (Ctrl-D also works)
`

// linePrompter reads lines from a non-interactive stream; prompts are not
// shown because nobody is there to see them.
type linePrompter struct {
	r *console.Reader
}

func (p linePrompter) Prompt(string) (string, error) {
	return p.r.ReadLine()
}

func incomplete(src string) bool {
	_, diags := parser.Parse(src, replFile)
	return parser.Incomplete(diags)
}

func (a *App) cmdRepl(args []string) int {
	cfg, ok := a.config()
	if !ok {
		return exitUsage
	}

	var prompter console.Prompter
	var input evaluator.LineReader
	var term *console.Terminal
	if a.stdinTerminal() {
		home, _ := os.UserHomeDir()
		term = console.NewTerminal(cfg.HistoryPath(home))
		defer term.Close()
		prompter, input = term, term
		fmt.Fprintln(a.Stdout, "CFPL REPL. :help for commands, :quit to exit.")
	} else {
		r := console.NewReader(a.Stdin)
		prompter, input = linePrompter{r: r}, r
	}

	reporter := &diagnostics.WriterReporter{W: a.Stderr, Pretty: cfg.Pretty}
	rt := runtime.New(
		runtime.WithConfig(cfg),
		runtime.WithStdout(a.Stdout),
		runtime.WithInput(input),
		runtime.WithReporter(reporter),
		runtime.WithRunID("repl"),
	)
	session := rt.NewSession()

	for {
		src, ok := console.ReadChunk(prompter, replPrompt, replContinue, incomplete)
		if !ok {
			return exitOK
		}
		if term != nil {
			term.AppendHistory(src)
		}

		switch strings.TrimSpace(src) {
		case "":
			continue
		case ":quit", ":q":
			return exitOK
		case ":vars":
			a.printVars(session, cfg)
			continue
		case ":help":
			fmt.Fprint(a.Stdout, replHelp)
			fmt.Fprint(a.Stdout, help.QUICKREF)
			continue
		}

		program, diags := parser.Parse(src, replFile)
		if len(diags) > 0 {
			diagnostics.ReportAll(reporter, diags)
			continue
		}
		if _, err := session.Run(program); err != nil {
			var rtErr *evaluator.RuntimeError
			if errors.As(err, &rtErr) {
				reporter.Report(rtErr.Diagnostic())
			} else {
				fmt.Fprintln(a.Stderr, err.Error())
			}
		}
	}
}

func (a *App) printVars(session *evaluator.Session, cfg *config.Config) {
	names := session.Env().Names()
	sort.Strings(names)
	for _, name := range names {
		v, _ := session.Env().Lookup(name)
		text := v.String()
		if value.KindOf(v) == value.KindAbsent {
			text = cfg.NullMarker
		}
		fmt.Fprintf(a.Stdout, "%s = %s (%s)\n", name, text, value.KindOf(v))
	}
}

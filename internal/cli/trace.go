package cli

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/thomasrohde/cfpl/pkg/diagnostics"
	"github.com/thomasrohde/cfpl/pkg/evaluator"
)

// traceFile writes trace events as NDJSON. The first write error is kept
// and returned by Close.
type traceFile struct {
	f   *os.File
	enc *json.Encoder
	err error
}

func createTrace(path string) (*traceFile, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	return &traceFile{f: f, enc: json.NewEncoder(f)}, nil
}

func (t *traceFile) Write(event evaluator.TraceEvent) {
	if t.err == nil {
		t.err = t.enc.Encode(event)
	}
}

func (t *traceFile) Close() error {
	closeErr := t.f.Close()
	if t.err != nil {
		return t.err
	}
	return closeErr
}

func newRunID() string {
	return fmt.Sprintf("run-%d", time.Now().UnixNano())
}

func (a *App) cmdTrace(args []string) int {
	var file string
	textOutput := false

	for _, arg := range args {
		switch arg {
		case "--json":
			textOutput = false
		case "--text":
			textOutput = true
		default:
			if !isFlag(arg) {
				file = arg
			}
		}
	}

	if file == "" {
		fmt.Fprintln(a.Stderr, "usage: cfpl trace <file.jsonl> [--json|--text]")
		return exitUsage
	}

	f, err := os.Open(file)
	if err != nil {
		diag := diagnostics.MakeDiag(diagnostics.EIO, fmt.Sprintf("cannot read file: %s", file), nil, "")
		fmt.Fprintln(a.Stderr, diagnostics.FormatDiagnostics([]diagnostics.Diagnostic{diag}, false))
		return exitUsage
	}
	defer f.Close()

	summary, err := computeTraceSummary(f)
	if err != nil {
		fmt.Fprintf(a.Stderr, "error reading trace: %s\n", err)
		return exitUsage
	}

	if textOutput {
		printTraceSummaryText(a.Stdout, summary)
	} else {
		b, _ := json.Marshal(summary)
		fmt.Fprintln(a.Stdout, string(b))
	}
	return exitOK
}

// TraceSummary condenses one NDJSON trace.
type TraceSummary struct {
	RunID         string         `json:"runId"`
	TotalEvents   int            `json:"totalEvents"`
	Statements    int            `json:"statements"`
	StmtsByKind   map[string]int `json:"stmtsByKind"`
	Outputs       int            `json:"outputs"`
	Inputs        int            `json:"inputs"`
	Assignments   int            `json:"assignments"`
	MaxBlockDepth int            `json:"maxBlockDepth"`
	Halted        bool           `json:"halted"`
	HaltCode      string         `json:"haltCode,omitempty"`
	StartTime     string         `json:"startTime,omitempty"`
	EndTime       string         `json:"endTime,omitempty"`
	DurationMs    float64        `json:"durationMs"`
}

type traceEvent struct {
	Event string         `json:"event"`
	RunID string         `json:"runId"`
	TS    string         `json:"ts"`
	Data  map[string]any `json:"data,omitempty"`
}

func computeTraceSummary(r io.Reader) (*TraceSummary, error) {
	summary := &TraceSummary{
		StmtsByKind: make(map[string]int),
	}
	depth := 0

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		var event traceEvent
		if err := json.Unmarshal([]byte(line), &event); err != nil {
			continue // skip invalid lines
		}

		summary.TotalEvents++
		if summary.RunID == "" {
			summary.RunID = event.RunID
		}

		switch evaluator.TraceEventType(event.Event) {
		case evaluator.TraceRunStart:
			if summary.StartTime == "" {
				summary.StartTime = event.TS
			}
		case evaluator.TraceRunEnd:
			summary.EndTime = event.TS
		case evaluator.TraceStmtStart:
			summary.Statements++
			if kind, ok := event.Data["kind"].(string); ok {
				summary.StmtsByKind[kind]++
			}
		case evaluator.TraceOutput:
			summary.Outputs++
		case evaluator.TraceInput:
			summary.Inputs++
		case evaluator.TraceDefine, evaluator.TraceAssign:
			summary.Assignments++
		case evaluator.TraceBlockEnter:
			depth++
			if depth > summary.MaxBlockDepth {
				summary.MaxBlockDepth = depth
			}
		case evaluator.TraceBlockExit:
			depth--
		case evaluator.TraceHalt:
			summary.Halted = true
			if code, ok := event.Data["code"].(string); ok {
				summary.HaltCode = code
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	if summary.StartTime != "" && summary.EndTime != "" {
		start, err1 := time.Parse(time.RFC3339Nano, summary.StartTime)
		end, err2 := time.Parse(time.RFC3339Nano, summary.EndTime)
		if err1 == nil && err2 == nil {
			summary.DurationMs = float64(end.Sub(start).Microseconds()) / 1000
		}
	}
	return summary, nil
}

func printTraceSummaryText(w io.Writer, s *TraceSummary) {
	fmt.Fprintf(w, "Run: %s\n", s.RunID)
	fmt.Fprintf(w, "Events: %d\n", s.TotalEvents)
	fmt.Fprintf(w, "Statements: %d\n", s.Statements)
	kinds := make([]string, 0, len(s.StmtsByKind))
	for kind := range s.StmtsByKind {
		kinds = append(kinds, kind)
	}
	sort.Strings(kinds)
	for _, kind := range kinds {
		fmt.Fprintf(w, "  %s: %d\n", kind, s.StmtsByKind[kind])
	}
	fmt.Fprintf(w, "Outputs: %d, inputs: %d, assignments: %d\n", s.Outputs, s.Inputs, s.Assignments)
	fmt.Fprintf(w, "Max block depth: %d\n", s.MaxBlockDepth)
	if s.Halted {
		fmt.Fprintf(w, "Halted: %s\n", s.HaltCode)
	}
	if s.DurationMs > 0 {
		fmt.Fprintf(w, "Duration: %.3fms\n", s.DurationMs)
	}
}

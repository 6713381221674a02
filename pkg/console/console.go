// Package console provides the line readers behind INPUT: and the REPL.
package console

import (
	"bufio"
	"errors"
	"io"
	"os"
	"strings"

	"github.com/peterh/liner"
	"golang.org/x/term"
)

// Reader reads newline-terminated lines from a stream.
type Reader struct {
	r *bufio.Reader
}

// NewReader wraps r for line reads.
func NewReader(r io.Reader) *Reader {
	return &Reader{r: bufio.NewReader(r)}
}

// ReadLine returns the next line without its line ending. A final line
// without a newline is returned as is; after that ReadLine returns io.EOF.
func (r *Reader) ReadLine() (string, error) {
	line, err := r.r.ReadString('\n')
	if err != nil {
		if errors.Is(err, io.EOF) && line != "" {
			return strings.TrimRight(line, "\r"), nil
		}
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// Prompter asks for one line of input after showing a prompt.
type Prompter interface {
	Prompt(prompt string) (string, error)
}

// Terminal is an interactive line editor with history.
type Terminal struct {
	state       *liner.State
	historyPath string
	prompt      string
}

// NewTerminal puts the terminal into line-editing mode and loads history
// from historyPath when it is set. Close must be called to restore it.
func NewTerminal(historyPath string) *Terminal {
	state := liner.NewLiner()
	state.SetCtrlCAborts(true)
	t := &Terminal{state: state, historyPath: historyPath}
	if historyPath != "" {
		if f, err := os.Open(historyPath); err == nil {
			_, _ = state.ReadHistory(f)
			_ = f.Close()
		}
	}
	return t
}

// SetPrompt sets the prompt ReadLine shows.
func (t *Terminal) SetPrompt(prompt string) {
	t.prompt = prompt
}

// Prompt reads a line after showing prompt. Ctrl-C and Ctrl-D both end
// input with io.EOF.
func (t *Terminal) Prompt(prompt string) (string, error) {
	line, err := t.state.Prompt(prompt)
	if errors.Is(err, liner.ErrPromptAborted) {
		return "", io.EOF
	}
	return line, err
}

// ReadLine reads a line with the current prompt.
func (t *Terminal) ReadLine() (string, error) {
	return t.Prompt(t.prompt)
}

// AppendHistory records an entry, flattening multi-line input onto one line.
func (t *Terminal) AppendHistory(entry string) {
	entry = strings.TrimSpace(entry)
	if entry != "" {
		t.state.AppendHistory(strings.ReplaceAll(entry, "\n", " "))
	}
}

// Close saves history and restores the terminal.
func (t *Terminal) Close() error {
	if t.historyPath != "" {
		if f, err := os.Create(t.historyPath); err == nil {
			_, _ = t.state.WriteHistory(f)
			_ = f.Close()
		}
	}
	return t.state.Close()
}

// IsTerminal reports whether f is an interactive terminal.
func IsTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// ReadChunk collects lines from p until incomplete reports that the text so
// far forms whole statements. The first line uses prompt and continuation
// lines use cont. ok is false once input ends with nothing collected.
func ReadChunk(p Prompter, prompt, cont string, incomplete func(src string) bool) (src string, ok bool) {
	var b strings.Builder
	for {
		current := prompt
		if b.Len() > 0 {
			current = cont
		}
		line, err := p.Prompt(current)
		if err != nil {
			// Whatever was collected is still handed back so the caller
			// can report why it was incomplete.
			return b.String(), b.Len() > 0
		}

		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(line)

		text := b.String()
		if strings.TrimSpace(text) == "" {
			return text, true
		}
		if !incomplete(text) {
			return text, true
		}
	}
}

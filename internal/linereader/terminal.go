package linereader

import (
	"errors"
	"fmt"
	"io"
	"os"

	"golang.org/x/term"
)

// Terminal reads lines from an interactive terminal with line editing.
// Only lines passed to Record are recallable.
type Terminal struct {
	in      *os.File
	term    *term.Terminal
	history *History
}

// NewTerminal creates a Terminal reading from in and echoing to out
func NewTerminal(in *os.File, out io.Writer, historySize int) *Terminal {
	h := NewHistory(historySize)
	t := newLineEditor(struct {
		io.Reader
		io.Writer
	}{in, out}, h)
	return &Terminal{in: in, term: t, history: h}
}

// newLineEditor creates a line editor that recalls from h but never adds to
// it; entries reach h only through Record.
func newLineEditor(rw io.ReadWriter, h *History) *term.Terminal {
	t := term.NewTerminal(rw, "")
	t.History = recallOnly{h}
	return t
}

// recallOnly exposes a History to term.Terminal, which adds every line it
// reads. Add is dropped.
type recallOnly struct {
	*History
}

func (recallOnly) Add(string) {}

// SetPrompt sets the prompt shown by the next ReadLine
func (t *Terminal) SetPrompt(prompt string) {
	t.term.SetPrompt(prompt)
}

// Record adds line to the recall history
func (t *Terminal) Record(line string) {
	t.history.Add(line)
}

// ReadLine puts the terminal in raw mode for the duration of one line.
func (t *Terminal) ReadLine() (string, error) {
	fd := int(t.in.Fd())
	state, err := term.MakeRaw(fd)
	if err != nil {
		return "", fmt.Errorf("entering raw mode: %w", err)
	}
	defer term.Restore(fd, state)

	line, err := t.term.ReadLine()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return "", io.EOF
		}
		if errors.Is(err, term.ErrPasteIndicator) {
			return line, nil
		}
		return "", fmt.Errorf("%w: %v", ErrInterrupted, err)
	}
	return line, nil
}

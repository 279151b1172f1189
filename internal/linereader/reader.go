// Package linereader supplies raw input lines to the REPL, with editing and
// recall history when attached to a terminal.
package linereader

import (
	"errors"
	"io"
	"os"

	"golang.org/x/term"
)

// ErrInterrupted is returned when the user interrupts the read
var ErrInterrupted = errors.New("interrupted")

// Reader yields raw text lines.
// ReadLine returns io.EOF at end of input and ErrInterrupted on interrupt.
type Reader interface {
	ReadLine() (string, error)
	SetPrompt(prompt string)
	Record(line string)
}

// Options configures New
type Options struct {
	// HistorySize bounds the recall history of a terminal reader
	HistorySize int
	// Echo makes a non-terminal reader print the prompt and the line read
	Echo bool
}

// New returns a Terminal reader when in is a terminal, otherwise a Scanner.
func New(in *os.File, out io.Writer, opts Options) Reader {
	if term.IsTerminal(int(in.Fd())) {
		return NewTerminal(in, out, opts.HistorySize)
	}
	s := NewScanner(in)
	if opts.Echo {
		s.Echo(out)
	}
	return s
}

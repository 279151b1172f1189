package linereader

import (
	"bufio"
	"fmt"
	"io"
)

const maxLineSize = 1024 * 1024

// Scanner reads lines from a non-interactive source such as a pipe or a
// script file. Record is a no-op.
type Scanner struct {
	scanner *bufio.Scanner
	prompt  string
	echo    io.Writer
}

// NewScanner creates a Scanner over r
func NewScanner(r io.Reader) *Scanner {
	s := bufio.NewScanner(r)
	s.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	return &Scanner{scanner: s}
}

// Echo writes the prompt and each line read to w, so transcripts of
// scripted sessions read like interactive ones.
func (s *Scanner) Echo(w io.Writer) {
	s.echo = w
}

// SetPrompt sets the prompt used when echoing
func (s *Scanner) SetPrompt(prompt string) {
	s.prompt = prompt
}

// Record implements Reader
func (s *Scanner) Record(string) {}

// ReadLine returns the next line without its terminator
func (s *Scanner) ReadLine() (string, error) {
	if !s.scanner.Scan() {
		if err := s.scanner.Err(); err != nil {
			return "", fmt.Errorf("reading input: %w", err)
		}
		return "", io.EOF
	}
	line := s.scanner.Text()
	if s.echo != nil {
		fmt.Fprintf(s.echo, "%s%s\n", s.prompt, line)
	}
	return line, nil
}

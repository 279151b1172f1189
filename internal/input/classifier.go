package input

import (
	"strconv"
	"strings"
)

// Markers recognized at the start (or end) of a raw line
const (
	MetaMarker     = "%"
	DeleteMarker   = 'd'
	ValueMarker    = ":"
	BlockOpen      = "{{"
	BlockClose     = "}}"
	TrailingMarker = `\`
)

// Default prompts
const (
	DefaultPrompt             = ">> "
	DefaultContinuationPrompt = ">>> "
)

// Style is how an open continuation is terminated
type Style int

const (
	// StyleBlock ends at a line starting with "}}"
	StyleBlock Style = iota
	// StyleTrailing ends at the first line without a trailing "\"
	StyleTrailing
)

// Continuation is a logical input spanning several raw lines
type Continuation struct {
	// Kind is PrintValue or AddExpression, fixed when the buffer opens
	Kind  Kind
	Style Style
	lines []string
}

// Text returns the accumulated sub-lines joined with line breaks
func (c *Continuation) Text() string {
	return strings.Join(c.lines, "\n")
}

// Lines returns the number of accumulated sub-lines
func (c *Continuation) Lines() int {
	return len(c.lines)
}

func (c *Continuation) add(line string) {
	c.lines = append(c.lines, line)
}

func (c *Continuation) resolve() Command {
	text := c.Text()
	if strings.TrimSpace(text) == "" {
		return Command{Kind: Nothing}
	}
	return Command{Kind: c.Kind, Text: text}
}

// Recorder receives accepted input for recall history
type Recorder interface {
	Record(line string)
}

// Classifier turns raw lines into commands, holding continuation state
// between calls.
type Classifier struct {
	history            Recorder
	pending            *Continuation
	prompt             string
	continuationPrompt string
}

// Option configures a Classifier
type Option func(*Classifier)

// WithPrompts overrides the primary and continuation prompts
func WithPrompts(prompt, continuation string) Option {
	return func(c *Classifier) {
		if prompt != "" {
			c.prompt = prompt
		}
		if continuation != "" {
			c.continuationPrompt = continuation
		}
	}
}

// NewClassifier creates a Classifier. history may be nil.
func NewClassifier(history Recorder, opts ...Option) *Classifier {
	c := &Classifier{
		history:            history,
		prompt:             DefaultPrompt,
		continuationPrompt: DefaultContinuationPrompt,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Prompt returns the prompt for the next line
func (c *Classifier) Prompt() string {
	if c.pending != nil {
		return c.continuationPrompt
	}
	return c.prompt
}

// Pending returns the open continuation, if any
func (c *Classifier) Pending() (*Continuation, bool) {
	return c.pending, c.pending != nil
}

// Reset discards an open continuation
func (c *Classifier) Reset() {
	c.pending = nil
}

// Classify returns the command for one raw input line. Exactly one command
// is produced per line; while a continuation is open every line yields
// Nothing until the terminator is seen.
func (c *Classifier) Classify(line string) Command {
	line = strings.TrimRight(line, "\r\n")

	if c.pending != nil {
		return c.absorb(line)
	}

	switch {
	case strings.HasPrefix(line, MetaMarker):
		return c.meta(line)

	case strings.HasPrefix(line, ValueMarker) && len(line) > len(ValueMarker):
		rest := line[len(ValueMarker):]
		if strings.HasPrefix(rest, BlockOpen) {
			c.open(PrintValue, StyleBlock, rest[len(BlockOpen):])
			return Command{Kind: Nothing}
		}
		if body, ok := cutTrailing(rest); ok {
			c.open(PrintValue, StyleTrailing, body)
			return Command{Kind: Nothing}
		}
		return c.accept(Value(rest), line)

	case strings.HasPrefix(line, BlockOpen):
		c.open(AddExpression, StyleBlock, line[len(BlockOpen):])
		return Command{Kind: Nothing}

	case strings.TrimSpace(line) == "":
		return Command{Kind: Nothing}
	}

	if body, ok := cutTrailing(line); ok {
		c.open(AddExpression, StyleTrailing, body)
		return Command{Kind: Nothing}
	}
	return c.accept(Statement(line), line)
}

// meta handles lines starting with the meta marker. "%d N" deletes, any
// other "%" line shows the source. A bad delete argument is ignored.
func (c *Classifier) meta(line string) Command {
	rest := line[len(MetaMarker):]
	if len(rest) > 0 && rest[0] == DeleteMarker {
		fields := strings.Fields(line)
		if len(fields) < 2 {
			return Command{Kind: Nothing}
		}
		n, err := strconv.Atoi(fields[1])
		if err != nil || n < 1 {
			return Command{Kind: Nothing}
		}
		return c.accept(Command{Kind: RemoveLines, N: n}, line)
	}
	return c.accept(Command{Kind: PrintCode}, line)
}

func (c *Classifier) absorb(line string) Command {
	p := c.pending
	switch p.Style {
	case StyleBlock:
		trimmed := strings.TrimSpace(line)
		if !strings.HasPrefix(trimmed, BlockClose) {
			p.add(line)
			return Command{Kind: Nothing}
		}
		if tail := strings.TrimSpace(trimmed[len(BlockClose):]); tail != "" {
			p.add(tail)
		}
	case StyleTrailing:
		if body, ok := cutTrailing(line); ok {
			p.add(body)
			return Command{Kind: Nothing}
		}
		p.add(line)
	}

	c.pending = nil
	cmd := p.resolve()
	if cmd.Kind == Nothing {
		return cmd
	}
	return c.accept(cmd, cmd.Text)
}

func (c *Classifier) open(kind Kind, style Style, first string) {
	c.pending = &Continuation{Kind: kind, Style: style}
	if strings.TrimSpace(first) != "" || style == StyleTrailing {
		c.pending.add(first)
	}
}

func (c *Classifier) accept(cmd Command, raw string) Command {
	if c.history != nil && strings.TrimSpace(raw) != "" {
		c.history.Record(raw)
	}
	return cmd
}

// cutTrailing strips a trailing continuation marker
func cutTrailing(line string) (string, bool) {
	trimmed := strings.TrimRight(line, " \t")
	if !strings.HasSuffix(trimmed, TrailingMarker) {
		return line, false
	}
	return strings.TrimSuffix(trimmed, TrailingMarker), true
}

// Package input turns raw REPL lines into commands.
//
// A Classifier recognizes meta-commands (show source, delete lines), value
// probes, plain statements and multi-line continuations. It holds at most one
// open continuation at a time and records accepted input into the line
// reader's recall history.
package input

import "fmt"

// Kind identifies the variant of a Command
type Kind int

const (
	// Nothing is a no-op: blank input, malformed meta-commands and lines
	// absorbed into an open continuation.
	Nothing Kind = iota
	// PrintValue evaluates an expression and prints its representation
	PrintValue
	// AddExpression appends a statement verbatim
	AddExpression
	// PrintCode shows the generated program and any pending continuation
	PrintCode
	// RemoveLines truncates the program to its first N-1 units
	RemoveLines
	// Exit ends the session
	Exit
)

// String returns the lower-case name of the kind
func (k Kind) String() string {
	switch k {
	case Nothing:
		return "nothing"
	case PrintValue:
		return "print-value"
	case AddExpression:
		return "add-expression"
	case PrintCode:
		return "print-code"
	case RemoveLines:
		return "remove-lines"
	case Exit:
		return "exit"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Command is a classified input line.
// Text is set for PrintValue and AddExpression, N for RemoveLines.
type Command struct {
	Kind Kind
	Text string
	N    int
}

// Appendable reports whether the command adds a unit to the program
func (c Command) Appendable() bool {
	return c.Kind == PrintValue || c.Kind == AddExpression
}

// Value returns a PrintValue command for expr
func Value(expr string) Command {
	return Command{Kind: PrintValue, Text: expr}
}

// Statement returns an AddExpression command for stmt
func Statement(stmt string) Command {
	return Command{Kind: AddExpression, Text: stmt}
}

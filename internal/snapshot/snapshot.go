// Package snapshot holds the accumulated REPL program as an immutable value.
//
// Every accepted input becomes one committed unit of generated Go source.
// Appending and truncating return new Programs, so a candidate that fails to
// compile or run is simply dropped and the previous Program stays intact.
//
// The whole program is replayed from the start on every run. Probe units are
// guarded by a runtime counter compared against the number of units, so only
// the newest probe prints:
//
//	func main() {
//		const _unitCount = 2
//		_currentUnit := 0
//		_ = _currentUnit
//
//		x := 5
//		;
//		_ = x
//		_currentUnit++
//
//		if _currentUnit == _unitCount-1 {
//			fmt.Println(x)
//		}
//		_currentUnit++
//	}
package snapshot

import (
	"fmt"
	"slices"
	"strings"

	"github.com/itsmostafa/gorepl/internal/gosrc"
	"github.com/itsmostafa/gorepl/internal/input"
)

const (
	counterName = "_currentUnit"
	countName   = "_unitCount"
)

// Unit is one committed input and the source generated for it
type Unit struct {
	Command input.Command
	Source  string
}

// Program is an ordered, immutable sequence of committed units.
// The zero value is the empty program.
type Program struct {
	units []Unit
}

// Empty returns a program with no units
func Empty() Program {
	return Program{}
}

// Count returns the number of committed units
func (p Program) Count() int {
	return len(p.units)
}

// Units returns a copy of the committed units in order
func (p Program) Units() []Unit {
	return slices.Clone(p.units)
}

// Append returns a new program with cmd added as the last unit.
// Only PrintValue and AddExpression can be appended; any other kind is a
// programming error and panics.
func (p Program) Append(cmd input.Command) Program {
	unit := Unit{Command: cmd, Source: generate(cmd)}

	units := make([]Unit, len(p.units), len(p.units)+1)
	copy(units, p.units)
	return Program{units: append(units, unit)}
}

// Truncate returns a program holding the first n-1 units.
// n < 1 returns p unchanged; n past the end keeps every unit.
func (p Program) Truncate(n int) Program {
	if n < 1 {
		return p
	}
	keep := min(n-1, len(p.units))
	return Program{units: slices.Clone(p.units[:keep])}
}

// Render returns the complete Go program for the committed units
func (p Program) Render() string {
	var b strings.Builder

	b.WriteString("package main\n\n")
	if p.hasProbe() {
		b.WriteString("import \"fmt\"\n\n")
	}
	b.WriteString("func main() {\n")
	fmt.Fprintf(&b, "\tconst %s = %d\n", countName, len(p.units))
	fmt.Fprintf(&b, "\t%s := 0\n", counterName)
	fmt.Fprintf(&b, "\t_ = %s\n", counterName)

	for _, u := range p.units {
		b.WriteString("\n")
		writeUnit(&b, u.Source)
	}
	b.WriteString("}\n")
	return b.String()
}

func (p Program) hasProbe() bool {
	for _, u := range p.units {
		if u.Command.Kind == input.PrintValue {
			return true
		}
	}
	return false
}

// writeUnit indents a unit one level. Units containing raw strings are
// written as-is so their contents are preserved.
func writeUnit(b *strings.Builder, src string) {
	if strings.Contains(src, "`") {
		b.WriteString(src)
		return
	}
	for _, line := range strings.SplitAfter(src, "\n") {
		if strings.TrimSpace(line) == "" {
			b.WriteString(line)
			continue
		}
		b.WriteString("\t")
		b.WriteString(line)
	}
}

func generate(cmd input.Command) string {
	var b strings.Builder
	switch cmd.Kind {
	case input.AddExpression:
		// the terminator keeps a dangling operator from joining the
		// generated lines below
		b.WriteString(cmd.Text)
		b.WriteString("\n;\n")
		for _, name := range gosrc.DeclaredNames(cmd.Text) {
			fmt.Fprintf(&b, "_ = %s\n", name)
		}
	case input.PrintValue:
		fmt.Fprintf(&b, "if %s == %s-1 {\n", counterName, countName)
		fmt.Fprintf(&b, "\tfmt.Println(%s)\n", gosrc.TrimTrailingComment(cmd.Text))
		b.WriteString("}\n")
	default:
		panic(fmt.Sprintf("snapshot: unreachable: cannot append %s command", cmd.Kind))
	}
	fmt.Fprintf(&b, "%s++\n", counterName)
	return b.String()
}

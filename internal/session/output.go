package session

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/itsmostafa/gorepl/internal/input"
)

// Line prefixes that tell results and errors apart
const (
	ResultPrefix = "= "
	ErrorPrefix  = "ERR "
)

// Output renders session reports to a writer
type Output struct {
	w io.Writer

	// resultStyle for the "= " marker
	resultStyle lipgloss.Style
	// errorStyle for the "ERR " marker
	errorStyle lipgloss.Style
	// dimStyle for muted notices
	dimStyle lipgloss.Style
	// titleStyle for section headers
	titleStyle lipgloss.Style
	// headerBoxStyle for the startup banner
	headerBoxStyle lipgloss.Style
}

// NewOutput creates an Output. Colors are used only when color is true and
// w is a terminal.
func NewOutput(w io.Writer, color bool) *Output {
	r := lipgloss.NewRenderer(w)
	if !color {
		r.SetColorProfile(termenv.Ascii)
	}
	return &Output{
		w: w,
		resultStyle: r.NewStyle().
			Foreground(lipgloss.Color("42")),
		errorStyle: r.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("196")),
		dimStyle: r.NewStyle().
			Foreground(lipgloss.Color("240")),
		titleStyle: r.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("81")),
		headerBoxStyle: r.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("81")).
			Padding(0, 1),
	}
}

// Result writes each line of program output with the result prefix.
// Empty output writes nothing.
func (o *Output) Result(text string) {
	o.prefixed(o.marker(o.resultStyle, ResultPrefix), text)
}

// Error writes each line of a diagnostic with the error prefix
func (o *Output) Error(text string) {
	o.prefixed(o.marker(o.errorStyle, ErrorPrefix), text)
}

// Notice writes a muted informational line
func (o *Output) Notice(text string) {
	fmt.Fprintln(o.w, o.dimStyle.Render(text))
}

// Source writes the generated program followed by any pending continuation
func (o *Output) Source(src string, pending *input.Continuation) {
	fmt.Fprintln(o.w, o.titleStyle.Render("// generated program"))
	fmt.Fprint(o.w, src)
	if !strings.HasSuffix(src, "\n") {
		fmt.Fprintln(o.w)
	}
	if pending == nil {
		return
	}
	fmt.Fprintln(o.w, o.titleStyle.Render(fmt.Sprintf("// pending %s (%d lines)", pending.Kind, pending.Lines())))
	if text := pending.Text(); text != "" {
		fmt.Fprintln(o.w, text)
	}
}

// Banner renders the startup header
func (o *Output) Banner(version, compiler string) {
	content := fmt.Sprintf("%s %s\n%s %s\n%s",
		o.dimStyle.Render("gorepl"), o.titleStyle.Render(version),
		o.dimStyle.Render("Compiler:"), compiler,
		o.dimStyle.Render("%  show source   %d N  delete from unit N   :expr  print   {{ … }}  multi-line"),
	)
	fmt.Fprintln(o.w, o.headerBoxStyle.Render(content))
}

// marker styles the prefix without its trailing space
func (o *Output) marker(style lipgloss.Style, prefix string) string {
	return style.Render(strings.TrimSpace(prefix)) + " "
}

func (o *Output) prefixed(prefix, text string) {
	text = strings.TrimRight(text, "\n")
	if text == "" {
		return
	}
	for _, line := range strings.Split(text, "\n") {
		fmt.Fprintf(o.w, "%s%s\n", prefix, line)
	}
}

package gosrc

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeclaredNames(t *testing.T) {
	tests := []struct {
		name string
		stmt string
		want []string
	}{
		{name: "short declaration", stmt: "x := 5", want: []string{"x"}},
		{name: "multi assign", stmt: "a, b := 1, 2", want: []string{"a", "b"}},
		{name: "blank skipped", stmt: "_, err := f()", want: []string{"err"}},
		{name: "plain assignment", stmt: "x = 6", want: nil},
		{name: "var declaration", stmt: "var s string", want: []string{"s"}},
		{name: "grouped var", stmt: "var (\n\tp = 1\n\tq = 2\n)", want: []string{"p", "q"}},
		{name: "const ignored", stmt: "const k = 3", want: nil},
		{name: "type ignored", stmt: "type T struct{}", want: nil},
		{name: "call", stmt: `fmt.Println("hi")`, want: nil},
		{name: "loop scope not counted", stmt: "for i := 0; i < 3; i++ {\n\tj := i\n\t_ = j\n}", want: nil},
		{name: "several statements", stmt: "m := map[string]int{}\nm[\"a\"] = 1\nn := len(m)", want: []string{"m", "n"}},
		{name: "duplicates once", stmt: "x := 1\nx, y := 2, 3", want: []string{"x", "y"}},
		{name: "unparseable", stmt: "x +", want: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DeclaredNames(tt.stmt))
		})
	}
}

func TestFixImports_AddsAndRemoves(t *testing.T) {
	src := "package main\n\nimport \"os\"\n\nfunc main() {\nfmt.Println(strings.ToUpper(\"a\"))\n}\n"

	out, err := FixImports(src)
	require.NoError(t, err)

	assert.Contains(t, out, `"fmt"`)
	assert.Contains(t, out, `"strings"`)
	assert.NotContains(t, out, `"os"`)
	assert.Contains(t, out, "\tfmt.Println(")
}

func TestFixImports_SyntaxError(t *testing.T) {
	_, err := FixImports("package main\n\nfunc main() {\nx +\n}\n")
	require.Error(t, err)
	assert.True(t, strings.HasPrefix(err.Error(), "fix imports:"))
}

func TestTrimTrailingComment(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{name: "no comment", src: "x + 1", want: "x + 1"},
		{name: "trailing comment", src: "x // note", want: "x"},
		{name: "consecutive comments", src: "x // a\n// b", want: "x"},
		{name: "comment inside", src: "f(a, // first\nb)", want: "f(a, // first\nb)"},
		{name: "block comment kept", src: "x /* note */", want: "x /* note */"},
		{name: "slashes in string", src: `"a//b"`, want: `"a//b"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, TrimTrailingComment(tt.src))
		})
	}
}

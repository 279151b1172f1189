// Package gosrc inspects and tidies the Go source the REPL generates.
package gosrc

import (
	"fmt"
	"go/ast"
	"go/parser"
	"go/scanner"
	"go/token"
	"strings"

	"golang.org/x/tools/imports"
)

// SourceName is the file name reported in import-fixing errors
const SourceName = "main.go"

// DeclaredNames returns the variables a statement introduces at the scope
// it is written in: the left-hand identifiers of ":=" and the names of
// "var" declarations. Blank identifiers are skipped. Input that does not
// parse as a statement list returns nil.
func DeclaredNames(stmt string) []string {
	src := "package p\nfunc _() {\n" + stmt + "\n}\n"
	f, err := parser.ParseFile(token.NewFileSet(), "", src, parser.SkipObjectResolution)
	if err != nil || len(f.Decls) != 1 {
		return nil
	}
	fn, ok := f.Decls[0].(*ast.FuncDecl)
	if !ok || fn.Body == nil {
		return nil
	}

	var names []string
	seen := make(map[string]bool)
	add := func(id *ast.Ident) {
		if id == nil || id.Name == "_" || seen[id.Name] {
			return
		}
		seen[id.Name] = true
		names = append(names, id.Name)
	}

	for _, s := range fn.Body.List {
		switch s := s.(type) {
		case *ast.AssignStmt:
			if s.Tok != token.DEFINE {
				continue
			}
			for _, lhs := range s.Lhs {
				if id, ok := lhs.(*ast.Ident); ok {
					add(id)
				}
			}
		case *ast.DeclStmt:
			gd, ok := s.Decl.(*ast.GenDecl)
			if !ok || gd.Tok != token.VAR {
				continue
			}
			for _, spec := range gd.Specs {
				if vs, ok := spec.(*ast.ValueSpec); ok {
					for _, id := range vs.Names {
						add(id)
					}
				}
			}
		}
	}
	return names
}

// FixImports adds missing imports, drops unused ones and gofmt-formats src.
func FixImports(src string) (string, error) {
	out, err := imports.Process(SourceName, []byte(src), &imports.Options{
		Comments:  true,
		TabIndent: true,
		TabWidth:  8,
	})
	if err != nil {
		return "", fmt.Errorf("fix imports: %w", err)
	}
	return string(out), nil
}

// TrimTrailingComment removes a "//" comment that ends src, so the text can
// be followed by more code on the same line.
func TrimTrailingComment(src string) string {
	fset := token.NewFileSet()
	file := fset.AddFile("", fset.Base(), len(src))
	var s scanner.Scanner
	s.Init(file, []byte(src), nil, scanner.ScanComments)

	cut := -1
	for {
		pos, tok, lit := s.Scan()
		switch {
		case tok == token.EOF:
			if cut < 0 {
				return src
			}
			return strings.TrimRight(src[:cut], " \t\n")
		case tok == token.SEMICOLON && lit == "\n":
			// inserted, not written
		case tok == token.COMMENT && strings.HasPrefix(lit, "//"):
			if cut < 0 {
				cut = file.Offset(pos)
			}
		default:
			cut = -1
		}
	}
}

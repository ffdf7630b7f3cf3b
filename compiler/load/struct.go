package load

import (
	"go/types"
	"strings"
)

// Directive is the comment prefix that selects a struct for generation.
const Directive = "//sqlwith:fromrow"

// Package is a client package that was loaded and type-checked.
type Package struct {
	Name    string    // package name
	Path    string    // import path
	Dir     string    // directory of the package sources
	Structs []*Struct // type declarations carrying the directive, in source order
	Errors  []error   // type errors; they do not prevent generation
}

// Struct is a type declaration carrying a `//sqlwith:fromrow` directive.
type Struct struct {
	Name       string
	Pos        string
	File       string
	IsStruct   bool     // false if the directive is attached to a non-struct type
	Directives []string // text following the directive prefix, one entry per directive line
	TypeParams []*TypeParam
	Fields     []*Field
	// Imports maps the import names visible in the declaring file to
	// their import paths.
	Imports map[string]string
}

// TypeParam is a type parameter of a generic struct.
type TypeParam struct {
	Name       string
	Constraint types.Type // nil if the package failed to type-check
}

// Field is a field of a struct.
type Field struct {
	Name     string
	Tag      string // raw struct tag, without quotes
	Embedded bool
	Pos      string
}

// Generic reports whether the struct declares type parameters.
func (s *Struct) Generic() bool {
	return len(s.TypeParams) > 0
}

// ImportPath returns the import path for an import name of the declaring file.
func (s *Struct) ImportPath(name string) (string, bool) {
	p, ok := s.Imports[name]
	return p, ok
}

// parseDirective reports whether the comment line is a fromrow directive
// and returns the text following it.
func parseDirective(line string) (string, bool) {
	rest, ok := strings.CutPrefix(line, Directive)
	if !ok {
		return "", false
	}
	// Reject longer names sharing the prefix, e.g. //sqlwith:fromrows.
	if rest != "" && rest[0] != ' ' && rest[0] != '\t' {
		return "", false
	}
	return strings.TrimSpace(rest), true
}

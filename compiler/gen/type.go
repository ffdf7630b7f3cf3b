package gen

import (
	"fmt"
	"go/token"
	"go/types"
	"reflect"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/syssam/sqlwith/compiler/load"
	"github.com/syssam/sqlwith/dialect"
)

// TagKey is the struct tag key holding field options.
const TagKey = "sqlwith"

// The following types describe a struct selected for generation and are
// consumed by the emitter.
type (
	// Container describes a struct declaration and the decoder generated
	// for it.
	Container struct {
		// Name is the struct name.
		Name string
		// Package and PkgPath identify the declaring package.
		Package string
		PkgPath string
		// Dialect is the database the decoder is bound to.
		Dialect string
		// RenameAll is the column rule for fields without rename.
		RenameAll RenameRule
		// TypeParams are the type parameters of a generic struct.
		TypeParams []*TypeParam
		// Fields are the struct fields in declaration order.
		Fields []*Field
		// File and Pos locate the declaration.
		File string
		Pos  string
	}

	// TypeParam is a type parameter and its constraint.
	TypeParam struct {
		Name       string
		Constraint types.Type
	}

	// Field describes how one struct field is decoded.
	Field struct {
		// Name is the Go field name.
		Name string
		// Column is the resolved column name.
		Column string
		// Default reports whether a missing column leaves the zero value.
		Default bool
		// Decode is the override function, nil for the default path.
		Decode *DecodeFunc
		Pos    string
	}

	// DecodeFunc references a user function of the form
	// func(column string, row R) (T, error).
	DecodeFunc struct {
		// Path is the import path of the function, empty if it is declared
		// in the struct's own package.
		Path string
		Name string
	}
)

// rowTypes maps a dialect to its bound row type in the runtime package.
var rowTypes = map[string]string{
	dialect.SQLite:   "SQLiteRow",
	dialect.Postgres: "PostgresRow",
	dialect.MySQL:    "MySQLRow",
}

// NewContainer builds the descriptor of an annotated struct. Invalid
// directives, tags or declarations are reported as *SchemaError.
func NewContainer(pkg *load.Package, s *load.Struct) (*Container, error) {
	c := &Container{
		Name:    s.Name,
		Package: pkg.Name,
		PkgPath: pkg.Path,
		File:    s.File,
		Pos:     s.Pos,
	}
	if !s.IsStruct {
		return nil, c.errorf(nil, "%s is only valid on struct types", load.Directive)
	}
	if len(s.Directives) != 1 {
		return nil, c.errorf(nil, "expected one %s directive, found %d", load.Directive, len(s.Directives))
	}
	if err := c.parseDirective(s.Directives[0]); err != nil {
		return nil, err
	}
	for _, tp := range s.TypeParams {
		if err := checkConstraint(tp.Constraint); err != nil {
			return nil, c.errorf(nil, "type parameter %s: %v", tp.Name, err)
		}
		c.TypeParams = append(c.TypeParams, &TypeParam{Name: tp.Name, Constraint: tp.Constraint})
	}
	for _, lf := range s.Fields {
		if lf.Name == "_" {
			// Padding fields cannot be assigned.
			if _, ok := reflect.StructTag(lf.Tag).Lookup(TagKey); ok {
				return nil, c.errorf(lf, "blank field cannot carry %s options", TagKey)
			}
			continue
		}
		f, err := c.newField(s, lf)
		if err != nil {
			return nil, err
		}
		c.Fields = append(c.Fields, f)
	}
	return c, nil
}

// Exported reports whether the struct name is exported.
func (c *Container) Exported() bool { return token.IsExported(c.Name) }

// DecodeFuncName returns the name of the generated decode function.
func (c *Container) DecodeFuncName() string { return c.funcName("Decode") }

// ScanFuncName returns the name of the generated scan function.
func (c *Container) ScanFuncName() string { return c.funcName("Scan") }

// RowType returns the name of the bound row type.
func (c *Container) RowType() string { return rowTypes[c.Dialect] }

// Generic reports whether the struct declares type parameters.
func (c *Container) Generic() bool { return len(c.TypeParams) > 0 }

// funcName prefixes the struct name, keeping the visibility of the struct:
// Row gives DecodeRow, userRow gives decodeUserRow.
func (c *Container) funcName(prefix string) string {
	if c.Exported() {
		return prefix + c.Name
	}
	r, n := utf8.DecodeRuneInString(c.Name)
	return strings.ToLower(prefix) + string(unicode.ToUpper(r)) + c.Name[n:]
}

// errorf returns a schema error for the container, or for f if not nil.
func (c *Container) errorf(f *load.Field, format string, args ...any) *SchemaError {
	err := &SchemaError{
		Type:    c.Name,
		Pos:     c.Pos,
		Message: fmt.Sprintf(format, args...),
	}
	if f != nil {
		err.Field = f.Name
		err.Pos = f.Pos
	}
	return err
}

func (c *Container) parseDirective(text string) error {
	opts, err := splitOptions(text)
	if err != nil {
		return c.errorf(nil, "%v", err)
	}
	seen := make(map[string]bool, len(opts))
	for _, o := range opts {
		if seen[o.key] {
			return c.errorf(nil, "duplicate option %q", o.key)
		}
		seen[o.key] = true
		switch o.key {
		case "db":
			d, err := dialect.Parse(o.value)
			if err != nil {
				return &SchemaError{Type: c.Name, Pos: c.Pos, Message: "invalid db", Cause: err}
			}
			c.Dialect = d
		case "rename_all":
			r, err := ParseRenameRule(o.value)
			if err != nil {
				return c.errorf(nil, "%v", err)
			}
			c.RenameAll = r
		default:
			return c.errorf(nil, "unknown option %q", o.key)
		}
	}
	if c.Dialect == "" {
		return c.errorf(nil, "missing required option db (use %s)", strings.Join(dialect.All(), ", "))
	}
	return nil
}

func (c *Container) newField(s *load.Struct, lf *load.Field) (*Field, error) {
	if lf.Embedded {
		return nil, c.errorf(lf, "embedded fields are not supported")
	}
	f := &Field{Name: lf.Name, Pos: lf.Pos}
	tag, ok := reflect.StructTag(lf.Tag).Lookup(TagKey)
	if !ok || strings.TrimSpace(tag) == "" {
		f.Column = c.RenameAll.Apply(f.Name)
		return f, nil
	}
	seen := make(map[string]bool)
	for _, opt := range strings.Split(tag, ",") {
		key, value, hasValue := strings.Cut(strings.TrimSpace(opt), "=")
		if key == "" {
			return nil, c.errorf(lf, "empty option in tag %q", tag)
		}
		if seen[key] {
			return nil, c.errorf(lf, "duplicate option %q", key)
		}
		seen[key] = true
		switch key {
		case "default":
			if hasValue {
				return nil, c.errorf(lf, "option default takes no value")
			}
			f.Default = true
		case "rename":
			if value == "" {
				return nil, c.errorf(lf, "option rename requires a column name")
			}
			f.Column = value
		case "decode":
			if value == "" {
				return nil, c.errorf(lf, "option decode requires a function")
			}
			d, err := resolveDecode(s, value)
			if err != nil {
				return nil, c.errorf(lf, "decode=%s: %v", value, err)
			}
			f.Decode = d
		default:
			return nil, c.errorf(lf, "unknown option %q", key)
		}
	}
	if f.Column == "" {
		f.Column = c.RenameAll.Apply(f.Name)
	}
	return f, nil
}

// resolveDecode resolves "fn" or "pkg.Fn" in the scope of the declaring file.
func resolveDecode(s *load.Struct, path string) (*DecodeFunc, error) {
	parts := strings.Split(path, ".")
	switch len(parts) {
	case 1:
		if !token.IsIdentifier(parts[0]) {
			return nil, fmt.Errorf("%q is not an identifier", parts[0])
		}
		return &DecodeFunc{Name: parts[0]}, nil
	case 2:
		name, fn := parts[0], parts[1]
		if !token.IsIdentifier(name) || !token.IsIdentifier(fn) {
			return nil, fmt.Errorf("malformed function path")
		}
		ipath, ok := s.ImportPath(name)
		if !ok {
			return nil, fmt.Errorf("%q is not imported by %s", name, s.File)
		}
		if !token.IsExported(fn) {
			return nil, fmt.Errorf("%s is not exported", fn)
		}
		return &DecodeFunc{Path: ipath, Name: fn}, nil
	}
	return nil, fmt.Errorf("malformed function path")
}

// checkConstraint reports whether a constraint can be written in
// generated code.
func checkConstraint(t types.Type) error {
	switch t := t.(type) {
	case nil:
		return fmt.Errorf("constraint could not be resolved")
	case *types.Alias:
		if obj := t.Obj(); obj.Pkg() == nil && obj.Name() == "any" {
			return nil
		}
		return checkConstraint(types.Unalias(t))
	case *types.Interface:
		if t.Empty() {
			return nil
		}
	case *types.Named:
		if t.TypeArgs().Len() == 0 {
			return nil
		}
	}
	return fmt.Errorf("unsupported constraint %s", t)
}

type option struct {
	key, value string
}

// splitOptions splits a directive into key=value pairs. Values may be
// double-quoted Go strings.
func splitOptions(s string) ([]option, error) {
	var out []option
	for {
		s = strings.TrimLeft(s, " \t")
		if s == "" {
			return out, nil
		}
		i := strings.IndexAny(s, "= \t")
		if i <= 0 || s[i] != '=' {
			tok, _, _ := strings.Cut(s, " ")
			return nil, fmt.Errorf("malformed option %q, expected key=value", tok)
		}
		key := s[:i]
		s = s[i+1:]
		var value string
		if strings.HasPrefix(s, `"`) {
			q, err := strconv.QuotedPrefix(s)
			if err != nil {
				return nil, fmt.Errorf("option %s: unterminated quoted value", key)
			}
			value, _ = strconv.Unquote(q)
			s = s[len(q):]
			if s != "" && s[0] != ' ' && s[0] != '\t' {
				return nil, fmt.Errorf("option %s: unexpected text after quoted value", key)
			}
		} else {
			end := strings.IndexAny(s, " \t")
			if end < 0 {
				end = len(s)
			}
			value, s = s[:end], s[end:]
		}
		out = append(out, option{key: key, value: value})
	}
}

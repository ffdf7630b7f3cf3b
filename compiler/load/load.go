// Package load loads client packages and extracts the struct declarations
// selected for row-decoder generation.
package load

import (
	"context"
	"errors"
	"fmt"
	"go/ast"
	"go/token"
	"go/types"
	"path"
	"path/filepath"
	"strconv"

	"golang.org/x/tools/go/packages"
)

// Config configures package loading.
type Config struct {
	// Dir is the directory patterns are resolved in. Empty means the
	// current directory.
	Dir string
	// BuildFlags are passed to the build system, e.g. "-tags=integration".
	BuildFlags []string
}

// loadMode is the information needed to read declarations and resolve
// import names and type parameter constraints.
const loadMode = packages.NeedName |
	packages.NeedFiles |
	packages.NeedImports |
	packages.NeedSyntax |
	packages.NeedTypes |
	packages.NeedTypesInfo

// Load loads the packages matching patterns and returns them in the order
// reported by the build system. Type errors are recorded on the package;
// list and parse errors fail the load.
func Load(ctx context.Context, cfg *Config, patterns ...string) ([]*Package, error) {
	if cfg == nil {
		cfg = &Config{}
	}
	if len(patterns) == 0 {
		patterns = []string{"."}
	}
	pkgs, err := packages.Load(&packages.Config{
		Context:    ctx,
		Mode:       loadMode,
		Dir:        cfg.Dir,
		BuildFlags: cfg.BuildFlags,
	}, patterns...)
	if err != nil {
		return nil, fmt.Errorf("sqlwith/load: loading %v: %w", patterns, err)
	}
	if len(pkgs) == 0 {
		return nil, fmt.Errorf("sqlwith/load: no packages matching %v", patterns)
	}
	out := make([]*Package, 0, len(pkgs))
	for _, p := range pkgs {
		lp, err := newPackage(p)
		if err != nil {
			return nil, err
		}
		out = append(out, lp)
	}
	return out, nil
}

func newPackage(p *packages.Package) (*Package, error) {
	lp := &Package{
		Name: p.Name,
		Path: p.PkgPath,
	}
	var fatal []error
	for _, e := range p.Errors {
		switch e.Kind {
		case packages.TypeError:
			lp.Errors = append(lp.Errors, e)
		default:
			fatal = append(fatal, e)
		}
	}
	if len(fatal) > 0 {
		return nil, fmt.Errorf("sqlwith/load: package %s: %w", p.PkgPath, errors.Join(fatal...))
	}
	if len(p.GoFiles) > 0 {
		lp.Dir = filepath.Dir(p.GoFiles[0])
	}
	for _, f := range p.Syntax {
		file := p.Fset.Position(f.Pos()).Filename
		lp.Structs = append(lp.Structs, fileStructs(p, f, file)...)
	}
	return lp, nil
}

// fileStructs returns the declarations of f that carry the directive.
func fileStructs(p *packages.Package, f *ast.File, file string) []*Struct {
	var (
		out     []*Struct
		imports map[string]string
	)
	for _, decl := range f.Decls {
		gd, ok := decl.(*ast.GenDecl)
		if !ok || gd.Tok != token.TYPE {
			continue
		}
		for _, spec := range gd.Specs {
			ts := spec.(*ast.TypeSpec)
			docs := []*ast.CommentGroup{ts.Doc}
			// A single unparenthesized spec has its doc on the GenDecl.
			if !gd.Lparen.IsValid() {
				docs = append(docs, gd.Doc)
			}
			directives := collectDirectives(docs...)
			if len(directives) == 0 {
				continue
			}
			if imports == nil {
				imports = fileImports(p, f)
			}
			out = append(out, newStruct(p, ts, file, directives, imports))
		}
	}
	return out
}

func collectDirectives(groups ...*ast.CommentGroup) []string {
	var out []string
	for _, g := range groups {
		if g == nil {
			continue
		}
		// CommentGroup.Text drops directive lines, so read the raw list.
		for _, c := range g.List {
			if d, ok := parseDirective(c.Text); ok {
				out = append(out, d)
			}
		}
	}
	return out
}

func newStruct(p *packages.Package, ts *ast.TypeSpec, file string, directives []string, imports map[string]string) *Struct {
	s := &Struct{
		Name:       ts.Name.Name,
		Pos:        p.Fset.Position(ts.Pos()).String(),
		File:       file,
		Directives: directives,
		Imports:    imports,
	}
	if ts.TypeParams != nil {
		var named *types.Named
		if p.TypesInfo != nil {
			if obj, ok := p.TypesInfo.Defs[ts.Name].(*types.TypeName); ok && obj != nil {
				named, _ = obj.Type().(*types.Named)
			}
		}
		i := 0
		for _, fl := range ts.TypeParams.List {
			for _, n := range fl.Names {
				tp := &TypeParam{Name: n.Name}
				if named != nil && named.TypeParams() != nil && i < named.TypeParams().Len() {
					tp.Constraint = named.TypeParams().At(i).Constraint()
				}
				s.TypeParams = append(s.TypeParams, tp)
				i++
			}
		}
	}
	st, ok := ts.Type.(*ast.StructType)
	if !ok || ts.Assign.IsValid() {
		return s
	}
	s.IsStruct = true
	for _, fl := range st.Fields.List {
		tag := ""
		if fl.Tag != nil {
			if t, err := strconv.Unquote(fl.Tag.Value); err == nil {
				tag = t
			}
		}
		pos := p.Fset.Position(fl.Pos()).String()
		if len(fl.Names) == 0 {
			s.Fields = append(s.Fields, &Field{
				Name:     embeddedName(fl.Type),
				Tag:      tag,
				Embedded: true,
				Pos:      pos,
			})
			continue
		}
		for _, n := range fl.Names {
			s.Fields = append(s.Fields, &Field{Name: n.Name, Tag: tag, Pos: pos})
		}
	}
	return s
}

// fileImports maps the import names of f to import paths. Blank and dot
// imports cannot qualify an identifier and are skipped.
func fileImports(p *packages.Package, f *ast.File) map[string]string {
	names := make(map[string]string)
	if p.Types != nil {
		for _, imp := range p.Types.Imports() {
			names[imp.Path()] = imp.Name()
		}
	}
	out := make(map[string]string, len(f.Imports))
	for _, spec := range f.Imports {
		ipath, err := strconv.Unquote(spec.Path.Value)
		if err != nil {
			continue
		}
		var name string
		switch {
		case spec.Name != nil:
			name = spec.Name.Name
		case names[ipath] != "":
			name = names[ipath]
		default:
			name = path.Base(ipath)
		}
		if name == "_" || name == "." {
			continue
		}
		out[name] = ipath
	}
	return out
}

// embeddedName returns the field name of an embedded field type.
func embeddedName(e ast.Expr) string {
	switch t := e.(type) {
	case *ast.StarExpr:
		return embeddedName(t.X)
	case *ast.SelectorExpr:
		return t.Sel.Name
	case *ast.Ident:
		return t.Name
	case *ast.IndexExpr:
		return embeddedName(t.X)
	case *ast.IndexListExpr:
		return embeddedName(t.X)
	}
	return ""
}

package gen

import (
	"bytes"
	"context"
	"errors"
	"go/types"
	"time"

	"github.com/dave/jennifer/jen"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/syssam/sqlwith/compiler/load"
	"github.com/syssam/sqlwith/dialect"
)

// RuntimePkg is the import path of the package generated code calls into.
const RuntimePkg = "github.com/syssam/sqlwith"

// Generator writes row decoders for the annotated structs of client
// packages. Each package gets one file holding all its decoders.
type Generator struct {
	cfg *Config
	log *zap.Logger
}

// NewGenerator creates a generator configured by opts.
func NewGenerator(opts ...Option) (*Generator, error) {
	cfg, err := NewConfig(opts...)
	if err != nil {
		return nil, err
	}
	return &Generator{cfg: cfg, log: cfg.Logger}, nil
}

// Config returns the generator configuration.
func (g *Generator) Config() *Config { return g.cfg }

// Generate loads the packages matching patterns and writes their decoder
// files. Nothing is written if any annotated struct is invalid.
func (g *Generator) Generate(ctx context.Context, patterns ...string) error {
	start := time.Now()
	pkgs, err := load.Load(ctx, &load.Config{Dir: g.cfg.Dir, BuildFlags: g.cfg.BuildFlags}, patterns...)
	if err != nil {
		return NewGenerationError(PhaseLoad, "", "", err)
	}
	g.log.Debug("packages loaded",
		zap.Strings("patterns", patterns),
		zap.Int("packages", len(pkgs)),
		zap.Duration("took", time.Since(start)),
	)
	return g.GeneratePackages(ctx, pkgs)
}

// GeneratePackages writes the decoder files of already loaded packages.
func (g *Generator) GeneratePackages(ctx context.Context, pkgs []*load.Package) error {
	type job struct {
		pkg        *load.Package
		containers []*Container
	}
	var (
		jobs []job
		errs []error
	)
	for _, p := range pkgs {
		for _, e := range p.Errors {
			g.log.Warn("package has type errors", zap.String("package", p.Path), zap.Error(e))
		}
		if p.Dir == "" {
			continue
		}
		cs, err := Containers(p)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		jobs = append(jobs, job{pkg: p, containers: cs})
	}
	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	errg, ctx := errgroup.WithContext(ctx)
	errg.SetLimit(g.cfg.Workers)
	for _, j := range jobs {
		errg.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			return g.writePackage(j.pkg, j.containers)
		})
	}
	return errg.Wait()
}

// Containers returns the descriptors of all annotated structs of p.
// All invalid declarations are reported, joined.
func Containers(p *load.Package) ([]*Container, error) {
	var (
		out  []*Container
		errs []error
	)
	for _, s := range p.Structs {
		c, err := NewContainer(p, s)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		out = append(out, c)
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return out, nil
}

// Render returns the formatted source of the decoder file for p.
func (g *Generator) Render(p *load.Package, cs []*Container) ([]byte, error) {
	f := g.newFile(p)
	for _, c := range cs {
		genDecode(f, c)
		genScan(f, c)
	}
	var buf bytes.Buffer
	if err := f.Render(&buf); err != nil {
		return nil, NewGenerationError(PhaseRender, g.cfg.Output, "package "+p.Path, err)
	}
	return buf.Bytes(), nil
}

// newFile creates a new Jennifer file with the header comment.
func (g *Generator) newFile(p *load.Package) *jen.File {
	f := jen.NewFilePathName(p.Path, p.Name)
	if g.cfg.Header != "" {
		f.HeaderComment(g.cfg.Header)
	}
	f.ImportName(RuntimePkg, "sqlwith")
	return f
}

var dialectNames = map[string]string{
	dialect.SQLite:   "SQLite",
	dialect.Postgres: "PostgreSQL",
	dialect.MySQL:    "MySQL",
}

// genDecode emits:
//
//	func DecodeT(row *sqlwith.SQLiteRow) (T, error)
func genDecode(f *jen.File, c *Container) {
	name := c.DecodeFuncName()
	f.Commentf("%s decodes a %s from a %s row.", name, c.Name, dialectNames[c.Dialect])
	withTypes(f.Func().Id(name), typeParams(c)).
		Params(jen.Id("row").Op("*").Qual(RuntimePkg, c.RowType())).
		Params(structType(c), jen.Error()).
		BlockFunc(func(grp *jen.Group) {
			if len(c.Fields) == 0 {
				grp.Return(structType(c).Values(), jen.Nil())
				return
			}
			grp.Var().Defs(
				jen.Id("v").Add(structType(c)),
				jen.Err().Error(),
			)
			for _, fd := range c.Fields {
				genField(grp, c, fd)
			}
			grp.Return(jen.Id("v"), jen.Nil())
		})
	f.Line()
}

// genField emits the statement decoding one field. Any error aborts the
// decode, except a missing column on a field marked default.
func genField(grp *jen.Group, c *Container, fd *Field) {
	dst := jen.Id("v").Dot(fd.Name)
	var assign *jen.Statement
	if fd.Decode != nil {
		fn := jen.Id(fd.Decode.Name)
		if fd.Decode.Path != "" {
			fn = jen.Qual(fd.Decode.Path, fd.Decode.Name)
		}
		assign = jen.List(dst.Clone(), jen.Err()).Op("=").Add(fn).Call(jen.Lit(fd.Column), jen.Id("row"))
	} else {
		assign = jen.Err().Op("=").Qual(RuntimePkg, "TryGet").Call(jen.Id("row"), jen.Lit(fd.Column), jen.Op("&").Add(dst.Clone()))
	}
	ret := jen.Return(structType(c).Values(), jen.Err())
	grp.If(assign, jen.Err().Op("!=").Nil()).BlockFunc(func(b *jen.Group) {
		if !fd.Default {
			b.Add(ret)
			return
		}
		b.If(jen.Op("!").Qual(RuntimePkg, "IsColumnNotFound").Call(jen.Err())).Block(ret)
		b.Qual(RuntimePkg, "Reset").Call(jen.Op("&").Add(dst.Clone()))
	})
}

// genScan emits:
//
//	func ScanT(rows *sql.Rows) (T, error)
func genScan(f *jen.File, c *Container) {
	name := c.ScanFuncName()
	f.Commentf("%s decodes a %s from the current row of rows.", name, c.Name)
	withTypes(f.Func().Id(name), typeParams(c)).
		Params(jen.Id("rows").Op("*").Qual("database/sql", "Rows")).
		Params(structType(c), jen.Error()).
		Block(
			jen.List(jen.Id("row"), jen.Err()).Op(":=").Qual(RuntimePkg, "Scan"+c.RowType()).Call(jen.Id("rows")),
			jen.If(jen.Err().Op("!=").Nil()).Block(
				jen.Return(structType(c).Values(), jen.Err()),
			),
			jen.Return(withTypes(jen.Id(c.DecodeFuncName()), typeArgs(c)).Call(jen.Id("row"))),
		)
	f.Line()
}

// structType returns the struct type, instantiated with its own type
// parameters when generic.
func structType(c *Container) *jen.Statement {
	return withTypes(jen.Id(c.Name), typeArgs(c))
}

// withTypes appends a type parameter or argument list. An empty list
// would render as "[]".
func withTypes(s *jen.Statement, list []jen.Code) *jen.Statement {
	if len(list) == 0 {
		return s
	}
	return s.Types(list...)
}

func typeParams(c *Container) []jen.Code {
	var out []jen.Code
	for _, tp := range c.TypeParams {
		out = append(out, jen.Id(tp.Name).Add(constraint(tp.Constraint)))
	}
	return out
}

func typeArgs(c *Container) []jen.Code {
	var out []jen.Code
	for _, tp := range c.TypeParams {
		out = append(out, jen.Id(tp.Name))
	}
	return out
}

// constraint renders a constraint accepted by checkConstraint.
func constraint(t types.Type) jen.Code {
	switch t := t.(type) {
	case *types.Alias:
		if obj := t.Obj(); obj.Pkg() == nil && obj.Name() == "any" {
			return jen.Id("any")
		}
		return constraint(types.Unalias(t))
	case *types.Named:
		obj := t.Obj()
		if obj.Pkg() == nil {
			return jen.Id(obj.Name())
		}
		return jen.Qual(obj.Pkg().Path(), obj.Name())
	}
	return jen.Id("any")
}

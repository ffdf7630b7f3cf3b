package gen

import (
	"go/parser"
	"go/token"
	"go/types"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/sqlwith/compiler/load"
)

// render builds the containers of the given structs and renders their file.
func render(t *testing.T, g *Generator, structs ...*load.Struct) string {
	t.Helper()
	pkg := testPackage(structs...)
	cs, err := Containers(pkg)
	require.NoError(t, err)
	src, err := g.Render(pkg, cs)
	require.NoError(t, err)
	_, err = parser.ParseFile(token.NewFileSet(), "out.go", src, parser.AllErrors)
	require.NoError(t, err, "generated code must parse:\n%s", src)
	return string(src)
}

func TestRenderDecoder(t *testing.T) {
	g, err := NewGenerator()
	require.NoError(t, err)
	code := render(t, g, testStruct("Row", "db=sqlite",
		field("X", `sqlwith:"rename=x,decode=splitX"`),
		field("Y", `sqlwith:"rename=y"`),
	))

	assert.Contains(t, code, "// Code generated by sqlwith. DO NOT EDIT.")
	assert.Contains(t, code, "package rows")
	assert.Contains(t, code, `"database/sql"`)
	assert.Contains(t, code, `"github.com/syssam/sqlwith"`)

	assert.Contains(t, code, "// DecodeRow decodes a Row from a SQLite row.")
	assert.Contains(t, code, "func DecodeRow(row *sqlwith.SQLiteRow) (Row, error) {")
	assert.Contains(t, code, `if v.X, err = splitX("x", row); err != nil {`)
	assert.Contains(t, code, `if err = sqlwith.TryGet(row, "y", &v.Y); err != nil {`)
	assert.Contains(t, code, "return Row{}, err")
	assert.Contains(t, code, "return v, nil")

	assert.Contains(t, code, "func ScanRow(rows *sql.Rows) (Row, error) {")
	assert.Contains(t, code, "row, err := sqlwith.ScanSQLiteRow(rows)")
	assert.Contains(t, code, "return DecodeRow(row)")

	// Fields are decoded in declaration order.
	assert.Less(t, strings.Index(code, `splitX("x"`), strings.Index(code, `TryGet(row, "y"`))
	assert.NotContains(t, code, "IsColumnNotFound")
}

func TestRenderDefault(t *testing.T) {
	g, err := NewGenerator()
	require.NoError(t, err)
	code := render(t, g, testStruct("Event", "db=postgres rename_all=snake_case",
		field("CreatedAt", `sqlwith:"default"`),
		field("Score", `sqlwith:"default,decode=conv.Score"`),
	))

	assert.Contains(t, code, "func DecodeEvent(row *sqlwith.PostgresRow) (Event, error) {")
	assert.Contains(t, code, `if err = sqlwith.TryGet(row, "created_at", &v.CreatedAt); err != nil {`)
	assert.Contains(t, code, "if !sqlwith.IsColumnNotFound(err) {")
	assert.Contains(t, code, "sqlwith.Reset(&v.CreatedAt)")
	assert.Contains(t, code, `if v.Score, err = conv.Score("score", row); err != nil {`)
	assert.Contains(t, code, "sqlwith.Reset(&v.Score)")
	assert.Contains(t, code, `"example.com/conv"`)
	assert.Contains(t, code, "sqlwith.ScanPostgresRow(rows)")
}

func TestRenderUnexported(t *testing.T) {
	g, err := NewGenerator()
	require.NoError(t, err)
	code := render(t, g, testStruct("userRow", "db=mysql", field("id", "")))

	assert.Contains(t, code, "// decodeUserRow decodes a userRow from a MySQL row.")
	assert.Contains(t, code, "func decodeUserRow(row *sqlwith.MySQLRow) (userRow, error) {")
	assert.Contains(t, code, "func scanUserRow(rows *sql.Rows) (userRow, error) {")
	assert.Contains(t, code, "return decodeUserRow(row)")
	assert.Contains(t, code, `sqlwith.TryGet(row, "id", &v.id)`)
}

func TestRenderGeneric(t *testing.T) {
	stringer := types.NewNamed(
		types.NewTypeName(0, types.NewPackage("fmt", "fmt"), "Stringer", nil),
		types.NewInterfaceType(nil, nil).Complete(),
		nil,
	)
	s := testStruct("Box", "db=mysql", field("Value", ""), field("Key", ""))
	s.TypeParams = []*load.TypeParam{
		{Name: "T", Constraint: types.Universe.Lookup("any").Type()},
		{Name: "K", Constraint: types.Universe.Lookup("comparable").Type()},
		{Name: "S", Constraint: stringer},
	}
	g, err := NewGenerator()
	require.NoError(t, err)
	code := render(t, g, s)

	assert.Contains(t, code, "func DecodeBox[T any, K comparable, S fmt.Stringer](row *sqlwith.MySQLRow) (Box[T, K, S], error) {")
	assert.Contains(t, code, "return Box[T, K, S]{}, err")
	assert.Contains(t, code, "func ScanBox[T any, K comparable, S fmt.Stringer](rows *sql.Rows) (Box[T, K, S], error) {")
	assert.Contains(t, code, "return DecodeBox[T, K, S](row)")
	assert.Contains(t, code, `"fmt"`)
}

func TestRenderNoFields(t *testing.T) {
	g, err := NewGenerator()
	require.NoError(t, err)
	code := render(t, g, testStruct("Empty", "db=sqlite"))

	assert.Contains(t, code, "func DecodeEmpty(row *sqlwith.SQLiteRow) (Empty, error) {\n\treturn Empty{}, nil\n}")
	assert.NotContains(t, code, "err error")
}

func TestRenderMultiple(t *testing.T) {
	g, err := NewGenerator(WithHeader("Code generated by rowgen. DO NOT EDIT."))
	require.NoError(t, err)
	code := render(t, g,
		testStruct("A", "db=sqlite", field("X", "")),
		testStruct("B", "db=postgres", field("Y", "")),
	)

	assert.Contains(t, code, "// Code generated by rowgen. DO NOT EDIT.")
	assert.Contains(t, code, "func DecodeA(")
	assert.Contains(t, code, "func DecodeB(")
	assert.Less(t, strings.Index(code, "func DecodeA("), strings.Index(code, "func DecodeB("))
}

func TestRenderNoHeader(t *testing.T) {
	g, err := NewGenerator(WithHeader(""))
	require.NoError(t, err)
	code := render(t, g, testStruct("A", "db=sqlite"))
	assert.NotContains(t, code, "Code generated")
}

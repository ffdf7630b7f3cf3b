// Package gen turns annotated struct declarations into row decoders.
//
// # Pipeline
//
//	client package (//sqlwith:fromrow structs)
//	        ↓
//	   load.Load (go/packages)
//	        ↓
//	   NewContainer (directive + struct tags → Container)
//	        ↓
//	   Generator.Render (jennifer)
//	        ↓
//	   sqlwith_fromrow.go in the client package
//
// # Key Types
//
//   - Container: a selected struct, its dialect, rename rule and fields
//   - Field: Go name, resolved column, default flag, decode override
//   - DecodeFunc: reference to a user decode function
//   - Generator: loads packages and writes one file per package
//   - Config: output file name, header, build flags, workers, logger
//
// For each Container the generator emits
//
//	func DecodeT(row *sqlwith.SQLiteRow) (T, error)
//	func ScanT(rows *sql.Rows) (T, error)
//
// with the row type chosen by the db option. Unexported struct names get
// unexported functions (decodeT, scanT).
//
// # Error Handling
//
//   - SchemaError: invalid directive, tag or declaration (ErrInvalidSchema)
//   - ConfigError: invalid option (ErrMissingConfig)
//   - GenerationError: load, render or write failure (ErrGenerationFailed)
//
// Schema errors start with the source position of the offending field or
// declaration, like compiler diagnostics:
//
//	row.go:12:2: Row.X: duplicate option "decode"
//
// Generate joins the errors of all packages, so one run reports every bad
// annotation.
package gen

package gen

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors matched by the typed errors below.
var (
	// ErrInvalidSchema matches every *SchemaError.
	ErrInvalidSchema = errors.New("sqlwith: invalid schema")
	// ErrMissingConfig matches every *ConfigError.
	ErrMissingConfig = errors.New("sqlwith: missing configuration")
	// ErrGenerationFailed matches every *GenerationError.
	ErrGenerationFailed = errors.New("sqlwith: code generation failed")
)

// SchemaError reports an annotated declaration that cannot be turned into
// a decoder. Its message starts with the source position, in the format of
// compiler diagnostics, so editors and go generate output link to it:
//
//	row.go:12:2: Row.X: duplicate option "decode"
type SchemaError struct {
	Type    string // struct name
	Field   string // field name, empty for the declaration itself
	Pos     string // position of the field, or of the declaration
	Message string
	Cause   error
}

func (e *SchemaError) Error() string {
	subject := e.Type
	if e.Field != "" {
		subject += "." + e.Field
	}
	msg := joinMessage(subject, e.Message, e.Cause)
	if e.Pos == "" {
		return "sqlwith: " + msg
	}
	return e.Pos + ": " + msg
}

func (e *SchemaError) Unwrap() error { return e.Cause }

// Is matches ErrInvalidSchema.
func (e *SchemaError) Is(target error) bool { return target == ErrInvalidSchema }

// ConfigError reports an invalid generator option.
type ConfigError struct {
	Option  string
	Value   any // rejected value, nil if none was given
	Message string
}

func (e *ConfigError) Error() string {
	msg := fmt.Sprintf("sqlwith: option %s: %s", e.Option, e.Message)
	if e.Value != nil {
		msg += fmt.Sprintf(" (got %v)", e.Value)
	}
	return msg
}

// Is matches ErrMissingConfig.
func (e *ConfigError) Is(target error) bool { return target == ErrMissingConfig }

// NewConfigError creates a ConfigError.
func NewConfigError(option string, value any, message string) *ConfigError {
	return &ConfigError{Option: option, Value: value, Message: message}
}

// Phase names the step of Generate that failed.
type Phase string

// Generation phases.
const (
	PhaseLoad   Phase = "load"
	PhaseRender Phase = "render"
	PhaseWrite  Phase = "write"
)

// GenerationError reports a failure to load packages or to render or write
// a decoder file.
type GenerationError struct {
	Phase   Phase
	File    string // affected file, if any
	Message string
	Cause   error
}

func (e *GenerationError) Error() string {
	subject := string(e.Phase)
	if e.File != "" {
		subject += " " + e.File
	}
	return "sqlwith: " + joinMessage(subject, e.Message, e.Cause)
}

func (e *GenerationError) Unwrap() error { return e.Cause }

// Is matches ErrGenerationFailed.
func (e *GenerationError) Is(target error) bool { return target == ErrGenerationFailed }

// NewGenerationError creates a GenerationError.
func NewGenerationError(phase Phase, file, message string, cause error) *GenerationError {
	return &GenerationError{Phase: phase, File: file, Message: message, Cause: cause}
}

// joinMessage joins the non-empty parts with ": ".
func joinMessage(subject, message string, cause error) string {
	parts := make([]string, 0, 3)
	for _, p := range []string{subject, message} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	if cause != nil {
		parts = append(parts, cause.Error())
	}
	return strings.Join(parts, ": ")
}

// IsSchemaError reports whether err is or wraps a *SchemaError.
func IsSchemaError(err error) bool {
	var se *SchemaError
	return errors.As(err, &se)
}

// IsConfigError reports whether err is or wraps a *ConfigError.
func IsConfigError(err error) bool {
	var ce *ConfigError
	return errors.As(err, &ce)
}

// IsGenerationError reports whether err is or wraps a *GenerationError.
func IsGenerationError(err error) bool {
	var ge *GenerationError
	return errors.As(err, &ge)
}

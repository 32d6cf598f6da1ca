package models

import (
	"errors"
	"fmt"
)

var (
	// ErrParse: a cell failed numeric coercion and was set to null.
	ErrParse = errors.New("parse error")
	// ErrMalformedRecord: a fragment yielded a token count different from the schema.
	ErrMalformedRecord = errors.New("malformed record")
	// ErrJoinMismatch: a category exists in only one joined source and was dropped.
	ErrJoinMismatch = errors.New("join mismatch")
	// ErrSchemaMismatch: declared columns are missing from the input. Fatal.
	ErrSchemaMismatch = errors.New("schema mismatch")
	// ErrZeroTotal: a share column summed to zero, so its shares are all zero.
	ErrZeroTotal = errors.New("zero total")
)

// Diagnostic is a non-fatal, row-level problem recorded by a stage.
type Diagnostic struct {
	Kind    error
	Stage   string
	Row     int // -1 when the problem is not tied to a row
	Subject string
	Detail  string
}

func (d Diagnostic) Error() string {
	if d.Row >= 0 {
		return fmt.Sprintf("%s: %v: row %d %q: %s", d.Stage, d.Kind, d.Row, d.Subject, d.Detail)
	}
	return fmt.Sprintf("%s: %v: %q: %s", d.Stage, d.Kind, d.Subject, d.Detail)
}

func (d Diagnostic) Unwrap() error { return d.Kind }

// SchemaError builds the fatal configuration error returned when a stage
// is asked for columns its input does not have.
func SchemaError(stage string, format string, args ...any) error {
	return fmt.Errorf("%s: %w: %s", stage, ErrSchemaMismatch, fmt.Sprintf(format, args...))
}

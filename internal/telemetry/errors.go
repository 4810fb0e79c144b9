package telemetry

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorKind classifies a dataset load failure.
type ErrorKind int

// Load failure kinds.
const (
	InputNotFound ErrorKind = iota + 1
	UnsupportedFormat
	MissingHeader
	MissingRequiredColumns
)

func (k ErrorKind) String() string {
	switch k {
	case InputNotFound:
		return "input not found"
	case UnsupportedFormat:
		return "unsupported format"
	case MissingHeader:
		return "missing header"
	case MissingRequiredColumns:
		return "missing required columns"
	}
	return "unknown"
}

// LoadError is returned by Load for input problems the user can fix.
type LoadError struct {
	Kind    ErrorKind
	Path    string
	Columns []string // the missing columns, for MissingRequiredColumns
	Err     error
}

func (e *LoadError) Error() string {
	switch e.Kind {
	case InputNotFound:
		return fmt.Sprintf("telemetry: input not found: %s", e.Path)
	case UnsupportedFormat:
		return fmt.Sprintf("telemetry: unsupported format for %s: expected a .csv file with columns %s",
			e.Path, strings.Join(RequiredColumns, ", "))
	case MissingHeader:
		return fmt.Sprintf("telemetry: %s has no header row", e.Path)
	case MissingRequiredColumns:
		return fmt.Sprintf("telemetry: %s is missing required columns: %s",
			e.Path, strings.Join(e.Columns, ", "))
	}
	if e.Err != nil {
		return "telemetry: " + e.Err.Error()
	}
	return "telemetry: load failed"
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// IsKind reports whether err (or any error in its chain) is a LoadError of
// the given kind.
func IsKind(err error, kind ErrorKind) bool {
	var le *LoadError
	if errors.As(err, &le) {
		return le.Kind == kind
	}
	return false
}

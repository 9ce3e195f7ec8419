package query

import (
	"errors"
	"fmt"

	"github.com/Konsultn-Engineering/typeq/schema"
)

// ErrNotFound is returned by fetch-one strategies when the statement
// produced zero rows. It is distinct from validation failures so
// callers can branch on "absent" vs "malformed".
var ErrNotFound = errors.New("typeq: model not found")

// ConfigError reports a statement mis-construction: an unsupported type
// hint, a field reference combined with a hint, a row-fetching terminal
// on a statement that returns no rows, and the like. Configuration
// errors surface before any I/O and are never retried.
type ConfigError struct {
	Reason string
}

func (e *ConfigError) Error() string {
	return "typeq: " + e.Reason
}

func configErrorf(format string, args ...any) error {
	return &ConfigError{Reason: fmt.Sprintf(format, args...)}
}

// IsConfigError reports whether err is a statement construction error.
func IsConfigError(err error) bool {
	var ce *ConfigError
	return errors.As(err, &ce)
}

// ValidationError is re-exported from the schema package: it carries
// the structured per-field failures of one atomic validation pass.
type ValidationError = schema.ValidationError

// FieldError is one structured validation failure.
type FieldError = schema.FieldError

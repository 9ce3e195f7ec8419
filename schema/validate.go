package schema

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/google/uuid"
)

// FieldError is one structured validation failure: which field, what
// went wrong, and a stable machine-readable kind.
type FieldError struct {
	Field   string
	Message string
	Kind    string
}

// Error kinds reported by validation and row decoding.
const (
	ErrKindMissing = "missing"
	ErrKindType    = "type"
	ErrKindNull    = "null"
)

func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationError aggregates every field failure from one validation
// pass. A pass is atomic: either all values validate or none are used.
type ValidationError struct {
	Errors []FieldError
}

func (e *ValidationError) Error() string {
	if len(e.Errors) == 0 {
		return "validation failed"
	}
	msgs := make([]string, len(e.Errors))
	for i, fe := range e.Errors {
		msgs[i] = fe.Error()
	}
	return "validation failed: " + strings.Join(msgs, "; ")
}

// ArgField pairs an argument name with its declared type. A slice of
// these is the ad-hoc validation schema derived from a statement's
// argument registry.
type ArgField struct {
	Name string
	Type Type
}

// ValidateValues checks the supplied named values against the field
// list. Every field is required; nil is accepted only for optional
// fields (and for Any, which accepts everything). On failure it returns
// a *ValidationError listing every offending field; no partial result
// is returned. Extra keys in values are ignored.
func ValidateValues(fields []ArgField, values map[string]any) (map[string]any, error) {
	out := make(map[string]any, len(fields))
	var errs []FieldError

	for _, f := range fields {
		value, ok := values[f.Name]
		if !ok {
			errs = append(errs, FieldError{Field: f.Name, Message: "field required", Kind: ErrKindMissing})
			continue
		}
		coerced, ferr := coerceValue(f.Name, f.Type, value)
		if ferr != nil {
			errs = append(errs, *ferr)
			continue
		}
		out[f.Name] = coerced
	}

	if len(errs) > 0 {
		return nil, &ValidationError{Errors: errs}
	}
	return out, nil
}

// coerceValue validates a single value against a declared type. The
// value is passed through mostly untouched; the driver handles the
// final wire encoding.
func coerceValue(name string, t Type, value any) (any, *FieldError) {
	if value == nil {
		// JSON containers accept nil regardless of optionality: their
		// natural zero on the wire is NULL.
		if t.Optional || t.Kind == Any || t.Kind == JSON {
			return nil, nil
		}
		return nil, &FieldError{Field: name, Message: "none is not an allowed value", Kind: ErrKindNull}
	}

	switch t.Kind {
	case Any:
		return value, nil

	case Int:
		switch v := value.(type) {
		case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
			return value, nil
		case float64:
			if v == float64(int64(v)) {
				return int64(v), nil
			}
		case float32:
			if v == float32(int64(v)) {
				return int64(v), nil
			}
		}
		return nil, typeError(name, "value is not a valid integer")

	case Uint:
		switch v := value.(type) {
		case uint, uint8, uint16, uint32, uint64:
			return value, nil
		case int:
			if v >= 0 {
				return value, nil
			}
		case int64:
			if v >= 0 {
				return value, nil
			}
		}
		return nil, typeError(name, "value is not a valid unsigned integer")

	case Float:
		switch value.(type) {
		case float32, float64, int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
			return value, nil
		}
		return nil, typeError(name, "value is not a valid number")

	case String:
		if _, ok := value.(string); ok {
			return value, nil
		}
		return nil, typeError(name, "value is not a valid string")

	case Bool:
		if _, ok := value.(bool); ok {
			return value, nil
		}
		return nil, typeError(name, "value could not be parsed to a boolean")

	case Time:
		if _, ok := value.(time.Time); ok {
			return value, nil
		}
		return nil, typeError(name, "value is not a valid timestamp")

	case Bytes:
		switch value.(type) {
		case []byte, string:
			return value, nil
		}
		return nil, typeError(name, "value is not valid bytes")

	case UUID:
		switch v := value.(type) {
		case uuid.UUID:
			return value, nil
		case [16]byte:
			return uuid.UUID(v), nil
		case string:
			id, err := uuid.Parse(v)
			if err != nil {
				return nil, typeError(name, "value is not a valid uuid")
			}
			return id, nil
		}
		return nil, typeError(name, "value is not a valid uuid")

	case JSON:
		return validateJSONValue(name, t, value)
	}

	return value, nil
}

// validateJSONValue accepts anything json.Marshal can serialize into
// the container, plus pre-encoded text. Structural mismatches against
// the container's Go type surface at encode time in the binder, not
// here; the stored representation is schemaless JSON.
func validateJSONValue(name string, t Type, value any) (any, *FieldError) {
	switch value.(type) {
	case string, []byte, json.RawMessage, map[string]any, []any:
		return value, nil
	}
	// Structured value: must be marshalable.
	if _, err := json.Marshal(value); err != nil {
		return nil, typeError(name, "value is not JSON-serializable")
	}
	return value, nil
}

func typeError(name, msg string) *FieldError {
	return &FieldError{Field: name, Message: msg, Kind: ErrKindType}
}

// EncodeJSONValue serializes a JSON-container value to its wire form
// (JSON text). nil binds as NULL rather than the string "null".
func EncodeJSONValue(value any) (any, error) {
	switch v := value.(type) {
	case nil:
		return nil, nil
	case json.RawMessage:
		return string(v), nil
	case []byte:
		return string(v), nil
	case string:
		return v, nil
	}
	if rv := reflect.ValueOf(value); rv.Kind() == reflect.Ptr && rv.IsNil() {
		return nil, nil
	}
	encoded, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("encode json value: %w", err)
	}
	return string(encoded), nil
}

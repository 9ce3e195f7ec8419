package schema

import (
	"encoding/json"
	"reflect"
	"time"

	"github.com/google/uuid"
)

// Kind is the semantic type of a model field or statement argument.
// It is deliberately coarser than reflect.Kind: it describes what the
// value means on the wire, not how Go lays it out in memory.
type Kind uint8

const (
	// Any disables validation entirely. Untyped template references
	// ({name}) resolve to this kind.
	Any Kind = iota
	Int
	Uint
	Float
	String
	Bool
	Time
	Bytes
	UUID
	// JSON marks a JSON-container field: stored as JSON text, handled
	// as a structured Go value in memory.
	JSON
)

var kindNames = [...]string{"any", "int", "uint", "float", "str", "bool", "time", "bytes", "uuid", "json"}

// String returns the short name used in error messages.
func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

// Type is the declared type of one argument or field: a semantic kind,
// an optionality flag, and (for JSON containers) the Go type the stored
// document decodes into.
type Type struct {
	Kind     Kind
	Optional bool
	// Elem is the in-memory Go type of a JSON container. Nil for
	// every other kind.
	Elem reflect.Type
}

// AnyType is the declared type of untyped template references.
var AnyType = Type{Kind: Any}

// IsJSON reports whether the type is a JSON container.
func (t Type) IsJSON() bool { return t.Kind == JSON }

var (
	timeType = reflect.TypeOf(time.Time{})
	uuidType = reflect.TypeOf(uuid.UUID{})
	rawType  = reflect.TypeOf(json.RawMessage(nil))
)

// TypeOf derives the semantic type for a Go field type. Pointer types
// are optional; their element type decides the kind. Types without a
// scalar mapping (structs, maps, slices) only make sense as JSON
// containers, which the tag parser flags explicitly; TypeOf falls back
// to Any for them so untagged fields stay permissive.
func TypeOf(t reflect.Type) Type {
	st := Type{}
	if t.Kind() == reflect.Ptr {
		st.Optional = true
		t = t.Elem()
	}
	switch {
	case t == timeType:
		st.Kind = Time
	case t == uuidType:
		st.Kind = UUID
	case t == rawType:
		st.Kind = JSON
		st.Elem = t
	}
	if st.Kind != Any {
		return st
	}
	switch t.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		st.Kind = Int
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		st.Kind = Uint
	case reflect.Float32, reflect.Float64:
		st.Kind = Float
	case reflect.String:
		st.Kind = String
	case reflect.Bool:
		st.Kind = Bool
	case reflect.Slice:
		if t.Elem().Kind() == reflect.Uint8 {
			st.Kind = Bytes
		}
	}
	return st
}

// jsonType wraps a Go type as a JSON container, preserving pointer
// optionality.
func jsonType(t reflect.Type) Type {
	st := Type{Kind: JSON, Elem: t}
	if t.Kind() == reflect.Ptr {
		st.Optional = true
	}
	return st
}

// TableNamer lets a model override the derived table name.
type TableNamer interface {
	TableName() string
}

package schema

import (
	"encoding/json"
	"fmt"
	"reflect"

	"github.com/google/uuid"
)

// DecodeRow maps one returned row onto a model instance. Columns with
// no matching field are ignored; fields missing from the row keep their
// zero value. A failure to map any column aborts the whole row with a
// *ValidationError.
func DecodeRow(meta *Meta, columns []string, values []any, dest any) error {
	destv := reflect.ValueOf(dest)
	if destv.Kind() != reflect.Ptr || destv.IsNil() {
		return fmt.Errorf("decode target must be a non-nil pointer to %s", meta.Name)
	}
	structv := destv.Elem()
	if structv.Type() != meta.Type {
		return fmt.Errorf("decode target type %s does not match model %s", structv.Type(), meta.Name)
	}

	var errs []FieldError
	for i, col := range columns {
		fm, ok := meta.ColumnMap[col]
		if !ok {
			continue
		}
		fieldv := structv.FieldByIndex(fm.Index)
		if ferr := setField(fm, fieldv, values[i]); ferr != nil {
			errs = append(errs, *ferr)
		}
	}

	if len(errs) > 0 {
		return &ValidationError{Errors: errs}
	}
	return nil
}

func setField(fm *FieldMeta, fieldv reflect.Value, raw any) *FieldError {
	if fm.Type.IsJSON() {
		return setJSONField(fm, fieldv, raw)
	}

	if raw == nil {
		if !fm.Type.Optional {
			return &FieldError{Field: fm.Column, Message: "unexpected null for non-optional field", Kind: ErrKindNull}
		}
		fieldv.Set(reflect.Zero(fieldv.Type()))
		return nil
	}

	// Optional fields live behind a pointer: allocate and fill the element.
	if fieldv.Kind() == reflect.Ptr {
		elem := reflect.New(fieldv.Type().Elem())
		if ferr := assignScalar(fm, elem.Elem(), raw); ferr != nil {
			return ferr
		}
		fieldv.Set(elem)
		return nil
	}
	return assignScalar(fm, fieldv, raw)
}

// assignScalar converts a driver value into a concrete field value.
// Conversions are deliberately narrow: numerics widen or narrow between
// each other, text converts between string and []byte, and uuids parse
// from their common wire shapes. Anything else is a decode error.
func assignScalar(fm *FieldMeta, fieldv reflect.Value, raw any) *FieldError {
	rawv := reflect.ValueOf(raw)

	// Fast path: directly assignable (covers time.Time, uuid.UUID, exact
	// matches).
	if rawv.Type().AssignableTo(fieldv.Type()) {
		fieldv.Set(rawv)
		return nil
	}

	switch fieldv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		if isNumeric(rawv.Kind()) {
			fieldv.Set(rawv.Convert(fieldv.Type()))
			return nil
		}

	case reflect.String:
		if b, ok := raw.([]byte); ok {
			fieldv.SetString(string(b))
			return nil
		}

	case reflect.Bool:
		if b, ok := raw.(bool); ok {
			fieldv.SetBool(b)
			return nil
		}

	case reflect.Slice:
		if fieldv.Type().Elem().Kind() == reflect.Uint8 {
			if s, ok := raw.(string); ok {
				fieldv.SetBytes([]byte(s))
				return nil
			}
		}

	case reflect.Array:
		if fieldv.Type() == uuidType {
			switch v := raw.(type) {
			case string:
				id, err := uuid.Parse(v)
				if err == nil {
					fieldv.Set(reflect.ValueOf(id))
					return nil
				}
			case [16]byte:
				fieldv.Set(reflect.ValueOf(uuid.UUID(v)))
				return nil
			case []byte:
				id, err := uuid.FromBytes(v)
				if err == nil {
					fieldv.Set(reflect.ValueOf(id))
					return nil
				}
			}
		}
	}

	return &FieldError{
		Field:   fm.Column,
		Message: fmt.Sprintf("cannot decode %T into %s", raw, fieldv.Type()),
		Kind:    ErrKindType,
	}
}

// setJSONField parses the stored document back into the declared Go
// value. SQL NULL, the JSON null literal, and pre-structured values are
// all handled; an explicit "null" decodes to the zero value, never the
// string "null".
func setJSONField(fm *FieldMeta, fieldv reflect.Value, raw any) *FieldError {
	var text []byte
	switch v := raw.(type) {
	case nil:
		fieldv.Set(reflect.Zero(fieldv.Type()))
		return nil
	case string:
		text = []byte(v)
	case []byte:
		text = v
	case json.RawMessage:
		text = v
	default:
		// Driver already decoded the document (e.g. pgx maps jsonb to
		// map[string]any). Round-trip through encoding to land on the
		// declared container type.
		encoded, err := json.Marshal(v)
		if err != nil {
			return &FieldError{Field: fm.Column, Message: err.Error(), Kind: ErrKindType}
		}
		text = encoded
	}

	if len(text) == 0 || string(text) == "null" {
		fieldv.Set(reflect.Zero(fieldv.Type()))
		return nil
	}

	target := reflect.New(fieldv.Type())
	if err := json.Unmarshal(text, target.Interface()); err != nil {
		return &FieldError{Field: fm.Column, Message: err.Error(), Kind: ErrKindType}
	}
	fieldv.Set(target.Elem())
	return nil
}

func isNumeric(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	}
	return false
}

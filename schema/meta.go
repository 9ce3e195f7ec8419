package schema

import (
	"fmt"
	"reflect"
)

// Meta is the schema descriptor for one model type: table name plus an
// ordered list of typed fields. It is built once per type by Introspect
// and never mutated afterwards, so it is safe to share between any
// number of statement builders.
type Meta struct {
	Type      reflect.Type
	Name      string
	TableName string
	Fields    []*FieldMeta
	FieldMap  map[string]*FieldMeta // Go field name -> FieldMeta
	ColumnMap map[string]*FieldMeta // database column name -> FieldMeta
}

// FieldMeta describes one model field.
type FieldMeta struct {
	Name      string       // Go field name
	Column    string       // database column name
	GoType    reflect.Type // declared Go type
	Type      Type         // semantic type used for validation
	Index     []int        // reflect field index path
	Generator IDGenerator  // optional auto-generation on insert
}

// Columns returns the field column names in declaration order.
func (m *Meta) Columns() []string {
	cols := make([]string, len(m.Fields))
	for i, f := range m.Fields {
		cols[i] = f.Column
	}
	return cols
}

// Field looks a field up by its database column name.
func (m *Meta) Field(column string) (*FieldMeta, bool) {
	f, ok := m.ColumnMap[column]
	return f, ok
}

// buildMeta constructs the descriptor for a struct type. Pointer types
// are dereferenced; non-struct types are rejected.
func buildMeta(t reflect.Type, naming NamingStrategy) (*Meta, error) {
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return nil, fmt.Errorf("invalid model type: %s (expected struct)", t.Kind())
	}

	numFields := t.NumField()
	meta := &Meta{
		Type:      t,
		Name:      t.Name(),
		Fields:    make([]*FieldMeta, 0, numFields),
		FieldMap:  make(map[string]*FieldMeta, numFields),
		ColumnMap: make(map[string]*FieldMeta, numFields),
	}

	if tn, ok := reflect.New(t).Interface().(TableNamer); ok {
		meta.TableName = tn.TableName()
	} else {
		meta.TableName = naming.TableName(t.Name())
	}

	for i := 0; i < numFields; i++ {
		f := t.Field(i)
		if !f.IsExported() || f.Anonymous {
			continue
		}

		tag, err := parseTag(f.Name, f.Tag.Get("db"), naming)
		if err != nil {
			return nil, err
		}
		if tag.Skip {
			continue
		}

		fm := &FieldMeta{
			Name:   f.Name,
			Column: tag.ColumnName,
			GoType: f.Type,
			Index:  f.Index,
		}
		if tag.JSONB {
			fm.Type = jsonType(f.Type)
		} else {
			fm.Type = TypeOf(f.Type)
		}
		if tag.Generator != "" {
			fm.Generator = generators[tag.Generator]
		}

		meta.Fields = append(meta.Fields, fm)
		meta.FieldMap[f.Name] = fm
		meta.ColumnMap[fm.Column] = fm
	}

	if len(meta.Fields) == 0 {
		return nil, fmt.Errorf("model type %s has no usable fields", t.Name())
	}
	return meta, nil
}

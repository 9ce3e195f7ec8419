package query

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/Konsultn-Engineering/typeq/schema"
)

// Query is the statement factory for one model type. Building it
// introspects the model once; every produced Builder shares the cached
// schema descriptor.
type Query[T any] struct {
	meta *schema.Meta
}

// For builds a statement factory for the model type T.
func For[T any]() (*Query[T], error) {
	meta, err := schema.Introspect(reflect.TypeFor[T]())
	if err != nil {
		return nil, err
	}
	return &Query[T]{meta: meta}, nil
}

// MustFor is For, panicking on introspection failure. Intended for
// package-level statement declarations.
func MustFor[T any]() *Query[T] {
	q, err := For[T]()
	if err != nil {
		panic(err)
	}
	return q
}

// Meta returns the model's schema descriptor.
func (q *Query[T]) Meta() *schema.Meta { return q.meta }

func (q *Query[T]) newBuilder() *Builder[T] {
	return &Builder[T]{meta: q.meta}
}

// SelectOption customizes a Select statement skeleton.
type SelectOption func(*selectConfig)

type selectConfig struct {
	selection string
	alias     string
}

// WithSelection overrides the default field list (e.g. "COUNT(*)").
func WithSelection(selection string) SelectOption {
	return func(c *selectConfig) { c.selection = selection }
}

// WithAlias aliases the table and prefixes the default field list.
func WithAlias(alias string) SelectOption {
	return func(c *selectConfig) { c.alias = alias }
}

// Select produces a row-returning statement selecting the model's
// fields (or an explicit selection) from its table.
func (q *Query[T]) Select(opts ...SelectOption) *Builder[T] {
	var cfg selectConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	selection := cfg.selection
	if selection == "" {
		prefix := ""
		if cfg.alias != "" {
			prefix = cfg.alias + "."
		}
		cols := q.meta.Columns()
		prefixed := make([]string, len(cols))
		for i, col := range cols {
			prefixed[i] = prefix + col
		}
		selection = strings.Join(prefixed, ", ")
	}

	table := q.meta.TableName
	if cfg.alias != "" {
		table += " " + cfg.alias
	}

	b := q.newBuilder()
	b.sql = "SELECT " + selection + " FROM " + table
	b.returnsRows = true
	return b
}

// Delete produces a DELETE statement for the model's table.
func (q *Query[T]) Delete() *Builder[T] {
	b := q.newBuilder()
	b.sql = "DELETE FROM " + q.meta.TableName
	return b
}

// Set describes one assignment of an UPDATE statement.
//
// Field and Expr deliberately register arguments differently: a Field
// always adds an argument named after the column, while an Expr adds
// arguments only for the references embedded in its expression text.
type Set struct {
	column  string
	expr    string
	isField bool
}

// Field assigns a model field from a same-named argument
// (`col = $N`).
func Field(name string) Set {
	return Set{column: name, isField: true}
}

// Expr assigns a column from an expression parsed for argument
// references (`col = <expr>`).
func Expr(column, expr string) Set {
	return Set{column: column, expr: expr}
}

// Update produces an UPDATE statement from an ordered assignment list.
func (q *Query[T]) Update(sets ...Set) *Builder[T] {
	b := q.newBuilder()
	if len(sets) == 0 {
		return b.withErr(configErrorf("update requires at least one assignment"))
	}

	assignments := make([]string, 0, len(sets))
	for _, set := range sets {
		if set.isField {
			field, ok := q.meta.Field(set.column)
			if !ok {
				return b.withErr(configErrorf("model %s has no field %q", q.meta.Name, set.column))
			}
			ref, b2 := b.withArg(set.column, field.Type)
			b = b2
			assignments = append(assignments, set.column+" = "+ref)
			continue
		}

		parsed, b2 := b.parseFragment(set.expr)
		if b2.err != nil {
			return b2
		}
		b = b2
		assignments = append(assignments, set.column+" = "+parsed)
	}

	return b.withSQL("UPDATE " + q.meta.TableName + " SET " + strings.Join(assignments, ", "))
}

// DynamicUpdate produces an UPDATE statement whose SET clause is
// assembled at execution time from whichever extra values the caller
// supplies beyond the fixed arguments. The fixed SQL carries a
// {dynamic} marker until then.
func (q *Query[T]) DynamicUpdate() *Builder[T] {
	b := q.newBuilder()
	b.sql = "UPDATE " + q.meta.TableName + " SET " + dynamicMarker
	b.dynamic = true
	return b
}

// InsertOption customizes an Insert statement skeleton.
type InsertOption func(*insertConfig)

type insertConfig struct {
	exclude map[string]bool
	exprs   []Set
	body    bool
}

// WithExclude skips the named model fields.
func WithExclude(fields ...string) InsertOption {
	return func(c *insertConfig) {
		if c.exclude == nil {
			c.exclude = make(map[string]bool, len(fields))
		}
		for _, f := range fields {
			c.exclude[f] = true
		}
	}
}

// WithExpr overrides a column's value with an expression parsed for
// argument references.
func WithExpr(column, expr string) InsertOption {
	return func(c *insertConfig) {
		c.exprs = append(c.exprs, Expr(column, expr))
	}
}

// WithBody binds the whole row as a single argument named after the
// model, spread into per-field positional values at execution time.
func WithBody() InsertOption {
	return func(c *insertConfig) { c.body = true }
}

// Insert produces an INSERT statement with one argument per model field
// not excluded or overridden by an expression.
func (q *Query[T]) Insert(opts ...InsertOption) *Builder[T] {
	var cfg insertConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	b := q.newBuilder()
	if cfg.body {
		if len(cfg.exclude) > 0 {
			return b.withErr(configErrorf("insert body cannot be combined with excluded fields"))
		}
		return q.insertBody(b, cfg)
	}

	overridden := make(map[string]bool, len(cfg.exprs))
	for _, e := range cfg.exprs {
		overridden[e.column] = true
	}

	columns := make([]string, 0, len(q.meta.Fields))
	values := make([]string, 0, len(q.meta.Fields))

	for _, field := range q.meta.Fields {
		if cfg.exclude[field.Column] || overridden[field.Column] {
			continue
		}
		ref, b2 := b.appendArg(Argument{
			Name:      field.Column,
			Type:      field.Type,
			Width:     1,
			Generator: field.Generator,
		})
		b = b2
		columns = append(columns, field.Column)
		values = append(values, ref)
	}

	for _, e := range cfg.exprs {
		parsed, b2 := b.parseFragment(e.expr)
		if b2.err != nil {
			return b2
		}
		b = b2
		columns = append(columns, e.column)
		values = append(values, parsed)
	}

	return b.withSQL(fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		q.meta.TableName, strings.Join(columns, ", "), strings.Join(values, ", ")))
}

// insertBody builds the splat variant: one argument holding the whole
// model, expanded into every field value in declaration order.
func (q *Query[T]) insertBody(b *Builder[T], cfg insertConfig) *Builder[T] {
	meta := q.meta
	fields := meta.Fields

	columns := make([]string, len(fields))
	values := make([]string, len(fields))
	for i := range fields {
		columns[i] = fields[i].Column
		values[i] = placeholder(i + 1)
	}

	_, b = b.appendArg(Argument{
		Name:  schema.SnakeCase(meta.Name),
		Type:  schema.AnyType,
		Width: len(fields),
		Splat: splatModel[T](meta),
	})

	for _, e := range cfg.exprs {
		parsed, b2 := b.parseFragment(e.expr)
		if b2.err != nil {
			return b2
		}
		b = b2
		columns = append(columns, e.column)
		values = append(values, parsed)
	}

	return b.withSQL(fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		meta.TableName, strings.Join(columns, ", "), strings.Join(values, ", ")))
}

// splatModel spreads a model instance (or pointer to one) into its
// field values, JSON containers already encoded to their wire form.
func splatModel[T any](meta *schema.Meta) SplatFunc {
	return func(value any) ([]any, error) {
		v := reflect.ValueOf(value)
		if v.Kind() == reflect.Ptr {
			if v.IsNil() {
				return nil, fmt.Errorf("nil %s body", meta.Name)
			}
			v = v.Elem()
		}
		if !v.IsValid() || v.Type() != meta.Type {
			return nil, fmt.Errorf("body must be %s or *%s, got %T", meta.Name, meta.Name, value)
		}

		out := make([]any, len(meta.Fields))
		for i, field := range meta.Fields {
			fv := v.FieldByIndex(field.Index).Interface()
			if field.Type.IsJSON() {
				encoded, err := schema.EncodeJSONValue(fv)
				if err != nil {
					return nil, err
				}
				fv = encoded
			}
			out[i] = fv
		}
		return out, nil
	}
}

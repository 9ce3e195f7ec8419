package query

import (
	"context"
	"fmt"

	"github.com/Konsultn-Engineering/typeq/schema"
)

// Args carries the named values supplied at execution time.
type Args map[string]any

// statement is the finished, immutable form shared by every execution
// strategy: the fixed SQL, the argument registry, and the validation
// schema derived from it.
type statement[T any] struct {
	meta    *schema.Meta
	sql     string
	args    []Argument
	fields  []schema.ArgField
	dynamic bool
}

func newStatement[T any](b *Builder[T]) statement[T] {
	return statement[T]{
		meta:    b.meta,
		sql:     b.sql,
		args:    b.Args(),
		fields:  argFields(b.args),
		dynamic: b.dynamic,
	}
}

// SQL returns the statement text. Dynamic statements still carry their
// {dynamic} marker; the final text exists only per call.
func (s *statement[T]) SQL() string { return s.sql }

// bind runs one atomic validation pass over the supplied values and
// serializes them to the positional array the wire protocol expects:
// generated defaults injected, splats expanded in order, JSON
// containers encoded to text. For dynamic statements it also assembles
// the final SQL.
func (s *statement[T]) bind(values Args) (string, []any, error) {
	if s.dynamic {
		return s.bindDynamic(values)
	}

	positional, err := s.bindFixed(values)
	if err != nil {
		return "", nil, err
	}
	return s.sql, positional, nil
}

func (s *statement[T]) bindFixed(values Args) ([]any, error) {
	values = s.withGenerated(values)

	validated, err := schema.ValidateValues(s.fields, values)
	if err != nil {
		return nil, err
	}

	positional := make([]any, 0, len(s.args))
	for _, arg := range s.args {
		value := validated[arg.Name]

		if arg.Splat != nil {
			expanded, err := arg.Splat(value)
			if err != nil {
				return nil, &ValidationError{Errors: []FieldError{{
					Field:   arg.Name,
					Message: err.Error(),
					Kind:    schema.ErrKindType,
				}}}
			}
			if len(expanded) != arg.Width {
				return nil, fmt.Errorf("argument %s expanded to %d values, want %d", arg.Name, len(expanded), arg.Width)
			}
			positional = append(positional, expanded...)
			continue
		}

		if arg.Type.IsJSON() {
			encoded, err := schema.EncodeJSONValue(value)
			if err != nil {
				return nil, err
			}
			value = encoded
		}
		positional = append(positional, value)
	}
	return positional, nil
}

// withGenerated fills in values for auto-generated arguments the caller
// omitted. The caller's map is never mutated.
func (s *statement[T]) withGenerated(values Args) Args {
	var out Args
	for _, arg := range s.args {
		if arg.Generator == nil {
			continue
		}
		if _, supplied := values[arg.Name]; supplied {
			continue
		}
		if out == nil {
			out = make(Args, len(values)+1)
			for k, v := range values {
				out[k] = v
			}
		}
		generated, err := arg.Generator.Generate()
		if err != nil {
			continue // surfaces as a missing-field validation error
		}
		out[arg.Name] = generated
	}
	if out == nil {
		return values
	}
	return out
}

// ExecuteStmt sends the statement and discards any result.
type ExecuteStmt[T any] struct {
	statement[T]
}

// Execute finalizes the builder into an execute strategy.
func (b *Builder[T]) Execute() (*ExecuteStmt[T], error) {
	if b.err != nil {
		return nil, b.err
	}
	return &ExecuteStmt[T]{newStatement(b)}, nil
}

// Exec validates the values and sends the statement. Driver errors pass
// through untouched.
func (m *ExecuteStmt[T]) Exec(ctx context.Context, conn Conn, values Args) error {
	sql, positional, err := m.bind(values)
	if err != nil {
		return err
	}
	return conn.Exec(ctx, sql, positional...)
}

// PrepareStmt obtains a server-side prepared statement handle.
type PrepareStmt[T any] struct {
	statement[T]
}

// Prepare finalizes the builder into a prepare strategy. Dynamic
// statements cannot be prepared: their final SQL does not exist until
// call time.
func (b *Builder[T]) Prepare() (*PrepareStmt[T], error) {
	if b.err != nil {
		return nil, b.err
	}
	if b.dynamic {
		return nil, configErrorf("cannot prepare a dynamic statement")
	}
	return &PrepareStmt[T]{newStatement(b)}, nil
}

// Prepare returns the connection's opaque prepared-statement handle.
func (m *PrepareStmt[T]) Prepare(ctx context.Context, conn Conn) (PreparedStatement, error) {
	return conn.Prepare(ctx, m.sql)
}

// FetchOneStmt sends the statement and decodes the first row into a
// model instance.
type FetchOneStmt[T any] struct {
	statement[T]
}

// FetchOne finalizes the builder into a fetch-one strategy. It is a
// configuration error on a statement that returns no rows.
func (b *Builder[T]) FetchOne() (*FetchOneStmt[T], error) {
	if b.err != nil {
		return nil, b.err
	}
	if !b.returnsRows {
		return nil, configErrorf("cannot fetch from a statement that does not return rows")
	}
	return &FetchOneStmt[T]{newStatement(b)}, nil
}

// Fetch executes the statement and decodes the first row. It returns
// ErrNotFound when the statement produced no rows and a
// *ValidationError when the row cannot be mapped onto the model.
func (m *FetchOneStmt[T]) Fetch(ctx context.Context, conn Conn, values Args) (*T, error) {
	sql, positional, err := m.bind(values)
	if err != nil {
		return nil, err
	}

	row, err := conn.FetchRow(ctx, sql, positional...)
	if err != nil {
		return nil, err
	}
	if row == nil {
		return nil, ErrNotFound
	}

	model := new(T)
	if err := schema.DecodeRow(m.meta, row.Columns, row.Values, model); err != nil {
		return nil, err
	}
	return model, nil
}

// FetchAllStmt sends the statement and decodes every row.
type FetchAllStmt[T any] struct {
	statement[T]
}

// FetchAll finalizes the builder into a fetch-all strategy. It is a
// configuration error on a statement that returns no rows.
func (b *Builder[T]) FetchAll() (*FetchAllStmt[T], error) {
	if b.err != nil {
		return nil, b.err
	}
	if !b.returnsRows {
		return nil, configErrorf("cannot fetch from a statement that does not return rows")
	}
	return &FetchAllStmt[T]{newStatement(b)}, nil
}

// Fetch executes the statement and decodes every row into model
// instances. One undecodable row fails the whole call.
func (m *FetchAllStmt[T]) Fetch(ctx context.Context, conn Conn, values Args) ([]*T, error) {
	sql, positional, err := m.bind(values)
	if err != nil {
		return nil, err
	}

	rows, err := conn.Fetch(ctx, sql, positional...)
	if err != nil {
		return nil, err
	}

	models := make([]*T, 0, len(rows))
	for i := range rows {
		model := new(T)
		if err := schema.DecodeRow(m.meta, rows[i].Columns, rows[i].Values, model); err != nil {
			return nil, err
		}
		models = append(models, model)
	}
	return models, nil
}

// Tuples executes the statement and returns the raw row values in
// result order, without decoding.
func (m *FetchAllStmt[T]) Tuples(ctx context.Context, conn Conn, values Args) ([][]any, error) {
	sql, positional, err := m.bind(values)
	if err != nil {
		return nil, err
	}

	rows, err := conn.Fetch(ctx, sql, positional...)
	if err != nil {
		return nil, err
	}

	tuples := make([][]any, len(rows))
	for i := range rows {
		tuples[i] = rows[i].Values
	}
	return tuples, nil
}

// Cursor executes the statement through the connection's cursor and
// streams decoded rows lazily. The stream is forward-only and
// non-restartable; abandoning it early only requires Close.
func (m *FetchAllStmt[T]) Cursor(ctx context.Context, conn Conn, values Args) (*Cursor[T], error) {
	sql, positional, err := m.bind(values)
	if err != nil {
		return nil, err
	}

	rows, err := conn.Cursor(ctx, sql, positional...)
	if err != nil {
		return nil, err
	}
	return &Cursor[T]{meta: m.meta, rows: rows}, nil
}

// Cursor is a lazy stream of decoded models over a server-side cursor.
type Cursor[T any] struct {
	meta    *schema.Meta
	rows    RowCursor
	current *T
	err     error
}

// Next advances to the next row, decoding it. It returns false at the
// end of the stream or on the first error; check Err afterwards.
func (c *Cursor[T]) Next() bool {
	if c.err != nil {
		return false
	}
	if !c.rows.Next() {
		c.err = c.rows.Err()
		return false
	}

	row, err := c.rows.Row()
	if err != nil {
		c.err = err
		return false
	}

	model := new(T)
	if err := schema.DecodeRow(c.meta, row.Columns, row.Values, model); err != nil {
		c.err = err
		return false
	}
	c.current = model
	return true
}

// Model returns the row decoded by the last successful Next.
func (c *Cursor[T]) Model() *T { return c.current }

// Err returns the first error encountered while streaming.
func (c *Cursor[T]) Err() error { return c.err }

// Close releases the underlying query. Safe to call at any point.
func (c *Cursor[T]) Close() { c.rows.Close() }

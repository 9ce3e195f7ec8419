package query

import "context"

// Conn is the connection capability a finished statement executes
// against. The library never owns a connection: callers acquire one
// (pooled or not), pass it to a single call, and release it themselves.
// Transaction boundaries, cancellation, and timeouts all belong to the
// connection's own semantics.
type Conn interface {
	// Exec sends the statement and discards any result.
	Exec(ctx context.Context, sql string, args ...any) error
	// FetchRow returns the first row, or nil when the statement
	// produced none.
	FetchRow(ctx context.Context, sql string, args ...any) (*Row, error)
	// Fetch returns every row.
	Fetch(ctx context.Context, sql string, args ...any) ([]Row, error)
	// FetchValue returns the first column of the first row.
	FetchValue(ctx context.Context, sql string, args ...any) (any, error)
	// Prepare returns an opaque server-side prepared statement handle.
	Prepare(ctx context.Context, sql string) (PreparedStatement, error)
	// Cursor streams rows lazily. The returned cursor is forward-only
	// and bound to the lifetime of the underlying query.
	Cursor(ctx context.Context, sql string, args ...any) (RowCursor, error)
}

// Row is one returned row: column names in result order plus the
// matching values.
type Row struct {
	Columns []string
	Values  []any
}

// Get returns the value for a column, and whether the column exists.
func (r *Row) Get(column string) (any, bool) {
	for i, c := range r.Columns {
		if c == column {
			return r.Values[i], true
		}
	}
	return nil, false
}

// PreparedStatement is the opaque handle returned by Conn.Prepare.
type PreparedStatement interface {
	Name() string
	SQL() string
}

// RowCursor is a lazy, forward-only row stream. Abandoning it early is
// allowed; Close releases the underlying query.
type RowCursor interface {
	Next() bool
	Row() (Row, error)
	Err() error
	Close()
}

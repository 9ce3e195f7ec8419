// Package database adapts pgx connections to the query.Conn capability.
package database

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Konsultn-Engineering/typeq/cache"
	"github.com/Konsultn-Engineering/typeq/query"
)

// defaultStatementCacheSize bounds the per-connection prepared
// statement cache.
const defaultStatementCacheSize = 128

// PgxConn implements query.Conn over a single *pgx.Conn. The caller
// owns the connection's lifecycle; typeq never holds it across more
// than one logical call. Prepared statements are cached per connection
// and deallocated on eviction.
type PgxConn struct {
	conn  *pgx.Conn
	stmts *cache.StatementCache
}

// NewPgxConn wraps an acquired pgx connection.
func NewPgxConn(conn *pgx.Conn) *PgxConn {
	c := &PgxConn{conn: conn}
	c.stmts = cache.NewStatementCache(defaultStatementCacheSize, func(_ uint64, stmt query.PreparedStatement) {
		// Best effort: the statement may already be gone with the session.
		_ = conn.Deallocate(context.Background(), stmt.Name())
	})
	return c
}

// Conn returns the underlying pgx connection.
func (c *PgxConn) Conn() *pgx.Conn { return c.conn }

// Exec sends the statement and discards the result.
func (c *PgxConn) Exec(ctx context.Context, sql string, args ...any) error {
	_, err := c.conn.Exec(ctx, sql, args...)
	return err
}

// FetchRow returns the first row, or nil when there is none.
func (c *PgxConn) FetchRow(ctx context.Context, sql string, args ...any) (*query.Row, error) {
	rows, err := c.conn.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, rows.Err()
	}
	row, err := rowFrom(rows)
	if err != nil {
		return nil, err
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return &row, nil
}

// Fetch returns every row.
func (c *PgxConn) Fetch(ctx context.Context, sql string, args ...any) ([]query.Row, error) {
	rows, err := c.conn.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []query.Row
	for rows.Next() {
		row, err := rowFrom(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

// FetchValue returns the first column of the first row.
func (c *PgxConn) FetchValue(ctx context.Context, sql string, args ...any) (any, error) {
	var value any
	err := c.conn.QueryRow(ctx, sql, args...).Scan(&value)
	if err != nil {
		return nil, err
	}
	return value, nil
}

// Prepare returns a server-side prepared statement handle, cached per
// connection by statement text.
func (c *PgxConn) Prepare(ctx context.Context, sql string) (query.PreparedStatement, error) {
	key := cache.StatementKey(sql)
	return c.stmts.GetOrPrepare(key, func() (query.PreparedStatement, error) {
		name := fmt.Sprintf("typeq_%016x", key)
		sd, err := c.conn.Prepare(ctx, name, sql)
		if err != nil {
			return nil, err
		}
		return &pgxPrepared{name: sd.Name, sql: sd.SQL}, nil
	})
}

// Cursor streams rows lazily. pgx rows already read incrementally from
// the wire, so the returned cursor is a thin wrapper.
func (c *PgxConn) Cursor(ctx context.Context, sql string, args ...any) (query.RowCursor, error) {
	rows, err := c.conn.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	return &pgxCursor{rows: rows}, nil
}

// Close closes the underlying connection after purging the statement
// cache.
func (c *PgxConn) Close(ctx context.Context) error {
	c.stmts.Purge()
	return c.conn.Close(ctx)
}

type pgxPrepared struct {
	name string
	sql  string
}

func (p *pgxPrepared) Name() string { return p.name }
func (p *pgxPrepared) SQL() string  { return p.sql }

type pgxCursor struct {
	rows pgx.Rows
}

func (c *pgxCursor) Next() bool { return c.rows.Next() }

func (c *pgxCursor) Row() (query.Row, error) {
	return rowFrom(c.rows)
}

func (c *pgxCursor) Err() error { return c.rows.Err() }

func (c *pgxCursor) Close() { c.rows.Close() }

// rowFrom copies the current pgx row into a query.Row.
func rowFrom(rows pgx.Rows) (query.Row, error) {
	fds := rows.FieldDescriptions()
	columns := make([]string, len(fds))
	for i, fd := range fds {
		columns[i] = fd.Name
	}
	values, err := rows.Values()
	if err != nil {
		return query.Row{}, err
	}
	return query.Row{Columns: columns, Values: values}, nil
}

// PgxPool implements query.Conn over a *pgxpool.Pool for callers that
// do not need explicit connection pinning. Prepare is not supported
// here: pgxpool prepares statements automatically per connection; use
// Acquire for an explicit handle.
type PgxPool struct {
	pool *pgxpool.Pool
}

// NewPgxPool wraps a pgx connection pool.
func NewPgxPool(pool *pgxpool.Pool) *PgxPool {
	return &PgxPool{pool: pool}
}

// Pool returns the underlying pgx pool.
func (p *PgxPool) Pool() *pgxpool.Pool { return p.pool }

// Acquire checks a connection out of the pool and wraps it. The release
// function must be called once the caller is done with it.
func (p *PgxPool) Acquire(ctx context.Context) (*PgxConn, func(), error) {
	poolConn, err := p.pool.Acquire(ctx)
	if err != nil {
		return nil, nil, err
	}
	return NewPgxConn(poolConn.Conn()), poolConn.Release, nil
}

// Exec sends the statement and discards the result.
func (p *PgxPool) Exec(ctx context.Context, sql string, args ...any) error {
	_, err := p.pool.Exec(ctx, sql, args...)
	return err
}

// FetchRow returns the first row, or nil when there is none.
func (p *PgxPool) FetchRow(ctx context.Context, sql string, args ...any) (*query.Row, error) {
	rows, err := p.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, rows.Err()
	}
	row, err := rowFrom(rows)
	if err != nil {
		return nil, err
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return &row, nil
}

// Fetch returns every row.
func (p *PgxPool) Fetch(ctx context.Context, sql string, args ...any) ([]query.Row, error) {
	rows, err := p.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []query.Row
	for rows.Next() {
		row, err := rowFrom(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

// FetchValue returns the first column of the first row.
func (p *PgxPool) FetchValue(ctx context.Context, sql string, args ...any) (any, error) {
	var value any
	err := p.pool.QueryRow(ctx, sql, args...).Scan(&value)
	if err != nil {
		return nil, err
	}
	return value, nil
}

// Prepare is not supported on a pool: pgxpool prepares statements
// automatically per connection. Acquire a connection for an explicit
// handle.
func (p *PgxPool) Prepare(ctx context.Context, sql string) (query.PreparedStatement, error) {
	return nil, fmt.Errorf("prepare not supported on a pool; acquire a connection first")
}

// Cursor streams rows lazily from a pooled connection.
func (p *PgxPool) Cursor(ctx context.Context, sql string, args ...any) (query.RowCursor, error) {
	rows, err := p.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	return &pgxCursor{rows: rows}, nil
}

// Close closes the pool.
func (p *PgxPool) Close() {
	p.pool.Close()
}

var (
	_ query.Conn = (*PgxConn)(nil)
	_ query.Conn = (*PgxPool)(nil)
)

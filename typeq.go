package typeq

import (
	"context"

	"github.com/Konsultn-Engineering/typeq/connector"
	"github.com/Konsultn-Engineering/typeq/database"
	"github.com/Konsultn-Engineering/typeq/query"
	"github.com/Konsultn-Engineering/typeq/schema"
)

// Args carries the named values supplied when a statement executes.
type Args = query.Args

// Conn is the connection capability statements execute against.
type Conn = query.Conn

// Config is the connection configuration accepted by Connect.
type Config = connector.Config

// ErrNotFound is returned by fetch-one statements that matched no rows.
var ErrNotFound = query.ErrNotFound

// IsConfigError reports whether err is a statement construction error.
func IsConfigError(err error) bool { return query.IsConfigError(err) }

// For builds a statement factory for the model type T.
func For[T any]() (*query.Query[T], error) {
	return query.For[T]()
}

// MustFor is For, panicking on introspection failure. Intended for
// package-level statement declarations.
func MustFor[T any]() *query.Query[T] {
	return query.MustFor[T]()
}

// Must unwraps a finalized statement, panicking on a construction
// error. Pairs with package-level declarations:
//
//	var getUser = typeq.Must(users.Select().Where("id = {.id}").FetchOne())
func Must[S any](stmt S, err error) S {
	if err != nil {
		panic(err)
	}
	return stmt
}

// SetNamingStrategy replaces the strategy used to derive table names
// for models without a TableName method. Call before any model is
// introspected.
func SetNamingStrategy(s schema.NamingStrategy) {
	schema.SetNamingStrategy(s)
}

// Connect opens a configured pgx pool and verifies it with a ping.
func Connect(ctx context.Context, cfg Config) (*database.PgxPool, error) {
	return connector.Connect(ctx, cfg)
}

// Package typeq builds typed, validated SQL statements for pgx.
//
// Statements are declared once from a model type and executed many
// times with named arguments. The builder is immutable: every
// transformation returns a new value, so a partially built statement
// can branch into several finished ones.
//
//	type User struct {
//		ID    string `db:"generator:uuid"`
//		Email string
//		Age   int
//	}
//
//	var users = typeq.MustFor[User]()
//
//	var byEmail = typeq.Must(users.Select().
//		Where("email = {.email}").
//		FetchOne())
//
//	user, err := byEmail.Fetch(ctx, conn, typeq.Args{"email": "a@b.c"})
//
// SQL fragments reference arguments by name. `{.field}` binds an
// argument typed after a model field, `{name}` binds an untyped one,
// and `{name: int}` (also str, bool, float) binds with an explicit
// hint. Positional placeholders are allocated in first-appearance
// order; repeating a name reuses its placeholder.
//
// Values are validated before any I/O: a single call yields every
// per-field failure at once as a *ValidationError. Mis-constructed
// statements fail at build time with a *ConfigError.
package typeq

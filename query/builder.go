package query

import (
	"strconv"

	"github.com/Konsultn-Engineering/typeq/schema"
)

// Builder is an immutable statement under construction: the SQL text
// accumulated so far, the ordered argument registry, and whether the
// statement yields rows. Every transformation returns a new Builder and
// leaves the receiver untouched, so several variant statements can be
// branched from a shared prefix.
type Builder[T any] struct {
	meta        *schema.Meta
	sql         string
	args        []Argument
	slots       int // positional slots consumed; >= len(args) when splats are present
	returnsRows bool
	dynamic     bool
	err         error
}

// clone copies the builder, including its argument registry.
// Copy-on-write: two builders derived from one ancestor never share a
// backing array.
func (b *Builder[T]) clone() *Builder[T] {
	next := *b
	next.args = make([]Argument, len(b.args))
	copy(next.args, b.args)
	return &next
}

func (b *Builder[T]) withErr(err error) *Builder[T] {
	if b.err != nil {
		return b
	}
	next := b.clone()
	next.err = err
	return next
}

// withSQL appends a clause, separating it from existing text with a
// single space.
func (b *Builder[T]) withSQL(contents string) *Builder[T] {
	next := b.clone()
	if next.sql != "" {
		contents = " " + contents
	}
	next.sql += contents
	return next
}

// withArg resolves a named argument to its positional placeholder,
// registering it at the next free slot when unseen. The first
// occurrence's declared type wins; later references with the same name
// reuse the original slot unchanged.
func (b *Builder[T]) withArg(name string, declared schema.Type) (string, *Builder[T]) {
	if existing := findArg(b.args, name); existing != nil {
		return placeholder(existing.Index), b
	}
	return b.appendArg(Argument{Name: name, Type: declared, Width: 1})
}

// appendArg registers a new argument at the next free positional slot.
// The caller guarantees the name is unseen.
func (b *Builder[T]) appendArg(arg Argument) (string, *Builder[T]) {
	next := b.clone()
	if arg.Width < 1 {
		arg.Width = 1
	}
	arg.Index = next.slots + 1
	next.slots += arg.Width
	next.args = append(next.args, arg)
	return placeholder(arg.Index), next
}

func (b *Builder[T]) withReturnsRows() *Builder[T] {
	next := b.clone()
	next.returnsRows = true
	return next
}

// SQL returns the statement text accumulated so far.
func (b *Builder[T]) SQL() string { return b.sql }

// Args returns a copy of the argument registry in positional order.
func (b *Builder[T]) Args() []Argument {
	args := make([]Argument, len(b.args))
	copy(args, b.args)
	return args
}

// ReturnsRows reports whether the statement yields rows (SELECT, or a
// RETURNING clause was applied).
func (b *Builder[T]) ReturnsRows() bool { return b.returnsRows }

// Err returns the first configuration error recorded during
// construction, if any. Terminal operations surface it as well.
func (b *Builder[T]) Err() error { return b.err }

// Where appends a WHERE clause. The condition may embed argument
// references.
func (b *Builder[T]) Where(condition string) *Builder[T] {
	if b.err != nil {
		return b
	}
	parsed, b2 := b.parseFragment(condition)
	if b2.err != nil {
		return b2
	}
	return b2.withSQL("WHERE " + parsed)
}

// GroupBy appends a GROUP BY clause.
func (b *Builder[T]) GroupBy(target string) *Builder[T] {
	if b.err != nil {
		return b
	}
	parsed, b2 := b.parseFragment(target)
	if b2.err != nil {
		return b2
	}
	return b2.withSQL("GROUP BY " + parsed)
}

// OrderBy appends an ascending ORDER BY clause.
func (b *Builder[T]) OrderBy(target string) *Builder[T] {
	return b.OrderByDirection(target, "ASC")
}

// OrderByDirection appends an ORDER BY clause with an explicit
// direction. Both the target and the direction text are parsed for
// argument references.
func (b *Builder[T]) OrderByDirection(target, direction string) *Builder[T] {
	if b.err != nil {
		return b
	}
	parsedTarget, b2 := b.parseFragment(target)
	if b2.err != nil {
		return b2
	}
	parsedDirection, b3 := b2.parseFragment(direction)
	if b3.err != nil {
		return b3
	}
	return b3.withSQL("ORDER BY " + parsedTarget + " " + parsedDirection)
}

// JoinOption customizes a Join clause.
type JoinOption func(*joinConfig)

type joinConfig struct {
	alias     string
	direction string
}

// WithJoinAlias aliases the joined table.
func WithJoinAlias(alias string) JoinOption {
	return func(c *joinConfig) { c.alias = alias }
}

// WithJoinDirection prefixes the join keyword (LEFT, RIGHT, FULL...).
func WithJoinDirection(direction string) JoinOption {
	return func(c *joinConfig) { c.direction = direction }
}

// Join appends a JOIN clause. The target is either a raw table name, a
// *schema.Meta, or any value implementing schema.TableNamer; the on
// condition may embed argument references.
func (b *Builder[T]) Join(target any, on string, opts ...JoinOption) *Builder[T] {
	if b.err != nil {
		return b
	}

	var table string
	switch t := target.(type) {
	case string:
		table = t
	case *schema.Meta:
		table = t.TableName
	case schema.TableNamer:
		table = t.TableName()
	default:
		return b.withErr(configErrorf("unsupported join target %T", target))
	}

	var cfg joinConfig
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.alias != "" {
		table += " " + cfg.alias
	}

	parsed, b2 := b.parseFragment(on)
	if b2.err != nil {
		return b2
	}

	clause := "JOIN " + table + " ON " + parsed
	if cfg.direction != "" {
		clause = cfg.direction + " " + clause
	}
	return b2.withSQL(clause)
}

// OnConflict appends an ON CONFLICT clause with the default DO NOTHING
// action.
func (b *Builder[T]) OnConflict(conflict string) *Builder[T] {
	return b.OnConflictAction(conflict, "DO NOTHING")
}

// OnConflictAction appends an ON CONFLICT clause with an explicit
// action. The action text is parsed for argument references.
func (b *Builder[T]) OnConflictAction(conflict, action string) *Builder[T] {
	if b.err != nil {
		return b
	}
	parsed, b2 := b.parseFragment(action)
	if b2.err != nil {
		return b2
	}
	return b2.withSQL("ON CONFLICT (" + conflict + ") " + parsed)
}

// Returning appends RETURNING * and marks the statement as
// row-returning.
func (b *Builder[T]) Returning() *Builder[T] {
	if b.err != nil {
		return b
	}
	return b.withSQL("RETURNING *").withReturnsRows()
}

// Limit appends a LIMIT clause with an inline literal.
func (b *Builder[T]) Limit(amount int) *Builder[T] {
	if b.err != nil {
		return b
	}
	return b.withSQL("LIMIT " + strconv.Itoa(amount))
}

// LimitExpr appends a LIMIT clause from an expression that may embed
// argument references.
func (b *Builder[T]) LimitExpr(amount string) *Builder[T] {
	if b.err != nil {
		return b
	}
	parsed, b2 := b.parseFragment(amount)
	if b2.err != nil {
		return b2
	}
	return b2.withSQL("LIMIT " + parsed)
}

// Offset appends an OFFSET clause with an inline literal.
func (b *Builder[T]) Offset(amount int) *Builder[T] {
	if b.err != nil {
		return b
	}
	return b.withSQL("OFFSET " + strconv.Itoa(amount))
}

// OffsetExpr appends an OFFSET clause from an expression that may embed
// argument references.
func (b *Builder[T]) OffsetExpr(amount string) *Builder[T] {
	if b.err != nil {
		return b
	}
	parsed, b2 := b.parseFragment(amount)
	if b2.err != nil {
		return b2
	}
	return b2.withSQL("OFFSET " + parsed)
}

// Raw appends arbitrary SQL text after parsing it for argument
// references. The non-reference text is passed through verbatim.
func (b *Builder[T]) Raw(sql string) *Builder[T] {
	if b.err != nil {
		return b
	}
	parsed, b2 := b.parseFragment(sql)
	if b2.err != nil {
		return b2
	}
	return b2.withSQL(parsed)
}

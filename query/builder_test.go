package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Konsultn-Engineering/typeq/schema"
)

// Model matching the canonical three-column fixture used throughout the
// builder tests.
type Test struct {
	A string `db:"a"`
	B int    `db:"b"`
	C bool   `db:"c"`
}

func (Test) TableName() string { return "test" }

type Other struct {
	ID   int    `db:"id"`
	Name string `db:"name"`
}

func (Other) TableName() string { return "other" }

func testQuery(t *testing.T) *Query[Test] {
	t.Helper()
	q, err := For[Test]()
	require.NoError(t, err)
	return q
}

func TestSelect(t *testing.T) {
	q := testQuery(t)

	t.Run("basic where", func(t *testing.T) {
		b := q.Select().Where("a = {.a}")
		require.NoError(t, b.Err())
		assert.Equal(t, "SELECT a, b, c FROM test WHERE a = $1", b.SQL())
		assert.True(t, b.ReturnsRows())

		args := b.Args()
		require.Len(t, args, 1)
		assert.Equal(t, "a", args[0].Name)
		assert.Equal(t, schema.String, args[0].Type.Kind)
		assert.Equal(t, 1, args[0].Index)
	})

	t.Run("custom selection", func(t *testing.T) {
		b := q.Select(WithSelection("COUNT(*)"))
		assert.Equal(t, "SELECT COUNT(*) FROM test", b.SQL())
	})

	t.Run("alias prefixes fields", func(t *testing.T) {
		b := q.Select(WithAlias("t")).Where("t.a = {.a}")
		assert.Equal(t, "SELECT t.a, t.b, t.c FROM test t WHERE t.a = $1", b.SQL())
	})

	t.Run("repeated reference reuses placeholder", func(t *testing.T) {
		b := q.Select().Where("a = {.a} OR a != {.a}")
		require.NoError(t, b.Err())
		assert.Equal(t, "SELECT a, b, c FROM test WHERE a = $1 OR a != $1", b.SQL())
		assert.Len(t, b.Args(), 1)
	})

	t.Run("order by defaults ascending", func(t *testing.T) {
		b := q.Select().OrderBy("a")
		assert.Equal(t, "SELECT a, b, c FROM test ORDER BY a ASC", b.SQL())
	})

	t.Run("order by with direction", func(t *testing.T) {
		b := q.Select().OrderByDirection("b", "DESC")
		assert.Equal(t, "SELECT a, b, c FROM test ORDER BY b DESC", b.SQL())
	})

	t.Run("group by", func(t *testing.T) {
		b := q.Select(WithSelection("a, COUNT(*)")).GroupBy("a")
		assert.Equal(t, "SELECT a, COUNT(*) FROM test GROUP BY a", b.SQL())
	})

	t.Run("limit and offset literals", func(t *testing.T) {
		b := q.Select().Limit(10).Offset(20)
		assert.Equal(t, "SELECT a, b, c FROM test LIMIT 10 OFFSET 20", b.SQL())
	})

	t.Run("limit and offset expressions", func(t *testing.T) {
		b := q.Select().LimitExpr("{limit: int}").OffsetExpr("{offset: int}")
		require.NoError(t, b.Err())
		assert.Equal(t, "SELECT a, b, c FROM test LIMIT $1 OFFSET $2", b.SQL())

		args := b.Args()
		require.Len(t, args, 2)
		assert.Equal(t, "limit", args[0].Name)
		assert.Equal(t, schema.Int, args[0].Type.Kind)
		assert.Equal(t, "offset", args[1].Name)
		assert.Equal(t, schema.Int, args[1].Type.Kind)
	})

	t.Run("raw passthrough", func(t *testing.T) {
		b := q.Select().Raw("FOR UPDATE")
		assert.Equal(t, "SELECT a, b, c FROM test FOR UPDATE", b.SQL())
	})
}

func TestJoin(t *testing.T) {
	q := testQuery(t)
	other := MustFor[Other]()

	t.Run("string target", func(t *testing.T) {
		b := q.Select().Join("other", "other.id = test.b")
		assert.Equal(t, "SELECT a, b, c FROM test JOIN other ON other.id = test.b", b.SQL())
	})

	t.Run("meta target with options", func(t *testing.T) {
		b := q.Select(WithAlias("t")).
			Join(other.Meta(), "o.id = t.b", WithJoinAlias("o"), WithJoinDirection("LEFT"))
		assert.Equal(t, "SELECT t.a, t.b, t.c FROM test t LEFT JOIN other o ON o.id = t.b", b.SQL())
	})

	t.Run("table namer target", func(t *testing.T) {
		b := q.Select().Join(Other{}, "other.id = test.b")
		assert.Contains(t, b.SQL(), "JOIN other ON")
	})

	t.Run("unsupported target", func(t *testing.T) {
		b := q.Select().Join(42, "other.id = test.b")
		assert.Error(t, b.Err())
		assert.True(t, IsConfigError(b.Err()))
	})
}

func TestInsert(t *testing.T) {
	q := testQuery(t)

	t.Run("all fields", func(t *testing.T) {
		b := q.Insert()
		require.NoError(t, b.Err())
		assert.Equal(t, "INSERT INTO test (a, b, c) VALUES ($1, $2, $3)", b.SQL())
		assert.Len(t, b.Args(), 3)
	})

	t.Run("on conflict do nothing returning", func(t *testing.T) {
		b := q.Insert().OnConflict("a").Returning()
		assert.Equal(t,
			"INSERT INTO test (a, b, c) VALUES ($1, $2, $3) ON CONFLICT (a) DO NOTHING RETURNING *",
			b.SQL())
		assert.True(t, b.ReturnsRows())
	})

	t.Run("exclude fields", func(t *testing.T) {
		b := q.Insert(WithExclude("a", "c"))
		require.NoError(t, b.Err())
		assert.Equal(t, "INSERT INTO test (b) VALUES ($1)", b.SQL())
	})

	t.Run("expression override", func(t *testing.T) {
		b := q.Insert(WithExpr("b", "test({b})"))
		require.NoError(t, b.Err())
		assert.Equal(t, "INSERT INTO test (a, c, b) VALUES ($1, $2, test($3))", b.SQL())
	})

	t.Run("body binds a single splat argument", func(t *testing.T) {
		b := q.Insert(WithBody())
		require.NoError(t, b.Err())
		assert.Equal(t, "INSERT INTO test (a, b, c) VALUES ($1, $2, $3)", b.SQL())

		args := b.Args()
		require.Len(t, args, 1)
		assert.Equal(t, "test", args[0].Name)
		assert.Equal(t, 1, args[0].Index)
		assert.Equal(t, 3, args[0].Width)
		assert.NotNil(t, args[0].Splat)
	})

	t.Run("references after a splat keep slot accounting", func(t *testing.T) {
		b := q.Insert(WithBody()).OnConflictAction("a", "DO UPDATE SET b = {fallback: int}")
		require.NoError(t, b.Err())
		assert.Equal(t,
			"INSERT INTO test (a, b, c) VALUES ($1, $2, $3) ON CONFLICT (a) DO UPDATE SET b = $4",
			b.SQL())
	})

	t.Run("body with exclude is a config error", func(t *testing.T) {
		b := q.Insert(WithBody(), WithExclude("a"))
		assert.True(t, IsConfigError(b.Err()))
	})
}

func TestDelete(t *testing.T) {
	q := testQuery(t)

	b := q.Delete().Where("a = {.a}")
	require.NoError(t, b.Err())
	assert.Equal(t, "DELETE FROM test WHERE a = $1", b.SQL())
	assert.False(t, b.ReturnsRows())
}

func TestUpdate(t *testing.T) {
	q := testQuery(t)

	t.Run("field assignments share slots with conditions", func(t *testing.T) {
		b := q.Update(Field("b"), Field("a"), Field("c")).Where("a = {.a}")
		require.NoError(t, b.Err())
		assert.Equal(t, "UPDATE test SET b = $1, a = $2, c = $3 WHERE a = $2", b.SQL())
		assert.Len(t, b.Args(), 3)
	})

	t.Run("expression assignment", func(t *testing.T) {
		b := q.Update(Field("a"), Expr("c", "NOT c"))
		require.NoError(t, b.Err())
		assert.Equal(t, "UPDATE test SET a = $1, c = NOT c", b.SQL())
		assert.Len(t, b.Args(), 1)
	})

	t.Run("expression with reference", func(t *testing.T) {
		b := q.Update(Expr("b", "b + {delta: int}")).Where("a = {.a}")
		require.NoError(t, b.Err())
		assert.Equal(t, "UPDATE test SET b = b + $1 WHERE a = $2", b.SQL())
	})

	t.Run("no assignments is a config error", func(t *testing.T) {
		b := q.Update()
		assert.True(t, IsConfigError(b.Err()))
	})

	t.Run("unknown field is a config error", func(t *testing.T) {
		b := q.Update(Field("nope"))
		assert.True(t, IsConfigError(b.Err()))
		assert.Contains(t, b.Err().Error(), "nope")
	})
}

func TestDynamicUpdate(t *testing.T) {
	q := testQuery(t)

	b := q.DynamicUpdate().Where("a = {.a}")
	require.NoError(t, b.Err())
	assert.Equal(t, "UPDATE test SET {dynamic} WHERE a = $1", b.SQL())

	t.Run("prepare is rejected", func(t *testing.T) {
		_, err := b.Prepare()
		assert.True(t, IsConfigError(err))
	})
}

func TestBuilderImmutability(t *testing.T) {
	q := testQuery(t)

	base := q.Select()
	byA := base.Where("a = {.a}")
	byB := base.Where("b = {.b}").Limit(1)

	assert.Equal(t, "SELECT a, b, c FROM test", base.SQL())
	assert.Empty(t, base.Args())

	assert.Equal(t, "SELECT a, b, c FROM test WHERE a = $1", byA.SQL())
	assert.Equal(t, "SELECT a, b, c FROM test WHERE b = $1 LIMIT 1", byB.SQL())

	require.Len(t, byA.Args(), 1)
	require.Len(t, byB.Args(), 1)
	assert.Equal(t, "a", byA.Args()[0].Name)
	assert.Equal(t, "b", byB.Args()[0].Name)
}

func TestFirstDeclaredTypeWins(t *testing.T) {
	q := testQuery(t)

	b := q.Select().Where("b = {n: int} OR c = {n}")
	require.NoError(t, b.Err())
	args := b.Args()
	require.Len(t, args, 1)
	assert.Equal(t, schema.Int, args[0].Type.Kind)
}

func TestTerminalStrategies(t *testing.T) {
	q := testQuery(t)

	t.Run("fetch on a non-returning statement", func(t *testing.T) {
		_, err := q.Delete().Where("a = {.a}").FetchOne()
		assert.True(t, IsConfigError(err))

		_, err = q.Insert().FetchAll()
		assert.True(t, IsConfigError(err))
	})

	t.Run("returning enables fetching", func(t *testing.T) {
		_, err := q.Insert().Returning().FetchOne()
		assert.NoError(t, err)
	})

	t.Run("construction errors surface at the terminal", func(t *testing.T) {
		_, err := q.Select().Where("a = {.nope}").FetchAll()
		assert.True(t, IsConfigError(err))

		_, err = q.Update(Field("nope")).Execute()
		assert.True(t, IsConfigError(err))
	})
}

package schema

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateValues(t *testing.T) {
	fields := []ArgField{
		{Name: "a", Type: Type{Kind: String}},
		{Name: "b", Type: Type{Kind: Int}},
		{Name: "c", Type: Type{Kind: Bool}},
	}

	t.Run("valid values pass through", func(t *testing.T) {
		out, err := ValidateValues(fields, map[string]any{"a": "x", "b": 1, "c": true})
		require.NoError(t, err)
		assert.Equal(t, map[string]any{"a": "x", "b": 1, "c": true}, out)
	})

	t.Run("extra keys are ignored", func(t *testing.T) {
		out, err := ValidateValues(fields, map[string]any{"a": "x", "b": 1, "c": true, "zz": "?"})
		require.NoError(t, err)
		_, present := out["zz"]
		assert.False(t, present)
	})

	t.Run("every failure is reported at once", func(t *testing.T) {
		_, err := ValidateValues(fields, map[string]any{"b": "nope", "c": "yeet"})
		var verr *ValidationError
		require.ErrorAs(t, err, &verr)
		require.Len(t, verr.Errors, 3)

		byField := map[string]FieldError{}
		for _, fe := range verr.Errors {
			byField[fe.Field] = fe
		}
		assert.Equal(t, ErrKindMissing, byField["a"].Kind)
		assert.Equal(t, "field required", byField["a"].Message)
		assert.Equal(t, ErrKindType, byField["b"].Kind)
		assert.Equal(t, ErrKindType, byField["c"].Kind)
		assert.Equal(t, "value could not be parsed to a boolean", byField["c"].Message)
	})

	t.Run("nil rejected for required scalars", func(t *testing.T) {
		_, err := ValidateValues(fields, map[string]any{"a": nil, "b": 1, "c": true})
		var verr *ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Equal(t, ErrKindNull, verr.Errors[0].Kind)
		assert.Equal(t, "none is not an allowed value", verr.Errors[0].Message)
	})

	t.Run("nil accepted for optional, any and json", func(t *testing.T) {
		loose := []ArgField{
			{Name: "opt", Type: Type{Kind: Int, Optional: true}},
			{Name: "any", Type: AnyType},
			{Name: "doc", Type: Type{Kind: JSON}},
		}
		out, err := ValidateValues(loose, map[string]any{"opt": nil, "any": nil, "doc": nil})
		require.NoError(t, err)
		assert.Nil(t, out["opt"])
	})
}

func TestCoerceValue(t *testing.T) {
	t.Run("int accepts whole floats", func(t *testing.T) {
		v, ferr := coerceValue("n", Type{Kind: Int}, float64(42))
		require.Nil(t, ferr)
		assert.Equal(t, int64(42), v)

		_, ferr = coerceValue("n", Type{Kind: Int}, 4.5)
		require.NotNil(t, ferr)
		assert.Equal(t, ErrKindType, ferr.Kind)
	})

	t.Run("uint rejects negatives", func(t *testing.T) {
		_, ferr := coerceValue("n", Type{Kind: Uint}, -1)
		require.NotNil(t, ferr)

		v, ferr := coerceValue("n", Type{Kind: Uint}, 1)
		require.Nil(t, ferr)
		assert.Equal(t, 1, v)
	})

	t.Run("float accepts integers", func(t *testing.T) {
		_, ferr := coerceValue("n", Type{Kind: Float}, 3)
		assert.Nil(t, ferr)
	})

	t.Run("time", func(t *testing.T) {
		_, ferr := coerceValue("ts", Type{Kind: Time}, time.Now())
		assert.Nil(t, ferr)

		_, ferr = coerceValue("ts", Type{Kind: Time}, "2026-01-01")
		assert.NotNil(t, ferr)
	})

	t.Run("uuid parses common wire shapes", func(t *testing.T) {
		id := uuid.New()

		v, ferr := coerceValue("id", Type{Kind: UUID}, id)
		require.Nil(t, ferr)
		assert.Equal(t, id, v)

		v, ferr = coerceValue("id", Type{Kind: UUID}, id.String())
		require.Nil(t, ferr)
		assert.Equal(t, id, v)

		v, ferr = coerceValue("id", Type{Kind: UUID}, [16]byte(id))
		require.Nil(t, ferr)
		assert.Equal(t, id, v)

		_, ferr = coerceValue("id", Type{Kind: UUID}, "not-a-uuid")
		assert.NotNil(t, ferr)
	})

	t.Run("bytes accepts string and byte slice", func(t *testing.T) {
		_, ferr := coerceValue("b", Type{Kind: Bytes}, []byte("x"))
		assert.Nil(t, ferr)
		_, ferr = coerceValue("b", Type{Kind: Bytes}, "x")
		assert.Nil(t, ferr)
		_, ferr = coerceValue("b", Type{Kind: Bytes}, 1)
		assert.NotNil(t, ferr)
	})

	t.Run("json accepts marshalable values", func(t *testing.T) {
		_, ferr := coerceValue("doc", Type{Kind: JSON}, map[string]any{"k": 1})
		assert.Nil(t, ferr)
		_, ferr = coerceValue("doc", Type{Kind: JSON}, json.RawMessage(`{}`))
		assert.Nil(t, ferr)
		_, ferr = coerceValue("doc", Type{Kind: JSON}, make(chan int))
		assert.NotNil(t, ferr)
	})
}

func TestEncodeJSONValue(t *testing.T) {
	t.Run("nil binds as NULL", func(t *testing.T) {
		v, err := EncodeJSONValue(nil)
		require.NoError(t, err)
		assert.Nil(t, v)
	})

	t.Run("nil pointer binds as NULL", func(t *testing.T) {
		var m *map[string]any
		v, err := EncodeJSONValue(m)
		require.NoError(t, err)
		assert.Nil(t, v)
	})

	t.Run("structured values encode", func(t *testing.T) {
		v, err := EncodeJSONValue(map[string]any{"k": 1})
		require.NoError(t, err)
		assert.Equal(t, `{"k":1}`, v)

		v, err = EncodeJSONValue([]string{"a"})
		require.NoError(t, err)
		assert.Equal(t, `["a"]`, v)
	})

	t.Run("pre-encoded text passes through", func(t *testing.T) {
		v, err := EncodeJSONValue(json.RawMessage(`{"x":1}`))
		require.NoError(t, err)
		assert.Equal(t, `{"x":1}`, v)

		v, err = EncodeJSONValue(`{"y":2}`)
		require.NoError(t, err)
		assert.Equal(t, `{"y":2}`, v)
	})
}

package domain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKindOf(t *testing.T) {
	tests := []struct {
		name  string
		value interface{}
		want  ValueKind
	}{
		{"nil", nil, KindNull},
		{"bool", true, KindBoolean},
		{"float", 1.5, KindNumber},
		{"int8 from msgpack", int8(3), KindNumber},
		{"uint64", uint64(3), KindNumber},
		{"string", "x", KindString},
		{"array", []interface{}{1}, KindArray},
		{"object", map[string]interface{}{"a": 1}, KindObject},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, KindOf(tt.value))
		})
	}

	doc := Document{"a": nil}
	assert.Equal(t, KindNull, doc.FieldKind("a"))
	assert.Equal(t, KindMissing, doc.FieldKind("b"))
}

func TestValidKey(t *testing.T) {
	assert.True(t, ValidKey("p0001"))
	assert.True(t, ValidKey("a.b-c_d"))
	assert.False(t, ValidKey(""))
	assert.False(t, ValidKey("a/b"))
	assert.False(t, ValidKey("with space"))
}

func TestTruthy(t *testing.T) {
	assert.False(t, Truthy(nil))
	assert.False(t, Truthy(false))
	assert.False(t, Truthy(0))
	assert.True(t, Truthy(""))
	assert.True(t, Truthy(0.1))
	assert.True(t, Truthy("x"))
	assert.True(t, Truthy(map[string]interface{}{}))
}

func TestDocumentClone(t *testing.T) {
	orig := Document{"nested": map[string]interface{}{"a": 1.0}, "list": []interface{}{"x"}}
	clone := orig.Clone()
	clone["nested"].(map[string]interface{})["a"] = 2.0
	clone["list"].([]interface{})[0] = "y"

	assert.Equal(t, 1.0, orig["nested"].(map[string]interface{})["a"])
	assert.Equal(t, "x", orig["list"].([]interface{})[0])
}

func TestNameFromPath(t *testing.T) {
	assert.Equal(t, "users", NameFromPath("data/users"))
	assert.Equal(t, "users", NameFromPath(`data\users\`))
	assert.Equal(t, "users", NameFromPath("users"))
}

func TestTypeErrorMessages(t *testing.T) {
	err := &TypeError{Field: "location", Expected: "string", Given: KindNumber}
	assert.Equal(t, "location requires that indexed value is of type string : number given", err.Error())
	assert.True(t, errors.Is(err, ErrTypeMismatch))

	err = &TypeError{Field: "prop", Expected: "number", Given: KindNull}
	assert.Equal(t, "prop does not support null values : must be declared as nullable", err.Error())
}

func TestParseIndexType(t *testing.T) {
	typ, err := ParseIndexType("numeric")
	require.NoError(t, err)
	assert.Equal(t, IndexNumeric, typ)

	_, err = ParseIndexType("SPATIAL")
	assert.ErrorIs(t, err, ErrUnknownIndexType)
}

func TestPaginationCursorRoundTrip(t *testing.T) {
	token, err := EncodeCursor(&PageCursor{Key: "p0003"})
	require.NoError(t, err)
	c, err := DecodeCursor(token)
	require.NoError(t, err)
	assert.Equal(t, "p0003", c.Key)

	opts := &PaginationOptions{After: token, Offset: 2}
	assert.Error(t, opts.Validate())
}

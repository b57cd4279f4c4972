package indexing

import (
	"testing"

	"github.com/adfharrison1/go-docdb/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newManager(t *testing.T, decls domain.IndexDeclarations) *IndexManager {
	t.Helper()
	m := NewIndexManager()
	for field, decl := range decls {
		require.NoError(t, m.CreateIndex(field, decl))
	}
	return m
}

func TestCreateIndex(t *testing.T) {
	m := NewIndexManager()
	require.NoError(t, m.CreateIndex("name", domain.IndexDeclaration{Type: domain.IndexHash}))

	err := m.CreateIndex("name", domain.IndexDeclaration{Type: domain.IndexHash})
	assert.ErrorIs(t, err, domain.ErrIndexExists)

	err = m.CreateIndex("geo", domain.IndexDeclaration{Type: "SPATIAL"})
	assert.ErrorIs(t, err, domain.ErrUnknownIndexType)

	assert.True(t, m.IsIndexed("name"))
	assert.False(t, m.IsIndexed("geo"))
	assert.Equal(t, []string{"name"}, m.Fields())
}

func TestIndexAndUnindexDocument(t *testing.T) {
	m := newManager(t, domain.IndexDeclarations{
		"qty":  {Type: domain.IndexNumeric, Precision: 10},
		"name": {Type: domain.IndexPartial, CaseInsensitive: true},
	})

	require.NoError(t, m.IndexDocument("k1", domain.Document{"qty": 5, "name": "Bolt"}))
	require.NoError(t, m.IndexDocument("k2", domain.Document{"qty": 6, "name": "bolt"}))

	keys, err := m.GetIndexedKeys("name", "BOLT")
	require.NoError(t, err)
	assert.Equal(t, []string{"k1", "k2"}, keys)

	require.NoError(t, m.UnindexDocument("k1", domain.Document{"qty": 5, "name": "Bolt"}))
	keys, _ = m.GetIndexedKeys("qty", 0)
	assert.Equal(t, []string{"k2"}, keys)

	_, err = m.GetIndexedKeys("color", "red")
	assert.ErrorIs(t, err, domain.ErrNotIndexed)
}

func TestIndexDocumentIsAtomic(t *testing.T) {
	m := newManager(t, domain.IndexDeclarations{
		"a": {Type: domain.IndexNumeric},
		"b": {Type: domain.IndexPartial},
	})

	err := m.IndexDocument("k", domain.Document{"a": 1, "b": 2})
	require.Error(t, err)
	assert.Equal(t, "b requires that indexed value is of type string : number given", err.Error())

	keys, _ := m.GetIndexedKeys("a", 1)
	assert.Empty(t, keys)
}

func TestIndexDocumentNullAndMissing(t *testing.T) {
	m := newManager(t, domain.IndexDeclarations{
		"prop":     {Type: domain.IndexNumeric},
		"dateRead": {Type: domain.IndexNumeric, Nullable: true},
		"banned":   {Type: domain.IndexTruthy},
	})

	err := m.IndexDocument("k", domain.Document{"prop": nil})
	require.Error(t, err)
	assert.Equal(t, "prop does not support null values : must be declared as nullable", err.Error())

	err = m.IndexDocument("k", domain.Document{"dateRead": 1})
	var te *domain.TypeError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, "prop", te.Field)
	assert.Equal(t, domain.KindMissing, te.Given)

	// a missing truthy field is indexed as false, a missing nullable one not at all
	require.NoError(t, m.IndexDocument("k", domain.Document{"prop": 1}))
	require.NoError(t, m.IndexDocument("n", domain.Document{"prop": 2, "dateRead": nil}))
	keys, _ := m.GetIndexedKeys("dateRead", nil)
	assert.Equal(t, []string{"n"}, keys)
	keys, _ = m.GetIndexedKeys("banned", false)
	assert.Equal(t, []string{"k", "n"}, keys)

	require.NoError(t, m.UnindexDocument("k", domain.Document{"prop": 1}))
	keys, _ = m.GetIndexedKeys("banned", false)
	assert.Equal(t, []string{"n"}, keys)
}

func TestRangeLookups(t *testing.T) {
	m := newManager(t, domain.IndexDeclarations{
		"age":  {Type: domain.IndexNumeric, Precision: 10},
		"name": {Type: domain.IndexHash},
	})
	for key, age := range map[string]int{"a": 12, "b": 25, "c": 38} {
		require.NoError(t, m.IndexDocument(key, domain.Document{"age": age, "name": key}))
	}

	keys, err := m.GetGreaterIndexKeys("age", 20)
	require.NoError(t, err)
	assert.Equal(t, []string{"c"}, keys)

	keys, err = m.GetLesserIndexKeys("age", 20)
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, keys)

	_, err = m.GetGreaterIndexKeys("name", "a")
	assert.ErrorIs(t, err, domain.ErrNotComparable)

	_, err = m.GetLesserIndexKeys("age", "twenty")
	assert.EqualError(t, err, "age requires that indexed value is of type number : string given")
}

func TestIndexIntrospection(t *testing.T) {
	m := newManager(t, domain.IndexDeclarations{
		"age":  {Type: domain.IndexNumeric, Precision: 10},
		"flag": {Type: domain.IndexBoolean},
	})
	assert.True(t, m.IsExactIndex("flag"))
	assert.False(t, m.IsExactIndex("age"))
	assert.False(t, m.IsExactIndex("missing"))

	decl, ok := m.GetIndexOptions("age")
	require.True(t, ok)
	assert.Equal(t, 10.0, decl.Precision)

	require.NoError(t, m.IndexDocument("k", domain.Document{"age": 1, "flag": true}))
	info := m.Info()
	require.Len(t, info, 2)
	assert.Equal(t, "age", info[0].Field)
	assert.Equal(t, 1, info[0].Buckets)

	require.NoError(t, m.ClearIndex("age"))
	keys, _ := m.GetIndexedKeys("age", 1)
	assert.Empty(t, keys)
	keys, _ = m.GetIndexedKeys("flag", true)
	assert.Equal(t, []string{"k"}, keys)

	m.ClearAll()
	keys, _ = m.GetIndexedKeys("flag", true)
	assert.Empty(t, keys)

	assert.ErrorIs(t, m.ClearIndex("nope"), domain.ErrNotIndexed)
	assert.NoError(t, m.CheckOperand("age", 3))
	assert.ErrorIs(t, m.CheckOperand("flag", "yes"), domain.ErrTypeMismatch)
}

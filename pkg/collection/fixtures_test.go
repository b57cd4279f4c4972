package collection

import (
	"context"
	"testing"

	"github.com/adfharrison1/go-docdb/pkg/domain"
	"github.com/adfharrison1/go-docdb/pkg/query"
	"github.com/adfharrison1/go-docdb/pkg/storage"
	"github.com/stretchr/testify/require"
)

type character struct {
	name, family, gender, location string
	age                            int
}

var characters = map[string]character{
	"p0001": {"Eddard", "Stark", "male", "Winterfell", 35},
	"p0002": {"Catelyn", "Stark", "female", "Winterfell", 40},
	"p0003": {"Robb", "Stark", "male", "Winterfell", 20},
	"p0004": {"Sansa", "Stark", "female", "King's Landing", 13},
	"p0005": {"Arya", "Stark", "female", "Braavos", 11},
	"p0006": {"Bran", "Stark", "male", "Beyond the Wall", 10},
	"p0007": {"Jon", "Snow", "male", "Castle Black", 16},
	"p0008": {"Tyrion", "Lannister", "male", "King's Landing", 32},
	"p0009": {"Cersei", "Lannister", "female", "King's Landing", 36},
	"p0010": {"Jaime", "Lannister", "male", "King's Landing", 34},
	"p0011": {"Daenerys", "Targaryen", "female", "Meereen", 16},
	"p0012": {"Viserys", "Targaryen", "male", "Vaes Dothrak", 21},
	"p0013": {"Joffrey", "Baratheon", "male", "King's Landing", 13},
	"p0014": {"Robert", "Baratheon", "male", "King's Landing", 37},
	"p0015": {"Theon", "Greyjoy", "male", "Pykes", 20},
	"p0016": {"Yara", "Greyjoy", "female", "Pykes", 22},
	"p0017": {"Sandor", "Clegane", "male", "Flea Bottom", 38},
	"p0018": {"Gregor", "Clegane", "male", "King's Landing", 42},
	"p0019": {"Petyr", "Baelish", "male", "The Vale", 45},
	"p0020": {"Varys", "", "male", "King's Landing", 50},
	"p0021": {"Margaery", "Tyrell", "female", "King's Landing", 19},
	"p0022": {"Olenna", "Tyrell", "female", "Highgarden", 80},
	"p0023": {"Brienne", "Tarth", "female", "Riverlands", 32},
	"p0024": {"Davos", "Seaworth", "male", "Dragonstone", 50},
	"p0025": {"Melisandre", "", "female", "Dragonstone", 400},
	"p0026": {"Samwell", "Tarly", "male", "Oldtown", 18},
	"p0027": {"Jorah", "Mormont", "male", "Essos", 45},
}

var characterIndexes = domain.IndexDeclarations{
	"familyName": {Type: domain.IndexHash, CaseInsensitive: true},
	"age":        {Type: domain.IndexNumeric, Precision: 10},
	"gender":     {Type: domain.IndexPartial},
	"location":   {Type: domain.IndexPartial, CaseInsensitive: true},
}

func newCollection(t *testing.T, decls domain.IndexDeclarations) (*Collection, *storage.TestStorage) {
	t.Helper()
	ts := storage.NewTestStorage()
	c, err := New("my_path", ts, decls)
	require.NoError(t, err)
	require.NoError(t, c.Init(context.Background()))
	return c, ts
}

func newCharacters(t *testing.T) *Collection {
	t.Helper()
	c, _ := newCollection(t, characterIndexes)
	for key, p := range characters {
		require.NoError(t, c.Save(context.Background(), key, domain.Document{
			"name":       p.name,
			"familyName": p.family,
			"gender":     p.gender,
			"age":        p.age,
			"location":   p.location,
		}))
	}
	return c
}

func saveAll(t *testing.T, c *Collection, docs map[string]domain.Document) {
	t.Helper()
	for key, doc := range docs {
		require.NoError(t, c.Save(context.Background(), key, doc))
	}
}

func findKeys(t *testing.T, c *Collection, q query.Query) []string {
	t.Helper()
	cur, err := c.Find(context.Background(), q)
	require.NoError(t, err)
	return cur.Keys()
}

func people() map[string]domain.Document {
	return map[string]domain.Document{
		"1000": {"id": 1000, "name": "alice", "age": 25},
		"1010": {"id": 1010, "name": "bob", "age": 29},
		"1015": {"id": 1015, "name": "charlie", "age": 20},
		"1020": {"id": 1020, "name": "debora", "age": 56},
		"1030": {"id": 1030, "name": "eliza", "age": 18},
		"1040": {"id": 1040, "name": "felix", "age": 1024},
	}
}

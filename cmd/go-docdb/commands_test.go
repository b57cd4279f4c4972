package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/adfharrison1/go-docdb/pkg/config"
	"github.com/adfharrison1/go-docdb/pkg/domain"
	"github.com/adfharrison1/go-docdb/pkg/server"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeFixture stores a few characters on disk and returns the config path
func writeFixture(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "docdb.yaml")
	yaml := fmt.Sprintf(`
log:
  level: error
storage:
  backend: disk
  dir: %s
collections:
  - name: characters
    indexes:
      familyName:
        type: hash
        case_insensitive: true
      age:
        type: numeric
        precision: 10
`, filepath.Join(dir, "data"))
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o644))

	loaded, err := config.Load(path)
	require.NoError(t, err)
	srv, err := server.New(context.Background(), loaded, zerolog.Nop())
	require.NoError(t, err)
	c, err := srv.Collection("characters")
	require.NoError(t, err)
	for key, doc := range map[string]domain.Document{
		"p0001": {"name": "Eddard", "familyName": "Stark", "age": 35},
		"p0003": {"name": "Robb", "familyName": "Stark", "age": 20},
		"p0008": {"name": "Tyrion", "familyName": "Lannister", "age": 32},
	} {
		require.NoError(t, c.Save(context.Background(), key, doc))
	}
	require.NoError(t, srv.Close())
	return path
}

func execute(t *testing.T, args ...string) string {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs(args)
	require.NoError(t, rootCmd.Execute())
	return out.String()
}

func TestFindCommand(t *testing.T) {
	path := writeFixture(t)

	out := execute(t, "find", "-c", path, "--collection", "characters", "--query", `{"familyName": "STARK", "age": {"$gt": 30}}`)
	var result domain.PaginationResult
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	assert.Equal(t, []string{"p0001"}, result.Keys)
	require.Len(t, result.Documents, 1)
	assert.Equal(t, "Eddard", result.Documents[0]["name"])

	out = execute(t, "find", "-c", path, "--collection", "characters", "--query", `{}`, "--limit", "2")
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	assert.Equal(t, []string{"p0001", "p0003"}, result.Keys)
	assert.True(t, result.HasNext)
	assert.Equal(t, 3, result.Total)
}

func TestReindexCommand(t *testing.T) {
	path := writeFixture(t)

	out := execute(t, "reindex", "-c", path, "--collection", "characters")
	assert.Contains(t, out, "characters: 3 documents, 2 indexes")
}

func TestLoadCommand(t *testing.T) {
	path := writeFixture(t)

	cfg := config.Default()
	cfg.Collections = []config.CollectionConfig{{
		Name:    "users",
		Path:    "users",
		Indexes: map[string]config.IndexConfig{"age": {Type: "numeric", Precision: 10}},
	}}
	srv, err := server.New(context.Background(), cfg, zerolog.Nop())
	require.NoError(t, err)
	defer srv.Close()
	ts := httptest.NewServer(srv.Router())
	defer ts.Close()

	out := execute(t, "load", "-c", path, "--url", ts.URL, "--count", "20", "--batch", "7")
	assert.Contains(t, out, "Successful inserts:    20")

	users, err := srv.Collection("users")
	require.NoError(t, err)
	assert.Equal(t, 20, users.Stats().Documents)

	out = execute(t, "load", "-c", path, "--url", ts.URL, "--count", "3", "--batch", "0")
	assert.Contains(t, out, "Successful inserts:    3")
	assert.Equal(t, 23, users.Stats().Documents)
}

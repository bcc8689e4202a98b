package wards

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const bundledCatalog = "../data/wards.json"

func writeCatalog(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "wards.json")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

const smallCatalog = `{"wards": [
  {"id": 1, "name": "Ward 1", "alderman": {"name": "Ada Lovelace", "platforms": ["Lead pipe replacement"]}},
  {"id": 3, "name": "Ward 3", "alderman": {"name": "Grace Hopper", "platforms": ["Nigeria sister-city exchange", "Bike lanes"]}},
  {"id": 42, "name": "Ward 42", "alderman": {"name": "Alan Turing", "platforms": ["Downtown safety"]}},
  {"id": 7, "name": "Ward 7", "alderman": {"name": "Edsger Nigeria-Dijkstra", "platforms": []}}
]}`

func TestGetByIDBundledCatalog(t *testing.T) {
	r := NewReader(bundledCatalog)
	ctx := context.Background()

	for id := 1; id <= 50; id++ {
		w, err := r.GetByID(ctx, id)
		require.NoError(t, err, "ward %d", id)
		assert.Equal(t, id, w.ID)
	}
}

func TestGetByIDNotFound(t *testing.T) {
	r := NewReader(writeCatalog(t, smallCatalog))

	_, err := r.GetByID(context.Background(), 99)
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestGetByIDUnreadableCatalogDegradesToNotFound(t *testing.T) {
	r := NewReader(filepath.Join(t.TempDir(), "missing.json"))

	_, err := r.GetByID(context.Background(), 1)
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestSearchNoMatch(t *testing.T) {
	r := NewReader(writeCatalog(t, smallCatalog))

	got := r.Search(context.Background(), "zzz-nothing-like-this")
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestSearchMatchesNameAldermanAndPlatform(t *testing.T) {
	r := NewReader(writeCatalog(t, smallCatalog))
	ctx := context.Background()

	got := r.Search(ctx, "nigeria")
	require.Len(t, got, 2)
	// catalog order, not relevance
	assert.Equal(t, 3, got[0].ID)
	assert.Equal(t, 7, got[1].ID)
	for _, w := range got {
		assert.True(t, w.Matches("nigeria"))
	}

	got = r.Search(ctx, "GRACE")
	require.Len(t, got, 1)
	assert.Equal(t, 3, got[0].ID)
}

func TestSearchWardNumber(t *testing.T) {
	r := NewReader(writeCatalog(t, smallCatalog))

	got := r.Search(context.Background(), "42")
	require.NotEmpty(t, got)
	assert.Equal(t, "Ward 42", got[0].Name)

	got = NewReader(bundledCatalog).Search(context.Background(), "42")
	require.Len(t, got, 1)
	assert.Equal(t, 42, got[0].ID)
}

func TestSearchEmptyQueryReturnsAll(t *testing.T) {
	r := NewReader(writeCatalog(t, smallCatalog))

	assert.Len(t, r.Search(context.Background(), ""), 4)
}

func TestSearchUnreadableCatalog(t *testing.T) {
	r := NewReader(writeCatalog(t, `{"wards": [`))

	got := r.Search(context.Background(), "ward")
	assert.Empty(t, got)
}

func TestReaderSeesCatalogChanges(t *testing.T) {
	path := writeCatalog(t, smallCatalog)
	r := NewReader(path)
	ctx := context.Background()

	_, err := r.GetByID(ctx, 12)
	require.Error(t, err)

	updated := strings.Replace(smallCatalog, `"id": 7, "name": "Ward 7"`, `"id": 12, "name": "Ward 12"`, 1)
	require.NoError(t, os.WriteFile(path, []byte(updated), 0o644))

	w, err := r.GetByID(ctx, 12)
	require.NoError(t, err)
	assert.Equal(t, "Ward 12", w.Name)
}

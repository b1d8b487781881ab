package target

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLookup_Builtin(t *testing.T) {
	r := NewRegistry()

	tgt, err := r.Lookup("thehackernews")
	require.NoError(t, err)
	assert.Equal(t, "The Hacker News", tgt.Name)
	assert.NotEmpty(t, tgt.Selectors.Articles)
}

func TestLookup_Unknown(t *testing.T) {
	r := NewRegistry()

	_, err := r.Lookup("does-not-exist")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Contains(t, err.Error(), "does-not-exist")
}

func TestNewRegistry_ExtraWinsOnCollision(t *testing.T) {
	r := NewRegistry(Target{ID: "thehackernews", Name: "Override", BaseURL: "http://localhost:1234"})

	tgt, err := r.Lookup("thehackernews")
	require.NoError(t, err)
	assert.Equal(t, "Override", tgt.Name)
	assert.Equal(t, "http://localhost:1234", tgt.BaseURL)
}

func TestIDs_CoversCatalog(t *testing.T) {
	r := NewRegistry(Target{ID: "extra", Name: "Extra"})
	ids := r.IDs()

	assert.Contains(t, ids, "cve")
	assert.Contains(t, ids, "nvd")
	assert.Contains(t, ids, "extra")
	assert.GreaterOrEqual(t, len(ids), 14)
}

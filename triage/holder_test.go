package triage

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/liamcoop/wardline/requests"
)

func TestHolderUsesEmbeddedRules(t *testing.T) {
	h, err := NewHolder("")
	require.NoError(t, err)

	assert.Equal(t, requests.PriorityHigh, h.Assess(&requests.Request{Type: requests.TypeSafety}))
	assert.Equal(t, DefaultRuleSet().Rules[0].Name, h.RuleNames()[0])
}

func TestHolderReloadSwapsEngine(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.yaml")
	require.NoError(t, os.WriteFile(path, []byte("default: low\nrules:\n  - {name: everything, expression: 'true', priority: medium}\n"), 0o644))

	h, err := NewHolder(path)
	require.NoError(t, err)
	first := h.Engine()
	assert.Equal(t, requests.PriorityMedium, h.Assess(&requests.Request{Type: requests.TypeOther}))

	require.NoError(t, os.WriteFile(path, []byte("default: high\nrules: []\n"), 0o644))
	require.NoError(t, h.Reload())

	assert.NotSame(t, first, h.Engine())
	assert.Equal(t, requests.PriorityHigh, h.Assess(&requests.Request{Type: requests.TypeOther}))
	assert.Empty(t, h.RuleNames())
}

func TestHolderKeepsEngineOnBadReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.yaml")
	require.NoError(t, os.WriteFile(path, []byte("rules:\n  - {name: safety, expression: 'request.type == \"safety\"', priority: high}\n"), 0o644))

	h, err := NewHolder(path)
	require.NoError(t, err)
	before := h.Engine()

	require.NoError(t, os.WriteFile(path, []byte("rules:\n  - {name: broken, expression: 'request.type ==', priority: high}\n"), 0o644))
	assert.Error(t, h.Reload())
	assert.Same(t, before, h.Engine())

	require.NoError(t, os.Remove(path))
	assert.Error(t, h.Reload())
	assert.Same(t, before, h.Engine())
}

func TestNewHolderMissingFile(t *testing.T) {
	_, err := NewHolder(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

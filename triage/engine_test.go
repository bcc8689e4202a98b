package triage

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/liamcoop/wardline/requests"
)

func TestDefaultRuleSetCompiles(t *testing.T) {
	e, err := NewEngine(DefaultRuleSet())
	require.NoError(t, err)
	assert.Equal(t, []string{"immediate-hazard", "public-safety", "streets-and-environment", "housing"}, e.RuleNames())
}

func TestDefaultRulesAssess(t *testing.T) {
	e, err := NewEngine(DefaultRuleSet())
	require.NoError(t, err)

	tests := []struct {
		name string
		req  requests.Request
		want requests.Priority
		rule string
	}{
		{
			name: "pothole",
			req:  requests.Request{Type: requests.TypeInfrastructure, Description: "Pothole on Elm St"},
			want: requests.PriorityMedium,
			rule: "streets-and-environment",
		},
		{
			name: "gas leak outranks type",
			req:  requests.Request{Type: requests.TypeOther, Description: "Smells like a GAS LEAK near the school"},
			want: requests.PriorityHigh,
			rule: "immediate-hazard",
		},
		{
			name: "hazard in title",
			req:  requests.Request{Type: requests.TypeHousing, Title: "No heat in building", Description: "Radiators cold"},
			want: requests.PriorityHigh,
			rule: "immediate-hazard",
		},
		{
			name: "safety",
			req:  requests.Request{Type: requests.TypeSafety, Description: "Broken streetlight at the corner"},
			want: requests.PriorityHigh,
			rule: "public-safety",
		},
		{
			name: "other falls through to default",
			req:  requests.Request{Type: requests.TypeOther, Description: "Block party permit question"},
			want: requests.PriorityLow,
			rule: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := e.Explain(&tt.req)
			assert.Equal(t, tt.want, got.Priority)
			assert.Equal(t, tt.rule, got.Rule)
			assert.Equal(t, tt.want, e.Assess(&tt.req))
		})
	}
}

func TestNonBooleanAndFailingRulesAreSkipped(t *testing.T) {
	rs, err := ParseRuleSet([]byte(`
default: medium
rules:
  - name: not-a-bool
    priority: high
    expression: request.wardId + 1
  - name: missing-field
    priority: high
    expression: request.nonexistent == "x"
  - name: ward-three
    priority: low
    expression: request.wardId == 3
`))
	require.NoError(t, err)

	e, err := NewEngine(rs)
	require.NoError(t, err)

	got := e.Explain(&requests.Request{WardID: 3})
	assert.Equal(t, requests.PriorityLow, got.Priority)
	assert.Equal(t, "ward-three", got.Rule)

	assert.Equal(t, requests.PriorityMedium, e.Assess(&requests.Request{WardID: 4}))
}

func TestParseRuleSetValidation(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"bad default", "default: urgent\nrules: []"},
		{"unnamed rule", "rules:\n  - expression: 'true'\n    priority: low"},
		{"duplicate name", "rules:\n  - {name: a, expression: 'true', priority: low}\n  - {name: a, expression: 'false', priority: low}"},
		{"empty expression", "rules:\n  - {name: a, expression: '  ', priority: low}"},
		{"bad priority", "rules:\n  - {name: a, expression: 'true', priority: critical}"},
		{"not yaml", "rules: [unclosed"},
		{"name with spaces", "rules:\n  - {name: 'Gas Leak', expression: 'true', priority: low}"},
		{"name starting with digit", "rules:\n  - {name: 1st, expression: 'true', priority: low}"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseRuleSet([]byte(tt.yaml))
			assert.Error(t, err)
		})
	}
}

func TestParseRuleSetDefaultsToLow(t *testing.T) {
	rs, err := ParseRuleSet([]byte("rules: []"))
	require.NoError(t, err)
	assert.Equal(t, requests.PriorityLow, rs.Default)
}

func TestNewEngineRejectsBadExpression(t *testing.T) {
	rs := &RuleSet{
		Default: requests.PriorityLow,
		Rules:   []Rule{{Name: "broken", Expression: "request.type ==", Priority: requests.PriorityHigh}},
	}

	_, err := NewEngine(rs)
	assert.ErrorContains(t, err, "broken")
}

func TestLoadRuleSetFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "triage.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
default: low
rules:
  - name: ward-42
    priority: high
    expression: request.wardId == 42
`), 0o644))

	rs, err := LoadRuleSet(path)
	require.NoError(t, err)

	e, err := NewEngine(rs)
	require.NoError(t, err)
	assert.Equal(t, requests.PriorityHigh, e.Assess(&requests.Request{WardID: 42}))

	_, err = LoadRuleSet(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

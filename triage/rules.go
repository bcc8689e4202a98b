package triage

import (
	_ "embed"
	"fmt"
	"os"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/liamcoop/wardline/requests"
)

//go:embed default_rules.yaml
var defaultRules []byte

const maxRules = 100

var validRuleName = regexp.MustCompile(`^[a-z][a-z0-9-]{0,99}$`)

// Rule assigns Priority to requests matching a CEL expression over `request`
type Rule struct {
	Name       string            `yaml:"name"`
	Expression string            `yaml:"expression"`
	Priority   requests.Priority `yaml:"priority"`
}

// RuleSet is an ordered list of rules; the first match wins
type RuleSet struct {
	Default requests.Priority `yaml:"default"`
	Rules   []Rule            `yaml:"rules"`
}

// ParseRuleSet decodes and validates a YAML rule set
func ParseRuleSet(data []byte) (*RuleSet, error) {
	var rs RuleSet
	if err := yaml.Unmarshal(data, &rs); err != nil {
		return nil, fmt.Errorf("failed to parse triage rules: %w", err)
	}
	if rs.Default == "" {
		rs.Default = requests.PriorityLow
	}
	if err := rs.Validate(); err != nil {
		return nil, err
	}
	return &rs, nil
}

// LoadRuleSet reads a rule set from path
func LoadRuleSet(path string) (*RuleSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read triage rules: %w", err)
	}
	return ParseRuleSet(data)
}

// DefaultRuleSet returns the rule set compiled into the binary
func DefaultRuleSet() *RuleSet {
	rs, err := ParseRuleSet(defaultRules)
	if err != nil {
		panic(fmt.Sprintf("embedded triage rules are invalid: %v", err))
	}
	return rs
}

// Validate checks names, priorities and that expressions are present.
// Expressions are type-checked later when the engine compiles them.
func (rs *RuleSet) Validate() error {
	if !rs.Default.Valid() {
		return fmt.Errorf("default priority %q is invalid (must be one of: low, medium, high)", rs.Default)
	}

	if len(rs.Rules) > maxRules {
		return fmt.Errorf("rule set contains %d rules, maximum allowed is %d", len(rs.Rules), maxRules)
	}

	seen := make(map[string]bool, len(rs.Rules))
	for i, r := range rs.Rules {
		if strings.TrimSpace(r.Name) == "" {
			return fmt.Errorf("rule %d has no name", i)
		}
		if !validRuleName.MatchString(r.Name) {
			return fmt.Errorf("rule name %q must be lowercase letters, digits and dashes, starting with a letter", r.Name)
		}
		if seen[r.Name] {
			return fmt.Errorf("rule name %q is used more than once", r.Name)
		}
		seen[r.Name] = true

		if strings.TrimSpace(r.Expression) == "" {
			return fmt.Errorf("rule %q has an empty expression", r.Name)
		}
		if !r.Priority.Valid() {
			return fmt.Errorf("rule %q has invalid priority %q (must be one of: low, medium, high)", r.Name, r.Priority)
		}
	}
	return nil
}

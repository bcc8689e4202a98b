package triage

import (
	"fmt"

	"github.com/google/cel-go/cel"
	"github.com/google/cel-go/ext"

	"github.com/liamcoop/wardline/internal/logger"
	"github.com/liamcoop/wardline/requests"
)

// costLimit stops runaway expressions from stalling a submission
const costLimit = 1000000

type compiledRule struct {
	Rule
	program cel.Program
}

// Engine assigns priorities to requests using compiled CEL rules.
// It is immutable after construction and safe for concurrent use.
type Engine struct {
	env      *cel.Env
	rules    []compiledRule
	fallback requests.Priority
}

// Assessment explains which rule produced a priority. Rule is empty when the default applied.
type Assessment struct {
	Priority requests.Priority
	Rule     string
}

// NewEnv creates the CEL environment rules are compiled against
func NewEnv() (*cel.Env, error) {
	env, err := cel.NewEnv(
		cel.Variable("request", cel.DynType),
		ext.Strings(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create CEL environment: %w", err)
	}
	return env, nil
}

// NewEngine validates and compiles every rule in rs
func NewEngine(rs *RuleSet) (*Engine, error) {
	if err := rs.Validate(); err != nil {
		return nil, err
	}

	env, err := NewEnv()
	if err != nil {
		return nil, err
	}

	e := &Engine{
		env:      env,
		rules:    make([]compiledRule, 0, len(rs.Rules)),
		fallback: rs.Default,
	}

	for _, r := range rs.Rules {
		prog, err := e.compile(r.Expression)
		if err != nil {
			return nil, fmt.Errorf("rule %q: %w", r.Name, err)
		}
		e.rules = append(e.rules, compiledRule{Rule: r, program: prog})
	}

	return e, nil
}

func (e *Engine) compile(expression string) (cel.Program, error) {
	ast, issues := e.env.Compile(expression)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("compile error: %w", issues.Err())
	}

	prog, err := e.env.Program(ast, cel.CostLimit(costLimit))
	if err != nil {
		return nil, fmt.Errorf("program creation error: %w", err)
	}
	return prog, nil
}

// Assess returns the priority for req
func (e *Engine) Assess(req *requests.Request) requests.Priority {
	return e.Explain(req).Priority
}

// Explain evaluates rules in order and reports the first match.
// Non-boolean results count as no match; evaluation errors are logged and the rule is skipped.
func (e *Engine) Explain(req *requests.Request) Assessment {
	facts := map[string]any{"request": Facts(req)}

	for _, r := range e.rules {
		out, _, err := r.program.Eval(facts)
		if err != nil {
			logger.Warn("Triage rule evaluation failed", "rule", r.Name, "requestId", req.ID, "error", err)
			continue
		}
		if matched, ok := out.Value().(bool); ok && matched {
			return Assessment{Priority: r.Priority, Rule: r.Name}
		}
	}

	return Assessment{Priority: e.fallback}
}

// Facts exposes the request fields rules may reference
func Facts(req *requests.Request) map[string]any {
	return map[string]any{
		"id":           req.ID,
		"type":         string(req.Type),
		"title":        req.Title,
		"description":  req.Description,
		"location":     req.Location,
		"wardId":       int64(req.WardID),
		"wardName":     req.WardName,
		"aldermanName": req.AldermanName,
		"aiGenerated":  req.AIGeneratedText != "",
	}
}

// RuleNames lists the compiled rules in evaluation order
func (e *Engine) RuleNames() []string {
	names := make([]string, len(e.rules))
	for i, r := range e.rules {
		names[i] = r.Name
	}
	return names
}

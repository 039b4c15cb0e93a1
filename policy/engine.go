// Package policy gates tool invocations through an OPA rego policy.
package policy

import (
	"context"
	"fmt"

	"github.com/open-policy-agent/opa/rego"
)

// Engine is the OPA policy engine.
type Engine struct {
	query rego.PreparedEvalQuery
}

// NewEngine creates a new policy engine with the given policy content.
func NewEngine(ctx context.Context, policyContent string) (*Engine, error) {
	r := rego.New(
		rego.Query("data.tool_policy.decision"),
		rego.Module("tool_policy.rego", policyContent),
	)

	query, err := r.PrepareForEval(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare rego: %w", err)
	}

	return &Engine{query: query}, nil
}

// Evaluate checks the tool policy.
// Input is a map with keys: tool_name, args, session_id.
// Returns: decision (allow or block), reason (optional), error.
// A policy may yield either a bare decision string or an object of the
// form {"decision": ..., "reason": ...}. Anything else is an error, so a
// broken policy fails closed instead of silently allowing.
func (e *Engine) Evaluate(ctx context.Context, input interface{}) (string, string, error) {
	results, err := e.query.Eval(ctx, rego.EvalInput(input))
	if err != nil {
		return "", "", fmt.Errorf("failed to evaluate policy: %w", err)
	}

	if len(results) == 0 || len(results[0].Expressions) == 0 {
		// The policy is expected to define a default.
		return "allow", "default", nil
	}

	val := results[0].Expressions[0].Value
	switch v := val.(type) {
	case string:
		return v, "", nil
	case map[string]interface{}:
		decision, _ := v["decision"].(string)
		reason, _ := v["reason"].(string)
		if decision != "" {
			return decision, reason, nil
		}
	}
	return "", "", fmt.Errorf("policy returned unexpected value of type %T", val)
}

// DefaultPolicy allows every tool. The block rule shows the shape a
// deployment-specific denylist takes.
const DefaultPolicy = `
package tool_policy

default decision = "allow"

# Example: refuse tools that move money
decision = "block" {
	input.tool_name == "payments.charge"
}
`

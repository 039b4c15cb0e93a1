// Package registry collects local and remotely-discovered tools into one
// uniform callable set.
package registry

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/voyagent/voyagent/policy"
)

var (
	// ErrDuplicateTool is returned when registering a name already in use.
	ErrDuplicateTool = errors.New("tool already registered")
	// ErrUnknownTool is returned when invoking a name nobody registered.
	ErrUnknownTool = errors.New("unknown tool")
)

// ToolExecutionError wraps a failure from a registered tool's backend.
// The orchestrator feeds it back to the model as a tool-error result
// instead of failing the turn.
type ToolExecutionError struct {
	Tool string
	Err  error
}

func (e *ToolExecutionError) Error() string {
	return fmt.Sprintf("tool %s failed: %v", e.Tool, e.Err)
}

func (e *ToolExecutionError) Unwrap() error { return e.Err }

// Handler executes a tool with raw JSON arguments and returns its
// textual result.
type Handler func(ctx context.Context, args json.RawMessage) (string, error)

// ToolSpec describes one invocable tool.
type ToolSpec struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters,omitempty"`
	Invoke      Handler        `json:"-"`
}

// Registry owns the tool set. Tools are registered once at startup and
// immutable afterwards; List preserves insertion order because it decides
// how the catalog is presented to the model.
type Registry struct {
	mu     sync.RWMutex
	order  []string
	tools  map[string]ToolSpec
	policy *policy.Engine
	logger *zap.Logger
}

// New creates an empty registry. The policy engine is optional; without
// one every invocation is allowed.
func New(policyEngine *policy.Engine, logger *zap.Logger) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Registry{
		tools:  make(map[string]ToolSpec),
		policy: policyEngine,
		logger: logger,
	}
}

// Register adds a tool spec to the set.
func (r *Registry) Register(spec ToolSpec) error {
	if spec.Name == "" {
		return errors.New("tool name is empty")
	}
	if spec.Invoke == nil {
		return fmt.Errorf("tool %s has no handler", spec.Name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.tools[spec.Name]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateTool, spec.Name)
	}

	r.tools[spec.Name] = spec
	r.order = append(r.order, spec.Name)
	return nil
}

// List produces the full tool set in registration order.
func (r *Registry) List() []ToolSpec {
	r.mu.RLock()
	defer r.mu.RUnlock()

	specs := make([]ToolSpec, 0, len(r.order))
	for _, name := range r.order {
		specs = append(specs, r.tools[name])
	}
	return specs
}

// Invoke looks up a tool by name, runs it through the policy gate, and
// calls its handler. The session id rides along so policies can scope
// decisions per conversation. Handler failures come back as
// *ToolExecutionError so the caller can report them to the model without
// crashing the turn.
func (r *Registry) Invoke(ctx context.Context, sessionID, name string, args json.RawMessage) (string, error) {
	r.mu.RLock()
	spec, exists := r.tools[name]
	r.mu.RUnlock()
	if !exists {
		return "", fmt.Errorf("%w: %s", ErrUnknownTool, name)
	}

	if r.policy != nil {
		input := map[string]interface{}{
			"tool_name":  name,
			"session_id": sessionID,
		}
		var argsMap map[string]interface{}
		if len(args) > 0 && json.Unmarshal(args, &argsMap) == nil {
			input["args"] = argsMap
		} else {
			input["args"] = map[string]interface{}{}
		}
		decision, reason, err := r.policy.Evaluate(ctx, input)
		if err != nil {
			return "", &ToolExecutionError{Tool: name, Err: fmt.Errorf("policy evaluation: %w", err)}
		}
		if decision == "block" {
			if reason == "" {
				reason = "blocked by policy"
			}
			r.logger.Warn("tool invocation blocked",
				zap.String("tool", name),
				zap.String("reason", reason))
			return "", &ToolExecutionError{Tool: name, Err: fmt.Errorf("blocked by policy: %s", reason)}
		}
	}

	result, err := spec.Invoke(ctx, args)
	if err != nil {
		return "", &ToolExecutionError{Tool: name, Err: err}
	}
	return result, nil
}

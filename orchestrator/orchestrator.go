// Package orchestrator runs the conversational turn state machine: ask
// the model for the next action, execute the tool calls it requested,
// feed the results back, and repeat until it produces a final answer.
package orchestrator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/voyagent/voyagent/domain"
	"github.com/voyagent/voyagent/registry"
	"github.com/voyagent/voyagent/store"
)

// State is the turn state machine's current phase.
type State string

const (
	StateAwaitingModel  State = "AWAITING_MODEL"
	StateExecutingTools State = "EXECUTING_TOOLS"
	StateDone           State = "DONE"
)

// DefaultMaxToolCycles bounds how many model->tools round trips a single
// turn may take before it is terminated as runaway.
const DefaultMaxToolCycles = 8

var (
	// ErrTurnLimitExceeded is returned when a turn exhausts its
	// model<->tools cycle budget without producing a final answer.
	ErrTurnLimitExceeded = errors.New("tool-calling cycle limit exceeded")
	// ErrTurnInFlight is returned when a session already has a turn
	// executing; a second message must wait for it to finish.
	ErrTurnInFlight = errors.New("a turn is already in flight for this session")
)

// Gateway asks the model for the next assistant message given the full
// history and the tool catalog.
type Gateway interface {
	Converse(ctx context.Context, history []domain.Message, tools []registry.ToolSpec) (domain.Message, error)
}

// Result is the outcome of one completed turn.
type Result struct {
	TurnID string
	Answer string
}

// Orchestrator drives turns. The registry and gateway are read-only after
// construction and shared across concurrent sessions; per-session
// serialization happens through the active-turn set.
type Orchestrator struct {
	store     store.Store
	registry  *registry.Registry
	gateway   Gateway
	logger    *zap.Logger
	maxCycles int

	mu     sync.Mutex
	active map[string]struct{}
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithMaxToolCycles overrides the per-turn cycle bound.
func WithMaxToolCycles(n int) Option {
	return func(o *Orchestrator) {
		if n > 0 {
			o.maxCycles = n
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(o *Orchestrator) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// New creates an orchestrator.
func New(st store.Store, reg *registry.Registry, gw Gateway, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		store:     st,
		registry:  reg,
		gateway:   gw,
		logger:    zap.NewNop(),
		maxCycles: DefaultMaxToolCycles,
		active:    make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// RunTurn appends the user message to the session and drives the state
// machine until the model answers, the cycle budget runs out, or the
// context is cancelled. Every message append is persisted before the next
// transition, so a crash mid-turn loses at most the in-flight step.
func (o *Orchestrator) RunTurn(ctx context.Context, sessionID, content string) (*Result, error) {
	if sessionID == "" {
		return nil, errors.New("session id is required")
	}
	if content == "" {
		return nil, errors.New("message content is required")
	}

	if !o.acquire(sessionID) {
		return nil, fmt.Errorf("%w: %s", ErrTurnInFlight, sessionID)
	}
	defer o.release(sessionID)

	turnID := "turn_" + uuid.New().String()[:8]
	now := time.Now()

	userMsg := &domain.Message{
		MessageID: "msg_" + uuid.New().String()[:8],
		SessionID: sessionID,
		TurnID:    turnID,
		Role:      domain.RoleUser,
		Content:   content,
		CreatedAt: now,
	}
	if err := o.store.AppendMessage(ctx, userMsg); err != nil {
		return nil, fmt.Errorf("failed to append user message: %w", err)
	}

	turn := &domain.Turn{
		TurnID:    turnID,
		SessionID: sessionID,
		Status:    domain.TurnStatusRunning,
		StartedAt: now,
	}
	if err := o.store.CreateTurn(ctx, turn); err != nil {
		o.logger.Error("failed to create turn record", zap.Error(err))
	}

	answer, err := o.drive(ctx, sessionID, turnID)
	if err != nil {
		o.failTurn(sessionID, turnID, err)
		return nil, err
	}

	o.recordEvent(ctx, turnID, domain.EventTypeTurnDone, nil)
	if err := o.store.CompleteTurn(ctx, turnID, domain.TurnStatusDone, nil); err != nil {
		o.logger.Error("failed to complete turn record", zap.Error(err))
	}

	return &Result{TurnID: turnID, Answer: answer}, nil
}

// drive loops the state machine for one turn. Each iteration is one
// AWAITING_MODEL visit; a response with tool calls moves the turn through
// EXECUTING_TOOLS and back, a response without them ends in DONE.
func (o *Orchestrator) drive(ctx context.Context, sessionID, turnID string) (string, error) {
	tools := o.registry.List()

	for cycle := 0; cycle < o.maxCycles; cycle++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		history, err := o.store.Load(ctx, sessionID)
		if err != nil {
			return "", fmt.Errorf("failed to load history: %w", err)
		}

		o.logger.Debug("turn state",
			zap.String("turn_id", turnID),
			zap.String("state", string(StateAwaitingModel)),
			zap.Int("cycle", cycle))
		o.recordEvent(ctx, turnID, domain.EventTypeModelCallStarted, nil)
		assistant, err := o.gateway.Converse(ctx, history, tools)
		if err != nil {
			return "", fmt.Errorf("model call failed: %w", err)
		}

		assistant.MessageID = "msg_" + uuid.New().String()[:8]
		assistant.SessionID = sessionID
		assistant.TurnID = turnID
		if assistant.CreatedAt.IsZero() {
			assistant.CreatedAt = time.Now()
		}
		if err := o.store.AppendMessage(ctx, &assistant); err != nil {
			return "", fmt.Errorf("failed to append assistant message: %w", err)
		}
		o.recordEvent(ctx, turnID, domain.EventTypeAssistantMessage, nil)

		if len(assistant.ToolCalls) == 0 {
			o.logger.Debug("turn state",
				zap.String("turn_id", turnID),
				zap.String("state", string(StateDone)))
			return assistant.Content, nil
		}

		o.logger.Debug("turn state",
			zap.String("turn_id", turnID),
			zap.String("state", string(StateExecutingTools)),
			zap.Int("tool_calls", len(assistant.ToolCalls)))
		if err := o.executeToolCalls(ctx, sessionID, turnID, assistant.ToolCalls); err != nil {
			return "", err
		}
	}

	return "", fmt.Errorf("%w: turn aborted after %d cycles", ErrTurnLimitExceeded, o.maxCycles)
}

// executeToolCalls runs the requested calls, possibly in parallel, and
// appends their results as tool-role messages in the order the requests
// were issued so tool_call_id correlation stays unambiguous.
func (o *Orchestrator) executeToolCalls(ctx context.Context, sessionID, turnID string, calls []domain.ToolCall) error {
	results := make([]string, len(calls))
	failed := make([]bool, len(calls))

	g, gctx := errgroup.WithContext(ctx)
	for i, call := range calls {
		o.recordEvent(ctx, turnID, domain.EventTypeToolCallStarted, domain.ToolCallPayload{
			CallID:   call.ID,
			ToolName: call.Name,
		})

		g.Go(func() error {
			out, err := o.registry.Invoke(gctx, sessionID, call.Name, call.Arguments)
			if err != nil {
				// Tool failures are results, not turn failures: the model
				// decides whether to retry, switch tools, or apologize.
				var execErr *registry.ToolExecutionError
				if errors.As(err, &execErr) || errors.Is(err, registry.ErrUnknownTool) {
					results[i] = err.Error()
					failed[i] = true
					o.logger.Warn("tool call failed",
						zap.String("tool", call.Name),
						zap.String("call_id", call.ID),
						zap.Error(err))
					return nil
				}
				return err
			}
			results[i] = out
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return fmt.Errorf("tool execution aborted: %w", err)
	}

	for i, call := range calls {
		toolMsg := &domain.Message{
			MessageID:  "msg_" + uuid.New().String()[:8],
			SessionID:  sessionID,
			TurnID:     turnID,
			Role:       domain.RoleTool,
			Content:    results[i],
			ToolCallID: call.ID,
			ToolError:  failed[i],
			CreatedAt:  time.Now(),
		}
		if err := o.store.AppendMessage(ctx, toolMsg); err != nil {
			return fmt.Errorf("failed to append tool result: %w", err)
		}
		o.recordEvent(ctx, turnID, domain.EventTypeToolCallDone, domain.ToolCallPayload{
			CallID:   call.ID,
			ToolName: call.Name,
			IsError:  failed[i],
		})
	}

	return nil
}

// failTurn appends a visible failure message to the session and marks the
// turn failed, so the conversation stays inspectable after a bad turn.
// It runs on a fresh context: the turn's own context may already be dead.
func (o *Orchestrator) failTurn(sessionID, turnID string, cause error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	failureMsg := &domain.Message{
		MessageID: "msg_" + uuid.New().String()[:8],
		SessionID: sessionID,
		TurnID:    turnID,
		Role:      domain.RoleAssistant,
		Content:   fmt.Sprintf("I could not finish this request: %v", cause),
		CreatedAt: time.Now(),
	}
	if err := o.store.AppendMessage(ctx, failureMsg); err != nil {
		o.logger.Error("failed to append failure message", zap.Error(err))
	}

	o.recordEvent(ctx, turnID, domain.EventTypeTurnFailed, domain.TurnFailedPayload{
		Code:    failureCode(cause),
		Message: cause.Error(),
	})

	errData, _ := json.Marshal(map[string]string{"code": failureCode(cause), "message": cause.Error()})
	if err := o.store.CompleteTurn(ctx, turnID, domain.TurnStatusFailed, errData); err != nil {
		o.logger.Error("failed to mark turn failed", zap.Error(err))
	}
}

func failureCode(err error) string {
	switch {
	case errors.Is(err, ErrTurnLimitExceeded):
		return "turn_limit_exceeded"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "cancelled"
	default:
		return "model_error"
	}
}

func (o *Orchestrator) recordEvent(ctx context.Context, turnID string, eventType domain.EventType, payload interface{}) {
	var payloadBytes []byte
	if payload != nil {
		var err error
		payloadBytes, err = json.Marshal(payload)
		if err != nil {
			o.logger.Error("failed to marshal event payload", zap.Error(err))
			return
		}
	}

	event := &domain.Event{
		EventID: "evt_" + uuid.New().String()[:8],
		TurnID:  turnID,
		Ts:      time.Now().UnixMilli(),
		Type:    eventType,
		Payload: payloadBytes,
	}
	if err := o.store.AppendEvent(ctx, event); err != nil {
		o.logger.Error("failed to record event", zap.Error(err))
	}
}

func (o *Orchestrator) acquire(sessionID string) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	if _, busy := o.active[sessionID]; busy {
		return false
	}
	o.active[sessionID] = struct{}{}
	return true
}

func (o *Orchestrator) release(sessionID string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	delete(o.active, sessionID)
}

package domain

import (
	"encoding/json"
	"time"
)

// TurnStatus represents the status of a turn.
type TurnStatus string

const (
	TurnStatusRunning TurnStatus = "RUNNING"
	TurnStatusDone    TurnStatus = "DONE"
	TurnStatusFailed  TurnStatus = "FAILED"
)

// Turn records one user message through to one final answer or failure.
type Turn struct {
	TurnID    string          `json:"turn_id"`
	SessionID string          `json:"session_id"`
	Status    TurnStatus      `json:"status"`
	StartedAt time.Time       `json:"started_at"`
	EndedAt   *time.Time      `json:"ended_at,omitempty"`
	Error     json.RawMessage `json:"error,omitempty"`
}

// EventType represents the type of a turn trace event.
type EventType string

const (
	EventTypeModelCallStarted EventType = "model_call_started"
	EventTypeAssistantMessage EventType = "assistant_message"
	EventTypeToolCallStarted  EventType = "tool_call_started"
	EventTypeToolCallDone     EventType = "tool_call_done"
	EventTypeTurnDone         EventType = "turn_done"
	EventTypeTurnFailed       EventType = "turn_failed"
)

// Event is a trace event recorded while a turn executes.
type Event struct {
	EventID string          `json:"event_id"`
	TurnID  string          `json:"turn_id"`
	Ts      int64           `json:"ts"` // Unix milliseconds
	Type    EventType       `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// ToolCallPayload is the payload for tool_call_started and tool_call_done events.
type ToolCallPayload struct {
	CallID   string `json:"call_id"`
	ToolName string `json:"tool_name"`
	IsError  bool   `json:"is_error,omitempty"`
}

// TurnFailedPayload is the payload for turn_failed events.
type TurnFailedPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

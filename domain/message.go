// Package domain defines the core domain models for the travel assistant.
package domain

import (
	"encoding/json"
	"time"
)

// Role identifies the author of a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// ToolCall is a single tool invocation requested by the model.
type ToolCall struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments,omitempty"`
}

// Message is one turn entry in a session. Messages are immutable once
// created and strictly ordered within a session by Seq.
type Message struct {
	MessageID string    `json:"message_id"`
	SessionID string    `json:"session_id"`
	TurnID    string    `json:"turn_id,omitempty"`
	Seq       int64     `json:"seq"`
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	// ToolCallID links a tool-result message back to the assistant
	// tool call that produced it.
	ToolCallID string     `json:"tool_call_id,omitempty"`
	ToolCalls  []ToolCall `json:"tool_calls,omitempty"`
	// ToolError marks a tool-result message that carries a failure
	// instead of a payload.
	ToolError bool      `json:"tool_error,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Session represents a durable conversation keyed by a stable id.
type Session struct {
	SessionID string    `json:"session_id"`
	CreatedAt time.Time `json:"created_at"`
}

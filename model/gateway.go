// Package model wraps an OpenAI-compatible chat-completions backend as
// the assistant's model gateway.
package model

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/voyagent/voyagent/domain"
	"github.com/voyagent/voyagent/registry"
)

// ErrModelUnavailable wraps network or backend failures talking to the
// model. The gateway never retries; that decision belongs to the caller.
var ErrModelUnavailable = errors.New("model backend unavailable")

// Gateway is the chat-completions client.
type Gateway struct {
	baseURL     string
	apiKey      string
	model       string
	temperature float64
	httpClient  *http.Client
}

// NewGateway creates a gateway against an OpenAI-compatible endpoint.
func NewGateway(baseURL, apiKey, model string, temperature float64, timeout time.Duration) *Gateway {
	return &Gateway{
		baseURL:     strings.TrimSuffix(baseURL, "/"),
		apiKey:      apiKey,
		model:       model,
		temperature: temperature,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// chatRequest is the OpenAI chat completion request.
type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature *float64      `json:"temperature,omitempty"`
	Tools       []wireTool    `json:"tools,omitempty"`
	ToolChoice  string        `json:"tool_choice,omitempty"`
}

// chatMessage is a single wire-format message.
type chatMessage struct {
	Role       string         `json:"role"`
	Content    string         `json:"content"`
	ToolCalls  []wireToolCall `json:"tool_calls,omitempty"`
	ToolCallID string         `json:"tool_call_id,omitempty"`
}

// wireTool is a tool definition in the catalog sent to the model.
type wireTool struct {
	Type     string       `json:"type"`
	Function wireFunction `json:"function"`
}

type wireFunction struct {
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	Parameters  map[string]any `json:"parameters,omitempty"`
}

// wireToolCall is a tool call requested by the assistant.
type wireToolCall struct {
	ID       string           `json:"id"`
	Type     string           `json:"type"`
	Function wireCallFunction `json:"function"`
}

type wireCallFunction struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

type chatResponse struct {
	ID      string   `json:"id"`
	Model   string   `json:"model"`
	Choices []choice `json:"choices"`
}

type choice struct {
	Index        int          `json:"index"`
	Message      *chatMessage `json:"message,omitempty"`
	FinishReason string       `json:"finish_reason,omitempty"`
}

type errorResponse struct {
	Error *apiError `json:"error"`
}

type apiError struct {
	Message string `json:"message"`
	Type    string `json:"type"`
	Code    string `json:"code,omitempty"`
}

// Converse sends the full history plus the tool catalog and returns the
// model's next assistant message: either plain content, or content plus
// the tool calls it wants executed.
func (g *Gateway) Converse(ctx context.Context, history []domain.Message, tools []registry.ToolSpec) (domain.Message, error) {
	req := chatRequest{
		Model:    g.model,
		Messages: toWireMessages(history),
	}
	if g.temperature >= 0 {
		t := g.temperature
		req.Temperature = &t
	}
	if len(tools) > 0 {
		req.Tools = toWireTools(tools)
		req.ToolChoice = "auto"
	}

	body, err := json.Marshal(req)
	if err != nil {
		return domain.Message{}, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/v1/chat/completions", bytes.NewReader(body))
	if err != nil {
		return domain.Message{}, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if g.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+g.apiKey)
	}

	resp, err := g.httpClient.Do(httpReq)
	if err != nil {
		return domain.Message{}, fmt.Errorf("%w: %v", ErrModelUnavailable, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return domain.Message{}, fmt.Errorf("%w: failed to read response: %v", ErrModelUnavailable, err)
	}

	if resp.StatusCode != http.StatusOK {
		var errResp errorResponse
		if err := json.Unmarshal(respBody, &errResp); err == nil && errResp.Error != nil {
			return domain.Message{}, fmt.Errorf("%w: API error [%d]: %s (type: %s)",
				ErrModelUnavailable, resp.StatusCode, errResp.Error.Message, errResp.Error.Type)
		}
		return domain.Message{}, fmt.Errorf("%w: API error [%d]: %s",
			ErrModelUnavailable, resp.StatusCode, string(respBody))
	}

	var result chatResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return domain.Message{}, fmt.Errorf("%w: failed to unmarshal response: %v", ErrModelUnavailable, err)
	}
	if len(result.Choices) == 0 || result.Choices[0].Message == nil {
		return domain.Message{}, fmt.Errorf("%w: response contained no choices", ErrModelUnavailable)
	}

	return fromWireMessage(result.Choices[0].Message), nil
}

func toWireMessages(history []domain.Message) []chatMessage {
	messages := make([]chatMessage, 0, len(history))
	for _, msg := range history {
		wire := chatMessage{
			Role:       string(msg.Role),
			Content:    msg.Content,
			ToolCallID: msg.ToolCallID,
		}
		for _, call := range msg.ToolCalls {
			wire.ToolCalls = append(wire.ToolCalls, wireToolCall{
				ID:   call.ID,
				Type: "function",
				Function: wireCallFunction{
					Name:      call.Name,
					Arguments: string(call.Arguments),
				},
			})
		}
		messages = append(messages, wire)
	}
	return messages
}

func toWireTools(tools []registry.ToolSpec) []wireTool {
	out := make([]wireTool, 0, len(tools))
	for _, spec := range tools {
		out = append(out, wireTool{
			Type: "function",
			Function: wireFunction{
				Name:        spec.Name,
				Description: spec.Description,
				Parameters:  spec.Parameters,
			},
		})
	}
	return out
}

func fromWireMessage(msg *chatMessage) domain.Message {
	out := domain.Message{
		Role:      domain.RoleAssistant,
		Content:   msg.Content,
		CreatedAt: time.Now(),
	}
	for _, call := range msg.ToolCalls {
		args := json.RawMessage(call.Function.Arguments)
		if len(args) == 0 {
			args = json.RawMessage(`{}`)
		}
		out.ToolCalls = append(out.ToolCalls, domain.ToolCall{
			ID:        call.ID,
			Name:      call.Function.Name,
			Arguments: args,
		})
	}
	return out
}

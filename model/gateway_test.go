package model

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voyagent/voyagent/domain"
	"github.com/voyagent/voyagent/registry"
)

func newTestGateway(serverURL string) *Gateway {
	return NewGateway(serverURL, "test-key", "gpt-4", 0.0, 5*time.Second)
}

func TestConverseParsesPlainAnswer(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var req chatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "gpt-4", req.Model)
		require.Len(t, req.Messages, 1)
		assert.Equal(t, "user", req.Messages[0].Role)
		assert.Empty(t, req.Tools)

		json.NewEncoder(w).Encode(chatResponse{
			ID: "chatcmpl-1",
			Choices: []choice{{
				Message:      &chatMessage{Role: "assistant", Content: "Visit in October."},
				FinishReason: "stop",
			}},
		})
	}))
	defer server.Close()

	gw := newTestGateway(server.URL)
	msg, err := gw.Converse(context.Background(), []domain.Message{
		{Role: domain.RoleUser, Content: "Best time for Goa?"},
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, domain.RoleAssistant, msg.Role)
	assert.Equal(t, "Visit in October.", msg.Content)
	assert.Empty(t, msg.ToolCalls)
}

func TestConverseParsesToolCalls(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req chatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))

		// The tool catalog and tool_choice ride along with the request.
		require.Len(t, req.Tools, 1)
		assert.Equal(t, "function", req.Tools[0].Type)
		assert.Equal(t, "search_hotels", req.Tools[0].Function.Name)
		assert.Equal(t, "auto", req.ToolChoice)

		json.NewEncoder(w).Encode(chatResponse{
			Choices: []choice{{
				Message: &chatMessage{
					Role: "assistant",
					ToolCalls: []wireToolCall{{
						ID:   "call_1",
						Type: "function",
						Function: wireCallFunction{
							Name:      "search_hotels",
							Arguments: `{"city":"Goa"}`,
						},
					}},
				},
				FinishReason: "tool_calls",
			}},
		})
	}))
	defer server.Close()

	gw := newTestGateway(server.URL)
	msg, err := gw.Converse(context.Background(), []domain.Message{
		{Role: domain.RoleUser, Content: "Hotels in Goa"},
	}, []registry.ToolSpec{{
		Name:        "search_hotels",
		Description: "Search hotels in a city",
		Parameters:  map[string]any{"type": "object"},
	}})
	require.NoError(t, err)
	require.Len(t, msg.ToolCalls, 1)
	assert.Equal(t, "call_1", msg.ToolCalls[0].ID)
	assert.Equal(t, "search_hotels", msg.ToolCalls[0].Name)
	assert.JSONEq(t, `{"city":"Goa"}`, string(msg.ToolCalls[0].Arguments))
}

func TestConverseSerializesToolHistory(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req chatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Len(t, req.Messages, 3)

		assistant := req.Messages[1]
		require.Len(t, assistant.ToolCalls, 1)
		assert.Equal(t, "call_1", assistant.ToolCalls[0].ID)
		assert.Equal(t, "search_hotels", assistant.ToolCalls[0].Function.Name)

		toolMsg := req.Messages[2]
		assert.Equal(t, "tool", toolMsg.Role)
		assert.Equal(t, "call_1", toolMsg.ToolCallID)
		assert.Equal(t, "3 hotels found", toolMsg.Content)

		json.NewEncoder(w).Encode(chatResponse{
			Choices: []choice{{Message: &chatMessage{Role: "assistant", Content: "done"}}},
		})
	}))
	defer server.Close()

	gw := newTestGateway(server.URL)
	history := []domain.Message{
		{Role: domain.RoleUser, Content: "Hotels in Goa"},
		{Role: domain.RoleAssistant, ToolCalls: []domain.ToolCall{
			{ID: "call_1", Name: "search_hotels", Arguments: json.RawMessage(`{"city":"Goa"}`)},
		}},
		{Role: domain.RoleTool, Content: "3 hotels found", ToolCallID: "call_1"},
	}
	_, err := gw.Converse(context.Background(), history, nil)
	require.NoError(t, err)
}

func TestConverseAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		json.NewEncoder(w).Encode(errorResponse{Error: &apiError{
			Message: "rate limit exceeded",
			Type:    "rate_limit_error",
		}})
	}))
	defer server.Close()

	gw := newTestGateway(server.URL)
	_, err := gw.Converse(context.Background(), []domain.Message{
		{Role: domain.RoleUser, Content: "hi"},
	}, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrModelUnavailable)
	assert.Contains(t, err.Error(), "rate limit exceeded")
}

func TestConverseNetworkError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close() // nothing listening anymore

	gw := newTestGateway(server.URL)
	_, err := gw.Converse(context.Background(), []domain.Message{
		{Role: domain.RoleUser, Content: "hi"},
	}, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrModelUnavailable)
}

func TestConverseEmptyChoices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(chatResponse{})
	}))
	defer server.Close()

	gw := newTestGateway(server.URL)
	_, err := gw.Converse(context.Background(), []domain.Message{
		{Role: domain.RoleUser, Content: "hi"},
	}, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrModelUnavailable)
}

func TestConverseDefaultsEmptyArguments(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(chatResponse{
			Choices: []choice{{
				Message: &chatMessage{
					Role: "assistant",
					ToolCalls: []wireToolCall{{
						ID:       "call_1",
						Type:     "function",
						Function: wireCallFunction{Name: "list_sessions"},
					}},
				},
			}},
		})
	}))
	defer server.Close()

	gw := newTestGateway(server.URL)
	msg, err := gw.Converse(context.Background(), []domain.Message{
		{Role: domain.RoleUser, Content: "hi"},
	}, nil)
	require.NoError(t, err)
	require.Len(t, msg.ToolCalls, 1)
	assert.JSONEq(t, `{}`, string(msg.ToolCalls[0].Arguments))
}

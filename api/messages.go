package api

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/voyagent/voyagent/model"
	"github.com/voyagent/voyagent/orchestrator"
)

// PostMessageRequest is the body for submitting one user message.
type PostMessageRequest struct {
	Content string `json:"content"`
}

// PostMessageResponse carries the assistant's final answer for the turn.
type PostMessageResponse struct {
	SessionID string `json:"session_id"`
	TurnID    string `json:"turn_id"`
	Reply     string `json:"reply"`
}

// PostMessage runs one full turn for a session.
// POST /v1/sessions/:session_id/messages
func (h *Handler) PostMessage(c echo.Context) error {
	ctx := c.Request().Context()
	sessionID := c.Param("session_id")

	var req PostMessageRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}
	if req.Content == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "content is required"})
	}

	result, err := h.orchestrator.RunTurn(ctx, sessionID, req.Content)
	if err != nil {
		switch {
		case errors.Is(err, orchestrator.ErrTurnInFlight):
			return c.JSON(http.StatusConflict, map[string]string{"error": err.Error()})
		case errors.Is(err, orchestrator.ErrTurnLimitExceeded):
			return c.JSON(http.StatusUnprocessableEntity, map[string]string{"error": err.Error()})
		case errors.Is(err, model.ErrModelUnavailable):
			return c.JSON(http.StatusBadGateway, map[string]string{"error": err.Error()})
		}
		h.logger.Error("turn failed", zap.String("session_id", sessionID), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "turn failed"})
	}

	return c.JSON(http.StatusOK, PostMessageResponse{
		SessionID: sessionID,
		TurnID:    result.TurnID,
		Reply:     result.Answer,
	})
}

// GetSessionMessages returns the ordered history for a session.
// GET /v1/sessions/:session_id/messages
func (h *Handler) GetSessionMessages(c echo.Context) error {
	ctx := c.Request().Context()
	sessionID := c.Param("session_id")

	messages, err := h.store.Load(ctx, sessionID)
	if err != nil {
		h.logger.Error("failed to load messages", zap.String("session_id", sessionID), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to load messages"})
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"session_id": sessionID,
		"messages":   messages,
	})
}

// ListSessions enumerates resumable session ids.
// GET /v1/sessions
func (h *Handler) ListSessions(c echo.Context) error {
	ctx := c.Request().Context()

	ids, err := h.store.ListSessions(ctx)
	if err != nil {
		h.logger.Error("failed to list sessions", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to list sessions"})
	}
	if ids == nil {
		ids = []string{}
	}

	return c.JSON(http.StatusOK, map[string]interface{}{"sessions": ids})
}

// GetTurnEvents returns the trace for a turn.
// GET /v1/turns/:turn_id/events
func (h *Handler) GetTurnEvents(c echo.Context) error {
	ctx := c.Request().Context()
	turnID := c.Param("turn_id")

	turn, err := h.store.GetTurn(ctx, turnID)
	if err != nil {
		h.logger.Error("failed to get turn", zap.String("turn_id", turnID), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to get turn"})
	}
	if turn == nil {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "turn not found"})
	}

	events, err := h.store.GetTurnEvents(ctx, turnID)
	if err != nil {
		h.logger.Error("failed to get events", zap.String("turn_id", turnID), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to get events"})
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"turn":   turn,
		"events": events,
	})
}

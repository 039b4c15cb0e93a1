// Package api provides the HTTP operator surface for the travel assistant.
package api

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/voyagent/voyagent/orchestrator"
	"github.com/voyagent/voyagent/registry"
	"github.com/voyagent/voyagent/store"
)

// Handler handles HTTP requests.
type Handler struct {
	store        store.Store
	orchestrator *orchestrator.Orchestrator
	registry     *registry.Registry
	logger       *zap.Logger
}

// NewHandler creates a new handler.
func NewHandler(st store.Store, orch *orchestrator.Orchestrator, reg *registry.Registry, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		store:        st,
		orchestrator: orch,
		registry:     reg,
		logger:       logger,
	}
}

// RegisterRoutes registers routes with the echo server.
func (h *Handler) RegisterRoutes(e *echo.Echo) {
	e.POST("/v1/sessions/:session_id/messages", h.PostMessage)
	e.GET("/v1/sessions/:session_id/messages", h.GetSessionMessages)
	e.GET("/v1/sessions", h.ListSessions)
	e.GET("/v1/turns/:turn_id/events", h.GetTurnEvents)
	e.GET("/v1/tools", h.ListTools)

	e.GET("/health", h.Health)
}

// Health returns health status.
func (h *Handler) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status":  "healthy",
		"version": "0.1.0",
	})
}

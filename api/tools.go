package api

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// ToolInfo is the catalog entry exposed to operators.
type ToolInfo struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters,omitempty"`
}

// ListTools returns the registered tool catalog in presentation order.
// GET /v1/tools
func (h *Handler) ListTools(c echo.Context) error {
	specs := h.registry.List()
	infos := make([]ToolInfo, 0, len(specs))
	for _, spec := range specs {
		infos = append(infos, ToolInfo{
			Name:        spec.Name,
			Description: spec.Description,
			Parameters:  spec.Parameters,
		})
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"tools": infos})
}

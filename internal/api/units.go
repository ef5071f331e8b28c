package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mealbridge/backend/internal/service"
)

// UnitHandler serves the Fitbit unit catalogue, passed through verbatim so
// callers can pick unit ids without this bridge maintaining a copy.
type UnitHandler struct {
	client service.UpstreamClient
}

// NewUnitHandler creates the unit catalogue handler.
func NewUnitHandler(client service.UpstreamClient) *UnitHandler {
	return &UnitHandler{client: client}
}

// RegisterRoutes registers the unit routes on the given group.
func (h *UnitHandler) RegisterRoutes(r gin.IRoutes) {
	r.GET("/units", h.List)
}

// List returns the raw upstream unit definitions.
func (h *UnitHandler) List(c *gin.Context) {
	units, err := h.client.ListUnits(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.Data(http.StatusOK, "application/json", units)
}

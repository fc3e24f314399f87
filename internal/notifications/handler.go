package notifications

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"faith-connect/congregation-portal/portal-backend/internal/auth"
)

// Handler exposes the websocket subscription endpoint
type Handler struct {
	hub    *Hub
	logger *zap.Logger
}

// NewHandler creates a new notifications handler
func NewHandler(hub *Hub, logger *zap.Logger) *Handler {
	return &Handler{hub: hub, logger: logger}
}

// RegisterRoutes registers notification routes
func (h *Handler) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/notifications/ws", auth.RequireAuth(), h.subscribe)
}

// subscribe handles GET /api/v1/notifications/ws
func (h *Handler) subscribe(c *gin.Context) {
	principal := auth.CurrentPrincipal(c)
	if principal == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return
	}

	if err := h.hub.Subscribe(c.Writer, c.Request, principal.UID, principal.CongregationID); err != nil {
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
	}
}

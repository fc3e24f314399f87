package settings

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"faith-connect/congregation-portal/portal-backend/internal/auth"
)

// Handler handles HTTP requests for platform settings
type Handler struct {
	service *Service
	logger  *zap.Logger
}

// NewHandler creates a new settings handler
func NewHandler(service *Service, logger *zap.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// RegisterRoutes registers settings routes
func (h *Handler) RegisterRoutes(router *gin.RouterGroup) {
	group := router.Group("/settings")
	{
		group.GET("", auth.RequireAuth(), h.getSettings)
		group.PUT("", auth.RequireRole(auth.RoleSuperAdmin), h.updateSettings)
	}
}

// getSettings handles GET /api/v1/settings
func (h *Handler) getSettings(c *gin.Context) {
	current := h.service.Current()
	c.JSON(http.StatusOK, current)
}

// updateSettings handles PUT /api/v1/settings
func (h *Handler) updateSettings(c *gin.Context) {
	var req UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	updated, err := h.service.Update(c.Request.Context(), auth.CurrentPrincipal(c), req)
	if err != nil {
		if errors.Is(err, ErrPermissionDenied) {
			c.JSON(http.StatusForbidden, gin.H{"error": "only super admins may change platform settings"})
			return
		}
		h.logger.Error("Failed to update settings", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update settings"})
		return
	}

	c.JSON(http.StatusOK, updated)
}

package activity

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"faith-connect/congregation-portal/portal-backend/internal/auth"
)

const defaultListLimit = 200

// Handler handles HTTP requests for the admin activity log
type Handler struct {
	repo   Repository
	logger *zap.Logger
}

// NewHandler creates a new activity handler
func NewHandler(repo Repository, logger *zap.Logger) *Handler {
	return &Handler{repo: repo, logger: logger}
}

// RegisterRoutes registers activity log routes
func (h *Handler) RegisterRoutes(router *gin.RouterGroup) {
	group := router.Group("/activity", auth.RequireRole(auth.RoleSuperAdmin))
	{
		group.GET("", h.list)
	}
}

// list handles GET /api/v1/activity
func (h *Handler) list(c *gin.Context) {
	limit := int64(defaultListLimit)
	if raw := c.Query("limit"); raw != "" {
		if parsed, err := strconv.ParseInt(raw, 10, 64); err == nil && parsed > 0 {
			limit = parsed
		}
	}

	var (
		entries []Entry
		err     error
	)
	if actor := c.Query("actor_id"); actor != "" {
		entries, err = h.repo.ListByActor(c.Request.Context(), actor, limit)
	} else {
		entries, err = h.repo.List(c.Request.Context(), limit)
	}
	if err != nil {
		h.logger.Error("Failed to list activity log", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load activity log"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"entries": entries, "count": len(entries)})
}

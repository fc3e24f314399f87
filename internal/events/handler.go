package events

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"faith-connect/congregation-portal/portal-backend/internal/auth"
)

// Handler handles HTTP requests for events
type Handler struct {
	service *Service
	logger  *zap.Logger
}

// NewHandler creates a new events handler
func NewHandler(service *Service, logger *zap.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// RegisterRoutes registers event routes. The bare listing is public,
// management endpoints require an admin session.
func (h *Handler) RegisterRoutes(router *gin.RouterGroup) {
	group := router.Group("/events")
	{
		group.GET("", h.publicList)
		group.POST("", auth.RequireAuth(), h.create)
		group.GET("/admin", auth.RequireAuth(), h.adminList)
		group.GET("/analytics", auth.RequireRole(auth.RoleSuperAdmin), h.analytics)
		group.POST("/bulk-delete", auth.RequireRole(auth.RoleSuperAdmin), h.bulkDelete)
	}
}

// publicList handles GET /api/v1/events
func (h *Handler) publicList(c *gin.Context) {
	views, err := h.service.PublicList(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"events": views, "total": len(views)})
}

// create handles POST /api/v1/events
func (h *Handler) create(c *gin.Context) {
	var req CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	e, err := h.service.Create(c.Request.Context(), auth.CurrentPrincipal(c), req)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, e)
}

// adminList handles GET /api/v1/events/admin
func (h *Handler) adminList(c *gin.Context) {
	views, err := h.service.AdminList(c.Request.Context(), auth.CurrentPrincipal(c),
		c.Query("search"), c.DefaultQuery("status", StatusFilterAll))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"events": views, "total": len(views)})
}

// analytics handles GET /api/v1/events/analytics
func (h *Handler) analytics(c *gin.Context) {
	summary, err := h.service.Analytics(c.Request.Context(), auth.CurrentPrincipal(c))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

// bulkDelete handles POST /api/v1/events/bulk-delete
func (h *Handler) bulkDelete(c *gin.Context) {
	var req BulkDeleteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	deleted, err := h.service.BulkDelete(c.Request.Context(), auth.CurrentPrincipal(c), req.EventIDs)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": deleted})
}

func (h *Handler) respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrValidation):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "invalid request"})
	case errors.Is(err, ErrPermissionDenied):
		c.JSON(http.StatusForbidden, gin.H{"error": "permission denied"})
	case errors.Is(err, ErrEmptySelection):
		c.JSON(http.StatusBadRequest, gin.H{"error": "no events selected"})
	case errors.Is(err, ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "event not found"})
	default:
		h.logger.Error("Events request failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

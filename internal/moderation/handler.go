package moderation

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"faith-connect/congregation-portal/portal-backend/internal/auth"
	"faith-connect/congregation-portal/portal-backend/internal/verification"
)

// Handler exposes the moderation console over HTTP
type Handler struct {
	manager *Manager
	logger  *zap.Logger
}

// NewHandler creates a new moderation handler
func NewHandler(manager *Manager, logger *zap.Logger) *Handler {
	return &Handler{manager: manager, logger: logger}
}

// RegisterRoutes registers moderation console routes
func (h *Handler) RegisterRoutes(router *gin.RouterGroup) {
	group := router.Group("/console", auth.RequireRole(auth.RoleSuperAdmin, auth.RoleCongregationAdmin))
	{
		group.GET("", h.view)
		group.POST("/filter", h.setFilter)
		group.POST("/page", h.setPage)
		group.POST("/select", h.toggleSelect)
		group.POST("/select-all", h.toggleSelectAll)
		group.POST("/clear-selection", h.clearSelection)
		group.POST("/request", h.request)
		group.POST("/confirm", h.confirm)
		group.POST("/cancel", h.cancel)
	}
}

func (h *Handler) console(c *gin.Context) *Console {
	return h.manager.ForPrincipal(auth.CurrentPrincipal(c).UID)
}

// view handles GET /api/v1/console
func (h *Handler) view(c *gin.Context) {
	c.JSON(http.StatusOK, h.console(c).Render())
}

// setFilter handles POST /api/v1/console/filter
func (h *Handler) setFilter(c *gin.Context) {
	var req struct {
		Search string `json:"search"`
		Status string `json:"status"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	console := h.console(c)
	console.SetFilter(req.Search, req.Status)
	c.JSON(http.StatusOK, console.Render())
}

// setPage handles POST /api/v1/console/page
func (h *Handler) setPage(c *gin.Context) {
	var req struct {
		Page     int `json:"page"`
		PageSize int `json:"page_size"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	console := h.console(c)
	console.SetPage(req.Page, req.PageSize)
	c.JSON(http.StatusOK, console.Render())
}

// toggleSelect handles POST /api/v1/console/select
func (h *Handler) toggleSelect(c *gin.Context) {
	var req struct {
		ID uuid.UUID `json:"id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	console := h.console(c)
	console.ToggleSelect(req.ID)
	c.JSON(http.StatusOK, gin.H{"selected_count": console.SelectionCount()})
}

// toggleSelectAll handles POST /api/v1/console/select-all
func (h *Handler) toggleSelectAll(c *gin.Context) {
	console := h.console(c)
	console.ToggleSelectAll()
	c.JSON(http.StatusOK, gin.H{"selected_count": console.SelectionCount()})
}

// clearSelection handles POST /api/v1/console/clear-selection
func (h *Handler) clearSelection(c *gin.Context) {
	console := h.console(c)
	console.ClearSelection()
	c.JSON(http.StatusOK, gin.H{"selected_count": 0})
}

// request handles POST /api/v1/console/request — stages a confirmation
func (h *Handler) request(c *gin.Context) {
	var req struct {
		Kind ActionKind `json:"kind" binding:"required"`
		ID   *uuid.UUID `json:"id"`
		Name string     `json:"name"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	console := h.console(c)
	var (
		confirmation *Confirmation
		err          error
	)
	switch req.Kind {
	case KindApprove, KindReject:
		if req.ID == nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "id is required for single actions"})
			return
		}
		confirmation, err = console.RequestSingle(req.Kind, *req.ID, req.Name)
	default:
		confirmation, err = console.RequestBulk(req.Kind)
	}
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, confirmation)
}

// confirm handles POST /api/v1/console/confirm — dispatches the staged action
func (h *Handler) confirm(c *gin.Context) {
	var req struct {
		Reason string `json:"reason"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.console(c).Confirm(c.Request.Context(), auth.CurrentPrincipal(c), req.Reason)

	var partial *verification.PartialAuditError
	if errors.As(err, &partial) {
		c.JSON(http.StatusMultiStatus, gin.H{
			"result":        result,
			"audit_pending": partial.PendingCongregations,
		})
		return
	}
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// cancel handles POST /api/v1/console/cancel
func (h *Handler) cancel(c *gin.Context) {
	h.console(c).Cancel()
	c.Status(http.StatusNoContent)
}

func (h *Handler) respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrNoPendingConfirmation), errors.Is(err, ErrConfirmationPending):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, verification.ErrValidation):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	case errors.Is(err, verification.ErrPermissionDenied):
		c.JSON(http.StatusForbidden, gin.H{"error": "not allowed to moderate congregations"})
	case errors.Is(err, verification.ErrBulkActionsDisabled):
		c.JSON(http.StatusForbidden, gin.H{"error": "bulk actions are disabled by platform settings"})
	case errors.Is(err, verification.ErrEmptySelection):
		c.JSON(http.StatusBadRequest, gin.H{"error": "no congregations selected"})
	case errors.Is(err, verification.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "congregation not found"})
	default:
		h.logger.Error("Console action failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "console action failed"})
	}
}

package verification

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"faith-connect/congregation-portal/portal-backend/internal/auth"
)

// Handler handles HTTP requests for verification decisions
type Handler struct {
	engine *Engine
	logger *zap.Logger
}

// NewHandler creates a new verification handler
func NewHandler(engine *Engine, logger *zap.Logger) *Handler {
	return &Handler{engine: engine, logger: logger}
}

// RegisterRoutes registers verification routes
func (h *Handler) RegisterRoutes(router *gin.RouterGroup) {
	group := router.Group("/congregations", auth.RequireAuth())
	{
		group.POST("/:id/approve", h.approve)
		group.POST("/:id/reject", h.reject)
		group.GET("/:id/history", h.history)
		group.POST("/bulk-approve", h.bulkApprove)
		group.POST("/bulk-reject", h.bulkReject)
	}
	router.GET("/verification/operations/:id", auth.RequireAuth(), h.operationState)
}

type rejectRequest struct {
	Reason string `json:"reason"`
}

type bulkRequest struct {
	IDs    []uuid.UUID `json:"ids"`
	Reason string      `json:"reason"`
}

// approve handles POST /api/v1/congregations/:id/approve
func (h *Handler) approve(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid congregation id"})
		return
	}

	result, err := h.engine.Approve(c.Request.Context(), auth.CurrentPrincipal(c), id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// reject handles POST /api/v1/congregations/:id/reject
func (h *Handler) reject(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid congregation id"})
		return
	}
	var req rejectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.engine.Reject(c.Request.Context(), auth.CurrentPrincipal(c), id, req.Reason)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// history handles GET /api/v1/congregations/:id/history
func (h *Handler) history(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid congregation id"})
		return
	}

	records, err := h.engine.History(c.Request.Context(), id)
	if err != nil {
		h.logger.Error("Failed to load verification history", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load history"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"records": records, "count": len(records)})
}

// bulkApprove handles POST /api/v1/congregations/bulk-approve
func (h *Handler) bulkApprove(c *gin.Context) {
	var req bulkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.engine.BulkApprove(c.Request.Context(), auth.CurrentPrincipal(c), req.IDs)
	h.respondBulk(c, result, err)
}

// bulkReject handles POST /api/v1/congregations/bulk-reject
func (h *Handler) bulkReject(c *gin.Context) {
	var req bulkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.engine.BulkReject(c.Request.Context(), auth.CurrentPrincipal(c), req.IDs, req.Reason)
	h.respondBulk(c, result, err)
}

// operationState handles GET /api/v1/verification/operations/:id
func (h *Handler) operationState(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid operation id"})
		return
	}

	state, err := h.engine.OperationState(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "operation not found"})
			return
		}
		h.logger.Error("Failed to load operation state", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load operation state"})
		return
	}
	c.JSON(http.StatusOK, state)
}

// respondBulk surfaces a partial audit failure distinctly: the statuses
// ARE changed, so the result ships alongside the gap report.
func (h *Handler) respondBulk(c *gin.Context, result *BulkResult, err error) {
	var partial *PartialAuditError
	if errors.As(err, &partial) {
		h.logger.Warn("Bulk decision committed with pending audit entries",
			zap.String("operation_id", partial.OperationID.String()),
			zap.Int("pending", len(partial.PendingCongregations)))
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

func (h *Handler) respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrValidation):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	case errors.Is(err, ErrPermissionDenied):
		c.JSON(http.StatusForbidden, gin.H{"error": "not allowed to moderate congregations"})
	case errors.Is(err, ErrBulkActionsDisabled):
		c.JSON(http.StatusForbidden, gin.H{"error": "bulk actions are disabled by platform settings"})
	case errors.Is(err, ErrEmptySelection):
		c.JSON(http.StatusBadRequest, gin.H{"error": "no congregations selected"})
	case errors.Is(err, ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "congregation not found"})
	default:
		h.logger.Error("Verification decision failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "decision failed"})
	}
}

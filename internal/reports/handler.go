package reports

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"faith-connect/congregation-portal/portal-backend/internal/auth"
)

// Handler handles HTTP requests for admin reports
type Handler struct {
	service *Service
	logger  *zap.Logger
}

// NewHandler creates a new reports handler
func NewHandler(service *Service, logger *zap.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// RegisterRoutes registers report routes
func (h *Handler) RegisterRoutes(router *gin.RouterGroup) {
	group := router.Group("/reports", auth.RequireRole(auth.RoleSuperAdmin))
	{
		group.GET("/summary", h.summary)
		group.GET("/export/pdf", h.exportPDF)
		group.GET("/export/excel", h.exportExcel)
	}
}

// summary handles GET /api/v1/reports/summary
func (h *Handler) summary(c *gin.Context) {
	s, err := h.service.BuildSummary(c.Request.Context(), auth.CurrentPrincipal(c))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, s)
}

// exportPDF handles GET /api/v1/reports/export/pdf
func (h *Handler) exportPDF(c *gin.Context) {
	s, err := h.service.BuildSummary(c.Request.Context(), auth.CurrentPrincipal(c))
	if err != nil {
		h.respondError(c, err)
		return
	}

	data, err := RenderPDF(s)
	if err != nil {
		h.logger.Error("PDF export failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "export failed"})
		return
	}

	filename := fmt.Sprintf("platform-report-%s.pdf", time.Now().Format("2006-01-02"))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, "application/pdf", data)
}

// exportExcel handles GET /api/v1/reports/export/excel
func (h *Handler) exportExcel(c *gin.Context) {
	s, err := h.service.BuildSummary(c.Request.Context(), auth.CurrentPrincipal(c))
	if err != nil {
		h.respondError(c, err)
		return
	}

	data, err := RenderExcel(s)
	if err != nil {
		h.logger.Error("Excel export failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "export failed"})
		return
	}

	filename := fmt.Sprintf("platform-report-%s.xlsx", time.Now().Format("2006-01-02"))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK,
		"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", data)
}

func (h *Handler) respondError(c *gin.Context, err error) {
	if errors.Is(err, ErrPermissionDenied) {
		c.JSON(http.StatusForbidden, gin.H{"error": "permission denied"})
		return
	}
	h.logger.Error("Reports request failed", zap.Error(err))
	c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
}

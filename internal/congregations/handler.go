package congregations

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"faith-connect/congregation-portal/portal-backend/internal/auth"
	"faith-connect/congregation-portal/portal-backend/pkg/geospatial"
)

// Handler handles HTTP requests for congregations and the public directory
type Handler struct {
	service  *Service
	registry *Registry
	logger   *zap.Logger
}

// NewHandler creates a new congregations handler
func NewHandler(service *Service, registry *Registry, logger *zap.Logger) *Handler {
	return &Handler{service: service, registry: registry, logger: logger}
}

// RegisterRoutes registers congregation routes
func (h *Handler) RegisterRoutes(router *gin.RouterGroup) {
	// Public directory
	directory := router.Group("/directory")
	{
		directory.GET("", h.directory)
		directory.GET("/nearby", h.nearby)
		directory.GET("/:id", h.getCongregation)
	}

	group := router.Group("/congregations")
	{
		group.POST("", h.register)
		group.PUT("/:id", auth.RequireAuth(), h.updateProfile)
		group.POST("/:id/logo", auth.RequireAuth(), h.uploadLogo)

		// Moderation console listing over the in-memory snapshot
		group.GET("", auth.RequireRole(auth.RoleSuperAdmin), h.adminList)
		group.POST("/reload", auth.RequireRole(auth.RoleSuperAdmin), h.reload)
	}
}

// directory handles GET /api/v1/directory
func (h *Handler) directory(c *gin.Context) {
	list, err := h.service.Directory(c.Request.Context())
	if err != nil {
		if errors.Is(err, ErrDirectoryDisabled) {
			c.JSON(http.StatusForbidden, gin.H{"error": "public directory is disabled"})
			return
		}
		h.logger.Error("Failed to load directory", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load directory"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"congregations": list, "count": len(list)})
}

// nearby handles GET /api/v1/directory/nearby?lat=..&lng=..&radius_km=..
func (h *Handler) nearby(c *gin.Context) {
	lat, errLat := strconv.ParseFloat(c.Query("lat"), 64)
	lng, errLng := strconv.ParseFloat(c.Query("lng"), 64)
	if errLat != nil || errLng != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "lat and lng are required"})
		return
	}
	radius := 25.0
	if raw := c.Query("radius_km"); raw != "" {
		if parsed, err := strconv.ParseFloat(raw, 64); err == nil && parsed > 0 {
			radius = parsed
		}
	}

	list, err := h.service.Nearby(c.Request.Context(), geospatial.Point{Lat: lat, Lng: lng}, radius)
	if err != nil {
		if errors.Is(err, ErrDirectoryDisabled) {
			c.JSON(http.StatusForbidden, gin.H{"error": "public directory is disabled"})
			return
		}
		h.logger.Error("Failed to search nearby congregations", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to search directory"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"congregations": list, "count": len(list)})
}

// getCongregation handles GET /api/v1/directory/:id
func (h *Handler) getCongregation(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid congregation id"})
		return
	}

	congregation, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "congregation not found"})
			return
		}
		h.logger.Error("Failed to get congregation", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load congregation"})
		return
	}
	c.JSON(http.StatusOK, congregation)
}

// register handles POST /api/v1/congregations
func (h *Handler) register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	congregation, err := h.service.Register(c.Request.Context(), req)
	if err != nil {
		h.logger.Error("Failed to register congregation", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to register congregation"})
		return
	}
	c.JSON(http.StatusCreated, congregation)
}

// updateProfile handles PUT /api/v1/congregations/:id
func (h *Handler) updateProfile(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid congregation id"})
		return
	}

	var req UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	congregation, err := h.service.UpdateProfile(c.Request.Context(), auth.CurrentPrincipal(c), id, req)
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "congregation not found"})
		case errors.Is(err, ErrPermissionDenied):
			c.JSON(http.StatusForbidden, gin.H{"error": "not allowed to edit this congregation"})
		default:
			h.logger.Error("Failed to update congregation", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update congregation"})
		}
		return
	}
	c.JSON(http.StatusOK, congregation)
}

// uploadLogo handles POST /api/v1/congregations/:id/logo
func (h *Handler) uploadLogo(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid congregation id"})
		return
	}

	file, header, err := c.Request.FormFile("logo")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "logo file is required"})
		return
	}
	defer file.Close()

	url, err := h.service.UploadLogo(c.Request.Context(), auth.CurrentPrincipal(c), id,
		header.Filename, header.Header.Get("Content-Type"), file)
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "congregation not found"})
		case errors.Is(err, ErrPermissionDenied):
			c.JSON(http.StatusForbidden, gin.H{"error": "not allowed to edit this congregation"})
		default:
			h.logger.Error("Failed to upload logo", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to upload logo"})
		}
		return
	}
	c.JSON(http.StatusOK, gin.H{"logo_url": url})
}

// adminList handles GET /api/v1/congregations — the moderation console
// listing served from the in-memory snapshot
func (h *Handler) adminList(c *gin.Context) {
	search := c.Query("search")
	statusFilter := c.DefaultQuery("status", StatusFilterAll)
	page := h.getIntParam(c, "page", 1)
	pageSize := h.getIntParam(c, "page_size", 10)

	filtered := Filter(h.registry.Snapshot(), search, statusFilter)
	items, actualPage := Paginate(filtered, page, pageSize)

	c.JSON(http.StatusOK, gin.H{
		"congregations": items,
		"page":          actualPage,
		"page_size":     pageSize,
		"total":         len(filtered),
		"stats":         h.registry.Stats(),
	})
}

// reload handles POST /api/v1/congregations/reload
func (h *Handler) reload(c *gin.Context) {
	if err := h.registry.Load(c.Request.Context()); err != nil {
		h.logger.Error("Failed to reload congregation registry", zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": "failed to reload congregations"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"stats": h.registry.Stats()})
}

func (h *Handler) getIntParam(c *gin.Context, key string, defaultVal int) int {
	if raw := c.Query(key); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil {
			return parsed
		}
	}
	return defaultVal
}

package congregations

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"faith-connect/congregation-portal/portal-backend/internal/auth"
	"faith-connect/congregation-portal/portal-backend/internal/settings"
	"faith-connect/congregation-portal/portal-backend/pkg/geospatial"
	"faith-connect/congregation-portal/portal-backend/pkg/storage"
	"faith-connect/congregation-portal/portal-backend/pkg/workflows"
)

var (
	ErrNotFound          = errors.New("congregations: not found")
	ErrPermissionDenied  = errors.New("congregations: permission denied")
	ErrDirectoryDisabled = errors.New("congregations: public directory disabled")
)

// SettingsProvider supplies the current platform settings value
type SettingsProvider interface {
	Current() settings.PlatformSettings
}

// Service provides congregation registration, profile and directory logic
type Service struct {
	repo     Repository
	registry *Registry
	settings SettingsProvider
	media    storage.S3Client
	logger   *zap.Logger
}

// NewService creates a new congregations service
func NewService(repo Repository, registry *Registry, settingsProvider SettingsProvider, media storage.S3Client, logger *zap.Logger) *Service {
	return &Service{
		repo:     repo,
		registry: registry,
		settings: settingsProvider,
		media:    media,
		logger:   logger,
	}
}

// Register creates a congregation in pending state. Registration never
// creates a verified congregation; only the verification engine moves it on.
func (s *Service) Register(ctx context.Context, req RegisterRequest) (*Congregation, error) {
	now := time.Now()
	c := &Congregation{
		ID:           uuid.New(),
		Name:         req.Name,
		Denomination: req.Denomination,
		Description:  req.Description,
		Address:      req.Address,
		City:         req.City,
		Country:      req.Country,
		ContactEmail: req.ContactEmail,
		ContactPhone: req.ContactPhone,
		Latitude:     req.Latitude,
		Longitude:    req.Longitude,
		Status:       workflows.StatusPending,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.repo.Create(ctx, c); err != nil {
		return nil, fmt.Errorf("failed to register congregation: %w", err)
	}

	s.logger.Info("Congregation registered",
		zap.String("congregation_id", c.ID.String()),
		zap.String("name", c.Name))

	return c, nil
}

// Get retrieves a congregation by id
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Congregation, error) {
	c, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, ErrNotFound
	}
	return c, nil
}

// UpdateProfile applies profile edits unrelated to moderation status.
// Allowed for the owning congregation admin and for super admins.
func (s *Service) UpdateProfile(ctx context.Context, principal *auth.Principal, id uuid.UUID, req UpdateProfileRequest) (*Congregation, error) {
	if !canEditProfile(principal, id) {
		return nil, ErrPermissionDenied
	}

	c, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		c.Name = *req.Name
	}
	if req.Denomination != nil {
		c.Denomination = *req.Denomination
	}
	if req.Description != nil {
		c.Description = *req.Description
	}
	if req.Address != nil {
		c.Address = *req.Address
	}
	if req.City != nil {
		c.City = *req.City
	}
	if req.Country != nil {
		c.Country = *req.Country
	}
	if req.ContactEmail != nil {
		c.ContactEmail = *req.ContactEmail
	}
	if req.ContactPhone != nil {
		c.ContactPhone = *req.ContactPhone
	}
	if req.Latitude != nil {
		c.Latitude = *req.Latitude
	}
	if req.Longitude != nil {
		c.Longitude = *req.Longitude
	}
	c.UpdatedAt = time.Now()

	if err := s.repo.UpdateProfile(ctx, c); err != nil {
		return nil, fmt.Errorf("failed to update congregation: %w", err)
	}
	return c, nil
}

// UploadLogo stores a congregation logo and records its URL
func (s *Service) UploadLogo(ctx context.Context, principal *auth.Principal, id uuid.UUID, filename, contentType string, body io.Reader) (string, error) {
	if !canEditProfile(principal, id) {
		return "", ErrPermissionDenied
	}
	if _, err := s.Get(ctx, id); err != nil {
		return "", err
	}

	key := storage.LogoKey(id.String(), filename)
	url, err := s.media.Upload(ctx, key, contentType, body)
	if err != nil {
		return "", fmt.Errorf("failed to upload logo: %w", err)
	}

	if err := s.repo.UpdateLogoURL(ctx, id, url); err != nil {
		return "", fmt.Errorf("failed to record logo url: %w", err)
	}
	return url, nil
}

// Directory returns verified congregations for the public listing.
// Fails when the platform settings hide the directory.
func (s *Service) Directory(ctx context.Context) ([]Congregation, error) {
	if !s.settings.Current().Directory.PublicVisible {
		return nil, ErrDirectoryDisabled
	}
	return s.repo.ListByStatus(ctx, workflows.StatusVerified)
}

// Nearby returns verified congregations within radiusKm of the given point
func (s *Service) Nearby(ctx context.Context, center geospatial.Point, radiusKm float64) ([]Congregation, error) {
	list, err := s.Directory(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]Congregation, 0, len(list))
	for _, c := range list {
		p := geospatial.Point{Lat: c.Latitude, Lng: c.Longitude}
		if !geospatial.ValidCoordinate(p) {
			continue
		}
		if geospatial.WithinRadius(center, p, radiusKm) {
			out = append(out, c)
		}
	}
	return out, nil
}

func canEditProfile(principal *auth.Principal, congregationID uuid.UUID) bool {
	if principal == nil {
		return false
	}
	if principal.IsSuperAdmin() {
		return true
	}
	return principal.IsCongregationAdmin() &&
		principal.CongregationID != nil &&
		*principal.CongregationID == congregationID
}

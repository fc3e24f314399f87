package settings

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"faith-connect/congregation-portal/portal-backend/internal/activity"
	"faith-connect/congregation-portal/portal-backend/internal/auth"
)

var ErrPermissionDenied = errors.New("settings: permission denied")

// Service is the single source of truth for platform feature flags.
// The value is loaded once at startup and refreshed on every save, so
// reads never hit the database on the request path.
type Service struct {
	repo     Repository
	activity activity.Logger
	logger   *zap.Logger

	mu      sync.RWMutex
	current PlatformSettings
}

// NewService creates the settings service and loads the singleton
func NewService(ctx context.Context, repo Repository, activityLog activity.Logger, logger *zap.Logger) (*Service, error) {
	s := &Service{repo: repo, activity: activityLog, logger: logger}
	loaded, err := repo.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load initial settings: %w", err)
	}
	s.current = *loaded
	return s, nil
}

// Current returns the most recently loaded settings value.
// Callers receive a copy; mutating it has no effect.
func (s *Service) Current() PlatformSettings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Update saves new settings. Only a super admin may do this; the change is
// activity-logged as update_platform_settings.
func (s *Service) Update(ctx context.Context, principal *auth.Principal, req UpdateRequest) (*PlatformSettings, error) {
	if !principal.IsSuperAdmin() {
		return nil, ErrPermissionDenied
	}

	now := time.Now()
	updated := PlatformSettings{
		Approvals: req.Approvals,
		Directory: req.Directory,
		Events:    req.Events,
		System: SystemMetadata{
			LastUpdated:   &now,
			UpdatedBy:     &principal.UID,
			UpdatedByName: principal.Name,
		},
	}

	if err := s.repo.Save(ctx, &updated); err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.current = updated
	s.mu.Unlock()

	if err := s.activity.Log(ctx, activity.Entry{
		ActorID:    principal.UID.String(),
		ActorName:  principal.Name,
		ActorRole:  string(principal.Role),
		Action:     activity.ActionUpdatePlatformSettings,
		TargetType: "settings",
		TargetID:   "platform",
		Timestamp:  now,
	}); err != nil {
		s.logger.Warn("Failed to log settings change", zap.Error(err))
	}

	s.logger.Info("Platform settings updated",
		zap.String("updated_by", principal.UID.String()),
		zap.Bool("allow_bulk_actions", updated.Approvals.AllowBulkActions),
		zap.Bool("allow_admin_approve", updated.Approvals.AllowAdminApprove))

	return &updated, nil
}

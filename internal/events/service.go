package events

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"faith-connect/congregation-portal/portal-backend/internal/activity"
	"faith-connect/congregation-portal/portal-backend/internal/auth"
	"faith-connect/congregation-portal/portal-backend/internal/settings"
)

var (
	ErrPermissionDenied = errors.New("events: permission denied")
	ErrEmptySelection   = errors.New("events: no events selected")
	ErrNotFound         = errors.New("events: event not found")
	ErrValidation       = errors.New("events: invalid request")
)

// SettingsProvider supplies the current platform settings value
type SettingsProvider interface {
	Current() settings.PlatformSettings
}

// Service provides event management and the public event listing
type Service struct {
	repo     Repository
	settings SettingsProvider
	audit    activity.Logger
	logger   *zap.Logger
}

// NewService creates a new events service
func NewService(repo Repository, settings SettingsProvider, audit activity.Logger, logger *zap.Logger) *Service {
	return &Service{repo: repo, settings: settings, audit: audit, logger: logger}
}

// Create registers a new event. Congregation admins may only create
// events for their own congregation.
func (s *Service) Create(ctx context.Context, actor *auth.Principal, req CreateRequest) (*Event, error) {
	if strings.TrimSpace(req.Title) == "" {
		return nil, ErrValidation
	}
	if !actor.IsSuperAdmin() {
		if !actor.IsCongregationAdmin() || actor.CongregationID == nil {
			return nil, ErrPermissionDenied
		}
		if req.CongregationID == nil || *req.CongregationID != *actor.CongregationID {
			return nil, ErrPermissionDenied
		}
	}

	e := &Event{
		Title:            strings.TrimSpace(req.Title),
		Description:      req.Description,
		CongregationID:   req.CongregationID,
		CongregationName: req.CongregationName,
		Category:         req.Category,
		Location:         req.Location,
		Date:             req.Date,
		Metadata:         req.Metadata,
		CreatedBy:        actor.UID,
	}
	if err := s.repo.Create(ctx, e); err != nil {
		return nil, fmt.Errorf("create event: %w", err)
	}
	return e, nil
}

// AdminList returns all events matching search and derived-status filter,
// decorated with their status.
func (s *Service) AdminList(ctx context.Context, actor *auth.Principal, search, statusFilter string) ([]View, error) {
	if !actor.IsSuperAdmin() && !actor.IsCongregationAdmin() {
		return nil, ErrPermissionDenied
	}

	list, err := s.load(ctx, search)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	views := make([]View, 0, len(list))
	for _, e := range list {
		status := e.StatusAt(now)
		if statusFilter != "" && statusFilter != StatusFilterAll && status != statusFilter {
			continue
		}
		views = append(views, View{Event: e, Status: status})
	}
	return views, nil
}

// PublicList returns events for the public site. Past events are only
// included when the platform setting allows them.
func (s *Service) PublicList(ctx context.Context) ([]View, error) {
	list, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}

	showPast := s.settings.Current().Events.ShowPastEvents
	now := time.Now()
	views := make([]View, 0, len(list))
	for _, e := range list {
		status := e.StatusAt(now)
		if status == StatusElapsed && !showPast {
			continue
		}
		views = append(views, View{Event: e, Status: status})
	}
	return views, nil
}

// Analytics summarises the full events table
func (s *Service) Analytics(ctx context.Context, actor *auth.Principal) (*Analytics, error) {
	if !actor.IsSuperAdmin() {
		return nil, ErrPermissionDenied
	}

	list, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}

	now := time.Now()
	out := &Analytics{ByCategory: make(map[string]int)}
	for _, e := range list {
		out.Total++
		switch e.StatusAt(now) {
		case StatusUpcoming:
			out.Upcoming++
		case StatusElapsed:
			out.Elapsed++
		default:
			out.Unknown++
		}
		category := e.Category
		if category == "" {
			category = "uncategorized"
		}
		out.ByCategory[category]++
	}
	return out, nil
}

// BulkDelete removes the selected events. Super admins only; an empty
// selection is rejected rather than silently ignored.
func (s *Service) BulkDelete(ctx context.Context, actor *auth.Principal, ids []uuid.UUID) (int64, error) {
	if !actor.IsSuperAdmin() {
		return 0, ErrPermissionDenied
	}
	if len(ids) == 0 {
		return 0, ErrEmptySelection
	}

	deleted, err := s.repo.DeleteMany(ctx, ids)
	if err != nil {
		return 0, fmt.Errorf("bulk delete events: %w", err)
	}

	entry := activity.Entry{
		ActorID:    actor.UID.String(),
		ActorName:  actor.Name,
		ActorRole:  string(actor.Role),
		Action:     activity.ActionBulkDeleteEvents,
		TargetType: "event",
		TargetID:   fmt.Sprintf("%d events", deleted),
		Timestamp:  time.Now().UTC(),
	}
	if err := s.audit.Log(ctx, entry); err != nil {
		s.logger.Warn("activity log write failed",
			zap.String("action", activity.ActionBulkDeleteEvents),
			zap.Error(err))
	}
	return deleted, nil
}

func (s *Service) load(ctx context.Context, search string) ([]Event, error) {
	if strings.TrimSpace(search) != "" {
		return s.repo.Search(ctx, search)
	}
	return s.repo.List(ctx)
}

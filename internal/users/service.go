package users

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
	"faith-connect/congregation-portal/portal-backend/pkg/security"
)

var (
	ErrPermissionDenied = errors.New("users: permission denied")
	ErrNotFound         = errors.New("users: user not found")
	ErrValidation       = errors.New("users: invalid request")
	ErrEmailTaken       = errors.New("users: email already registered")
	ErrSelfDemotion     = errors.New("users: cannot change own role")
)

// Service manages platform accounts
type Service struct {
	repo   Repository
	audit  activity.Logger
	logger *zap.Logger
}

// NewService creates a new users service
func NewService(repo Repository, audit activity.Logger, logger *zap.Logger) *Service {
	return &Service{repo: repo, audit: audit, logger: logger}
}

// Register creates a member account. Called from the public signup flow,
// so no principal is required.
func (s *Service) Register(ctx context.Context, req RegisterRequest) (*User, error) {
	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Name == "" || req.Email == "" || len(req.Password) < 8 {
		return nil, ErrValidation
	}

	existing, err := s.repo.GetAccountByEmail(ctx, req.Email)
	if err != nil {
		return nil, fmt.Errorf("check existing account: %w", err)
	}
	if existing != nil {
		return nil, ErrEmailTaken
	}

	hash, err := security.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	role := auth.RoleMember
	if req.CongregationID != nil {
		role = auth.RoleCongregationAdmin
	}

	u := &User{
		Name:             req.Name,
		Email:            req.Email,
		PasswordHash:     hash,
		Role:             role,
		Active:           true,
		CongregationID:   req.CongregationID,
		CongregationName: req.CongregationName,
	}
	if err := s.repo.Create(ctx, u); err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}

	s.logger.Info("user registered",
		zap.String("user_id", u.ID.String()),
		zap.String("role", string(u.Role)))
	return u, nil
}

// List returns all accounts, optionally filtered by a search term
// matching name, email or congregation name.
func (s *Service) List(ctx context.Context, actor *auth.Principal, search string) ([]User, error) {
	if !actor.IsSuperAdmin() {
		return nil, ErrPermissionDenied
	}
	if strings.TrimSpace(search) != "" {
		return s.repo.Search(ctx, search)
	}
	return s.repo.List(ctx)
}

func (s *Service) Get(ctx context.Context, actor *auth.Principal, id uuid.UUID) (*User, error) {
	if !actor.IsSuperAdmin() && actor.UID != id {
		return nil, ErrPermissionDenied
	}
	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, ErrNotFound
	}
	return u, nil
}

// UpdateRole changes an account's role. Super admins only, and never
// on their own account.
func (s *Service) UpdateRole(ctx context.Context, actor *auth.Principal, id uuid.UUID, role auth.Role) error {
	if !actor.IsSuperAdmin() {
		return ErrPermissionDenied
	}
	if actor.UID == id {
		return ErrSelfDemotion
	}
	if !auth.ValidRole(role) {
		return ErrValidation
	}

	target, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if target == nil {
		return ErrNotFound
	}

	if err := s.repo.UpdateRole(ctx, id, role); err != nil {
		return fmt.Errorf("update role: %w", err)
	}
	s.log(ctx, actor, activity.ActionUpdateUserRole, target, string(role))
	return nil
}

// SetActive enables or disables an account.
func (s *Service) SetActive(ctx context.Context, actor *auth.Principal, id uuid.UUID, active bool) error {
	if !actor.IsSuperAdmin() {
		return ErrPermissionDenied
	}

	target, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if target == nil {
		return ErrNotFound
	}

	if err := s.repo.SetActive(ctx, id, active); err != nil {
		return fmt.Errorf("set active: %w", err)
	}
	s.log(ctx, actor, activity.ActionSetUserActive, target, fmt.Sprintf("active=%t", active))
	return nil
}

// Delete soft-deletes an account.
func (s *Service) Delete(ctx context.Context, actor *auth.Principal, id uuid.UUID) error {
	if !actor.IsSuperAdmin() {
		return ErrPermissionDenied
	}
	if actor.UID == id {
		return ErrSelfDemotion
	}

	target, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if target == nil {
		return ErrNotFound
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	s.log(ctx, actor, activity.ActionDeleteUser, target, "")
	return nil
}

// SyncVerification propagates a congregation decision to its admin
// accounts so the dashboard gate reflects the new status.
func (s *Service) SyncVerification(ctx context.Context, congregationID uuid.UUID, verified bool) error {
	return s.repo.SetVerified(ctx, congregationID, verified)
}

func (s *Service) log(ctx context.Context, actor *auth.Principal, action string, target *User, detail string) {
	entry := activity.Entry{
		ActorID:    actor.UID.String(),
		ActorName:  actor.Name,
		ActorRole:  string(actor.Role),
		Action:     action,
		TargetType: "user",
		TargetID:   target.ID.String(),
		TargetName: target.Name,
		Timestamp:  time.Now().UTC(),
	}
	if detail != "" {
		entry.TargetName = fmt.Sprintf("%s (%s)", target.Name, detail)
	}
	if err := s.audit.Log(ctx, entry); err != nil {
		s.logger.Warn("activity log write failed",
			zap.String("action", action),
			zap.Error(err))
	}
}

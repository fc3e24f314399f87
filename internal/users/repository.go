package users

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"faith-connect/congregation-portal/portal-backend/internal/auth"
)

// Repository handles user persistence
type Repository interface {
	auth.AccountStore

	List(ctx context.Context) ([]User, error)
	Search(ctx context.Context, term string) ([]User, error)
	GetByID(ctx context.Context, id uuid.UUID) (*User, error)
	Create(ctx context.Context, u *User) error
	UpdateRole(ctx context.Context, id uuid.UUID, role auth.Role) error
	SetActive(ctx context.Context, id uuid.UUID, active bool) error
	SetVerified(ctx context.Context, congregationID uuid.UUID, verified bool) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type gormRepository struct {
	db *gorm.DB
}

// NewRepository creates a new users repository
func NewRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

func (r *gormRepository) List(ctx context.Context) ([]User, error) {
	var list []User
	err := r.db.WithContext(ctx).Order("created_at DESC").Find(&list).Error
	return list, err
}

func (r *gormRepository) Search(ctx context.Context, term string) ([]User, error) {
	pattern := "%" + strings.ToLower(strings.TrimSpace(term)) + "%"
	var list []User
	err := r.db.WithContext(ctx).
		Where("LOWER(name) LIKE ? OR LOWER(email) LIKE ? OR LOWER(congregation_name) LIKE ?",
			pattern, pattern, pattern).
		Order("created_at DESC").
		Find(&list).Error
	return list, err
}

func (r *gormRepository) GetByID(ctx context.Context, id uuid.UUID) (*User, error) {
	var u User
	err := r.db.WithContext(ctx).First(&u, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *gormRepository) Create(ctx context.Context, u *User) error {
	return r.db.WithContext(ctx).Create(u).Error
}

func (r *gormRepository) UpdateRole(ctx context.Context, id uuid.UUID, role auth.Role) error {
	return r.updateFields(ctx, id, map[string]any{"role": role})
}

func (r *gormRepository) SetActive(ctx context.Context, id uuid.UUID, active bool) error {
	return r.updateFields(ctx, id, map[string]any{"active": active})
}

// SetVerified flips the dashboard verification gate for every admin
// account of a congregation after a decision commits
func (r *gormRepository) SetVerified(ctx context.Context, congregationID uuid.UUID, verified bool) error {
	return r.db.WithContext(ctx).Model(&User{}).
		Where("congregation_id = ? AND role = ?", congregationID, auth.RoleCongregationAdmin).
		Update("verified", verified).Error
}

func (r *gormRepository) Delete(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Delete(&User{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("user %s not found", id)
	}
	return nil
}

// auth.AccountStore

func (r *gormRepository) GetAccountByEmail(ctx context.Context, email string) (*auth.Account, error) {
	var u User
	err := r.db.WithContext(ctx).First(&u, "LOWER(email) = LOWER(?)", email).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return accountFromUser(&u), nil
}

func (r *gormRepository) GetAccountByID(ctx context.Context, id uuid.UUID) (*auth.Account, error) {
	u, err := r.GetByID(ctx, id)
	if err != nil || u == nil {
		return nil, err
	}
	return accountFromUser(u), nil
}

func (r *gormRepository) TouchLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error {
	return r.updateFields(ctx, id, map[string]any{"last_login": at})
}

func (r *gormRepository) updateFields(ctx context.Context, id uuid.UUID, fields map[string]any) error {
	res := r.db.WithContext(ctx).Model(&User{}).Where("id = ?", id).Updates(fields)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("user %s not found", id)
	}
	return nil
}

func accountFromUser(u *User) *auth.Account {
	return &auth.Account{
		ID:             u.ID,
		Name:           u.Name,
		Email:          u.Email,
		PasswordHash:   u.PasswordHash,
		Role:           u.Role,
		Active:         u.Active,
		Verified:       u.Verified,
		CongregationID: u.CongregationID,
	}
}

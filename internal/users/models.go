package users

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"faith-connect/congregation-portal/portal-backend/internal/auth"
)

// User represents a portal account
type User struct {
	ID               uuid.UUID      `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Name             string         `gorm:"not null" json:"name"`
	Email            string         `gorm:"uniqueIndex;not null" json:"email"`
	PasswordHash     string         `gorm:"not null" json:"-"`
	Role             auth.Role      `gorm:"not null;default:'member'" json:"role"`
	Active           bool           `gorm:"not null;default:true" json:"active"`
	Verified         bool           `gorm:"not null;default:false" json:"verified"`
	CongregationID   *uuid.UUID     `gorm:"type:uuid" json:"congregation_id,omitempty"`
	CongregationName string         `json:"congregation_name,omitempty"`
	LastLogin        *time.Time     `json:"last_login,omitempty"`
	CreatedAt        time.Time      `json:"created_at"`
	UpdatedAt        time.Time      `json:"updated_at"`
	DeletedAt        gorm.DeletedAt `gorm:"index" json:"-"`
}

// RegisterRequest is the public signup payload. A congregation ID marks
// the account as that congregation's admin.
type RegisterRequest struct {
	Name             string     `json:"name" binding:"required"`
	Email            string     `json:"email" binding:"required,email"`
	Password         string     `json:"password" binding:"required,min=8"`
	CongregationID   *uuid.UUID `json:"congregation_id,omitempty"`
	CongregationName string     `json:"congregation_name,omitempty"`
}

// UpdateRoleRequest is the payload for changing an account's role
type UpdateRoleRequest struct {
	Role auth.Role `json:"role" binding:"required"`
}

// SetActiveRequest is the payload for enabling/disabling an account
type SetActiveRequest struct {
	Active bool `json:"active"`
}

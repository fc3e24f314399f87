package auth

import "github.com/google/uuid"

// Role is the access level of an authenticated account
type Role string

const (
	RoleMember            Role = "member"
	RoleCongregationAdmin Role = "congregation_admin"
	RoleSuperAdmin        Role = "super_admin"
)

// ValidRole reports whether r is a known role
func ValidRole(r Role) bool {
	switch r {
	case RoleMember, RoleCongregationAdmin, RoleSuperAdmin:
		return true
	}
	return false
}

// Principal is the current session identity. It is resolved once per request
// by the middleware and treated as read-only by everything downstream.
type Principal struct {
	UID            uuid.UUID  `json:"uid"`
	Name           string     `json:"name"`
	Email          string     `json:"email"`
	Role           Role       `json:"role"`
	Verified       bool       `json:"verified"`
	CongregationID *uuid.UUID `json:"congregation_id,omitempty"`
}

// IsSuperAdmin reports whether the principal holds the super_admin role
func (p *Principal) IsSuperAdmin() bool {
	return p != nil && p.Role == RoleSuperAdmin
}

// IsCongregationAdmin reports whether the principal holds the congregation_admin role
func (p *Principal) IsCongregationAdmin() bool {
	return p != nil && p.Role == RoleCongregationAdmin
}

// LoginRequest is the credential payload for POST /auth/login
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// LoginResponse carries the issued session token and resolved identity
type LoginResponse struct {
	Token     string    `json:"token"`
	Principal Principal `json:"principal"`
}

package congregations

import (
	"time"

	"github.com/google/uuid"

	"faith-connect/congregation-portal/portal-backend/pkg/workflows"
)

// Congregation represents a registered congregation. The moderation state is
// a single status enum; only the verification engine writes it.
type Congregation struct {
	ID           uuid.UUID        `db:"id" json:"id"`
	Name         string           `db:"name" json:"name"`
	Denomination string           `db:"denomination" json:"denomination,omitempty"`
	Description  string           `db:"description" json:"description,omitempty"`
	Address      string           `db:"address" json:"address,omitempty"`
	City         string           `db:"city" json:"city"`
	Country      string           `db:"country" json:"country"`
	ContactEmail string           `db:"contact_email" json:"contact_email,omitempty"`
	ContactPhone string           `db:"contact_phone" json:"contact_phone,omitempty"`
	LogoURL      string           `db:"logo_url" json:"logo_url,omitempty"`
	Latitude     float64          `db:"latitude" json:"latitude,omitempty"`
	Longitude    float64          `db:"longitude" json:"longitude,omitempty"`
	Status       workflows.Status `db:"status" json:"status"`
	VerifiedAt   *time.Time       `db:"verified_at" json:"verified_at,omitempty"`
	CreatedAt    time.Time        `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time        `db:"updated_at" json:"updated_at"`
}

// RegisterRequest is the payload for registering a new congregation
type RegisterRequest struct {
	Name         string  `json:"name" binding:"required"`
	Denomination string  `json:"denomination"`
	Description  string  `json:"description"`
	Address      string  `json:"address"`
	City         string  `json:"city" binding:"required"`
	Country      string  `json:"country" binding:"required"`
	ContactEmail string  `json:"contact_email" binding:"omitempty,email"`
	ContactPhone string  `json:"contact_phone"`
	Latitude     float64 `json:"latitude"`
	Longitude    float64 `json:"longitude"`
}

// UpdateProfileRequest carries profile edits unrelated to moderation status
type UpdateProfileRequest struct {
	Name         *string  `json:"name"`
	Denomination *string  `json:"denomination"`
	Description  *string  `json:"description"`
	Address      *string  `json:"address"`
	City         *string  `json:"city"`
	Country      *string  `json:"country"`
	ContactEmail *string  `json:"contact_email"`
	ContactPhone *string  `json:"contact_phone"`
	Latitude     *float64 `json:"latitude"`
	Longitude    *float64 `json:"longitude"`
}

// Stats summarizes the registry for the moderation console header
type Stats struct {
	Total    int `json:"total"`
	Verified int `json:"verified"`
	Pending  int `json:"pending"`
	Rejected int `json:"rejected"`
}

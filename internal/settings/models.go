package settings

import (
	"time"

	"github.com/google/uuid"
)

// PlatformSettings is the singleton feature-flag configuration gating
// certain operations platform-wide. Exactly one row exists.
type PlatformSettings struct {
	Approvals ApprovalSettings  `json:"approvals"`
	Directory DirectorySettings `json:"directory"`
	Events    EventSettings     `json:"events"`
	System    SystemMetadata    `json:"system"`
}

// ApprovalSettings gates verification operations
type ApprovalSettings struct {
	AllowAdminApprove bool `json:"allow_admin_approve" db:"allow_admin_approve"`
	AllowBulkActions  bool `json:"allow_bulk_actions" db:"allow_bulk_actions"`
}

// DirectorySettings gates the public directory
type DirectorySettings struct {
	PublicVisible bool `json:"public_visible" db:"public_visible"`
}

// EventSettings gates public event listings
type EventSettings struct {
	ShowPastEvents bool `json:"show_past_events" db:"show_past_events"`
}

// SystemMetadata records who last changed the settings and when
type SystemMetadata struct {
	LastUpdated   *time.Time `json:"last_updated,omitempty" db:"last_updated"`
	UpdatedBy     *uuid.UUID `json:"updated_by,omitempty" db:"updated_by"`
	UpdatedByName string     `json:"updated_by_name,omitempty" db:"updated_by_name"`
}

// UpdateRequest is the payload for saving platform settings
type UpdateRequest struct {
	Approvals ApprovalSettings  `json:"approvals"`
	Directory DirectorySettings `json:"directory"`
	Events    EventSettings     `json:"events"`
}

// Defaults returns the settings used before a super admin ever saves
func Defaults() PlatformSettings {
	return PlatformSettings{
		Approvals: ApprovalSettings{AllowAdminApprove: false, AllowBulkActions: true},
		Directory: DirectorySettings{PublicVisible: true},
		Events:    EventSettings{ShowPastEvents: false},
	}
}

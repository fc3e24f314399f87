package activity

import (
	"context"
	"time"
)

// Actions recorded by this subsystem. Free-form tags, but every writer
// uses one of these so the admin log stays filterable.
const (
	ActionApproveCongregation     = "approve_congregation"
	ActionRejectCongregation      = "reject_congregation"
	ActionBulkApproveCongregation = "bulk_approve_congregation"
	ActionBulkRejectCongregation  = "bulk_reject_congregation"
	ActionUpdatePlatformSettings  = "update_platform_settings"
	ActionUpdateUserRole          = "update_user_role"
	ActionSetUserActive           = "set_user_active"
	ActionDeleteUser              = "delete_user"
	ActionBulkDeleteEvents        = "bulk_delete_events"
)

// Entry is one append-only activity log record. Entries are never
// updated or deleted.
type Entry struct {
	ID         string    `bson:"_id,omitempty" json:"id"`
	ActorID    string    `bson:"actor_id" json:"actor_id"`
	ActorName  string    `bson:"actor_name" json:"actor_name"`
	ActorRole  string    `bson:"actor_role,omitempty" json:"actor_role,omitempty"`
	Action     string    `bson:"action" json:"action"`
	TargetType string    `bson:"target_type" json:"target_type"`
	TargetID   string    `bson:"target_id" json:"target_id"`
	TargetName string    `bson:"target_name,omitempty" json:"target_name,omitempty"`
	Timestamp  time.Time `bson:"timestamp" json:"timestamp"`
}

// Logger is the write side of the activity log
type Logger interface {
	Log(ctx context.Context, entry Entry) error
}

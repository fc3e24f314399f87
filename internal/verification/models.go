package verification

import (
	"time"

	"github.com/google/uuid"

	"faith-connect/congregation-portal/portal-backend/internal/activity"
	"faith-connect/congregation-portal/portal-backend/pkg/workflows"
)

// RecordAction is the decision stored on a verification record
type RecordAction string

const (
	RecordApproved RecordAction = "approved"
	RecordRejected RecordAction = "rejected"
)

// DefaultBulkRejectionReason is stamped on bulk rejections when the caller
// supplies no reason. Approvals never carry a reason.
const DefaultBulkRejectionReason = "Bulk rejection"

// Record is one append-only verification history entry. One record exists
// per approve/reject decision, including one per item of a bulk batch.
type Record struct {
	ID             uuid.UUID    `db:"id" json:"id"`
	CongregationID uuid.UUID    `db:"congregation_id" json:"congregation_id"`
	Action         RecordAction `db:"action" json:"action"`
	Reason         string       `db:"reason" json:"reason,omitempty"`
	ReviewedBy     uuid.UUID    `db:"reviewed_by" json:"reviewed_by"`
	ReviewerName   string       `db:"reviewer_name" json:"reviewer_name"`
	ReviewedAt     time.Time    `db:"reviewed_at" json:"reviewed_at"`
}

// Target is the minimal projection of a congregation the engine decides on
type Target struct {
	ID     uuid.UUID        `db:"id"`
	Name   string           `db:"name"`
	Status workflows.Status `db:"status"`
}

// decision is one fully-resolved status transition ready to be persisted
type decision struct {
	Target     Target
	NewStatus  workflows.Status
	VerifiedAt *time.Time
	Record     Record
	Audit      activity.Entry
}

// Operation groups the decisions of one engine call. Bulk status writes
// commit as a single transaction keyed by this id; the audit outbox rows
// carry it so completion state stays queryable.
type Operation struct {
	ID        uuid.UUID
	Action    RecordAction
	Decisions []decision
}

// OutboxEntry is one queued activity-log emission. Rows are written in the
// same transaction as the status batch and drained idempotently afterwards.
type OutboxEntry struct {
	ID             uuid.UUID      `db:"id"`
	OperationID    uuid.UUID      `db:"operation_id"`
	CongregationID uuid.UUID      `db:"congregation_id"`
	Payload        activity.Entry `db:"-"`
	RawPayload     []byte         `db:"payload"`
	Attempts       int            `db:"attempts"`
	CreatedAt      time.Time      `db:"created_at"`
	DeliveredAt    *time.Time     `db:"delivered_at"`
}

// OperationState is the queryable completion state of one operation
type OperationState struct {
	OperationID uuid.UUID `json:"operation_id"`
	TotalAudits int       `json:"total_audits"`
	Delivered   int       `json:"delivered"`
	Complete    bool      `json:"complete"`
}

// Result reports a single-item decision back to the caller
type Result struct {
	Congregation uuid.UUID        `json:"congregation_id"`
	Status       workflows.Status `json:"status"`
	VerifiedAt   *time.Time       `json:"verified_at,omitempty"`
	Record       Record           `json:"record"`
}

// BulkResult reports a bulk decision. AuditPending lists congregations
// whose activity entries are still queued when the immediate drain failed.
type BulkResult struct {
	OperationID  uuid.UUID        `json:"operation_id"`
	Status       workflows.Status `json:"status"`
	Updated      []uuid.UUID      `json:"updated"`
	AuditPending []uuid.UUID      `json:"audit_pending,omitempty"`
}

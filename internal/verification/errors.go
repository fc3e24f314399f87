package verification

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

var (
	// ErrValidation covers caller input failing a precondition, e.g. an
	// empty rejection reason. Nothing is written when it is returned.
	ErrValidation = errors.New("verification: validation failed")

	// ErrPermissionDenied is returned when the role gate fails. Denials
	// are always surfaced, never silently dropped.
	ErrPermissionDenied = errors.New("verification: permission denied")

	// ErrBulkActionsDisabled is returned when platform settings have
	// bulk approvals switched off.
	ErrBulkActionsDisabled = errors.New("verification: bulk actions disabled")

	// ErrEmptySelection is returned for a bulk call with no targets.
	ErrEmptySelection = errors.New("verification: empty selection")

	// ErrNotFound is returned when a target congregation no longer exists.
	ErrNotFound = errors.New("verification: congregation not found")
)

// PartialAuditError reports a committed decision whose activity-log
// emission has not fully landed yet. The congregation statuses and
// verification records ARE changed; the listed entries remain queued in
// the outbox and are retried by the drain worker.
type PartialAuditError struct {
	OperationID          uuid.UUID
	PendingCongregations []uuid.UUID
}

func (e *PartialAuditError) Error() string {
	return fmt.Sprintf("verification: operation %s committed with %d audit entries still pending",
		e.OperationID, len(e.PendingCongregations))
}

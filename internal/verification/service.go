package verification

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
	"faith-connect/congregation-portal/portal-backend/internal/congregations"
	"faith-connect/congregation-portal/portal-backend/internal/settings"
	"faith-connect/congregation-portal/portal-backend/pkg/workflows"
)

// SettingsProvider supplies the current platform settings value
type SettingsProvider interface {
	Current() settings.PlatformSettings
}

// AccountSync propagates a committed decision to the congregation's admin
// accounts so their dashboard verification gate reflects the new status.
type AccountSync interface {
	SyncVerification(ctx context.Context, congregationID uuid.UUID, verified bool) error
}

// DecisionNotifier pushes a committed decision to the affected
// congregation's dashboard and mailbox. Best-effort: failures are logged,
// never surfaced to the moderation flow.
type DecisionNotifier interface {
	NotifyDecision(ctx context.Context, congregationID uuid.UUID, congregationName string, action RecordAction, reason string)
}

// Engine is the sole authority for transitioning a congregation between
// pending, verified and rejected. Every entry point, single or bulk,
// passes through its authorization guard before any write is attempted.
type Engine struct {
	repo     Repository
	registry *congregations.Registry
	settings SettingsProvider
	audit    activity.Logger
	accounts AccountSync
	notifier DecisionNotifier
	sm       *workflows.StateMachine
	logger   *zap.Logger
}

// NewEngine creates a new verification engine
func NewEngine(repo Repository, registry *congregations.Registry, settingsProvider SettingsProvider,
	audit activity.Logger, accounts AccountSync, notifier DecisionNotifier, logger *zap.Logger) *Engine {
	return &Engine{
		repo:     repo,
		registry: registry,
		settings: settingsProvider,
		audit:    audit,
		accounts: accounts,
		notifier: notifier,
		sm:       workflows.NewStateMachine(),
		logger:   logger,
	}
}

// Approve verifies a single congregation
func (e *Engine) Approve(ctx context.Context, principal *auth.Principal, id uuid.UUID) (*Result, error) {
	if err := e.authorizeSingle(principal); err != nil {
		return nil, err
	}
	return e.applySingle(ctx, principal, id, workflows.ActionApprove, "")
}

// Reject rejects a single congregation. The reason is mandatory; a blank
// reason fails validation before any write occurs.
func (e *Engine) Reject(ctx context.Context, principal *auth.Principal, id uuid.UUID, reason string) (*Result, error) {
	if err := e.authorizeSingle(principal); err != nil {
		return nil, err
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, fmt.Errorf("%w: rejection reason is required", ErrValidation)
	}
	return e.applySingle(ctx, principal, id, workflows.ActionReject, reason)
}

// BulkApprove verifies every selected congregation as one atomic batch
func (e *Engine) BulkApprove(ctx context.Context, principal *auth.Principal, ids []uuid.UUID) (*BulkResult, error) {
	if err := e.authorizeBulk(principal, ids); err != nil {
		return nil, err
	}
	return e.applyBulk(ctx, principal, ids, workflows.ActionApprove, "")
}

// BulkReject rejects every selected congregation as one atomic batch.
// A blank reason falls back to the fixed bulk rejection string.
func (e *Engine) BulkReject(ctx context.Context, principal *auth.Principal, ids []uuid.UUID, reason string) (*BulkResult, error) {
	if err := e.authorizeBulk(principal, ids); err != nil {
		return nil, err
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		reason = DefaultBulkRejectionReason
	}
	return e.applyBulk(ctx, principal, ids, workflows.ActionReject, reason)
}

// History returns all verification records for a congregation ordered by
// reviewed_at descending. No decisions yet is an empty slice, not an error.
func (e *Engine) History(ctx context.Context, congregationID uuid.UUID) ([]Record, error) {
	return e.repo.ListRecords(ctx, congregationID)
}

// OperationState reports how much of an operation's audit trail has landed
func (e *Engine) OperationState(ctx context.Context, operationID uuid.UUID) (*OperationState, error) {
	return e.repo.OperationState(ctx, operationID)
}

// DrainOutbox delivers queued audit entries to the activity log. Safe to
// call concurrently with request-path drains: delivery is idempotent.
func (e *Engine) DrainOutbox(ctx context.Context, limit int) (int, error) {
	pending, err := e.repo.PendingOutbox(ctx, limit)
	if err != nil {
		return 0, err
	}
	return e.deliver(ctx, pending), nil
}

// Authorization. Single-item decisions are allowed for super admins
// always, and for congregation admins only when the platform settings
// enable admin approval. Bulk decisions are super-admin only and require
// the bulk-actions flag. Members never moderate.
func (e *Engine) authorizeSingle(principal *auth.Principal) error {
	if principal == nil {
		return ErrPermissionDenied
	}
	if principal.IsSuperAdmin() {
		return nil
	}
	if principal.IsCongregationAdmin() && e.settings.Current().Approvals.AllowAdminApprove {
		return nil
	}
	return ErrPermissionDenied
}

func (e *Engine) authorizeBulk(principal *auth.Principal, ids []uuid.UUID) error {
	if principal == nil || !principal.IsSuperAdmin() {
		return ErrPermissionDenied
	}
	if !e.settings.Current().Approvals.AllowBulkActions {
		return ErrBulkActionsDisabled
	}
	if len(ids) == 0 {
		return ErrEmptySelection
	}
	return nil
}

func (e *Engine) applySingle(ctx context.Context, principal *auth.Principal, id uuid.UUID, action workflows.Action, reason string) (*Result, error) {
	op, err := e.buildOperation(ctx, principal, []uuid.UUID{id}, action, reason, false)
	if err != nil {
		return nil, err
	}
	if err := e.commit(ctx, op); err != nil {
		return nil, err
	}

	d := op.Decisions[0]
	return &Result{
		Congregation: d.Target.ID,
		Status:       d.NewStatus,
		VerifiedAt:   d.VerifiedAt,
		Record:       d.Record,
	}, nil
}

func (e *Engine) applyBulk(ctx context.Context, principal *auth.Principal, ids []uuid.UUID, action workflows.Action, reason string) (*BulkResult, error) {
	op, err := e.buildOperation(ctx, principal, dedupe(ids), action, reason, true)
	if err != nil {
		return nil, err
	}
	if err := e.commit(ctx, op); err != nil {
		return nil, err
	}

	result := &BulkResult{OperationID: op.ID}
	for _, d := range op.Decisions {
		result.Status = d.NewStatus
		result.Updated = append(result.Updated, d.Target.ID)
	}

	// The status batch is committed; report any audit entries the
	// immediate drain could not deliver so the caller can surface the
	// gap. The cron worker keeps retrying them.
	pending, pendErr := e.repo.PendingOutboxForOperation(ctx, op.ID)
	if pendErr != nil {
		e.logger.Warn("Failed to check outbox after bulk decision",
			zap.String("operation_id", op.ID.String()), zap.Error(pendErr))
		return result, nil
	}
	if len(pending) > 0 {
		partial := &PartialAuditError{OperationID: op.ID}
		for _, entry := range pending {
			partial.PendingCongregations = append(partial.PendingCongregations, entry.CongregationID)
			result.AuditPending = append(result.AuditPending, entry.CongregationID)
		}
		return result, partial
	}
	return result, nil
}

func (e *Engine) buildOperation(ctx context.Context, principal *auth.Principal, ids []uuid.UUID, action workflows.Action, reason string, bulk bool) (*Operation, error) {
	targets, err := e.repo.GetTargets(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to load targets: %w", err)
	}
	if len(targets) != len(ids) {
		e.dropStale(ids, targets)
		return nil, ErrNotFound
	}

	newStatus, ok := e.sm.Target(action)
	if !ok {
		return nil, fmt.Errorf("%w: unknown action %q", ErrValidation, action)
	}

	recordAction := RecordApproved
	if action == workflows.ActionReject {
		recordAction = RecordRejected
	}

	op := &Operation{ID: uuid.New(), Action: recordAction}
	now := time.Now()

	for _, target := range targets {
		if !e.sm.CanApply(action, target.Status) {
			return nil, fmt.Errorf("%w: cannot %s congregation in status %q",
				ErrValidation, action, target.Status)
		}

		var verifiedAt *time.Time
		recordReason := ""
		if action == workflows.ActionApprove {
			verifiedAt = &now
		} else {
			recordReason = reason
		}

		op.Decisions = append(op.Decisions, decision{
			Target:     target,
			NewStatus:  newStatus,
			VerifiedAt: verifiedAt,
			Record: Record{
				ID:             uuid.New(),
				CongregationID: target.ID,
				Action:         recordAction,
				Reason:         recordReason,
				ReviewedBy:     principal.UID,
				ReviewerName:   principal.Name,
				ReviewedAt:     now,
			},
			Audit: activity.Entry{
				ActorID:    principal.UID.String(),
				ActorName:  principal.Name,
				ActorRole:  string(principal.Role),
				Action:     auditAction(recordAction, bulk),
				TargetType: "congregation",
				TargetID:   target.ID.String(),
				TargetName: target.Name,
				Timestamp:  now,
			},
		})
	}
	return op, nil
}

// commit persists the operation, updates the in-memory projection after
// confirmation, drains the operation's audit entries and notifies the
// affected congregations.
func (e *Engine) commit(ctx context.Context, op *Operation) error {
	if err := e.repo.ApplyOperation(ctx, op); err != nil {
		if errors.Is(err, ErrNotFound) {
			ids := make([]uuid.UUID, 0, len(op.Decisions))
			for _, d := range op.Decisions {
				ids = append(ids, d.Target.ID)
			}
			if targets, terr := e.repo.GetTargets(ctx, ids); terr == nil {
				e.dropStale(ids, targets)
			}
		}
		return err
	}

	for _, d := range op.Decisions {
		e.registry.ApplyStatus(d.Target.ID, d.NewStatus, d.VerifiedAt)
		if e.accounts != nil {
			if err := e.accounts.SyncVerification(ctx, d.Target.ID, d.NewStatus == workflows.StatusVerified); err != nil {
				e.logger.Warn("Failed to sync admin account verification",
					zap.String("congregation_id", d.Target.ID.String()), zap.Error(err))
			}
		}
		if e.notifier != nil {
			e.notifier.NotifyDecision(ctx, d.Target.ID, d.Target.Name, op.Action, d.Record.Reason)
		}
	}

	pending, err := e.repo.PendingOutboxForOperation(ctx, op.ID)
	if err != nil {
		e.logger.Warn("Failed to load outbox for drain",
			zap.String("operation_id", op.ID.String()), zap.Error(err))
		return nil
	}
	e.deliver(ctx, pending)

	e.logger.Info("Verification decision committed",
		zap.String("operation_id", op.ID.String()),
		zap.String("action", string(op.Action)),
		zap.Int("congregations", len(op.Decisions)))
	return nil
}

func (e *Engine) deliver(ctx context.Context, entries []OutboxEntry) int {
	delivered := 0
	for _, entry := range entries {
		payload := entry.Payload
		payload.ID = entry.ID.String() // retry-idempotent append
		if err := e.audit.Log(ctx, payload); err != nil {
			e.logger.Warn("Audit delivery failed, left queued",
				zap.String("entry_id", entry.ID.String()),
				zap.Int("attempts", entry.Attempts+1),
				zap.Error(err))
			if err := e.repo.RecordAttempt(ctx, entry.ID); err != nil {
				e.logger.Warn("Failed to record delivery attempt", zap.Error(err))
			}
			continue
		}
		if err := e.repo.MarkDelivered(ctx, entry.ID); err != nil {
			e.logger.Warn("Failed to mark audit entry delivered",
				zap.String("entry_id", entry.ID.String()), zap.Error(err))
			continue
		}
		delivered++
	}
	return delivered
}

func auditAction(action RecordAction, bulk bool) string {
	switch {
	case action == RecordApproved && bulk:
		return activity.ActionBulkApproveCongregation
	case action == RecordApproved:
		return activity.ActionApproveCongregation
	case bulk:
		return activity.ActionBulkRejectCongregation
	default:
		return activity.ActionRejectCongregation
	}
}

// dropStale removes congregations that vanished remotely from the
// projection, so the console stops rendering them without a full reload.
func (e *Engine) dropStale(requested []uuid.UUID, found []Target) {
	present := make(map[uuid.UUID]struct{}, len(found))
	for _, t := range found {
		present[t.ID] = struct{}{}
	}
	for _, id := range requested {
		if _, ok := present[id]; !ok {
			e.registry.Remove(id)
		}
	}
}

func dedupe(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

package verification

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"faith-connect/congregation-portal/portal-backend/internal/activity"
)

// Repository owns all persistence for verification decisions: the status
// writes on congregations, the append-only verification records, and the
// audit outbox. It is the only writer of congregation status.
type Repository interface {
	GetTargets(ctx context.Context, ids []uuid.UUID) ([]Target, error)
	ApplyOperation(ctx context.Context, op *Operation) error
	ListRecords(ctx context.Context, congregationID uuid.UUID) ([]Record, error)

	PendingOutbox(ctx context.Context, limit int) ([]OutboxEntry, error)
	PendingOutboxForOperation(ctx context.Context, operationID uuid.UUID) ([]OutboxEntry, error)
	MarkDelivered(ctx context.Context, entryID uuid.UUID) error
	RecordAttempt(ctx context.Context, entryID uuid.UUID) error
	OperationState(ctx context.Context, operationID uuid.UUID) (*OperationState, error)
}

type postgresRepository struct {
	db *sqlx.DB
}

// NewRepository creates a new verification repository
func NewRepository(db *sqlx.DB) Repository {
	return &postgresRepository{db: db}
}

func (r *postgresRepository) GetTargets(ctx context.Context, ids []uuid.UUID) ([]Target, error) {
	query, args, err := sqlx.In(
		"SELECT id, name, status FROM congregations WHERE id IN (?)", ids)
	if err != nil {
		return nil, err
	}
	query = r.db.Rebind(query)

	var targets []Target
	if err := r.db.SelectContext(ctx, &targets, query, args...); err != nil {
		return nil, fmt.Errorf("failed to load decision targets: %w", err)
	}
	return targets, nil
}

// ApplyOperation commits every status update, verification record and
// outbox row of the operation in one transaction: all land or none do.
func (r *postgresRepository) ApplyOperation(ctx context.Context, op *Operation) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for i := range op.Decisions {
		d := &op.Decisions[i]

		res, err := tx.ExecContext(ctx,
			`UPDATE congregations SET status = $1, verified_at = $2, updated_at = $3 WHERE id = $4`,
			d.NewStatus, d.VerifiedAt, d.Record.ReviewedAt, d.Target.ID)
		if err != nil {
			return fmt.Errorf("failed to update congregation %s: %w", d.Target.ID, err)
		}
		if rows, err := res.RowsAffected(); err == nil && rows == 0 {
			return fmt.Errorf("congregation %s: %w", d.Target.ID, ErrNotFound)
		}

		if _, err := tx.ExecContext(ctx,
			`INSERT INTO verification_records (
				id, congregation_id, action, reason, reviewed_by, reviewer_name, reviewed_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			d.Record.ID, d.Record.CongregationID, d.Record.Action, d.Record.Reason,
			d.Record.ReviewedBy, d.Record.ReviewerName, d.Record.ReviewedAt); err != nil {
			return fmt.Errorf("failed to append verification record: %w", err)
		}

		payload, err := json.Marshal(d.Audit)
		if err != nil {
			return fmt.Errorf("failed to encode audit payload: %w", err)
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO verification_outbox (
				id, operation_id, congregation_id, payload, attempts, created_at
			) VALUES ($1, $2, $3, $4, 0, $5)`,
			uuid.New(), op.ID, d.Target.ID, payload, d.Record.ReviewedAt); err != nil {
			return fmt.Errorf("failed to enqueue audit entry: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit decision: %w", err)
	}
	return nil
}

func (r *postgresRepository) ListRecords(ctx context.Context, congregationID uuid.UUID) ([]Record, error) {
	records := []Record{}
	err := r.db.SelectContext(ctx, &records,
		`SELECT id, congregation_id, action, reason, reviewed_by, reviewer_name, reviewed_at
		 FROM verification_records
		 WHERE congregation_id = $1
		 ORDER BY reviewed_at DESC`, congregationID)
	if err != nil {
		return nil, fmt.Errorf("failed to load verification history: %w", err)
	}
	return records, nil
}

func (r *postgresRepository) PendingOutbox(ctx context.Context, limit int) ([]OutboxEntry, error) {
	var entries []OutboxEntry
	err := r.db.SelectContext(ctx, &entries,
		`SELECT id, operation_id, congregation_id, payload, attempts, created_at, delivered_at
		 FROM verification_outbox
		 WHERE delivered_at IS NULL
		 ORDER BY created_at ASC
		 LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to load pending outbox: %w", err)
	}
	return decodePayloads(entries)
}

func (r *postgresRepository) PendingOutboxForOperation(ctx context.Context, operationID uuid.UUID) ([]OutboxEntry, error) {
	var entries []OutboxEntry
	err := r.db.SelectContext(ctx, &entries,
		`SELECT id, operation_id, congregation_id, payload, attempts, created_at, delivered_at
		 FROM verification_outbox
		 WHERE operation_id = $1 AND delivered_at IS NULL
		 ORDER BY created_at ASC`, operationID)
	if err != nil {
		return nil, fmt.Errorf("failed to load operation outbox: %w", err)
	}
	return decodePayloads(entries)
}

func (r *postgresRepository) MarkDelivered(ctx context.Context, entryID uuid.UUID) error {
	_, err := r.db.ExecContext(ctx,
		"UPDATE verification_outbox SET delivered_at = $1 WHERE id = $2",
		time.Now(), entryID)
	return err
}

func (r *postgresRepository) RecordAttempt(ctx context.Context, entryID uuid.UUID) error {
	_, err := r.db.ExecContext(ctx,
		"UPDATE verification_outbox SET attempts = attempts + 1 WHERE id = $1", entryID)
	return err
}

func (r *postgresRepository) OperationState(ctx context.Context, operationID uuid.UUID) (*OperationState, error) {
	var row struct {
		Total     int `db:"total"`
		Delivered int `db:"delivered"`
	}
	err := r.db.GetContext(ctx, &row,
		`SELECT COUNT(*) AS total,
		        COUNT(delivered_at) AS delivered
		 FROM verification_outbox WHERE operation_id = $1`, operationID)
	if err == sql.ErrNoRows || (err == nil && row.Total == 0) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load operation state: %w", err)
	}
	return &OperationState{
		OperationID: operationID,
		TotalAudits: row.Total,
		Delivered:   row.Delivered,
		Complete:    row.Delivered == row.Total,
	}, nil
}

func decodePayloads(entries []OutboxEntry) ([]OutboxEntry, error) {
	for i := range entries {
		var payload activity.Entry
		if err := json.Unmarshal(entries[i].RawPayload, &payload); err != nil {
			return nil, fmt.Errorf("failed to decode audit payload %s: %w", entries[i].ID, err)
		}
		entries[i].Payload = payload
	}
	return entries, nil
}

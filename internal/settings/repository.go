package settings

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// Repository handles persistence of the platform settings singleton
type Repository interface {
	Get(ctx context.Context) (*PlatformSettings, error)
	Save(ctx context.Context, s *PlatformSettings) error
}

type postgresRepository struct {
	db *sqlx.DB
}

// NewRepository creates a new settings repository
func NewRepository(db *sqlx.DB) Repository {
	return &postgresRepository{db: db}
}

// settingsRow flattens the singleton for the platform_settings table
type settingsRow struct {
	AllowAdminApprove bool       `db:"allow_admin_approve"`
	AllowBulkActions  bool       `db:"allow_bulk_actions"`
	PublicVisible     bool       `db:"public_visible"`
	ShowPastEvents    bool       `db:"show_past_events"`
	LastUpdated       *time.Time `db:"last_updated"`
	UpdatedBy         *uuid.UUID `db:"updated_by"`
	UpdatedByName     *string    `db:"updated_by_name"`
}

func (r *postgresRepository) Get(ctx context.Context) (*PlatformSettings, error) {
	var row settingsRow
	err := r.db.GetContext(ctx, &row,
		`SELECT allow_admin_approve, allow_bulk_actions, public_visible,
		        show_past_events, last_updated, updated_by, updated_by_name
		 FROM platform_settings WHERE id = 1`)
	if err == sql.ErrNoRows {
		defaults := Defaults()
		return &defaults, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load platform settings: %w", err)
	}

	s := &PlatformSettings{
		Approvals: ApprovalSettings{
			AllowAdminApprove: row.AllowAdminApprove,
			AllowBulkActions:  row.AllowBulkActions,
		},
		Directory: DirectorySettings{PublicVisible: row.PublicVisible},
		Events:    EventSettings{ShowPastEvents: row.ShowPastEvents},
		System: SystemMetadata{
			LastUpdated: row.LastUpdated,
			UpdatedBy:   row.UpdatedBy,
		},
	}
	if row.UpdatedByName != nil {
		s.System.UpdatedByName = *row.UpdatedByName
	}
	return s, nil
}

func (r *postgresRepository) Save(ctx context.Context, s *PlatformSettings) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO platform_settings (
			id, allow_admin_approve, allow_bulk_actions, public_visible,
			show_past_events, last_updated, updated_by, updated_by_name
		) VALUES (1, $1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE SET
			allow_admin_approve = EXCLUDED.allow_admin_approve,
			allow_bulk_actions = EXCLUDED.allow_bulk_actions,
			public_visible = EXCLUDED.public_visible,
			show_past_events = EXCLUDED.show_past_events,
			last_updated = EXCLUDED.last_updated,
			updated_by = EXCLUDED.updated_by,
			updated_by_name = EXCLUDED.updated_by_name`,
		s.Approvals.AllowAdminApprove,
		s.Approvals.AllowBulkActions,
		s.Directory.PublicVisible,
		s.Events.ShowPastEvents,
		s.System.LastUpdated,
		s.System.UpdatedBy,
		s.System.UpdatedByName,
	)
	if err != nil {
		return fmt.Errorf("failed to save platform settings: %w", err)
	}
	return nil
}

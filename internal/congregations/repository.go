package congregations

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"faith-connect/congregation-portal/portal-backend/pkg/workflows"
)

// Repository handles congregation persistence. Status transitions are NOT
// exposed here; the verification engine owns them.
type Repository interface {
	ListAll(ctx context.Context) ([]Congregation, error)
	ListByStatus(ctx context.Context, status workflows.Status) ([]Congregation, error)
	GetByID(ctx context.Context, id uuid.UUID) (*Congregation, error)
	Create(ctx context.Context, c *Congregation) error
	UpdateProfile(ctx context.Context, c *Congregation) error
	UpdateLogoURL(ctx context.Context, id uuid.UUID, logoURL string) error
}

type postgresRepository struct {
	db *sqlx.DB
}

// NewRepository creates a new congregations repository
func NewRepository(db *sqlx.DB) Repository {
	return &postgresRepository{db: db}
}

func (r *postgresRepository) ListAll(ctx context.Context) ([]Congregation, error) {
	var list []Congregation
	err := r.db.SelectContext(ctx, &list,
		"SELECT * FROM congregations ORDER BY created_at DESC")
	return list, err
}

func (r *postgresRepository) ListByStatus(ctx context.Context, status workflows.Status) ([]Congregation, error) {
	var list []Congregation
	err := r.db.SelectContext(ctx, &list,
		"SELECT * FROM congregations WHERE status = $1 ORDER BY created_at DESC", status)
	return list, err
}

func (r *postgresRepository) GetByID(ctx context.Context, id uuid.UUID) (*Congregation, error) {
	var c Congregation
	err := r.db.GetContext(ctx, &c, "SELECT * FROM congregations WHERE id = $1", id)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return &c, err
}

func (r *postgresRepository) Create(ctx context.Context, c *Congregation) error {
	query := `
		INSERT INTO congregations (
			id, name, denomination, description, address, city, country,
			contact_email, contact_phone, logo_url, latitude, longitude,
			status, verified_at, created_at, updated_at
		) VALUES (
			:id, :name, :denomination, :description, :address, :city, :country,
			:contact_email, :contact_phone, :logo_url, :latitude, :longitude,
			:status, :verified_at, :created_at, :updated_at
		)`
	_, err := r.db.NamedExecContext(ctx, query, c)
	return err
}

func (r *postgresRepository) UpdateProfile(ctx context.Context, c *Congregation) error {
	query := `
		UPDATE congregations SET
			name = :name,
			denomination = :denomination,
			description = :description,
			address = :address,
			city = :city,
			country = :country,
			contact_email = :contact_email,
			contact_phone = :contact_phone,
			latitude = :latitude,
			longitude = :longitude,
			updated_at = :updated_at
		WHERE id = :id`
	res, err := r.db.NamedExecContext(ctx, query, c)
	if err != nil {
		return err
	}
	if rows, err := res.RowsAffected(); err == nil && rows == 0 {
		return fmt.Errorf("congregation %s not found", c.ID)
	}
	return nil
}

func (r *postgresRepository) UpdateLogoURL(ctx context.Context, id uuid.UUID, logoURL string) error {
	_, err := r.db.ExecContext(ctx,
		"UPDATE congregations SET logo_url = $1, updated_at = $2 WHERE id = $3",
		logoURL, time.Now(), id)
	return err
}

package settings

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockDB(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return sqlx.NewDb(db, "sqlmock"), mock
}

func TestRepositoryGetMapsRow(t *testing.T) {
	db, mock := newMockDB(t)
	updated := time.Date(2026, 2, 14, 9, 30, 0, 0, time.UTC)
	updatedBy := uuid.New()
	name := "Root Admin"
	mock.ExpectQuery("FROM platform_settings").WillReturnRows(
		sqlmock.NewRows([]string{
			"allow_admin_approve", "allow_bulk_actions", "public_visible",
			"show_past_events", "last_updated", "updated_by", "updated_by_name",
		}).AddRow(true, false, true, true, updated, updatedBy.String(), name))

	repo := NewRepository(db)
	s, err := repo.Get(context.Background())

	require.NoError(t, err)
	assert.True(t, s.Approvals.AllowAdminApprove)
	assert.False(t, s.Approvals.AllowBulkActions)
	assert.True(t, s.Directory.PublicVisible)
	assert.True(t, s.Events.ShowPastEvents)
	assert.Equal(t, updated, s.System.LastUpdated.UTC())
	assert.Equal(t, updatedBy, *s.System.UpdatedBy)
	assert.Equal(t, name, s.System.UpdatedByName)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepositoryGetFallsBackToDefaults(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectQuery("FROM platform_settings").WillReturnError(sql.ErrNoRows)

	repo := NewRepository(db)
	s, err := repo.Get(context.Background())

	require.NoError(t, err)
	assert.Equal(t, Defaults(), *s)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepositorySaveUpserts(t *testing.T) {
	db, mock := newMockDB(t)
	updated := time.Now().UTC()
	updatedBy := uuid.New()
	mock.ExpectExec("INSERT INTO platform_settings").
		WithArgs(true, true, false, false, sqlmock.AnyArg(), sqlmock.AnyArg(), "Root Admin").
		WillReturnResult(sqlmock.NewResult(0, 1))

	s := Defaults()
	s.Approvals.AllowAdminApprove = true
	s.Directory.PublicVisible = false
	s.System.LastUpdated = &updated
	s.System.UpdatedBy = &updatedBy
	s.System.UpdatedByName = "Root Admin"

	repo := NewRepository(db)
	err := repo.Save(context.Background(), &s)

	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

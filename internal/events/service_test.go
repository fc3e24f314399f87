package events

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"

	"faith-connect/congregation-portal/portal-backend/internal/activity"
	"faith-connect/congregation-portal/portal-backend/internal/auth"
	"faith-connect/congregation-portal/portal-backend/internal/settings"
)

// MockRepository is a mock implementation of the Repository interface
type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) List(ctx context.Context) ([]Event, error) {
	args := m.Called(ctx)
	return args.Get(0).([]Event), args.Error(1)
}

func (m *MockRepository) Search(ctx context.Context, term string) ([]Event, error) {
	args := m.Called(ctx, term)
	return args.Get(0).([]Event), args.Error(1)
}

func (m *MockRepository) GetByID(ctx context.Context, id uuid.UUID) (*Event, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Event), args.Error(1)
}

func (m *MockRepository) Create(ctx context.Context, e *Event) error {
	args := m.Called(ctx, e)
	return args.Error(0)
}

func (m *MockRepository) DeleteMany(ctx context.Context, ids []uuid.UUID) (int64, error) {
	args := m.Called(ctx, ids)
	return args.Get(0).(int64), args.Error(1)
}

// MockAuditLogger is a mock implementation of activity.Logger
type MockAuditLogger struct {
	mock.Mock
}

func (m *MockAuditLogger) Log(ctx context.Context, entry activity.Entry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

type stubSettings struct {
	cfg settings.PlatformSettings
}

func (s stubSettings) Current() settings.PlatformSettings { return s.cfg }

func superAdmin() *auth.Principal {
	return &auth.Principal{UID: uuid.New(), Name: "Root Admin", Role: auth.RoleSuperAdmin}
}

func eventAt(title string, date *time.Time) Event {
	return Event{ID: uuid.New(), Title: title, Date: date}
}

func timePtr(t time.Time) *time.Time { return &t }

func TestStatusDerivation(t *testing.T) {
	now := time.Now()

	future := eventAt("Conference", timePtr(now.Add(48 * time.Hour)))
	past := eventAt("Retreat", timePtr(now.Add(-48 * time.Hour)))
	undated := eventAt("TBD", nil)

	assert.Equal(t, StatusUpcoming, future.StatusAt(now))
	assert.Equal(t, StatusElapsed, past.StatusAt(now))
	assert.Equal(t, StatusUnknown, undated.StatusAt(now))
}

func TestPublicListHidesPastEventsByDefault(t *testing.T) {
	now := time.Now()
	repo := new(MockRepository)
	repo.On("List", mock.Anything).Return([]Event{
		eventAt("Future", timePtr(now.Add(time.Hour))),
		eventAt("Past", timePtr(now.Add(-time.Hour))),
		eventAt("Undated", nil),
	}, nil)

	svc := NewService(repo, stubSettings{cfg: settings.Defaults()}, new(MockAuditLogger), zap.NewNop())
	views, err := svc.PublicList(context.Background())

	assert.NoError(t, err)
	assert.Len(t, views, 2)
	for _, v := range views {
		assert.NotEqual(t, StatusElapsed, v.Status)
	}
}

func TestPublicListIncludesPastEventsWhenEnabled(t *testing.T) {
	cfg := settings.Defaults()
	cfg.Events.ShowPastEvents = true

	now := time.Now()
	repo := new(MockRepository)
	repo.On("List", mock.Anything).Return([]Event{
		eventAt("Future", timePtr(now.Add(time.Hour))),
		eventAt("Past", timePtr(now.Add(-time.Hour))),
	}, nil)

	svc := NewService(repo, stubSettings{cfg: cfg}, new(MockAuditLogger), zap.NewNop())
	views, err := svc.PublicList(context.Background())

	assert.NoError(t, err)
	assert.Len(t, views, 2)
}

func TestAdminListFiltersByDerivedStatus(t *testing.T) {
	now := time.Now()
	repo := new(MockRepository)
	repo.On("List", mock.Anything).Return([]Event{
		eventAt("Future", timePtr(now.Add(time.Hour))),
		eventAt("Past", timePtr(now.Add(-time.Hour))),
	}, nil)

	svc := NewService(repo, stubSettings{cfg: settings.Defaults()}, new(MockAuditLogger), zap.NewNop())

	elapsed, err := svc.AdminList(context.Background(), superAdmin(), "", StatusElapsed)
	assert.NoError(t, err)
	assert.Len(t, elapsed, 1)
	assert.Equal(t, "Past", elapsed[0].Title)

	all, err := svc.AdminList(context.Background(), superAdmin(), "", StatusFilterAll)
	assert.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestAdminListDeniedForMembers(t *testing.T) {
	repo := new(MockRepository)
	svc := NewService(repo, stubSettings{cfg: settings.Defaults()}, new(MockAuditLogger), zap.NewNop())

	visitor := &auth.Principal{UID: uuid.New(), Role: auth.RoleMember}
	_, err := svc.AdminList(context.Background(), visitor, "", StatusFilterAll)

	assert.ErrorIs(t, err, ErrPermissionDenied)
}

func TestAnalyticsCountsByStatusAndCategory(t *testing.T) {
	now := time.Now()
	future := eventAt("Conference", timePtr(now.Add(time.Hour)))
	future.Category = "conference"
	past := eventAt("Retreat", timePtr(now.Add(-time.Hour)))
	past.Category = "retreat"
	undated := eventAt("TBD", nil)

	repo := new(MockRepository)
	repo.On("List", mock.Anything).Return([]Event{future, past, undated}, nil)

	svc := NewService(repo, stubSettings{cfg: settings.Defaults()}, new(MockAuditLogger), zap.NewNop())
	summary, err := svc.Analytics(context.Background(), superAdmin())

	assert.NoError(t, err)
	assert.Equal(t, 3, summary.Total)
	assert.Equal(t, 1, summary.Upcoming)
	assert.Equal(t, 1, summary.Elapsed)
	assert.Equal(t, 1, summary.Unknown)
	assert.Equal(t, 1, summary.ByCategory["conference"])
	assert.Equal(t, 1, summary.ByCategory["uncategorized"])
}

func TestBulkDeleteRequiresSuperAdmin(t *testing.T) {
	repo := new(MockRepository)
	svc := NewService(repo, stubSettings{cfg: settings.Defaults()}, new(MockAuditLogger), zap.NewNop())

	cid := uuid.New()
	admin := &auth.Principal{UID: uuid.New(), Role: auth.RoleCongregationAdmin, CongregationID: &cid}
	_, err := svc.BulkDelete(context.Background(), admin, []uuid.UUID{uuid.New()})

	assert.ErrorIs(t, err, ErrPermissionDenied)
	repo.AssertNotCalled(t, "DeleteMany", mock.Anything, mock.Anything)
}

func TestBulkDeleteRejectsEmptySelection(t *testing.T) {
	repo := new(MockRepository)
	svc := NewService(repo, stubSettings{cfg: settings.Defaults()}, new(MockAuditLogger), zap.NewNop())

	_, err := svc.BulkDelete(context.Background(), superAdmin(), nil)

	assert.ErrorIs(t, err, ErrEmptySelection)
}

func TestBulkDeleteLogsActivity(t *testing.T) {
	ids := []uuid.UUID{uuid.New(), uuid.New()}
	repo := new(MockRepository)
	audit := new(MockAuditLogger)
	repo.On("DeleteMany", mock.Anything, ids).Return(int64(2), nil)
	audit.On("Log", mock.Anything, mock.MatchedBy(func(e activity.Entry) bool {
		return e.Action == activity.ActionBulkDeleteEvents
	})).Return(nil)

	svc := NewService(repo, stubSettings{cfg: settings.Defaults()}, audit, zap.NewNop())
	deleted, err := svc.BulkDelete(context.Background(), superAdmin(), ids)

	assert.NoError(t, err)
	assert.Equal(t, int64(2), deleted)
	audit.AssertExpectations(t)
}

func TestCreateScopedToOwnCongregation(t *testing.T) {
	repo := new(MockRepository)
	svc := NewService(repo, stubSettings{cfg: settings.Defaults()}, new(MockAuditLogger), zap.NewNop())

	own := uuid.New()
	other := uuid.New()
	admin := &auth.Principal{UID: uuid.New(), Role: auth.RoleCongregationAdmin, CongregationID: &own}

	_, err := svc.Create(context.Background(), admin, CreateRequest{Title: "Picnic", CongregationID: &other})
	assert.ErrorIs(t, err, ErrPermissionDenied)

	repo.On("Create", mock.Anything, mock.Anything).Return(nil)
	created, err := svc.Create(context.Background(), admin, CreateRequest{Title: "Picnic", CongregationID: &own})
	assert.NoError(t, err)
	assert.Equal(t, admin.UID, created.CreatedBy)
}

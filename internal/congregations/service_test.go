package congregations

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"

	"faith-connect/congregation-portal/portal-backend/internal/auth"
	"faith-connect/congregation-portal/portal-backend/internal/settings"
	"faith-connect/congregation-portal/portal-backend/pkg/workflows"
)

type stubSettings struct {
	cfg settings.PlatformSettings
}

func (s stubSettings) Current() settings.PlatformSettings { return s.cfg }

func newTestService(repo Repository, cfg settings.PlatformSettings) *Service {
	return NewService(repo, NewRegistry(repo), stubSettings{cfg: cfg}, nil, zap.NewNop())
}

func TestRegisterAlwaysStartsPending(t *testing.T) {
	repo := new(MockRepository)
	var created *Congregation
	repo.On("Create", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) { created = args.Get(1).(*Congregation) }).
		Return(nil)

	svc := newTestService(repo, settings.Defaults())
	c, err := svc.Register(context.Background(), RegisterRequest{
		Name: "Grace Chapel", City: "Berlin", Country: "Germany",
	})

	assert.NoError(t, err)
	assert.Equal(t, workflows.StatusPending, c.Status)
	assert.Nil(t, c.VerifiedAt)
	assert.Equal(t, workflows.StatusPending, created.Status)
}

func TestDirectoryHiddenWhenDisabled(t *testing.T) {
	cfg := settings.Defaults()
	cfg.Directory.PublicVisible = false

	repo := new(MockRepository)
	svc := newTestService(repo, cfg)

	_, err := svc.Directory(context.Background())

	assert.ErrorIs(t, err, ErrDirectoryDisabled)
	repo.AssertNotCalled(t, "ListByStatus", mock.Anything, mock.Anything)
}

func TestDirectoryListsVerifiedOnly(t *testing.T) {
	repo := new(MockRepository)
	repo.On("ListByStatus", mock.Anything, workflows.StatusVerified).
		Return([]Congregation{sample("Grace Chapel", "Berlin", workflows.StatusVerified)}, nil)

	svc := newTestService(repo, settings.Defaults())
	list, err := svc.Directory(context.Background())

	assert.NoError(t, err)
	assert.Len(t, list, 1)
	repo.AssertExpectations(t)
}

func TestUpdateProfileDeniedForForeignAdmin(t *testing.T) {
	repo := new(MockRepository)
	svc := newTestService(repo, settings.Defaults())

	otherCongregation := uuid.New()
	admin := &auth.Principal{
		UID:            uuid.New(),
		Role:           auth.RoleCongregationAdmin,
		CongregationID: &otherCongregation,
	}

	name := "Renamed"
	_, err := svc.UpdateProfile(context.Background(), admin, uuid.New(), UpdateProfileRequest{Name: &name})

	assert.ErrorIs(t, err, ErrPermissionDenied)
	repo.AssertNotCalled(t, "UpdateProfile", mock.Anything, mock.Anything)
}

func TestUpdateProfileAllowedForOwningAdmin(t *testing.T) {
	id := uuid.New()
	existing := sample("Grace Chapel", "Berlin", workflows.StatusVerified)
	existing.ID = id

	repo := new(MockRepository)
	repo.On("GetByID", mock.Anything, id).Return(&existing, nil)
	repo.On("UpdateProfile", mock.Anything, mock.Anything).Return(nil)

	svc := newTestService(repo, settings.Defaults())
	admin := &auth.Principal{UID: uuid.New(), Role: auth.RoleCongregationAdmin, CongregationID: &id}

	city := "Hamburg"
	updated, err := svc.UpdateProfile(context.Background(), admin, id, UpdateProfileRequest{City: &city})

	assert.NoError(t, err)
	assert.Equal(t, "Hamburg", updated.City)
	assert.Equal(t, "Grace Chapel", updated.Name)
}

func TestGetUnknownCongregation(t *testing.T) {
	repo := new(MockRepository)
	repo.On("GetByID", mock.Anything, mock.Anything).Return(nil, nil)

	svc := newTestService(repo, settings.Defaults())
	_, err := svc.Get(context.Background(), uuid.New())

	assert.ErrorIs(t, err, ErrNotFound)
}

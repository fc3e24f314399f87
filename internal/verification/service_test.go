package verification

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"

	"faith-connect/congregation-portal/portal-backend/internal/activity"
	"faith-connect/congregation-portal/portal-backend/internal/auth"
	"faith-connect/congregation-portal/portal-backend/internal/congregations"
	"faith-connect/congregation-portal/portal-backend/internal/settings"
	"faith-connect/congregation-portal/portal-backend/pkg/workflows"
)

// MockRepository is a mock implementation of the Repository interface
type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) GetTargets(ctx context.Context, ids []uuid.UUID) ([]Target, error) {
	args := m.Called(ctx, ids)
	return args.Get(0).([]Target), args.Error(1)
}

func (m *MockRepository) ApplyOperation(ctx context.Context, op *Operation) error {
	args := m.Called(ctx, op)
	return args.Error(0)
}

func (m *MockRepository) ListRecords(ctx context.Context, congregationID uuid.UUID) ([]Record, error) {
	args := m.Called(ctx, congregationID)
	return args.Get(0).([]Record), args.Error(1)
}

func (m *MockRepository) PendingOutbox(ctx context.Context, limit int) ([]OutboxEntry, error) {
	args := m.Called(ctx, limit)
	return args.Get(0).([]OutboxEntry), args.Error(1)
}

func (m *MockRepository) PendingOutboxForOperation(ctx context.Context, operationID uuid.UUID) ([]OutboxEntry, error) {
	args := m.Called(ctx, operationID)
	return args.Get(0).([]OutboxEntry), args.Error(1)
}

func (m *MockRepository) MarkDelivered(ctx context.Context, entryID uuid.UUID) error {
	args := m.Called(ctx, entryID)
	return args.Error(0)
}

func (m *MockRepository) RecordAttempt(ctx context.Context, entryID uuid.UUID) error {
	args := m.Called(ctx, entryID)
	return args.Error(0)
}

func (m *MockRepository) OperationState(ctx context.Context, operationID uuid.UUID) (*OperationState, error) {
	args := m.Called(ctx, operationID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*OperationState), args.Error(1)
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

func congregationAdmin() *auth.Principal {
	cid := uuid.New()
	return &auth.Principal{UID: uuid.New(), Name: "Local Admin", Role: auth.RoleCongregationAdmin, CongregationID: &cid}
}

func member() *auth.Principal {
	return &auth.Principal{UID: uuid.New(), Name: "Member", Role: auth.RoleMember}
}

func newTestEngine(repo Repository, audit activity.Logger, cfg settings.PlatformSettings) *Engine {
	registry := congregations.NewRegistry(nil)
	return NewEngine(repo, registry, stubSettings{cfg: cfg}, audit, nil, nil, zap.NewNop())
}

// MockAccountSync is a mock implementation of AccountSync
type MockAccountSync struct {
	mock.Mock
}

func (m *MockAccountSync) SyncVerification(ctx context.Context, congregationID uuid.UUID, verified bool) error {
	args := m.Called(ctx, congregationID, verified)
	return args.Error(0)
}

type stubCongregationSource struct {
	congregations.Repository
	list []congregations.Congregation
}

func (s *stubCongregationSource) ListAll(ctx context.Context) ([]congregations.Congregation, error) {
	return s.list, nil
}

func loadedRegistry(t *testing.T, list []congregations.Congregation) *congregations.Registry {
	t.Helper()
	registry := congregations.NewRegistry(&stubCongregationSource{list: list})
	assert.NoError(t, registry.Load(context.Background()))
	return registry
}

func TestApproveDeniedForMember(t *testing.T) {
	repo := new(MockRepository)
	engine := newTestEngine(repo, new(MockAuditLogger), settings.Defaults())

	_, err := engine.Approve(context.Background(), member(), uuid.New())

	assert.ErrorIs(t, err, ErrPermissionDenied)
	repo.AssertNotCalled(t, "GetTargets", mock.Anything, mock.Anything)
}

func TestApproveDeniedForCongregationAdminWhenFlagOff(t *testing.T) {
	cfg := settings.Defaults()
	cfg.Approvals.AllowAdminApprove = false
	repo := new(MockRepository)
	engine := newTestEngine(repo, new(MockAuditLogger), cfg)

	_, err := engine.Approve(context.Background(), congregationAdmin(), uuid.New())

	assert.ErrorIs(t, err, ErrPermissionDenied)
	repo.AssertNotCalled(t, "GetTargets", mock.Anything, mock.Anything)
}

func TestApproveAllowedForCongregationAdminWhenFlagOn(t *testing.T) {
	cfg := settings.Defaults()
	cfg.Approvals.AllowAdminApprove = true

	id := uuid.New()
	repo := new(MockRepository)
	audit := new(MockAuditLogger)
	repo.On("GetTargets", mock.Anything, []uuid.UUID{id}).
		Return([]Target{{ID: id, Name: "Grace Chapel", Status: workflows.StatusPending}}, nil)
	repo.On("ApplyOperation", mock.Anything, mock.Anything).Return(nil)
	repo.On("PendingOutboxForOperation", mock.Anything, mock.Anything).Return([]OutboxEntry{}, nil)

	engine := newTestEngine(repo, audit, cfg)
	result, err := engine.Approve(context.Background(), congregationAdmin(), id)

	assert.NoError(t, err)
	assert.Equal(t, workflows.StatusVerified, result.Status)
}

func TestApproveStampsVerifiedAtAndRecord(t *testing.T) {
	id := uuid.New()
	reviewer := superAdmin()

	repo := new(MockRepository)
	audit := new(MockAuditLogger)
	repo.On("GetTargets", mock.Anything, []uuid.UUID{id}).
		Return([]Target{{ID: id, Name: "Grace Chapel", Status: workflows.StatusPending}}, nil)
	repo.On("ApplyOperation", mock.Anything, mock.MatchedBy(func(op *Operation) bool {
		return op.Action == RecordApproved && len(op.Decisions) == 1
	})).Return(nil)
	repo.On("PendingOutboxForOperation", mock.Anything, mock.Anything).Return([]OutboxEntry{}, nil)

	engine := newTestEngine(repo, audit, settings.Defaults())
	result, err := engine.Approve(context.Background(), reviewer, id)

	assert.NoError(t, err)
	assert.Equal(t, id, result.Congregation)
	assert.Equal(t, workflows.StatusVerified, result.Status)
	assert.NotNil(t, result.VerifiedAt)
	assert.Equal(t, RecordApproved, result.Record.Action)
	assert.Empty(t, result.Record.Reason)
	assert.Equal(t, reviewer.UID, result.Record.ReviewedBy)
	assert.Equal(t, reviewer.Name, result.Record.ReviewerName)
	repo.AssertExpectations(t)
}

func TestRejectRequiresReason(t *testing.T) {
	repo := new(MockRepository)
	engine := newTestEngine(repo, new(MockAuditLogger), settings.Defaults())

	_, err := engine.Reject(context.Background(), superAdmin(), uuid.New(), "   ")

	assert.ErrorIs(t, err, ErrValidation)
	repo.AssertNotCalled(t, "GetTargets", mock.Anything, mock.Anything)
}

func TestRejectStoresReasonWithoutVerifiedAt(t *testing.T) {
	id := uuid.New()
	repo := new(MockRepository)
	audit := new(MockAuditLogger)
	repo.On("GetTargets", mock.Anything, []uuid.UUID{id}).
		Return([]Target{{ID: id, Name: "Grace Chapel", Status: workflows.StatusPending}}, nil)
	repo.On("ApplyOperation", mock.Anything, mock.Anything).Return(nil)
	repo.On("PendingOutboxForOperation", mock.Anything, mock.Anything).Return([]OutboxEntry{}, nil)

	engine := newTestEngine(repo, audit, settings.Defaults())
	result, err := engine.Reject(context.Background(), superAdmin(), id, "  incomplete application  ")

	assert.NoError(t, err)
	assert.Equal(t, workflows.StatusRejected, result.Status)
	assert.Nil(t, result.VerifiedAt)
	assert.Equal(t, "incomplete application", result.Record.Reason)
}

func TestApproveAllowedFromRejected(t *testing.T) {
	id := uuid.New()
	repo := new(MockRepository)
	repo.On("GetTargets", mock.Anything, []uuid.UUID{id}).
		Return([]Target{{ID: id, Name: "Grace Chapel", Status: workflows.StatusRejected}}, nil)
	repo.On("ApplyOperation", mock.Anything, mock.Anything).Return(nil)
	repo.On("PendingOutboxForOperation", mock.Anything, mock.Anything).Return([]OutboxEntry{}, nil)

	engine := newTestEngine(repo, new(MockAuditLogger), settings.Defaults())
	result, err := engine.Approve(context.Background(), superAdmin(), id)

	assert.NoError(t, err)
	assert.Equal(t, workflows.StatusVerified, result.Status)
}

func TestUnknownTargetFailsBeforeWrite(t *testing.T) {
	id := uuid.New()
	repo := new(MockRepository)
	repo.On("GetTargets", mock.Anything, []uuid.UUID{id}).Return([]Target{}, nil)

	engine := newTestEngine(repo, new(MockAuditLogger), settings.Defaults())
	_, err := engine.Approve(context.Background(), superAdmin(), id)

	assert.ErrorIs(t, err, ErrNotFound)
	repo.AssertNotCalled(t, "ApplyOperation", mock.Anything, mock.Anything)
}

func TestBulkApproveDeniedForCongregationAdmin(t *testing.T) {
	cfg := settings.Defaults()
	cfg.Approvals.AllowAdminApprove = true
	repo := new(MockRepository)
	engine := newTestEngine(repo, new(MockAuditLogger), cfg)

	_, err := engine.BulkApprove(context.Background(), congregationAdmin(), []uuid.UUID{uuid.New()})

	assert.ErrorIs(t, err, ErrPermissionDenied)
}

func TestBulkApproveDeniedWhenFlagOff(t *testing.T) {
	cfg := settings.Defaults()
	cfg.Approvals.AllowBulkActions = false
	repo := new(MockRepository)
	engine := newTestEngine(repo, new(MockAuditLogger), cfg)

	_, err := engine.BulkApprove(context.Background(), superAdmin(), []uuid.UUID{uuid.New()})

	assert.ErrorIs(t, err, ErrBulkActionsDisabled)
	repo.AssertNotCalled(t, "GetTargets", mock.Anything, mock.Anything)
}

func TestBulkApproveRejectsEmptySelection(t *testing.T) {
	repo := new(MockRepository)
	engine := newTestEngine(repo, new(MockAuditLogger), settings.Defaults())

	_, err := engine.BulkApprove(context.Background(), superAdmin(), nil)

	assert.ErrorIs(t, err, ErrEmptySelection)
}

func TestBulkApproveDeduplicatesSelection(t *testing.T) {
	id := uuid.New()
	repo := new(MockRepository)
	repo.On("GetTargets", mock.Anything, []uuid.UUID{id}).
		Return([]Target{{ID: id, Name: "Grace Chapel", Status: workflows.StatusPending}}, nil)
	repo.On("ApplyOperation", mock.Anything, mock.Anything).Return(nil)
	repo.On("PendingOutboxForOperation", mock.Anything, mock.Anything).Return([]OutboxEntry{}, nil)

	engine := newTestEngine(repo, new(MockAuditLogger), settings.Defaults())
	result, err := engine.BulkApprove(context.Background(), superAdmin(), []uuid.UUID{id, id, id})

	assert.NoError(t, err)
	assert.Len(t, result.Updated, 1)
	repo.AssertExpectations(t)
}

func TestBulkRejectDefaultsReason(t *testing.T) {
	id := uuid.New()
	repo := new(MockRepository)
	var applied *Operation
	repo.On("GetTargets", mock.Anything, []uuid.UUID{id}).
		Return([]Target{{ID: id, Name: "Grace Chapel", Status: workflows.StatusPending}}, nil)
	repo.On("ApplyOperation", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) { applied = args.Get(1).(*Operation) }).
		Return(nil)
	repo.On("PendingOutboxForOperation", mock.Anything, mock.Anything).Return([]OutboxEntry{}, nil)

	engine := newTestEngine(repo, new(MockAuditLogger), settings.Defaults())
	_, err := engine.BulkReject(context.Background(), superAdmin(), []uuid.UUID{id}, "")

	assert.NoError(t, err)
	assert.NotNil(t, applied)
	assert.Equal(t, DefaultBulkRejectionReason, applied.Decisions[0].Record.Reason)
}

func TestBulkFailsWholeBatchOnUnknownTarget(t *testing.T) {
	known := uuid.New()
	unknown := uuid.New()
	repo := new(MockRepository)
	repo.On("GetTargets", mock.Anything, mock.Anything).
		Return([]Target{{ID: known, Name: "Grace Chapel", Status: workflows.StatusPending}}, nil)

	engine := newTestEngine(repo, new(MockAuditLogger), settings.Defaults())
	_, err := engine.BulkApprove(context.Background(), superAdmin(), []uuid.UUID{known, unknown})

	assert.ErrorIs(t, err, ErrNotFound)
	repo.AssertNotCalled(t, "ApplyOperation", mock.Anything, mock.Anything)
}

func TestBulkReportsPartialAuditFailure(t *testing.T) {
	id := uuid.New()
	entry := OutboxEntry{
		ID:             uuid.New(),
		CongregationID: id,
		Payload:        activity.Entry{Action: activity.ActionBulkApproveCongregation},
	}

	repo := new(MockRepository)
	audit := new(MockAuditLogger)
	repo.On("GetTargets", mock.Anything, []uuid.UUID{id}).
		Return([]Target{{ID: id, Name: "Grace Chapel", Status: workflows.StatusPending}}, nil)
	repo.On("ApplyOperation", mock.Anything, mock.Anything).Return(nil)
	repo.On("PendingOutboxForOperation", mock.Anything, mock.Anything).Return([]OutboxEntry{entry}, nil)
	repo.On("RecordAttempt", mock.Anything, entry.ID).Return(nil)
	audit.On("Log", mock.Anything, mock.Anything).Return(errors.New("activity store down"))

	engine := newTestEngine(repo, audit, settings.Defaults())
	result, err := engine.BulkApprove(context.Background(), superAdmin(), []uuid.UUID{id})

	var partial *PartialAuditError
	assert.ErrorAs(t, err, &partial)
	assert.Equal(t, []uuid.UUID{id}, partial.PendingCongregations)
	assert.Equal(t, []uuid.UUID{id}, result.Updated)
	assert.Equal(t, []uuid.UUID{id}, result.AuditPending)
}

func TestDrainOutboxDeliversWithEntryID(t *testing.T) {
	entry := OutboxEntry{
		ID:      uuid.New(),
		Payload: activity.Entry{Action: activity.ActionApproveCongregation},
	}

	repo := new(MockRepository)
	audit := new(MockAuditLogger)
	repo.On("PendingOutbox", mock.Anything, 50).Return([]OutboxEntry{entry}, nil)
	audit.On("Log", mock.Anything, mock.MatchedBy(func(e activity.Entry) bool {
		return e.ID == entry.ID.String()
	})).Return(nil)
	repo.On("MarkDelivered", mock.Anything, entry.ID).Return(nil)

	engine := newTestEngine(repo, audit, settings.Defaults())
	delivered, err := engine.DrainOutbox(context.Background(), 50)

	assert.NoError(t, err)
	assert.Equal(t, 1, delivered)
	repo.AssertExpectations(t)
	audit.AssertExpectations(t)
}

func TestApproveOnDeletedTargetDropsProjectionRow(t *testing.T) {
	id := uuid.New()
	registry := loadedRegistry(t, []congregations.Congregation{
		{ID: id, Name: "Closed Chapel", Status: workflows.StatusPending},
	})

	repo := new(MockRepository)
	repo.On("GetTargets", mock.Anything, []uuid.UUID{id}).Return([]Target{}, nil)

	engine := NewEngine(repo, registry, stubSettings{cfg: settings.Defaults()},
		new(MockAuditLogger), nil, nil, zap.NewNop())
	_, err := engine.Approve(context.Background(), superAdmin(), id)

	assert.ErrorIs(t, err, ErrNotFound)
	assert.Empty(t, registry.Snapshot())
}

func TestCommitRaceOnDeletedTargetDropsProjectionRow(t *testing.T) {
	id := uuid.New()
	registry := loadedRegistry(t, []congregations.Congregation{
		{ID: id, Name: "Closed Chapel", Status: workflows.StatusPending},
	})

	// The target vanishes between the read and the transaction.
	repo := new(MockRepository)
	repo.On("GetTargets", mock.Anything, []uuid.UUID{id}).
		Return([]Target{{ID: id, Name: "Closed Chapel", Status: workflows.StatusPending}}, nil).Once()
	repo.On("ApplyOperation", mock.Anything, mock.Anything).
		Return(fmt.Errorf("congregation %s: %w", id, ErrNotFound))
	repo.On("GetTargets", mock.Anything, []uuid.UUID{id}).Return([]Target{}, nil).Once()

	engine := NewEngine(repo, registry, stubSettings{cfg: settings.Defaults()},
		new(MockAuditLogger), nil, nil, zap.NewNop())
	_, err := engine.Approve(context.Background(), superAdmin(), id)

	assert.ErrorIs(t, err, ErrNotFound)
	assert.Empty(t, registry.Snapshot())
}

func TestApproveMarksAdminAccountsVerified(t *testing.T) {
	id := uuid.New()
	repo := new(MockRepository)
	accounts := new(MockAccountSync)
	repo.On("GetTargets", mock.Anything, []uuid.UUID{id}).
		Return([]Target{{ID: id, Name: "Grace Chapel", Status: workflows.StatusPending}}, nil)
	repo.On("ApplyOperation", mock.Anything, mock.Anything).Return(nil)
	repo.On("PendingOutboxForOperation", mock.Anything, mock.Anything).Return([]OutboxEntry{}, nil)
	accounts.On("SyncVerification", mock.Anything, id, true).Return(nil)

	engine := NewEngine(repo, congregations.NewRegistry(nil), stubSettings{cfg: settings.Defaults()},
		new(MockAuditLogger), accounts, nil, zap.NewNop())
	_, err := engine.Approve(context.Background(), superAdmin(), id)

	assert.NoError(t, err)
	accounts.AssertExpectations(t)
}

func TestRejectClearsAdminAccountVerification(t *testing.T) {
	id := uuid.New()
	repo := new(MockRepository)
	accounts := new(MockAccountSync)
	repo.On("GetTargets", mock.Anything, []uuid.UUID{id}).
		Return([]Target{{ID: id, Name: "Grace Chapel", Status: workflows.StatusVerified}}, nil)
	repo.On("ApplyOperation", mock.Anything, mock.Anything).Return(nil)
	repo.On("PendingOutboxForOperation", mock.Anything, mock.Anything).Return([]OutboxEntry{}, nil)
	accounts.On("SyncVerification", mock.Anything, id, false).Return(nil)

	engine := NewEngine(repo, congregations.NewRegistry(nil), stubSettings{cfg: settings.Defaults()},
		new(MockAuditLogger), accounts, nil, zap.NewNop())
	_, err := engine.Reject(context.Background(), superAdmin(), id, "stale listing")

	assert.NoError(t, err)
	accounts.AssertExpectations(t)
}

func TestAccountSyncFailureDoesNotFailDecision(t *testing.T) {
	id := uuid.New()
	repo := new(MockRepository)
	accounts := new(MockAccountSync)
	repo.On("GetTargets", mock.Anything, []uuid.UUID{id}).
		Return([]Target{{ID: id, Name: "Grace Chapel", Status: workflows.StatusPending}}, nil)
	repo.On("ApplyOperation", mock.Anything, mock.Anything).Return(nil)
	repo.On("PendingOutboxForOperation", mock.Anything, mock.Anything).Return([]OutboxEntry{}, nil)
	accounts.On("SyncVerification", mock.Anything, id, true).Return(errors.New("users table unavailable"))

	engine := NewEngine(repo, congregations.NewRegistry(nil), stubSettings{cfg: settings.Defaults()},
		new(MockAuditLogger), accounts, nil, zap.NewNop())
	result, err := engine.Approve(context.Background(), superAdmin(), id)

	assert.NoError(t, err)
	assert.Equal(t, workflows.StatusVerified, result.Status)
}

func TestDrainOutboxRecordsFailedAttempts(t *testing.T) {
	entry := OutboxEntry{ID: uuid.New(), Payload: activity.Entry{}}

	repo := new(MockRepository)
	audit := new(MockAuditLogger)
	repo.On("PendingOutbox", mock.Anything, 10).Return([]OutboxEntry{entry}, nil)
	audit.On("Log", mock.Anything, mock.Anything).Return(errors.New("unreachable"))
	repo.On("RecordAttempt", mock.Anything, entry.ID).Return(nil)

	engine := newTestEngine(repo, audit, settings.Defaults())
	delivered, err := engine.DrainOutbox(context.Background(), 10)

	assert.NoError(t, err)
	assert.Zero(t, delivered)
	repo.AssertNotCalled(t, "MarkDelivered", mock.Anything, mock.Anything)
}

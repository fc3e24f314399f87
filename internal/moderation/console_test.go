package moderation

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"faith-connect/congregation-portal/portal-backend/internal/activity"
	"faith-connect/congregation-portal/portal-backend/internal/auth"
	"faith-connect/congregation-portal/portal-backend/internal/congregations"
	"faith-connect/congregation-portal/portal-backend/internal/settings"
	"faith-connect/congregation-portal/portal-backend/internal/verification"
	"faith-connect/congregation-portal/portal-backend/pkg/workflows"
)

type stubCongregationRepo struct {
	list []congregations.Congregation
}

func (s *stubCongregationRepo) ListAll(context.Context) ([]congregations.Congregation, error) {
	return s.list, nil
}
func (s *stubCongregationRepo) ListByStatus(context.Context, workflows.Status) ([]congregations.Congregation, error) {
	return nil, nil
}
func (s *stubCongregationRepo) GetByID(context.Context, uuid.UUID) (*congregations.Congregation, error) {
	return nil, nil
}
func (s *stubCongregationRepo) Create(context.Context, *congregations.Congregation) error { return nil }
func (s *stubCongregationRepo) UpdateProfile(context.Context, *congregations.Congregation) error {
	return nil
}
func (s *stubCongregationRepo) UpdateLogoURL(context.Context, uuid.UUID, string) error { return nil }

type stubVerificationRepo struct {
	targets    map[uuid.UUID]verification.Target
	operations []*verification.Operation
}

func (s *stubVerificationRepo) GetTargets(_ context.Context, ids []uuid.UUID) ([]verification.Target, error) {
	out := make([]verification.Target, 0, len(ids))
	for _, id := range ids {
		if t, ok := s.targets[id]; ok {
			out = append(out, t)
		}
	}
	return out, nil
}

func (s *stubVerificationRepo) ApplyOperation(_ context.Context, op *verification.Operation) error {
	s.operations = append(s.operations, op)
	return nil
}

func (s *stubVerificationRepo) ListRecords(context.Context, uuid.UUID) ([]verification.Record, error) {
	return nil, nil
}
func (s *stubVerificationRepo) PendingOutbox(context.Context, int) ([]verification.OutboxEntry, error) {
	return nil, nil
}
func (s *stubVerificationRepo) PendingOutboxForOperation(context.Context, uuid.UUID) ([]verification.OutboxEntry, error) {
	return nil, nil
}
func (s *stubVerificationRepo) MarkDelivered(context.Context, uuid.UUID) error  { return nil }
func (s *stubVerificationRepo) RecordAttempt(context.Context, uuid.UUID) error  { return nil }
func (s *stubVerificationRepo) OperationState(context.Context, uuid.UUID) (*verification.OperationState, error) {
	return nil, nil
}

type stubAudit struct{}

func (stubAudit) Log(context.Context, activity.Entry) error { return nil }

type stubSettings struct {
	cfg settings.PlatformSettings
}

func (s stubSettings) Current() settings.PlatformSettings { return s.cfg }

func row(name, city string, status workflows.Status) congregations.Congregation {
	return congregations.Congregation{ID: uuid.New(), Name: name, City: city, Status: status}
}

func newFixture(t *testing.T, rows []congregations.Congregation) (*Console, *stubVerificationRepo) {
	t.Helper()

	registry := congregations.NewRegistry(&stubCongregationRepo{list: rows})
	assert.NoError(t, registry.Load(context.Background()))

	targets := make(map[uuid.UUID]verification.Target, len(rows))
	for _, r := range rows {
		targets[r.ID] = verification.Target{ID: r.ID, Name: r.Name, Status: r.Status}
	}
	repo := &stubVerificationRepo{targets: targets}

	engine := verification.NewEngine(repo, registry, stubSettings{cfg: settings.Defaults()},
		stubAudit{}, nil, nil, zap.NewNop())
	return NewConsole(registry, engine), repo
}

func moderator() *auth.Principal {
	return &auth.Principal{UID: uuid.New(), Name: "Root Admin", Role: auth.RoleSuperAdmin}
}

func TestFilterChangeResetsPageKeepsSelection(t *testing.T) {
	rows := []congregations.Congregation{
		row("Grace Chapel", "Berlin", workflows.StatusPending),
		row("Hope Center", "Hamburg", workflows.StatusPending),
	}
	console, _ := newFixture(t, rows)

	console.ToggleSelect(rows[0].ID)
	console.SetPage(2, 1)
	console.SetFilter("hope", congregations.StatusFilterAll)

	view := console.Render()
	assert.Equal(t, 1, view.Page)
	assert.Equal(t, 1, view.SelectedCount)
}

func TestToggleSelectAllCoversVisiblePageOnly(t *testing.T) {
	rows := []congregations.Congregation{
		row("A", "Berlin", workflows.StatusPending),
		row("B", "Berlin", workflows.StatusPending),
		row("C", "Berlin", workflows.StatusPending),
	}
	console, _ := newFixture(t, rows)
	console.SetPage(1, 2)

	console.ToggleSelectAll()
	assert.Equal(t, 2, console.SelectionCount())

	console.SetPage(2, 2)
	console.ToggleSelectAll()
	assert.Equal(t, 3, console.SelectionCount())

	// all rows on page 2 already selected: toggling deselects them
	console.ToggleSelectAll()
	assert.Equal(t, 2, console.SelectionCount())
}

func TestSelectionSurvivesPageChange(t *testing.T) {
	rows := []congregations.Congregation{
		row("A", "Berlin", workflows.StatusPending),
		row("B", "Berlin", workflows.StatusPending),
	}
	console, _ := newFixture(t, rows)
	console.SetPage(1, 1)
	console.ToggleSelect(rows[0].ID)

	console.SetPage(2, 1)
	assert.Equal(t, 1, console.SelectionCount())
}

func TestRequestBulkWithEmptySelection(t *testing.T) {
	console, _ := newFixture(t, nil)

	_, err := console.RequestBulk(KindBulkApprove)
	assert.ErrorIs(t, err, verification.ErrEmptySelection)
}

func TestSecondRequestBlockedUntilResolved(t *testing.T) {
	rows := []congregations.Congregation{row("A", "Berlin", workflows.StatusPending)}
	console, _ := newFixture(t, rows)

	_, err := console.RequestSingle(KindApprove, rows[0].ID, rows[0].Name)
	assert.NoError(t, err)

	_, err = console.RequestSingle(KindReject, rows[0].ID, rows[0].Name)
	assert.ErrorIs(t, err, ErrConfirmationPending)

	console.Cancel()
	_, err = console.RequestSingle(KindReject, rows[0].ID, rows[0].Name)
	assert.NoError(t, err)
}

func TestRejectConfirmationPromptsForReason(t *testing.T) {
	rows := []congregations.Congregation{row("A", "Berlin", workflows.StatusPending)}
	console, _ := newFixture(t, rows)

	confirmation, err := console.RequestSingle(KindReject, rows[0].ID, rows[0].Name)
	assert.NoError(t, err)
	assert.True(t, confirmation.RequiresReason)

	confirmation2, err := console.RequestBulk(KindBulkApprove)
	assert.ErrorIs(t, err, ErrConfirmationPending)
	assert.Nil(t, confirmation2)
}

func TestConfirmWithoutPending(t *testing.T) {
	console, _ := newFixture(t, nil)

	_, err := console.Confirm(context.Background(), moderator(), "")
	assert.ErrorIs(t, err, ErrNoPendingConfirmation)
}

func TestConfirmDispatchesApprove(t *testing.T) {
	rows := []congregations.Congregation{row("Grace Chapel", "Berlin", workflows.StatusPending)}
	console, repo := newFixture(t, rows)

	_, err := console.RequestSingle(KindApprove, rows[0].ID, rows[0].Name)
	assert.NoError(t, err)

	result, err := console.Confirm(context.Background(), moderator(), "")
	assert.NoError(t, err)
	assert.Len(t, repo.operations, 1)

	single, ok := result.(*verification.Result)
	assert.True(t, ok)
	assert.Equal(t, workflows.StatusVerified, single.Status)

	// consumed either way
	_, err = console.Confirm(context.Background(), moderator(), "")
	assert.ErrorIs(t, err, ErrNoPendingConfirmation)
}

func TestConfirmBulkClearsSelection(t *testing.T) {
	rows := []congregations.Congregation{
		row("A", "Berlin", workflows.StatusPending),
		row("B", "Berlin", workflows.StatusPending),
	}
	console, repo := newFixture(t, rows)
	console.ToggleSelect(rows[0].ID)
	console.ToggleSelect(rows[1].ID)

	_, err := console.RequestBulk(KindBulkApprove)
	assert.NoError(t, err)

	result, err := console.Confirm(context.Background(), moderator(), "")
	assert.NoError(t, err)
	assert.Zero(t, console.SelectionCount())

	bulk, ok := result.(*verification.BulkResult)
	assert.True(t, ok)
	assert.Len(t, bulk.Updated, 2)
	assert.Len(t, repo.operations, 1)
}

func TestFailedDispatchKeepsSelection(t *testing.T) {
	rows := []congregations.Congregation{row("A", "Berlin", workflows.StatusPending)}
	console, _ := newFixture(t, rows)
	console.ToggleSelect(rows[0].ID)

	_, err := console.RequestBulk(KindBulkReject)
	assert.NoError(t, err)

	// congregation admins may never dispatch bulk actions
	cid := uuid.New()
	admin := &auth.Principal{UID: uuid.New(), Role: auth.RoleCongregationAdmin, CongregationID: &cid}
	_, err = console.Confirm(context.Background(), admin, "spam")

	assert.ErrorIs(t, err, verification.ErrPermissionDenied)
	assert.Equal(t, 1, console.SelectionCount())
}

func TestManagerKeepsPerAdminState(t *testing.T) {
	registry := congregations.NewRegistry(&stubCongregationRepo{})
	manager := NewManager(registry, nil)

	first := uuid.New()
	second := uuid.New()

	a := manager.ForPrincipal(first)
	a.SetFilter("grace", congregations.StatusFilterAll)

	b := manager.ForPrincipal(second)
	assert.NotSame(t, a, b)
	assert.Same(t, a, manager.ForPrincipal(first))
	assert.Empty(t, b.Render().Search)
}

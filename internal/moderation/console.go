package moderation

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"

	"faith-connect/congregation-portal/portal-backend/internal/auth"
	"faith-connect/congregation-portal/portal-backend/internal/congregations"
	"faith-connect/congregation-portal/portal-backend/internal/verification"
)

var (
	ErrNoPendingConfirmation = errors.New("moderation: no pending confirmation")
	ErrConfirmationPending   = errors.New("moderation: another confirmation is pending")
)

// ActionKind identifies what a confirmation will dispatch
type ActionKind string

const (
	KindApprove     ActionKind = "approve"
	KindReject      ActionKind = "reject"
	KindBulkApprove ActionKind = "bulk_approve"
	KindBulkReject  ActionKind = "bulk_reject"
)

// Confirmation is the explicit gate every decision passes through. It
// carries the target names and count for display; rejections additionally
// prompt for a reason.
type Confirmation struct {
	Kind           ActionKind  `json:"kind"`
	TargetIDs      []uuid.UUID `json:"target_ids"`
	TargetNames    []string    `json:"target_names"`
	Count          int         `json:"count"`
	RequiresReason bool        `json:"requires_reason"`
}

// View is the console state rendered to the admin
type View struct {
	Congregations []congregations.Congregation `json:"congregations"`
	Page          int                          `json:"page"`
	PageSize      int                          `json:"page_size"`
	Total         int                          `json:"total"`
	Search        string                       `json:"search"`
	StatusFilter  string                       `json:"status_filter"`
	SelectedCount int                          `json:"selected_count"`
	Stats         congregations.Stats          `json:"stats"`
	Pending       *Confirmation                `json:"pending_confirmation,omitempty"`
}

// Console owns the ephemeral moderation state for one admin: search text,
// status filter, pagination, the selection set and the pending
// confirmation. It translates confirmed intent into engine calls.
type Console struct {
	registry *congregations.Registry
	engine   *verification.Engine

	mu           sync.Mutex
	search       string
	statusFilter string
	page         int
	pageSize     int
	selected     map[uuid.UUID]struct{}
	pending      *Confirmation
}

// NewConsole creates a console over the shared registry snapshot
func NewConsole(registry *congregations.Registry, engine *verification.Engine) *Console {
	return &Console{
		registry:     registry,
		engine:       engine,
		statusFilter: congregations.StatusFilterAll,
		page:         1,
		pageSize:     10,
		selected:     make(map[uuid.UUID]struct{}),
	}
}

// SetFilter updates search and status filter. Changing the filter jumps
// back to page 1 but deliberately keeps the selection: the bulk badge
// counts selected ids whether or not they are currently visible.
func (c *Console) SetFilter(search, statusFilter string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if statusFilter == "" {
		statusFilter = congregations.StatusFilterAll
	}
	c.search = search
	c.statusFilter = statusFilter
	c.page = 1
}

// SetPage moves to the given page; clamping happens at render time
func (c *Console) SetPage(page, pageSize int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if page > 0 {
		c.page = page
	}
	if pageSize > 0 {
		c.pageSize = pageSize
	}
}

// ToggleSelect flips one row's membership in the selection set
func (c *Console) ToggleSelect(id uuid.UUID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.selected[id]; ok {
		delete(c.selected, id)
	} else {
		c.selected[id] = struct{}{}
	}
}

// ToggleSelectAll operates only over the current page's visible rows: if
// every visible row is selected it deselects them, otherwise it selects
// them all. Rows selected on other pages are untouched.
func (c *Console) ToggleSelectAll() {
	c.mu.Lock()
	defer c.mu.Unlock()

	visible, _ := c.visibleLocked()
	allSelected := len(visible) > 0
	for _, row := range visible {
		if _, ok := c.selected[row.ID]; !ok {
			allSelected = false
			break
		}
	}
	for _, row := range visible {
		if allSelected {
			delete(c.selected, row.ID)
		} else {
			c.selected[row.ID] = struct{}{}
		}
	}
}

// ClearSelection empties the selection set
func (c *Console) ClearSelection() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.selected = make(map[uuid.UUID]struct{})
}

// SelectedIDs returns the selection set in no particular order
func (c *Console) SelectedIDs() []uuid.UUID {
	c.mu.Lock()
	defer c.mu.Unlock()
	ids := make([]uuid.UUID, 0, len(c.selected))
	for id := range c.selected {
		ids = append(ids, id)
	}
	return ids
}

// SelectionCount backs the bulk-action badge, independent of visibility
func (c *Console) SelectionCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.selected)
}

// Render produces the current console view
func (c *Console) Render() View {
	c.mu.Lock()
	defer c.mu.Unlock()

	visible, actualPage := c.visibleLocked()
	filtered := congregations.Filter(c.registry.Snapshot(), c.search, c.statusFilter)

	return View{
		Congregations: visible,
		Page:          actualPage,
		PageSize:      c.pageSize,
		Total:         len(filtered),
		Search:        c.search,
		StatusFilter:  c.statusFilter,
		SelectedCount: len(c.selected),
		Stats:         c.registry.Stats(),
		Pending:       c.pending,
	}
}

// RequestSingle stages a single-item confirmation for the given action
func (c *Console) RequestSingle(kind ActionKind, id uuid.UUID, name string) (*Confirmation, error) {
	if kind != KindApprove && kind != KindReject {
		return nil, errors.New("moderation: unknown single action")
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.pending != nil {
		return nil, ErrConfirmationPending
	}
	c.pending = &Confirmation{
		Kind:           kind,
		TargetIDs:      []uuid.UUID{id},
		TargetNames:    []string{name},
		Count:          1,
		RequiresReason: kind == KindReject,
	}
	return c.pending, nil
}

// RequestBulk stages a bulk confirmation over the current selection set
func (c *Console) RequestBulk(kind ActionKind) (*Confirmation, error) {
	if kind != KindBulkApprove && kind != KindBulkReject {
		return nil, errors.New("moderation: unknown bulk action")
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.pending != nil {
		return nil, ErrConfirmationPending
	}
	if len(c.selected) == 0 {
		return nil, verification.ErrEmptySelection
	}

	confirmation := &Confirmation{Kind: kind, RequiresReason: kind == KindBulkReject}
	names := c.namesLocked()
	for id := range c.selected {
		confirmation.TargetIDs = append(confirmation.TargetIDs, id)
		if name, ok := names[id]; ok {
			confirmation.TargetNames = append(confirmation.TargetNames, name)
		}
	}
	confirmation.Count = len(confirmation.TargetIDs)
	c.pending = confirmation
	return confirmation, nil
}

// Cancel discards the pending confirmation without dispatching
func (c *Console) Cancel() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pending = nil
}

// Confirm dispatches the pending confirmation to the engine. A successful
// bulk dispatch clears the selection set. The confirmation is consumed
// whether or not the engine accepts the action, so a failed dispatch is
// re-staged explicitly by the admin.
func (c *Console) Confirm(ctx context.Context, principal *auth.Principal, reason string) (any, error) {
	c.mu.Lock()
	pending := c.pending
	c.pending = nil
	c.mu.Unlock()

	if pending == nil {
		return nil, ErrNoPendingConfirmation
	}

	switch pending.Kind {
	case KindApprove:
		return c.engine.Approve(ctx, principal, pending.TargetIDs[0])
	case KindReject:
		return c.engine.Reject(ctx, principal, pending.TargetIDs[0], reason)
	case KindBulkApprove:
		result, err := c.engine.BulkApprove(ctx, principal, pending.TargetIDs)
		c.clearSelectionOnSuccess(err)
		return result, err
	case KindBulkReject:
		result, err := c.engine.BulkReject(ctx, principal, pending.TargetIDs, reason)
		c.clearSelectionOnSuccess(err)
		return result, err
	}
	return nil, errors.New("moderation: unknown confirmation kind")
}

// clearSelectionOnSuccess empties the selection after a committed bulk
// decision. A partial audit failure still committed the statuses, so the
// selection clears for that case too.
func (c *Console) clearSelectionOnSuccess(err error) {
	var partial *verification.PartialAuditError
	if err == nil || errors.As(err, &partial) {
		c.mu.Lock()
		c.selected = make(map[uuid.UUID]struct{})
		c.mu.Unlock()
	}
}

func (c *Console) visibleLocked() ([]congregations.Congregation, int) {
	filtered := congregations.Filter(c.registry.Snapshot(), c.search, c.statusFilter)
	return congregations.Paginate(filtered, c.page, c.pageSize)
}

func (c *Console) namesLocked() map[uuid.UUID]string {
	names := make(map[uuid.UUID]string)
	for _, row := range c.registry.Snapshot() {
		names[row.ID] = row.Name
	}
	return names
}

// Manager hands each admin their own console
type Manager struct {
	registry *congregations.Registry
	engine   *verification.Engine

	mu       sync.Mutex
	consoles map[uuid.UUID]*Console
}

// NewManager creates a console manager
func NewManager(registry *congregations.Registry, engine *verification.Engine) *Manager {
	return &Manager{
		registry: registry,
		engine:   engine,
		consoles: make(map[uuid.UUID]*Console),
	}
}

// ForPrincipal returns the admin's console, creating it on first use
func (m *Manager) ForPrincipal(uid uuid.UUID) *Console {
	m.mu.Lock()
	defer m.mu.Unlock()
	console, ok := m.consoles[uid]
	if !ok {
		console = NewConsole(m.registry, m.engine)
		m.consoles[uid] = console
	}
	return console
}

package congregations

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"faith-connect/congregation-portal/portal-backend/pkg/workflows"
)

var ErrFetch = errors.New("congregations: fetch failed")

// StatusFilterAll is the sentinel that disables status filtering
const StatusFilterAll = "all"

// Registry is the in-memory projection of all congregations used by the
// moderation console. Filtering and pagination operate on the most recently
// loaded snapshot and never trigger remote reads; staleness is resolved by
// an explicit Load after a mutation.
type Registry struct {
	repo Repository

	mu       sync.RWMutex
	snapshot []Congregation
}

// NewRegistry creates an empty registry backed by the given repository
func NewRegistry(repo Repository) *Registry {
	return &Registry{repo: repo}
}

// Load replaces the snapshot with a fresh fetch ordered by creation time
// descending. On failure the previous snapshot is left untouched.
func (r *Registry) Load(ctx context.Context) error {
	list, err := r.repo.ListAll(ctx)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrFetch, err)
	}

	r.mu.Lock()
	r.snapshot = list
	r.mu.Unlock()
	return nil
}

// Snapshot returns a copy of the loaded congregation list
func (r *Registry) Snapshot() []Congregation {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Congregation, len(r.snapshot))
	copy(out, r.snapshot)
	return out
}

// Stats counts the snapshot by status
func (r *Registry) Stats() Stats {
	r.mu.RLock()
	defer r.mu.RUnlock()

	stats := Stats{Total: len(r.snapshot)}
	for _, c := range r.snapshot {
		switch c.Status {
		case workflows.StatusVerified:
			stats.Verified++
		case workflows.StatusRejected:
			stats.Rejected++
		default:
			stats.Pending++
		}
	}
	return stats
}

// ApplyStatus updates the projection for one congregation after the remote
// write has been confirmed. Never called before confirmation.
func (r *Registry) ApplyStatus(id uuid.UUID, status workflows.Status, verifiedAt *time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.snapshot {
		if r.snapshot[i].ID == id {
			r.snapshot[i].Status = status
			r.snapshot[i].VerifiedAt = verifiedAt
			return
		}
	}
}

// Remove drops a stale row from the projection (target deleted remotely)
func (r *Registry) Remove(id uuid.UUID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.snapshot {
		if r.snapshot[i].ID == id {
			r.snapshot = append(r.snapshot[:i], r.snapshot[i+1:]...)
			return
		}
	}
}

// Filter returns the congregations matching the search text and status
// filter. Search matches case-insensitively against name and city; the
// status filter is an exact match against the status, or "all". Pure: the
// input slice is not mutated and order is preserved.
func Filter(list []Congregation, search, statusFilter string) []Congregation {
	search = strings.ToLower(strings.TrimSpace(search))

	out := make([]Congregation, 0, len(list))
	for _, c := range list {
		if search != "" &&
			!strings.Contains(strings.ToLower(c.Name), search) &&
			!strings.Contains(strings.ToLower(c.City), search) {
			continue
		}
		if statusFilter != "" && statusFilter != StatusFilterAll &&
			string(c.Status) != statusFilter {
			continue
		}
		out = append(out, c)
	}
	return out
}

// Paginate slices the filtered sequence. Pages are 1-based; an out-of-range
// page clamps silently to the last valid page rather than erroring, so the
// console never shows an empty page after a filter shrinks the set.
func Paginate(list []Congregation, page, pageSize int) ([]Congregation, int) {
	if pageSize <= 0 {
		pageSize = 10
	}
	totalPages := (len(list) + pageSize - 1) / pageSize
	if totalPages == 0 {
		totalPages = 1
	}
	if page < 1 {
		page = 1
	}
	if page > totalPages {
		page = totalPages
	}

	start := (page - 1) * pageSize
	if start >= len(list) {
		return []Congregation{}, page
	}
	end := start + pageSize
	if end > len(list) {
		end = len(list)
	}
	return list[start:end], page
}

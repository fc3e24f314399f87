package events

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Derived event statuses. Status is never stored, it follows from the
// event date at read time.
const (
	StatusUpcoming = "upcoming"
	StatusElapsed  = "elapsed"
	StatusUnknown  = "unknown"
)

// Filter value accepted by the admin list alongside the statuses above.
const StatusFilterAll = "all"

// Event represents a congregation event
type Event struct {
	ID               uuid.UUID      `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Title            string         `gorm:"not null" json:"title"`
	Description      string         `json:"description"`
	CongregationID   *uuid.UUID     `gorm:"type:uuid" json:"congregation_id,omitempty"`
	CongregationName string         `json:"congregation_name,omitempty"`
	Category         string         `json:"category"`
	Location         string         `json:"location"`
	Date             *time.Time     `json:"date,omitempty"`
	Metadata         datatypes.JSON `json:"metadata,omitempty"`
	CreatedBy        uuid.UUID      `gorm:"type:uuid" json:"created_by"`
	CreatedAt        time.Time      `json:"created_at"`
	UpdatedAt        time.Time      `json:"updated_at"`
	DeletedAt        gorm.DeletedAt `gorm:"index" json:"-"`
}

// StatusAt derives the event status relative to now. Events without a
// date can never be classified.
func (e *Event) StatusAt(now time.Time) string {
	if e.Date == nil {
		return StatusUnknown
	}
	if e.Date.Before(now) {
		return StatusElapsed
	}
	return StatusUpcoming
}

// View is an event decorated with its derived status
type View struct {
	Event
	Status string `json:"status"`
}

// CreateRequest is the payload for creating an event
type CreateRequest struct {
	Title            string         `json:"title" binding:"required"`
	Description      string         `json:"description"`
	CongregationID   *uuid.UUID     `json:"congregation_id,omitempty"`
	CongregationName string         `json:"congregation_name,omitempty"`
	Category         string         `json:"category"`
	Location         string         `json:"location"`
	Date             *time.Time     `json:"date,omitempty"`
	Metadata         datatypes.JSON `json:"metadata,omitempty"`
}

// BulkDeleteRequest is the payload for deleting several events at once
type BulkDeleteRequest struct {
	EventIDs []uuid.UUID `json:"event_ids" binding:"required"`
}

// Analytics summarises the events table for the admin dashboard
type Analytics struct {
	Total      int            `json:"total"`
	Upcoming   int            `json:"upcoming"`
	Elapsed    int            `json:"elapsed"`
	Unknown    int            `json:"unknown"`
	ByCategory map[string]int `json:"by_category"`
}

package models

import "time"

// EventStatus is the lifecycle state of an event.
type EventStatus string

const (
	EventStatusPending   EventStatus = "Pending"
	EventStatusUpcoming  EventStatus = "Upcoming"
	EventStatusOngoing   EventStatus = "Ongoing"
	EventStatusCompleted EventStatus = "Completed"
	EventStatusRejected  EventStatus = "Rejected"
)

// PublicEventStatuses are visible to anonymous listings.
var PublicEventStatuses = []EventStatus{EventStatusUpcoming, EventStatusOngoing, EventStatusCompleted}

// Valid reports whether s is a known status.
func (s EventStatus) Valid() bool {
	switch s {
	case EventStatusPending, EventStatusUpcoming, EventStatusOngoing, EventStatusCompleted, EventStatusRejected:
		return true
	default:
		return false
	}
}

// Registerable is true only while an event accepts sign ups.
func (s EventStatus) Registerable() bool {
	return s == EventStatusUpcoming
}

// Public is true once an event has passed moderation.
func (s EventStatus) Public() bool {
	for _, p := range PublicEventStatuses {
		if s == p {
			return true
		}
	}
	return false
}

func (s EventStatus) progressRank() int {
	switch s {
	case EventStatusUpcoming:
		return 1
	case EventStatusOngoing:
		return 2
	case EventStatusCompleted:
		return 3
	default:
		return 0
	}
}

// CanProgressTo reports whether an explicit update may move s to next.
// Only forward moves along Upcoming, Ongoing, Completed are allowed; moderation
// states are never entered or left this way.
func (s EventStatus) CanProgressTo(next EventStatus) bool {
	from, to := s.progressRank(), next.progressRank()
	if from == 0 || to == 0 {
		return false
	}
	return to > from
}

// InitialEventStatus returns the status assigned on creation by role.
func InitialEventStatus(role UserRole) EventStatus {
	if role == RoleStudent {
		return EventStatusPending
	}
	return EventStatusUpcoming
}

// Event is a scheduled campus activity.
type Event struct {
	ID              string      `db:"id" json:"id"`
	Title           string      `db:"title" json:"title"`
	Description     string      `db:"description" json:"description"`
	Category        string      `db:"category" json:"category"`
	Department      string      `db:"department" json:"department"`
	Venue           string      `db:"venue" json:"venue"`
	EventDate       time.Time   `db:"event_date" json:"eventDate"`
	StartTime       string      `db:"start_time" json:"startTime"`
	EndTime         string      `db:"end_time" json:"endTime"`
	MaxParticipants *int        `db:"max_participants" json:"maxParticipants,omitempty"`
	RegisteredCount int         `db:"registered_count" json:"registeredCount"`
	Status          EventStatus `db:"status" json:"status"`
	CreatedBy       string      `db:"created_by" json:"createdBy"`
	CreatedAt       time.Time   `db:"created_at" json:"createdAt"`
	UpdatedAt       time.Time   `db:"updated_at" json:"updatedAt"`
}

// IsFull reports whether a capped event has no seats left.
func (e *Event) IsFull() bool {
	return e.MaxParticipants != nil && e.RegisteredCount >= *e.MaxParticipants
}

// IsOwnedBy reports whether userID created the event.
func (e *Event) IsOwnedBy(userID string) bool {
	return e.CreatedBy == userID
}

// EventFilter captures listing criteria.
type EventFilter struct {
	Statuses   []EventStatus
	CreatedBy  string
	Category   string
	Department string
	Search     string
	Page       int
	PageSize   int
}

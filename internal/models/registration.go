package models

import "time"

// Registration links a student to an event.
type Registration struct {
	ID           string    `db:"id" json:"id"`
	EventID      string    `db:"event_id" json:"eventId"`
	StudentID    string    `db:"student_id" json:"studentId"`
	RegisteredAt time.Time `db:"registered_at" json:"registeredAt"`
}

// RegistrationWithEvent joins a registration to its event summary.
type RegistrationWithEvent struct {
	Registration
	EventTitle  string      `db:"event_title" json:"eventTitle"`
	EventDate   time.Time   `db:"event_date" json:"eventDate"`
	Venue       string      `db:"venue" json:"venue"`
	EventStatus EventStatus `db:"event_status" json:"eventStatus"`
}

// EventRegistrant is a registered student as seen by organisers.
type EventRegistrant struct {
	StudentID    string    `db:"student_id" json:"studentId"`
	Name         string    `db:"name" json:"name"`
	Email        string    `db:"email" json:"email"`
	Department   *string   `db:"department" json:"department,omitempty"`
	RegisteredAt time.Time `db:"registered_at" json:"registeredAt"`
}

// RegistrationStatus answers whether the caller holds a registration.
type RegistrationStatus struct {
	EventID    string `json:"eventId"`
	Registered bool   `json:"registered"`
}

package models

import "time"

// AttendanceStatus represents the status for attendance records.
type AttendanceStatus string

const (
	AttendanceStatusPresent   AttendanceStatus = "Present"
	AttendanceStatusAbsent    AttendanceStatus = "Absent"
	AttendanceStatusNotMarked AttendanceStatus = "Not Marked"
)

// Valid returns true when the status can be stored.
func (s AttendanceStatus) Valid() bool {
	return s == AttendanceStatusPresent || s == AttendanceStatusAbsent
}

// Attendance is the marked presence of a student at an event.
type Attendance struct {
	ID        string           `db:"id" json:"id"`
	EventID   string           `db:"event_id" json:"eventId"`
	StudentID string           `db:"student_id" json:"studentId"`
	Status    AttendanceStatus `db:"status" json:"status"`
	MarkedAt  time.Time        `db:"marked_at" json:"markedAt"`
	MarkedBy  *string          `db:"marked_by" json:"markedBy,omitempty"`
}

// AttendanceMark is one entry of a batch marking request.
type AttendanceMark struct {
	StudentID string           `json:"studentId" validate:"required"`
	Status    AttendanceStatus `json:"status"`
}

// MarkAttendanceRequest is the batch marking payload.
type MarkAttendanceRequest struct {
	Attendance []AttendanceMark `json:"attendance" validate:"required,min=1,dive"`
}

// MarkAttendanceResult reports how many entries were written.
type MarkAttendanceResult struct {
	Marked  int `json:"marked"`
	Skipped int `json:"skipped"`
}

// AttendanceRosterEntry is one registered student and their mark, if any.
type AttendanceRosterEntry struct {
	StudentID  string           `db:"student_id" json:"studentId"`
	Name       string           `db:"name" json:"name"`
	Email      string           `db:"email" json:"email"`
	Department *string          `db:"department" json:"department,omitempty"`
	Status     AttendanceStatus `db:"status" json:"status"`
	MarkedAt   *time.Time       `db:"marked_at" json:"markedAt,omitempty"`
}

// MyAttendanceEntry is the caller's attendance joined with its event.
type MyAttendanceEntry struct {
	EventID    string           `db:"event_id" json:"eventId"`
	EventTitle string           `db:"event_title" json:"eventTitle"`
	EventDate  time.Time        `db:"event_date" json:"eventDate"`
	Venue      string           `db:"venue" json:"venue"`
	Status     AttendanceStatus `db:"status" json:"status"`
	MarkedAt   time.Time        `db:"marked_at" json:"markedAt"`
}

package models

// AdminDashboard aggregates campus wide totals.
type AdminDashboard struct {
	TotalEvents        int     `json:"totalEvents"`
	TotalRegistrations int     `json:"totalRegistrations"`
	TotalStudents      int     `json:"totalStudents"`
	PendingEvents      int     `json:"pendingEvents"`
	RecentEvents       []Event `json:"recentEvents"`
}

// CoordinatorEvent is an owned event with attendance progress.
type CoordinatorEvent struct {
	Event
	AttendanceMarked bool `db:"attendance_marked" json:"attendanceMarked"`
}

// CoordinatorDashboard lists the caller's events.
type CoordinatorDashboard struct {
	MyEvents []CoordinatorEvent `json:"myEvents"`
}

// AttendanceSummary counts a student's marks.
type AttendanceSummary struct {
	Present int `json:"present"`
	Absent  int `json:"absent"`
}

// StudentDashboard summarises a student's participation.
type StudentDashboard struct {
	TotalRegistrations int                     `json:"totalRegistrations"`
	UpcomingEvents     []RegistrationWithEvent `json:"upcomingEvents"`
	AttendanceSummary  AttendanceSummary       `json:"attendanceSummary"`
}

package models

// ReportType enumerates exportable reports.
type ReportType string

const (
	ReportTypeParticipation ReportType = "participation"
	ReportTypeAttendance    ReportType = "attendance"
	ReportTypeDepartment    ReportType = "department"
)

// ExportFormat enumerates export encodings.
type ExportFormat string

const (
	ExportFormatPDF   ExportFormat = "pdf"
	ExportFormatExcel ExportFormat = "excel"
	ExportFormatCSV   ExportFormat = "csv"
)

// ReportScope limits aggregation to events created by CreatedBy. An empty
// CreatedBy covers every event.
type ReportScope struct {
	CreatedBy string
}

// Key identifies the scope in cache keys.
func (s ReportScope) Key() string {
	if s.CreatedBy == "" {
		return "all"
	}
	return s.CreatedBy
}

// ParticipationRow counts registrations for one event.
type ParticipationRow struct {
	EventID string `db:"event_id" json:"eventId"`
	Label   string `db:"label" json:"label"`
	Value   int    `db:"value" json:"value"`
}

// AttendanceRow summarises presence for one event.
type AttendanceRow struct {
	EventID    string `db:"event_id" json:"eventId"`
	Label      string `db:"label" json:"label"`
	Registered int    `db:"registered" json:"registered"`
	Present    int    `db:"present" json:"present"`
	Percentage int    `db:"-" json:"percentage"`
}

// DepartmentRow counts registrations per student department.
type DepartmentRow struct {
	Label string `db:"label" json:"label"`
	Value int    `db:"value" json:"value"`
}

// ExportFile is a rendered report ready for download.
type ExportFile struct {
	Title       string
	Extension   string
	ContentType string
	Payload     []byte
}

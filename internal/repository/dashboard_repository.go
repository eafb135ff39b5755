package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/campus-events-api/internal/models"
)

// DashboardRepository serves the role specific dashboard queries.
type DashboardRepository struct {
	db *sqlx.DB
}

// NewDashboardRepository constructs a dashboard repository.
func NewDashboardRepository(db *sqlx.DB) *DashboardRepository {
	return &DashboardRepository{db: db}
}

// AdminTotals returns campus wide counters.
func (r *DashboardRepository) AdminTotals(ctx context.Context) (*models.AdminDashboard, error) {
	const query = `SELECT
(SELECT COUNT(*) FROM events) AS total_events,
(SELECT COUNT(*) FROM registrations) AS total_registrations,
(SELECT COUNT(*) FROM users WHERE role = 'student') AS total_students,
(SELECT COUNT(*) FROM events WHERE status = 'Pending') AS pending_events`
	var row struct {
		TotalEvents        int `db:"total_events"`
		TotalRegistrations int `db:"total_registrations"`
		TotalStudents      int `db:"total_students"`
		PendingEvents      int `db:"pending_events"`
	}
	if err := r.db.GetContext(ctx, &row, query); err != nil {
		return nil, fmt.Errorf("admin totals: %w", err)
	}
	return &models.AdminDashboard{
		TotalEvents:        row.TotalEvents,
		TotalRegistrations: row.TotalRegistrations,
		TotalStudents:      row.TotalStudents,
		PendingEvents:      row.PendingEvents,
	}, nil
}

// RecentEvents returns the latest created events.
func (r *DashboardRepository) RecentEvents(ctx context.Context, limit int) ([]models.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events ORDER BY created_at DESC LIMIT $1`
	events := make([]models.Event, 0)
	if err := r.db.SelectContext(ctx, &events, query, limit); err != nil {
		return nil, fmt.Errorf("recent events: %w", err)
	}
	return events, nil
}

// CoordinatorEvents lists the creator's events and whether any attendance was recorded.
func (r *DashboardRepository) CoordinatorEvents(ctx context.Context, createdBy string) ([]models.CoordinatorEvent, error) {
	query := `SELECT ` + eventColumns + `, EXISTS(SELECT 1 FROM attendance a WHERE a.event_id = events.id) AS attendance_marked
FROM events WHERE created_by = $1 ORDER BY event_date DESC`
	events := make([]models.CoordinatorEvent, 0)
	if err := r.db.SelectContext(ctx, &events, query, createdBy); err != nil {
		return nil, fmt.Errorf("coordinator events: %w", err)
	}
	return events, nil
}

// StudentCounts returns the registration total and attendance tallies for a student.
func (r *DashboardRepository) StudentCounts(ctx context.Context, studentID string) (int, models.AttendanceSummary, error) {
	const query = `SELECT
(SELECT COUNT(*) FROM registrations WHERE student_id = $1) AS registrations,
(SELECT COUNT(*) FROM attendance WHERE student_id = $1 AND status = 'Present') AS present,
(SELECT COUNT(*) FROM attendance WHERE student_id = $1 AND status = 'Absent') AS absent`
	var row struct {
		Registrations int `db:"registrations"`
		Present       int `db:"present"`
		Absent        int `db:"absent"`
	}
	if err := r.db.GetContext(ctx, &row, query, studentID); err != nil {
		return 0, models.AttendanceSummary{}, fmt.Errorf("student counts: %w", err)
	}
	return row.Registrations, models.AttendanceSummary{Present: row.Present, Absent: row.Absent}, nil
}

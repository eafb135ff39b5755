package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/campus-events-api/internal/models"
)

// ReportRepository runs the participation and attendance aggregations.
type ReportRepository struct {
	db *sqlx.DB
}

// NewReportRepository constructs the repository.
func NewReportRepository(db *sqlx.DB) *ReportRepository {
	return &ReportRepository{db: db}
}

func scopeClause(scope models.ReportScope, prefix string, args []interface{}) (string, []interface{}) {
	if scope.CreatedBy == "" {
		return "", args
	}
	args = append(args, scope.CreatedBy)
	return fmt.Sprintf(" %s e.created_by = $%d", prefix, len(args)), args
}

// Participation counts registrations per event, most popular first.
func (r *ReportRepository) Participation(ctx context.Context, scope models.ReportScope) ([]models.ParticipationRow, error) {
	where, args := scopeClause(scope, "WHERE", nil)
	query := `SELECT e.id AS event_id, e.title AS label, COUNT(r.id) AS value
FROM registrations r
JOIN events e ON e.id = r.event_id` + where + `
GROUP BY e.id, e.title
ORDER BY value DESC, e.title ASC`
	rows := make([]models.ParticipationRow, 0)
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("participation summary: %w", err)
	}
	return rows, nil
}

// Attendance returns registered and present counts per scoped event. The
// registered figure is counted from registrations, not the seat counter, and
// only currently registered students count as present.
func (r *ReportRepository) Attendance(ctx context.Context, scope models.ReportScope) ([]models.AttendanceRow, error) {
	where, args := scopeClause(scope, "WHERE", nil)
	query := `SELECT e.id AS event_id, e.title AS label,
(SELECT COUNT(*) FROM registrations r WHERE r.event_id = e.id) AS registered,
(SELECT COUNT(*) FROM attendance a
JOIN registrations r ON r.event_id = a.event_id AND r.student_id = a.student_id
WHERE a.event_id = e.id AND a.status = 'Present') AS present
FROM events e` + where + `
ORDER BY e.event_date DESC, e.title ASC`
	rows := make([]models.AttendanceRow, 0)
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("attendance summary: %w", err)
	}
	return rows, nil
}

// Department counts registrations by the registering student's department.
// Students without a department are left out.
func (r *ReportRepository) Department(ctx context.Context, scope models.ReportScope) ([]models.DepartmentRow, error) {
	where, args := scopeClause(scope, "AND", nil)
	query := `SELECT u.department AS label, COUNT(*) AS value
FROM registrations r
JOIN users u ON u.id = r.student_id
JOIN events e ON e.id = r.event_id
WHERE u.department IS NOT NULL AND u.department <> ''` + where + `
GROUP BY u.department
ORDER BY value DESC, label ASC`
	rows := make([]models.DepartmentRow, 0)
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("department summary: %w", err)
	}
	return rows, nil
}

package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/campus-events-api/internal/models"
)

// AttendanceRepository stores per event attendance marks.
type AttendanceRepository struct {
	db *sqlx.DB
}

// NewAttendanceRepository constructs an attendance repository.
func NewAttendanceRepository(db *sqlx.DB) *AttendanceRepository {
	return &AttendanceRepository{db: db}
}

// MarkBatch writes every mark inside one transaction. Each mark updates the
// existing (event, student) row, inserts it when absent, and retries the
// update when a concurrent writer inserted first.
func (r *AttendanceRepository) MarkBatch(ctx context.Context, eventID, markedBy string, marks []models.AttendanceMark) (int, error) {
	if len(marks) == 0 {
		return 0, nil
	}
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin mark attendance: %w", err)
	}
	commit := false
	defer func() {
		if !commit {
			tx.Rollback() //nolint:errcheck
		}
	}()

	now := time.Now().UTC()
	written := 0
	for _, mark := range marks {
		if err := markOne(ctx, tx, eventID, markedBy, mark, now); err != nil {
			return 0, err
		}
		written++
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit mark attendance: %w", err)
	}
	commit = true
	return written, nil
}

func markOne(ctx context.Context, tx *sqlx.Tx, eventID, markedBy string, mark models.AttendanceMark, now time.Time) error {
	const update = `UPDATE attendance SET status = $3, marked_at = $4, marked_by = $5 WHERE event_id = $1 AND student_id = $2`
	const insert = `INSERT INTO attendance (id, event_id, student_id, status, marked_at, marked_by) VALUES ($1, $2, $3, $4, $5, $6)
ON CONFLICT (event_id, student_id) DO NOTHING`

	updated, err := execAffected(ctx, tx, update, eventID, mark.StudentID, mark.Status, now, markedBy)
	if err != nil {
		return fmt.Errorf("update attendance: %w", err)
	}
	if updated > 0 {
		return nil
	}

	inserted, err := execAffected(ctx, tx, insert, uuid.NewString(), eventID, mark.StudentID, mark.Status, now, markedBy)
	if err != nil {
		return fmt.Errorf("insert attendance: %w", err)
	}
	if inserted > 0 {
		return nil
	}

	if _, err := execAffected(ctx, tx, update, eventID, mark.StudentID, mark.Status, now, markedBy); err != nil {
		return fmt.Errorf("retry attendance update: %w", err)
	}
	return nil
}

func execAffected(ctx context.Context, tx *sqlx.Tx, query string, args ...interface{}) (int64, error) {
	res, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// Find returns the attendance row for the pair or sql.ErrNoRows.
func (r *AttendanceRepository) Find(ctx context.Context, eventID, studentID string) (*models.Attendance, error) {
	const query = `SELECT id, event_id, student_id, status, marked_at, marked_by FROM attendance WHERE event_id = $1 AND student_id = $2`
	var att models.Attendance
	if err := r.db.GetContext(ctx, &att, query, eventID, studentID); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find attendance: %w", err)
	}
	return &att, nil
}

// Roster joins the event's registrations with their attendance rows. Students
// without a row are reported as Not Marked.
func (r *AttendanceRepository) Roster(ctx context.Context, eventID string) ([]models.AttendanceRosterEntry, error) {
	const query = `SELECT r.student_id, u.name, u.email, u.department, COALESCE(a.status, 'Not Marked') AS status, a.marked_at
FROM registrations r
JOIN users u ON u.id = r.student_id
LEFT JOIN attendance a ON a.event_id = r.event_id AND a.student_id = r.student_id
WHERE r.event_id = $1
ORDER BY u.name ASC`
	rows := make([]models.AttendanceRosterEntry, 0)
	if err := r.db.SelectContext(ctx, &rows, query, eventID); err != nil {
		return nil, fmt.Errorf("attendance roster: %w", err)
	}
	return rows, nil
}

// ListByStudent returns the student's marks with event details, newest first.
func (r *AttendanceRepository) ListByStudent(ctx context.Context, studentID string) ([]models.MyAttendanceEntry, error) {
	const query = `SELECT a.event_id, e.title AS event_title, e.event_date, e.venue, a.status, a.marked_at
FROM attendance a
JOIN events e ON e.id = a.event_id
WHERE a.student_id = $1
ORDER BY e.event_date DESC`
	rows := make([]models.MyAttendanceEntry, 0)
	if err := r.db.SelectContext(ctx, &rows, query, studentID); err != nil {
		return nil, fmt.Errorf("list student attendance: %w", err)
	}
	return rows, nil
}

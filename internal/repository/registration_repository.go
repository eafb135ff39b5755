package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/campus-events-api/internal/models"
)

var (
	// ErrAlreadyRegistered is returned when the student already holds a seat.
	ErrAlreadyRegistered = errors.New("registration already exists")
	// ErrNoCapacity is returned when the event is not open or has no seat left.
	ErrNoCapacity = errors.New("event has no open seat")
)

// RegistrationRepository manages registrations and the event seat counter.
type RegistrationRepository struct {
	db *sqlx.DB
}

// NewRegistrationRepository constructs a registration repository.
func NewRegistrationRepository(db *sqlx.DB) *RegistrationRepository {
	return &RegistrationRepository{db: db}
}

// Register inserts the registration and takes a seat in one transaction.
// The seat is taken by a guarded increment so concurrent callers can never
// push registered_count past max_participants.
func (r *RegistrationRepository) Register(ctx context.Context, eventID, studentID string) (*models.Registration, error) {
	reg := &models.Registration{
		ID:           uuid.NewString(),
		EventID:      eventID,
		StudentID:    studentID,
		RegisteredAt: time.Now().UTC(),
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin register: %w", err)
	}
	commit := false
	defer func() {
		if !commit {
			tx.Rollback() //nolint:errcheck
		}
	}()

	const insert = `INSERT INTO registrations (id, event_id, student_id, registered_at) VALUES ($1, $2, $3, $4)
ON CONFLICT (event_id, student_id) DO NOTHING`
	res, err := tx.ExecContext(ctx, insert, reg.ID, reg.EventID, reg.StudentID, reg.RegisteredAt)
	if err != nil {
		if IsForeignKeyViolation(err) {
			return nil, sql.ErrNoRows
		}
		return nil, fmt.Errorf("insert registration: %w", err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return nil, fmt.Errorf("insert registration rows: %w", err)
	} else if n == 0 {
		return nil, ErrAlreadyRegistered
	}

	const takeSeat = `UPDATE events SET registered_count = registered_count + 1, updated_at = $2
WHERE id = $1 AND status = 'Upcoming' AND (max_participants IS NULL OR registered_count < max_participants)`
	res, err = tx.ExecContext(ctx, takeSeat, eventID, reg.RegisteredAt)
	if err != nil {
		return nil, fmt.Errorf("take seat: %w", err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return nil, fmt.Errorf("take seat rows: %w", err)
	} else if n == 0 {
		return nil, ErrNoCapacity
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit register: %w", err)
	}
	commit = true
	return reg, nil
}

// Unregister deletes the registration and releases the seat, never letting
// the counter drop below zero. Returns sql.ErrNoRows when nothing was held.
func (r *RegistrationRepository) Unregister(ctx context.Context, eventID, studentID string) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin unregister: %w", err)
	}
	commit := false
	defer func() {
		if !commit {
			tx.Rollback() //nolint:errcheck
		}
	}()

	res, err := tx.ExecContext(ctx, `DELETE FROM registrations WHERE event_id = $1 AND student_id = $2`, eventID, studentID)
	if err != nil {
		return fmt.Errorf("delete registration: %w", err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return fmt.Errorf("delete registration rows: %w", err)
	} else if n == 0 {
		return sql.ErrNoRows
	}

	const releaseSeat = `UPDATE events SET registered_count = GREATEST(registered_count - 1, 0), updated_at = $2 WHERE id = $1`
	if _, err := tx.ExecContext(ctx, releaseSeat, eventID, time.Now().UTC()); err != nil {
		return fmt.Errorf("release seat: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit unregister: %w", err)
	}
	commit = true
	return nil
}

// Exists reports whether the student holds a registration for the event.
func (r *RegistrationRepository) Exists(ctx context.Context, eventID, studentID string) (bool, error) {
	const query = `SELECT EXISTS(SELECT 1 FROM registrations WHERE event_id = $1 AND student_id = $2)`
	var exists bool
	if err := r.db.GetContext(ctx, &exists, query, eventID, studentID); err != nil {
		return false, fmt.Errorf("check registration: %w", err)
	}
	return exists, nil
}

// RegisteredAmong returns the subset of studentIDs registered for the event.
// Ids that are not UUIDs cannot hold a registration and are left out.
func (r *RegistrationRepository) RegisteredAmong(ctx context.Context, eventID string, studentIDs []string) (map[string]struct{}, error) {
	result := make(map[string]struct{}, len(studentIDs))
	candidates := make([]string, 0, len(studentIDs))
	for _, id := range studentIDs {
		if _, err := uuid.Parse(id); err == nil {
			candidates = append(candidates, id)
		}
	}
	if len(candidates) == 0 {
		return result, nil
	}
	const query = `SELECT student_id FROM registrations WHERE event_id = $1 AND student_id = ANY($2)`
	var ids []string
	if err := r.db.SelectContext(ctx, &ids, query, eventID, pq.Array(candidates)); err != nil {
		return nil, fmt.Errorf("filter registered students: %w", err)
	}
	for _, id := range ids {
		result[id] = struct{}{}
	}
	return result, nil
}

// ListByStudent returns the student's registrations with event details, newest event first.
func (r *RegistrationRepository) ListByStudent(ctx context.Context, studentID string) ([]models.RegistrationWithEvent, error) {
	const query = `SELECT r.id, r.event_id, r.student_id, r.registered_at, e.title AS event_title, e.event_date, e.venue, e.status AS event_status
FROM registrations r
JOIN events e ON e.id = r.event_id
WHERE r.student_id = $1
ORDER BY e.event_date DESC`
	rows := make([]models.RegistrationWithEvent, 0)
	if err := r.db.SelectContext(ctx, &rows, query, studentID); err != nil {
		return nil, fmt.Errorf("list student registrations: %w", err)
	}
	return rows, nil
}

// ListByEvent returns the students registered for an event.
func (r *RegistrationRepository) ListByEvent(ctx context.Context, eventID string) ([]models.EventRegistrant, error) {
	const query = `SELECT r.student_id, u.name, u.email, u.department, r.registered_at
FROM registrations r
JOIN users u ON u.id = r.student_id
WHERE r.event_id = $1
ORDER BY r.registered_at ASC`
	rows := make([]models.EventRegistrant, 0)
	if err := r.db.SelectContext(ctx, &rows, query, eventID); err != nil {
		return nil, fmt.Errorf("list event registrations: %w", err)
	}
	return rows, nil
}

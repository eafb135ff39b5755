package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/campus-events-api/internal/models"
)

// ErrConditionNotMet is returned when a guarded write matched no row.
var ErrConditionNotMet = errors.New("conditional write matched no rows")

const eventColumns = `id, title, description, category, department, venue, event_date, start_time, end_time, max_participants, registered_count, status, created_by, created_at, updated_at`

// EventRepository provides database access for events.
type EventRepository struct {
	db *sqlx.DB
}

// NewEventRepository constructs an event repository.
func NewEventRepository(db *sqlx.DB) *EventRepository {
	return &EventRepository{db: db}
}

// Create inserts a new event.
func (r *EventRepository) Create(ctx context.Context, event *models.Event) error {
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	event.CreatedAt = now
	event.UpdatedAt = now
	event.RegisteredCount = 0

	const query = `INSERT INTO events (id, title, description, category, department, venue, event_date, start_time, end_time, max_participants, registered_count, status, created_by, created_at, updated_at)
VALUES (:id, :title, :description, :category, :department, :venue, :event_date, :start_time, :end_time, :max_participants, :registered_count, :status, :created_by, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, event); err != nil {
		return fmt.Errorf("create event: %w", err)
	}
	return nil
}

// FindByID returns an event by identifier.
func (r *EventRepository) FindByID(ctx context.Context, id string) (*models.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events WHERE id = $1`
	var event models.Event
	if err := r.db.GetContext(ctx, &event, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find event: %w", err)
	}
	return &event, nil
}

// List returns events matching filter ordered by date, with the total count.
func (r *EventRepository) List(ctx context.Context, filter models.EventFilter) ([]models.Event, int, error) {
	baseQuery := `FROM events WHERE 1=1`
	var conditions []string
	var args []interface{}

	if len(filter.Statuses) > 0 {
		statuses := make([]string, len(filter.Statuses))
		for i, s := range filter.Statuses {
			statuses[i] = string(s)
		}
		conditions = append(conditions, fmt.Sprintf("status = ANY($%d)", len(args)+1))
		args = append(args, pq.Array(statuses))
	}
	if filter.CreatedBy != "" {
		conditions = append(conditions, fmt.Sprintf("created_by = $%d", len(args)+1))
		args = append(args, filter.CreatedBy)
	}
	if filter.Category != "" {
		conditions = append(conditions, fmt.Sprintf("category = $%d", len(args)+1))
		args = append(args, filter.Category)
	}
	if filter.Department != "" {
		conditions = append(conditions, fmt.Sprintf("department = $%d", len(args)+1))
		args = append(args, filter.Department)
	}
	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(LOWER(title) LIKE $%d OR LOWER(description) LIKE $%d)", len(args)+1, len(args)+1))
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
	}
	if len(conditions) > 0 {
		baseQuery += " AND " + strings.Join(conditions, " AND ")
	}

	page, pageSize := normalisePage(filter.Page, filter.PageSize)
	offset := (page - 1) * pageSize

	listQuery := fmt.Sprintf("SELECT %s %s ORDER BY event_date ASC, created_at DESC LIMIT %d OFFSET %d", eventColumns, baseQuery, pageSize, offset)
	events := make([]models.Event, 0)
	if err := r.db.SelectContext(ctx, &events, listQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("list events: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) "+baseQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count events: %w", err)
	}
	return events, total, nil
}

// Update writes descriptive fields and status. The write only applies while
// the event still holds previous and the capacity stays at or above the
// seats already taken; otherwise ErrConditionNotMet.
func (r *EventRepository) Update(ctx context.Context, event *models.Event, previous models.EventStatus) error {
	event.UpdatedAt = time.Now().UTC()
	const query = `UPDATE events SET title = :title, description = :description, category = :category, department = :department, venue = :venue,
event_date = :event_date, start_time = :start_time, end_time = :end_time, max_participants = :max_participants, status = :status, updated_at = :updated_at
WHERE id = :id AND status = :previous_status AND (CAST(:max_participants AS INTEGER) IS NULL OR CAST(:max_participants AS INTEGER) >= registered_count)`
	args := struct {
		models.Event
		PreviousStatus models.EventStatus `db:"previous_status"`
	}{Event: *event, PreviousStatus: previous}
	res, err := r.db.NamedExecContext(ctx, query, args)
	if err != nil {
		return fmt.Errorf("update event: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update event rows: %w", err)
	}
	if n == 0 {
		return ErrConditionNotMet
	}
	return nil
}

// TransitionStatus moves an event from one status to another only while it
// still holds from. Returns ErrConditionNotMet when the event moved on.
func (r *EventRepository) TransitionStatus(ctx context.Context, id string, from, to models.EventStatus) error {
	const query = `UPDATE events SET status = $3, updated_at = $4 WHERE id = $1 AND status = $2`
	res, err := r.db.ExecContext(ctx, query, id, from, to, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("transition event status: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("transition event rows: %w", err)
	}
	if n == 0 {
		return ErrConditionNotMet
	}
	return nil
}

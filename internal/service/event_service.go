package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/campus-events-api/internal/dto"
	"github.com/noah-isme/campus-events-api/internal/models"
	"github.com/noah-isme/campus-events-api/internal/repository"
	appErrors "github.com/noah-isme/campus-events-api/pkg/errors"
)

const eventDateLayout = "2006-01-02"

type eventRepository interface {
	Create(ctx context.Context, event *models.Event) error
	FindByID(ctx context.Context, id string) (*models.Event, error)
	List(ctx context.Context, filter models.EventFilter) ([]models.Event, int, error)
	Update(ctx context.Context, event *models.Event, previous models.EventStatus) error
	TransitionStatus(ctx context.Context, id string, from, to models.EventStatus) error
}

// EventService implements event creation, moderation and listing.
type EventService struct {
	repo      eventRepository
	audit     auditWriter
	reports   reportInvalidator
	validator *validator.Validate
	logger    *zap.Logger
}

// NewEventService constructs an EventService.
func NewEventService(repo eventRepository, audit auditWriter, reports reportInvalidator, validate *validator.Validate, logger *zap.Logger) *EventService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &EventService{repo: repo, audit: audit, reports: reports, validator: validate, logger: logger}
}

// Create stores a new event. Student submissions wait for moderation.
func (s *EventService) Create(ctx context.Context, req dto.CreateEventRequest, actor *models.JWTClaims) (*models.Event, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	req.Title = strings.TrimSpace(req.Title)
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid event payload")
	}
	date, err := time.Parse(eventDateLayout, req.Date)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid event date")
	}
	if err := checkTimeRange(req.StartTime, req.EndTime); err != nil {
		return nil, err
	}

	event := &models.Event{
		Title:           req.Title,
		Description:     strings.TrimSpace(req.Description),
		Category:        strings.TrimSpace(req.Category),
		Department:      strings.TrimSpace(req.Department),
		Venue:           strings.TrimSpace(req.Venue),
		EventDate:       date,
		StartTime:       req.StartTime,
		EndTime:         req.EndTime,
		MaxParticipants: req.MaxParticipants,
		Status:          models.InitialEventStatus(actor.Role),
		CreatedBy:       actor.UserID,
	}
	if err := s.repo.Create(ctx, event); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create event")
	}

	s.invalidate(ctx)
	s.recordAudit(ctx, actor, models.AuditActionEventCreate, event.ID, nil, event)
	return event, nil
}

// Get returns an event visible to the caller. Events still in moderation are
// only visible to admins and their creator. actor may be nil for anonymous callers.
func (s *EventService) Get(ctx context.Context, id string, actor *models.JWTClaims) (*models.Event, error) {
	event, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if !event.Status.Public() && !canManage(event, actor) {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "Event not found")
	}
	return event, nil
}

// List returns public events matching the query.
func (s *EventService) List(ctx context.Context, query dto.EventListQuery) ([]models.Event, *models.Pagination, error) {
	filter := models.EventFilter{
		Statuses:   models.PublicEventStatuses,
		Category:   strings.TrimSpace(query.Category),
		Department: strings.TrimSpace(query.Department),
		Search:     strings.TrimSpace(query.Search),
		Page:       query.Page,
		PageSize:   query.PageSize,
	}
	if query.Status != "" {
		status := models.EventStatus(query.Status)
		if !status.Public() {
			return nil, nil, appErrors.Clone(appErrors.ErrValidation, "invalid status filter")
		}
		filter.Statuses = []models.EventStatus{status}
	}
	return s.list(ctx, filter)
}

// ListMine returns every event created by the actor regardless of status.
func (s *EventService) ListMine(ctx context.Context, query dto.EventListQuery, actor *models.JWTClaims) ([]models.Event, *models.Pagination, error) {
	if actor == nil {
		return nil, nil, appErrors.ErrUnauthorized
	}
	filter := models.EventFilter{CreatedBy: actor.UserID, Page: query.Page, PageSize: query.PageSize, Search: strings.TrimSpace(query.Search)}
	if query.Status != "" {
		status := models.EventStatus(query.Status)
		if !status.Valid() {
			return nil, nil, appErrors.Clone(appErrors.ErrValidation, "invalid status filter")
		}
		filter.Statuses = []models.EventStatus{status}
	}
	return s.list(ctx, filter)
}

// ListPending returns events awaiting moderation.
func (s *EventService) ListPending(ctx context.Context, query dto.EventListQuery) ([]models.Event, *models.Pagination, error) {
	return s.list(ctx, models.EventFilter{
		Statuses: []models.EventStatus{models.EventStatusPending},
		Page:     query.Page,
		PageSize: query.PageSize,
	})
}

// Approve moves a pending event to Upcoming.
func (s *EventService) Approve(ctx context.Context, id string, actor *models.JWTClaims) (*models.Event, error) {
	return s.moderate(ctx, id, models.EventStatusUpcoming, models.AuditActionEventApprove, actor)
}

// Reject moves a pending event to Rejected.
func (s *EventService) Reject(ctx context.Context, id string, actor *models.JWTClaims) (*models.Event, error) {
	return s.moderate(ctx, id, models.EventStatusRejected, models.AuditActionEventReject, actor)
}

func (s *EventService) moderate(ctx context.Context, id string, to models.EventStatus, action string, actor *models.JWTClaims) (*models.Event, error) {
	event, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if event.Status != models.EventStatusPending {
		return nil, appErrors.Clone(appErrors.ErrConflict, "Only pending events can be moderated")
	}
	if err := s.repo.TransitionStatus(ctx, id, models.EventStatusPending, to); err != nil {
		if errors.Is(err, repository.ErrConditionNotMet) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "Only pending events can be moderated")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update event status")
	}
	before := *event
	event.Status = to
	s.invalidate(ctx)
	s.recordAudit(ctx, actor, action, event.ID, &before, event)
	return event, nil
}

// Update edits an event. Only its creator or an admin may do so.
func (s *EventService) Update(ctx context.Context, id string, req dto.UpdateEventRequest, actor *models.JWTClaims) (*models.Event, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid event payload")
	}
	event, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if !canManage(event, actor) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "Only the event creator or an admin can update this event")
	}
	before := *event

	if req.Title != nil {
		event.Title = strings.TrimSpace(*req.Title)
	}
	if req.Description != nil {
		event.Description = strings.TrimSpace(*req.Description)
	}
	if req.Category != nil {
		event.Category = strings.TrimSpace(*req.Category)
	}
	if req.Department != nil {
		event.Department = strings.TrimSpace(*req.Department)
	}
	if req.Venue != nil {
		event.Venue = strings.TrimSpace(*req.Venue)
	}
	if req.Date != nil {
		date, err := time.Parse(eventDateLayout, *req.Date)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid event date")
		}
		event.EventDate = date
	}
	if req.StartTime != nil {
		event.StartTime = *req.StartTime
	}
	if req.EndTime != nil {
		event.EndTime = *req.EndTime
	}
	if err := checkTimeRange(event.StartTime, event.EndTime); err != nil {
		return nil, err
	}
	if req.MaxParticipants != nil {
		if *req.MaxParticipants < event.RegisteredCount {
			return nil, appErrors.Clone(appErrors.ErrValidation, "maxParticipants cannot be below the current registration count")
		}
		event.MaxParticipants = req.MaxParticipants
	}
	if req.Status != nil && *req.Status != event.Status {
		if !event.Status.CanProgressTo(*req.Status) {
			return nil, appErrors.Clone(appErrors.ErrValidation, "invalid status transition")
		}
		event.Status = *req.Status
	}

	if err := s.repo.Update(ctx, event, before.Status); err != nil {
		if errors.Is(err, repository.ErrConditionNotMet) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "Event changed while updating; retry")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update event")
	}
	s.invalidate(ctx)
	s.recordAudit(ctx, actor, models.AuditActionEventUpdate, event.ID, &before, event)
	return event, nil
}

func (s *EventService) invalidate(ctx context.Context) {
	if s.reports != nil {
		s.reports.InvalidateReports(ctx)
	}
}

func (s *EventService) find(ctx context.Context, id string) (*models.Event, error) {
	event, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) || repository.IsInvalidTextRepresentation(err) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "Event not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch event")
	}
	return event, nil
}

func (s *EventService) list(ctx context.Context, filter models.EventFilter) ([]models.Event, *models.Pagination, error) {
	events, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list events")
	}
	page, size := filter.Page, filter.PageSize
	if page < 1 {
		page = 1
	}
	if size <= 0 || size > 100 {
		size = 20
	}
	return events, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

func (s *EventService) recordAudit(ctx context.Context, actor *models.JWTClaims, action, eventID string, before, after *models.Event) {
	if s.audit == nil {
		return
	}
	entry := &models.AuditLog{Action: action, Resource: "event", ResourceID: &eventID}
	if actor != nil {
		entry.UserID = &actor.UserID
	}
	if before != nil {
		entry.OldValues, _ = json.Marshal(before)
	}
	if after != nil {
		entry.NewValues, _ = json.Marshal(after)
	}
	if err := s.audit.CreateAuditLog(ctx, entry); err != nil {
		s.logger.Warn("failed to record audit log", zap.String("action", action), zap.String("event_id", eventID), zap.Error(err))
	}
}

// canManage reports whether actor may edit or inspect the event's private data.
func canManage(event *models.Event, actor *models.JWTClaims) bool {
	if actor == nil {
		return false
	}
	return actor.Role == models.RoleAdmin || event.IsOwnedBy(actor.UserID)
}

func checkTimeRange(start, end string) error {
	if start == "" || end == "" {
		return nil
	}
	// HH:MM compares lexically.
	if end <= start {
		return appErrors.Clone(appErrors.ErrValidation, "endTime must be after startTime")
	}
	return nil
}

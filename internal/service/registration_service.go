package service

import (
	"context"
	"database/sql"
	"errors"

	"go.uber.org/zap"

	"github.com/noah-isme/campus-events-api/internal/models"
	"github.com/noah-isme/campus-events-api/internal/repository"
	appErrors "github.com/noah-isme/campus-events-api/pkg/errors"
)

type registrationRepository interface {
	Register(ctx context.Context, eventID, studentID string) (*models.Registration, error)
	Unregister(ctx context.Context, eventID, studentID string) error
	Exists(ctx context.Context, eventID, studentID string) (bool, error)
	ListByStudent(ctx context.Context, studentID string) ([]models.RegistrationWithEvent, error)
	ListByEvent(ctx context.Context, eventID string) ([]models.EventRegistrant, error)
}

type eventReader interface {
	FindByID(ctx context.Context, id string) (*models.Event, error)
}

// reportInvalidator drops cached report summaries after writes that change them.
type reportInvalidator interface {
	InvalidateReports(ctx context.Context)
}

// RegistrationService manages student sign ups for events.
type RegistrationService struct {
	repo    registrationRepository
	events  eventReader
	reports reportInvalidator
	metrics *MetricsService
	logger  *zap.Logger
}

// NewRegistrationService constructs a RegistrationService.
func NewRegistrationService(repo registrationRepository, events eventReader, reports reportInvalidator, metrics *MetricsService, logger *zap.Logger) *RegistrationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RegistrationService{repo: repo, events: events, reports: reports, metrics: metrics, logger: logger}
}

// Register takes a seat for the student. The capacity check and the seat
// increment happen atomically in the repository; the pre-checks here only
// pick the error message.
func (s *RegistrationService) Register(ctx context.Context, eventID string, actor *models.JWTClaims) (*models.Registration, error) {
	if actor == nil || actor.Role != models.RoleStudent {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "Only students can register for events")
	}
	event, err := findEvent(ctx, s.events, eventID)
	if err != nil {
		return nil, err
	}
	if err := s.checkOpen(event); err != nil {
		return nil, err
	}

	reg, err := s.repo.Register(ctx, eventID, actor.UserID)
	switch {
	case err == nil:
	case errors.Is(err, repository.ErrAlreadyRegistered):
		s.metrics.RecordRegistration(OutcomeDuplicate)
		return nil, appErrors.Clone(appErrors.ErrConflict, "Already registered for this event")
	case errors.Is(err, sql.ErrNoRows):
		return nil, appErrors.Clone(appErrors.ErrNotFound, "Event not found")
	case errors.Is(err, repository.ErrNoCapacity):
		// Lost a race; re-read to report why.
		latest, findErr := findEvent(ctx, s.events, eventID)
		if findErr != nil {
			return nil, findErr
		}
		if openErr := s.checkOpen(latest); openErr != nil {
			return nil, openErr
		}
		s.metrics.RecordRegistration(OutcomeFull)
		return nil, appErrors.Clone(appErrors.ErrConflict, "Event is full")
	default:
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to register for event")
	}

	s.metrics.RecordRegistration(OutcomeRegistered)
	s.invalidate(ctx)
	s.logger.Info("event registration created", zap.String("event_id", eventID), zap.String("student_id", actor.UserID))
	return reg, nil
}

func (s *RegistrationService) checkOpen(event *models.Event) error {
	if !event.Status.Registerable() {
		s.metrics.RecordRegistration(OutcomeClosed)
		return appErrors.Clone(appErrors.ErrValidation, "Event is not open for registration")
	}
	if event.IsFull() {
		s.metrics.RecordRegistration(OutcomeFull)
		return appErrors.Clone(appErrors.ErrConflict, "Event is full")
	}
	return nil
}

// Unregister releases the student's seat.
func (s *RegistrationService) Unregister(ctx context.Context, eventID string, actor *models.JWTClaims) error {
	if actor == nil || actor.Role != models.RoleStudent {
		return appErrors.Clone(appErrors.ErrForbidden, "Only students can unregister from events")
	}
	if err := s.repo.Unregister(ctx, eventID, actor.UserID); err != nil {
		if errors.Is(err, sql.ErrNoRows) || repository.IsInvalidTextRepresentation(err) {
			return appErrors.Clone(appErrors.ErrNotFound, "Registration not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to unregister from event")
	}
	s.metrics.RecordRegistration(OutcomeUnregistered)
	s.invalidate(ctx)
	return nil
}

// Status reports whether the caller is registered for the event.
func (s *RegistrationService) Status(ctx context.Context, eventID string, actor *models.JWTClaims) (*models.RegistrationStatus, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	ok, err := s.repo.Exists(ctx, eventID, actor.UserID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check registration")
	}
	return &models.RegistrationStatus{EventID: eventID, Registered: ok}, nil
}

// Mine lists the caller's registrations.
func (s *RegistrationService) Mine(ctx context.Context, actor *models.JWTClaims) ([]models.RegistrationWithEvent, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	rows, err := s.repo.ListByStudent(ctx, actor.UserID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list registrations")
	}
	return rows, nil
}

// EventRegistrations lists registrants. Admins, faculty and the event creator may view them.
func (s *RegistrationService) EventRegistrations(ctx context.Context, eventID string, actor *models.JWTClaims) ([]models.EventRegistrant, error) {
	event, err := findEvent(ctx, s.events, eventID)
	if err != nil {
		return nil, err
	}
	if !canViewRoster(event, actor) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "Not allowed to view registrations for this event")
	}
	rows, err := s.repo.ListByEvent(ctx, eventID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list registrations")
	}
	return rows, nil
}

func (s *RegistrationService) invalidate(ctx context.Context) {
	if s.reports != nil {
		s.reports.InvalidateReports(ctx)
	}
}

func findEvent(ctx context.Context, events eventReader, id string) (*models.Event, error) {
	event, err := events.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) || repository.IsInvalidTextRepresentation(err) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "Event not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch event")
	}
	return event, nil
}

// canViewRoster covers admins, faculty and the event creator.
func canViewRoster(event *models.Event, actor *models.JWTClaims) bool {
	if actor == nil {
		return false
	}
	return actor.Role == models.RoleFaculty || canManage(event, actor)
}

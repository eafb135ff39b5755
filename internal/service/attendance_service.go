package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/campus-events-api/internal/models"
	appErrors "github.com/noah-isme/campus-events-api/pkg/errors"
)

type attendanceRepository interface {
	MarkBatch(ctx context.Context, eventID, markedBy string, marks []models.AttendanceMark) (int, error)
	Find(ctx context.Context, eventID, studentID string) (*models.Attendance, error)
	Roster(ctx context.Context, eventID string) ([]models.AttendanceRosterEntry, error)
	ListByStudent(ctx context.Context, studentID string) ([]models.MyAttendanceEntry, error)
}

type registrationLookup interface {
	RegisteredAmong(ctx context.Context, eventID string, studentIDs []string) (map[string]struct{}, error)
}

// AttendanceServiceParams groups AttendanceService dependencies.
type AttendanceServiceParams struct {
	Repo          attendanceRepository
	Registrations registrationLookup
	Events        eventReader
	Reports       reportInvalidator
	Audit         auditWriter
	Metrics       *MetricsService
	Validator     *validator.Validate
	Logger        *zap.Logger
}

// AttendanceService records and lists event attendance.
type AttendanceService struct {
	repo          attendanceRepository
	registrations registrationLookup
	events        eventReader
	reports       reportInvalidator
	audit         auditWriter
	metrics       *MetricsService
	validator     *validator.Validate
	logger        *zap.Logger
}

// NewAttendanceService constructs an AttendanceService.
func NewAttendanceService(params AttendanceServiceParams) *AttendanceService {
	if params.Logger == nil {
		params.Logger = zap.NewNop()
	}
	if params.Validator == nil {
		params.Validator = validator.New()
	}
	return &AttendanceService{
		repo:          params.Repo,
		registrations: params.Registrations,
		events:        params.Events,
		reports:       params.Reports,
		audit:         params.Audit,
		metrics:       params.Metrics,
		validator:     params.Validator,
		logger:        params.Logger,
	}
}

// Mark writes a batch of attendance marks. Students without a registration
// are skipped; an invalid status rejects the whole batch before any write.
func (s *AttendanceService) Mark(ctx context.Context, eventID string, req models.MarkAttendanceRequest, actor *models.JWTClaims) (*models.MarkAttendanceResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid attendance payload")
	}
	marks, err := normaliseMarks(req.Attendance)
	if err != nil {
		return nil, err
	}

	event, err := findEvent(ctx, s.events, eventID)
	if err != nil {
		return nil, err
	}
	if !canManage(event, actor) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "Only the event creator or an admin can mark attendance")
	}

	ids := make([]string, len(marks))
	for i, m := range marks {
		ids[i] = m.StudentID
	}
	registered, err := s.registrations.RegisteredAmong(ctx, eventID, ids)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check registrations")
	}
	eligible := make([]models.AttendanceMark, 0, len(marks))
	for _, m := range marks {
		if _, ok := registered[m.StudentID]; ok {
			eligible = append(eligible, m)
		}
	}

	marked, err := s.repo.MarkBatch(ctx, eventID, actor.UserID, eligible)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to mark attendance")
	}
	result := &models.MarkAttendanceResult{Marked: marked, Skipped: len(marks) - len(eligible)}

	s.metrics.RecordAttendance(result.Marked, result.Skipped)
	if marked > 0 && s.reports != nil {
		s.reports.InvalidateReports(ctx)
	}
	s.recordAudit(ctx, actor, eventID, result)
	return result, nil
}

// Roster lists every registered student with their mark or Not Marked.
func (s *AttendanceService) Roster(ctx context.Context, eventID string, actor *models.JWTClaims) ([]models.AttendanceRosterEntry, error) {
	event, err := findEvent(ctx, s.events, eventID)
	if err != nil {
		return nil, err
	}
	if !canViewRoster(event, actor) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "Not allowed to view attendance for this event")
	}
	rows, err := s.repo.Roster(ctx, eventID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load attendance")
	}
	return rows, nil
}

// Mine lists the caller's own attendance records.
func (s *AttendanceService) Mine(ctx context.Context, actor *models.JWTClaims) ([]models.MyAttendanceEntry, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	rows, err := s.repo.ListByStudent(ctx, actor.UserID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load attendance")
	}
	return rows, nil
}

// Find returns a single attendance record or nil when none exists.
func (s *AttendanceService) Find(ctx context.Context, eventID, studentID string) (*models.Attendance, error) {
	att, err := s.repo.Find(ctx, eventID, studentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load attendance")
	}
	return att, nil
}

func (s *AttendanceService) recordAudit(ctx context.Context, actor *models.JWTClaims, eventID string, result *models.MarkAttendanceResult) {
	if s.audit == nil {
		return
	}
	payload, _ := json.Marshal(result)
	if err := s.audit.CreateAuditLog(ctx, &models.AuditLog{
		UserID:     &actor.UserID,
		Action:     models.AuditActionAttendanceMark,
		Resource:   "event",
		ResourceID: &eventID,
		NewValues:  payload,
	}); err != nil {
		s.logger.Warn("failed to record audit log", zap.String("action", models.AuditActionAttendanceMark), zap.Error(err))
	}
}

// normaliseMarks defaults empty statuses to Present and keeps the last mark
// for each student, preserving first-seen order.
func normaliseMarks(in []models.AttendanceMark) ([]models.AttendanceMark, error) {
	index := make(map[string]int, len(in))
	out := make([]models.AttendanceMark, 0, len(in))
	for _, m := range in {
		m.StudentID = strings.TrimSpace(m.StudentID)
		if m.StudentID == "" {
			return nil, appErrors.Clone(appErrors.ErrValidation, "studentId is required")
		}
		if m.Status == "" {
			m.Status = models.AttendanceStatusPresent
		}
		if !m.Status.Valid() {
			return nil, appErrors.Clone(appErrors.ErrValidation, "Invalid attendance status: "+string(m.Status))
		}
		if i, ok := index[m.StudentID]; ok {
			out[i] = m
			continue
		}
		index[m.StudentID] = len(out)
		out = append(out, m)
	}
	return out, nil
}

package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/campus-events-api/internal/models"
	"github.com/noah-isme/campus-events-api/pkg/export"
	appErrors "github.com/noah-isme/campus-events-api/pkg/errors"
)

const certificateDateLayout = "January 2, 2006"

type certificateSigner interface {
	Generate(studentID, eventID string, issuedAt time.Time) (string, error)
	Parse(code string) (studentID, eventID string, issuedAt time.Time, err error)
}

type certificateRenderer interface {
	Render(data export.CertificateData) ([]byte, error)
}

type registrationChecker interface {
	Exists(ctx context.Context, eventID, studentID string) (bool, error)
}

type attendanceFinder interface {
	Find(ctx context.Context, eventID, studentID string) (*models.Attendance, error)
}

type userFinder interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
}

// CertificateServiceParams groups CertificateService dependencies.
type CertificateServiceParams struct {
	Events        eventReader
	Users         userFinder
	Registrations registrationChecker
	Attendance    attendanceFinder
	Signer        certificateSigner
	Renderer      certificateRenderer
	Metrics       *MetricsService
	Logger        *zap.Logger
	Issuer        string
}

// CertificateService decides eligibility and issues participation certificates.
type CertificateService struct {
	events        eventReader
	users         userFinder
	registrations registrationChecker
	attendance    attendanceFinder
	signer        certificateSigner
	renderer      certificateRenderer
	metrics       *MetricsService
	logger        *zap.Logger
	issuer        string
	now           func() time.Time
}

// NewCertificateService constructs a CertificateService.
func NewCertificateService(params CertificateServiceParams) *CertificateService {
	if params.Logger == nil {
		params.Logger = zap.NewNop()
	}
	if params.Renderer == nil {
		params.Renderer = export.NewCertificateRenderer()
	}
	return &CertificateService{
		events:        params.Events,
		users:         params.Users,
		registrations: params.Registrations,
		attendance:    params.Attendance,
		signer:        params.Signer,
		renderer:      params.Renderer,
		metrics:       params.Metrics,
		logger:        params.Logger,
		issuer:        params.Issuer,
		now:           time.Now,
	}
}

// evaluateEligibility applies the certificate rule: registered, attendance
// recorded, and marked Present.
func evaluateEligibility(registered bool, att *models.Attendance) models.CertificateEligibility {
	switch {
	case !registered:
		return models.CertificateEligibility{Reason: models.ReasonNotRegistered}
	case att == nil:
		return models.CertificateEligibility{Reason: models.ReasonNoAttendance}
	case att.Status != models.AttendanceStatusPresent:
		return models.CertificateEligibility{Reason: models.ReasonAbsent}
	default:
		return models.CertificateEligibility{Eligible: true, Reason: models.ReasonEligible}
	}
}

// Eligibility reports whether studentID may receive a certificate for eventID.
func (s *CertificateService) Eligibility(ctx context.Context, eventID, studentID string) (*models.CertificateEligibility, error) {
	if _, err := findEvent(ctx, s.events, eventID); err != nil {
		return nil, err
	}
	registered, err := s.registrations.Exists(ctx, eventID, studentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check registration")
	}
	var att *models.Attendance
	if registered {
		att, err = s.attendance.Find(ctx, eventID, studentID)
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check attendance")
		}
	}
	result := evaluateEligibility(registered, att)
	return &result, nil
}

// Generate renders a certificate PDF for an eligible student.
func (s *CertificateService) Generate(ctx context.Context, eventID string, actor *models.JWTClaims) (*models.ExportFile, error) {
	if actor == nil || actor.Role != models.RoleStudent {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "Only students can download certificates")
	}
	eligibility, err := s.Eligibility(ctx, eventID, actor.UserID)
	if err != nil {
		return nil, err
	}
	if !eligibility.Eligible {
		s.metrics.RecordCertificate(false)
		return nil, appErrors.Clone(appErrors.ErrNotEligible, eligibility.Reason)
	}

	event, err := findEvent(ctx, s.events, eventID)
	if err != nil {
		return nil, err
	}
	student, err := s.users.FindByID(ctx, actor.UserID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "User not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch user")
	}

	issuedAt := s.now().UTC()
	code, err := s.signer.Generate(student.ID, event.ID, issuedAt)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sign certificate")
	}
	payload, err := s.renderer.Render(export.CertificateData{
		StudentName:      student.Name,
		EventTitle:       event.Title,
		EventDate:        event.EventDate.Format(certificateDateLayout),
		Venue:            event.Venue,
		IssuedOn:         issuedAt.Format(certificateDateLayout),
		Issuer:           s.issuer,
		VerificationCode: code,
	})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render certificate")
	}

	s.metrics.RecordCertificate(true)
	s.logger.Info("certificate issued", zap.String("event_id", event.ID), zap.String("student_id", student.ID))
	return &models.ExportFile{
		Title:       "Certificate " + event.Title,
		Extension:   "pdf",
		ContentType: "application/pdf",
		Payload:     payload,
	}, nil
}

// Verify checks a printed verification code. The student must still be
// eligible, so a later change to Absent invalidates earlier certificates.
func (s *CertificateService) Verify(ctx context.Context, code string) (*models.CertificateVerification, error) {
	studentID, eventID, issuedAt, err := s.signer.Parse(code)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrNotFound.Code, appErrors.ErrNotFound.Status, "Certificate not found")
	}
	eligibility, err := s.Eligibility(ctx, eventID, studentID)
	if err != nil {
		return nil, err
	}
	if !eligibility.Eligible {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "Certificate not found")
	}
	event, err := findEvent(ctx, s.events, eventID)
	if err != nil {
		return nil, err
	}
	result := &models.CertificateVerification{
		Valid:      true,
		StudentID:  studentID,
		EventID:    eventID,
		EventTitle: event.Title,
		IssuedAt:   issuedAt,
	}
	if student, err := s.users.FindByID(ctx, studentID); err == nil {
		result.StudentName = student.Name
	}
	return result, nil
}

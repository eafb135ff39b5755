package handler

import (
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/campus-events-api/internal/dto"
	"github.com/noah-isme/campus-events-api/internal/middleware"
	"github.com/noah-isme/campus-events-api/internal/models"
	appErrors "github.com/noah-isme/campus-events-api/pkg/errors"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type responseEnvelope struct {
	Data       json.RawMessage        `json:"data"`
	Error      *appErrors.Error       `json:"error"`
	Pagination *models.Pagination     `json:"pagination"`
	Meta       map[string]interface{} `json:"meta"`
}

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) responseEnvelope {
	t.Helper()
	var env responseEnvelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	return env
}

func newGinContext(method, target string, body io.Reader, claims *models.JWTClaims, params ...gin.Param) (*gin.Context, *httptest.ResponseRecorder) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(method, target, body)
	if body != nil {
		c.Request.Header.Set("Content-Type", "application/json")
	}
	if claims != nil {
		c.Set(middleware.ContextUserKey, claims)
	}
	c.Params = params
	return c, w
}

// eventUUID is a well-formed event id for routes guarded by eventIDParam.
const eventUUID = "5f0c6d1e-8a2b-4c3d-9e4f-0a1b2c3d4e5f"

func idParam(id string) gin.Param {
	return gin.Param{Key: "id", Value: id}
}

type stubTokens map[string]*models.JWTClaims

func (s stubTokens) ValidateToken(token string) (*models.JWTClaims, error) {
	if claims, ok := s[token]; ok {
		return claims, nil
	}
	return nil, appErrors.Clone(appErrors.ErrUnauthorized, "Invalid token")
}

type fakeAuthService struct {
	lastLogin models.LoginRequest
	err       error
}

func (f *fakeAuthService) Register(ctx context.Context, req models.RegisterRequest) (*models.LoginResponse, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &models.LoginResponse{AccessToken: "token", User: models.UserInfo{Email: req.Email, Role: req.Role}}, nil
}

func (f *fakeAuthService) Login(ctx context.Context, req models.LoginRequest) (*models.LoginResponse, error) {
	f.lastLogin = req
	if f.err != nil {
		return nil, f.err
	}
	return &models.LoginResponse{AccessToken: "token"}, nil
}

type fakeUserService struct {
	user       *models.User
	lastFilter models.UserFilter
	uploaded   string
}

func (f *fakeUserService) GetProfile(ctx context.Context, id string) (*models.User, error) {
	if f.user == nil || f.user.ID != id {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "User not found")
	}
	return f.user, nil
}

func (f *fakeUserService) List(ctx context.Context, filter models.UserFilter) ([]models.User, *models.Pagination, error) {
	f.lastFilter = filter
	return []models.User{}, &models.Pagination{Page: 1, PageSize: 20}, nil
}

func (f *fakeUserService) UpdateProfile(ctx context.Context, id string, req models.ProfileUpdateRequest) (*models.User, error) {
	return f.GetProfile(ctx, id)
}

func (f *fakeUserService) UploadProfileImage(ctx context.Context, id, filename string, size int64, content io.Reader) (*models.User, error) {
	f.uploaded = filename
	return f.GetProfile(ctx, id)
}

type fakeEventService struct {
	event      *models.Event
	err        error
	lastCreate dto.CreateEventRequest
	lastQuery  dto.EventListQuery
	lastActor  *models.JWTClaims
	calls      int
}

func (f *fakeEventService) result(actor *models.JWTClaims) (*models.Event, error) {
	f.calls++
	f.lastActor = actor
	if f.err != nil {
		return nil, f.err
	}
	return f.event, nil
}

func (f *fakeEventService) Create(ctx context.Context, req dto.CreateEventRequest, actor *models.JWTClaims) (*models.Event, error) {
	f.lastCreate = req
	return f.result(actor)
}

func (f *fakeEventService) Get(ctx context.Context, id string, actor *models.JWTClaims) (*models.Event, error) {
	return f.result(actor)
}

func (f *fakeEventService) List(ctx context.Context, query dto.EventListQuery) ([]models.Event, *models.Pagination, error) {
	f.lastQuery = query
	return []models.Event{}, &models.Pagination{Page: 1, PageSize: 20}, f.err
}

func (f *fakeEventService) ListMine(ctx context.Context, query dto.EventListQuery, actor *models.JWTClaims) ([]models.Event, *models.Pagination, error) {
	f.lastActor = actor
	return f.List(ctx, query)
}

func (f *fakeEventService) ListPending(ctx context.Context, query dto.EventListQuery) ([]models.Event, *models.Pagination, error) {
	return f.List(ctx, query)
}

func (f *fakeEventService) Approve(ctx context.Context, id string, actor *models.JWTClaims) (*models.Event, error) {
	return f.result(actor)
}

func (f *fakeEventService) Reject(ctx context.Context, id string, actor *models.JWTClaims) (*models.Event, error) {
	return f.result(actor)
}

func (f *fakeEventService) Update(ctx context.Context, id string, req dto.UpdateEventRequest, actor *models.JWTClaims) (*models.Event, error) {
	return f.result(actor)
}

type fakeRegistrationService struct {
	err error
}

func (f *fakeRegistrationService) Register(ctx context.Context, eventID string, actor *models.JWTClaims) (*models.Registration, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &models.Registration{ID: "reg-1", EventID: eventID, StudentID: actor.UserID}, nil
}

func (f *fakeRegistrationService) Unregister(ctx context.Context, eventID string, actor *models.JWTClaims) error {
	return f.err
}

func (f *fakeRegistrationService) Status(ctx context.Context, eventID string, actor *models.JWTClaims) (*models.RegistrationStatus, error) {
	return &models.RegistrationStatus{EventID: eventID, Registered: true}, f.err
}

func (f *fakeRegistrationService) Mine(ctx context.Context, actor *models.JWTClaims) ([]models.RegistrationWithEvent, error) {
	return []models.RegistrationWithEvent{}, f.err
}

func (f *fakeRegistrationService) EventRegistrations(ctx context.Context, eventID string, actor *models.JWTClaims) ([]models.EventRegistrant, error) {
	return []models.EventRegistrant{}, f.err
}

type fakeAttendanceService struct {
	lastMarks models.MarkAttendanceRequest
}

func (f *fakeAttendanceService) Mark(ctx context.Context, eventID string, req models.MarkAttendanceRequest, actor *models.JWTClaims) (*models.MarkAttendanceResult, error) {
	f.lastMarks = req
	return &models.MarkAttendanceResult{Marked: len(req.Attendance)}, nil
}

func (f *fakeAttendanceService) Roster(ctx context.Context, eventID string, actor *models.JWTClaims) ([]models.AttendanceRosterEntry, error) {
	return []models.AttendanceRosterEntry{{StudentID: "s1", Status: models.AttendanceStatusNotMarked}}, nil
}

func (f *fakeAttendanceService) Mine(ctx context.Context, actor *models.JWTClaims) ([]models.MyAttendanceEntry, error) {
	return []models.MyAttendanceEntry{}, nil
}

type fakeCertificateService struct {
	file          *models.ExportFile
	err           error
	lastStudentID string
}

func (f *fakeCertificateService) Eligibility(ctx context.Context, eventID, studentID string) (*models.CertificateEligibility, error) {
	f.lastStudentID = studentID
	return &models.CertificateEligibility{Eligible: true, Reason: models.ReasonEligible}, nil
}

func (f *fakeCertificateService) Generate(ctx context.Context, eventID string, actor *models.JWTClaims) (*models.ExportFile, error) {
	return f.file, f.err
}

func (f *fakeCertificateService) Verify(ctx context.Context, code string) (*models.CertificateVerification, error) {
	if code != "valid" {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "Certificate not found")
	}
	return &models.CertificateVerification{Valid: true, EventTitle: "Hackathon"}, nil
}

type fakeReportService struct {
	hit bool
}

func (f *fakeReportService) Participation(ctx context.Context, actor *models.JWTClaims) ([]models.ParticipationRow, bool, error) {
	return []models.ParticipationRow{{EventID: "e1", Label: "Hackathon", Value: 3}}, f.hit, nil
}

func (f *fakeReportService) Attendance(ctx context.Context, actor *models.JWTClaims) ([]models.AttendanceRow, bool, error) {
	return []models.AttendanceRow{}, f.hit, nil
}

func (f *fakeReportService) Department(ctx context.Context, actor *models.JWTClaims) ([]models.DepartmentRow, bool, error) {
	return []models.DepartmentRow{}, f.hit, nil
}

type fakeExportService struct {
	lastType, lastFormat string
}

func (f *fakeExportService) Export(ctx context.Context, reportType, format string, actor *models.JWTClaims) (*models.ExportFile, error) {
	f.lastType, f.lastFormat = reportType, format
	if format != "csv" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "Invalid export format")
	}
	return &models.ExportFile{Title: "Event Participation Report", Extension: "csv", ContentType: "text/csv", Payload: []byte("Event,Registrations\n")}, nil
}

type fakeDashboardService struct{}

func (fakeDashboardService) Admin(ctx context.Context) (*models.AdminDashboard, error) {
	return &models.AdminDashboard{TotalEvents: 4}, nil
}

func (fakeDashboardService) Coordinator(ctx context.Context, actor *models.JWTClaims) (*models.CoordinatorDashboard, error) {
	return &models.CoordinatorDashboard{}, nil
}

func (fakeDashboardService) Student(ctx context.Context, actor *models.JWTClaims) (*models.StudentDashboard, error) {
	return &models.StudentDashboard{TotalRegistrations: 2}, nil
}

package service

import (
	"context"
	"fmt"
	"math"

	"go.uber.org/zap"

	"github.com/noah-isme/campus-events-api/internal/models"
	appErrors "github.com/noah-isme/campus-events-api/pkg/errors"
)

type reportRepository interface {
	Participation(ctx context.Context, scope models.ReportScope) ([]models.ParticipationRow, error)
	Attendance(ctx context.Context, scope models.ReportScope) ([]models.AttendanceRow, error)
	Department(ctx context.Context, scope models.ReportScope) ([]models.DepartmentRow, error)
}

// ReportService aggregates participation statistics. Summaries are served
// from cache when available; every method reports whether it hit the cache.
type ReportService struct {
	repo   reportRepository
	cache  *CacheService
	logger *zap.Logger
}

// NewReportService constructs a ReportService. cache may be nil.
func NewReportService(repo reportRepository, cache *CacheService, logger *zap.Logger) *ReportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReportService{repo: repo, cache: cache, logger: logger}
}

// ScopeFor limits non-admin callers to the events they created.
func ScopeFor(actor *models.JWTClaims) models.ReportScope {
	if actor == nil || actor.Role == models.RoleAdmin {
		return models.ReportScope{}
	}
	return models.ReportScope{CreatedBy: actor.UserID}
}

func reportCacheKey(kind models.ReportType, scope models.ReportScope) string {
	return fmt.Sprintf("reports:%s:%s", kind, scope.Key())
}

// Participation returns registrations per event, most popular first.
func (s *ReportService) Participation(ctx context.Context, actor *models.JWTClaims) ([]models.ParticipationRow, bool, error) {
	scope := ScopeFor(actor)
	rows, hit, err := cachedLoad(ctx, s.cache, reportCacheKey(models.ReportTypeParticipation, scope), func(ctx context.Context) ([]models.ParticipationRow, error) {
		return s.repo.Participation(ctx, scope)
	})
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to build participation report")
	}
	return rows, hit, nil
}

// Attendance returns registered and present counts with a rounded percentage per event.
func (s *ReportService) Attendance(ctx context.Context, actor *models.JWTClaims) ([]models.AttendanceRow, bool, error) {
	scope := ScopeFor(actor)
	rows, hit, err := cachedLoad(ctx, s.cache, reportCacheKey(models.ReportTypeAttendance, scope), func(ctx context.Context) ([]models.AttendanceRow, error) {
		rows, err := s.repo.Attendance(ctx, scope)
		if err != nil {
			return nil, err
		}
		for i := range rows {
			rows[i].Percentage = attendancePercentage(rows[i].Present, rows[i].Registered)
		}
		return rows, nil
	})
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to build attendance report")
	}
	return rows, hit, nil
}

// Department returns registrations grouped by student department.
func (s *ReportService) Department(ctx context.Context, actor *models.JWTClaims) ([]models.DepartmentRow, bool, error) {
	scope := ScopeFor(actor)
	rows, hit, err := cachedLoad(ctx, s.cache, reportCacheKey(models.ReportTypeDepartment, scope), func(ctx context.Context) ([]models.DepartmentRow, error) {
		return s.repo.Department(ctx, scope)
	})
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to build department report")
	}
	return rows, hit, nil
}

// attendancePercentage rounds half away from zero and is 0 for events without registrations.
func attendancePercentage(present, registered int) int {
	if registered <= 0 {
		return 0
	}
	return int(math.Round(float64(present) * 100 / float64(registered)))
}

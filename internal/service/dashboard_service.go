package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/noah-isme/campus-events-api/internal/models"
	appErrors "github.com/noah-isme/campus-events-api/pkg/errors"
)

const recentEventsLimit = 5

type dashboardRepository interface {
	AdminTotals(ctx context.Context) (*models.AdminDashboard, error)
	RecentEvents(ctx context.Context, limit int) ([]models.Event, error)
	CoordinatorEvents(ctx context.Context, createdBy string) ([]models.CoordinatorEvent, error)
	StudentCounts(ctx context.Context, studentID string) (int, models.AttendanceSummary, error)
}

type studentRegistrations interface {
	ListByStudent(ctx context.Context, studentID string) ([]models.RegistrationWithEvent, error)
}

// DashboardServiceParams groups dependencies for the dashboard service.
type DashboardServiceParams struct {
	Repo          dashboardRepository
	Registrations studentRegistrations
	Logger        *zap.Logger
}

// DashboardService builds per-role landing page summaries.
type DashboardService struct {
	repo          dashboardRepository
	registrations studentRegistrations
	logger        *zap.Logger
}

// NewDashboardService constructs a DashboardService.
func NewDashboardService(params DashboardServiceParams) *DashboardService {
	if params.Logger == nil {
		params.Logger = zap.NewNop()
	}
	return &DashboardService{repo: params.Repo, registrations: params.Registrations, logger: params.Logger}
}

// Admin returns campus wide totals and the most recent events.
func (s *DashboardService) Admin(ctx context.Context) (*models.AdminDashboard, error) {
	totals, err := s.repo.AdminTotals(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load dashboard totals")
	}
	recent, err := s.repo.RecentEvents(ctx, recentEventsLimit)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load recent events")
	}
	totals.RecentEvents = recent
	return totals, nil
}

// Coordinator lists the caller's events with attendance progress.
func (s *DashboardService) Coordinator(ctx context.Context, actor *models.JWTClaims) (*models.CoordinatorDashboard, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	events, err := s.repo.CoordinatorEvents(ctx, actor.UserID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load coordinator events")
	}
	return &models.CoordinatorDashboard{MyEvents: events}, nil
}

// Student summarises the caller's registrations and attendance.
func (s *DashboardService) Student(ctx context.Context, actor *models.JWTClaims) (*models.StudentDashboard, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	total, summary, err := s.repo.StudentCounts(ctx, actor.UserID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student totals")
	}
	regs, err := s.registrations.ListByStudent(ctx, actor.UserID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load registrations")
	}
	upcoming := make([]models.RegistrationWithEvent, 0, len(regs))
	for _, r := range regs {
		if r.EventStatus == models.EventStatusUpcoming {
			upcoming = append(upcoming, r)
		}
	}
	return &models.StudentDashboard{
		TotalRegistrations: total,
		UpcomingEvents:     upcoming,
		AttendanceSummary:  summary,
	}, nil
}

package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/campus-events-api/internal/models"
)

type mockDashboardRepo struct {
	totals      *models.AdminDashboard
	recentLimit int
	err         error
}

func (m *mockDashboardRepo) AdminTotals(ctx context.Context) (*models.AdminDashboard, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.totals, nil
}

func (m *mockDashboardRepo) RecentEvents(ctx context.Context, limit int) ([]models.Event, error) {
	m.recentLimit = limit
	return []models.Event{{ID: "e1"}}, nil
}

func (m *mockDashboardRepo) CoordinatorEvents(ctx context.Context, createdBy string) ([]models.CoordinatorEvent, error) {
	return []models.CoordinatorEvent{{Event: models.Event{ID: "e1", CreatedBy: createdBy}, AttendanceMarked: true}}, nil
}

func (m *mockDashboardRepo) StudentCounts(ctx context.Context, studentID string) (int, models.AttendanceSummary, error) {
	return 3, models.AttendanceSummary{Present: 2, Absent: 1}, nil
}

type stubStudentRegistrations []models.RegistrationWithEvent

func (s stubStudentRegistrations) ListByStudent(ctx context.Context, studentID string) ([]models.RegistrationWithEvent, error) {
	return s, nil
}

func TestDashboardServiceAdmin(t *testing.T) {
	repo := &mockDashboardRepo{totals: &models.AdminDashboard{TotalEvents: 9, TotalStudents: 40}}
	svc := NewDashboardService(DashboardServiceParams{Repo: repo})

	got, err := svc.Admin(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 9, got.TotalEvents)
	assert.Len(t, got.RecentEvents, 1)
	assert.Equal(t, 5, repo.recentLimit)

	repo.err = errors.New("db down")
	_, err = svc.Admin(context.Background())
	assert.Error(t, err)
}

func TestDashboardServiceStudentKeepsUpcomingOnly(t *testing.T) {
	regs := stubStudentRegistrations{
		{EventTitle: "Hackathon", EventStatus: models.EventStatusUpcoming},
		{EventTitle: "Seminar", EventStatus: models.EventStatusCompleted},
	}
	svc := NewDashboardService(DashboardServiceParams{Repo: &mockDashboardRepo{}, Registrations: regs})

	got, err := svc.Student(context.Background(), claimsFor("s1", models.RoleStudent))
	require.NoError(t, err)
	assert.Equal(t, 3, got.TotalRegistrations)
	require.Len(t, got.UpcomingEvents, 1)
	assert.Equal(t, "Hackathon", got.UpcomingEvents[0].EventTitle)
	assert.Equal(t, models.AttendanceSummary{Present: 2, Absent: 1}, got.AttendanceSummary)
}

func TestDashboardServiceCoordinator(t *testing.T) {
	svc := NewDashboardService(DashboardServiceParams{Repo: &mockDashboardRepo{}})

	got, err := svc.Coordinator(context.Background(), claimsFor("c1", models.RoleCoordinator))
	require.NoError(t, err)
	require.Len(t, got.MyEvents, 1)
	assert.Equal(t, "c1", got.MyEvents[0].CreatedBy)
	assert.True(t, got.MyEvents[0].AttendanceMarked)
}

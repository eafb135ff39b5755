package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/campus-events-api/internal/dto"
	"github.com/noah-isme/campus-events-api/internal/models"
	"github.com/noah-isme/campus-events-api/internal/repository"
	appErrors "github.com/noah-isme/campus-events-api/pkg/errors"
)

type mockEventRepo struct {
	events        map[string]*models.Event
	created       *models.Event
	updated       *models.Event
	lastFilter    models.EventFilter
	transitionErr error
	updateErr     error
	previous      models.EventStatus
	findErr       error
	transitions   int
}

func newMockEventRepo(events ...*models.Event) *mockEventRepo {
	repo := &mockEventRepo{events: map[string]*models.Event{}}
	for _, e := range events {
		repo.events[e.ID] = e
	}
	return repo
}

func (m *mockEventRepo) Create(ctx context.Context, event *models.Event) error {
	event.ID = "event-new"
	m.created = event
	m.events[event.ID] = event
	return nil
}

func (m *mockEventRepo) FindByID(ctx context.Context, id string) (*models.Event, error) {
	if m.findErr != nil {
		return nil, m.findErr
	}
	e, ok := m.events[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	clone := *e
	return &clone, nil
}

func (m *mockEventRepo) List(ctx context.Context, filter models.EventFilter) ([]models.Event, int, error) {
	m.lastFilter = filter
	return []models.Event{}, 0, nil
}

func (m *mockEventRepo) Update(ctx context.Context, event *models.Event, previous models.EventStatus) error {
	if m.updateErr != nil {
		return m.updateErr
	}
	m.updated = event
	m.previous = previous
	return nil
}

func (m *mockEventRepo) TransitionStatus(ctx context.Context, id string, from, to models.EventStatus) error {
	if m.transitionErr != nil {
		return m.transitionErr
	}
	m.transitions++
	m.events[id].Status = to
	return nil
}

func claimsFor(id string, role models.UserRole) *models.JWTClaims {
	return &models.JWTClaims{UserID: id, Role: role}
}

func intPtr(v int) *int { return &v }

func TestEventServiceCreateStatusByRole(t *testing.T) {
	cases := map[models.UserRole]models.EventStatus{
		models.RoleStudent:     models.EventStatusPending,
		models.RoleFaculty:     models.EventStatusUpcoming,
		models.RoleCoordinator: models.EventStatusUpcoming,
		models.RoleAdmin:       models.EventStatusUpcoming,
	}
	for role, want := range cases {
		repo := newMockEventRepo()
		svc := NewEventService(repo, &auditRecorder{}, nil, nil, zap.NewNop())

		event, err := svc.Create(context.Background(), dto.CreateEventRequest{
			Title:           " Hackathon ",
			Date:            "2026-11-20",
			StartTime:       "09:00",
			EndTime:         "17:00",
			MaxParticipants: intPtr(30),
		}, claimsFor("u1", role))
		require.NoError(t, err, role)
		assert.Equal(t, want, event.Status, role)
		assert.Equal(t, "Hackathon", event.Title)
		assert.Equal(t, "u1", event.CreatedBy)
		assert.Equal(t, 0, event.RegisteredCount)
	}
}

func TestEventServiceCreateValidation(t *testing.T) {
	svc := NewEventService(newMockEventRepo(), nil, nil, nil, nil)
	actor := claimsFor("u1", models.RoleFaculty)

	_, err := svc.Create(context.Background(), dto.CreateEventRequest{Date: "2026-11-20"}, actor)
	assert.True(t, errors.Is(err, appErrors.ErrValidation))

	_, err = svc.Create(context.Background(), dto.CreateEventRequest{Title: "Talk", Date: "20-11-2026"}, actor)
	assert.True(t, errors.Is(err, appErrors.ErrValidation))

	_, err = svc.Create(context.Background(), dto.CreateEventRequest{Title: "Talk", Date: "2026-11-20", MaxParticipants: intPtr(0)}, actor)
	assert.True(t, errors.Is(err, appErrors.ErrValidation))

	_, err = svc.Create(context.Background(), dto.CreateEventRequest{Title: "Talk", Date: "2026-11-20", StartTime: "10:00", EndTime: "09:00"}, actor)
	assert.True(t, errors.Is(err, appErrors.ErrValidation))
}

func TestEventServiceGetHidesModerationStates(t *testing.T) {
	repo := newMockEventRepo(&models.Event{ID: "e1", Status: models.EventStatusPending, CreatedBy: "owner"})
	svc := NewEventService(repo, nil, nil, nil, nil)

	_, err := svc.Get(context.Background(), "e1", nil)
	assert.True(t, errors.Is(err, appErrors.ErrNotFound))
	_, err = svc.Get(context.Background(), "e1", claimsFor("other", models.RoleFaculty))
	assert.True(t, errors.Is(err, appErrors.ErrNotFound))

	event, err := svc.Get(context.Background(), "e1", claimsFor("owner", models.RoleStudent))
	require.NoError(t, err)
	assert.Equal(t, "e1", event.ID)
	_, err = svc.Get(context.Background(), "e1", claimsFor("root", models.RoleAdmin))
	assert.NoError(t, err)
}

func TestEventServiceListUsesPublicStatuses(t *testing.T) {
	repo := newMockEventRepo()
	svc := NewEventService(repo, nil, nil, nil, nil)

	_, pagination, err := svc.List(context.Background(), dto.EventListQuery{})
	require.NoError(t, err)
	assert.Equal(t, models.PublicEventStatuses, repo.lastFilter.Statuses)
	assert.Equal(t, 20, pagination.PageSize)

	_, _, err = svc.List(context.Background(), dto.EventListQuery{Status: "Pending"})
	assert.True(t, errors.Is(err, appErrors.ErrValidation))

	_, _, err = svc.ListPending(context.Background(), dto.EventListQuery{})
	require.NoError(t, err)
	assert.Equal(t, []models.EventStatus{models.EventStatusPending}, repo.lastFilter.Statuses)
}

func TestEventServiceModeration(t *testing.T) {
	repo := newMockEventRepo(
		&models.Event{ID: "pending", Status: models.EventStatusPending},
		&models.Event{ID: "live", Status: models.EventStatusUpcoming},
	)
	audit := &auditRecorder{}
	svc := NewEventService(repo, audit, nil, nil, nil)
	admin := claimsFor("root", models.RoleAdmin)

	event, err := svc.Approve(context.Background(), "pending", admin)
	require.NoError(t, err)
	assert.Equal(t, models.EventStatusUpcoming, event.Status)
	require.Len(t, audit.logs, 1)
	assert.Equal(t, models.AuditActionEventApprove, audit.logs[0].Action)

	_, err = svc.Reject(context.Background(), "live", admin)
	assert.True(t, errors.Is(err, appErrors.ErrConflict))
	assert.Equal(t, 1, repo.transitions)

	_, err = svc.Approve(context.Background(), "missing", admin)
	assert.True(t, errors.Is(err, appErrors.ErrNotFound))
}

func TestEventServiceModerationLostRace(t *testing.T) {
	repo := newMockEventRepo(&models.Event{ID: "pending", Status: models.EventStatusPending})
	repo.transitionErr = repository.ErrConditionNotMet
	svc := NewEventService(repo, nil, nil, nil, nil)

	_, err := svc.Reject(context.Background(), "pending", claimsFor("root", models.RoleAdmin))
	assert.True(t, errors.Is(err, appErrors.ErrConflict))
}

func TestEventServiceUpdate(t *testing.T) {
	status := func(s models.EventStatus) *models.EventStatus { return &s }
	base := func() *mockEventRepo {
		return newMockEventRepo(&models.Event{
			ID: "e1", Title: "Talk", Status: models.EventStatusUpcoming, CreatedBy: "owner",
			MaxParticipants: intPtr(10), RegisteredCount: 4,
		})
	}
	owner := claimsFor("owner", models.RoleCoordinator)

	t.Run("forbidden for other users", func(t *testing.T) {
		svc := NewEventService(base(), nil, nil, nil, nil)
		_, err := svc.Update(context.Background(), "e1", dto.UpdateEventRequest{Title: strPtr("New")}, claimsFor("other", models.RoleFaculty))
		assert.True(t, errors.Is(err, appErrors.ErrForbidden))
	})

	t.Run("forward status progression", func(t *testing.T) {
		repo := base()
		svc := NewEventService(repo, nil, nil, nil, nil)
		event, err := svc.Update(context.Background(), "e1", dto.UpdateEventRequest{Status: status(models.EventStatusCompleted)}, owner)
		require.NoError(t, err)
		assert.Equal(t, models.EventStatusCompleted, event.Status)
		assert.Equal(t, models.EventStatusCompleted, repo.updated.Status)
		assert.Equal(t, models.EventStatusUpcoming, repo.previous)
	})

	t.Run("backward or moderation status rejected", func(t *testing.T) {
		svc := NewEventService(base(), nil, nil, nil, nil)
		_, err := svc.Update(context.Background(), "e1", dto.UpdateEventRequest{Status: status(models.EventStatusPending)}, owner)
		assert.True(t, errors.Is(err, appErrors.ErrValidation))
	})

	t.Run("capacity below registered count", func(t *testing.T) {
		svc := NewEventService(base(), nil, nil, nil, nil)
		_, err := svc.Update(context.Background(), "e1", dto.UpdateEventRequest{MaxParticipants: intPtr(3)}, owner)
		assert.True(t, errors.Is(err, appErrors.ErrValidation))
	})

	t.Run("capacity lost race", func(t *testing.T) {
		repo := base()
		repo.updateErr = repository.ErrConditionNotMet
		svc := NewEventService(repo, nil, nil, nil, nil)
		_, err := svc.Update(context.Background(), "e1", dto.UpdateEventRequest{MaxParticipants: intPtr(4)}, claimsFor("root", models.RoleAdmin))
		assert.True(t, errors.Is(err, appErrors.ErrConflict))
	})
}

func TestEventServiceWritesInvalidateReports(t *testing.T) {
	repo := newMockEventRepo(
		&models.Event{ID: "pending", Status: models.EventStatusPending},
		&models.Event{ID: "e1", Title: "Talk", Status: models.EventStatusUpcoming, CreatedBy: "owner"},
	)
	inv := &invalidationCounter{}
	svc := NewEventService(repo, nil, inv, nil, nil)
	ctx := context.Background()

	_, err := svc.Create(ctx, dto.CreateEventRequest{Title: "Expo", Date: "2026-11-20"}, claimsFor("owner", models.RoleCoordinator))
	require.NoError(t, err)
	assert.Equal(t, 1, inv.calls)

	_, err = svc.Update(ctx, "e1", dto.UpdateEventRequest{Title: strPtr("Renamed talk")}, claimsFor("owner", models.RoleCoordinator))
	require.NoError(t, err)
	assert.Equal(t, 2, inv.calls)

	_, err = svc.Approve(ctx, "pending", claimsFor("root", models.RoleAdmin))
	require.NoError(t, err)
	assert.Equal(t, 3, inv.calls)

	_, err = svc.Reject(ctx, "e1", claimsFor("root", models.RoleAdmin))
	assert.True(t, errors.Is(err, appErrors.ErrConflict))
	assert.Equal(t, 3, inv.calls, "failed writes keep the cache")
}

func TestEventServiceCreateClearsCachedSummaries(t *testing.T) {
	ctx := context.Background()
	coordinator := claimsFor("owner", models.RoleCoordinator)
	cache := NewCacheService(newMemoryCacheRepo(), nil, time.Minute, nil, true)
	reportRepo := &mockReportRepo{}
	reports := NewReportService(reportRepo, cache, nil)

	rows, hit, err := reports.Attendance(ctx, coordinator)
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Empty(t, rows)

	svc := NewEventService(newMockEventRepo(), nil, cache, nil, nil)
	event, err := svc.Create(ctx, dto.CreateEventRequest{Title: "Expo", Date: "2026-11-20"}, coordinator)
	require.NoError(t, err)
	reportRepo.attendance = []models.AttendanceRow{{EventID: event.ID, Label: "Expo", Registered: 0}}

	rows, hit, err = reports.Attendance(ctx, coordinator)
	require.NoError(t, err)
	assert.False(t, hit)
	require.Len(t, rows, 1)
	assert.Equal(t, "Expo", rows[0].Label)
}

func TestEventServiceMalformedIDIsNotFound(t *testing.T) {
	repo := newMockEventRepo()
	repo.findErr = fmt.Errorf("find event: %w", &pq.Error{Code: "22P02", Message: "invalid input syntax for type uuid"})
	svc := NewEventService(repo, nil, nil, nil, nil)
	admin := claimsFor("root", models.RoleAdmin)

	_, err := svc.Get(context.Background(), "not-a-uuid", admin)
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, "NOT_FOUND", appErr.Code)
	assert.Equal(t, 404, appErr.Status)

	_, err = svc.Approve(context.Background(), "not-a-uuid", admin)
	assert.True(t, errors.Is(err, appErrors.ErrNotFound))

	reg := NewRegistrationService(newSeatStore(), repo, nil, nil, nil)
	_, err = reg.Register(context.Background(), "not-a-uuid", claimsFor("s1", models.RoleStudent))
	assert.True(t, errors.Is(err, appErrors.ErrNotFound))

	repo.findErr = fmt.Errorf("find event: %w", &pq.Error{Code: "08006"})
	_, err = svc.Get(context.Background(), "e1", admin)
	assert.True(t, errors.Is(err, appErrors.ErrInternal))
}

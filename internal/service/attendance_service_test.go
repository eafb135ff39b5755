package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/campus-events-api/internal/models"
	appErrors "github.com/noah-isme/campus-events-api/pkg/errors"
)

type mockAttendanceRepo struct {
	marks   map[string]models.AttendanceStatus
	batches int
	roster  []models.AttendanceRosterEntry
}

func (m *mockAttendanceRepo) MarkBatch(ctx context.Context, eventID, markedBy string, marks []models.AttendanceMark) (int, error) {
	m.batches++
	if m.marks == nil {
		m.marks = map[string]models.AttendanceStatus{}
	}
	for _, mark := range marks {
		m.marks[mark.StudentID] = mark.Status
	}
	return len(marks), nil
}

func (m *mockAttendanceRepo) Find(ctx context.Context, eventID, studentID string) (*models.Attendance, error) {
	status, ok := m.marks[studentID]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &models.Attendance{EventID: eventID, StudentID: studentID, Status: status}, nil
}

func (m *mockAttendanceRepo) Roster(ctx context.Context, eventID string) ([]models.AttendanceRosterEntry, error) {
	return m.roster, nil
}

func (m *mockAttendanceRepo) ListByStudent(ctx context.Context, studentID string) ([]models.MyAttendanceEntry, error) {
	return []models.MyAttendanceEntry{}, nil
}

type registeredSet map[string]struct{}

func (r registeredSet) RegisteredAmong(ctx context.Context, eventID string, studentIDs []string) (map[string]struct{}, error) {
	out := map[string]struct{}{}
	for _, id := range studentIDs {
		if _, ok := r[id]; ok {
			out[id] = struct{}{}
		}
	}
	return out, nil
}

func newTestAttendanceService(repo *mockAttendanceRepo, inv *invalidationCounter) *AttendanceService {
	events := newMockEventRepo(&models.Event{ID: "e1", Status: models.EventStatusOngoing, CreatedBy: "owner"})
	return NewAttendanceService(AttendanceServiceParams{
		Repo:          repo,
		Registrations: registeredSet{"s1": {}, "s2": {}},
		Events:        events,
		Reports:       inv,
		Audit:         &auditRecorder{},
		Metrics:       NewMetricsService(),
	})
}

func TestAttendanceServiceMarkSkipsUnregistered(t *testing.T) {
	repo := &mockAttendanceRepo{}
	inv := &invalidationCounter{}
	svc := newTestAttendanceService(repo, inv)

	result, err := svc.Mark(context.Background(), "e1", models.MarkAttendanceRequest{Attendance: []models.AttendanceMark{
		{StudentID: "s1", Status: models.AttendanceStatusPresent},
		{StudentID: "s2"},
		{StudentID: "stranger", Status: models.AttendanceStatusAbsent},
	}}, claimsFor("owner", models.RoleCoordinator))
	require.NoError(t, err)
	assert.Equal(t, models.MarkAttendanceResult{Marked: 2, Skipped: 1}, *result)
	assert.Equal(t, models.AttendanceStatusPresent, repo.marks["s2"])
	assert.NotContains(t, repo.marks, "stranger")
	assert.Equal(t, 1, inv.calls)
}

func TestAttendanceServiceRemarkKeepsOneRecord(t *testing.T) {
	repo := &mockAttendanceRepo{}
	svc := newTestAttendanceService(repo, &invalidationCounter{})
	admin := claimsFor("root", models.RoleAdmin)

	_, err := svc.Mark(context.Background(), "e1", models.MarkAttendanceRequest{Attendance: []models.AttendanceMark{
		{StudentID: "s1", Status: models.AttendanceStatusPresent},
		{StudentID: "s1", Status: models.AttendanceStatusAbsent},
	}}, admin)
	require.NoError(t, err)
	assert.Len(t, repo.marks, 1)
	assert.Equal(t, models.AttendanceStatusAbsent, repo.marks["s1"])

	att, err := svc.Find(context.Background(), "e1", "s1")
	require.NoError(t, err)
	assert.Equal(t, models.AttendanceStatusAbsent, att.Status)

	att, err = svc.Find(context.Background(), "e1", "s2")
	require.NoError(t, err)
	assert.Nil(t, att)
}

func TestAttendanceServiceMarkRejectsInvalidBatch(t *testing.T) {
	repo := &mockAttendanceRepo{}
	svc := newTestAttendanceService(repo, &invalidationCounter{})
	owner := claimsFor("owner", models.RoleFaculty)

	_, err := svc.Mark(context.Background(), "e1", models.MarkAttendanceRequest{Attendance: []models.AttendanceMark{
		{StudentID: "s1", Status: models.AttendanceStatusPresent},
		{StudentID: "s2", Status: "Late"},
	}}, owner)
	assert.True(t, errors.Is(err, appErrors.ErrValidation))
	assert.Equal(t, 0, repo.batches)

	_, err = svc.Mark(context.Background(), "e1", models.MarkAttendanceRequest{}, owner)
	assert.True(t, errors.Is(err, appErrors.ErrValidation))

	_, err = svc.Mark(context.Background(), "e1", models.MarkAttendanceRequest{Attendance: []models.AttendanceMark{{StudentID: "s1"}}},
		claimsFor("f2", models.RoleFaculty))
	assert.True(t, errors.Is(err, appErrors.ErrForbidden))

	_, err = svc.Mark(context.Background(), "missing", models.MarkAttendanceRequest{Attendance: []models.AttendanceMark{{StudentID: "s1"}}}, owner)
	assert.True(t, errors.Is(err, appErrors.ErrNotFound))
	assert.Equal(t, 0, repo.batches)
}

func TestAttendanceServiceRoster(t *testing.T) {
	repo := &mockAttendanceRepo{roster: []models.AttendanceRosterEntry{
		{StudentID: "s1", Status: models.AttendanceStatusPresent},
		{StudentID: "s2", Status: models.AttendanceStatusNotMarked},
	}}
	svc := newTestAttendanceService(repo, &invalidationCounter{})

	rows, err := svc.Roster(context.Background(), "e1", claimsFor("f9", models.RoleFaculty))
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, models.AttendanceStatusNotMarked, rows[1].Status)

	_, err = svc.Roster(context.Background(), "e1", claimsFor("s1", models.RoleStudent))
	assert.True(t, errors.Is(err, appErrors.ErrForbidden))
}

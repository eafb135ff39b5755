package repository

import (
	"context"
	"regexp"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/campus-events-api/internal/models"
)

func TestParticipationScopedToCreator(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewReportRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("JOIN events e ON e.id = r.event_id WHERE e.created_by = $1 GROUP BY e.id, e.title ORDER BY value DESC")).
		WithArgs("u1").
		WillReturnRows(sqlmock.NewRows([]string{"event_id", "label", "value"}).AddRow("e1", "Hackathon", 3))

	rows, err := repo.Participation(context.Background(), models.ReportScope{CreatedBy: "u1"})
	require.NoError(t, err)
	assert.Equal(t, []models.ParticipationRow{{EventID: "e1", Label: "Hackathon", Value: 3}}, rows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAttendanceUnscopedForAdmin(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewReportRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM events e ORDER BY e.event_date DESC")).
		WillReturnRows(sqlmock.NewRows([]string{"event_id", "label", "registered", "present"}).AddRow("e1", "Hackathon", 4, 3))

	rows, err := repo.Attendance(context.Background(), models.ReportScope{})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, 4, rows[0].Registered)
	assert.Equal(t, 3, rows[0].Present)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAttendanceCountsOnlyRegisteredPresence(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewReportRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM attendance a JOIN registrations r ON r.event_id = a.event_id AND r.student_id = a.student_id WHERE a.event_id = e.id AND a.status = 'Present') AS present FROM events e WHERE e.created_by = $1")).
		WithArgs("u1").
		WillReturnRows(sqlmock.NewRows([]string{"event_id", "label", "registered", "present"}).AddRow("e1", "Hackathon", 1, 0))

	rows, err := repo.Attendance(context.Background(), models.ReportScope{CreatedBy: "u1"})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.LessOrEqual(t, rows[0].Present, rows[0].Registered)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDepartmentExcludesBlank(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewReportRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("WHERE u.department IS NOT NULL AND u.department <> '' AND e.created_by = $1 GROUP BY u.department")).
		WithArgs("u1").
		WillReturnRows(sqlmock.NewRows([]string{"label", "value"}).AddRow("CS", 2).AddRow("EE", 1))

	rows, err := repo.Department(context.Background(), models.ReportScope{CreatedBy: "u1"})
	require.NoError(t, err)
	assert.Len(t, rows, 2)
	assert.NoError(t, mock.ExpectationsWereMet())
}

package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const takeSeatPattern = `UPDATE events SET registered_count = registered_count \+ 1`

func TestRegisterCommitsInsertAndSeat(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewRegistrationRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO registrations").
		WithArgs(sqlmock.AnyArg(), "e1", "s1", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(takeSeatPattern).
		WithArgs("e1", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	reg, err := repo.Register(context.Background(), "e1", "s1")
	require.NoError(t, err)
	assert.Equal(t, "e1", reg.EventID)
	assert.Equal(t, "s1", reg.StudentID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRegisterDuplicateRollsBack(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewRegistrationRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO registrations").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	_, err := repo.Register(context.Background(), "e1", "s1")
	assert.ErrorIs(t, err, ErrAlreadyRegistered)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRegisterMissingEventIsNotFound(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewRegistrationRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO registrations").WillReturnError(&pq.Error{Code: "23503"})
	mock.ExpectRollback()

	_, err := repo.Register(context.Background(), "gone", "s1")
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRegisterFullEventRollsBack(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewRegistrationRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO registrations").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(takeSeatPattern).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	_, err := repo.Register(context.Background(), "e1", "s2")
	assert.ErrorIs(t, err, ErrNoCapacity)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUnregisterReleasesSeatWithFloor(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewRegistrationRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM registrations WHERE event_id = $1 AND student_id = $2")).
		WithArgs("e1", "s1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("GREATEST(registered_count - 1, 0)")).
		WithArgs("e1", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, repo.Unregister(context.Background(), "e1", "s1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUnregisterWithoutRegistration(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewRegistrationRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM registrations").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err := repo.Unregister(context.Background(), "e1", "s1")
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRegisteredAmong(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewRegistrationRepository(db)

	const (
		ana  = "0b7d8c1e-1f2a-4b3c-8d4e-5f6a7b8c9d01"
		budi = "0b7d8c1e-1f2a-4b3c-8d4e-5f6a7b8c9d02"
	)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT student_id FROM registrations WHERE event_id = $1 AND student_id = ANY($2)")).
		WithArgs("e1", pq.Array([]string{ana, budi})).
		WillReturnRows(sqlmock.NewRows([]string{"student_id"}).AddRow(ana))

	got, err := repo.RegisteredAmong(context.Background(), "e1", []string{ana, "not-a-uuid", budi})
	require.NoError(t, err)
	assert.Contains(t, got, ana)
	assert.NotContains(t, got, budi)
	assert.NotContains(t, got, "not-a-uuid")

	empty, err := repo.RegisteredAmong(context.Background(), "e1", nil)
	require.NoError(t, err)
	assert.Empty(t, empty)

	malformed, err := repo.RegisteredAmong(context.Background(), "e1", []string{"s1", "123"})
	require.NoError(t, err)
	assert.Empty(t, malformed)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListByStudent(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewRegistrationRepository(db)

	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta("FROM registrations r JOIN events e ON e.id = r.event_id WHERE r.student_id = $1")).
		WithArgs("s1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "event_id", "student_id", "registered_at", "event_title", "event_date", "venue", "event_status"}).
			AddRow("r1", "e1", "s1", now, "Hackathon", now, "Hall", "Upcoming"))

	rows, err := repo.ListByStudent(context.Background(), "s1")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "Hackathon", rows[0].EventTitle)
	assert.NoError(t, mock.ExpectationsWereMet())
}

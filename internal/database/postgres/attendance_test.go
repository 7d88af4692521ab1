package postgres

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/kozaktomas/attendance/internal/database"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var recordColumns = []string{
	"id", "user_id", "company_code", "date",
	"check_in_time", "check_out_time",
	"check_in_latitude", "check_in_longitude", "check_out_latitude", "check_out_longitude",
	"is_tracking", "hours_worked", "worked_seconds", "status", "created_at", "updated_at",
}

func setupMockAttendanceDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock, *AttendanceRepository) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	repo := NewAttendanceRepository(NewPoolFromDB(db))
	return db, mock, repo
}

func checkedInRow(checkIn time.Time) *sqlmock.Rows {
	return sqlmock.NewRows(recordColumns).AddRow(
		int64(7), "u1", "ACME", "2026-03-02",
		checkIn, nil,
		12.9716, 77.5946, nil, nil,
		true, nil, nil, "present", checkIn, checkIn,
	)
}

func TestGetRecordForDay_Success(t *testing.T) {
	db, mock, repo := setupMockAttendanceDB(t)
	defer db.Close()

	checkIn := time.Date(2026, 3, 2, 3, 30, 0, 0, time.UTC)
	mock.ExpectQuery(`SELECT .* FROM attendance WHERE user_id = \$1 AND date = \$2`).
		WithArgs("u1", "2026-03-02").
		WillReturnRows(checkedInRow(checkIn))

	rec, err := repo.GetRecordForDay(context.Background(), "u1", "2026-03-02")

	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, int64(7), rec.ID)
	assert.Equal(t, "2026-03-02", rec.Date)
	assert.True(t, rec.IsTracking)
	assert.Equal(t, database.StatusPresent, rec.Status)
	require.NotNil(t, rec.CheckInTime)
	assert.True(t, rec.CheckInTime.Equal(checkIn))
	assert.Nil(t, rec.CheckOutTime)
	require.NotNil(t, rec.CheckInLocation)
	assert.InDelta(t, 12.9716, rec.CheckInLocation.Latitude, 1e-9)
	assert.Nil(t, rec.CheckOutLocation)
	assert.Equal(t, database.StateCheckedIn, database.StateOf(rec))

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetRecordForDay_NotFound(t *testing.T) {
	db, mock, repo := setupMockAttendanceDB(t)
	defer db.Close()

	mock.ExpectQuery(`SELECT`).
		WithArgs("u1", "2026-03-02").
		WillReturnRows(sqlmock.NewRows(recordColumns))

	rec, err := repo.GetRecordForDay(context.Background(), "u1", "2026-03-02")

	require.NoError(t, err)
	assert.Nil(t, rec)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetRecordForDay_QueryError(t *testing.T) {
	db, mock, repo := setupMockAttendanceDB(t)
	defer db.Close()

	mock.ExpectQuery(`SELECT`).
		WithArgs("u1", "2026-03-02").
		WillReturnError(errors.New("connection reset"))

	rec, err := repo.GetRecordForDay(context.Background(), "u1", "2026-03-02")

	require.Error(t, err)
	assert.Nil(t, rec)
	assert.Contains(t, err.Error(), "connection reset")
}

func TestInsertCheckIn_Success(t *testing.T) {
	db, mock, repo := setupMockAttendanceDB(t)
	defer db.Close()

	checkIn := time.Date(2026, 3, 2, 3, 30, 0, 0, time.UTC)
	rec := database.NewCheckIn("u1", "ACME", "2026-03-02", checkIn,
		&database.Location{Latitude: 12.9716, Longitude: 77.5946})

	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO attendance .* ON CONFLICT \(user_id, date\) DO UPDATE .* WHERE attendance.check_in_time IS NULL`).
		WithArgs("u1", "ACME", "2026-03-02", sqlmock.AnyArg(), 12.9716, 77.5946, "present").
		WillReturnRows(checkedInRow(checkIn))
	mock.ExpectExec(`UPDATE attendance SET .* WHERE user_id = \$2 AND date < \$3 AND is_tracking`).
		WithArgs("incomplete", "u1", "2026-03-02").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	saved, err := repo.InsertCheckIn(context.Background(), rec)

	require.NoError(t, err)
	assert.Equal(t, int64(7), saved.ID)
	assert.True(t, saved.IsTracking)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestInsertCheckIn_CloseStaleError(t *testing.T) {
	db, mock, repo := setupMockAttendanceDB(t)
	defer db.Close()

	checkIn := time.Date(2026, 3, 2, 3, 30, 0, 0, time.UTC)
	rec := database.NewCheckIn("u1", "ACME", "2026-03-02", checkIn, nil)

	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO attendance`).
		WillReturnRows(checkedInRow(checkIn))
	mock.ExpectExec(`UPDATE attendance SET`).
		WillReturnError(errors.New("connection reset"))
	mock.ExpectRollback()

	saved, err := repo.InsertCheckIn(context.Background(), rec)

	require.Error(t, err)
	assert.Nil(t, saved)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestInsertCheckIn_AlreadyCheckedIn(t *testing.T) {
	db, mock, repo := setupMockAttendanceDB(t)
	defer db.Close()

	checkIn := time.Date(2026, 3, 2, 3, 30, 0, 0, time.UTC)
	rec := database.NewCheckIn("u1", "ACME", "2026-03-02", checkIn, nil)

	// The conditional upsert returns no row when a check-in already exists.
	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO attendance`).
		WithArgs("u1", "ACME", "2026-03-02", sqlmock.AnyArg(), nil, nil, "present").
		WillReturnRows(sqlmock.NewRows(recordColumns))
	mock.ExpectRollback()

	saved, err := repo.InsertCheckIn(context.Background(), rec)

	assert.ErrorIs(t, err, database.ErrAlreadyCheckedIn)
	assert.Nil(t, saved)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCompleteCheckOut_Success(t *testing.T) {
	db, mock, repo := setupMockAttendanceDB(t)
	defer db.Close()

	checkIn := time.Date(2026, 3, 2, 3, 30, 0, 0, time.UTC)
	checkOut := checkIn.Add(7*time.Hour + 30*time.Minute)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT .* FROM attendance WHERE user_id = \$1 AND date = \$2 FOR UPDATE`).
		WithArgs("u1", "2026-03-02").
		WillReturnRows(checkedInRow(checkIn))
	mock.ExpectQuery(`UPDATE attendance SET .* WHERE id = \$7 AND check_out_time IS NULL`).
		WithArgs(sqlmock.AnyArg(), 12.0, 77.0, "7h 30m", int64(27000), "complete", int64(7)).
		WillReturnRows(sqlmock.NewRows(recordColumns).AddRow(
			int64(7), "u1", "ACME", "2026-03-02",
			checkIn, checkOut,
			12.9716, 77.5946, 12.0, 77.0,
			false, "7h 30m", int64(27000), "complete", checkIn, checkOut,
		))
	mock.ExpectCommit()

	saved, err := repo.CompleteCheckOut(context.Background(), "u1", "2026-03-02", database.CheckOut{
		Time:          checkOut,
		Location:      &database.Location{Latitude: 12, Longitude: 77},
		HoursWorked:   "7h 30m",
		WorkedSeconds: 27000,
	})

	require.NoError(t, err)
	assert.False(t, saved.IsTracking)
	assert.Equal(t, database.StatusComplete, saved.Status)
	assert.Equal(t, "7h 30m", saved.HoursWorked)
	assert.Equal(t, int64(27000), saved.WorkedSeconds)
	assert.Equal(t, database.StateCheckedOut, database.StateOf(saved))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCompleteCheckOut_NoRecord(t *testing.T) {
	db, mock, repo := setupMockAttendanceDB(t)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectQuery(`FOR UPDATE`).
		WithArgs("u1", "2026-03-02").
		WillReturnRows(sqlmock.NewRows(recordColumns))
	mock.ExpectRollback()

	saved, err := repo.CompleteCheckOut(context.Background(), "u1", "2026-03-02", database.CheckOut{Time: time.Now()})

	assert.ErrorIs(t, err, database.ErrNoActiveCheckIn)
	assert.Nil(t, saved)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCompleteCheckOut_AlreadyCheckedOut(t *testing.T) {
	db, mock, repo := setupMockAttendanceDB(t)
	defer db.Close()

	checkIn := time.Date(2026, 3, 2, 3, 30, 0, 0, time.UTC)
	checkOut := checkIn.Add(time.Hour)

	mock.ExpectBegin()
	mock.ExpectQuery(`FOR UPDATE`).
		WithArgs("u1", "2026-03-02").
		WillReturnRows(sqlmock.NewRows(recordColumns).AddRow(
			int64(7), "u1", "ACME", "2026-03-02",
			checkIn, checkOut,
			nil, nil, nil, nil,
			false, "1h 0m", int64(3600), "complete", checkIn, checkOut,
		))
	mock.ExpectRollback()

	_, err := repo.CompleteCheckOut(context.Background(), "u1", "2026-03-02",
		database.CheckOut{Time: checkOut.Add(time.Hour)})

	assert.ErrorIs(t, err, database.ErrAlreadyCheckedOut)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCompleteCheckOut_BeforeCheckIn(t *testing.T) {
	db, mock, repo := setupMockAttendanceDB(t)
	defer db.Close()

	checkIn := time.Date(2026, 3, 2, 3, 30, 0, 0, time.UTC)

	mock.ExpectBegin()
	mock.ExpectQuery(`FOR UPDATE`).
		WithArgs("u1", "2026-03-02").
		WillReturnRows(checkedInRow(checkIn))
	mock.ExpectRollback()

	_, err := repo.CompleteCheckOut(context.Background(), "u1", "2026-03-02",
		database.CheckOut{Time: checkIn.Add(-time.Minute)})

	assert.ErrorIs(t, err, database.ErrCheckOutBeforeCheckIn)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestListForUser_Limit(t *testing.T) {
	db, mock, repo := setupMockAttendanceDB(t)
	defer db.Close()

	checkIn := time.Date(2026, 3, 2, 3, 30, 0, 0, time.UTC)
	mock.ExpectQuery(`SELECT .* ORDER BY date DESC\s+LIMIT \$2`).
		WithArgs("u1", int64(10)).
		WillReturnRows(checkedInRow(checkIn))

	records, err := repo.ListForUser(context.Background(), "u1", 10)

	require.NoError(t, err)
	assert.Len(t, records, 1)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestListForUser_Unlimited(t *testing.T) {
	db, mock, repo := setupMockAttendanceDB(t)
	defer db.Close()

	mock.ExpectQuery(`SELECT`).
		WithArgs("u1", nil).
		WillReturnRows(sqlmock.NewRows(recordColumns))

	records, err := repo.ListForUser(context.Background(), "u1", 0)

	require.NoError(t, err)
	assert.Empty(t, records)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestListForCompanyAndDate(t *testing.T) {
	db, mock, repo := setupMockAttendanceDB(t)
	defer db.Close()

	checkIn := time.Date(2026, 3, 2, 3, 30, 0, 0, time.UTC)
	rows := checkedInRow(checkIn).AddRow(
		int64(8), "u2", "ACME", "2026-03-02",
		nil, nil,
		nil, nil, nil, nil,
		false, nil, nil, "absent", checkIn, checkIn,
	)
	mock.ExpectQuery(`WHERE company_code = \$1 AND date = \$2`).
		WithArgs("ACME", "2026-03-02").
		WillReturnRows(rows)

	records, err := repo.ListForCompanyAndDate(context.Background(), "ACME", "2026-03-02")

	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, database.StateCheckedIn, database.StateOf(&records[0]))
	assert.Equal(t, database.StateNoRecord, database.StateOf(&records[1]))
	assert.Equal(t, database.StatusAbsent, records[1].Status)
	require.NoError(t, mock.ExpectationsWereMet())
}

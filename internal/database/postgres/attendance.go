package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/kozaktomas/attendance/internal/database"
)

const attendanceColumns = `id, user_id, company_code, to_char(date, 'YYYY-MM-DD'),
	check_in_time, check_out_time,
	check_in_latitude, check_in_longitude, check_out_latitude, check_out_longitude,
	is_tracking, hours_worked, worked_seconds, status, created_at, updated_at`

// AttendanceRepository provides PostgreSQL-backed attendance records.
// The UNIQUE (user_id, date) constraint and row locks serialize transitions
// of the same user and day across processes.
type AttendanceRepository struct {
	pool *Pool
}

// NewAttendanceRepository creates a new PostgreSQL attendance repository.
func NewAttendanceRepository(pool *Pool) *AttendanceRepository {
	return &AttendanceRepository{pool: pool}
}

// GetRecordForDay retrieves the record of a user for a civil date, returns nil if none.
func (r *AttendanceRepository) GetRecordForDay(ctx context.Context, userID, date string) (*database.AttendanceRecord, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+attendanceColumns+` FROM attendance WHERE user_id = $1 AND date = $2`, userID, date)

	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get attendance for %s on %s: %w", userID, date, err)
	}
	return rec, nil
}

// GetActiveRecord retrieves the record still tracking, returns nil if none.
// Check-in closes older tracking rows, so there is at most one.
func (r *AttendanceRepository) GetActiveRecord(ctx context.Context, userID string) (*database.AttendanceRecord, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+attendanceColumns+` FROM attendance
		WHERE user_id = $1 AND is_tracking
		ORDER BY date DESC
		LIMIT 1`, userID)

	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get active attendance for %s: %w", userID, err)
	}
	return rec, nil
}

// ListForCompanyAndDate returns a tenant's records for one civil date ordered by user.
func (r *AttendanceRepository) ListForCompanyAndDate(ctx context.Context, companyCode, date string) ([]database.AttendanceRecord, error) {
	return r.list(ctx, `SELECT `+attendanceColumns+` FROM attendance
		WHERE company_code = $1 AND date = $2
		ORDER BY user_id`, companyCode, date)
}

// ListForCompany returns all records of a tenant, newest date first.
func (r *AttendanceRepository) ListForCompany(ctx context.Context, companyCode string) ([]database.AttendanceRecord, error) {
	return r.list(ctx, `SELECT `+attendanceColumns+` FROM attendance
		WHERE company_code = $1
		ORDER BY date DESC, user_id`, companyCode)
}

// ListForUser returns up to limit records of a user, newest date first.
// A non-positive limit returns all records.
func (r *AttendanceRepository) ListForUser(ctx context.Context, userID string, limit int) ([]database.AttendanceRecord, error) {
	var lim sql.NullInt64
	if limit > 0 {
		lim = sql.NullInt64{Int64: int64(limit), Valid: true}
	}
	return r.list(ctx, `SELECT `+attendanceColumns+` FROM attendance
		WHERE user_id = $1
		ORDER BY date DESC
		LIMIT $2`, userID, lim)
}

func (r *AttendanceRepository) list(ctx context.Context, query string, args ...any) ([]database.AttendanceRecord, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query attendance: %w", err)
	}
	defer rows.Close()

	var records []database.AttendanceRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan attendance: %w", err)
		}
		records = append(records, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate attendance: %w", err)
	}
	return records, nil
}

// InsertCheckIn performs NoRecord -> CheckedIn. A placeholder row without a
// check-in time is filled in; any other existing row makes the conditional
// upsert return nothing, reported as ErrAlreadyCheckedIn. Rows of earlier
// days still tracking are closed as incomplete in the same transaction, so a
// user has at most one tracking row.
func (r *AttendanceRepository) InsertCheckIn(ctx context.Context, rec *database.AttendanceRecord) (*database.AttendanceRecord, error) {
	if rec.CheckInTime == nil {
		return nil, errors.New("check-in time is required")
	}
	lat, lon := locationArgs(rec.CheckInLocation)

	tx, err := r.pool.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	saved, err := scanRecord(tx.QueryRowContext(ctx, `
		INSERT INTO attendance (user_id, company_code, date, check_in_time,
			check_in_latitude, check_in_longitude, is_tracking, status)
		VALUES ($1, $2, $3, $4, $5, $6, TRUE, $7)
		ON CONFLICT (user_id, date) DO UPDATE SET
			company_code = EXCLUDED.company_code,
			check_in_time = EXCLUDED.check_in_time,
			check_in_latitude = EXCLUDED.check_in_latitude,
			check_in_longitude = EXCLUDED.check_in_longitude,
			is_tracking = TRUE,
			status = EXCLUDED.status,
			updated_at = NOW()
		WHERE attendance.check_in_time IS NULL
		RETURNING `+attendanceColumns,
		rec.UserID, rec.CompanyCode, rec.Date, *rec.CheckInTime, lat, lon, string(database.StatusPresent)))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, database.ErrAlreadyCheckedIn
	}
	if err != nil {
		return nil, fmt.Errorf("insert check-in for %s on %s: %w", rec.UserID, rec.Date, err)
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE attendance SET
			is_tracking = FALSE,
			status = $1,
			updated_at = NOW()
		WHERE user_id = $2 AND date < $3 AND is_tracking`,
		string(database.StatusIncomplete), rec.UserID, rec.Date); err != nil {
		return nil, fmt.Errorf("close stale attendance for %s: %w", rec.UserID, err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit check-in: %w", err)
	}
	return saved, nil
}

// CompleteCheckOut performs CheckedIn -> CheckedOut. The row is locked for the
// duration of the transaction so concurrent check-outs see the committed state.
func (r *AttendanceRepository) CompleteCheckOut(ctx context.Context, userID, date string, out database.CheckOut) (*database.AttendanceRecord, error) {
	tx, err := r.pool.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	current, err := scanRecord(tx.QueryRowContext(ctx,
		`SELECT `+attendanceColumns+` FROM attendance WHERE user_id = $1 AND date = $2 FOR UPDATE`,
		userID, date))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, database.ErrNoActiveCheckIn
	}
	if err != nil {
		return nil, fmt.Errorf("lock attendance for %s on %s: %w", userID, date, err)
	}

	if err := current.ApplyCheckOut(out); err != nil {
		return nil, err
	}

	lat, lon := locationArgs(current.CheckOutLocation)
	saved, err := scanRecord(tx.QueryRowContext(ctx, `
		UPDATE attendance SET
			check_out_time = $1,
			check_out_latitude = $2,
			check_out_longitude = $3,
			hours_worked = $4,
			worked_seconds = $5,
			is_tracking = FALSE,
			status = $6,
			updated_at = NOW()
		WHERE id = $7 AND check_out_time IS NULL
		RETURNING `+attendanceColumns,
		*current.CheckOutTime, lat, lon, current.HoursWorked, current.WorkedSeconds,
		string(current.Status), current.ID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, database.ErrAlreadyCheckedOut
	}
	if err != nil {
		return nil, fmt.Errorf("complete check-out for %s on %s: %w", userID, date, err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit check-out: %w", err)
	}
	return saved, nil
}

func locationArgs(loc *database.Location) (sql.NullFloat64, sql.NullFloat64) {
	if loc == nil {
		return sql.NullFloat64{}, sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: loc.Latitude, Valid: true}, sql.NullFloat64{Float64: loc.Longitude, Valid: true}
}

func scanRecord(row rowScanner) (*database.AttendanceRecord, error) {
	var (
		rec               database.AttendanceRecord
		checkIn, checkOut sql.NullTime
		inLat, inLon      sql.NullFloat64
		outLat, outLon    sql.NullFloat64
		hoursWorked       sql.NullString
		workedSeconds     sql.NullInt64
		status            string
	)
	err := row.Scan(
		&rec.ID, &rec.UserID, &rec.CompanyCode, &rec.Date,
		&checkIn, &checkOut,
		&inLat, &inLon, &outLat, &outLon,
		&rec.IsTracking, &hoursWorked, &workedSeconds, &status, &rec.CreatedAt, &rec.UpdatedAt,
	)
	if err != nil {
		return nil, err //nolint:wrapcheck // callers wrap with context
	}

	if checkIn.Valid {
		t := checkIn.Time
		rec.CheckInTime = &t
	}
	if checkOut.Valid {
		t := checkOut.Time
		rec.CheckOutTime = &t
	}
	if inLat.Valid && inLon.Valid {
		rec.CheckInLocation = &database.Location{Latitude: inLat.Float64, Longitude: inLon.Float64}
	}
	if outLat.Valid && outLon.Valid {
		rec.CheckOutLocation = &database.Location{Latitude: outLat.Float64, Longitude: outLon.Float64}
	}
	rec.HoursWorked = hoursWorked.String
	rec.WorkedSeconds = workedSeconds.Int64
	rec.Status = database.AttendanceStatus(status)
	return &rec, nil
}

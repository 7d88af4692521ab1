package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/kozaktomas/attendance/internal/database"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var userRowColumns = []string{"id", "email", "full_name", "role", "company_code", "face_descriptor", "created_at"}

func TestGetUser_WithDescriptor(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := NewUserRepository(NewPoolFromDB(db))

	mock.ExpectQuery(`SELECT .* FROM users WHERE id = \$1`).
		WithArgs("u1").
		WillReturnRows(sqlmock.NewRows(userRowColumns).AddRow(
			"u1", "asha@example.com", "Asha Rao", "user", "ACME", []byte("[0.1,0.2,0.3]"), time.Now(),
		))

	user, err := repo.GetUser(context.Background(), "u1")

	require.NoError(t, err)
	require.NotNil(t, user)
	assert.Equal(t, database.RoleUser, user.Role)
	assert.Equal(t, "ACME", user.CompanyCode)
	assert.Equal(t, []float32{0.1, 0.2, 0.3}, user.FaceDescriptor)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetUser_NullColumns(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := NewUserRepository(NewPoolFromDB(db))

	mock.ExpectQuery(`SELECT`).
		WithArgs("u2").
		WillReturnRows(sqlmock.NewRows(userRowColumns).AddRow(
			"u2", "new@example.com", "", "user", nil, nil, time.Now(),
		))

	user, err := repo.GetUser(context.Background(), "u2")

	require.NoError(t, err)
	require.NotNil(t, user)
	assert.Empty(t, user.CompanyCode)
	assert.Nil(t, user.FaceDescriptor)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetUser_NotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := NewUserRepository(NewPoolFromDB(db))

	mock.ExpectQuery(`SELECT`).
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows(userRowColumns))

	user, err := repo.GetUser(context.Background(), "missing")

	require.NoError(t, err)
	assert.Nil(t, user)
}

func TestSaveUser_EmailTaken(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := NewUserRepository(NewPoolFromDB(db))

	mock.ExpectExec(`INSERT INTO users`).
		WillReturnError(&pq.Error{Code: database.PgUniqueViolation})

	err = repo.SaveUser(context.Background(), &database.StoredUser{ID: "u3", Email: "dup@example.com"})

	assert.ErrorIs(t, err, database.ErrEmailTaken)
}

func TestSaveUser_RejectsWrongDimension(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := NewUserRepository(NewPoolFromDB(db))

	err = repo.SaveUser(context.Background(), &database.StoredUser{
		ID: "u4", Email: "x@example.com", FaceDescriptor: []float32{1, 2, 3},
	})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "dimensions")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGeofenceRepository_GetMissing(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := NewGeofenceRepository(NewPoolFromDB(db))

	mock.ExpectQuery(`SELECT .* FROM geofences WHERE company_code = \$1`).
		WithArgs("ACME").
		WillReturnRows(sqlmock.NewRows([]string{"id", "admin_id", "company_code", "latitude", "longitude", "radius_meters", "created_at"}))

	fence, err := repo.GetGeofence(context.Background(), "ACME")

	require.NoError(t, err)
	assert.Nil(t, fence)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGeofenceRepository_SaveDefaultsRadius(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := NewGeofenceRepository(NewPoolFromDB(db))

	mock.ExpectQuery(`INSERT INTO geofences .* ON CONFLICT \(company_code\) DO UPDATE`).
		WithArgs("admin1", "ACME", 12.9716, 77.5946, database.DefaultGeofenceRadiusMeters).
		WillReturnRows(sqlmock.NewRows([]string{"id", "admin_id", "company_code", "latitude", "longitude", "radius_meters", "created_at"}).
			AddRow(int64(1), "admin1", "ACME", 12.9716, 77.5946, int64(100), time.Now()))

	fence, err := repo.SaveGeofence(context.Background(), &database.StoredGeofence{
		AdminID: "admin1", CompanyCode: "ACME", Latitude: 12.9716, Longitude: 77.5946,
	})

	require.NoError(t, err)
	assert.Equal(t, 100, fence.RadiusMeters)
	require.NoError(t, mock.ExpectationsWereMet())
}

package database

import (
	"context"
	"errors"
	"sync"
)

// ErrNotInitialized is returned by the getters before a backend has been registered.
var ErrNotInitialized = errors.New("PostgreSQL backend not initialized: DATABASE_URL is required")

var (
	backendMu          sync.RWMutex
	postgresUsers      func() UserWriter
	postgresGeofences  func() GeofenceWriter
	postgresAttendance func() AttendanceWriter
)

// RegisterPostgresBackend registers PostgreSQL repository constructors.
// This is called by the serve command to avoid import cycles between the
// postgres package and its consumers.
func RegisterPostgresBackend(
	users func() UserWriter,
	geofences func() GeofenceWriter,
	attendance func() AttendanceWriter,
) {
	backendMu.Lock()
	defer backendMu.Unlock()
	postgresUsers = users
	postgresGeofences = geofences
	postgresAttendance = attendance
}

// ResetBackend clears all registered constructors. Intended for tests.
func ResetBackend() {
	RegisterPostgresBackend(nil, nil, nil)
}

// IsInitialized returns whether a backend has been registered.
func IsInitialized() bool {
	backendMu.RLock()
	defer backendMu.RUnlock()
	return postgresUsers != nil && postgresGeofences != nil && postgresAttendance != nil
}

// GetUserWriter returns the registered user repository with write access.
func GetUserWriter(_ context.Context) (UserWriter, error) {
	backendMu.RLock()
	defer backendMu.RUnlock()
	if postgresUsers == nil {
		return nil, ErrNotInitialized
	}
	return postgresUsers(), nil
}

// GetGeofenceWriter returns the registered geofence repository.
func GetGeofenceWriter(_ context.Context) (GeofenceWriter, error) {
	backendMu.RLock()
	defer backendMu.RUnlock()
	if postgresGeofences == nil {
		return nil, ErrNotInitialized
	}
	return postgresGeofences(), nil
}

// GetAttendanceWriter returns the registered attendance repository.
func GetAttendanceWriter(_ context.Context) (AttendanceWriter, error) {
	backendMu.RLock()
	defer backendMu.RUnlock()
	if postgresAttendance == nil {
		return nil, ErrNotInitialized
	}
	return postgresAttendance(), nil
}

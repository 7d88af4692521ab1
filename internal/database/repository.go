package database

import (
	"context"
	"errors"
)

// ErrEmailTaken is returned by SaveUser when another user already has the email.
var ErrEmailTaken = errors.New("email already registered")

// UserReader provides read-only access to users
type UserReader interface {
	// GetUser retrieves a user by ID, returns nil if not found
	GetUser(ctx context.Context, id string) (*StoredUser, error)
	// ListUsersByCompany returns all users of a tenant
	ListUsersByCompany(ctx context.Context, companyCode string) ([]StoredUser, error)
}

// UserWriter provides write access to users. Used by seeding and the
// registration flows, never by check-in itself.
type UserWriter interface {
	UserReader

	// SaveUser inserts or updates a user
	SaveUser(ctx context.Context, user *StoredUser) error
}

// GeofenceReader provides read-only access to tenant geofences
type GeofenceReader interface {
	// GetGeofence retrieves the geofence of a tenant, returns nil if none is configured
	GetGeofence(ctx context.Context, companyCode string) (*StoredGeofence, error)
}

// GeofenceWriter provides write access to tenant geofences
type GeofenceWriter interface {
	GeofenceReader

	// SaveGeofence inserts or replaces the geofence of fence.CompanyCode
	SaveGeofence(ctx context.Context, fence *StoredGeofence) (*StoredGeofence, error)
}

// AttendanceReader provides read-only access to attendance records
type AttendanceReader interface {
	// GetRecordForDay retrieves the record of a user for a civil date, returns nil if none
	GetRecordForDay(ctx context.Context, userID, date string) (*AttendanceRecord, error)
	// GetActiveRecord retrieves the record with IsTracking set, returns nil if none
	GetActiveRecord(ctx context.Context, userID string) (*AttendanceRecord, error)
	// ListForCompanyAndDate returns a tenant's records for one civil date
	ListForCompanyAndDate(ctx context.Context, companyCode, date string) ([]AttendanceRecord, error)
	// ListForCompany returns all records of a tenant, newest date first
	ListForCompany(ctx context.Context, companyCode string) ([]AttendanceRecord, error)
	// ListForUser returns up to limit records of a user, newest date first
	ListForUser(ctx context.Context, userID string, limit int) ([]AttendanceRecord, error)
}

// AttendanceWriter performs the state transitions of attendance records.
// Implementations serialize transitions of the same (user, date).
type AttendanceWriter interface {
	AttendanceReader

	// InsertCheckIn performs NoRecord -> CheckedIn. Returns ErrAlreadyCheckedIn
	// if a record already exists for (rec.UserID, rec.Date).
	InsertCheckIn(ctx context.Context, rec *AttendanceRecord) (*AttendanceRecord, error)

	// CompleteCheckOut performs CheckedIn -> CheckedOut on the record of (userID, date).
	// Returns ErrNoActiveCheckIn, ErrAlreadyCheckedOut or ErrCheckOutBeforeCheckIn
	// when the transition is illegal.
	CompleteCheckOut(ctx context.Context, userID, date string, out CheckOut) (*AttendanceRecord, error)
}

package database

import (
	"time"
)

// Role is a user's role within a tenant.
type Role string

// Role values.
const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
)

// AttendanceStatus is the display status of a day's attendance record.
type AttendanceStatus string

// AttendanceStatus values.
const (
	StatusPresent    AttendanceStatus = "present"    // checked in, day not complete
	StatusComplete   AttendanceStatus = "complete"   // checked out
	StatusAbsent     AttendanceStatus = "absent"     // no action for the day
	StatusIncomplete AttendanceStatus = "incomplete" // stale or never finished
)

// DateLayout is the layout of the civil date key of an attendance record.
const DateLayout = "2006-01-02"

// StoredUser is the reference identity a check-in is verified against.
type StoredUser struct {
	ID             string
	Email          string
	FullName       string
	Role           Role
	CompanyCode    string    // empty until the user joins a company
	FaceDescriptor []float32 // nil until face registration
	CreatedAt      time.Time
}

// StoredGeofence is a tenant's circular check-in area.
type StoredGeofence struct {
	ID           int64
	AdminID      string
	CompanyCode  string
	Latitude     float64
	Longitude    float64
	RadiusMeters int
	CreatedAt    time.Time
}

// Location is a latitude/longitude pair recorded with a check-in or check-out.
type Location struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// AttendanceRecord is the single attendance row of a user for a civil day.
type AttendanceRecord struct {
	ID               int64
	UserID           string
	CompanyCode      string
	Date             string // civil date, DateLayout
	CheckInTime      *time.Time
	CheckOutTime     *time.Time
	CheckInLocation  *Location
	CheckOutLocation *Location
	IsTracking       bool
	HoursWorked      string // formatted duration, e.g. "7h 30m"
	WorkedSeconds    int64
	Status           AttendanceStatus
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// CheckOut carries the values written by a check-out transition.
type CheckOut struct {
	Time          time.Time
	Location      *Location
	HoursWorked   string
	WorkedSeconds int64
}

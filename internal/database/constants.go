package database

// FaceDescriptorDim is the fixed dimension of stored reference face descriptors
// (face-api.js / dlib ResNet descriptors are 128-dimensional).
const FaceDescriptorDim = 128

// DefaultGeofenceRadiusMeters is used when a geofence is saved without a radius.
const DefaultGeofenceRadiusMeters = 100

// Postgres error codes inspected by the repositories.
const (
	// PgUniqueViolation is raised when an insert hits a unique constraint.
	PgUniqueViolation = "23505"
)

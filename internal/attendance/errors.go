package attendance

import (
	"errors"
	"fmt"
	"math"
)

// Kind classifies a rejected check-in or check-out.
type Kind string

// Kind values. Every gate failure of the service maps to exactly one Kind.
const (
	KindInvalidInput           Kind = "InvalidInput"
	KindUserNotFound           Kind = "UserNotFound"
	KindNoCompanyAssociation   Kind = "NoCompanyAssociation"
	KindRoleNotAllowed         Kind = "RoleNotAllowed"
	KindFaceVerificationFailed Kind = "FaceVerificationFailed"
	KindOutsideGeofence        Kind = "OutsideGeofence"
	KindNoGeofenceConfigured   Kind = "NoGeofenceConfigured"
	KindAlreadyCheckedIn       Kind = "AlreadyCheckedIn"
	KindAlreadyCheckedOut      Kind = "AlreadyCheckedOut"
	KindNoActiveCheckIn        Kind = "NoActiveCheckIn"
	KindStorageUnavailable     Kind = "StorageUnavailable"
)

// Error is returned by Service operations.
type Error struct {
	Kind    Kind
	Message string

	// Distance is the face distance for FaceVerificationFailed and the
	// distance in meters for OutsideGeofence. Nil otherwise.
	Distance *float64
	// RadiusMeters is set for OutsideGeofence.
	RadiusMeters *float64

	Err error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches another *Error of the same Kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind && t.Message == "" && t.Err == nil
}

// KindOf returns the Kind of err, or "" if err is not an *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

func newError(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Message: msg}
}

func invalidInput(format string, args ...any) *Error {
	return &Error{Kind: KindInvalidInput, Message: fmt.Sprintf(format, args...)}
}

func storageUnavailable(op string, err error) *Error {
	return &Error{Kind: KindStorageUnavailable, Message: op + " failed", Err: err}
}

func faceVerificationFailed(distance float64) *Error {
	e := newError(KindFaceVerificationFailed, "face verification failed")
	// +Inf is not representable in JSON; a missing distance means "no comparable descriptor".
	if !math.IsInf(distance, 0) && !math.IsNaN(distance) {
		e.Distance = &distance
	}
	return e
}

func outsideGeofence(distance, radius float64) *Error {
	e := newError(KindOutsideGeofence,
		fmt.Sprintf("you are %.0f meters away from the office location, must be within %.0f meters", distance, radius))
	e.Distance = &distance
	e.RadiusMeters = &radius
	return e
}

// Sentinels for errors.Is checks against a Kind.
var (
	ErrInvalidInput           = &Error{Kind: KindInvalidInput}
	ErrUserNotFound           = &Error{Kind: KindUserNotFound}
	ErrNoCompanyAssociation   = &Error{Kind: KindNoCompanyAssociation}
	ErrRoleNotAllowed         = &Error{Kind: KindRoleNotAllowed}
	ErrFaceVerificationFailed = &Error{Kind: KindFaceVerificationFailed}
	ErrOutsideGeofence        = &Error{Kind: KindOutsideGeofence}
	ErrNoGeofenceConfigured   = &Error{Kind: KindNoGeofenceConfigured}
	ErrAlreadyCheckedIn       = &Error{Kind: KindAlreadyCheckedIn}
	ErrAlreadyCheckedOut      = &Error{Kind: KindAlreadyCheckedOut}
	ErrNoActiveCheckIn        = &Error{Kind: KindNoActiveCheckIn}
	ErrStorageUnavailable     = &Error{Kind: KindStorageUnavailable}
)

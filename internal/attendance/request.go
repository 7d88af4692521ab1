package attendance

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/kozaktomas/attendance/internal/geofence"
)

// CheckInRequest is the input of Service.CheckIn.
type CheckInRequest struct {
	UserID    string   `json:"user_id" validate:"required,max=64"`
	Latitude  *float64 `json:"latitude" validate:"required,latitude"`
	Longitude *float64 `json:"longitude" validate:"required,longitude"`
	// FaceDescriptor is kept raw so a malformed descriptor is reported as a
	// failed verification rather than a decoding error.
	FaceDescriptor json.RawMessage `json:"face_descriptor"`
}

// CheckOutRequest is the input of Service.CheckOut. Coordinates are optional
// but must come as a valid pair when present.
type CheckOutRequest struct {
	UserID      string   `json:"user_id" validate:"required,max=64"`
	Latitude    *float64 `json:"latitude" validate:"omitempty,latitude"`
	Longitude   *float64 `json:"longitude" validate:"omitempty,longitude"`
	HoursWorked string   `json:"hours_worked" validate:"max=32"`
}

// GeofenceRequest is the input of Service.ConfigureGeofence.
type GeofenceRequest struct {
	AdminID      string   `json:"admin_id" validate:"required,max=64"`
	Latitude     *float64 `json:"latitude" validate:"required,latitude"`
	Longitude    *float64 `json:"longitude" validate:"required,longitude"`
	RadiusMeters *int     `json:"radius_meters" validate:"omitempty,min=1,max=100000"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// validateUserID checks only the user_id field of req, so identity gates can
// run before coordinates are looked at.
func validateUserID(req any) error {
	if err := validate.StructPartial(req, "UserID"); err != nil {
		return invalidInput("%s", FormatValidationError(err))
	}
	return nil
}

// validateRequest runs struct validation and reports failures as InvalidInput.
func validateRequest(req any) error {
	if err := validate.Struct(req); err != nil {
		return invalidInput("%s", FormatValidationError(err))
	}
	return nil
}

// FormatValidationError renders decoding and validation errors as a single
// human-readable line.
func FormatValidationError(err error) string {
	if err == nil {
		return ""
	}

	var syntaxErr *json.SyntaxError
	if errors.As(err, &syntaxErr) {
		return fmt.Sprintf("Invalid JSON at byte offset %d", syntaxErr.Offset)
	}

	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		return fmt.Sprintf("Field '%s' should be of type %s", typeErr.Field, typeErr.Type.String())
	}

	var ve validator.ValidationErrors
	if errors.As(err, &ve) {
		out := make([]string, 0, len(ve))
		for _, fe := range ve {
			out = append(out, formatFieldError(fe))
		}
		return strings.Join(out, ", ")
	}

	return err.Error()
}

func formatFieldError(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("Field '%s' is required", fe.Field())
	case "latitude":
		return fmt.Sprintf("Field '%s' must be a latitude between -90 and 90", fe.Field())
	case "longitude":
		return fmt.Sprintf("Field '%s' must be a longitude between -180 and 180", fe.Field())
	case "min":
		return fmt.Sprintf("Field '%s' must be at least %s", fe.Field(), fe.Param())
	case "max":
		return fmt.Sprintf("Field '%s' must be at most %s", fe.Field(), fe.Param())
	}
	return fmt.Sprintf("Field '%s' failed validation for '%s'", fe.Field(), fe.Tag())
}

// point builds a validated geofence.Point from optional coordinates.
// Returns nil when both coordinates are absent.
func point(lat, lon *float64) (*geofence.Point, error) {
	if lat == nil && lon == nil {
		return nil, nil
	}
	if lat == nil || lon == nil {
		return nil, invalidInput("latitude and longitude must be given together")
	}
	p := geofence.Point{Latitude: *lat, Longitude: *lon}
	if err := p.Validate(); err != nil {
		return nil, invalidInput("%v", err)
	}
	return &p, nil
}

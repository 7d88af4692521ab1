package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/kozaktomas/attendance/internal/attendance"
	"github.com/kozaktomas/attendance/internal/constants"
	"go.uber.org/zap"
)

// errInvalidRequestBody is a shared error message for invalid JSON request bodies.
const errInvalidRequestBody = "invalid request body"

// sanitizeForLog removes newlines and carriage returns to prevent log injection.
func sanitizeForLog(s string) string {
	return strings.NewReplacer("\n", "", "\r", "").Replace(s)
}

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error        string   `json:"error"`
	Kind         string   `json:"kind,omitempty"`
	Distance     *float64 `json:"distance,omitempty"`
	RadiusMeters *float64 `json:"radius_meters,omitempty"`
}

// respondJSON sends a JSON response.
func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

// respondError sends an error response.
func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, ErrorResponse{Error: message})
}

// statusForKind maps a rejection kind to its HTTP status.
func statusForKind(kind attendance.Kind) int {
	switch kind {
	case attendance.KindInvalidInput, attendance.KindNoCompanyAssociation, attendance.KindNoGeofenceConfigured:
		return http.StatusBadRequest
	case attendance.KindRoleNotAllowed:
		return http.StatusForbidden
	case attendance.KindUserNotFound:
		return http.StatusNotFound
	case attendance.KindAlreadyCheckedIn, attendance.KindAlreadyCheckedOut, attendance.KindNoActiveCheckIn:
		return http.StatusConflict
	case attendance.KindFaceVerificationFailed, attendance.KindOutsideGeofence:
		return http.StatusUnprocessableEntity
	case attendance.KindStorageUnavailable:
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

// respondServiceError writes err returned by the attendance service.
// Storage failures are logged with their cause and reported without it.
func respondServiceError(w http.ResponseWriter, logger *zap.Logger, err error) {
	var svcErr *attendance.Error
	if !errors.As(err, &svcErr) {
		logger.Error("unexpected service error", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}

	status := statusForKind(svcErr.Kind)
	msg := svcErr.Error()
	if svcErr.Kind == attendance.KindStorageUnavailable {
		logger.Error("storage unavailable", zap.Error(err))
		msg = "storage unavailable, try again later"
	}
	respondJSON(w, status, ErrorResponse{
		Error:        msg,
		Kind:         string(svcErr.Kind),
		Distance:     svcErr.Distance,
		RadiusMeters: svcErr.RadiusMeters,
	})
}

// decodeJSON reads a size-limited JSON body into dst. On failure it writes
// a 400 response and returns false.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, constants.MaxRequestBodySize)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		var msg string
		var maxErr *http.MaxBytesError
		switch {
		case errors.As(err, &maxErr):
			msg = fmt.Sprintf("request body exceeds %d bytes", maxErr.Limit)
		case errors.Is(err, io.EOF):
			msg = "request body is empty"
		default:
			msg = errInvalidRequestBody + ": " + attendance.FormatValidationError(err)
		}
		respondJSON(w, http.StatusBadRequest, ErrorResponse{
			Error: msg,
			Kind:  string(attendance.KindInvalidInput),
		})
		return false
	}
	return true
}

// HealthCheck handles the health check endpoint.
func HealthCheck(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status": "ok",
	})
}

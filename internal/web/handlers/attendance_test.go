package handlers

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/kozaktomas/attendance/internal/attendance"
	"github.com/kozaktomas/attendance/internal/database"
)

func postCheckIn(env *testEnv, t *testing.T, body any) *httptest.ResponseRecorder {
	t.Helper()
	handler := NewAttendanceHandler(env.service, testLogger())
	req := httptest.NewRequest(http.MethodPost, "/api/v1/attendance/checkin", jsonBody(t, body))
	recorder := httptest.NewRecorder()
	handler.CheckIn(recorder, req)
	return recorder
}

func postCheckOut(env *testEnv, t *testing.T, body any) *httptest.ResponseRecorder {
	t.Helper()
	handler := NewAttendanceHandler(env.service, testLogger())
	req := httptest.NewRequest(http.MethodPost, "/api/v1/attendance/checkout", jsonBody(t, body))
	recorder := httptest.NewRecorder()
	handler.CheckOut(recorder, req)
	return recorder
}

func checkInPayload(userID string) map[string]any {
	return map[string]any{
		"user_id":         userID,
		"latitude":        testLat,
		"longitude":       testLon,
		"face_descriptor": testDescriptor(),
	}
}

func TestAttendanceHandler_CheckIn_Success(t *testing.T) {
	env := newTestEnv(t)

	recorder := postCheckIn(env, t, checkInPayload("u1"))

	assertStatusCode(t, recorder, http.StatusCreated)
	assertContentType(t, recorder, "application/json")

	var result AttendanceResponse
	parseJSONResponse(t, recorder, &result)
	if result.Attendance == nil {
		t.Fatal("expected attendance in response")
	}
	if !result.Attendance.IsTracking {
		t.Error("expected record to be tracking")
	}
	if result.Attendance.Date != "2026-03-02" {
		t.Errorf("expected date 2026-03-02, got %s", result.Attendance.Date)
	}
	if result.Attendance.Status != string(database.StatusPresent) {
		t.Errorf("expected status present, got %s", result.Attendance.Status)
	}
	if env.records.Count() != 1 {
		t.Errorf("expected 1 stored record, got %d", env.records.Count())
	}
}

func TestAttendanceHandler_CheckIn_Twice(t *testing.T) {
	env := newTestEnv(t)

	first := postCheckIn(env, t, checkInPayload("u1"))
	assertStatusCode(t, first, http.StatusCreated)

	second := postCheckIn(env, t, checkInPayload("u1"))
	assertStatusCode(t, second, http.StatusConflict)
	assertErrorKind(t, second, attendance.KindAlreadyCheckedIn)
}

func TestAttendanceHandler_CheckIn_Rejections(t *testing.T) {
	farFace := make([]float32, database.FaceDescriptorDim)
	for i := range farFace {
		farFace[i] = 5
	}

	tests := []struct {
		name   string
		body   map[string]any
		status int
		kind   attendance.Kind
	}{
		{
			name:   "unknown user",
			body:   checkInPayload("ghost"),
			status: http.StatusNotFound,
			kind:   attendance.KindUserNotFound,
		},
		{
			name:   "admin",
			body:   checkInPayload("admin1"),
			status: http.StatusForbidden,
			kind:   attendance.KindRoleNotAllowed,
		},
		{
			name:   "missing latitude",
			body:   map[string]any{"user_id": "u1", "longitude": testLon, "face_descriptor": testDescriptor()},
			status: http.StatusBadRequest,
			kind:   attendance.KindInvalidInput,
		},
		{
			name:   "face mismatch",
			body:   map[string]any{"user_id": "u1", "latitude": testLat, "longitude": testLon, "face_descriptor": farFace},
			status: http.StatusUnprocessableEntity,
			kind:   attendance.KindFaceVerificationFailed,
		},
		{
			name:   "outside geofence",
			body:   map[string]any{"user_id": "u1", "latitude": testLat + 0.01, "longitude": testLon, "face_descriptor": testDescriptor()},
			status: http.StatusUnprocessableEntity,
			kind:   attendance.KindOutsideGeofence,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			env := newTestEnv(t)

			recorder := postCheckIn(env, t, tc.body)

			assertStatusCode(t, recorder, tc.status)
			assertErrorKind(t, recorder, tc.kind)
			if env.records.Count() != 0 {
				t.Errorf("expected no stored record, got %d", env.records.Count())
			}
		})
	}
}

func TestAttendanceHandler_CheckIn_OutsideGeofenceReportsDistance(t *testing.T) {
	env := newTestEnv(t)
	body := checkInPayload("u1")
	body["latitude"] = testLat + 0.01

	recorder := postCheckIn(env, t, body)

	result := assertErrorKind(t, recorder, attendance.KindOutsideGeofence)
	if result.Distance == nil || *result.Distance < 1000 || *result.Distance > 1200 {
		t.Errorf("expected distance around 1112m, got %v", result.Distance)
	}
	if result.RadiusMeters == nil || *result.RadiusMeters != 100 {
		t.Errorf("expected radius 100, got %v", result.RadiusMeters)
	}
}

func TestAttendanceHandler_CheckIn_StorageUnavailable(t *testing.T) {
	env := newTestEnv(t)
	env.records.GetError = errors.New("connection refused")

	recorder := postCheckIn(env, t, checkInPayload("u1"))

	assertStatusCode(t, recorder, http.StatusServiceUnavailable)
	assertErrorKind(t, recorder, attendance.KindStorageUnavailable)
}

func TestAttendanceHandler_CheckOut_Success(t *testing.T) {
	env := newTestEnv(t)
	assertStatusCode(t, postCheckIn(env, t, checkInPayload("u1")), http.StatusCreated)

	env.now = env.now.Add(7*time.Hour + 30*time.Minute)
	recorder := postCheckOut(env, t, map[string]any{"user_id": "u1"})

	assertStatusCode(t, recorder, http.StatusOK)
	var result AttendanceResponse
	parseJSONResponse(t, recorder, &result)
	if result.Attendance == nil {
		t.Fatal("expected attendance in response")
	}
	if result.Attendance.IsTracking {
		t.Error("expected tracking to stop")
	}
	if result.Attendance.HoursWorked != "7h 30m" {
		t.Errorf("expected hours '7h 30m', got '%s'", result.Attendance.HoursWorked)
	}
	if result.Attendance.Status != string(database.StatusComplete) {
		t.Errorf("expected status complete, got %s", result.Attendance.Status)
	}
}

func TestAttendanceHandler_CheckOut_WithHint(t *testing.T) {
	env := newTestEnv(t)
	assertStatusCode(t, postCheckIn(env, t, checkInPayload("u1")), http.StatusCreated)

	env.now = env.now.Add(2 * time.Hour)
	recorder := postCheckOut(env, t, map[string]any{"user_id": "u1", "hours_worked": "1h 45m"})

	assertStatusCode(t, recorder, http.StatusOK)
	var result AttendanceResponse
	parseJSONResponse(t, recorder, &result)
	if result.Attendance.HoursWorked != "1h 45m" {
		t.Errorf("expected hint to be used, got '%s'", result.Attendance.HoursWorked)
	}
}

func TestAttendanceHandler_CheckOut_Conflicts(t *testing.T) {
	env := newTestEnv(t)

	noCheckIn := postCheckOut(env, t, map[string]any{"user_id": "u1"})
	assertStatusCode(t, noCheckIn, http.StatusConflict)
	assertErrorKind(t, noCheckIn, attendance.KindNoActiveCheckIn)

	assertStatusCode(t, postCheckIn(env, t, checkInPayload("u1")), http.StatusCreated)
	env.now = env.now.Add(time.Hour)
	assertStatusCode(t, postCheckOut(env, t, map[string]any{"user_id": "u1"}), http.StatusOK)

	again := postCheckOut(env, t, map[string]any{"user_id": "u1"})
	assertStatusCode(t, again, http.StatusConflict)
	assertErrorKind(t, again, attendance.KindAlreadyCheckedOut)
}

func TestAttendanceHandler_Today(t *testing.T) {
	env := newTestEnv(t)
	handler := NewAttendanceHandler(env.service, testLogger())

	req := httptest.NewRequest(http.MethodGet, "/api/v1/attendance/today?user_id=u1", nil)
	recorder := httptest.NewRecorder()
	handler.Today(recorder, req)

	assertStatusCode(t, recorder, http.StatusOK)
	if recorder.Body.String() != `{"attendance":null}`+"\n" {
		t.Errorf("expected null attendance, got %s", recorder.Body.String())
	}

	assertStatusCode(t, postCheckIn(env, t, checkInPayload("u1")), http.StatusCreated)
	env.now = env.now.Add(90 * time.Minute)

	recorder = httptest.NewRecorder()
	handler.Today(recorder, httptest.NewRequest(http.MethodGet, "/api/v1/attendance/today?user_id=u1", nil))

	var result AttendanceResponse
	parseJSONResponse(t, recorder, &result)
	if result.Attendance == nil {
		t.Fatal("expected today's record")
	}
	if result.Attendance.HoursWorked != "1h 30m" {
		t.Errorf("expected live estimate '1h 30m', got '%s'", result.Attendance.HoursWorked)
	}
}

func TestAttendanceHandler_Today_MissingUserID(t *testing.T) {
	env := newTestEnv(t)
	handler := NewAttendanceHandler(env.service, testLogger())

	recorder := httptest.NewRecorder()
	handler.Today(recorder, httptest.NewRequest(http.MethodGet, "/api/v1/attendance/today", nil))

	assertStatusCode(t, recorder, http.StatusBadRequest)
	assertErrorKind(t, recorder, attendance.KindInvalidInput)
}

func TestAttendanceHandler_Active(t *testing.T) {
	env := newTestEnv(t)
	handler := NewAttendanceHandler(env.service, testLogger())
	assertStatusCode(t, postCheckIn(env, t, checkInPayload("u1")), http.StatusCreated)

	recorder := httptest.NewRecorder()
	handler.Active(recorder, httptest.NewRequest(http.MethodGet, "/api/v1/attendance/active?user_id=u1", nil))

	assertStatusCode(t, recorder, http.StatusOK)
	var result AttendanceResponse
	parseJSONResponse(t, recorder, &result)
	if result.Attendance == nil || !result.Attendance.IsTracking {
		t.Errorf("expected an active record, got %+v", result.Attendance)
	}
}

func TestAttendanceHandler_History(t *testing.T) {
	env := newTestEnv(t)
	handler := NewAttendanceHandler(env.service, testLogger())
	for _, date := range []string{"2026-02-27", "2026-02-28", "2026-03-01"} {
		env.records.AddRecord(database.AttendanceRecord{
			UserID: "u1", CompanyCode: testCompany, Date: date, Status: database.StatusComplete,
		})
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/attendance/users/u1?limit=2", nil)
	req = requestWithChiParams(req, map[string]string{"userID": "u1"})
	recorder := httptest.NewRecorder()
	handler.History(recorder, req)

	assertStatusCode(t, recorder, http.StatusOK)
	var result HistoryResponse
	parseJSONResponse(t, recorder, &result)
	if result.Count != 2 {
		t.Fatalf("expected 2 records, got %d", result.Count)
	}
	if result.Records[0].Date != "2026-03-01" {
		t.Errorf("expected newest first, got %s", result.Records[0].Date)
	}
}

func TestAttendanceHandler_History_InvalidLimit(t *testing.T) {
	env := newTestEnv(t)
	handler := NewAttendanceHandler(env.service, testLogger())

	req := httptest.NewRequest(http.MethodGet, "/api/v1/attendance/users/u1?limit=abc", nil)
	req = requestWithChiParams(req, map[string]string{"userID": "u1"})
	recorder := httptest.NewRecorder()
	handler.History(recorder, req)

	assertStatusCode(t, recorder, http.StatusBadRequest)
}

func TestAttendanceHandler_CompanyDay(t *testing.T) {
	env := newTestEnv(t)
	handler := NewAttendanceHandler(env.service, testLogger())
	env.users.AddUser(database.StoredUser{ID: "u2", Role: database.RoleUser, CompanyCode: testCompany})
	assertStatusCode(t, postCheckIn(env, t, checkInPayload("u1")), http.StatusCreated)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/attendance/companies/acme", nil)
	req = requestWithChiParams(req, map[string]string{"companyCode": "acme"})
	recorder := httptest.NewRecorder()
	handler.CompanyDay(recorder, req)

	assertStatusCode(t, recorder, http.StatusOK)
	var result CompanyDayResponse
	parseJSONResponse(t, recorder, &result)
	if result.CompanyCode != testCompany {
		t.Errorf("expected normalized company code, got %s", result.CompanyCode)
	}
	if result.Date != "2026-03-02" {
		t.Errorf("expected today's date, got %s", result.Date)
	}
	if result.Present != 1 || result.Absent != 1 {
		t.Errorf("expected 1 present and 1 absent, got %d and %d", result.Present, result.Absent)
	}
	if len(result.Records) != 2 {
		t.Fatalf("expected 2 records (admin excluded), got %d", len(result.Records))
	}
}

func TestAttendanceHandler_CompanyDay_InvalidDate(t *testing.T) {
	env := newTestEnv(t)
	handler := NewAttendanceHandler(env.service, testLogger())

	req := httptest.NewRequest(http.MethodGet, "/api/v1/attendance/companies/ACME?date=02-03-2026", nil)
	req = requestWithChiParams(req, map[string]string{"companyCode": "ACME"})
	recorder := httptest.NewRecorder()
	handler.CompanyDay(recorder, req)

	assertStatusCode(t, recorder, http.StatusBadRequest)
	assertErrorKind(t, recorder, attendance.KindInvalidInput)
}

func TestAttendanceHandler_CheckIn_AdminWithoutCoordinates(t *testing.T) {
	env := newTestEnv(t)

	recorder := postCheckIn(env, t, map[string]any{"user_id": "admin1"})

	assertStatusCode(t, recorder, http.StatusForbidden)
	assertErrorKind(t, recorder, attendance.KindRoleNotAllowed)
}

func TestAttendanceHandler_CheckOut_UnknownUser(t *testing.T) {
	env := newTestEnv(t)

	recorder := postCheckOut(env, t, map[string]any{"user_id": "ghost"})

	assertStatusCode(t, recorder, http.StatusConflict)
	assertErrorKind(t, recorder, attendance.KindNoActiveCheckIn)
}

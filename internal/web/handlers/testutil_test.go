package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/kozaktomas/attendance/internal/attendance"
	"github.com/kozaktomas/attendance/internal/database"
	"github.com/kozaktomas/attendance/internal/database/mock"
	"go.uber.org/zap"
)

var testZone = time.FixedZone("UTC+05:30", 5*3600+30*60)

// testNow is 10:00 civil time on 2026-03-02.
var testNow = time.Date(2026, 3, 2, 10, 0, 0, 0, testZone)

const (
	testCompany = "ACME"
	testLat     = 12.9716
	testLon     = 77.5946
)

// testEnv bundles a service backed by in-memory stores.
type testEnv struct {
	service   *attendance.Service
	users     *mock.MockUserStore
	geofences *mock.MockGeofenceStore
	records   *mock.MockAttendanceStore
	now       time.Time
}

func testLogger() *zap.Logger {
	return zap.NewNop()
}

func testDescriptor() []float32 {
	d := make([]float32, database.FaceDescriptorDim)
	for i := range d {
		d[i] = float32(i%5) / 10
	}
	return d
}

// newTestEnv creates a service with one admin, one user and a geofence for testCompany.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	env := &testEnv{
		users:     mock.NewMockUserStore(),
		geofences: mock.NewMockGeofenceStore(),
		records:   mock.NewMockAttendanceStore(),
		now:       testNow,
	}
	env.users.AddUser(database.StoredUser{
		ID: "admin1", Email: "admin@acme.test", Role: database.RoleAdmin, CompanyCode: testCompany,
	})
	env.users.AddUser(database.StoredUser{
		ID: "u1", Email: "asha@acme.test", Role: database.RoleUser, CompanyCode: testCompany,
		FaceDescriptor: testDescriptor(),
	})
	env.geofences.AddGeofence(database.StoredGeofence{
		ID: 1, AdminID: "admin1", CompanyCode: testCompany,
		Latitude: testLat, Longitude: testLon, RadiusMeters: 100,
	})

	clock := attendance.NewCivilClock(testZone, func() time.Time { return env.now })
	env.service = attendance.NewService(env.users, env.geofences, env.records,
		attendance.WithClock(clock),
		attendance.WithLogger(testLogger()),
	)
	return env
}

func jsonBody(t *testing.T, v any) *bytes.Reader {
	t.Helper()
	b, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("failed to marshal request body: %v", err)
	}
	return bytes.NewReader(b)
}

// requestWithChiParams creates a request with chi URL parameters
func requestWithChiParams(r *http.Request, params map[string]string) *http.Request {
	rctx := chi.NewRouteContext()
	for key, value := range params {
		rctx.URLParams.Add(key, value)
	}
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// parseJSONResponse parses a JSON response body into the target type
func parseJSONResponse(t *testing.T, recorder *httptest.ResponseRecorder, target any) {
	t.Helper()
	if err := json.Unmarshal(recorder.Body.Bytes(), target); err != nil {
		t.Fatalf("failed to parse JSON response: %v\nBody: %s", err, recorder.Body.String())
	}
}

// assertStatusCode checks if the response has the expected status code
func assertStatusCode(t *testing.T, recorder *httptest.ResponseRecorder, expected int) {
	t.Helper()
	if recorder.Code != expected {
		t.Errorf("expected status %d, got %d\nBody: %s", expected, recorder.Code, recorder.Body.String())
	}
}

// assertContentType checks if the response has the expected content type
func assertContentType(t *testing.T, recorder *httptest.ResponseRecorder, expected string) {
	t.Helper()
	ct := recorder.Header().Get("Content-Type")
	if ct != expected {
		t.Errorf("expected Content-Type '%s', got '%s'", expected, ct)
	}
}

// assertErrorKind checks that the response is a JSON error of the given kind
func assertErrorKind(t *testing.T, recorder *httptest.ResponseRecorder, expected attendance.Kind) ErrorResponse {
	t.Helper()
	var result ErrorResponse
	parseJSONResponse(t, recorder, &result)
	if result.Kind != string(expected) {
		t.Errorf("expected kind '%s', got '%s' (error: %s)", expected, result.Kind, result.Error)
	}
	return result
}

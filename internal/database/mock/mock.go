// Package mock provides mock implementations of database interfaces for testing.
package mock

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/kozaktomas/attendance/internal/database"
)

// MockUserStore is a mock implementation of database.UserWriter
type MockUserStore struct {
	mu    sync.RWMutex
	users map[string]*database.StoredUser

	// Error injection
	GetUserError  error
	ListError     error
	SaveUserError error
}

// NewMockUserStore creates a new mock user store
func NewMockUserStore() *MockUserStore {
	return &MockUserStore{
		users: make(map[string]*database.StoredUser),
	}
}

// AddUser adds a user to the mock store
func (m *MockUserStore) AddUser(user database.StoredUser) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[user.ID] = &user
}

// GetUser retrieves a user by ID
func (m *MockUserStore) GetUser(ctx context.Context, id string) (*database.StoredUser, error) {
	if m.GetUserError != nil {
		return nil, m.GetUserError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	user, ok := m.users[id]
	if !ok {
		return nil, nil
	}
	cp := *user
	return &cp, nil
}

// ListUsersByCompany returns all users of a tenant ordered by ID
func (m *MockUserStore) ListUsersByCompany(ctx context.Context, companyCode string) ([]database.StoredUser, error) {
	if m.ListError != nil {
		return nil, m.ListError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var result []database.StoredUser
	for _, u := range m.users {
		if u.CompanyCode == companyCode {
			result = append(result, *u)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

// SaveUser inserts or updates a user
func (m *MockUserStore) SaveUser(ctx context.Context, user *database.StoredUser) error {
	if m.SaveUserError != nil {
		return m.SaveUserError
	}
	m.AddUser(*user)
	return nil
}

// MockGeofenceStore is a mock implementation of database.GeofenceWriter
type MockGeofenceStore struct {
	mu     sync.RWMutex
	fences map[string]*database.StoredGeofence
	nextID int64

	// Error injection
	GetError  error
	SaveError error
}

// NewMockGeofenceStore creates a new mock geofence store
func NewMockGeofenceStore() *MockGeofenceStore {
	return &MockGeofenceStore{
		fences: make(map[string]*database.StoredGeofence),
	}
}

// AddGeofence adds a geofence to the mock store
func (m *MockGeofenceStore) AddGeofence(fence database.StoredGeofence) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fences[fence.CompanyCode] = &fence
}

// GetGeofence retrieves the geofence of a tenant
func (m *MockGeofenceStore) GetGeofence(ctx context.Context, companyCode string) (*database.StoredGeofence, error) {
	if m.GetError != nil {
		return nil, m.GetError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	fence, ok := m.fences[companyCode]
	if !ok {
		return nil, nil
	}
	cp := *fence
	return &cp, nil
}

// SaveGeofence inserts or replaces a tenant's geofence
func (m *MockGeofenceStore) SaveGeofence(ctx context.Context, fence *database.StoredGeofence) (*database.StoredGeofence, error) {
	if m.SaveError != nil {
		return nil, m.SaveError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	saved := *fence
	if existing, ok := m.fences[fence.CompanyCode]; ok {
		saved.ID = existing.ID
		saved.CreatedAt = existing.CreatedAt
	} else {
		m.nextID++
		saved.ID = m.nextID
		saved.CreatedAt = time.Now()
	}
	if saved.RadiusMeters == 0 {
		saved.RadiusMeters = database.DefaultGeofenceRadiusMeters
	}
	m.fences[fence.CompanyCode] = &saved
	cp := saved
	return &cp, nil
}

type recordKey struct {
	userID string
	date   string
}

// MockAttendanceStore is a mock implementation of database.AttendanceWriter.
// Transitions are serialized by a single mutex.
type MockAttendanceStore struct {
	mu      sync.Mutex
	records map[recordKey]*database.AttendanceRecord
	nextID  int64

	// Error injection
	GetError      error
	ListError     error
	InsertError   error
	CheckOutError error
}

// NewMockAttendanceStore creates a new mock attendance store
func NewMockAttendanceStore() *MockAttendanceStore {
	return &MockAttendanceStore{
		records: make(map[recordKey]*database.AttendanceRecord),
	}
}

// AddRecord adds a record to the mock store, replacing any record of the same (user, date)
func (m *MockAttendanceStore) AddRecord(rec database.AttendanceRecord) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if rec.ID == 0 {
		m.nextID++
		rec.ID = m.nextID
	}
	m.records[recordKey{rec.UserID, rec.Date}] = &rec
}

// Count returns the number of stored records
func (m *MockAttendanceStore) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.records)
}

// GetRecordForDay retrieves the record of a user for a civil date
func (m *MockAttendanceStore) GetRecordForDay(ctx context.Context, userID, date string) (*database.AttendanceRecord, error) {
	if m.GetError != nil {
		return nil, m.GetError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.records[recordKey{userID, date}]
	if !ok {
		return nil, nil
	}
	cp := *rec
	return &cp, nil
}

// GetActiveRecord retrieves the tracking record of a user
func (m *MockAttendanceStore) GetActiveRecord(ctx context.Context, userID string) (*database.AttendanceRecord, error) {
	if m.GetError != nil {
		return nil, m.GetError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var active *database.AttendanceRecord
	for key, rec := range m.records {
		if key.userID == userID && rec.IsTracking && (active == nil || rec.Date > active.Date) {
			active = rec
		}
	}
	if active == nil {
		return nil, nil
	}
	cp := *active
	return &cp, nil
}

// ListForCompanyAndDate returns a tenant's records for one date ordered by user ID
func (m *MockAttendanceStore) ListForCompanyAndDate(ctx context.Context, companyCode, date string) ([]database.AttendanceRecord, error) {
	return m.filter(func(rec *database.AttendanceRecord) bool {
		return rec.CompanyCode == companyCode && rec.Date == date
	}, 0)
}

// ListForCompany returns all records of a tenant, newest date first
func (m *MockAttendanceStore) ListForCompany(ctx context.Context, companyCode string) ([]database.AttendanceRecord, error) {
	return m.filter(func(rec *database.AttendanceRecord) bool {
		return rec.CompanyCode == companyCode
	}, 0)
}

// ListForUser returns up to limit records of a user, newest date first
func (m *MockAttendanceStore) ListForUser(ctx context.Context, userID string, limit int) ([]database.AttendanceRecord, error) {
	return m.filter(func(rec *database.AttendanceRecord) bool {
		return rec.UserID == userID
	}, limit)
}

func (m *MockAttendanceStore) filter(keep func(*database.AttendanceRecord) bool, limit int) ([]database.AttendanceRecord, error) {
	if m.ListError != nil {
		return nil, m.ListError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []database.AttendanceRecord
	for _, rec := range m.records {
		if keep(rec) {
			result = append(result, *rec)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Date != result[j].Date {
			return result[i].Date > result[j].Date
		}
		return result[i].UserID < result[j].UserID
	})
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

// InsertCheckIn performs NoRecord -> CheckedIn and closes records of earlier
// days still tracking as incomplete
func (m *MockAttendanceStore) InsertCheckIn(ctx context.Context, rec *database.AttendanceRecord) (*database.AttendanceRecord, error) {
	if m.InsertError != nil {
		return nil, m.InsertError
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	key := recordKey{rec.UserID, rec.Date}
	existing := m.records[key]
	if err := database.CanCheckIn(existing); err != nil {
		return nil, err
	}

	saved := *rec
	now := time.Now()
	if existing != nil {
		saved.ID = existing.ID
		saved.CreatedAt = existing.CreatedAt
	} else {
		m.nextID++
		saved.ID = m.nextID
		saved.CreatedAt = now
	}
	saved.UpdatedAt = now
	m.records[key] = &saved

	for k, other := range m.records {
		if k.userID == rec.UserID && k.date < rec.Date && other.IsTracking {
			other.MarkIncomplete()
			other.UpdatedAt = now
		}
	}

	cp := saved
	return &cp, nil
}

// CompleteCheckOut performs CheckedIn -> CheckedOut
func (m *MockAttendanceStore) CompleteCheckOut(ctx context.Context, userID, date string, out database.CheckOut) (*database.AttendanceRecord, error) {
	if m.CheckOutError != nil {
		return nil, m.CheckOutError
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	existing, ok := m.records[recordKey{userID, date}]
	if !ok {
		return nil, database.ErrNoActiveCheckIn
	}

	updated := *existing
	if err := updated.ApplyCheckOut(out); err != nil {
		return nil, err
	}
	updated.UpdatedAt = time.Now()
	*existing = updated

	cp := updated
	return &cp, nil
}

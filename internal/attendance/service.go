// Package attendance implements the check-in and check-out decision procedure:
// identity and role gates, face verification, geofence verification and the
// per-day attendance state machine, with best-effort change notifications.
package attendance

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/kozaktomas/attendance/internal/constants"
	"github.com/kozaktomas/attendance/internal/database"
	"github.com/kozaktomas/attendance/internal/facematch"
	"github.com/kozaktomas/attendance/internal/geofence"
	"go.uber.org/zap"
)

const notifyTimeout = 2 * time.Second

// Policy holds the tunable parameters of the decision procedure.
type Policy struct {
	FaceThreshold        float64 `json:"face_threshold"`
	DescriptorDim        int     `json:"descriptor_dim"`
	DefaultRadiusMeters  int     `json:"default_radius_meters"`
	AllowWithoutGeofence bool    `json:"allow_check_in_without_geofence"`
	HistoryLimit         int     `json:"history_limit"`
}

// DefaultPolicy returns the production defaults.
func DefaultPolicy() Policy {
	return Policy{
		FaceThreshold:        facematch.DefaultThreshold,
		DescriptorDim:        facematch.DefaultDimension,
		DefaultRadiusMeters:  database.DefaultGeofenceRadiusMeters,
		AllowWithoutGeofence: true,
		HistoryLimit:         constants.DefaultHistoryLimit,
	}
}

// Service orchestrates check-in and check-out.
type Service struct {
	users     database.UserReader
	geofences database.GeofenceWriter
	records   database.AttendanceWriter
	clock     Clock
	policy    Policy
	notifier  Notifier
	logger    *zap.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithClock sets the clock used for timestamps and civil dates.
func WithClock(c Clock) Option {
	return func(s *Service) { s.clock = c }
}

// WithPolicy overrides DefaultPolicy.
func WithPolicy(p Policy) Option {
	return func(s *Service) { s.policy = p }
}

// WithNotifier sets the change notification sink.
func WithNotifier(n Notifier) Option {
	return func(s *Service) { s.notifier = n }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// NewService creates a Service. Without options it uses the +05:30 civil
// clock, DefaultPolicy, no notifications and a no-op logger.
func NewService(users database.UserReader, geofences database.GeofenceWriter, records database.AttendanceWriter, opts ...Option) *Service {
	loc, _ := ParseOffset(DefaultCivilOffset)
	s := &Service{
		users:     users,
		geofences: geofences,
		records:   records,
		clock:     NewCivilClock(loc, nil),
		policy:    DefaultPolicy(),
		notifier:  NopNotifier{},
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Policy returns the active policy.
func (s *Service) Policy() Policy {
	return s.policy
}

// Location returns the civil zone records are presented in.
func (s *Service) Location() *time.Location {
	return s.clock.Location()
}

// Now returns the current civil time.
func (s *Service) Now() time.Time {
	return s.clock.Now()
}

// Today returns the current civil date.
func (s *Service) Today() string {
	return CivilDate(s.clock.Now(), s.clock.Location())
}

// CheckIn verifies identity, face and location and performs NoRecord -> CheckedIn
// for the current civil day. The first failing gate aborts without mutation.
func (s *Service) CheckIn(ctx context.Context, req CheckInRequest) (*database.AttendanceRecord, error) {
	if err := validateUserID(req); err != nil {
		return nil, err
	}

	user, err := s.loadUser(ctx, req.UserID)
	if err != nil {
		return nil, err
	}
	if user.Role == database.RoleAdmin {
		return nil, newError(KindRoleNotAllowed, "admins cannot check in")
	}
	companyCode := NormalizeCompanyCode(user.CompanyCode)
	if companyCode == "" {
		return nil, newError(KindNoCompanyAssociation, "user is not associated with a company")
	}

	if err := validateRequest(req); err != nil {
		return nil, err
	}
	at, err := point(req.Latitude, req.Longitude)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	date := CivilDate(now, s.clock.Location())

	existing, err := s.records.GetRecordForDay(ctx, user.ID, date)
	if err != nil {
		return nil, storageUnavailable("load attendance", err)
	}
	if err := database.CanCheckIn(existing); err != nil {
		return nil, newError(KindAlreadyCheckedIn, "already checked in today")
	}

	if err := s.verifyFace(user, req.FaceDescriptor); err != nil {
		return nil, err
	}
	if err := s.verifyLocation(ctx, companyCode, *at); err != nil {
		return nil, err
	}

	rec := database.NewCheckIn(user.ID, companyCode, date, now,
		&database.Location{Latitude: at.Latitude, Longitude: at.Longitude})
	saved, err := s.records.InsertCheckIn(ctx, rec)
	switch {
	case errors.Is(err, database.ErrAlreadyCheckedIn):
		return nil, newError(KindAlreadyCheckedIn, "already checked in today")
	case err != nil:
		return nil, storageUnavailable("record check-in", err)
	}

	s.present(saved)
	s.logger.Info("checked in",
		zap.String("user_id", user.ID),
		zap.String("company_code", companyCode),
		zap.String("date", date),
	)
	s.notify(ctx, saved)
	return saved, nil
}

// CheckOut performs CheckedIn -> CheckedOut for the current civil day. Only
// the record is consulted; the user row is not required. A well-formed hours
// hint is preferred over the elapsed time.
func (s *Service) CheckOut(ctx context.Context, req CheckOutRequest) (*database.AttendanceRecord, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	at, err := point(req.Latitude, req.Longitude)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	date := CivilDate(now, s.clock.Location())

	current, err := s.records.GetRecordForDay(ctx, req.UserID, date)
	if err != nil {
		return nil, storageUnavailable("load attendance", err)
	}
	switch database.StateOf(current) {
	case database.StateNoRecord:
		return nil, newError(KindNoActiveCheckIn, "no active check-in found for today")
	case database.StateCheckedOut:
		return nil, newError(KindAlreadyCheckedOut, "already checked out today")
	}

	worked := s.workedDuration(req.UserID, req.HoursWorked, now.Sub(*current.CheckInTime))
	out := database.CheckOut{
		Time:          now,
		HoursWorked:   FormatHoursWorked(worked),
		WorkedSeconds: int64(worked / time.Second),
	}
	if at != nil {
		out.Location = &database.Location{Latitude: at.Latitude, Longitude: at.Longitude}
	}

	saved, err := s.records.CompleteCheckOut(ctx, req.UserID, date, out)
	switch {
	case errors.Is(err, database.ErrNoActiveCheckIn):
		return nil, newError(KindNoActiveCheckIn, "no active check-in found for today")
	case errors.Is(err, database.ErrAlreadyCheckedOut):
		return nil, newError(KindAlreadyCheckedOut, "already checked out today")
	case errors.Is(err, database.ErrCheckOutBeforeCheckIn):
		return nil, &Error{Kind: KindInvalidInput, Message: "check-out time must be after check-in time", Err: err}
	case err != nil:
		return nil, storageUnavailable("record check-out", err)
	}

	s.present(saved)
	s.logger.Info("checked out",
		zap.String("user_id", req.UserID),
		zap.String("company_code", saved.CompanyCode),
		zap.String("date", date),
		zap.String("hours_worked", saved.HoursWorked),
	)
	s.notify(ctx, saved)
	return saved, nil
}

// TodayRecord returns the user's record for the current civil day, or nil.
func (s *Service) TodayRecord(ctx context.Context, userID string) (*database.AttendanceRecord, error) {
	if userID == "" {
		return nil, invalidInput("user_id is required")
	}
	rec, err := s.records.GetRecordForDay(ctx, userID, s.Today())
	if err != nil {
		return nil, storageUnavailable("load attendance", err)
	}
	if rec != nil {
		s.present(rec)
	}
	return rec, nil
}

// ActiveRecord returns the user's record still tracking, or nil.
func (s *Service) ActiveRecord(ctx context.Context, userID string) (*database.AttendanceRecord, error) {
	if userID == "" {
		return nil, invalidInput("user_id is required")
	}
	rec, err := s.records.GetActiveRecord(ctx, userID)
	if err != nil {
		return nil, storageUnavailable("load active attendance", err)
	}
	if rec != nil {
		s.present(rec)
	}
	return rec, nil
}

// History returns up to limit of the user's records, newest first. A
// non-positive limit falls back to the policy limit.
func (s *Service) History(ctx context.Context, userID string, limit int) ([]database.AttendanceRecord, error) {
	if userID == "" {
		return nil, invalidInput("user_id is required")
	}
	if limit <= 0 {
		limit = s.policy.HistoryLimit
	}
	limit = min(limit, constants.MaxHistoryLimit)
	recs, err := s.records.ListForUser(ctx, userID, limit)
	if err != nil {
		return nil, storageUnavailable("list attendance", err)
	}
	for i := range recs {
		s.present(&recs[i])
	}
	return recs, nil
}

// CompanyDay returns a tenant's records for a civil date (today when empty).
// Non-admin members without a record are listed as absent.
func (s *Service) CompanyDay(ctx context.Context, companyCode, date string) ([]database.AttendanceRecord, error) {
	companyCode = NormalizeCompanyCode(companyCode)
	if companyCode == "" {
		return nil, invalidInput("company code is required")
	}
	if date == "" {
		date = s.Today()
	} else if _, err := time.Parse(database.DateLayout, date); err != nil {
		return nil, invalidInput("date must be YYYY-MM-DD")
	}

	recs, err := s.records.ListForCompanyAndDate(ctx, companyCode, date)
	if err != nil {
		return nil, storageUnavailable("list attendance", err)
	}
	members, err := s.users.ListUsersByCompany(ctx, companyCode)
	if err != nil {
		return nil, storageUnavailable("list users", err)
	}

	seen := make(map[string]bool, len(recs))
	for i := range recs {
		seen[recs[i].UserID] = true
		s.present(&recs[i])
	}
	for _, m := range members {
		if m.Role == database.RoleAdmin || seen[m.ID] {
			continue
		}
		recs = append(recs, database.AttendanceRecord{
			UserID:      m.ID,
			CompanyCode: companyCode,
			Date:        date,
			Status:      database.StatusAbsent,
		})
	}
	sort.SliceStable(recs, func(i, j int) bool { return recs[i].UserID < recs[j].UserID })
	return recs, nil
}

// Geofence returns a tenant's geofence, or nil if none is configured.
func (s *Service) Geofence(ctx context.Context, companyCode string) (*database.StoredGeofence, error) {
	companyCode = NormalizeCompanyCode(companyCode)
	if companyCode == "" {
		return nil, invalidInput("company code is required")
	}
	fence, err := s.geofences.GetGeofence(ctx, companyCode)
	if err != nil {
		return nil, storageUnavailable("load geofence", err)
	}
	return fence, nil
}

// ConfigureGeofence creates or replaces a tenant's geofence. Only an admin
// of the same tenant may do so.
func (s *Service) ConfigureGeofence(ctx context.Context, companyCode string, req GeofenceRequest) (*database.StoredGeofence, error) {
	companyCode = NormalizeCompanyCode(companyCode)
	if companyCode == "" {
		return nil, invalidInput("company code is required")
	}
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	center, err := point(req.Latitude, req.Longitude)
	if err != nil {
		return nil, err
	}

	admin, err := s.loadUser(ctx, req.AdminID)
	if err != nil {
		return nil, err
	}
	if admin.Role != database.RoleAdmin {
		return nil, newError(KindRoleNotAllowed, "only admins can configure a geofence")
	}
	if NormalizeCompanyCode(admin.CompanyCode) != companyCode {
		return nil, newError(KindRoleNotAllowed, "admin does not belong to this company")
	}

	radius := s.policy.DefaultRadiusMeters
	if req.RadiusMeters != nil {
		radius = *req.RadiusMeters
	}

	saved, err := s.geofences.SaveGeofence(ctx, &database.StoredGeofence{
		AdminID:      admin.ID,
		CompanyCode:  companyCode,
		Latitude:     center.Latitude,
		Longitude:    center.Longitude,
		RadiusMeters: radius,
	})
	if err != nil {
		return nil, storageUnavailable("save geofence", err)
	}
	s.logger.Info("geofence configured",
		zap.String("company_code", companyCode),
		zap.String("admin_id", admin.ID),
		zap.Int("radius_meters", saved.RadiusMeters),
	)
	return saved, nil
}

func (s *Service) loadUser(ctx context.Context, id string) (*database.StoredUser, error) {
	user, err := s.users.GetUser(ctx, id)
	if err != nil {
		return nil, storageUnavailable("load user", err)
	}
	if user == nil {
		return nil, newError(KindUserNotFound, "user not found")
	}
	return user, nil
}

// verifyFace fails closed: a missing reference, a missing or malformed
// candidate and a dimension mismatch all reject the check-in.
func (s *Service) verifyFace(user *database.StoredUser, raw []byte) error {
	stored := facematch.Descriptor(user.FaceDescriptor)
	if err := stored.Validate(s.policy.DescriptorDim); err != nil {
		s.logger.Warn("reference face descriptor unusable",
			zap.String("user_id", user.ID), zap.Error(err))
		return faceVerificationFailed(facematch.EuclideanDistance(stored, nil))
	}

	candidate, err := facematch.ParseDescriptor(raw, s.policy.DescriptorDim)
	if err != nil {
		s.logger.Debug("candidate face descriptor rejected",
			zap.String("user_id", user.ID), zap.Error(err))
		return faceVerificationFailed(facematch.EuclideanDistance(stored, nil))
	}

	result := facematch.Match(stored, candidate, s.policy.FaceThreshold)
	if !result.Matches {
		s.logger.Info("face verification failed",
			zap.String("user_id", user.ID), zap.Float64("distance", result.Distance))
		return faceVerificationFailed(result.Distance)
	}
	return nil
}

func (s *Service) verifyLocation(ctx context.Context, companyCode string, at geofence.Point) error {
	stored, err := s.geofences.GetGeofence(ctx, companyCode)
	if err != nil {
		return storageUnavailable("load geofence", err)
	}
	if stored == nil {
		if s.policy.AllowWithoutGeofence {
			return nil
		}
		return newError(KindNoGeofenceConfigured, "no geofence configured for this company")
	}

	fence := geofence.Fence{
		Center:       geofence.Point{Latitude: stored.Latitude, Longitude: stored.Longitude},
		RadiusMeters: float64(stored.RadiusMeters),
	}
	result, err := geofence.Check(at, fence)
	if err != nil {
		return &Error{Kind: KindInvalidInput, Message: "geofence check failed", Err: err}
	}
	if !result.WithinFence {
		return outsideGeofence(result.DistanceMeters, fence.RadiusMeters)
	}
	return nil
}

func (s *Service) workedDuration(userID, hint string, elapsed time.Duration) time.Duration {
	if hint != "" {
		d, err := ParseHoursWorked(hint)
		if err == nil {
			return d
		}
		s.logger.Warn("ignoring malformed hours worked hint",
			zap.String("user_id", userID), zap.String("hint", hint))
	}
	if elapsed < 0 {
		return 0
	}
	return elapsed
}

// present converts stored timestamps to the civil zone.
func (s *Service) present(rec *database.AttendanceRecord) {
	loc := s.clock.Location()
	rec.CheckInTime = inZone(rec.CheckInTime, loc)
	rec.CheckOutTime = inZone(rec.CheckOutTime, loc)
	if !rec.CreatedAt.IsZero() {
		rec.CreatedAt = rec.CreatedAt.In(loc)
	}
	if !rec.UpdatedAt.IsZero() {
		rec.UpdatedAt = rec.UpdatedAt.In(loc)
	}
}

func (s *Service) notify(ctx context.Context, rec *database.AttendanceRecord) {
	now := s.clock.Now()
	event := Event{
		ID:          uuid.NewString(),
		Type:        EventAttendanceUpdated,
		UserID:      rec.UserID,
		CompanyCode: rec.CompanyCode,
		Date:        rec.Date,
		Record:      NewRecordView(rec, s.clock.Location(), now),
		At:          now,
	}

	nctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), notifyTimeout)
	defer cancel()
	if err := s.notifier.Notify(nctx, event); err != nil {
		s.logger.Warn("attendance notification dropped",
			zap.String("event_id", event.ID),
			zap.String("user_id", rec.UserID),
			zap.Error(fmt.Errorf("notify: %w", err)),
		)
	}
}

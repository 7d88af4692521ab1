package attendance

import (
	"time"

	"github.com/kozaktomas/attendance/internal/database"
)

// RecordView is the presented form of an attendance record: timestamps in
// the civil zone and, while tracking, a live hours estimate.
type RecordView struct {
	ID               int64              `json:"id"`
	UserID           string             `json:"user_id"`
	CompanyCode      string             `json:"company_code"`
	Date             string             `json:"date"`
	CheckInTime      *time.Time         `json:"check_in_time"`
	CheckOutTime     *time.Time         `json:"check_out_time"`
	CheckInLocation  *database.Location `json:"check_in_location"`
	CheckOutLocation *database.Location `json:"check_out_location"`
	IsTracking       bool               `json:"is_tracking"`
	HoursWorked      string             `json:"hours_worked"`
	WorkedSeconds    int64              `json:"worked_seconds"`
	Status           string             `json:"status"`
	CreatedAt        *time.Time         `json:"created_at,omitempty"`
	UpdatedAt        *time.Time         `json:"updated_at,omitempty"`
}

// NewRecordView presents rec in loc. The hours of a record still tracking
// are estimated from now and not persisted.
func NewRecordView(rec *database.AttendanceRecord, loc *time.Location, now time.Time) RecordView {
	v := RecordView{
		ID:               rec.ID,
		UserID:           rec.UserID,
		CompanyCode:      rec.CompanyCode,
		Date:             rec.Date,
		CheckInTime:      inZone(rec.CheckInTime, loc),
		CheckOutTime:     inZone(rec.CheckOutTime, loc),
		CheckInLocation:  rec.CheckInLocation,
		CheckOutLocation: rec.CheckOutLocation,
		IsTracking:       rec.IsTracking,
		HoursWorked:      rec.HoursWorked,
		WorkedSeconds:    rec.WorkedSeconds,
		Status:           string(rec.Status),
	}
	if !rec.CreatedAt.IsZero() {
		v.CreatedAt = inZone(&rec.CreatedAt, loc)
	}
	if !rec.UpdatedAt.IsZero() {
		v.UpdatedAt = inZone(&rec.UpdatedAt, loc)
	}
	if rec.IsTracking && rec.CheckInTime != nil {
		elapsed := now.Sub(*rec.CheckInTime)
		v.HoursWorked = FormatHoursWorked(elapsed)
		v.WorkedSeconds = int64(elapsed.Truncate(time.Second) / time.Second)
		if v.WorkedSeconds < 0 {
			v.WorkedSeconds = 0
		}
	}
	if v.Status == "" {
		v.Status = string(database.StatusAbsent)
	}
	return v
}

// NewRecordViews presents a list of records.
func NewRecordViews(recs []database.AttendanceRecord, loc *time.Location, now time.Time) []RecordView {
	views := make([]RecordView, 0, len(recs))
	for i := range recs {
		views = append(views, NewRecordView(&recs[i], loc, now))
	}
	return views
}

func inZone(t *time.Time, loc *time.Location) *time.Time {
	if t == nil {
		return nil
	}
	z := t.In(loc)
	return &z
}

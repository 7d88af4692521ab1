package database

import (
	"errors"
	"fmt"
	"time"
)

// State transition errors returned by AttendanceWriter implementations.
var (
	ErrAlreadyCheckedIn      = errors.New("already checked in today")
	ErrAlreadyCheckedOut     = errors.New("already checked out today")
	ErrNoActiveCheckIn       = errors.New("no active check-in found for today")
	ErrCheckOutBeforeCheckIn = errors.New("check-out time must be after check-in time")
)

// AttendanceState is the position of a (user, date) in the check-in state machine.
type AttendanceState int

// AttendanceState values. CheckedOut is terminal for the day.
const (
	StateNoRecord AttendanceState = iota
	StateCheckedIn
	StateCheckedOut
)

func (s AttendanceState) String() string {
	switch s {
	case StateNoRecord:
		return "no_record"
	case StateCheckedIn:
		return "checked_in"
	case StateCheckedOut:
		return "checked_out"
	}
	return fmt.Sprintf("AttendanceState(%d)", int(s))
}

// StateOf derives the state machine position of rec. A nil record, or a
// placeholder row without a check-in time, is NoRecord.
func StateOf(rec *AttendanceRecord) AttendanceState {
	switch {
	case rec == nil || rec.CheckInTime == nil:
		return StateNoRecord
	case rec.CheckOutTime == nil:
		return StateCheckedIn
	default:
		return StateCheckedOut
	}
}

// NewCheckIn builds the record created by the NoRecord -> CheckedIn transition.
func NewCheckIn(userID, companyCode, date string, at time.Time, loc *Location) *AttendanceRecord {
	checkIn := at
	return &AttendanceRecord{
		UserID:          userID,
		CompanyCode:     companyCode,
		Date:            date,
		CheckInTime:     &checkIn,
		CheckInLocation: loc,
		IsTracking:      true,
		Status:          StatusPresent,
	}
}

// CanCheckIn returns the transition error for checking in on top of existing.
func CanCheckIn(existing *AttendanceRecord) error {
	if StateOf(existing) != StateNoRecord {
		return ErrAlreadyCheckedIn
	}
	return nil
}

// CanCheckOut returns the transition error for checking out of rec at the given time.
func CanCheckOut(rec *AttendanceRecord, at time.Time) error {
	switch StateOf(rec) {
	case StateNoRecord:
		return ErrNoActiveCheckIn
	case StateCheckedOut:
		return ErrAlreadyCheckedOut
	}
	if !at.After(*rec.CheckInTime) {
		return ErrCheckOutBeforeCheckIn
	}
	return nil
}

// ApplyCheckOut performs the CheckedIn -> CheckedOut transition in place.
// The record is left untouched when the transition is illegal.
func (r *AttendanceRecord) ApplyCheckOut(out CheckOut) error {
	if err := CanCheckOut(r, out.Time); err != nil {
		return err
	}
	checkOut := out.Time
	r.CheckOutTime = &checkOut
	r.CheckOutLocation = out.Location
	r.HoursWorked = out.HoursWorked
	r.WorkedSeconds = out.WorkedSeconds
	r.IsTracking = false
	r.Status = StatusComplete
	return nil
}

// MarkIncomplete closes a record left tracking on an earlier civil day.
// The check-out time stays empty and no hours are recorded.
func (r *AttendanceRecord) MarkIncomplete() {
	r.IsTracking = false
	r.Status = StatusIncomplete
}

// CheckInvariants reports the first violated record invariant, if any.
func (r *AttendanceRecord) CheckInvariants() error {
	if r.CheckOutTime != nil {
		if r.CheckInTime == nil {
			return errors.New("check-out time set without check-in time")
		}
		if !r.CheckOutTime.After(*r.CheckInTime) {
			return ErrCheckOutBeforeCheckIn
		}
	}
	wantTracking := r.CheckInTime != nil && r.CheckOutTime == nil && r.Status != StatusIncomplete
	if r.IsTracking != wantTracking {
		return fmt.Errorf("is_tracking=%v but state is %s", r.IsTracking, StateOf(r))
	}
	return nil
}

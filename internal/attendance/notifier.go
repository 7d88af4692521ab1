package attendance

import (
	"context"
	"time"
)

// EventAttendanceUpdated is the type of the change notification emitted
// after every successful check-in and check-out.
const EventAttendanceUpdated = "attendanceUpdated"

// Event is a change notification. Delivery is at-most-once.
type Event struct {
	ID          string     `json:"id"`
	Type        string     `json:"type"`
	UserID      string     `json:"user_id"`
	CompanyCode string     `json:"company_code"`
	Date        string     `json:"date"`
	Record      RecordView `json:"record"`
	At          time.Time  `json:"at"`
}

// Notifier delivers change notifications. Errors are logged by the caller
// and never fail the operation that produced the event.
type Notifier interface {
	Notify(ctx context.Context, event Event) error
}

// NopNotifier drops every event.
type NopNotifier struct{}

// Notify implements Notifier.
func (NopNotifier) Notify(context.Context, Event) error { return nil }

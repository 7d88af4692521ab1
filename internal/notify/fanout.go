package notify

import (
	"context"
	"errors"

	"github.com/kozaktomas/attendance/internal/attendance"
)

// Fanout delivers every event to all of its notifiers, even when some fail.
type Fanout []attendance.Notifier

// Notify implements attendance.Notifier. The returned error joins the
// failures of individual notifiers.
func (f Fanout) Notify(ctx context.Context, event attendance.Event) error {
	var errs []error
	for _, n := range f {
		if n == nil {
			continue
		}
		if err := n.Notify(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

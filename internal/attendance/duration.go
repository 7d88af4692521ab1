package attendance

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// ErrInvalidHoursWorked is returned for a hours-worked value that cannot be parsed.
var ErrInvalidHoursWorked = errors.New("invalid hours worked")

// maxHoursWorked bounds an accepted hours-worked value.
const maxHoursWorked = 366 * 24 * time.Hour

var hoursMinutesPattern = regexp.MustCompile(`^(?:(\d+)\s*h)?\s*(?:(\d+)\s*m)?$`)

// FormatHoursWorked renders d as "<h>h <m>m", truncated to the minute.
// Negative durations render as "0h 0m".
func FormatHoursWorked(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	minutes := int64(d / time.Minute)
	return fmt.Sprintf("%dh %dm", minutes/60, minutes%60)
}

// ParseHoursWorked accepts "7h 30m", "7h", "45m", a Go duration such as
// "7h30m0s", or decimal hours such as "7.5", and returns the duration.
func ParseHoursWorked(s string) (time.Duration, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return 0, ErrInvalidHoursWorked
	}

	if m := hoursMinutesPattern.FindStringSubmatch(s); m != nil && (m[1] != "" || m[2] != "") {
		var hours, minutes int64
		if m[1] != "" {
			hours, _ = strconv.ParseInt(m[1], 10, 64)
		}
		if m[2] != "" {
			minutes, _ = strconv.ParseInt(m[2], 10, 64)
		}
		if hours > int64(maxHoursWorked/time.Hour) || minutes > int64(maxHoursWorked/time.Minute) {
			return 0, fmt.Errorf("%w: %q out of range", ErrInvalidHoursWorked, s)
		}
		return time.Duration(hours)*time.Hour + time.Duration(minutes)*time.Minute, nil
	}

	if d, err := time.ParseDuration(s); err == nil {
		if d < 0 {
			return 0, fmt.Errorf("%w: %q is negative", ErrInvalidHoursWorked, s)
		}
		if d > maxHoursWorked {
			return 0, fmt.Errorf("%w: %q out of range", ErrInvalidHoursWorked, s)
		}
		return d, nil
	}

	hours, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(hours) || math.IsInf(hours, 0) || hours < 0 || hours > maxHoursWorked.Hours() {
		return 0, fmt.Errorf("%w: %q", ErrInvalidHoursWorked, s)
	}
	return time.Duration(hours * float64(time.Hour)).Round(time.Second), nil
}

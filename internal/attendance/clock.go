package attendance

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/kozaktomas/attendance/internal/database"
)

// DefaultCivilOffset is the offset attendance days and timestamps are presented in.
const DefaultCivilOffset = "+05:30"

// ParseOffset parses a fixed UTC offset of the form "+HH:MM", "-HH:MM", "+HHMM"
// or "Z" into a fixed zone named after the offset.
func ParseOffset(s string) (*time.Location, error) {
	s = strings.TrimSpace(s)
	if s == "Z" || s == "UTC" {
		return time.UTC, nil
	}
	if len(s) < 3 || (s[0] != '+' && s[0] != '-') {
		return nil, fmt.Errorf("invalid civil offset %q: expected +HH:MM", s)
	}

	sign := 1
	if s[0] == '-' {
		sign = -1
	}
	digits := strings.ReplaceAll(s[1:], ":", "")
	if len(digits) != 4 {
		return nil, fmt.Errorf("invalid civil offset %q: expected +HH:MM", s)
	}
	hours, err := strconv.Atoi(digits[:2])
	if err != nil {
		return nil, fmt.Errorf("invalid civil offset %q: %w", s, err)
	}
	minutes, err := strconv.Atoi(digits[2:])
	if err != nil {
		return nil, fmt.Errorf("invalid civil offset %q: %w", s, err)
	}
	if hours > 14 || minutes > 59 {
		return nil, fmt.Errorf("invalid civil offset %q: out of range", s)
	}

	name := fmt.Sprintf("UTC%s%02d:%02d", s[:1], hours, minutes)
	return time.FixedZone(name, sign*(hours*3600+minutes*60)), nil
}

// Clock supplies "now" in the civil zone attendance days are keyed by.
type Clock interface {
	Now() time.Time
	Location() *time.Location
}

// CivilClock is a Clock over a fixed zone.
type CivilClock struct {
	loc *time.Location
	now func() time.Time
}

// NewCivilClock returns a clock in loc. A nil now uses time.Now.
func NewCivilClock(loc *time.Location, now func() time.Time) *CivilClock {
	if now == nil {
		now = time.Now
	}
	return &CivilClock{loc: loc, now: now}
}

// Now returns the current instant in the civil zone.
func (c *CivilClock) Now() time.Time {
	return c.now().In(c.loc)
}

// Location returns the civil zone.
func (c *CivilClock) Location() *time.Location {
	return c.loc
}

// CivilDate returns the YYYY-MM-DD civil date of t in loc.
func CivilDate(t time.Time, loc *time.Location) string {
	return t.In(loc).Format(database.DateLayout)
}

// Package clock is the only place that knows the backend's wall-clock
// formats. Times travel as "hh:mm AM|PM" and dates as "DD Month YYYY",
// neither carrying a date offset or timezone, so all math here is local
// wall time.
package clock

import (
	"fmt"
	"strings"
	"time"
)

// Clock is a moment of day with minute precision.
type Clock struct {
	Hour   int // 0..23
	Minute int // 0..59
}

const (
	minutesPerDay = 24 * 60
	dateLayout    = "02 January 2006"
)

// Now is swapped out by tests that need a fixed wall clock.
var Now = time.Now

// ParseClock reads a "hh:mm AM|PM" string. Anything else fails.
func ParseClock(s string) (Clock, error) {
	var h, m int
	var mer string
	if _, err := fmt.Sscanf(strings.TrimSpace(s), "%d:%d %s", &h, &m, &mer); err != nil {
		return Clock{}, fmt.Errorf("bad time %q: %w", s, err)
	}
	if h < 1 || h > 12 || m < 0 || m > 59 {
		return Clock{}, fmt.Errorf("bad time %q: out of range", s)
	}

	switch strings.ToUpper(mer) {
	case "AM":
		if h == 12 {
			h = 0
		}
	case "PM":
		if h != 12 {
			h += 12
		}
	default:
		return Clock{}, fmt.Errorf("bad time %q: expected AM or PM", s)
	}

	return Clock{Hour: h, Minute: m}, nil
}

// FormatClock renders c as "hh:mm AM|PM" with zero-padded hours,
// matching what the backend and the old mobile client exchange.
func FormatClock(c Clock) string {
	h := c.Hour % 12
	mer := "AM"
	if c.Hour >= 12 {
		mer = "PM"
	}
	if h == 0 {
		h = 12
	}
	return fmt.Sprintf("%02d:%02d %s", h, c.Minute, mer)
}

func (c Clock) String() string { return FormatClock(c) }

// FormatDate renders d as "DD Month YYYY" with English month names.
func FormatDate(d time.Time) string {
	return d.Format(dateLayout)
}

// ParseDate is the inverse of FormatDate.
func ParseDate(s string) (time.Time, error) {
	d, err := time.ParseInLocation(dateLayout, s, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("bad date %q: %w", s, err)
	}
	return d, nil
}

// MinutesOfDay collapses c to minutes since midnight.
func (c Clock) MinutesOfDay() int { return c.Hour*60 + c.Minute }

// AddMinutes advances c by m minutes, wrapping past midnight.
func (c Clock) AddMinutes(m int) Clock {
	total := (c.MinutesOfDay() + m) % minutesPerDay
	if total < 0 {
		total += minutesPerDay
	}
	return Clock{Hour: total / 60, Minute: total % 60}
}

// NowMs is the current wall time in milliseconds since the epoch.
func NowMs() int64 {
	return Now().UnixMilli()
}

// MsUntilClockToday returns the milliseconds from now until the next
// occurrence of c. A time of day that has already passed today refers to
// the same time tomorrow; the backend sends session out-times without a
// date, and for the open-session set this wrap is the only safe reading.
func MsUntilClockToday(c Clock) int64 {
	now := Now()
	target := time.Date(now.Year(), now.Month(), now.Day(), c.Hour, c.Minute, 0, 0, now.Location())
	d := target.Sub(now)
	if d < 0 {
		d += 24 * time.Hour
	}
	return d.Milliseconds()
}

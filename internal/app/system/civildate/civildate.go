// internal/app/system/civildate/civildate.go
package civildate

// A civil date is a calendar date with no time-of-day, always interpreted in
// the single reference timezone the whole system is anchored to. Every other
// package operates on the canonical instants produced here (midnight of the
// date in the reference zone) and must not do its own date arithmetic —
// mixing calendar dates with raw instants is where off-by-one-day bugs come
// from, so the conversion lives in exactly one place.

import (
	"errors"
	"fmt"
	"sync"
	"time"
)

// Layout is the only accepted civil date string form.
const Layout = "2006-01-02"

// DefaultZoneName anchors all conversions unless bootstrap overrides it.
const DefaultZoneName = "Europe/Prague"

// ErrInvalidDate reports a malformed or impossible calendar date string.
var ErrInvalidDate = errors.New("invalid civil date")

var (
	zoneMu sync.RWMutex
	zone   = mustLoad(DefaultZoneName)
)

func mustLoad(name string) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		panic(fmt.Sprintf("civildate: cannot load reference timezone %q: %v", name, err))
	}
	return loc
}

// SetZone switches the reference timezone. Called once during bootstrap,
// before any request traffic; conversions from different zones must never mix.
func SetZone(name string) error {
	loc, err := time.LoadLocation(name)
	if err != nil {
		return fmt.Errorf("load reference timezone %q: %w", name, err)
	}
	zoneMu.Lock()
	zone = loc
	zoneMu.Unlock()
	return nil
}

// Zone returns the current reference timezone.
func Zone() *time.Location {
	zoneMu.RLock()
	defer zoneMu.RUnlock()
	return zone
}

// Normalize parses a YYYY-MM-DD string into the canonical instant for that
// civil date: midnight in the reference timezone. Malformed strings and
// impossible dates (Feb 30, month 13, …) fail with ErrInvalidDate.
func Normalize(s string) (time.Time, error) {
	t, err := time.ParseInLocation(Layout, s, Zone())
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	return t, nil
}

// ToCivilString is the inverse of Normalize. It formats the instant as the
// calendar date observed in the reference timezone, so an instant near a
// daylight-saving transition never drifts to the adjacent day.
func ToCivilString(t time.Time) string {
	return t.In(Zone()).Format(Layout)
}

// WeekdayOf returns the weekday of the instant as observed in the reference
// timezone.
func WeekdayOf(t time.Time) time.Weekday {
	return t.In(Zone()).Weekday()
}

// Truncate re-anchors an arbitrary instant to the canonical midnight of its
// civil date in the reference timezone. Records written with a skewed
// time-of-day compare equal to their clean counterparts after truncation.
func Truncate(t time.Time) time.Time {
	y, m, d := t.In(Zone()).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, Zone())
}

// Today returns the canonical midnight of the current civil date.
func Today() time.Time {
	return Truncate(time.Now())
}

// SameDate reports whether two instants fall on the same civil date in the
// reference timezone.
func SameDate(a, b time.Time) bool {
	return Truncate(a).Equal(Truncate(b))
}

// ParseWeekday maps a weekday name ("Monday".."Sunday") to time.Weekday.
// Group documents store recurring weekdays by name.
func ParseWeekday(name string) (time.Weekday, bool) {
	switch name {
	case "Sunday":
		return time.Sunday, true
	case "Monday":
		return time.Monday, true
	case "Tuesday":
		return time.Tuesday, true
	case "Wednesday":
		return time.Wednesday, true
	case "Thursday":
		return time.Thursday, true
	case "Friday":
		return time.Friday, true
	case "Saturday":
		return time.Saturday, true
	}
	return 0, false
}

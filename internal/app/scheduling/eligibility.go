// internal/app/scheduling/eligibility.go
package scheduling

import (
	"sort"
	"time"

	"github.com/dalemusser/gametable/internal/app/system/civildate"
	"github.com/dalemusser/gametable/internal/domain/models"
	"github.com/teambition/rrule-go"
)

// upcomingHorizon caps how far ahead UpcomingEligibleDates scans. A group
// with no recurring weekdays and no one-off dates inside the horizon simply
// has nothing to schedule.
const upcomingHorizon = 365 * 24 * time.Hour

// EligibleDate reports whether a session may be scheduled for the group on
// the civil date: the date's weekday is one of the group's recurring
// weekdays, or the date is listed as a one-off.
func EligibleDate(group *models.Group, date time.Time) bool {
	weekday := civildate.WeekdayOf(date)
	for _, name := range group.RecurringWeekdays {
		if wd, ok := civildate.ParseWeekday(name); ok && wd == weekday {
			return true
		}
	}
	for _, oneOff := range group.OneOffDates {
		if civildate.SameDate(oneOff, date) {
			return true
		}
	}
	return false
}

// UpcomingEligibleDates expands the group's recurring weekdays into concrete
// dates starting at from (inclusive), merges in one-off dates, and returns
// the first n in ascending order with duplicates removed.
func UpcomingEligibleDates(group *models.Group, from time.Time, n int) ([]time.Time, error) {
	if n <= 0 {
		return nil, nil
	}
	from = civildate.Truncate(from)
	until := from.Add(upcomingHorizon)

	seen := map[string]time.Time{}

	if days := rruleWeekdays(group.RecurringWeekdays); len(days) > 0 {
		r, err := rrule.NewRRule(rrule.ROption{
			Freq:      rrule.WEEKLY,
			Byweekday: days,
			Dtstart:   from,
		})
		if err != nil {
			return nil, err
		}
		for _, occ := range r.Between(from, until, true) {
			d := civildate.Truncate(occ)
			seen[civildate.ToCivilString(d)] = d
		}
	}

	for _, oneOff := range group.OneOffDates {
		d := civildate.Truncate(oneOff)
		if d.Before(from) || d.After(until) {
			continue
		}
		seen[civildate.ToCivilString(d)] = d
	}

	dates := make([]time.Time, 0, len(seen))
	for _, d := range seen {
		dates = append(dates, d)
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })
	if len(dates) > n {
		dates = dates[:n]
	}
	return dates, nil
}

func rruleWeekdays(names []string) []rrule.Weekday {
	var days []rrule.Weekday
	for _, name := range names {
		wd, ok := civildate.ParseWeekday(name)
		if !ok {
			continue
		}
		switch wd {
		case time.Sunday:
			days = append(days, rrule.SU)
		case time.Monday:
			days = append(days, rrule.MO)
		case time.Tuesday:
			days = append(days, rrule.TU)
		case time.Wednesday:
			days = append(days, rrule.WE)
		case time.Thursday:
			days = append(days, rrule.TH)
		case time.Friday:
			days = append(days, rrule.FR)
		case time.Saturday:
			days = append(days, rrule.SA)
		}
	}
	return days
}

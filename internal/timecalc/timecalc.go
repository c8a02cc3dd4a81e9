package timecalc

import (
	"fmt"
	"strings"
	"time"

	"github.com/Tiliavir/trivial-timecard/internal/model"
)

// PeriodDays is the number of calendar days in a pay period.
const PeriodDays = 14

// DerivePeriod returns the Monday that starts the pay period containing ref
// and the ten weekday dates of that period, all at UTC midnight.
//
// ref is reduced to its calendar date in its own location first. A Monday
// through Saturday reference anchors on the Monday on or before it; a Sunday
// reference rolls forward to the following Monday.
func DerivePeriod(ref time.Time) (time.Time, []time.Time) {
	start := PeriodStart(ref)
	return start, WeekdayDates(start)
}

// PeriodStart returns the Monday that anchors the period for ref.
func PeriodStart(ref time.Time) time.Time {
	day := CalendarDate(ref)
	if day.Weekday() == time.Sunday {
		return day.AddDate(0, 0, 1)
	}
	return day.AddDate(0, 0, -(int(day.Weekday()) - 1))
}

// WeekdayDates enumerates Monday–Friday dates in [start, start+13].
func WeekdayDates(start time.Time) []time.Time {
	dates := make([]time.Time, 0, 10)
	for i := 0; i < PeriodDays; i++ {
		d := start.AddDate(0, 0, i)
		if IsWeekday(d) {
			dates = append(dates, d)
		}
	}
	return dates
}

// IsWeekday reports whether t falls on Monday through Friday.
func IsWeekday(t time.Time) bool {
	wd := t.Weekday()
	return wd != time.Saturday && wd != time.Sunday
}

// CalendarDate returns the calendar date of t (as seen in t's location) at
// UTC midnight.
func CalendarDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// FormatDate formats t as YYYY-MM-DD in UTC.
func FormatDate(t time.Time) string {
	return t.UTC().Format(model.DateLayout)
}

// ParseDate parses a YYYY-MM-DD string as UTC midnight.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(model.DateLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: want YYYY-MM-DD", s)
	}
	return t, nil
}

// NormalizeDate reduces a backend date to UTC YYYY-MM-DD. Backends send
// either plain dates or full timestamps ("2024-10-14T00:00:00.000Z"); both
// are converted to UTC before the date is taken, so that matching never
// depends on the local zone.
func NormalizeDate(s string) (string, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(model.DateLayout, s); err == nil {
		return t.Format(model.DateLayout), nil
	}
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02T15:04:05", "2006-01-02 15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC().Format(model.DateLayout), nil
		}
	}
	return "", fmt.Errorf("cannot parse date %q", s)
}

// ComputeDuration derives worked time from the four optional fields.
//
// The morning segment (start to lunch start) and the afternoon segment
// (lunch end to end) are added when both of their bounds are present. With
// no lunch at all, the whole start-to-end span counts. A partial day with
// start, lunch start and lunch end but no end counts the morning only. The
// result is clamped at zero.
func ComputeDuration(start, lunchStart, lunchEnd, end *model.Clock) model.Duration {
	total := 0
	if start != nil && lunchStart != nil {
		total += int(*lunchStart) - int(*start)
	}
	if lunchEnd != nil && end != nil {
		total += int(*end) - int(*lunchEnd)
	}
	if start != nil && end != nil && lunchStart == nil && lunchEnd == nil {
		total = int(*end) - int(*start)
	}
	if start != nil && lunchStart != nil && lunchEnd != nil && end == nil {
		total = int(*lunchStart) - int(*start)
	}
	return model.DurationFromMinutes(total)
}

// EntryDuration recomputes the worked time of e from its fields.
func EntryDuration(e model.TimeEntry) model.Duration {
	return ComputeDuration(e.StartTime, e.LunchStart, e.LunchEnd, e.EndTime)
}

// WeekRange returns the Monday and Sunday of the ISO week containing t.
func WeekRange(t time.Time) (time.Time, time.Time) {
	// Go's weekday: Sunday=0, Monday=1, …, Saturday=6
	wd := int(t.Weekday())
	if wd == 0 {
		wd = 7 // treat Sunday as 7 (ISO)
	}
	monday := t.AddDate(0, 0, -(wd - 1))
	monday = time.Date(monday.Year(), monday.Month(), monday.Day(), 0, 0, 0, 0, t.Location())
	sunday := monday.AddDate(0, 0, 6)
	sunday = time.Date(sunday.Year(), sunday.Month(), sunday.Day(), 23, 59, 59, 0, t.Location())
	return monday, sunday
}

// ISOWeekLabel returns a label like "2026-W09".
func ISOWeekLabel(t time.Time) string {
	year, week := t.ISOWeek()
	return fmt.Sprintf("%d-W%02d", year, week)
}

// SameDay reports whether two times fall on the same calendar day.
func SameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

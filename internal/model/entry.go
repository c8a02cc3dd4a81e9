package model

import (
	"fmt"
	"strings"
	"time"
)

// DateLayout is the calendar-date format used for entry dates and on the wire.
const DateLayout = "2006-01-02"

// Status is the lifecycle state of a single day's entry.
type Status string

const (
	// StatusUnset marks a placeholder that has never been edited.
	StatusUnset Status = "unset"
	// StatusActive marks an entry that has been edited but not submitted.
	StatusActive Status = "active"
	// StatusSubmitted is terminal: the entry no longer accepts edits.
	StatusSubmitted Status = "submitted"
)

// ParseStatus maps a wire status to a Status. Empty and unknown values are
// treated as unset.
func ParseStatus(s string) Status {
	switch Status(strings.ToLower(strings.TrimSpace(s))) {
	case StatusActive:
		return StatusActive
	case StatusSubmitted:
		return StatusSubmitted
	default:
		return StatusUnset
	}
}

// TimeEntry is one weekday's worked-time record within a period.
type TimeEntry struct {
	// Date is the UTC calendar date, formatted as YYYY-MM-DD.
	Date string `json:"date"`
	// ID is the backend identifier; zero means the entry is not persisted yet.
	ID         int64    `json:"id,omitempty"`
	StartTime  *Clock   `json:"start_time"`
	LunchStart *Clock   `json:"lunch_start"`
	LunchEnd   *Clock   `json:"lunch_end"`
	EndTime    *Clock   `json:"end_time"`
	TotalTime  Duration `json:"total_time"`
	Status     Status   `json:"status"`
}

// Persisted reports whether the backend has assigned an identifier.
func (e TimeEntry) Persisted() bool {
	return e.ID != 0
}

// Submitted reports whether the entry is locked.
func (e TimeEntry) Submitted() bool {
	return e.Status == StatusSubmitted
}

// Day parses Date. It panics on malformed dates, which only the reconciler
// and the wire translation produce.
func (e TimeEntry) Day() time.Time {
	d, err := time.Parse(DateLayout, e.Date)
	if err != nil {
		panic(fmt.Sprintf("model: malformed entry date %q", e.Date))
	}
	return d
}

// Get returns the value of the given time field.
func (e *TimeEntry) Get(f Field) *Clock {
	switch f {
	case FieldStartTime:
		return e.StartTime
	case FieldLunchStart:
		return e.LunchStart
	case FieldLunchEnd:
		return e.LunchEnd
	case FieldEndTime:
		return e.EndTime
	}
	return nil
}

// Set assigns the given time field. A nil value clears it.
func (e *TimeEntry) Set(f Field, v *Clock) {
	var c *Clock
	if v != nil {
		cv := *v
		c = &cv
	}
	switch f {
	case FieldStartTime:
		e.StartTime = c
	case FieldLunchStart:
		e.LunchStart = c
	case FieldLunchEnd:
		e.LunchEnd = c
	case FieldEndTime:
		e.EndTime = c
	}
}

// Clone returns a deep copy so that callers can hand entries out without
// sharing the Clock pointers.
func (e TimeEntry) Clone() TimeEntry {
	out := e
	for _, f := range Fields {
		out.Set(f, e.Get(f))
	}
	return out
}

// Period is the working set shown to the user: ten weekday entries starting
// on a Monday.
type Period struct {
	Start   time.Time   `json:"period_start"`
	Entries []TimeEntry `json:"entries"`
	// Degraded is set when the persisted entries could not be fetched and the
	// entries are local placeholders only.
	Degraded bool `json:"degraded,omitempty"`
}

// End returns the last calendar day of the period.
func (p Period) End() time.Time {
	return p.Start.AddDate(0, 0, 13)
}

// IsSubmitted reports whether every entry in the period has been submitted.
func (p Period) IsSubmitted() bool {
	if len(p.Entries) == 0 {
		return false
	}
	for _, e := range p.Entries {
		if !e.Submitted() {
			return false
		}
	}
	return true
}

// Total sums the worked time of every entry.
func (p Period) Total() Duration {
	var minutes int
	for _, e := range p.Entries {
		minutes += e.TotalTime.TotalMinutes()
	}
	return DurationFromMinutes(minutes)
}

// Find returns the index of the entry for date, or -1.
func (p Period) Find(date string) int {
	for i, e := range p.Entries {
		if e.Date == date {
			return i
		}
	}
	return -1
}

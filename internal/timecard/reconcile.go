package timecard

import (
	"sort"
	"time"

	"github.com/Tiliavir/trivial-timecard/internal/model"
	"github.com/Tiliavir/trivial-timecard/internal/timecalc"
)

// Reconcile merges persisted entries into the weekday skeleton of the period
// starting at periodStart. The result always holds one entry per weekday, in
// date order. Persisted entries are matched on their UTC calendar date and
// copied through unchanged; dates without one get a placeholder.
//
// Entries outside the period, on weekends, or with unparseable dates are
// ignored. Duplicates for one date are resolved by OnePerDate.
func Reconcile(periodStart time.Time, persisted []model.TimeEntry) []model.TimeEntry {
	byDate := make(map[string]model.TimeEntry, len(persisted))
	for _, e := range OnePerDate(persisted) {
		byDate[e.Date] = e
	}

	dates := timecalc.WeekdayDates(timecalc.CalendarDate(periodStart))
	entries := make([]model.TimeEntry, 0, len(dates))
	for _, d := range dates {
		key := timecalc.FormatDate(d)
		if e, ok := byDate[key]; ok {
			entries = append(entries, e)
			continue
		}
		entries = append(entries, Placeholder(key))
	}
	return entries
}

// OnePerDate normalizes entry dates to YYYY-MM-DD and keeps one entry per
// date, sorted by date. When the backend holds several entries for the same
// date the first one wins, unless a later duplicate is already submitted.
// Entries with unparseable dates are dropped. The result shares no clocks
// with the input.
func OnePerDate(entries []model.TimeEntry) []model.TimeEntry {
	byDate := make(map[string]model.TimeEntry, len(entries))
	for _, e := range entries {
		date, err := timecalc.NormalizeDate(e.Date)
		if err != nil {
			continue
		}
		e.Date = date
		if prev, ok := byDate[date]; ok && (prev.Submitted() || !e.Submitted()) {
			continue
		}
		byDate[date] = e
	}

	out := make([]model.TimeEntry, 0, len(byDate))
	for _, e := range byDate {
		out = append(out, e.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out
}

// Placeholder returns an empty, unpersisted entry for date.
func Placeholder(date string) model.TimeEntry {
	return model.TimeEntry{Date: date, Status: model.StatusUnset}
}

// MissingDates returns the dates of entries that have no backend id.
func MissingDates(entries []model.TimeEntry) []string {
	var dates []string
	for _, e := range entries {
		if !e.Persisted() {
			dates = append(dates, e.Date)
		}
	}
	return dates
}

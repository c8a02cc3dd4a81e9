package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/Tiliavir/trivial-timecard/internal/model"
	"github.com/Tiliavir/trivial-timecard/internal/timecalc"
	"github.com/Tiliavir/trivial-timecard/internal/timecard"
)

// Output formats accepted by Write.
const (
	FormatMarkdown = "md"
	FormatJSON     = "json"
	FormatYAML     = "yaml"
)

// Day is the worked time of one calendar date.
type Day struct {
	Date    string       `json:"date" yaml:"date"`
	Minutes int          `json:"minutes" yaml:"minutes"`
	Total   string       `json:"total" yaml:"total"`
	Status  model.Status `json:"status" yaml:"status"`
}

// Week aggregates the days of one ISO week.
type Week struct {
	Label      string `json:"week" yaml:"week"`
	From       string `json:"from" yaml:"from"`
	To         string `json:"to" yaml:"to"`
	DaysWorked int    `json:"days_worked" yaml:"days_worked"`
	Minutes    int    `json:"minutes" yaml:"minutes"`
	Total      string `json:"total" yaml:"total"`
}

// Report summarizes recorded time over a date range.
type Report struct {
	From  string `json:"from" yaml:"from"`
	To    string `json:"to" yaml:"to"`
	Weeks []Week `json:"weeks" yaml:"weeks"`
	Days  []Day  `json:"days" yaml:"days"`
	// Absent lists weekdays in the range without any recorded time.
	Absent       []string `json:"absent" yaml:"absent"`
	DaysWorked   int      `json:"days_worked" yaml:"days_worked"`
	TotalMinutes int      `json:"total_minutes" yaml:"total_minutes"`
	Total        string   `json:"total" yaml:"total"`
}

// Build aggregates entries dated within [from, to]. A zero from or to is
// taken from the earliest or latest entry. Several entries for one date count
// once, picked the way the active period picks them.
func Build(entries []model.TimeEntry, from, to time.Time) Report {
	days := map[string]*Day{}
	var dates []string
	for _, e := range timecard.OnePerDate(entries) {
		minutes := e.TotalTime.TotalMinutes()
		if minutes == 0 {
			minutes = timecalc.EntryDuration(e).TotalMinutes()
		}
		days[e.Date] = &Day{Date: e.Date, Minutes: minutes, Status: e.Status}
		dates = append(dates, e.Date)
	}

	if from.IsZero() && len(dates) > 0 {
		from, _ = timecalc.ParseDate(dates[0])
	}
	if to.IsZero() && len(dates) > 0 {
		to, _ = timecalc.ParseDate(dates[len(dates)-1])
	}
	from, to = timecalc.CalendarDate(from), timecalc.CalendarDate(to)

	r := Report{From: timecalc.FormatDate(from), To: timecalc.FormatDate(to)}
	if len(dates) == 0 && (from.IsZero() || to.IsZero()) {
		r.From, r.To = "", ""
		r.Total = model.DurationFromMinutes(0).String()
		return r
	}

	weekIndex := map[string]int{}
	for _, date := range dates {
		t, _ := timecalc.ParseDate(date)
		if t.Before(from) || t.After(to) {
			continue
		}
		d := days[date]
		d.Total = model.DurationFromMinutes(d.Minutes).String()
		r.Days = append(r.Days, *d)

		label := timecalc.ISOWeekLabel(t)
		i, ok := weekIndex[label]
		if !ok {
			mon, sun := timecalc.WeekRange(t)
			r.Weeks = append(r.Weeks, Week{Label: label, From: timecalc.FormatDate(mon), To: timecalc.FormatDate(sun)})
			i = len(r.Weeks) - 1
			weekIndex[label] = i
		}
		r.Weeks[i].Minutes += d.Minutes
		if d.Minutes > 0 {
			r.Weeks[i].DaysWorked++
			r.DaysWorked++
		}
		r.TotalMinutes += d.Minutes
	}
	for i := range r.Weeks {
		r.Weeks[i].Total = model.DurationFromMinutes(r.Weeks[i].Minutes).String()
	}
	r.Total = model.DurationFromMinutes(r.TotalMinutes).String()

	for t := from; !t.After(to); t = t.AddDate(0, 0, 1) {
		if !timecalc.IsWeekday(t) {
			continue
		}
		date := timecalc.FormatDate(t)
		if d, ok := days[date]; !ok || d.Minutes == 0 {
			r.Absent = append(r.Absent, date)
		}
	}
	return r
}

// ParseFormat validates an output format name.
func ParseFormat(s string) (string, error) {
	switch f := strings.ToLower(strings.TrimSpace(s)); f {
	case "", FormatMarkdown, "markdown":
		return FormatMarkdown, nil
	case FormatJSON:
		return FormatJSON, nil
	case FormatYAML, "yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("unknown format %q: want md, json or yaml", s)
	}
}

// Write renders r to w in the given format.
func Write(w io.Writer, r Report, format string) error {
	format, err := ParseFormat(format)
	if err != nil {
		return err
	}
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(r)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(r); err != nil {
			return err
		}
		return enc.Close()
	default:
		return writeMarkdown(w, r)
	}
}

func writeMarkdown(w io.Writer, r Report) error {
	var b strings.Builder
	if r.From == "" {
		b.WriteString("No recorded time.\n")
		_, err := io.WriteString(w, b.String())
		return err
	}
	fmt.Fprintf(&b, "Report %s – %s\n", r.From, r.To)
	b.WriteString("--------------------------------\n")
	for _, wk := range r.Weeks {
		fmt.Fprintf(&b, "%-10s %-23s %2d days  %s\n", wk.Label, wk.From+" – "+wk.To, wk.DaysWorked, wk.Total)
	}
	b.WriteString("--------------------------------\n")
	fmt.Fprintf(&b, "%-10s %-23s %2d days  %s\n", "Total", "", r.DaysWorked, r.Total)
	if len(r.Absent) > 0 {
		fmt.Fprintf(&b, "\nAbsent (%d): %s\n", len(r.Absent), strings.Join(r.Absent, ", "))
	}
	_, err := io.WriteString(w, b.String())
	return err
}

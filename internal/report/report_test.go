package report_test

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/Tiliavir/trivial-timecard/internal/model"
	"github.com/Tiliavir/trivial-timecard/internal/report"
)

func date(s string) time.Time {
	t, err := time.Parse(model.DateLayout, s)
	if err != nil {
		panic(err)
	}
	return t
}

func sampleEntries() []model.TimeEntry {
	return []model.TimeEntry{
		// Monday and Tuesday of 2026-W42, one with total_time, one without.
		{Date: "2026-10-12", TotalTime: model.DurationFromMinutes(7 * 60), Status: model.StatusSubmitted},
		{Date: "2026-10-13T00:00:00.000Z", StartTime: model.MustClock("09:00"), EndTime: model.MustClock("17:30")},
		// Wednesday recorded but empty.
		{Date: "2026-10-14"},
		// Monday of 2026-W43.
		{Date: "2026-10-19", TotalTime: model.DurationFromMinutes(6*60 + 15)},
	}
}

func TestBuild(t *testing.T) {
	r := report.Build(sampleEntries(), date("2026-10-12"), date("2026-10-23"))

	if r.From != "2026-10-12" || r.To != "2026-10-23" {
		t.Errorf("range = %s..%s", r.From, r.To)
	}
	if r.TotalMinutes != 7*60+8*60+30+6*60+15 {
		t.Errorf("TotalMinutes = %d", r.TotalMinutes)
	}
	if r.Total != "21h 45m" {
		t.Errorf("Total = %q, want 21h 45m", r.Total)
	}
	if r.DaysWorked != 3 {
		t.Errorf("DaysWorked = %d, want 3", r.DaysWorked)
	}
	if len(r.Weeks) != 2 {
		t.Fatalf("weeks = %d, want 2", len(r.Weeks))
	}
	if w := r.Weeks[0]; w.Label != "2026-W42" || w.From != "2026-10-12" || w.To != "2026-10-18" || w.Total != "15h 30m" || w.DaysWorked != 2 {
		t.Errorf("week 0 = %+v", w)
	}
	if w := r.Weeks[1]; w.Label != "2026-W43" || w.Total != "6h 15m" {
		t.Errorf("week 1 = %+v", w)
	}

	wantAbsent := []string{"2026-10-14", "2026-10-15", "2026-10-16", "2026-10-20", "2026-10-21", "2026-10-22", "2026-10-23"}
	if strings.Join(r.Absent, ",") != strings.Join(wantAbsent, ",") {
		t.Errorf("Absent = %v, want %v", r.Absent, wantAbsent)
	}
	if r.Days[0].Status != model.StatusSubmitted {
		t.Errorf("day 0 status = %q", r.Days[0].Status)
	}
}

func TestBuildRangeFromEntries(t *testing.T) {
	r := report.Build(sampleEntries(), time.Time{}, time.Time{})
	if r.From != "2026-10-12" || r.To != "2026-10-19" {
		t.Errorf("range = %s..%s, want 2026-10-12..2026-10-19", r.From, r.To)
	}
}

func TestBuildFiltersRange(t *testing.T) {
	r := report.Build(sampleEntries(), date("2026-10-19"), date("2026-10-19"))
	if r.TotalMinutes != 6*60+15 || len(r.Days) != 1 || len(r.Absent) != 0 {
		t.Errorf("report = %+v", r)
	}
}

func TestBuildEmpty(t *testing.T) {
	r := report.Build(nil, time.Time{}, time.Time{})
	var buf bytes.Buffer
	if err := report.Write(&buf, r, "md"); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "No recorded time") {
		t.Errorf("output = %q", buf.String())
	}
}

func TestWriteFormats(t *testing.T) {
	r := report.Build(sampleEntries(), date("2026-10-12"), date("2026-10-16"))

	var md bytes.Buffer
	if err := report.Write(&md, r, "md"); err != nil {
		t.Fatalf("md: %v", err)
	}
	for _, want := range []string{"2026-W42", "15h 30m", "Absent (3)"} {
		if !strings.Contains(md.String(), want) {
			t.Errorf("markdown output missing %q:\n%s", want, md.String())
		}
	}

	var js bytes.Buffer
	if err := report.Write(&js, r, "json"); err != nil {
		t.Fatalf("json: %v", err)
	}
	var fromJSON report.Report
	if err := json.Unmarshal(js.Bytes(), &fromJSON); err != nil {
		t.Fatalf("json output does not parse: %v", err)
	}
	if fromJSON.TotalMinutes != r.TotalMinutes {
		t.Errorf("json total_minutes = %d, want %d", fromJSON.TotalMinutes, r.TotalMinutes)
	}

	var ym bytes.Buffer
	if err := report.Write(&ym, r, "yml"); err != nil {
		t.Fatalf("yaml: %v", err)
	}
	var fromYAML map[string]any
	if err := yaml.Unmarshal(ym.Bytes(), &fromYAML); err != nil {
		t.Fatalf("yaml output does not parse: %v", err)
	}
	if fromYAML["total"] != "15h 30m" {
		t.Errorf("yaml total = %v", fromYAML["total"])
	}
}

func TestParseFormat(t *testing.T) {
	if _, err := report.ParseFormat("csv"); err == nil {
		t.Error("csv should be rejected")
	}
	if f, err := report.ParseFormat(""); err != nil || f != report.FormatMarkdown {
		t.Errorf("ParseFormat(\"\") = %q, %v", f, err)
	}
}

func TestBuildCountsDuplicateDatesOnce(t *testing.T) {
	r := report.Build([]model.TimeEntry{
		{Date: "2026-10-12", ID: 1, TotalTime: model.DurationFromMinutes(8 * 60), Status: model.StatusActive},
		{Date: "2026-10-12", ID: 2, TotalTime: model.DurationFromMinutes(8 * 60), Status: model.StatusActive},
		{Date: "2026-10-13", ID: 3, TotalTime: model.DurationFromMinutes(60), Status: model.StatusActive},
		{Date: "2026-10-13T00:00:00Z", ID: 4, TotalTime: model.DurationFromMinutes(2 * 60), Status: model.StatusSubmitted},
	}, time.Time{}, time.Time{})

	if r.Total != "10h 0m" {
		t.Errorf("Total = %q, want 10h 0m", r.Total)
	}
	if len(r.Days) != 2 || r.DaysWorked != 2 {
		t.Fatalf("days = %+v, DaysWorked = %d", r.Days, r.DaysWorked)
	}
	if d := r.Days[1]; d.Minutes != 120 || d.Status != model.StatusSubmitted {
		t.Errorf("submitted duplicate not preferred: %+v", d)
	}
}

package model_test

import (
	"encoding/json"
	"testing"

	"github.com/Tiliavir/trivial-timecard/internal/model"
)

func TestParseClock(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"00:00", "00:00", false},
		{"09:05", "09:05", false},
		{"23:59", "23:59", false},
		{"17:30:45", "17:30", false},
		{"9:00", "", true},
		{"24:00", "", true},
		{"12:60", "", true},
		{"ab:cd", "", true},
		{"", "", true},
	}
	for _, tt := range tests {
		got, err := model.ParseClock(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseClock(%q) err = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if !tt.wantErr && got.String() != tt.want {
			t.Errorf("ParseClock(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestParseOptionalClockEmpty(t *testing.T) {
	c, err := model.ParseOptionalClock("  ")
	if err != nil || c != nil {
		t.Errorf("ParseOptionalClock(blank) = %v, %v; want nil, nil", c, err)
	}
}

func TestDurationFromMinutes(t *testing.T) {
	tests := []struct {
		minutes int
		want    string
	}{
		{0, "0h 0m"},
		{59, "0h 59m"},
		{60, "1h 0m"},
		{470, "7h 50m"},
		{-30, "0h 0m"},
	}
	for _, tt := range tests {
		if got := model.DurationFromMinutes(tt.minutes).String(); got != tt.want {
			t.Errorf("DurationFromMinutes(%d) = %q, want %q", tt.minutes, got, tt.want)
		}
	}
}

func TestParseField(t *testing.T) {
	for in, want := range map[string]model.Field{
		"start":       model.FieldStartTime,
		"startTime":   model.FieldStartTime,
		"lunch-start": model.FieldLunchStart,
		"lunch_end":   model.FieldLunchEnd,
		"END":         model.FieldEndTime,
	} {
		got, err := model.ParseField(in)
		if err != nil {
			t.Errorf("ParseField(%q): %v", in, err)
			continue
		}
		if got != want {
			t.Errorf("ParseField(%q) = %v, want %v", in, got, want)
		}
	}
	if _, err := model.ParseField("lunch"); err == nil {
		t.Error("ParseField(lunch): expected error")
	}
}

func TestCloneDoesNotShareClocks(t *testing.T) {
	e := model.TimeEntry{Date: "2026-10-12", StartTime: model.MustClock("09:00")}
	c := e.Clone()
	*c.StartTime = 0
	if e.StartTime.String() != "09:00" {
		t.Errorf("original StartTime changed to %s", e.StartTime)
	}
}

func TestPeriodIsSubmitted(t *testing.T) {
	p := model.Period{}
	if p.IsSubmitted() {
		t.Error("empty period reported as submitted")
	}
	p.Entries = []model.TimeEntry{
		{Date: "2026-10-12", Status: model.StatusSubmitted},
		{Date: "2026-10-13", Status: model.StatusActive},
	}
	if p.IsSubmitted() {
		t.Error("period with an active entry reported as submitted")
	}
	p.Entries[1].Status = model.StatusSubmitted
	if !p.IsSubmitted() {
		t.Error("fully submitted period not reported as submitted")
	}
}

func TestClockJSON(t *testing.T) {
	e := model.TimeEntry{Date: "2026-10-12", StartTime: model.MustClock("08:30")}
	data, err := json.Marshal(e)
	if err != nil {
		t.Fatal(err)
	}
	var back model.TimeEntry
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatal(err)
	}
	if back.StartTime == nil || back.StartTime.String() != "08:30" {
		t.Errorf("StartTime = %v, want 08:30", back.StartTime)
	}
	if back.EndTime != nil {
		t.Errorf("EndTime = %v, want nil", back.EndTime)
	}
}

package api

import (
	"fmt"

	"github.com/Tiliavir/trivial-timecard/internal/model"
	"github.com/Tiliavir/trivial-timecard/internal/timecalc"
)

// Entry is the snake_case shape the backend exchanges for one timecard day.
// Time fields are "HH:MM" strings or null.
type Entry struct {
	ID         int64      `json:"id,omitempty"`
	EmployeeID int64      `json:"employee_id,omitempty"`
	WorkDate   string     `json:"work_date"`
	StartTime  *string    `json:"start_time"`
	LunchStart *string    `json:"lunch_start"`
	LunchEnd   *string    `json:"lunch_end"`
	EndTime    *string    `json:"end_time"`
	TotalTime  *TotalTime `json:"total_time"`
	Status     string     `json:"status"`
}

// TotalTime is the wire form of a worked duration.
type TotalTime struct {
	Hours   int `json:"hours"`
	Minutes int `json:"minutes"`
}

type listResponse struct {
	Data []Entry `json:"data"`
}

type itemResponse struct {
	Data Entry `json:"data"`
}

// ToEntry translates the wire shape into a model entry, normalizing the date
// to UTC and treating blank times as absent. A missing total_time is
// recomputed from the time fields.
func (w Entry) ToEntry() (model.TimeEntry, error) {
	date, err := timecalc.NormalizeDate(w.WorkDate)
	if err != nil {
		return model.TimeEntry{}, err
	}
	e := model.TimeEntry{
		Date:   date,
		ID:     w.ID,
		Status: model.ParseStatus(w.Status),
	}
	for _, f := range []struct {
		field model.Field
		value *string
	}{
		{model.FieldStartTime, w.StartTime},
		{model.FieldLunchStart, w.LunchStart},
		{model.FieldLunchEnd, w.LunchEnd},
		{model.FieldEndTime, w.EndTime},
	} {
		if f.value == nil {
			continue
		}
		c, err := model.ParseOptionalClock(*f.value)
		if err != nil {
			return model.TimeEntry{}, fmt.Errorf("%s: %w", f.field, err)
		}
		e.Set(f.field, c)
	}
	if w.TotalTime != nil {
		e.TotalTime = model.DurationFromMinutes(w.TotalTime.Hours*60 + w.TotalTime.Minutes)
	} else {
		e.TotalTime = timecalc.EntryDuration(e)
	}
	return e, nil
}

// FromEntry builds the wire shape of e for a create or update body, or for a
// backend response.
func FromEntry(employeeID int64, e model.TimeEntry) Entry {
	status := e.Status
	if status == "" {
		status = model.StatusUnset
	}
	return Entry{
		ID:         e.ID,
		EmployeeID: employeeID,
		WorkDate:   e.Date,
		StartTime:  clockString(e.StartTime),
		LunchStart: clockString(e.LunchStart),
		LunchEnd:   clockString(e.LunchEnd),
		EndTime:    clockString(e.EndTime),
		TotalTime:  &TotalTime{Hours: e.TotalTime.Hours, Minutes: e.TotalTime.Minutes},
		Status:     string(status),
	}
}

func clockString(c *model.Clock) *string {
	if c == nil {
		return nil
	}
	s := c.String()
	return &s
}

package cmd

import (
	"fmt"
	"io"
	"time"

	"github.com/Tiliavir/trivial-timecard/internal/model"
	"github.com/Tiliavir/trivial-timecard/internal/timecalc"
)

const gridHeader = "Date        Day  Start  Lunch  Back   End    Total    Status"

// printPeriod prints the ten-day grid with per-day and period totals.
func printPeriod(w io.Writer, p model.Period) {
	fmt.Fprintf(w, "Period %s – %s\n", timecalc.FormatDate(p.Start), timecalc.FormatDate(p.End()))
	fmt.Fprintln(w, gridHeader)
	for i, e := range p.Entries {
		// Blank line between the two weeks.
		if i > 0 && e.Day().Weekday() == time.Monday {
			fmt.Fprintln(w)
		}
		fmt.Fprintln(w, formatRow(e))
	}
	fmt.Fprintf(w, "%-45s%s\n", "Total", p.Total())
	if p.IsSubmitted() {
		fmt.Fprintln(w, "Submitted.")
	}
}

// formatRow renders one entry as a grid row. Absent times show as "--:--".
func formatRow(e model.TimeEntry) string {
	return fmt.Sprintf("%-10s  %-3s  %-5s  %-5s  %-5s  %-5s  %-7s  %s",
		e.Date,
		e.Day().Weekday().String()[:3],
		clockCell(e.StartTime),
		clockCell(e.LunchStart),
		clockCell(e.LunchEnd),
		clockCell(e.EndTime),
		e.TotalTime,
		e.Status,
	)
}

func clockCell(c *model.Clock) string {
	if c == nil {
		return "--:--"
	}
	return c.String()
}

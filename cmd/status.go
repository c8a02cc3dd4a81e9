package cmd

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/Tiliavir/trivial-timecard/internal/model"
	"github.com/Tiliavir/trivial-timecard/internal/timecalc"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Summarize the active timecard period",
	Args:  cobra.NoArgs,
	RunE:  runStatus,
}

func runStatus(cmd *cobra.Command, args []string) error {
	s := openSession(cmd.Context())
	defer s.Close()

	printStatus(os.Stdout, loadPeriod(cmd.Context(), s), time.Now())
	return nil
}

// printStatus prints how far the period has been filled in and today's row.
func printStatus(w io.Writer, p model.Period, now time.Time) {
	var filled, submitted int
	for _, e := range p.Entries {
		if e.TotalTime.TotalMinutes() > 0 {
			filled++
		}
		if e.Submitted() {
			submitted++
		}
	}

	fmt.Fprintf(w, "Period %s – %s\n", timecalc.FormatDate(p.Start), timecalc.FormatDate(p.End()))
	fmt.Fprintf(w, "  Filled: %d/%d days\n", filled, len(p.Entries))
	fmt.Fprintf(w, "  Logged: %s\n", p.Total())
	switch {
	case p.IsSubmitted():
		fmt.Fprintln(w, "  Submitted.")
	case submitted > 0:
		fmt.Fprintf(w, "  Submitted: %d/%d days\n", submitted, len(p.Entries))
	}

	today := timecalc.FormatDate(timecalc.CalendarDate(now))
	if i := p.Find(today); i >= 0 {
		fmt.Fprintf(w, "Today: %s logged.\n", p.Entries[i].TotalTime)
	} else {
		fmt.Fprintln(w, "Today is not a workday of this period.")
	}
}

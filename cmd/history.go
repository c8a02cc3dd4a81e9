package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"github.com/Tiliavir/trivial-timecard/internal/api"
	"github.com/Tiliavir/trivial-timecard/internal/config"
	"github.com/Tiliavir/trivial-timecard/internal/model"
	"github.com/Tiliavir/trivial-timecard/internal/timecalc"
	"github.com/Tiliavir/trivial-timecard/internal/timecard"
)

var (
	historyFrom string
	historyTo   string
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recorded days with their total hours worked",
	Args:  cobra.NoArgs,
	RunE:  runHistory,
}

func init() {
	historyCmd.Flags().StringVar(&historyFrom, "from", "", "Start date (YYYY-MM-DD)")
	historyCmd.Flags().StringVar(&historyTo, "to", "", "End date (YYYY-MM-DD); defaults to today when --from is set")
}

// parseRange parses optional --from/--to flags. Both zero means "everything".
func parseRange(from, to string, now time.Time) (time.Time, time.Time, error) {
	if from == "" && to != "" {
		return time.Time{}, time.Time{}, fmt.Errorf("--from is required when --to is specified")
	}
	if from == "" {
		return time.Time{}, time.Time{}, nil
	}
	f, err := timecalc.ParseDate(from)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid --from: %w", err)
	}
	t := timecalc.CalendarDate(now)
	if to != "" {
		if t, err = timecalc.ParseDate(to); err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid --to: %w", err)
		}
	}
	if t.Before(f) {
		return time.Time{}, time.Time{}, fmt.Errorf("--to %s is before --from %s", timecalc.FormatDate(t), timecalc.FormatDate(f))
	}
	return f, t, nil
}

// fetchEntries loads the employee's entries, limited to [from, to] unless
// both are zero. It exits on failure.
func fetchEntries(ctx context.Context, from, to time.Time) []model.TimeEntry {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	client := newClient(ctx, cfg)

	var entries []model.TimeEntry
	if from.IsZero() {
		entries, err = client.FetchAll(ctx)
	} else {
		entries, err = client.FetchRange(ctx, from, to)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, describeFetchError(err))
		os.Exit(2)
	}
	sort.SliceStable(entries, func(i, j int) bool { return entries[i].Date < entries[j].Date })
	return entries
}

func describeFetchError(err error) string {
	var httpErr *api.HTTPError
	if errors.As(err, &httpErr) {
		return fmt.Sprintf("backend returned %d for %s", httpErr.StatusCode, httpErr.URL)
	}
	return err.Error()
}

func runHistory(cmd *cobra.Command, args []string) error {
	from, to, err := parseRange(historyFrom, historyTo, time.Now())
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	printHistory(os.Stdout, fetchEntries(cmd.Context(), from, to))
	return nil
}

// printHistory lists every recorded day with its total and the grand total.
// Several entries for one date are shown once.
func printHistory(w io.Writer, entries []model.TimeEntry) {
	entries = timecard.OnePerDate(entries)
	if len(entries) == 0 {
		fmt.Fprintln(w, "No timecards found.")
		return
	}
	fmt.Fprintln(w, "Total Hours Worked")
	fmt.Fprintln(w, "--------------------------------")
	var minutes int
	for _, e := range entries {
		fmt.Fprintf(w, "%-10s  %-3s  %-8s  %s\n", e.Date, e.Day().Weekday().String()[:3], e.TotalTime, e.Status)
		minutes += e.TotalTime.TotalMinutes()
	}
	fmt.Fprintln(w, "--------------------------------")
	fmt.Fprintf(w, "%-17s%s\n", "Total", model.DurationFromMinutes(minutes))
}

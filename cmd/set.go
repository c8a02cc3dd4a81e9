package cmd

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/Tiliavir/trivial-timecard/internal/model"
	"github.com/Tiliavir/trivial-timecard/internal/timecalc"
	"github.com/Tiliavir/trivial-timecard/internal/timecard"
)

var setCmd = &cobra.Command{
	Use:   "set <date> <field>=<HH:MM>...",
	Short: "Set time fields of one day in the active period",
	Long: `Set one or more time fields of a day. Fields are start, lunch-start,
lunch-end and end. Use "-" as the value to clear a field, and "today" as
the date for the current day.

  ttc set 2026-10-12 start=09:00 lunch-start=12:00 lunch-end=12:30 end=17:15`,
	Args: cobra.MinimumNArgs(2),
	RunE: runSet,
}

// assignment is one parsed field=value argument. A nil value clears the field.
type assignment struct {
	field model.Field
	value *model.Clock
}

// parseAssignments parses field=HH:MM arguments. "-" and an empty value
// clear the field.
func parseAssignments(args []string) ([]assignment, error) {
	out := make([]assignment, 0, len(args))
	for _, arg := range args {
		name, raw, ok := strings.Cut(arg, "=")
		if !ok {
			return nil, fmt.Errorf("invalid argument %q: want field=HH:MM", arg)
		}
		field, err := model.ParseField(name)
		if err != nil {
			return nil, err
		}
		raw = strings.TrimSpace(raw)
		if raw == "-" {
			raw = ""
		}
		value, err := model.ParseOptionalClock(raw)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", field, err)
		}
		out = append(out, assignment{field: field, value: value})
	}
	return out, nil
}

func parseDayArg(s string, now time.Time) (string, error) {
	if strings.EqualFold(s, "today") {
		return timecalc.FormatDate(timecalc.CalendarDate(now)), nil
	}
	d, err := timecalc.ParseDate(s)
	if err != nil {
		return "", err
	}
	return timecalc.FormatDate(d), nil
}

func runSet(cmd *cobra.Command, args []string) error {
	date, err := parseDayArg(args[0], time.Now())
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	edits, err := parseAssignments(args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	s := openSession(cmd.Context())
	defer s.Close()

	loadPeriod(cmd.Context(), s)

	var entry model.TimeEntry
	for _, a := range edits {
		entry, err = s.ctrl.Edit(date, a.field, a.value)
		switch {
		case errors.Is(err, timecard.ErrDegraded):
			fmt.Fprintln(os.Stderr, "Cannot edit while the backend is unreachable.")
			s.Close()
			os.Exit(2)
		case errors.Is(err, timecard.ErrValidationRejected):
			// Already reported through the notifier.
			s.Close()
			os.Exit(1)
		case err != nil:
			fmt.Fprintln(os.Stderr, err)
			s.Close()
			os.Exit(1)
		}
	}

	if err := s.ctrl.Flush(cmd.Context()); err != nil {
		// The notifier has printed the rollback.
		s.Close()
		os.Exit(2)
	}

	if i := s.ctrl.Period().Find(date); i >= 0 {
		entry = s.ctrl.Period().Entries[i]
	}
	fmt.Println(gridHeader)
	fmt.Println(formatRow(entry))
	return nil
}

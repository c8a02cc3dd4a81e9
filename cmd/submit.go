package cmd

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Tiliavir/trivial-timecard/internal/timecard"
)

var submitYes bool

var submitCmd = &cobra.Command{
	Use:   "submit",
	Short: "Submit the active timecard period",
	Args:  cobra.NoArgs,
	RunE:  runSubmit,
}

func init() {
	submitCmd.Flags().BoolVarP(&submitYes, "yes", "y", false, "Submit even if some days were never saved (they are skipped)")
}

func runSubmit(cmd *cobra.Command, args []string) error {
	s := openSession(cmd.Context())
	defer s.Close()

	loadPeriod(cmd.Context(), s)

	res, err := s.ctrl.Submit(cmd.Context(), timecard.SubmitOptions{AllowMissing: submitYes})
	var subErr *timecard.SubmissionError
	switch {
	case err == nil:
		fmt.Printf("Timecard period submitted (%d days).\n", len(res.Submitted))
		if len(res.MissingDates) > 0 {
			fmt.Printf("Skipped unsaved days: %s\n", strings.Join(res.MissingDates, ", "))
		}
		return nil
	case errors.Is(err, timecard.ErrDegraded):
		fmt.Fprintln(os.Stderr, "Cannot submit while the backend is unreachable.")
		s.Close()
		os.Exit(2)
	case errors.Is(err, timecard.ErrNothingToSubmit):
		fmt.Fprintf(os.Stderr, "Nothing to submit: these days were never saved: %s\nEdit them with `ttc set` first.\n",
			strings.Join(res.MissingDates, ", "))
		s.Close()
		os.Exit(1)
	case errors.Is(err, timecard.ErrAlreadySubmitted):
		// Reported through the notifier.
		s.Close()
		os.Exit(1)
	case errors.Is(err, timecard.ErrConfirmationRequired):
		fmt.Fprintf(os.Stderr, "These days were never saved: %s\nRun `ttc submit --yes` to submit without them.\n",
			strings.Join(res.MissingDates, ", "))
		s.Close()
		os.Exit(1)
	case errors.As(err, &subErr):
		if subErr.Total {
			fmt.Fprintln(os.Stderr, "Submission failed; nothing was submitted. Try again later.")
		} else {
			fmt.Fprintf(os.Stderr, "Submitted %d days, but these failed: %s\nRun `ttc submit` again to retry them.\n",
				len(res.Submitted), strings.Join(subErr.FailedDates, ", "))
		}
		s.Close()
		os.Exit(2)
	default:
		fmt.Fprintln(os.Stderr, err)
		s.Close()
		os.Exit(2)
	}
	return nil
}

package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/Tiliavir/trivial-timecard/internal/timecalc"
)

var newCmd = &cobra.Command{
	Use:   "new [date]",
	Short: "Start a timecard period for the given date (default today)",
	Long: `Start a two-week timecard period. The period begins on the Monday on or
before the date; a Sunday moves forward to the following Monday. Missing
days are created on the backend right away.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runNew,
}

func runNew(cmd *cobra.Command, args []string) error {
	ref := time.Now()
	if len(args) == 1 {
		d, err := timecalc.ParseDate(args[0])
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		ref = d
	}

	s := openSession(cmd.Context())
	defer s.Close()

	p, err := s.ctrl.Begin(cmd.Context(), ref)
	p = checkPeriod(s, p, err)

	fmt.Printf("Started timecard period %s – %s\n\n", timecalc.FormatDate(p.Start), timecalc.FormatDate(p.End()))
	printPeriod(os.Stdout, p)
	return nil
}

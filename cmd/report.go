package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/Tiliavir/trivial-timecard/internal/report"
)

var (
	reportFrom   string
	reportTo     string
	reportFormat string
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Show worked time per ISO week, days worked and absent days",
	Args:  cobra.NoArgs,
	RunE:  runReport,
}

func init() {
	reportCmd.Flags().StringVar(&reportFrom, "from", "", "Start date (YYYY-MM-DD); defaults to the earliest recorded day")
	reportCmd.Flags().StringVar(&reportTo, "to", "", "End date (YYYY-MM-DD); defaults to today when --from is set")
	reportCmd.Flags().StringVar(&reportFormat, "format", "md", "Output format: md, json, yaml")
}

func runReport(cmd *cobra.Command, args []string) error {
	if _, err := report.ParseFormat(reportFormat); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	from, to, err := parseRange(reportFrom, reportTo, time.Now())
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	entries := fetchEntries(cmd.Context(), from, to)
	if err := report.Write(os.Stdout, report.Build(entries, from, to), reportFormat); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	return nil
}

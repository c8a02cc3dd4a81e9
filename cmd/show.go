package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the active timecard period",
	Args:  cobra.NoArgs,
	RunE:  runShow,
}

func runShow(cmd *cobra.Command, args []string) error {
	s := openSession(cmd.Context())
	defer s.Close()

	printPeriod(os.Stdout, loadPeriod(cmd.Context(), s))
	return nil
}

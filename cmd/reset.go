package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Forget the active timecard period",
	Long: `Forget the active timecard period on this machine. Saved days stay on the
backend; run ttc new to pick a period again.`,
	Args: cobra.NoArgs,
	RunE: runReset,
}

func runReset(cmd *cobra.Command, args []string) error {
	s := openSession(cmd.Context())
	defer s.Close()

	if err := s.ctrl.Reset(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		s.Close()
		os.Exit(2)
	}
	fmt.Println("Active timecard period cleared.")
	return nil
}

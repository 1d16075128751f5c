package commands

import (
	"fmt"

	"teetimes-backend/internal/components/chrono"

	"github.com/spf13/cobra"
)

var windowDays int

func init() {
	windowCmd.Flags().IntVar(&windowDays, "days", 0, "Size of the date window, defaults to the configured days.")
	rootCmd.AddCommand(windowCmd)
}

var windowCmd = &cobra.Command{
	Use:   "window [--days <n>]",
	Short: "Prints the dates a refresh run would cover right now.",
	RunE: func(cmd *cobra.Command, args []string) error {
		days := cfg.Days
		if windowDays > 0 {
			days = windowDays
		}
		clock, err := chrono.NewStandardImpl(cfg.Timezone)
		if err != nil {
			return err
		}
		for _, date := range chrono.ResolveWindow(clock.Now(), days) {
			fmt.Fprintln(cmd.OutOrStdout(), date)
		}
		return nil
	},
}

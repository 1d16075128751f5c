package commands

import (
	"github.com/spf13/cobra"
)

var (
	scrapeCourses []string
	scrapeDays    int
)

func init() {
	scrapeCmd.Flags().StringSliceVar(&scrapeCourses, "course", nil, "Only refresh this course id, can be repeated.")
	scrapeCmd.Flags().IntVar(&scrapeDays, "days", 0, "Size of the date window, defaults to the configured days.")
	rootCmd.AddCommand(scrapeCmd)
}

var scrapeCmd = &cobra.Command{
	Use:   "scrape [--course <id>]... [--days <n>]",
	Short: "Runs one refresh over the catalog and prints its statistics.",
	RunE: func(cmd *cobra.Command, args []string) error {
		days := cfg.Days
		if scrapeDays > 0 {
			days = scrapeDays
		}

		r, err := newRefresher(cmd.Context(), scrapeCourses, days)
		if err != nil {
			return err
		}
		defer r.close()

		stats, err := r.run(cmd.Context())
		if stats != nil {
			renderStats(cmd.OutOrStdout(), stats)
		}
		return err
	},
}

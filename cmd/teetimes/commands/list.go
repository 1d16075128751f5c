package commands

import (
	"teetimes-backend/internal/store"

	"github.com/spf13/cobra"
)

var listFilter store.Filter

func init() {
	flags := listCmd.Flags()
	flags.StringVar(&listFilter.CourseID, "course", "", "Only list this course id.")
	flags.StringVar(&listFilter.Date, "date", "", "Only list this date (YYYY-MM-DD).")
	flags.StringVar(&listFilter.Source, "source", "", "Only list this source.")
	rootCmd.AddCommand(listCmd)
}

var listCmd = &cobra.Command{
	Use:   "list [--course <id>] [--date <date>] [--source <source>]",
	Short: "Prints the tee times currently in the database.",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := cfg.Database.Open(cmd.Context(), tel)
		if err != nil {
			return err
		}
		defer s.Close()

		records, err := s.Query(cmd.Context(), listFilter)
		if err != nil {
			return err
		}
		renderTeeTimes(cmd.OutOrStdout(), records)
		return nil
	},
}

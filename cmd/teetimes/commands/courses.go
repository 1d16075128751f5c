package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(coursesCmd)
}

var coursesCmd = &cobra.Command{
	Use:   "courses",
	Short: "Prints the course catalog and checks it for mistakes.",
	RunE: func(cmd *cobra.Command, args []string) error {
		registry := newRegistry()
		cat, problems, err := loadCatalog(registry)
		if err != nil {
			for _, e := range problems.Errors {
				fmt.Fprintln(cmd.ErrOrStderr(), "error:", e)
			}
			return err
		}
		renderCourses(cmd.OutOrStdout(), cat, registry)
		for _, w := range problems.Warnings {
			fmt.Fprintln(cmd.ErrOrStderr(), "warning:", w)
		}
		return nil
	},
}

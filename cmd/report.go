package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// newReportCmd prints the analysis report for the persisted snapshot.
func newReportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "report",
		Short: "Prints the analysis report for the stored snapshot",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := resolveApp(cmd.Context())
			if err != nil {
				return err
			}
			titles, err := a.Store.LoadTitles(cmd.Context())
			if err != nil {
				return fmt.Errorf("load snapshot: %w", err)
			}
			report := a.Analytics.GenerateReport(titles)

			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			if err := enc.Encode(report); err != nil {
				return fmt.Errorf("encode report: %w", err)
			}
			return nil
		},
	}
}

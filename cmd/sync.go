package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// newSyncCmd runs one full acquisition pipeline pass and exits.
func newSyncCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Runs one acquisition pass against the eCFR API",
		Long: `Fetches the agency and title catalogs, enriches every title with
regulation content, and replaces the persisted snapshot and analytics
artifacts. The previous snapshot is kept on failure.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := resolveApp(cmd.Context())
			if err != nil {
				return err
			}
			titles, err := a.Pipeline.Run(cmd.Context())
			if err != nil {
				return fmt.Errorf("sync: %w", err)
			}
			a.Logger.Info("sync finished", zap.Int("titles", len(titles)))
			return nil
		},
	}
}

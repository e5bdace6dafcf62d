package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/vitran/ecfr-analyzer/internal/api"
)

// newServeCmd starts the HTTP API server.
func newServeCmd() *cobra.Command {
	var syncOnStart bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serves the analytics HTTP API",
		Long: `Starts an HTTP server exposing the analysis report, agency
rankings, and sync control endpoints over the persisted snapshot.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := resolveApp(cmd.Context())
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			if syncOnStart {
				if _, err := a.Pipeline.Run(ctx); err != nil {
					a.Logger.Warn("initial sync failed; serving existing snapshot", zap.Error(err))
				}
			}

			server := &http.Server{
				Addr:              fmt.Sprintf(":%d", a.Config.Server.Port),
				Handler:           api.NewServer(a.Store, a.Analytics, a.Pipeline, a.Logger).Handler(),
				ReadHeaderTimeout: 10 * time.Second,
			}

			errCh := make(chan error, 1)
			go func() {
				a.Logger.Info("http server listening", zap.String("addr", server.Addr))
				errCh <- server.ListenAndServe()
			}()

			select {
			case err := <-errCh:
				if err != nil && !errors.Is(err, http.ErrServerClosed) {
					return fmt.Errorf("serve: %w", err)
				}
				return nil
			case <-ctx.Done():
			}

			shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
			defer cancel()
			if err := server.Shutdown(shutdownCtx); err != nil {
				return fmt.Errorf("shutdown: %w", err)
			}
			a.Logger.Info("http server stopped")
			return nil
		},
	}

	cmd.Flags().BoolVar(&syncOnStart, "sync-on-start", false, "run one acquisition pass before serving")
	return cmd
}

// File: cmd/run.go
package cmd

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/xkilldash9x/journeyman/internal/config"
	"github.com/xkilldash9x/journeyman/internal/observability"
	"github.com/xkilldash9x/journeyman/internal/scenario"
)

// newRunCmd creates and configures the `run` command.
func newRunCmd() *cobra.Command {
	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Runs the journey suite against the configured base URL",
		PreRunE: func(cmd *cobra.Command, args []string) error {
			// Bind flags to their Viper keys so command-line values override
			// the config file and environment with the right precedence.
			if err := viper.BindPFlag("harness.base_url", cmd.Flags().Lookup("base-url")); err != nil {
				return err
			}
			if err := viper.BindPFlag("harness.wait_timeout", cmd.Flags().Lookup("timeout")); err != nil {
				return err
			}
			return viper.BindPFlag("browser.headless", cmd.Flags().Lookup("headless"))
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			// A signal-aware context so Ctrl-C tears sessions down cleanly.
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			logger := observability.GetLogger()

			cfg, err := config.NewConfigFromViper(viper.GetViper())
			if err != nil {
				return err
			}

			logger.Info("Starting journey suite",
				zap.String("base_url", cfg.Harness.BaseURL),
				zap.Duration("wait_timeout", cfg.Harness.WaitTimeout),
				zap.Bool("headless", cfg.Browser.Headless),
				zap.Bool("credentials_present", cfg.Credentials.HasCredentials()),
			)

			runner := scenario.NewRunner(
				scenario.HarnessFactory(cfg, logger),
				logger,
				scenario.All(cfg)...,
			)
			results := runner.Execute(ctx)

			fmt.Fprintln(cmd.OutOrStdout(), scenario.Summarize(results))

			if failed := scenario.FailedCount(results); failed > 0 {
				return fmt.Errorf("%d scenario(s) failed", failed)
			}
			return nil
		},
	}

	runCmd.Flags().String("base-url", "", "base URL of the target application")
	runCmd.Flags().Duration("timeout", 0, "ceiling for every bounded wait")
	runCmd.Flags().Bool("headless", true, "run the browser headless")

	return runCmd
}

package commands

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"teetimes-backend/internal/components/serviceutil"
	"teetimes-backend/internal/components/telemetry"

	"github.com/spf13/cobra"
)

var (
	configPath string
	verbose    bool
	logFormat  string

	cfg       Config
	tel       telemetry.API = telemetry.SlogAPI{}
	providers telemetry.Otel
)

var rootCmd = &cobra.Command{
	Use:          "teetimes",
	Short:        "teetimes collects golf tee times from public booking pages into a database.",
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		telemetry.InitSlog(verbose, logFormat)
		if verbose {
			slog.Debug("verbose logging enabled")
		}

		var err error
		cfg, err = readConfig(configPath)
		if err != nil {
			return err
		}
		providers, err = telemetry.Setup(cmd.Context(), "teetimes", cfg.Telemetry)
		if err != nil {
			return fmt.Errorf("setup telemetry: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		err := providers.Shutdown(ctx)
		if err != nil {
			slog.Warn("shutdown telemetry", "err", err)
		}
	},
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&configPath, "config", "config.json5", "Path to the config file, a .local override next to it is merged in.")
	flags.BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging.")
	flags.StringVar(&logFormat, "log-format", "text", "Log format, text or json.")
}

func ExecuteContext(ctx context.Context) {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		serviceutil.Fatal("teetimes failed", err)
	}
}

package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/oshokin/alarm-history/internal/config"
	"github.com/oshokin/alarm-history/internal/service/server"
	"github.com/oshokin/alarm-history/internal/version"
)

var (
	// configPath to the configuration YAML file.
	configPath string
	// recordsFile overrides the records file of the file backend.
	recordsFile string
	// logLevel overrides the configured log level.
	logLevel string

	// rootCmd represents the base command for running the gRPC server.
	rootCmd = &cobra.Command{
		Use:   "alarm-history-server [listen-address]",
		Short: "Serve historical alarms over gRPC.",
		Long: `Starts the gRPC alarm history server that answers FetchHistoricalAlarms requests.

Alarms are read from a YAML records file or from PostgreSQL, as selected by the
backend setting. Only the port from ServerAddress config is used for listening
(e.g., :8080). Listen address can be provided as argument to override config.
When metrics_addr is set, Prometheus metrics and a health check are served over HTTP.`,
		Args:         cobra.MaximumNArgs(1),
		SilenceUsage: true,
		RunE: func(_ *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()

			var listenAddress string
			if len(args) > 0 {
				listenAddress = args[0]
			}

			return server.Run(ctx, &server.Options{
				ConfigPath:    configPath,
				ListenAddress: listenAddress,
				RecordsFile:   recordsFile,
				LogLevel:      logLevel,
			})
		},
	}
)

// Execute runs the alarm-history-server CLI and exits with non-zero status on error.
func Execute() {
	version.AttachCobraVersionCommand(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	rootCmd.Flags().StringVarP(&configPath, "config", "c", config.DefaultConfigFilename, "path to configuration file")
	rootCmd.Flags().StringVarP(&recordsFile, "records-file", "r", "", "records file of the file backend")
	rootCmd.Flags().StringVar(&logLevel, "log-level", "", "log level override (debug, info, warn, error)")
}

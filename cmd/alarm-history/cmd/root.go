package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/oshokin/alarm-history/internal/config"
	client "github.com/oshokin/alarm-history/internal/service/client"
	"github.com/oshokin/alarm-history/internal/version"
)

var (
	// cfgPath stores the configuration file path.
	cfgPath string
	// service is the service name to search alarms for.
	service string
	// startTime and endTime bound the creation time window.
	startTime, endTime string
	// output selects the rendering format.
	output string
	// logLevel overrides the configured log level.
	logLevel string

	// rootCmd represents the base command for querying alarm history.
	rootCmd = &cobra.Command{
		Use:   "alarm-history [server-address]",
		Short: "Show historical alarms of a service.",
		Long: `Queries the alarm history server for alarms raised on elements of a service.

Alarms are matched by service name (":" is treated as "_") and by creation time,
with both window bounds inclusive. Times are RFC 3339 or YYYY-MM-DD (UTC midnight).
Server address can be provided as argument or loaded from configuration file.

If the server cannot answer, the command prints "No alarms found." and exits with a non-zero status.`,
		Args:         cobra.MaximumNArgs(1),
		SilenceUsage: true,
		RunE: func(_ *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()

			start, err := parseTime(startTime)
			if err != nil {
				return fmt.Errorf("invalid --start: %w", err)
			}

			end, err := parseTime(endTime)
			if err != nil {
				return fmt.Errorf("invalid --end: %w", err)
			}

			var serverAddress string
			if len(args) > 0 {
				serverAddress = args[0]
			}

			return client.Run(ctx, &client.Options{
				ConfigPath:    cfgPath,
				ServerAddress: serverAddress,
				LogLevel:      logLevel,
				Service:       service,
				Start:         start,
				End:           end,
				Output:        output,
			})
		},
	}
)

// parseTime accepts RFC 3339 timestamps and plain dates.
func parseTime(value string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t, nil
	}

	return time.Parse(time.DateOnly, value)
}

// Execute runs the alarm-history CLI and exits with non-zero status on error.
func Execute() {
	version.AttachCobraVersionCommand(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	flags := rootCmd.Flags()

	flags.StringVarP(&cfgPath, "config", "c", config.DefaultConfigFilename, "path to configuration file")
	flags.StringVarP(&service, "service", "s", "", "service name to search alarms for")
	flags.StringVar(&startTime, "start", "", "start of the time window (RFC 3339 or YYYY-MM-DD)")
	flags.StringVar(&endTime, "end", "", "end of the time window (RFC 3339 or YYYY-MM-DD)")
	flags.StringVarP(&output, "output", "o", client.OutputTable, "output format: table or json")
	flags.StringVar(&logLevel, "log-level", "", "log level override (debug, info, warn, error)")

	for _, name := range []string{"start", "end"} {
		if err := rootCmd.MarkFlagRequired(name); err != nil {
			panic(err)
		}
	}
}

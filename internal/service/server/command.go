package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"

	"github.com/gofrs/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"

	api "github.com/oshokin/alarm-history/internal/api/grpc/history"
	"github.com/oshokin/alarm-history/internal/config"
	"github.com/oshokin/alarm-history/internal/logger"
)

// Options controls the alarm-history-server process and configuration.
type Options struct {
	// ConfigPath specifies the path to settings YAML file.
	ConfigPath string
	// ListenAddress provides an optional listen address override for the gRPC server.
	ListenAddress string
	// RecordsFile overrides the records file of the file backend.
	RecordsFile string
	// LogLevel overrides the configured log level.
	LogLevel string
}

// ErrNoServerAddress indicates missing server configuration.
var ErrNoServerAddress = errors.New("no server address configured")

// Run starts the gRPC server and blocks until context is canceled or server stops.
// Loads configuration first, then determines listen address from config or override.
func Run(ctx context.Context, opts *Options) error {
	settings, err := config.Load(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("load settings: %w", err)
	}

	levelName := settings.LogLevel
	if opts.LogLevel != "" {
		levelName = opts.LogLevel
	}

	if err = logger.Configure(levelName); err != nil {
		return err
	}

	instanceID := uuid.Must(uuid.NewV4())
	ctx = logger.WithKV(logger.WithName(ctx, "alarm-history-server"), "instance_id", instanceID.String())

	recordsFile := settings.RecordsFile
	if opts.RecordsFile != "" {
		recordsFile = opts.RecordsFile
	}

	listenAddress, err := resolveListenAddress(settings.ServerAddress, opts.ListenAddress)
	if err != nil {
		return fmt.Errorf("resolve listen address: %w", err)
	}

	backend, closeBackend, err := newBackend(ctx, settings, recordsFile)
	if err != nil {
		return fmt.Errorf("initialise backend: %w", err)
	}

	defer func() {
		if closeErr := closeBackend(); closeErr != nil {
			logger.Errorf(ctx, "Failed to close backend: %v", closeErr)
		}
	}()

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	backend = instrument(backend, registry)

	lc := net.ListenConfig{}

	lis, err := lc.Listen(ctx, "tcp", listenAddress)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", listenAddress, err)
	}

	grpcServer := grpc.NewServer()
	api.RegisterAlarmHistoryServiceServer(grpcServer, api.NewServer(backend))

	logger.InfoKV(ctx, "Alarm history server listening",
		"listen_address", listenAddress,
		"backend", settings.Backend,
		"records_file", recordsFile,
	)

	group, groupCtx := errgroup.WithContext(ctx)

	group.Go(func() error {
		if serveErr := grpcServer.Serve(lis); serveErr != nil && !errors.Is(serveErr, grpc.ErrServerStopped) {
			return fmt.Errorf("serve gRPC: %w", serveErr)
		}

		return nil
	})

	var httpServer *http.Server

	if settings.MetricsAddress != "" {
		httpServer = &http.Server{
			Addr:              settings.MetricsAddress,
			Handler:           newHTTPHandler(registry, instanceID),
			ReadHeaderTimeout: settings.Timeout,
		}

		group.Go(func() error {
			logger.InfoKV(ctx, "Metrics endpoint listening", "metrics_address", settings.MetricsAddress)

			if serveErr := httpServer.ListenAndServe(); serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
				return fmt.Errorf("serve metrics: %w", serveErr)
			}

			return nil
		})
	}

	group.Go(func() error {
		<-groupCtx.Done()
		logger.Info(ctx, "Shutting down alarm history server")

		if httpServer != nil {
			shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), settings.Timeout)
			defer cancel()

			if shutdownErr := httpServer.Shutdown(shutdownCtx); shutdownErr != nil {
				logger.Errorf(ctx, "Failed to stop metrics endpoint: %v", shutdownErr)
			}
		}

		grpcServer.GracefulStop()

		return nil
	})

	if err = group.Wait(); err != nil {
		return err
	}

	logger.Info(ctx, "Alarm history server stopped")

	return nil
}

// resolveListenAddress determines the listen address for the gRPC server.
// If override is provided, uses it directly. Otherwise extracts port from configAddr.
func resolveListenAddress(configAddr, override string) (string, error) {
	if override != "" {
		return override, nil
	}

	if configAddr == "" {
		return "", ErrNoServerAddress
	}

	_, port, err := net.SplitHostPort(configAddr)
	if err != nil {
		return "", fmt.Errorf("invalid server address format %q: %w", configAddr, err)
	}

	// Bind on all interfaces.
	return ":" + port, nil
}

package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/gofrs/uuid"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/oshokin/alarm-history/internal/config"
	"github.com/oshokin/alarm-history/internal/domain/history"
	"github.com/oshokin/alarm-history/internal/metrics"
	"github.com/oshokin/alarm-history/internal/middleware"
	repository "github.com/oshokin/alarm-history/internal/repository/history"
	"github.com/oshokin/alarm-history/internal/version"
)

// Metric namespace and subsystem of backend calls.
const (
	metricsNamespace = "alarm_history"
	metricsSubsystem = "backend"
)

// noopClose is returned for backends that hold no resources.
func noopClose() error { return nil }

// newBackend builds the configured alarm store. The returned function releases
// the store's resources.
func newBackend(ctx context.Context, settings *config.Config, recordsFile string) (history.Backend, func() error, error) {
	switch settings.Backend {
	case config.BackendPostgres:
		connectCtx, cancel := context.WithTimeout(ctx, settings.Timeout)
		defer cancel()

		db, err := repository.Connect(connectCtx, settings.DatabaseURL)
		if err != nil {
			return nil, nil, fmt.Errorf("connect to postgres: %w", err)
		}

		return repository.NewPostgresRepository(db), db.Close, nil
	case config.BackendFile, "":
		return repository.NewFileRepository(recordsFile), noopClose, nil
	default:
		return nil, nil, fmt.Errorf("unsupported backend %q", settings.Backend)
	}
}

// instrument wraps backend with logging and metrics middleware. The metrics
// are registered on registry.
func instrument(backend history.Backend, registry prometheus.Registerer) history.Backend {
	counter, latency := metrics.MakeMetrics(registry, metricsNamespace, metricsSubsystem)

	backend = middleware.NewLoggingMiddleware(backend)
	backend = middleware.NewMetricsMiddleware(counter, latency, backend)

	return backend
}

// healthResponse is the body of the health endpoint.
type healthResponse struct {
	// Status is always "pass" while the process serves requests.
	Status string `json:"status"`
	// InstanceID identifies the running server process.
	InstanceID string `json:"instance_id"`

	version.Info
}

// newHTTPHandler serves Prometheus metrics and the health check.
func newHTTPHandler(registry *prometheus.Registry, instanceID uuid.UUID) http.Handler {
	mux := chi.NewRouter()

	mux.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/health+json")

		_ = json.NewEncoder(w).Encode(healthResponse{
			Status:     "pass",
			InstanceID: instanceID.String(),
			Info:       version.Current(),
		})
	})
	mux.Handle("/metrics", metrics.Handler(registry))

	return mux
}

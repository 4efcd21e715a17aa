package middleware

import (
	"context"
	"time"

	"github.com/go-kit/kit/metrics"

	"github.com/oshokin/alarm-history/internal/domain/history"
)

// methodFetch is the metrics label of FetchHistoricalAlarms.
const methodFetch = "fetch_historical_alarms"

type metricsMiddleware struct {
	counter metrics.Counter
	latency metrics.Histogram
	backend history.Backend
}

var _ history.Backend = (*metricsMiddleware)(nil)

// NewMetricsMiddleware counts and times every fetch, labeled by outcome.
func NewMetricsMiddleware(counter metrics.Counter, latency metrics.Histogram, backend history.Backend) history.Backend {
	return &metricsMiddleware{
		counter: counter,
		latency: latency,
		backend: backend,
	}
}

func (mm *metricsMiddleware) FetchHistoricalAlarms(
	ctx context.Context,
	filter history.FetchFilter,
) (records []history.AlarmRecord, err error) {
	defer func(begin time.Time) {
		outcome := outcomeOf(records, err)
		mm.counter.With("method", methodFetch, "outcome", outcome).Add(1)
		mm.latency.With("method", methodFetch, "outcome", outcome).Observe(time.Since(begin).Seconds())
	}(time.Now())

	return mm.backend.FetchHistoricalAlarms(ctx, filter)
}

// outcomeOf classifies a fetch result the same way the query pipeline does.
func outcomeOf(records []history.AlarmRecord, err error) string {
	switch {
	case err != nil:
		return "failed"
	case len(records) == 0:
		return "empty"
	default:
		return "ready"
	}
}

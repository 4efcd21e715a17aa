package middleware

import (
	"context"
	"time"

	"github.com/oshokin/alarm-history/internal/domain/history"
	"github.com/oshokin/alarm-history/internal/logger"
)

type loggingMiddleware struct {
	backend history.Backend
}

var _ history.Backend = (*loggingMiddleware)(nil)

// NewLoggingMiddleware logs every fetch through the context logger.
func NewLoggingMiddleware(backend history.Backend) history.Backend {
	return &loggingMiddleware{backend: backend}
}

func (lm *loggingMiddleware) FetchHistoricalAlarms(
	ctx context.Context,
	filter history.FetchFilter,
) (records []history.AlarmRecord, err error) {
	defer func(begin time.Time) {
		kvs := []any{
			"duration", time.Since(begin).String(),
			"service_pattern", filter.ServicePattern,
			"start_time", filter.StartTime,
			"end_time", filter.EndTime,
			"scope", string(filter.Scope),
		}

		if err != nil {
			logger.WarnKV(ctx, "Fetch historical alarms failed", append(kvs, "error", err)...)

			return
		}

		logger.InfoKV(ctx, "Fetch historical alarms completed", append(kvs, "records", len(records))...)
	}(time.Now())

	return lm.backend.FetchHistoricalAlarms(ctx, filter)
}

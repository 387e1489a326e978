package telemetry

import (
	"context"
	"sync/atomic"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

// StockGauge registers an observable gauge for the available-unit count
// and returns the setter the stock watcher calls on every poll.
func StockGauge() (func(available int), error) {
	var current atomic.Int64

	meter := otel.Meter("github.com/mbravoz/drop-storefront/internal/telemetry")
	_, err := meter.Int64ObservableGauge("storefront.stock_available",
		metric.WithDescription("Units currently available for sale"),
		metric.WithInt64Callback(func(_ context.Context, o metric.Int64Observer) error {
			o.Observe(current.Load())
			return nil
		}),
	)
	if err != nil {
		return nil, err
	}

	return func(available int) {
		current.Store(int64(available))
	}, nil
}

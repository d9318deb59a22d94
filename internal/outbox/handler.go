package outbox

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/lmello0/status-page/internal/domain/kafka"
	"github.com/lmello0/status-page/internal/domain/outbox"
	"github.com/lmello0/status-page/internal/obs/retry"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.opentelemetry.io/otel"
)

var (
	handlerLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "outbox_handler_latency_seconds",
		Help:    "Latency of outbox handlers, retries included.",
		Buckets: prometheus.DefBuckets,
	}, []string{"kind"})
	handlerErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "outbox_handler_errors_total",
		Help: "Errors in outbox handlers after retries.",
	}, []string{"kind"})
)

func instrument(kind outbox.Kind, h outbox.KindHandler, pol retry.Policy) outbox.KindHandler {
	tr := otel.Tracer("outbox.handler")
	if pol.Name == "" {
		pol.Name = "outbox_" + kind.String()
	}
	return func(ctx context.Context, payload []byte) error {
		ctx, span := tr.Start(ctx, "outbox.handle "+kind.String())
		defer span.End()

		start := time.Now()
		err := retry.Do(ctx, func() error { return h(ctx, payload) }, pol)
		handlerLatency.WithLabelValues(kind.String()).Observe(time.Since(start).Seconds())
		if err != nil {
			span.RecordError(err)
			handlerErrors.WithLabelValues(kind.String()).Inc()
		}
		return err
	}
}

// NewDispatcher routes each outbox kind to its publisher. Every handler runs
// under pol.
func NewDispatcher(events kafka.StatusEvents, pol retry.Policy) outbox.GlobalHandler {
	statusChanged := instrument(outbox.KindStatusChanged, func(ctx context.Context, payload []byte) error {
		var ev kafka.StatusChangedEvent
		if err := json.Unmarshal(payload, &ev); err != nil {
			return &retry.Permanent{Err: fmt.Errorf("unmarshal status-changed payload: %w", err)}
		}
		return events.PublishStatusChanged(ctx, ev)
	}, pol)

	return func(kind outbox.Kind) (outbox.KindHandler, error) {
		switch kind {
		case outbox.KindStatusChanged:
			return statusChanged, nil
		default:
			return nil, fmt.Errorf("unsupported outbox kind: %s", kind)
		}
	}
}

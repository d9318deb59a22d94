// Package notifier mails status transitions published by the status page.
package notifier

import (
	"context"
	"errors"

	"github.com/lmello0/status-page/internal/domain/kafka"
	kafkax "github.com/lmello0/status-page/internal/repository/kafka"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"
)

var (
	mConsumed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "notifier_events_consumed_total", Help: "Status-change events consumed.",
	})
	mSent = promauto.NewCounter(prometheus.CounterOpts{
		Name: "notifier_emails_sent_total", Help: "Emails sent.",
	})
	mSkipped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "notifier_events_skipped_total", Help: "Events dropped as invalid or for deleted components.",
	})
	mErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "notifier_errors_total", Help: "Lookup and delivery errors.",
	})
)

// Subscriber is satisfied by *kafkax.Consumer.
type Subscriber interface {
	Consume(ctx context.Context, h kafkax.Handler) error
}

type Controller struct {
	Log *zap.Logger
	Sub Subscriber
	UC  *Handler
}

func (c *Controller) handler() kafkax.Handler {
	return kafkax.JSONHandler(func(ctx context.Context, _ []byte, ev kafka.StatusChangedEvent) error {
		mConsumed.Inc()
		if ev.ComponentID <= 0 {
			mSkipped.Inc()
			c.Log.Warn("status-change: invalid component id", zap.Int64("component_id", ev.ComponentID))
			return nil
		}
		return c.UC.HandleStatusChange(ctx, ev)
	})
}

// Run blocks until ctx is cancelled or the subscriber fails.
func (c *Controller) Run(ctx context.Context) error {
	if err := c.Sub.Consume(ctx, c.handler()); err != nil && !errors.Is(err, context.Canceled) {
		mErrors.Inc()
		return err
	}
	return ctx.Err()
}

package notifier

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lmello0/status-page/internal/domain/component"
	"github.com/lmello0/status-page/internal/domain/kafka"
	"github.com/lmello0/status-page/internal/domain/notification"
	"github.com/lmello0/status-page/internal/obs"
	"github.com/lmello0/status-page/internal/obs/retry"
	"go.uber.org/zap"
)

type ComponentReader interface {
	FindByID(ctx context.Context, id int64) (*component.Component, error)
}

type Handler struct {
	Components ComponentReader
	Store      notification.Repo
	Out        notification.EmailSender
	Clock      notification.Clock
	Recipients []string
	Retry      retry.Policy
	Log        *zap.Logger
}

func renderEmail(c *component.Component, ev kafka.StatusChangedEvent) (subject, body string) {
	subject = fmt.Sprintf("%s is %s", c.Name, ev.NewStatus)

	var b strings.Builder
	fmt.Fprintf(&b, "Component %q (id %d, product %d) changed status: %s -> %s at %s.\n",
		c.Name, c.ID, c.ProductID, ev.OldStatus, ev.NewStatus, ev.At.UTC().Format(time.RFC3339))
	if ev.ErrorMessage != nil && *ev.ErrorMessage != "" {
		fmt.Fprintf(&b, "\nLast error: %s\n", *ev.ErrorMessage)
	}
	if c.Monitoring != nil {
		fmt.Fprintf(&b, "\nHealth endpoint: %s\n", c.Monitoring.HealthURL)
	}
	return subject, b.String()
}

// HandleStatusChange mails every recipient and records each delivery.
// Events for deleted components are dropped. A recipient that still fails
// after retries is logged and skipped so the others are not mailed twice on
// redelivery; only a failed component lookup asks for redelivery.
func (h *Handler) HandleStatusChange(ctx context.Context, ev kafka.StatusChangedEvent) error {
	log := obs.WithTrace(ctx, h.Log).With(zap.Int64("component_id", ev.ComponentID))

	c, err := h.Components.FindByID(ctx, ev.ComponentID)
	if errors.Is(err, component.ErrComponentNotFound) {
		mSkipped.Inc()
		log.Info("status change for unknown component, skipping")
		return nil
	}
	if err != nil {
		mErrors.Inc()
		return fmt.Errorf("get component: %w", err)
	}

	subject, body := renderEmail(c, ev)
	for _, to := range h.Recipients {
		err := retry.Do(ctx, func() error { return h.Out.Send(ctx, to, subject, body) }, h.Retry)
		if err != nil {
			mErrors.Inc()
			log.Error("send email failed", zap.String("to", to), zap.Error(err))
			continue
		}
		mSent.Inc()

		n := &notification.Notification{
			ComponentID: c.ID,
			Recipient:   to,
			SentAt:      h.Clock.Now().UTC(),
			Payload:     body,
		}
		if err := h.Store.Create(ctx, n); err != nil {
			log.Warn("record notification failed", zap.String("to", to), zap.Error(err))
		}
	}
	return nil
}

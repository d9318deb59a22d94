package kafka

import (
	"context"

	"github.com/lmello0/status-page/internal/domain/kafka"
)

var _ kafka.StatusEvents = (*StatusEventsKafka)(nil)

type StatusEventsKafka struct {
	p *Producer
}

func NewStatusEventsKafka(p *Producer) *StatusEventsKafka { return &StatusEventsKafka{p: p} }

// PublishStatusChanged keys by component id so one component's transitions stay ordered.
func (e *StatusEventsKafka) PublishStatusChanged(ctx context.Context, ev kafka.StatusChangedEvent) error {
	return e.p.PublishJSON(ctx, KeyFromInt64(ev.ComponentID), ev)
}

package healthcheck

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/lmello0/status-page/internal/domain/component"
	"github.com/lmello0/status-page/internal/domain/healthlog"
	"github.com/lmello0/status-page/internal/domain/kafka"
	"github.com/lmello0/status-page/internal/domain/outbox"
	"github.com/lmello0/status-page/internal/domain/status"
	"github.com/lmello0/status-page/internal/repository/postgres"
	"go.uber.org/zap"
)

// Pipeline persists a probe outcome: the component status, the log row and,
// on a transition, a status_changed outbox message. All writes share one
// transaction.
type Pipeline struct {
	log        *zap.Logger
	tx         postgres.Transactor
	components component.Repo
	logs       healthlog.Repo
	outbox     outbox.Repository
}

// NewPipeline wires the writers. A nil outbox disables status events.
func NewPipeline(log *zap.Logger, tx postgres.Transactor, components component.Repo, logs healthlog.Repo, ob outbox.Repository) *Pipeline {
	return &Pipeline{
		log:        log.With(zap.String("component", "status_pipeline")),
		tx:         tx,
		components: components,
		logs:       logs,
		outbox:     ob,
	}
}

func (p *Pipeline) UpdateComponentStatus(ctx context.Context, id int64, s status.Status, entry *healthlog.Log) (*component.Component, error) {
	var out *component.Component

	err := p.tx.WithTx(ctx, func(ctx context.Context) error {
		c, err := p.components.FindByID(ctx, id)
		if err != nil {
			if errors.Is(err, component.ErrComponentNotFound) {
				return component.ErrComponentNotFound
			}
			return fmt.Errorf("find component: %w", err)
		}

		if err := p.components.UpdateStatus(ctx, id, s); err != nil {
			return fmt.Errorf("update status: %w", err)
		}

		entry.ComponentID = id
		entry.StatusAfter = s
		if err := p.logs.AddLog(ctx, entry); err != nil {
			return fmt.Errorf("add log: %w", err)
		}

		if p.outbox != nil && entry.StatusBefore != entry.StatusAfter {
			payload, err := json.Marshal(kafka.StatusChangedEvent{
				ComponentID:   c.ID,
				ProductID:     c.ProductID,
				ComponentName: c.Name,
				OldStatus:     entry.StatusBefore,
				NewStatus:     entry.StatusAfter,
				ErrorMessage:  entry.ErrorMessage,
				At:            entry.CheckedAt,
			})
			if err != nil {
				return fmt.Errorf("marshal status event: %w", err)
			}
			key := outbox.StatusChangedKey(id, entry.CheckedAt)
			if err := p.outbox.Enqueue(ctx, key, outbox.KindStatusChanged, payload); err != nil {
				return fmt.Errorf("outbox enqueue: %w", err)
			}
		}

		c.CurrentStatus = status.Ptr(s)
		out = c
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

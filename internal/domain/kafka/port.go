package kafka

import (
	"context"
	"time"

	"github.com/lmello0/status-page/internal/domain/status"
)

// StatusChangedEvent is published whenever a probe moves a component to a
// different status.
type StatusChangedEvent struct {
	ComponentID   int64         `json:"componentId"`
	ProductID     int64         `json:"productId"`
	ComponentName string        `json:"componentName"`
	OldStatus     status.Status `json:"oldStatus"`
	NewStatus     status.Status `json:"newStatus"`
	ErrorMessage  *string       `json:"errorMessage,omitempty"`
	At            time.Time     `json:"at"`
}

type StatusEvents interface {
	PublishStatusChanged(ctx context.Context, ev StatusChangedEvent) error
}

package notification

import "context"

type Repo interface {
	Create(ctx context.Context, n *Notification) error
	ListByComponent(ctx context.Context, componentID int64, limit int) ([]*Notification, error)
}

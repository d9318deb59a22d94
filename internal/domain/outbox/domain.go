package outbox

import (
	"context"
	"fmt"
	"time"
)

type State string

const (
	StatePending    State = "pending"
	StateInProgress State = "in_progress"
	StateDone       State = "done"
)

// Kind selects the handler a message is dispatched to.
type Kind int

const (
	KindStatusChanged Kind = 1
)

func (k Kind) String() string {
	switch k {
	case KindStatusChanged:
		return "status_changed"
	}
	return fmt.Sprintf("kind_%d", int(k))
}

type Message struct {
	IdempotencyKey string
	Kind           Kind
	Payload        []byte
	State          State
	CreatedAt      time.Time
	UpdatedAt      time.Time

	// w3c trace context captured at enqueue time
	Traceparent string
	Tracestate  string
	Baggage     string
}

type Repository interface {
	// Enqueue is a no-op when key was already enqueued.
	Enqueue(ctx context.Context, key string, kind Kind, payload []byte) error
	// PickBatch claims up to batch pending messages, plus in-progress ones
	// whose claim is older than inProgressTTL.
	PickBatch(ctx context.Context, batch int, inProgressTTL time.Duration) ([]Message, error)
	MarkSuccess(ctx context.Context, keys []string) error
}

type KindHandler func(ctx context.Context, payload []byte) error

type GlobalHandler func(kind Kind) (KindHandler, error)

// StatusChangedKey is the idempotency key of a status transition recorded at checkedAt.
func StatusChangedKey(componentID int64, checkedAt time.Time) string {
	return fmt.Sprintf("component:%d:%d", componentID, checkedAt.UnixNano())
}

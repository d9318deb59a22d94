package notification

import (
	"context"
	"time"
)

type Notification struct {
	ID          int64     `json:"id"`
	ComponentID int64     `json:"componentId"`
	Recipient   string    `json:"recipient"`
	SentAt      time.Time `json:"sentAt"`
	Payload     string    `json:"payload"`
}

type EmailSender interface {
	Send(ctx context.Context, to, subject, body string) error
}

type Clock interface {
	Now() time.Time
}

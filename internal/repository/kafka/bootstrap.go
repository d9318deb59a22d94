package kafka

import (
	"context"

	"go.uber.org/zap"
)

// BootstrapConsumer makes sure the topic exists before joining the group.
// A topic that cannot be confirmed is logged; the reader retries on its own.
func BootstrapConsumer(ctx context.Context, cfg *ConsumerConfig, spec TopicSpec, log *zap.Logger) *Consumer {
	if spec.Name == "" {
		spec.Name = cfg.Topic
	}
	if err := EnsureTopic(ctx, cfg.Brokers, spec, log); err != nil {
		log.Warn("ensure topic failed", zap.String("topic", spec.Name), zap.Error(err))
	}
	return NewConsumer(cfg, log)
}

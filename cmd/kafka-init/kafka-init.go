package main

import (
	"context"
	"flag"
	"log"
	"time"

	config "github.com/lmello0/status-page/internal/config/statuspage"
	"github.com/lmello0/status-page/internal/obs"
	"github.com/lmello0/status-page/internal/repository/kafka"
	"go.uber.org/zap"
)

func main() {
	cfgPath := flag.String("config", "config/statuspage.yaml", "path to the yaml config")
	timeout := flag.Duration("timeout", 60*time.Second, "overall deadline")
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		log.Fatal(err)
	}
	l, err := obs.NewLogger(cfg.App, cfg.Log)
	if err != nil {
		log.Fatal(err)
	}
	defer func() { _ = l.Sync() }()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	spec := kafka.TopicSpec{
		Name:              cfg.Kafka.Topic,
		NumPartitions:     cfg.Kafka.Partitions,
		ReplicationFactor: cfg.Kafka.ReplicationFactor,
		MaxWait:           30 * time.Second,
	}
	if err := kafka.EnsureTopic(ctx, cfg.Kafka.Brokers, spec, l); err != nil {
		l.Fatal("ensure topic", zap.String("topic", spec.Name), zap.Error(err))
	}
	l.Info("kafka-init ok", zap.String("topic", spec.Name), zap.Strings("brokers", cfg.Kafka.Brokers))
}

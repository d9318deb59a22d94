package main

import (
	"context"
	"time"

	config "github.com/lmello0/status-page/internal/config/statuspage"
	"github.com/lmello0/status-page/internal/domain/healthlog"
	domainoutbox "github.com/lmello0/status-page/internal/domain/outbox"
	"github.com/lmello0/status-page/internal/obs/retry"
	"github.com/lmello0/status-page/internal/outbox"
	"github.com/lmello0/status-page/internal/registry"
	"github.com/lmello0/status-page/internal/repository/kafka"
	pg "github.com/lmello0/status-page/internal/repository/postgres"
	rds "github.com/lmello0/status-page/internal/repository/redis"
	"github.com/lmello0/status-page/internal/scheduler"
	"github.com/lmello0/status-page/internal/services/api"
	componentapi "github.com/lmello0/status-page/internal/services/api/component"
	productapi "github.com/lmello0/status-page/internal/services/api/product"
	"github.com/lmello0/status-page/internal/services/api/stats"
	"github.com/lmello0/status-page/internal/services/healthcheck"
	"go.uber.org/zap"
)

// app holds everything main has to stop on the way out.
type app struct {
	engine   *healthcheck.Engine
	prober   *healthcheck.HTTPProber
	router   *api.Handlers
	runner   *outbox.Runner
	producer *kafka.Producer
	closers  []func() error
}

func buildLogs(ctx context.Context, cfg *config.Config, db *pg.DB, l *zap.Logger) (healthlog.Repo, func() error) {
	var logs healthlog.Repo = pg.NewHealthLogRepo(db)
	if cfg.Redis.URL == "" {
		return logs, nil
	}
	rdb, err := rds.NewClient(ctx, cfg.Redis.URL)
	if err != nil {
		l.Warn("redis unavailable, day summaries served from postgres", zap.Error(err))
		return logs, nil
	}
	l.Info("redis summary cache enabled", zap.Duration("ttl", cfg.Redis.SummaryTTL))
	return rds.NewCachedLogs(logs, rdb, cfg.Redis.SummaryTTL, l), rdb.Close
}

func wiring(ctx context.Context, cfg *config.Config, db *pg.DB, l *zap.Logger) *app {
	a := &app{}

	components := pg.NewComponentRepo(db)
	products := pg.NewProductRepo(db)
	logs, closeLogs := buildLogs(ctx, cfg, db, l)
	if closeLogs != nil {
		a.closers = append(a.closers, closeLogs)
	}

	var ob domainoutbox.Repository
	if cfg.Kafka.Enable {
		repo := pg.NewOutboxRepo(db)
		ob = repo
		a.producer = kafka.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.Topic, l)
		dispatch := outbox.NewDispatcher(kafka.NewStatusEventsKafka(a.producer), retry.PublishPolicy("kafka_publish", l))
		a.runner = outbox.NewRunner(l, repo, dispatch, cfg.Outbox)
		l.Info("status events enabled", zap.Strings("brokers", cfg.Kafka.Brokers), zap.String("topic", cfg.Kafka.Topic))
	}

	pipeline := healthcheck.NewPipeline(l, pg.NewTransactor(db, l), components, logs, ob)
	a.prober = healthcheck.NewHTTPProber(healthcheck.HTTPConfig{
		UserAgent:           cfg.HealthCheck.UserAgent,
		VerifyTLS:           cfg.HealthCheck.VerifyTLS,
		MaxIdleConns:        cfg.HealthCheck.MaxIdleConns,
		MaxIdleConnsPerHost: cfg.HealthCheck.MaxIdleConnsPerHost,
		MaxBodyBytes:        cfg.HealthCheck.MaxBodyBytes,
	})
	a.engine = healthcheck.NewEngine(l, healthcheck.Deps{
		Scheduler:  scheduler.New(l),
		Registry:   registry.New(),
		Components: components,
		Updater:    pipeline,
		Prober:     a.prober,
	}, cfg.HealthCheck.SyncInterval)

	a.router = &api.Handlers{
		Products:   productapi.NewHandler(productapi.NewUsecase(products, components), l),
		Components: componentapi.NewHandler(componentapi.NewUsecase(components, products, logs, a.engine, l), l),
		Stats:      stats.NewHandler(cfg.App.Name, cfg.App.Version, time.Now(), stats.ProcfsSampler(), 100*time.Millisecond, l),
	}
	return a
}

// stop tears down the background parts in dependency order: no new probes,
// then drain the outbox, then close the producer and caches.
func (a *app) stop(l *zap.Logger) {
	a.engine.Stop()
	a.prober.CloseIdleConnections()
	if a.runner != nil {
		a.runner.Wait()
	}
	if a.producer != nil {
		if err := a.producer.Close(); err != nil {
			l.Warn("kafka producer close", zap.Error(err))
		}
	}
	for _, c := range a.closers {
		if err := c(); err != nil {
			l.Warn("close", zap.Error(err))
		}
	}
}

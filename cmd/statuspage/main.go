package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	config "github.com/lmello0/status-page/internal/config/statuspage"
	"github.com/lmello0/status-page/internal/obs"
	"go.uber.org/zap"
)

func main() {
	cfgPath := flag.String("config", "config/statuspage.yaml", "path to the yaml config")
	flag.Parse()

	rootCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		log.Fatal(err)
	}

	logger, err := initLogger(cfg)
	if err != nil {
		log.Fatal(err)
	}
	defer func() { _ = logger.Sync() }()
	logger.Info("starting statuspage", zap.String("env", cfg.App.Env), zap.String("ver", cfg.App.Version))

	otelShutdown, err := initOTel(rootCtx, cfg)
	if err != nil {
		logger.Fatal("otel init", zap.Error(err))
	}

	db, err := initDB(rootCtx, cfg, logger)
	if err != nil {
		logger.Fatal("db connect", zap.Error(err))
	}

	a := wiring(rootCtx, cfg, db, logger)
	if a.runner != nil {
		a.runner.Start(rootCtx)
	}
	if err := a.engine.Start(rootCtx); err != nil {
		logger.Fatal("engine start", zap.Error(err))
	}

	ms := obs.BootstrapMetricsServer(cfg.Server.MetricsAddr, dbHealth(db), logger)

	httpSrv := buildHTTPServer(cfg, logger, a.router)
	httpErrCh := make(chan error, 1)
	go func() { httpErrCh <- serveHTTP(httpSrv, logger) }()

	select {
	case <-rootCtx.Done():
		logger.Info("shutdown signal", zap.String("reason", "context canceled"))
	case err := <-httpErrCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http serve", zap.Error(err))
		}
	}
	stop()

	shCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.GracefulTimeout)
	defer cancel()

	_ = httpSrv.Shutdown(shCtx)
	a.stop(logger)
	_ = ms.Shutdown(shCtx)
	db.Close()
	if err := otelShutdown(shCtx); err != nil {
		logger.Warn("otel shutdown", zap.Error(err))
	}
	logger.Info("bye")
}

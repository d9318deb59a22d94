package main

import (
	"net/http"

	config "github.com/lmello0/status-page/internal/config/statuspage"
	"github.com/lmello0/status-page/internal/services/api"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
)

func buildHTTPServer(cfg *config.Config, logger *zap.Logger, h *api.Handlers) *http.Server {
	router := api.NewRouter(logger, *h, cfg.Server.ExcludedLogPaths)
	return &http.Server{
		Addr:         cfg.Server.HTTPAddr,
		Handler:      otelhttp.NewHandler(router, "statuspage"),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}
}

func serveHTTP(s *http.Server, logger *zap.Logger) error {
	logger.Info("http listening", zap.String("addr", s.Addr))
	return s.ListenAndServe()
}

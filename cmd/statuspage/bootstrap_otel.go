package main

import (
	"context"

	config "github.com/lmello0/status-page/internal/config/statuspage"
	"github.com/lmello0/status-page/internal/obs"
)

func initOTel(ctx context.Context, cfg *config.Config) (func(context.Context) error, error) {
	if cfg.OTEL.ServiceName == "" {
		cfg.OTEL.ServiceName = cfg.App.Name
	}
	closer, err := obs.SetupOTel(ctx, &cfg.OTEL)
	if err != nil {
		return nil, err
	}
	return closer.Shutdown, nil
}

package main

import (
	config "github.com/lmello0/status-page/internal/config/statuspage"
	"github.com/lmello0/status-page/internal/obs"
	"go.uber.org/zap"
)

func initLogger(cfg *config.Config) (*zap.Logger, error) {
	return obs.NewLogger(cfg.App, cfg.Log)
}

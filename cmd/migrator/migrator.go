package main

import (
	"flag"
	"log"

	_ "github.com/jackc/pgx/v5/stdlib"
	config "github.com/lmello0/status-page/internal/config/statuspage"
	"github.com/lmello0/status-page/internal/obs"
	"github.com/lmello0/status-page/migrations"
	"github.com/pressly/goose/v3"
	"go.uber.org/zap"
)

func main() {
	cfgPath := flag.String("config", "config/statuspage.yaml", "path to the yaml config")
	command := flag.String("command", "up", "goose command: up, down, status, version")
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

	goose.SetBaseFS(migrations.FS)
	if err := goose.SetDialect("postgres"); err != nil {
		l.Fatal("set dialect", zap.Error(err))
	}
	db, err := goose.OpenDBWithDriver("pgx", cfg.DB.DSN)
	if err != nil {
		l.Fatal("open db", zap.Error(err))
	}
	defer db.Close()

	if err := goose.Run(*command, db, "."); err != nil {
		l.Fatal("migrate", zap.String("command", *command), zap.Error(err))
	}
	l.Info("migrations applied", zap.String("command", *command))
}

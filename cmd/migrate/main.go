package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/jhoicas/stock-ledger/internal/infrastructure/postgres"
	"github.com/jhoicas/stock-ledger/pkg/config"
	"github.com/jhoicas/stock-ledger/pkg/logger"
)

func main() {
	cmd := flag.String("cmd", "up", "comando de goose: up|down|status|version|redo|reset")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "cargar configuración: %v\n", err)
		os.Exit(1)
	}
	log := logger.New(logger.Config{Env: cfg.App.Env, Level: cfg.App.LogLevel, Service: "migrate"})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a PostgreSQL")
	}
	defer pool.Close()

	if err := postgres.Migrate(ctx, pool, *cmd, flag.Args()...); err != nil {
		log.Error().Err(err).Str("cmd", *cmd).Msg("migración fallida")
		pool.Close()
		os.Exit(1)
	}
	log.Info().Str("cmd", *cmd).Msg("migración completada")
}

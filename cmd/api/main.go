package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	_ "github.com/jhoicas/stock-ledger/docs"
	"github.com/jhoicas/stock-ledger/internal/application/inventory"
	"github.com/jhoicas/stock-ledger/internal/infrastructure/postgres"
	httpRouter "github.com/jhoicas/stock-ledger/internal/interfaces/http"
	"github.com/jhoicas/stock-ledger/pkg/config"
	"github.com/jhoicas/stock-ledger/pkg/logger"
	"github.com/jhoicas/stock-ledger/pkg/metrics"
)

//go:generate swag init -d ../../ -g cmd/api/main.go -o ../../docs --parseDependency

// @title                       Stock Ledger API
// @version                     1.0
// @description                 Ledger de stock multi-ubicación: lotes de ingreso, ajustes, traslados y reconciliación.
// @BasePath                    /
// @securityDefinitions.apikey  Bearer
// @in                          header
// @name                        Authorization
// @description                 Token JWT con el prefijo Bearer
func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:     cfg.App.Env,
		Level:   cfg.App.LogLevel,
		Service: "api",
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Str("consumption_order", cfg.Ledger.ConsumptionOrder).
		Msg("iniciando aplicación")

	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a PostgreSQL")
	}
	defer pool.Close()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	ledgerMetrics := metrics.NewLedgerMetrics(reg)

	policy, err := inventory.NewPolicy(cfg.Ledger.ConsumptionOrder, cfg.Ledger.PairedApprovalPolicy, cfg.Ledger.ApprovalCostThreshold)
	if err != nil {
		log.Fatal().Err(err).Msg("política del ledger")
	}
	deps := inventory.Deps{
		Tx:      postgres.NewTxRunner(pool, cfg.Ledger.LockTimeout),
		Repos:   postgres.NewRepositories(pool),
		Policy:  policy,
		Log:     log,
		Metrics: ledgerMetrics,
	}
	guard := inventory.NewConsistencyGuard(ledgerMetrics)

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 30,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())

	// Swagger UI: http://localhost:<port>/docs
	app.Use(swagger.New(swagger.Config{
		BasePath: "/",
		FilePath: cfg.HTTP.SwaggerFile,
		Path:     "docs",
		Title:    cfg.App.Name + " API",
	}))

	app.Get("/health", func(c *fiber.Ctx) error {
		if err := pool.Ping(c.Context()); err != nil {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"status": "degraded", "service": cfg.App.Name})
		}
		return c.JSON(fiber.Map{"status": "ok", "service": cfg.App.Name})
	})

	httpRouter.Router(app, httpRouter.RouterDeps{
		Intake:      inventory.NewIntakeUseCase(deps, guard),
		Adjustments: inventory.NewAdjustmentUseCase(deps, guard),
		Transfers:   inventory.NewTransferUseCase(deps, guard),
		Reconcile:   inventory.NewReconcileUseCase(deps, cfg.Ledger.ReconcileWorkers),
		JWTSecret:   cfg.JWT.Secret,
		Log:         log,
		Gatherer:    reg,
	})

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("señal de apagado recibida, cerrando servidor...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}

	log.Info().Msg("aplicación detenida")
}

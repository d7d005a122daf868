package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jhoicas/stock-ledger/internal/application/inventory"
	"github.com/jhoicas/stock-ledger/pkg/jwt"
	"github.com/jhoicas/stock-ledger/pkg/logger"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	Intake      *inventory.IntakeUseCase
	Adjustments *inventory.AdjustmentUseCase
	Transfers   *inventory.TransferUseCase
	Reconcile   *inventory.ReconcileUseCase
	JWTSecret   string
	Log         *logger.Logger
	// Gatherer expone /metrics; nil deja el endpoint sin registrar.
	Gatherer prometheus.Gatherer
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	log := deps.Log
	if log == nil {
		log = logger.Discard()
	}
	if deps.Gatherer != nil {
		app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{})))
	}

	api := app.Group("/api", AuthMiddleware(deps.JWTSecret))
	anyRole := RequireRole(jwt.RoleAdmin, jwt.RoleManager, jwt.RoleClerk)
	approvers := RequireRole(jwt.RoleAdmin, jwt.RoleManager)

	batchHandler := NewBatchHandler(deps.Intake, log)
	adjustmentHandler := NewAdjustmentHandler(deps.Adjustments, deps.Intake, log)
	transferHandler := NewTransferHandler(deps.Transfers, log)
	reconcileHandler := NewReconcileHandler(deps.Reconcile, log)

	// Lotes de ingreso
	batches := api.Group("/batches")
	batches.Post("/", anyRole, batchHandler.Create)
	batches.Get("/:id", anyRole, batchHandler.GetByID)
	batches.Patch("/:id/intake", approvers, batchHandler.UpdateIntake)
	batches.Get("/:id/availability", anyRole, adjustmentHandler.Availability)

	// Ajustes
	adjustments := api.Group("/adjustments")
	adjustments.Post("/", anyRole, adjustmentHandler.Create)
	adjustments.Post("/paired", anyRole, adjustmentHandler.CreatePaired)
	adjustments.Get("/:id", anyRole, adjustmentHandler.GetByID)
	adjustments.Post("/:id/approve", approvers, adjustmentHandler.Approve)
	adjustments.Post("/:id/reject", approvers, adjustmentHandler.Reject)
	adjustments.Post("/:id/complete", approvers, adjustmentHandler.Complete)

	// Traslados
	transfers := api.Group("/transfers")
	transfers.Post("/", anyRole, transferHandler.Create)
	transfers.Get("/:id", anyRole, transferHandler.GetByID)
	transfers.Post("/:id/items", anyRole, transferHandler.AddItem)
	transfers.Post("/:id/submit", anyRole, transferHandler.Submit)
	transfers.Post("/:id/approve", approvers, transferHandler.Approve)
	transfers.Post("/:id/reject", approvers, transferHandler.Reject)
	transfers.Post("/:id/dispatch", anyRole, transferHandler.Dispatch)
	transfers.Post("/:id/complete", anyRole, transferHandler.Complete)
	transfers.Post("/:id/cancel", anyRole, transferHandler.Cancel)
	api.Get("/locations/:id/available", anyRole, transferHandler.Available)

	// Reconciliación
	api.Post("/reconcile", RequireRole(jwt.RoleAdmin), reconcileHandler.Run)
}

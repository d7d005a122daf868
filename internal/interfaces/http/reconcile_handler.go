package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/stock-ledger/internal/application/dto"
	"github.com/jhoicas/stock-ledger/internal/application/inventory"
	"github.com/jhoicas/stock-ledger/pkg/logger"
)

// ReconcileHandler expone la reconciliación de cantidades calculadas del negocio (solo admin).
type ReconcileHandler struct {
	uc  *inventory.ReconcileUseCase
	log *logger.Logger
}

// NewReconcileHandler construye el handler.
func NewReconcileHandler(uc *inventory.ReconcileUseCase, log *logger.Logger) *ReconcileHandler {
	return &ReconcileHandler{uc: uc, log: log}
}

// Run godoc
// @Summary      Reconciliar cantidades calculadas
// @Description  Corre en dry-run salvo que el cuerpo pida apply. Las fallas por grupo viajan en el reporte y la respuesta es 207 cuando hubo alguna.
// @Tags         reconcile
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body      dto.ReconcileRequest  false  "product_id opcional, apply"
// @Success      200   {object}  inventory.ReconcileReport
// @Success      207   {object}  inventory.ReconcileReport
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      403   {object}  dto.ErrorResponse
// @Router       /api/reconcile [post]
func (h *ReconcileHandler) Run(c *fiber.Ctx) error {
	var in dto.ReconcileRequest
	if ok, err := parseOptionalBody(c, &in); !ok {
		return err
	}
	report, err := h.uc.Run(c.Context(), inventory.ReconcileOptions{
		BusinessID: GetBusinessID(c),
		ProductID:  in.ProductID,
		DryRun:     !in.Apply,
	})
	if report == nil {
		return writeError(c, h.log, err)
	}
	if err != nil {
		h.log.Warn().Err(err).Int("errored", report.Errored).Msg("reconciliación con grupos fallidos")
		return c.Status(fiber.StatusMultiStatus).JSON(report)
	}
	return c.JSON(report)
}

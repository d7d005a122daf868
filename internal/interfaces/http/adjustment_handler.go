package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/stock-ledger/internal/application/dto"
	"github.com/jhoicas/stock-ledger/internal/application/inventory"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/pkg/logger"
)

// AdjustmentHandler maneja el flujo de ajustes de stock (protegido).
type AdjustmentHandler struct {
	uc     *inventory.AdjustmentUseCase
	intake *inventory.IntakeUseCase
	log    *logger.Logger
}

// NewAdjustmentHandler construye el handler. intake se usa para verificar el negocio del lote.
func NewAdjustmentHandler(uc *inventory.AdjustmentUseCase, intake *inventory.IntakeUseCase, log *logger.Logger) *AdjustmentHandler {
	return &AdjustmentHandler{uc: uc, intake: intake, log: log}
}

// Create godoc
// @Summary      Crear ajuste de stock
// @Description  Queda en PENDING; el signo de la cantidad se corrige según el tipo.
// @Tags         adjustments
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body      dto.CreateAdjustmentRequest  true  "batch_id, type, quantity, reason, unit_cost opcional"
// @Success      201   {object}  dto.AdjustmentResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Router       /api/adjustments [post]
func (h *AdjustmentHandler) Create(c *fiber.Ctx) error {
	var in dto.CreateAdjustmentRequest
	if ok, err := parseBody(c, &in); !ok {
		return err
	}
	if _, err := ownBatch(c, h.intake, in.BatchID); err != nil {
		return writeError(c, h.log, err)
	}
	adj, err := h.uc.CreateFromRequest(c.Context(), GetUserID(c), in)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(inventory.AdjustmentToResponse(adj))
}

// CreatePaired godoc
// @Summary      Crear traslado pareado entre lotes
// @Description  Crea las dos patas TRANSFER_OUT/TRANSFER_IN con la misma referencia.
// @Tags         adjustments
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body      dto.CreatePairedRequest  true  "source_batch_id, destination_batch_id, quantity"
// @Success      201   {object}  dto.PairedResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Router       /api/adjustments/paired [post]
func (h *AdjustmentHandler) CreatePaired(c *fiber.Ctx) error {
	var in dto.CreatePairedRequest
	if ok, err := parseBody(c, &in); !ok {
		return err
	}
	for _, id := range []string{in.SourceBatchID, in.DestinationBatchID} {
		if _, err := ownBatch(c, h.intake, id); err != nil {
			return writeError(c, h.log, err)
		}
	}
	out, into, err := h.uc.CreatePairedFromRequest(c.Context(), GetUserID(c), in)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.PairedResponse{
		Out: inventory.AdjustmentToResponse(out),
		In:  inventory.AdjustmentToResponse(into),
	})
}

// GetByID godoc
// @Summary      Obtener ajuste
// @Tags         adjustments
// @Security     Bearer
// @Produce      json
// @Param        id   path      string  true  "ID del ajuste"
// @Success      200  {object}  dto.AdjustmentResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/adjustments/{id} [get]
func (h *AdjustmentHandler) GetByID(c *fiber.Ctx) error {
	adj, err := h.own(c)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(inventory.AdjustmentToResponse(adj))
}

// Approve godoc
// @Summary      Aprobar ajuste
// @Tags         adjustments
// @Security     Bearer
// @Produce      json
// @Param        id   path      string  true  "ID del ajuste"
// @Success      200  {object}  dto.AdjustmentResponse
// @Failure      403  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Failure      422  {object}  dto.ErrorResponse
// @Router       /api/adjustments/{id}/approve [post]
func (h *AdjustmentHandler) Approve(c *fiber.Ctx) error {
	adj, err := h.own(c)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return h.respond(c)(h.uc.Approve(c.Context(), adj.ID, GetUserID(c)))
}

// Reject godoc
// @Summary      Rechazar ajuste
// @Tags         adjustments
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path      string             true  "ID del ajuste"
// @Param        body  body      dto.ReasonRequest  true  "reason"
// @Success      200   {object}  dto.AdjustmentResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      403   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/adjustments/{id}/reject [post]
func (h *AdjustmentHandler) Reject(c *fiber.Ctx) error {
	adj, err := h.own(c)
	if err != nil {
		return writeError(c, h.log, err)
	}
	var in dto.ReasonRequest
	if ok, err := parseBody(c, &in); !ok {
		return err
	}
	return h.respond(c)(h.uc.Reject(c.Context(), adj.ID, GetUserID(c), in.Reason))
}

// Complete godoc
// @Summary      Completar ajuste
// @Description  Aplica el ajuste a la cantidad calculada del lote; falla si la disponibilidad quedaría negativa.
// @Tags         adjustments
// @Security     Bearer
// @Produce      json
// @Param        id   path      string  true  "ID del ajuste"
// @Success      200  {object}  dto.AdjustmentResponse
// @Failure      403  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Failure      422  {object}  dto.ErrorResponse
// @Failure      503  {object}  dto.ErrorResponse
// @Router       /api/adjustments/{id}/complete [post]
func (h *AdjustmentHandler) Complete(c *fiber.Ctx) error {
	adj, err := h.own(c)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return h.respond(c)(h.uc.Complete(c.Context(), adj.ID, GetUserID(c)))
}

// Availability godoc
// @Summary      Disponibilidad del lote
// @Description  Desglose intake + ajustes - trasladado - vendido.
// @Tags         batches
// @Security     Bearer
// @Produce      json
// @Param        id   path      string  true  "ID del lote"
// @Success      200  {object}  dto.AvailabilityResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/batches/{id}/availability [get]
func (h *AdjustmentHandler) Availability(c *fiber.Ctx) error {
	batch, err := ownBatch(c, h.intake, c.Params("id"))
	if err != nil {
		return writeError(c, h.log, err)
	}
	avail, err := h.uc.Availability(c.Context(), batch.ID)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(inventory.AvailabilityToResponse(batch.ID, avail))
}

func (h *AdjustmentHandler) own(c *fiber.Ctx) (*entity.Adjustment, error) {
	adj, err := h.uc.Get(c.Context(), c.Params("id"))
	if err != nil {
		return nil, err
	}
	if _, err := ownBatch(c, h.intake, adj.BatchID); err != nil {
		return nil, err
	}
	return adj, nil
}

func (h *AdjustmentHandler) respond(c *fiber.Ctx) func(*entity.Adjustment, error) error {
	return func(adj *entity.Adjustment, err error) error {
		if err != nil {
			return writeError(c, h.log, err)
		}
		return c.JSON(inventory.AdjustmentToResponse(adj))
	}
}

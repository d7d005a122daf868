package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/stock-ledger/internal/application/dto"
	"github.com/jhoicas/stock-ledger/internal/application/inventory"
	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/pkg/logger"
)

// BatchHandler maneja las peticiones HTTP de lotes de ingreso (protegido).
type BatchHandler struct {
	uc  *inventory.IntakeUseCase
	log *logger.Logger
}

// NewBatchHandler construye el handler.
func NewBatchHandler(uc *inventory.IntakeUseCase, log *logger.Logger) *BatchHandler {
	return &BatchHandler{uc: uc, log: log}
}

// Create godoc
// @Summary      Registrar lote de ingreso
// @Description  Crea un lote recibido en una ubicación del negocio; la cantidad calculada arranca igual a la recibida.
// @Tags         batches
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body      dto.CreateBatchRequest  true  "location_id, product_id, quantity, costos"
// @Success      201   {object}  dto.BatchResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      401   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Router       /api/batches [post]
func (h *BatchHandler) Create(c *fiber.Ctx) error {
	businessID := GetBusinessID(c)
	var in dto.CreateBatchRequest
	if ok, err := parseBody(c, &in); !ok {
		return err
	}
	batch, err := h.uc.CreateBatchFromRequest(c.Context(), businessID, in)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(inventory.BatchToResponse(batch))
}

// GetByID godoc
// @Summary      Obtener lote
// @Tags         batches
// @Security     Bearer
// @Produce      json
// @Param        id   path      string  true  "ID del lote"
// @Success      200  {object}  dto.BatchResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/batches/{id} [get]
func (h *BatchHandler) GetByID(c *fiber.Ctx) error {
	batch, err := ownBatch(c, h.uc, c.Params("id"))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(inventory.BatchToResponse(batch))
}

// UpdateIntake godoc
// @Summary      Corregir cantidad recibida
// @Description  Solo mientras ningún ajuste completado, stock positivo de la ubicación o venta referencie el lote.
// @Tags         batches
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path      string                   true  "ID del lote"
// @Param        body  body      dto.UpdateIntakeRequest  true  "quantity"
// @Success      200   {object}  dto.BatchResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      403   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/batches/{id}/intake [patch]
func (h *BatchHandler) UpdateIntake(c *fiber.Ctx) error {
	batch, err := ownBatch(c, h.uc, c.Params("id"))
	if err != nil {
		return writeError(c, h.log, err)
	}
	var in dto.UpdateIntakeRequest
	if ok, err := parseBody(c, &in); !ok {
		return err
	}
	updated, err := h.uc.UpdateIntakeQuantity(c.Context(), batch.ID, in.Quantity)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(inventory.BatchToResponse(updated))
}

// ownBatch carga el lote y verifica que pertenezca al negocio del token.
// Un lote de otro negocio se reporta como inexistente.
func ownBatch(c *fiber.Ctx, uc *inventory.IntakeUseCase, id string) (*entity.IntakeBatch, error) {
	if id == "" {
		return nil, domain.NewValidationError(domain.ErrInvalidInput, "id es requerido")
	}
	batch, err := uc.GetBatch(c.Context(), id)
	if err != nil {
		return nil, err
	}
	if batch.BusinessID != GetBusinessID(c) {
		return nil, domain.ErrNotFound
	}
	return batch, nil
}

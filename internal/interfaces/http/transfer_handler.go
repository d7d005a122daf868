package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/stock-ledger/internal/application/dto"
	"github.com/jhoicas/stock-ledger/internal/application/inventory"
	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/pkg/logger"
)

// TransferHandler maneja el ciclo de vida de los traslados entre ubicaciones (protegido).
type TransferHandler struct {
	uc  *inventory.TransferUseCase
	log *logger.Logger
}

// NewTransferHandler construye el handler.
func NewTransferHandler(uc *inventory.TransferUseCase, log *logger.Logger) *TransferHandler {
	return &TransferHandler{uc: uc, log: log}
}

// Create godoc
// @Summary      Crear traslado
// @Description  Queda en DRAFT; la referencia se genera si viene vacía.
// @Tags         transfers
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body      dto.CreateTransferRequest  true  "source_location_id, destination_location_id, items"
// @Success      201   {object}  dto.TransferResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/transfers [post]
func (h *TransferHandler) Create(c *fiber.Ctx) error {
	var in dto.CreateTransferRequest
	if ok, err := parseBody(c, &in); !ok {
		return err
	}
	t, err := h.uc.CreateFromRequest(c.Context(), GetBusinessID(c), GetUserID(c), in)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(inventory.TransferToResponse(t))
}

// GetByID godoc
// @Summary      Obtener traslado con ítems y bitácora
// @Tags         transfers
// @Security     Bearer
// @Produce      json
// @Param        id    path      string  true  "ID del traslado"
// @Success      200   {object}  dto.TransferResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Router       /api/transfers/{id} [get]
func (h *TransferHandler) GetByID(c *fiber.Ctx) error {
	t, err := h.own(c)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(inventory.TransferToResponse(t))
}

// AddItem godoc
// @Summary      Agregar ítem
// @Description  Solo mientras el traslado está en DRAFT.
// @Tags         transfers
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path      string  true  "ID del traslado"
// @Param        body  body      dto.LineItemRequest  true  "product_id, quantity"
// @Success      200   {object}  dto.TransferResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/transfers/{id}/items [post]
func (h *TransferHandler) AddItem(c *fiber.Ctx) error {
	t, err := h.own(c)
	if err != nil {
		return writeError(c, h.log, err)
	}
	var in dto.LineItemRequest
	if ok, err := parseBody(c, &in); !ok {
		return err
	}
	item := inventory.LineItemInput{ProductID: in.ProductID, Quantity: in.Quantity}
	return h.respond(c)(h.uc.AddLineItem(c.Context(), t.ID, item, GetUserID(c)))
}

// Submit godoc
// @Summary      Enviar traslado a aprobación
// @Tags         transfers
// @Security     Bearer
// @Produce      json
// @Param        id    path      string  true  "ID del traslado"
// @Success      200   {object}  dto.TransferResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/transfers/{id}/submit [post]
func (h *TransferHandler) Submit(c *fiber.Ctx) error {
	t, err := h.own(c)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return h.respond(c)(h.uc.Submit(c.Context(), t.ID, GetUserID(c)))
}

// Approve godoc
// @Summary      Aprobar traslado
// @Description  Acepta cantidades aprobadas opcionales por ítem; verifica disponibilidad neta de reservas.
// @Tags         transfers
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path      string  true  "ID del traslado"
// @Param        body  body      dto.QuantitiesRequest  false  "quantities por ítem"
// @Success      200   {object}  dto.TransferResponse
// @Failure      403   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Failure      422   {object}  dto.ErrorResponse
// @Router       /api/transfers/{id}/approve [post]
func (h *TransferHandler) Approve(c *fiber.Ctx) error {
	t, err := h.own(c)
	if err != nil {
		return writeError(c, h.log, err)
	}
	var in dto.QuantitiesRequest
	if ok, err := parseOptionalBody(c, &in); !ok {
		return err
	}
	return h.respond(c)(h.uc.Approve(c.Context(), t.ID, GetUserID(c), in.Quantities))
}

// Reject godoc
// @Summary      Rechazar traslado
// @Tags         transfers
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path      string  true  "ID del traslado"
// @Param        body  body      dto.ReasonRequest  true  "reason"
// @Success      200   {object}  dto.TransferResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      403   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/transfers/{id}/reject [post]
func (h *TransferHandler) Reject(c *fiber.Ctx) error {
	t, err := h.own(c)
	if err != nil {
		return writeError(c, h.log, err)
	}
	var in dto.ReasonRequest
	if ok, err := parseBody(c, &in); !ok {
		return err
	}
	return h.respond(c)(h.uc.Reject(c.Context(), t.ID, GetUserID(c), in.Reason))
}

// Dispatch godoc
// @Summary      Despachar traslado
// @Description  Descuenta el origen; acepta cantidades despachadas opcionales por ítem.
// @Tags         transfers
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path      string  true  "ID del traslado"
// @Param        body  body      dto.QuantitiesRequest  false  "quantities por ítem"
// @Success      200   {object}  dto.TransferResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Failure      422   {object}  dto.ErrorResponse
// @Failure      503   {object}  dto.ErrorResponse
// @Router       /api/transfers/{id}/dispatch [post]
func (h *TransferHandler) Dispatch(c *fiber.Ctx) error {
	t, err := h.own(c)
	if err != nil {
		return writeError(c, h.log, err)
	}
	var in dto.QuantitiesRequest
	if ok, err := parseOptionalBody(c, &in); !ok {
		return err
	}
	return h.respond(c)(h.uc.Dispatch(c.Context(), t.ID, GetUserID(c), in.Quantities))
}

// Complete godoc
// @Summary      Completar traslado
// @Description  Acredita el destino. Repetir sobre un traslado COMPLETED no hace nada.
// @Tags         transfers
// @Security     Bearer
// @Produce      json
// @Param        id    path      string  true  "ID del traslado"
// @Success      200   {object}  dto.TransferResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Failure      503   {object}  dto.ErrorResponse
// @Router       /api/transfers/{id}/complete [post]
func (h *TransferHandler) Complete(c *fiber.Ctx) error {
	t, err := h.own(c)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return h.respond(c)(h.uc.Complete(c.Context(), t.ID, GetUserID(c)))
}

// Cancel godoc
// @Summary      Cancelar traslado
// @Description  Desde IN_TRANSIT restaura exactamente lo descontado.
// @Tags         transfers
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path      string  true  "ID del traslado"
// @Param        body  body      dto.ReasonRequest  true  "reason"
// @Success      200   {object}  dto.TransferResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Failure      503   {object}  dto.ErrorResponse
// @Router       /api/transfers/{id}/cancel [post]
func (h *TransferHandler) Cancel(c *fiber.Ctx) error {
	t, err := h.own(c)
	if err != nil {
		return writeError(c, h.log, err)
	}
	var in dto.ReasonRequest
	if ok, err := parseBody(c, &in); !ok {
		return err
	}
	return h.respond(c)(h.uc.Cancel(c.Context(), t.ID, GetUserID(c), in.Reason))
}

// Available godoc
// @Summary      Cantidad trasladable
// @Description  Existencias del producto en la ubicación menos lo reservado por traslados REQUESTED/APPROVED.
// @Tags         transfers
// @Security     Bearer
// @Produce      json
// @Param        id          path      string  true  "ID de la ubicación"
// @Param        product_id  query     string  true  "ID del producto"
// @Success      200         {object}  dto.AvailableResponse
// @Failure      400         {object}  dto.ErrorResponse
// @Failure      403         {object}  dto.ErrorResponse
// @Router       /api/locations/{id}/available [get]
func (h *TransferHandler) Available(c *fiber.Ctx) error {
	locationID, productID := c.Params("id"), c.Query("product_id")
	if productID == "" {
		return writeError(c, h.log, domain.NewValidationError(domain.ErrInvalidInput, "product_id es requerido"))
	}
	qty, err := h.uc.AvailableForBusiness(c.Context(), GetBusinessID(c), locationID, productID)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(dto.AvailableResponse{LocationID: locationID, ProductID: productID, Available: qty})
}

// own carga el traslado y verifica que pertenezca al negocio del token.
func (h *TransferHandler) own(c *fiber.Ctx) (*entity.Transfer, error) {
	t, err := h.uc.Get(c.Context(), c.Params("id"))
	if err != nil {
		return nil, err
	}
	if t.BusinessID != GetBusinessID(c) {
		return nil, domain.ErrNotFound
	}
	return t, nil
}

func (h *TransferHandler) respond(c *fiber.Ctx) func(*entity.Transfer, error) error {
	return func(t *entity.Transfer, err error) error {
		if err != nil {
			return writeError(c, h.log, err)
		}
		return c.JSON(inventory.TransferToResponse(t))
	}
}

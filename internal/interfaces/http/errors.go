package http

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/stock-ledger/internal/application/dto"
	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/pkg/logger"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		tag := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if tag == "" || tag == "-" {
			return f.Name
		}
		return tag
	})
	return v
}

// parseBody decodifica y valida el cuerpo; responde 400 y devuelve false si no es válido.
func parseBody(c *fiber.Ctx, dest any) (bool, error) {
	if err := c.BodyParser(dest); err != nil {
		return false, c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	if err := validate.Struct(dest); err != nil {
		resp := dto.ErrorResponse{Code: "VALIDATION", Message: "datos inválidos"}
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			resp.Details = make(map[string]string, len(verrs))
			for _, fe := range verrs {
				resp.Details[fe.Field()] = validationMessage(fe)
			}
		}
		return false, c.Status(fiber.StatusBadRequest).JSON(resp)
	}
	return true, nil
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "es requerido"
	case "uuid":
		return "debe ser un UUID"
	case "max":
		return fmt.Sprintf("máximo %s caracteres", fe.Param())
	case "oneof":
		return "debe ser uno de: " + fe.Param()
	case "nefield":
		return "debe ser distinto de " + fe.Param()
	}
	return "es inválido"
}

type errorMapping struct {
	sentinel error
	status   int
	code     string
}

// Orden relevante: los errores de regla se evalúan antes que los genéricos.
var errorMappings = []errorMapping{
	{domain.ErrTransactionFailed, fiber.StatusServiceUnavailable, "TRANSACTION_FAILED"},
	{domain.ErrInvalidTransition, fiber.StatusConflict, "INVALID_TRANSITION"},
	{domain.ErrIntakeFrozen, fiber.StatusConflict, "INTAKE_FROZEN"},
	{domain.ErrWouldGoNegative, fiber.StatusUnprocessableEntity, "WOULD_GO_NEGATIVE"},
	{domain.ErrInsufficientStock, fiber.StatusUnprocessableEntity, "INSUFFICIENT_STOCK"},
	{domain.ErrNotFound, fiber.StatusNotFound, "NOT_FOUND"},
	{domain.ErrForbidden, fiber.StatusForbidden, "FORBIDDEN"},
	{domain.ErrDuplicate, fiber.StatusConflict, "DUPLICATE"},
	{domain.ErrConflict, fiber.StatusConflict, "CONFLICT"},
	{domain.ErrInvalidInput, fiber.StatusBadRequest, "VALIDATION"},
}

// writeError traduce errores de dominio a dto.ErrorResponse. Los valores actual/delta/resultado
// de un ValidationError viajan en Details.
func writeError(c *fiber.Ctx, log *logger.Logger, err error) error {
	resp := dto.ErrorResponse{Code: "INTERNAL", Message: "error interno"}
	status := fiber.StatusInternalServerError
	for _, m := range errorMappings {
		if errors.Is(err, m.sentinel) {
			status, resp.Code, resp.Message = m.status, m.code, err.Error()
			break
		}
	}

	var ve *domain.ValidationError
	if errors.As(err, &ve) {
		resp.Message = ve.Message
		if resp.Message == "" && ve.Err != nil {
			resp.Message = ve.Err.Error()
		}
		resp.Details = validationDetails(ve)
	}

	if status == fiber.StatusInternalServerError {
		log.Error().Err(err).Str("path", c.Path()).Msg("error no controlado")
	}
	return c.Status(status).JSON(resp)
}

func validationDetails(ve *domain.ValidationError) map[string]string {
	if ve.Current == nil && len(ve.Details) == 0 {
		return nil
	}
	details := make(map[string]string, len(ve.Details)+3)
	for k, v := range ve.Details {
		details[k] = v
	}
	if ve.Current != nil {
		details["current"] = ve.Current.String()
	}
	if ve.Delta != nil {
		details["delta"] = ve.Delta.String()
	}
	if ve.Result != nil {
		details["result"] = ve.Result.String()
	}
	return details
}

// parseOptionalBody como parseBody, pero un cuerpo vacío deja dest en su valor cero.
func parseOptionalBody(c *fiber.Ctx, dest any) (bool, error) {
	if len(c.Body()) == 0 {
		return true, nil
	}
	return parseBody(c, dest)
}

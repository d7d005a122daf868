package domain

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// Errores de dominio (sin dependencias de infraestructura).
var (
	ErrNotFound          = errors.New("recurso no encontrado")
	ErrInvalidInput      = errors.New("entrada inválida")
	ErrDuplicate         = errors.New("recurso duplicado")
	ErrForbidden         = errors.New("acceso denegado")
	ErrConflict          = errors.New("conflicto con el estado actual")
	ErrInsufficientStock = errors.New("stock insuficiente")

	// Reglas del ledger.
	ErrInvalidTransition = errors.New("transición de estado inválida")
	ErrIntakeFrozen      = errors.New("la cantidad de ingreso del lote ya no es editable")
	ErrWouldGoNegative   = errors.New("la operación dejaría la disponibilidad en negativo")

	// ErrTransactionFailed agrupa fallos de bloqueo/deadlock/timeout; la operación completa puede reintentarse.
	ErrTransactionFailed = errors.New("fallo de transacción")
)

// ValidationError error de validación síncrono con valores estructurados.
// Envuelve un sentinel (ErrInvalidTransition, ErrInsufficientStock, ...) para usar errors.Is.
// Nunca se reintenta automáticamente.
type ValidationError struct {
	Err     error
	Message string
	Current *decimal.Decimal
	Delta   *decimal.Decimal
	Result  *decimal.Decimal
	// Details datos adicionales (producto, lote, estado) para la respuesta al cliente.
	Details map[string]string
}

func (e *ValidationError) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	if e.Current != nil && e.Delta != nil && e.Result != nil {
		return fmt.Sprintf("%s (actual=%s, delta=%s, resultado=%s)", msg, e.Current, e.Delta, e.Result)
	}
	return msg
}

func (e *ValidationError) Unwrap() error { return e.Err }

// NewValidationError construye un ValidationError sin valores numéricos.
func NewValidationError(sentinel error, format string, args ...any) *ValidationError {
	return &ValidationError{Err: sentinel, Message: fmt.Sprintf(format, args...)}
}

// NewQuantityError construye un ValidationError con los valores actual/delta/resultado.
func NewQuantityError(sentinel error, message string, current, delta, result decimal.Decimal) *ValidationError {
	return &ValidationError{
		Err:     sentinel,
		Message: message,
		Current: &current,
		Delta:   &delta,
		Result:  &result,
	}
}

// TransactionError fallo de lock timeout, deadlock o serialización. Nada parcial fue confirmado.
type TransactionError struct {
	Op  string
	Err error
}

func (e *TransactionError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TransactionError) Unwrap() []error { return []error{ErrTransactionFailed, e.Err} }

// Retryable indica que es seguro reintentar la operación completa.
func (e *TransactionError) Retryable() bool { return true }

// Tipos de advertencia de integridad.
const (
	WarningUnallocatedRemainder = "UNALLOCATED_REMAINDER"
	WarningNegativeAvailability = "NEGATIVE_AVAILABILITY"
)

// IntegrityWarning advertencia de integridad de datos: se registra y reporta, no aborta lecturas.
// Indica que se requiere una auditoría manual.
type IntegrityWarning struct {
	Kind       string
	BusinessID string
	ProductID  string
	BatchID    string
	Amount     decimal.Decimal
	Message    string
}

func (w IntegrityWarning) String() string {
	return fmt.Sprintf("%s producto=%s lote=%s cantidad=%s: %s", w.Kind, w.ProductID, w.BatchID, w.Amount, w.Message)
}

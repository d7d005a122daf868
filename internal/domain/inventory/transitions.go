package inventory

import (
	"slices"
	"strings"

	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
)

// TransferAction acción que dispara una transición del traslado.
type TransferAction string

const (
	ActionSubmit   TransferAction = "submit"
	ActionApprove  TransferAction = "approve"
	ActionReject   TransferAction = "reject"
	ActionDispatch TransferAction = "dispatch"
	ActionComplete TransferAction = "complete"
	ActionCancel   TransferAction = "cancel"
)

type transition struct {
	from  []entity.TransferStatus
	to    entity.TransferStatus
	audit string
}

var transferTransitions = map[TransferAction]transition{
	ActionSubmit:   {from: []entity.TransferStatus{entity.TransferDraft}, to: entity.TransferRequested, audit: entity.AuditSubmitted},
	ActionApprove:  {from: []entity.TransferStatus{entity.TransferRequested}, to: entity.TransferApproved, audit: entity.AuditApproved},
	ActionReject:   {from: []entity.TransferStatus{entity.TransferRequested}, to: entity.TransferRejected, audit: entity.AuditRejected},
	ActionDispatch: {from: []entity.TransferStatus{entity.TransferApproved}, to: entity.TransferInTransit, audit: entity.AuditDispatched},
	ActionComplete: {from: []entity.TransferStatus{entity.TransferInTransit}, to: entity.TransferCompleted, audit: entity.AuditCompleted},
	ActionCancel: {
		from:  []entity.TransferStatus{entity.TransferRequested, entity.TransferApproved, entity.TransferInTransit},
		to:    entity.TransferCancelled,
		audit: entity.AuditCancelled,
	},
}

// NextStatus valida la acción desde el estado actual y devuelve el estado destino y la acción de bitácora.
// noop es true cuando la acción repite un estado terminal ya alcanzado (completar dos veces, cancelar dos veces).
func NextStatus(current entity.TransferStatus, action TransferAction) (next entity.TransferStatus, audit string, noop bool, err error) {
	tr, ok := transferTransitions[action]
	if !ok {
		return "", "", false, domain.NewValidationError(domain.ErrInvalidInput, "acción desconocida: %s", action)
	}
	if current == tr.to && current.IsTerminal() && (action == ActionComplete || action == ActionCancel) {
		return current, "", true, nil
	}
	if !slices.Contains(tr.from, current) {
		return "", "", false, InvalidTransition(current, tr.from)
	}
	return tr.to, tr.audit, false, nil
}

// InvalidTransition construye el error "Invalid transition from X, expected one of {...}".
func InvalidTransition(current entity.TransferStatus, expected []entity.TransferStatus) error {
	names := make([]string, len(expected))
	for i, s := range expected {
		names[i] = string(s)
	}
	ve := domain.NewValidationError(domain.ErrInvalidTransition,
		"Invalid transition from %s, expected one of {%s}", current, strings.Join(names, ", "))
	ve.Details = map[string]string{"current_status": string(current)}
	return ve
}

// AdjustmentTransition valida una transición del ajuste (mismo formato de error que el traslado).
func AdjustmentTransition(current, expected entity.AdjustmentStatus) error {
	if current == expected {
		return nil
	}
	ve := domain.NewValidationError(domain.ErrInvalidTransition,
		"Invalid transition from %s, expected one of {%s}", current, expected)
	ve.Details = map[string]string{"current_status": string(current)}
	return ve
}

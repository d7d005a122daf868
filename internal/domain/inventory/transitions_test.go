package inventory_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/inventory"
)

func TestNextStatus_CicloCompleto(t *testing.T) {
	steps := []struct {
		action inventory.TransferAction
		want   entity.TransferStatus
	}{
		{inventory.ActionSubmit, entity.TransferRequested},
		{inventory.ActionApprove, entity.TransferApproved},
		{inventory.ActionDispatch, entity.TransferInTransit},
		{inventory.ActionComplete, entity.TransferCompleted},
	}
	status := entity.TransferDraft
	for _, s := range steps {
		next, audit, noop, err := inventory.NextStatus(status, s.action)
		require.NoError(t, err, "acción %s", s.action)
		assert.False(t, noop)
		assert.NotEmpty(t, audit)
		assert.Equal(t, s.want, next)
		status = next
	}
}

func TestNextStatus_TransicionInvalida(t *testing.T) {
	_, _, _, err := inventory.NextStatus(entity.TransferDraft, inventory.ActionDispatch)

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrInvalidTransition))
	assert.Equal(t, "Invalid transition from DRAFT, expected one of {APPROVED}", err.Error())
}

func TestNextStatus_CancelarDesdeEstados(t *testing.T) {
	for _, from := range []entity.TransferStatus{entity.TransferRequested, entity.TransferApproved, entity.TransferInTransit} {
		next, _, noop, err := inventory.NextStatus(from, inventory.ActionCancel)
		require.NoError(t, err)
		assert.False(t, noop)
		assert.Equal(t, entity.TransferCancelled, next)
	}

	_, _, _, err := inventory.NextStatus(entity.TransferDraft, inventory.ActionCancel)
	assert.EqualError(t, err, "Invalid transition from DRAFT, expected one of {REQUESTED, APPROVED, IN_TRANSIT}")
}

func TestNextStatus_TerminalRepetidoEsNoop(t *testing.T) {
	_, _, noop, err := inventory.NextStatus(entity.TransferCompleted, inventory.ActionComplete)
	assert.NoError(t, err)
	assert.True(t, noop)

	_, _, noop, err = inventory.NextStatus(entity.TransferCancelled, inventory.ActionCancel)
	assert.NoError(t, err)
	assert.True(t, noop)

	_, _, _, err = inventory.NextStatus(entity.TransferCompleted, inventory.ActionCancel)
	assert.True(t, errors.Is(err, domain.ErrInvalidTransition), "cancelar un traslado completado es inválido")
}

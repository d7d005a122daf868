package postgres

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/jhoicas/stock-ledger/internal/domain"
)

// Códigos SQLSTATE que indican que la transacción completa puede reintentarse.
const (
	codeUniqueViolation      = "23505"
	codeSerializationFailure = "40001"
	codeDeadlockDetected     = "40P01"
	codeLockNotAvailable     = "55P03"
	codeQueryCanceled        = "57014"
)

// isUniqueViolation verifica si un error es una violación de constraint único (23505).
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == codeUniqueViolation
	}
	return strings.Contains(err.Error(), codeUniqueViolation)
}

// isRetryable reconoce deadlock, lock_timeout, fallos de serialización y statement_timeout.
func isRetryable(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	switch pgErr.Code {
	case codeSerializationFailure, codeDeadlockDetected, codeLockNotAvailable, codeQueryCanceled:
		return true
	}
	return false
}

// classifyTxError convierte fallos de bloqueo en domain.TransactionError. Los errores de validación
// y de dominio pasan sin cambios para que el llamador los distinga con errors.Is/As.
func classifyTxError(op string, err error) error {
	if err == nil {
		return nil
	}
	var txErr *domain.TransactionError
	if errors.As(err, &txErr) {
		return err
	}
	if isRetryable(err) {
		return &domain.TransactionError{Op: op, Err: err}
	}
	return err
}

// wrapTxStep para begin/commit: clasifica y, si no es reintentable, agrega contexto.
func wrapTxStep(op string, err error) error {
	if isRetryable(err) {
		return &domain.TransactionError{Op: op, Err: err}
	}
	return fmt.Errorf("%s: %w", op, err)
}

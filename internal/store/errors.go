package store

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/odyssey-erp/commesse/internal/shared"
)

// Postgres error codes the store translates.
const (
	codeRaiseException  = "P0001"
	codeNoDataFound     = "P0002"
	codeCheckViolation  = "23514"
	codeUniqueViolation = "23505"
	codeForeignKey      = "23503"
	codeInvalidText     = "22P02"
)

// mapError converts driver errors into shared sentinels, keeping the cause.
func mapError(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("store: %s: %w", op, shared.ErrNotFound)
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case codeRaiseException:
			return fmt.Errorf("store: %s: %w: %s", op, shared.ErrStateConflict, pgErr.Message)
		case codeNoDataFound:
			return fmt.Errorf("store: %s: %w: %s", op, shared.ErrNotFound, pgErr.Message)
		case codeCheckViolation, codeUniqueViolation, codeForeignKey, codeInvalidText:
			return fmt.Errorf("store: %s: %w: %s", op, shared.ErrValidation, pgErr.Message)
		}
	}
	return fmt.Errorf("store: %s: %w", op, err)
}

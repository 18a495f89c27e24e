package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/odyssey-erp/commesse/internal/shared"
)

// ApproveExpenseNote moves a pending note to approved through the database
// procedure. A note outside pending_approval yields ErrStateConflict.
func (s *Store) ApproveExpenseNote(ctx context.Context, tenantID, noteID, approverID uuid.UUID) error {
	_, err := s.db.Exec(ctx, `SELECT approve_expense_note($1, $2, $3)`, tenantID, noteID, approverID)
	return mapError("approve expense note", err)
}

// RejectExpenseNote moves a pending note to rejected with a reason.
func (s *Store) RejectExpenseNote(ctx context.Context, tenantID, noteID, rejectorID uuid.UUID, reason string) error {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return fmt.Errorf("store: reject expense note: %w: reason required", shared.ErrValidation)
	}
	_, err := s.db.Exec(ctx, `SELECT reject_expense_note($1, $2, $3, $4)`, tenantID, noteID, rejectorID, reason)
	return mapError("reject expense note", err)
}

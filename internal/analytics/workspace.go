package analytics

import (
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/odyssey-erp/commesse/internal/finance"
	"github.com/odyssey-erp/commesse/internal/shared"
)

// Workspace holds an authoritative record set plus optimistic expense status
// patches. Patches show up in View immediately; Reconcile replaces the set
// with freshly loaded data and discards every patch.
type Workspace struct {
	mu      sync.RWMutex
	base    finance.RecordSet
	pending map[uuid.UUID]finance.ExpenseStatus
}

// NewWorkspace starts from an authoritative set.
func NewWorkspace(set finance.RecordSet) *Workspace {
	return &Workspace{base: set, pending: make(map[uuid.UUID]finance.ExpenseStatus)}
}

// Patch optimistically sets the status of an expense note.
func (w *Workspace) Patch(noteID uuid.UUID, status finance.ExpenseStatus) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	for _, n := range w.base.ExpenseNotes {
		if n.ID == noteID {
			w.pending[noteID] = status
			return nil
		}
	}
	return fmt.Errorf("analytics: expense note %s: %w", noteID, shared.ErrNotFound)
}

// Pending reports how many optimistic patches are outstanding.
func (w *Workspace) Pending() int {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return len(w.pending)
}

// Reconcile replaces the state with authoritative data, dropping patches
// whether or not the remote write they anticipated succeeded.
func (w *Workspace) Reconcile(set finance.RecordSet) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.base = set
	w.pending = make(map[uuid.UUID]finance.ExpenseStatus)
}

// View returns the set with pending patches applied. The base set is never
// mutated.
func (w *Workspace) View() finance.RecordSet {
	w.mu.RLock()
	defer w.mu.RUnlock()
	view := w.base
	if len(w.pending) == 0 {
		return view
	}
	notes := make([]finance.ExpenseNote, len(w.base.ExpenseNotes))
	copy(notes, w.base.ExpenseNotes)
	for i, n := range notes {
		if status, ok := w.pending[n.ID]; ok {
			notes[i].Status = status
		}
	}
	view.ExpenseNotes = notes
	return view
}

// Summary aggregates the current view.
func (w *Workspace) Summary() finance.Summary {
	return finance.SummaryOf(w.View())
}

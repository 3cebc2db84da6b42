package reconcile

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tandem-dev/tandem/internal/model"
)

func newTestSession(t *testing.T) *Session {
	t.Helper()
	expenses := []model.Expense{
		{
			EntryID:     "2025-03-001",
			Date:        date(2025, time.March, 9),
			Description: "Willys groceries",
			Category:    "groceries",
			Amount:      dec("129.00"),
			Assignment:  model.AssignmentShared,
			CreditLine:  true,
		},
	}
	txns := []model.StatementTransaction{
		txn("dup", date(2025, time.March, 10), "129.00", "WILLYS"),
		txn("clean", date(2025, time.March, 11), "42.00", "Pressbyran"),
	}
	return NewSession(DefaultConfig(), txns, expenses)
}

func TestSession_InitialStates(t *testing.T) {
	s := newTestSession(t)

	r, err := s.Resolution("dup")
	require.NoError(t, err)
	assert.Equal(t, StateUnresolved, r.State)

	r, err = s.Resolution("clean")
	require.NoError(t, err)
	assert.Equal(t, StateClear, r.State)

	// A clean transaction is importable without any user action; an
	// unresolved one is gated.
	assert.True(t, s.Selectable("clean"))
	assert.False(t, s.Selectable("dup"))
}

func TestSession_DismissMakesSelectable(t *testing.T) {
	s := newTestSession(t)

	require.NoError(t, s.Dismiss("dup"))
	assert.True(t, s.Selectable("dup"))

	// Dismissed is terminal for this pass.
	assert.Error(t, s.Dismiss("dup"))
	assert.Error(t, s.Undo("dup"))
}

func TestSession_DismissRequiresCandidates(t *testing.T) {
	s := newTestSession(t)
	assert.Error(t, s.Dismiss("clean"))
}

func TestSession_HandleExcludesFromImport(t *testing.T) {
	s := newTestSession(t)

	require.NoError(t, s.Handle("dup", "2025-03-001"))
	assert.False(t, s.Selectable("dup"))

	// The matched expense is exposed for category inheritance.
	e, ok := s.Matched("dup")
	require.True(t, ok)
	assert.Equal(t, "groceries", e.Category)
	assert.Equal(t, model.AssignmentShared, e.Assignment)
}

func TestSession_HandleRejectsNonCandidate(t *testing.T) {
	s := newTestSession(t)

	assert.Error(t, s.Handle("dup", "2025-03-999"))
	assert.Error(t, s.Handle("clean", "2025-03-001"))
}

func TestSession_UndoRestoresCandidates(t *testing.T) {
	s := newTestSession(t)

	before := s.Candidates("dup")
	require.NotEmpty(t, before)

	require.NoError(t, s.Handle("dup", "2025-03-001"))
	require.NoError(t, s.Undo("dup"))

	r, err := s.Resolution("dup")
	require.NoError(t, err)
	assert.Equal(t, StateUnresolved, r.State)
	assert.Empty(t, r.MatchedExpenseID)
	assert.Equal(t, before, s.Candidates("dup"))

	_, ok := s.Matched("dup")
	assert.False(t, ok)
}

func TestSession_UndoOnlyFromHandled(t *testing.T) {
	s := newTestSession(t)
	assert.Error(t, s.Undo("dup"))
	assert.Error(t, s.Undo("clean"))
}

func TestSession_UnknownTransaction(t *testing.T) {
	s := newTestSession(t)

	_, err := s.Resolution("nope")
	assert.Error(t, err)
	assert.Error(t, s.Dismiss("nope"))
	assert.False(t, s.Selectable("nope"))
}

func TestSession_TransactionsKeepInputOrder(t *testing.T) {
	s := newTestSession(t)

	refs := []string{}
	for _, tx := range s.Transactions() {
		refs = append(refs, tx.Reference)
	}
	assert.Equal(t, []string{"dup", "clean"}, refs)
}

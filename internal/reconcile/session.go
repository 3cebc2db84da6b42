package reconcile

import (
	"fmt"

	"github.com/tandem-dev/tandem/internal/model"
)

// State is a transaction's position in the resolution workflow.
type State string

const (
	// StateClear means no duplicate candidates exist; the transaction is
	// import-eligible without any user action.
	StateClear State = "clear"
	// StateUnresolved means candidates exist and the user has not decided.
	StateUnresolved State = "unresolved"
	// StateDismissed means the user asserted none of the candidates match.
	StateDismissed State = "dismissed"
	// StateHandled means the user confirmed a specific candidate; the
	// existing expense already represents this transaction.
	StateHandled State = "handled"
)

// Resolution is the current decision for one transaction.
type Resolution struct {
	State            State
	MatchedExpenseID string // set only when State is StateHandled
}

// Session holds one reconciliation pass: the candidate map plus each
// transaction's resolution. Candidates are computed once at construction
// and never mutated, so an undo always restores the original list.
type Session struct {
	txns        map[string]model.StatementTransaction
	order       []string
	expenses    map[string]model.Expense
	candidates  map[string][]Candidate
	resolutions map[string]Resolution
}

// NewSession computes candidates for every transaction and initializes
// resolutions: clear when no candidates, unresolved otherwise.
func NewSession(cfg Config, txns []model.StatementTransaction, expenses []model.Expense) *Session {
	s := &Session{
		txns:        make(map[string]model.StatementTransaction, len(txns)),
		expenses:    make(map[string]model.Expense, len(expenses)),
		candidates:  FindCandidates(cfg, txns, expenses),
		resolutions: make(map[string]Resolution, len(txns)),
	}
	for _, t := range txns {
		s.txns[t.Reference] = t
		s.order = append(s.order, t.Reference)
		if len(s.candidates[t.Reference]) == 0 {
			s.resolutions[t.Reference] = Resolution{State: StateClear}
		} else {
			s.resolutions[t.Reference] = Resolution{State: StateUnresolved}
		}
	}
	for _, e := range expenses {
		s.expenses[e.EntryID] = e
	}
	return s
}

// Transactions returns the session's transactions in input order.
func (s *Session) Transactions() []model.StatementTransaction {
	out := make([]model.StatementTransaction, 0, len(s.order))
	for _, ref := range s.order {
		out = append(out, s.txns[ref])
	}
	return out
}

// Candidates returns the ranked candidate list for a transaction.
func (s *Session) Candidates(ref string) []Candidate {
	return s.candidates[ref]
}

// Resolution returns the current resolution for a transaction.
func (s *Session) Resolution(ref string) (Resolution, error) {
	r, ok := s.resolutions[ref]
	if !ok {
		return Resolution{}, fmt.Errorf("unknown transaction %q", ref)
	}
	return r, nil
}

// Dismiss marks an unresolved transaction as not-a-duplicate, making it
// eligible for import. Only valid while candidates are outstanding; there is
// no way back to unresolved within the same pass.
func (s *Session) Dismiss(ref string) error {
	r, err := s.Resolution(ref)
	if err != nil {
		return err
	}
	if r.State != StateUnresolved {
		return fmt.Errorf("cannot dismiss transaction %q in state %s", ref, r.State)
	}
	s.resolutions[ref] = Resolution{State: StateDismissed}
	return nil
}

// Handle confirms that expenseID is the same event as the transaction. The
// expense must be one of the transaction's candidates. A handled transaction
// is excluded from import for the rest of the session.
func (s *Session) Handle(ref, expenseID string) error {
	r, err := s.Resolution(ref)
	if err != nil {
		return err
	}
	if r.State != StateUnresolved {
		return fmt.Errorf("cannot handle transaction %q in state %s", ref, r.State)
	}
	found := false
	for _, c := range s.candidates[ref] {
		if c.ExpenseID == expenseID {
			found = true
			break
		}
	}
	if !found {
		return fmt.Errorf("expense %q is not a candidate for transaction %q", expenseID, ref)
	}
	s.resolutions[ref] = Resolution{State: StateHandled, MatchedExpenseID: expenseID}
	return nil
}

// Undo reverts a handled transaction to unresolved, restoring its original
// candidate list for review.
func (s *Session) Undo(ref string) error {
	r, err := s.Resolution(ref)
	if err != nil {
		return err
	}
	if r.State != StateHandled {
		return fmt.Errorf("cannot undo transaction %q in state %s", ref, r.State)
	}
	s.resolutions[ref] = Resolution{State: StateUnresolved}
	return nil
}

// Selectable reports whether a transaction may be imported as a new expense:
// either it never had candidates or the user dismissed them. Unresolved and
// handled transactions are not importable.
func (s *Session) Selectable(ref string) bool {
	r, ok := s.resolutions[ref]
	if !ok {
		return false
	}
	return r.State == StateClear || r.State == StateDismissed
}

// Matched returns the expense a handled transaction was matched to, for
// category and assignment inheritance in display.
func (s *Session) Matched(ref string) (model.Expense, bool) {
	r, ok := s.resolutions[ref]
	if !ok || r.State != StateHandled {
		return model.Expense{}, false
	}
	e, ok := s.expenses[r.MatchedExpenseID]
	return e, ok
}

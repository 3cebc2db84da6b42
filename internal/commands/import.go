package commands

import (
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/tandem-dev/tandem/internal/auditlog"
	"github.com/tandem-dev/tandem/internal/config"
	"github.com/tandem-dev/tandem/internal/importer"
	"github.com/tandem-dev/tandem/internal/ledger"
	"github.com/tandem-dev/tandem/internal/model"
	"github.com/tandem-dev/tandem/internal/reconcile"
)

func newImportCommand() *cobra.Command {
	var repoDir string
	var format string

	importCmd := &cobra.Command{
		Use:   "import",
		Short: "Reconcile and import statement transactions",
		Long: `Reconcile statement CSVs dropped in import/ against the ledger.

Transactions that look like already-recorded expenses must be confirmed
(matched to the expense) or dismissed (asserted unrelated) before "apply"
will create expenses for them. Decisions are appended to
logs/reconcile-log.csv and survive between invocations.`,
	}

	importCmd.PersistentFlags().StringVar(&repoDir, "repo", ".", "household repo directory")
	importCmd.PersistentFlags().StringVar(&format, "format", "card", "statement format of the files in import/")

	importCmd.AddCommand(newImportScanCommand(&repoDir, &format))
	importCmd.AddCommand(newImportReviewCommand(&repoDir, &format))
	importCmd.AddCommand(newImportDecideCommand(&repoDir, &format, "confirm"))
	importCmd.AddCommand(newImportDecideCommand(&repoDir, &format, "dismiss"))
	importCmd.AddCommand(newImportDecideCommand(&repoDir, &format, "undo"))
	importCmd.AddCommand(newImportApplyCommand(&repoDir, &format))

	return importCmd
}

// importPass is one reconciliation pass over the current import/ directory:
// parsed transactions, the candidate session with prior decisions replayed,
// and the services needed to act on it.
type importPass struct {
	root    string
	cfg     *config.Config
	svc     *ledger.Service
	session *reconcile.Session
	files   []importer.FileInfo
	byID    map[string]model.Expense
}

// openImportPass parses every statement file in import/, builds a fresh
// reconciliation session over the full ledger, and replays the decisions
// recorded in the reconcile log. Recompute-over-update: state is always
// derived from the files, never cached.
func openImportPass(repoDir, format string) (*importPass, error) {
	root, cfg, err := loadRepo(repoDir)
	if err != nil {
		return nil, err
	}

	parser := importer.DefaultRegistry().Get(format)
	if parser == nil {
		return nil, fmt.Errorf("unknown statement format %q", format)
	}

	files, err := importer.Scan(root)
	if err != nil {
		return nil, err
	}

	var txns []model.StatementTransaction
	for _, file := range files {
		f, err := os.Open(file.Path)
		if err != nil {
			return nil, fmt.Errorf("opening %s: %w", file.Name, err)
		}
		parsed, err := parser.Parse(f)
		f.Close()
		if err != nil {
			return nil, fmt.Errorf("parsing %s: %w", file.Name, err)
		}
		txns = append(txns, parsed...)
	}

	svc := ledger.NewService(root, cfg.Billing.CutoffDay)
	expenses, err := svc.ReadAll()
	if err != nil {
		return nil, err
	}

	tolerance, err := cfg.Reconcile.Tolerance()
	if err != nil {
		return nil, err
	}
	rcfg := reconcile.Config{
		WindowBefore:    cfg.Reconcile.WindowBeforeDays,
		WindowAfter:     cfg.Reconcile.WindowAfterDays,
		AmountTolerance: tolerance,
	}

	pass := &importPass{
		root:    root,
		cfg:     cfg,
		svc:     svc,
		session: reconcile.NewSession(rcfg, txns, expenses),
		files:   files,
		byID:    make(map[string]model.Expense, len(expenses)),
	}
	for _, e := range expenses {
		pass.byID[e.EntryID] = e
	}

	// Replay prior decisions in log order. Entries that no longer apply
	// (candidates changed, transaction gone) are skipped.
	logEntries, err := auditlog.Read(root)
	if err != nil {
		return nil, err
	}
	for _, entry := range logEntries {
		switch entry.Action {
		case auditlog.ActionHandled:
			_ = pass.session.Handle(entry.TxnRef, entry.ExpenseID)
		case auditlog.ActionDismissed:
			_ = pass.session.Dismiss(entry.TxnRef)
		case auditlog.ActionUndone:
			_ = pass.session.Undo(entry.TxnRef)
		}
	}

	return pass, nil
}

func (p *importPass) record(sessionID, txnRef string, action auditlog.Action, expenseID, details string) error {
	return auditlog.Append(p.root, []auditlog.Entry{{
		Timestamp: time.Now(),
		SessionID: sessionID,
		TxnRef:    txnRef,
		Action:    action,
		ExpenseID: expenseID,
		Details:   details,
	}})
}

func newImportScanCommand(repoDir, format *string) *cobra.Command {
	return &cobra.Command{
		Use:   "scan",
		Short: "List statement transactions and their resolution state",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			pass, err := openImportPass(*repoDir, *format)
			if err != nil {
				return err
			}

			txns := pass.session.Transactions()
			if len(txns) == 0 {
				fmt.Println("No statement files in import/.")
				return nil
			}

			for _, t := range txns {
				state, err := pass.describeState(t.Reference)
				if err != nil {
					return err
				}
				fmt.Printf("%-40s %s %10s  %-24s %s\n",
					t.Reference, t.Date.Format("2006-01-02"),
					t.Amount.StringFixed(2), t.Description, state)
			}
			return nil
		},
	}
}

func (p *importPass) describeState(ref string) (string, error) {
	if _, ok, err := p.svc.FindByReference(ref); err != nil {
		return "", err
	} else if ok {
		return "already imported", nil
	}

	res, err := p.session.Resolution(ref)
	if err != nil {
		return "", err
	}
	switch res.State {
	case reconcile.StateClear:
		return "clear", nil
	case reconcile.StateUnresolved:
		return fmt.Sprintf("unresolved (%d candidates)", len(p.session.Candidates(ref))), nil
	case reconcile.StateDismissed:
		return "dismissed", nil
	case reconcile.StateHandled:
		e, _ := p.session.Matched(ref)
		if e.Category != "" {
			return fmt.Sprintf("handled -> %s [%s]", e.EntryID, e.Category), nil
		}
		return fmt.Sprintf("handled -> %s", e.EntryID), nil
	}
	return string(res.State), nil
}

func newImportReviewCommand(repoDir, format *string) *cobra.Command {
	return &cobra.Command{
		Use:   "review <txn-ref>",
		Short: "Show ranked duplicate candidates for a transaction",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pass, err := openImportPass(*repoDir, *format)
			if err != nil {
				return err
			}

			ref := args[0]
			if _, err := pass.session.Resolution(ref); err != nil {
				return err
			}

			cands := pass.session.Candidates(ref)
			if len(cands) == 0 {
				fmt.Println("No duplicate candidates; transaction is clear for import.")
				return nil
			}

			for _, c := range cands {
				e := pass.byID[c.ExpenseID]
				note := ""
				if !c.ExactAmount {
					note = " (near amount)"
				}
				if !c.Plausible {
					note += " (unlikely pair)"
				}
				fmt.Printf("%d. %s  %s %10s  %-24s %+dd%s\n",
					c.Rank, e.EntryID, e.Date.Format("2006-01-02"),
					e.RegisteredAmount().StringFixed(2), e.Description,
					c.DateDeltaDays, note)
			}
			return nil
		},
	}
}

// newImportDecideCommand builds confirm, dismiss and undo, which share the
// open-decide-log shape.
func newImportDecideCommand(repoDir, format *string, verb string) *cobra.Command {
	short := map[string]string{
		"confirm": "Confirm a candidate: the expense already covers this transaction",
		"dismiss": "Dismiss all candidates: this transaction is a new expense",
		"undo":    "Reopen a confirmed transaction for review",
	}[verb]

	use := verb + " <txn-ref>"
	if verb == "confirm" {
		use = "confirm <txn-ref> [expense-id]"
	}

	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			pass, err := openImportPass(*repoDir, *format)
			if err != nil {
				return err
			}

			ref := args[0]
			sessionID := uuid.NewString()

			switch verb {
			case "confirm":
				expenseID := ""
				if len(args) > 1 {
					expenseID = args[1]
				} else if cands := pass.session.Candidates(ref); len(cands) > 0 {
					expenseID = cands[0].ExpenseID
				}
				if err := pass.session.Handle(ref, expenseID); err != nil {
					return err
				}
				if err := pass.record(sessionID, ref, auditlog.ActionHandled, expenseID, ""); err != nil {
					return err
				}
				e, _ := pass.session.Matched(ref)
				fmt.Printf("Matched %s to %s; it will not be imported.\n", ref, e.EntryID)

			case "dismiss":
				if len(args) > 1 {
					return fmt.Errorf("dismiss takes only a transaction reference")
				}
				if err := pass.session.Dismiss(ref); err != nil {
					return err
				}
				if err := pass.record(sessionID, ref, auditlog.ActionDismissed, "", ""); err != nil {
					return err
				}
				fmt.Printf("Dismissed candidates for %s; it is clear for import.\n", ref)

			case "undo":
				if len(args) > 1 {
					return fmt.Errorf("undo takes only a transaction reference")
				}
				if err := pass.session.Undo(ref); err != nil {
					return err
				}
				if err := pass.record(sessionID, ref, auditlog.ActionUndone, "", ""); err != nil {
					return err
				}
				fmt.Printf("Reopened %s for candidate review.\n", ref)
			}
			return nil
		},
	}
}

func newImportApplyCommand(repoDir, format *string) *cobra.Command {
	return &cobra.Command{
		Use:   "apply",
		Short: "Create expenses for clear and dismissed transactions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			pass, err := openImportPass(*repoDir, *format)
			if err != nil {
				return err
			}
			return runImportApply(pass)
		},
	}
}

func runImportApply(pass *importPass) error {
	sessionID := uuid.NewString()
	imported, skipped, blocked := 0, 0, 0

	for _, t := range pass.session.Transactions() {
		// At-most-once: a reference already in the ledger never imports again.
		if _, ok, err := pass.svc.FindByReference(t.Reference); err != nil {
			return err
		} else if ok {
			skipped++
			continue
		}

		if !pass.session.Selectable(t.Reference) {
			res, err := pass.session.Resolution(t.Reference)
			if err != nil {
				return err
			}
			if res.State == reconcile.StateHandled {
				// Resolved: the matched expense already covers it.
				skipped++
			} else {
				blocked++
			}
			continue
		}

		if t.IsRefund() {
			fmt.Printf("Skipping refund %s; record it against the original expense manually.\n", t.Reference)
			skipped++
			continue
		}

		entryID, err := pass.svc.Add(ledger.AddParams{
			Date:        t.Date,
			Description: t.Description,
			Amount:      t.Amount,
			Assignment:  model.AssignmentShared,
			CreditLine:  true,
			Reference:   t.Reference,
			Notes:       "imported from " + t.Source + " statement",
		})
		if err != nil {
			return fmt.Errorf("importing %s: %w", t.Reference, err)
		}
		if err := pass.record(sessionID, t.Reference, auditlog.ActionImported, entryID, ""); err != nil {
			return err
		}
		imported++
	}

	// Statement files stay in import/ until every transaction is resolved,
	// so the next pass can still see the blocked ones.
	if blocked == 0 {
		for _, file := range pass.files {
			if err := importer.MarkProcessed(pass.root, file.Name); err != nil {
				return err
			}
		}
	}

	fmt.Printf("Imported %d, skipped %d, blocked %d (unresolved).\n", imported, skipped, blocked)
	if blocked > 0 {
		fmt.Println("Unresolved transactions need 'import confirm' or 'import dismiss' first.")
	}
	return autoCommit(pass.root, pass.cfg, fmt.Sprintf("import: %d statement transactions", imported))
}

package commands

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/tandem-dev/tandem/internal/config"
	"github.com/tandem-dev/tandem/internal/cycle"
	"github.com/tandem-dev/tandem/internal/gitops"
	"github.com/tandem-dev/tandem/internal/ledger"
	"github.com/tandem-dev/tandem/internal/model"
)

func newAddCommand() *cobra.Command {
	var repoDir string
	var dateStr string
	var amountStr string
	var category string
	var assignment string
	var direct bool
	var notes string

	var groupTotal string
	var userShare string
	var partnerShare string
	var swishTo string

	cmd := &cobra.Command{
		Use:   "add <description>",
		Short: "Record an expense",
		Long: `Record an expense against the shared ledger.

Plain expenses take --amount plus an --assignment (personal, shared or
partner). A group purchase instead takes --group-total, --user-share,
--partner-share and --swish-to, describing a charge split with people
outside the household.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAdd(repoDir, args[0], addFlags{
				date:         dateStr,
				amount:       amountStr,
				category:     category,
				assignment:   assignment,
				direct:       direct,
				notes:        notes,
				groupTotal:   groupTotal,
				userShare:    userShare,
				partnerShare: partnerShare,
				swishTo:      swishTo,
			})
		},
	}

	cmd.Flags().StringVar(&repoDir, "repo", ".", "household repo directory")
	cmd.Flags().StringVar(&dateStr, "date", time.Now().Format("2006-01-02"), "expense date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&amountStr, "amount", "", "expense amount")
	cmd.Flags().StringVar(&category, "category", "", "expense category")
	cmd.Flags().StringVar(&assignment, "assignment", "shared", "who pays: personal, shared or partner")
	cmd.Flags().BoolVar(&direct, "direct", false, "paid directly, not on the shared credit card")
	cmd.Flags().StringVar(&notes, "notes", "", "free-form notes")
	cmd.Flags().StringVar(&groupTotal, "group-total", "", "full charge of a group purchase")
	cmd.Flags().StringVar(&userShare, "user-share", "", "your share of a group purchase")
	cmd.Flags().StringVar(&partnerShare, "partner-share", "", "partner's share of a group purchase")
	cmd.Flags().StringVar(&swishTo, "swish-to", "", "who received the reimbursement: user, partner or shared")

	return cmd
}

type addFlags struct {
	date         string
	amount       string
	category     string
	assignment   string
	direct       bool
	notes        string
	groupTotal   string
	userShare    string
	partnerShare string
	swishTo      string
}

func runAdd(repoDir, description string, flags addFlags) error {
	root, cfg, err := loadRepo(repoDir)
	if err != nil {
		return err
	}

	date, err := time.Parse("2006-01-02", flags.date)
	if err != nil {
		return fmt.Errorf("parsing date %q: %w", flags.date, err)
	}

	params := ledger.AddParams{
		Date:        date,
		Description: description,
		Category:    flags.category,
		CreditLine:  !flags.direct,
		Notes:       flags.notes,
	}

	if flags.groupTotal != "" {
		group, err := parseGroupFlags(flags)
		if err != nil {
			return err
		}
		params.Group = group
		params.Assignment = model.AssignmentShared
	} else {
		if flags.amount == "" {
			return fmt.Errorf("--amount is required unless --group-total is given")
		}
		params.Amount, err = decimal.NewFromString(flags.amount)
		if err != nil {
			return fmt.Errorf("parsing amount %q: %w", flags.amount, err)
		}
		params.Assignment, err = parseAssignment(flags.assignment)
		if err != nil {
			return err
		}
	}

	svc := ledger.NewService(root, cfg.Billing.CutoffDay)
	entryID, err := svc.Add(params)
	if err != nil {
		return err
	}

	period := cycle.AssignPeriod(date, cfg.Billing.CutoffDay)
	fmt.Printf("Recorded %s in period %s\n", entryID, period)

	return autoCommit(root, cfg, fmt.Sprintf("add: %s (%s)", description, entryID))
}

func parseGroupFlags(flags addFlags) (*model.GroupPurchase, error) {
	if flags.userShare == "" || flags.partnerShare == "" {
		return nil, fmt.Errorf("--user-share and --partner-share are required with --group-total")
	}

	g := &model.GroupPurchase{}
	var err error
	g.TotalAmount, err = decimal.NewFromString(flags.groupTotal)
	if err != nil {
		return nil, fmt.Errorf("parsing group-total %q: %w", flags.groupTotal, err)
	}
	g.UserShare, err = decimal.NewFromString(flags.userShare)
	if err != nil {
		return nil, fmt.Errorf("parsing user-share %q: %w", flags.userShare, err)
	}
	g.PartnerShare, err = decimal.NewFromString(flags.partnerShare)
	if err != nil {
		return nil, fmt.Errorf("parsing partner-share %q: %w", flags.partnerShare, err)
	}

	switch flags.swishTo {
	case "":
		// Only valid when nothing was reimbursed; the ledger invariants catch
		// the rest.
	case "user":
		g.SwishRecipient = model.SwishUser
	case "partner":
		g.SwishRecipient = model.SwishPartner
	case "shared":
		g.SwishRecipient = model.SwishShared
	default:
		return nil, fmt.Errorf("invalid --swish-to %q: want user, partner or shared", flags.swishTo)
	}

	return g, nil
}

func parseAssignment(s string) (model.CostAssignment, error) {
	switch s {
	case "personal":
		return model.AssignmentPersonal, nil
	case "shared":
		return model.AssignmentShared, nil
	case "partner":
		return model.AssignmentPartner, nil
	default:
		return "", fmt.Errorf("invalid --assignment %q: want personal, shared or partner", s)
	}
}

// autoCommit commits ledger changes when git auto-commit is enabled.
func autoCommit(root string, cfg *config.Config, message string) error {
	if !cfg.Git.AutoCommit || !gitops.IsRepo(root) {
		return nil
	}
	if _, err := gitops.CommitLedger(root, message, cfg.Git.AuthorName, cfg.Git.AuthorEmail); err != nil {
		return fmt.Errorf("auto-commit: %w", err)
	}
	return nil
}

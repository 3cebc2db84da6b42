package commands

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/tandem-dev/tandem/internal/cycle"
	"github.com/tandem-dev/tandem/internal/invoices"
	"github.com/tandem-dev/tandem/internal/ledger"
	"github.com/tandem-dev/tandem/internal/model"
	"github.com/tandem-dev/tandem/internal/split"
)

func newReportCommand() *cobra.Command {
	var repoDir string

	cmd := &cobra.Command{
		Use:   "report [period]",
		Short: "Show who owes what for an invoice period",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			periodStr := ""
			if len(args) > 0 {
				periodStr = args[0]
			}
			return runReport(repoDir, periodStr)
		},
	}

	cmd.Flags().StringVar(&repoDir, "repo", ".", "household repo directory")
	return cmd
}

func runReport(repoDir, periodStr string) error {
	root, cfg, err := loadRepo(repoDir)
	if err != nil {
		return err
	}

	var period model.Period
	if periodStr == "" {
		period = cycle.AssignPeriod(time.Now(), cfg.Billing.CutoffDay)
	} else {
		period, err = model.ParsePeriod(periodStr)
		if err != nil {
			return err
		}
	}

	svc := ledger.NewService(root, cfg.Billing.CutoffDay)
	expenses, err := svc.ReadPeriod(period)
	if err != nil {
		return err
	}

	store, err := invoices.Load(root)
	if err != nil {
		return err
	}
	var actual *decimal.Decimal
	if amount, ok := store.Get(period); ok {
		actual = &amount
	}

	res := split.Compute(expenses, actual).Rounded()
	cur := cfg.Billing.Currency

	fmt.Printf("Invoice period %s (%d expenses)\n", period, len(expenses))
	fmt.Printf("Registered total:  %12s %s\n", res.RegisteredTotal.StringFixed(2), cur)
	if actual != nil {
		fmt.Printf("Invoice amount:    %12s %s\n", actual.StringFixed(2), cur)
	} else {
		fmt.Println("Invoice amount:    not recorded yet (estimated view)")
	}
	if res.UnregisteredDifference.IsPositive() {
		fmt.Printf("Not yet itemized:  %12s %s (split evenly, assumed joint)\n",
			res.UnregisteredDifference.StringFixed(2), cur)
	}
	fmt.Printf("%-18s %12s %s\n", cfg.Household.User+" owes:", res.UserAmount.StringFixed(2), cur)
	fmt.Printf("%-18s %12s %s\n", cfg.Household.Partner+" owes:", res.PartnerAmount.StringFixed(2), cur)

	if res.HasWarning {
		fmt.Printf("WARNING: registered total exceeds the invoice amount; check for duplicate or misdated entries.\n")
	}
	for _, a := range res.Anomalies {
		fmt.Printf("NOTE: %s\n", a)
	}
	return nil
}

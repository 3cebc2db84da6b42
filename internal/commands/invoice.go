package commands

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/tandem-dev/tandem/internal/invoices"
	"github.com/tandem-dev/tandem/internal/model"
)

func newInvoiceCommand() *cobra.Command {
	invoiceCmd := &cobra.Command{
		Use:   "invoice",
		Short: "Record and inspect actual invoice amounts",
	}
	invoiceCmd.AddCommand(newInvoiceSetCommand())
	invoiceCmd.AddCommand(newInvoiceShowCommand())
	return invoiceCmd
}

func newInvoiceSetCommand() *cobra.Command {
	var repoDir string

	cmd := &cobra.Command{
		Use:   "set <period> <amount>",
		Short: "Record a period's actual invoice amount from the bill",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInvoiceSet(repoDir, args[0], args[1])
		},
	}

	cmd.Flags().StringVar(&repoDir, "repo", ".", "household repo directory")
	return cmd
}

func runInvoiceSet(repoDir, periodStr, amountStr string) error {
	root, cfg, err := loadRepo(repoDir)
	if err != nil {
		return err
	}

	period, err := model.ParsePeriod(periodStr)
	if err != nil {
		return err
	}
	amount, err := decimal.NewFromString(amountStr)
	if err != nil {
		return fmt.Errorf("parsing amount %q: %w", amountStr, err)
	}

	store, err := invoices.Load(root)
	if err != nil {
		return err
	}
	if err := store.Set(period, amount, time.Now()); err != nil {
		return err
	}

	fmt.Printf("Invoice %s: %s %s\n", period, amount.StringFixed(2), cfg.Billing.Currency)
	return autoCommit(root, cfg, fmt.Sprintf("invoice: %s %s", period, amount.StringFixed(2)))
}

func newInvoiceShowCommand() *cobra.Command {
	var repoDir string

	cmd := &cobra.Command{
		Use:   "show",
		Short: "List recorded invoice amounts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInvoiceShow(repoDir)
		},
	}

	cmd.Flags().StringVar(&repoDir, "repo", ".", "household repo directory")
	return cmd
}

func runInvoiceShow(repoDir string) error {
	root, cfg, err := loadRepo(repoDir)
	if err != nil {
		return err
	}

	store, err := invoices.Load(root)
	if err != nil {
		return err
	}

	entries := store.Entries()
	if len(entries) == 0 {
		fmt.Println("No invoice amounts recorded yet.")
		return nil
	}
	for _, e := range entries {
		fmt.Printf("%s  %10s %s  (recorded %s)\n",
			e.Period, e.ActualAmount.StringFixed(2), cfg.Billing.Currency,
			e.RecordedAt.Format("2006-01-02"))
	}
	return nil
}

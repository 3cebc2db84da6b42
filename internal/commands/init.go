package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/tandem-dev/tandem/internal/config"
	"github.com/tandem-dev/tandem/internal/gitops"
	"github.com/tandem-dev/tandem/internal/invoices"
)

func newInitCommand() *cobra.Command {
	var user string
	var partner string
	var cutoffDay int

	cmd := &cobra.Command{
		Use:   "init [directory]",
		Short: "Initialize a new household expense repo",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) > 0 {
				dir = args[0]
			}

			absDir, err := filepath.Abs(dir)
			if err != nil {
				return fmt.Errorf("resolving path: %w", err)
			}

			return runInit(absDir, user, partner, cutoffDay)
		},
	}

	cmd.Flags().StringVar(&user, "user", "", "your name (required)")
	_ = cmd.MarkFlagRequired("user")
	cmd.Flags().StringVar(&partner, "partner", "", "your partner's name (required)")
	_ = cmd.MarkFlagRequired("partner")
	cmd.Flags().IntVar(&cutoffDay, "cutoff-day", 25, "invoice cutoff day of month")

	return cmd
}

func runInit(dir, user, partner string, cutoffDay int) error {
	dirs := []string{
		"import",
		filepath.Join("import", "processed"),
		"logs",
	}
	for _, d := range dirs {
		if err := os.MkdirAll(filepath.Join(dir, d), 0o755); err != nil {
			return fmt.Errorf("creating directory %s: %w", d, err)
		}
	}

	// Write tandem.yaml.
	cfg := config.Default(user, partner)
	cfg.Billing.CutoffDay = cutoffDay
	if err := cfg.Validate(); err != nil {
		return err
	}
	if err := config.Save(filepath.Join(dir, "tandem.yaml"), cfg); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	// Write an empty invoices.csv.
	f, err := os.Create(filepath.Join(dir, "invoices.csv"))
	if err != nil {
		return fmt.Errorf("creating invoices.csv: %w", err)
	}
	if err := invoices.WriteEntries(f, nil); err != nil {
		f.Close()
		return fmt.Errorf("writing invoices.csv: %w", err)
	}
	f.Close()

	// Keep statement drops out of git history.
	gitignore := "import/\n"
	if err := os.WriteFile(filepath.Join(dir, ".gitignore"), []byte(gitignore), 0o644); err != nil {
		return fmt.Errorf("writing .gitignore: %w", err)
	}

	if err := gitops.Init(dir); err != nil {
		return fmt.Errorf("git init: %w", err)
	}

	hash, err := gitops.CommitLedger(dir, fmt.Sprintf("init: %s & %s household ledger", user, partner), cfg.Git.AuthorName, cfg.Git.AuthorEmail)
	if err != nil {
		return fmt.Errorf("initial commit: %w", err)
	}

	fmt.Printf("Initialized household repo at %s (%s)\n", dir, hash)
	return nil
}

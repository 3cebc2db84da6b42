package config

import (
	"fmt"
	"os"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// Config represents the top-level tandem.yaml configuration.
type Config struct {
	Household HouseholdConfig `yaml:"household"`
	Billing   BillingConfig   `yaml:"billing"`
	Reconcile ReconcileConfig `yaml:"reconcile"`
	Git       GitConfig       `yaml:"git"`
}

// HouseholdConfig names the two members. "User" is whoever owns this copy of
// the repo; "Partner" is the other member.
type HouseholdConfig struct {
	User    string `yaml:"user"`
	Partner string `yaml:"partner"`
}

// BillingConfig defines the credit card billing cycle.
type BillingConfig struct {
	// CutoffDay is the day-of-month after which charges roll into the next
	// invoice period. May be 1-31; months shorter than the cutoff simply
	// never roll over.
	CutoffDay int    `yaml:"cutoff_day"`
	Currency  string `yaml:"currency"`
}

// ReconcileConfig controls duplicate matching during statement import.
type ReconcileConfig struct {
	WindowBeforeDays int    `yaml:"window_before_days"`
	WindowAfterDays  int    `yaml:"window_after_days"`
	AmountTolerance  string `yaml:"amount_tolerance"`
}

// Tolerance parses the configured amount tolerance.
func (r ReconcileConfig) Tolerance() (decimal.Decimal, error) {
	if r.AmountTolerance == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(r.AmountTolerance)
	if err != nil {
		return decimal.Zero, fmt.Errorf("parsing amount_tolerance %q: %w", r.AmountTolerance, err)
	}
	return d, nil
}

// GitConfig controls git integration.
type GitConfig struct {
	AutoCommit  bool   `yaml:"auto_commit"`
	AuthorName  string `yaml:"author_name"`
	AuthorEmail string `yaml:"author_email"`
}

// Load reads a tandem.yaml file from disk.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Save writes a Config to a YAML file.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

// Validate rejects configurations the engines treat as caller contract
// violations.
func (c *Config) Validate() error {
	if c.Billing.CutoffDay < 1 || c.Billing.CutoffDay > 31 {
		return fmt.Errorf("billing.cutoff_day %d must be between 1 and 31", c.Billing.CutoffDay)
	}
	if c.Reconcile.WindowBeforeDays < 0 || c.Reconcile.WindowAfterDays < 0 {
		return fmt.Errorf("reconcile window days must not be negative")
	}
	if _, err := c.Reconcile.Tolerance(); err != nil {
		return err
	}
	return nil
}

// Default returns a Config with sensible defaults for a new household repo.
func Default(user, partner string) *Config {
	return &Config{
		Household: HouseholdConfig{
			User:    user,
			Partner: partner,
		},
		Billing: BillingConfig{
			CutoffDay: 25,
			Currency:  "SEK",
		},
		Reconcile: ReconcileConfig{
			WindowBeforeDays: 4,
			WindowAfterDays:  2,
			AmountTolerance:  "0.00",
		},
		Git: GitConfig{
			AutoCommit:  true,
			AuthorName:  "Tandem",
			AuthorEmail: "ledger@tandem.dev",
		},
	}
}

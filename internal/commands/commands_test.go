package commands_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tandem-dev/tandem/internal/commands"
	"github.com/tandem-dev/tandem/internal/ledger"
	"github.com/tandem-dev/tandem/internal/model"
)

func runTandem(t *testing.T, args ...string) error {
	t.Helper()
	cmd := commands.NewRootCommand()
	cmd.SetArgs(args)
	return cmd.Execute()
}

func initRepo(t *testing.T) string {
	t.Helper()
	// Git needs a committer identity for the auto-commits.
	t.Setenv("GIT_AUTHOR_NAME", "test")
	t.Setenv("GIT_AUTHOR_EMAIL", "test@example.com")
	t.Setenv("GIT_COMMITTER_NAME", "test")
	t.Setenv("GIT_COMMITTER_EMAIL", "test@example.com")

	dir := t.TempDir()
	require.NoError(t, runTandem(t, "init", dir, "--user", "Alice", "--partner", "Bob", "--cutoff-day", "25"))
	return dir
}

func TestInit_CreatesStructure(t *testing.T) {
	dir := initRepo(t)

	for _, name := range []string{"tandem.yaml", "invoices.csv", ".gitignore"} {
		_, err := os.Stat(filepath.Join(dir, name))
		require.NoError(t, err, "%s should exist", name)
	}
	for _, d := range []string{"import", filepath.Join("import", "processed"), "logs"} {
		info, err := os.Stat(filepath.Join(dir, d))
		require.NoError(t, err, "directory %s should exist", d)
		assert.True(t, info.IsDir())
	}
}

func TestAddAndReport(t *testing.T) {
	dir := initRepo(t)

	require.NoError(t, runTandem(t, "add", "Willys groceries",
		"--repo", dir, "--date", "2025-03-10", "--amount", "129.00",
		"--category", "groceries"))

	require.NoError(t, runTandem(t, "add", "Dinner for six",
		"--repo", dir, "--date", "2025-03-14",
		"--group-total", "900.00", "--user-share", "300.00",
		"--partner-share", "300.00", "--swish-to", "user"))

	svc := ledger.NewService(dir, 25)
	expenses, err := svc.ReadPeriod(model.Period{Year: 2025, Month: 3})
	require.NoError(t, err)
	require.Len(t, expenses, 2)
	require.NotNil(t, expenses[1].Group)

	require.NoError(t, runTandem(t, "invoice", "set", "2025-03", "4500.00", "--repo", dir))
	require.NoError(t, runTandem(t, "report", "2025-03", "--repo", dir))
}

func TestAdd_RejectsInvalidGroupPurchase(t *testing.T) {
	dir := initRepo(t)

	err := runTandem(t, "add", "Broken dinner",
		"--repo", dir, "--date", "2025-03-14",
		"--group-total", "500.00", "--user-share", "400.00",
		"--partner-share", "400.00", "--swish-to", "user")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "validation failed")
}

func TestImportFlow(t *testing.T) {
	dir := initRepo(t)

	// An expense the statement will duplicate.
	require.NoError(t, runTandem(t, "add", "WILLYS HEMKOP",
		"--repo", dir, "--date", "2025-03-10", "--amount", "129.00"))

	statement := "date,description,amount\n" +
		"2025-03-10,WILLYS HEMKOP,129.00\n" +
		"2025-03-11,PRESSBYRAN,42.00\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "import", "march.csv"), []byte(statement), 0o644))

	require.NoError(t, runTandem(t, "import", "scan", "--repo", dir))

	dupRef := "card_20250310_WILLYSHEMK_129.00"
	cleanRef := "card_20250311_PRESSBYRAN_42.00"

	require.NoError(t, runTandem(t, "import", "review", dupRef, "--repo", dir))

	// Apply refuses to touch the unresolved duplicate but imports the clean
	// transaction.
	require.NoError(t, runTandem(t, "import", "apply", "--repo", dir))

	svc := ledger.NewService(dir, 25)
	_, found, err := svc.FindByReference(cleanRef)
	require.NoError(t, err)
	assert.True(t, found, "clean transaction should be imported")
	_, found, err = svc.FindByReference(dupRef)
	require.NoError(t, err)
	assert.False(t, found, "unresolved duplicate must not be imported")

	// Confirm the duplicate match, then apply again: still nothing new.
	require.NoError(t, runTandem(t, "import", "confirm", dupRef, "--repo", dir))
	require.NoError(t, runTandem(t, "import", "apply", "--repo", dir))

	_, found, err = svc.FindByReference(dupRef)
	require.NoError(t, err)
	assert.False(t, found, "handled transaction is excluded from import")

	// The statement file is processed once everything is resolved.
	_, err = os.Stat(filepath.Join(dir, "import", "processed", "march.csv"))
	require.NoError(t, err)

	// Decisions landed in the reconcile log.
	_, err = os.Stat(filepath.Join(dir, "logs", "reconcile-log.csv"))
	require.NoError(t, err)

	// A re-dropped copy of the same statement cannot import twice.
	require.NoError(t, os.WriteFile(filepath.Join(dir, "import", "march-again.csv"), []byte(statement), 0o644))
	require.NoError(t, runTandem(t, "import", "apply", "--repo", dir))

	all, err := svc.ReadAll()
	require.NoError(t, err)
	assert.Len(t, all, 2, "one manual expense plus one import")
}

func TestImportApply_IdenticalStatementRowsBothImport(t *testing.T) {
	dir := initRepo(t)

	statement := "date,description,amount\n" +
		"2025-03-10,ESPRESSO HOUSE,42.00\n" +
		"2025-03-10,ESPRESSO HOUSE,42.00\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "import", "coffees.csv"), []byte(statement), 0o644))

	require.NoError(t, runTandem(t, "import", "apply", "--repo", dir))

	svc := ledger.NewService(dir, 25)
	all, err := svc.ReadAll()
	require.NoError(t, err)
	assert.Len(t, all, 2, "two identical coffees are two expenses")

	// Still at-most-once per row on a second apply of the same content.
	require.NoError(t, os.WriteFile(filepath.Join(dir, "import", "coffees-again.csv"), []byte(statement), 0o644))
	require.NoError(t, runTandem(t, "import", "apply", "--repo", dir))

	all, err = svc.ReadAll()
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestImportDismissFlow(t *testing.T) {
	dir := initRepo(t)

	require.NoError(t, runTandem(t, "add", "Coffee",
		"--repo", dir, "--date", "2025-03-10", "--amount", "75.00"))

	statement := "date,description,amount\n2025-03-10,ESPRESSO HOUSE,75.00\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "import", "coffee.csv"), []byte(statement), 0o644))

	ref := "card_20250310_ESPRESSOHO_75.00"
	require.NoError(t, runTandem(t, "import", "dismiss", ref, "--repo", dir))
	require.NoError(t, runTandem(t, "import", "apply", "--repo", dir))

	svc := ledger.NewService(dir, 25)
	_, found, err := svc.FindByReference(ref)
	require.NoError(t, err)
	assert.True(t, found, "dismissed transaction imports as a new expense")
}

func TestImport_UnknownFormat(t *testing.T) {
	dir := initRepo(t)
	err := runTandem(t, "import", "scan", "--repo", dir, "--format", "nordea")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown statement format")
}

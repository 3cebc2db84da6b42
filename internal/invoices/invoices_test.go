package invoices

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tandem-dev/tandem/internal/model"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

var march = model.Period{Year: 2025, Month: time.March}

func TestSetAndGet(t *testing.T) {
	dir := t.TempDir()
	store, err := Load(dir)
	require.NoError(t, err)

	_, ok := store.Get(march)
	assert.False(t, ok)

	now := time.Date(2025, time.April, 2, 12, 0, 0, 0, time.UTC)
	require.NoError(t, store.Set(march, dec("4500.00"), now))

	amount, ok := store.Get(march)
	require.True(t, ok)
	assert.True(t, amount.Equal(dec("4500.00")))
}

func TestSet_UpsertLastWriteWins(t *testing.T) {
	dir := t.TempDir()
	store, err := Load(dir)
	require.NoError(t, err)

	now := time.Date(2025, time.April, 2, 12, 0, 0, 0, time.UTC)
	require.NoError(t, store.Set(march, dec("4500.00"), now))
	require.NoError(t, store.Set(march, dec("4711.00"), now.Add(time.Hour)))

	amount, ok := store.Get(march)
	require.True(t, ok)
	assert.True(t, amount.Equal(dec("4711.00")))

	entries := store.Entries()
	require.Len(t, entries, 1)
}

func TestSet_RejectsNonPositive(t *testing.T) {
	dir := t.TempDir()
	store, err := Load(dir)
	require.NoError(t, err)

	assert.Error(t, store.Set(march, dec("0.00"), time.Now()))
	assert.Error(t, store.Set(march, dec("-1.00"), time.Now()))
}

func TestLoad_Reload(t *testing.T) {
	dir := t.TempDir()
	store, err := Load(dir)
	require.NoError(t, err)

	now := time.Date(2025, time.April, 2, 12, 0, 0, 0, time.UTC)
	april := model.Period{Year: 2025, Month: time.April}
	require.NoError(t, store.Set(march, dec("4500.00"), now))
	require.NoError(t, store.Set(april, dec("3200.50"), now))

	reloaded, err := Load(dir)
	require.NoError(t, err)

	amount, ok := reloaded.Get(april)
	require.True(t, ok)
	assert.True(t, amount.Equal(dec("3200.50")))

	// Entries come back in period order.
	entries := reloaded.Entries()
	require.Len(t, entries, 2)
	assert.Equal(t, march, entries[0].Period)
	assert.Equal(t, april, entries[1].Period)
}

func TestLoad_MissingFileIsEmpty(t *testing.T) {
	store, err := Load(t.TempDir())
	require.NoError(t, err)
	assert.Empty(t, store.Entries())
}

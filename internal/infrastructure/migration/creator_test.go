package migration

import (
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"
	"time"

	"github.com/dealerdesk/backend/migrations"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitizeName(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"add deposits table", "add_deposits_table"},
		{"Add-Deposits-Table", "add_deposits_table"},
		{"add__deposits__table", "add_deposits_table"},
		{"   spaces   ", "spaces"},
		{"special!@#$chars", "specialchars"},
		{"_leading", "leading"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, sanitizeName(tt.input))
		})
	}
}

func TestCreateMigration(t *testing.T) {
	dir := t.TempDir()
	now := time.Date(2024, 3, 1, 10, 30, 0, 0, time.UTC)

	mf, err := CreateMigration(dir, "Add outlet index", "speed up deposit listing", now)
	require.NoError(t, err)

	assert.Equal(t, "20240301103000", mf.Version)
	assert.Equal(t, filepath.Join(dir, "20240301103000_add_outlet_index.up.sql"), mf.UpPath)

	up, err := os.ReadFile(mf.UpPath)
	require.NoError(t, err)
	assert.Contains(t, string(up), "speed up deposit listing")

	_, err = os.Stat(mf.DownPath)
	assert.NoError(t, err)

	_, err = CreateMigration(dir, "!!!", "", now)
	assert.Error(t, err)
}

func TestListMigrations(t *testing.T) {
	source := fstest.MapFS{
		"002_b.up.sql":   {},
		"002_b.down.sql": {},
		"001_a.up.sql":   {},
		"001_a.down.sql": {},
		"README.md":      {},
	}

	names, err := ListMigrations(source)
	require.NoError(t, err)
	assert.Equal(t, []string{"001_a", "002_b"}, names)
}

func TestEmbeddedMigrationsArePaired(t *testing.T) {
	names, err := ListMigrations(migrations.FS)
	require.NoError(t, err)
	require.NotEmpty(t, names)

	for _, name := range names {
		_, err := migrations.FS.Open(name + ".down.sql")
		assert.NoError(t, err, "missing down migration for %s", name)
	}
}

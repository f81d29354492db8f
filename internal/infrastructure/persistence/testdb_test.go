package persistence

import (
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// setupTestDB creates an in-memory SQLite database with the lifecycle tables
func setupTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	statements := []string{
		`CREATE TABLE dealerships (
			id TEXT PRIMARY KEY,
			company_id TEXT NOT NULL,
			outlet_id TEXT,
			name TEXT NOT NULL,
			phone TEXT,
			email TEXT,
			address TEXT,
			status TEXT NOT NULL DEFAULT 'pending',
			credit_limit TEXT NOT NULL DEFAULT '0',
			advance_amount TEXT NOT NULL DEFAULT '0',
			due_amount TEXT NOT NULL DEFAULT '0',
			approval_decision TEXT NOT NULL DEFAULT 'pending',
			decided_by TEXT,
			decided_at DATETIME,
			decision_reason TEXT,
			version INTEGER NOT NULL DEFAULT 1,
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL
		)`,
		`CREATE TABLE plans (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			type INTEGER NOT NULL,
			price TEXT NOT NULL,
			validity_days INTEGER NOT NULL,
			product_range INTEGER NOT NULL DEFAULT 0,
			version INTEGER NOT NULL DEFAULT 1,
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL
		)`,
		`CREATE TABLE plan_modules (
			plan_id TEXT NOT NULL,
			module_id TEXT NOT NULL,
			module_name TEXT NOT NULL,
			PRIMARY KEY (plan_id, module_id)
		)`,
		`CREATE TABLE subscriptions (
			id TEXT PRIMARY KEY,
			dealership_id TEXT NOT NULL,
			plan_id TEXT NOT NULL,
			amount TEXT NOT NULL,
			start_date DATE NOT NULL,
			end_date DATE NOT NULL,
			status INTEGER NOT NULL,
			term INTEGER NOT NULL DEFAULT 1,
			version INTEGER NOT NULL DEFAULT 1,
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL
		)`,
		`CREATE TABLE subscription_payments (
			id TEXT PRIMARY KEY,
			subscription_id TEXT NOT NULL,
			term INTEGER NOT NULL DEFAULT 1,
			amount TEXT NOT NULL,
			method TEXT NOT NULL,
			status TEXT NOT NULL,
			payment_date DATE NOT NULL,
			transaction_ref TEXT,
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL
		)`,
		`CREATE TABLE deposits (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			outlet_id TEXT NOT NULL,
			amount TEXT NOT NULL,
			method TEXT NOT NULL,
			transaction_id TEXT,
			note TEXT,
			deposit_date DATE NOT NULL,
			status TEXT NOT NULL DEFAULT 'pending',
			approval_decision TEXT NOT NULL DEFAULT 'pending',
			decided_by TEXT,
			decided_at DATETIME,
			decision_reason TEXT,
			version INTEGER NOT NULL DEFAULT 1,
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL
		)`,
	}
	for _, stmt := range statements {
		require.NoError(t, db.Exec(stmt).Error)
	}
	return db
}

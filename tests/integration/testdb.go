//go:build integration

// Package integration runs the lifecycle services and the HTTP API against a
// real PostgreSQL started with testcontainers.
package integration

import (
	"context"
	"database/sql"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/dealerdesk/backend/internal/infrastructure/logger"
	"github.com/dealerdesk/backend/internal/infrastructure/migration"
	"github.com/dealerdesk/backend/migrations"
	_ "github.com/lib/pq"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"
)

const lifecycleTables = "subscription_payments, subscriptions, plan_modules, plans, deposits, dealerships"

// pg is the package-wide database container. It starts and migrates on first
// use and is terminated by TestMain.
var pg struct {
	once      sync.Once
	container *tcpostgres.PostgresContainer
	dsn       string
	err       error
}

// TestDB is one test's connection to the shared, migrated database
type TestDB struct {
	DB    *gorm.DB
	SqlDB *sql.DB
}

func TestMain(m *testing.M) {
	code := m.Run()
	if pg.container != nil {
		_ = pg.container.Terminate(context.Background())
	}
	os.Exit(code)
}

// NewTestDB connects to the shared database with every lifecycle table empty
func NewTestDB(t *testing.T) *TestDB {
	t.Helper()
	pg.once.Do(startPostgres)
	require.NoError(t, pg.err, "postgres container")

	tdb := open(t, pg.dsn)
	require.NoError(t, tdb.DB.Exec("TRUNCATE TABLE "+lifecycleTables+" CASCADE").Error)
	return tdb
}

func startPostgres() {
	ctx := context.Background()
	pg.container, pg.err = tcpostgres.Run(ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase("dealerdesk_test"),
		tcpostgres.WithUsername("dealerdesk"),
		tcpostgres.WithPassword("dealerdesk"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(time.Minute)),
	)
	if pg.err != nil {
		return
	}
	if pg.dsn, pg.err = pg.container.ConnectionString(ctx, "sslmode=disable"); pg.err != nil {
		return
	}

	sqlDB, err := sql.Open("postgres", pg.dsn)
	if err != nil {
		pg.err = err
		return
	}
	defer sqlDB.Close()

	m, err := migration.NewFromFS(sqlDB, migrations.FS, zap.NewNop())
	if err != nil {
		pg.err = err
		return
	}
	pg.err = m.Up()
}

// open connects with a pool wide enough for the concurrent approval tests to
// overlap. SQL is logged through the test log when TEST_DB_DEBUG is set.
func open(t *testing.T, dsn string) *TestDB {
	t.Helper()
	level := logger.MapGormLogLevel("silent")
	if os.Getenv("TEST_DB_DEBUG") != "" {
		level = logger.MapGormLogLevel("debug")
	}

	db, err := gorm.Open(gormpostgres.Open(dsn), &gorm.Config{
		Logger:                 logger.NewGormLogger(zaptest.NewLogger(t), level),
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)

	sqlDB.SetMaxOpenConns(16)
	sqlDB.SetMaxIdleConns(4)
	t.Cleanup(func() { _ = sqlDB.Close() })
	return &TestDB{DB: db, SqlDB: sqlDB}
}

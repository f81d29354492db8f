package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	t.Run("loads default values when env vars not set", func(t *testing.T) {
		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "dealerdesk-backend", cfg.App.Name)
		assert.Equal(t, "development", cfg.App.Env)
		assert.Equal(t, "8080", cfg.App.Port)
		assert.Equal(t, "localhost", cfg.Database.Host)
		assert.Equal(t, 5432, cfg.Database.Port)
		assert.Equal(t, "dealerdesk", cfg.Database.DBName)
		assert.Equal(t, 25, cfg.Database.MaxOpenConns)
		assert.Equal(t, 5, cfg.Database.MaxIdleConns)
		assert.False(t, cfg.Redis.Enabled)
		assert.Equal(t, 30*time.Second, cfg.Approval.GuardTTL)
		assert.Equal(t, 10*time.Minute, cfg.Plans.CacheTTL)
		assert.Equal(t, "localhost:6379", cfg.Redis.Addr())
		assert.False(t, cfg.Scheduler.ExpiryEnabled)
		assert.Equal(t, time.Minute, cfg.Scheduler.CheckInterval)
		assert.Equal(t, 200, cfg.Scheduler.BatchSize)
	})

	t.Run("loads values from environment variables with DEALERDESK prefix", func(t *testing.T) {
		t.Setenv("DEALERDESK_APP_NAME", "test-app")
		t.Setenv("DEALERDESK_APP_PORT", "9000")
		t.Setenv("DEALERDESK_DATABASE_HOST", "testdb.local")
		t.Setenv("DEALERDESK_DATABASE_PORT", "5433")
		t.Setenv("DEALERDESK_DATABASE_MAX_OPEN_CONNS", "50")
		t.Setenv("DEALERDESK_DATABASE_MAX_IDLE_CONNS", "10")
		t.Setenv("DEALERDESK_REDIS_ENABLED", "true")
		t.Setenv("DEALERDESK_APPROVAL_GUARD_TTL", "5s")
		t.Setenv("DEALERDESK_PLANS_CACHE_TTL", "1m")

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "test-app", cfg.App.Name)
		assert.Equal(t, "9000", cfg.App.Port)
		assert.Equal(t, "testdb.local", cfg.Database.Host)
		assert.Equal(t, 5433, cfg.Database.Port)
		assert.Equal(t, 50, cfg.Database.MaxOpenConns)
		assert.Equal(t, 10, cfg.Database.MaxIdleConns)
		assert.True(t, cfg.Redis.Enabled)
		assert.Equal(t, 5*time.Second, cfg.Approval.GuardTTL)
		assert.Equal(t, time.Minute, cfg.Plans.CacheTTL)
	})

	t.Run("rejects an out of range sweep hour", func(t *testing.T) {
		t.Setenv("DEALERDESK_SCHEDULER_EXPIRY_HOUR", "24")

		_, err := Load()
		assert.ErrorContains(t, err, "scheduler.expiry_hour")
	})

	t.Run("rejects idle connections above open connections", func(t *testing.T) {
		t.Setenv("DEALERDESK_DATABASE_MAX_OPEN_CONNS", "5")
		t.Setenv("DEALERDESK_DATABASE_MAX_IDLE_CONNS", "10")

		_, err := Load()
		assert.Error(t, err)
	})
}

func TestLoad_ProductionValidation(t *testing.T) {
	base := func(t *testing.T) {
		t.Setenv("DEALERDESK_APP_ENV", "production")
		t.Setenv("DEALERDESK_JWT_SECRET", "0123456789abcdef0123456789abcdef")
		t.Setenv("DEALERDESK_DATABASE_PASSWORD", "secret")
		t.Setenv("DEALERDESK_DATABASE_SSLMODE", "require")
	}

	t.Run("valid production config", func(t *testing.T) {
		base(t)
		_, err := Load()
		assert.NoError(t, err)
	})

	t.Run("short jwt secret", func(t *testing.T) {
		base(t)
		t.Setenv("DEALERDESK_JWT_SECRET", "short")
		_, err := Load()
		assert.ErrorContains(t, err, "jwt.secret")
	})

	t.Run("ssl disabled", func(t *testing.T) {
		base(t)
		t.Setenv("DEALERDESK_DATABASE_SSLMODE", "disable")
		_, err := Load()
		assert.ErrorContains(t, err, "sslmode")
	})

	t.Run("full sql logging", func(t *testing.T) {
		base(t)
		t.Setenv("DEALERDESK_TELEMETRY_DB_LOG_FULL_SQL", "true")
		_, err := Load()
		assert.ErrorContains(t, err, "db_log_full_sql")
	})
}

func TestDatabaseConfig_DSN(t *testing.T) {
	d := DatabaseConfig{
		Host:     "db.local",
		Port:     5432,
		User:     "dealer",
		Password: "pass@word#123",
		DBName:   "dealerdesk",
		SSLMode:  "disable",
	}
	dsn := d.DSN()
	assert.Contains(t, dsn, "db.local:5432/dealerdesk")
	assert.Contains(t, dsn, "pass%40word%23123")
	assert.Contains(t, dsn, "sslmode=disable")
}

func TestLoad_ReportsEveryProblem(t *testing.T) {
	t.Setenv("DEALERDESK_SCHEDULER_EXPIRY_MINUTE", "75")
	t.Setenv("DEALERDESK_TELEMETRY_SAMPLING_RATIO", "2")

	_, err := Load()
	require.Error(t, err)
	assert.ErrorContains(t, err, "scheduler.expiry_minute")
	assert.ErrorContains(t, err, "telemetry.sampling_ratio")
}

func TestLoad_ListsFromEnvironment(t *testing.T) {
	t.Setenv("DEALERDESK_HTTP_CORS_ALLOW_ORIGINS", "https://desk.example.com,https://ops.example.com")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, []string{"https://desk.example.com", "https://ops.example.com"}, cfg.HTTP.CORSAllowOrigins)
	assert.Empty(t, cfg.HTTP.TrustedProxies)
}

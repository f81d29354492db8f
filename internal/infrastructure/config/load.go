package config

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const envPrefix = "DEALERDESK"

var defaults = map[string]any{
	"app.name": "dealerdesk-backend",
	"app.env":  "development",
	"app.port": "8080",

	"database.host":               "localhost",
	"database.port":               5432,
	"database.user":               "postgres",
	"database.password":           "",
	"database.dbname":             "dealerdesk",
	"database.sslmode":            "disable",
	"database.max_open_conns":     25,
	"database.max_idle_conns":     5,
	"database.conn_max_lifetime":  60,
	"database.conn_max_idle_time": 30,

	"redis.enabled":  false,
	"redis.host":     "localhost",
	"redis.port":     6379,
	"redis.password": "",
	"redis.db":       0,

	"jwt.secret":                  "",
	"jwt.access_token_expiration": 8 * time.Hour,
	"jwt.issuer":                  "dealerdesk",

	"log.level":  "info",
	"log.format": "console",
	"log.output": "stdout",

	"http.read_timeout":        15 * time.Second,
	"http.write_timeout":       15 * time.Second,
	"http.idle_timeout":        time.Minute,
	"http.max_header_bytes":    1 << 20,
	"http.max_body_size":       1 << 20,
	"http.rate_limit_enabled":  false,
	"http.rate_limit_requests": 100,
	"http.rate_limit_window":   time.Minute,
	"http.rate_limit_burst":    20,
	"http.cors_allow_origins":  []string{},
	"http.cors_allow_methods":  []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
	"http.cors_allow_headers":  []string{"Content-Type", "Authorization", "X-Request-ID"},
	"http.trusted_proxies":     []string{},

	"approval.guard_ttl": 30 * time.Second,
	"plans.cache_ttl":    10 * time.Minute,

	"scheduler.expiry_enabled": false,
	"scheduler.expiry_hour":    0,
	"scheduler.expiry_minute":  5,
	"scheduler.check_interval": time.Minute,
	"scheduler.batch_size":     200,

	"telemetry.enabled":            false,
	"telemetry.collector_endpoint": "localhost:4317",
	"telemetry.sampling_ratio":     1.0,
	"telemetry.service_name":       "dealerdesk-backend",
	"telemetry.insecure":           false,
	"telemetry.metrics_enabled":    false,
	"telemetry.metrics_interval":   time.Minute,
	"telemetry.db_trace_enabled":   false,
	"telemetry.db_log_full_sql":    false,
}

// Load reads config.toml from the working directory or /app, then applies
// DEALERDESK_ environment overrides (DEALERDESK_DATABASE_PASSWORD sets
// database.password). A missing file is not an error.
func Load() (*Config, error) {
	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(".")
	v.AddConfigPath("/app")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// validate reports every problem at once
func (c *Config) validate() error {
	var errs []error
	check := func(ok bool, format string, args ...any) {
		if !ok {
			errs = append(errs, fmt.Errorf(format, args...))
		}
	}

	db := c.Database
	check(db.MaxOpenConns > 0, "database.max_open_conns must be positive")
	check(db.MaxIdleConns >= 0, "database.max_idle_conns cannot be negative")
	check(db.MaxIdleConns <= db.MaxOpenConns,
		"database.max_idle_conns (%d) cannot exceed database.max_open_conns (%d)", db.MaxIdleConns, db.MaxOpenConns)
	check(c.HTTP.RateLimitRequests > 0, "http.rate_limit_requests must be positive")
	check(c.Scheduler.ExpiryHour >= 0 && c.Scheduler.ExpiryHour <= 23,
		"scheduler.expiry_hour must be between 0 and 23, got %d", c.Scheduler.ExpiryHour)
	check(c.Scheduler.ExpiryMinute >= 0 && c.Scheduler.ExpiryMinute <= 59,
		"scheduler.expiry_minute must be between 0 and 59, got %d", c.Scheduler.ExpiryMinute)
	check(c.Scheduler.BatchSize > 0, "scheduler.batch_size must be positive")
	check(c.Telemetry.SamplingRatio >= 0 && c.Telemetry.SamplingRatio <= 1,
		"telemetry.sampling_ratio must be between 0.0 and 1.0, got %f", c.Telemetry.SamplingRatio)

	if c.App.Env == "production" {
		check(len(c.JWT.Secret) >= 32, "jwt.secret must be at least 32 characters in production")
		check(db.Password != "", "database.password is required in production")
		check(db.SSLMode != "disable", "database.sslmode cannot be 'disable' in production")
		check(!slices.Contains(c.HTTP.CORSAllowOrigins, "*"), "http.cors_allow_origins cannot contain '*' in production")
		check(!c.Telemetry.DBLogFullSQL, "telemetry.db_log_full_sql must be false in production")
	}
	return errors.Join(errs...)
}

// Package config loads DealerDesk settings from config.toml and DEALERDESK_
// environment variables.
package config

import (
	"fmt"
	"net/url"
	"time"
)

// Config holds all application configuration
type Config struct {
	App       AppConfig       `mapstructure:"app"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Redis     RedisConfig     `mapstructure:"redis"`
	JWT       JWTConfig       `mapstructure:"jwt"`
	Log       LogConfig       `mapstructure:"log"`
	HTTP      HTTPConfig      `mapstructure:"http"`
	Approval  ApprovalConfig  `mapstructure:"approval"`
	Plans     PlansConfig     `mapstructure:"plans"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
}

type AppConfig struct {
	Name string `mapstructure:"name"`
	Env  string `mapstructure:"env"` // development, staging, production
	Port string `mapstructure:"port"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // json or console
	Output string `mapstructure:"output"` // stdout, stderr, or a file path
}

type DatabaseConfig struct {
	Host            string `mapstructure:"host"`
	Port            int    `mapstructure:"port"`
	User            string `mapstructure:"user"`
	Password        string `mapstructure:"password"`
	DBName          string `mapstructure:"dbname"`
	SSLMode         string `mapstructure:"sslmode"`
	MaxOpenConns    int    `mapstructure:"max_open_conns"`
	MaxIdleConns    int    `mapstructure:"max_idle_conns"`
	ConnMaxLifetime int    `mapstructure:"conn_max_lifetime"`  // minutes
	ConnMaxIdleTime int    `mapstructure:"conn_max_idle_time"` // minutes
}

// DSN returns a postgres URL with user info and query values escaped
func (d *DatabaseConfig) DSN() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(d.User, d.Password),
		Host:     fmt.Sprintf("%s:%d", d.Host, d.Port),
		Path:     d.DBName,
		RawQuery: url.Values{"sslmode": {d.SSLMode}}.Encode(),
	}
	return u.String()
}

// RedisConfig is optional. When disabled the approval guard, event delivery
// dedup and plan cache fall back to in-process stores.
type RedisConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

func (r RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

type JWTConfig struct {
	Secret                string        `mapstructure:"secret"`
	AccessTokenExpiration time.Duration `mapstructure:"access_token_expiration"`
	Issuer                string        `mapstructure:"issuer"`
}

type HTTPConfig struct {
	ReadTimeout       time.Duration `mapstructure:"read_timeout"`
	WriteTimeout      time.Duration `mapstructure:"write_timeout"`
	IdleTimeout       time.Duration `mapstructure:"idle_timeout"`
	MaxHeaderBytes    int           `mapstructure:"max_header_bytes"`
	MaxBodySize       int64         `mapstructure:"max_body_size"`
	RateLimitEnabled  bool          `mapstructure:"rate_limit_enabled"`
	RateLimitRequests int           `mapstructure:"rate_limit_requests"`
	RateLimitWindow   time.Duration `mapstructure:"rate_limit_window"`
	RateLimitBurst    int           `mapstructure:"rate_limit_burst"`
	CORSAllowOrigins  []string      `mapstructure:"cors_allow_origins"`
	CORSAllowMethods  []string      `mapstructure:"cors_allow_methods"`
	CORSAllowHeaders  []string      `mapstructure:"cors_allow_headers"`
	TrustedProxies    []string      `mapstructure:"trusted_proxies"`
}

// ApprovalConfig controls the double-submit guard in front of approval actions
type ApprovalConfig struct {
	GuardTTL time.Duration `mapstructure:"guard_ttl"`
}

// PlansConfig controls caching of plan reference data
type PlansConfig struct {
	CacheTTL time.Duration `mapstructure:"cache_ttl"`
}

// SchedulerConfig controls the daily subscription expiry sweep
type SchedulerConfig struct {
	ExpiryEnabled bool          `mapstructure:"expiry_enabled"`
	ExpiryHour    int           `mapstructure:"expiry_hour"` // UTC
	ExpiryMinute  int           `mapstructure:"expiry_minute"`
	CheckInterval time.Duration `mapstructure:"check_interval"`
	BatchSize     int           `mapstructure:"batch_size"`
}

// TelemetryConfig holds OpenTelemetry exporter settings
type TelemetryConfig struct {
	Enabled           bool          `mapstructure:"enabled"`
	CollectorEndpoint string        `mapstructure:"collector_endpoint"` // OTLP gRPC, host:port
	SamplingRatio     float64       `mapstructure:"sampling_ratio"`
	ServiceName       string        `mapstructure:"service_name"`
	Insecure          bool          `mapstructure:"insecure"`
	MetricsEnabled    bool          `mapstructure:"metrics_enabled"`
	MetricsInterval   time.Duration `mapstructure:"metrics_interval"`
	DBTraceEnabled    bool          `mapstructure:"db_trace_enabled"`
	DBLogFullSQL      bool          `mapstructure:"db_log_full_sql"` // never in production
}

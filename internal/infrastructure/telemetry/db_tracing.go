package telemetry

import (
	"context"
	"errors"
	"time"

	"github.com/uptrace/opentelemetry-go-extra/otelgorm"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// DBTracingConfig holds configuration for database tracing
type DBTracingConfig struct {
	Enabled         bool
	LogFullSQL      bool
	SlowQueryThresh time.Duration
	DBName          string
}

// DefaultDBTracingConfig returns tracing disabled with a 200ms slow threshold
func DefaultDBTracingConfig() DBTracingConfig {
	return DBTracingConfig{
		SlowQueryThresh: 200 * time.Millisecond,
		DBName:          "dealerdesk",
	}
}

type queryStartKey struct{}

// RegisterDBTracing installs otelgorm and an annotation callback that adds
// rows affected, table and slow-query markers to each statement span.
func RegisterDBTracing(db *gorm.DB, cfg DBTracingConfig, logger *zap.Logger) error {
	if logger == nil {
		logger = zap.NewNop()
	}
	if !cfg.Enabled {
		logger.Debug("Database tracing disabled")
		return nil
	}
	if cfg.SlowQueryThresh <= 0 {
		cfg.SlowQueryThresh = 200 * time.Millisecond
	}

	opts := []otelgorm.Option{otelgorm.WithDBName(cfg.DBName)}
	if !cfg.LogFullSQL {
		opts = append(opts, otelgorm.WithoutQueryVariables())
	}
	if err := db.Use(otelgorm.NewPlugin(opts...)); err != nil {
		return err
	}

	a := &spanAnnotator{slow: cfg.SlowQueryThresh}
	if err := registerAround(db, "otel_annotate", a.before, a.after); err != nil {
		return err
	}

	logger.Info("Database tracing enabled",
		zap.Bool("log_full_sql", cfg.LogFullSQL),
		zap.Duration("slow_query_threshold", cfg.SlowQueryThresh),
	)
	return nil
}

type spanAnnotator struct {
	slow time.Duration
}

func (a *spanAnnotator) before(db *gorm.DB) {
	if db.Statement.Context != nil {
		db.Statement.Context = context.WithValue(db.Statement.Context, queryStartKey{}, time.Now())
	}
}

func (a *spanAnnotator) after(db *gorm.DB) {
	ctx := db.Statement.Context
	if ctx == nil {
		return
	}
	span := trace.SpanFromContext(ctx)
	if !span.IsRecording() {
		return
	}

	span.SetAttributes(attribute.Int64("db.rows_affected", db.Statement.RowsAffected))
	if db.Statement.Table != "" {
		span.SetAttributes(attribute.String("db.sql.table", db.Statement.Table))
	}
	if db.Error != nil && !errors.Is(db.Error, gorm.ErrRecordNotFound) {
		span.SetStatus(codes.Error, db.Error.Error())
		span.RecordError(db.Error)
	}
	if start, ok := ctx.Value(queryStartKey{}).(time.Time); ok {
		if elapsed := time.Since(start); elapsed > a.slow {
			span.SetAttributes(
				attribute.Bool("db.slow_query", true),
				attribute.Int64("db.query_duration_ms", elapsed.Milliseconds()),
			)
		}
	}
}

// registerAround registers before/after callbacks for every GORM processor
func registerAround(db *gorm.DB, prefix string, before, after func(*gorm.DB)) error {
	cb := db.Callback()
	if err := cb.Create().Before("gorm:create").Register(prefix+":before_create", before); err != nil {
		return err
	}
	if err := cb.Create().After("gorm:create").Register(prefix+":after_create", after); err != nil {
		return err
	}
	if err := cb.Query().Before("gorm:query").Register(prefix+":before_query", before); err != nil {
		return err
	}
	if err := cb.Query().After("gorm:query").Register(prefix+":after_query", after); err != nil {
		return err
	}
	if err := cb.Update().Before("gorm:update").Register(prefix+":before_update", before); err != nil {
		return err
	}
	if err := cb.Update().After("gorm:update").Register(prefix+":after_update", after); err != nil {
		return err
	}
	if err := cb.Delete().Before("gorm:delete").Register(prefix+":before_delete", before); err != nil {
		return err
	}
	if err := cb.Delete().After("gorm:delete").Register(prefix+":after_delete", after); err != nil {
		return err
	}
	if err := cb.Row().Before("gorm:row").Register(prefix+":before_row", before); err != nil {
		return err
	}
	if err := cb.Row().After("gorm:row").Register(prefix+":after_row", after); err != nil {
		return err
	}
	if err := cb.Raw().Before("gorm:raw").Register(prefix+":before_raw", before); err != nil {
		return err
	}
	return cb.Raw().After("gorm:raw").Register(prefix+":after_raw", after)
}

package logger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	gormlogger "gorm.io/gorm/logger"
)

const (
	defaultSlowQuery = 200 * time.Millisecond
	maxLoggedSQL     = 512
)

// GormLogger routes GORM output into zap under the "gorm" name. Query lines
// carry the request and actor of the calling context so a slow approval can be
// traced back to the outlet that issued it.
type GormLogger struct {
	zl        *zap.Logger
	level     gormlogger.LogLevel
	slowQuery time.Duration
	fullSQL   bool
}

// GormLoggerOption configures a GormLogger
type GormLoggerOption func(*GormLogger)

// WithSlowThreshold sets the duration above which queries are logged as slow.
// Zero disables slow query logging.
func WithSlowThreshold(d time.Duration) GormLoggerOption {
	return func(l *GormLogger) { l.slowQuery = d }
}

// WithFullSQL disables truncation of long statements
func WithFullSQL(full bool) GormLoggerOption {
	return func(l *GormLogger) { l.fullSQL = full }
}

// NewGormLogger creates a GORM logger writing to zl at the given level
func NewGormLogger(zl *zap.Logger, level gormlogger.LogLevel, opts ...GormLoggerOption) *GormLogger {
	l := &GormLogger{zl: zl.Named("gorm"), level: level, slowQuery: defaultSlowQuery}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

func (l *GormLogger) LogMode(level gormlogger.LogLevel) gormlogger.Interface {
	clone := *l
	clone.level = level
	return &clone
}

func (l *GormLogger) Info(_ context.Context, msg string, data ...any) {
	if l.level >= gormlogger.Info {
		l.zl.Info(fmt.Sprintf(msg, data...))
	}
}

func (l *GormLogger) Warn(_ context.Context, msg string, data ...any) {
	if l.level >= gormlogger.Warn {
		l.zl.Warn(fmt.Sprintf(msg, data...))
	}
}

func (l *GormLogger) Error(_ context.Context, msg string, data ...any) {
	if l.level >= gormlogger.Error {
		l.zl.Error(fmt.Sprintf(msg, data...))
	}
}

// Trace logs a finished statement. Failed statements log at error, except
// not-found lookups which the repositories translate themselves.
func (l *GormLogger) Trace(ctx context.Context, begin time.Time, fc func() (string, int64), err error) {
	if l.level <= gormlogger.Silent {
		return
	}
	elapsed := time.Since(begin)

	switch {
	case err != nil && !errors.Is(err, gormlogger.ErrRecordNotFound):
		if l.level >= gormlogger.Error {
			l.zl.Error("SQL Error", append(l.statementFields(ctx, elapsed, fc), zap.Error(err))...)
		}
	case l.slowQuery > 0 && elapsed > l.slowQuery:
		if l.level >= gormlogger.Warn {
			l.zl.Warn(fmt.Sprintf("SLOW SQL >= %v", l.slowQuery), l.statementFields(ctx, elapsed, fc)...)
		}
	case err == nil && l.level >= gormlogger.Info:
		l.zl.Debug("SQL Query", l.statementFields(ctx, elapsed, fc)...)
	}
}

func (l *GormLogger) statementFields(ctx context.Context, elapsed time.Duration, fc func() (string, int64)) []zap.Field {
	stmt, rows := fc()
	if !l.fullSQL && len(stmt) > maxLoggedSQL {
		stmt = stmt[:maxLoggedSQL] + "..."
	}
	fields := []zap.Field{
		zap.Duration("elapsed", elapsed),
		zap.Int64("rows", rows),
		zap.String("sql", stmt),
	}
	for key, value := range map[string]string{
		"request_id": GetRequestID(ctx),
		"user_id":    GetUserID(ctx),
		"outlet_id":  GetOutletID(ctx),
	} {
		if value != "" {
			fields = append(fields, zap.String(key, value))
		}
	}
	return fields
}

// MapGormLogLevel maps the application log level onto GORM's levels.
// Unknown values fall back to warn so slow queries stay visible.
func MapGormLogLevel(level string) gormlogger.LogLevel {
	switch level {
	case "silent":
		return gormlogger.Silent
	case "error":
		return gormlogger.Error
	case "info", "debug":
		return gormlogger.Info
	default:
		return gormlogger.Warn
	}
}

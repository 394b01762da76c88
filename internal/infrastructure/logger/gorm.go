package logger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	gormlogger "gorm.io/gorm/logger"
)

const defaultSlowThreshold = 200 * time.Millisecond

// GormLogger writes GORM statements to zap, tagged with the ledger operation
// and reference carried by the context
type GormLogger struct {
	logger                    *zap.Logger
	logLevel                  gormlogger.LogLevel
	slowThreshold             time.Duration
	ignoreRecordNotFoundError bool
}

// GormLoggerOption configures a GormLogger
type GormLoggerOption func(*GormLogger)

// WithSlowThreshold sets the slow query threshold; zero disables slow logging
func WithSlowThreshold(threshold time.Duration) GormLoggerOption {
	return func(l *GormLogger) { l.slowThreshold = threshold }
}

// WithIgnoreRecordNotFoundError controls whether missing rows are logged as errors.
// Repositories turn them into ErrNotFound, so they are ignored by default.
func WithIgnoreRecordNotFoundError(ignore bool) GormLoggerOption {
	return func(l *GormLogger) { l.ignoreRecordNotFoundError = ignore }
}

// NewGormLogger creates a GORM logger backed by zap
func NewGormLogger(zapLogger *zap.Logger, level gormlogger.LogLevel, opts ...GormLoggerOption) *GormLogger {
	gl := &GormLogger{
		logger:                    zapLogger.Named("gorm"),
		logLevel:                  level,
		slowThreshold:             defaultSlowThreshold,
		ignoreRecordNotFoundError: true,
	}
	for _, opt := range opts {
		opt(gl)
	}
	return gl
}

// LogMode implements gormlogger.Interface
func (l *GormLogger) LogMode(level gormlogger.LogLevel) gormlogger.Interface {
	clone := *l
	clone.logLevel = level
	return &clone
}

func (l *GormLogger) Info(ctx context.Context, msg string, data ...any) {
	l.log(ctx, gormlogger.Info, zapcore.InfoLevel, fmt.Sprintf(msg, data...))
}

func (l *GormLogger) Warn(ctx context.Context, msg string, data ...any) {
	l.log(ctx, gormlogger.Warn, zapcore.WarnLevel, fmt.Sprintf(msg, data...))
}

func (l *GormLogger) Error(ctx context.Context, msg string, data ...any) {
	l.log(ctx, gormlogger.Error, zapcore.ErrorLevel, fmt.Sprintf(msg, data...))
}

// Trace logs one statement: errors at Error, statements slower than the
// threshold at Warn, everything else at Debug when the level is Info
func (l *GormLogger) Trace(ctx context.Context, begin time.Time, fc func() (sql string, rowsAffected int64), err error) {
	if l.logLevel <= gormlogger.Silent {
		return
	}
	elapsed := time.Since(begin)

	switch {
	case err != nil:
		if l.ignoreRecordNotFoundError && errors.Is(err, gormlogger.ErrRecordNotFound) {
			return
		}
		l.log(ctx, gormlogger.Error, zapcore.ErrorLevel, "sql error", statementFields(fc, elapsed, zap.Error(err))...)
	case l.slowThreshold > 0 && elapsed > l.slowThreshold:
		l.log(ctx, gormlogger.Warn, zapcore.WarnLevel, "slow sql",
			statementFields(fc, elapsed, zap.Duration("threshold", l.slowThreshold))...)
	default:
		l.log(ctx, gormlogger.Info, zapcore.DebugLevel, "sql", statementFields(fc, elapsed)...)
	}
}

// log writes msg when the GORM level admits min
func (l *GormLogger) log(ctx context.Context, min gormlogger.LogLevel, level zapcore.Level, msg string, fields ...zap.Field) {
	if l.logLevel < min {
		return
	}
	fields = append(fields, TraceFields(ctx)...)
	if op := Operation(ctx); op != "" {
		fields = append(fields, zap.String("operation", op))
	}
	if ref := Reference(ctx); ref != "" {
		fields = append(fields, zap.String("reference", ref))
	}
	if ce := l.logger.Check(level, msg); ce != nil {
		ce.Write(fields...)
	}
}

func statementFields(fc func() (string, int64), elapsed time.Duration, extra ...zap.Field) []zap.Field {
	sql, rows := fc()
	return append([]zap.Field{
		zap.Duration("elapsed", elapsed),
		zap.Int64("rows", rows),
		zap.String("sql", sql),
	}, extra...)
}

// MapGormLogLevel maps a config level name to a GORM log level
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

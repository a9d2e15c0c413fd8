// Package logger configures the application's logging and
// optional New Relic instrumentation.
//
// It uses *zerolog* for structured diagnostics on stderr and,
// when a license key is configured, forwards logs and traces
// to *New Relic*.
package logger

import (
	"io"
	"os"
	"time"

	"github.com/newrelic/go-agent/v3/integrations/logcontext-v2/zerologWriter"
	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/pkgerrors"

	"github.com/deppfellow/pgdemo/internal/config"
)

// ServiceName tags every log line and the New Relic application.
const ServiceName = "pgdemo"

// NewLoggerWithService builds the root logger on stderr.
func NewLoggerWithService(cfg *config.Config, loggerService *LoggerService) zerolog.Logger {
	return newLogger(cfg, newWriter(cfg, loggerService, os.Stderr))
}

// newWriter picks the log encoding:
//   - production: always JSON lines
//   - console format elsewhere: zerolog.ConsoleWriter, for people
//   - JSON goes through New Relic's zerolog writer when log forwarding is on
func newWriter(cfg *config.Config, loggerService *LoggerService, stderr io.Writer) io.Writer {
	if cfg.Logging.Format == "console" && !cfg.IsProduction() {
		return zerolog.ConsoleWriter{Out: stderr, TimeFormat: time.TimeOnly}
	}

	if app := loggerService.GetApplication(); app != nil && cfg.NewRelic.AppLogForwardingEnabled {
		return zerologWriter.New(stderr, app)
	}

	return stderr
}

func newLogger(cfg *config.Config, out io.Writer) zerolog.Logger {
	zerolog.ErrorStackMarshaler = pkgerrors.MarshalStack

	level, err := zerolog.ParseLevel(cfg.Logging.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}

	return zerolog.New(out).
		Level(level).
		With().
		Timestamp().
		Str("service", ServiceName).
		Str("environment", cfg.Primary.Env).
		Logger()
}

// NewPgxLogger returns the logger handed to pgx's tracelog. It always
// writes console format so SQL and arguments stay readable.
func NewPgxLogger(level zerolog.Level) zerolog.Logger {
	writer := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.TimeOnly}

	return zerolog.New(writer).
		Level(level).
		With().
		Timestamp().
		Str("component", "database").
		Logger()
}

// GetPgxTraceLogLevel maps a zerolog level to pgx tracelog's numbering
// (6 trace ... 2 error, 1 none).
func GetPgxTraceLogLevel(level zerolog.Level) int {
	switch level {
	case zerolog.TraceLevel:
		return 6
	case zerolog.DebugLevel:
		return 5
	case zerolog.InfoLevel:
		return 4
	case zerolog.WarnLevel:
		return 3
	case zerolog.ErrorLevel:
		return 2
	default:
		return 1
	}
}

// WithTraceContext adds the transaction's trace.id and span.id to logger.
func WithTraceContext(logger zerolog.Logger, txn *newrelic.Transaction) zerolog.Logger {
	if txn == nil {
		return logger
	}

	metadata := txn.GetTraceMetadata()
	return logger.With().
		Str("trace.id", metadata.TraceID).
		Str("span.id", metadata.SpanID).
		Logger()
}

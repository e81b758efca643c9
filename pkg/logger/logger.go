package logger

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/getsentry/sentry-go"
	sentryslog "github.com/getsentry/sentry-go/slog"
)

// ErrUnknownFormat is returned for a log format other than json or text.
var ErrUnknownFormat = errors.New("logger: unknown format")

// Config holds the logging settings read from the environment.
type Config struct {
	Format string     `env:"LOG_FORMAT" envDefault:"json"`
	Level  slog.Level `env:"LOG_LEVEL" envDefault:"info"`
	Sentry SentryConfig
}

// SentryConfig enables Sentry reporting when DSN is set.
type SentryConfig struct {
	DSN         string     `env:"SENTRY_DSN"`
	Environment string     `env:"SENTRY_ENVIRONMENT" envDefault:"production"`
	MinLevel    slog.Level `env:"SENTRY_MIN_LEVEL" envDefault:"warn"`
}

// New returns a logger writing to w.
func New(cfg Config, w io.Writer, extractors ...ContextExtractor) (*slog.Logger, error) {
	opts := &slog.HandlerOptions{Level: cfg.Level}

	var local slog.Handler
	switch strings.ToLower(cfg.Format) {
	case "", "json":
		local = slog.NewJSONHandler(w, opts)
	case "text":
		local = slog.NewTextHandler(w, opts)
	default:
		return nil, errors.Join(ErrUnknownFormat, fmt.Errorf("format %q", cfg.Format))
	}

	if cfg.Sentry.DSN == "" {
		return slog.New(newDecorator(local, extractors...)), nil
	}

	if err := sentry.Init(sentry.ClientOptions{
		Dsn:         cfg.Sentry.DSN,
		Environment: cfg.Sentry.Environment,
		EnableLogs:  true,
	}); err != nil {
		slog.New(local).Error("failed to initialize sentry", slog.Any("error", err))
		return slog.New(newDecorator(local, extractors...)), nil
	}

	logLevels := []slog.Level{slog.LevelWarn, slog.LevelError}
	if cfg.Sentry.MinLevel >= slog.LevelError {
		logLevels = []slog.Level{slog.LevelError}
	}
	remote := sentryslog.Option{
		EventLevel: []slog.Level{slog.LevelError},
		LogLevel:   logLevels,
	}.NewSentryHandler(context.Background())

	return slog.New(newDecorator(fanout{local, remote}, extractors...)), nil
}

// Flush waits up to timeout for buffered Sentry events to be sent.
// It is a no-op when Sentry is not initialized.
func Flush(timeout time.Duration) bool {
	return sentry.Flush(timeout)
}

// fanout forwards every record to each handler that accepts its level.
type fanout []slog.Handler

func (f fanout) Enabled(ctx context.Context, level slog.Level) bool {
	for _, h := range f {
		if h.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (f fanout) Handle(ctx context.Context, rec slog.Record) error {
	var errs []error
	for _, h := range f {
		if h.Enabled(ctx, rec.Level) {
			if err := h.Handle(ctx, rec.Clone()); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}

func (f fanout) WithAttrs(attrs []slog.Attr) slog.Handler {
	out := make(fanout, len(f))
	for i, h := range f {
		out[i] = h.WithAttrs(attrs)
	}
	return out
}

func (f fanout) WithGroup(name string) slog.Handler {
	out := make(fanout, len(f))
	for i, h := range f {
		out[i] = h.WithGroup(name)
	}
	return out
}

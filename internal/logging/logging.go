// Package logging builds the process logger: JSON to stdout, plus Sentry for
// warnings and above when a DSN is configured.
package logging

import (
	"io"
	"log/slog"
	"time"

	"github.com/getsentry/sentry-go"
	slogmulti "github.com/samber/slog-multi"
	slogsentry "github.com/samber/slog-sentry/v2"
)

type Config struct {
	Level        slog.Level
	SentryConfig sentry.ClientOptions
}

func ParseLevel(s string) slog.Level {
	switch s {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// New returns the logger and a flush func to call before exit.
func New(w io.Writer, c Config) (*slog.Logger, func(), error) {
	handlers := []slog.Handler{
		slog.NewJSONHandler(w, &slog.HandlerOptions{Level: c.Level}),
	}
	flush := func() {}

	if c.SentryConfig.Dsn != "" {
		if err := sentry.Init(c.SentryConfig); err != nil {
			return nil, nil, err
		}
		handlers = append(handlers, slogsentry.Option{
			Level:     slog.LevelWarn,
			AddSource: true,
		}.NewSentryHandler())
		flush = func() { sentry.Flush(2 * time.Second) }
	}

	return slog.New(slogmulti.Fanout(handlers...)), flush, nil
}

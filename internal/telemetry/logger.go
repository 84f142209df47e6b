package telemetry

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"

	"go.opentelemetry.io/contrib/bridges/otelslog"
)

// Logger returns a logger for an instrumentation scope. Records go to
// stderr and to the global OpenTelemetry logger provider, which drops them
// until Setup installs an exporter.
func Logger(scope string) *slog.Logger {
	return newLogger(os.Stderr, scope)
}

func newLogger(w io.Writer, scope string) *slog.Logger {
	return slog.New(teeHandler{
		slog.NewTextHandler(w, nil).WithAttrs([]slog.Attr{slog.String("scope", scope)}),
		otelslog.NewHandler(scope),
	})
}

// teeHandler hands every record to each of its handlers.
type teeHandler []slog.Handler

func (t teeHandler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, h := range t {
		if h.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (t teeHandler) Handle(ctx context.Context, r slog.Record) error {
	var errs []error
	for _, h := range t {
		if h.Enabled(ctx, r.Level) {
			errs = append(errs, h.Handle(ctx, r.Clone()))
		}
	}
	return errors.Join(errs...)
}

func (t teeHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	out := make(teeHandler, len(t))
	for i, h := range t {
		out[i] = h.WithAttrs(attrs)
	}
	return out
}

func (t teeHandler) WithGroup(name string) slog.Handler {
	out := make(teeHandler, len(t))
	for i, h := range t {
		out[i] = h.WithGroup(name)
	}
	return out
}

package logging

import (
	"context"
	"errors"
	"log/slog"
)

// MultiHandler sends each record to the console or file handler, Graylog and
// the OTel bridge at once. A failing sink does not keep the record from the others.
type MultiHandler struct {
	sinks []slog.Handler
}

// NewMultiHandler ignores nil handlers so optional sinks can be passed unconditionally.
func NewMultiHandler(handlers ...slog.Handler) *MultiHandler {
	m := &MultiHandler{}
	for _, h := range handlers {
		if h != nil {
			m.sinks = append(m.sinks, h)
		}
	}
	return m
}

func (m *MultiHandler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, h := range m.sinks {
		if h.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

// Handle returns the joined errors of all failing sinks.
func (m *MultiHandler) Handle(ctx context.Context, r slog.Record) error {
	var errs []error
	for _, h := range m.sinks {
		if !h.Enabled(ctx, r.Level) {
			continue
		}
		errs = append(errs, h.Handle(ctx, r.Clone()))
	}
	return errors.Join(errs...)
}

func (m *MultiHandler) derive(fn func(slog.Handler) slog.Handler) *MultiHandler {
	out := &MultiHandler{sinks: make([]slog.Handler, len(m.sinks))}
	for i, h := range m.sinks {
		out.sinks[i] = fn(h)
	}
	return out
}

func (m *MultiHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return m.derive(func(h slog.Handler) slog.Handler { return h.WithAttrs(attrs) })
}

func (m *MultiHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return m
	}
	return m.derive(func(h slog.Handler) slog.Handler { return h.WithGroup(name) })
}

package logging

import (
	"context"
	"log/slog"
)

// ContextProvider returns attributes evaluated at log time, such as the run id.
type ContextProvider func() []slog.Attr

// ContextHandler stamps every record with the attributes of its provider.
type ContextHandler struct {
	slog.Handler
	provider ContextProvider
}

// NewContextHandler wraps inner. A nil provider adds nothing.
func NewContextHandler(inner slog.Handler, provider ContextProvider) *ContextHandler {
	return &ContextHandler{Handler: inner, provider: provider}
}

func (h *ContextHandler) Handle(ctx context.Context, r slog.Record) error {
	if h.provider != nil {
		r.AddAttrs(h.provider()...)
	}
	return h.Handler.Handle(ctx, r)
}

func (h *ContextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return NewContextHandler(h.Handler.WithAttrs(attrs), h.provider)
}

func (h *ContextHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	return NewContextHandler(h.Handler.WithGroup(name), h.provider)
}

package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/bridges/otelslog"
	sdklog "go.opentelemetry.io/otel/sdk/log"
)

// ServiceName identifies this program in exported logs.
const ServiceName = "camerapos"

// overridable in tests
var osStdout = os.Stdout

// SetupOptions configures the handlers built by SlogManager.Setup.
type SetupOptions struct {
	// File receives text logs. When nil, logs go to stdout instead.
	File  io.Writer
	Level string
	// Provider enables the OTel bridge when non-nil.
	Provider *sdklog.LoggerProvider
	// Graylog receives GELF-framed JSON records when non-nil.
	Graylog io.Writer
	// Context adds attributes, such as the run id, to every record.
	Context ContextProvider
}

// SlogManager manages slog-based logging with optional OTel integration.
type SlogManager struct {
	logger *slog.Logger

	// OTel provider for flushing
	logProvider *sdklog.LoggerProvider
}

// NewSlogManager creates a new slog-based logging manager.
func NewSlogManager() *SlogManager {
	return &SlogManager{}
}

// parseLevel converts a string log level to slog.Level.
func parseLevel(level string) slog.Level {
	switch strings.ToUpper(level) {
	case "DEBUG":
		return slog.LevelDebug
	case "INFO":
		return slog.LevelInfo
	case "WARN":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Setup initializes the logging system from opts.
func (m *SlogManager) Setup(opts SetupOptions) {
	lvl := parseLevel(opts.Level)
	m.logProvider = opts.Provider

	// Common handler options with RFC3339 time formatting
	handlerOpts := &slog.HandlerOptions{
		Level: lvl,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey {
				if t, ok := a.Value.Any().(time.Time); ok {
					a.Value = slog.StringValue(t.UTC().Format(time.RFC3339))
				}
			}
			return a
		},
	}

	var handlers []slog.Handler

	if opts.File != nil {
		handlers = append(handlers, slog.NewTextHandler(opts.File, handlerOpts))
	} else {
		handlers = append(handlers, slog.NewTextHandler(osStdout, handlerOpts))
	}

	if opts.Graylog != nil {
		handlers = append(handlers, slog.NewJSONHandler(opts.Graylog, handlerOpts))
	}

	if opts.Provider != nil {
		otelHandler := otelslog.NewHandler(ServiceName, otelslog.WithLoggerProvider(opts.Provider))
		handlers = append(handlers, otelHandler)
	}

	var handler slog.Handler = NewMultiHandler(handlers...)
	if opts.Context != nil {
		handler = NewContextHandler(handler, opts.Context)
	}

	m.logger = slog.New(handler)
	m.logger.Debug("Logging initialized", "level", opts.Level)
}

// Logger returns the configured slog.Logger.
func (m *SlogManager) Logger() *slog.Logger {
	if m.logger == nil {
		// Return a default logger if Setup hasn't been called
		return slog.Default()
	}
	return m.logger
}

// Flush forces a flush of OTel logs if available.
func (m *SlogManager) Flush(ctx context.Context) error {
	if m.logProvider != nil {
		return m.logProvider.ForceFlush(ctx)
	}
	return nil
}

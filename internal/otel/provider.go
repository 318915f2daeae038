package otel

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlplog/otlploghttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutlog"
	"go.opentelemetry.io/otel/metric"
	sdklog "go.opentelemetry.io/otel/sdk/log"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

// Config holds OTel configuration
type Config struct {
	Enabled      bool
	ServiceName  string
	RunID        string // added to the resource so exported logs group by run
	BatchTimeout time.Duration
	LogWriter    io.Writer // receives the stdoutlog export, usually the run log file
	Endpoint     string    // OTLP/HTTP collector, optional
	Insecure     bool
}

// Provider owns the OTel log pipeline of one run.
type Provider struct {
	logProvider *sdklog.LoggerProvider
	config      Config
}

// New builds the log provider. A disabled config gives a provider whose
// methods are no-ops.
func New(cfg Config) (*Provider, error) {
	p := &Provider{config: cfg}
	if !cfg.Enabled {
		return p, nil
	}

	ctx := context.Background()
	res, err := runResource(ctx, cfg)
	if err != nil {
		return nil, err
	}

	opts := []sdklog.LoggerProviderOption{sdklog.WithResource(res)}

	if cfg.LogWriter != nil {
		exp, err := stdoutlog.New(stdoutlog.WithWriter(cfg.LogWriter), stdoutlog.WithPrettyPrint())
		if err != nil {
			return nil, fmt.Errorf("failed to create file log exporter: %w", err)
		}
		opts = append(opts, sdklog.WithProcessor(batch(exp, cfg)))
	}

	if cfg.Endpoint != "" {
		exp, err := otlpExporter(ctx, cfg)
		if err != nil {
			return nil, err
		}
		opts = append(opts, sdklog.WithProcessor(batch(exp, cfg)))
	}

	if len(opts) == 1 {
		return nil, errors.New("OTel enabled but no log writer or endpoint configured")
	}

	p.logProvider = sdklog.NewLoggerProvider(opts...)
	return p, nil
}

func runResource(ctx context.Context, cfg Config) (*resource.Resource, error) {
	attrs := []attribute.KeyValue{semconv.ServiceName(cfg.ServiceName)}
	if cfg.RunID != "" {
		attrs = append(attrs, attribute.String("camerapos.run_id", cfg.RunID))
	}
	res, err := resource.New(ctx, resource.WithAttributes(attrs...))
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}
	return res, nil
}

func otlpExporter(ctx context.Context, cfg Config) (sdklog.Exporter, error) {
	opts := []otlploghttp.Option{otlploghttp.WithEndpoint(cfg.Endpoint)}
	if cfg.Insecure {
		opts = append(opts, otlploghttp.WithInsecure())
	}
	exp, err := otlploghttp.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create OTLP log exporter: %w", err)
	}
	return exp, nil
}

func batch(exp sdklog.Exporter, cfg Config) sdklog.Processor {
	return sdklog.NewBatchProcessor(exp, sdklog.WithExportTimeout(cfg.BatchTimeout))
}

// LoggerProvider is nil when OTel is disabled.
func (p *Provider) LoggerProvider() *sdklog.LoggerProvider {
	return p.logProvider
}

// Meter returns a meter from the global meter provider. Correlation counters
// are no-ops unless the embedding program installs a meter provider.
func (p *Provider) Meter(name string) metric.Meter {
	return otel.GetMeterProvider().Meter(name)
}

// Flush exports pending log records.
func (p *Provider) Flush(ctx context.Context) error {
	if p.logProvider == nil {
		return nil
	}
	if err := p.logProvider.ForceFlush(ctx); err != nil {
		return fmt.Errorf("log flush failed: %w", err)
	}
	return nil
}

// Shutdown flushes and stops the log pipeline.
func (p *Provider) Shutdown(ctx context.Context) error {
	if p.logProvider == nil {
		return nil
	}
	if err := p.logProvider.Shutdown(ctx); err != nil {
		return fmt.Errorf("log shutdown failed: %w", err)
	}
	return nil
}

func (p *Provider) Enabled() bool {
	return p.config.Enabled
}

package otel

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	otellog "go.opentelemetry.io/otel/log"
)

func TestNew_Disabled(t *testing.T) {
	p, err := New(Config{Enabled: false})
	require.NoError(t, err)

	assert.False(t, p.Enabled())
	assert.Nil(t, p.LoggerProvider())
	assert.NoError(t, p.Flush(context.Background()))
	assert.NoError(t, p.Shutdown(context.Background()))
}

func TestNew_EnabledWithoutSink(t *testing.T) {
	_, err := New(Config{Enabled: true, ServiceName: "camerapos"})
	assert.Error(t, err)
}

func TestNew_WritesToLogWriter(t *testing.T) {
	var buf bytes.Buffer
	p, err := New(Config{
		Enabled:      true,
		ServiceName:  "camerapos",
		RunID:        "run-1",
		BatchTimeout: time.Second,
		LogWriter:    &buf,
	})
	require.NoError(t, err)
	require.NotNil(t, p.LoggerProvider())

	var rec otellog.Record
	rec.SetBody(otellog.StringValue("correlation finished"))
	p.LoggerProvider().Logger("test").Emit(context.Background(), rec)

	require.NoError(t, p.Shutdown(context.Background()))
	assert.Contains(t, buf.String(), "correlation finished")
	assert.Contains(t, buf.String(), "run-1")
}

func TestMeter_NotNil(t *testing.T) {
	p, err := New(Config{})
	require.NoError(t, err)
	assert.NotNil(t, p.Meter("camerapos"))
}

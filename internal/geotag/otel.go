package geotag

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

// InstrumentationName names the meter of the correlation counters.
const InstrumentationName = "github.com/dronedata/camerapos/internal/geotag"

func meter(m metric.Meter) metric.Meter {
	if m != nil {
		return m
	}
	return otel.Meter(InstrumentationName)
}

// Package geotag matches images to shutter events and positions them on the trajectory.
package geotag

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync/atomic"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"golang.org/x/sync/errgroup"

	"github.com/dronedata/camerapos/internal/interpolate"
	"github.com/dronedata/camerapos/internal/parser"
	"github.com/dronedata/camerapos/pkg/core"
)

// Options configures a Correlator.
type Options struct {
	Search  interpolate.Search
	Workers int // images correlated concurrently, at least 1
	Meter   metric.Meter
}

// Correlator positions images against one capture log and trajectory.
// Per-image failures never abort the batch; they are returned as diagnostics.
type Correlator struct {
	logger *slog.Logger
	opts   Options

	matched   metric.Int64Counter
	unmatched metric.Int64Counter
}

// NewCorrelator creates a correlator. Without opts.Meter the counters use the
// global OTel meter (no-op if not configured).
func NewCorrelator(logger *slog.Logger, opts Options) (*Correlator, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	if opts.Search == "" {
		opts.Search = interpolate.Linear
	}

	c := &Correlator{logger: logger, opts: opts}

	m := meter(opts.Meter)
	var err error
	c.matched, err = m.Int64Counter(
		"geotag.images.matched",
		metric.WithDescription("Images positioned on the trajectory"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating matched counter: %w", err)
	}
	c.unmatched, err = m.Int64Counter(
		"geotag.images.unmatched",
		metric.WithDescription("Images excluded from the output, by reason"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating unmatched counter: %w", err)
	}
	return c, nil
}

// outcome is the result slot of one image; exactly one field is set.
type outcome struct {
	matched *core.MatchedImage
	diag    *core.Diagnostic
}

// Correlate positions every image, preserving the input order in both result lists.
// The only error returned is a cancelled context.
func (c *Correlator) Correlate(ctx context.Context, images []string, capture core.CaptureLog, trajectory core.Trajectory) (core.Result, error) {
	slots := make([]outcome, len(images))
	var done atomic.Int64
	step := int64(max(1, len(images)/10))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.opts.Workers)
	for i, name := range images {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			slots[i] = c.correlateOne(gctx, name, capture, trajectory)

			n := done.Add(1)
			if len(images) > 10 && n%step == 0 {
				c.logger.Info("Correlation progress",
					"percent", n*100/int64(len(images)),
					"done", n,
					"total", len(images))
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return core.Result{}, fmt.Errorf("correlation interrupted: %w", err)
	}

	var result core.Result
	for _, o := range slots {
		if o.matched != nil {
			result.Matched = append(result.Matched, *o.matched)
		} else {
			result.Unmatched = append(result.Unmatched, *o.diag)
		}
	}
	return result, nil
}

func (c *Correlator) correlateOne(ctx context.Context, name string, capture core.CaptureLog, trajectory core.Trajectory) outcome {
	id, err := parser.ExtractImageID(filepath.Base(name))
	if err != nil {
		return c.reject(ctx, name, -1, core.ReasonInvalidID, err)
	}

	idx, ok := capture.Lookup(id)
	if !ok {
		return c.reject(ctx, name, id, core.ReasonNoCapture, &MatchError{Filename: name, ImageID: id})
	}

	hour := capture.Hours[idx]
	pos, err := c.opts.Search.Interpolate(hour, trajectory, capture.Offsets[idx])
	if err != nil {
		var rerr *interpolate.RangeError
		if errors.As(err, &rerr) {
			return c.reject(ctx, name, id, core.ReasonOutOfRange, err)
		}
		return c.reject(ctx, name, id, err.Error(), err)
	}

	c.matched.Add(ctx, 1)
	return outcome{matched: &core.MatchedImage{
		Filename:    name,
		ImageID:     id,
		East:        pos.X,
		North:       pos.Y,
		Elevation:   pos.Z,
		CaptureHour: hour,
	}}
}

func (c *Correlator) reject(ctx context.Context, name string, id int, reason string, err error) outcome {
	c.unmatched.Add(ctx, 1, metric.WithAttributes(attribute.String("reason", reason)))
	c.logger.Debug("Image not positioned", "image", name, "id", id, "reason", reason, "error", err)
	return outcome{diag: &core.Diagnostic{
		Filename: name,
		ImageID:  id,
		Reason:   reason,
		Err:      err,
	}}
}

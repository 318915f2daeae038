package geotag

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/metric"

	"github.com/dronedata/camerapos/internal/interpolate"
	"github.com/dronedata/camerapos/internal/parser"
	"github.com/dronedata/camerapos/pkg/core"
)

// SessionConfig holds everything needed to build the tables of a run.
type SessionConfig struct {
	Layout  parser.Config
	Units   string // trajectory coordinate unit, only "m" is supported
	Search  interpolate.Search
	Workers int
	RunID   string // generated when empty
	Meter   metric.Meter
}

// Session owns the immutable trajectory and capture-log tables of one run.
type Session struct {
	ID         string
	StartTime  time.Time
	Trajectory core.Trajectory
	CaptureLog core.CaptureLog

	logger     *slog.Logger
	correlator *Correlator
}

// NewSession parses both sources eagerly. Any error is fatal for the run.
func NewSession(logger *slog.Logger, cfg SessionConfig, trajectoryPath, captureLogPath string) (*Session, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Units != "" && cfg.Units != "m" {
		return nil, fmt.Errorf("trajectory units %q: %w", cfg.Units, parser.ErrUnsupportedUnit)
	}

	p := parser.NewParser(logger, cfg.Layout)

	trajectory, err := p.ParseTrajectory(trajectoryPath)
	if err != nil {
		return nil, fmt.Errorf("error processing trajectory: %w", err)
	}
	capture, err := p.ParseCaptureLog(captureLogPath)
	if err != nil {
		return nil, fmt.Errorf("error processing capture log: %w", err)
	}

	correlator, err := NewCorrelator(logger, Options{Search: cfg.Search, Workers: cfg.Workers, Meter: cfg.Meter})
	if err != nil {
		return nil, err
	}

	id := cfg.RunID
	if id == "" {
		id = uuid.NewString()
	}

	return &Session{
		ID:         id,
		StartTime:  time.Now(),
		Trajectory: trajectory,
		CaptureLog: capture,
		logger:     logger,
		correlator: correlator,
	}, nil
}

// Run correlates the images against the session tables.
func (s *Session) Run(ctx context.Context, images []string) (core.Result, error) {
	start := time.Now()
	result, err := s.correlator.Correlate(ctx, images, s.CaptureLog, s.Trajectory)
	if err != nil {
		return core.Result{}, err
	}
	s.logger.Info("Correlated images",
		"images", len(images),
		"matched", len(result.Matched),
		"unmatched", len(result.Unmatched),
		"duration", time.Since(start))
	return result, nil
}

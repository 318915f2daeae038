package influx

import (
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/dronedata/camerapos/internal/config"
	"github.com/dronedata/camerapos/pkg/core"
	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	influxdb2_api "github.com/influxdata/influxdb-client-go/v2/api"
	influxdb2_write "github.com/influxdata/influxdb-client-go/v2/api/write"
	"github.com/influxdata/influxdb-client-go/v2/domain"
	"github.com/rs/zerolog"
)

// Measurement is the name of the per-run summary point.
const Measurement = "geotag_run"

const pingTimeout = 5 * time.Second

// Manager handles the InfluxDB connection and run summary writes.
type Manager struct {
	Client       influxdb2.Client
	Writer       influxdb2_api.WriteAPIBlocking
	BackupWriter *gzip.Writer
	IsValid      bool
	Logger       zerolog.Logger

	cfg        config.InfluxConfig
	backupFile *os.File
}

// NewManager creates a new InfluxDB manager.
func NewManager(log zerolog.Logger, cfg config.InfluxConfig) *Manager {
	return &Manager{
		Logger: log,
		cfg:    cfg,
	}
}

// Connect establishes a connection to InfluxDB. When the server does not
// answer, points go to the gzip backup file instead.
func (m *Manager) Connect(ctx context.Context) error {
	if !m.cfg.Enabled {
		return errors.New("influx.enabled is false")
	}

	m.Client = influxdb2.NewClientWithOptions(
		m.cfg.URL,
		m.cfg.Token,
		influxdb2.DefaultOptions().SetHTTPRequestTimeout(uint(pingTimeout.Seconds())),
	)

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	running, err := m.Client.Ping(pingCtx)
	m.IsValid = err == nil && running

	if !m.IsValid {
		m.Logger.Info().Str("backupPath", m.cfg.BackupPath).
			Msg("Failed to initialize InfluxDB client, writing to backup file")
		return m.openBackup()
	}

	if err := m.setupOrganizationAndBucket(ctx); err != nil {
		return err
	}
	m.Writer = m.Client.WriteAPIBlocking(m.cfg.Org, m.cfg.Bucket)
	m.Logger.Info().Str("url", m.cfg.URL).Str("bucket", m.cfg.Bucket).Msg("InfluxDB client initialized")
	return nil
}

func (m *Manager) openBackup() error {
	if m.BackupWriter != nil {
		return nil
	}
	if m.cfg.BackupPath == "" {
		return errors.New("no influx backup path configured")
	}
	file, err := os.OpenFile(m.cfg.BackupPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("error creating backup file: %v", err)
	}
	m.backupFile = file
	m.BackupWriter = gzip.NewWriter(file)
	return nil
}

func (m *Manager) setupOrganizationAndBucket(ctx context.Context) error {
	orgs := m.Client.OrganizationsAPI()

	influxOrg, err := orgs.FindOrganizationByName(ctx, m.cfg.Org)
	if err != nil {
		m.Logger.Info().Str("org", m.cfg.Org).Msg("Organization not found, creating")
		influxOrg, err = orgs.CreateOrganizationWithName(ctx, m.cfg.Org)
		if err != nil {
			m.Logger.Error().Err(err).Str("org", m.cfg.Org).Msg("Error creating organization")
			return err
		}
	}

	if _, err = m.Client.BucketsAPI().FindBucketByName(ctx, m.cfg.Bucket); err == nil {
		return nil
	}
	m.Logger.Info().Str("bucket", m.cfg.Bucket).Msg("Bucket not found, creating")

	rule := domain.RetentionRuleTypeExpire
	_, err = m.Client.BucketsAPI().CreateBucketWithName(ctx, influxOrg, m.cfg.Bucket, domain.RetentionRule{
		Type:         &rule,
		EverySeconds: 60 * 60 * 24 * 90, // 90 days
	})
	if err != nil {
		m.Logger.Error().Err(err).Str("bucket", m.cfg.Bucket).Msg("Error creating bucket")
		return err
	}
	return nil
}

// RunPoint builds the summary point of a finished run.
func RunPoint(run *core.Run, result core.Result, duration time.Duration, at time.Time) *influxdb2_write.Point {
	return influxdb2_write.NewPoint(
		Measurement,
		map[string]string{
			"run_id":      run.RunID,
			"trajectory":  filepath.Base(run.TrajectoryFile),
			"capture_log": filepath.Base(run.CaptureLogFile),
		},
		map[string]any{
			"images":      int64(run.ImageCount),
			"matched":     int64(len(result.Matched)),
			"unmatched":   int64(len(result.Unmatched)),
			"duration_ms": duration.Milliseconds(),
		},
		at,
	)
}

// WritePoint writes a point to InfluxDB, or to the backup file when the
// server is unavailable or rejects the write.
func (m *Manager) WritePoint(ctx context.Context, point *influxdb2_write.Point) error {
	if m.IsValid {
		err := m.Writer.WritePoint(ctx, point)
		if err == nil {
			return nil
		}
		m.Logger.Error().Err(err).Str("bucket", m.cfg.Bucket).Msg("Error sending data to InfluxDB, writing to backup file")
		if err := m.openBackup(); err != nil {
			return err
		}
	}

	if m.BackupWriter == nil {
		return fmt.Errorf("influxDB client not initialized and backup writer not available")
	}
	lineProtocol := influxdb2_write.PointToLineProtocol(point, time.Nanosecond)
	if _, err := m.BackupWriter.Write([]byte(lineProtocol)); err != nil {
		return fmt.Errorf("error writing to InfluxDB backup file: %s", err)
	}
	return nil
}

// Close flushes the backup file and releases the client.
func (m *Manager) Close() error {
	var errs []error
	if m.BackupWriter != nil {
		errs = append(errs, m.BackupWriter.Close())
		m.BackupWriter = nil
	}
	if m.backupFile != nil {
		errs = append(errs, m.backupFile.Close())
		m.backupFile = nil
	}
	if m.Client != nil {
		m.Client.Close()
	}
	return errors.Join(errs...)
}

// Report writes the run summary and logs any failure. It never fails the run.
func Report(ctx context.Context, log zerolog.Logger, cfg config.InfluxConfig, run *core.Run, result core.Result, duration time.Duration) {
	if !cfg.Enabled {
		return
	}
	m := NewManager(log, cfg)
	defer func() {
		if err := m.Close(); err != nil {
			log.Warn().Err(err).Msg("Failed to close InfluxDB manager")
		}
	}()

	if err := m.Connect(ctx); err != nil {
		log.Warn().Err(err).Msg("Run metrics not recorded")
		return
	}
	if err := m.WritePoint(ctx, RunPoint(run, result, duration, time.Now())); err != nil {
		log.Warn().Err(err).Msg("Run metrics not recorded")
		return
	}
	log.Debug().Bool("live", m.IsValid).Msg("Run metrics recorded")
}

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/dronedata/camerapos/internal/config"
	"github.com/dronedata/camerapos/internal/discovery"
	"github.com/dronedata/camerapos/internal/geotag"
	"github.com/dronedata/camerapos/internal/imagemeta"
	"github.com/dronedata/camerapos/internal/influx"
	"github.com/dronedata/camerapos/internal/interpolate"
	"github.com/dronedata/camerapos/internal/logging"
	intOtel "github.com/dronedata/camerapos/internal/otel"
	"github.com/dronedata/camerapos/internal/parser"
	"github.com/dronedata/camerapos/internal/storage"
	"github.com/dronedata/camerapos/pkg/core"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// module defs - BuildDate can be set at build time via ldflags
var (
	CurrentVersion string = "0.0.1"
	BuildDate      string = "unknown"

	ProgramName string = "camerapos"
)

// flagKeys maps command line flags onto config keys.
var flagKeys = map[string]string{
	"workers":   "correlation.workers",
	"search":    "interpolation.search",
	"output":    "output.file",
	"precision": "output.precision",
	"storage":   "storage.type",
	"geojson":   "output.geojson",
	"exif":      "exif.enabled",
	"log-level": "logLevel",
	"logs-dir":  "logsDir",
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func newFlagSet(stderr io.Writer) *pflag.FlagSet {
	fs := pflag.NewFlagSet(ProgramName, pflag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		fmt.Fprintf(stderr, "Usage: %s [flags] [directory]\n\n", ProgramName)
		fs.PrintDefaults()
	}

	fs.String("config", "", "directory containing "+config.FileName+" (default: working directory)")
	fs.Int("workers", 1, "images correlated concurrently")
	fs.String("search", string(interpolate.Linear), "bracketing search: linear or binary")
	fs.String("output", "Camera_coords.txt", "coordinates file")
	fs.Int("precision", -1, "digits after the decimal point, -1 for shortest exact")
	fs.String("storage", "memory", "storage backend: memory, sqlite or postgres")
	fs.Bool("geojson", false, "also export a GeoJSON FeatureCollection")
	fs.Bool("exif", false, "read camera model and capture time from image EXIF")
	fs.String("log-level", "info", "debug, info, warn or error")
	fs.String("logs-dir", "", "write the log to a file in this directory")
	fs.Bool("show-config", false, "print the effective configuration and exit")
	fs.Bool("version", false, "print the version and exit")
	return fs
}

// run executes one geotagging run and returns the process exit code.
func run(args []string, stdout, stderr io.Writer) int {
	fs := newFlagSet(stderr)
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return 0
		}
		return 1
	}
	if v, _ := fs.GetBool("version"); v {
		fmt.Fprintf(stdout, "%s %s (%s)\n", ProgramName, CurrentVersion, BuildDate)
		return 0
	}

	dir := "."
	if fs.NArg() > 0 {
		dir = fs.Arg(0)
	}
	if abs, err := filepath.Abs(dir); err == nil {
		dir = abs
	}
	configDir, _ := fs.GetString("config")
	if configDir == "" {
		configDir = "."
	}

	viper.Reset()
	configErr := config.Load(configDir)
	if configErr != nil && !errors.Is(configErr, config.ErrConfigNotFound) {
		fmt.Fprintf(stderr, "ERROR: %v\n", configErr)
		return 1
	}
	if err := config.BindFlags(fs, flagKeys); err != nil {
		fmt.Fprintf(stderr, "ERROR: %v\n", err)
		return 1
	}

	if show, _ := fs.GetBool("show-config"); show {
		out, err := config.AsYAML()
		if err != nil {
			fmt.Fprintf(stderr, "ERROR: %v\n", err)
			return 1
		}
		fmt.Fprint(stdout, out)
		return 0
	}

	a := newApp(stdout, stderr)
	defer a.close()
	if configErr != nil {
		a.logger.Warn("Failed to load config, using defaults!", "error", configErr)
	} else {
		a.logger.Info("Loaded config", "file", viper.ConfigFileUsed())
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rep := reporter{w: stdout}
	rep.banner(dir)

	matched, err := a.geotag(ctx, rep, dir)
	if err != nil {
		a.logger.Error("Run failed", "error", err, "kind", errorKind(err))
		rep.failure(err)
		return 1
	}
	if matched == 0 {
		a.logger.Error("No images could be matched")
		rep.failure(errors.New("no images could be matched with the capture log"))
		return 1
	}
	rep.success(matched)
	return 0
}

// app holds the per-run logging and telemetry plumbing.
type app struct {
	runID string
	start time.Time

	slogManager *logging.SlogManager
	logger      *slog.Logger
	logOut      io.Writer
	dbLog       zerolog.Logger
	otel        *intOtel.Provider
	closers     []io.Closer
}

func newApp(stdout, stderr io.Writer) *app {
	a := &app{
		runID:       uuid.NewString(),
		start:       time.Now(),
		slogManager: logging.NewSlogManager(),
	}
	level := config.GetString("logLevel")

	// console logs go to stderr so the report on stdout stays readable
	var logOut io.Writer = stderr
	if logsDir := config.GetString("logsDir"); logsDir != "" {
		f, err := logging.OpenLogFile(logsDir, a.start)
		if err != nil {
			fmt.Fprintf(stderr, "Failed to create log file: %v\n", err)
		} else {
			logOut = f
			a.closers = append(a.closers, f)
		}
	}

	var graylog io.Writer
	if config.GetBool("graylog.enabled") {
		w, err := logging.NewGraylogWriter(config.GetString("graylog.address"))
		if err != nil {
			fmt.Fprintf(stderr, "Failed to connect to Graylog: %v\n", err)
		} else {
			graylog = w
			a.closers = append(a.closers, w)
		}
	}

	// disabled provider: no log pipeline, counters on the global meter
	a.otel, _ = intOtel.New(intOtel.Config{})
	otelCfg := config.GetOTelConfig()
	if otelCfg.Enabled {
		p, err := intOtel.New(intOtel.Config{
			Enabled:      otelCfg.Enabled,
			ServiceName:  otelCfg.ServiceName,
			RunID:        a.runID,
			BatchTimeout: otelCfg.BatchTimeout,
			LogWriter:    logOut,
			Endpoint:     otelCfg.Endpoint,
			Insecure:     otelCfg.Insecure,
		})
		if err != nil {
			fmt.Fprintf(stderr, "Failed to initialize OTel provider: %v\n", err)
		} else {
			a.otel = p
		}
	}

	opts := logging.SetupOptions{
		File:    logOut,
		Level:   level,
		Graylog: graylog,
		Context: func() []slog.Attr {
			return []slog.Attr{slog.String("runId", a.runID)}
		},
	}
	if a.otel.Enabled() {
		opts.Provider = a.otel.LoggerProvider()
	}
	a.slogManager.Setup(opts)
	a.logOut = logOut
	a.logger = a.slogManager.Logger()
	a.dbLog = logging.NewZerolog(logOut, level, "database")

	a.logger.Info("Starting up", "version", CurrentVersion, "build", BuildDate, "otel", a.otel.Enabled())
	return a
}

func (a *app) close() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := a.slogManager.Flush(ctx); err != nil {
		a.logger.Warn("Failed to flush logs", "error", err)
	}
	if err := a.otel.Flush(ctx); err != nil {
		a.logger.Warn("Failed to flush OTel logs", "error", err)
	}
	if err := a.otel.Shutdown(ctx); err != nil {
		a.logger.Warn("Failed to shut down OTel provider", "error", err)
	}
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i].Close(); err != nil {
			a.logger.Warn("Failed to close log sink", "error", err)
		}
	}
}

// geotag discovers the inputs, correlates the images and persists the rows.
// It returns the number of positioned images.
func (a *app) geotag(ctx context.Context, rep reporter, dir string) (int, error) {
	in, err := discovery.Discover(dir, discoveryOptions())
	if err != nil {
		return 0, err
	}
	for _, ignored := range in.IgnoredTrajectories {
		a.logger.Info("Ignoring extra positioning file", "file", ignored, "using", in.Trajectory)
	}
	for _, ignored := range in.IgnoredCaptureLogs {
		a.logger.Info("Ignoring extra capture log", "file", ignored, "using", in.CaptureLog)
	}
	rep.inputs(in)

	if ids, _ := imageIDs(in.Images); len(ids) == 0 {
		return 0, errors.New("no image file names with an extractable id (expected prefix_prefix_ID.jpg)")
	}

	corr := config.GetCorrelationConfig()
	search, err := interpolate.ParseSearch(corr.Search)
	if err != nil {
		return 0, err
	}

	session, err := geotag.NewSession(a.logger, geotag.SessionConfig{
		Layout:  config.GetParserConfig(),
		Units:   corr.Units,
		Search:  search,
		Workers: corr.Workers,
		RunID:   a.runID,
		Meter:   a.otel.Meter(geotag.InstrumentationName),
	}, in.Trajectory, in.CaptureLog)
	if err != nil {
		return 0, err
	}
	summary := parser.Summarize(session.Trajectory)
	a.logger.Info("Trajectory loaded",
		"file", in.Trajectory,
		"samples", summary.Samples,
		"startHour", summary.StartHour,
		"endHour", summary.EndHour,
		"meanIntervalSec", summary.MeanIntervalSec,
		"maxIntervalSec", summary.MaxIntervalSec)
	rep.sources(session.Trajectory, session.CaptureLog)

	result, err := session.Run(ctx, in.Images)
	if err != nil {
		return 0, err
	}
	for _, d := range result.Unmatched {
		a.logger.Warn("Image not positioned", "file", d.Filename, "id", d.ImageID, "reason", d.Reason, "error", d.Err)
	}
	rep.unmatched(result.Unmatched)

	if corr.Exif && len(result.Matched) > 0 {
		if failed := imagemeta.Enrich(a.logger, result.Matched, in.ImagePath); failed > 0 {
			a.logger.Warn("EXIF metadata missing for some images", "failed", failed)
		}
	}

	if !result.Success() {
		return 0, nil
	}

	run := &core.Run{
		RunID:          session.ID,
		StartTime:      session.StartTime.UTC(),
		Directory:      in.Dir,
		TrajectoryFile: in.Trajectory,
		CaptureLogFile: in.CaptureLog,
		ImageCount:     len(in.Images),
		Settings:       runSettings(),
		Track:          track(session.Trajectory),
	}

	files, err := a.persist(run, result)
	if err != nil {
		return 0, err
	}
	rep.results(result.Matched, files)

	influx.Report(ctx, logging.NewZerolog(a.logOut, config.GetString("logLevel"), "influx"),
		config.GetInfluxConfig(), run, result, time.Since(a.start))

	return len(result.Matched), nil
}

func (a *app) persist(run *core.Run, result core.Result) ([]string, error) {
	backend, err := createStorageBackend(config.GetStorageConfig(), run.Directory, a.logger, a.dbLog)
	if err != nil {
		return nil, err
	}
	if err := backend.Init(); err != nil {
		return nil, err
	}
	defer func() {
		if err := backend.Close(); err != nil {
			a.logger.Warn("Failed to close storage backend", "error", err)
		}
	}()

	if err := storage.Persist(backend, run, result); err != nil {
		return nil, err
	}

	var files []string
	if exp, ok := backend.(storage.Exporter); ok {
		files = exp.OutputFiles()
	}
	a.logger.Info("Results stored", "files", files, "positions", len(result.Matched))
	return files, nil
}

func discoveryOptions() discovery.Options {
	in := config.GetInputConfig()
	return discovery.Options{
		ImageExtensions:     in.ImageExtensions,
		TrajectoryExtension: in.TrajectoryExtension,
		CaptureLogExtension: in.CaptureLogExtension,
	}
}

// runSettings records the settings that shaped the output rows.
func runSettings() map[string]any {
	return map[string]any{
		"search":     config.GetString("interpolation.search"),
		"workers":    config.GetInt("correlation.workers"),
		"precision":  config.GetInt("output.precision"),
		"trajectory": viper.GetStringMap("trajectory"),
		"exif":       config.GetBool("exif.enabled"),
	}
}

func track(t core.Trajectory) []core.Position3D {
	out := make([]core.Position3D, len(t.Samples))
	for i, s := range t.Samples {
		out[i] = s.Position()
	}
	return out
}

// errorKind names the failure class for the log.
func errorKind(err error) string {
	var (
		discoveryErr *discovery.FileDiscoveryError
		parseErr     *parser.ParseError
		writeErr     *storage.WriteError
	)
	switch {
	case errors.As(err, &discoveryErr):
		return "discovery"
	case errors.As(err, &parseErr), errors.Is(err, parser.ErrUnsupportedUnit):
		return "parse"
	case errors.As(err, &writeErr):
		return "write"
	case errors.Is(err, context.Canceled):
		return "interrupted"
	default:
		return "unexpected"
	}
}

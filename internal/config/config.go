package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v2"

	"github.com/dronedata/camerapos/internal/parser"
)

// FileName is the config file looked up in the config directory.
const FileName = "camerapos.cfg.json"

// ErrConfigNotFound is returned by Load when no config file exists; defaults stay in effect.
var ErrConfigNotFound = errors.New("config file not found")

// OutputConfig holds result file settings
type OutputConfig struct {
	File       string `json:"file" mapstructure:"file"`
	Precision  int    `json:"precision" mapstructure:"precision"` // -1 = shortest exact representation
	GeoJSON    bool   `json:"geojson" mapstructure:"geojson"`
	Compress   bool   `json:"compress" mapstructure:"compress"`
	SourceEPSG int    `json:"sourceEPSG" mapstructure:"sourceEPSG"` // 0 = write coordinates unprojected
}

// SQLiteConfig holds SQLite storage backend settings
type SQLiteConfig struct {
	Path string `json:"path" mapstructure:"path"`
}

// StorageConfig selects and configures the result storage backend
type StorageConfig struct {
	Type   string       `json:"type" mapstructure:"type"`
	Output OutputConfig `json:"-" mapstructure:"-"`
	SQLite SQLiteConfig `json:"sqlite" mapstructure:"sqlite"`
}

// CorrelationConfig holds matching and interpolation settings
type CorrelationConfig struct {
	Search  string
	Workers int
	Units   string
	Exif    bool
}

// InputConfig holds file discovery settings
type InputConfig struct {
	ImageExtensions     []string
	TrajectoryExtension string
	CaptureLogExtension string
}

// OTelConfig holds OpenTelemetry settings
type OTelConfig struct {
	Enabled      bool
	ServiceName  string
	BatchTimeout time.Duration
	Endpoint     string
	Insecure     bool
}

// InfluxConfig holds run metrics settings
type InfluxConfig struct {
	Enabled    bool
	URL        string
	Token      string
	Org        string
	Bucket     string
	BackupPath string
}

// SetDefaults registers the default value of every key.
func SetDefaults() {
	viper.SetDefault("logLevel", "info")
	viper.SetDefault("logsDir", "")

	viper.SetDefault("input.imageExtensions", []string{".JPG", ".jpg"})
	viper.SetDefault("input.trajectoryExtension", ".pos")
	viper.SetDefault("input.captureLogExtension", ".MRK")

	layout := parser.DefaultConfig()
	viper.SetDefault("trajectory.headerLines", layout.HeaderLines)
	viper.SetDefault("trajectory.columnHeader", layout.ColumnHeader)
	viper.SetDefault("trajectory.timeColumn", layout.TimeColumn)
	viper.SetDefault("trajectory.eastColumn", layout.EastColumn)
	viper.SetDefault("trajectory.northColumn", layout.NorthColumn)
	viper.SetDefault("trajectory.elevationColumn", layout.ElevationColumn)
	viper.SetDefault("trajectory.units", "m")

	viper.SetDefault("interpolation.search", "linear")
	viper.SetDefault("correlation.workers", 1)
	viper.SetDefault("exif.enabled", false)

	viper.SetDefault("output.file", "Camera_coords.txt")
	viper.SetDefault("output.precision", -1)
	viper.SetDefault("output.geojson", false)
	viper.SetDefault("output.compress", false)
	viper.SetDefault("output.sourceEPSG", 0)

	viper.SetDefault("storage.type", "memory")
	viper.SetDefault("storage.sqlite.path", "camerapos.db")

	viper.SetDefault("db.host", "localhost")
	viper.SetDefault("db.port", "5432")
	viper.SetDefault("db.username", "postgres")
	viper.SetDefault("db.password", "postgres")
	viper.SetDefault("db.database", "camerapos")

	viper.SetDefault("influx.enabled", false)
	viper.SetDefault("influx.host", "localhost")
	viper.SetDefault("influx.port", "8086")
	viper.SetDefault("influx.protocol", "http")
	viper.SetDefault("influx.token", "")
	viper.SetDefault("influx.org", "camerapos")
	viper.SetDefault("influx.bucket", "geotag_runs")
	viper.SetDefault("influx.backupPath", "camerapos_influx_backup.lp.gz")

	viper.SetDefault("graylog.enabled", false)
	viper.SetDefault("graylog.address", "localhost:12201")

	viper.SetDefault("otel.enabled", false)
	viper.SetDefault("otel.serviceName", "camerapos")
	viper.SetDefault("otel.batchTimeout", "5s")
	viper.SetDefault("otel.endpoint", "")
	viper.SetDefault("otel.insecure", true)
}

// Load sets default values and reads the JSON config file from configDir.
// A missing file yields ErrConfigNotFound with all defaults in place.
func Load(configDir string) error {
	SetDefaults()

	viper.SetConfigName(FileName)
	viper.AddConfigPath(configDir)
	viper.SetConfigType("json")

	err := viper.ReadInConfig()
	if err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return fmt.Errorf("%w in %s", ErrConfigNotFound, configDir)
		}
		return fmt.Errorf("error reading config file: %v", err)
	}

	return nil
}

// BindFlags maps command line flags onto config keys so that set flags win over the file.
// flagKeys maps a flag name to its viper key.
func BindFlags(flags *pflag.FlagSet, flagKeys map[string]string) error {
	for name, key := range flagKeys {
		f := flags.Lookup(name)
		if f == nil {
			return fmt.Errorf("unknown flag %q", name)
		}
		if err := viper.BindPFlag(key, f); err != nil {
			return fmt.Errorf("binding flag %q: %w", name, err)
		}
	}
	return nil
}

// GetString returns a string config value.
func GetString(key string) string {
	return viper.GetString(key)
}

// GetInt returns an int config value.
func GetInt(key string) int {
	return viper.GetInt(key)
}

// GetBool returns a bool config value.
func GetBool(key string) bool {
	return viper.GetBool(key)
}

// GetParserConfig returns the positioning file layout.
func GetParserConfig() parser.Config {
	return parser.Config{
		HeaderLines:     viper.GetInt("trajectory.headerLines"),
		ColumnHeader:    viper.GetBool("trajectory.columnHeader"),
		TimeColumn:      viper.GetInt("trajectory.timeColumn"),
		EastColumn:      viper.GetInt("trajectory.eastColumn"),
		NorthColumn:     viper.GetInt("trajectory.northColumn"),
		ElevationColumn: viper.GetInt("trajectory.elevationColumn"),
	}
}

// GetCorrelationConfig returns matching and interpolation settings.
func GetCorrelationConfig() CorrelationConfig {
	return CorrelationConfig{
		Search:  viper.GetString("interpolation.search"),
		Workers: viper.GetInt("correlation.workers"),
		Units:   viper.GetString("trajectory.units"),
		Exif:    viper.GetBool("exif.enabled"),
	}
}

// GetInputConfig returns file discovery settings.
func GetInputConfig() InputConfig {
	return InputConfig{
		ImageExtensions:     viper.GetStringSlice("input.imageExtensions"),
		TrajectoryExtension: viper.GetString("input.trajectoryExtension"),
		CaptureLogExtension: viper.GetString("input.captureLogExtension"),
	}
}

// GetOutputConfig returns result file settings.
func GetOutputConfig() OutputConfig {
	return OutputConfig{
		File:       viper.GetString("output.file"),
		Precision:  viper.GetInt("output.precision"),
		GeoJSON:    viper.GetBool("output.geojson"),
		Compress:   viper.GetBool("output.compress"),
		SourceEPSG: viper.GetInt("output.sourceEPSG"),
	}
}

// GetStorageConfig returns the storage backend settings.
func GetStorageConfig() StorageConfig {
	return StorageConfig{
		Type:   viper.GetString("storage.type"),
		Output: GetOutputConfig(),
		SQLite: SQLiteConfig{
			Path: viper.GetString("storage.sqlite.path"),
		},
	}
}

// GetOTelConfig returns OpenTelemetry settings.
func GetOTelConfig() OTelConfig {
	return OTelConfig{
		Enabled:      viper.GetBool("otel.enabled"),
		ServiceName:  viper.GetString("otel.serviceName"),
		BatchTimeout: viper.GetDuration("otel.batchTimeout"),
		Endpoint:     viper.GetString("otel.endpoint"),
		Insecure:     viper.GetBool("otel.insecure"),
	}
}

// GetInfluxConfig returns run metrics settings.
func GetInfluxConfig() InfluxConfig {
	return InfluxConfig{
		Enabled: viper.GetBool("influx.enabled"),
		URL: fmt.Sprintf("%s://%s:%s",
			viper.GetString("influx.protocol"),
			viper.GetString("influx.host"),
			viper.GetString("influx.port"),
		),
		Token:      viper.GetString("influx.token"),
		Org:        viper.GetString("influx.org"),
		Bucket:     viper.GetString("influx.bucket"),
		BackupPath: viper.GetString("influx.backupPath"),
	}
}

// AsYAML renders the effective settings, secrets masked.
func AsYAML() (string, error) {
	settings := viper.AllSettings()
	for _, section := range []string{"db", "influx"} {
		if m, ok := settings[section].(map[string]any); ok {
			for _, key := range []string{"password", "token"} {
				if v, ok := m[key]; ok && v != "" {
					m[key] = "********"
				}
			}
		}
	}
	out, err := yaml.Marshal(settings)
	if err != nil {
		return "", fmt.Errorf("error rendering config: %w", err)
	}
	return string(out), nil
}

// Package config provides the configuration structures of the print host.
package config

// EmbeddedConfig holds the content of the configuration file, typically passed from main.go.
type EmbeddedConfig []byte

// LogLevel defines the logging level for the application.
type LogLevel string

const (
	LogLevelTrace  LogLevel = "TRACE"
	LogLevelDebug  LogLevel = "DEBUG"
	LogLevelInfo   LogLevel = "INFO"
	LogLevelWarn   LogLevel = "WARN"
	LogLevelError  LogLevel = "ERROR"
	LogLevelFatal  LogLevel = "FATAL"
	LogLevelSilent LogLevel = "SILENT"
)

// Exporter names accepted by TelemetryConfig.
const (
	ExporterNone       = "none"
	ExporterPrometheus = "prometheus"
	ExporterOTLPHTTP   = "otlp-http"
	ExporterOTLPGRPC   = "otlp-grpc"
)

// Centering correction modes for mirrored transforms.
const (
	CorrectionComposed = "composed"
	CorrectionCentered = "centered"
)

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	// Level is the logging level (e.g., "INFO", "DEBUG", "TRACE").
	Level string `yaml:"level"`
}

// SystemConfig holds system-wide settings.
type SystemConfig struct {
	Timezone string        `yaml:"timezone"`
	Logging  LoggingConfig `yaml:"logging"`
}

// PrintConfig holds settings of the job manager and the print pipeline.
type PrintConfig struct {
	// RemoveJobOnCompletion deregisters a job as soon as its finalizer has run.
	RemoveJobOnCompletion bool `yaml:"remove_job_on_completion"`
	// PausePollIntervalMillis is how often a paused job re-checks the printer status.
	PausePollIntervalMillis int `yaml:"pause_poll_interval_millis"`
	// NotificationBufferSize is the queue size of the asynchronous notifier.
	NotificationBufferSize int `yaml:"notification_buffer_size"`
	// MetricsAsyncBufferSize is the buffer size for asynchronous metric recording.
	MetricsAsyncBufferSize int `yaml:"metrics_async_buffer_size"`
	// CorrectionMode selects how mirrored transforms are re-centered ("composed" or "centered").
	CorrectionMode string `yaml:"correction_mode"`
	// JobFile is the mesh file the host binary submits at startup.
	JobFile string `yaml:"job_file"`
	// PrinterName is the printer the startup job is bound to.
	PrinterName string `yaml:"printer"`
	// UseCustomizer resolves a customizer for the startup job by file name.
	UseCustomizer bool `yaml:"use_customizer"`
}

// ExporterConfig selects a telemetry exporter.
type ExporterConfig struct {
	Exporter string `yaml:"exporter"`
	Endpoint string `yaml:"endpoint"`
	Insecure bool   `yaml:"insecure"`
}

// TelemetryConfig holds tracing and metrics exporter settings.
type TelemetryConfig struct {
	Tracing ExporterConfig `yaml:"tracing"`
	Metrics ExporterConfig `yaml:"metrics"`
}

// PoolConfig holds database connection pool settings.
type PoolConfig struct {
	MaxOpenConns           int `yaml:"max_open_conns" mapstructure:"max_open_conns"`
	MaxIdleConns           int `yaml:"max_idle_conns" mapstructure:"max_idle_conns"`
	ConnMaxLifetimeMinutes int `yaml:"conn_max_lifetime_minutes" mapstructure:"conn_max_lifetime_minutes"`
}

// DatabaseConfig holds database connection settings.
type DatabaseConfig struct {
	Type     string     `yaml:"type" mapstructure:"type"` // "postgres", "mysql" or "sqlite".
	Host     string     `yaml:"host" mapstructure:"host"`
	Port     int        `yaml:"port" mapstructure:"port"`
	Database string     `yaml:"database" mapstructure:"database"` // Database name, or the file path for sqlite.
	User     string     `yaml:"user" mapstructure:"user"`
	Password string     `yaml:"password" mapstructure:"password"`
	Sslmode  string     `yaml:"sslmode" mapstructure:"sslmode"`
	Pool     PoolConfig `yaml:"pool" mapstructure:"pool"`
}

// HistoryConfig configures persistence of finished jobs.
type HistoryConfig struct {
	Enabled  bool           `yaml:"enabled"`
	Database DatabaseConfig `yaml:"database"`
}

// HostConfig holds all configuration under the "host" top-level key.
type HostConfig struct {
	System    SystemConfig    `yaml:"system"`
	Print     PrintConfig     `yaml:"print"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
	History   HistoryConfig   `yaml:"history"`
	// Printers holds printer profiles keyed by printer name. Decode with PrinterProfiles.
	Printers map[string]interface{} `yaml:"printers"`
	// Customizers holds customizer definitions. Decode with CustomizerDefinitions.
	Customizers []interface{} `yaml:"customizers"`
}

// Config is the root structure for the entire application configuration.
type Config struct {
	Host           HostConfig     `yaml:"host"`
	EmbeddedConfig EmbeddedConfig `yaml:"-"`
}

// NewConfig returns a new instance of Config with default values.
func NewConfig() *Config {
	return &Config{
		Host: HostConfig{
			System: SystemConfig{
				Timezone: "UTC",
				Logging:  LoggingConfig{Level: "INFO"},
			},
			Print: PrintConfig{
				PausePollIntervalMillis: 200,
				NotificationBufferSize:  64,
				MetricsAsyncBufferSize:  100,
				CorrectionMode:          CorrectionComposed,
			},
			Telemetry: TelemetryConfig{
				Tracing: ExporterConfig{Exporter: ExporterNone},
				Metrics: ExporterConfig{Exporter: ExporterPrometheus},
			},
			History: HistoryConfig{
				Database: DatabaseConfig{Type: "sqlite", Database: "layercure.db"},
			},
			Printers: map[string]interface{}{},
		},
	}
}

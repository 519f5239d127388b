package config

import (
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"

	"github.com/hashicorp/go-multierror"
	"github.com/joho/godotenv"
	"go.uber.org/fx"
	"gopkg.in/yaml.v3"

	"github.com/tigerroll/layercure/pkg/print/support/util/exception"
	"github.com/tigerroll/layercure/pkg/print/support/util/logger"
)

const moduleName = "config"

// ConfigParams defines the dependencies for NewConfigProvider.
type ConfigParams struct {
	fx.In
	EmbeddedConfig EmbeddedConfig
	Expander       EnvironmentExpander `optional:"true"`
	EnvFilePath    string              `name:"envFilePath" optional:"true"`
}

// LoadConfig loads configuration from the embedded YAML and environment variables.
// Order: defaults, then YAML (after ${VAR} expansion), then HOST_* environment overrides.
func LoadConfig(envFilePath string, embeddedConfig EmbeddedConfig, expander EnvironmentExpander) (*Config, error) {
	if envFilePath != "" {
		if err := godotenv.Load(envFilePath); err != nil {
			logger.Warnf(".env file (%s) not found or could not be loaded: %v", envFilePath, err)
		}
	} else {
		if err := godotenv.Load(); err != nil {
			logger.Debugf(".env file not found or could not be loaded: %v", err)
		}
	}
	if expander == nil {
		expander = NewOsEnvironmentExpander()
	}

	cfg := NewConfig()

	raw, err := expander.Expand(embeddedConfig)
	if err != nil {
		return nil, exception.NewPrintError(moduleName, "failed to expand environment placeholders", nil, err)
	}
	var yamlConfig Config
	if err := yaml.Unmarshal(raw, &yamlConfig); err != nil {
		return nil, exception.NewPrintError(moduleName, "failed to unmarshal embedded config", nil, err)
	}
	mergeConfig(cfg, &yamlConfig)

	if err := loadStructFromEnv(reflect.ValueOf(cfg).Elem(), ""); err != nil {
		return nil, exception.NewPrintError(moduleName, "failed to load config from environment variables", nil, err)
	}
	cfg.EmbeddedConfig = embeddedConfig
	return cfg, nil
}

// NewConfigProvider is an Fx provider that loads, validates and provides *Config.
// It also sets the global logger level.
func NewConfigProvider(params ConfigParams) (*Config, error) {
	cfg, err := LoadConfig(params.EnvFilePath, params.EmbeddedConfig, params.Expander)
	if err != nil {
		return nil, err
	}

	logger.SetLogLevel(cfg.Host.System.Logging.Level)
	logger.Infof("Log level set to: %s", cfg.Host.System.Logging.Level)

	if err := Validate(cfg); err != nil {
		return nil, exception.NewPrintError(moduleName, "invalid configuration", nil, err)
	}
	return cfg, nil
}

// Validate checks the whole configuration and reports every problem found.
func Validate(cfg *Config) error {
	var result *multierror.Error

	p := cfg.Host.Print
	if p.PausePollIntervalMillis <= 0 {
		result = multierror.Append(result, fmt.Errorf("print.pause_poll_interval_millis must be positive, got %d", p.PausePollIntervalMillis))
	}
	if p.NotificationBufferSize < 0 {
		result = multierror.Append(result, fmt.Errorf("print.notification_buffer_size must not be negative, got %d", p.NotificationBufferSize))
	}
	if p.CorrectionMode != CorrectionComposed && p.CorrectionMode != CorrectionCentered {
		result = multierror.Append(result, fmt.Errorf("print.correction_mode must be '%s' or '%s', got '%s'", CorrectionComposed, CorrectionCentered, p.CorrectionMode))
	}

	if err := checkExporter("telemetry.tracing.exporter", cfg.Host.Telemetry.Tracing.Exporter, false); err != nil {
		result = multierror.Append(result, err)
	}
	if err := checkExporter("telemetry.metrics.exporter", cfg.Host.Telemetry.Metrics.Exporter, true); err != nil {
		result = multierror.Append(result, err)
	}

	if cfg.Host.History.Enabled {
		switch cfg.Host.History.Database.Type {
		case "sqlite", "mysql", "postgres":
		default:
			result = multierror.Append(result, fmt.Errorf("history.database.type '%s' is not supported", cfg.Host.History.Database.Type))
		}
	}

	profiles, err := cfg.Host.PrinterProfiles()
	if err != nil {
		result = multierror.Append(result, err)
	}
	for name, pc := range profiles {
		if pc.XResolution <= 0 || pc.YResolution <= 0 {
			result = multierror.Append(result, fmt.Errorf("printer '%s': resolution must be positive, got %dx%d", name, pc.XResolution, pc.YResolution))
		}
		if pc.LayerHeightMM <= 0 {
			result = multierror.Append(result, fmt.Errorf("printer '%s': layer_height_mm must be positive", name))
		}
		if pc.Direction != "bottom_up" && pc.Direction != "top_down" {
			result = multierror.Append(result, fmt.Errorf("printer '%s': unknown direction '%s'", name, pc.Direction))
		}
	}
	if _, err := cfg.Host.CustomizerDefinitions(); err != nil {
		result = multierror.Append(result, err)
	}

	return result.ErrorOrNil()
}

func checkExporter(key, value string, allowPrometheus bool) error {
	switch value {
	case ExporterNone, ExporterOTLPHTTP, ExporterOTLPGRPC:
		return nil
	case ExporterPrometheus:
		if allowPrometheus {
			return nil
		}
	}
	return fmt.Errorf("%s: unsupported exporter '%s'", key, value)
}

// mergeConfig copies every non-zero value of source into dest.
func mergeConfig(dest, source *Config) {
	mergeHostConfig(&dest.Host, &source.Host)
}

func mergeHostConfig(dest, source *HostConfig) {
	if source.System.Timezone != "" {
		dest.System.Timezone = source.System.Timezone
	}
	if source.System.Logging.Level != "" {
		dest.System.Logging.Level = source.System.Logging.Level
	}

	mergePrintConfig(&dest.Print, &source.Print)
	mergeExporterConfig(&dest.Telemetry.Tracing, &source.Telemetry.Tracing)
	mergeExporterConfig(&dest.Telemetry.Metrics, &source.Telemetry.Metrics)

	if source.History.Enabled {
		dest.History.Enabled = true
	}
	mergeDatabaseConfig(&dest.History.Database, &source.History.Database)

	if source.Printers != nil {
		if dest.Printers == nil {
			dest.Printers = make(map[string]interface{})
		}
		for key, value := range source.Printers {
			dest.Printers[key] = value
		}
	}
	if source.Customizers != nil {
		dest.Customizers = source.Customizers
	}
}

func mergePrintConfig(dest, source *PrintConfig) {
	if source.RemoveJobOnCompletion {
		dest.RemoveJobOnCompletion = true
	}
	if source.PausePollIntervalMillis != 0 {
		dest.PausePollIntervalMillis = source.PausePollIntervalMillis
	}
	if source.NotificationBufferSize != 0 {
		dest.NotificationBufferSize = source.NotificationBufferSize
	}
	if source.MetricsAsyncBufferSize != 0 {
		dest.MetricsAsyncBufferSize = source.MetricsAsyncBufferSize
	}
	if source.CorrectionMode != "" {
		dest.CorrectionMode = source.CorrectionMode
	}
	if source.JobFile != "" {
		dest.JobFile = source.JobFile
	}
	if source.PrinterName != "" {
		dest.PrinterName = source.PrinterName
	}
	if source.UseCustomizer {
		dest.UseCustomizer = true
	}
}

func mergeExporterConfig(dest, source *ExporterConfig) {
	if source.Exporter != "" {
		dest.Exporter = source.Exporter
	}
	if source.Endpoint != "" {
		dest.Endpoint = source.Endpoint
	}
	if source.Insecure {
		dest.Insecure = true
	}
}

func mergeDatabaseConfig(dest, source *DatabaseConfig) {
	if source.Type != "" {
		dest.Type = source.Type
	}
	if source.Host != "" {
		dest.Host = source.Host
	}
	if source.Port != 0 {
		dest.Port = source.Port
	}
	if source.Database != "" {
		dest.Database = source.Database
	}
	if source.User != "" {
		dest.User = source.User
	}
	if source.Password != "" {
		dest.Password = source.Password
	}
	if source.Sslmode != "" {
		dest.Sslmode = source.Sslmode
	}
	if source.Pool.MaxOpenConns != 0 {
		dest.Pool.MaxOpenConns = source.Pool.MaxOpenConns
	}
	if source.Pool.MaxIdleConns != 0 {
		dest.Pool.MaxIdleConns = source.Pool.MaxIdleConns
	}
	if source.Pool.ConnMaxLifetimeMinutes != 0 {
		dest.Pool.ConnMaxLifetimeMinutes = source.Pool.ConnMaxLifetimeMinutes
	}
}

// loadStructFromEnv recursively overrides struct fields from environment variables.
// The variable name is the upper-cased path of yaml tags joined by '_',
// e.g. HOST_PRINT_REMOVE_JOB_ON_COMPLETION.
func loadStructFromEnv(val reflect.Value, prefix string) error {
	typ := val.Type()
	for i := 0; i < typ.NumField(); i++ {
		field := val.Field(i)
		fieldType := typ.Field(i)
		yamlTag := strings.Split(fieldType.Tag.Get("yaml"), ",")[0]
		if yamlTag == "" || yamlTag == "-" {
			continue
		}
		envVarName := strings.ToUpper(prefix + yamlTag)

		if field.Kind() == reflect.Struct {
			if err := loadStructFromEnv(field, envVarName+"_"); err != nil {
				return err
			}
			continue
		}

		envValue, exists := os.LookupEnv(envVarName)
		if !exists {
			continue
		}
		if err := setField(field, envValue); err != nil {
			return fmt.Errorf("failed to set field '%s' from env var '%s': %w", fieldType.Name, envVarName, err)
		}
	}
	return nil
}

// setField sets string, int, float and bool fields; other kinds are left untouched.
func setField(field reflect.Value, value string) error {
	if !field.CanSet() {
		return nil
	}
	switch field.Kind() {
	case reflect.String:
		field.SetString(value)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		intValue, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return err
		}
		field.SetInt(intValue)
	case reflect.Float64, reflect.Float32:
		floatValue, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return err
		}
		field.SetFloat(floatValue)
	case reflect.Bool:
		boolValue, err := strconv.ParseBool(value)
		if err != nil {
			return err
		}
		field.SetBool(boolValue)
	}
	return nil
}

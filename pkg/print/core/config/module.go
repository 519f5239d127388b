package config

import "go.uber.org/fx"

// NewLoggingConfigProvider extracts *LoggingConfig from *Config.
func NewLoggingConfigProvider(cfg *Config) *LoggingConfig {
	return &cfg.Host.System.Logging
}

// NewPrintConfigProvider extracts *PrintConfig from *Config.
func NewPrintConfigProvider(cfg *Config) *PrintConfig {
	return &cfg.Host.Print
}

// Module provides the configuration and its sections to Fx.
// The EmbeddedConfig itself is supplied by the application.
var Module = fx.Options(
	fx.Provide(NewConfigProvider),
	fx.Provide(NewLoggingConfigProvider),
	fx.Provide(NewPrintConfigProvider),
	fx.Provide(func() EnvironmentExpander {
		return NewOsEnvironmentExpander()
	}),
)

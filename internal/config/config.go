// Package config loads cmd/codecfilterd's daemon configuration, grounded
// on firestige-Otus's internal/otus/config loader: github.com/spf13/viper
// reading a config file with environment-variable overrides, unmarshaled
// into a mapstructure-tagged struct.
package config

// Config is the daemon's full configuration surface.
type Config struct {
	Listen          string    `mapstructure:"listen"`
	MaxFrameLength  int       `mapstructure:"max_frame_length"`
	ShutdownTimeout string    `mapstructure:"shutdown_timeout"`
	Log             LogConfig `mapstructure:"log"`
}

// LogConfig configures the daemon's logging sink (internal/logging).
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`

	// File, if non-empty, additionally rotates logs to disk via
	// internal/logging's lumberjack-backed sink.
	File       string `mapstructure:"file"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
}

func defaults() Config {
	return Config{
		Listen:          "127.0.0.1:9000",
		MaxFrameLength:  1 << 20,
		ShutdownTimeout: "5s",
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

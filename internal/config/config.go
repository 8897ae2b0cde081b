// Package config centralizes how RenameVault reads settings: built-in
// defaults, an optional renamevault_config.yaml, then RENAMEVAULT_* env
// variables. CLI flags override whatever this returns.
package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config represents runtime configuration for a run.
type Config struct {
	Workers          int           `mapstructure:"WORKERS"`
	OCRLanguage      string        `mapstructure:"OCR_LANGUAGE"`
	StatusDBPath     string        `mapstructure:"STATUS_DB_PATH"`
	ExportDir        string        `mapstructure:"EXPORT_DIR"`
	ExportEnabled    bool          `mapstructure:"EXPORT_ENABLED"`
	ProgressInterval time.Duration `mapstructure:"PROGRESS_INTERVAL"`
	LogLevel         string        `mapstructure:"LOG_LEVEL"`
}

// Load reads configuration, falling back to defaults when no file or env
// override is present.
func Load() (*Config, error) {
	vp := viper.New()

	vp.SetDefault("WORKERS", 0) // 0 means: size the pool from the CPU count
	vp.SetDefault("OCR_LANGUAGE", "eng")
	vp.SetDefault("STATUS_DB_PATH", "pdf_processing.db")
	vp.SetDefault("EXPORT_DIR", ".")
	vp.SetDefault("EXPORT_ENABLED", true)
	vp.SetDefault("PROGRESS_INTERVAL", "500ms")
	vp.SetDefault("LOG_LEVEL", "info")

	vp.SetConfigName("renamevault_config")
	vp.SetConfigType("yaml")
	vp.AddConfigPath(".")
	vp.AddConfigPath("$HOME/.config/renamevault")

	if err := vp.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	vp.SetEnvPrefix("RENAMEVAULT")
	vp.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	vp.AutomaticEnv()

	var cfg Config
	if err := vp.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

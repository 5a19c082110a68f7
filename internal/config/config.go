// Package config loads ambient defaults for gcloud-logs from a config file
// and environment variables. Every value here can be overridden by a flag.
package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	cliErrors "gcloud-logs/internal/errors"
)

// Config holds the ambient defaults read from file/env.
type Config struct {
	// Project is the default GCP project ID.
	Project string
	// PollInterval is the default tail poll cadence.
	PollInterval time.Duration
	// PageSize is the default number of entries per API page.
	PageSize int
	// LogLevel is the diagnostic log level.
	LogLevel string
	// LogDir is the diagnostic log directory.
	LogDir string
	// LogToFile enables the rotating diagnostic log file.
	LogToFile bool
}

// Defaults mirror the constants of the original tool: 1s poll interval,
// 100 entries per page.
const (
	DefaultPollInterval = 1 * time.Second
	DefaultPageSize     = 100
)

// Load reads configuration from cfgFile if given, otherwise from
// $HOME/.config/gcloud-logs/config.yaml and the working directory.
// GCLOUD_LOGS_* environment variables override file values. A missing file
// is fine; a malformed one is an error.
func Load(cfgFile string) (*Config, error) {
	v := viper.New()

	v.SetDefault("project", "")
	v.SetDefault("poll_interval", DefaultPollInterval.String())
	v.SetDefault("page_size", DefaultPageSize)
	v.SetDefault("log.level", "warn")
	v.SetDefault("log.dir", defaultLogDir())
	v.SetDefault("log.to_file", false)

	v.SetEnvPrefix("GCLOUD_LOGS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", "gcloud-logs"))
		}
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		// no config file is the common case; an unreadable one is not
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			return nil, cliErrors.NewConfigInvalidError("failed to read config file", err)
		}
	}

	interval, err := time.ParseDuration(v.GetString("poll_interval"))
	if err != nil {
		return nil, cliErrors.NewConfigValidationError("poll_interval", v.GetString("poll_interval"), "must be a duration like 1s or 500ms")
	}

	cfg := &Config{
		Project:      v.GetString("project"),
		PollInterval: interval,
		PageSize:     v.GetInt("page_size"),
		LogLevel:     v.GetString("log.level"),
		LogDir:       v.GetString("log.dir"),
		LogToFile:    v.GetBool("log.to_file"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the loaded values.
func (c *Config) Validate() error {
	if c.PollInterval <= 0 {
		return cliErrors.NewConfigValidationError("poll_interval", c.PollInterval, "must be positive")
	}
	if c.PageSize <= 0 {
		return cliErrors.NewConfigValidationError("page_size", c.PageSize, "must be positive")
	}
	return nil
}

func defaultLogDir() string {
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, ".cache", "gcloud-logs")
	}
	return "logs"
}

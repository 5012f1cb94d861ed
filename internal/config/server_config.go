package config

import (
	"errors"
	"fmt"
	"github.com/spf13/viper"
	"strings"
	"time"
)

type ServerConfig struct {
	Port                 int           `mapstructure:"port"`
	BasePath             string        `mapstructure:"base_path"`
	DBPath               string        `mapstructure:"db_path"`
	UploadsDir           string        `mapstructure:"uploads_dir"`
	UploadsRetentionDays int           `mapstructure:"uploads_retention_days"`
	CacheTTL             time.Duration `mapstructure:"cache_ttl"`
}

func (config ServerConfig) Address() string {
	return fmt.Sprintf(":%d", config.Port)
}

func (config ServerConfig) validate() error {
	var errs []error

	if config.Port <= 0 || config.Port > 65535 {
		errs = append(errs, fmt.Errorf("invalid port: %d", config.Port))
	}
	if !strings.HasPrefix(config.BasePath, "/") || strings.HasSuffix(config.BasePath, "/") {
		errs = append(errs, fmt.Errorf("base_path must start and must not end with '/': %q", config.BasePath))
	}
	if config.DBPath == "" {
		errs = append(errs, fmt.Errorf("missing variable: db_path"))
	}
	if config.UploadsDir == "" {
		errs = append(errs, fmt.Errorf("missing variable: uploads_dir"))
	}
	if config.UploadsRetentionDays <= 0 {
		errs = append(errs, fmt.Errorf("uploads_retention_days must be greater than zero"))
	}

	if len(errs) > 0 {
		return fmt.Errorf("multiple errors occurred: %w", errors.Join(errs...))
	}

	return nil
}

func (config ServerConfig) bindEnvironmentVariables() error {

	err := viper.BindEnv("server.port", "PORT")
	if err != nil {
		return err
	}

	err = viper.BindEnv("server.db_path", "SERVER_DB_PATH")
	if err != nil {
		return err
	}

	return viper.BindEnv("server.uploads_dir", "UPLOADS_DIR")
}

package config

import (
	"errors"
	"fmt"
	"github.com/spf13/viper"
	"strings"
	"time"
)

type StorageConfig struct {
	// RemoteURI is the document database connection string. Its presence is what turns the
	// remote backend on; the client itself only talks to APIURL.
	RemoteURI            string        `mapstructure:"remote_uri"`
	APIURL               string        `mapstructure:"api_url"`
	Timeout              time.Duration `mapstructure:"timeout"`
	LocalPath            string        `mapstructure:"local_path"`
	MaxRequestsPerSecond float32       `mapstructure:"max_requests_per_second"`
}

func (config StorageConfig) RemoteEnabled() bool {
	return config.RemoteURI != "" && config.APIURL != ""
}

func (config StorageConfig) validate() error {

	var missingFields []string

	if config.LocalPath == "" {
		missingFields = append(missingFields, "local_path")
	}

	if len(missingFields) > 0 {
		return fmt.Errorf("missing required variables: %s", strings.Join(missingFields, ", "))
	}

	if config.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive, got %v", config.Timeout)
	}

	if config.MaxRequestsPerSecond < 0 {
		return errors.New("max_requests_per_second must be non-negative")
	}

	return nil
}

func (config StorageConfig) bindEnvironmentVariables() error {
	var errs []error
	if err := viper.BindEnv("storage.remote_uri", "MONGODB_URI"); err != nil {
		errs = append(errs, err)
	}

	if err := viper.BindEnv("storage.api_url", "API_URL"); err != nil {
		errs = append(errs, err)
	}

	if err := viper.BindEnv("storage.timeout", "STORAGE_TIMEOUT"); err != nil {
		errs = append(errs, err)
	}

	if err := viper.BindEnv("storage.local_path", "LOCAL_STORE_PATH"); err != nil {
		errs = append(errs, err)
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	return nil
}

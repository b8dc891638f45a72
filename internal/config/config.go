package config

import (
	"errors"
	"fmt"

	"github.com/spf13/viper"
)

// Defaults for the optional settings. DATABASE_URL has no default on
// purpose: connection credentials must come from the environment.
const (
	DefaultPort        = 8080
	DefaultDatasetPath = "data/stations.csv"
	DefaultUploadDir   = "uploads"
	DefaultCORSOrigin  = "http://localhost:5173"
)

// Config holds the service settings, read from environment variables.
type Config struct {
	Port        int
	DatasetPath string
	UploadDir   string
	CORSOrigin  string
	DatabaseURL string
}

// Load reads configuration from the environment (PORT, DATASET_PATH,
// UPLOAD_DIR, CORS_ORIGIN, DATABASE_URL), applies defaults, and validates.
func Load() (*Config, error) {
	v := viper.New()

	v.SetDefault("port", DefaultPort)
	v.SetDefault("dataset_path", DefaultDatasetPath)
	v.SetDefault("upload_dir", DefaultUploadDir)
	v.SetDefault("cors_origin", DefaultCORSOrigin)

	v.AutomaticEnv()

	for _, key := range []string{"port", "dataset_path", "upload_dir", "cors_origin", "database_url"} {
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("bind env %s: %w", key, err)
		}
	}

	cfg := &Config{
		Port:        v.GetInt("port"),
		DatasetPath: v.GetString("dataset_path"),
		UploadDir:   v.GetString("upload_dir"),
		CORSOrigin:  v.GetString("cors_origin"),
		DatabaseURL: v.GetString("database_url"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate rejects configurations the server must not start with.
func (c *Config) Validate() error {
	if c.DatabaseURL == "" {
		return errors.New("DATABASE_URL is required and has no default")
	}

	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d", c.Port)
	}

	if c.DatasetPath == "" {
		return errors.New("DATASET_PATH must not be empty")
	}

	if c.UploadDir == "" {
		return errors.New("UPLOAD_DIR must not be empty")
	}

	return nil
}

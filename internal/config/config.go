package config

import (
	"fmt"

	"github.com/kelseyhightower/envconfig"
)

// Config holds all runtime settings, populated from CHOREBANK_* environment
// variables.
type Config struct {
	Port      string `envconfig:"PORT" default:"8080"`
	DBPath    string `envconfig:"DB_PATH" default:"chorebank.db"`
	JWTSecret string `envconfig:"JWT_SECRET" required:"true"`
	LogLevel  string `envconfig:"LOG_LEVEL" default:"info"`
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("chorebank", &cfg); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return &cfg, nil
}

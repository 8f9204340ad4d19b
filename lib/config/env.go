package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
)

const (
	EnvConfig   = "HAPPLAY_CONFIG"
	EnvLogLevel = "HAPPLAY_LOG_LEVEL"
	EnvApiBind  = "HAPPLAY_API_BIND"
)

// LoadEnv reads the given .env files into the environment. Variables that
// are already set win. Missing files are ignored.
func LoadEnv(files ...string) error {
	var existing []string
	for _, f := range files {
		if _, err := os.Stat(f); err == nil {
			existing = append(existing, f)
		}
	}
	if len(existing) == 0 {
		return nil
	}
	if err := godotenv.Load(existing...); err != nil {
		return fmt.Errorf("could not load environment: %w", err)
	}
	return nil
}

// ApplyEnv overrides config values from the environment.
func (c *Config) ApplyEnv() error {
	if level := os.Getenv(EnvLogLevel); level != "" {
		if c.Log == nil {
			c.Log = &LogCfg{}
		}
		c.Log.Level = level
		if err := c.Log.Validate(); err != nil {
			return fmt.Errorf("%s: %w", EnvLogLevel, err)
		}
	}
	if bind := os.Getenv(EnvApiBind); bind != "" {
		if c.Api == nil {
			c.Api = &ApiCfg{}
		}
		c.Api.Bind = bind
	}
	return nil
}

// Package config loads application configuration from an optional YAML file
// with environment-variable overrides. The loaded Config is an explicit value
// passed to the components that need it; there is no package-global state.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// ServerConfig holds HTTP listener settings.
type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

// DatabaseConfig holds SQLite settings.
type DatabaseConfig struct {
	Path string `mapstructure:"path"`
	Seed bool   `mapstructure:"seed"` // Insert development sample entries at startup.
}

// SessionConfig holds cookie session settings for flash messages.
type SessionConfig struct {
	Secret string `mapstructure:"secret"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level string `mapstructure:"level"` // debug, info, warn, error
}

// Config is the full application configuration.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Session  SessionConfig  `mapstructure:"session"`
	Log      LogConfig      `mapstructure:"log"`
}

// Addr returns the listen address in host:port form.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// Load reads configuration from the given file path. An empty path looks for
// config.yaml in the working directory; a missing file is not an error, the
// defaults apply. Environment variables prefixed with KIROKU_ override file
// values (e.g. KIROKU_SERVER_PORT=9000).
func Load(path string) (*Config, error) {
	v := viper.New()

	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("database.path", "data/diary.db")
	v.SetDefault("database.seed", false)
	v.SetDefault("session.secret", "kiroku-dev-secret")
	v.SetDefault("log.level", "info")

	if path == "" {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	} else {
		v.SetConfigFile(path)
	}

	v.SetEnvPrefix("KIROKU")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		// A missing default config file is fine; an explicit path must exist.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok || path != "" {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return &c, nil
}

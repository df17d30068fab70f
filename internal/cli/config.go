// Package cli provides shared configuration and utilities for the aegis CLI.
package cli

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

const maxWalkDepth = 25

// Config represents the aegis configuration from aegis.yaml.
type Config struct {
	// Storage configures the Storage implementations that can back the
	// engine. Backend is loaded but not consulted: the CLI uses the memstore
	// fixture whenever a fixture path is set (flag or config) and
	// PostgreSQL otherwise.
	Storage StorageConfig `mapstructure:"storage"`

	// Trace holds tracing-channel settings loaded from the config. No CLI
	// command reads them: `aegis check` runs without tracing and
	// `aegis trace` enables every channel.
	Trace TraceConfig `mapstructure:"trace"`

	Doctor DoctorConfig `mapstructure:"doctor"`
}

// StorageConfig selects and configures the Storage backend.
type StorageConfig struct {
	Backend  string         `mapstructure:"backend"`
	Database DatabaseConfig `mapstructure:"database"`
	Memstore MemstoreConfig `mapstructure:"memstore"`
}

// DatabaseConfig holds PostgreSQL connection settings for storage/pgstore.
type DatabaseConfig struct {
	URL      string `mapstructure:"url"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Name     string `mapstructure:"name"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	SSLMode  string `mapstructure:"sslmode"`
	Driver   string `mapstructure:"driver"`
}

// MemstoreConfig points at a YAML fixture file loaded into storage/memstore.
type MemstoreConfig struct {
	FixturePath string `mapstructure:"fixture_path"`
}

// TraceConfig toggles the engine's three diagnostic channels.
type TraceConfig struct {
	ACL   bool `mapstructure:"acl"`
	Group bool `mapstructure:"group"`
	Info  bool `mapstructure:"info"`
}

// DoctorConfig holds doctor command settings.
type DoctorConfig struct {
	Verbose bool `mapstructure:"verbose"`
}

// LoadConfig discovers and loads configuration with proper precedence:
// flags > env > config file > defaults.
//
// Returns the loaded config, the path to the config file (empty if none
// found), and any error encountered.
func LoadConfig(explicitConfigPath string) (*Config, string, error) {
	v := viper.New()

	setDefaults(v)

	v.SetEnvPrefix("AEGIS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	configPath, err := findConfigFile(explicitConfigPath)
	if err != nil {
		return nil, "", err
	}

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, configPath, fmt.Errorf("reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, configPath, fmt.Errorf("unmarshaling config: %w", err)
	}

	return &cfg, configPath, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("storage.backend", "postgres")
	v.SetDefault("storage.database.url", "")
	v.SetDefault("storage.database.host", "")
	v.SetDefault("storage.database.port", 5432)
	v.SetDefault("storage.database.name", "")
	v.SetDefault("storage.database.user", "")
	v.SetDefault("storage.database.password", "")
	v.SetDefault("storage.database.sslmode", "prefer")
	v.SetDefault("storage.database.driver", "pgx")
	v.SetDefault("storage.memstore.fixture_path", "")

	v.SetDefault("trace.acl", false)
	v.SetDefault("trace.group", false)
	v.SetDefault("trace.info", false)

	v.SetDefault("doctor.verbose", false)
}

// findConfigFile finds the config file to use.
// If explicitPath is provided, it validates the file exists.
// Otherwise, it walks up from cwd looking for aegis.yaml or aegis.yml,
// stopping at a .git directory or after maxWalkDepth levels.
func findConfigFile(explicitPath string) (string, error) {
	if explicitPath != "" {
		if _, err := os.Stat(explicitPath); err != nil {
			return "", fmt.Errorf("config file not found: %s", explicitPath)
		}
		return explicitPath, nil
	}

	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("getting cwd: %w", err)
	}

	dir := cwd
	for i := 0; i < maxWalkDepth; i++ {
		for _, name := range []string{"aegis.yaml", "aegis.yml"} {
			path := filepath.Join(dir, name)
			if _, err := os.Stat(path); err == nil {
				return path, nil
			}
		}

		gitPath := filepath.Join(dir, ".git")
		if _, err := os.Stat(gitPath); err == nil {
			break
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return "", nil
}

// DSN returns the database connection string for the postgres backend.
// If storage.database.url is set, it's returned directly. Otherwise, a DSN
// is built from discrete fields.
func (c *Config) DSN() (string, error) {
	db := c.Storage.Database

	if db.URL != "" {
		return db.URL, nil
	}

	if db.Host == "" {
		return "", fmt.Errorf("storage.database.host is required when storage.database.url is not set")
	}
	if db.Name == "" {
		return "", fmt.Errorf("storage.database.name is required when storage.database.url is not set")
	}
	if db.User == "" {
		return "", fmt.Errorf("storage.database.user is required when storage.database.url is not set")
	}

	u := &url.URL{
		Scheme: "postgres",
		Host:   fmt.Sprintf("%s:%d", db.Host, db.Port),
		Path:   "/" + db.Name,
	}

	if db.Password != "" {
		u.User = url.UserPassword(db.User, db.Password)
	} else {
		u.User = url.User(db.User)
	}

	if db.SSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.SSLMode)
		u.RawQuery = q.Encode()
	}

	return u.String(), nil
}

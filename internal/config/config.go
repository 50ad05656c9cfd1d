package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Reconnect ReconnectConfig `yaml:"reconnect"`
	Catalog   CatalogConfig   `yaml:"catalog"`
	Archive   ArchiveConfig   `yaml:"archive"`
	Bus       BusConfig       `yaml:"bus"`
}

type ServerConfig struct {
	URL       string `yaml:"url"`
	Transport string `yaml:"transport"` // sse | post | websocket
}

type ReconnectConfig struct {
	MaxAttempts int           `yaml:"max_attempts"`
	BaseDelay   time.Duration `yaml:"base_delay"`
}

type CatalogConfig struct {
	Path  string `yaml:"path"`
	Watch bool   `yaml:"watch"`
}

type ArchiveConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

type BusConfig struct {
	Enabled bool   `yaml:"enabled"`
	URL     string `yaml:"url"` // join an external bus instead of embedding one
	Port    int    `yaml:"port"`
	DataDir string `yaml:"data_dir"`
}

func defaults() Config {
	return Config{
		Server: ServerConfig{
			Transport: "sse",
		},
		Reconnect: ReconnectConfig{
			MaxAttempts: 3,
			BaseDelay:   time.Second,
		},
		Catalog: CatalogConfig{
			Path:  "config/agents.yaml",
			Watch: true,
		},
		Archive: ArchiveConfig{
			Enabled: true,
			Path:    "data/skopos.db",
		},
		Bus: BusConfig{
			Port:    4222,
			DataDir: "data/bus",
		},
	}
}

func Load() (*Config, error) {
	cfg := defaults()

	path := os.Getenv("SKOPOS_CONFIG")
	if path == "" {
		path = "config/skopos.yaml"
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("read config: %w", err)
		}
		// Config file not found, use defaults + env
	} else {
		// Expand environment variables in YAML
		expanded := os.ExpandEnv(string(data))
		if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	// Environment variable overrides
	applyEnv(&cfg)

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) validate() error {
	switch c.Server.Transport {
	case "sse", "post", "websocket":
	default:
		return fmt.Errorf("unknown transport %q", c.Server.Transport)
	}
	if c.Reconnect.MaxAttempts < 0 {
		return fmt.Errorf("reconnect max_attempts must not be negative")
	}
	return nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("SKOPOS_SERVER_URL"); v != "" {
		cfg.Server.URL = v
	}
	if v := os.Getenv("SKOPOS_TRANSPORT"); v != "" {
		cfg.Server.Transport = v
	}
	if v := os.Getenv("SKOPOS_CATALOG_PATH"); v != "" {
		cfg.Catalog.Path = v
	}
	if v := os.Getenv("SKOPOS_ARCHIVE_PATH"); v != "" {
		cfg.Archive.Path = v
	}
	if v := os.Getenv("SKOPOS_BUS_URL"); v != "" {
		cfg.Bus.URL = v
	}
	if v := os.Getenv("SKOPOS_BUS_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Bus.Port = port
		}
	}
	if v := os.Getenv("SKOPOS_RECONNECT_ATTEMPTS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Reconnect.MaxAttempts = n
		}
	}
}

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"go.yaml.in/yaml/v3"
)

// DefaultDevice is the control node used when nothing else is configured.
const DefaultDevice = "/dev/cdc-wdm0"

// DefaultOpenTimeout bounds the MBIM OPEN handshake.
const DefaultOpenTimeout = 15 * time.Second

// CommandTimeout is the completion timeout for every phonebook command.
const CommandTimeout = 10 * time.Second

// Config holds settings that can come from the config file. Command-line
// flags and environment variables override them.
type Config struct {
	Device      string        `yaml:"device"`
	Verbose     bool          `yaml:"verbose"`
	OpenTimeout time.Duration `yaml:"open_timeout"`
	NoOpen      bool          `yaml:"no_open"`
	NoClose     bool          `yaml:"no_close"`
	NoProgress  bool          `yaml:"no_progress"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Device:      DefaultDevice,
		OpenTimeout: DefaultOpenTimeout,
	}
}

// DefaultPath returns $XDG_CONFIG_HOME/mbim/config.yaml, or the platform
// equivalent. It returns "" when no config directory can be determined.
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "mbim", "config.yaml")
}

// Load reads path on top of the defaults. A missing file is not an error
// unless required is set, so the default location can be probed silently.
func Load(path string, required bool) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) && !required {
			return cfg, nil
		}
		return cfg, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config %s: %w", path, err)
	}

	if cfg.Device == "" {
		cfg.Device = DefaultDevice
	}
	if cfg.OpenTimeout <= 0 {
		cfg.OpenTimeout = DefaultOpenTimeout
	}
	return cfg, nil
}

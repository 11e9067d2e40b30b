// Package config provides configuration types, defaults and loading for
// location-marker.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// EnvPrefix is prepended to environment overrides, e.g. LOCMARK_ITEM_PER_PAGE
const EnvPrefix = "LOCMARK"

// Config holds all configuration options
type Config struct {
	TeleportHintOnCoordinate bool   `mapstructure:"teleport_hint_on_coordinate"`
	ItemPerPage              int    `mapstructure:"item_per_page"`
	DisplayVoxelWaypoint     bool   `mapstructure:"display_voxel_waypoint"`
	DisplayXaeroWaypoint     bool   `mapstructure:"display_xaero_waypoint"`
	DataDir                  string `mapstructure:"data_dir"`
	StorageFile              string `mapstructure:"storage_file"`
	LogLevel                 string `mapstructure:"log_level"` // debug, info, warn, error
}

// Defaults returns a Config with the stock values
func Defaults() Config {
	return Config{
		TeleportHintOnCoordinate: true,
		ItemPerPage:              10,
		DisplayVoxelWaypoint:     true,
		DisplayXaeroWaypoint:     true,
		DataDir:                  filepath.Join("config", "location_marker"),
		StorageFile:              "locations.json",
		LogLevel:                 "info",
	}
}

// StoragePath is where the registry file lives
func (c Config) StoragePath() string {
	if filepath.IsAbs(c.StorageFile) {
		return c.StorageFile
	}
	return filepath.Join(c.DataDir, c.StorageFile)
}

// SlogLevel maps LogLevel onto slog. Unknown values were rejected by Validate.
func (c Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Validate checks value ranges
func (c Config) Validate() error {
	if c.ItemPerPage < 1 {
		return fmt.Errorf("item_per_page must be at least 1, got %d", c.ItemPerPage)
	}
	if c.StorageFile == "" {
		return errors.New("storage_file is required")
	}
	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("log_level must be one of debug, info, warn, error, got %q", c.LogLevel)
	}
	return nil
}

// NewViper returns a viper instance with defaults and env overrides bound
func NewViper() *viper.Viper {
	v := viper.New()
	d := Defaults()
	v.SetDefault("teleport_hint_on_coordinate", d.TeleportHintOnCoordinate)
	v.SetDefault("item_per_page", d.ItemPerPage)
	v.SetDefault("display_voxel_waypoint", d.DisplayVoxelWaypoint)
	v.SetDefault("display_xaero_waypoint", d.DisplayXaeroWaypoint)
	v.SetDefault("data_dir", d.DataDir)
	v.SetDefault("storage_file", d.StorageFile)
	v.SetDefault("log_level", d.LogLevel)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	return v
}

// Load reads the config file at path. A missing file is created from the
// default template first. An empty path skips the file and uses defaults
// plus environment overrides.
func Load(path string) (Config, error) {
	v := NewViper()

	if path != "" {
		if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
			// the template is YAML; other formats are never generated
			if !isYAML(path) {
				return FromViper(v)
			}
			if err := WriteDefaultConfig(path); err != nil {
				return Config{}, err
			}
		}
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("reading config %s: %w", path, err)
		}
	}

	return FromViper(v)
}

// FromViper decodes and validates the settings held by v
func FromViper(v *viper.Viper) (Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decoding config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func isYAML(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return true
	}
	return false
}

// DefaultConfigTemplate returns the default config as YAML with comments
func DefaultConfigTemplate() string {
	return `# location-marker configuration

# Waypoints listed per page by "list <page>" and "search <keyword> <page>"
item_per_page: 10

# Suggest a teleport command when a coordinate is shown
teleport_hint_on_coordinate: true

# Append minimap waypoint shortcuts to every listed location
display_voxel_waypoint: true
display_xaero_waypoint: true

# Where the waypoint file is kept. storage_file may be absolute.
# A .yaml/.yml extension switches the file to YAML.
data_dir: config/location_marker
storage_file: locations.json

# debug, info, warn or error
log_level: info
`
}

// WriteDefaultConfig creates a config file at configPath with default
// settings and comments, creating the parent directory if needed.
func WriteDefaultConfig(configPath string) error {
	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	if err := os.WriteFile(configPath, []byte(DefaultConfigTemplate()), 0o600); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}

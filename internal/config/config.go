// Package config loads collection session configuration.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/banshee-data/lidar2d/internal/serialport"
)

// EnvPrefix prefixes environment overrides, e.g. LIDAR2D_PORT.
const EnvPrefix = "LIDAR2D"

const maxFileSize = 1 * 1024 * 1024 // 1MB

var supportedExts = map[string]bool{".json": true, ".toml": true, ".yaml": true, ".yml": true}

// SessionConfig is the full set of options for one collection run. Serial
// line keys (baud_rate, data_bits, stop_bits, parity, read_timeout) sit at the
// top level of the file next to the session keys.
type SessionConfig struct {
	serialport.PortOptions `mapstructure:",squash"`

	Port string `mapstructure:"port"`
	// CollectionDurationS bounds the run in seconds. 0 is not an empty run:
	// it collects until interrupted or the source ends, as stream mode does.
	CollectionDurationS float64 `mapstructure:"collection_duration_s"`
	// MaxRadiusM keeps points at most this far away, inclusive. 0 disables
	// the filter and keeps every point.
	MaxRadiusM float64 `mapstructure:"max_radius_m"`
	// MaxScanReads bounds the non-header bytes skipped per header scan. 0
	// removes the bound.
	MaxScanReads int `mapstructure:"max_scan_reads"`

	// Outputs; empty disables each one.
	DBPath      string `mapstructure:"db_path"`
	PNGPath     string `mapstructure:"png_path"`
	HTMLPath    string `mapstructure:"html_path"`
	MetricsPath string `mapstructure:"metrics_path"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("port", "/dev/ttyUSB0")
	v.SetDefault("baud_rate", serialport.DefaultBaudRate)
	v.SetDefault("data_bits", 8)
	v.SetDefault("stop_bits", 1)
	v.SetDefault("parity", "N")
	v.SetDefault("read_timeout", serialport.DefaultReadTimeout.String())
	v.SetDefault("collection_duration_s", 10.0)
	v.SetDefault("max_radius_m", 10.0)
	v.SetDefault("max_scan_reads", 4096)
	v.SetDefault("db_path", "")
	v.SetDefault("png_path", "")
	v.SetDefault("html_path", "")
	v.SetDefault("metrics_path", "")
}

// Default returns the configuration used when no file or environment
// overrides are present.
func Default() *SessionConfig {
	cfg, err := Load("")
	if err != nil {
		// defaults are static and always valid
		panic(err)
	}
	return cfg
}

// Load reads configuration from path (JSON, TOML or YAML, chosen by
// extension), applies LIDAR2D_* environment overrides on top, and validates
// the result. An empty path loads defaults plus environment only.
func Load(path string) (*SessionConfig, error) {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()

	if path != "" {
		cleanPath := filepath.Clean(path)
		ext := strings.ToLower(filepath.Ext(cleanPath))
		if !supportedExts[ext] {
			return nil, fmt.Errorf("config file must be .json, .toml or .yaml, got %q", ext)
		}

		info, err := os.Stat(cleanPath)
		if err != nil {
			return nil, fmt.Errorf("failed to stat config file: %w", err)
		}
		if info.Size() > maxFileSize {
			return nil, fmt.Errorf("config file too large: %d bytes (max %d)", info.Size(), maxFileSize)
		}

		v.SetConfigFile(cleanPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg SessionConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// Validate checks that the configuration values are usable.
func (c *SessionConfig) Validate() error {
	if strings.TrimSpace(c.Port) == "" {
		return errors.New("port is required")
	}
	if c.CollectionDurationS < 0 {
		return fmt.Errorf("collection_duration_s must not be negative, got %g", c.CollectionDurationS)
	}
	if c.MaxRadiusM < 0 {
		return fmt.Errorf("max_radius_m must not be negative, got %g", c.MaxRadiusM)
	}
	if c.MaxScanReads < 0 {
		return fmt.Errorf("max_scan_reads must not be negative, got %d", c.MaxScanReads)
	}
	if _, err := c.PortOptions.Normalise(); err != nil {
		return err
	}
	return nil
}

// CollectionDuration returns the collection bound as a time.Duration. Zero
// means collect until cancelled.
func (c *SessionConfig) CollectionDuration() time.Duration {
	return time.Duration(c.CollectionDurationS * float64(time.Second))
}

// Package config loads the GalleryConfig record (spec.md §3) via viper,
// following the search-path and defaults idiom of the teacher's
// internal/core/config.go.
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"syscall"

	"github.com/spf13/viper"

	"github.com/olereon/galleryharvest/internal/logging"
	"github.com/olereon/galleryharvest/internal/models"
)

const (
	// DefaultConfigFile is where a config is auto-generated if none exists
	// and none was specified.
	DefaultConfigFile = "configs/gallery.yaml"

	// MaxConfigFileSize caps config files at 1MB, same bound the teacher
	// applied to its header config.
	MaxConfigFileSize = 1 * 1024 * 1024
)

//go:embed gallery_template.yaml
var defaultTemplate string

// Loader loads, validates and decodes the GalleryConfig from a YAML file,
// auto-creating it from the embedded template on first run.
type Loader struct {
	configPath string
}

func NewLoader(configPath string) *Loader {
	if configPath == "" {
		configPath = DefaultConfigFile
	}
	return &Loader{configPath: configPath}
}

// EnsureConfigExists writes the embedded template to configPath if nothing
// is there yet.
func (l *Loader) EnsureConfigExists() error {
	if _, err := os.Stat(l.configPath); os.IsNotExist(err) {
		dir := filepath.Dir(l.configPath)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("cannot create config directory [%s]: %w", dir, err)
		}
		if err := os.WriteFile(l.configPath, []byte(defaultTemplate), 0644); err != nil {
			return fmt.Errorf("cannot write config template [%s]: %w", l.configPath, err)
		}
	}
	return nil
}

// ValidateFileSize rejects configs larger than MaxConfigFileSize — an
// oversized config is almost always a mistaken path, not a real one.
func (l *Loader) ValidateFileSize() error {
	info, err := os.Stat(l.configPath)
	if err != nil {
		return fmt.Errorf("cannot stat config file [%s]: %w", l.configPath, err)
	}
	if info.Size() > MaxConfigFileSize {
		return &models.ConfigError{
			FilePath: l.configPath,
			Cause:    fmt.Errorf("config file too large: %d bytes (max %d)", info.Size(), MaxConfigFileSize),
		}
	}
	return nil
}

// Load runs the full sequence: ensure-exists, validate size, parse via
// viper, decode into GalleryConfig, apply defaults, then validate.
func (l *Loader) Load() (*models.GalleryConfig, error) {
	if err := l.EnsureConfigExists(); err != nil {
		return nil, err
	}
	if err := l.ValidateFileSize(); err != nil {
		return nil, err
	}

	v := viper.New()
	v.SetConfigFile(l.configPath)
	v.SetConfigType("yaml")
	applyDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		// A config file locked by another process degrades gracefully to
		// defaults rather than aborting the run, following the teacher's
		// EAGAIN/EWOULDBLOCK handling in internal/config/headers.go.
		if errors.Is(err, syscall.EAGAIN) || errors.Is(err, syscall.EWOULDBLOCK) {
			logging.Warnf("config file locked [%s], using defaults", l.configPath)
			defaults := models.DefaultGalleryConfig()
			return &defaults, nil
		}
		return nil, &models.ConfigError{FilePath: l.configPath, Cause: err}
	}

	cfg := models.DefaultGalleryConfig()
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, &models.ConfigError{
			FilePath: l.configPath,
			Cause:    fmt.Errorf("config decode failed: %w", err),
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, &models.ConfigError{FilePath: l.configPath, Cause: err}
	}

	return &cfg, nil
}

// SearchPaths mirrors the teacher's multi-location config discovery list.
// Neither the CLI nor Loader calls it: Loader reads only the configPath it
// was given.
func SearchPaths() []string {
	paths := []string{"./configs", "."}
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".galleryharvest"))
	}
	return paths
}

func applyDefaults(v *viper.Viper) {
	d := models.DefaultGalleryConfig()
	v.SetDefault("downloads_folder", d.DownloadsFolder)
	v.SetDefault("logs_folder", d.LogsFolder)
	v.SetDefault("max_downloads", d.MaxDownloads)
	v.SetDefault("duplicate_mode", string(d.DuplicateMode))
	v.SetDefault("min_scroll_distance", d.MinScrollDistance)
	v.SetDefault("max_scroll_attempts", d.MaxScrollAttempts)
	v.SetDefault("max_consecutive_scroll_failures", d.MaxConsecutiveScrollFailures)
	v.SetDefault("consecutive_duplicate_limit", d.ConsecutiveDuplicateLimit)
	v.SetDefault("max_consecutive_extraction_failures", d.MaxConsecutiveExtractionFailures)
	v.SetDefault("dom_wait_timeout_ms", d.DOMWaitTimeoutMS)
	v.SetDefault("download_timeout_ms", d.DownloadTimeoutMS)
	v.SetDefault("retry_attempts", d.RetryAttempts)
	v.SetDefault("retry_delay_ms", d.RetryDelayMS)
	v.SetDefault("headless", d.Headless)
	v.SetDefault("viewport_width", d.ViewportWidth)
	v.SetDefault("viewport_height", d.ViewportHeight)
}

// LoggingConfig extracts the subset of an on-disk config that pertains to
// logging, following the teacher's nested LoggingConfig/RotationConfig
// shape. Only ever set via the top-level "logging" key, kept separate from
// GalleryConfig because it is consumed once at startup, not by the
// pipeline.
type LoggingConfig struct {
	Level    string `mapstructure:"level"`
	LogDir   string `mapstructure:"log_dir"`
	Rotation struct {
		MaxSize    int  `mapstructure:"max_size"`
		MaxBackups int  `mapstructure:"max_backups"`
		MaxAge     int  `mapstructure:"max_age"`
		Compress   bool `mapstructure:"compress"`
	} `mapstructure:"rotation"`
}

// LoadLogging decodes the "logging" section of the same config file, with
// the same defaults logging.DefaultConfig would apply.
func (l *Loader) LoadLogging() (LoggingConfig, error) {
	v := viper.New()
	v.SetConfigFile(l.configPath)
	v.SetConfigType("yaml")
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.log_dir", "logs")
	v.SetDefault("logging.rotation.max_size", 10)
	v.SetDefault("logging.rotation.max_backups", 3)
	v.SetDefault("logging.rotation.max_age", 28)
	v.SetDefault("logging.rotation.compress", true)

	var lc LoggingConfig
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return lc, err
		}
	}
	if err := v.UnmarshalKey("logging", &lc); err != nil {
		return lc, err
	}
	return lc, nil
}

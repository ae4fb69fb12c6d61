package core

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/jo-hoe/goclipart/internal/artwork"
	"github.com/jo-hoe/goclipart/internal/common"
	"github.com/jo-hoe/goclipart/internal/profile"
	"gopkg.in/yaml.v3"
)

type Journal struct {
	Type             string `yaml:"type" validate:"required,oneof=sqlite redis"`
	ConnectionString string `yaml:"connectionString" validate:"required"`
}

type ServiceConfig struct {
	Port           int     `yaml:"port" validate:"min=0,max=65535"`
	LogLevel       string  `yaml:"logLevel" validate:"omitempty,oneof=debug info warn error"`
	ActivitiesRoot string  `yaml:"activitiesRoot"`
	ThumbnailSize  int     `yaml:"thumbnailSize" validate:"min=1,max=1024"`
	IconColor      string  `yaml:"iconColor" validate:"required"`
	Journal        Journal `yaml:"journal"`
}

func DefaultConfig() *ServiceConfig {
	return &ServiceConfig{
		Port:          8080,
		LogLevel:      "info",
		ThumbnailSize: artwork.DefaultThumbnailSize,
		IconColor:     profile.DefaultColor,
		Journal: Journal{
			Type:             "sqlite",
			ConnectionString: "journal.db",
		},
	}
}

// LoadConfig reads the YAML file at configPath on top of DefaultConfig.
// A missing file yields the defaults.
func LoadConfig(configPath string) (*ServiceConfig, error) {
	config := DefaultConfig()

	data, err := os.ReadFile(configPath)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		slog.Info("config file not found, using defaults", "path", configPath)
	case err != nil:
		return nil, fmt.Errorf("failed to read config file %s: %w", configPath, err)
	default:
		if err := yaml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", configPath, err)
		}
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration in %s: %w", configPath, err)
	}
	return config, nil
}

func (c *ServiceConfig) Validate() error {
	if err := common.ValidateStruct(c); err != nil {
		return err
	}
	if _, err := profile.ParseXoColor(c.IconColor); err != nil {
		return err
	}
	return nil
}

// ResolveActivitiesRoot returns the configured root as an absolute path, or
// <home>/Activities when none is configured. Relative roots are taken from the
// working directory.
func (c *ServiceConfig) ResolveActivitiesRoot(homeDir func() (string, error)) (string, error) {
	if root := strings.TrimSpace(c.ActivitiesRoot); root != "" {
		abs, err := filepath.Abs(root)
		if err != nil {
			return "", fmt.Errorf("failed to resolve activities root %s: %w", root, err)
		}
		return abs, nil
	}
	home, err := homeDir()
	if err != nil {
		return "", fmt.Errorf("failed to determine home directory: %w", err)
	}
	return filepath.Join(home, "Activities"), nil
}

// SlogLevel maps LogLevel to a slog level, defaulting to info.
func (c *ServiceConfig) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

package configuration

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"ssal/internal/configuration/properties"
	"ssal/internal/configuration/util"

	"gopkg.in/yaml.v3"
)

const DefaultConfigDir = "internal/static"

var ErrInvalidConfig = errors.New("invalid configuration")

// Load reads application.yml from dir and overlays application-<profile>.yml.
// A non-empty profile argument takes precedence over app.profile.
func Load(dir, profile string) (*properties.Config, error) {
	cfg, err := loadBaseConfig(dir)
	if err != nil {
		return nil, err
	}

	if profile != "" {
		cfg.Application.Profile = profile
	}

	if cfg.Application.Profile != "" {
		if err := loadProfileConfig(dir, cfg); err != nil {
			return nil, err
		}
	}

	if err := Validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

func loadBaseConfig(dir string) (*properties.Config, error) {
	baseConfig, err := util.LoadAndExpandYaml(dir, "application")
	if err != nil {
		slog.Error("Error loading base config", "Error", err.Error())
		return nil, err
	}

	cfg := properties.Config{}
	if err := yaml.Unmarshal([]byte(baseConfig), &cfg); err != nil {
		slog.Error("Error parsing base config", "Error", err.Error())
		return nil, fmt.Errorf("unmarshal base config: %w", err)
	}

	return &cfg, nil
}

func loadProfileConfig(dir string, cfg *properties.Config) error {
	profile := cfg.Application.Profile
	profileConfig, err := util.LoadAndExpandYaml(dir, "application-"+profile)
	if err != nil {
		slog.Error("Error loading profile config", "profile", profile, "Error", err.Error())
		return err
	}

	if err := yaml.Unmarshal([]byte(profileConfig), cfg); err != nil {
		slog.Error("Error parsing profile config", "profile", profile, "Error", err.Error())
		return fmt.Errorf("unmarshal profile config: %w", err)
	}

	// The overlay may not unset the profile it was loaded for.
	cfg.Application.Profile = profile

	return nil
}

func Validate(cfg *properties.Config) error {
	if cfg.Transport.Port == "" {
		return fmt.Errorf("%w: transport.port is required", ErrInvalidConfig)
	}
	if cfg.Transport.Network == "" {
		cfg.Transport.Network = "tcp"
	}

	switch strings.ToLower(cfg.Store.Engine) {
	case "", "memory":
	case "wal", "bolt", "leveldb":
		if cfg.Store.Dir == "" {
			return fmt.Errorf("%w: store.dir is required for engine %q", ErrInvalidConfig, cfg.Store.Engine)
		}
	default:
		return fmt.Errorf("%w: unknown store.engine %q", ErrInvalidConfig, cfg.Store.Engine)
	}

	if cfg.Metrics.Enabled && cfg.Metrics.Port == "" {
		return fmt.Errorf("%w: metrics.port is required when metrics are enabled", ErrInvalidConfig)
	}

	return nil
}

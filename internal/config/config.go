package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/charmbracelet/log"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

type Settings struct {
	GameDir          string          `yaml:"game_dir" toml:"game_dir"`
	ModDir           string          `yaml:"mod_dir" toml:"mod_dir"`
	BackupDir        string          `yaml:"backup_dir" toml:"backup_dir"`
	CriticalCommands bool            `yaml:"critical_commands" toml:"critical_commands"`
	LogLevel         string          `yaml:"log_level" toml:"log_level"`
	Database         DatabaseConfig  `yaml:"database" toml:"database"`
	Telemetry        TelemetryConfig `yaml:"telemetry" toml:"telemetry"`
	Profiles         []Profile       `yaml:"profiles" toml:"profiles"`

	profileIndex map[string]*Profile
}

type DatabaseConfig struct {
	// DSN selects the install journal. Empty disables journalling.
	DSN string `yaml:"dsn" toml:"dsn"`
}

type TelemetryConfig struct {
	// Endpoint is an OTLP/HTTP trace endpoint. Empty disables tracing.
	Endpoint string `yaml:"endpoint" toml:"endpoint"`
}

// environment holds the variables that override the settings file. Unset
// variables keep the value already loaded.
type environment struct {
	GameDir          string `env:"WMI_GAME_DIR"`
	ModDir           string `env:"WMI_MOD_DIR"`
	BackupDir        string `env:"WMI_BACKUP_DIR"`
	CriticalCommands bool   `env:"WMI_CRITICAL_COMMANDS"`
	LogLevel         string `env:"WMI_LOG_LEVEL"`
	DatabaseDSN      string `env:"WMI_DATABASE_DSN"`
	OTelEndpoint     string `env:"WMI_OTEL_ENDPOINT"`
}

func Default() *Settings {
	return &Settings{
		GameDir:          ".",
		ModDir:           ".",
		BackupDir:        "backup",
		CriticalCommands: true,
		LogLevel:         "info",
	}
}

// Load reads settings from path, then applies WMI_* environment overrides.
// Files ending in .toml are read as TOML, anything else as YAML. A missing
// file is not an error: defaults are used instead.
func Load(path string) (*Settings, error) {
	settings := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("loading settings: %w", err)
		default:
			if err := unmarshal(path, data, settings); err != nil {
				return nil, fmt.Errorf("loading settings: %w", err)
			}
		}
	}

	if err := applyEnv(settings); err != nil {
		return nil, fmt.Errorf("loading settings: %w", err)
	}

	if err := validateSettings(settings); err != nil {
		return nil, fmt.Errorf("loading settings: %w", err)
	}
	settings.indexProfiles()

	return settings, nil
}

func applyEnv(s *Settings) error {
	overrides := environment{
		GameDir:          s.GameDir,
		ModDir:           s.ModDir,
		BackupDir:        s.BackupDir,
		CriticalCommands: s.CriticalCommands,
		LogLevel:         s.LogLevel,
		DatabaseDSN:      s.Database.DSN,
		OTelEndpoint:     s.Telemetry.Endpoint,
	}
	if err := env.Parse(&overrides); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	s.GameDir = overrides.GameDir
	s.ModDir = overrides.ModDir
	s.BackupDir = overrides.BackupDir
	s.CriticalCommands = overrides.CriticalCommands
	s.LogLevel = overrides.LogLevel
	s.Database.DSN = overrides.DatabaseDSN
	s.Telemetry.Endpoint = overrides.OTelEndpoint
	return nil
}

func validateSettings(s *Settings) error {
	if strings.TrimSpace(s.GameDir) == "" {
		return fmt.Errorf("game_dir is required")
	}
	if _, err := log.ParseLevel(s.LogLevel); err != nil {
		return fmt.Errorf("invalid log_level %q", s.LogLevel)
	}
	if dsn := strings.TrimSpace(s.Database.DSN); dsn != "" {
		if _, err := DatabaseScheme(dsn); err != nil {
			return err
		}
	}
	return validateProfiles(s.Profiles)
}

// DatabaseScheme returns "sqlite" or "postgres" for a journal DSN.
func DatabaseScheme(dsn string) (string, error) {
	switch {
	case strings.HasPrefix(dsn, "sqlite://"), strings.HasPrefix(dsn, "sqlite:"):
		return "sqlite", nil
	case strings.HasPrefix(dsn, "postgres://"), strings.HasPrefix(dsn, "postgresql://"):
		return "postgres", nil
	default:
		return "", fmt.Errorf("unsupported database dsn scheme: %s", dsn)
	}
}

// Level is the parsed log level; Load has already rejected invalid values.
func (s *Settings) Level() log.Level {
	level, err := log.ParseLevel(s.LogLevel)
	if err != nil {
		return log.InfoLevel
	}
	return level
}

// Save writes s to path in the format Load picks for it.
func Save(path string, s *Settings) error {
	data, err := marshal(path, s)
	if err != nil {
		return fmt.Errorf("encoding settings: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

func isTOML(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".toml")
}

func unmarshal(path string, data []byte, s *Settings) error {
	if isTOML(path) {
		return toml.Unmarshal(data, s)
	}
	return yaml.Unmarshal(data, s)
}

func marshal(path string, s *Settings) ([]byte, error) {
	if isTOML(path) {
		return toml.Marshal(s)
	}
	return yaml.Marshal(s)
}

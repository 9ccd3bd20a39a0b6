// Package config handles loading and saving habittasker configuration.
//
// Configuration follows the XDG Base Directory specification:
//   - Config: ~/.config/habittasker/config.yaml (plus an optional .env)
//   - Data:   ~/.local/share/HabitTasker/habits.json
//
// Values are layered: defaults, then config.yaml, then HABITTASKER_*
// environment variables (a .env file may supply them). Command-line flags
// are applied last by the caller.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/julianstephens/habittasker/internal/constants"
	"github.com/julianstephens/habittasker/internal/models"
	"github.com/julianstephens/habittasker/internal/utils"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "HABITTASKER_"

// Config is the top-level configuration.
type Config struct {
	// DataPath is the snapshot file. A .db or .sqlite suffix selects the
	// SQLite backend.
	DataPath  string                  `yaml:"data_path,omitempty"`
	SaveDelay time.Duration           `yaml:"save_delay,omitempty"`
	Strict    bool                    `yaml:"strict,omitempty"`
	LogLevel  string                  `yaml:"log_level,omitempty"`
	Reminders models.ReminderSettings `yaml:"reminders"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		DataPath:  DefaultDataPath(),
		SaveDelay: constants.SaveDelay,
		LogLevel:  "warn",
		Reminders: models.DefaultReminderSettings(),
	}
}

// ConfigDir returns the XDG config directory for habittasker.
func ConfigDir() string {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, constants.AppName)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", constants.AppName)
}

// DataDir returns the XDG data directory that holds the snapshot.
func DataDir() string {
	if dir := os.Getenv("XDG_DATA_HOME"); dir != "" {
		return filepath.Join(dir, constants.DataDirName)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return constants.DataDirName
	}
	return filepath.Join(home, ".local", "share", constants.DataDirName)
}

// DefaultDataPath is habits.json inside DataDir.
func DefaultDataPath() string {
	return filepath.Join(DataDir(), constants.SnapshotFileName)
}

// ConfigPath returns the full path to config.yaml.
func ConfigPath() string {
	dir := ConfigDir()
	if dir == "" {
		return ""
	}
	return filepath.Join(dir, "config.yaml")
}

// Load reads .env files, config.yaml and the environment.
func Load() (Config, error) {
	LoadDotEnv()

	cfg := DefaultConfig()
	if path := ConfigPath(); path != "" {
		var err error
		if cfg, err = LoadFrom(path); err != nil {
			return cfg, err
		}
	}
	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return cfg, err
	}
	return cfg, cfg.Validate()
}

// LoadDotEnv loads .env from the working directory and the config
// directory. Variables already set in the environment are kept.
func LoadDotEnv() []string {
	var loaded []string
	candidates := []string{".env"}
	if dir := ConfigDir(); dir != "" {
		candidates = append(candidates, filepath.Join(dir, ".env"))
	}
	for _, p := range candidates {
		if _, err := os.Stat(p); err != nil {
			continue
		}
		if err := godotenv.Load(p); err == nil {
			loaded = append(loaded, p)
		}
	}
	return loaded
}

// LoadFrom reads config from a specific path.
// Returns DefaultConfig if the file doesn't exist.
func LoadFrom(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config: %w", err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config %s: %w", path, err)
	}
	cfg.fillDefaults()
	return cfg, nil
}

func (c *Config) fillDefaults() {
	def := DefaultConfig()
	if c.DataPath == "" {
		c.DataPath = def.DataPath
	}
	c.DataPath = expandHome(c.DataPath)
	if c.SaveDelay == 0 {
		c.SaveDelay = def.SaveDelay
	}
	if c.LogLevel == "" {
		c.LogLevel = def.LogLevel
	}
	if c.Reminders.Time == "" {
		c.Reminders.Time = def.Reminders.Time
	}
}

// ApplyEnv overrides fields from HABITTASKER_* variables found by lookup.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	get := func(name string) (string, bool) {
		v, ok := lookup(EnvPrefix + name)
		return strings.TrimSpace(v), ok && strings.TrimSpace(v) != ""
	}

	if v, ok := get("DATA_PATH"); ok {
		c.DataPath = expandHome(v)
	}
	if v, ok := get("SAVE_DELAY"); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%sSAVE_DELAY: %w", EnvPrefix, err)
		}
		c.SaveDelay = d
	}
	if v, ok := get("STRICT"); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%sSTRICT: %w", EnvPrefix, err)
		}
		c.Strict = b
	}
	if v, ok := get("LOG_LEVEL"); ok {
		c.LogLevel = v
	}
	if v, ok := get("REMINDER_ENABLED"); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%sREMINDER_ENABLED: %w", EnvPrefix, err)
		}
		c.Reminders.Enabled = b
	}
	if v, ok := get("REMINDER_TIME"); ok {
		c.Reminders.Time = v
	}
	return nil
}

// Validate checks values that cannot be fixed by falling back to defaults.
func (c Config) Validate() error {
	if c.SaveDelay < 0 {
		return fmt.Errorf("save_delay must not be negative, got %s", c.SaveDelay)
	}
	if !utils.ValidateTimeFormat(c.Reminders.Time) {
		return fmt.Errorf("reminders.time must be HH:MM, got %q", c.Reminders.Time)
	}
	return nil
}

// Save writes the config to the XDG config directory.
func Save(cfg Config) error {
	path := ConfigPath()
	if path == "" {
		return fmt.Errorf("cannot determine config directory")
	}
	return SaveTo(cfg, path)
}

// SaveTo writes the config to a specific path.
func SaveTo(cfg Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

func expandHome(path string) string {
	if !strings.HasPrefix(path, "~") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[1:])
}

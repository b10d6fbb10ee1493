package config

import (
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/creasty/defaults"
	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/pstuifzand/tui-mindmap/internal/storage"
)

const appName = "tui-mindmap"

// EnvPrefix starts every environment variable that overrides a setting.
const EnvPrefix = "MINDMAP_"

// ErrUnknownKey is returned by Get and Set for keys that are not settings.
var ErrUnknownKey = errors.New("unknown config key")

// Config holds application configuration
type Config struct {
	// File is where Save writes; set by Load and LoadFromFile.
	File string `toml:"-"`

	Storage  StorageConfig  `toml:"storage"`
	Autosave AutosaveConfig `toml:"autosave"`
	Session  SessionConfig  `toml:"session"`
	Backup   BackupConfig   `toml:"backup"`
	Log      LogConfig      `toml:"log"`
}

type StorageConfig struct {
	// Backend is one of file, sqlite, redis, memory
	Backend string `toml:"backend" default:"file"`
	// Path is the data directory; empty means ~/.local/share/tui-mindmap
	Path     string `toml:"path"`
	Key      string `toml:"key" default:"mindmap_state"`
	RedisURL string `toml:"redis_url" default:"redis://localhost:6379/0"`
}

type AutosaveConfig struct {
	// Delay is a Go duration string
	Delay string `toml:"delay" default:"500ms"`
}

type SessionConfig struct {
	CollapseOnOpen bool `toml:"collapse_on_open" default:"true"`
}

type BackupConfig struct {
	Enabled bool `toml:"enabled" default:"true"`
	// Dir empty means ~/.local/share/tui-mindmap/backups
	Dir string `toml:"dir"`
}

type LogConfig struct {
	// Level is parsed by zapcore.ParseLevel
	Level string `toml:"level" default:"warn"`
	// File empty logs to stderr only
	File string `toml:"file"`
}

// setting binds a dotted key to a field of Config.
type setting struct {
	key string
	get func(c *Config) string
	set func(c *Config, v string) error
}

func stringSetting(key string, field func(c *Config) *string) setting {
	return setting{
		key: key,
		get: func(c *Config) string { return *field(c) },
		set: func(c *Config, v string) error { *field(c) = v; return nil },
	}
}

func boolSetting(key string, field func(c *Config) *bool) setting {
	return setting{
		key: key,
		get: func(c *Config) string { return strconv.FormatBool(*field(c)) },
		set: func(c *Config, v string) error {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return errors.Wrapf(err, "%s must be true or false", key)
			}
			*field(c) = b
			return nil
		},
	}
}

var settings = []setting{
	{
		key: "storage.backend",
		get: func(c *Config) string { return c.Storage.Backend },
		set: func(c *Config, v string) error {
			switch storage.Backend(v) {
			case storage.BackendFile, storage.BackendSQLite, storage.BackendRedis, storage.BackendMemory:
				c.Storage.Backend = v
				return nil
			}
			return errors.Errorf("storage.backend must be file, sqlite, redis or memory, got %q", v)
		},
	},
	stringSetting("storage.path", func(c *Config) *string { return &c.Storage.Path }),
	stringSetting("storage.key", func(c *Config) *string { return &c.Storage.Key }),
	stringSetting("storage.redis_url", func(c *Config) *string { return &c.Storage.RedisURL }),
	{
		key: "autosave.delay",
		get: func(c *Config) string { return c.Autosave.Delay },
		set: func(c *Config, v string) error {
			if _, err := parseDelay(v); err != nil {
				return err
			}
			c.Autosave.Delay = v
			return nil
		},
	},
	boolSetting("session.collapse_on_open", func(c *Config) *bool { return &c.Session.CollapseOnOpen }),
	boolSetting("backup.enabled", func(c *Config) *bool { return &c.Backup.Enabled }),
	stringSetting("backup.dir", func(c *Config) *string { return &c.Backup.Dir }),
	stringSetting("log.level", func(c *Config) *string { return &c.Log.Level }),
	stringSetting("log.file", func(c *Config) *string { return &c.Log.File }),
}

func lookup(key string) (setting, bool) {
	i := slices.IndexFunc(settings, func(s setting) bool { return s.key == key })
	if i < 0 {
		return setting{}, false
	}
	return settings[i], true
}

// Keys returns all setting keys in display order.
func Keys() []string {
	keys := make([]string, len(settings))
	for i, s := range settings {
		keys[i] = s.key
	}
	return keys
}

// Load loads the config file from the standard location, then applies .env
// and environment overrides.
func Load() (*Config, error) {
	if err := LoadDotEnv(); err != nil {
		return nil, err
	}

	configPath, err := getConfigPath()
	if err != nil {
		cfg := defaultConfig()
		return cfg, cfg.ApplyEnv()
	}

	cfg, err := LoadFromFile(configPath)
	if err != nil {
		return nil, err
	}
	return cfg, cfg.ApplyEnv()
}

// LoadFromFile loads config from a specific file. A missing file yields the
// defaults.
func LoadFromFile(filePath string) (*Config, error) {
	cfg := defaultConfig()
	cfg.File = filePath

	data, err := os.ReadFile(filePath)
	if errors.Is(err, fs.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to read config file")
	}

	// defaults stay in place for keys the file leaves out
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, errors.Wrap(err, "failed to parse config file")
	}
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrapf(err, "invalid config file %s", filePath)
	}
	return cfg, nil
}

// LoadDotEnv reads .env from the working directory if present. Variables
// already set in the environment win.
func LoadDotEnv(files ...string) error {
	if err := godotenv.Load(files...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return errors.Wrap(err, "failed to load .env")
	}
	return nil
}

// ApplyEnv overrides settings from MINDMAP_* variables, for example
// MINDMAP_STORAGE_BACKEND or MINDMAP_AUTOSAVE_DELAY.
func (c *Config) ApplyEnv() error {
	for _, s := range settings {
		v, ok := os.LookupEnv(EnvName(s.key))
		if !ok {
			continue
		}
		if err := s.set(c, v); err != nil {
			return errors.Wrapf(err, "environment variable %s", EnvName(s.key))
		}
	}
	return nil
}

// EnvName returns the environment variable that overrides key.
func EnvName(key string) string {
	return EnvPrefix + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
}

// Validate checks the values that have a fixed form.
func (c *Config) Validate() error {
	for _, key := range []string{"storage.backend", "autosave.delay"} {
		s, _ := lookup(key)
		if err := s.set(c, s.get(c)); err != nil {
			return err
		}
	}
	return nil
}

// getConfigPath returns the path to the config file
func getConfigPath() (string, error) {
	configDir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "config.toml"), nil
}

// DefaultPath returns ~/.config/tui-mindmap/config.toml
func DefaultPath() (string, error) {
	return getConfigPath()
}

// defaultConfig returns the default configuration
func defaultConfig() *Config {
	cfg := &Config{}
	// the struct tags are constants, so this cannot fail
	if err := defaults.Set(cfg); err != nil {
		panic(err)
	}
	return cfg
}

// Default returns a configuration with every setting at its default.
func Default() *Config {
	return defaultConfig()
}

// GetConfigDir returns the config directory
func GetConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", appName), nil
}

// EnsureConfigDir creates the directory that holds the config file
func (c *Config) EnsureConfigDir() error {
	if c.File == "" {
		path, err := getConfigPath()
		if err != nil {
			return err
		}
		c.File = path
	}
	return os.MkdirAll(filepath.Dir(c.File), 0o755)
}

// Set changes a setting by its dotted key, e.g. "autosave.delay". The value
// is checked the same way as values from the file.
func (c *Config) Set(key, value string) error {
	s, ok := lookup(key)
	if !ok {
		return errors.Wrapf(ErrUnknownKey, "%q", key)
	}
	return s.set(c, value)
}

// Get retrieves a setting by its dotted key. Returns empty string for
// unknown keys.
func (c *Config) Get(key string) string {
	s, ok := lookup(key)
	if !ok {
		return ""
	}
	return s.get(c)
}

// GetAll returns every setting as a fresh map
func (c *Config) GetAll() map[string]string {
	result := make(map[string]string, len(settings))
	for _, s := range settings {
		result[s.key] = s.get(c)
	}
	return result
}

// Save persists the configuration to the TOML file
func (c *Config) Save() error {
	if err := c.EnsureConfigDir(); err != nil {
		return errors.Wrap(err, "failed to create config directory")
	}

	data, err := toml.Marshal(c)
	if err != nil {
		return errors.Wrap(err, "failed to marshal config")
	}

	if err := os.WriteFile(c.File, data, 0o644); err != nil {
		return errors.Wrap(err, "failed to write config file")
	}
	return nil
}

// AutosaveDelay returns the parsed autosave delay.
func (c *Config) AutosaveDelay() time.Duration {
	d, err := parseDelay(c.Autosave.Delay)
	if err != nil {
		return storage.DefaultAutosaveDelay
	}
	return d
}

func parseDelay(v string) (time.Duration, error) {
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, errors.Wrap(err, "autosave.delay must be a duration like 500ms")
	}
	if d < 0 {
		return 0, errors.Errorf("autosave.delay must not be negative, got %s", v)
	}
	return d, nil
}

// DataDir returns the directory used by the file and sqlite backends
func (c *Config) DataDir() string {
	if c.Storage.Path != "" {
		return c.Storage.Path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), "."+appName)
	}
	return filepath.Join(home, ".local", "share", appName)
}

// BackupDir returns the configured backup directory, or the default one.
func (c *Config) BackupDir() string {
	if c.Backup.Dir != "" {
		return c.Backup.Dir
	}
	return storage.DefaultBackupDir()
}

// StorageOptions converts the storage section for storage.Open.
func (c *Config) StorageOptions(logger *zap.Logger) storage.Options {
	return storage.Options{
		Backend:  storage.Backend(c.Storage.Backend),
		Dir:      c.DataDir(),
		Key:      c.Storage.Key,
		RedisURL: c.Storage.RedisURL,
		Logger:   logger,
	}
}

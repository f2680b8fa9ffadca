package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Storage backends for persisted session values.
const (
	StorageAuto   = "auto"
	StorageMemory = "memory"
	StorageSQLite = "sqlite"
	StorageBadger = "badger"
)

const activityPath = "/ws/activity-logs"

type Config struct {
	ServerURL      string        `yaml:"server_url" validate:"required,url"`
	WebSocketURL   string        `yaml:"ws_url,omitempty" validate:"omitempty,url"`
	CacheDir       string        `yaml:"cache_dir" validate:"required"`
	DBPath         string        `yaml:"db_path,omitempty"`
	BadgerDir      string        `yaml:"badger_dir,omitempty"`
	LogPath        string        `yaml:"log_path,omitempty"`
	LogLevel       string        `yaml:"log_level" validate:"oneof=debug info warn error"`
	StorageBackend string        `yaml:"storage" validate:"oneof=auto memory sqlite badger"`
	RequestTimeout time.Duration `yaml:"request_timeout" validate:"gt=0"`
	PostListTTL    time.Duration `yaml:"post_list_ttl"`
	BotListTTL     time.Duration `yaml:"bot_list_ttl"`
	ReconnectMin   time.Duration `yaml:"reconnect_min" validate:"gt=0"`
	ReconnectMax   time.Duration `yaml:"reconnect_max" validate:"gtefield=ReconnectMin"`
	// ActivityBacklog is how many activity entries are backfilled on connect.
	ActivityBacklog int `yaml:"activity_backlog" validate:"min=1,max=100"`
	FetchPageSize   int `yaml:"fetch_page_size" validate:"min=1"`
}

func Default() Config {
	cfg := defaults()
	cfg.derive()
	return cfg
}

func defaults() Config {
	return Config{
		ServerURL:       "http://localhost:8000",
		CacheDir:        filepath.Join(userConfigDir(), "hams"),
		LogLevel:        "info",
		StorageBackend:  StorageAuto,
		RequestTimeout:  10 * time.Second,
		PostListTTL:     60 * time.Second,
		BotListTTL:      5 * time.Minute,
		ReconnectMin:    time.Second,
		ReconnectMax:    30 * time.Second,
		ActivityBacklog: 30,
		FetchPageSize:   30,
	}
}

// derive fills file locations left empty from CacheDir.
func (c *Config) derive() {
	if c.DBPath == "" {
		c.DBPath = filepath.Join(c.CacheDir, "cache.db")
	}
	if c.BadgerDir == "" {
		c.BadgerDir = filepath.Join(c.CacheDir, "badger")
	}
	if c.LogPath == "" {
		c.LogPath = filepath.Join(c.CacheDir, "debug.log")
	}
}

// Path returns the location of config.yaml.
func Path() string {
	return filepath.Join(userConfigDir(), "hams", "config.yaml")
}

// Load builds the configuration from defaults, then the YAML file at path
// (Path() when empty), then HAMS_* environment variables. A missing file is
// not an error.
func Load(path string) (Config, error) {
	if path == "" {
		path = Path()
	}
	cfg := defaults()

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return Config{}, fmt.Errorf("reading config: %w", err)
	default:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parsing config %s: %w", path, err)
		}
	}

	cfg.applyEnv()
	cfg.derive()
	return cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("HAMS_SERVER_URL"); v != "" {
		c.ServerURL = v
	}
	if v := os.Getenv("HAMS_WS_URL"); v != "" {
		c.WebSocketURL = v
	}
	if v := os.Getenv("HAMS_STORAGE"); v != "" {
		c.StorageBackend = strings.ToLower(v)
	}
	if v := os.Getenv("HAMS_LOG_LEVEL"); v != "" {
		c.LogLevel = strings.ToLower(v)
	}
}

// Save writes the config as YAML, creating the directory if needed.
func Save(path string, cfg Config) error {
	if path == "" {
		path = Path()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks field ranges and URL shapes.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// ActivityURL returns the websocket endpoint for live activity. Without an
// explicit WebSocketURL it is derived from ServerURL, http becoming ws and
// https becoming wss.
func (c Config) ActivityURL() (string, error) {
	if c.WebSocketURL != "" {
		return c.WebSocketURL, nil
	}
	u, err := url.Parse(c.ServerURL)
	if err != nil {
		return "", fmt.Errorf("parsing server url: %w", err)
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	case "http", "":
		u.Scheme = "ws"
	}
	u.Path = strings.TrimRight(u.Path, "/") + activityPath
	u.RawQuery = ""
	return u.String(), nil
}

func userConfigDir() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return dir
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config")
}

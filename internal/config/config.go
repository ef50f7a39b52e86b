package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"
)

// Modes select the event backend.
const (
	ModeRemote = "remote"
	ModeLocal  = "local"
)

const (
	defaultAPIBaseURL   = "http://127.0.0.1:8080"
	defaultTimezone     = "America/Sao_Paulo"
	defaultRefreshCron  = "*/15 * * * *"
	defaultTimeoutSec   = 10
	defaultListen       = "127.0.0.1:8080"
	defaultJWTExpiryHrs = 24
	defaultRedisChannel = "eventdash.events"
)

// ICSConfig describes an iCalendar subscription imported by `eventdash import`.
type ICSConfig struct {
	URL  string `yaml:"url" json:"url"`
	ID   string `yaml:"id" json:"id"`
	Name string `yaml:"name" json:"name"`
}

// ServerConfig configures the bundled local backend (`eventdash serve`).
type ServerConfig struct {
	Listen string `yaml:"listen" json:"listen"`

	// DBPath is the SQLite file. Empty means <data_dir>/server.db.
	DBPath string `yaml:"db_path" json:"db_path"`

	// JWTSecret signs bearer tokens. Must be set before serving.
	JWTSecret      string `yaml:"jwt_secret" json:"-"`
	JWTExpiryHours int    `yaml:"jwt_expiry_hours" json:"jwt_expiry_hours"`

	// RedisURL, if set, enables change notifications on RedisChannel.
	RedisURL     string `yaml:"redis_url,omitempty" json:"redis_url,omitempty"`
	RedisChannel string `yaml:"redis_channel" json:"redis_channel"`

	// AllowedOrigins lists CORS origins. Empty allows any origin.
	AllowedOrigins []string `yaml:"allowed_origins,omitempty" json:"allowed_origins,omitempty"`
}

// Config is the top-level client configuration.
type Config struct {
	// APIBaseURL is the events REST API root.
	APIBaseURL string `yaml:"api_base_url" json:"api_base_url"`

	// Mode is "remote" (REST API) or "local" (on-disk fallback store).
	Mode string `yaml:"mode" json:"mode"`

	// TimeoutSeconds bounds each API call.
	TimeoutSeconds int `yaml:"timeout_seconds" json:"timeout_seconds"`

	// DataDir holds the session store, cached feeds and the local server DB.
	DataDir string `yaml:"data_dir" json:"data_dir"`

	// Timezone decides what "today" is for past-date validation and views.
	Timezone string `yaml:"timezone" json:"timezone"`

	// RefreshCron drives `eventdash watch` (standard 5-field cron).
	RefreshCron string `yaml:"refresh" json:"refresh"`

	LogLevel string `yaml:"log_level" json:"log_level"`

	ICS []ICSConfig `yaml:"ics" json:"ics"`

	Server ServerConfig `yaml:"server" json:"server"`
}

// DefaultConfig returns an in-memory default configuration.
func DefaultConfig() *Config {
	return &Config{
		APIBaseURL:     defaultAPIBaseURL,
		Mode:           ModeRemote,
		TimeoutSeconds: defaultTimeoutSec,
		DataDir:        DefaultDataDir(),
		Timezone:       defaultTimezone,
		RefreshCron:    defaultRefreshCron,
		LogLevel:       "info",
		ICS:            []ICSConfig{},
		Server: ServerConfig{
			Listen:         defaultListen,
			JWTExpiryHours: defaultJWTExpiryHrs,
			RedisChannel:   defaultRedisChannel,
		},
	}
}

// DefaultDataDir is <user config dir>/eventdash, or ./var/eventdash when the
// platform has no config dir.
func DefaultDataDir() string {
	if dir, err := os.UserConfigDir(); err == nil && dir != "" {
		return filepath.Join(dir, "eventdash")
	}
	return filepath.Join(".", "var", "eventdash")
}

// DefaultPath is where the CLI looks for its config file.
func DefaultPath() string {
	return filepath.Join(DefaultDataDir(), "config.yaml")
}

// Normalize fills in missing/zero values and replaces invalid ones with
// defaults so older or hand-edited files still behave.
func (c *Config) Normalize() {
	c.APIBaseURL = strings.TrimRight(strings.TrimSpace(c.APIBaseURL), "/")
	if c.APIBaseURL == "" {
		c.APIBaseURL = defaultAPIBaseURL
	}

	switch c.Mode {
	case ModeRemote, ModeLocal:
	default:
		c.Mode = ModeRemote
	}

	if c.TimeoutSeconds <= 0 {
		c.TimeoutSeconds = defaultTimeoutSec
	}
	if c.DataDir == "" {
		c.DataDir = DefaultDataDir()
	}
	if c.Timezone == "" {
		c.Timezone = defaultTimezone
	}
	if _, err := cron.ParseStandard(c.RefreshCron); err != nil {
		c.RefreshCron = defaultRefreshCron
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.ICS == nil {
		c.ICS = []ICSConfig{}
	}

	if c.Server.Listen == "" {
		c.Server.Listen = defaultListen
	}
	if c.Server.JWTExpiryHours <= 0 {
		c.Server.JWTExpiryHours = defaultJWTExpiryHrs
	}
	if c.Server.RedisChannel == "" {
		c.Server.RedisChannel = defaultRedisChannel
	}
}

// Timeout is TimeoutSeconds as a duration.
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// Location resolves Timezone, falling back to time.Local.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}

// StatePath is the bbolt file holding the session and fallback events.
func (c *Config) StatePath() string {
	return filepath.Join(c.DataDir, "state.db")
}

// ICSCacheDir holds cached subscription bodies.
func (c *Config) ICSCacheDir() string {
	return filepath.Join(c.DataDir, "ics-cache")
}

// ServerDBPath is the SQLite file of the local backend.
func (c *Config) ServerDBPath() string {
	if c.Server.DBPath != "" {
		return c.Server.DBPath
	}
	return filepath.Join(c.DataDir, "server.db")
}

// JWTExpiry is JWTExpiryHours as a duration.
func (c *Config) JWTExpiry() time.Duration {
	return time.Duration(c.Server.JWTExpiryHours) * time.Hour
}

// LoadDotEnv loads KEY=VALUE pairs from the given files into the process
// environment. Missing files are ignored.
func LoadDotEnv(paths ...string) error {
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return err
		}
	}
	return nil
}

// ApplyEnv overrides fields from EVENTDASH_* environment variables.
func (c *Config) ApplyEnv() {
	setString := func(key string, dst *string) {
		if v, ok := os.LookupEnv(key); ok && v != "" {
			*dst = v
		}
	}
	setInt := func(key string, dst *int) {
		if v, ok := os.LookupEnv(key); ok {
			if n, err := strconv.Atoi(v); err == nil {
				*dst = n
			}
		}
	}

	setString("EVENTDASH_API_BASE_URL", &c.APIBaseURL)
	setString("EVENTDASH_MODE", &c.Mode)
	setInt("EVENTDASH_TIMEOUT_SECONDS", &c.TimeoutSeconds)
	setString("EVENTDASH_DATA_DIR", &c.DataDir)
	setString("EVENTDASH_TIMEZONE", &c.Timezone)
	setString("EVENTDASH_LOG_LEVEL", &c.LogLevel)
	setString("EVENTDASH_LISTEN", &c.Server.Listen)
	setString("EVENTDASH_DB_PATH", &c.Server.DBPath)
	setString("EVENTDASH_JWT_SECRET", &c.Server.JWTSecret)
	setString("EVENTDASH_REDIS_URL", &c.Server.RedisURL)
	if v := os.Getenv("EVENTDASH_ALLOWED_ORIGINS"); v != "" {
		c.Server.AllowedOrigins = c.Server.AllowedOrigins[:0]
		for _, o := range strings.Split(v, ",") {
			if o = strings.TrimSpace(o); o != "" {
				c.Server.AllowedOrigins = append(c.Server.AllowedOrigins, o)
			}
		}
	}
}

// Load loads configuration from the given YAML path.
//
// Behavior:
//   - If the file does not exist, a default config is written with 0600
//     perms and returned.
//   - Otherwise the YAML is decoded and normalized.
//
// Environment overrides are applied to the returned value only; they are
// never written back by Load.
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is empty")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			// First run: create default config file.
			cfg := DefaultConfig()
			if err := Save(path, cfg); err != nil {
				// Even if save fails, return cfg with error so caller can decide.
				return cfg, err
			}
			cfg.ApplyEnv()
			cfg.Normalize()
			return cfg, nil
		}
		return nil, err
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	cfg.ApplyEnv()
	cfg.Normalize()

	return cfg, nil
}

// Save writes cfg to path atomically (temp file + rename) with 0600 perms,
// creating the parent directory with 0700.
func Save(path string, cfg *Config) error {
	if path == "" {
		return errors.New("config path is empty")
	}
	if cfg == nil {
		return errors.New("config is nil")
	}

	cfg.Normalize()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".eventdash-config-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, 0o600); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}

// Save is a convenience method delegating to the package-level Save.
func (c *Config) Save(path string) error {
	return Save(path, c)
}

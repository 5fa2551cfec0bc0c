package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	appName = "weather-uk"

	configFileName  = "config.yaml"
	secretsFileName = "secrets.yaml"

	defaultDatapointURL = "http://datapoint.metoffice.gov.uk/public/data/"
)

// Config holds application configuration loaded from YAML, .env and environment.
type Config struct {
	// Dir is the directory config.yaml and secrets.yaml are read from.
	Dir string

	APIKey string

	DatapointURL       string
	DatapointTimeout   time.Duration
	RateLimitPerMinute int
	RateLimitBurst     int

	CacheBackend string // "none", "in_memory" or "memcached"
	CacheTTL     time.Duration

	MemcachedAddrs        string
	MemcachedTimeout      time.Duration
	MemcachedMaxIdleConns int

	LogLevel string
	LogFile  string

	MetricsTextfile string
	ZipkinURL       string
}

type fileConfig struct {
	Datapoint struct {
		URL                string `yaml:"url"`
		Timeout            string `yaml:"timeout"`
		RateLimitPerMinute *int   `yaml:"rate_limit_per_minute"`
		RateLimitBurst     int    `yaml:"rate_limit_burst"`
	} `yaml:"datapoint"`

	Cache struct {
		Backend   string `yaml:"backend"`
		TTL       string `yaml:"ttl"`
		Memcached struct {
			Addrs        string `yaml:"addrs"`
			Timeout      string `yaml:"timeout"`
			MaxIdleConns int    `yaml:"max_idle_conns"`
		} `yaml:"memcached"`
	} `yaml:"cache"`

	Log struct {
		Level string `yaml:"level"`
		File  string `yaml:"file"`
	} `yaml:"log"`

	Metrics struct {
		Textfile string `yaml:"textfile"`
	} `yaml:"metrics"`

	Tracing struct {
		ZipkinURL string `yaml:"zipkin_url"`
	} `yaml:"tracing"`
}

type secretsFile struct {
	DatapointAPIKey string `yaml:"datapoint_api_key"`
}

// DefaultDir returns WEATHER_UK_CONFIG_DIR, or weather-uk under the user config directory.
func DefaultDir() (string, error) {
	if dir := strings.TrimSpace(os.Getenv("WEATHER_UK_CONFIG_DIR")); dir != "" {
		return dir, nil
	}
	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("config: locate user config directory: %w", err)
	}
	return filepath.Join(base, appName), nil
}

// Load reads {dir}/config.yaml and {dir}/secrets.yaml (dir defaults to DefaultDir).
// Both files are optional. A .env file in the working directory is loaded first;
// DATAPOINT_API_KEY overrides the secrets file. The API key may be empty: the
// app asks for one on its welcome screen.
func Load(dir string) (*Config, error) {
	if dir == "" {
		d, err := DefaultDir()
		if err != nil {
			return nil, err
		}
		dir = d
	}

	if err := loadDotEnv(".env"); err != nil {
		return nil, err
	}

	var fc fileConfig
	data, err := os.ReadFile(filepath.Join(dir, configFileName))
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &fc); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}
	case errors.Is(err, os.ErrNotExist):
		// defaults only
	default:
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := &Config{Dir: dir}

	cfg.APIKey = strings.TrimSpace(os.Getenv("DATAPOINT_API_KEY"))
	if cfg.APIKey == "" {
		key, err := readSecrets(dir)
		if err != nil {
			return nil, err
		}
		cfg.APIKey = key
	}

	cfg.DatapointURL = strings.TrimSpace(os.Getenv("DATAPOINT_URL"))
	if cfg.DatapointURL == "" {
		cfg.DatapointURL = strings.TrimSpace(fc.Datapoint.URL)
	}
	if cfg.DatapointURL == "" {
		cfg.DatapointURL = defaultDatapointURL
	}
	cfg.DatapointTimeout = parseDurationOrZero(fc.Datapoint.Timeout, 10*time.Second)

	// DataPoint fair use is 100 requests per minute; 0 disables the limiter.
	cfg.RateLimitPerMinute = 100
	if fc.Datapoint.RateLimitPerMinute != nil {
		cfg.RateLimitPerMinute = *fc.Datapoint.RateLimitPerMinute
	}
	cfg.RateLimitBurst = fc.Datapoint.RateLimitBurst
	if cfg.RateLimitBurst <= 0 {
		cfg.RateLimitBurst = 10
	}

	cfg.CacheBackend = strings.TrimSpace(strings.ToLower(os.Getenv("CACHE_BACKEND")))
	if cfg.CacheBackend == "" {
		cfg.CacheBackend = strings.TrimSpace(strings.ToLower(fc.Cache.Backend))
	}
	if cfg.CacheBackend == "" {
		cfg.CacheBackend = "in_memory"
	}
	cfg.CacheTTL = parseDuration(fc.Cache.TTL, 24*time.Hour)
	cfg.MemcachedAddrs = strings.TrimSpace(os.Getenv("MEMCACHED_ADDRS"))
	if cfg.MemcachedAddrs == "" {
		cfg.MemcachedAddrs = strings.TrimSpace(fc.Cache.Memcached.Addrs)
	}
	if cfg.MemcachedAddrs == "" {
		cfg.MemcachedAddrs = "localhost:11211"
	}
	cfg.MemcachedTimeout = parseDuration(fc.Cache.Memcached.Timeout, 500*time.Millisecond)
	cfg.MemcachedMaxIdleConns = fc.Cache.Memcached.MaxIdleConns
	if cfg.MemcachedMaxIdleConns <= 0 {
		cfg.MemcachedMaxIdleConns = 2
	}

	cfg.LogLevel = strings.TrimSpace(os.Getenv("LOG_LEVEL"))
	if cfg.LogLevel == "" {
		cfg.LogLevel = fc.Log.Level
	}
	cfg.LogFile = strings.TrimSpace(fc.Log.File)
	if cfg.LogFile == "" {
		cfg.LogFile = defaultLogFile()
	}

	cfg.MetricsTextfile = strings.TrimSpace(fc.Metrics.Textfile)
	cfg.ZipkinURL = strings.TrimSpace(fc.Tracing.ZipkinURL)

	if err := validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// SaveAPIKey writes key to {Dir}/secrets.yaml with owner-only permissions and
// stores it on cfg.
func (cfg *Config) SaveAPIKey(key string) error {
	key = strings.TrimSpace(key)
	if key == "" {
		return fmt.Errorf("save API key: key is empty")
	}
	if err := os.MkdirAll(cfg.Dir, 0o700); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	data, err := yaml.Marshal(secretsFile{DatapointAPIKey: key})
	if err != nil {
		return fmt.Errorf("encode secrets file: %w", err)
	}
	path := filepath.Join(cfg.Dir, secretsFileName)
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("write secrets file: %w", err)
	}
	// WriteFile keeps the mode of an existing file.
	if err := os.Chmod(path, 0o600); err != nil {
		return fmt.Errorf("write secrets file: %w", err)
	}
	cfg.APIKey = key
	return nil
}

func readSecrets(dir string) (string, error) {
	data, err := os.ReadFile(filepath.Join(dir, secretsFileName))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", nil
		}
		return "", fmt.Errorf("read secrets file: %w", err)
	}
	var sec secretsFile
	if err := yaml.Unmarshal(data, &sec); err != nil {
		return "", fmt.Errorf("parse secrets file: %w", err)
	}
	return strings.TrimSpace(sec.DatapointAPIKey), nil
}

// loadDotEnv loads path into the environment without overriding variables
// that are already set. A missing file is not an error.
func loadDotEnv(path string) error {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

func defaultLogFile() string {
	base, err := os.UserCacheDir()
	if err != nil {
		return "stderr"
	}
	return filepath.Join(base, appName, appName+".log")
}

// parseDuration parses a duration string and returns defaultVal if parsing fails or result is <= 0.
func parseDuration(s string, defaultVal time.Duration) time.Duration {
	d := parseDurationOrZero(s, defaultVal)
	if d <= 0 {
		return defaultVal
	}
	return d
}

// parseDurationOrZero parses a duration string, returning defaultVal on empty string or parse error.
// Returns zero or negative durations as-is (caller should handle fallback).
func parseDurationOrZero(s string, defaultVal time.Duration) time.Duration {
	s = strings.TrimSpace(s)
	if s == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return defaultVal
	}
	return d
}

// validate performs post-load validation of configuration values and
// normalizes the DataPoint URL to end in a slash.
func validate(cfg *Config) error {
	if cfg.DatapointTimeout <= 0 {
		return fmt.Errorf("datapoint.timeout must be positive")
	}
	if cfg.RateLimitPerMinute < 0 {
		return fmt.Errorf("datapoint.rate_limit_per_minute must not be negative")
	}
	u, err := url.Parse(cfg.DatapointURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("datapoint.url must be an absolute URL, got %q", cfg.DatapointURL)
	}
	if !strings.HasSuffix(cfg.DatapointURL, "/") {
		cfg.DatapointURL += "/"
	}
	switch cfg.CacheBackend {
	case "none", "in_memory", "memcached":
		// valid
	default:
		return fmt.Errorf("cache.backend must be none, in_memory or memcached, got %q", cfg.CacheBackend)
	}
	return nil
}

package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/XavierBriggs/Iris/internal/logger"
)

// Store backends
const (
	StoreMemory   = "memory"
	StoreFile     = "file"
	StoreRedis    = "redis"
	StorePostgres = "postgres"
	StoreSQLite   = "sqlite"
)

// Config holds Iris configuration
type Config struct {
	API       APIConfig       `yaml:"api"`
	Quota     QuotaConfig     `yaml:"quota"`
	Cache     CacheConfig     `yaml:"cache"`
	Scheduler SchedulerConfig `yaml:"scheduler"`
	Store     StoreConfig     `yaml:"store"`
	LogLevel  string          `yaml:"log_level"`
}

// APIConfig configures the upstream Sportmonks API
type APIConfig struct {
	BaseURL string        `yaml:"base_url"`
	Token   string        `yaml:"token"` // seeds the stored credential when none is set
	Timeout time.Duration `yaml:"timeout"`
}

// QuotaConfig configures the client-side request budget
type QuotaConfig struct {
	Limit  int           `yaml:"limit"`
	Window time.Duration `yaml:"window"`
}

// CacheConfig configures the response cache
type CacheConfig struct {
	TTL time.Duration `yaml:"ttl"`
}

// SchedulerConfig configures background ticks
type SchedulerConfig struct {
	RolloverInterval time.Duration `yaml:"rollover_interval"`
	RefreshInterval  time.Duration `yaml:"refresh_interval"` // 0 uses the sport module's interval
}

// StoreConfig selects and configures the key-value store backend
type StoreConfig struct {
	Backend       string `yaml:"backend"`
	DataDir       string `yaml:"data_dir"`
	RedisURL      string `yaml:"redis_url"`
	RedisPassword string `yaml:"redis_password"`
	RedisDB       int    `yaml:"redis_db"`
	PostgresDSN   string `yaml:"postgres_dsn"`
	SQLitePath    string `yaml:"sqlite_path"`
}

// Default returns the built-in configuration
func Default() Config {
	return Config{
		API: APIConfig{
			BaseURL: "https://api.sportmonks.com/v3/football",
			Timeout: 10 * time.Second,
		},
		Quota: QuotaConfig{
			Limit:  180,
			Window: time.Hour,
		},
		Cache: CacheConfig{
			TTL: 5 * time.Minute,
		},
		Scheduler: SchedulerConfig{
			RolloverInterval: time.Minute,
		},
		Store: StoreConfig{
			Backend:  StoreFile,
			DataDir:  defaultDataDir(),
			RedisURL: "localhost:6379",
		},
		LogLevel: "warn",
	}
}

// Load builds configuration from defaults, an optional YAML file, a .env file and
// the environment, in that order of precedence (later wins).
func Load(path string) (Config, error) {
	cfg := Default()

	if path == "" {
		path = os.Getenv("IRIS_CONFIG")
	}
	if path != "" {
		if err := cfg.mergeFile(path); err != nil {
			return cfg, err
		}
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		logger.Component("config").WithError(err).Warn("failed to load .env")
	}

	cfg.applyEnv()

	if cfg.Store.SQLitePath == "" {
		cfg.Store.SQLitePath = filepath.Join(cfg.Store.DataDir, "iris.db")
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (c *Config) mergeFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() {
	c.API.Token = getEnv("SPORTMONKS_API_TOKEN", c.API.Token)
	c.API.BaseURL = getEnv("SPORTMONKS_BASE_URL", c.API.BaseURL)
	c.API.Timeout = getDuration("IRIS_HTTP_TIMEOUT", c.API.Timeout)
	c.Quota.Limit = getInt("IRIS_RATE_LIMIT", c.Quota.Limit)
	c.Cache.TTL = getDuration("IRIS_CACHE_TTL", c.Cache.TTL)
	c.Scheduler.RefreshInterval = getDuration("IRIS_REFRESH_INTERVAL", c.Scheduler.RefreshInterval)
	c.Scheduler.RolloverInterval = getDuration("IRIS_ROLLOVER_INTERVAL", c.Scheduler.RolloverInterval)
	c.Store.Backend = getEnv("IRIS_STORE", c.Store.Backend)
	c.Store.DataDir = getEnv("IRIS_DATA_DIR", c.Store.DataDir)
	c.Store.RedisURL = getEnv("REDIS_URL", c.Store.RedisURL)
	c.Store.RedisPassword = getEnv("REDIS_PASSWORD", c.Store.RedisPassword)
	c.Store.PostgresDSN = getEnv("IRIS_POSTGRES_DSN", c.Store.PostgresDSN)
	c.Store.SQLitePath = getEnv("IRIS_SQLITE_PATH", c.Store.SQLitePath)
	c.LogLevel = getEnv("IRIS_LOG_LEVEL", c.LogLevel)
}

// Validate rejects configurations the core cannot run with
func (c Config) Validate() error {
	if c.API.BaseURL == "" {
		return errors.New("api.base_url is required")
	}
	if c.API.Timeout <= 0 {
		return fmt.Errorf("api.timeout must be positive, got %v", c.API.Timeout)
	}
	if c.Quota.Limit <= 0 {
		return fmt.Errorf("quota.limit must be positive, got %d", c.Quota.Limit)
	}
	if c.Quota.Window <= 0 {
		return fmt.Errorf("quota.window must be positive, got %v", c.Quota.Window)
	}
	if c.Cache.TTL <= 0 {
		return fmt.Errorf("cache.ttl must be positive, got %v", c.Cache.TTL)
	}
	if c.Scheduler.RolloverInterval <= 0 {
		return fmt.Errorf("scheduler.rollover_interval must be positive, got %v", c.Scheduler.RolloverInterval)
	}
	if c.Scheduler.RefreshInterval < 0 {
		return fmt.Errorf("scheduler.refresh_interval cannot be negative, got %v", c.Scheduler.RefreshInterval)
	}

	switch c.Store.Backend {
	case StoreMemory, StoreFile, StoreRedis, StoreSQLite:
	case StorePostgres:
		if c.Store.PostgresDSN == "" {
			return errors.New("store.postgres_dsn is required for the postgres backend")
		}
	default:
		return fmt.Errorf("unknown store backend %q", c.Store.Backend)
	}
	return nil
}

func defaultDataDir() string {
	if dir := os.Getenv("XDG_DATA_HOME"); dir != "" {
		return filepath.Join(dir, "iris")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".iris"
	}
	return filepath.Join(home, ".local", "share", "iris")
}

// getEnv gets an environment variable with a default fallback
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		logger.Component("config").WithFields(logger.Fields{"key": key, "value": raw}).
			Warnf("invalid duration, using %v", defaultValue)
		return defaultValue
	}
	return parsed
}

func getInt(key string, defaultValue int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue
	}
	parsed, err := strconv.Atoi(raw)
	if err != nil {
		logger.Component("config").WithFields(logger.Fields{"key": key, "value": raw}).
			Warnf("invalid integer, using %d", defaultValue)
		return defaultValue
	}
	return parsed
}

package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"hydratutor/internal/constants"
	"hydratutor/internal/utils"
)

const (
	EnvServer         = "TUTOR_SERVER"
	EnvStateDir       = "TUTOR_STATE_DIR"
	EnvStore          = "TUTOR_STORE"
	EnvSQLitePath     = "TUTOR_SQLITE_PATH"
	EnvDashboardPort  = "TUTOR_DASHBOARD_PORT"
	EnvRequestTimeout = "TUTOR_REQUEST_TIMEOUT"
	EnvTranscript     = "TUTOR_TRANSCRIPT"
	EnvLogLevel       = "LOG_LEVEL"
	EnvRedisHost      = "REDIS_HOST"
	EnvRedisPort      = "REDIS_PORT"
	EnvRedisUser      = "REDIS_USERNAME"
	EnvRedisPassword  = "REDIS_PASSWORD"
)

type Redis struct {
	Host     string `yaml:"host"`
	Port     string `yaml:"port"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

type Config struct {
	ServerURL      string        `yaml:"server_url"`
	StateDir       string        `yaml:"state_dir"`
	Store          string        `yaml:"store"`
	SQLitePath     string        `yaml:"sqlite_path"`
	Redis          Redis         `yaml:"redis"`
	DashboardPort  int           `yaml:"dashboard_port"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
	Transcript     bool          `yaml:"transcript"`
	LogLevel       string        `yaml:"log_level"`

	// SkipTLSVerify is derived from ServerURL.
	SkipTLSVerify bool `yaml:"-"`
}

func Default() *Config {
	return &Config{
		ServerURL:     constants.DefaultServerURL,
		Store:         constants.DefaultStore,
		Redis:         Redis{Port: "6379"},
		DashboardPort: constants.DefaultDashboardPort,
		Transcript:    true,
		LogLevel:      "info",
	}
}

// Load layers defaults, the optional YAML file at path, a .env file in the
// working directory and finally the process environment.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	cfg.applyEnv()

	if cfg.StateDir == "" {
		dir, err := utils.DataDir()
		if err != nil {
			return nil, fmt.Errorf("failed to resolve state directory: %w", err)
		}
		cfg.StateDir = dir
	}
	if cfg.SQLitePath == "" {
		cfg.SQLitePath = filepath.Join(cfg.StateDir, constants.StashDBFile)
	}
	cfg.ServerURL, cfg.SkipTLSVerify = utils.NormalizeServerURL(cfg.ServerURL)

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() {
	c.ServerURL = utils.GetEnv(EnvServer, c.ServerURL)
	c.StateDir = utils.GetEnv(EnvStateDir, c.StateDir)
	c.Store = utils.GetEnv(EnvStore, c.Store)
	c.SQLitePath = utils.GetEnv(EnvSQLitePath, c.SQLitePath)
	c.DashboardPort = utils.GetEnvInt(EnvDashboardPort, c.DashboardPort)
	c.RequestTimeout = utils.GetEnvDuration(EnvRequestTimeout, c.RequestTimeout)
	c.Transcript = utils.GetEnvBool(EnvTranscript, c.Transcript)
	c.LogLevel = utils.GetEnv(EnvLogLevel, c.LogLevel)

	c.Redis.Host = utils.GetEnv(EnvRedisHost, c.Redis.Host)
	c.Redis.Port = utils.GetEnv(EnvRedisPort, c.Redis.Port)
	c.Redis.Username = utils.GetEnv(EnvRedisUser, c.Redis.Username)
	c.Redis.Password = utils.GetEnv(EnvRedisPassword, c.Redis.Password)
}

func (c *Config) validate() error {
	if c.ServerURL == "" || c.ServerURL == "http://" {
		return fmt.Errorf("%s must not be empty", EnvServer)
	}
	switch c.Store {
	case constants.StoreMemory, constants.StoreSQLite:
	case constants.StoreRedis:
		if c.Redis.Host == "" {
			return fmt.Errorf("%s is required when %s=redis", EnvRedisHost, EnvStore)
		}
	default:
		return fmt.Errorf("%s must be one of memory, sqlite, redis; got %q", EnvStore, c.Store)
	}
	if c.DashboardPort < constants.MinPort || c.DashboardPort > constants.MaxPort {
		return fmt.Errorf("%s must be between %d and %d, got %d",
			EnvDashboardPort, constants.MinPort, constants.MaxPort, c.DashboardPort)
	}
	if c.RequestTimeout < 0 {
		return fmt.Errorf("%s must not be negative", EnvRequestTimeout)
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("%s must be debug, info, warn or error; got %q", EnvLogLevel, c.LogLevel)
	}
	return nil
}

// CookieJarPath is where the identity cookie lives.
func (c *Config) CookieJarPath() string {
	return filepath.Join(c.StateDir, constants.CookieJarFile)
}

func (c *Config) HistoryPath(variant string) string {
	return filepath.Join(c.StateDir, variant+"."+constants.HistoryFile)
}

package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds everything carrierdeskd needs at startup.
type Config struct {
	Server      ServerConfig      `yaml:"server"`
	Auth        AuthConfig        `yaml:"auth"`
	Storage     StorageConfig     `yaml:"storage"`
	Booking     BookingConfig     `yaml:"booking"`
	Negotiation NegotiationConfig `yaml:"negotiation"`
	Logging     LoggingConfig     `yaml:"logging"`
}

// ServerConfig controls the API listener.
type ServerConfig struct {
	Address                  string `yaml:"address"`
	ReadHeaderTimeoutSeconds int    `yaml:"read_header_timeout_seconds"`
	ShutdownTimeoutSeconds   int    `yaml:"shutdown_timeout_seconds"`
}

// AuthConfig configures the API key check. The key itself is usually supplied
// via the environment variable named by APIKeyEnv so it stays out of files.
type AuthConfig struct {
	Mode      string `yaml:"mode"`
	APIKey    string `yaml:"api_key"`
	APIKeyEnv string `yaml:"api_key_env"`
}

// StorageConfig selects the backing store for loads and call logs.
type StorageConfig struct {
	Driver string      `yaml:"driver"`
	MySQL  MySQLConfig `yaml:"mysql"`
}

// MySQLConfig describes the connection pool for the MySQL driver.
type MySQLConfig struct {
	DSN                    string `yaml:"dsn"`
	DSNEnv                 string `yaml:"dsn_env"`
	MaxOpenConns           int    `yaml:"max_open_conns"`
	MaxIdleConns           int    `yaml:"max_idle_conns"`
	ConnMaxLifetimeSeconds int    `yaml:"conn_max_lifetime_seconds"`
	ConnMaxIdleTimeSeconds int    `yaml:"conn_max_idle_time_seconds"`
}

// BookingConfig selects the queue carrying accepted-deal events and the
// journal the processor appends them to.
type BookingConfig struct {
	QueueDriver string         `yaml:"queue_driver"`
	Workers     int            `yaml:"workers"`
	JournalPath string         `yaml:"journal_path"`
	Redis       RedisConfig    `yaml:"redis"`
	RabbitMQ    RabbitMQConfig `yaml:"rabbitmq"`
}

// RedisConfig describes the Redis list used as a booking queue.
type RedisConfig struct {
	Address          string `yaml:"address"`
	Password         string `yaml:"password"`
	DB               int    `yaml:"db"`
	Queue            string `yaml:"queue"`
	BlockWaitSeconds int    `yaml:"block_wait_seconds"`
}

// RabbitMQConfig describes the RabbitMQ queue used for booking events.
type RabbitMQConfig struct {
	URL        string `yaml:"url"`
	Queue      string `yaml:"queue"`
	Prefetch   int    `yaml:"prefetch"`
	Durable    bool   `yaml:"durable"`
	AutoDelete bool   `yaml:"auto_delete"`
}

// NegotiationConfig tunes the pricing engine. The round limit is a fixed
// policy constant and deliberately not configurable.
type NegotiationConfig struct {
	Strategy                 string `yaml:"strategy"`
	RepositoryTimeoutSeconds int    `yaml:"repository_timeout_seconds"`
}

// LoggingConfig mirrors pkg/logger.Config.
type LoggingConfig struct {
	Level   string         `yaml:"level"`
	Format  string         `yaml:"format"`
	Outputs []string       `yaml:"outputs"`
	Audit   AuditLogConfig `yaml:"audit"`
}

// AuditLogConfig controls the rotating audit log.
type AuditLogConfig struct {
	Enabled    bool   `yaml:"enabled"`
	Path       string `yaml:"path"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
}

// Load parses the YAML config at path, applies defaults and resolves
// environment overrides for secrets.
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is empty")
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(content, &cfg); err != nil {
		return nil, fmt.Errorf("parse config file: %w", err)
	}

	cfg.applyDefaults(filepath.Dir(path))
	cfg.resolveEnv()

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyDefaults(baseDir string) {
	if c.Server.Address == "" {
		c.Server.Address = ":8000"
	}
	if c.Server.ReadHeaderTimeoutSeconds <= 0 {
		c.Server.ReadHeaderTimeoutSeconds = 5
	}
	if c.Server.ShutdownTimeoutSeconds <= 0 {
		c.Server.ShutdownTimeoutSeconds = 5
	}

	if c.Auth.Mode == "" {
		c.Auth.Mode = "api_key"
	}
	if c.Auth.APIKeyEnv == "" {
		c.Auth.APIKeyEnv = "CARRIERDESK_API_KEY"
	}

	if c.Storage.Driver == "" {
		c.Storage.Driver = "memory"
	}
	if c.Storage.MySQL.DSNEnv == "" {
		c.Storage.MySQL.DSNEnv = "CARRIERDESK_MYSQL_DSN"
	}

	if c.Booking.QueueDriver == "" {
		c.Booking.QueueDriver = "memory"
	}
	if c.Booking.Workers <= 0 {
		c.Booking.Workers = 1
	}
	if c.Booking.JournalPath == "" {
		c.Booking.JournalPath = filepath.Join(baseDir, "data", "bookings.log")
	} else if !filepath.IsAbs(c.Booking.JournalPath) {
		c.Booking.JournalPath = filepath.Join(baseDir, c.Booking.JournalPath)
	}
	if c.Booking.Redis.Queue == "" {
		c.Booking.Redis.Queue = "carrierdesk:bookings"
	}
	if c.Booking.Redis.BlockWaitSeconds <= 0 {
		c.Booking.Redis.BlockWaitSeconds = 5
	}
	if c.Booking.RabbitMQ.Queue == "" {
		c.Booking.RabbitMQ.Queue = "carrierdesk.bookings"
	}

	if c.Negotiation.Strategy == "" {
		c.Negotiation.Strategy = "midpoint"
	}
	if c.Negotiation.RepositoryTimeoutSeconds <= 0 {
		c.Negotiation.RepositoryTimeoutSeconds = 5
	}
}

// resolveEnv pulls secrets from the environment when the file leaves them
// blank. File values win so tests can inject keys directly.
func (c *Config) resolveEnv() {
	if c.Auth.APIKey == "" && c.Auth.APIKeyEnv != "" {
		c.Auth.APIKey = strings.TrimSpace(os.Getenv(c.Auth.APIKeyEnv))
	}
	if c.Storage.MySQL.DSN == "" && c.Storage.MySQL.DSNEnv != "" {
		c.Storage.MySQL.DSN = strings.TrimSpace(os.Getenv(c.Storage.MySQL.DSNEnv))
	}
}

func (c *Config) validate() error {
	switch c.Storage.Driver {
	case "memory", "mysql":
	default:
		return fmt.Errorf("unsupported storage driver: %s", c.Storage.Driver)
	}
	switch c.Booking.QueueDriver {
	case "memory", "redis", "rabbitmq":
	default:
		return fmt.Errorf("unsupported booking queue driver: %s", c.Booking.QueueDriver)
	}
	switch c.Negotiation.Strategy {
	case "midpoint", "jitter":
	default:
		return fmt.Errorf("unsupported negotiation strategy: %s", c.Negotiation.Strategy)
	}
	switch c.Auth.Mode {
	case "disabled", "api_key":
	default:
		return fmt.Errorf("unsupported auth mode: %s", c.Auth.Mode)
	}
	if c.Auth.Mode == "api_key" && c.Auth.APIKey == "" {
		return fmt.Errorf("auth mode api_key requires api_key or %s", c.Auth.APIKeyEnv)
	}
	if c.Storage.Driver == "mysql" && c.Storage.MySQL.DSN == "" {
		return fmt.Errorf("storage driver mysql requires dsn or %s", c.Storage.MySQL.DSNEnv)
	}
	return nil
}

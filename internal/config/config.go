// Package config provides configuration management for the product manager.
// Configuration can be loaded from YAML files and environment variables.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config represents the complete application configuration.
type Config struct {
	Database DatabaseConfig `mapstructure:"database"`
	KV       KVConfig       `mapstructure:"kv"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Storage  StorageConfig  `mapstructure:"storage"`
	Auth     AuthConfig     `mapstructure:"auth"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// DatabaseConfig holds settings for the indexed store.
// Supports SQLite, PostgreSQL, or no indexed store at all.
type DatabaseConfig struct {
	// Driver specifies the database driver: "sqlite", "postgres" or "none".
	// With "none" users and products fall back to the key-value store.
	Driver string `mapstructure:"driver"`

	// AutoMigrate applies pending schema migrations when the store is opened.
	AutoMigrate bool `mapstructure:"auto_migrate"`

	// PostgreSQL settings (used when Driver is "postgres")
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	Database        string        `mapstructure:"database"`
	SSLMode         string        `mapstructure:"ssl_mode"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time"`

	// SQLite settings (used when Driver is "sqlite")
	Path            string `mapstructure:"path"`             // Path to SQLite database file
	JournalMode     string `mapstructure:"journal_mode"`     // WAL, DELETE, TRUNCATE, etc.
	BusyTimeout     int    `mapstructure:"busy_timeout"`     // Milliseconds to wait for locks
	SynchronousMode string `mapstructure:"synchronous_mode"` // NORMAL, FULL, OFF
}

// DSN returns the PostgreSQL connection string.
// Only valid when Driver is "postgres".
func (c DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}

// IsEmbedded returns true if using an embedded database (SQLite).
func (c DatabaseConfig) IsEmbedded() bool {
	return c.Driver == "sqlite"
}

// Enabled reports whether an indexed store is configured.
func (c DatabaseConfig) Enabled() bool {
	return c.Driver != "none"
}

// KVConfig selects the key-value store backend.
type KVConfig struct {
	// Backend is one of "memory", "redis" or "sqlite".
	// "sqlite" keeps entries in the kv_entries table of the SQLite database.
	Backend string `mapstructure:"backend"`

	// Namespace prefixes every key written to a shared backend such as Redis.
	Namespace string `mapstructure:"namespace"`

	// CleanupInterval controls how often the memory backend evicts expired keys.
	CleanupInterval time.Duration `mapstructure:"cleanup_interval"`
}

// RedisConfig holds Redis connection settings.
type RedisConfig struct {
	Host        string        `mapstructure:"host"`
	Port        int           `mapstructure:"port"`
	Password    string        `mapstructure:"password"`
	DB          int           `mapstructure:"db"`
	PoolSize    int           `mapstructure:"pool_size"`
	DialTimeout time.Duration `mapstructure:"dial_timeout"`
}

// Addr returns the Redis address in host:port format.
func (c RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// StorageConfig controls where user records live.
type StorageConfig struct {
	// UserStore is one of "auto", "indexed", "kv" or "dual".
	// "auto" uses the indexed store when one is configured and the KV map otherwise.
	UserStore string `mapstructure:"user_store"`

	// SessionStore is "kv" or "indexed".
	SessionStore string `mapstructure:"session_store"`
}

// AuthConfig holds authentication settings.
type AuthConfig struct {
	// Mode selects the authenticator: "secure", "simple" or "prototype".
	// Only "secure" hashes passwords; the others exist for demos.
	Mode string `mapstructure:"mode"`

	// PBKDF2Iterations is the PBKDF2-HMAC-SHA256 work factor.
	PBKDF2Iterations int `mapstructure:"pbkdf2_iterations"`

	// SessionTTL is the lifetime of a regular session.
	SessionTTL time.Duration `mapstructure:"session_ttl"`

	// RememberMeTTL is the lifetime of a session created with "remember me".
	RememberMeTTL time.Duration `mapstructure:"remember_me_ttl"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	Output     string `mapstructure:"output"`
	TimeFormat string `mapstructure:"time_format"`
}

// Load reads configuration from the specified file and environment variables.
// Environment variables take precedence over file values.
// Environment variables are prefixed with PMGR_ and use _ as separator.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetEnvPrefix("PMGR")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath(defaultDataDir())
	}

	// Config file is optional - environment variables can be used instead
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// defaultDataDir returns the per-user directory for the database and config file.
func defaultDataDir() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, "pmgr")
	}
	return "./data"
}

// setDefaults sets default configuration values.
func setDefaults(v *viper.Viper) {
	dataDir := defaultDataDir()

	// Database defaults
	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.auto_migrate", true)
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "pmgr")
	v.SetDefault("database.password", "")
	v.SetDefault("database.database", "pmgr")
	v.SetDefault("database.ssl_mode", "prefer")
	v.SetDefault("database.max_open_conns", 10)
	v.SetDefault("database.max_idle_conns", 2)
	v.SetDefault("database.conn_max_lifetime", 5*time.Minute)
	v.SetDefault("database.conn_max_idle_time", 5*time.Minute)
	v.SetDefault("database.path", filepath.Join(dataDir, "pmgr.db"))
	v.SetDefault("database.journal_mode", "WAL")
	v.SetDefault("database.busy_timeout", 5000)
	v.SetDefault("database.synchronous_mode", "NORMAL")

	// KV defaults
	v.SetDefault("kv.backend", "sqlite")
	v.SetDefault("kv.namespace", "pmgr")
	v.SetDefault("kv.cleanup_interval", time.Minute)

	// Redis defaults
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.pool_size", 10)
	v.SetDefault("redis.dial_timeout", 5*time.Second)

	v.SetDefault("storage.user_store", "auto")
	v.SetDefault("storage.session_store", "kv")

	// Auth defaults
	v.SetDefault("auth.mode", "secure")
	v.SetDefault("auth.pbkdf2_iterations", 100000)
	v.SetDefault("auth.session_ttl", 24*time.Hour)
	v.SetDefault("auth.remember_me_ttl", 30*24*time.Hour)

	// Logging defaults
	v.SetDefault("logging.level", "warn")
	v.SetDefault("logging.format", "console")
	v.SetDefault("logging.output", "stderr")
	v.SetDefault("logging.time_format", time.RFC3339)
}

// Validate checks the configuration for required values and valid ranges.
func (c *Config) Validate() error {
	validDrivers := map[string]bool{"postgres": true, "sqlite": true, "none": true}
	if !validDrivers[c.Database.Driver] {
		return fmt.Errorf("database.driver must be 'sqlite', 'postgres' or 'none'")
	}

	switch c.Database.Driver {
	case "postgres":
		if c.Database.Host == "" {
			return fmt.Errorf("database.host is required for postgres driver")
		}
		if c.Database.User == "" {
			return fmt.Errorf("database.user is required for postgres driver")
		}
		if c.Database.Database == "" {
			return fmt.Errorf("database.database is required for postgres driver")
		}
	case "sqlite":
		if c.Database.Path == "" {
			return fmt.Errorf("database.path is required for sqlite driver")
		}
	}

	validKV := map[string]bool{"memory": true, "redis": true, "sqlite": true}
	if !validKV[c.KV.Backend] {
		return fmt.Errorf("kv.backend must be 'memory', 'redis' or 'sqlite'")
	}
	if c.KV.Backend == "sqlite" && !c.Database.IsEmbedded() {
		return fmt.Errorf("kv.backend 'sqlite' requires database.driver 'sqlite'")
	}

	validUserStores := map[string]bool{"auto": true, "indexed": true, "kv": true, "dual": true}
	if !validUserStores[c.Storage.UserStore] {
		return fmt.Errorf("storage.user_store must be one of: auto, indexed, kv, dual")
	}
	if (c.Storage.UserStore == "indexed" || c.Storage.UserStore == "dual") && !c.Database.Enabled() {
		return fmt.Errorf("storage.user_store %q requires an indexed database", c.Storage.UserStore)
	}

	switch c.Storage.SessionStore {
	case "kv":
	case "indexed":
		if !c.Database.Enabled() {
			return fmt.Errorf("storage.session_store 'indexed' requires an indexed database")
		}
	default:
		return fmt.Errorf("storage.session_store must be 'kv' or 'indexed'")
	}

	validModes := map[string]bool{"secure": true, "simple": true, "prototype": true}
	if !validModes[c.Auth.Mode] {
		return fmt.Errorf("auth.mode must be one of: secure, simple, prototype")
	}
	if c.Auth.PBKDF2Iterations < 1 {
		return fmt.Errorf("auth.pbkdf2_iterations must be positive")
	}
	if c.Auth.SessionTTL <= 0 || c.Auth.RememberMeTTL <= 0 {
		return fmt.Errorf("auth.session_ttl and auth.remember_me_ttl must be positive")
	}

	validLevels := map[string]bool{
		"trace": true, "debug": true, "info": true,
		"warn": true, "error": true, "fatal": true, "panic": true,
	}
	if !validLevels[strings.ToLower(c.Logging.Level)] {
		return fmt.Errorf("logging.level must be one of: trace, debug, info, warn, error, fatal, panic")
	}

	return nil
}

// MustLoad loads configuration or panics on error.
func MustLoad(configPath string) *Config {
	cfg, err := Load(configPath)
	if err != nil {
		panic(fmt.Sprintf("failed to load configuration: %v", err))
	}
	return cfg
}

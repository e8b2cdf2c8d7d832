package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, "logging:\n  level: info\n"))
	require.NoError(t, err)

	require.Equal(t, "sqlite", cfg.Database.Driver)
	require.True(t, cfg.Database.AutoMigrate)
	require.Equal(t, "sqlite", cfg.KV.Backend)
	require.Equal(t, "auto", cfg.Storage.UserStore)
	require.Equal(t, "kv", cfg.Storage.SessionStore)
	require.Equal(t, "secure", cfg.Auth.Mode)
	require.Equal(t, 100000, cfg.Auth.PBKDF2Iterations)
	require.Equal(t, 24*time.Hour, cfg.Auth.SessionTTL)
	require.Equal(t, 30*24*time.Hour, cfg.Auth.RememberMeTTL)
	require.Equal(t, "info", cfg.Logging.Level)
}

func TestLoad_FileAndEnv(t *testing.T) {
	path := writeConfig(t, `
database:
  driver: none
kv:
  backend: memory
auth:
  mode: prototype
  session_ttl: 2h
`)
	t.Setenv("PMGR_AUTH_MODE", "simple")

	cfg, err := Load(path)
	require.NoError(t, err)
	require.False(t, cfg.Database.Enabled())
	require.Equal(t, "memory", cfg.KV.Backend)
	require.Equal(t, "simple", cfg.Auth.Mode)
	require.Equal(t, 2*time.Hour, cfg.Auth.SessionTTL)
}

func TestLoad_InvalidFile(t *testing.T) {
	_, err := Load(writeConfig(t, "database: [unterminated"))
	require.Error(t, err)
}

func TestMustLoad(t *testing.T) {
	cfg := MustLoad(writeConfig(t, "auth:\n  mode: simple\n"))
	require.Equal(t, "simple", cfg.Auth.Mode)

	require.Panics(t, func() {
		MustLoad(writeConfig(t, "auth:\n  mode: bogus\n"))
	})
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Database: DatabaseConfig{Driver: "sqlite", Path: "pmgr.db"},
			KV:       KVConfig{Backend: "sqlite"},
			Storage:  StorageConfig{UserStore: "auto", SessionStore: "kv"},
			Auth:     AuthConfig{Mode: "secure", PBKDF2Iterations: 1, SessionTTL: time.Hour, RememberMeTTL: time.Hour},
			Logging:  LoggingConfig{Level: "warn"},
		}
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{name: "valid", mutate: func(c *Config) {}},
		{name: "unknown driver", mutate: func(c *Config) { c.Database.Driver = "mysql" }, wantErr: "database.driver"},
		{name: "sqlite without path", mutate: func(c *Config) { c.Database.Path = "" }, wantErr: "database.path"},
		{name: "postgres without host", mutate: func(c *Config) {
			c.Database = DatabaseConfig{Driver: "postgres", User: "u", Database: "d"}
			c.KV.Backend = "memory"
		}, wantErr: "database.host"},
		{name: "sqlite kv without sqlite db", mutate: func(c *Config) { c.Database.Driver = "none" }, wantErr: "kv.backend 'sqlite'"},
		{name: "unknown kv", mutate: func(c *Config) { c.KV.Backend = "etcd" }, wantErr: "kv.backend must be"},
		{name: "indexed users without db", mutate: func(c *Config) {
			c.Database.Driver = "none"
			c.KV.Backend = "memory"
			c.Storage.UserStore = "dual"
		}, wantErr: "storage.user_store \"dual\""},
		{name: "indexed sessions without db", mutate: func(c *Config) {
			c.Database.Driver = "none"
			c.KV.Backend = "memory"
			c.Storage.SessionStore = "indexed"
		}, wantErr: "storage.session_store 'indexed'"},
		{name: "unknown session store", mutate: func(c *Config) { c.Storage.SessionStore = "file" }, wantErr: "storage.session_store must be"},
		{name: "unknown mode", mutate: func(c *Config) { c.Auth.Mode = "oauth" }, wantErr: "auth.mode"},
		{name: "zero iterations", mutate: func(c *Config) { c.Auth.PBKDF2Iterations = 0 }, wantErr: "pbkdf2_iterations"},
		{name: "zero ttl", mutate: func(c *Config) { c.Auth.SessionTTL = 0 }, wantErr: "session_ttl"},
		{name: "bad log level", mutate: func(c *Config) { c.Logging.Level = "loud" }, wantErr: "logging.level"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.ErrorContains(t, err, tt.wantErr)
		})
	}
}

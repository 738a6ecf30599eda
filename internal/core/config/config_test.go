package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeTestConfig(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()

	tariffDir := filepath.Join(dir, "tariffs")
	require.NoError(t, os.Mkdir(tariffDir, 0o755))

	path := filepath.Join(dir, "wattbill.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content+"\ntariffs:\n  config_dir: "+tariffDir+"\n"), 0o644))
	return path
}

func TestLoad_DefaultsAndFile(t *testing.T) {
	path := writeTestConfig(t, `
server:
  port: 9090
database:
  dsn: postgres://localhost/wattbill
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	require.Equal(t, 9090, cfg.Server.Port)
	require.Equal(t, "0.0.0.0", cfg.Server.Host)
	require.Equal(t, "release", cfg.Server.Mode)
	require.Equal(t, 25, cfg.Database.MaxOpenConns)
	require.Equal(t, "Europe/Brussels", cfg.Timezone)
	require.True(t, cfg.Market.Enabled)

	flush, err := cfg.CacheFlushInterval()
	require.NoError(t, err)
	require.Equal(t, "24h0m0s", flush.String())
}

func TestLoad_EnvOverrides(t *testing.T) {
	path := writeTestConfig(t, `
database:
  dsn: postgres://localhost/wattbill
`)

	t.Setenv("WATTBILL_SERVER__PORT", "7070")
	t.Setenv("WATTBILL_SERVER__MODE", "debug")

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, 7070, cfg.Server.Port)
	require.Equal(t, "debug", cfg.Server.Mode)
}

func TestLoad_MissingDSN(t *testing.T) {
	path := writeTestConfig(t, `
server:
  port: 8080
`)

	_, err := Load(path)
	require.Error(t, err)
	require.Contains(t, err.Error(), "database.dsn")
}

func TestValidate_RejectsBadValues(t *testing.T) {
	tariffDir := t.TempDir()

	base := func() *Config {
		return &Config{
			Server:   ServerConfig{Port: 8080, Host: "0.0.0.0", Mode: "release"},
			Database: DatabaseConfig{Type: "postgres", DSN: "postgres://x", MaxOpenConns: 5, MaxIdleConns: 5},
			Tariffs:  TariffsConfig{ConfigDir: tariffDir},
			Cache:    CacheConfig{FlushInterval: "24h"},
			Market:   MarketConfig{Enabled: false},
			Timezone: "Europe/Brussels",
		}
	}

	require.NoError(t, base().Validate())

	cfg := base()
	cfg.Server.Port = 0
	require.Error(t, cfg.Validate())

	cfg = base()
	cfg.Server.Mode = "verbose"
	require.Error(t, cfg.Validate())

	cfg = base()
	cfg.Database.Type = "sqlite"
	require.Error(t, cfg.Validate())

	cfg = base()
	cfg.Cache.FlushInterval = "soon"
	require.Error(t, cfg.Validate())

	cfg = base()
	cfg.Timezone = "Mars/Olympus"
	require.Error(t, cfg.Validate())

	cfg = base()
	cfg.Market = MarketConfig{Enabled: true, BaseURL: "", UpdateInterval: "1h"}
	require.Error(t, cfg.Validate())
}

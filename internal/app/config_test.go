package app

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig(t.TempDir())
	require.NoError(t, err)

	require.Equal(t, 8000, cfg.Server.Port)
	require.Equal(t, "info", cfg.Server.LogLevel)
	require.True(t, cfg.Server.RateLimit.Enabled)
	require.Equal(t, time.Minute, cfg.Server.RateLimit.Window)
	require.Equal(t, "sqlite", cfg.Database.Driver)
	require.Equal(t, "tenderdesk", cfg.Auth.JWT.Issuer)
	require.Equal(t, 15*time.Minute, cfg.Auth.JWT.TTL)
	require.True(t, cfg.Reminders.Enabled)
	require.Equal(t, "@hourly", cfg.Reminders.Schedule)
}

func TestLoadConfigEnvOverrides(t *testing.T) {
	t.Setenv("TENDERDESK_SERVER_PORT", "9090")
	t.Setenv("TENDERDESK_AUTH_JWT_SECRET", "env-secret")
	t.Setenv("TENDERDESK_AUTH_JWT_ACCESS_TOKEN_TTL", "1h")

	cfg, err := LoadConfig(t.TempDir())
	require.NoError(t, err)

	require.Equal(t, 9090, cfg.Server.Port)
	require.Equal(t, "env-secret", cfg.Auth.JWT.Secret)
	require.Equal(t, time.Hour, cfg.Auth.JWT.TTL)
}

func TestConfigValidateRequiresJWTSecret(t *testing.T) {
	cfg, err := LoadConfig(t.TempDir())
	require.NoError(t, err)

	require.Error(t, cfg.Validate())

	cfg.Auth.JWT.Secret = "configured"
	require.NoError(t, cfg.Validate())
}

func TestDatabaseConfigConversion(t *testing.T) {
	cfg := &Config{}
	cfg.Database.Driver = "postgresql"
	cfg.Database.Postgres.Host = "db.internal"
	cfg.Database.Postgres.Port = 5432
	cfg.Database.Postgres.Database = "tenderdesk"
	cfg.Database.Postgres.Username = "svc"
	cfg.Database.Postgres.Password = "pw"

	dbCfg := cfg.DatabaseConfig()
	require.Equal(t, "postgres", dbCfg.Driver)
	require.Equal(t, "db.internal", dbCfg.Host)
	require.Equal(t, "tenderdesk", dbCfg.Name)

	cfg = &Config{}
	dbCfg = cfg.DatabaseConfig()
	require.Equal(t, "sqlite", dbCfg.Driver)
}

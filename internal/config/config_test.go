package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	for _, key := range []string{"DB_HOST", "DB_PORT", "DB_SSLMODE", "JWT_EXPIRY_HOURS", "APP_ENV"} {
		t.Setenv(key, "")
		require.NoError(t, os.Unsetenv(key))
	}

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)

	assert.False(t, cfg.EnvFileLoaded)
	assert.Equal(t, "localhost", cfg.DBHost)
	assert.Equal(t, "5432", cfg.DBPort)
	assert.Equal(t, "disable", cfg.DBSSLMode)
	assert.Equal(t, 72*time.Hour, cfg.JWTExpiry)
	assert.Equal(t, "local", cfg.AppEnv)
}

func TestLoad_EnvFileDoesNotOverrideProcessEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("DB_NAME=from_file\nSERVER_PORT=9090\n"), 0o600))
	t.Setenv("DB_NAME", "from_env")
	t.Setenv("SERVER_PORT", "")
	require.NoError(t, os.Unsetenv("SERVER_PORT"))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.True(t, cfg.EnvFileLoaded)
	assert.Equal(t, "from_env", cfg.DBName)
	assert.Equal(t, "9090", cfg.ServerPort)
}

func TestLoad_RejectsBadExpiry(t *testing.T) {
	t.Setenv("JWT_EXPIRY_HOURS", "soon")

	_, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	assert.Error(t, err)
}

func TestConfig_ConnectionStrings(t *testing.T) {
	cfg := &Config{DBHost: "db", DBPort: "5432", DBUser: "u", DBPassword: "p", DBName: "cal", DBSSLMode: "require"}

	assert.Equal(t, "host=db port=5432 user=u password=p dbname=cal sslmode=require", cfg.DSN())
	assert.Equal(t, "postgres://u:p@db:5432/cal?sslmode=require", cfg.MigrateURL())
}

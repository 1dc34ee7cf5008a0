package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearStorageEnv(t *testing.T) {
	t.Helper()
	t.Setenv("STORAGE_DRIVER", "")
	t.Setenv("DATABASE_URL", "")
	t.Setenv("SITE_URL", "")
}

func TestLoadDefaults(t *testing.T) {
	clearStorageEnv(t)
	t.Setenv("JWT_SECRET", "test-secret")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, DriverMemory, cfg.StorageDriver)
	assert.Equal(t, 7*24*time.Hour, cfg.TokenTTL)
	assert.Equal(t, "./db/migrations", cfg.MigrationsDir)
	assert.Equal(t, "./data/cases.json", cfg.CasesSnapshotPath)
	assert.True(t, cfg.SeedData)
	assert.False(t, cfg.Snapshot.Enabled())
	assert.False(t, cfg.SMTPConfigured())
}

func TestLoadPicksPostgresWhenDatabaseURLSet(t *testing.T) {
	clearStorageEnv(t)
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("DATABASE_URL", "postgres://costlaw@localhost/costlaw")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, DriverPostgres, cfg.StorageDriver)
}

func TestLoadExplicitDriverWins(t *testing.T) {
	clearStorageEnv(t)
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("DATABASE_URL", "postgres://costlaw@localhost/costlaw")
	t.Setenv("STORAGE_DRIVER", "SQLite")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, DriverSQLite, cfg.StorageDriver)
}

func TestLoadTrimsSiteURL(t *testing.T) {
	clearStorageEnv(t)
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("SITE_URL", "https://example.test/")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "https://example.test", cfg.SiteURL)
}

func TestLoadRejectsMissingSecret(t *testing.T) {
	clearStorageEnv(t)
	t.Setenv("JWT_SECRET", "")

	_, err := Load()
	require.ErrorIs(t, err, ErrMissingJWTSecret)
}

func TestLoadStorageSkipsTokenSettings(t *testing.T) {
	clearStorageEnv(t)
	t.Setenv("JWT_SECRET", "")
	t.Setenv("STORAGE_DRIVER", "sqlite")

	cfg, err := LoadStorage()
	require.NoError(t, err)
	assert.Equal(t, DriverSQLite, cfg.StorageDriver)
}

func TestLoadStorageRejectsUnknownDriver(t *testing.T) {
	clearStorageEnv(t)
	t.Setenv("STORAGE_DRIVER", "mongo")

	_, err := LoadStorage()
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	base := Config{StorageDriver: DriverMemory, JWTSecret: "s", TokenTTL: time.Hour}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{name: "memory", mutate: func(*Config) {}},
		{name: "sqlite", mutate: func(c *Config) { c.StorageDriver = DriverSQLite }},
		{name: "postgres without url", mutate: func(c *Config) { c.StorageDriver = DriverPostgres }, wantErr: true},
		{name: "postgres with url", mutate: func(c *Config) {
			c.StorageDriver = DriverPostgres
			c.DatabaseURL = "postgres://localhost/costlaw"
		}},
		{name: "unknown driver", mutate: func(c *Config) { c.StorageDriver = "mongo" }, wantErr: true},
		{name: "zero ttl", mutate: func(c *Config) { c.TokenTTL = 0 }, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestSnapshotEnabledNeedsBucketAndEndpoint(t *testing.T) {
	assert.False(t, SnapshotConfig{Bucket: "cases"}.Enabled())
	assert.False(t, SnapshotConfig{Endpoint: "minio:9000"}.Enabled())
	assert.True(t, SnapshotConfig{Bucket: "cases", Endpoint: "minio:9000"}.Enabled())
}

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromEnvDefaults(t *testing.T) {
	t.Setenv("APP_ENV", "")
	t.Setenv("FULFILLMENT_MODE", "")
	t.Setenv("ALLOW_NEGATIVE_STOCK", "")
	t.Setenv("JWT_SECRET", "")
	t.Setenv("JWT_TTL", "")
	t.Setenv("DATABASE_URL", "")

	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.Equal(t, "3000", cfg.Port)
	assert.Equal(t, FulfillmentSequential, cfg.FulfillmentMode)
	assert.True(t, cfg.AllowNegativeStock)
	assert.Equal(t, 24*time.Hour, cfg.JWTTTL)
	assert.NotEmpty(t, cfg.JWTSecret)
	assert.Contains(t, cfg.DSN(), "dbname=warehouse")
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("FULFILLMENT_MODE", "STRICT")
	t.Setenv("ALLOW_NEGATIVE_STOCK", "false")
	t.Setenv("DATABASE_URL", "postgres://u:p@db:5432/wh")
	t.Setenv("JWT_TTL", "2h")

	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.Equal(t, FulfillmentStrict, cfg.FulfillmentMode)
	assert.False(t, cfg.AllowNegativeStock)
	assert.Equal(t, "postgres://u:p@db:5432/wh", cfg.DSN())
	assert.Equal(t, 2*time.Hour, cfg.JWTTTL)
}

func TestFromEnvRejectsInvalidValues(t *testing.T) {
	cases := map[string][2]string{
		"mode":     {"FULFILLMENT_MODE", "eventual"},
		"negative": {"ALLOW_NEGATIVE_STOCK", "maybe"},
		"ttl":      {"JWT_TTL", "forever"},
	}
	for name, kv := range cases {
		t.Run(name, func(t *testing.T) {
			t.Setenv(kv[0], kv[1])
			_, err := FromEnv()
			assert.Error(t, err)
		})
	}
}

func TestFromEnvRequiresSecretInProduction(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("JWT_SECRET", "")

	_, err := FromEnv()
	assert.Error(t, err)
}

func TestLoadReportsMissingEnvFile(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)
	assert.False(t, cfg.EnvFileLoaded)
}

func TestLoadReadsEnvFile(t *testing.T) {
	const key = "KAFKA_TOPIC"
	prev, had := os.LookupEnv(key)
	require.NoError(t, os.Unsetenv(key))
	t.Cleanup(func() {
		if had {
			os.Setenv(key, prev)
		} else {
			os.Unsetenv(key)
		}
	})

	path := filepath.Join(t.TempDir(), "test.env")
	require.NoError(t, os.WriteFile(path, []byte(key+"=orders-from-file\n"), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.True(t, cfg.EnvFileLoaded)
	assert.Equal(t, "orders-from-file", cfg.KafkaTopic)
}

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() Config {
	cfg := Defaults()
	cfg.Auth.JWTSecret = "test-secret"
	return cfg
}

func TestDefaultsValidateWithSecret(t *testing.T) {
	cfg := validConfig()
	require.NoError(t, cfg.Validate())
}

func TestValidateRequiresJWTSecret(t *testing.T) {
	cfg := Defaults()
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "jwt_secret")
}

func TestValidateCollectsAllErrors(t *testing.T) {
	cfg := validConfig()
	cfg.Server.Port = 0
	cfg.Store.Backend = "cassandra"
	cfg.LogLevel = "loud"
	cfg.Escrow.MaxAttempts = 0

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "port")
	assert.Contains(t, err.Error(), "backend")
	assert.Contains(t, err.Error(), "log_level")
	assert.Contains(t, err.Error(), "max_attempts")
}

func TestValidateDynamoTablesOnlyWhenDynamoBackend(t *testing.T) {
	cfg := validConfig()
	cfg.Dynamo.BuyersTable = ""
	require.NoError(t, cfg.Validate(), "memory backend ignores dynamo settings")

	cfg.Store.Backend = "dynamo"
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "buyers_table")
}

func TestValidateS3OnlyWhenEnabled(t *testing.T) {
	cfg := validConfig()
	cfg.S3.Bucket = ""
	require.NoError(t, cfg.Validate())

	cfg.S3.Enabled = true
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bucket")
}

func TestLoadTOMLFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
log_level = "debug"

[server]
port = 9090

[store]
backend = "dynamo"

[auth]
jwt_secret = "from-file"
token_ttl = "45m"

[escrow]
max_attempts = 8
op_timeout = "3s"
`), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "dynamo", cfg.Store.Backend)
	assert.Equal(t, "from-file", cfg.Auth.JWTSecret)
	assert.Equal(t, 45*time.Minute, cfg.Auth.TokenTTL.Duration)
	assert.Equal(t, 8, cfg.Escrow.MaxAttempts)
	assert.Equal(t, 3*time.Second, cfg.Escrow.OpTimeout.Duration)
	assert.Equal(t, "debug", cfg.LogLevel)

	// Untouched sections keep their defaults.
	assert.Equal(t, "auction-buyers", cfg.Dynamo.BuyersTable)
}

func TestLoadWithoutPathUsesDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 8000, cfg.Server.Port)
	assert.Equal(t, "memory", cfg.Store.Backend)
}

func TestEnvOverridesWinOverFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[server]
port = 9090

[auth]
jwt_secret = "from-file"
`), 0o600))

	t.Setenv("AUCTION_SERVER_PORT", "7070")
	t.Setenv("AUCTION_AUTH_JWT_SECRET", "from-env")
	t.Setenv("AUCTION_STORE_BACKEND", "dynamo")
	t.Setenv("AUCTION_AUTH_TOKEN_TTL", "90m")
	t.Setenv("AUCTION_S3_ENABLED", "true")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 7070, cfg.Server.Port)
	assert.Equal(t, "from-env", cfg.Auth.JWTSecret)
	assert.Equal(t, "dynamo", cfg.Store.Backend)
	assert.Equal(t, 90*time.Minute, cfg.Auth.TokenTTL.Duration)
	assert.True(t, cfg.S3.Enabled)
}

func TestRedactedConfigHidesSecrets(t *testing.T) {
	cfg := validConfig()
	cfg.Auth.JWTSecret = "super-secret"
	cfg.Dynamo.AccessKey = "AKIA123"
	cfg.Dynamo.SecretKey = "dynamo-secret"
	cfg.S3.AccessKey = "minio"
	cfg.S3.SecretKey = "s3-secret"

	red := RedactedConfig(&cfg)

	assert.NotContains(t, red.Auth.JWTSecret, "super-secret")
	assert.NotContains(t, red.Dynamo.SecretKey, "dynamo-secret")
	assert.NotContains(t, red.S3.SecretKey, "s3-secret")

	// The original is untouched.
	assert.Equal(t, "super-secret", cfg.Auth.JWTSecret)
}

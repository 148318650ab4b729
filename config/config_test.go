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
	t.Setenv("CONFIG_FILE", "")
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "5000", cfg.Port)
	assert.Equal(t, "sandbox", cfg.Gateway.Provider)
	assert.Equal(t, 15*time.Minute, cfg.Checkout.TTL)
}

func TestLoad_FileThenEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "app.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
port: "7000"
db_path: file.db
checkout:
  ttl: 5m
kafka:
  brokers: ["k1:9092"]
`), 0o600))

	t.Setenv("CONFIG_FILE", path)
	t.Setenv("PORT", "8081")
	t.Setenv("KAFKA_BROKERS", "a:1,b:2")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "8081", cfg.Port, "env overrides file")
	assert.Equal(t, "file.db", cfg.DBPath)
	assert.Equal(t, 5*time.Minute, cfg.Checkout.TTL)
	assert.Equal(t, []string{"a:1", "b:2"}, cfg.Kafka.Brokers)
}

func TestLoad_RazorpayNeedsKeys(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("GATEWAY", "razorpay")
	_, err := Load()
	assert.Error(t, err)

	t.Setenv("RAZORPAY_KEY_ID", "rzp_test_x")
	t.Setenv("RAZORPAY_KEY_SECRET", "s3cret")
	cfg, err := Load()
	require.NoError(t, err)
	assert.NotContains(t, cfg.String(), "s3cret")
}

func TestLoad_BadDuration(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("CHECKOUT_TTL", "soon")
	_, err := Load()
	assert.Error(t, err)
}

func TestSeedAdmin(t *testing.T) {
	db, err := OpenDB("file:seedadmin?mode=memory&cache=shared")
	require.NoError(t, err)

	created, err := SeedAdmin(db, "root@coconut.test", "changeme")
	require.NoError(t, err)
	assert.True(t, created)

	created, err = SeedAdmin(db, "other@coconut.test", "changeme")
	require.NoError(t, err)
	assert.False(t, created, "an admin already exists")

	created, err = SeedAdmin(db, "", "")
	require.NoError(t, err)
	assert.False(t, created)
}

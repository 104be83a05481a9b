package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func TestLoad_DefaultsWhenNoConfigDir(t *testing.T) {
	cfg, err := Load("local", filepath.Join(t.TempDir(), "missing"))
	require.NoError(t, err)

	assert.Equal(t, BackendSQLite, cfg.Store.Backend)
	assert.Equal(t, 25, cfg.Timer.WorkMinutes)
	assert.Equal(t, 5, cfg.Timer.BreakMinutes)
	assert.Equal(t, time.Minute, cfg.Runner.Interval)
}

func TestLoad_LayeredFiles(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "base.yaml", `
server:
  port: "9000"
store:
  backend: redis
  namespace: "fd:"
redis:
  addr: "redis:6379"
  password: "${REDIS_SECRET}"
timer:
  work_minutes: 50
  break_minutes: 10
runner:
  interval: 30s
`)
	writeFile(t, dir, "production.yaml", `
store:
  backend: postgres
timer:
  work_minutes: 45
`)
	writeFile(t, dir, "secrets.env", "REDIS_SECRET='s3cret'\n# comment\n")

	cfg, err := Load("production", dir)
	require.NoError(t, err)

	assert.Equal(t, "9000", cfg.Server.Port)
	assert.Equal(t, BackendPostgres, cfg.Store.Backend)
	assert.Equal(t, "fd:", cfg.Store.Namespace)
	assert.Equal(t, "s3cret", cfg.Redis.Password)
	assert.Equal(t, 45, cfg.Timer.WorkMinutes)
	assert.Equal(t, 10, cfg.Timer.BreakMinutes)
	assert.Equal(t, 30*time.Second, cfg.Runner.Interval)
}

func TestLoad_EnvOverrides(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "base.yaml", "store:\n  backend: sqlite\n")

	t.Setenv("STORE_BACKEND", "memory")
	t.Setenv("SERVER_PORT", "7777")
	t.Setenv("MQ_URL", "amqp://mq:5672/")

	cfg, err := Load("local", dir)
	require.NoError(t, err)

	assert.Equal(t, BackendMemory, cfg.Store.Backend)
	assert.Equal(t, "7777", cfg.Server.Port)
	assert.True(t, cfg.MQ.Enabled)
	assert.Equal(t, "amqp://mq:5672/", cfg.MQ.URL)
}

func TestValidate(t *testing.T) {
	t.Run("unknown backend", func(t *testing.T) {
		cfg := Default()
		cfg.Store.Backend = "etcd"
		assert.Error(t, cfg.Validate())
	})

	t.Run("auth without secret", func(t *testing.T) {
		cfg := Default()
		cfg.Auth.Enabled = true
		cfg.Auth.PasswordHash = "$2a$08$abc"
		assert.Error(t, cfg.Validate())
	})

	t.Run("bad timezone", func(t *testing.T) {
		cfg := Default()
		cfg.Timezone = "Mars/Olympus"
		assert.Error(t, cfg.Validate())
	})

	t.Run("defaults are valid", func(t *testing.T) {
		assert.NoError(t, Default().Validate())
	})
}

func TestMergeMaps_Nested(t *testing.T) {
	base := map[string]interface{}{
		"store": map[string]interface{}{"backend": "sqlite", "namespace": "a:"},
		"log":   map[string]interface{}{"level": "info"},
	}
	override := map[string]interface{}{
		"store": map[string]interface{}{"backend": "redis"},
	}

	merged := mergeMaps(base, override)
	store := merged["store"].(map[string]interface{})
	assert.Equal(t, "redis", store["backend"])
	assert.Equal(t, "a:", store["namespace"])
	assert.Equal(t, "info", merged["log"].(map[string]interface{})["level"])
}

func TestLoad_UnresolvedPlaceholderKept(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "base.yaml", "db:\n  password: \"${FOCUSDESK_UNSET_SECRET}\"\n")

	cfg, err := Load("local", dir)
	require.NoError(t, err)
	assert.Equal(t, "${FOCUSDESK_UNSET_SECRET}", cfg.DB.Password)
}

func TestLoad_OTelFromEnv(t *testing.T) {
	t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "http://collector:4318")

	cfg, err := Load("local", filepath.Join(t.TempDir(), "missing"))
	require.NoError(t, err)
	assert.True(t, cfg.OTel.Enabled)
	assert.Equal(t, "http://collector:4318", cfg.OTel.Endpoint)
	assert.Equal(t, "focusdesk", cfg.OTel.ServiceName)
}

func TestValidate_OTel(t *testing.T) {
	cfg := Default()
	cfg.OTel.Enabled = true
	assert.Error(t, cfg.Validate(), "endpoint required")

	cfg.OTel.Endpoint = "http://collector:4318"
	cfg.OTel.SampleRatio = 1.5
	assert.Error(t, cfg.Validate())

	cfg.OTel.SampleRatio = 0.5
	assert.NoError(t, cfg.Validate())
}

func TestLoad_LiteralDollarUntouched(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "base.yaml", "auth:\n  password_hash: '$2a$10$abcdefghijklmnopqrstuv'\n  jwt_secret: s\n")

	cfg, err := Load("local", dir)
	require.NoError(t, err)
	assert.Equal(t, "$2a$10$abcdefghijklmnopqrstuv", cfg.Auth.PasswordHash)
}

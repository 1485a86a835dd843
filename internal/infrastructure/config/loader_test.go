package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const minimalYAML = `
server:
  port: 9090
  readTimeout: 7
  shutdownTimeout: 3
database:
  driver: "sqlite"
  database: "portal.db"
  queryTimeout: 4
  connMaxLifetime: 2
logger:
  level: "info"
payment:
  webhookTimeout: 12
gateway:
  timeout: 6
notifications:
  staffUserIds: ["staff-a"]
`

func writeConfig(t *testing.T, env, content string) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, env+".yaml"), []byte(content), 0o600))
	return dir
}

func TestLoadConfigFor(t *testing.T) {
	t.Run("durations and defaults", func(t *testing.T) {
		dir := writeConfig(t, Test, minimalYAML)

		cfg, err := LoadConfigFor(Test, dir)

		require.NoError(t, err)
		assert.Equal(t, Test, cfg.Environment)
		assert.Equal(t, 9090, cfg.Server.Port)
		assert.Equal(t, 7*time.Second, cfg.Server.ReadTimeout)
		assert.Equal(t, 30*time.Second, cfg.Server.WriteTimeout)
		assert.Equal(t, 4*time.Second, cfg.Database.QueryTimeout)
		assert.Equal(t, 2*time.Minute, cfg.Database.ConnMaxLifetime)
		assert.Equal(t, 5, cfg.Database.TxMaxRetries)
		assert.Equal(t, 4, cfg.Database.HookWorkers)
		assert.Equal(t, 3*time.Second, cfg.Database.HookTimeout)
		assert.Equal(t, 12*time.Second, cfg.Payment.WebhookTimeout)
		assert.Equal(t, "DZD", cfg.Payment.Currency)
		assert.Equal(t, 8, cfg.Payment.SequencerWorkers)
		assert.Equal(t, 6*time.Second, cfg.Gateway.Timeout)
		assert.Equal(t, 25*time.Second, cfg.Realtime.HeartbeatInterval)
		assert.Equal(t, "payments.ledger", cfg.Messaging.Topic)
		assert.Equal(t, []string{"staff-a"}, cfg.Notifications.StaffUserIDs)
	})

	t.Run("environment overrides", func(t *testing.T) {
		dir := writeConfig(t, Test, minimalYAML)
		t.Setenv("CP_SERVER_PORT", "7070")
		t.Setenv("CP_GATEWAY_SECRET_KEY", "sk_from_env")
		t.Setenv("CP_KAFKA_BROKERS", "kafka-1:9092, kafka-2:9092")
		t.Setenv("CP_NOTIFICATIONS_STAFF_USER_IDS", "staff-x,staff-y")

		cfg, err := LoadConfigFor(Test, dir)

		require.NoError(t, err)
		assert.Equal(t, 7070, cfg.Server.Port)
		assert.Equal(t, "sk_from_env", cfg.Gateway.SecretKey)
		assert.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, cfg.Messaging.Brokers)
		assert.Equal(t, []string{"staff-x", "staff-y"}, cfg.Notifications.StaffUserIDs)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := LoadConfigFor(Test, t.TempDir())
		assert.Error(t, err)
	})

	t.Run("production requires secrets", func(t *testing.T) {
		dir := writeConfig(t, Production, minimalYAML)

		_, err := LoadConfigFor(Production, dir)

		require.Error(t, err)
		assert.Contains(t, err.Error(), "gateway.secretKey")
		assert.Contains(t, err.Error(), "auth.jwtSecret")
	})
}

func TestConfig_Validate(t *testing.T) {
	cfg := &Config{Environment: "staging"}
	assert.ErrorContains(t, cfg.Validate(), "invalid environment value")

	cfg = &Config{Environment: Development, Database: DatabaseConfig{Driver: "postgres"}}
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "server.port")
	assert.Contains(t, err.Error(), "database.host")
	assert.Contains(t, err.Error(), "payment.currency")
}

func TestConfig_Warnings(t *testing.T) {
	cfg := &Config{Environment: Development}
	assert.Empty(t, cfg.Warnings())

	cfg = &Config{
		Environment: Production,
		Server:      ServerConfig{ReadTimeout: time.Second},
		Database:    DatabaseConfig{SSLMode: "disable"},
		Payment:     PaymentConfig{BackURL: "http://portal"},
	}
	warnings := cfg.Warnings()
	assert.Len(t, warnings, 5)
}

func TestLoadDotEnvFile(t *testing.T) {
	t.Run("first existing file wins", func(t *testing.T) {
		dir := t.TempDir()
		first := filepath.Join(dir, "first.env")
		second := filepath.Join(dir, "second.env")
		require.NoError(t, os.WriteFile(first, []byte("CP_DOTENV_SAMPLE=from-first\n"), 0o600))
		require.NoError(t, os.WriteFile(second, []byte("CP_DOTENV_SAMPLE=from-second\n"), 0o600))

		// Registered so the loaded value is removed afterwards; unset so the file applies
		t.Setenv("CP_DOTENV_SAMPLE", "")
		require.NoError(t, os.Unsetenv("CP_DOTENV_SAMPLE"))

		path, err := loadDotEnvFile([]string{filepath.Join(dir, "missing.env"), first, second})

		require.NoError(t, err)
		assert.Equal(t, first, path)
		assert.Equal(t, "from-first", os.Getenv("CP_DOTENV_SAMPLE"))
	})

	t.Run("nothing found", func(t *testing.T) {
		path, err := loadDotEnvFile([]string{filepath.Join(t.TempDir(), ".env")})

		assert.ErrorIs(t, err, ErrNoDotEnv)
		assert.Empty(t, path)
	})

	t.Run("unreadable file is reported", func(t *testing.T) {
		unreadable := filepath.Join(t.TempDir(), ".env")
		require.NoError(t, os.Mkdir(unreadable, 0o700))

		_, err := loadDotEnvFile([]string{unreadable})

		require.Error(t, err)
		assert.NotErrorIs(t, err, ErrNoDotEnv)
		assert.Contains(t, err.Error(), unreadable)

		saved := DotEnvPaths
		DotEnvPaths = []string{unreadable}
		t.Cleanup(func() { DotEnvPaths = saved })

		cfg, err := LoadConfig()
		assert.Nil(t, cfg)
		assert.ErrorContains(t, err, unreadable)
	})
}

func TestGetEnvironment(t *testing.T) {
	t.Setenv("CP_ENV", "")
	assert.Equal(t, Development, getEnvironment())

	t.Setenv("CP_ENV", "PRODUCTION")
	assert.Equal(t, Production, getEnvironment())
}

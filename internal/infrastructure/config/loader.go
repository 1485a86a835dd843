package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Environment constants
const (
	Development = "development"
	Production  = "production"
	Test        = "test"
)

// EnvPrefix prefixes every environment variable read by the service
const EnvPrefix = "CP"

// ConfigPaths defines the paths to look for config files
var ConfigPaths = []string{
	"./configs",
	"../configs",
	"../../configs",
	"../../../configs",
}

// DotEnvPaths defines the paths to look for .env files
var DotEnvPaths = []string{
	".env",
	"../.env",
	"../../.env",
	"./configs/.env",
	"../configs/.env",
}

// ErrNoDotEnv is returned when none of the DotEnvPaths exists
var ErrNoDotEnv = errors.New("no .env file found in search paths")

// LoadConfig loads configuration from file based on the environment. A missing
// .env is normal outside development; one that exists but cannot be read is an error.
func LoadConfig() (*Config, error) {
	envFile, err := loadDotEnvFile(DotEnvPaths)
	if err != nil && !errors.Is(err, ErrNoDotEnv) {
		return nil, err
	}

	config, err := LoadConfigFor(getEnvironment(), ConfigPaths...)
	if err != nil {
		return nil, err
	}
	config.DotEnvFile = envFile
	return config, nil
}

// LoadConfigFor reads <env>.yaml from the given paths and applies CP_ overrides
func LoadConfigFor(env string, paths ...string) (*Config, error) {
	v := viper.New()
	v.SetConfigName(env)
	v.SetConfigType("yaml")
	for _, path := range paths {
		v.AddConfigPath(path)
	}

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	processEnvOverrides(v)

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config into struct: %w", err)
	}

	config.Environment = env
	processDurations(&config)

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

// loadDotEnvFile loads the first .env file found in paths and returns its path
func loadDotEnvFile(paths []string) (string, error) {
	for _, path := range paths {
		if _, err := os.Stat(path); err != nil {
			continue
		}
		if err := godotenv.Load(path); err != nil {
			return "", fmt.Errorf("loading %s: %w", path, err)
		}
		return path, nil
	}
	return "", ErrNoDotEnv
}

// setDefaults sets default values for non-critical configuration
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.readTimeout", 15)       // seconds
	v.SetDefault("server.writeTimeout", 30)      // seconds, lifted for the SSE stream
	v.SetDefault("server.idleTimeout", 60)       // seconds
	v.SetDefault("server.readHeaderTimeout", 10) // seconds
	v.SetDefault("server.shutdownTimeout", 15)   // seconds

	v.SetDefault("database.driver", "postgres")
	v.SetDefault("database.port", "5432")
	v.SetDefault("database.sslMode", "disable")
	v.SetDefault("database.maxOpenConns", 50)
	v.SetDefault("database.maxIdleConns", 25)
	v.SetDefault("database.connMaxLifetime", 30) // minutes
	v.SetDefault("database.connMaxIdleTime", 15) // minutes
	v.SetDefault("database.queryTimeout", 5)     // seconds
	v.SetDefault("database.retryAttempts", 3)
	v.SetDefault("database.retryDelay", 1) // seconds
	v.SetDefault("database.txMaxRetries", 5)
	v.SetDefault("database.logLevel", "warn")
	v.SetDefault("database.hookWorkers", 4)
	v.SetDefault("database.hookQueueSize", 256)
	v.SetDefault("database.hookTimeout", 3) // seconds

	v.SetDefault("logger.level", "info")

	v.SetDefault("payment.currency", "DZD")
	v.SetDefault("payment.webhookTimeout", 10) // seconds
	v.SetDefault("payment.sequencerWorkers", 8)
	v.SetDefault("payment.sequencerQueueSize", 64)

	v.SetDefault("gateway.baseURL", "https://pay.chargily.net/test/api/v2")
	v.SetDefault("gateway.locale", "fr")
	v.SetDefault("gateway.timeout", 10) // seconds

	v.SetDefault("realtime.heartbeatInterval", 25) // seconds
	v.SetDefault("realtime.bufferSize", 32)
	v.SetDefault("realtime.redisChannel", "client-portal:notifications")

	v.SetDefault("messaging.topic", "payments.ledger")
	v.SetDefault("messaging.clientID", "client-portal")
}

// getEnvironment determines the environment to use based on CP_ENV
func getEnvironment() string {
	env := os.Getenv(EnvPrefix + "_ENV")
	if env == "" {
		env = Development
	}
	return strings.ToLower(env)
}

// processEnvOverrides makes environment variables win over file values for
// secrets and deployment specific settings
func processEnvOverrides(v *viper.Viper) {
	overrides := map[string]string{
		"CP_DB_DRIVER":           "database.driver",
		"CP_DB_HOST":             "database.host",
		"CP_DB_PORT":             "database.port",
		"CP_DB_USERNAME":         "database.username",
		"CP_DB_PASSWORD":         "database.password",
		"CP_DB_NAME":             "database.database",
		"CP_DB_SSL_MODE":         "database.sslMode",
		"CP_SERVER_HOST":         "server.host",
		"CP_LOGGER_LEVEL":        "logger.level",
		"CP_PAYMENT_BACK_URL":    "payment.backURL",
		"CP_GATEWAY_BASE_URL":    "gateway.baseURL",
		"CP_GATEWAY_SECRET_KEY":  "gateway.secretKey",
		"CP_GATEWAY_WEBHOOK_URL": "gateway.webhookURL",
		"CP_GATEWAY_SUCCESS_URL": "gateway.successURL",
		"CP_GATEWAY_FAILURE_URL": "gateway.failureURL",
		"CP_AUTH_JWT_SECRET":     "auth.jwtSecret",
		"CP_AUTH_ISSUER":         "auth.issuer",
		"CP_REDIS_ADDR":          "realtime.redisAddr",
		"CP_REDIS_PASSWORD":      "realtime.redisPassword",
		"CP_KAFKA_TOPIC":         "messaging.topic",
	}
	for env, key := range overrides {
		if value := os.Getenv(env); value != "" {
			v.Set(key, value)
		}
	}

	if port := getEnvInt("CP_SERVER_PORT", 0); port > 0 {
		v.Set("server.port", port)
	}
	if maxOpenConns := getEnvInt("CP_DB_MAX_OPEN_CONNS", 0); maxOpenConns > 0 {
		v.Set("database.maxOpenConns", maxOpenConns)
	}
	if maxIdleConns := getEnvInt("CP_DB_MAX_IDLE_CONNS", 0); maxIdleConns > 0 {
		v.Set("database.maxIdleConns", maxIdleConns)
	}
	if workers := getEnvInt("CP_PAYMENT_SEQUENCER_WORKERS", 0); workers > 0 {
		v.Set("payment.sequencerWorkers", workers)
	}

	if brokers := getEnvList("CP_KAFKA_BROKERS"); len(brokers) > 0 {
		v.Set("messaging.brokers", brokers)
	}
	if staff := getEnvList("CP_NOTIFICATIONS_STAFF_USER_IDS"); len(staff) > 0 {
		v.Set("notifications.staffUserIds", staff)
	}
	if origins := getEnvList("CP_SERVER_ALLOWED_ORIGINS"); len(origins) > 0 {
		v.Set("server.allowedOrigins", origins)
	}
}

// getEnvInt reads an integer environment variable
func getEnvInt(name string, defaultVal int) int {
	valStr := os.Getenv(name)
	if valStr == "" {
		return defaultVal
	}

	val, err := strconv.Atoi(valStr)
	if err != nil {
		return defaultVal
	}
	return val
}

// getEnvList reads a comma separated environment variable
func getEnvList(name string) []string {
	raw := os.Getenv(name)
	if raw == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// processDurations converts time.Duration fields from their raw values to actual durations
func processDurations(config *Config) {
	config.Server.ReadTimeout = config.Server.ReadTimeout * time.Second
	config.Server.WriteTimeout = config.Server.WriteTimeout * time.Second
	config.Server.IdleTimeout = config.Server.IdleTimeout * time.Second
	config.Server.ReadHeaderTimeout = config.Server.ReadHeaderTimeout * time.Second
	config.Server.ShutdownTimeout = config.Server.ShutdownTimeout * time.Second

	config.Database.ConnMaxLifetime = config.Database.ConnMaxLifetime * time.Minute
	config.Database.ConnMaxIdleTime = config.Database.ConnMaxIdleTime * time.Minute
	config.Database.QueryTimeout = config.Database.QueryTimeout * time.Second
	config.Database.RetryDelay = config.Database.RetryDelay * time.Second
	config.Database.HookTimeout = config.Database.HookTimeout * time.Second

	config.Payment.WebhookTimeout = config.Payment.WebhookTimeout * time.Second
	config.Gateway.Timeout = config.Gateway.Timeout * time.Second
	config.Realtime.HeartbeatInterval = config.Realtime.HeartbeatInterval * time.Second
}

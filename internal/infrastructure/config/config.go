package config

import "time"

// Config holds all configuration for the application
type Config struct {
	Environment   string              `mapstructure:"environment"`
	Server        ServerConfig        `mapstructure:"server"`
	Database      DatabaseConfig      `mapstructure:"database"`
	Logger        LoggerConfig        `mapstructure:"logger"`
	Payment       PaymentConfig       `mapstructure:"payment"`
	Gateway       GatewayConfig       `mapstructure:"gateway"`
	Auth          AuthConfig          `mapstructure:"auth"`
	Realtime      RealtimeConfig      `mapstructure:"realtime"`
	Messaging     MessagingConfig     `mapstructure:"messaging"`
	Notifications NotificationsConfig `mapstructure:"notifications"`

	// DotEnvFile is the .env file LoadConfig applied, empty when there was none
	DotEnvFile string `mapstructure:"-"`
}

// IsProduction reports whether the service runs with production settings
func (c *Config) IsProduction() bool {
	return c.Environment == Production
}

// ServerConfig contains HTTP server settings
type ServerConfig struct {
	Host              string        `mapstructure:"host"`
	Port              int           `mapstructure:"port"`
	ReadTimeout       time.Duration `mapstructure:"readTimeout"`       // seconds
	WriteTimeout      time.Duration `mapstructure:"writeTimeout"`      // seconds
	IdleTimeout       time.Duration `mapstructure:"idleTimeout"`       // seconds
	ReadHeaderTimeout time.Duration `mapstructure:"readHeaderTimeout"` // seconds
	ShutdownTimeout   time.Duration `mapstructure:"shutdownTimeout"`   // seconds
	AllowedOrigins    []string      `mapstructure:"allowedOrigins"`
}

// DatabaseConfig contains database connection settings
type DatabaseConfig struct {
	Driver          string        `mapstructure:"driver"`
	Host            string        `mapstructure:"host"`
	Port            string        `mapstructure:"port"`
	Username        string        `mapstructure:"username"`
	Password        string        `mapstructure:"password"`
	Database        string        `mapstructure:"database"`
	SSLMode         string        `mapstructure:"sslMode"`
	MaxOpenConns    int           `mapstructure:"maxOpenConns"`
	MaxIdleConns    int           `mapstructure:"maxIdleConns"`
	ConnMaxLifetime time.Duration `mapstructure:"connMaxLifetime"` // minutes
	ConnMaxIdleTime time.Duration `mapstructure:"connMaxIdleTime"` // minutes
	QueryTimeout    time.Duration `mapstructure:"queryTimeout"`    // seconds
	RetryAttempts   int           `mapstructure:"retryAttempts"`
	RetryDelay      time.Duration `mapstructure:"retryDelay"` // seconds
	TxMaxRetries    int           `mapstructure:"txMaxRetries"`
	LogLevel        string        `mapstructure:"logLevel"`
	SeedDemoData    bool          `mapstructure:"seedDemoData"`

	// After-commit hooks (live pushes, ledger events)
	HookWorkers   int           `mapstructure:"hookWorkers"`
	HookQueueSize int           `mapstructure:"hookQueueSize"`
	HookTimeout   time.Duration `mapstructure:"hookTimeout"` // seconds
}

// LoggerConfig contains logger settings
type LoggerConfig struct {
	Level string `mapstructure:"level"`
}

// PaymentConfig contains payment ledger settings
type PaymentConfig struct {
	Currency           string        `mapstructure:"currency"`
	BackURL            string        `mapstructure:"backURL"`
	WebhookTimeout     time.Duration `mapstructure:"webhookTimeout"` // seconds
	SequencerWorkers   int           `mapstructure:"sequencerWorkers"`
	SequencerQueueSize int           `mapstructure:"sequencerQueueSize"`
}

// GatewayConfig contains Chargily Pay settings
type GatewayConfig struct {
	BaseURL    string        `mapstructure:"baseURL"`
	SecretKey  string        `mapstructure:"secretKey"`
	SuccessURL string        `mapstructure:"successURL"`
	FailureURL string        `mapstructure:"failureURL"`
	WebhookURL string        `mapstructure:"webhookURL"`
	Locale     string        `mapstructure:"locale"`
	Timeout    time.Duration `mapstructure:"timeout"` // seconds
}

// AuthConfig contains the identity provider settings used to verify bearer tokens
type AuthConfig struct {
	JWTSecret string `mapstructure:"jwtSecret"`
	Issuer    string `mapstructure:"issuer"`
}

// RealtimeConfig contains live notification settings
type RealtimeConfig struct {
	HeartbeatInterval time.Duration `mapstructure:"heartbeatInterval"` // seconds
	BufferSize        int           `mapstructure:"bufferSize"`
	RedisAddr         string        `mapstructure:"redisAddr"`
	RedisPassword     string        `mapstructure:"redisPassword"`
	RedisDB           int           `mapstructure:"redisDB"`
	RedisChannel      string        `mapstructure:"redisChannel"`
}

// MessagingConfig contains Kafka settings for ledger events
type MessagingConfig struct {
	Brokers  []string `mapstructure:"brokers"`
	Topic    string   `mapstructure:"topic"`
	ClientID string   `mapstructure:"clientID"`
}

// NotificationsConfig contains notification routing settings
type NotificationsConfig struct {
	StaffUserIDs []string `mapstructure:"staffUserIds"`
}

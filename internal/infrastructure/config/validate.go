package config

import (
	"fmt"
	"strings"
	"time"
)

// Validate ensures all required configuration values are present
func (c *Config) Validate() error {
	var missingConfigs []string

	if c.Environment == "" {
		missingConfigs = append(missingConfigs, "environment")
	} else if c.Environment != Development && c.Environment != Production && c.Environment != Test {
		return fmt.Errorf("invalid environment value: %s, must be one of: %s, %s, or %s",
			c.Environment, Development, Production, Test)
	}

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		missingConfigs = append(missingConfigs, "server.port")
	}
	if c.Server.ReadTimeout == 0 {
		missingConfigs = append(missingConfigs, "server.readTimeout")
	}
	if c.Server.ShutdownTimeout == 0 {
		missingConfigs = append(missingConfigs, "server.shutdownTimeout")
	}

	if c.Database.Driver != "sqlite" {
		if c.Database.Host == "" {
			missingConfigs = append(missingConfigs, "database.host (or CP_DB_HOST)")
		}
		if c.Database.Username == "" {
			missingConfigs = append(missingConfigs, "database.username (or CP_DB_USERNAME)")
		}
	}
	if c.Database.Database == "" {
		missingConfigs = append(missingConfigs, "database.database (or CP_DB_NAME)")
	}
	if c.Database.QueryTimeout == 0 {
		missingConfigs = append(missingConfigs, "database.queryTimeout")
	}

	if c.Logger.Level == "" {
		missingConfigs = append(missingConfigs, "logger.level")
	}

	if c.Payment.Currency == "" {
		missingConfigs = append(missingConfigs, "payment.currency")
	}
	if c.Payment.WebhookTimeout == 0 {
		missingConfigs = append(missingConfigs, "payment.webhookTimeout")
	}
	if c.Payment.SequencerWorkers <= 0 {
		missingConfigs = append(missingConfigs, "payment.sequencerWorkers")
	}

	if c.Gateway.BaseURL == "" {
		missingConfigs = append(missingConfigs, "gateway.baseURL")
	}
	if c.IsProduction() {
		if c.Gateway.SecretKey == "" {
			missingConfigs = append(missingConfigs, "gateway.secretKey (or CP_GATEWAY_SECRET_KEY)")
		}
		if c.Auth.JWTSecret == "" {
			missingConfigs = append(missingConfigs, "auth.jwtSecret (or CP_AUTH_JWT_SECRET)")
		}
	}

	if len(missingConfigs) > 0 {
		return fmt.Errorf("missing required configurations: %v", missingConfigs)
	}
	return nil
}

// Warnings lists settings that work but are risky in production
func (c *Config) Warnings() []string {
	if !c.IsProduction() {
		return nil
	}

	var warnings []string
	sslMode := strings.ToLower(c.Database.SSLMode)
	if sslMode != "require" && sslMode != "verify-ca" && sslMode != "verify-full" {
		warnings = append(warnings, "database.sslMode should be set to 'require', 'verify-ca', or 'verify-full' in production")
	}
	if c.Server.ReadTimeout < 5*time.Second {
		warnings = append(warnings, "server.readTimeout is too low for production")
	}
	if c.Gateway.WebhookURL == "" {
		warnings = append(warnings, "gateway.webhookURL is empty, the gateway will use the account default")
	}
	if !strings.HasPrefix(c.Payment.BackURL, "https://") {
		warnings = append(warnings, "payment.backURL should use https in production")
	}
	if len(c.Messaging.Brokers) == 0 {
		warnings = append(warnings, "messaging.brokers is empty, ledger events are only logged")
	}
	return warnings
}

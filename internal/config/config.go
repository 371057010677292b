package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

// DefaultJWTSecret is the development fallback used when JWT_SECRET is
// unset. The server warns loudly at startup when it is in effect.
const DefaultJWTSecret = "dev-secret"

type Config struct {
	// HTTP Server
	Port string

	// Document database (primary backend)
	MongoURI     string
	MongoDB      string
	ProbeTimeout time.Duration

	// File-backed store (fallback backend)
	DataFile string

	// Session tokens
	JWTSecret string
	TokenTTL  time.Duration

	// AMQP event publishing (optional; disabled when URL is empty)
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string
}

func Load() *Config {
	return &Config{
		Port: getEnv("PORT", "5000"),

		MongoURI:     getEnv("MONGODB_URI", "mongodb://localhost:27017/"),
		MongoDB:      getEnv("MONGODB_DB", "budgetbuddy"),
		ProbeTimeout: getEnvDuration("DB_PING_TIMEOUT", 2*time.Second),

		DataFile: getEnv("DATA_FILE", "./data.json"),

		JWTSecret: getEnv("JWT_SECRET", DefaultJWTSecret),
		TokenTTL:  getEnvDuration("TOKEN_TTL", 30*24*time.Hour),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "budgetbuddy"),
		AMQPQueue:    getEnv("AMQP_QUEUE", "ledger_events"),
	}
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errors []string

	// Validate port
	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	// Validate Mongo URI
	if c.MongoURI == "" {
		errors = append(errors, "Mongo URI cannot be empty")
	} else if parsedURL, err := url.Parse(c.MongoURI); err != nil {
		errors = append(errors, fmt.Sprintf("invalid Mongo URI '%s': %v", c.MongoURI, err))
	} else if parsedURL.Scheme != "mongodb" && parsedURL.Scheme != "mongodb+srv" {
		errors = append(errors, fmt.Sprintf("invalid Mongo URI scheme '%s': must be 'mongodb' or 'mongodb+srv'", parsedURL.Scheme))
	}

	if c.MongoDB == "" {
		errors = append(errors, "Mongo database name cannot be empty")
	}

	if c.ProbeTimeout < 100*time.Millisecond {
		errors = append(errors, fmt.Sprintf("invalid probe timeout %v: must be at least 100ms", c.ProbeTimeout))
	} else if c.ProbeTimeout > 30*time.Second {
		errors = append(errors, fmt.Sprintf("invalid probe timeout %v: must be at most 30 seconds", c.ProbeTimeout))
	}

	if c.DataFile == "" {
		errors = append(errors, "data file path cannot be empty")
	}

	if c.JWTSecret == "" {
		errors = append(errors, "JWT secret cannot be empty")
	}

	if c.TokenTTL < time.Minute {
		errors = append(errors, fmt.Sprintf("invalid token TTL %v: must be at least 1 minute", c.TokenTTL))
	}

	// Validate AMQP URL if provided
	if c.AMQPURL != "" {
		if parsedURL, err := url.Parse(c.AMQPURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsedURL.Scheme != "amqp" && parsedURL.Scheme != "amqps" {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsedURL.Scheme))
		}

		if c.AMQPExchange == "" {
			errors = append(errors, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPQueue == "" {
			errors = append(errors, "AMQP queue name cannot be empty when AMQP URL is provided")
		}
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}

	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	// HTTP Server
	Port           string
	RequestTimeout time.Duration

	// Backend selection
	DataBackend string
	SeedFile    string

	// Google OAuth client. Missing credentials disable sign-in but do not
	// stop the server.
	GoogleOAuthClientID     string
	GoogleOAuthClientSecret string
	GoogleOAuthClientFile   string
	GoogleOAuthClientJSON   string
	OAuthRedirectURL        string

	// Ledger
	LedgerResourceName string

	// Sessions
	SessionTTL time.Duration
	SessionMax int

	// AMQP (optional)
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	LogLevel string
}

func Load() *Config {
	cfg := &Config{
		Port:           getEnv("PORT", "8081"),
		RequestTimeout: getEnvDuration("REQUEST_TIMEOUT", 7*time.Second),

		DataBackend: getEnv("DATA_BACKEND", "sheets"),
		SeedFile:    getEnv("MEMORY_SEED_FILE", ""),

		GoogleOAuthClientID:     getEnv("GOOGLE_OAUTH_CLIENT_ID", ""),
		GoogleOAuthClientSecret: getEnv("GOOGLE_OAUTH_CLIENT_SECRET", ""),
		GoogleOAuthClientFile:   getEnv("GOOGLE_OAUTH_CLIENT_FILE", ""),
		GoogleOAuthClientJSON:   getEnv("GOOGLE_OAUTH_CLIENT_JSON", ""),
		OAuthRedirectURL:        getEnv("OAUTH_REDIRECT_URL", ""),

		LedgerResourceName: getEnv("LEDGER_RESOURCE_NAME", "ExpenseTracker"),

		SessionTTL: getEnvDuration("SESSION_TTL", 12*time.Hour),
		SessionMax: getEnvInt("SESSION_MAX", 1000),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "sheetledger"),
		AMQPQueue:    getEnv("AMQP_QUEUE", "ledger_events"),

		LogLevel: getEnv("LOG_LEVEL", "info"),
	}

	return cfg
}

// HasOAuthCredentials reports whether any form of OAuth client credentials
// was supplied.
func (c *Config) HasOAuthCredentials() bool {
	if c.GoogleOAuthClientJSON != "" || c.GoogleOAuthClientFile != "" {
		return true
	}
	return c.GoogleOAuthClientID != "" && c.GoogleOAuthClientSecret != ""
}

// RedirectURL returns the OAuth callback URL, defaulting to localhost.
func (c *Config) RedirectURL() string {
	if c.OAuthRedirectURL != "" {
		return c.OAuthRedirectURL
	}
	return fmt.Sprintf("http://localhost:%s/auth/callback", c.Port)
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

	// Validate data backend
	validBackends := []string{"sheets", "memory"}
	isValidBackend := false
	for _, backend := range validBackends {
		if c.DataBackend == backend {
			isValidBackend = true
			break
		}
	}
	if !isValidBackend {
		errors = append(errors, fmt.Sprintf("invalid data backend '%s': must be one of %v", c.DataBackend, validBackends))
	}

	if c.SeedFile != "" {
		if _, err := os.Stat(c.SeedFile); os.IsNotExist(err) {
			errors = append(errors, fmt.Sprintf("memory seed file does not exist: %s", c.SeedFile))
		}
	}

	// OAuth: only shape is checked here, absence is handled at sign-in.
	if c.GoogleOAuthClientID != "" && c.GoogleOAuthClientSecret == "" {
		errors = append(errors, "GOOGLE_OAUTH_CLIENT_SECRET is required when GOOGLE_OAUTH_CLIENT_ID is set")
	}
	if c.GoogleOAuthClientFile != "" {
		if _, err := os.Stat(c.GoogleOAuthClientFile); os.IsNotExist(err) {
			errors = append(errors, fmt.Sprintf("Google OAuth client file does not exist: %s", c.GoogleOAuthClientFile))
		}
	}
	if c.OAuthRedirectURL != "" {
		if u, err := url.Parse(c.OAuthRedirectURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid OAuth redirect URL '%s': %v", c.OAuthRedirectURL, err))
		} else if u.Scheme != "http" && u.Scheme != "https" {
			errors = append(errors, fmt.Sprintf("invalid OAuth redirect URL scheme '%s': must be 'http' or 'https'", u.Scheme))
		}
	}

	if strings.TrimSpace(c.LedgerResourceName) == "" {
		errors = append(errors, "ledger resource name cannot be empty")
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

	// Sessions
	if c.SessionTTL < time.Minute {
		errors = append(errors, fmt.Sprintf("invalid session TTL %v: must be at least 1 minute", c.SessionTTL))
	} else if c.SessionTTL > 30*24*time.Hour {
		errors = append(errors, fmt.Sprintf("invalid session TTL %v: must be at most 30 days", c.SessionTTL))
	}
	if c.SessionMax < 1 {
		errors = append(errors, fmt.Sprintf("invalid session max %d: must be at least 1", c.SessionMax))
	} else if c.SessionMax > 100000 {
		errors = append(errors, fmt.Sprintf("invalid session max %d: must be at most 100000", c.SessionMax))
	}

	if c.RequestTimeout < time.Second {
		errors = append(errors, fmt.Sprintf("invalid request timeout %v: must be at least 1 second", c.RequestTimeout))
	} else if c.RequestTimeout > 2*time.Minute {
		errors = append(errors, fmt.Sprintf("invalid request timeout %v: must be at most 2 minutes", c.RequestTimeout))
	}

	switch strings.ToLower(c.LogLevel) {
	case "", "debug", "info", "warn", "error":
	default:
		errors = append(errors, fmt.Sprintf("invalid log level '%s': must be one of debug, info, warn, error", c.LogLevel))
	}

	// Return combined errors
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

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
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

package config

import (
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"
)

// Config holds the application configuration
type Config struct {
	Port              string        // HTTP listen port
	TokenName         string        // Name of the session token cookie issued by the backend
	APIURL            string        // Backend API base URL
	APITimeout        time.Duration // Timeout applied to every backend call
	GoogleClientID    string        // Google OAuth client id
	GoogleRedirectURL string        // Redirect URL registered with Google
	OAuthStateSecret  string        // HMAC secret for signing OAuth state tokens
}

// Load reads configuration from environment variables with sensible defaults
func Load() (*Config, error) {
	config := &Config{
		Port:              getEnv("PORT", "3000"),
		TokenName:         getEnv("TOKEN_NAME", "default_app_token_name"),
		APIURL:            getEnv("API_URL", ""),
		APITimeout:        10 * time.Second, // Default 10 seconds
		GoogleClientID:    getEnv("GOOGLE_CLIENT_ID", ""),
		GoogleRedirectURL: getEnv("GOOGLE_REDIRECT_URL", ""),
		OAuthStateSecret:  getEnv("OAUTH_STATE_SECRET", ""),
	}

	// Parse API_TIMEOUT if provided
	if timeoutStr := os.Getenv("API_TIMEOUT"); timeoutStr != "" {
		duration, err := time.ParseDuration(timeoutStr)
		if err != nil {
			return nil, fmt.Errorf("invalid API_TIMEOUT format: %w", err)
		}
		config.APITimeout = duration
	}

	// Validate configuration
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.APIURL == "" {
		return fmt.Errorf("API_URL cannot be empty")
	}

	if _, err := url.Parse(c.APIURL); err != nil {
		return fmt.Errorf("invalid API_URL: %w", err)
	}

	if c.Port == "" {
		return fmt.Errorf("PORT cannot be empty")
	}

	if c.TokenName == "" {
		return fmt.Errorf("TOKEN_NAME cannot be empty")
	}

	if c.APITimeout <= 0 {
		return fmt.Errorf("API_TIMEOUT must be positive")
	}

	return nil
}

// getEnv retrieves an environment variable or returns a fallback value
func getEnv(key, fallback string) string {
	// Check for _FILE suffix
	if fileValue := os.Getenv(key + "_FILE"); fileValue != "" {
		content, err := os.ReadFile(fileValue)
		if err == nil {
			return strings.TrimSpace(string(content))
		}
	}

	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

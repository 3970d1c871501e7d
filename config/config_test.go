package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoad(t *testing.T) {
	tests := []struct {
		name        string
		setupEnv    func()
		cleanupEnv  func()
		expected    *Config
		wantErr     bool
		errContains string
	}{
		{
			name: "default configuration with API_URL set",
			setupEnv: func() {
				os.Setenv("API_URL", "http://backend:8000")
				os.Unsetenv("PORT")
				os.Unsetenv("TOKEN_NAME")
				os.Unsetenv("API_TIMEOUT")
			},
			cleanupEnv: func() {
				os.Unsetenv("API_URL")
			},
			expected: &Config{
				Port:       "3000",
				TokenName:  "default_app_token_name",
				APIURL:     "http://backend:8000",
				APITimeout: 10 * time.Second,
			},
			wantErr: false,
		},
		{
			name: "custom configuration from environment variables",
			setupEnv: func() {
				os.Setenv("API_URL", "http://api.internal:9000")
				os.Setenv("PORT", "8080")
				os.Setenv("TOKEN_NAME", "nexo_session")
				os.Setenv("API_TIMEOUT", "5s")
				os.Setenv("GOOGLE_CLIENT_ID", "client-123")
			},
			cleanupEnv: func() {
				os.Unsetenv("API_URL")
				os.Unsetenv("PORT")
				os.Unsetenv("TOKEN_NAME")
				os.Unsetenv("API_TIMEOUT")
				os.Unsetenv("GOOGLE_CLIENT_ID")
			},
			expected: &Config{
				Port:           "8080",
				TokenName:      "nexo_session",
				APIURL:         "http://api.internal:9000",
				APITimeout:     5 * time.Second,
				GoogleClientID: "client-123",
			},
			wantErr: false,
		},
		{
			name: "missing API_URL returns error",
			setupEnv: func() {
				os.Unsetenv("API_URL")
			},
			cleanupEnv:  func() {},
			expected:    nil,
			wantErr:     true,
			errContains: "API_URL",
		},
		{
			name: "invalid API_TIMEOUT format returns error",
			setupEnv: func() {
				os.Setenv("API_URL", "http://backend:8000")
				os.Setenv("API_TIMEOUT", "invalid")
			},
			cleanupEnv: func() {
				os.Unsetenv("API_URL")
				os.Unsetenv("API_TIMEOUT")
			},
			expected:    nil,
			wantErr:     true,
			errContains: "invalid API_TIMEOUT",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.setupEnv()
			defer tt.cleanupEnv()

			cfg, err := Load()

			if tt.wantErr {
				assert.Error(t, err)
				if tt.errContains != "" {
					assert.Contains(t, err.Error(), tt.errContains)
				}
				return
			}

			assert.NoError(t, err)
			assert.Equal(t, tt.expected.Port, cfg.Port)
			assert.Equal(t, tt.expected.TokenName, cfg.TokenName)
			assert.Equal(t, tt.expected.APIURL, cfg.APIURL)
			assert.Equal(t, tt.expected.APITimeout, cfg.APITimeout)
			if tt.expected.GoogleClientID != "" {
				assert.Equal(t, tt.expected.GoogleClientID, cfg.GoogleClientID)
			}
		})
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		config  *Config
		wantErr bool
	}{
		{
			name: "valid configuration",
			config: &Config{
				Port:       "3000",
				TokenName:  "token",
				APIURL:     "http://backend:8000",
				APITimeout: 10 * time.Second,
			},
			wantErr: false,
		},
		{
			name: "empty API_URL",
			config: &Config{
				Port:       "3000",
				TokenName:  "token",
				APITimeout: 10 * time.Second,
			},
			wantErr: true,
		},
		{
			name: "empty port",
			config: &Config{
				TokenName:  "token",
				APIURL:     "http://backend:8000",
				APITimeout: 10 * time.Second,
			},
			wantErr: true,
		},
		{
			name: "empty token name",
			config: &Config{
				Port:       "3000",
				APIURL:     "http://backend:8000",
				APITimeout: 10 * time.Second,
			},
			wantErr: true,
		},
		{
			name: "non-positive timeout",
			config: &Config{
				Port:      "3000",
				TokenName: "token",
				APIURL:    "http://backend:8000",
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestGetEnvFileIndirection(t *testing.T) {
	tmpFile, err := os.CreateTemp(t.TempDir(), "secret")
	assert.NoError(t, err)
	_, err = tmpFile.WriteString("secret-from-file\n")
	assert.NoError(t, err)
	tmpFile.Close()

	os.Setenv("OAUTH_STATE_SECRET_FILE", tmpFile.Name())
	defer os.Unsetenv("OAUTH_STATE_SECRET_FILE")

	assert.Equal(t, "secret-from-file", getEnv("OAUTH_STATE_SECRET", ""))
}

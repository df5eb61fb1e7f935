package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const clientSecretJSON = `{
  "web": {
    "client_id": "client-123.apps.googleusercontent.com",
    "client_secret": "shh",
    "auth_uri": "https://accounts.google.com/o/oauth2/auth",
    "token_uri": "https://oauth2.googleapis.com/token",
    "redirect_uris": ["http://localhost:8000/api/auth/callback"]
  }
}`

func TestValidate(t *testing.T) {
	tests := []struct {
		name        string
		mutate      func(*Config)
		errContains string
	}{
		{
			name: "valid with secret file",
			mutate: func(c *Config) {
				c.OpenAIAPIKey = "sk-test"
				c.ClientSecretFile = "/etc/inboxpal/client.json"
			},
		},
		{
			name: "valid with id and secret",
			mutate: func(c *Config) {
				c.OpenAIAPIKey = "sk-test"
				c.ClientID = "id"
				c.ClientSecret = "secret"
			},
		},
		{
			name: "missing api key",
			mutate: func(c *Config) {
				c.ClientSecretFile = "/etc/inboxpal/client.json"
			},
			errContains: "OpenAI API key is required",
		},
		{
			name: "missing google client",
			mutate: func(c *Config) {
				c.OpenAIAPIKey = "sk-test"
				c.ClientID = "id"
			},
			errContains: "Google OAuth client is required",
		},
		{
			name: "bad frontend url",
			mutate: func(c *Config) {
				c.OpenAIAPIKey = "sk-test"
				c.ClientSecretFile = "client.json"
				c.FrontendURL = "not a url"
			},
			errContains: "invalid frontend URL",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.errContains == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errContains)
		})
	}
}

func TestOAuthConfigFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "client.json")
	require.NoError(t, os.WriteFile(path, []byte(clientSecretJSON), 0o600))

	cfg := Default()
	cfg.ClientSecretFile = path
	cfg.RedirectURL = "http://api.example.com/api/auth/callback"
	cfg.TokenURL = "http://127.0.0.1:9999/token"

	conf, err := cfg.OAuthConfig()
	require.NoError(t, err)
	assert.Equal(t, "client-123.apps.googleusercontent.com", conf.ClientID)
	assert.Equal(t, "shh", conf.ClientSecret)
	assert.Equal(t, "http://api.example.com/api/auth/callback", conf.RedirectURL)
	assert.Equal(t, "http://127.0.0.1:9999/token", conf.Endpoint.TokenURL)
	assert.Contains(t, conf.Scopes, "https://www.googleapis.com/auth/gmail.readonly")
}

func TestOAuthConfigFromPair(t *testing.T) {
	cfg := Default()
	cfg.ClientID = "id"
	cfg.ClientSecret = "secret"

	conf, err := cfg.OAuthConfig()
	require.NoError(t, err)
	assert.Equal(t, "id", conf.ClientID)
	assert.Equal(t, DefaultRedirectURL, conf.RedirectURL)
	assert.Equal(t, "https://oauth2.googleapis.com/token", conf.Endpoint.TokenURL)
}

func TestOAuthConfigMissingFile(t *testing.T) {
	cfg := Default()
	cfg.ClientSecretFile = filepath.Join(t.TempDir(), "missing.json")

	_, err := cfg.OAuthConfig()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read client secret file")
}

func TestOrigins(t *testing.T) {
	cfg := Default()
	assert.Equal(t, []string{"http://localhost:5173"}, cfg.Origins())

	cfg.AllowedOrigins = []string{"https://app.example.com"}
	assert.Equal(t, []string{"https://app.example.com"}, cfg.Origins())

	cfg.AllowedOrigins = nil
	cfg.FrontendURL = ""
	assert.Nil(t, cfg.Origins())
}

func TestEnvHelpers(t *testing.T) {
	t.Setenv("INBOXPAL_TEST_STRING", "value")
	t.Setenv("INBOXPAL_TEST_BOOL", "true")
	t.Setenv("INBOXPAL_TEST_BAD_BOOL", "sometimes")
	t.Setenv("INBOXPAL_TEST_DURATION", "5s")

	assert.Equal(t, "value", EnvOrDefault("INBOXPAL_TEST_STRING", "default"))
	assert.Equal(t, "default", EnvOrDefault("INBOXPAL_TEST_UNSET", "default"))
	assert.True(t, EnvBoolOrDefault("INBOXPAL_TEST_BOOL", false))
	assert.False(t, EnvBoolOrDefault("INBOXPAL_TEST_BAD_BOOL", false))
	assert.Equal(t, 5*time.Second, EnvDurationOrDefault("INBOXPAL_TEST_DURATION", time.Second))
	assert.Equal(t, time.Second, EnvDurationOrDefault("INBOXPAL_TEST_UNSET", time.Second))
}

func TestParseCommaSeparatedList(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []string
	}{
		{name: "empty string", input: "", expected: nil},
		{name: "single value", input: "http://localhost:5173", expected: []string{"http://localhost:5173"}},
		{name: "multiple values", input: "a,b", expected: []string{"a", "b"}},
		{name: "spaces around comma", input: " a ,  b ", expected: []string{"a", "b"}},
		{name: "trailing comma", input: "a,b,", expected: []string{"a", "b"}},
		{name: "consecutive commas", input: "a,,b", expected: []string{"a", "b"}},
		{name: "only commas and spaces", input: ",  , , ", expected: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ParseCommaSeparatedList(tt.input))
		})
	}
}

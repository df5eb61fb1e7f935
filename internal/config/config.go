package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	googleauth "github.com/teemow/inboxpal/internal/google"
)

const (
	DefaultHTTPAddr           = ":8000"
	DefaultFrontendURL        = "http://localhost:5173"
	DefaultRedirectURL        = "http://localhost:8000/api/auth/callback"
	DefaultChatModel          = "gpt-4o"
	DefaultTranscriptionModel = "whisper-1"
	DefaultOutboundTimeout    = 60 * time.Second
)

// Config is built once at startup and passed by reference to every
// component. Nothing below cmd reads the environment directly.
type Config struct {
	// HTTPAddr is the listen address of the API server.
	HTTPAddr string

	// FrontendURL receives the OAuth callback redirect.
	FrontendURL string

	// AllowedOrigins is the CORS allow list. Defaults to FrontendURL.
	AllowedOrigins []string

	// Google OAuth client. Either ClientSecretFile or ClientID/ClientSecret.
	ClientSecretFile string
	ClientID         string
	ClientSecret     string
	RedirectURL      string

	// TokenURL overrides the Google token endpoint (tests, proxies).
	TokenURL string

	// GmailEndpoint overrides the Gmail API base URL (tests).
	GmailEndpoint string

	// OpenAI settings.
	OpenAIAPIKey       string
	OpenAIBaseURL      string
	ChatModel          string
	TranscriptionModel string

	// ScratchDir holds per-request transcription files. Defaults to os.TempDir().
	ScratchDir string

	// OutboundTimeout bounds every call to Google and OpenAI.
	OutboundTimeout time.Duration

	// ExposeClientCredentials enables GET /api/auth/credentials.
	ExposeClientCredentials bool

	// RankAppendUnranked keeps messages the model left out of its ranking.
	RankAppendUnranked bool

	Debug bool
}

// Default returns a Config with defaults applied and nothing loaded.
func Default() Config {
	return Config{
		HTTPAddr:           DefaultHTTPAddr,
		FrontendURL:        DefaultFrontendURL,
		RedirectURL:        DefaultRedirectURL,
		ChatModel:          DefaultChatModel,
		TranscriptionModel: DefaultTranscriptionModel,
		OutboundTimeout:    DefaultOutboundTimeout,
	}
}

// Validate checks the configuration is complete enough to serve requests.
func (c *Config) Validate() error {
	if c.OpenAIAPIKey == "" {
		return fmt.Errorf("OpenAI API key is required (--openai-api-key or OPENAI_API_KEY)")
	}
	if c.ClientSecretFile == "" && (c.ClientID == "" || c.ClientSecret == "") {
		return fmt.Errorf("Google OAuth client is required (--google-client-secret-file, or --google-client-id and --google-client-secret)")
	}
	if c.FrontendURL != "" {
		if _, err := url.ParseRequestURI(c.FrontendURL); err != nil {
			return fmt.Errorf("invalid frontend URL %q: %w", c.FrontendURL, err)
		}
	}
	if c.OutboundTimeout < 0 {
		return fmt.Errorf("outbound timeout must not be negative, got %s", c.OutboundTimeout)
	}
	return nil
}

// Origins returns the CORS allow list.
func (c *Config) Origins() []string {
	if len(c.AllowedOrigins) > 0 {
		return c.AllowedOrigins
	}
	if c.FrontendURL != "" {
		return []string{strings.TrimRight(c.FrontendURL, "/")}
	}
	return nil
}

// OAuthConfig builds the Google OAuth client configuration. A client secret
// file wins over an explicit id/secret pair.
func (c *Config) OAuthConfig() (*oauth2.Config, error) {
	var conf *oauth2.Config
	if c.ClientSecretFile != "" {
		data, err := os.ReadFile(c.ClientSecretFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read client secret file: %w", err)
		}
		conf, err = google.ConfigFromJSON(data, googleauth.Scopes...)
		if err != nil {
			return nil, fmt.Errorf("failed to parse client secret file: %w", err)
		}
	} else {
		conf = &oauth2.Config{
			ClientID:     c.ClientID,
			ClientSecret: c.ClientSecret,
			Endpoint:     google.Endpoint,
			Scopes:       googleauth.Scopes,
		}
	}

	if c.RedirectURL != "" {
		conf.RedirectURL = c.RedirectURL
	}
	if c.TokenURL != "" {
		conf.Endpoint.TokenURL = c.TokenURL
	}
	return conf, nil
}

// EnvOrDefault returns the value of an environment variable or a default value.
func EnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// EnvBoolOrDefault returns the boolean value of an environment variable or a default value.
func EnvBoolOrDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		parsed, err := strconv.ParseBool(value)
		if err != nil {
			return defaultValue
		}
		return parsed
	}
	return defaultValue
}

// EnvDurationOrDefault returns the duration value of an environment variable or a default value.
func EnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		parsed, err := time.ParseDuration(value)
		if err != nil {
			return defaultValue
		}
		return parsed
	}
	return defaultValue
}

// ParseCommaSeparatedList splits a comma-separated string, trimming
// whitespace and dropping empty entries. Returns nil if nothing remains.
func ParseCommaSeparatedList(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			result = append(result, p)
		}
	}
	if len(result) == 0 {
		return nil
	}
	return result
}

package google

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"golang.org/x/oauth2"

	"github.com/teemow/inboxpal/internal/apperr"
	"github.com/teemow/inboxpal/internal/instrumentation"
)

// defaultExpiryThreshold matches the early-expiry margin of golang.org/x/oauth2.
const defaultExpiryThreshold = 10 * time.Second

var errNoRefreshToken = errors.New("no refresh token available")

// Resolver owns the server-held Google OAuth client and turns per-request
// credentials into authenticated handles.
type Resolver struct {
	config     *oauth2.Config
	httpClient *http.Client
	metrics    *instrumentation.Metrics
	threshold  time.Duration
}

// ResolverOption configures a Resolver.
type ResolverOption func(*Resolver)

// WithHTTPClient sets the client used for the token endpoint and as the
// base of every handle's transport.
func WithHTTPClient(c *http.Client) ResolverOption {
	return func(r *Resolver) {
		r.httpClient = c
	}
}

// WithMetrics records OAuth outcomes.
func WithMetrics(m *instrumentation.Metrics) ResolverOption {
	return func(r *Resolver) {
		r.metrics = m
	}
}

// WithExpiryThreshold treats tokens expiring within d as already expired.
func WithExpiryThreshold(d time.Duration) ResolverOption {
	return func(r *Resolver) {
		r.threshold = d
	}
}

// NewResolver creates a Resolver for the given OAuth client configuration.
func NewResolver(config *oauth2.Config, opts ...ResolverOption) (*Resolver, error) {
	if config == nil {
		return nil, fmt.Errorf("oauth config is required")
	}
	if config.ClientID == "" || config.ClientSecret == "" {
		return nil, fmt.Errorf("oauth client id and secret are required")
	}
	if config.Endpoint.TokenURL == "" {
		return nil, fmt.Errorf("oauth token endpoint is required")
	}

	r := &Resolver{
		config:     config,
		httpClient: http.DefaultClient,
		threshold:  defaultExpiryThreshold,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// ClientID returns the OAuth client id.
func (r *Resolver) ClientID() string {
	return r.config.ClientID
}

// ClientSecret returns the OAuth client secret.
func (r *Resolver) ClientSecret() string {
	return r.config.ClientSecret
}

// AuthURL builds the consent URL. Offline access and a forced consent
// prompt make Google return a refresh token on every login.
func (r *Resolver) AuthURL(state string) string {
	return r.config.AuthCodeURL(state,
		oauth2.AccessTypeOffline,
		oauth2.SetAuthURLParam("prompt", "consent"),
		oauth2.SetAuthURLParam("include_granted_scopes", "true"),
	)
}

// Exchange trades an authorization code for a token.
func (r *Resolver) Exchange(ctx context.Context, code string) (*oauth2.Token, error) {
	const op = "google.exchange"

	code = strings.TrimSpace(code)
	if code == "" {
		return nil, apperr.CredentialInvalid(op, "authorization code is required")
	}

	token, err := r.config.Exchange(r.withHTTPClient(ctx), code)
	if err != nil {
		r.metrics.RecordOAuthAuth(ctx, instrumentation.OAuthResultFailure)
		var re *oauth2.RetrieveError
		if errors.As(err, &re) {
			return nil, &apperr.Error{
				Kind:    apperr.KindCredentialInvalid,
				Op:      op,
				Message: "error getting access token",
				Err:     err,
			}
		}
		return nil, apperr.ProviderUnavailable(op, err)
	}

	r.metrics.RecordOAuthAuth(ctx, instrumentation.OAuthResultSuccess)
	return token, nil
}

func (r *Resolver) withHTTPClient(ctx context.Context) context.Context {
	if r.httpClient == nil {
		return ctx
	}
	return context.WithValue(ctx, oauth2.HTTPClient, r.httpClient)
}

// isTokenExpired reports whether the token expires within threshold.
// A zero expiry means unknown and is never treated as expired.
func isTokenExpired(token *oauth2.Token, threshold time.Duration) bool {
	if token.Expiry.IsZero() {
		return false
	}
	return time.Now().Add(threshold).After(token.Expiry)
}

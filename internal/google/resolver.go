package google

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/oauth2"

	"github.com/teemow/inboxpal/internal/apperr"
	"github.com/teemow/inboxpal/internal/instrumentation"
)

// Credentials are the caller-supplied token fields of one request.
type Credentials struct {
	AccessToken  string
	RefreshToken string
	// Expiry is zero when the caller does not know it.
	Expiry time.Time
}

// Bundle is the per-request credential state. It is refreshed in place at
// most once and never outlives the request.
type Bundle struct {
	mu        sync.Mutex
	token     *oauth2.Token
	original  string
	attempted bool
	refreshed bool
}

func (b *Bundle) accessToken() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.token.AccessToken
}

// Handle is an authenticated capability bound to one Bundle.
type Handle struct {
	bundle   *Bundle
	resolver *Resolver
	client   *http.Client
}

// HTTPClient returns a client that authorizes requests with the bundle's
// current access token.
func (h *Handle) HTTPClient() *http.Client {
	return h.client
}

// EffectiveAccessToken is the token in use after any refresh.
func (h *Handle) EffectiveAccessToken() string {
	return h.bundle.accessToken()
}

// Refreshed reports whether a refresh replaced the caller's token.
func (h *Handle) Refreshed() bool {
	h.bundle.mu.Lock()
	defer h.bundle.mu.Unlock()
	return h.bundle.refreshed && h.bundle.token.AccessToken != h.bundle.original
}

// Token returns a copy of the current token.
func (h *Handle) Token() oauth2.Token {
	h.bundle.mu.Lock()
	defer h.bundle.mu.Unlock()
	return *h.bundle.token
}

// Resolve validates the credentials and returns a handle. A token with a
// known, past expiry is refreshed here. Without a refresh token that is
// terminal and no token endpoint call is made.
func (r *Resolver) Resolve(ctx context.Context, creds Credentials) (*Handle, error) {
	const op = "google.resolve"

	if strings.TrimSpace(creds.AccessToken) == "" {
		return nil, apperr.CredentialInvalid(op, "access token is required")
	}

	b := &Bundle{
		token: &oauth2.Token{
			AccessToken:  creds.AccessToken,
			TokenType:    "Bearer",
			RefreshToken: creds.RefreshToken,
			Expiry:       creds.Expiry,
		},
		original: creds.AccessToken,
	}

	if isTokenExpired(b.token, r.threshold) {
		if b.token.RefreshToken == "" {
			r.metrics.RecordOAuthTokenRefresh(ctx, instrumentation.OAuthResultExpired)
			return nil, apperr.CredentialExpired(op, errNoRefreshToken)
		}

		b.mu.Lock()
		err := r.refresh(ctx, b)
		b.mu.Unlock()
		if err != nil {
			return nil, err
		}
	}

	return r.newHandle(b), nil
}

func (r *Resolver) newHandle(b *Bundle) *Handle {
	base := http.DefaultTransport
	var timeout time.Duration
	if r.httpClient != nil {
		if r.httpClient.Transport != nil {
			base = r.httpClient.Transport
		}
		timeout = r.httpClient.Timeout
	}

	h := &Handle{bundle: b, resolver: r}
	h.client = &http.Client{
		Transport: &refreshingTransport{handle: h, base: base},
		Timeout:   timeout,
	}
	return h
}

// refresh performs the single refresh round trip. b.mu must be held.
func (r *Resolver) refresh(ctx context.Context, b *Bundle) error {
	const op = "google.refresh"

	b.attempted = true

	// An expiry in the past forces the token source to hit the endpoint.
	stale := &oauth2.Token{
		RefreshToken: b.token.RefreshToken,
		Expiry:       time.Unix(1, 0),
	}
	newToken, err := r.config.TokenSource(r.withHTTPClient(ctx), stale).Token()
	if err != nil {
		var re *oauth2.RetrieveError
		if errors.As(err, &re) {
			r.metrics.RecordOAuthTokenRefresh(ctx, instrumentation.OAuthResultExpired)
			return apperr.CredentialExpired(op, err)
		}
		r.metrics.RecordOAuthTokenRefresh(ctx, instrumentation.OAuthResultFailure)
		return apperr.ProviderUnavailable(op, err)
	}

	if newToken.RefreshToken == "" {
		newToken.RefreshToken = b.token.RefreshToken
	}
	b.token = newToken
	b.refreshed = true
	r.metrics.RecordOAuthTokenRefresh(ctx, instrumentation.OAuthResultSuccess)
	return nil
}

// refreshAfterRejection is called by the transport when Google answered 401
// for rejected. It returns the token to replay with, or false when no
// refresh is possible or the single allowed attempt is spent.
func (h *Handle) refreshAfterRejection(ctx context.Context, rejected string) (string, bool) {
	b := h.bundle
	b.mu.Lock()
	defer b.mu.Unlock()

	// Another request on this handle already refreshed.
	if b.token.AccessToken != rejected {
		return b.token.AccessToken, true
	}
	if b.attempted || b.token.RefreshToken == "" {
		return "", false
	}
	if err := h.resolver.refresh(ctx, b); err != nil {
		return "", false
	}
	return b.token.AccessToken, true
}

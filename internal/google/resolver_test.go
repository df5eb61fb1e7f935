package google

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	"github.com/teemow/inboxpal/internal/apperr"
)

// tokenEndpoint is a fake Google token endpoint that counts refresh calls.
type tokenEndpoint struct {
	server *httptest.Server
	calls  atomic.Int32
	status int
}

func newTokenEndpoint(t *testing.T) *tokenEndpoint {
	t.Helper()
	te := &tokenEndpoint{status: http.StatusOK}
	te.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		te.calls.Add(1)
		if err := r.ParseForm(); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		if te.status != http.StatusOK {
			w.WriteHeader(te.status)
			_, _ = w.Write([]byte(`{"error":"invalid_grant","error_description":"Token has been expired or revoked."}`))
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"access_token": "refreshed-" + r.Form.Get("refresh_token"),
			"token_type":   "Bearer",
			"expires_in":   3599,
		})
	}))
	t.Cleanup(te.server.Close)
	return te
}

func newTestResolver(t *testing.T, tokenURL string) *Resolver {
	t.Helper()
	r, err := NewResolver(&oauth2.Config{
		ClientID:     "client-id",
		ClientSecret: "client-secret",
		Endpoint: oauth2.Endpoint{
			AuthURL:   "https://accounts.google.com/o/oauth2/auth",
			TokenURL:  tokenURL,
			AuthStyle: oauth2.AuthStyleInParams,
		},
		RedirectURL: "http://localhost:8000/api/auth/callback",
		Scopes:      Scopes,
	})
	require.NoError(t, err)
	return r
}

func TestResolve(t *testing.T) {
	tests := []struct {
		name          string
		creds         Credentials
		wantToken     string
		wantRefreshed bool
		wantCalls     int32
		wantErr       error
	}{
		{
			name:      "valid token with future expiry",
			creds:     Credentials{AccessToken: "access-1", RefreshToken: "rt", Expiry: time.Now().Add(time.Hour)},
			wantToken: "access-1",
			wantCalls: 0,
		},
		{
			name:      "valid token with unknown expiry",
			creds:     Credentials{AccessToken: "access-1"},
			wantToken: "access-1",
			wantCalls: 0,
		},
		{
			name:          "expired token with refresh token",
			creds:         Credentials{AccessToken: "access-1", RefreshToken: "rt", Expiry: time.Now().Add(-time.Minute)},
			wantToken:     "refreshed-rt",
			wantRefreshed: true,
			wantCalls:     1,
		},
		{
			name:      "expired token without refresh token",
			creds:     Credentials{AccessToken: "access-1", Expiry: time.Now().Add(-time.Minute)},
			wantCalls: 0,
			wantErr:   apperr.ErrCredentialExpired,
		},
		{
			name:      "empty access token",
			creds:     Credentials{AccessToken: "  ", RefreshToken: "rt"},
			wantCalls: 0,
			wantErr:   apperr.ErrCredentialInvalid,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			te := newTokenEndpoint(t)
			r := newTestResolver(t, te.server.URL)

			handle, err := r.Resolve(context.Background(), tt.creds)
			assert.Equal(t, tt.wantCalls, te.calls.Load())

			if tt.wantErr != nil {
				require.Error(t, err)
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, handle)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.wantToken, handle.EffectiveAccessToken())
			assert.Equal(t, tt.wantRefreshed, handle.Refreshed())
			if tt.wantRefreshed {
				assert.NotEqual(t, tt.creds.AccessToken, handle.EffectiveAccessToken())
				tok := handle.Token()
				assert.Equal(t, "rt", tok.RefreshToken, "refresh token is kept when the endpoint omits it")
			}
		})
	}
}

func TestResolveRefreshRejected(t *testing.T) {
	te := newTokenEndpoint(t)
	te.status = http.StatusBadRequest
	r := newTestResolver(t, te.server.URL)

	_, err := r.Resolve(context.Background(), Credentials{
		AccessToken:  "access-1",
		RefreshToken: "revoked",
		Expiry:       time.Now().Add(-time.Minute),
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, apperr.ErrCredentialExpired)
	assert.Equal(t, int32(1), te.calls.Load())
}

func TestResolveTokenEndpointDown(t *testing.T) {
	te := newTokenEndpoint(t)
	r := newTestResolver(t, te.server.URL)
	te.server.Close()

	_, err := r.Resolve(context.Background(), Credentials{
		AccessToken:  "access-1",
		RefreshToken: "rt",
		Expiry:       time.Now().Add(-time.Minute),
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, apperr.ErrProviderUnavailable)
}

func TestTransportRefreshesOnceOnUnauthorized(t *testing.T) {
	te := newTokenEndpoint(t)
	r := newTestResolver(t, te.server.URL)

	var mu sync.Mutex
	seen := map[string]int{}
	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		auth := req.Header.Get("Authorization")
		mu.Lock()
		seen[auth]++
		mu.Unlock()
		if auth != "Bearer refreshed-rt" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer api.Close()

	handle, err := r.Resolve(context.Background(), Credentials{AccessToken: "stale", RefreshToken: "rt"})
	require.NoError(t, err)
	assert.False(t, handle.Refreshed())

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			resp, err := handle.HTTPClient().Get(api.URL)
			if assert.NoError(t, err) {
				assert.Equal(t, http.StatusOK, resp.StatusCode)
				_ = resp.Body.Close()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), te.calls.Load())
	assert.True(t, handle.Refreshed())
	assert.Equal(t, "refreshed-rt", handle.EffectiveAccessToken())
}

func TestTransportWithoutRefreshToken(t *testing.T) {
	te := newTokenEndpoint(t)
	r := newTestResolver(t, te.server.URL)

	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer api.Close()

	handle, err := r.Resolve(context.Background(), Credentials{AccessToken: "stale"})
	require.NoError(t, err)

	resp, err := handle.HTTPClient().Get(api.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, int32(0), te.calls.Load())
	assert.False(t, handle.Refreshed())
}

func TestAuthURL(t *testing.T) {
	r := newTestResolver(t, "https://oauth2.googleapis.com/token")

	u, err := url.Parse(r.AuthURL("state-123"))
	require.NoError(t, err)

	q := u.Query()
	assert.Equal(t, "offline", q.Get("access_type"))
	assert.Equal(t, "consent", q.Get("prompt"))
	assert.Equal(t, "true", q.Get("include_granted_scopes"))
	assert.Equal(t, "client-id", q.Get("client_id"))
	assert.Equal(t, "state-123", q.Get("state"))
	assert.Equal(t, "http://localhost:8000/api/auth/callback", q.Get("redirect_uri"))
}

func TestExchange(t *testing.T) {
	te := newTokenEndpoint(t)
	r := newTestResolver(t, te.server.URL)

	_, err := r.Exchange(context.Background(), "")
	assert.ErrorIs(t, err, apperr.ErrCredentialInvalid)

	tok, err := r.Exchange(context.Background(), "auth-code")
	require.NoError(t, err)
	assert.NotEmpty(t, tok.AccessToken)

	te.status = http.StatusBadRequest
	_, err = r.Exchange(context.Background(), "used-code")
	assert.ErrorIs(t, err, apperr.ErrCredentialInvalid)
}

func TestNewResolverValidation(t *testing.T) {
	_, err := NewResolver(nil)
	assert.Error(t, err)

	_, err = NewResolver(&oauth2.Config{ClientID: "id"})
	assert.Error(t, err)

	_, err = NewResolver(&oauth2.Config{ClientID: "id", ClientSecret: "s"})
	assert.Error(t, err)
}

func TestIsTokenExpired(t *testing.T) {
	tests := []struct {
		name      string
		expiry    time.Time
		threshold time.Duration
		want      bool
	}{
		{"zero expiry is unknown", time.Time{}, time.Minute, false},
		{"already expired", time.Now().Add(-time.Hour), 0, true},
		{"expires within threshold", time.Now().Add(5 * time.Second), 10 * time.Second, true},
		{"valid beyond threshold", time.Now().Add(time.Hour), 10 * time.Second, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, isTokenExpired(&oauth2.Token{Expiry: tt.expiry}, tt.threshold))
		})
	}
}

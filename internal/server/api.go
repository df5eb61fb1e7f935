package server

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/rs/cors"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/teemow/inboxpal/internal/instrumentation"
)

const (
	// DefaultMaxUploadBytes bounds /api/transcribe bodies.
	DefaultMaxUploadBytes = 25 << 20

	maxJSONBodyBytes = 1 << 20

	DefaultReadHeaderTimeout = 10 * time.Second
	DefaultReadTimeout       = 60 * time.Second
	DefaultWriteTimeout      = 120 * time.Second
	DefaultIdleTimeout       = 120 * time.Second
)

// API routes.
const (
	RouteLogin             = "/api/auth/login"
	RouteCallback          = "/api/auth/callback"
	RouteClientCredentials = "/api/auth/credentials"
	RouteUnread            = "/api/gmail/unread-simple"
	RouteRecent            = "/api/gmail/recent-simple"
	RouteRanked            = "/api/gmail/ranked-emails"
	RouteSummarize         = "/api/gmail/summarize-email"
	RouteProcessCommand    = "/api/process-command"
	RouteProcessText       = "/api/process-text"
	RouteTranscribe        = "/api/transcribe"
	RouteHealth            = "/api/health"
	RouteLiveness          = "/healthz"
	RouteReadiness         = "/readyz"
)

// APIConfig configures the HTTP API.
type APIConfig struct {
	// FrontendURL receives the OAuth callback redirect.
	FrontendURL string

	// AllowedOrigins are the CORS origins; FrontendURL is used when empty.
	AllowedOrigins []string

	// ExposeClientCredentials enables /api/auth/credentials, which returns
	// the OAuth client secret to any caller.
	ExposeClientCredentials bool

	// MaxUploadBytes bounds transcription uploads (default DefaultMaxUploadBytes).
	MaxUploadBytes int64

	Metrics *instrumentation.Metrics
	Logger  *slog.Logger
}

// API serves the inboxpal HTTP routes.
type API struct {
	sc         *ServerContext
	health     *HealthChecker
	config     APIConfig
	logger     *slog.Logger
	metrics    *instrumentation.Metrics
	knownPaths map[string]bool
}

// NewAPI creates the HTTP API.
func NewAPI(sc *ServerContext, health *HealthChecker, config APIConfig) (*API, error) {
	if sc == nil {
		return nil, errors.New("server context is required")
	}
	if health == nil {
		health = NewHealthChecker(sc)
	}
	if config.MaxUploadBytes <= 0 {
		config.MaxUploadBytes = DefaultMaxUploadBytes
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if config.ExposeClientCredentials {
		logger.Warn("client credentials route enabled: the OAuth client secret is served to any caller",
			"route", RouteClientCredentials)
	}

	return &API{
		sc:      sc,
		health:  health,
		config:  config,
		logger:  logger,
		metrics: config.Metrics,
		knownPaths: map[string]bool{
			RouteLogin: true, RouteCallback: true, RouteClientCredentials: true,
			RouteUnread: true, RouteRecent: true, RouteRanked: true, RouteSummarize: true,
			RouteProcessCommand: true, RouteProcessText: true, RouteTranscribe: true,
			RouteHealth: true, RouteLiveness: true, RouteReadiness: true,
		},
	}, nil
}

// Handler returns the complete handler chain: tracing, CORS, request IDs,
// panic recovery, access logging and metrics around the route mux.
func (a *API) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET "+RouteLogin, a.handleLogin)
	mux.HandleFunc("GET "+RouteCallback, a.handleCallback)
	if a.config.ExposeClientCredentials {
		mux.HandleFunc("GET "+RouteClientCredentials, a.handleClientCredentials)
	}

	mux.HandleFunc("POST "+RouteUnread, a.handleUnread)
	mux.HandleFunc("POST "+RouteRecent, a.handleRecent)
	mux.HandleFunc("POST "+RouteRanked, a.handleRanked)
	mux.HandleFunc("POST "+RouteSummarize, a.handleSummarize)
	mux.HandleFunc("POST "+RouteProcessCommand, a.handleProcessCommand)
	mux.HandleFunc("POST "+RouteProcessText, a.handleProcessText)
	mux.HandleFunc("POST "+RouteTranscribe, a.handleTranscribe)

	a.health.RegisterHealthEndpoints(mux)

	var h http.Handler = mux
	h = a.observe(h)
	h = recoverPanics(h, a.logger)
	h = withRequestID(h)
	h = a.cors().Handler(h)
	return otelhttp.NewHandler(h, "inboxpal.http",
		otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
			return r.Method + " " + instrumentation.NormalizePath(r.URL.Path, a.knownPaths)
		}),
	)
}

func (a *API) cors() *cors.Cors {
	origins := a.config.AllowedOrigins
	if len(origins) == 0 && a.config.FrontendURL != "" {
		origins = []string{strings.TrimRight(a.config.FrontendURL, "/")}
	}
	return cors.New(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	})
}

// NewHTTPServer wraps handler in an http.Server with the API timeouts.
func NewHTTPServer(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: DefaultReadHeaderTimeout,
		ReadTimeout:       DefaultReadTimeout,
		WriteTimeout:      DefaultWriteTimeout,
		IdleTimeout:       DefaultIdleTimeout,
	}
}

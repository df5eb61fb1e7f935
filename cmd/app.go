package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/spf13/cobra"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/teemow/inboxpal/internal/assistant"
	"github.com/teemow/inboxpal/internal/config"
	"github.com/teemow/inboxpal/internal/gmail"
	"github.com/teemow/inboxpal/internal/google"
	"github.com/teemow/inboxpal/internal/instrumentation"
	"github.com/teemow/inboxpal/internal/intent"
	"github.com/teemow/inboxpal/internal/llm"
	"github.com/teemow/inboxpal/internal/logging"
	"github.com/teemow/inboxpal/internal/ranking"
	"github.com/teemow/inboxpal/internal/summary"
	"github.com/teemow/inboxpal/internal/transcribe"
)

// Environment variables read as flag fallbacks.
const (
	envClientSecretFile   = "GOOGLE_CLIENT_SECRET_FILE"
	envClientID           = "GOOGLE_CLIENT_ID"
	envClientSecret       = "GOOGLE_CLIENT_SECRET"
	envRedirectURL        = "GOOGLE_REDIRECT_URL"
	envOpenAIAPIKey       = "OPENAI_API_KEY"
	envOpenAIBaseURL      = "OPENAI_BASE_URL"
	envChatModel          = "OPENAI_CHAT_MODEL"
	envTranscriptionModel = "OPENAI_TRANSCRIPTION_MODEL"
	envScratchDir         = "INBOXPAL_SCRATCH_DIR"
	envOutboundTimeout    = "INBOXPAL_OUTBOUND_TIMEOUT"
	envAppendUnranked     = "INBOXPAL_RANK_APPEND_UNRANKED"
	envDebug              = "INBOXPAL_DEBUG"
	envLogFormat          = "INBOXPAL_LOG_FORMAT"
)

// commonOptions are the settings shared by every command that talks to
// Google and OpenAI.
type commonOptions struct {
	cfg       config.Config
	logFormat string
}

// addCommonFlags registers the provider flags on cmd. Secrets have no
// default so help output never shows them; loadSecrets fills them from the
// environment after parsing.
func addCommonFlags(cmd *cobra.Command, o *commonOptions) {
	o.cfg = config.Default()
	f := cmd.Flags()

	f.StringVar(&o.cfg.ClientSecretFile, "google-client-secret-file", config.EnvOrDefault(envClientSecretFile, ""), "Google OAuth client secret JSON file (can also be set via "+envClientSecretFile+")")
	f.StringVar(&o.cfg.ClientID, "google-client-id", "", "Google OAuth client ID (can also be set via "+envClientID+")")
	f.StringVar(&o.cfg.ClientSecret, "google-client-secret", "", "Google OAuth client secret (can also be set via "+envClientSecret+")")
	f.StringVar(&o.cfg.RedirectURL, "redirect-url", config.EnvOrDefault(envRedirectURL, config.DefaultRedirectURL), "OAuth redirect URL registered with Google")

	f.StringVar(&o.cfg.OpenAIAPIKey, "openai-api-key", "", "OpenAI API key (can also be set via "+envOpenAIAPIKey+")")
	f.StringVar(&o.cfg.OpenAIBaseURL, "openai-base-url", config.EnvOrDefault(envOpenAIBaseURL, ""), "OpenAI-compatible API base URL")
	f.StringVar(&o.cfg.ChatModel, "chat-model", config.EnvOrDefault(envChatModel, config.DefaultChatModel), "Chat completion model")
	f.StringVar(&o.cfg.TranscriptionModel, "transcription-model", config.EnvOrDefault(envTranscriptionModel, config.DefaultTranscriptionModel), "Speech to text model")

	f.StringVar(&o.cfg.ScratchDir, "scratch-dir", config.EnvOrDefault(envScratchDir, ""), "Directory for transcription scratch files (default: system temp dir)")
	f.DurationVar(&o.cfg.OutboundTimeout, "outbound-timeout", config.EnvDurationOrDefault(envOutboundTimeout, config.DefaultOutboundTimeout), "Timeout for each call to Google and OpenAI")
	f.BoolVar(&o.cfg.RankAppendUnranked, "rank-append-unranked", config.EnvBoolOrDefault(envAppendUnranked, false), "Keep messages the model left out of its ranking, after the ranked ones")

	f.BoolVar(&o.cfg.Debug, "debug", config.EnvBoolOrDefault(envDebug, false), "Enable debug logging")
	f.StringVar(&o.logFormat, "log-format", config.EnvOrDefault(envLogFormat, "json"), "Log format: json or text")
}

// loadSecrets fills secrets that were not given as flags from the
// environment.
func (o *commonOptions) loadSecrets() {
	if o.cfg.ClientID == "" {
		o.cfg.ClientID = os.Getenv(envClientID)
	}
	if o.cfg.ClientSecret == "" {
		o.cfg.ClientSecret = os.Getenv(envClientSecret)
	}
	if o.cfg.OpenAIAPIKey == "" {
		o.cfg.OpenAIAPIKey = os.Getenv(envOpenAIAPIKey)
	}
}

// newLogger builds the process logger. Logs go to stderr so the MCP stdio
// transport keeps stdout to itself.
func (o *commonOptions) newLogger() *slog.Logger {
	logger := logging.New(os.Stderr, o.cfg.Debug, o.logFormat == "text")
	slog.SetDefault(logger)
	return logger
}

// buildAssistant wires the providers and use cases described by cfg.
func buildAssistant(cfg *config.Config, metrics *instrumentation.Metrics, logger *slog.Logger) (*assistant.Service, error) {
	oauthConf, err := cfg.OAuthConfig()
	if err != nil {
		return nil, err
	}

	outbound := &http.Client{
		Timeout:   cfg.OutboundTimeout,
		Transport: otelhttp.NewTransport(http.DefaultTransport),
	}

	resolver, err := google.NewResolver(oauthConf,
		google.WithHTTPClient(outbound),
		google.WithMetrics(metrics),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create OAuth resolver: %w", err)
	}

	model, err := llm.NewClient(cfg.OpenAIAPIKey,
		llm.WithBaseURL(cfg.OpenAIBaseURL),
		llm.WithHTTPClient(outbound),
		llm.WithChatModel(cfg.ChatModel),
		llm.WithTranscriptionModel(cfg.TranscriptionModel),
		llm.WithMetrics(metrics),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create OpenAI client: %w", err)
	}

	gmailOpts := []gmail.Option{gmail.WithMetrics(metrics)}
	if cfg.GmailEndpoint != "" {
		gmailOpts = append(gmailOpts, gmail.WithEndpoint(cfg.GmailEndpoint))
	}

	arena := transcribe.NewArena(cfg.ScratchDir, logging.NewSlogAdapter(logger))

	return assistant.New(assistant.Dependencies{
		Resolver:     resolver,
		GmailOptions: gmailOpts,
		Ranker: ranking.New(model,
			ranking.WithAppendUnranked(cfg.RankAppendUnranked),
			ranking.WithMetrics(metrics),
			ranking.WithLogger(logger),
		),
		Classifier:  intent.NewClassifier(model),
		Summarizer:  summary.New(model),
		Transcriber: transcribe.NewService(model, arena, metrics),
		Logger:      logger,
	})
}

// startInstrumentation creates the OpenTelemetry provider. The returned
// function flushes and stops it.
func startInstrumentation(ctx context.Context, logger *slog.Logger) (*instrumentation.Provider, func(), error) {
	instrConfig := instrumentation.DefaultConfig()
	instrConfig.ServiceVersion = version

	provider, err := instrumentation.NewProvider(ctx, instrConfig)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create instrumentation provider: %w", err)
	}
	return provider, func() {
		// The signal context may already be cancelled here.
		if err := provider.Shutdown(context.WithoutCancel(ctx)); err != nil {
			logger.Warn("error during instrumentation shutdown", logging.Err(err))
		}
	}, nil
}

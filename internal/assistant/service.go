package assistant

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/oauth2"

	"github.com/teemow/inboxpal/internal/apperr"
	"github.com/teemow/inboxpal/internal/gmail"
	"github.com/teemow/inboxpal/internal/google"
	"github.com/teemow/inboxpal/internal/instrumentation"
	"github.com/teemow/inboxpal/internal/intent"
	"github.com/teemow/inboxpal/internal/logging"
	"github.com/teemow/inboxpal/internal/ranking"
	"github.com/teemow/inboxpal/internal/summary"
	"github.com/teemow/inboxpal/internal/transcribe"
)

// Dependencies are the components a Service is built from. Resolver is
// required for the mailbox and auth use cases; the language model
// components are required for their respective use cases.
type Dependencies struct {
	Resolver     *google.Resolver
	GmailOptions []gmail.Option
	Ranker       *ranking.Ranker
	Classifier   *intent.Classifier
	Summarizer   *summary.Summarizer
	Transcriber  *transcribe.Service
	Logger       *slog.Logger
}

// Service implements the assistant use cases.
type Service struct {
	resolver     *google.Resolver
	gmailOptions []gmail.Option
	ranker       *ranking.Ranker
	classifier   *intent.Classifier
	summarizer   *summary.Summarizer
	transcriber  *transcribe.Service
	logger       *slog.Logger
}

// New creates a Service.
func New(deps Dependencies) (*Service, error) {
	if deps.Resolver == nil {
		return nil, errors.New("assistant: credential resolver is required")
	}
	if deps.Ranker == nil || deps.Classifier == nil || deps.Summarizer == nil || deps.Transcriber == nil {
		return nil, errors.New("assistant: language model components are required")
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		resolver:     deps.Resolver,
		gmailOptions: deps.GmailOptions,
		ranker:       deps.Ranker,
		classifier:   deps.Classifier,
		summarizer:   deps.Summarizer,
		transcriber:  deps.Transcriber,
		logger:       logger,
	}, nil
}

// Refresh is a token obtained by refreshing the caller's credentials.
type Refresh struct {
	AccessToken string
	Expiry      time.Time
}

// UnreadResult is the result of UnreadCount.
type UnreadResult struct {
	Count   int64
	Refresh *Refresh
}

// RecentResult is the result of RecentEmails.
type RecentResult struct {
	Emails  []gmail.MessageSummary
	Refresh *Refresh
}

// RankedResult is the result of RankedEmails.
type RankedResult struct {
	Emails         []gmail.RankableMessage
	Degraded       bool
	DegradedReason string
	Refresh        *Refresh
}

// CommandResult is the result of ProcessCommand.
type CommandResult struct {
	Intent   intent.Intent
	Response string
}

// UnreadCount returns the unread estimate of the caller's mailbox.
func (s *Service) UnreadCount(ctx context.Context, creds google.Credentials) (UnreadResult, error) {
	client, handle, err := s.mailbox(ctx, creds)
	if err != nil {
		return UnreadResult{}, err
	}
	count, err := client.CountUnread(ctx)
	if err != nil {
		return UnreadResult{}, err
	}
	return UnreadResult{Count: count, Refresh: s.refreshOf(ctx, handle)}, nil
}

// RecentEmails lists the most recent messages' metadata.
func (s *Service) RecentEmails(ctx context.Context, creds google.Credentials, maxResults int64) (RecentResult, error) {
	client, handle, err := s.mailbox(ctx, creds)
	if err != nil {
		return RecentResult{}, err
	}
	emails, err := client.ListRecent(ctx, maxResults)
	if err != nil {
		return RecentResult{}, err
	}
	return RecentResult{Emails: emails, Refresh: s.refreshOf(ctx, handle)}, nil
}

// RankedEmails fetches recent messages with bodies and ranks them. A
// ranking failure yields the degraded order, never an error.
func (s *Service) RankedEmails(ctx context.Context, creds google.Credentials, maxResults int64) (RankedResult, error) {
	client, handle, err := s.mailbox(ctx, creds)
	if err != nil {
		return RankedResult{}, err
	}
	msgs, err := client.ListFullForRanking(ctx, maxResults)
	if err != nil {
		return RankedResult{}, err
	}

	res := s.ranker.Rank(ctx, msgs)
	return RankedResult{
		Emails:         res.Messages,
		Degraded:       res.Degraded(),
		DegradedReason: res.Reason,
		Refresh:        s.refreshOf(ctx, handle),
	}, nil
}

// SummarizeEmail summarizes one email.
func (s *Service) SummarizeEmail(ctx context.Context, e summary.Email) (string, error) {
	return s.summarizer.Summarize(ctx, e)
}

// ProcessCommand classifies text and picks the canned reply. An answer
// outside the known intents is returned as is with the reply for OTHER.
func (s *Service) ProcessCommand(ctx context.Context, text string) (CommandResult, error) {
	i, err := s.classifier.Classify(ctx, text)
	if err != nil {
		return CommandResult{}, err
	}
	if !i.Known() {
		s.logger.InfoContext(ctx, "classifier returned unknown intent", slog.String("intent", string(i)))
	}
	return CommandResult{Intent: i, Response: i.Response()}, nil
}

// Transcribe converts uploaded audio to text.
func (s *Service) Transcribe(ctx context.Context, audio []byte, filename, contentType string) (string, error) {
	return s.transcriber.Transcribe(ctx, audio, filename, contentType)
}

// LoginURL returns the Google consent URL with a fresh state value.
func (s *Service) LoginURL() string {
	return s.resolver.AuthURL(uuid.NewString())
}

// CompleteLogin exchanges an authorization code for a token.
func (s *Service) CompleteLogin(ctx context.Context, code string) (*oauth2.Token, error) {
	return s.resolver.Exchange(ctx, code)
}

// ClientCredentials returns the OAuth client id and secret.
func (s *Service) ClientCredentials() (id, secret string) {
	return s.resolver.ClientID(), s.resolver.ClientSecret()
}

func (s *Service) mailbox(ctx context.Context, creds google.Credentials) (*gmail.Client, *google.Handle, error) {
	handle, err := s.resolver.Resolve(ctx, creds)
	if err != nil {
		return nil, nil, err
	}
	client, err := gmail.NewClient(ctx, handle.HTTPClient(), s.gmailOptions...)
	if err != nil {
		return nil, nil, apperr.Ensure(apperr.KindProviderUnavailable, "assistant.mailbox", err)
	}
	return client, handle, nil
}

// refreshOf is read after the mailbox calls, since the transport may have
// refreshed reactively during them.
func (s *Service) refreshOf(ctx context.Context, h *google.Handle) *Refresh {
	if !h.Refreshed() {
		return nil
	}
	trace.SpanFromContext(ctx).SetAttributes(attribute.Bool(instrumentation.SpanAttrRefreshed, true))
	tok := h.Token()
	s.logger.DebugContext(ctx, "access token refreshed", logging.Token("access_token", tok.AccessToken))
	return &Refresh{AccessToken: tok.AccessToken, Expiry: tok.Expiry}
}

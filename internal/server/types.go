package server

import (
	"time"

	"github.com/teemow/inboxpal/internal/assistant"
	"github.com/teemow/inboxpal/internal/gmail"
	"github.com/teemow/inboxpal/internal/google"
	"github.com/teemow/inboxpal/internal/intent"
)

// CredentialRequest is the body of the Gmail routes. Expiry is optional;
// when it is absent the token is refreshed only after Google rejects it.
type CredentialRequest struct {
	Token        string     `json:"token"`
	RefreshToken string     `json:"refresh_token,omitempty"`
	Expiry       *time.Time `json:"expiry,omitempty"`
	MaxResults   int64      `json:"maxResults,omitempty"`
}

func (r CredentialRequest) credentials() google.Credentials {
	c := google.Credentials{AccessToken: r.Token, RefreshToken: r.RefreshToken}
	if r.Expiry != nil {
		c.Expiry = *r.Expiry
	}
	return c
}

// TokenUpdate is embedded in Gmail responses when the access token was
// refreshed during the request.
type TokenUpdate struct {
	NewToken       string     `json:"new_token,omitempty"`
	NewTokenExpiry *time.Time `json:"new_token_expiry,omitempty"`
}

// TokenUpdateFrom converts an assistant refresh into the response fields.
// A nil refresh yields the zero TokenUpdate.
func TokenUpdateFrom(ref *assistant.Refresh) TokenUpdate {
	if ref == nil {
		return TokenUpdate{}
	}
	u := TokenUpdate{NewToken: ref.AccessToken}
	if !ref.Expiry.IsZero() {
		exp := ref.Expiry.UTC()
		u.NewTokenExpiry = &exp
	}
	return u
}

// LoginResponse is returned by GET /api/auth/login.
type LoginResponse struct {
	AuthURL string `json:"auth_url"`
}

// ClientCredentialsResponse is returned by GET /api/auth/credentials.
type ClientCredentialsResponse struct {
	ClientID     string `json:"client_id"`
	ClientSecret string `json:"client_secret"`
}

// UnreadResponse is returned by POST /api/gmail/unread-simple.
type UnreadResponse struct {
	Count int64 `json:"count"`
	TokenUpdate
}

// RecentResponse is returned by POST /api/gmail/recent-simple.
type RecentResponse struct {
	Emails []gmail.MessageSummary `json:"emails"`
	TokenUpdate
}

// RankedResponse is returned by POST /api/gmail/ranked-emails.
type RankedResponse struct {
	Emails         []gmail.RankableMessage `json:"emails"`
	Degraded       bool                    `json:"degraded,omitempty"`
	DegradedReason string                  `json:"degraded_reason,omitempty"`
	TokenUpdate
}

// EmailContent is the email to summarize.
type EmailContent struct {
	ID      string `json:"id"`
	From    string `json:"from"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// SummarizeRequest is the body of POST /api/gmail/summarize-email.
type SummarizeRequest struct {
	EmailContent EmailContent `json:"email_content"`
}

// SummarizeResponse is returned by POST /api/gmail/summarize-email.
type SummarizeResponse struct {
	Summary string `json:"summary"`
	EmailID string `json:"email_id"`
	Subject string `json:"subject"`
}

// TextRequest is the body of POST /api/process-command and /api/process-text.
type TextRequest struct {
	Text string `json:"text"`
}

// CommandResponse is returned by POST /api/process-command.
type CommandResponse struct {
	Intent          intent.Intent `json:"intent"`
	OriginalCommand string        `json:"original_command"`
	Response        string        `json:"response"`
}

// TranscriptResponse is returned by POST /api/transcribe and /api/process-text.
type TranscriptResponse struct {
	Transcript string `json:"transcript"`
}

// ErrorResponse is the body of every error response.
type ErrorResponse struct {
	Detail string `json:"detail"`
}

package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/teemow/inboxpal/internal/apperr"
	"github.com/teemow/inboxpal/internal/logging"
	"github.com/teemow/inboxpal/internal/summary"
)

func (a *API) handleLogin(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, LoginResponse{AuthURL: a.sc.Assistant().LoginURL()})
}

// handleCallback exchanges the authorization code and redirects the browser
// to the frontend with the tokens, or with an error, in the query string.
func (a *API) handleCallback(w http.ResponseWriter, r *http.Request) {
	q := url.Values{}
	if e := r.URL.Query().Get("error"); e != "" {
		q.Set("error", e)
		a.redirectFrontend(w, r, q)
		return
	}

	code := r.URL.Query().Get("code")
	if code == "" {
		q.Set("error", "missing authorization code")
		a.redirectFrontend(w, r, q)
		return
	}

	tok, err := a.sc.Assistant().CompleteLogin(r.Context(), code)
	if err != nil {
		a.logger.WarnContext(r.Context(), "authorization code exchange failed", logging.Err(err))
		q.Set("error", ErrorDetail(err))
		a.redirectFrontend(w, r, q)
		return
	}

	q.Set("token", tok.AccessToken)
	if tok.RefreshToken != "" {
		q.Set("refresh_token", tok.RefreshToken)
	}
	if !tok.Expiry.IsZero() {
		q.Set("expiry", tok.Expiry.UTC().Format(time.RFC3339))
	}
	a.redirectFrontend(w, r, q)
}

func (a *API) redirectFrontend(w http.ResponseWriter, r *http.Request, q url.Values) {
	target := strings.TrimRight(a.config.FrontendURL, "/")
	if target == "" {
		target = "/"
	}
	http.Redirect(w, r, target+"?"+q.Encode(), http.StatusFound)
}

func (a *API) handleClientCredentials(w http.ResponseWriter, _ *http.Request) {
	id, secret := a.sc.Assistant().ClientCredentials()
	writeJSON(w, http.StatusOK, ClientCredentialsResponse{ClientID: id, ClientSecret: secret})
}

func (a *API) handleUnread(w http.ResponseWriter, r *http.Request) {
	var req CredentialRequest
	if !a.decode(w, r, &req) {
		return
	}
	res, err := a.sc.Assistant().UnreadCount(r.Context(), req.credentials())
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, UnreadResponse{Count: res.Count, TokenUpdate: TokenUpdateFrom(res.Refresh)})
}

func (a *API) handleRecent(w http.ResponseWriter, r *http.Request) {
	var req CredentialRequest
	if !a.decode(w, r, &req) {
		return
	}
	res, err := a.sc.Assistant().RecentEmails(r.Context(), req.credentials(), req.MaxResults)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, RecentResponse{Emails: res.Emails, TokenUpdate: TokenUpdateFrom(res.Refresh)})
}

func (a *API) handleRanked(w http.ResponseWriter, r *http.Request) {
	var req CredentialRequest
	if !a.decode(w, r, &req) {
		return
	}
	res, err := a.sc.Assistant().RankedEmails(r.Context(), req.credentials(), req.MaxResults)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, RankedResponse{
		Emails:         res.Emails,
		Degraded:       res.Degraded,
		DegradedReason: res.DegradedReason,
		TokenUpdate:    TokenUpdateFrom(res.Refresh),
	})
}

func (a *API) handleSummarize(w http.ResponseWriter, r *http.Request) {
	var req SummarizeRequest
	if !a.decode(w, r, &req) {
		return
	}
	e := req.EmailContent
	text, err := a.sc.Assistant().SummarizeEmail(r.Context(), summary.Email{
		ID:      e.ID,
		From:    e.From,
		Subject: e.Subject,
		Body:    e.Body,
	})
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, SummarizeResponse{Summary: text, EmailID: e.ID, Subject: e.Subject})
}

func (a *API) handleProcessCommand(w http.ResponseWriter, r *http.Request) {
	var req TextRequest
	if !a.decode(w, r, &req) {
		return
	}
	res, err := a.sc.Assistant().ProcessCommand(r.Context(), req.Text)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, CommandResponse{
		Intent:          res.Intent,
		OriginalCommand: req.Text,
		Response:        res.Response,
	})
}

// handleProcessText echoes the text back as a transcript, for frontends
// that capture speech locally.
func (a *API) handleProcessText(w http.ResponseWriter, r *http.Request) {
	var req TextRequest
	if !a.decode(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		a.writeError(w, r, apperr.EmptyInput("server.process_text", "text is empty"))
		return
	}
	writeJSON(w, http.StatusOK, TranscriptResponse{Transcript: req.Text})
}

func (a *API) handleTranscribe(w http.ResponseWriter, r *http.Request) {
	const op = "server.transcribe"

	r.Body = http.MaxBytesReader(w, r.Body, a.config.MaxUploadBytes)
	file, header, err := r.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case errors.As(err, &tooLarge):
			writeJSON(w, http.StatusRequestEntityTooLarge, ErrorResponse{
				Detail: fmt.Sprintf("audio upload exceeds %d bytes", tooLarge.Limit),
			})
		case errors.Is(err, http.ErrMissingFile):
			a.writeError(w, r, apperr.EmptyInput(op, "multipart field \"file\" is required"))
		default:
			writeJSON(w, http.StatusBadRequest, ErrorResponse{Detail: "invalid multipart body: " + err.Error()})
		}
		return
	}
	defer func() { _ = file.Close() }()

	audio, err := io.ReadAll(file)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Detail: "failed to read upload: " + err.Error()})
		return
	}

	text, err := a.sc.Assistant().Transcribe(r.Context(), audio, header.Filename, header.Header.Get("Content-Type"))
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, TranscriptResponse{Transcript: text})
}

// decode reads a JSON body into v. Unknown fields, trailing data and bodies
// over maxJSONBodyBytes are rejected with 400.
func (a *API) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBodyBytes))
	dec.DisallowUnknownFields()

	err := dec.Decode(v)
	if err == nil && dec.More() {
		err = errors.New("unexpected data after JSON body")
	}
	if err != nil {
		a.logger.DebugContext(r.Context(), "rejected request body", logging.Err(err))
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Detail: "invalid request body: " + err.Error()})
		return false
	}
	return true
}

func (a *API) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := apperr.HTTPStatus(err)
	level := slog.LevelInfo
	if status >= http.StatusInternalServerError {
		level = slog.LevelError
	}
	a.logger.Log(r.Context(), level, "request failed",
		logging.Route(r.URL.Path),
		slog.String("kind", string(apperr.KindOf(err))),
		logging.Err(err),
	)
	writeJSON(w, status, ErrorResponse{Detail: ErrorDetail(err)})
}

// ErrorDetail is the client-facing text of err. Provider failures carry
// the upstream cause.
func ErrorDetail(err error) string {
	var e *apperr.Error
	if !errors.As(err, &e) {
		return "internal server error"
	}
	msg := e.Message
	if msg == "" {
		msg = string(e.Kind)
	}
	if e.Kind == apperr.KindProviderUnavailable && e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

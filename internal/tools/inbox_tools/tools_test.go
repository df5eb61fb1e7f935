package inbox_tools

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	"github.com/teemow/inboxpal/internal/assistant"
	"github.com/teemow/inboxpal/internal/gmail"
	"github.com/teemow/inboxpal/internal/google"
	"github.com/teemow/inboxpal/internal/intent"
	"github.com/teemow/inboxpal/internal/logging"
	"github.com/teemow/inboxpal/internal/ranking"
	"github.com/teemow/inboxpal/internal/server"
	"github.com/teemow/inboxpal/internal/summary"
	"github.com/teemow/inboxpal/internal/tools/batch"
	"github.com/teemow/inboxpal/internal/transcribe"
)

// scriptedModel answers every completion with a fixed text, or by prompt
// when byPrompt has an entry.
type scriptedModel struct {
	answer   string
	byPrompt map[string]string
}

func (m *scriptedModel) Complete(_ context.Context, _, prompt string) (string, error) {
	if a, ok := m.byPrompt[prompt]; ok {
		return a, nil
	}
	return m.answer, nil
}

func (m *scriptedModel) Transcribe(context.Context, io.Reader) (string, error) {
	return "", nil
}

func newServerContext(t *testing.T, model *scriptedModel) *server.ServerContext {
	t.Helper()

	tokenSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"access_token": "fresh", "token_type": "Bearer", "expires_in": 3600})
	}))
	t.Cleanup(tokenSrv.Close)

	gmailSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if r.Header.Get("Authorization") != "Bearer fresh" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"error":{"code":401,"message":"Invalid Credentials"}}`))
			return
		}
		if r.URL.Path == "/gmail/v1/users/me/messages" {
			_ = json.NewEncoder(w).Encode(map[string]any{
				"messages":           []map[string]string{{"id": "m1"}},
				"resultSizeEstimate": 3,
			})
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":       "m1",
			"labelIds": []string{"UNREAD"},
			"payload": map[string]any{
				"mimeType": "text/plain",
				"headers":  []map[string]string{{"name": "Subject", "value": "Hello"}},
				"body":     map[string]string{"data": "aGVsbG8"},
			},
		})
	}))
	t.Cleanup(gmailSrv.Close)

	resolver, err := google.NewResolver(&oauth2.Config{
		ClientID:     "client-id",
		ClientSecret: "client-secret",
		Endpoint:     oauth2.Endpoint{AuthURL: "https://accounts.google.com/o/oauth2/auth", TokenURL: tokenSrv.URL, AuthStyle: oauth2.AuthStyleInParams},
		Scopes:       google.Scopes,
	})
	require.NoError(t, err)

	svc, err := assistant.New(assistant.Dependencies{
		Resolver:     resolver,
		GmailOptions: []gmail.Option{gmail.WithEndpoint(gmailSrv.URL + "/")},
		Ranker:       ranking.New(model),
		Classifier:   intent.NewClassifier(model),
		Summarizer:   summary.New(model),
		Transcriber:  transcribe.NewService(model, transcribe.NewArena(t.TempDir(), logging.Discard()), nil),
		Logger:       logging.New(io.Discard, false, false),
	})
	require.NoError(t, err)

	sc, err := server.NewServerContext(context.Background(), svc)
	require.NoError(t, err)
	t.Cleanup(func() { _ = sc.Shutdown() })
	return sc
}

func call(args map[string]any) mcp.CallToolRequest {
	req := mcp.CallToolRequest{}
	req.Params.Arguments = args
	return req
}

func resultText(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	require.NotNil(t, res)
	require.Len(t, res.Content, 1)
	text, ok := res.Content[0].(mcp.TextContent)
	require.True(t, ok)
	return text.Text
}

func TestRegisterInboxTools(t *testing.T) {
	sc := newServerContext(t, &scriptedModel{})
	s := mcpserver.NewMCPServer("test-server", "1.0.0", mcpserver.WithToolCapabilities(true))
	require.NoError(t, RegisterInboxTools(s, sc))

	resp := s.HandleMessage(context.Background(), json.RawMessage(`{"jsonrpc":"2.0","id":1,"method":"tools/list"}`))
	raw, err := json.Marshal(resp)
	require.NoError(t, err)
	for _, name := range []string{ToolUnreadCount, ToolRecentEmails, ToolRankedEmails, ToolSummarizeEmail, ToolClassifyCommand, ToolAuthURL} {
		assert.Contains(t, string(raw), `"`+name+`"`)
	}

	assert.Error(t, RegisterInboxTools(s, nil))
}

func TestHandleUnreadCount(t *testing.T) {
	tests := []struct {
		name      string
		args      map[string]any
		wantError bool
		wantText  string
	}{
		{"valid token", map[string]any{"token": "fresh"}, false, `"count": 3`},
		{"refreshed on rejection", map[string]any{"token": "stale", "refresh_token": "r"}, false, `"new_token": "fresh"`},
		{"rejected without refresh token", map[string]any{"token": "stale"}, true, "credential expired"},
		{"missing token", map[string]any{}, true, "access token is required"},
		{"bad expiry", map[string]any{"token": "fresh", "expiry": "soon"}, true, "expiry must be RFC 3339"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sc := newServerContext(t, &scriptedModel{})
			res, err := handleUnreadCount(context.Background(), call(tt.args), sc)
			require.NoError(t, err)
			assert.Equal(t, tt.wantError, res.IsError)
			assert.Contains(t, resultText(t, res), tt.wantText)
		})
	}
}

func TestHandleRecentAndRanked(t *testing.T) {
	sc := newServerContext(t, &scriptedModel{answer: "1"})

	res, err := handleRecentEmails(context.Background(), call(map[string]any{"token": "fresh", "maxResults": float64(1)}), sc)
	require.NoError(t, err)
	var recent server.RecentResponse
	require.NoError(t, json.Unmarshal([]byte(resultText(t, res)), &recent))
	require.Len(t, recent.Emails, 1)
	assert.Equal(t, "Hello", recent.Emails[0].Subject)

	res, err = handleRankedEmails(context.Background(), call(map[string]any{"token": "fresh"}), sc)
	require.NoError(t, err)
	var ranked server.RankedResponse
	require.NoError(t, json.Unmarshal([]byte(resultText(t, res)), &ranked))
	require.Len(t, ranked.Emails, 1)
	assert.Equal(t, 1, *ranked.Emails[0].ImportanceRank)
	assert.False(t, ranked.Degraded)
}

func TestHandleSummarizeEmail(t *testing.T) {
	sc := newServerContext(t, &scriptedModel{answer: "A greeting."})

	res, err := handleSummarizeEmail(context.Background(), call(map[string]any{"id": "m1", "subject": "Hello", "body": "hi"}), sc)
	require.NoError(t, err)
	assert.JSONEq(t, `{"summary":"A greeting.","email_id":"m1","subject":"Hello"}`, resultText(t, res))

	res, err = handleSummarizeEmail(context.Background(), call(map[string]any{"id": "m2"}), sc)
	require.NoError(t, err)
	assert.True(t, res.IsError)
}

func TestHandleClassifyCommand(t *testing.T) {
	model := &scriptedModel{byPrompt: map[string]string{
		"next please": "NEXT_EMAIL",
		"stop":        "STOP",
		"sing a song": "SING",
	}}
	sc := newServerContext(t, model)

	t.Run("single", func(t *testing.T) {
		res, err := handleClassifyCommand(context.Background(), call(map[string]any{"text": "next please"}), sc)
		require.NoError(t, err)
		var resp server.CommandResponse
		require.NoError(t, json.Unmarshal([]byte(resultText(t, res)), &resp))
		assert.Equal(t, intent.NextEmail, resp.Intent)
		assert.Equal(t, "next please", resp.OriginalCommand)
	})

	t.Run("batch", func(t *testing.T) {
		res, err := handleClassifyCommand(context.Background(), call(map[string]any{
			"text": []any{"stop", "sing a song"},
		}), sc)
		require.NoError(t, err)
		var s batch.Summary[server.CommandResponse]
		require.NoError(t, json.Unmarshal([]byte(resultText(t, res)), &s))
		require.Len(t, s.Items, 2)
		assert.Equal(t, intent.Stop, s.Items[0].Value.Intent)
		assert.Equal(t, intent.Intent("SING"), s.Items[1].Value.Intent)
		assert.Equal(t, intent.Other.Response(), s.Items[1].Value.Response)
	})

	t.Run("missing text", func(t *testing.T) {
		res, err := handleClassifyCommand(context.Background(), call(map[string]any{}), sc)
		require.NoError(t, err)
		assert.True(t, res.IsError)
	})
}

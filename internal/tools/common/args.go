package common

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/teemow/inboxpal/internal/google"
	"github.com/teemow/inboxpal/internal/server"
)

// Credential argument names shared by the mailbox tools.
const (
	ArgToken        = "token"
	ArgRefreshToken = "refresh_token"
	ArgExpiry       = "expiry"
	ArgMaxResults   = "maxResults"
)

// CredentialOptions declares the credential arguments on a tool.
func CredentialOptions() []mcp.ToolOption {
	return []mcp.ToolOption{
		mcp.WithString(ArgToken,
			mcp.Required(),
			mcp.Description("Google OAuth access token"),
		),
		mcp.WithString(ArgRefreshToken,
			mcp.Description("Google OAuth refresh token, used when the access token has expired"),
		),
		mcp.WithString(ArgExpiry,
			mcp.Description("Access token expiry in RFC 3339 format"),
		),
	}
}

// CredentialsFromArgs reads the credential arguments. The token itself is
// validated by the resolver.
func CredentialsFromArgs(args map[string]any) (google.Credentials, error) {
	creds := google.Credentials{
		AccessToken:  StringArg(args, ArgToken),
		RefreshToken: StringArg(args, ArgRefreshToken),
	}
	if raw := StringArg(args, ArgExpiry); raw != "" {
		exp, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return google.Credentials{}, fmt.Errorf("expiry must be RFC 3339: %w", err)
		}
		creds.Expiry = exp
	}
	return creds, nil
}

// StringArg returns the trimmed string argument key, or "".
func StringArg(args map[string]any, key string) string {
	s, _ := args[key].(string)
	return strings.TrimSpace(s)
}

// IntArg returns the numeric argument key, or def when it is absent or not
// a number. JSON numbers arrive as float64.
func IntArg(args map[string]any, key string, def int64) int64 {
	switch v := args[key].(type) {
	case float64:
		return int64(v)
	case int:
		return int64(v)
	case int64:
		return v
	}
	return def
}

// JSONResult marshals v as the text content of a tool result.
func JSONResult(v any) (*mcp.CallToolResult, error) {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to encode result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(b)), nil
}

// ErrorResult converts an operation error into a tool error result with the
// same detail the HTTP API returns.
func ErrorResult(action string, err error) *mcp.CallToolResult {
	return mcp.NewToolResultError(fmt.Sprintf("Failed to %s: %s", action, server.ErrorDetail(err)))
}

package resources

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/inboxpal/internal/gmail"
	"github.com/teemow/inboxpal/internal/intent"
)

// Resource URIs.
const (
	URIIntents = "inbox://intents"
	URILimits  = "inbox://limits"
)

// IntentInfo describes one command intent.
type IntentInfo struct {
	Name     intent.Intent `json:"name"`
	Response string        `json:"response"`
}

// Limits are the message count bounds of the mailbox tools.
type Limits struct {
	DefaultRecentResults  int `json:"default_recent_results"`
	DefaultRankingResults int `json:"default_ranking_results"`
	MaxResults            int `json:"max_results"`
}

// RegisterAssistantResources registers the assistant resources with the
// MCP server.
func RegisterAssistantResources(s *mcpserver.MCPServer) {
	intentsResource := mcp.NewResource(
		URIIntents,
		"Command Intents",
		mcp.WithResourceDescription("Intents a spoken or typed command is classified into, with the reply for each"),
		mcp.WithMIMEType("application/json"),
	)
	s.AddResource(intentsResource, handleIntents)

	limitsResource := mcp.NewResource(
		URILimits,
		"Mailbox Limits",
		mcp.WithResourceDescription("Default and maximum number of messages fetched by the mailbox tools"),
		mcp.WithMIMEType("application/json"),
	)
	s.AddResource(limitsResource, handleLimits)
}

// Intents lists every known intent in classification order.
func Intents() []IntentInfo {
	out := make([]IntentInfo, 0, len(intent.All))
	for _, i := range intent.All {
		out = append(out, IntentInfo{Name: i, Response: i.Response()})
	}
	return out
}

func handleIntents(_ context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return jsonContents(request.Params.URI, Intents())
}

func handleLimits(_ context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return jsonContents(request.Params.URI, Limits{
		DefaultRecentResults:  gmail.DefaultRecentResults,
		DefaultRankingResults: gmail.DefaultRankingResults,
		MaxResults:            gmail.MaxResults,
	})
}

func jsonContents(uri string, v any) ([]mcp.ResourceContents, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s: %w", uri, err)
	}
	return []mcp.ResourceContents{
		&mcp.TextResourceContents{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}

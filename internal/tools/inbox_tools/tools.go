package inbox_tools

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/inboxpal/internal/gmail"
	"github.com/teemow/inboxpal/internal/logging"
	"github.com/teemow/inboxpal/internal/server"
	"github.com/teemow/inboxpal/internal/summary"
	"github.com/teemow/inboxpal/internal/tools/batch"
	"github.com/teemow/inboxpal/internal/tools/common"
)

// Tool names.
const (
	ToolUnreadCount     = "inbox_unread_count"
	ToolRecentEmails    = "inbox_recent_emails"
	ToolRankedEmails    = "inbox_ranked_emails"
	ToolSummarizeEmail  = "inbox_summarize_email"
	ToolClassifyCommand = "inbox_classify_command"
	ToolAuthURL         = "inbox_auth_url"
)

// RegisterInboxTools registers all inbox tools with the MCP server.
func RegisterInboxTools(s *mcpserver.MCPServer, sc *server.ServerContext) error {
	if sc == nil {
		return errors.New("server context is required")
	}

	unreadTool := mcp.NewTool(ToolUnreadCount, append([]mcp.ToolOption{
		mcp.WithDescription("Count unread messages in the Gmail inbox. Gmail returns an estimate."),
	}, common.CredentialOptions()...)...)
	s.AddTool(unreadTool, common.InstrumentedToolHandler(ToolUnreadCount, sc, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return handleUnreadCount(ctx, request, sc)
	}))

	recentTool := mcp.NewTool(ToolRecentEmails, append([]mcp.ToolOption{
		mcp.WithDescription("List sender, subject, date and snippet of the most recent messages"),
		mcp.WithNumber(common.ArgMaxResults,
			mcp.Description(fmt.Sprintf("Maximum number of messages (default: %d, max: %d)", gmail.DefaultRecentResults, gmail.MaxResults)),
		),
	}, common.CredentialOptions()...)...)
	s.AddTool(recentTool, common.InstrumentedToolHandler(ToolRecentEmails, sc, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return handleRecentEmails(ctx, request, sc)
	}))

	rankedTool := mcp.NewTool(ToolRankedEmails, append([]mcp.ToolOption{
		mcp.WithDescription("Fetch recent messages with their bodies and order them by importance using the language model. " +
			"When the model answer cannot be used the result is marked degraded and ordered unread first."),
		mcp.WithNumber(common.ArgMaxResults,
			mcp.Description(fmt.Sprintf("Maximum number of messages (default: %d, max: %d)", gmail.DefaultRankingResults, gmail.MaxResults)),
		),
	}, common.CredentialOptions()...)...)
	s.AddTool(rankedTool, common.InstrumentedToolHandler(ToolRankedEmails, sc, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return handleRankedEmails(ctx, request, sc)
	}))

	summarizeTool := mcp.NewTool(ToolSummarizeEmail,
		mcp.WithDescription("Summarize an email in two to three sentences"),
		mcp.WithString("id", mcp.Description("Message ID, echoed in the result")),
		mcp.WithString("from", mcp.Description("Sender")),
		mcp.WithString("subject", mcp.Description("Subject line")),
		mcp.WithString("body", mcp.Description("Plain-text body")),
	)
	s.AddTool(summarizeTool, common.InstrumentedToolHandler(ToolSummarizeEmail, sc, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return handleSummarizeEmail(ctx, request, sc)
	}))

	classifyTool := mcp.NewTool(ToolClassifyCommand,
		mcp.WithDescription("Classify voice assistant commands into SUMMARIZE_EMAILS, NEXT_EMAIL, SKIP_EMAIL, MORE_DETAILS, STOP or OTHER"),
		mcp.WithString("text",
			mcp.Required(),
			mcp.Description("Command text (string) or array of command texts"),
		),
	)
	s.AddTool(classifyTool, common.InstrumentedToolHandler(ToolClassifyCommand, sc, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return handleClassifyCommand(ctx, request, sc)
	}))

	authTool := mcp.NewTool(ToolAuthURL,
		mcp.WithDescription("Return the Google consent URL. After consent the callback route hands out the access and refresh tokens."),
	)
	s.AddTool(authTool, common.InstrumentedToolHandler(ToolAuthURL, sc, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return common.JSONResult(server.LoginResponse{AuthURL: sc.Assistant().LoginURL()})
	}))

	return nil
}

func handleUnreadCount(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	creds, err := common.CredentialsFromArgs(request.GetArguments())
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	res, err := sc.Assistant().UnreadCount(ctx, creds)
	if err != nil {
		return common.ErrorResult("count unread messages", err), nil
	}
	return common.JSONResult(server.UnreadResponse{Count: res.Count, TokenUpdate: server.TokenUpdateFrom(res.Refresh)})
}

func handleRecentEmails(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	creds, err := common.CredentialsFromArgs(args)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	res, err := sc.Assistant().RecentEmails(ctx, creds, common.IntArg(args, common.ArgMaxResults, 0))
	if err != nil {
		return common.ErrorResult("list recent messages", err), nil
	}
	return common.JSONResult(server.RecentResponse{Emails: res.Emails, TokenUpdate: server.TokenUpdateFrom(res.Refresh)})
}

func handleRankedEmails(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	creds, err := common.CredentialsFromArgs(args)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	res, err := sc.Assistant().RankedEmails(ctx, creds, common.IntArg(args, common.ArgMaxResults, 0))
	if err != nil {
		return common.ErrorResult("rank messages", err), nil
	}
	return common.JSONResult(server.RankedResponse{
		Emails:         res.Emails,
		Degraded:       res.Degraded,
		DegradedReason: res.DegradedReason,
		TokenUpdate:    server.TokenUpdateFrom(res.Refresh),
	})
}

func handleSummarizeEmail(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	e := summary.Email{
		ID:      common.StringArg(args, "id"),
		From:    common.StringArg(args, "from"),
		Subject: common.StringArg(args, "subject"),
		Body:    common.StringArg(args, "body"),
	}

	text, err := sc.Assistant().SummarizeEmail(ctx, e)
	if err != nil {
		return common.ErrorResult("summarize email", err), nil
	}
	return common.JSONResult(server.SummarizeResponse{Summary: text, EmailID: e.ID, Subject: e.Subject})
}

// handleClassifyCommand returns a single CommandResponse for a string and a
// batch summary for an array.
func handleClassifyCommand(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	raw := request.GetArguments()["text"]
	texts, err := batch.ParseStringOrArray(raw, "text")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	classify := func(ctx context.Context, text string) (server.CommandResponse, error) {
		res, err := sc.Assistant().ProcessCommand(ctx, text)
		if err != nil {
			return server.CommandResponse{}, errors.New(server.ErrorDetail(err))
		}
		return server.CommandResponse{Intent: res.Intent, OriginalCommand: text, Response: res.Response}, nil
	}

	if _, single := raw.(string); single {
		resp, err := classify(ctx, texts[0])
		if err != nil {
			return mcp.NewToolResultError("Failed to classify command: " + err.Error()), nil
		}
		return common.JSONResult(resp)
	}
	result := batch.Run(ctx, texts, batch.DefaultLimit, classify)
	logging.WithTool(slog.Default(), ToolClassifyCommand).DebugContext(ctx, "batch classified",
		slog.Int("total", result.Total),
		slog.Int("failed", result.Failed),
	)
	return common.JSONResult(result)
}

package inbox_tools

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/mailwright/internal/google"
	"github.com/teemow/mailwright/internal/llm"
	"github.com/teemow/mailwright/internal/server"
	"github.com/teemow/mailwright/internal/tools/batch"
	"github.com/teemow/mailwright/internal/tools/common"
	"github.com/teemow/mailwright/internal/triage"
)

// RegisterInboxTools registers the inbox tools. inbox_delete_spam is only
// registered when readOnly is false.
func RegisterInboxTools(s *mcpserver.MCPServer, sc *server.ServerContext, readOnly bool) error {
	analyzeTool := mcp.NewTool("inbox_analyze",
		mcp.WithDescription("Analyze today's emails into a prioritized todo list and a spam list. Results are cached for 30 minutes."),
		mcp.WithString("account",
			mcp.Description(common.AccountParam),
		),
		mcp.WithBoolean("force",
			mcp.Description("Ignore a valid cached analysis and analyze again (default: false)"),
		),
	)
	s.AddTool(analyzeTool, common.InstrumentedToolHandler("inbox_analyze", sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleAnalyze(ctx, request, sc)
		}))

	cacheStatusTool := mcp.NewTool("inbox_cache_status",
		mcp.WithDescription("Report whether a valid cached inbox analysis exists and how old it is"),
		mcp.WithString("account",
			mcp.Description(common.AccountParam),
		),
	)
	s.AddTool(cacheStatusTool, common.InstrumentedToolHandler("inbox_cache_status", sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleCacheStatus(ctx, request, sc)
		}))

	cacheClearTool := mcp.NewTool("inbox_cache_clear",
		mcp.WithDescription("Delete the cached inbox analysis"),
		mcp.WithString("account",
			mcp.Description(common.AccountParam),
		),
	)
	s.AddTool(cacheClearTool, common.InstrumentedToolHandler("inbox_cache_clear", sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleCacheClear(ctx, request, sc)
		}))

	cacheLoadTool := mcp.NewTool("inbox_cache_load",
		mcp.WithDescription("Return the last stored inbox analysis, even if it has expired"),
		mcp.WithString("account",
			mcp.Description(common.AccountParam),
		),
	)
	s.AddTool(cacheLoadTool, common.InstrumentedToolHandler("inbox_cache_load", sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleCacheLoad(ctx, request, sc)
		}))

	reports := []struct {
		name, desc string
		run        func(ctx context.Context, c *llm.Client, emails []llm.EmailDigest) (any, error)
	}{
		{
			name: "inbox_daily_insights",
			desc: "Summarize today's emails into common topics, insights, writing style and trends",
			run: func(ctx context.Context, c *llm.Client, emails []llm.EmailDigest) (any, error) {
				return c.DailyInsights(ctx, emails, allContent(emails))
			},
		},
		{
			name: "inbox_daily_summary",
			desc: "Write a summary of today's email activity",
			run: func(ctx context.Context, c *llm.Client, emails []llm.EmailDigest) (any, error) {
				return c.DailySummary(ctx, emails)
			},
		},
		{
			name: "inbox_daily_patterns",
			desc: "Describe the writing patterns in today's emails",
			run: func(ctx context.Context, c *llm.Client, emails []llm.EmailDigest) (any, error) {
				return c.DailyPatterns(ctx, emails)
			},
		},
		{
			name: "inbox_daily_improvements",
			desc: "Suggest writing improvements based on today's emails",
			run: func(ctx context.Context, c *llm.Client, emails []llm.EmailDigest) (any, error) {
				return c.DailyImprovements(ctx, emails)
			},
		},
	}
	for _, r := range reports {
		tool := mcp.NewTool(r.name,
			mcp.WithDescription(r.desc),
			mcp.WithString("account",
				mcp.Description(common.AccountParam),
			),
		)
		s.AddTool(tool, common.InstrumentedToolHandler(r.name, sc,
			func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
				return handleDailyReport(ctx, request, sc, r.run)
			}))
	}

	testConnectionTool := mcp.NewTool("inbox_test_connection",
		mcp.WithDescription("Check that the Gmail account is authorized and reachable"),
		mcp.WithString("account",
			mcp.Description(common.AccountParam),
		),
	)
	s.AddTool(testConnectionTool, common.InstrumentedToolHandler("inbox_test_connection", sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleTestConnection(ctx, request, sc)
		}))

	if !readOnly {
		deleteSpamTool := mcp.NewTool("inbox_delete_spam",
			mcp.WithDescription("Permanently delete one or more messages flagged as spam. This cannot be undone."),
			mcp.WithString("account",
				mcp.Description(common.AccountParam),
			),
			mcp.WithString("messageIds",
				mcp.Required(),
				mcp.Description("Message ID (string) or array of message IDs to delete"),
			),
		)
		s.AddTool(deleteSpamTool, common.InstrumentedDestructiveToolHandler("inbox_delete_spam", sc,
			func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
				return handleDeleteSpam(ctx, request, sc)
			}))
	}

	return nil
}

// triageError maps service errors onto tool results.
func triageError(account, action string, err error) *mcp.CallToolResult {
	switch {
	case errors.Is(err, google.ErrNoToken):
		return common.AuthErrorResult(account, err)
	case errors.Is(err, llm.ErrMissingAPIKey):
		return mcp.NewToolResultError(fmt.Sprintf("%v. Set OPENAI_API_KEY or run 'mailwright settings set openai_api_key <key>'.", err))
	default:
		return mcp.NewToolResultError(fmt.Sprintf("Failed to %s for account %s: %v", action, account, err))
	}
}

func handleAnalyze(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	account := common.GetAccountFromArgs(args)

	result, err := sc.Triage().Analyze(ctx, account, common.OptionalBool(args, "force", false))
	if err != nil {
		return triageError(account, "analyze inbox", err), nil
	}
	return common.JSONResult(result), nil
}

func handleCacheStatus(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	account := common.GetAccountFromArgs(request.GetArguments())
	status, err := sc.Triage().CacheStatus(ctx, account)
	if err != nil {
		return triageError(account, "read cache status", err), nil
	}
	return common.JSONResult(status), nil
}

func handleCacheClear(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	account := common.GetAccountFromArgs(request.GetArguments())
	if err := sc.Triage().ClearCache(ctx, account); err != nil {
		return triageError(account, "clear cache", err), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Cache cleared for account %s", account)), nil
}

func handleCacheLoad(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	account := common.GetAccountFromArgs(request.GetArguments())
	result, err := sc.Triage().LoadCached(ctx, account)
	if errors.Is(err, triage.ErrNoCache) {
		return mcp.NewToolResultError(fmt.Sprintf("No cached analysis found for account %s. Run inbox_analyze first.", account)), nil
	}
	if err != nil {
		return triageError(account, "load cached analysis", err), nil
	}
	return common.JSONResult(result), nil
}

// allContent joins subjects and bodies as extra context for the insights
// report.
func allContent(emails []llm.EmailDigest) string {
	var b strings.Builder
	for i, e := range emails {
		if i > 0 {
			b.WriteString("\n\n")
		}
		fmt.Fprintf(&b, "Subject: %s\n%s", e.Subject, e.Body)
	}
	return b.String()
}

func handleDailyReport(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext,
	run func(context.Context, *llm.Client, []llm.EmailDigest) (any, error)) (*mcp.CallToolResult, error) {
	account := common.GetAccountFromArgs(request.GetArguments())

	client, err := sc.LLM()
	if err != nil {
		return triageError(account, "create report", err), nil
	}
	emails, err := sc.Triage().Emails(ctx, account)
	if err != nil {
		return triageError(account, "fetch today's emails", err), nil
	}
	if len(emails) == 0 {
		return mcp.NewToolResultText("No emails received today."), nil
	}

	report, err := run(ctx, client, triage.Digests(emails))
	if err != nil {
		return triageError(account, "create report", err), nil
	}
	if text, ok := report.(string); ok {
		return mcp.NewToolResultText(text), nil
	}
	return common.JSONResult(report), nil
}

func handleTestConnection(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	account := common.GetAccountFromArgs(request.GetArguments())
	email, err := sc.Triage().TestConnection(ctx, account)
	if err != nil {
		return triageError(account, "connect to Gmail", err), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Connected successfully! Email: %s", email)), nil
}

func handleDeleteSpam(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	account := common.GetAccountFromArgs(args)

	ids, err := batch.ParseStringOrArray(args["messageIds"], "messageIds")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if _, err := sc.GmailClientForAccount(ctx, account); err != nil {
		return common.AuthErrorResult(account, err), nil
	}

	results := batch.ProcessBatch(ctx, ids, func(ctx context.Context, id string) (string, error) {
		if err := sc.Triage().DeleteSpam(ctx, account, id); err != nil {
			return "", err
		}
		return fmt.Sprintf("Message %s deleted", id), nil
	})
	return mcp.NewToolResultText(batch.FormatResults(results)), nil
}

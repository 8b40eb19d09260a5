package writing_tools

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/mailwright/internal/compose"
	"github.com/teemow/mailwright/internal/instrumentation"
	"github.com/teemow/mailwright/internal/llm"
	"github.com/teemow/mailwright/internal/server"
	"github.com/teemow/mailwright/internal/signature"
	"github.com/teemow/mailwright/internal/tools/common"
)

// RegisterWritingTools registers the writing and draft tools.
func RegisterWritingTools(s *mcpserver.MCPServer, sc *server.ServerContext) error {
	generateTool := mcp.NewTool("writing_generate_email",
		mcp.WithDescription("Write a complete email from rough thoughts or notes"),
		mcp.WithString("thoughts",
			mcp.Required(),
			mcp.Description("What the email should say, in any form"),
		),
		mcp.WithString("tone",
			mcp.Description("Tone of the email, e.g. professional, friendly, formal (default: the configured default tone)"),
		),
	)
	s.AddTool(generateTool, common.InstrumentedToolHandler("writing_generate_email", sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleGenerateEmail(ctx, request, sc)
		}))

	improveTool := mcp.NewTool("writing_improve_text",
		mcp.WithDescription("Rewrite text for grammar, clarity and style and return the changes"),
		mcp.WithString("text",
			mcp.Required(),
			mcp.Description("Text to improve"),
		),
		mcp.WithString("focus",
			mcp.Description("Comma separated focus areas (default: grammar, clarity, style)"),
		),
	)
	s.AddTool(improveTool, common.InstrumentedToolHandler("writing_improve_text", sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleImproveText(ctx, request, sc)
		}))

	grammarTool := mcp.NewTool("writing_check_grammar",
		mcp.WithDescription("Check the body of an email for grammar, spelling and style issues. The signature is not checked."),
		mcp.WithString("text",
			mcp.Required(),
			mcp.Description("Email text, optionally including a signature"),
		),
	)
	s.AddTool(grammarTool, common.InstrumentedToolHandler("writing_check_grammar", sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleCheckGrammar(ctx, request, sc)
		}))

	toneTool := mcp.NewTool("writing_analyze_tone",
		mcp.WithDescription("Identify the primary tone of a text and suggest adjustments"),
		mcp.WithString("text",
			mcp.Required(),
			mcp.Description("Text to analyze"),
		),
	)
	s.AddTool(toneTool, common.InstrumentedToolHandler("writing_analyze_tone", sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleAnalyzeTone(ctx, request, sc)
		}))

	suggestionsTool := mcp.NewTool("writing_suggestions",
		mcp.WithDescription("Suggest replacements, insertions and improvements for a text"),
		mcp.WithString("text",
			mcp.Required(),
			mcp.Description("Text to get suggestions for"),
		),
		mcp.WithString("context",
			mcp.Description("What kind of text this is (default: email)"),
		),
	)
	s.AddTool(suggestionsTool, common.InstrumentedToolHandler("writing_suggestions", sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleWritingSuggestions(ctx, request, sc)
		}))

	splitTool := mcp.NewTool("writing_split_signature",
		mcp.WithDescription("Split an email into its body and trailing signature block"),
		mcp.WithString("text",
			mcp.Required(),
			mcp.Description("Email text"),
		),
	)
	s.AddTool(splitTool, common.InstrumentedToolHandler("writing_split_signature", sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleSplitSignature(ctx, request)
		}))

	applyFixTool := mcp.NewTool("writing_apply_fix",
		mcp.WithDescription("Replace the first occurrence of a fragment, preferring the body so the signature stays intact"),
		mcp.WithString("text",
			mcp.Required(),
			mcp.Description("Email text, or an HTML fragment when format is html"),
		),
		mcp.WithString("original",
			mcp.Required(),
			mcp.Description("Fragment to replace"),
		),
		mcp.WithString("fix",
			mcp.Description("Replacement text (may be empty to delete the fragment)"),
		),
		mcp.WithString("format",
			mcp.Description("text or html (default: text)"),
			mcp.Enum(string(compose.FormatText), string(compose.FormatHTML)),
		),
	)
	s.AddTool(applyFixTool, common.InstrumentedToolHandler("writing_apply_fix", sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleApplyFix(ctx, request, sc)
		}))

	return registerDraftTools(s, sc)
}

// llmClient returns the configured client or a tool error explaining how
// to configure one.
func llmClient(sc *server.ServerContext) (*llm.Client, *mcp.CallToolResult) {
	c, err := sc.LLM()
	if err != nil {
		return nil, mcp.NewToolResultError(fmt.Sprintf("%v. Set OPENAI_API_KEY or run 'mailwright settings set openai_api_key <key>'.", err))
	}
	return c, nil
}

func handleGenerateEmail(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	thoughts, err := common.RequiredString(args, "thoughts")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	tone := common.OptionalString(args, "tone", sc.Config().Compose.DefaultTone)

	client, errResult := llmClient(sc)
	if errResult != nil {
		return errResult, nil
	}
	email, err := client.GenerateEmail(ctx, thoughts, tone)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to generate email: %v", err)), nil
	}
	return mcp.NewToolResultText(email), nil
}

type improveResult struct {
	Improved string       `json:"improved"`
	Changed  bool         `json:"changed"`
	Changes  []llm.Change `json:"changes"`
}

func handleImproveText(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	text, err := common.RequiredString(args, "text")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	focus, err := common.StringList(args, "focus")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	client, errResult := llmClient(sc)
	if errResult != nil {
		return errResult, nil
	}
	imp, err := client.ImproveText(ctx, text, focus)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to improve text: %v", err)), nil
	}
	return common.JSONResult(improveResult{Improved: imp.Improved, Changed: imp.Changed(), Changes: imp.Changes}), nil
}

type suggestionsResult struct {
	Suggestions []compose.Suggestion `json:"suggestions"`
	// Signature is the block excluded from the check.
	Signature string `json:"signature,omitempty"`
}

func handleCheckGrammar(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	text, err := common.RequiredString(request.GetArguments(), "text")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	client, errResult := llmClient(sc)
	if errResult != nil {
		return errResult, nil
	}
	parts := signature.Split(text)
	suggestions, err := client.CheckGrammar(ctx, parts.Body)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to check grammar: %v", err)), nil
	}
	return common.JSONResult(suggestionsResult{Suggestions: suggestions, Signature: parts.Signature}), nil
}

func handleAnalyzeTone(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	text, err := common.RequiredString(request.GetArguments(), "text")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	client, errResult := llmClient(sc)
	if errResult != nil {
		return errResult, nil
	}
	tone, err := client.AnalyzeTone(ctx, text)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to analyze tone: %v", err)), nil
	}
	return common.JSONResult(tone), nil
}

func handleWritingSuggestions(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	text, err := common.RequiredString(args, "text")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	client, errResult := llmClient(sc)
	if errResult != nil {
		return errResult, nil
	}
	suggestions, err := client.WritingSuggestions(ctx, text, common.OptionalString(args, "context", ""))
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to get suggestions: %v", err)), nil
	}
	return common.JSONResult(suggestionsResult{Suggestions: suggestions}), nil
}

type splitResult struct {
	Body         string `json:"body"`
	Signature    string `json:"signature"`
	HasSignature bool   `json:"hasSignature"`
}

func handleSplitSignature(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	text, err := common.RequiredString(request.GetArguments(), "text")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	parts := signature.Split(text)
	return common.JSONResult(splitResult{Body: parts.Body, Signature: parts.Signature, HasSignature: parts.HasSignature()}), nil
}

type fixResult struct {
	compose.Outcome
	HTML string `json:"html,omitempty"`
}

func handleApplyFix(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	text, err := common.RequiredString(args, "text")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	original, err := common.RequiredString(args, "original")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	fix := common.OptionalString(args, "fix", "")
	format := compose.Format(common.OptionalString(args, "format", string(compose.FormatText)))

	editor, err := compose.NewEditor(format, text)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	out := compose.Apply(editor, original, fix)
	recordFix(ctx, sc, out)
	if !out.Applied {
		return mcp.NewToolResultError(fmt.Sprintf("Could not find %q in the text; the suggestion may be stale", original)), nil
	}

	res := fixResult{Outcome: out}
	if h, ok := editor.(interface{ HTML() string }); ok {
		res.HTML = h.HTML()
	}
	return common.JSONResult(res), nil
}

func recordFix(ctx context.Context, sc *server.ServerContext, out compose.Outcome) {
	strategy := out.Strategy
	if !out.Applied {
		strategy = instrumentation.FixNotFound
	}
	sc.Metrics().RecordFixApplication(ctx, strategy)
}

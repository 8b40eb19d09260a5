package writing_tools

import (
	"context"
	"fmt"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/mailwright/internal/compose"
	"github.com/teemow/mailwright/internal/server"
	"github.com/teemow/mailwright/internal/tools/common"
)

func registerDraftTools(s *mcpserver.MCPServer, sc *server.ServerContext) error {
	checkTool := mcp.NewTool("draft_check",
		mcp.WithDescription("Check a draft for grammar issues. Without draftId a new draft is opened from content."),
		mcp.WithString("draftId",
			mcp.Description("ID of an open draft"),
		),
		mcp.WithString("content",
			mcp.Description("Draft content, required when opening a new draft"),
		),
		mcp.WithString("format",
			mcp.Description("text or html (default: text)"),
			mcp.Enum(string(compose.FormatText), string(compose.FormatHTML)),
		),
	)
	s.AddTool(checkTool, common.InstrumentedToolHandler("draft_check", sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleDraftCheck(ctx, request, sc)
		}))

	applyTool := mcp.NewTool("draft_apply_fix",
		mcp.WithDescription("Apply a suggestion to an open draft, by index into the latest check or as an explicit original/fix pair. The draft is re-checked shortly after."),
		mcp.WithString("draftId",
			mcp.Required(),
			mcp.Description("ID of an open draft"),
		),
		mcp.WithNumber("index",
			mcp.Description("Index of a suggestion from the latest check"),
		),
		mcp.WithString("original",
			mcp.Description("Fragment to replace, when no index is given"),
		),
		mcp.WithString("fix",
			mcp.Description("Replacement text, when no index is given"),
		),
	)
	s.AddTool(applyTool, common.InstrumentedToolHandler("draft_apply_fix", sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleDraftApplyFix(ctx, request, sc)
		}))

	getTool := mcp.NewTool("draft_get",
		mcp.WithDescription("Get the current content, state and latest suggestions of an open draft"),
		mcp.WithString("draftId",
			mcp.Required(),
			mcp.Description("ID of an open draft"),
		),
	)
	s.AddTool(getTool, common.InstrumentedToolHandler("draft_get", sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleDraftGet(ctx, request, sc)
		}))

	closeTool := mcp.NewTool("draft_close",
		mcp.WithDescription("Close an open draft"),
		mcp.WithString("draftId",
			mcp.Required(),
			mcp.Description("ID of an open draft"),
		),
	)
	s.AddTool(closeTool, common.InstrumentedToolHandler("draft_close", sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleDraftClose(ctx, request, sc)
		}))

	return nil
}

// draftView is the JSON form of a draft.
type draftView struct {
	DraftID     string               `json:"draftId"`
	State       string               `json:"state"`
	Text        string               `json:"text"`
	HTML        string               `json:"html,omitempty"`
	Suggestions []compose.Suggestion `json:"suggestions,omitempty"`
	// SuggestionCount is set when suggestions are hidden by preference.
	SuggestionCount int        `json:"suggestionCount"`
	CheckedAt       *time.Time `json:"checkedAt,omitempty"`
	Skipped         bool       `json:"skipped,omitempty"`
}

func viewDraft(sc *server.ServerContext, s *compose.Session, a compose.Analysis) draftView {
	v := draftView{
		DraftID:         s.ID(),
		State:           s.State().String(),
		Text:            s.Text(),
		SuggestionCount: len(a.Suggestions),
		Skipped:         a.Skipped,
	}
	if h, ok := s.HTML(); ok {
		v.HTML = h
	}
	if sc.Config().Compose.ShowSuggestions {
		v.Suggestions = a.Suggestions
	}
	if !a.CheckedAt.IsZero() {
		v.CheckedAt = &a.CheckedAt
	}
	return v
}

func session(sc *server.ServerContext, args map[string]any) (*compose.Session, *mcp.CallToolResult) {
	id, err := common.RequiredString(args, "draftId")
	if err != nil {
		return nil, mcp.NewToolResultError(err.Error())
	}
	s, err := sc.Drafts().Get(id)
	if err != nil {
		return nil, mcp.NewToolResultError(err.Error())
	}
	return s, nil
}

func handleDraftCheck(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	var s *compose.Session
	if common.OptionalString(args, "draftId", "") != "" {
		var errResult *mcp.CallToolResult
		if s, errResult = session(sc, args); errResult != nil {
			return errResult, nil
		}
	} else {
		content, err := common.RequiredString(args, "content")
		if err != nil {
			return mcp.NewToolResultError("content is required when no draftId is given"), nil
		}
		format := compose.Format(common.OptionalString(args, "format", string(compose.FormatText)))
		editor, err := compose.NewEditor(format, content)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		s = sc.OpenDraft(editor)
	}

	a, err := s.Check(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to check draft %s: %v", s.ID(), err)), nil
	}
	return common.JSONResult(viewDraft(sc, s, a)), nil
}

type applyResult struct {
	Applied  bool   `json:"applied"`
	Strategy string `json:"strategy,omitempty"`
	draftView
}

func handleDraftApplyFix(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	s, errResult := session(sc, args)
	if errResult != nil {
		return errResult, nil
	}

	var sug compose.Suggestion
	if i, ok := common.OptionalInt(args, "index"); ok {
		if sug, ok = s.Suggestion(i); !ok {
			return mcp.NewToolResultError(fmt.Sprintf("no suggestion at index %d; run draft_check first", i)), nil
		}
	} else {
		original, err := common.RequiredString(args, "original")
		if err != nil {
			return mcp.NewToolResultError("either index or original is required"), nil
		}
		sug = compose.Suggestion{Original: original, Fix: common.OptionalString(args, "fix", "")}
	}

	out, err := s.Apply(sug)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	recordFix(ctx, sc, out)
	if !out.Applied {
		return mcp.NewToolResultError(fmt.Sprintf("Could not find %q in draft %s; the suggestion may be stale", sug.Original, s.ID())), nil
	}

	return common.JSONResult(applyResult{
		Applied:   true,
		Strategy:  out.Strategy,
		draftView: viewDraft(sc, s, s.Analysis()),
	}), nil
}

func handleDraftGet(_ context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	s, errResult := session(sc, request.GetArguments())
	if errResult != nil {
		return errResult, nil
	}
	return common.JSONResult(viewDraft(sc, s, s.Analysis())), nil
}

func handleDraftClose(_ context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	id, err := common.RequiredString(request.GetArguments(), "draftId")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if err := sc.CloseDraft(id); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Draft %s closed", id)), nil
}
